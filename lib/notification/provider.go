// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package notification

import (
	"context"
	"fmt"

	"github.com/bureau-foundation/gather/lib/capability"
	"github.com/bureau-foundation/gather/lib/modcall"
)

// Provider is implemented by modules that hold notifications.
type Provider interface {
	ListPending(ctx context.Context, locale string) ([]Pending, error)

	// Resolve returns nil for an unknown reference.
	Resolve(ctx context.Context, ref Ref) (*Detail, error)
}

// Expose registers provider's methods on router under module and
// declares the contract in registry.
func Expose(router *modcall.Router, module string, provider Provider, registry *capability.Registry) {
	router.Handle(module, MethodListPending, modcall.Typed(func(ctx context.Context, request ListPendingRequest) ([]Pending, error) {
		return provider.ListPending(ctx, request.Locale)
	}))
	router.Handle(module, MethodResolve, modcall.Typed(func(ctx context.Context, ref Ref) (*Detail, error) {
		return provider.Resolve(ctx, ref)
	}))
	registry.Declare(Contract)
}

// Client reads notifications from a module implementing the contract.
type Client struct {
	caller modcall.Caller
	module string
}

var _ Provider = (*Client)(nil)

// NewClient returns a client for module. It does not check that the
// module implements the contract; use Connect for that.
func NewClient(caller modcall.Caller, module string) *Client {
	return &Client{caller: caller, module: module}
}

// Connect returns a client after confirming through capability
// discovery that module implements the contract.
func Connect(ctx context.Context, caller modcall.Caller, module string) (*Client, error) {
	ok, err := capability.Implements(ctx, caller, module, Contract)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("module %s does not implement %s", module, Contract.Name)
	}
	return NewClient(caller, module), nil
}

// ListPending implements Provider.
func (c *Client) ListPending(ctx context.Context, locale string) ([]Pending, error) {
	var pending []Pending
	if err := c.caller.Call(ctx, c.module, MethodListPending, ListPendingRequest{Locale: locale}, &pending); err != nil {
		return nil, err
	}
	return pending, nil
}

// Resolve implements Provider.
func (c *Client) Resolve(ctx context.Context, ref Ref) (*Detail, error) {
	var detail *Detail
	if err := c.caller.Call(ctx, c.module, MethodResolve, ref, &detail); err != nil {
		return nil, err
	}
	return detail, nil
}
