// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package capability lets independently built modules discover which
// shared contracts the others implement.
//
// A [Contract] is a named set of method signatures. Its fingerprint is
// a BLAKE3 digest of the canonical encoding of those signatures, so two
// modules that agree on the contract compute the same fingerprint
// without sharing code, and any change to a signature produces a new
// one. Each module lists the fingerprints it implements through the
// [ImplementedFunction] function; callers ask a module for that list
// and look for the fingerprint they need.
package capability

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/bureau-foundation/gather/lib/address"
	"github.com/bureau-foundation/gather/lib/codec"
	"github.com/bureau-foundation/gather/lib/modcall"
)

// ImplementedFunction is the function every participating module
// exposes. It takes no payload and returns the sorted fingerprints the
// module implements.
const ImplementedFunction = "__implemented_contracts"

// Method is one function of a contract. Input and Output name the
// payload shapes; they take part in the fingerprint, so renaming a
// type is a contract change.
type Method struct {
	Name   string `cbor:"name"`
	Input  string `cbor:"input"`
	Output string `cbor:"output"`
}

// Contract is a named set of methods.
type Contract struct {
	Name    string   `cbor:"name"`
	Methods []Method `cbor:"methods"`
}

// Fingerprint returns the contract's identity. Method order does not
// matter.
func (c Contract) Fingerprint() address.Hash {
	methods := append([]Method(nil), c.Methods...)
	sort.Slice(methods, func(i, j int) bool { return methods[i].Name < methods[j].Name })
	return address.HashContract(codec.MustMarshal(Contract{Name: c.Name, Methods: methods}))
}

// Registry is the set of contracts one module implements.
type Registry struct {
	mu        sync.RWMutex
	contracts map[address.Hash]Contract
}

// NewRegistry returns a registry declaring contracts.
func NewRegistry(contracts ...Contract) *Registry {
	registry := &Registry{contracts: make(map[address.Hash]Contract)}
	for _, contract := range contracts {
		registry.Declare(contract)
	}
	return registry
}

// Declare adds a contract.
func (r *Registry) Declare(contract Contract) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.contracts[contract.Fingerprint()] = contract
}

// Implemented returns the declared fingerprints, sorted by bytes.
func (r *Registry) Implemented() []address.Hash {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fingerprints := make([]address.Hash, 0, len(r.contracts))
	for fingerprint := range r.contracts {
		fingerprints = append(fingerprints, fingerprint)
	}
	sort.Slice(fingerprints, func(i, j int) bool { return fingerprints[i].Compare(fingerprints[j]) < 0 })
	return fingerprints
}

// Implements reports whether the registry declares contract.
func (r *Registry) Implements(contract Contract) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.contracts[contract.Fingerprint()]
	return ok
}

// Expose registers ImplementedFunction for module on router.
func (r *Registry) Expose(router *modcall.Router, module string) {
	router.Handle(module, ImplementedFunction, func(ctx context.Context, _ []byte) (any, error) {
		return r.Implemented(), nil
	})
}

// Implements asks module whether it implements contract. Any
// *modcall.RemoteError reads as "does not implement": the module is
// missing, lacks ImplementedFunction, or sits behind a Router that
// could not reach it (Router.Forward reports transport failures that
// way). Other errors, such as a SocketClient failing to dial, are
// returned.
func Implements(ctx context.Context, caller modcall.Caller, module string, contract Contract) (bool, error) {
	var fingerprints []address.Hash
	err := caller.Call(ctx, module, ImplementedFunction, nil, &fingerprints)
	var remote *modcall.RemoteError
	if errors.As(err, &remote) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("discovering contracts of %s: %w", module, err)
	}
	want := contract.Fingerprint()
	for _, fingerprint := range fingerprints {
		if fingerprint == want {
			return true, nil
		}
	}
	return false, nil
}

// Discover returns the modules among candidates that implement
// contract, in candidate order.
func Discover(ctx context.Context, caller modcall.Caller, candidates []string, contract Contract) ([]string, error) {
	var found []string
	for _, module := range candidates {
		ok, err := Implements(ctx, caller, module, contract)
		if err != nil {
			return nil, err
		}
		if ok {
			found = append(found, module)
		}
	}
	return found, nil
}
