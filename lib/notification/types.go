// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package notification defines the pending-notification capability:
// a contract any module can implement to surface notifications it
// holds, and the client other modules use to read them.
//
// Implementations resolve a notification reference into a localized
// [Detail]. Localized strings come from a [Catalog] of translation
// units with English as the fallback, and bodies are markdown rendered
// to both HTML and plain text.
package notification

import (
	"github.com/bureau-foundation/gather/lib/address"
	"github.com/bureau-foundation/gather/lib/capability"
)

// NavigationTarget points at a record that may live in another store.
// Context is opaque to everyone but the module that produced it.
type NavigationTarget struct {
	StoreID  address.Hash `cbor:"store_id"`
	RecordID address.Hash `cbor:"record_id"`
	Context  []byte       `cbor:"context,omitempty"`
}

// Pending is a notification summary as returned by ListPending.
type Pending struct {
	ID         address.Hash     `cbor:"id"`
	Title      string           `cbor:"title"`
	Body       string           `cbor:"body"`
	Navigation NavigationTarget `cbor:"navigation"`
}

// Ref names one notification and the locale to resolve it in. An empty
// locale means the catalog default.
type Ref struct {
	RefID  address.Hash `cbor:"ref_id"`
	Locale string       `cbor:"locale,omitempty"`
}

// Detail is a fully resolved notification.
type Detail struct {
	Title string `cbor:"title"`

	// Body is plain text; BodyHTML is the same content rendered from
	// markdown.
	Body     string `cbor:"body"`
	BodyHTML string `cbor:"body_html"`

	// Locale is the translation unit the body came from.
	Locale string `cbor:"locale"`

	Navigation NavigationTarget `cbor:"navigation"`

	// Pending is false once the notification has been read.
	Pending bool `cbor:"pending"`
}

// ListPendingRequest is the payload of the list_pending method.
type ListPendingRequest struct {
	Locale string `cbor:"locale,omitempty"`
}

// Method names of the pending-notification contract.
const (
	MethodListPending = "list_pending"
	MethodResolve     = "resolve"
)

// Contract is the pending-notification capability.
var Contract = capability.Contract{
	Name: "pending_notifications",
	Methods: []capability.Method{
		{Name: MethodListPending, Input: "ListPendingRequest", Output: "[]Pending"},
		{Name: MethodResolve, Input: "Ref", Output: "*Detail"},
	},
}
