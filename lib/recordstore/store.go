// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package recordstore

import (
	"context"

	"github.com/bureau-foundation/gather/lib/address"
)

// Reader is the read side of the store.
type Reader interface {
	// Get returns the record for an action id, or nil if the store
	// has no such action.
	Get(ctx context.Context, id address.Hash) (*Record, error)

	// GetAction returns the bare action, or nil if absent.
	GetAction(ctx context.Context, id address.Hash) (*Action, error)

	// GetDetails returns the record with its updates and tombstones,
	// or nil if absent.
	GetDetails(ctx context.Context, id address.Hash) (*Details, error)

	// GetEdges returns the live edges from base that match the query,
	// in the order they were appended.
	GetEdges(ctx context.Context, base address.Hash, query EdgeQuery) ([]Edge, error)

	// GetEdgeDetails returns every edge instance from base that
	// matches the query, deleted or not, with its delete_link actions.
	GetEdgeDetails(ctx context.Context, base address.Hash, query EdgeQuery) ([]EdgeDetails, error)
}

// Writer is the write side of the store. Every method appends exactly
// one action and returns its id.
type Writer interface {
	Create(ctx context.Context, entry Entry) (address.Hash, error)
	Update(ctx context.Context, previous address.Hash, entry Entry) (address.Hash, error)
	Delete(ctx context.Context, id address.Hash) (address.Hash, error)
	CreateEdge(ctx context.Context, base, target address.Hash, linkType LinkType, tag []byte) (address.Hash, error)
	DeleteEdge(ctx context.Context, edgeID address.Hash) (address.Hash, error)
}

// Store is a participant's full view: reads, writes, and the identity
// writes are attributed to.
type Store interface {
	Reader
	Writer

	// Agent is the key of the participant this store writes as.
	Agent() address.Hash

	// StoreID identifies the shared store (the network) this
	// participant belongs to.
	StoreID() address.Hash
}

// LinkHistory is a create_link action together with the delete_link
// actions that reference it.
type LinkHistory struct {
	Create  Action
	Deletes []Action
}

// Backend is the storage substrate cells commit to. Implementations
// must be safe for concurrent use. Put is idempotent on the action id.
type Backend interface {
	Put(ctx context.Context, action Action, entry *Entry) error

	Action(ctx context.Context, id address.Hash) (Action, bool, error)
	Entry(ctx context.Context, id address.Hash) (Entry, bool, error)

	// Referencing returns the actions of the given kind whose
	// Original is id, in append order.
	Referencing(ctx context.Context, id address.Hash, kind Kind) ([]Action, error)

	// LinksFrom returns the create_link actions from base whose type
	// is in types (all types when empty), in append order, each with
	// its delete_link actions.
	LinksFrom(ctx context.Context, base address.Hash, types []LinkType) ([]LinkHistory, error)

	// ChainHead returns the author's latest action.
	ChainHead(ctx context.Context, author address.Hash) (Action, bool, error)

	Close() error
}
