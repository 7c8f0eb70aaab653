// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package relation maintains non-exclusive many-to-many indices as
// typed edges: author to records, record to participants, proposal to
// the event that fulfilled it.
//
// The store has no delete-by-pair primitive. Unlink scans the base's
// edges of the type and tombstones every instance whose target
// matches, which also cleans up duplicates left by concurrent writers.
package relation

import (
	"context"
	"fmt"

	"github.com/bureau-foundation/gather/lib/address"
	"github.com/bureau-foundation/gather/lib/recordstore"
)

// Index reads and writes relation edges.
type Index struct {
	store recordstore.Store
}

// New returns an Index over store.
func New(store recordstore.Store) *Index {
	return &Index{store: store}
}

// Link adds an edge from a to b.
func (x *Index) Link(ctx context.Context, a, b address.Hash, linkType recordstore.LinkType, tag []byte) (address.Hash, error) {
	id, err := x.store.CreateEdge(ctx, a, b, linkType, tag)
	if err != nil {
		return address.Zero, fmt.Errorf("linking %s -%s-> %s: %w", a.Short(), linkType, b.Short(), err)
	}
	return id, nil
}

// Unlink removes every live edge of linkType from a to b and returns
// the ids of the removed instances. No matching edge is not an error.
func (x *Index) Unlink(ctx context.Context, a, b address.Hash, linkType recordstore.LinkType) ([]address.Hash, error) {
	edges, err := x.store.GetEdges(ctx, a, recordstore.OfType(linkType))
	if err != nil {
		return nil, fmt.Errorf("unlinking %s -%s-> %s: %w", a.Short(), linkType, b.Short(), err)
	}
	var removed []address.Hash
	for _, edge := range edges {
		if edge.Target != b {
			continue
		}
		if _, err := x.store.DeleteEdge(ctx, edge.ID); err != nil {
			return removed, fmt.Errorf("unlinking %s -%s-> %s: %w", a.Short(), linkType, b.Short(), err)
		}
		removed = append(removed, edge.ID)
	}
	return removed, nil
}

// Query returns the distinct targets of live linkType edges from a, in
// the order each was first linked.
func (x *Index) Query(ctx context.Context, a address.Hash, linkType recordstore.LinkType) ([]address.Hash, error) {
	edges, err := x.QueryEdges(ctx, a, linkType)
	if err != nil {
		return nil, err
	}
	return Targets(edges), nil
}

// QueryEdges returns the live linkType edges from a, duplicates
// included.
func (x *Index) QueryEdges(ctx context.Context, a address.Hash, linkType recordstore.LinkType) ([]recordstore.Edge, error) {
	edges, err := x.store.GetEdges(ctx, a, recordstore.OfType(linkType))
	if err != nil {
		return nil, fmt.Errorf("querying %s from %s: %w", linkType, a.Short(), err)
	}
	return edges, nil
}

// Linked reports whether a live linkType edge runs from a to b.
func (x *Index) Linked(ctx context.Context, a, b address.Hash, linkType recordstore.LinkType) (bool, error) {
	edges, err := x.QueryEdges(ctx, a, linkType)
	if err != nil {
		return false, err
	}
	for _, edge := range edges {
		if edge.Target == b {
			return true, nil
		}
	}
	return false, nil
}

// Pair is a relation stored in both directions, each with its own
// link type (event to attendee, attendee to event).
type Pair struct {
	Forward recordstore.LinkType
	Reverse recordstore.LinkType
}

// LinkPair adds a -Forward-> b and b -Reverse-> a.
func (x *Index) LinkPair(ctx context.Context, a, b address.Hash, pair Pair) error {
	if _, err := x.Link(ctx, a, b, pair.Forward, nil); err != nil {
		return err
	}
	_, err := x.Link(ctx, b, a, pair.Reverse, nil)
	return err
}

// UnlinkPair removes both directions.
func (x *Index) UnlinkPair(ctx context.Context, a, b address.Hash, pair Pair) error {
	if _, err := x.Unlink(ctx, a, b, pair.Forward); err != nil {
		return err
	}
	_, err := x.Unlink(ctx, b, a, pair.Reverse)
	return err
}

// Targets returns the distinct edge targets in first-seen order.
func Targets(edges []recordstore.Edge) []address.Hash {
	seen := make(map[address.Hash]bool, len(edges))
	targets := make([]address.Hash, 0, len(edges))
	for _, edge := range edges {
		if seen[edge.Target] {
			continue
		}
		seen[edge.Target] = true
		targets = append(targets, edge.Target)
	}
	return targets
}
