// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package revision computes the current version of a mutable record
// from its chain of immutable updates.
//
// A record's identity is the id of its original create action. Every
// revision is an update action plus an edge of the configured link
// type from the original to the update, so concurrent editors each
// add a sibling revision instead of racing on a single pointer. The
// current version is the revision whose edge has the greatest
// timestamp; equal timestamps fall back to the edge id so every
// participant picks the same one.
package revision

import (
	"context"
	"fmt"

	"github.com/bureau-foundation/gather/lib/address"
	"github.com/bureau-foundation/gather/lib/recordstore"
)

// Resolver resolves revisions over a store.
type Resolver struct {
	store   recordstore.Reader
	updates recordstore.LinkType
}

// NewResolver returns a Resolver that follows updates edges of the
// given type.
func NewResolver(store recordstore.Reader, updates recordstore.LinkType) *Resolver {
	return &Resolver{store: store, updates: updates}
}

// Resolve returns the current version of the record whose original
// create action is original, or nil if the record does not exist, has
// been tombstoned, or its newest revision cannot be read.
//
// A tombstone on the original is terminal regardless of later updates.
func (r *Resolver) Resolve(ctx context.Context, original address.Hash) (*recordstore.Record, error) {
	details, err := r.store.GetDetails(ctx, original)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", original.Short(), err)
	}
	if details == nil || details.Deleted() {
		return nil, nil
	}
	if details.Record.Entry == nil {
		return nil, fmt.Errorf("resolving %s: %w: %s action has no entry",
			original.Short(), recordstore.ErrMalformed, details.Record.Action.Kind)
	}

	edges, err := r.store.GetEdges(ctx, original, recordstore.OfType(r.updates))
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", original.Short(), err)
	}
	newest, ok := Newest(edges)
	if !ok {
		record := details.Record
		return &record, nil
	}

	latest, err := r.store.GetDetails(ctx, newest.Target)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: reading revision %s: %w", original.Short(), newest.Target.Short(), err)
	}
	if latest == nil {
		return nil, nil
	}
	record := latest.Record
	return &record, nil
}

// Revisions returns every revision reachable from original through
// update actions, original first, then each update followed by its own
// descendants in append order. A record that does not exist yields an
// empty slice.
func (r *Resolver) Revisions(ctx context.Context, original address.Hash) ([]recordstore.Record, error) {
	var revisions []recordstore.Record
	visited := make(map[address.Hash]bool)
	if err := r.collect(ctx, original, visited, &revisions); err != nil {
		return nil, err
	}
	return revisions, nil
}

func (r *Resolver) collect(ctx context.Context, id address.Hash, visited map[address.Hash]bool, revisions *[]recordstore.Record) error {
	if visited[id] {
		return nil
	}
	visited[id] = true

	details, err := r.store.GetDetails(ctx, id)
	if err != nil {
		return fmt.Errorf("walking revisions at %s: %w", id.Short(), err)
	}
	if details == nil {
		return nil
	}
	*revisions = append(*revisions, details.Record)
	for _, update := range details.Updates {
		if err := r.collect(ctx, update.Hash, visited, revisions); err != nil {
			return err
		}
	}
	return nil
}

// Latest walks the update chain from id directly, without updates
// edges: at each step it follows the newest update action that revises
// the current one. A missing record is ErrNotFound; a tombstoned record
// is nil.
//
// This is the resolution used for records that are only ever revised
// by their author (cancellations, attendee attestations).
func (r *Resolver) Latest(ctx context.Context, id address.Hash) (*recordstore.Record, error) {
	details, err := r.store.GetDetails(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("latest of %s: %w", id.Short(), err)
	}
	if details == nil {
		return nil, fmt.Errorf("latest of %s: %w", id.Short(), recordstore.ErrNotFound)
	}
	if details.Deleted() {
		return nil, nil
	}

	visited := map[address.Hash]bool{id: true}
	for len(details.Updates) > 0 {
		next := newestAction(details.Updates)
		if visited[next.Hash] {
			break
		}
		visited[next.Hash] = true

		following, err := r.store.GetDetails(ctx, next.Hash)
		if err != nil {
			return nil, fmt.Errorf("latest of %s: %w", id.Short(), err)
		}
		if following == nil {
			break
		}
		details = following
	}
	record := details.Record
	return &record, nil
}

// Newest returns the edge with the greatest timestamp, breaking ties by
// the greater edge id. It reports false for an empty slice.
func Newest(edges []recordstore.Edge) (recordstore.Edge, bool) {
	if len(edges) == 0 {
		return recordstore.Edge{}, false
	}
	best := edges[0]
	for _, edge := range edges[1:] {
		if edge.Timestamp > best.Timestamp ||
			(edge.Timestamp == best.Timestamp && edge.ID.Compare(best.ID) > 0) {
			best = edge
		}
	}
	return best, true
}

func newestAction(actions []recordstore.Action) recordstore.Action {
	best := actions[0]
	for _, action := range actions[1:] {
		if action.Timestamp > best.Timestamp ||
			(action.Timestamp == best.Timestamp && action.Hash.Compare(best.Hash) > 0) {
			best = action
		}
	}
	return best
}
