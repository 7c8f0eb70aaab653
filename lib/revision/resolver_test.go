// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package revision

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bureau-foundation/gather/lib/address"
	"github.com/bureau-foundation/gather/lib/recordstore"
	"github.com/bureau-foundation/gather/lib/testutil"
)

const updatesLink recordstore.LinkType = "Updates"

type draft struct {
	Title string `cbor:"title"`
}

func create(t *testing.T, store recordstore.Writer, title string) address.Hash {
	t.Helper()
	entry, err := recordstore.NewEntry("draft", draft{Title: title})
	if err != nil {
		t.Fatalf("NewEntry: %v", err)
	}
	id, err := store.Create(context.Background(), entry)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return id
}

// revise appends an update of previous and the updates edge from
// original, the way gather records a revision.
func revise(t *testing.T, store recordstore.Writer, original, previous address.Hash, title string) address.Hash {
	t.Helper()
	ctx := context.Background()
	entry, err := recordstore.NewEntry("draft", draft{Title: title})
	if err != nil {
		t.Fatalf("NewEntry: %v", err)
	}
	id, err := store.Update(ctx, previous, entry)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if _, err := store.CreateEdge(ctx, original, id, updatesLink, nil); err != nil {
		t.Fatalf("CreateEdge: %v", err)
	}
	return id
}

func title(t *testing.T, record *recordstore.Record) string {
	t.Helper()
	var decoded draft
	if err := record.Decode(&decoded); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	return decoded.Title
}

func TestResolveWithoutUpdatesReturnsOriginal(t *testing.T) {
	alice := testutil.NewParticipant(t, nil, "alice")
	original := create(t, alice, "first")

	record, err := NewResolver(alice, updatesLink).Resolve(context.Background(), original)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if record == nil || record.ID() != original {
		t.Fatalf("Resolve = %v, want the original", record)
	}
}

func TestResolveAbsentIsNil(t *testing.T) {
	alice := testutil.NewParticipant(t, nil, "alice")
	record, err := NewResolver(alice, updatesLink).Resolve(context.Background(), address.Anchor("missing"))
	if err != nil || record != nil {
		t.Fatalf("Resolve(missing) = %v, %v; want nil, nil", record, err)
	}
}

func TestResolveDeletedIsNilDespiteUpdates(t *testing.T) {
	ctx := context.Background()
	alice := testutil.NewParticipant(t, nil, "alice")
	original := create(t, alice, "first")
	revise(t, alice, original, original, "second")

	if _, err := alice.Delete(ctx, original); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	record, err := NewResolver(alice, updatesLink).Resolve(ctx, original)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if record != nil {
		t.Fatalf("Resolve(deleted) = %s, want nil", title(t, record))
	}
}

func TestResolvePicksGreatestTimestamp(t *testing.T) {
	ctx := context.Background()
	backend := recordstore.NewMemoryBackend()
	alice := testutil.NewParticipant(t, backend, "alice")
	bob := testutil.NewParticipant(t, backend, "bob")

	original := create(t, alice, "v1")

	// Bob's clock runs ahead: his edit lands at t=30s, alice's at t=10s
	// and t=20s.
	alice.Clock.Advance(10 * time.Second)
	revise(t, alice, original, original, "alice-10")
	bob.Clock.Advance(30 * time.Second)
	revise(t, bob, original, original, "bob-30")
	alice.Clock.Advance(10 * time.Second)
	revise(t, alice, original, original, "alice-20")

	record, err := NewResolver(alice, updatesLink).Resolve(ctx, original)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got := title(t, record); got != "bob-30" {
		t.Errorf("Resolve = %q, want bob-30", got)
	}
}

func TestResolveTieBreaksByEdgeID(t *testing.T) {
	ctx := context.Background()
	backend := recordstore.NewMemoryBackend()
	alice := testutil.NewParticipant(t, backend, "alice")
	bob := testutil.NewParticipant(t, backend, "bob")

	original := create(t, alice, "v1")
	alice.Clock.Advance(time.Second)
	bob.Clock.Advance(time.Second)
	revise(t, alice, original, original, "from-alice")
	revise(t, bob, original, original, "from-bob")

	edges, err := alice.GetEdges(ctx, original, recordstore.OfType(updatesLink))
	if err != nil {
		t.Fatalf("GetEdges: %v", err)
	}
	if len(edges) != 2 || edges[0].Timestamp != edges[1].Timestamp {
		t.Fatalf("setup: want two edges with equal timestamps, got %+v", edges)
	}
	winner, _ := Newest(edges)

	resolver := NewResolver(alice, updatesLink)
	for range 3 {
		record, err := resolver.Resolve(ctx, original)
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if record.ID() != winner.Target {
			t.Fatalf("Resolve picked %s, want target of greater edge id %s", record.ID().Short(), winner.Target.Short())
		}
	}
}

func TestResolveMalformedOriginal(t *testing.T) {
	ctx := context.Background()
	alice := testutil.NewParticipant(t, nil, "alice")
	edge, err := alice.CreateEdge(ctx, address.Anchor("a"), address.Anchor("b"), "Other", nil)
	if err != nil {
		t.Fatalf("CreateEdge: %v", err)
	}
	_, err = NewResolver(alice, updatesLink).Resolve(ctx, edge)
	if !errors.Is(err, recordstore.ErrMalformed) {
		t.Fatalf("Resolve(edge action) error = %v, want ErrMalformed", err)
	}
}

func TestRevisionsRootFirst(t *testing.T) {
	ctx := context.Background()
	alice := testutil.NewParticipant(t, nil, "alice")
	alice.Clock.AutoAdvance(time.Millisecond)

	original := create(t, alice, "v1")
	second := revise(t, alice, original, original, "v2")
	revise(t, alice, original, second, "v3")
	revise(t, alice, original, original, "v2b")

	revisions, err := NewResolver(alice, updatesLink).Revisions(ctx, original)
	if err != nil {
		t.Fatalf("Revisions: %v", err)
	}
	var titles []string
	for i := range revisions {
		titles = append(titles, title(t, &revisions[i]))
	}
	want := []string{"v1", "v2", "v3", "v2b"}
	if len(titles) != len(want) {
		t.Fatalf("Revisions = %v, want %v", titles, want)
	}
	for i := range want {
		if titles[i] != want[i] {
			t.Errorf("Revisions[%d] = %q, want %q", i, titles[i], want[i])
		}
	}
}

func TestLatestFollowsChain(t *testing.T) {
	ctx := context.Background()
	alice := testutil.NewParticipant(t, nil, "alice")
	alice.Clock.AutoAdvance(time.Millisecond)
	resolver := NewResolver(alice, updatesLink)

	original := create(t, alice, "reason-1")
	second := revise(t, alice, original, original, "reason-2")
	revise(t, alice, original, second, "reason-3")

	record, err := resolver.Latest(ctx, original)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if got := title(t, record); got != "reason-3" {
		t.Errorf("Latest = %q, want reason-3", got)
	}

	if _, err := resolver.Latest(ctx, address.Anchor("missing")); !errors.Is(err, recordstore.ErrNotFound) {
		t.Errorf("Latest(missing) error = %v, want ErrNotFound", err)
	}

	if _, err := alice.Delete(ctx, original); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	record, err = resolver.Latest(ctx, original)
	if err != nil || record != nil {
		t.Errorf("Latest(deleted) = %v, %v; want nil, nil", record, err)
	}
}
