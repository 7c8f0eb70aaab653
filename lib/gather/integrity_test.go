// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package gather

import (
	"context"
	"errors"
	"testing"

	"github.com/bureau-foundation/gather/lib/address"
	"github.com/bureau-foundation/gather/lib/codec"
	"github.com/bureau-foundation/gather/lib/recordstore"
	schema "github.com/bureau-foundation/gather/lib/schema/gather"
)

func TestValidatorRejectsMalformedEntries(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	alice := h.join(t, "alice", Config{})

	unknownField, err := codec.Marshal(map[string]any{"title": "Meetup", "colour": "red"})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		entry recordstore.Entry
	}{
		{"event without title", mustEntry(t, schema.EntryEvent, schema.Event{StartTime: 1, EndTime: 2})},
		{"proposal without title", mustEntry(t, schema.EntryProposal, schema.Proposal{})},
		{"cancellation of nothing", mustEntry(t, schema.EntryCancellation, schema.Cancellation{Reason: "x"})},
		{"cancellation of missing record", mustEntry(t, schema.EntryCancellation, schema.Cancellation{EventHash: address.Anchor("missing")})},
		{"attestation without event", mustEntry(t, schema.EntryAttendeesAttestation, schema.AttendeesAttestation{})},
		{"unknown field", recordstore.Entry{Type: schema.EntryEvent, Content: unknownField}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := alice.Create(ctx, test.entry)
			if !errors.Is(err, recordstore.ErrPolicyViolation) {
				t.Errorf("Create = %v, want ErrPolicyViolation", err)
			}
		})
	}
	if h.backend.Len() != 0 {
		t.Errorf("rejected entries left %d actions", h.backend.Len())
	}
}

func TestValidatorPassesForeignEntries(t *testing.T) {
	h := newHarness(t)
	alice := h.join(t, "alice", Config{})
	if _, err := alice.Create(context.Background(), mustEntry(t, "commitment", map[string]string{"need": "chairs"})); err != nil {
		t.Errorf("Create(commitment) = %v", err)
	}
}

func TestValidatorAuthorLinksTargetEvents(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	alice := h.join(t, "alice", Config{})

	attestation, err := alice.Create(ctx, mustEntry(t, schema.EntryAttendeesAttestation, schema.AttendeesAttestation{EventHash: address.Anchor("e")}))
	if err != nil {
		t.Fatal(err)
	}
	_, err = alice.CreateEdge(ctx, alice.Agent(), attestation, schema.LinkEventsByAuthor, nil)
	if !errors.Is(err, recordstore.ErrPolicyViolation) {
		t.Errorf("EventsByAuthor to an attestation = %v, want ErrPolicyViolation", err)
	}
	_, err = alice.CreateEdge(ctx, alice.Agent(), address.Anchor("nowhere"), schema.LinkEventsByAuthor, nil)
	if !errors.Is(err, recordstore.ErrPolicyViolation) {
		t.Errorf("EventsByAuthor to nothing = %v, want ErrPolicyViolation", err)
	}
}

func TestValidatorKeepsIndicesAppendOnly(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	alice := h.join(t, "alice", Config{})

	record, err := alice.service.CreateEvent(ctx, meetup())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := alice.service.Cancel(ctx, CancelInput{RecordHash: record.ID(), Reason: "rain"}); err != nil {
		t.Fatal(err)
	}

	for _, edge := range []struct {
		base     address.Hash
		linkType recordstore.LinkType
	}{
		{alice.Agent(), schema.LinkEventsByAuthor},
		{record.ID(), schema.LinkEventToCancellations},
	} {
		edges, err := alice.GetEdges(ctx, edge.base, recordstore.OfType(edge.linkType))
		if err != nil {
			t.Fatal(err)
		}
		if len(edges) != 1 {
			t.Fatalf("%s: got %d edges, want 1", edge.linkType, len(edges))
		}
		if _, err := alice.DeleteEdge(ctx, edges[0].ID); !errors.Is(err, recordstore.ErrPolicyViolation) {
			t.Errorf("deleting %s edge = %v, want ErrPolicyViolation", edge.linkType, err)
		}
	}

	// Other relation edges stay deletable.
	mine, err := alice.GetEdges(ctx, alice.Agent(), recordstore.OfType(schema.LinkMyEvents))
	if err != nil {
		t.Fatal(err)
	}
	if len(mine) != 1 {
		t.Fatalf("got %d MyEvents edges, want 1", len(mine))
	}
	if _, err := alice.DeleteEdge(ctx, mine[0].ID); err != nil {
		t.Errorf("deleting MyEvents edge: %v", err)
	}
}

func TestUpdatesStayInTheirOwnChain(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	alice := h.join(t, "alice", Config{})

	target, err := alice.service.CreateEvent(ctx, meetup())
	if err != nil {
		t.Fatal(err)
	}
	other, err := alice.service.CreateEvent(ctx, schema.Event{Title: "Workshop", StartTime: 10, EndTime: 20})
	if err != nil {
		t.Fatal(err)
	}
	before := h.backend.Len()

	_, err = alice.service.UpdateEvent(ctx, UpdateEventInput{
		OriginalEventHash: target.ID(),
		PreviousEventHash: other.ID(),
		UpdatedEvent:      schema.Event{Title: "Hijacked", StartTime: 1, EndTime: 2},
	})
	if !errors.Is(err, recordstore.ErrPolicyViolation) {
		t.Fatalf("UpdateEvent across chains = %v, want ErrPolicyViolation", err)
	}
	if h.backend.Len() != before {
		t.Errorf("rejected update committed %d actions", h.backend.Len()-before)
	}

	// The link itself is refused even when written directly.
	stray, err := alice.Update(ctx, other.ID(), mustEntry(t, schema.EntryEvent, schema.Event{Title: "Hijacked", StartTime: 1, EndTime: 2}))
	if err != nil {
		t.Fatal(err)
	}
	for _, update := range []address.Hash{stray, target.ID()} {
		if _, err := alice.CreateEdge(ctx, target.ID(), update, schema.LinkEventUpdates, nil); !errors.Is(err, recordstore.ErrPolicyViolation) {
			t.Errorf("EventUpdates link to %s = %v, want ErrPolicyViolation", update.Short(), err)
		}
	}
	latest, err := alice.service.GetLatestEvent(ctx, target.ID())
	if err != nil {
		t.Fatal(err)
	}
	if latest == nil || latest.ID() != target.ID() {
		t.Errorf("GetLatestEvent = %v, want the untouched original", latest)
	}

	// A revision of a revision is still accepted.
	first, err := alice.service.UpdateEvent(ctx, UpdateEventInput{
		OriginalEventHash: target.ID(),
		PreviousEventHash: target.ID(),
		UpdatedEvent:      schema.Event{Title: "Meetup, take two", StartTime: 1, EndTime: 2},
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := alice.service.UpdateEvent(ctx, UpdateEventInput{
		OriginalEventHash: target.ID(),
		PreviousEventHash: first.ID(),
		UpdatedEvent:      schema.Event{Title: "Meetup, take three", StartTime: 1, EndTime: 2},
	}); err != nil {
		t.Errorf("UpdateEvent of a revision: %v", err)
	}
}

func mustEntry(t *testing.T, entryType string, payload any) recordstore.Entry {
	t.Helper()
	entry, err := recordstore.NewEntry(entryType, payload)
	if err != nil {
		t.Fatalf("NewEntry(%s): %v", entryType, err)
	}
	return entry
}
