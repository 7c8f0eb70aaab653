// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package gather

import (
	"context"
	"errors"
	"testing"

	"github.com/bureau-foundation/gather/lib/address"
	"github.com/bureau-foundation/gather/lib/recordstore"
	schema "github.com/bureau-foundation/gather/lib/schema/gather"
)

func TestCancelRoutesByAssemblies(t *testing.T) {
	tests := []struct {
		name       string
		assemblies int
		category   string
	}{
		{"no assemblies", 0, schema.CategoryCancelledProposals},
		{"assembled", 2, schema.CategoryCancelledEvents},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ctx := context.Background()
			h := newHarness(t)
			alice := h.join(t, "alice", Config{})
			h.assemble.counts[meetup().CallToActionHash] = test.assemblies

			record, err := alice.service.CreateEvent(ctx, meetup())
			if err != nil {
				t.Fatalf("CreateEvent: %v", err)
			}
			outcome, err := alice.service.Cancel(ctx, CancelInput{RecordHash: record.ID(), Reason: "rain"})
			if err != nil {
				t.Fatalf("Cancel: %v", err)
			}
			if outcome.Category != test.category {
				t.Errorf("Category = %q, want %q", outcome.Category, test.category)
			}
			if outcome.Assemblies != test.assemblies {
				t.Errorf("Assemblies = %d, want %d", outcome.Assemblies, test.assemblies)
			}

			members, err := alice.service.Lifecycle().Members(ctx, test.category)
			if err != nil {
				t.Fatal(err)
			}
			if !contains(members, record.ID()) {
				t.Errorf("record missing from %s", test.category)
			}
			upcoming, err := alice.service.AllUpcomingEvents(ctx)
			if err != nil {
				t.Fatal(err)
			}
			if contains(upcoming, record.ID()) {
				t.Error("cancelled record still upcoming")
			}
		})
	}
}

func TestCancelRecordsCancellationAndTombstones(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	alice := h.join(t, "alice", Config{})
	bob := h.join(t, "bob", Config{})

	record, err := alice.service.CreateEvent(ctx, meetup())
	if err != nil {
		t.Fatal(err)
	}
	if err := bob.service.AddMyselfAsInterested(ctx, record.ID()); err != nil {
		t.Fatal(err)
	}
	outcome, err := alice.service.Cancel(ctx, CancelInput{RecordHash: record.ID(), Reason: "rain"})
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if outcome.Tombstone.IsZero() {
		t.Error("no tombstone")
	}

	latest, err := alice.service.GetLatestEvent(ctx, record.ID())
	if err != nil {
		t.Fatal(err)
	}
	if latest != nil {
		t.Error("cancelled event still resolves")
	}
	deletes, err := alice.service.GetEventDeletes(ctx, record.ID())
	if err != nil {
		t.Fatal(err)
	}
	if len(deletes) != 1 || deletes[0].Hash != outcome.Tombstone {
		t.Errorf("GetEventDeletes = %v", deletes)
	}

	cancellations, err := bob.service.CancellationsFor(ctx, record.ID())
	if err != nil {
		t.Fatal(err)
	}
	if len(cancellations) != 1 {
		t.Fatalf("got %d cancellations, want 1", len(cancellations))
	}
	var cancellation schema.Cancellation
	if err := cancellations[0].Decode(&cancellation); err != nil {
		t.Fatal(err)
	}
	if cancellation.Reason != "rain" || cancellation.EventHash != record.ID() {
		t.Errorf("cancellation = %+v", cancellation)
	}

	alerts := h.alerts.received()
	if len(alerts) != 1 {
		t.Fatalf("got %d alerts, want 1", len(alerts))
	}
	if alerts[0].Type != schema.AlertEvent || alerts[0].Action.Type != schema.ActionEventCancelled {
		t.Errorf("alert = %+v", alerts[0])
	}
	if alerts[0].Action.ActionHash != outcome.Cancellation.ID() {
		t.Error("alert does not point at the cancellation")
	}

	_, err = alice.service.Cancel(ctx, CancelInput{RecordHash: record.ID(), Reason: "again"})
	if !errors.Is(err, recordstore.ErrNotFound) {
		t.Errorf("second Cancel = %v, want ErrNotFound", err)
	}
}

func TestCancelProposalAlertsAsProposal(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	alice := h.join(t, "alice", Config{})
	bob := h.join(t, "bob", Config{})

	proposal, err := alice.service.CreateProposal(ctx, schema.Proposal{Title: "Picnic"})
	if err != nil {
		t.Fatal(err)
	}
	if err := bob.service.AddMyselfAsPossibleParticipant(ctx, proposal.ID()); err != nil {
		t.Fatal(err)
	}
	if _, err := alice.service.Cancel(ctx, CancelInput{RecordHash: proposal.ID()}); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	alerts := h.alerts.received()
	if len(alerts) != 1 || alerts[0].Type != schema.AlertProposal || alerts[0].Action.Type != schema.ActionProposalCancelled {
		t.Errorf("alerts = %+v", alerts)
	}
}

func TestCancelAbortsWhenAssembleFails(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	alice := h.join(t, "alice", Config{})

	record, err := alice.service.CreateEvent(ctx, meetup())
	if err != nil {
		t.Fatal(err)
	}
	h.assemble.fail = errors.New("assemble unavailable")
	before := h.backend.Len()

	_, err = alice.service.Cancel(ctx, CancelInput{RecordHash: record.ID(), Reason: "rain"})
	if err == nil {
		t.Fatal("Cancel succeeded with the assemble module failing")
	}
	if !isRemote(err) {
		t.Errorf("error %v does not wrap a RemoteError", err)
	}
	if h.backend.Len() != before {
		t.Errorf("failed cancel wrote %d actions", h.backend.Len()-before)
	}
	upcoming, err := alice.service.AllUpcomingEvents(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !contains(upcoming, record.ID()) {
		t.Error("event left upcoming after failed cancel")
	}
}

func TestCancelUnknownRecord(t *testing.T) {
	h := newHarness(t)
	alice := h.join(t, "alice", Config{})

	_, err := alice.service.Cancel(context.Background(), CancelInput{RecordHash: address.Anchor("missing")})
	if !errors.Is(err, recordstore.ErrNotFound) {
		t.Fatalf("Cancel(missing) = %v, want ErrNotFound", err)
	}
	if h.assemble.calls != 0 {
		t.Errorf("assemble called %d times for a missing record", h.assemble.calls)
	}
}

func TestCancellationRevisions(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	alice := h.join(t, "alice", Config{})

	record, err := alice.service.CreateEvent(ctx, meetup())
	if err != nil {
		t.Fatal(err)
	}
	outcome, err := alice.service.Cancel(ctx, CancelInput{RecordHash: record.ID(), Reason: "rain"})
	if err != nil {
		t.Fatal(err)
	}
	id := outcome.Cancellation.ID()

	if _, err := alice.service.UpdateCancellation(ctx, UpdateCancellationInput{
		PreviousCancellationHash: id,
		UpdatedCancellation:      schema.Cancellation{Reason: "storm", EventHash: record.ID()},
	}); err != nil {
		t.Fatalf("UpdateCancellation: %v", err)
	}
	latest, err := alice.service.GetCancellation(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	var cancellation schema.Cancellation
	if err := latest.Decode(&cancellation); err != nil {
		t.Fatal(err)
	}
	if cancellation.Reason != "storm" {
		t.Errorf("Reason = %q, want storm", cancellation.Reason)
	}

	if _, err := alice.service.DeleteCancellation(ctx, id); err != nil {
		t.Fatalf("DeleteCancellation: %v", err)
	}
	latest, err = alice.service.GetCancellation(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if latest != nil {
		t.Error("deleted cancellation still resolves")
	}
	remaining, err := alice.service.CancellationsFor(ctx, record.ID())
	if err != nil {
		t.Fatal(err)
	}
	if len(remaining) != 0 {
		t.Errorf("CancellationsFor after delete = %d records", len(remaining))
	}

	_, err = alice.service.GetCancellation(ctx, address.Anchor("missing"))
	if !errors.Is(err, recordstore.ErrNotFound) {
		t.Errorf("GetCancellation(missing) = %v, want ErrNotFound", err)
	}
}
