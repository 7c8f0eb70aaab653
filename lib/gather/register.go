// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package gather

import (
	"context"

	"github.com/bureau-foundation/gather/lib/address"
	"github.com/bureau-foundation/gather/lib/modcall"
	"github.com/bureau-foundation/gather/lib/recordstore"
	schema "github.com/bureau-foundation/gather/lib/schema/gather"
)

// CancelResult is the wire form of Outcome.
type CancelResult struct {
	Cancellation *schema.Record `cbor:"cancellation"`
	Category     string         `cbor:"category"`
	Assemblies   int            `cbor:"assemblies"`
	Tombstone    address.Hash   `cbor:"tombstone"`
}

type none struct{}

// Register exposes every operation on router under module, named in
// snake_case. Records cross the boundary as schema.Record.
func (s *Service) Register(router *modcall.Router, module string) {
	handle := func(function string, handler modcall.Handler) {
		router.Handle(module, function, handler)
	}

	// Events.
	handle("create_event", modcall.Typed(wrapRecord(s.CreateEvent)))
	handle("create_event_proposal", modcall.Typed(wrapRecord(s.CreateEventProposal)))
	handle("get_latest_event", modcall.Typed(wrapRecord(s.GetLatestEvent)))
	handle("get_event_revisions", modcall.Typed(wrapRecords(s.GetEventRevisions)))
	handle("update_event", modcall.Typed(wrapRecord(s.UpdateEvent)))
	handle("get_event_deletes", modcall.Typed(func(ctx context.Context, original address.Hash) ([]schema.Record, error) {
		deletes, err := s.GetEventDeletes(ctx, original)
		if err != nil {
			return nil, err
		}
		records := make([]schema.Record, len(deletes))
		for i, action := range deletes {
			records[i] = schema.Record{ID: action.Hash, Action: action}
		}
		return records, nil
	}))
	handle("get_events_by_author", modcall.Typed(s.EventsByAuthor))
	handle("get_my_events", modcall.Typed(func(ctx context.Context, _ none) ([]address.Hash, error) {
		return s.MyEvents(ctx)
	}))

	// Proposals.
	handle("create_proposal", modcall.Typed(wrapRecord(s.CreateProposal)))
	handle("get_latest_proposal", modcall.Typed(wrapRecord(s.GetLatestProposal)))
	handle("get_proposal_revisions", modcall.Typed(wrapRecords(s.GetProposalRevisions)))
	handle("update_proposal", modcall.Typed(wrapRecord(s.UpdateProposal)))
	handle("fulfill_proposal", modcall.Typed(wrapRecord(s.FulfillProposal)))
	handle("get_events_for_proposal", modcall.Typed(s.GetEventsForProposal))

	// Collections.
	handle("get_all_upcoming_events", modcall.Typed(list(s.AllUpcomingEvents)))
	handle("get_all_past_events", modcall.Typed(list(s.AllPastEvents)))
	handle("get_all_cancelled_events", modcall.Typed(list(s.AllCancelledEvents)))
	handle("get_all_open_proposals", modcall.Typed(list(s.AllOpenProposals)))
	handle("get_all_expired_proposals", modcall.Typed(list(s.AllExpiredProposals)))
	handle("get_all_cancelled_proposals", modcall.Typed(list(s.AllCancelledProposals)))
	handle("mark_event_as_past", modcall.Typed(mark(s.MarkEventAsPast)))
	handle("mark_event_as_cancelled", modcall.Typed(mark(s.MarkEventAsCancelled)))
	handle("mark_event_as_upcoming", modcall.Typed(mark(s.MarkEventAsUpcoming)))
	handle("mark_proposal_as_expired", modcall.Typed(mark(s.MarkProposalAsExpired)))
	handle("mark_proposal_as_cancelled", modcall.Typed(mark(s.MarkProposalAsCancelled)))
	handle("mark_proposal_as_open", modcall.Typed(mark(s.MarkProposalAsOpen)))

	// Relations.
	handle("add_myself_as_interested", modcall.Typed(mark(s.AddMyselfAsInterested)))
	handle("remove_myself_as_interested", modcall.Typed(mark(s.RemoveMyselfAsInterested)))
	handle("get_interested_in", modcall.Typed(s.InterestedIn))
	handle("add_myself_as_possible_participant", modcall.Typed(mark(s.AddMyselfAsPossibleParticipant)))
	handle("remove_myself_as_possible_participant", modcall.Typed(mark(s.RemoveMyselfAsPossibleParticipant)))
	handle("get_possible_participants", modcall.Typed(s.PossibleParticipants))
	handle("add_attendee_for_event", modcall.Typed(mark(s.AddAttendee)))
	handle("remove_attendee_for_event", modcall.Typed(mark(s.RemoveAttendee)))
	handle("get_attendees_for_event", modcall.Typed(s.AttendeesForEvent))
	handle("get_events_for_attendee", modcall.Typed(s.EventsForAttendee))

	// Attestations.
	handle("create_attendees_attestation", modcall.Typed(wrapRecord(s.CreateAttendeesAttestation)))
	handle("get_attendees_attestation", modcall.Typed(wrapRecord(s.GetAttendeesAttestation)))
	handle("update_attendees_attestation", modcall.Typed(wrapRecord(s.UpdateAttendeesAttestation)))
	handle("get_attendees_attestations_for_attendee", modcall.Typed(s.AttestationsForAttendee))
	handle("get_attendees_attestations_for_event", modcall.Typed(s.AttestationsForEvent))

	// Cancellations.
	handle("cancel", modcall.Typed(func(ctx context.Context, input CancelInput) (*CancelResult, error) {
		outcome, err := s.Cancel(ctx, input)
		if err != nil {
			return nil, err
		}
		return &CancelResult{
			Cancellation: schema.WireRecord(outcome.Cancellation),
			Category:     outcome.Category,
			Assemblies:   outcome.Assemblies,
			Tombstone:    outcome.Tombstone,
		}, nil
	}))
	handle("get_cancellation", modcall.Typed(wrapRecord(s.GetCancellation)))
	handle("update_cancellation", modcall.Typed(wrapRecord(s.UpdateCancellation)))
	handle("delete_cancellation", modcall.Typed(s.DeleteCancellation))
	handle("get_cancellations_for", modcall.Typed(wrapRecords(s.CancellationsFor)))
}

func wrapRecord[Req any](fn func(context.Context, Req) (*recordstore.Record, error)) func(context.Context, Req) (*schema.Record, error) {
	return func(ctx context.Context, request Req) (*schema.Record, error) {
		record, err := fn(ctx, request)
		if err != nil {
			return nil, err
		}
		return schema.WireRecord(record), nil
	}
}

func wrapRecords[Req any](fn func(context.Context, Req) ([]recordstore.Record, error)) func(context.Context, Req) ([]schema.Record, error) {
	return func(ctx context.Context, request Req) ([]schema.Record, error) {
		records, err := fn(ctx, request)
		if err != nil {
			return nil, err
		}
		return schema.WireRecords(records), nil
	}
}

func list(fn func(context.Context) ([]address.Hash, error)) func(context.Context, none) ([]address.Hash, error) {
	return func(ctx context.Context, _ none) ([]address.Hash, error) {
		return fn(ctx)
	}
}

func mark[Req any](fn func(context.Context, Req) error) func(context.Context, Req) (*none, error) {
	return func(ctx context.Context, request Req) (*none, error) {
		return nil, fn(ctx, request)
	}
}
