// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package gather

import (
	"context"

	"github.com/bureau-foundation/gather/lib/address"
	"github.com/bureau-foundation/gather/lib/recordstore"
	"github.com/bureau-foundation/gather/lib/relation"
	schema "github.com/bureau-foundation/gather/lib/schema/gather"
)

var attendance = relation.Pair{
	Forward: schema.LinkEventToAttendees,
	Reverse: schema.LinkAttendeeToEvents,
}

// AddMyselfAsInterested records the caller's interest in an event or
// proposal, which also lists it among the caller's events.
func (s *Service) AddMyselfAsInterested(ctx context.Context, record address.Hash) error {
	return s.follow(ctx, record, schema.LinkInterested)
}

// RemoveMyselfAsInterested withdraws the caller's interest. The record
// leaves the caller's events unless the caller authored it or may
// still take part.
func (s *Service) RemoveMyselfAsInterested(ctx context.Context, record address.Hash) error {
	return s.unfollow(ctx, record, schema.LinkInterested)
}

// InterestedIn returns the agents interested in record.
func (s *Service) InterestedIn(ctx context.Context, record address.Hash) ([]address.Hash, error) {
	return s.relations.Query(ctx, record, schema.LinkInterested)
}

// AddMyselfAsPossibleParticipant records that the caller may take part.
func (s *Service) AddMyselfAsPossibleParticipant(ctx context.Context, record address.Hash) error {
	return s.follow(ctx, record, schema.LinkPossibleParticipants)
}

// RemoveMyselfAsPossibleParticipant withdraws it, with the same
// effect on the caller's events as RemoveMyselfAsInterested.
func (s *Service) RemoveMyselfAsPossibleParticipant(ctx context.Context, record address.Hash) error {
	return s.unfollow(ctx, record, schema.LinkPossibleParticipants)
}

// PossibleParticipants returns the agents who may take part in record.
func (s *Service) PossibleParticipants(ctx context.Context, record address.Hash) ([]address.Hash, error) {
	return s.relations.Query(ctx, record, schema.LinkPossibleParticipants)
}

func (s *Service) follow(ctx context.Context, record address.Hash, linkType recordstore.LinkType) error {
	agent := s.store.Agent()
	if err := s.ensureLink(ctx, record, agent, linkType); err != nil {
		return err
	}
	return s.ensureLink(ctx, agent, record, schema.LinkMyEvents)
}

// unfollow removes the caller's linkType edge from record, then drops
// the MyEvents bookmark once nothing else ties the caller to record.
func (s *Service) unfollow(ctx context.Context, record address.Hash, linkType recordstore.LinkType) error {
	agent := s.store.Agent()
	if _, err := s.relations.Unlink(ctx, record, agent, linkType); err != nil {
		return err
	}
	ties := []struct {
		base, target address.Hash
		linkType     recordstore.LinkType
	}{
		{agent, record, schema.LinkEventsByAuthor},
		{record, agent, schema.LinkInterested},
		{record, agent, schema.LinkPossibleParticipants},
	}
	for _, tie := range ties {
		linked, err := s.relations.Linked(ctx, tie.base, tie.target, tie.linkType)
		if err != nil {
			return err
		}
		if linked {
			return nil
		}
	}
	_, err := s.relations.Unlink(ctx, agent, record, schema.LinkMyEvents)
	return err
}

// AttendeeInput names an event and an attendee.
type AttendeeInput struct {
	EventHash address.Hash `cbor:"event_hash"`
	Attendee  address.Hash `cbor:"attendee"`
}

// AddAttendee records attendance in both directions.
func (s *Service) AddAttendee(ctx context.Context, input AttendeeInput) error {
	return s.relations.LinkPair(ctx, input.EventHash, input.Attendee, attendance)
}

// RemoveAttendee removes attendance in both directions.
func (s *Service) RemoveAttendee(ctx context.Context, input AttendeeInput) error {
	return s.relations.UnlinkPair(ctx, input.EventHash, input.Attendee, attendance)
}

// AttendeesForEvent returns the agents attending an event.
func (s *Service) AttendeesForEvent(ctx context.Context, event address.Hash) ([]address.Hash, error) {
	return s.relations.Query(ctx, event, schema.LinkEventToAttendees)
}

// EventsForAttendee returns the events an agent attends.
func (s *Service) EventsForAttendee(ctx context.Context, attendee address.Hash) ([]address.Hash, error) {
	return s.relations.Query(ctx, attendee, schema.LinkAttendeeToEvents)
}
