// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package gather

import (
	"context"

	"github.com/bureau-foundation/gather/lib/address"
	"github.com/bureau-foundation/gather/lib/recordstore"
	schema "github.com/bureau-foundation/gather/lib/schema/gather"
)

// CreateEvent commits an event, files it as upcoming, and records the
// caller as its author.
func (s *Service) CreateEvent(ctx context.Context, event schema.Event) (*recordstore.Record, error) {
	return s.createEventIn(ctx, event, schema.CategoryUpcomingEvents)
}

// CreateEventProposal commits an event that is not yet confirmed,
// filing it as an open proposal. MarkEventAsUpcoming confirms it.
func (s *Service) CreateEventProposal(ctx context.Context, event schema.Event) (*recordstore.Record, error) {
	return s.createEventIn(ctx, event, schema.CategoryOpenProposals)
}

func (s *Service) createEventIn(ctx context.Context, event schema.Event, category string) (*recordstore.Record, error) {
	if err := event.Validate(); err != nil {
		return nil, err
	}
	record, err := s.create(ctx, schema.EntryEvent, event)
	if err != nil {
		return nil, err
	}
	if _, err := s.lifecycle.Place(ctx, record.ID(), category); err != nil {
		return nil, err
	}
	if err := s.claim(ctx, record.ID()); err != nil {
		return nil, err
	}
	s.logger.Info("event created", "event", record.ID().Short(), "category", category)
	return record, nil
}

// GetLatestEvent returns the current revision of an event, or nil if
// it does not exist or was deleted.
func (s *Service) GetLatestEvent(ctx context.Context, original address.Hash) (*recordstore.Record, error) {
	return s.events.Resolve(ctx, original)
}

// GetEventRevisions returns every revision of an event, original first.
func (s *Service) GetEventRevisions(ctx context.Context, original address.Hash) ([]recordstore.Record, error) {
	return s.events.Revisions(ctx, original)
}

// UpdateEventInput revises an event. Previous is the revision being
// replaced; Original is the create action every revision hangs off.
type UpdateEventInput struct {
	OriginalEventHash address.Hash `cbor:"original_event_hash"`
	PreviousEventHash address.Hash `cbor:"previous_event_hash"`
	UpdatedEvent      schema.Event `cbor:"updated_event"`
}

// UpdateEvent commits a revision and links it from the original.
func (s *Service) UpdateEvent(ctx context.Context, input UpdateEventInput) (*recordstore.Record, error) {
	if err := input.UpdatedEvent.Validate(); err != nil {
		return nil, err
	}
	if err := s.requireRevision(ctx, input.PreviousEventHash, input.OriginalEventHash); err != nil {
		return nil, err
	}
	record, err := s.update(ctx, input.PreviousEventHash, schema.EntryEvent, input.UpdatedEvent)
	if err != nil {
		return nil, err
	}
	if _, err := s.relations.Link(ctx, input.OriginalEventHash, record.ID(), schema.LinkEventUpdates, nil); err != nil {
		return nil, err
	}
	s.alert(ctx, input.OriginalEventHash, schema.EventAlert(input.OriginalEventHash, schema.Action{
		Type:       schema.ActionEventUpdated,
		ActionHash: record.ID(),
	}))
	return record, nil
}

// GetEventDeletes returns the tombstones of an event, or nil if the
// event does not exist.
func (s *Service) GetEventDeletes(ctx context.Context, original address.Hash) ([]recordstore.Action, error) {
	details, err := s.store.GetDetails(ctx, original)
	if err != nil || details == nil {
		return nil, err
	}
	return details.Deletes, nil
}

// EventsByAuthor returns the events and proposals author created.
func (s *Service) EventsByAuthor(ctx context.Context, author address.Hash) ([]address.Hash, error) {
	return s.relations.Query(ctx, author, schema.LinkEventsByAuthor)
}

// MyEvents returns the events and proposals the caller created, is
// interested in, or may participate in.
func (s *Service) MyEvents(ctx context.Context) ([]address.Hash, error) {
	return s.relations.Query(ctx, s.store.Agent(), schema.LinkMyEvents)
}
