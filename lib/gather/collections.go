// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package gather

import (
	"context"
	"slices"

	"github.com/bureau-foundation/gather/lib/address"
	"github.com/bureau-foundation/gather/lib/collection"
	schema "github.com/bureau-foundation/gather/lib/schema/gather"
)

// AllUpcomingEvents lists the upcoming events.
func (s *Service) AllUpcomingEvents(ctx context.Context) ([]address.Hash, error) {
	return s.lifecycle.Members(ctx, schema.CategoryUpcomingEvents)
}

// AllPastEvents lists the events that have happened.
func (s *Service) AllPastEvents(ctx context.Context) ([]address.Hash, error) {
	return s.lifecycle.Members(ctx, schema.CategoryPastEvents)
}

// AllCancelledEvents lists the cancelled events.
func (s *Service) AllCancelledEvents(ctx context.Context) ([]address.Hash, error) {
	return s.lifecycle.Members(ctx, schema.CategoryCancelledEvents)
}

// AllOpenProposals lists the open proposals.
func (s *Service) AllOpenProposals(ctx context.Context) ([]address.Hash, error) {
	return s.lifecycle.Members(ctx, schema.CategoryOpenProposals)
}

// AllExpiredProposals lists the proposals that expired unfulfilled.
func (s *Service) AllExpiredProposals(ctx context.Context) ([]address.Hash, error) {
	return s.lifecycle.Members(ctx, schema.CategoryExpiredProposals)
}

// AllCancelledProposals lists the cancelled proposals.
func (s *Service) AllCancelledProposals(ctx context.Context) ([]address.Hash, error) {
	return s.lifecycle.Members(ctx, schema.CategoryCancelledProposals)
}

// MarkEventAsPast moves an upcoming event to the past.
func (s *Service) MarkEventAsPast(ctx context.Context, event address.Hash) error {
	_, err := s.lifecycle.Assign(ctx, event, schema.CategoryPastEvents)
	return err
}

// MarkEventAsCancelled files an event as cancelled without recording a
// cancellation. Cancel is the full operation.
func (s *Service) MarkEventAsCancelled(ctx context.Context, event address.Hash) error {
	_, err := s.lifecycle.Assign(ctx, event, schema.CategoryCancelledEvents)
	return err
}

// MarkEventAsUpcoming confirms an event proposal or restores a
// cancelled event. Followers hear about an uncancellation.
func (s *Service) MarkEventAsUpcoming(ctx context.Context, event address.Hash) error {
	transition, err := s.lifecycle.Assign(ctx, event, schema.CategoryUpcomingEvents)
	if err != nil {
		return err
	}
	if leftCategory(transition, schema.CategoryCancelledEvents) {
		s.alert(ctx, event, schema.EventAlert(event, schema.Action{
			Type:       schema.ActionEventUncancelled,
			ActionHash: transition.Added,
		}))
	}
	return nil
}

// MarkProposalAsExpired files an open proposal as expired and tells its
// followers.
func (s *Service) MarkProposalAsExpired(ctx context.Context, proposal address.Hash) error {
	transition, err := s.lifecycle.Assign(ctx, proposal, schema.CategoryExpiredProposals)
	if err != nil {
		return err
	}
	if !transition.Added.IsZero() {
		s.alert(ctx, proposal, schema.ProposalAlert(proposal, schema.Action{
			Type:       schema.ActionProposalExpired,
			ActionHash: transition.Added,
			Timestamp:  s.edgeTimestamp(ctx, transition.Added),
		}))
	}
	return nil
}

// MarkProposalAsCancelled files a proposal as cancelled without
// recording a cancellation.
func (s *Service) MarkProposalAsCancelled(ctx context.Context, proposal address.Hash) error {
	_, err := s.lifecycle.Assign(ctx, proposal, schema.CategoryCancelledProposals)
	return err
}

// MarkProposalAsOpen reopens a cancelled proposal and tells its
// followers.
func (s *Service) MarkProposalAsOpen(ctx context.Context, proposal address.Hash) error {
	transition, err := s.lifecycle.Assign(ctx, proposal, schema.CategoryOpenProposals)
	if err != nil {
		return err
	}
	if leftCategory(transition, schema.CategoryCancelledProposals) {
		s.alert(ctx, proposal, schema.ProposalAlert(proposal, schema.Action{
			Type:       schema.ActionProposalUncancelled,
			ActionHash: transition.Added,
		}))
	}
	return nil
}

func leftCategory(transition collection.Transition, category string) bool {
	return !transition.Added.IsZero() && slices.Contains(transition.From, category)
}

func (s *Service) edgeTimestamp(ctx context.Context, id address.Hash) int64 {
	action, err := s.store.GetAction(ctx, id)
	if err != nil || action == nil {
		return 0
	}
	return int64(action.Timestamp)
}
