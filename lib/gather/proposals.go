// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package gather

import (
	"context"
	"fmt"

	"github.com/bureau-foundation/gather/lib/address"
	"github.com/bureau-foundation/gather/lib/recordstore"
	schema "github.com/bureau-foundation/gather/lib/schema/gather"
)

// CreateProposal commits a proposal and files it as open.
func (s *Service) CreateProposal(ctx context.Context, proposal schema.Proposal) (*recordstore.Record, error) {
	if err := proposal.Validate(); err != nil {
		return nil, err
	}
	record, err := s.create(ctx, schema.EntryProposal, proposal)
	if err != nil {
		return nil, err
	}
	if _, err := s.lifecycle.Place(ctx, record.ID(), schema.CategoryOpenProposals); err != nil {
		return nil, err
	}
	if err := s.claim(ctx, record.ID()); err != nil {
		return nil, err
	}
	s.logger.Info("proposal created", "proposal", record.ID().Short())
	return record, nil
}

// GetLatestProposal returns the current revision of a proposal, or nil.
func (s *Service) GetLatestProposal(ctx context.Context, original address.Hash) (*recordstore.Record, error) {
	return s.proposals.Resolve(ctx, original)
}

// GetProposalRevisions returns every revision of a proposal, original
// first.
func (s *Service) GetProposalRevisions(ctx context.Context, original address.Hash) ([]recordstore.Record, error) {
	return s.proposals.Revisions(ctx, original)
}

// UpdateProposalInput revises a proposal.
type UpdateProposalInput struct {
	OriginalProposalHash address.Hash    `cbor:"original_proposal_hash"`
	PreviousProposalHash address.Hash    `cbor:"previous_proposal_hash"`
	UpdatedProposal      schema.Proposal `cbor:"updated_proposal"`
}

// UpdateProposal commits a revision and links it from the original.
func (s *Service) UpdateProposal(ctx context.Context, input UpdateProposalInput) (*recordstore.Record, error) {
	if err := input.UpdatedProposal.Validate(); err != nil {
		return nil, err
	}
	if err := s.requireRevision(ctx, input.PreviousProposalHash, input.OriginalProposalHash); err != nil {
		return nil, err
	}
	record, err := s.update(ctx, input.PreviousProposalHash, schema.EntryProposal, input.UpdatedProposal)
	if err != nil {
		return nil, err
	}
	if _, err := s.relations.Link(ctx, input.OriginalProposalHash, record.ID(), schema.LinkProposalUpdates, nil); err != nil {
		return nil, err
	}
	s.alert(ctx, input.OriginalProposalHash, schema.ProposalAlert(input.OriginalProposalHash, schema.Action{
		Type:       schema.ActionProposalUpdated,
		ActionHash: record.ID(),
	}))
	return record, nil
}

// FulfillProposalInput turns a proposal into an event.
type FulfillProposalInput struct {
	ProposalHash address.Hash `cbor:"proposal_hash"`
	Event        schema.Event `cbor:"event"`
}

// FulfillProposal creates the event a proposal became. The event is
// upcoming and remembers its proposal; the proposal leaves every
// lifecycle category and points at the event. Followers of the
// proposal are told.
func (s *Service) FulfillProposal(ctx context.Context, input FulfillProposalInput) (*recordstore.Record, error) {
	current, err := s.currentSubject(ctx, input.ProposalHash)
	if err != nil {
		return nil, err
	}
	if !current.isProposal {
		return nil, fmt.Errorf("%w: %s is an event, not a proposal", recordstore.ErrMalformed, input.ProposalHash.Short())
	}

	event := input.Event
	proposal := input.ProposalHash
	event.FromProposal = &proposal
	record, err := s.CreateEvent(ctx, event)
	if err != nil {
		return nil, err
	}
	if _, err := s.relations.Link(ctx, input.ProposalHash, record.ID(), schema.LinkProposalToEvent, nil); err != nil {
		return nil, err
	}
	if _, err := s.lifecycle.Retire(ctx, input.ProposalHash); err != nil {
		return nil, err
	}
	s.alert(ctx, input.ProposalHash, schema.EventAlert(record.ID(), schema.Action{
		Type:         schema.ActionEventCreated,
		ActionHash:   record.ID(),
		FromProposal: true,
	}))
	return record, nil
}

// GetEventsForProposal returns the events that fulfilled a proposal.
func (s *Service) GetEventsForProposal(ctx context.Context, proposal address.Hash) ([]address.Hash, error) {
	return s.relations.Query(ctx, proposal, schema.LinkProposalToEvent)
}
