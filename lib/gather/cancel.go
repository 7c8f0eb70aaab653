// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package gather

import (
	"context"
	"fmt"

	"github.com/bureau-foundation/gather/lib/address"
	"github.com/bureau-foundation/gather/lib/codec"
	"github.com/bureau-foundation/gather/lib/collection"
	"github.com/bureau-foundation/gather/lib/recordstore"
	schema "github.com/bureau-foundation/gather/lib/schema/gather"
)

// CancelInput names the record to cancel and why.
type CancelInput struct {
	RecordHash address.Hash `cbor:"record_hash"`
	Reason     string       `cbor:"reason"`
}

// Outcome reports what Cancel did.
type Outcome struct {
	Cancellation *recordstore.Record
	Category     string
	Assemblies   int
	Transition   collection.Transition
	Tombstone    address.Hash
}

// Cancel cancels an event or proposal.
//
// The assemble module is asked first whether the record's call to
// action gathered any assembly: if so the record was effectively an
// event and is filed as a cancelled event, otherwise as a cancelled
// proposal. A failed call aborts before anything is written. The
// record is then moved, a cancellation is committed and linked from
// it, and the record is tombstoned. Followers are alerted last; that
// step cannot fail the operation.
func (s *Service) Cancel(ctx context.Context, input CancelInput) (*Outcome, error) {
	current, err := s.currentSubject(ctx, input.RecordHash)
	if err != nil {
		return nil, fmt.Errorf("cancelling %s: %w", input.RecordHash.Short(), err)
	}

	assemblies, err := s.assemblies(ctx, current.callToActionHash)
	if err != nil {
		return nil, fmt.Errorf("cancelling %s: %w", input.RecordHash.Short(), err)
	}

	category := schema.CategoryCancelledProposals
	if assemblies > 0 {
		category = schema.CategoryCancelledEvents
	}
	transition, err := s.lifecycle.Assign(ctx, input.RecordHash, category)
	if err != nil {
		return nil, fmt.Errorf("cancelling %s: %w", input.RecordHash.Short(), err)
	}

	cancellation, err := s.create(ctx, schema.EntryCancellation, schema.Cancellation{
		Reason:    input.Reason,
		EventHash: input.RecordHash,
	})
	if err != nil {
		return nil, fmt.Errorf("cancelling %s: %w", input.RecordHash.Short(), err)
	}
	if _, err := s.relations.Link(ctx, input.RecordHash, cancellation.ID(), schema.LinkEventToCancellations, nil); err != nil {
		return nil, fmt.Errorf("cancelling %s: %w", input.RecordHash.Short(), err)
	}
	tombstone, err := s.store.Delete(ctx, input.RecordHash)
	if err != nil {
		return nil, fmt.Errorf("cancelling %s: %w", input.RecordHash.Short(), err)
	}

	s.logger.Info("record cancelled",
		"record", input.RecordHash.Short(),
		"category", category,
		"assemblies", assemblies,
	)

	action := schema.Action{Type: schema.ActionEventCancelled, ActionHash: cancellation.ID()}
	notification := schema.EventAlert(input.RecordHash, action)
	if current.isProposal {
		action.Type = schema.ActionProposalCancelled
		notification = schema.ProposalAlert(input.RecordHash, action)
	}
	s.alert(ctx, input.RecordHash, notification)

	return &Outcome{
		Cancellation: cancellation,
		Category:     category,
		Assemblies:   assemblies,
		Transition:   transition,
		Tombstone:    tombstone,
	}, nil
}

// assemblies counts the assemblies of a call to action.
func (s *Service) assemblies(ctx context.Context, callToAction address.Hash) (int, error) {
	if s.caller == nil {
		return 0, fmt.Errorf("no route to the %s module", AssembleModule)
	}
	var records []codec.RawMessage
	if err := s.caller.Call(ctx, AssembleModule, assembliesFunction, callToAction, &records); err != nil {
		return 0, err
	}
	return len(records), nil
}

// GetCancellation returns the newest revision of a cancellation, nil if
// it was deleted, or ErrNotFound.
func (s *Service) GetCancellation(ctx context.Context, id address.Hash) (*recordstore.Record, error) {
	return s.chains.Latest(ctx, id)
}

// UpdateCancellationInput revises a cancellation.
type UpdateCancellationInput struct {
	PreviousCancellationHash address.Hash        `cbor:"previous_cancellation_hash"`
	UpdatedCancellation      schema.Cancellation `cbor:"updated_cancellation"`
}

// UpdateCancellation commits a revision of a cancellation, typically to
// amend its reason.
func (s *Service) UpdateCancellation(ctx context.Context, input UpdateCancellationInput) (*recordstore.Record, error) {
	if err := input.UpdatedCancellation.Validate(); err != nil {
		return nil, err
	}
	return s.update(ctx, input.PreviousCancellationHash, schema.EntryCancellation, input.UpdatedCancellation)
}

// DeleteCancellation tombstones a cancellation and returns the
// tombstone id. The link from the cancelled record remains.
func (s *Service) DeleteCancellation(ctx context.Context, id address.Hash) (address.Hash, error) {
	return s.store.Delete(ctx, id)
}

// CancellationsFor returns the live cancellations of a record, each at
// its newest revision.
func (s *Service) CancellationsFor(ctx context.Context, record address.Hash) ([]recordstore.Record, error) {
	ids, err := s.relations.Query(ctx, record, schema.LinkEventToCancellations)
	if err != nil {
		return nil, err
	}
	var cancellations []recordstore.Record
	for _, id := range ids {
		latest, err := s.chains.Latest(ctx, id)
		if err != nil {
			return nil, err
		}
		if latest != nil {
			cancellations = append(cancellations, *latest)
		}
	}
	return cancellations, nil
}
