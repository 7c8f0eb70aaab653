// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package gather

import (
	"context"

	"github.com/bureau-foundation/gather/lib/address"
	"github.com/bureau-foundation/gather/lib/recordstore"
	schema "github.com/bureau-foundation/gather/lib/schema/gather"
)

// CreateAttendeesAttestation commits an attestation and indexes it from
// the event and from every attendee.
func (s *Service) CreateAttendeesAttestation(ctx context.Context, attestation schema.AttendeesAttestation) (*recordstore.Record, error) {
	if err := attestation.Validate(); err != nil {
		return nil, err
	}
	record, err := s.create(ctx, schema.EntryAttendeesAttestation, attestation)
	if err != nil {
		return nil, err
	}
	for _, attendee := range attestation.Attendees {
		if _, err := s.relations.Link(ctx, attendee, record.ID(), schema.LinkAttendeeToAttestations, nil); err != nil {
			return nil, err
		}
	}
	if _, err := s.relations.Link(ctx, attestation.EventHash, record.ID(), schema.LinkEventToAttestations, nil); err != nil {
		return nil, err
	}
	return record, nil
}

// GetAttendeesAttestation returns the newest revision of an
// attestation, nil if it was deleted, or ErrNotFound.
func (s *Service) GetAttendeesAttestation(ctx context.Context, id address.Hash) (*recordstore.Record, error) {
	return s.chains.Latest(ctx, id)
}

// UpdateAttendeesAttestationInput revises an attestation.
type UpdateAttendeesAttestationInput struct {
	PreviousAttendeesAttestationHash address.Hash                `cbor:"previous_attendees_attestation_hash"`
	UpdatedAttendeesAttestation      schema.AttendeesAttestation `cbor:"updated_attendees_attestation"`
}

// UpdateAttendeesAttestation commits a revision. Index edges stay on
// the original.
func (s *Service) UpdateAttendeesAttestation(ctx context.Context, input UpdateAttendeesAttestationInput) (*recordstore.Record, error) {
	if err := input.UpdatedAttendeesAttestation.Validate(); err != nil {
		return nil, err
	}
	return s.update(ctx, input.PreviousAttendeesAttestationHash, schema.EntryAttendeesAttestation, input.UpdatedAttendeesAttestation)
}

// AttestationsForAttendee returns the attestations naming an agent.
func (s *Service) AttestationsForAttendee(ctx context.Context, attendee address.Hash) ([]address.Hash, error) {
	return s.relations.Query(ctx, attendee, schema.LinkAttendeeToAttestations)
}

// AttestationsForEvent returns the attestations of an event.
func (s *Service) AttestationsForEvent(ctx context.Context, event address.Hash) ([]address.Hash, error) {
	return s.relations.Query(ctx, event, schema.LinkEventToAttestations)
}
