// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package gather

import (
	"errors"
	"fmt"

	"github.com/bureau-foundation/gather/lib/address"
)

// Entry types.
const (
	EntryEvent                = "event"
	EntryProposal             = "proposal"
	EntryCancellation         = "cancellation"
	EntryAttendeesAttestation = "attendees_attestation"
)

// Event is something that will happen at a fixed time. Times are
// microseconds since the Unix epoch.
type Event struct {
	Hosts       []address.Hash `cbor:"hosts"`
	Title       string         `cbor:"title"`
	Description string         `cbor:"description"`
	Image       address.Hash   `cbor:"image"`
	Location    string         `cbor:"location"`
	StartTime   int64          `cbor:"start_time"`
	EndTime     int64          `cbor:"end_time"`
	Cost        string         `cbor:"cost,omitempty"`

	// CallToActionHash is the call to action whose assemblies decide
	// how a cancellation is filed.
	CallToActionHash address.Hash `cbor:"call_to_action_hash"`

	// FromProposal is set on events created by fulfilling a proposal.
	FromProposal *address.Hash `cbor:"from_proposal,omitempty"`
}

// Validate checks that the required fields are present and the times
// are ordered.
func (e *Event) Validate() error {
	if e.Title == "" {
		return errors.New("event: title is required")
	}
	if e.EndTime < e.StartTime {
		return fmt.Errorf("event: end_time %d is before start_time %d", e.EndTime, e.StartTime)
	}
	return nil
}

// EventTime is an optional time range on a proposal.
type EventTime struct {
	StartTime int64 `cbor:"start_time"`
	EndTime   int64 `cbor:"end_time"`
}

// Proposal is an event that happens only if its call to action is
// fulfilled.
type Proposal struct {
	Hosts            []address.Hash `cbor:"hosts"`
	Title            string         `cbor:"title"`
	Description      string         `cbor:"description"`
	Image            address.Hash   `cbor:"image"`
	Location         string         `cbor:"location,omitempty"`
	Time             *EventTime     `cbor:"time,omitempty"`
	Cost             string         `cbor:"cost,omitempty"`
	CallToActionHash address.Hash   `cbor:"call_to_action_hash"`
}

// Validate checks that the required fields are present.
func (p *Proposal) Validate() error {
	if p.Title == "" {
		return errors.New("proposal: title is required")
	}
	if p.Time != nil && p.Time.EndTime < p.Time.StartTime {
		return fmt.Errorf("proposal: end_time %d is before start_time %d", p.Time.EndTime, p.Time.StartTime)
	}
	return nil
}

// Cancellation records why an event or proposal was cancelled.
// EventHash names the original record, whichever kind it is.
type Cancellation struct {
	Reason    string       `cbor:"reason"`
	EventHash address.Hash `cbor:"event_hash"`
}

// Validate checks that the cancelled record is named.
func (c *Cancellation) Validate() error {
	if c.EventHash.IsZero() {
		return errors.New("cancellation: event_hash is required")
	}
	return nil
}

// AttendeesAttestation is a host's statement of who attended an event.
type AttendeesAttestation struct {
	EventHash address.Hash   `cbor:"event_hash"`
	Attendees []address.Hash `cbor:"attendees"`
}

// Validate checks that the event is named.
func (a *AttendeesAttestation) Validate() error {
	if a.EventHash.IsZero() {
		return errors.New("attendees attestation: event_hash is required")
	}
	return nil
}
