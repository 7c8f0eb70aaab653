// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package gather

import (
	"errors"
	"fmt"

	"github.com/bureau-foundation/gather/lib/address"
	"github.com/bureau-foundation/gather/lib/codec"
)

// ActionType is what happened to the subject of an alert.
type ActionType string

const (
	ActionProposalCreated     ActionType = "proposalCreated"
	ActionProposalUpdated     ActionType = "proposalUpdated"
	ActionProposalCancelled   ActionType = "proposalCancelled"
	ActionProposalUncancelled ActionType = "proposalUncancelled"
	ActionProposalExpired     ActionType = "proposalExpired"

	ActionEventCreated     ActionType = "eventCreated"
	ActionEventUpdated     ActionType = "eventUpdated"
	ActionEventCancelled   ActionType = "eventCancelled"
	ActionEventUncancelled ActionType = "eventUncancelled"

	ActionCommitmentCreated            ActionType = "commitmentCreated"
	ActionCommitmentCancelled          ActionType = "commitmentCancelled"
	ActionCommitmentCancellationUndone ActionType = "commitmentCancellationUndone"
	ActionSatisfactionCreated          ActionType = "satisfactionCreated"
	ActionSatisfactionDeleted          ActionType = "satisfactionDeleted"
	ActionAssemblyCreated              ActionType = "assemblyCreated"
)

var messageKeys = map[ActionType]string{
	ActionProposalCreated:              "proposal_created",
	ActionProposalUpdated:              "proposal_updated",
	ActionProposalCancelled:            "proposal_cancelled",
	ActionProposalUncancelled:          "proposal_uncancelled",
	ActionProposalExpired:              "proposal_expired",
	ActionEventCreated:                 "event_created",
	ActionEventUpdated:                 "event_updated",
	ActionEventCancelled:               "event_cancelled",
	ActionEventUncancelled:             "event_uncancelled",
	ActionCommitmentCreated:            "commitment_created",
	ActionCommitmentCancelled:          "commitment_cancelled",
	ActionCommitmentCancellationUndone: "commitment_uncancelled",
	ActionSatisfactionCreated:          "satisfaction_created",
	ActionSatisfactionDeleted:          "satisfaction_deleted",
	ActionAssemblyCreated:              "assembly_created",
}

// MessageKey returns the catalog key of the alert body, or "" for an
// unknown type.
func (t ActionType) MessageKey() string {
	return messageKeys[t]
}

// Action describes one change. ActionHash names the commit that made
// it: for cancellations, the cancellation record.
type Action struct {
	Type       ActionType   `cbor:"type"`
	ActionHash address.Hash `cbor:"action_hash"`

	// Timestamp is set for ActionProposalExpired.
	Timestamp int64 `cbor:"timestamp,omitempty"`

	// Need names the need of satisfaction actions.
	Need string `cbor:"need,omitempty"`

	// FromProposal marks an ActionEventCreated that fulfilled a
	// proposal.
	FromProposal bool `cbor:"from_proposal,omitempty"`
}

// AlertType says whether an alert's subject is an event or a proposal.
type AlertType string

const (
	AlertEvent    AlertType = "eventAlert"
	AlertProposal AlertType = "proposalAlert"
)

// Notification is an alert about an event or proposal.
type Notification struct {
	Type    AlertType    `cbor:"type"`
	Subject address.Hash `cbor:"subject"`
	Action  Action       `cbor:"action"`
}

// EventAlert returns a notification about eventHash.
func EventAlert(eventHash address.Hash, action Action) Notification {
	return Notification{Type: AlertEvent, Subject: eventHash, Action: action}
}

// ProposalAlert returns a notification about proposalHash.
func ProposalAlert(proposalHash address.Hash, action Action) Notification {
	return Notification{Type: AlertProposal, Subject: proposalHash, Action: action}
}

// Validate checks the alert and action types.
func (n *Notification) Validate() error {
	switch n.Type {
	case AlertEvent, AlertProposal:
	default:
		return fmt.Errorf("notification: unknown type %q", n.Type)
	}
	if n.Subject.IsZero() {
		return errors.New("notification: subject is required")
	}
	if n.Action.Type.MessageKey() == "" {
		return fmt.Errorf("notification: unknown action type %q", n.Action.Type)
	}
	return nil
}

// Encode returns the CBOR form used as an alert edge tag.
func (n Notification) Encode() ([]byte, error) {
	return codec.Marshal(n)
}

// DecodeNotification parses and validates an alert edge tag.
func DecodeNotification(data []byte) (Notification, error) {
	var notification Notification
	if err := codec.Unmarshal(data, &notification); err != nil {
		return Notification{}, fmt.Errorf("decoding notification: %w", err)
	}
	if err := notification.Validate(); err != nil {
		return Notification{}, err
	}
	return notification, nil
}
