// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package gather

import (
	"strings"
	"testing"

	"github.com/bureau-foundation/gather/lib/address"
	"github.com/bureau-foundation/gather/lib/codec"
)

func TestEventValidate(t *testing.T) {
	tests := []struct {
		name    string
		event   Event
		wantErr string
	}{
		{"valid", Event{Title: "Meetup", StartTime: 100, EndTime: 200}, ""},
		{"instant", Event{Title: "Meetup", StartTime: 100, EndTime: 100}, ""},
		{"no title", Event{StartTime: 100, EndTime: 200}, "title"},
		{"reversed", Event{Title: "Meetup", StartTime: 200, EndTime: 100}, "before"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := test.event.Validate()
			if test.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), test.wantErr) {
				t.Fatalf("Validate = %v, want error containing %q", err, test.wantErr)
			}
		})
	}
}

func TestProposalValidate(t *testing.T) {
	valid := Proposal{Title: "Picnic", Time: &EventTime{StartTime: 1, EndTime: 2}}
	if err := valid.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
	untimed := Proposal{Title: "Picnic"}
	if err := untimed.Validate(); err != nil {
		t.Errorf("Validate untimed: %v", err)
	}
	reversed := Proposal{Title: "Picnic", Time: &EventTime{StartTime: 2, EndTime: 1}}
	if err := reversed.Validate(); err == nil {
		t.Error("expected error for reversed time")
	}
}

func TestCancellationValidate(t *testing.T) {
	if err := (&Cancellation{Reason: "rain"}).Validate(); err == nil {
		t.Error("expected error without event_hash")
	}
	if err := (&Cancellation{EventHash: address.Anchor("e")}).Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestEventWireNames(t *testing.T) {
	data, err := codec.Marshal(Event{Title: "Meetup", StartTime: 100, EndTime: 200})
	if err != nil {
		t.Fatal(err)
	}
	var fields map[string]any
	if err := codec.Unmarshal(data, &fields); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"title", "start_time", "end_time", "call_to_action_hash", "hosts"} {
		if _, ok := fields[name]; !ok {
			t.Errorf("encoded event lacks %q", name)
		}
	}
	if _, ok := fields["from_proposal"]; ok {
		t.Error("from_proposal encoded although unset")
	}
}

func TestNotificationRoundTrip(t *testing.T) {
	subject := address.Anchor("event")
	original := EventAlert(subject, Action{Type: ActionEventCancelled, ActionHash: address.Anchor("cancellation")})

	data, err := original.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := DecodeNotification(data)
	if err != nil {
		t.Fatalf("DecodeNotification: %v", err)
	}
	if decoded.Type != AlertEvent || decoded.Subject != subject || decoded.Action.Type != ActionEventCancelled {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestDecodeNotificationRejectsUnknownTypes(t *testing.T) {
	bad := Notification{Type: "somethingElse", Subject: address.Anchor("x"), Action: Action{Type: ActionEventCreated}}
	data, err := codec.Marshal(bad)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := DecodeNotification(data); err == nil {
		t.Error("expected error for unknown alert type")
	}

	bad = ProposalAlert(address.Anchor("x"), Action{Type: "nope"})
	data, err = codec.Marshal(bad)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := DecodeNotification(data); err == nil {
		t.Error("expected error for unknown action type")
	}

	if _, err := DecodeNotification([]byte{0xff}); err == nil {
		t.Error("expected error for invalid CBOR")
	}
}

func TestEveryActionHasMessageKey(t *testing.T) {
	for actionType, key := range messageKeys {
		if key == "" {
			t.Errorf("%s has empty message key", actionType)
		}
	}
	if ActionType("unknown").MessageKey() != "" {
		t.Error("unknown action type has a message key")
	}
}
