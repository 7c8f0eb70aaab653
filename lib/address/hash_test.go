// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package address

import (
	"testing"

	"github.com/bureau-foundation/gather/lib/codec"
)

func TestDomainSeparation(t *testing.T) {
	input := "all_upcoming_events"
	anchor := Anchor(input)

	if anchor == StoreID(input) {
		t.Error("anchor and store domains collide")
	}
	if anchor == AgentKey(input) {
		t.Error("anchor and agent domains collide")
	}
	if anchor == HashAction([]byte(input)) {
		t.Error("anchor and action domains collide")
	}
	if HashEntry("event", []byte("x")) == HashEntry("proposal", []byte("x")) {
		t.Error("entry type does not separate identical content")
	}
}

func TestAnchorIsStable(t *testing.T) {
	if Anchor("all_past_events") != Anchor("all_past_events") {
		t.Fatal("Anchor is not deterministic")
	}
	if Anchor("all_past_events") == Anchor("all_upcoming_events") {
		t.Fatal("distinct anchors collide")
	}
	if Anchor("all_past_events").IsZero() {
		t.Fatal("Anchor produced the zero hash")
	}
}

func TestParseRoundtrip(t *testing.T) {
	original := AgentKey("alice")

	parsed, err := Parse(original.String())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if parsed != original {
		t.Errorf("Parse(String()) = %s, want %s", parsed, original)
	}

	if _, err := Parse("abcd"); err == nil {
		t.Error("Parse accepted a short hex string")
	}
	if _, err := Parse("zz"); err == nil {
		t.Error("Parse accepted invalid hex")
	}
	if got := original.Short(); len(got) != 12 {
		t.Errorf("Short() length = %d, want 12", len(got))
	}
}

func TestCBORByteString(t *testing.T) {
	type carrier struct {
		ID Hash `cbor:"id"`
	}
	original := carrier{ID: Anchor("all_open_proposals")}

	data, err := codec.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	// map(1) + text(2) "id" + bytes(32) header 0x58 0x20 + 32 bytes.
	if len(data) != 1+3+2+Size {
		t.Fatalf("encoded length = %d, want byte-string encoding", len(data))
	}

	var decoded carrier
	if err := codec.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.ID != original.ID {
		t.Errorf("decoded %s, want %s", decoded.ID, original.ID)
	}
}

func TestCompare(t *testing.T) {
	low := Hash{0x01}
	high := Hash{0x02}
	if low.Compare(high) >= 0 || high.Compare(low) <= 0 || low.Compare(low) != 0 {
		t.Error("Compare does not order by bytes")
	}
}
