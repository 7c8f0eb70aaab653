// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package collection

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bureau-foundation/gather/lib/address"
	"github.com/bureau-foundation/gather/lib/recordstore"
	"github.com/bureau-foundation/gather/lib/testutil"
)

// A small lifecycle family: draft -> live -> {archived, withdrawn},
// withdrawn -> live.
func testFamily(t *testing.T) *Family {
	t.Helper()
	family, err := NewFamily(FamilySpec{
		Name: "docs",
		Categories: []Category{
			{Name: "draft", Key: "all_draft_docs", LinkType: "AllDocs"},
			{Name: "live", Key: "all_live_docs", LinkType: "AllDocs"},
			{Name: "archived", Key: "all_archived_docs", LinkType: "AllDocs"},
			{Name: "withdrawn", Key: "all_withdrawn_docs", LinkType: "AllDocs"},
		},
		Initial: []string{"draft", "live"},
		Transitions: map[string][]string{
			"draft":     {"live"},
			"live":      {"archived", "withdrawn"},
			"withdrawn": {"live"},
		},
	})
	if err != nil {
		t.Fatalf("NewFamily: %v", err)
	}
	return family
}

func record(seed string) address.Hash {
	return address.Anchor("record/" + seed)
}

func contains(ids []address.Hash, id address.Hash) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

func TestNewFamilyValidates(t *testing.T) {
	tests := []struct {
		name string
		spec FamilySpec
	}{
		{"incomplete category", FamilySpec{Categories: []Category{{Name: "a"}}}},
		{"duplicate", FamilySpec{Categories: []Category{
			{Name: "a", Key: "a", LinkType: "L"}, {Name: "a", Key: "b", LinkType: "L"},
		}}},
		{"unknown initial", FamilySpec{
			Categories: []Category{{Name: "a", Key: "a", LinkType: "L"}},
			Initial:    []string{"b"},
		}},
		{"unknown transition target", FamilySpec{
			Categories:  []Category{{Name: "a", Key: "a", LinkType: "L"}},
			Transitions: map[string][]string{"a": {"z"}},
		}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if _, err := NewFamily(test.spec); err == nil {
				t.Fatal("NewFamily accepted an invalid spec")
			}
		})
	}
}

func TestAssignMovesBetweenCategories(t *testing.T) {
	ctx := context.Background()
	alice := testutil.NewParticipant(t, nil, "alice")
	manager := NewManager(alice, testFamily(t), Config{})
	doc := record("a")

	if _, err := manager.Place(ctx, doc, "draft"); err != nil {
		t.Fatalf("Place: %v", err)
	}
	transition, err := manager.Assign(ctx, doc, "live")
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if len(transition.From) != 1 || transition.From[0] != "draft" || transition.Added.IsZero() || len(transition.Removed) != 1 {
		t.Errorf("transition = %+v", transition)
	}

	drafts, err := manager.Members(ctx, "draft")
	if err != nil {
		t.Fatalf("Members(draft): %v", err)
	}
	if contains(drafts, doc) {
		t.Error("record still in draft after moving to live")
	}
	live, err := manager.Members(ctx, "live")
	if err != nil {
		t.Fatalf("Members(live): %v", err)
	}
	if !contains(live, doc) {
		t.Error("record missing from live")
	}

	current, err := manager.CurrentCategories(ctx, doc)
	if err != nil {
		t.Fatalf("CurrentCategories: %v", err)
	}
	if len(current) != 1 || current[0] != "live" {
		t.Errorf("CurrentCategories = %v, want [live]", current)
	}
}

func TestAssignIsIdempotent(t *testing.T) {
	ctx := context.Background()
	alice := testutil.NewParticipant(t, nil, "alice")
	manager := NewManager(alice, testFamily(t), Config{})
	doc := record("a")

	if _, err := manager.Place(ctx, doc, "live"); err != nil {
		t.Fatalf("Place: %v", err)
	}
	again, err := manager.Assign(ctx, doc, "live")
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if again.Changed() {
		t.Errorf("second Assign changed state: %+v", again)
	}
	edges, err := manager.MemberEdges(ctx, "live")
	if err != nil {
		t.Fatalf("MemberEdges: %v", err)
	}
	if len(edges) != 1 {
		t.Errorf("live has %d edges, want 1", len(edges))
	}
}

func TestStrictRejectsUndeclaredMove(t *testing.T) {
	ctx := context.Background()
	alice := testutil.NewParticipant(t, nil, "alice")
	manager := NewManager(alice, testFamily(t), Config{})
	doc := record("a")

	if _, err := manager.Place(ctx, doc, "live"); err != nil {
		t.Fatalf("Place: %v", err)
	}
	if _, err := manager.Assign(ctx, doc, "archived"); err != nil {
		t.Fatalf("Assign(archived): %v", err)
	}

	_, err := manager.Assign(ctx, doc, "live")
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("Assign(archived -> live) error = %v, want ErrInvalidTransition", err)
	}
	current, _ := manager.CurrentCategories(ctx, doc)
	if len(current) != 1 || current[0] != "archived" {
		t.Errorf("rejected move mutated state: %v", current)
	}

	if _, err := manager.Assign(ctx, record("fresh"), "archived"); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Assign(none -> archived) error = %v, want ErrInvalidTransition", err)
	}
	if _, err := manager.Place(ctx, record("fresh"), "withdrawn"); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Place(withdrawn) error = %v, want ErrInvalidTransition", err)
	}
}

func TestPermissiveAllowsAnyMove(t *testing.T) {
	ctx := context.Background()
	alice := testutil.NewParticipant(t, nil, "alice")
	manager := NewManager(alice, testFamily(t), Config{Permissive: true})
	doc := record("a")

	if _, err := manager.Assign(ctx, doc, "archived"); err != nil {
		t.Fatalf("Assign(archived): %v", err)
	}
	if _, err := manager.Assign(ctx, doc, "draft"); err != nil {
		t.Fatalf("Assign(draft): %v", err)
	}
	current, _ := manager.CurrentCategories(ctx, doc)
	if len(current) != 1 || current[0] != "draft" {
		t.Errorf("CurrentCategories = %v, want [draft]", current)
	}
}

func TestUnknownCategory(t *testing.T) {
	alice := testutil.NewParticipant(t, nil, "alice")
	manager := NewManager(alice, testFamily(t), Config{})
	if _, err := manager.Assign(context.Background(), record("a"), "nope"); !errors.Is(err, ErrUnknownCategory) {
		t.Errorf("Assign(nope) error = %v, want ErrUnknownCategory", err)
	}
	if _, err := manager.Members(context.Background(), "nope"); !errors.Is(err, ErrUnknownCategory) {
		t.Errorf("Members(nope) error = %v, want ErrUnknownCategory", err)
	}
}

func TestMembersDeduplicatesConcurrentEdges(t *testing.T) {
	ctx := context.Background()
	backend := recordstore.NewMemoryBackend()
	alice := testutil.NewParticipant(t, backend, "alice")
	bob := testutil.NewParticipant(t, backend, "bob")
	family := testFamily(t)
	live, _ := family.Category("live")
	doc := record("shared")

	// Two participants place the same record without seeing each
	// other's edge.
	for _, participant := range []testutil.Participant{alice, bob} {
		if _, err := participant.CreateEdge(ctx, live.Anchor(), doc, live.LinkType, nil); err != nil {
			t.Fatalf("CreateEdge: %v", err)
		}
	}

	manager := NewManager(alice, family, Config{})
	members, err := manager.Members(ctx, "live")
	if err != nil {
		t.Fatalf("Members: %v", err)
	}
	if len(members) != 1 || members[0] != doc {
		t.Fatalf("Members = %v, want exactly the shared record", members)
	}

	edges, _ := manager.MemberEdges(ctx, "live")
	if len(edges) != 2 {
		t.Fatalf("MemberEdges = %d edges, want both duplicates", len(edges))
	}

	// A later transition cleans up both duplicates.
	transition, err := manager.Assign(ctx, doc, "archived")
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if len(transition.Removed) != 2 {
		t.Errorf("Removed = %d edges, want 2", len(transition.Removed))
	}
}

func TestAssignRepairsSplitMembership(t *testing.T) {
	ctx := context.Background()
	alice := testutil.NewParticipant(t, nil, "alice")
	family := testFamily(t)
	manager := NewManager(alice, family, Config{})
	doc := record("split")

	// Simulate an interrupted transition: the record is in both live
	// and withdrawn.
	for _, name := range []string{"live", "withdrawn"} {
		category, _ := family.Category(name)
		if _, err := alice.CreateEdge(ctx, category.Anchor(), doc, category.LinkType, nil); err != nil {
			t.Fatalf("CreateEdge: %v", err)
		}
	}

	if _, err := manager.Assign(ctx, doc, "live"); err != nil {
		t.Fatalf("Assign: %v", err)
	}
	current, _ := manager.CurrentCategories(ctx, doc)
	if len(current) != 1 || current[0] != "live" {
		t.Errorf("CurrentCategories = %v, want [live]", current)
	}
}

func TestMembersRecencyOrder(t *testing.T) {
	ctx := context.Background()
	alice := testutil.NewParticipant(t, nil, "alice")
	family := testFamily(t)
	first, second, third := record("1"), record("2"), record("3")

	store := NewManager(alice, family, Config{Order: OrderStore})
	recency := NewManager(alice, family, Config{Order: OrderRecency})
	for _, doc := range []address.Hash{first, second, third} {
		alice.Clock.Advance(time.Second)
		if _, err := store.Place(ctx, doc, "live"); err != nil {
			t.Fatalf("Place: %v", err)
		}
	}

	inStoreOrder, _ := store.Members(ctx, "live")
	inRecencyOrder, _ := recency.Members(ctx, "live")
	want := []address.Hash{first, second, third}
	for i := range want {
		if inStoreOrder[i] != want[i] {
			t.Errorf("store order[%d] = %s, want %s", i, inStoreOrder[i].Short(), want[i].Short())
		}
		if inRecencyOrder[i] != want[len(want)-1-i] {
			t.Errorf("recency order[%d] = %s, want %s", i, inRecencyOrder[i].Short(), want[len(want)-1-i].Short())
		}
	}
}

func TestParseMembersOrder(t *testing.T) {
	if order, err := ParseMembersOrder("recency"); err != nil || order != OrderRecency {
		t.Errorf("ParseMembersOrder(recency) = %v, %v", order, err)
	}
	if order, err := ParseMembersOrder(""); err != nil || order != OrderStore {
		t.Errorf("ParseMembersOrder(\"\") = %v, %v", order, err)
	}
	if _, err := ParseMembersOrder("random"); err == nil {
		t.Error("ParseMembersOrder accepted an unknown policy")
	}
}

func TestRetireRemovesEveryMembership(t *testing.T) {
	ctx := context.Background()
	alice := testutil.NewParticipant(t, nil, "alice")
	manager := NewManager(alice, testFamily(t), Config{})
	doc := record("a")

	if _, err := manager.Place(ctx, doc, "draft"); err != nil {
		t.Fatalf("Place: %v", err)
	}
	// A second membership as left by an interrupted transition.
	live, err := manager.Family().Category("live")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := alice.CreateEdge(ctx, live.Anchor(), doc, live.LinkType, nil); err != nil {
		t.Fatalf("CreateEdge: %v", err)
	}

	removed, err := manager.Retire(ctx, doc)
	if err != nil {
		t.Fatalf("Retire: %v", err)
	}
	if len(removed) != 2 {
		t.Errorf("Retire removed %d edges, want 2", len(removed))
	}
	current, err := manager.CurrentCategories(ctx, doc)
	if err != nil {
		t.Fatalf("CurrentCategories: %v", err)
	}
	if len(current) != 0 {
		t.Errorf("CurrentCategories = %v after Retire", current)
	}

	again, err := manager.Retire(ctx, doc)
	if err != nil {
		t.Fatalf("second Retire: %v", err)
	}
	if len(again) != 0 {
		t.Errorf("second Retire removed %d edges", len(again))
	}
}
