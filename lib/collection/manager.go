// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package collection

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/bureau-foundation/gather/lib/address"
	"github.com/bureau-foundation/gather/lib/recordstore"
)

// MembersOrder selects how Members orders its deduplicated result.
type MembersOrder int

const (
	// OrderStore returns members in the order their first live edge
	// was appended.
	OrderStore MembersOrder = iota

	// OrderRecency returns members by their newest live edge,
	// newest first.
	OrderRecency
)

// ParseMembersOrder parses the configuration names "store" and
// "recency".
func ParseMembersOrder(name string) (MembersOrder, error) {
	switch name {
	case "", "store":
		return OrderStore, nil
	case "recency":
		return OrderRecency, nil
	default:
		return 0, fmt.Errorf("unknown members order %q", name)
	}
}

// Config tunes a Manager.
type Config struct {
	// Permissive disables source-state checks: any category may be
	// assigned from any state.
	Permissive bool

	// Order is the Members ordering policy.
	Order MembersOrder

	// Logger receives transition debug messages. If nil, a no-op
	// logger is used.
	Logger *slog.Logger
}

// Manager reads and writes the memberships of one family.
type Manager struct {
	store  recordstore.Store
	family *Family
	config Config
	logger *slog.Logger
}

// NewManager returns a Manager for family over store.
func NewManager(store recordstore.Store, family *Family, config Config) *Manager {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Manager{store: store, family: family, config: config, logger: logger}
}

// Family returns the family the manager maintains.
func (m *Manager) Family() *Family { return m.family }

// Transition describes what Assign changed.
type Transition struct {
	Record address.Hash

	// From lists the categories the record was in before the call.
	// More than one means the record had been caught mid-transition
	// by a concurrent writer.
	From []string
	To   string

	// Added is the new membership edge, or zero if the record already
	// belonged to To.
	Added address.Hash

	// Removed lists the membership edges tombstoned by the call.
	Removed []address.Hash
}

// Changed reports whether Assign wrote anything.
func (t Transition) Changed() bool {
	return !t.Added.IsZero() || len(t.Removed) > 0
}

// Assign moves record into the named category.
//
// The new membership edge is written before any old one is removed, so
// an interrupted call leaves the record in two categories rather than
// none; the next Assign repairs it. Assigning to a category the record
// already belongs to adds nothing. Every other live membership in the
// family is removed, along with duplicate edges into the target.
//
// Unless the manager is permissive, the move must be declared by the
// family from at least one current category, or the target must be
// initial when the record has no membership. A rejected move writes
// nothing.
func (m *Manager) Assign(ctx context.Context, record address.Hash, to string) (Transition, error) {
	target, err := m.family.Category(to)
	if err != nil {
		return Transition{}, err
	}

	memberships, err := m.memberships(ctx, record)
	if err != nil {
		return Transition{}, err
	}

	transition := Transition{Record: record, To: to}
	for _, category := range m.family.categories {
		if len(memberships[category.Name]) > 0 {
			transition.From = append(transition.From, category.Name)
		}
	}

	if !m.config.Permissive && !m.permitted(transition.From, to) {
		return Transition{}, fmt.Errorf("%w: %s %v -> %s for %s",
			ErrInvalidTransition, m.family.name, transition.From, to, record.Short())
	}

	existing := memberships[to]
	if len(existing) == 0 {
		added, err := m.store.CreateEdge(ctx, target.Anchor(), record, target.LinkType, nil)
		if err != nil {
			return Transition{}, fmt.Errorf("adding %s to %s: %w", record.Short(), to, err)
		}
		transition.Added = added
	}

	for _, category := range m.family.categories {
		edges := memberships[category.Name]
		if category.Name == to && len(edges) > 0 {
			// Keep the oldest membership edge, drop duplicates.
			edges = edges[1:]
		}
		for _, edge := range edges {
			if _, err := m.store.DeleteEdge(ctx, edge.ID); err != nil {
				return transition, fmt.Errorf("removing %s from %s: %w", record.Short(), category.Name, err)
			}
			transition.Removed = append(transition.Removed, edge.ID)
		}
	}

	if transition.Changed() {
		m.logger.Debug("category assigned",
			"family", m.family.name,
			"record", record.Short(),
			"from", transition.From,
			"to", to,
			"removed", len(transition.Removed),
		)
	}
	return transition, nil
}

// Place puts a record with no membership into an initial category. It
// is Assign restricted to initial categories regardless of strictness.
func (m *Manager) Place(ctx context.Context, record address.Hash, category string) (Transition, error) {
	if !m.family.IsInitial(category) {
		return Transition{}, fmt.Errorf("%w: %s is not an initial %s category", ErrInvalidTransition, category, m.family.name)
	}
	return m.Assign(ctx, record, category)
}

// Retire removes every live membership of record in the family, so it
// no longer appears in any category. It returns the removed edges.
// Retiring is not a transition and is allowed in strict mode.
func (m *Manager) Retire(ctx context.Context, record address.Hash) ([]address.Hash, error) {
	memberships, err := m.memberships(ctx, record)
	if err != nil {
		return nil, err
	}
	var removed []address.Hash
	for _, category := range m.family.categories {
		for _, edge := range memberships[category.Name] {
			if _, err := m.store.DeleteEdge(ctx, edge.ID); err != nil {
				return removed, fmt.Errorf("retiring %s from %s: %w", record.Short(), category.Name, err)
			}
			removed = append(removed, edge.ID)
		}
	}
	if len(removed) > 0 {
		m.logger.Debug("record retired",
			"family", m.family.name,
			"record", record.Short(),
			"removed", len(removed),
		)
	}
	return removed, nil
}

// CurrentCategories returns the categories holding a live membership
// edge to record, in family order. Outside of concurrent transitions
// the result has at most one element.
func (m *Manager) CurrentCategories(ctx context.Context, record address.Hash) ([]string, error) {
	memberships, err := m.memberships(ctx, record)
	if err != nil {
		return nil, err
	}
	var current []string
	for _, category := range m.family.categories {
		if len(memberships[category.Name]) > 0 {
			current = append(current, category.Name)
		}
	}
	return current, nil
}

// Members returns the records in the named category, each once,
// ordered by the manager's policy.
func (m *Manager) Members(ctx context.Context, name string) ([]address.Hash, error) {
	edges, err := m.liveEdges(ctx, name)
	if err != nil {
		return nil, err
	}
	if m.config.Order == OrderRecency {
		sortNewestFirst(edges)
	}
	seen := make(map[address.Hash]bool, len(edges))
	members := make([]address.Hash, 0, len(edges))
	for _, edge := range edges {
		if seen[edge.Target] {
			continue
		}
		seen[edge.Target] = true
		members = append(members, edge.Target)
	}
	return members, nil
}

// MemberEdges returns every live membership edge of the category,
// duplicates included, newest first.
func (m *Manager) MemberEdges(ctx context.Context, name string) ([]recordstore.Edge, error) {
	edges, err := m.liveEdges(ctx, name)
	if err != nil {
		return nil, err
	}
	sortNewestFirst(edges)
	return edges, nil
}

func (m *Manager) permitted(from []string, to string) bool {
	if len(from) == 0 {
		return m.family.IsInitial(to)
	}
	for _, current := range from {
		if current == to || m.family.Allowed(current, to) {
			return true
		}
	}
	return false
}

// memberships scans every category anchor for live edges to record.
// Edges are in append order, so the first edge per category is the
// oldest.
func (m *Manager) memberships(ctx context.Context, record address.Hash) (map[string][]recordstore.Edge, error) {
	memberships := make(map[string][]recordstore.Edge)
	for _, category := range m.family.categories {
		edges, err := m.store.GetEdges(ctx, category.Anchor(), recordstore.OfType(category.LinkType))
		if err != nil {
			return nil, fmt.Errorf("reading %s members: %w", category.Name, err)
		}
		for _, edge := range edges {
			if edge.Target == record {
				memberships[category.Name] = append(memberships[category.Name], edge)
			}
		}
	}
	return memberships, nil
}

func (m *Manager) liveEdges(ctx context.Context, name string) ([]recordstore.Edge, error) {
	category, err := m.family.Category(name)
	if err != nil {
		return nil, err
	}
	edges, err := m.store.GetEdges(ctx, category.Anchor(), recordstore.OfType(category.LinkType))
	if err != nil {
		return nil, fmt.Errorf("reading %s members: %w", name, err)
	}
	return edges, nil
}

func sortNewestFirst(edges []recordstore.Edge) {
	sort.SliceStable(edges, func(i, j int) bool {
		if edges[i].Timestamp != edges[j].Timestamp {
			return edges[i].Timestamp > edges[j].Timestamp
		}
		return edges[i].ID.Compare(edges[j].ID) > 0
	})
}
