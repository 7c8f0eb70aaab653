// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package recordstore

import (
	"context"
	"sync"

	"github.com/bureau-foundation/gather/lib/address"
)

type referenceKey struct {
	original address.Hash
	kind     Kind
}

// MemoryBackend keeps the whole store in process memory. Edges from
// each base form an append-only slice, which is the per-base log the
// SQLite backend models with an index.
type MemoryBackend struct {
	mu          sync.RWMutex
	actions     map[address.Hash]Action
	entries     map[address.Hash]Entry
	referencing map[referenceKey][]address.Hash
	linksByBase map[address.Hash][]address.Hash
	heads       map[address.Hash]address.Hash
}

var _ Backend = (*MemoryBackend)(nil)

// NewMemoryBackend returns an empty backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		actions:     make(map[address.Hash]Action),
		entries:     make(map[address.Hash]Entry),
		referencing: make(map[referenceKey][]address.Hash),
		linksByBase: make(map[address.Hash][]address.Hash),
		heads:       make(map[address.Hash]address.Hash),
	}
}

// Put implements Backend.
func (m *MemoryBackend) Put(_ context.Context, action Action, entry *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.actions[action.Hash]; exists {
		return nil
	}
	m.actions[action.Hash] = action
	if entry != nil {
		copied := *entry
		copied.Content = append([]byte(nil), entry.Content...)
		m.entries[action.EntryHash] = copied
	}

	switch action.Kind {
	case KindUpdate, KindDelete, KindDeleteLink:
		key := referenceKey{original: action.Original, kind: action.Kind}
		m.referencing[key] = append(m.referencing[key], action.Hash)
	case KindCreateLink:
		m.linksByBase[action.Base] = append(m.linksByBase[action.Base], action.Hash)
	}

	if head, ok := m.heads[action.Author]; !ok || m.actions[head].Seq < action.Seq {
		m.heads[action.Author] = action.Hash
	}
	return nil
}

// Action implements Backend.
func (m *MemoryBackend) Action(_ context.Context, id address.Hash) (Action, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	action, ok := m.actions[id]
	return action, ok, nil
}

// Entry implements Backend.
func (m *MemoryBackend) Entry(_ context.Context, id address.Hash) (Entry, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.entries[id]
	return entry, ok, nil
}

// Referencing implements Backend.
func (m *MemoryBackend) Referencing(_ context.Context, id address.Hash, kind Kind) ([]Action, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.resolveLocked(m.referencing[referenceKey{original: id, kind: kind}]), nil
}

// LinksFrom implements Backend.
func (m *MemoryBackend) LinksFrom(_ context.Context, base address.Hash, types []LinkType) ([]LinkHistory, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	query := EdgeQuery{Types: types}
	var histories []LinkHistory
	for _, id := range m.linksByBase[base] {
		create := m.actions[id]
		if !query.matchesType(create.LinkType) {
			continue
		}
		histories = append(histories, LinkHistory{
			Create:  create,
			Deletes: m.resolveLocked(m.referencing[referenceKey{original: id, kind: KindDeleteLink}]),
		})
	}
	return histories, nil
}

// ChainHead implements Backend.
func (m *MemoryBackend) ChainHead(_ context.Context, author address.Hash) (Action, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	head, ok := m.heads[author]
	if !ok {
		return Action{}, false, nil
	}
	return m.actions[head], true, nil
}

// Close implements Backend.
func (m *MemoryBackend) Close() error { return nil }

// Len returns the number of actions stored.
func (m *MemoryBackend) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.actions)
}

func (m *MemoryBackend) resolveLocked(ids []address.Hash) []Action {
	if len(ids) == 0 {
		return nil
	}
	actions := make([]Action, len(ids))
	for i, id := range ids {
		actions[i] = m.actions[id]
	}
	return actions
}
