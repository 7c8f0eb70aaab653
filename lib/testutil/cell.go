// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"testing"
	"time"

	"github.com/bureau-foundation/gather/lib/address"
	"github.com/bureau-foundation/gather/lib/clock"
	"github.com/bureau-foundation/gather/lib/recordstore"
)

// Epoch is the starting time of every fake clock built here.
var Epoch = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

// Network is the store id test cells join.
var Network = address.StoreID("gather-test")

// Participant is a cell plus the fake clock that stamps its commits.
type Participant struct {
	*recordstore.Cell
	Clock *clock.FakeClock
}

// NewParticipant returns a cell for seed over backend with its own fake
// clock at Epoch. Pass a nil backend for a fresh in-memory one.
func NewParticipant(t *testing.T, backend recordstore.Backend, seed string, opts ...func(*recordstore.CellConfig)) Participant {
	t.Helper()
	if backend == nil {
		backend = recordstore.NewMemoryBackend()
	}
	fake := clock.Fake(Epoch)
	cfg := recordstore.CellConfig{
		Agent:   address.AgentKey(seed),
		StoreID: Network,
		Clock:   fake,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	cell, err := recordstore.NewCell(backend, cfg)
	if err != nil {
		t.Fatalf("NewCell(%s): %v", seed, err)
	}
	return Participant{Cell: cell, Clock: fake}
}
