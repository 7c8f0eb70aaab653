// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package signal turns a module's committed edge mutations into typed
// signals for anyone listening.
//
// An [Emitter] is registered as a post-commit hook on a cell. It
// classifies each committed action: a create_link of a declared link
// type becomes [LinkCreated], a delete_link whose create_link carried a
// declared type becomes [LinkDeleted], and everything else is ignored.
// Signals go to a [Bus], which fans them out to subscribers without
// blocking the committing goroutine. Emission never fails the commit;
// problems are logged.
package signal

import (
	"context"
	"log/slog"
	"sync"

	"github.com/bureau-foundation/gather/lib/recordstore"
)

// Signal is LinkCreated or LinkDeleted.
type Signal interface {
	// Type is the link type of the edge the signal concerns.
	Type() recordstore.LinkType
}

// LinkCreated reports a committed create_link.
type LinkCreated struct {
	Action   recordstore.Action
	LinkType recordstore.LinkType
}

// Type implements Signal.
func (s LinkCreated) Type() recordstore.LinkType { return s.LinkType }

// LinkDeleted reports a committed delete_link together with the
// create_link it removed.
type LinkDeleted struct {
	Action           recordstore.Action
	CreateLinkAction recordstore.Action
	LinkType         recordstore.LinkType
}

// Type implements Signal.
func (s LinkDeleted) Type() recordstore.LinkType { return s.LinkType }

// DefaultBuffer is the channel capacity Subscribe uses for a
// non-positive buffer.
const DefaultBuffer = 64

// Bus fans signals out to subscribers. A subscriber whose buffer is
// full misses the signal.
type Bus struct {
	mu          sync.Mutex
	subscribers map[int]chan Signal
	next        int
	logger      *slog.Logger
}

// NewBus returns an empty bus. A nil logger discards.
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Bus{subscribers: make(map[int]chan Signal), logger: logger}
}

// Subscribe returns a channel of signals and a function that ends the
// subscription and closes the channel.
func (b *Bus) Subscribe(buffer int) (<-chan Signal, func()) {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	channel := make(chan Signal, buffer)

	b.mu.Lock()
	id := b.next
	b.next++
	b.subscribers[id] = channel
	b.mu.Unlock()

	var once sync.Once
	return channel, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subscribers, id)
			b.mu.Unlock()
			close(channel)
		})
	}
}

// Publish delivers signal to every subscriber with room for it.
func (b *Bus) Publish(signal Signal) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, subscriber := range b.subscribers {
		select {
		case subscriber <- signal:
		default:
			b.logger.Warn("signal dropped for slow subscriber",
				"subscriber", id,
				"link_type", signal.Type(),
			)
		}
	}
}

// Emitter classifies committed actions into signals.
type Emitter struct {
	store    recordstore.Reader
	bus      *Bus
	declared map[recordstore.LinkType]bool
	logger   *slog.Logger
}

// NewEmitter returns an emitter for the given link types. store is
// used to look up the create_link behind each delete_link.
func NewEmitter(store recordstore.Reader, bus *Bus, linkTypes []recordstore.LinkType, logger *slog.Logger) *Emitter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	declared := make(map[recordstore.LinkType]bool, len(linkTypes))
	for _, linkType := range linkTypes {
		declared[linkType] = true
	}
	return &Emitter{store: store, bus: bus, declared: declared, logger: logger}
}

// PostCommit has the signature of recordstore.PostCommitHook.
func (e *Emitter) PostCommit(ctx context.Context, committed []recordstore.Action) {
	for _, action := range committed {
		signal, ok := e.classify(ctx, action)
		if ok {
			e.bus.Publish(signal)
		}
	}
}

func (e *Emitter) classify(ctx context.Context, action recordstore.Action) (Signal, bool) {
	switch action.Kind {
	case recordstore.KindCreateLink:
		if !e.declared[action.LinkType] {
			return nil, false
		}
		return LinkCreated{Action: action, LinkType: action.LinkType}, true

	case recordstore.KindDeleteLink:
		created, err := e.store.GetAction(ctx, action.Original)
		if err != nil {
			e.logger.Error("looking up deleted edge",
				"action", action.Hash.Short(),
				"edge", action.Original.Short(),
				"error", err,
			)
			return nil, false
		}
		if created == nil {
			e.logger.Warn("deleted edge not found",
				"action", action.Hash.Short(),
				"edge", action.Original.Short(),
			)
			return nil, false
		}
		if !e.declared[created.LinkType] {
			return nil, false
		}
		return LinkDeleted{Action: action, CreateLinkAction: *created, LinkType: created.LinkType}, true

	default:
		return nil, false
	}
}
