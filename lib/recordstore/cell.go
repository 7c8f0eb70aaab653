// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package recordstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bureau-foundation/gather/lib/address"
	"github.com/bureau-foundation/gather/lib/clock"
	"github.com/bureau-foundation/gather/lib/codec"
)

// Validator inspects a commit before it is appended. Any error rejects
// the commit and is reported wrapped in ErrPolicyViolation. The
// validator may read from the store; the action it receives already
// carries its id.
type Validator func(ctx context.Context, store Reader, action Action, entry *Entry) error

// PostCommitHook runs after an action has been appended. Hooks cannot
// fail the commit; anything they need to report they log.
type PostCommitHook func(ctx context.Context, committed []Action)

// CellConfig holds the identity and collaborators of a Cell.
type CellConfig struct {
	// Agent is the participant key commits are attributed to.
	// Required.
	Agent address.Hash

	// StoreID identifies the shared store. Required.
	StoreID address.Hash

	// Clock stamps commit timestamps. Required.
	Clock clock.Clock

	// Logger receives commit-level debug messages. If nil, a no-op
	// logger is used.
	Logger *slog.Logger

	// Validator, if set, is consulted before every append.
	Validator Validator
}

// Cell is one participant's Store over a shared Backend.
type Cell struct {
	backend   Backend
	agent     address.Hash
	storeID   address.Hash
	clock     clock.Clock
	logger    *slog.Logger
	validator Validator

	// chainMu keeps this participant's commits totally ordered: the
	// head read, hashing, and append happen as one step.
	chainMu sync.Mutex

	hooksMu sync.RWMutex
	hooks   []PostCommitHook
}

var _ Store = (*Cell)(nil)

// NewCell returns a Cell committing to backend as cfg.Agent.
func NewCell(backend Backend, cfg CellConfig) (*Cell, error) {
	if backend == nil {
		return nil, errors.New("recordstore: backend is required")
	}
	if cfg.Agent.IsZero() {
		return nil, errors.New("recordstore: Agent is required")
	}
	if cfg.StoreID.IsZero() {
		return nil, errors.New("recordstore: StoreID is required")
	}
	if cfg.Clock == nil {
		return nil, errors.New("recordstore: Clock is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Cell{
		backend:   backend,
		agent:     cfg.Agent,
		storeID:   cfg.StoreID,
		clock:     cfg.Clock,
		logger:    logger,
		validator: cfg.Validator,
	}, nil
}

// Agent implements Store.
func (c *Cell) Agent() address.Hash { return c.agent }

// StoreID implements Store.
func (c *Cell) StoreID() address.Hash { return c.storeID }

// OnPostCommit registers a hook that runs after every successful
// commit by this cell, in registration order.
func (c *Cell) OnPostCommit(hook PostCommitHook) {
	c.hooksMu.Lock()
	defer c.hooksMu.Unlock()
	c.hooks = append(c.hooks, hook)
}

// Create implements Writer.
func (c *Cell) Create(ctx context.Context, entry Entry) (address.Hash, error) {
	if err := checkEntry(entry); err != nil {
		return address.Zero, err
	}
	return c.commit(ctx, Action{
		Kind:      KindCreate,
		EntryType: entry.Type,
		EntryHash: entry.Hash(),
	}, &entry)
}

// Update implements Writer. The previous action must be a create or
// update; revising a tombstone or an edge is ErrMalformed.
func (c *Cell) Update(ctx context.Context, previous address.Hash, entry Entry) (address.Hash, error) {
	if err := checkEntry(entry); err != nil {
		return address.Zero, err
	}
	original, err := c.requireAction(ctx, previous)
	if err != nil {
		return address.Zero, fmt.Errorf("updating: %w", err)
	}
	if !original.Kind.CarriesEntry() {
		return address.Zero, fmt.Errorf("%w: cannot update a %s action", ErrMalformed, original.Kind)
	}
	return c.commit(ctx, Action{
		Kind:      KindUpdate,
		EntryType: entry.Type,
		EntryHash: entry.Hash(),
		Original:  previous,
	}, &entry)
}

// Delete implements Writer. Deleting a record twice appends a second
// tombstone; readers only care whether one exists.
func (c *Cell) Delete(ctx context.Context, id address.Hash) (address.Hash, error) {
	original, err := c.requireAction(ctx, id)
	if err != nil {
		return address.Zero, fmt.Errorf("deleting: %w", err)
	}
	if !original.Kind.CarriesEntry() {
		return address.Zero, fmt.Errorf("%w: cannot delete a %s action as a record", ErrMalformed, original.Kind)
	}
	return c.commit(ctx, Action{Kind: KindDelete, Original: id}, nil)
}

// CreateEdge implements Writer.
func (c *Cell) CreateEdge(ctx context.Context, base, target address.Hash, linkType LinkType, tag []byte) (address.Hash, error) {
	if linkType == "" {
		return address.Zero, fmt.Errorf("%w: edge without a link type", ErrMalformed)
	}
	return c.commit(ctx, Action{
		Kind:     KindCreateLink,
		Base:     base,
		Target:   target,
		LinkType: linkType,
		Tag:      tag,
	}, nil)
}

// DeleteEdge implements Writer. The id must name a create_link action.
func (c *Cell) DeleteEdge(ctx context.Context, edgeID address.Hash) (address.Hash, error) {
	original, err := c.requireAction(ctx, edgeID)
	if err != nil {
		return address.Zero, fmt.Errorf("deleting edge: %w", err)
	}
	if original.Kind != KindCreateLink {
		return address.Zero, fmt.Errorf("deleting edge %s: %w: action is %s", edgeID.Short(), ErrNotFound, original.Kind)
	}
	return c.commit(ctx, Action{
		Kind:     KindDeleteLink,
		Original: edgeID,
		// Carried so validators and signal consumers can classify
		// the deletion without another read.
		Base:     original.Base,
		LinkType: original.LinkType,
	}, nil)
}

// Get implements Reader.
func (c *Cell) Get(ctx context.Context, id address.Hash) (*Record, error) {
	action, found, err := c.backend.Action(ctx, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	record := &Record{Action: action}
	if action.Kind.CarriesEntry() {
		entry, found, err := c.backend.Entry(ctx, action.EntryHash)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, fmt.Errorf("%w: entry %s of action %s", ErrNotFound, action.EntryHash.Short(), id.Short())
		}
		record.Entry = &entry
	}
	return record, nil
}

// GetAction implements Reader.
func (c *Cell) GetAction(ctx context.Context, id address.Hash) (*Action, error) {
	action, found, err := c.backend.Action(ctx, id)
	if err != nil || !found {
		return nil, err
	}
	return &action, nil
}

// GetDetails implements Reader.
func (c *Cell) GetDetails(ctx context.Context, id address.Hash) (*Details, error) {
	record, err := c.Get(ctx, id)
	if err != nil || record == nil {
		return nil, err
	}
	updates, err := c.backend.Referencing(ctx, id, KindUpdate)
	if err != nil {
		return nil, err
	}
	deletes, err := c.backend.Referencing(ctx, id, KindDelete)
	if err != nil {
		return nil, err
	}
	return &Details{Record: *record, Updates: updates, Deletes: deletes}, nil
}

// GetEdges implements Reader.
func (c *Cell) GetEdges(ctx context.Context, base address.Hash, query EdgeQuery) ([]Edge, error) {
	histories, err := c.backend.LinksFrom(ctx, base, query.Types)
	if err != nil {
		return nil, err
	}
	var edges []Edge
	for _, history := range histories {
		if len(history.Deletes) > 0 || !query.matches(history.Create) {
			continue
		}
		edges = append(edges, edgeOf(history.Create))
	}
	return edges, nil
}

// GetEdgeDetails implements Reader.
func (c *Cell) GetEdgeDetails(ctx context.Context, base address.Hash, query EdgeQuery) ([]EdgeDetails, error) {
	histories, err := c.backend.LinksFrom(ctx, base, query.Types)
	if err != nil {
		return nil, err
	}
	var details []EdgeDetails
	for _, history := range histories {
		if !query.matches(history.Create) {
			continue
		}
		details = append(details, EdgeDetails{Edge: edgeOf(history.Create), Deletes: history.Deletes})
	}
	return details, nil
}

func (c *Cell) requireAction(ctx context.Context, id address.Hash) (Action, error) {
	action, found, err := c.backend.Action(ctx, id)
	if err != nil {
		return Action{}, err
	}
	if !found {
		return Action{}, fmt.Errorf("%w: action %s", ErrNotFound, id.Short())
	}
	return action, nil
}

// commit stamps, hashes, validates, and appends one action, then runs
// the post-commit hooks outside the chain lock.
func (c *Cell) commit(ctx context.Context, action Action, entry *Entry) (address.Hash, error) {
	c.chainMu.Lock()

	head, hasHead, err := c.backend.ChainHead(ctx, c.agent)
	if err != nil {
		c.chainMu.Unlock()
		return address.Zero, fmt.Errorf("reading chain head: %w", err)
	}

	action.Author = c.agent
	action.Timestamp = TimestampOf(c.clock.Now())
	if hasHead {
		action.Seq = head.Seq + 1
		action.Prev = head.Hash
		// A participant's chain never goes back in time.
		if action.Timestamp < head.Timestamp {
			action.Timestamp = head.Timestamp
		}
	}

	header, err := action.header()
	if err != nil {
		c.chainMu.Unlock()
		return address.Zero, fmt.Errorf("encoding %s header: %w", action.Kind, err)
	}
	action.Hash = address.HashAction(header)

	if c.validator != nil {
		if err := c.validator(ctx, c, action, entry); err != nil {
			c.chainMu.Unlock()
			c.logger.Debug("commit rejected",
				"kind", action.Kind,
				"link_type", action.LinkType,
				"error", err,
			)
			return address.Zero, fmt.Errorf("%w: %v", ErrPolicyViolation, err)
		}
	}

	if err := c.backend.Put(ctx, action, entry); err != nil {
		c.chainMu.Unlock()
		return address.Zero, fmt.Errorf("appending %s: %w", action.Kind, err)
	}
	c.chainMu.Unlock()

	c.logger.Debug("committed",
		"action", action.Hash.Short(),
		"kind", action.Kind,
		"seq", action.Seq,
	)

	c.hooksMu.RLock()
	hooks := c.hooks
	c.hooksMu.RUnlock()
	committed := []Action{action}
	for _, hook := range hooks {
		hook(ctx, committed)
	}

	return action.Hash, nil
}

func checkEntry(entry Entry) error {
	if entry.Type == "" {
		return fmt.Errorf("%w: entry without a type", ErrMalformed)
	}
	if err := codec.Valid(entry.Content); err != nil {
		return fmt.Errorf("%w: %s entry content: %v", ErrMalformed, entry.Type, err)
	}
	return nil
}
