// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package gather

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bureau-foundation/gather/lib/address"
	"github.com/bureau-foundation/gather/lib/collection"
	"github.com/bureau-foundation/gather/lib/modcall"
	"github.com/bureau-foundation/gather/lib/recordstore"
	"github.com/bureau-foundation/gather/lib/relation"
	"github.com/bureau-foundation/gather/lib/revision"
	schema "github.com/bureau-foundation/gather/lib/schema/gather"
)

// Module names this package calls or registers under.
const (
	ModuleName     = "gather"
	AssembleModule = "assemble"
	AlertsModule   = "alerts"
)

// Functions of other modules.
const (
	assembliesFunction  = "get_assemblies_for_call_to_action"
	notifyAlertFunction = "notify_alert"
)

// Config tunes a Service.
type Config struct {
	// Collections configures the lifecycle manager: strictness and
	// member ordering.
	Collections collection.Config

	// Logger receives operation and best-effort failure messages. If
	// nil, a no-op logger is used.
	Logger *slog.Logger
}

// Service implements the gather operations for one participant.
type Service struct {
	store     recordstore.Store
	caller    modcall.Caller
	events    *revision.Resolver
	proposals *revision.Resolver
	chains    *revision.Resolver
	lifecycle *collection.Manager
	relations *relation.Index
	logger    *slog.Logger
}

// NewService returns a Service over store. caller reaches the assemble
// and alerts modules; it may be nil only if Cancel is never used.
func NewService(store recordstore.Store, caller modcall.Caller, config Config) *Service {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	collections := config.Collections
	if collections.Logger == nil {
		collections.Logger = logger
	}
	return &Service{
		store:     store,
		caller:    caller,
		events:    revision.NewResolver(store, schema.LinkEventUpdates),
		proposals: revision.NewResolver(store, schema.LinkProposalUpdates),
		chains:    revision.NewResolver(store, ""),
		lifecycle: collection.NewManager(store, Lifecycle(), collections),
		relations: relation.New(store),
		logger:    logger,
	}
}

// Lifecycle returns the category manager.
func (s *Service) Lifecycle() *collection.Manager { return s.lifecycle }

// create commits entry and reads it back.
func (s *Service) create(ctx context.Context, entryType string, payload any) (*recordstore.Record, error) {
	entry, err := recordstore.NewEntry(entryType, payload)
	if err != nil {
		return nil, err
	}
	id, err := s.store.Create(ctx, entry)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", entryType, err)
	}
	return s.readBack(ctx, entryType, id)
}

// update commits entry as a revision of previous and reads it back.
func (s *Service) update(ctx context.Context, previous address.Hash, entryType string, payload any) (*recordstore.Record, error) {
	entry, err := recordstore.NewEntry(entryType, payload)
	if err != nil {
		return nil, err
	}
	id, err := s.store.Update(ctx, previous, entry)
	if err != nil {
		return nil, fmt.Errorf("updating %s %s: %w", entryType, previous.Short(), err)
	}
	return s.readBack(ctx, entryType, id)
}

// requireRevision fails unless previous is original or one of its
// revisions, before anything is committed.
func (s *Service) requireRevision(ctx context.Context, previous, original address.Hash) error {
	ok, err := revisionOf(ctx, s.store, previous, original)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s is not a revision of %s", recordstore.ErrPolicyViolation, previous.Short(), original.Short())
	}
	return nil
}

func (s *Service) readBack(ctx context.Context, entryType string, id address.Hash) (*recordstore.Record, error) {
	record, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, fmt.Errorf("%w: newly written %s %s", recordstore.ErrNotFound, entryType, id.Short())
	}
	return record, nil
}

// claim links a newly created record to its author.
func (s *Service) claim(ctx context.Context, record address.Hash) error {
	agent := s.store.Agent()
	if _, err := s.relations.Link(ctx, agent, record, schema.LinkEventsByAuthor, nil); err != nil {
		return err
	}
	_, err := s.relations.Link(ctx, agent, record, schema.LinkMyEvents, nil)
	return err
}

// ensureLink links a to b unless a live edge already does.
func (s *Service) ensureLink(ctx context.Context, a, b address.Hash, linkType recordstore.LinkType) error {
	linked, err := s.relations.Linked(ctx, a, b, linkType)
	if err != nil || linked {
		return err
	}
	_, err = s.relations.Link(ctx, a, b, linkType, nil)
	return err
}

// subject decodes the current revision of an event or proposal.
type subject struct {
	record           *recordstore.Record
	isProposal       bool
	event            schema.Event
	proposal         schema.Proposal
	callToActionHash address.Hash
}

// currentSubject resolves original and decodes it. A missing or
// tombstoned record is ErrNotFound.
func (s *Service) currentSubject(ctx context.Context, original address.Hash) (*subject, error) {
	head, err := s.store.Get(ctx, original)
	if err != nil {
		return nil, err
	}
	if head == nil || head.Entry == nil {
		return nil, fmt.Errorf("%w: event or proposal %s", recordstore.ErrNotFound, original.Short())
	}

	resolver := s.events
	if head.Entry.Type == schema.EntryProposal {
		resolver = s.proposals
	}
	current, err := resolver.Resolve(ctx, original)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, fmt.Errorf("%w: event or proposal %s", recordstore.ErrNotFound, original.Short())
	}

	decoded := &subject{record: current}
	switch current.Entry.Type {
	case schema.EntryEvent:
		if err := current.Decode(&decoded.event); err != nil {
			return nil, err
		}
		decoded.callToActionHash = decoded.event.CallToActionHash
	case schema.EntryProposal:
		if err := current.Decode(&decoded.proposal); err != nil {
			return nil, err
		}
		decoded.isProposal = true
		decoded.callToActionHash = decoded.proposal.CallToActionHash
	default:
		return nil, fmt.Errorf("%w: %s is a %s, not an event or proposal",
			recordstore.ErrMalformed, original.Short(), current.Entry.Type)
	}
	return decoded, nil
}

// NotifyAlertInput is the payload of alerts.notify_alert.
type NotifyAlertInput struct {
	Alert  []byte         `cbor:"alert"`
	Agents []address.Hash `cbor:"agents"`
}

// alert tells everyone following record about a change, except the
// caller. Failures are logged and swallowed.
func (s *Service) alert(ctx context.Context, record address.Hash, notification schema.Notification) {
	if s.caller == nil {
		return
	}
	recipients, err := s.followers(ctx, record)
	if err != nil {
		s.logger.Warn("collecting alert recipients failed", "record", record.Short(), "error", err)
		return
	}
	if len(recipients) == 0 {
		return
	}
	encoded, err := notification.Encode()
	if err != nil {
		s.logger.Error("encoding alert failed", "record", record.Short(), "error", err)
		return
	}
	input := NotifyAlertInput{Alert: encoded, Agents: recipients}
	if err := s.caller.Call(ctx, AlertsModule, notifyAlertFunction, input, nil); err != nil {
		s.logger.Warn("sending alert failed",
			"record", record.Short(),
			"action", notification.Action.Type,
			"recipients", len(recipients),
			"error", err,
		)
	}
}

// followers are the interested agents and possible participants of
// record, each once, without the caller.
func (s *Service) followers(ctx context.Context, record address.Hash) ([]address.Hash, error) {
	self := s.store.Agent()
	seen := map[address.Hash]bool{self: true}
	var agents []address.Hash
	for _, linkType := range []recordstore.LinkType{schema.LinkInterested, schema.LinkPossibleParticipants} {
		targets, err := s.relations.Query(ctx, record, linkType)
		if err != nil {
			return nil, err
		}
		for _, agent := range targets {
			if !seen[agent] {
				seen[agent] = true
				agents = append(agents, agent)
			}
		}
	}
	return agents, nil
}
