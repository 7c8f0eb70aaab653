// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package gather

import (
	"context"
	"errors"
	"fmt"

	"github.com/bureau-foundation/gather/lib/address"
	"github.com/bureau-foundation/gather/lib/codec"
	"github.com/bureau-foundation/gather/lib/recordstore"
	schema "github.com/bureau-foundation/gather/lib/schema/gather"
)

// Validator is the gather integrity policy. It checks entry payloads,
// keeps the author and cancellation indices append-only, requires
// authored records and cancellations to point at real events or
// proposals, and only lets a record's update links reach its own
// revisions. Actions of other modules pass through.
func Validator(ctx context.Context, store recordstore.Reader, action recordstore.Action, entry *recordstore.Entry) error {
	switch action.Kind {
	case recordstore.KindCreate, recordstore.KindUpdate:
		return validateEntry(ctx, store, entry)

	case recordstore.KindCreateLink:
		switch action.LinkType {
		case schema.LinkEventsByAuthor:
			return requireEventOrProposal(ctx, store, action.Target)
		case schema.LinkEventUpdates, schema.LinkProposalUpdates:
			return requireUpdateOf(ctx, store, action.Target, action.Base)
		}
		return nil

	case recordstore.KindDeleteLink:
		switch action.LinkType {
		case schema.LinkEventsByAuthor, schema.LinkEventToCancellations:
			return fmt.Errorf("%s links cannot be deleted", action.LinkType)
		}
		return nil

	default:
		return nil
	}
}

func validateEntry(ctx context.Context, store recordstore.Reader, entry *recordstore.Entry) error {
	if entry == nil {
		return errors.New("entry action without an entry")
	}
	switch entry.Type {
	case schema.EntryEvent:
		var event schema.Event
		if err := codec.UnmarshalStrict(entry.Content, &event); err != nil {
			return fmt.Errorf("event: %w", err)
		}
		return event.Validate()

	case schema.EntryProposal:
		var proposal schema.Proposal
		if err := codec.UnmarshalStrict(entry.Content, &proposal); err != nil {
			return fmt.Errorf("proposal: %w", err)
		}
		return proposal.Validate()

	case schema.EntryCancellation:
		var cancellation schema.Cancellation
		if err := codec.UnmarshalStrict(entry.Content, &cancellation); err != nil {
			return fmt.Errorf("cancellation: %w", err)
		}
		if err := cancellation.Validate(); err != nil {
			return err
		}
		return requireEventOrProposal(ctx, store, cancellation.EventHash)

	case schema.EntryAttendeesAttestation:
		var attestation schema.AttendeesAttestation
		if err := codec.UnmarshalStrict(entry.Content, &attestation); err != nil {
			return fmt.Errorf("attendees attestation: %w", err)
		}
		return attestation.Validate()

	default:
		return nil
	}
}

func requireEventOrProposal(ctx context.Context, store recordstore.Reader, id address.Hash) error {
	record, err := store.Get(ctx, id)
	if err != nil {
		return err
	}
	if record == nil {
		return fmt.Errorf("referenced record %s does not exist", id.Short())
	}
	if record.Entry == nil || (record.Entry.Type != schema.EntryEvent && record.Entry.Type != schema.EntryProposal) {
		return fmt.Errorf("referenced record %s is not an event or proposal", id.Short())
	}
	return nil
}

func requireUpdateOf(ctx context.Context, store recordstore.Reader, update, original address.Hash) error {
	if update == original {
		return fmt.Errorf("record %s cannot be its own update", original.Short())
	}
	ok, err := revisionOf(ctx, store, update, original)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s is not a revision of %s", update.Short(), original.Short())
	}
	return nil
}

// revisionOf reports whether id is original or reaches it by following
// update actions back through the records they revise.
func revisionOf(ctx context.Context, store recordstore.Reader, id, original address.Hash) (bool, error) {
	visited := make(map[address.Hash]bool)
	for id != original {
		if visited[id] {
			return false, nil
		}
		visited[id] = true
		action, err := store.GetAction(ctx, id)
		if err != nil {
			return false, err
		}
		if action == nil || action.Kind != recordstore.KindUpdate {
			return false, nil
		}
		id = action.Original
	}
	return true, nil
}
