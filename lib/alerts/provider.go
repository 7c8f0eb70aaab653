// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package alerts

import (
	"context"
	"fmt"

	"github.com/bureau-foundation/gather/lib/address"
	"github.com/bureau-foundation/gather/lib/notification"
	schema "github.com/bureau-foundation/gather/lib/schema/gather"
)

// ListPending implements notification.Provider over the unread
// alerts. An alert whose subject cannot be resolved is logged and
// left out.
func (s *Service) ListPending(ctx context.Context, locale string) ([]notification.Pending, error) {
	unread, err := s.UnreadAlerts(ctx)
	if err != nil {
		return nil, err
	}
	pending := make([]notification.Pending, 0, len(unread))
	for _, alert := range unread {
		detail, err := s.describe(ctx, alert, locale)
		if err != nil {
			s.logger.Warn("resolving alert failed", "alert", alert.ID.Short(), "error", err)
			continue
		}
		pending = append(pending, notification.Pending{
			ID:         alert.ID,
			Title:      detail.Title,
			Body:       detail.Body,
			Navigation: detail.Navigation,
		})
	}
	return pending, nil
}

// Resolve implements notification.Provider. A ref that is not one of
// the caller's alerts resolves to nil.
func (s *Service) Resolve(ctx context.Context, ref notification.Ref) (*notification.Detail, error) {
	alert, ok, err := s.lookup(ctx, ref.RefID)
	if err != nil || !ok {
		return nil, err
	}
	return s.describe(ctx, alert, ref.Locale)
}

// describe builds the localized detail of an alert from the current
// state of its subject.
func (s *Service) describe(ctx context.Context, alert Alert, locale string) (*notification.Detail, error) {
	subject := alert.Notification.Subject
	title, err := s.subjectTitle(ctx, alert.Notification)
	if err != nil {
		return nil, err
	}

	action := alert.Notification.Action
	key := action.Type.MessageKey()
	if action.Type == schema.ActionEventCreated && action.FromProposal {
		key = "event_created_from_proposal"
	}
	if key == "" {
		return nil, fmt.Errorf("alert %s has unknown action %q", alert.ID.Short(), action.Type)
	}

	args := map[string]string{}
	if action.Need != "" {
		args["need"] = action.Need
	}
	switch action.Type {
	case schema.ActionEventCancelled, schema.ActionProposalCancelled:
		reason, err := s.cancellationReason(ctx, action.ActionHash)
		if err != nil {
			return nil, err
		}
		args["reason"] = reason
	}

	if locale == "" {
		locale = s.defaultLocale
	}
	rendered, err := s.catalog.Load().Render(locale, key, args)
	if err != nil {
		return nil, err
	}
	return &notification.Detail{
		Title:    title,
		Body:     rendered.Plain,
		BodyHTML: rendered.HTML,
		Locale:   rendered.Locale,
		Navigation: notification.NavigationTarget{
			StoreID:  s.store.StoreID(),
			RecordID: subject,
		},
		Pending: !alert.Read,
	}, nil
}

// subjectTitle asks gather for the subject's title. A cancelled
// subject no longer resolves, so its newest revision is used.
func (s *Service) subjectTitle(ctx context.Context, alert schema.Notification) (string, error) {
	latestFunction, revisionsFunction, entryType := "get_latest_event", "get_event_revisions", schema.EntryEvent
	if alert.Type == schema.AlertProposal {
		latestFunction, revisionsFunction, entryType = "get_latest_proposal", "get_proposal_revisions", schema.EntryProposal
	}

	var latest *schema.Record
	if err := s.caller.Call(ctx, s.gather, latestFunction, alert.Subject, &latest); err != nil {
		return "", err
	}
	if latest == nil {
		var revisions []schema.Record
		if err := s.caller.Call(ctx, s.gather, revisionsFunction, alert.Subject, &revisions); err != nil {
			return "", err
		}
		if len(revisions) == 0 {
			return "", fmt.Errorf("subject %s not found", alert.Subject.Short())
		}
		latest = newestRevision(revisions)
	}

	var titled struct {
		Title string `cbor:"title"`
	}
	if err := latest.Decode(entryType, &titled); err != nil {
		return "", err
	}
	return titled.Title, nil
}

// newestRevision picks the revision committed last, breaking timestamp
// ties by the greater id. revisions must not be empty.
func newestRevision(revisions []schema.Record) *schema.Record {
	best := &revisions[0]
	for i := range revisions[1:] {
		candidate := &revisions[i+1]
		if candidate.Action.Timestamp > best.Action.Timestamp ||
			(candidate.Action.Timestamp == best.Action.Timestamp && candidate.ID.Compare(best.ID) > 0) {
			best = candidate
		}
	}
	return best
}

func (s *Service) cancellationReason(ctx context.Context, cancellation address.Hash) (string, error) {
	var record *schema.Record
	if err := s.caller.Call(ctx, s.gather, "get_cancellation", cancellation, &record); err != nil {
		return "", err
	}
	if record == nil {
		return "", nil
	}
	var decoded schema.Cancellation
	if err := record.Decode(schema.EntryCancellation, &decoded); err != nil {
		return "", err
	}
	return decoded.Reason, nil
}
