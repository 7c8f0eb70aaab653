// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package alerts stores per-agent alerts about events and proposals
// and surfaces them through the pending-notification capability.
//
// An alert is a MyAlerts edge from the recipient's agent key to the
// agent that raised it, tagged with the encoded notification. An alert
// is unread while the edge is live and read once it has been deleted,
// so the read state is replicated like everything else.
package alerts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/bureau-foundation/gather/lib/address"
	"github.com/bureau-foundation/gather/lib/modcall"
	"github.com/bureau-foundation/gather/lib/notification"
	"github.com/bureau-foundation/gather/lib/recordstore"
	schema "github.com/bureau-foundation/gather/lib/schema/gather"
)

// Module names.
const (
	ModuleName          = "alerts"
	GatherModule        = "gather"
	NotificationsModule = "notifications"
)

const requestNotifyFunction = "request_notify_agent"

// ErrNotAlert is returned when an id does not name an alert of the
// calling agent.
var ErrNotAlert = errors.New("not an alert of this agent")

// Config tunes a Service.
type Config struct {
	// GatherModule is where subjects are looked up. Defaults to
	// GatherModule.
	GatherModule string

	// Catalog localizes alert bodies. Defaults to the builtin catalog.
	Catalog *notification.Catalog

	// DefaultLocale is used for requests that name no locale. Empty
	// means the catalog's fallback.
	DefaultLocale string

	// Logger defaults to a no-op logger.
	Logger *slog.Logger
}

// Service is one participant's alert inbox.
type Service struct {
	store         recordstore.Store
	caller        modcall.Caller
	gather        string
	catalog       atomic.Pointer[notification.Catalog]
	defaultLocale string
	logger        *slog.Logger
}

var _ notification.Provider = (*Service)(nil)

// NewService returns a Service over store. caller reaches the gather
// module and, when present, the notifications module.
func NewService(store recordstore.Store, caller modcall.Caller, config Config) *Service {
	if config.GatherModule == "" {
		config.GatherModule = GatherModule
	}
	if config.Catalog == nil {
		config.Catalog = notification.Builtin()
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	service := &Service{
		store:         store,
		caller:        caller,
		gather:        config.GatherModule,
		defaultLocale: config.DefaultLocale,
		logger:        config.Logger,
	}
	service.catalog.Store(config.Catalog)
	return service
}

// SetCatalog replaces the catalog used for requests that start after
// it returns.
func (s *Service) SetCatalog(catalog *notification.Catalog) {
	s.catalog.Store(catalog)
}

// NotifyInput is the payload of notify_alert.
type NotifyInput struct {
	Alert  []byte         `cbor:"alert"`
	Agents []address.Hash `cbor:"agents"`
}

// pushRequest is the payload of notifications.request_notify_agent.
type pushRequest struct {
	Agents []address.Hash `cbor:"agents"`
	Alert  []byte         `cbor:"alert"`
}

// Alert is one stored alert.
type Alert struct {
	// ID is the id of the MyAlerts edge; it is what MarkAlertsAsRead
	// and the notification capability take.
	ID           address.Hash        `cbor:"id"`
	From         address.Hash        `cbor:"from"`
	Timestamp    int64               `cbor:"timestamp"`
	Notification schema.Notification `cbor:"notification"`
	Read         bool                `cbor:"read"`
}

// NotifyAlert stores the alert for every agent in input and asks the
// notifications module, if one answers, to push it. The alert must
// decode; the push is best effort.
func (s *Service) NotifyAlert(ctx context.Context, input NotifyInput) error {
	if _, err := schema.DecodeNotification(input.Alert); err != nil {
		return fmt.Errorf("notify_alert: %w", err)
	}
	sender := s.store.Agent()
	for _, agent := range input.Agents {
		if _, err := s.store.CreateEdge(ctx, agent, sender, schema.LinkMyAlerts, input.Alert); err != nil {
			return fmt.Errorf("storing alert for %s: %w", agent.Short(), err)
		}
	}
	s.logger.Debug("alert stored", "recipients", len(input.Agents))

	if s.caller == nil || len(input.Agents) == 0 {
		return nil
	}
	err := s.caller.Call(ctx, NotificationsModule, requestNotifyFunction, pushRequest{
		Agents: input.Agents,
		Alert:  input.Alert,
	}, nil)
	if err != nil {
		s.logger.Debug("push notification skipped", "error", err)
	}
	return nil
}

// UnreadAlerts returns the caller's unread alerts, oldest first.
func (s *Service) UnreadAlerts(ctx context.Context) ([]Alert, error) {
	return s.alerts(ctx, false)
}

// ReadAlerts returns the caller's read alerts, oldest first.
func (s *Service) ReadAlerts(ctx context.Context) ([]Alert, error) {
	return s.alerts(ctx, true)
}

func (s *Service) alerts(ctx context.Context, read bool) ([]Alert, error) {
	details, err := s.store.GetEdgeDetails(ctx, s.store.Agent(), recordstore.OfType(schema.LinkMyAlerts))
	if err != nil {
		return nil, fmt.Errorf("listing alerts: %w", err)
	}
	alerts := []Alert{}
	for _, detail := range details {
		if (len(detail.Deletes) > 0) != read {
			continue
		}
		alert, err := alertOf(detail)
		if err != nil {
			s.logger.Warn("skipping undecodable alert", "alert", detail.Edge.ID.Short(), "error", err)
			continue
		}
		alerts = append(alerts, alert)
	}
	return alerts, nil
}

func alertOf(detail recordstore.EdgeDetails) (Alert, error) {
	decoded, err := schema.DecodeNotification(detail.Edge.Tag)
	if err != nil {
		return Alert{}, err
	}
	return Alert{
		ID:           detail.Edge.ID,
		From:         detail.Edge.Target,
		Timestamp:    int64(detail.Edge.Timestamp),
		Notification: decoded,
		Read:         len(detail.Deletes) > 0,
	}, nil
}

// MarkAlertsAsRead deletes the given alert edges. Every id must name a
// live or already read alert of the caller; nothing is written if one
// does not.
func (s *Service) MarkAlertsAsRead(ctx context.Context, ids []address.Hash) error {
	owned, err := s.store.GetEdgeDetails(ctx, s.store.Agent(), recordstore.OfType(schema.LinkMyAlerts))
	if err != nil {
		return err
	}
	byID := make(map[address.Hash]recordstore.EdgeDetails, len(owned))
	for _, detail := range owned {
		byID[detail.Edge.ID] = detail
	}
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			return fmt.Errorf("%w: %s", ErrNotAlert, id.Short())
		}
	}
	for _, id := range ids {
		if len(byID[id].Deletes) > 0 {
			continue
		}
		if _, err := s.store.DeleteEdge(ctx, id); err != nil {
			return fmt.Errorf("marking alert %s read: %w", id.Short(), err)
		}
	}
	return nil
}

// lookup returns the caller's alert with the given edge id, or false.
func (s *Service) lookup(ctx context.Context, id address.Hash) (Alert, bool, error) {
	action, err := s.store.GetAction(ctx, id)
	if err != nil || action == nil {
		return Alert{}, false, err
	}
	if action.Kind != recordstore.KindCreateLink || action.LinkType != schema.LinkMyAlerts || action.Base != s.store.Agent() {
		return Alert{}, false, nil
	}
	details, err := s.store.GetEdgeDetails(ctx, action.Base, recordstore.OfType(schema.LinkMyAlerts))
	if err != nil {
		return Alert{}, false, err
	}
	for _, detail := range details {
		if detail.Edge.ID != id {
			continue
		}
		alert, err := alertOf(detail)
		if err != nil {
			return Alert{}, false, err
		}
		return alert, true, nil
	}
	return Alert{}, false, nil
}
