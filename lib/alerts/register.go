// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package alerts

import (
	"context"

	"github.com/bureau-foundation/gather/lib/address"
	"github.com/bureau-foundation/gather/lib/capability"
	"github.com/bureau-foundation/gather/lib/modcall"
	"github.com/bureau-foundation/gather/lib/notification"
)

type none struct{}

// Register exposes the alert functions and the pending-notification
// capability on router under module, and makes the module's contracts
// discoverable.
func (s *Service) Register(router *modcall.Router, module string) *capability.Registry {
	router.Handle(module, "notify_alert", modcall.Typed(func(ctx context.Context, input NotifyInput) (*none, error) {
		return nil, s.NotifyAlert(ctx, input)
	}))
	router.Handle(module, "get_unread_alerts", modcall.Typed(func(ctx context.Context, _ none) ([]Alert, error) {
		return s.UnreadAlerts(ctx)
	}))
	router.Handle(module, "get_read_alerts", modcall.Typed(func(ctx context.Context, _ none) ([]Alert, error) {
		return s.ReadAlerts(ctx)
	}))
	router.Handle(module, "mark_alerts_as_read", modcall.Typed(func(ctx context.Context, ids []address.Hash) (*none, error) {
		return nil, s.MarkAlertsAsRead(ctx, ids)
	}))

	registry := capability.NewRegistry()
	notification.Expose(router, module, s, registry)
	registry.Expose(router, module)
	return registry
}
