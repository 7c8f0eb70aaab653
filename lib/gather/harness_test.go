// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package gather

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/bureau-foundation/gather/lib/address"
	"github.com/bureau-foundation/gather/lib/modcall"
	"github.com/bureau-foundation/gather/lib/recordstore"
	schema "github.com/bureau-foundation/gather/lib/schema/gather"
	"github.com/bureau-foundation/gather/lib/testutil"
)

// assembleStub answers get_assemblies_for_call_to_action with a fixed
// number of opaque assembly records per call to action.
type assembleStub struct {
	mu     sync.Mutex
	counts map[address.Hash]int
	fail   error
	calls  int
}

func (a *assembleStub) assemblies(_ context.Context, callToAction address.Hash) ([]string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls++
	if a.fail != nil {
		return nil, a.fail
	}
	assemblies := make([]string, a.counts[callToAction])
	for i := range assemblies {
		assemblies[i] = "assembly"
	}
	return assemblies, nil
}

// alertRecorder stands in for the alerts module.
type alertRecorder struct {
	mu     sync.Mutex
	alerts []NotifyAlertInput
}

func (r *alertRecorder) notify(_ context.Context, input NotifyAlertInput) (*none, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, input)
	return nil, nil
}

func (r *alertRecorder) received() []schema.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var notifications []schema.Notification
	for _, input := range r.alerts {
		notification, err := schema.DecodeNotification(input.Alert)
		if err == nil {
			notifications = append(notifications, notification)
		}
	}
	return notifications
}

type harness struct {
	backend  *recordstore.MemoryBackend
	router   *modcall.Router
	assemble *assembleStub
	alerts   *alertRecorder
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		backend:  recordstore.NewMemoryBackend(),
		router:   modcall.NewRouter(nil),
		assemble: &assembleStub{counts: make(map[address.Hash]int)},
		alerts:   &alertRecorder{},
	}
	h.router.Handle(AssembleModule, assembliesFunction, modcall.Typed(h.assemble.assemblies))
	h.router.Handle(AlertsModule, notifyAlertFunction, modcall.Typed(h.alerts.notify))
	return h
}

// participant is one agent's gather service over the shared backend.
type participant struct {
	testutil.Participant
	service *Service
}

func (h *harness) join(t *testing.T, seed string, config Config) participant {
	t.Helper()
	cell := testutil.NewParticipant(t, h.backend, seed, func(cfg *recordstore.CellConfig) {
		cfg.Validator = Validator
	})
	return participant{Participant: cell, service: NewService(cell, h.router, config)}
}

func meetup() schema.Event {
	return schema.Event{
		Title:            "Meetup",
		StartTime:        100,
		EndTime:          200,
		CallToActionHash: address.Anchor("cta/meetup"),
	}
}

func requireEvent(t *testing.T, record *recordstore.Record) schema.Event {
	t.Helper()
	if record == nil {
		t.Fatal("record is nil")
	}
	var event schema.Event
	if err := record.Decode(&event); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	return event
}

func contains(ids []address.Hash, id address.Hash) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

func isRemote(err error) bool {
	var remote *modcall.RemoteError
	return errors.As(err, &remote)
}
