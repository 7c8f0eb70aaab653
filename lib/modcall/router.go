// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package modcall

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/bureau-foundation/gather/lib/codec"
)

// Router dispatches calls to modules registered in the same process.
// It is safe for concurrent use; registration normally happens before
// the first call.
type Router struct {
	logger *slog.Logger

	mu      sync.RWMutex
	modules map[string]map[string]Handler
	remotes map[string]Caller
}

var _ Caller = (*Router)(nil)

// NewRouter returns an empty router. A nil logger discards output.
func NewRouter(logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Router{
		logger:  logger,
		modules: make(map[string]map[string]Handler),
		remotes: make(map[string]Caller),
	}
}

// Forward sends calls to module that no local handler serves through
// remote, typically a SocketClient for a module running in another
// process. Payloads and results pass through still encoded.
func (r *Router) Forward(module string, remote Caller) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.remotes[module] = remote
}

// Handle registers function on module. Registering the same pair
// twice panics.
func (r *Router) Handle(module, function string, handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	functions, ok := r.modules[module]
	if !ok {
		functions = make(map[string]Handler)
		r.modules[module] = functions
	}
	if _, exists := functions[function]; exists {
		panic(fmt.Sprintf("modcall: duplicate handler for %s.%s", module, function))
	}
	functions[function] = handler
}

// HasModule reports whether any function is registered under module.
func (r *Router) HasModule(module string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, local := r.modules[module]
	_, remote := r.remotes[module]
	return local || remote
}

// Modules returns the registered module names, sorted.
func (r *Router) Modules() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.modules)+len(r.remotes))
	for name := range r.modules {
		names = append(names, name)
	}
	for name := range r.remotes {
		if _, local := r.modules[name]; !local {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Functions returns the functions registered on module, sorted.
func (r *Router) Functions(module string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.modules[module]))
	for name := range r.modules[module] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Call implements Caller.
func (r *Router) Call(ctx context.Context, module, function string, payload, result any) error {
	encoded, err := encodePayload(payload)
	if err != nil {
		return fmt.Errorf("encoding payload for %s.%s: %w", module, function, err)
	}
	data, err := r.Dispatch(ctx, module, function, encoded)
	if err != nil {
		return err
	}
	if result != nil && len(data) > 0 {
		if err := codec.Unmarshal(data, result); err != nil {
			return fmt.Errorf("decoding result of %s.%s: %w", module, function, err)
		}
	}
	return nil
}

// Dispatch runs the handler on an already encoded payload and returns
// the encoded result. The socket server uses it directly.
func (r *Router) Dispatch(ctx context.Context, module, function string, payload []byte) ([]byte, error) {
	r.mu.RLock()
	handler, ok := r.modules[module][function]
	_, moduleExists := r.modules[module]
	remote := r.remotes[module]
	r.mu.RUnlock()

	if !ok && remote != nil {
		return r.forward(ctx, remote, module, function, payload)
	}
	if !ok {
		message := fmt.Sprintf("unknown function %q", function)
		if !moduleExists {
			message = fmt.Sprintf("unknown module %q", module)
		}
		return nil, &RemoteError{Module: module, Function: function, Message: message}
	}

	value, err := handler(ctx, payload)
	if err != nil {
		r.logger.Debug("module call failed",
			"module", module,
			"function", function,
			"error", err,
		)
		return nil, &RemoteError{Module: module, Function: function, Message: err.Error()}
	}
	if value == nil {
		return nil, nil
	}
	data, err := codec.Marshal(value)
	if err != nil {
		return nil, &RemoteError{Module: module, Function: function, Message: fmt.Sprintf("encoding result: %v", err)}
	}
	return data, nil
}

// forward relays an encoded call. Transport failures are reported as
// remote failures so callers see one error type.
func (r *Router) forward(ctx context.Context, remote Caller, module, function string, payload []byte) ([]byte, error) {
	var result codec.RawMessage
	err := remote.Call(ctx, module, function, codec.RawMessage(payload), &result)
	if err == nil {
		return result, nil
	}
	var remoteErr *RemoteError
	if errors.As(err, &remoteErr) {
		return nil, remoteErr
	}
	r.logger.Warn("forwarding module call failed",
		"module", module,
		"function", function,
		"error", err,
	)
	return nil, &RemoteError{Module: module, Function: function, Message: err.Error()}
}
