// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package modcall carries synchronous calls between independently
// deployed modules, addressed by module and function name.
//
// Modules share no Go types across the boundary: payloads and results
// are CBOR, encoded by the caller and decoded by the callee, exactly as
// they would be on the wire. The in-process [Router] and the Unix
// socket transport ([SocketServer], [SocketClient]) therefore behave
// the same, and a module can move out of process without its callers
// changing. Any failure on the far side reaches the caller as a
// [*RemoteError].
package modcall

import (
	"context"
	"errors"
	"fmt"

	"github.com/bureau-foundation/gather/lib/codec"
)

// Caller invokes a function on another module. payload is encoded as
// CBOR; when result is non-nil the response is decoded into it.
type Caller interface {
	Call(ctx context.Context, module, function string, payload, result any) error
}

// Handler implements one module function. The payload is the caller's
// CBOR encoding; the returned value is encoded back.
type Handler func(ctx context.Context, payload []byte) (any, error)

// RemoteError reports that the callee failed, or that the module or
// function does not exist. The callee's error crosses the boundary
// only as its message.
type RemoteError struct {
	Module   string
	Function string
	Message  string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote call %s.%s failed: %s", e.Module, e.Function, e.Message)
}

// IsRemoteError reports whether err is or wraps a *RemoteError.
func IsRemoteError(err error) bool {
	var remote *RemoteError
	return errors.As(err, &remote)
}

// Typed adapts a function over concrete request and response types to
// a Handler. A payload that does not decode into Req is reported to
// the caller as a remote failure.
func Typed[Req, Resp any](fn func(ctx context.Context, request Req) (Resp, error)) Handler {
	return func(ctx context.Context, payload []byte) (any, error) {
		var request Req
		if len(payload) > 0 {
			if err := codec.Unmarshal(payload, &request); err != nil {
				return nil, fmt.Errorf("decoding request: %w", err)
			}
		}
		return fn(ctx, request)
	}
}

func encodePayload(payload any) ([]byte, error) {
	if raw, ok := payload.(codec.RawMessage); ok {
		return raw, nil
	}
	return codec.Marshal(payload)
}
