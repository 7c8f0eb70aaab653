// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package modcall

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/bureau-foundation/gather/lib/codec"
)

// Request is the wire form of one call.
type Request struct {
	Module   string           `cbor:"module"`
	Function string           `cbor:"function"`
	Payload  codec.RawMessage `cbor:"payload,omitempty"`
}

// Response is the wire form of a call's outcome.
type Response struct {
	OK    bool             `cbor:"ok"`
	Error string           `cbor:"error,omitempty"`
	Data  codec.RawMessage `cbor:"data,omitempty"`
}

const (
	readTimeout  = 30 * time.Second
	writeTimeout = 10 * time.Second

	// maxMessageSize bounds one request or response.
	maxMessageSize = 1024 * 1024
)

// SocketServer exposes a Router on a Unix socket. Each connection
// carries exactly one request and one response.
type SocketServer struct {
	socketPath string
	router     *Router
	logger     *slog.Logger

	active sync.WaitGroup
}

// NewSocketServer returns a server for router at socketPath.
func NewSocketServer(socketPath string, router *Router, logger *slog.Logger) *SocketServer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SocketServer{socketPath: socketPath, router: router, logger: logger}
}

// Serve accepts connections until ctx is cancelled, then waits for
// in-flight calls. A stale socket file is removed first, and the
// socket file is removed on return.
func (s *SocketServer) Serve(ctx context.Context) error {
	if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing stale socket %s: %w", s.socketPath, err)
	}
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.socketPath, err)
	}
	defer func() {
		listener.Close()
		os.Remove(s.socketPath)
	}()

	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	s.logger.Info("module socket listening", "path", s.socketPath, "modules", s.router.Modules())

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}
			s.logger.Error("accept failed", "error", err)
			continue
		}
		s.active.Add(1)
		go func() {
			defer s.active.Done()
			s.handle(ctx, conn)
		}()
	}

	s.active.Wait()
	return nil
}

func (s *SocketServer) handle(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(readTimeout))

	var request Request
	if err := codec.NewDecoder(io.LimitReader(conn, maxMessageSize)).Decode(&request); err != nil {
		if errors.Is(err, io.EOF) {
			return
		}
		s.respond(conn, Response{Error: fmt.Sprintf("invalid request: %v", err)})
		return
	}
	if request.Module == "" || request.Function == "" {
		s.respond(conn, Response{Error: "request requires module and function"})
		return
	}

	data, err := s.router.Dispatch(ctx, request.Module, request.Function, request.Payload)
	if err != nil {
		var remote *RemoteError
		if errors.As(err, &remote) {
			s.respond(conn, Response{Error: remote.Message})
			return
		}
		s.respond(conn, Response{Error: err.Error()})
		return
	}
	s.respond(conn, Response{OK: true, Data: data})
}

func (s *SocketServer) respond(conn net.Conn, response Response) {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := codec.NewEncoder(conn).Encode(response); err != nil {
		s.logger.Debug("failed to write response", "error", err)
	}
}

const (
	dialTimeout         = 5 * time.Second
	responseReadTimeout = readTimeout + writeTimeout
)

// SocketClient is a Caller that sends each call over a new connection
// to a SocketServer.
type SocketClient struct {
	socketPath string
}

var _ Caller = (*SocketClient)(nil)

// NewSocketClient returns a client for the server at socketPath.
func NewSocketClient(socketPath string) *SocketClient {
	return &SocketClient{socketPath: socketPath}
}

// Call implements Caller. Transport failures are plain errors; a
// failure reported by the server is a *RemoteError.
func (c *SocketClient) Call(ctx context.Context, module, function string, payload, result any) error {
	encoded, err := encodePayload(payload)
	if err != nil {
		return fmt.Errorf("encoding payload for %s.%s: %w", module, function, err)
	}

	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "unix", c.socketPath)
	if err != nil {
		return fmt.Errorf("calling %s.%s on %s: %w", module, function, c.socketPath, err)
	}
	defer conn.Close()

	request := Request{Module: module, Function: function, Payload: encoded}
	if err := codec.NewEncoder(conn).Encode(request); err != nil {
		return fmt.Errorf("writing request for %s.%s: %w", module, function, err)
	}
	if unixConn, ok := conn.(*net.UnixConn); ok {
		unixConn.CloseWrite()
	}

	conn.SetReadDeadline(time.Now().Add(responseReadTimeout))
	var response Response
	if err := codec.NewDecoder(io.LimitReader(conn, maxMessageSize)).Decode(&response); err != nil {
		return fmt.Errorf("reading response for %s.%s: %w", module, function, err)
	}
	if !response.OK {
		return &RemoteError{Module: module, Function: function, Message: response.Error}
	}
	if result != nil && len(response.Data) > 0 {
		if err := codec.Unmarshal(response.Data, result); err != nil {
			return fmt.Errorf("decoding result of %s.%s: %w", module, function, err)
		}
	}
	return nil
}
