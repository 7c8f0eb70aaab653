// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package signal

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/bureau-foundation/gather/lib/address"
	"github.com/bureau-foundation/gather/lib/codec"
	"github.com/bureau-foundation/gather/lib/recordstore"
)

// Message kinds.
const (
	KindLinkCreated = "link_created"
	KindLinkDeleted = "link_deleted"
)

// Message is the CBOR form of a signal published by a Relay. For a
// deletion, Edge is the create_link action that was removed and Base,
// Target and Tag are taken from it.
type Message struct {
	Kind      string                `cbor:"kind"`
	LinkType  recordstore.LinkType  `cbor:"link_type"`
	Action    address.Hash          `cbor:"action"`
	Author    address.Hash          `cbor:"author"`
	Timestamp recordstore.Timestamp `cbor:"timestamp"`
	Edge      address.Hash          `cbor:"edge"`
	Base      address.Hash          `cbor:"base"`
	Target    address.Hash          `cbor:"target"`
	Tag       []byte                `cbor:"tag,omitempty"`
}

// MessageOf converts a signal. Unknown signal types report false.
func MessageOf(signal Signal) (Message, bool) {
	switch s := signal.(type) {
	case LinkCreated:
		return Message{
			Kind:      KindLinkCreated,
			LinkType:  s.LinkType,
			Action:    s.Action.Hash,
			Author:    s.Action.Author,
			Timestamp: s.Action.Timestamp,
			Edge:      s.Action.Hash,
			Base:      s.Action.Base,
			Target:    s.Action.Target,
			Tag:       s.Action.Tag,
		}, true
	case LinkDeleted:
		return Message{
			Kind:      KindLinkDeleted,
			LinkType:  s.LinkType,
			Action:    s.Action.Hash,
			Author:    s.Action.Author,
			Timestamp: s.Action.Timestamp,
			Edge:      s.CreateLinkAction.Hash,
			Base:      s.CreateLinkAction.Base,
			Target:    s.CreateLinkAction.Target,
			Tag:       s.CreateLinkAction.Tag,
		}, true
	default:
		return Message{}, false
	}
}

// Relay publishes signals to a Redis pub/sub channel so processes
// outside the node can follow index changes.
type Relay struct {
	client  *redis.Client
	channel string
	logger  *slog.Logger
}

// NewRelay returns a relay publishing on channel. A nil logger
// discards.
func NewRelay(client *redis.Client, channel string, logger *slog.Logger) *Relay {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Relay{client: client, channel: channel, logger: logger}
}

// Publish sends one signal and returns the number of Redis subscribers
// that received it.
func (r *Relay) Publish(ctx context.Context, signal Signal) (int64, error) {
	message, ok := MessageOf(signal)
	if !ok {
		return 0, fmt.Errorf("relay: unsupported signal %T", signal)
	}
	data, err := codec.Marshal(message)
	if err != nil {
		return 0, fmt.Errorf("relay: encoding %s: %w", message.Kind, err)
	}
	receivers, err := r.client.Publish(ctx, r.channel, data).Result()
	if err != nil {
		return 0, fmt.Errorf("relay: publishing to %s: %w", r.channel, err)
	}
	return receivers, nil
}

// Run publishes everything received on signals until ctx is done or
// signals closes. A failed publish is logged and the signal dropped.
func (r *Relay) Run(ctx context.Context, signals <-chan Signal) {
	for {
		select {
		case <-ctx.Done():
			return
		case signal, ok := <-signals:
			if !ok {
				return
			}
			if _, err := r.Publish(ctx, signal); err != nil {
				r.logger.Warn("relaying signal failed",
					"link_type", signal.Type(),
					"error", err,
				)
			}
		}
	}
}
