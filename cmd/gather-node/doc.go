// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Gather-node runs one participant of a gather network. It opens the
// record store named in its config, registers the gather and alerts
// modules on a router, and serves module calls on a Unix socket.
//
// Modules the node does not implement (assemble, notifications) are
// reached through the remotes section of the config, which maps each
// module name to the socket of the process serving it. Without a
// remote for assemble, cancel fails with a remote error and changes
// nothing.
//
// Committed edge mutations of the gather link types are published on
// an in-process signal bus and logged at debug level. When
// relay.redis_url is set they are also published, CBOR encoded, on a
// Redis pub/sub channel.
package main
