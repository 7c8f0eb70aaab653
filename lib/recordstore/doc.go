// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package recordstore is the adapter between gather's domain logic and
// the participant-replicated, append-only record store.
//
// Everything written is an immutable [Action]. Records are created,
// revised (an update action pointing at the revised action) and
// tombstoned (a delete action pointing at the deleted one). Edges are
// create_link actions from a base to a target with a type and an
// opaque tag; deleting an edge appends a delete_link action naming the
// specific create_link instance. Nothing is ever mutated in place.
//
// A [Cell] is one participant's handle on the store. It stamps each
// commit with the participant's key, chain position and timestamp,
// hashes the header into the action id, runs the integrity
// [Validator], appends to the [Backend], and finally runs post-commit
// hooks. Several cells sharing one backend behave like replicas that
// have finished gossiping.
//
// Two backends ship with the package: [MemoryBackend] for tests and
// single-process use, and [SQLiteBackend] for a durable node.
package recordstore
