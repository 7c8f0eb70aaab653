// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package gather implements the gather module: the lifecycle of
// events, proposals, cancellations, and attendee attestations over a
// participant's record store.
//
// A [Service] owns no state of its own. Every operation reads and
// writes the store through three index maintainers: a revision
// resolver per mutable entry type, the lifecycle [collection.Manager]
// holding the six category anchors, and a [relation.Index] for the
// many-to-many edges (authors, interest, attendance, attestations,
// cancellations).
//
// [Service.Cancel] is the one compound transition: it asks the assemble
// module whether the record's call to action was fulfilled before it
// touches any index, and files the cancellation accordingly.
//
// [Validator] enforces the module's integrity rules at commit time and
// is installed on the cell by whoever constructs it.
package gather
