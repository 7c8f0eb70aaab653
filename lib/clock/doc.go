// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides the injectable time source used to stamp
// commits.
//
// Revision resolution picks the update with the greatest timestamp, so
// tests that exercise ordering need exact control over commit times.
// Production code takes a Clock and uses Real(); tests use Fake() and
// move time with Advance or Set:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	cell := recordstore.NewCell(backend, recordstore.CellConfig{Clock: c, ...})
//	c.Advance(time.Second)
package clock
