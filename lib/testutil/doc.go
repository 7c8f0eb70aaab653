// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil holds helpers shared by gather's package tests:
// bounded channel waits, short socket directories, unique names, and a
// ready-made participant (cell) over an in-memory store.
package testutil
