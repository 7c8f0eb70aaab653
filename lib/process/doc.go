// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides entrypoint helpers for gather binaries: the
// raw stderr report used before the structured logger exists, and the
// mapping from run() errors to exit codes.
package process
