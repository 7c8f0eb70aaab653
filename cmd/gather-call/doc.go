// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Gather-call makes one module call against a gather node's socket and
// prints the result. It lets shell scripts drive a node without a Go
// client.
//
// The payload is JSON with comments (JSONC), given as the third
// argument or read from stdin when that argument is "-". It is
// converted to CBOR before sending. A string of 64 hex digits becomes
// a 32-byte identifier, and "anchor:<key>" becomes the anchor hash of
// key. Results print in CBOR diagnostic notation, or as JSON with
// --json, where byte strings appear as hex.
package main
