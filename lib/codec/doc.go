// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec is the single CBOR configuration used by gather.
//
// Every byte that is hashed or crosses a module boundary goes through
// this package: record payloads, commit headers (whose encoding
// determines the action id), edge tags, cross-module call payloads,
// and contract signatures. The encoder uses Core Deterministic
// Encoding (RFC 8949 §4.2) so the same logical value always produces
// the same bytes, and therefore the same identifier.
//
// Buffer-oriented use:
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// Stream-oriented use (the module socket):
//
//	encoder := codec.NewEncoder(conn)
//	decoder := codec.NewDecoder(conn)
//
// Types that are only ever CBOR use `cbor` struct tags. Types that are
// also rendered as JSON by the CLI use `json` tags, which fxamacker/cbor
// reads as a fallback.
package codec
