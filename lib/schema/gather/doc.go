// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package gather defines the records, link types, and alert payloads
// of the gather module.
//
// Payloads are CBOR entries in the record store. Events and proposals
// are mutable through revision chains; cancellations and attendee
// attestations are revised in place by chain walking. The link types
// here are the only ones the gather and alerts modules create, and the
// category anchors name the lifecycle collections every participant
// can enumerate.
//
// Alert payloads ([Notification]) travel as the tag of a MyAlerts edge
// and across module calls, so their encoding is part of the wire
// contract between gather, alerts, and any notification transport.
package gather
