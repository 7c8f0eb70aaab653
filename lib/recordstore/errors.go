// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package recordstore

import "errors"

var (
	// ErrNotFound reports an absence that should not happen: a record
	// that was just created cannot be read back, an update or delete
	// names an action the store does not have, or an edge id is not a
	// create_link action. Plain reads of unknown ids return nil
	// without an error.
	ErrNotFound = errors.New("record not found")

	// ErrMalformed reports a payload that does not decode to the
	// expected type, or an action of the wrong kind where an entry was
	// expected.
	ErrMalformed = errors.New("malformed record")

	// ErrPolicyViolation wraps every rejection by the integrity
	// validator.
	ErrPolicyViolation = errors.New("integrity policy violation")
)
