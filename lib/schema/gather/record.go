// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package gather

import (
	"fmt"

	"github.com/bureau-foundation/gather/lib/address"
	"github.com/bureau-foundation/gather/lib/codec"
	"github.com/bureau-foundation/gather/lib/recordstore"
)

// Record is a store record as it crosses a module boundary. The action
// id travels explicitly because it is not part of the encoded header.
type Record struct {
	ID     address.Hash       `cbor:"id"`
	Action recordstore.Action `cbor:"action"`
	Entry  *recordstore.Entry `cbor:"entry,omitempty"`
}

// WireRecord converts a store record. A nil record stays nil.
func WireRecord(record *recordstore.Record) *Record {
	if record == nil {
		return nil
	}
	return &Record{ID: record.ID(), Action: record.Action, Entry: record.Entry}
}

// WireRecords converts a slice of store records.
func WireRecords(records []recordstore.Record) []Record {
	wire := make([]Record, len(records))
	for i := range records {
		wire[i] = *WireRecord(&records[i])
	}
	return wire
}

// Decode unmarshals the entry into v after checking its type.
func (r *Record) Decode(entryType string, v any) error {
	if r.Entry == nil {
		return fmt.Errorf("%w: record %s has no entry", recordstore.ErrMalformed, r.ID.Short())
	}
	if r.Entry.Type != entryType {
		return fmt.Errorf("%w: record %s is a %s, not a %s", recordstore.ErrMalformed, r.ID.Short(), r.Entry.Type, entryType)
	}
	if err := codec.Unmarshal(r.Entry.Content, v); err != nil {
		return fmt.Errorf("%w: record %s: %v", recordstore.ErrMalformed, r.ID.Short(), err)
	}
	return nil
}
