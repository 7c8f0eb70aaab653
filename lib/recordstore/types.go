// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package recordstore

import (
	"bytes"
	"fmt"
	"time"

	"github.com/bureau-foundation/gather/lib/address"
	"github.com/bureau-foundation/gather/lib/codec"
)

// Timestamp is microseconds since the Unix epoch.
type Timestamp int64

// TimestampOf converts a wall-clock time.
func TimestampOf(t time.Time) Timestamp {
	return Timestamp(t.UnixMicro())
}

// Time converts back to a UTC time.Time.
func (ts Timestamp) Time() time.Time {
	return time.UnixMicro(int64(ts)).UTC()
}

// Kind is the type of a commit.
type Kind string

const (
	KindCreate     Kind = "create"
	KindUpdate     Kind = "update"
	KindDelete     Kind = "delete"
	KindCreateLink Kind = "create_link"
	KindDeleteLink Kind = "delete_link"
)

// CarriesEntry reports whether actions of this kind have a payload.
func (k Kind) CarriesEntry() bool {
	return k == KindCreate || k == KindUpdate
}

// LinkType names a kind of edge. Link types are declared by the
// module that owns them; the store treats them as opaque strings.
type LinkType string

// Action is one immutable commit. The Hash is derived from every other
// field and is not part of the encoded header.
type Action struct {
	Hash address.Hash `cbor:"-"`

	Kind      Kind         `cbor:"kind"`
	Author    address.Hash `cbor:"author"`
	Seq       uint64       `cbor:"seq"`
	Prev      address.Hash `cbor:"prev"`
	Timestamp Timestamp    `cbor:"timestamp"`

	// Create and update.
	EntryType string       `cbor:"entry_type,omitempty"`
	EntryHash address.Hash `cbor:"entry_hash"`

	// Update: the action being revised. Delete: the record being
	// tombstoned. Delete-link: the create_link action being removed.
	Original address.Hash `cbor:"original"`

	// Create-link.
	Base     address.Hash `cbor:"base"`
	Target   address.Hash `cbor:"target"`
	LinkType LinkType     `cbor:"link_type,omitempty"`
	Tag      []byte       `cbor:"tag,omitempty"`
}

// header returns the canonical encoding the action id is computed
// from.
func (a *Action) header() ([]byte, error) {
	return codec.Marshal(a)
}

// Entry is a typed payload. Content is deterministic CBOR.
type Entry struct {
	Type    string `cbor:"type"`
	Content []byte `cbor:"content"`
}

// NewEntry encodes payload as the content of an entry of the given
// type.
func NewEntry(entryType string, payload any) (Entry, error) {
	content, err := codec.Marshal(payload)
	if err != nil {
		return Entry{}, fmt.Errorf("encoding %s entry: %w", entryType, err)
	}
	return Entry{Type: entryType, Content: content}, nil
}

// Hash returns the entry id.
func (e Entry) Hash() address.Hash {
	return address.HashEntry(e.Type, e.Content)
}

// Record is an action together with its entry. Entry is nil for
// actions that carry no payload.
type Record struct {
	Action Action
	Entry  *Entry
}

// ID returns the action id of the record.
func (r *Record) ID() address.Hash {
	return r.Action.Hash
}

// Decode unmarshals the entry content into v. A record without an
// entry, or content that does not fit v, is ErrMalformed.
func (r *Record) Decode(v any) error {
	if r.Entry == nil {
		return fmt.Errorf("%w: %s action %s has no entry", ErrMalformed, r.Action.Kind, r.Action.Hash.Short())
	}
	if err := codec.Unmarshal(r.Entry.Content, v); err != nil {
		return fmt.Errorf("%w: decoding %s entry %s: %v", ErrMalformed, r.Entry.Type, r.Action.Hash.Short(), err)
	}
	return nil
}

// DecodeStrict is Decode but rejects content with fields v does not
// declare.
func (r *Record) DecodeStrict(v any) error {
	if r.Entry == nil {
		return fmt.Errorf("%w: %s action %s has no entry", ErrMalformed, r.Action.Kind, r.Action.Hash.Short())
	}
	if err := codec.UnmarshalStrict(r.Entry.Content, v); err != nil {
		return fmt.Errorf("%w: decoding %s entry %s: %v", ErrMalformed, r.Entry.Type, r.Action.Hash.Short(), err)
	}
	return nil
}

// Details is a record with every action that references it: the
// updates whose Original is the record, and its tombstones.
type Details struct {
	Record  Record
	Updates []Action
	Deletes []Action
}

// Deleted reports whether any tombstone references the record.
func (d *Details) Deleted() bool {
	return len(d.Deletes) > 0
}

// Edge is a live create_link action.
type Edge struct {
	ID        address.Hash
	Base      address.Hash
	Target    address.Hash
	Type      LinkType
	Tag       []byte
	Timestamp Timestamp
	Author    address.Hash
}

func edgeOf(action Action) Edge {
	return Edge{
		ID:        action.Hash,
		Base:      action.Base,
		Target:    action.Target,
		Type:      action.LinkType,
		Tag:       action.Tag,
		Timestamp: action.Timestamp,
		Author:    action.Author,
	}
}

// EdgeDetails is an edge instance together with the delete_link
// actions that reference it. An edge with deletes is no longer live.
type EdgeDetails struct {
	Edge    Edge
	Deletes []Action
}

// EdgeQuery selects edges from a base. An empty Types matches every
// link type. TagPrefix, when set, keeps only edges whose tag starts
// with it.
type EdgeQuery struct {
	Types     []LinkType
	TagPrefix []byte
}

// OfType is shorthand for a query on a single link type.
func OfType(linkType LinkType) EdgeQuery {
	return EdgeQuery{Types: []LinkType{linkType}}
}

func (q EdgeQuery) matchesType(linkType LinkType) bool {
	if len(q.Types) == 0 {
		return true
	}
	for _, candidate := range q.Types {
		if candidate == linkType {
			return true
		}
	}
	return false
}

func (q EdgeQuery) matches(action Action) bool {
	return q.matchesType(action.LinkType) && bytes.HasPrefix(action.Tag, q.TagPrefix)
}
