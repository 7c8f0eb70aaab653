// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package address defines the 32-byte identifiers used throughout
// gather: action ids, entry ids, anchors, agent keys, store ids, and
// capability contract fingerprints.
//
// Every identifier is a BLAKE3 keyed hash. Each family has its own
// domain key, so the same input bytes never produce the same identifier
// in two families. An anchor for "all_upcoming_events" cannot collide
// with an entry whose payload happens to be that string.
package address

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"
)

// Size is the length in bytes of every identifier.
const Size = 32

// Hash is a 32-byte BLAKE3 digest. On the CBOR wire it is a byte
// string. In text (logs, YAML, the CLI) it is lowercase hex.
type Hash [Size]byte

// Zero is the all-zero hash. It marks "no previous action" in the
// first commit of a chain and is never produced by hashing.
var Zero Hash

type domainKey [32]byte

// newDomainKey zero-pads the ASCII name to 32 bytes. Changing a name
// changes every identifier in that family.
func newDomainKey(name string) domainKey {
	if len(name) > len(domainKey{}) {
		panic("address: domain name too long: " + name)
	}
	var key domainKey
	copy(key[:], name)
	return key
}

var (
	actionDomain   = newDomainKey("gather.action")
	entryDomain    = newDomainKey("gather.entry")
	anchorDomain   = newDomainKey("gather.anchor")
	contractDomain = newDomainKey("gather.contract")
	storeDomain    = newDomainKey("gather.store")
	agentDomain    = newDomainKey("gather.agent")
)

// HashAction returns the identifier of a commit from its canonical
// header encoding.
func HashAction(header []byte) Hash {
	return keyedHash(actionDomain, header)
}

// HashEntry returns the identifier of a payload. The entry type is
// part of the input so two types with byte-identical content remain
// distinct.
func HashEntry(entryType string, content []byte) Hash {
	hasher := newHasher(entryDomain)
	hasher.Write([]byte(entryType))
	hasher.Write([]byte{0})
	hasher.Write(content)
	return sum(hasher)
}

// Anchor returns the well-known identifier for key. Anchors are never
// stored; every participant computes the same value independently.
func Anchor(key string) Hash {
	return keyedHash(anchorDomain, []byte(key))
}

// HashContract returns the fingerprint of a canonical contract
// signature encoding.
func HashContract(signature []byte) Hash {
	return keyedHash(contractDomain, signature)
}

// StoreID derives a store ("network") identifier from a seed.
func StoreID(seed string) Hash {
	return keyedHash(storeDomain, []byte(seed))
}

// AgentKey derives a participant key from a seed. Real deployments
// would use a public signing key; commits are not signed here, so a
// derived key is enough to tell authors apart.
func AgentKey(seed string) Hash {
	return keyedHash(agentDomain, []byte(seed))
}

// IsZero reports whether h is the zero hash.
func (h Hash) IsZero() bool {
	return h == Zero
}

// String returns the lowercase hex encoding.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// Short returns the first 12 hex characters, for log lines.
func (h Hash) Short() string {
	return hex.EncodeToString(h[:6])
}

// Compare orders hashes by their bytes.
func (h Hash) Compare(other Hash) int {
	return bytes.Compare(h[:], other[:])
}

// MarshalText implements encoding.TextMarshaler.
func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *Hash) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// Parse decodes a 64-character hex string.
func Parse(hexString string) (Hash, error) {
	decoded, err := hex.DecodeString(hexString)
	if err != nil {
		return Hash{}, fmt.Errorf("address: invalid hex: %w", err)
	}
	return FromBytes(decoded)
}

// FromBytes copies a 32-byte slice into a Hash.
func FromBytes(raw []byte) (Hash, error) {
	if len(raw) != Size {
		return Hash{}, fmt.Errorf("address: expected %d bytes, got %d", Size, len(raw))
	}
	var h Hash
	copy(h[:], raw)
	return h, nil
}

func keyedHash(key domainKey, data []byte) Hash {
	hasher := newHasher(key)
	hasher.Write(data)
	return sum(hasher)
}

func newHasher(key domainKey) *blake3.Hasher {
	hasher, err := blake3.NewKeyed(key[:])
	if err != nil {
		panic("address: BLAKE3 keyed hasher: " + err.Error())
	}
	return hasher
}

func sum(hasher *blake3.Hasher) Hash {
	var h Hash
	copy(h[:], hasher.Sum(nil))
	return h
}
