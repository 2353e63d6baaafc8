// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package backend

//go:generate mockgen -source backend.go -destination backend_mocks.go -package backend

import (
	"bytes"
	"errors"

	"github.com/0xsoniclabs/sandbox/common"
	"github.com/ethereum/go-ethereum/rlp"
)

// EmptyRoot is the root of a backend without any entries.
var EmptyRoot = common.Keccak256(rlp.EmptyString)

// ErrCorrupted is reported by Backend.Commit if pending writes can not be
// materialized. It indicates a broken backend, not a usage error.
var ErrCorrupted = errors.New("backend corrupted")

// Entry is a value paired with a reference count. Entries with a reference
// count of zero or less are tombstones: they are retained by the backend and
// contribute to its root, but are not part of any exported view.
type Entry struct {
	Value []byte
	Refs  int32
}

// IsLive returns true if the entry is not a tombstone.
func (e Entry) IsLive() bool {
	return e.Refs > 0
}

// Clone returns a copy of the entry not sharing its value with the original.
func (e Entry) Clone() Entry {
	return Entry{Value: bytes.Clone(e.Value), Refs: e.Refs}
}

// KeyEntry is a single (key, entry) pair of a raw storage dump.
type KeyEntry struct {
	Key []byte
	Entry
}

// RawStorage is an ordered list of raw backend entries.
type RawStorage []KeyEntry

// Live returns a new list retaining only the live entries of s, in order.
func (s RawStorage) Live() RawStorage {
	res := make(RawStorage, 0, len(s))
	for _, cur := range s {
		if cur.IsLive() {
			res = append(res, cur)
		}
	}
	return res
}

// Clone creates a deep copy of the storage.
func (s RawStorage) Clone() RawStorage {
	if s == nil {
		return nil
	}
	res := make(RawStorage, len(s))
	for i, cur := range s {
		res[i] = KeyEntry{Key: bytes.Clone(cur.Key), Entry: cur.Entry.Clone()}
	}
	return res
}

// Backend is a key-value store with reference-counted entries. Writes are
// buffered as pending changes until they are committed. Backends are not
// thread-safe; concurrent accesses must be synchronized externally.
type Backend interface {
	// Get returns the entry stored for the given key, including pending
	// changes. Tombstones are reported as well.
	Get(key []byte) (Entry, bool)

	// Set updates the value of the given key. Tombstones and missing entries
	// are (re-)created with a reference count of one.
	Set(key, value []byte)

	// Delete turns the entry of the given key into a tombstone.
	Delete(key []byte)

	// Retain increments the reference count of the given key. Missing keys
	// are created with an empty value.
	Retain(key []byte)

	// Release decrements the reference count of the given key.
	Release(key []byte)

	// HasPending returns true if there are uncommitted changes.
	HasPending() bool

	// Commit materializes all pending changes. A failure indicates an
	// internal corruption of the backend.
	Commit() error

	// Clone creates an independent copy of this backend, including pending
	// changes. Changes to either copy are not visible in the other one.
	Clone() Backend

	// Drain removes all committed entries from the backend and returns them
	// ordered by key. Pending changes are discarded.
	Drain() RawStorage

	// Root returns the fingerprint of the committed content.
	Root() common.Hash

	// Variant returns the name of the backend implementation.
	Variant() string

	common.MemoryFootprintProvider
}

// Factory creates a backend from a list of raw entries and the root these
// entries are known to have. The known root is reported by the resulting
// backend until its content is modified.
type Factory func(storage RawStorage, root common.Hash) (Backend, error)

// NewEmpty creates an empty backend using the given factory.
func NewEmpty(factory Factory) (Backend, error) {
	return factory(nil, EmptyRoot)
}
