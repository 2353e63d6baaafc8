// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package flat

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"
	"unsafe"

	"github.com/0xsoniclabs/sandbox/backend"
	"github.com/0xsoniclabs/sandbox/common"
	"github.com/ethereum/go-ethereum/rlp"
)

const Variant = "flat"

func init() {
	backend.RegisterFactory(backend.Configuration{Variant: Variant}, NewBackend)
}

// Backend is a flat, map-based reference implementation of backend.Backend.
// Cloning copies all entries, so it is intended for testing and for
// cross-checking the behavior of more elaborate backends.
//
// The root of the content is the Keccak256 hash of the RLP encoded list of
// all entries, sorted by key.
//
// NOTE: this implementation is NOT thread-safe. Concurrent access must be
// externally synchronized.
type Backend struct {
	entries map[string]backend.Entry
	pending *backend.Changes

	// Cached root of the committed content, nil if it needs to be
	// recomputed. Initialized with the root provided on creation.
	root *common.Hash

	drained bool
}

// NewBackend creates a backend containing the given entries, known to have
// the given root. Later entries of the same key override earlier ones.
func NewBackend(storage backend.RawStorage, root common.Hash) (backend.Backend, error) {
	res := &Backend{
		entries: make(map[string]backend.Entry, len(storage)),
		pending: backend.NewChanges(),
		root:    &root,
	}
	for _, cur := range storage {
		res.entries[string(cur.Key)] = cur.Entry.Clone()
	}
	return res, nil
}

func (b *Backend) Get(key []byte) (backend.Entry, bool) {
	if res, found := b.pending.Get(key); found {
		return res, true
	}
	res, found := b.entries[string(key)]
	return res, found
}

func (b *Backend) Set(key, value []byte) {
	current, found := b.Get(key)
	b.pending.Put(key, backend.SetEntry(current, found, value))
}

func (b *Backend) Delete(key []byte) {
	current, found := b.Get(key)
	if res, changed := backend.DeleteEntry(current, found); changed {
		b.pending.Put(key, res)
	}
}

func (b *Backend) Retain(key []byte) {
	current, found := b.Get(key)
	b.pending.Put(key, backend.RetainEntry(current, found))
}

func (b *Backend) Release(key []byte) {
	current, found := b.Get(key)
	b.pending.Put(key, backend.ReleaseEntry(current, found))
}

func (b *Backend) HasPending() bool {
	return b.pending.Len() > 0
}

func (b *Backend) Commit() error {
	if b.pending.Len() == 0 {
		return nil
	}
	if b.drained {
		return fmt.Errorf("%w: commit of %d changes on drained backend", backend.ErrCorrupted, b.pending.Len())
	}
	for _, change := range b.pending.Sorted() {
		b.entries[string(change.Key)] = change.Entry
	}
	b.pending.Reset()
	b.root = nil
	return nil
}

func (b *Backend) Clone() backend.Backend {
	return &Backend{
		entries: maps.Clone(b.entries),
		pending: b.pending.Clone(),
		root:    b.root,
		drained: b.drained,
	}
}

func (b *Backend) Drain() backend.RawStorage {
	res := b.sorted()
	b.entries = map[string]backend.Entry{}
	b.pending.Reset()
	b.drained = true
	return res
}

func (b *Backend) sorted() backend.RawStorage {
	keys := slices.SortedFunc(maps.Keys(b.entries), strings.Compare)
	res := make(backend.RawStorage, 0, len(keys))
	for _, key := range keys {
		res = append(res, backend.KeyEntry{Key: []byte(key), Entry: b.entries[key]})
	}
	return res
}

// entryEncoding is the RLP layout of a single entry used for computing roots.
type entryEncoding struct {
	Key   []byte
	Value []byte
	Refs  uint32
}

func (b *Backend) Root() common.Hash {
	if b.root != nil {
		return *b.root
	}
	var root common.Hash
	if len(b.entries) == 0 {
		root = backend.EmptyRoot
	} else {
		sorted := b.sorted()
		list := make([]entryEncoding, len(sorted))
		for i, cur := range sorted {
			value := cur.Value
			if value == nil {
				value = []byte{}
			}
			list[i] = entryEncoding{Key: cur.Key, Value: value, Refs: uint32(cur.Refs)}
		}
		encoded, err := rlp.EncodeToBytes(list)
		if err != nil {
			panic(fmt.Sprintf("failed to encode entries: %v", err))
		}
		root = common.Keccak256(encoded)
	}
	b.root = &root
	return root
}

func (b *Backend) Variant() string {
	return Variant
}

func (b *Backend) GetMemoryFootprint() *common.MemoryFootprint {
	res := common.NewMemoryFootprint(unsafe.Sizeof(*b))
	res.AddChild("entries", memoryFootprintOfMap(b.entries))
	pending := common.NewMemoryFootprint(uintptr(b.pending.Len()) * unsafe.Sizeof(backend.KeyEntry{}))
	res.AddChild("pending", pending)
	return res
}

func memoryFootprintOfMap[A comparable, B any](m map[A]B) *common.MemoryFootprint {
	entrySize :=
		reflect.TypeFor[A]().Size() +
			reflect.TypeFor[B]().Size()
	res := common.NewMemoryFootprint(uintptr(len(m)) * entrySize)
	res.SetNote(fmt.Sprintf("(items: %d)", len(m)))
	return res
}
