// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package memory

import (
	"fmt"
	"unsafe"

	"github.com/0xsoniclabs/sandbox/backend"
	"github.com/0xsoniclabs/sandbox/backend/memory/trie"
	"github.com/0xsoniclabs/sandbox/common"
)

const (
	Variant           = "memory"
	SequentialVariant = "memory-seq"
)

func init() {
	backend.RegisterFactory(
		backend.Configuration{Variant: Variant},
		NewFactory(Variant, trie.TrieConfig{ParallelHashing: true}),
	)
	backend.RegisterFactory(
		backend.Configuration{Variant: SequentialVariant},
		NewFactory(SequentialVariant, trie.TrieConfig{}),
	)
}

// Backend is a backend.Backend storing committed entries in a persistent
// trie and pending changes in a separate change set.
//
// NOTE: this implementation is NOT thread-safe. Concurrent access must be
// externally synchronized. This includes clones, which share trie nodes.
type Backend struct {
	variant string
	trie    trie.Trie
	pending *backend.Changes

	// The root provided when creating this backend from raw entries. It is
	// reported until the first change is committed. May be nil.
	knownRoot *common.Hash

	// Set once the content has been drained. A drained backend accepts no
	// further commits.
	drained bool
}

// NewFactory creates a factory producing backends of the given variant.
func NewFactory(variant string, config trie.TrieConfig) backend.Factory {
	return func(storage backend.RawStorage, root common.Hash) (backend.Backend, error) {
		return NewBackend(variant, config, storage, root), nil
	}
}

// NewBackend creates a backend containing the given entries, known to have
// the given root. Later entries of the same key override earlier ones.
func NewBackend(
	variant string,
	config trie.TrieConfig,
	storage backend.RawStorage,
	root common.Hash,
) *Backend {
	res := &Backend{
		variant:   variant,
		trie:      trie.NewTrie(config),
		pending:   backend.NewChanges(),
		knownRoot: &root,
	}
	for _, cur := range storage {
		res.trie.Set(cur.Key, cur.Entry.Clone())
	}
	return res
}

func (b *Backend) Get(key []byte) (backend.Entry, bool) {
	if res, found := b.pending.Get(key); found {
		return res, true
	}
	return b.trie.Get(key)
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
		b.trie.Set(change.Key, change.Entry)
	}
	b.pending.Reset()
	b.knownRoot = nil
	return nil
}

func (b *Backend) Clone() backend.Backend {
	return &Backend{
		variant:   b.variant,
		trie:      b.trie,
		pending:   b.pending.Clone(),
		knownRoot: b.knownRoot,
		drained:   b.drained,
	}
}

func (b *Backend) Drain() backend.RawStorage {
	res := make(backend.RawStorage, 0, b.trie.Len())
	b.trie.Visit(func(key []byte, entry backend.Entry) {
		res = append(res, backend.KeyEntry{Key: key, Entry: entry})
	})
	b.trie = trie.NewTrie(b.trie.Config())
	b.pending.Reset()
	b.drained = true
	return res
}

func (b *Backend) Root() common.Hash {
	if b.knownRoot != nil {
		return *b.knownRoot
	}
	return b.trie.Hash()
}

func (b *Backend) Variant() string {
	return b.variant
}

func (b *Backend) GetMemoryFootprint() *common.MemoryFootprint {
	res := common.NewMemoryFootprint(unsafe.Sizeof(*b))
	res.AddChild("trie", b.trie.GetMemoryFootprint())
	pending := common.NewMemoryFootprint(uintptr(b.pending.Len()) * unsafe.Sizeof(backend.KeyEntry{}))
	pending.SetNote(fmt.Sprintf("(items: %d)", b.pending.Len()))
	res.AddChild("pending", pending)
	return res
}
