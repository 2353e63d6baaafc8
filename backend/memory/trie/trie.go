// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package trie

import (
	"fmt"
	"unsafe"

	"github.com/0xsoniclabs/sandbox/backend"
	"github.com/0xsoniclabs/sandbox/common"
)

// TrieConfig defines the configuration options of a trie.
type TrieConfig struct {
	// ParallelHashing enables the computation of missing node hashes using
	// multiple goroutines.
	ParallelHashing bool
}

// Trie is a persistent, byte-wise radix trie mapping arbitrary keys to
// backend entries. Updates never modify nodes reachable from other tries:
// copying a Trie value is O(1) and results in an independent trie sharing
// all its nodes with the original.
//
// The shape of the trie only depends on the set of stored keys, thus the
// hash of the trie is a fingerprint of its content.
//
// NOTE: node hashes are computed lazily and cached in shared nodes. Tries
// sharing nodes must therefore not be hashed concurrently.
type Trie struct {
	root   node
	size   int
	config TrieConfig
}

// NewTrie creates an empty trie using the given configuration.
func NewTrie(config TrieConfig) Trie {
	return Trie{config: config}
}

// Config returns the configuration of this trie.
func (t *Trie) Config() TrieConfig {
	return t.config
}

// Len returns the number of keys stored in the trie.
func (t *Trie) Len() int {
	return t.size
}

// Get retrieves the entry associated with the given key.
func (t *Trie) Get(key []byte) (backend.Entry, bool) {
	if t.root == nil {
		return backend.Entry{}, false
	}
	return t.root.get(key, 0)
}

// Set associates the given key with the given entry, replacing any previous
// entry of the key.
func (t *Trie) Set(key []byte, entry backend.Entry) {
	if t.root == nil {
		t.root = newLeaf(key, entry)
		t.size = 1
		return
	}
	root, added := t.root.set(key, 0, entry)
	t.root = root
	if added {
		t.size++
	}
}

// Hash returns the fingerprint of the trie's content.
func (t *Trie) Hash() common.Hash {
	if t.root == nil {
		return backend.EmptyRoot
	}
	if t.config.ParallelHashing {
		tasks := []*task{}
		t.root.collectHashTasks(&tasks)
		runTasks(tasks)
	}
	return t.root.hash()
}

// Visit calls the given visitor for all entries in ascending key order.
func (t *Trie) Visit(visitor func(key []byte, entry backend.Entry)) {
	if t.root != nil {
		t.root.visit(visitor)
	}
}

// GetMemoryFootprint provides the size of the trie in memory in bytes. Nodes
// shared with other tries are included.
func (t *Trie) GetMemoryFootprint() *common.MemoryFootprint {
	stats := memoryStats{}
	if t.root != nil {
		t.root.memoryUsage(&stats)
	}
	res := common.NewMemoryFootprint(unsafe.Sizeof(*t) + stats.bytes)
	res.SetNote(fmt.Sprintf("(inner: %d, leaves: %d)", stats.inner, stats.leaves))
	return res
}
