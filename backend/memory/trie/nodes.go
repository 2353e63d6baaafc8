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
	"bytes"
	"unsafe"

	"github.com/0xsoniclabs/sandbox/backend"
	"github.com/0xsoniclabs/sandbox/common"
	"github.com/ethereum/go-ethereum/rlp"
)

// ---- Nodes ----

// node is the interface of trie nodes. Nodes are immutable once they are part
// of a trie: set produces updated copies of all nodes along the path to the
// modified key, leaving the original nodes untouched. The only exception is
// the lazily computed hash, which is cached in the node.
type node interface {
	get(key []byte, depth int) (backend.Entry, bool)
	set(key []byte, depth int, entry backend.Entry) (res node, added bool)
	hash() common.Hash
	visit(visitor func(key []byte, entry backend.Entry))

	// collectHashTasks appends the tasks required to compute the hash of this
	// node and of all its descendants with missing hashes. The returned task
	// is the one finishing the hash of this node; it is nil if the hash is
	// already known.
	collectHashTasks(tasks *[]*task) *task

	memoryUsage(stats *memoryStats)
}

// ---- Inner nodes ----

// inner is a branch node at a given depth of the trie. Its children are
// indexed by the key byte at this depth and stored in a compact list, with a
// bitmap marking which indexes are present. Keys ending exactly at this depth
// are kept in the terminal leaf.
type inner struct {
	terminal *leaf
	present  bitMap
	children []node

	hashValue common.Hash
	hashed    bool
}

func (i *inner) get(key []byte, depth int) (backend.Entry, bool) {
	if len(key) == depth {
		if i.terminal == nil {
			return backend.Entry{}, false
		}
		return i.terminal.get(key, depth)
	}
	pos := key[depth]
	if !i.present.get(pos) {
		return backend.Entry{}, false
	}
	return i.children[i.present.rank(pos)].get(key, depth+1)
}

func (i *inner) set(key []byte, depth int, entry backend.Entry) (node, bool) {
	res := &inner{
		terminal: i.terminal,
		present:  i.present,
	}
	if len(key) == depth {
		res.children = i.children
		res.terminal = newLeaf(key, entry)
		return res, i.terminal == nil
	}

	pos := key[depth]
	rank := i.present.rank(pos)
	if !i.present.get(pos) {
		res.present.set(pos)
		res.children = make([]node, 0, len(i.children)+1)
		res.children = append(res.children, i.children[:rank]...)
		res.children = append(res.children, newLeaf(key, entry))
		res.children = append(res.children, i.children[rank:]...)
		return res, true
	}

	child, added := i.children[rank].set(key, depth+1, entry)
	res.children = make([]node, len(i.children))
	copy(res.children, i.children)
	res.children[rank] = child
	return res, added
}

// innerEncoding is the RLP layout hashed to obtain an inner node's hash.
type innerEncoding struct {
	Terminal []byte
	Present  []byte
	Children [][]byte
}

func (i *inner) hash() common.Hash {
	if i.hashed {
		return i.hashValue
	}
	encoding := innerEncoding{
		Terminal: []byte{},
		Present:  i.present.bytes(),
		Children: make([][]byte, len(i.children)),
	}
	if i.terminal != nil {
		h := i.terminal.hash()
		encoding.Terminal = h[:]
	}
	for j, child := range i.children {
		h := child.hash()
		encoding.Children[j] = h[:]
	}
	i.hashValue = hashRlp(&encoding)
	i.hashed = true
	return i.hashValue
}

func (i *inner) visit(visitor func(key []byte, entry backend.Entry)) {
	if i.terminal != nil {
		i.terminal.visit(visitor)
	}
	for _, child := range i.children {
		child.visit(visitor)
	}
}

func (i *inner) collectHashTasks(tasks *[]*task) *task {
	if i.hashed {
		return nil
	}
	dependencies := make([]*task, 0, len(i.children)+1)
	if i.terminal != nil {
		if t := i.terminal.collectHashTasks(tasks); t != nil {
			dependencies = append(dependencies, t)
		}
	}
	for _, child := range i.children {
		if t := child.collectHashTasks(tasks); t != nil {
			dependencies = append(dependencies, t)
		}
	}
	res := newTask(func() { i.hash() }, len(dependencies))
	for _, dependency := range dependencies {
		dependency.parentTask = res
	}
	*tasks = append(*tasks, res)
	return res
}

func (i *inner) memoryUsage(stats *memoryStats) {
	stats.inner++
	stats.bytes += unsafe.Sizeof(*i) + uintptr(cap(i.children))*unsafe.Sizeof(node(nil))
	if i.terminal != nil {
		i.terminal.memoryUsage(stats)
	}
	for _, child := range i.children {
		child.memoryUsage(stats)
	}
}

// ---- Leaf nodes ----

// leaf holds a single entry together with its full key.
type leaf struct {
	key   []byte
	entry backend.Entry

	hashValue common.Hash
	hashed    bool
}

func newLeaf(key []byte, entry backend.Entry) *leaf {
	return &leaf{
		key:   bytes.Clone(key),
		entry: entry,
	}
}

func (l *leaf) get(key []byte, _ int) (backend.Entry, bool) {
	if !bytes.Equal(key, l.key) {
		return backend.Entry{}, false
	}
	return l.entry, true
}

func (l *leaf) set(key []byte, depth int, entry backend.Entry) (node, bool) {
	if bytes.Equal(key, l.key) {
		return &leaf{key: l.key, entry: entry}, false
	}

	// This leaf needs to be split.
	res := &inner{}
	if len(l.key) == depth {
		res.terminal = l
	} else {
		res.present.set(l.key[depth])
		res.children = []node{l}
	}
	return res.set(key, depth, entry)
}

// leafEncoding is the RLP layout hashed to obtain a leaf's hash. Reference
// counts are encoded in two's complement.
type leafEncoding struct {
	Key   []byte
	Value []byte
	Refs  uint32
}

func (l *leaf) hash() common.Hash {
	if l.hashed {
		return l.hashValue
	}
	value := l.entry.Value
	if value == nil {
		value = []byte{}
	}
	l.hashValue = hashRlp(&leafEncoding{
		Key:   l.key,
		Value: value,
		Refs:  uint32(l.entry.Refs),
	})
	l.hashed = true
	return l.hashValue
}

func (l *leaf) visit(visitor func(key []byte, entry backend.Entry)) {
	visitor(l.key, l.entry)
}

func (l *leaf) collectHashTasks(tasks *[]*task) *task {
	if l.hashed {
		return nil
	}
	res := newTask(func() { l.hash() }, 0)
	*tasks = append(*tasks, res)
	return res
}

func (l *leaf) memoryUsage(stats *memoryStats) {
	stats.leaves++
	stats.bytes += unsafe.Sizeof(*l) + uintptr(cap(l.key)+cap(l.entry.Value))
}

// ---- Helpers ----

// memoryStats aggregates the memory usage of a trie.
type memoryStats struct {
	inner  int
	leaves int
	bytes  uintptr
}

func hashRlp(value any) common.Hash {
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		// Encoding fixed structs of byte slices and integers can not fail.
		panic(err)
	}
	return common.Keccak256(encoded)
}
