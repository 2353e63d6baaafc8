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

import (
	"bytes"
	"maps"
	"slices"
	"strings"
)

// Changes collects the pending modifications of a backend. The recorded
// entries are the full new states of the modified keys, not deltas.
type Changes struct {
	entries map[string]Entry
}

// NewChanges creates an empty change set.
func NewChanges() *Changes {
	return &Changes{entries: map[string]Entry{}}
}

// Get returns the pending state of the given key, if it has been modified.
func (c *Changes) Get(key []byte) (Entry, bool) {
	res, found := c.entries[string(key)]
	return res, found
}

// Put records the new state of the given key.
func (c *Changes) Put(key []byte, entry Entry) {
	c.entries[string(key)] = entry
}

// Len returns the number of modified keys.
func (c *Changes) Len() int {
	return len(c.entries)
}

// Reset discards all recorded changes.
func (c *Changes) Reset() {
	clear(c.entries)
}

// Clone creates an independent copy of this change set. Recorded values are
// never modified in place, so they are shared between the copies.
func (c *Changes) Clone() *Changes {
	return &Changes{entries: maps.Clone(c.entries)}
}

// Sorted returns the recorded changes ordered by key.
func (c *Changes) Sorted() RawStorage {
	keys := slices.SortedFunc(maps.Keys(c.entries), strings.Compare)
	res := make(RawStorage, 0, len(keys))
	for _, key := range keys {
		res = append(res, KeyEntry{Key: []byte(key), Entry: c.entries[key]})
	}
	return res
}

// The following functions define the effect of the individual write
// operations on the current state of an entry. They are shared by all
// backend implementations to guarantee consistent semantics.

// SetEntry returns the state of an entry after setting its value.
func SetEntry(current Entry, found bool, value []byte) Entry {
	refs := current.Refs
	if !found || refs <= 0 {
		refs = 1
	}
	return Entry{Value: bytes.Clone(value), Refs: refs}
}

// DeleteEntry returns the state of an entry after deleting it. The second
// result is false if deleting has no effect.
func DeleteEntry(current Entry, found bool) (Entry, bool) {
	if !found || current.Refs <= 0 {
		return current, false
	}
	return Entry{Value: current.Value, Refs: 0}, true
}

// RetainEntry returns the state of an entry after incrementing its
// reference count.
func RetainEntry(current Entry, found bool) Entry {
	if !found {
		return Entry{Value: []byte{}, Refs: 1}
	}
	return Entry{Value: current.Value, Refs: current.Refs + 1}
}

// ReleaseEntry returns the state of an entry after decrementing its
// reference count.
func ReleaseEntry(current Entry, found bool) Entry {
	if !found {
		return Entry{Value: []byte{}, Refs: -1}
	}
	return Entry{Value: current.Value, Refs: current.Refs - 1}
}
