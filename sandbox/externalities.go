// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package sandbox

import (
	"bytes"

	"github.com/0xsoniclabs/sandbox/common"
)

// Externalities is the handle through which operations access the live
// state of a sandbox. Every access is forwarded to the backend currently
// owned by the sandbox, so a handle stays valid across nested dry runs.
//
// Tombstones are not visible through this handle.
type Externalities struct {
	sb *Sandbox
}

// Sandbox returns the sandbox this handle is operating on.
func (e *Externalities) Sandbox() *Sandbox {
	return e.sb
}

// Get returns a copy of the value stored for the given key.
func (e *Externalities) Get(key []byte) ([]byte, bool) {
	entry, found := e.sb.backend.Get(key)
	if !found || !entry.IsLive() {
		return nil, false
	}
	return bytes.Clone(entry.Value), true
}

// Exists returns true if a live value is stored for the given key.
func (e *Externalities) Exists(key []byte) bool {
	entry, found := e.sb.backend.Get(key)
	return found && entry.IsLive()
}

// Set updates the value of the given key.
func (e *Externalities) Set(key, value []byte) {
	e.sb.backend.Set(key, value)
}

// Delete removes the given key.
func (e *Externalities) Delete(key []byte) {
	e.sb.backend.Delete(key)
}

// Retain increments the reference count of the given key.
func (e *Externalities) Retain(key []byte) {
	e.sb.backend.Retain(key)
}

// Release decrements the reference count of the given key. Keys with no
// remaining references are removed.
func (e *Externalities) Release(key []byte) {
	e.sb.backend.Release(key)
}

// Refs returns the reference count of the given key, including the counts
// of removed keys.
func (e *Externalities) Refs(key []byte) int32 {
	entry, _ := e.sb.backend.Get(key)
	return entry.Refs
}

// Root commits all pending writes and returns the fingerprint of the
// resulting state.
func (e *Externalities) Root() common.Hash {
	e.sb.commit("root computation")
	return e.sb.backend.Root()
}
