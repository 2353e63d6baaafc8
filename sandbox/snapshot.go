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
	"errors"
	"fmt"
	"slices"

	"github.com/0xsoniclabs/sandbox/backend"
	"github.com/0xsoniclabs/sandbox/common"
)

// ErrIncompatibleSnapshot is reported when restoring a snapshot captured
// from a sandbox using a different backend variant.
var ErrIncompatibleSnapshot = errors.New("incompatible snapshot")

// Snapshot is an immutable capture of the live entries of a sandbox and the
// root of its state at capture time. A snapshot does not share any data with
// the sandbox it was taken from and may be shared freely between goroutines.
type Snapshot struct {
	variant string
	storage backend.RawStorage
	root    common.Hash
}

// Variant returns the backend variant of the sandbox the snapshot was taken
// from.
func (s Snapshot) Variant() string {
	return s.variant
}

// Root returns the root of the captured state. The root covers removed
// entries not included in the snapshot.
func (s Snapshot) Root() common.Hash {
	return s.root
}

// Len returns the number of captured entries.
func (s Snapshot) Len() int {
	return len(s.storage)
}

// Entries returns a copy of the captured entries, ordered by key.
func (s Snapshot) Entries() backend.RawStorage {
	return s.storage.Clone()
}

// Get returns the captured value of the given key.
func (s Snapshot) Get(key []byte) ([]byte, bool) {
	pos, found := slices.BinarySearchFunc(s.storage, key, func(cur backend.KeyEntry, key []byte) int {
		return bytes.Compare(cur.Key, key)
	})
	if !found {
		return nil, false
	}
	return bytes.Clone(s.storage[pos].Value), true
}

func (s Snapshot) String() string {
	return fmt.Sprintf("Snapshot{variant: %s, root: %v, entries: %d}", s.variant, s.root, len(s.storage))
}

// TakeSnapshot captures the current state of the sandbox, including writes
// of operations still in progress. The live state is not modified.
func (sb *Sandbox) TakeSnapshot() Snapshot {
	clone := sb.backend.Clone()
	if err := clone.Commit(); err != nil {
		sb.logger.Error("failed to commit snapshot copy", "error", err)
		panic(fmt.Sprintf("invariant violation: failed to commit pending changes of snapshot copy: %v", err))
	}
	root := clone.Root()
	storage := clone.Drain().Live().Clone()
	for i := range storage {
		if storage[i].Key == nil {
			storage[i].Key = []byte{}
		}
		if storage[i].Value == nil {
			storage[i].Value = []byte{}
		}
	}
	sb.logger.Debug("snapshot taken", "root", root, "entries", len(storage))
	return Snapshot{
		variant: sb.variant,
		storage: storage,
		root:    root,
	}
}

// RestoreSnapshot replaces the live state of the sandbox by the state
// captured in the given snapshot. The snapshot remains valid.
func (sb *Sandbox) RestoreSnapshot(s Snapshot) error {
	if s.variant != sb.variant {
		return fmt.Errorf("%w: snapshot of variant %q can not be restored in sandbox of variant %q", ErrIncompatibleSnapshot, s.variant, sb.variant)
	}
	restored, err := sb.factory(s.storage, s.root)
	if err != nil {
		return fmt.Errorf("failed to restore snapshot: %w", err)
	}
	sb.backend = restored
	sb.logger.Debug("snapshot restored", "root", s.root, "entries", len(s.storage))
	return nil
}
