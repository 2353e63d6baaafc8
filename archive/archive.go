// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package archive defines a store of named sandbox snapshots. Archives
// persist snapshots beyond the lifetime of the process that captured them.
package archive

import (
	"errors"

	"github.com/0xsoniclabs/sandbox/common"
	"github.com/0xsoniclabs/sandbox/sandbox"
)

// ErrNotFound is reported when accessing a snapshot that is not archived.
var ErrNotFound = errors.New("snapshot not found")

// ErrInvalidName is reported for empty snapshot names.
var ErrInvalidName = errors.New("invalid snapshot name")

// Archive is a persistent collection of named snapshots.
type Archive interface {
	// Put stores the given snapshot under the given name, replacing any
	// snapshot previously stored under this name.
	Put(name string, snapshot sandbox.Snapshot) error

	// Get retrieves the snapshot stored under the given name.
	Get(name string) (sandbox.Snapshot, error)

	// Root returns the root of the snapshot stored under the given name
	// without decoding the snapshot.
	Root(name string) (common.Hash, error)

	// List returns the names of all archived snapshots in ascending order.
	List() ([]string, error)

	// Delete removes the snapshot of the given name. Deleting a missing
	// snapshot is not an error.
	Delete(name string) error

	// Close releases all resources of the archive.
	Close() error
}

// CheckName verifies that the given name may be used for a snapshot.
func CheckName(name string) error {
	if name == "" {
		return ErrInvalidName
	}
	return nil
}
