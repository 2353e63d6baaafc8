// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package ldb

import (
	"errors"
	"fmt"

	"github.com/0xsoniclabs/sandbox/archive"
	"github.com/0xsoniclabs/sandbox/common"
	"github.com/0xsoniclabs/sandbox/sandbox"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// TableSpace is a prefix byte partitioning the key space of the database.
type TableSpace byte

const (
	// SnapshotTable holds encoded snapshots keyed by name.
	SnapshotTable TableSpace = 'S'
	// RootTable holds the root of each snapshot keyed by name, allowing
	// fast inspection without decoding the snapshot.
	RootTable TableSpace = 'R'
)

func (t TableSpace) key(name string) []byte {
	return append([]byte{byte(t)}, name...)
}

// Archive is a LevelDB based snapshot archive.
type Archive struct {
	db *leveldb.DB
}

var _ archive.Archive = (*Archive)(nil)

// Open opens or creates an archive in the given directory.
func Open(directory string) (*Archive, error) {
	db, err := leveldb.OpenFile(directory, &opt.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open LevelDB archive in %s: %w", directory, err)
	}
	return &Archive{db: db}, nil
}

func (a *Archive) Put(name string, snapshot sandbox.Snapshot) error {
	if err := archive.CheckName(name); err != nil {
		return err
	}
	data, err := sandbox.EncodeSnapshot(snapshot)
	if err != nil {
		return err
	}
	root := snapshot.Root()
	batch := new(leveldb.Batch)
	batch.Put(SnapshotTable.key(name), data)
	batch.Put(RootTable.key(name), root[:])
	return a.db.Write(batch, nil)
}

func (a *Archive) Get(name string) (sandbox.Snapshot, error) {
	data, err := a.db.Get(SnapshotTable.key(name), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return sandbox.Snapshot{}, fmt.Errorf("%w: %q", archive.ErrNotFound, name)
	}
	if err != nil {
		return sandbox.Snapshot{}, err
	}
	return sandbox.DecodeSnapshot(data)
}

func (a *Archive) Root(name string) (common.Hash, error) {
	data, err := a.db.Get(RootTable.key(name), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return common.Hash{}, fmt.Errorf("%w: %q", archive.ErrNotFound, name)
	}
	if err != nil {
		return common.Hash{}, err
	}
	if len(data) != common.HashSize {
		return common.Hash{}, fmt.Errorf("invalid root of snapshot %q: %x", name, data)
	}
	return common.Hash(data), nil
}

func (a *Archive) List() ([]string, error) {
	iter := a.db.NewIterator(util.BytesPrefix([]byte{byte(SnapshotTable)}), nil)
	defer iter.Release()
	res := []string{}
	for iter.Next() {
		res = append(res, string(iter.Key()[1:]))
	}
	return res, iter.Error()
}

func (a *Archive) Delete(name string) error {
	batch := new(leveldb.Batch)
	batch.Delete(SnapshotTable.key(name))
	batch.Delete(RootTable.key(name))
	return a.db.Write(batch, nil)
}

func (a *Archive) Close() error {
	return a.db.Close()
}
