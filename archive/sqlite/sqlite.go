// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/0xsoniclabs/sandbox/archive"
	"github.com/0xsoniclabs/sandbox/common"
	"github.com/0xsoniclabs/sandbox/sandbox"
	_ "github.com/mattn/go-sqlite3"
)

// FileName is the name of the database file within an archive directory.
const FileName = "snapshots.sqlite"

const createTable = `CREATE TABLE IF NOT EXISTS snapshots (
	name    TEXT PRIMARY KEY,
	variant TEXT NOT NULL,
	root    BLOB NOT NULL,
	data    BLOB NOT NULL
)`

const (
	putSnapshot    = "INSERT OR REPLACE INTO snapshots(name, variant, root, data) VALUES (?, ?, ?, ?)"
	getSnapshot    = "SELECT data FROM snapshots WHERE name = ?"
	getRoot        = "SELECT root FROM snapshots WHERE name = ?"
	listSnapshots  = "SELECT name FROM snapshots ORDER BY name"
	deleteSnapshot = "DELETE FROM snapshots WHERE name = ?"
)

// Archive is a SQLite based snapshot archive.
type Archive struct {
	db *sql.DB
}

var _ archive.Archive = (*Archive)(nil)

// Open opens or creates an archive in the given directory.
func Open(directory string) (*Archive, error) {
	db, err := sql.Open("sqlite3", filepath.Join(directory, FileName))
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite archive in %s: %w", directory, err)
	}
	if _, err := db.Exec(createTable); err != nil {
		return nil, errors.Join(
			fmt.Errorf("failed to create snapshot table: %w", err),
			db.Close(),
		)
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
	_, err = a.db.Exec(putSnapshot, name, snapshot.Variant(), root[:], data)
	return err
}

func (a *Archive) Get(name string) (sandbox.Snapshot, error) {
	var data []byte
	err := a.db.QueryRow(getSnapshot, name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return sandbox.Snapshot{}, fmt.Errorf("%w: %q", archive.ErrNotFound, name)
	}
	if err != nil {
		return sandbox.Snapshot{}, err
	}
	return sandbox.DecodeSnapshot(data)
}

func (a *Archive) Root(name string) (common.Hash, error) {
	var data []byte
	err := a.db.QueryRow(getRoot, name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
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
	rows, err := a.db.Query(listSnapshots)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		res = append(res, name)
	}
	return res, rows.Err()
}

func (a *Archive) Delete(name string) error {
	_, err := a.db.Exec(deleteSnapshot, name)
	return err
}

func (a *Archive) Close() error {
	return a.db.Close()
}
