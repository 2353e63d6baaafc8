// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package main

import (
	"fmt"
	"os"

	"github.com/0xsoniclabs/sandbox/sandbox"
	"github.com/urfave/cli/v2"
)

func readSnapshotFile(path string) (sandbox.Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return sandbox.Snapshot{}, fmt.Errorf("failed to open snapshot file: %w", err)
	}
	defer f.Close()
	res, err := sandbox.ReadSnapshot(f)
	if err != nil {
		return sandbox.Snapshot{}, fmt.Errorf("failed to read snapshot from %s: %w", path, err)
	}
	return res, nil
}

func writeSnapshotFile(path string, snapshot sandbox.Snapshot) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create snapshot file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
	}()
	return sandbox.WriteSnapshot(f, snapshot)
}

// restore creates a sandbox of the snapshot's variant containing its state.
func restore(snapshot sandbox.Snapshot) (*sandbox.Sandbox, error) {
	sb, err := sandbox.New(sandbox.Parameters{Variant: snapshot.Variant()})
	if err != nil {
		return nil, err
	}
	if err := sb.RestoreSnapshot(snapshot); err != nil {
		return nil, err
	}
	return sb, nil
}

func snapshotFileArg(context *cli.Context) (string, error) {
	if context.Args().Len() != 1 {
		return "", fmt.Errorf("missing snapshot file parameter")
	}
	return context.Args().Get(0), nil
}
