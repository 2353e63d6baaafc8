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

	"github.com/urfave/cli/v2"
)

var DumpCmd = cli.Command{
	Action:    withDiagnostics(doDump),
	Name:      "dump",
	Usage:     "prints the entries of a snapshot file",
	ArgsUsage: "<snapshot file>",
}

func doDump(context *cli.Context) error {
	path, err := snapshotFileArg(context)
	if err != nil {
		return err
	}
	snapshot, err := readSnapshotFile(path)
	if err != nil {
		return err
	}
	out := context.App.Writer
	fmt.Fprintf(out, "# variant %s, root %v\n", snapshot.Variant(), snapshot.Root())
	for _, cur := range snapshot.Entries() {
		fmt.Fprintf(out, "%x %x %d\n", cur.Key, cur.Value, cur.Refs)
	}
	return nil
}
