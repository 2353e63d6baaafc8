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

	"github.com/pbnjay/memory"
	"github.com/urfave/cli/v2"
)

var InfoCmd = cli.Command{
	Action:    withDiagnostics(doInfo),
	Name:      "info",
	Usage:     "lists information about a snapshot file",
	ArgsUsage: "<snapshot file>",
	Flags: []cli.Flag{
		&footprintFlag,
	},
}

var footprintFlag = cli.BoolFlag{
	Name:  "footprint",
	Usage: "print the full memory footprint breakdown of the restored state",
}

func doInfo(context *cli.Context) error {
	path, err := snapshotFileArg(context)
	if err != nil {
		return err
	}
	stat, err := os.Stat(path)
	if err != nil {
		return err
	}
	snapshot, err := readSnapshotFile(path)
	if err != nil {
		return err
	}
	sb, err := restore(snapshot)
	if err != nil {
		return err
	}
	footprint := sb.GetMemoryFootprint()
	total := memory.TotalMemory()

	out := context.App.Writer
	fmt.Fprintf(out, "Variant:      %s\n", snapshot.Variant())
	fmt.Fprintf(out, "Root:         %v\n", snapshot.Root())
	fmt.Fprintf(out, "Entries:      %d\n", snapshot.Len())
	fmt.Fprintf(out, "Encoded size: %d bytes\n", stat.Size())
	if total > 0 {
		fmt.Fprintf(out, "Memory:       %d bytes (%.4f%% of %d bytes system memory)\n",
			footprint.Total(), float64(footprint.Total())/float64(total)*100, total)
	} else {
		fmt.Fprintf(out, "Memory:       %d bytes\n", footprint.Total())
	}
	if context.Bool(footprintFlag.Name) {
		fmt.Fprint(out, footprint)
	}
	return nil
}
