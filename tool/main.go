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

	"github.com/0xsoniclabs/sandbox/common/diagnostics"
	"github.com/urfave/cli/v2"
)

// Run using
//  go run ./tool <command> <flags>

var (
	diagnosticFlags = diagnostics.DefaultFlags()

	configFlag = cli.StringFlag{
		Name:  "config",
		Usage: "YAML file with default settings; SANDBOX_* environment variables override its values",
	}
	logLevelFlag = cli.StringFlag{
		Name:  "log-level",
		Usage: "minimum level of log messages (debug, info, warn, error)",
	}
	logFormatFlag = cli.StringFlag{
		Name:  "log-format",
		Usage: "format of log messages (text, json)",
	}
	variantFlag = cli.StringFlag{
		Name:  "variant",
		Usage: "backend variant of sandboxes created by the tool",
	}
)

var commands = []*cli.Command{
	&InfoCmd,
	&DumpCmd,
	&ArchiveCmd,
	&TotalSupplyCmd,
	&DemoCmd,
}

func newApp() *cli.App {
	return &cli.App{
		Name:      "tool",
		Usage:     "state sandbox toolbox",
		Copyright: "(c) 2025 Sonic Operations Ltd",
		Flags: append(diagnosticFlags.List(),
			&configFlag,
			&logLevelFlag,
			&logFormatFlag,
			&variantFlag,
		),
		Before:   setupLogging,
		Commands: commands,
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// withDiagnostics wraps the given action with the diagnostics requested on
// the command line.
func withDiagnostics(action cli.ActionFunc) cli.ActionFunc {
	return diagnostics.AddPerformanceDiagnosticsAction(action, diagnosticFlags)
}
