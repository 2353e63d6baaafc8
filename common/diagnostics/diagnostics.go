// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package diagnostics adds optional performance diagnostics to command line
// actions: a pprof server, CPU profiling and execution tracing.
package diagnostics

import (
	"fmt"
	"log/slog"
	"net/http"
	_ "net/http/pprof"
	"os"
	"runtime"
	"runtime/pprof"
	"runtime/trace"
	"strings"

	"github.com/urfave/cli/v2"
)

// Flags are the command line flags controlling the diagnostics of an
// action. Unset flags disable the respective diagnostic.
type Flags struct {
	Port       *cli.IntFlag
	CpuProfile *cli.StringFlag
	Trace      *cli.StringFlag
}

// DefaultFlags returns the flags used by the command line tools of this
// module.
func DefaultFlags() Flags {
	return Flags{
		Port: &cli.IntFlag{
			Name:  "diagnostic-port",
			Usage: "enable hosting of a realtime diagnostic server by providing a port",
		},
		CpuProfile: &cli.StringFlag{
			Name:  "cpuprofile",
			Usage: "sets the target file for storing CPU profiles to, disabled if empty",
		},
		Trace: &cli.StringFlag{
			Name:  "tracefile",
			Usage: "sets the target file for traces to, disabled if empty",
		},
	}
}

// List returns the flags to be registered at a cli.App or cli.Command.
func (f Flags) List() []cli.Flag {
	return []cli.Flag{f.Port, f.CpuProfile, f.Trace}
}

// AddPerformanceDiagnosticsAction wraps the given action such that the
// diagnostics requested through the given flags are active while it runs.
func AddPerformanceDiagnosticsAction(action cli.ActionFunc, flags Flags) cli.ActionFunc {
	return func(context *cli.Context) error {
		startDiagnosticServer(context.Int(flags.Port.Name))

		if filename := strings.TrimSpace(context.String(flags.CpuProfile.Name)); filename != "" {
			stop, err := startCpuProfiler(filename)
			if err != nil {
				return err
			}
			defer stop()
		}

		if filename := strings.TrimSpace(context.String(flags.Trace.Name)); filename != "" {
			stop, err := startTracer(filename)
			if err != nil {
				return err
			}
			defer stop()
		}

		return action(context)
	}
}

func startDiagnosticServer(port int) {
	if port <= 0 || port >= (1<<16) {
		return
	}
	addr := fmt.Sprintf("localhost:%d", port)
	slog.Info("starting diagnostic server",
		"url", "http://"+addr+"/debug/pprof/",
		"docs", "https://pkg.go.dev/net/http/pprof#hdr-Usage_examples",
	)
	// Full block and mutex sampling may impact performance.
	runtime.SetBlockProfileRate(1)
	runtime.SetMutexProfileFraction(1)
	go func() {
		if err := http.ListenAndServe(addr, nil); err != nil {
			slog.Error("diagnostic server stopped", "error", err)
		}
	}()
}

func startCpuProfiler(filename string) (func(), error) {
	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("could not create CPU profile: %w", err)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		f.Close()
		return nil, fmt.Errorf("could not start CPU profile: %w", err)
	}
	return func() {
		pprof.StopCPUProfile()
		if err := f.Close(); err != nil {
			slog.Error("failed to close CPU profile", "file", filename, "error", err)
		}
	}, nil
}

func startTracer(filename string) (func(), error) {
	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace file: %w", err)
	}
	if err := trace.Start(f); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to start trace: %w", err)
	}
	return func() {
		trace.Stop()
		if err := f.Close(); err != nil {
			slog.Error("failed to close trace file", "file", filename, "error", err)
		}
	}, nil
}
