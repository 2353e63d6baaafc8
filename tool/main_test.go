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
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/0xsoniclabs/sandbox/backend/flat"
	"github.com/0xsoniclabs/sandbox/sandbox"
	"github.com/stretchr/testify/require"
)

func runTool(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out
	err := app.Run(append([]string{"tool"}, args...))
	return out.String(), err
}

func TestAllCommands_Run(t *testing.T) {
	for _, cmd := range commands {
		t.Run(cmd.Name, func(t *testing.T) {
			_, err := runTool(t, cmd.Name, "--help")
			require.NoError(t, err)
		})
	}
}

func TestMain_UnknownFlagIsReported(t *testing.T) {
	_, err := runTool(t, "--nonexistent-flag")
	require.Error(t, err)
}

func createDemoSnapshot(t *testing.T, args ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "demo.snapshot")
	out, err := runTool(t, append(args, "demo", "--out", path)...)
	require.NoError(t, err)
	require.Contains(t, out, "written to "+path)
	require.FileExists(t, path)
	return path
}

func TestDemo_ProducesConsistentSnapshot(t *testing.T) {
	path := createDemoSnapshot(t)
	snapshot, err := readSnapshotFile(path)
	require.NoError(t, err)
	require.Equal(t, "memory", snapshot.Variant())

	sb, err := runDemo("memory", 4)
	require.NoError(t, err)
	require.Equal(t, sb.TakeSnapshot(), snapshot)
}

func TestDemo_VariantCanBeSelected(t *testing.T) {
	path := createDemoSnapshot(t, "--variant", flat.Variant)
	snapshot, err := readSnapshotFile(path)
	require.NoError(t, err)
	require.Equal(t, flat.Variant, snapshot.Variant())
}

func TestDemo_RequiresAtLeastTwoAccounts(t *testing.T) {
	_, err := runTool(t, "demo", "--out", filepath.Join(t.TempDir(), "x"), "--accounts", "1")
	require.ErrorContains(t, err, "at least 2 accounts")
}

func TestInfo_PrintsSnapshotSummary(t *testing.T) {
	path := createDemoSnapshot(t)
	snapshot, err := readSnapshotFile(path)
	require.NoError(t, err)

	out, err := runTool(t, "info", "--footprint", path)
	require.NoError(t, err)
	require.Contains(t, out, "Variant:      memory")
	require.Contains(t, out, "Root:         "+snapshot.Root().String())
	require.Contains(t, out, "Memory:")
	require.Contains(t, out, "backend")
}

func TestInfo_MissingFileIsReported(t *testing.T) {
	_, err := runTool(t, "info", filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	_, err = runTool(t, "info")
	require.ErrorContains(t, err, "missing snapshot file parameter")
}

func TestInfo_InvalidFileIsReported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invalid")
	require.NoError(t, os.WriteFile(path, []byte("not a snapshot"), 0600))
	_, err := runTool(t, "info", path)
	require.ErrorIs(t, err, sandbox.ErrInvalidSnapshotFormat)
}

func TestDump_PrintsAllEntries(t *testing.T) {
	path := createDemoSnapshot(t)
	snapshot, err := readSnapshotFile(path)
	require.NoError(t, err)

	out, err := runTool(t, "dump", path)
	require.NoError(t, err)
	lines := bytes.Count([]byte(out), []byte("\n"))
	require.Equal(t, snapshot.Len()+1, lines)
}

func TestTotalSupply_MatchesGenesis(t *testing.T) {
	path := createDemoSnapshot(t)
	out, err := runTool(t, "total-supply", path)
	require.NoError(t, err)
	require.Contains(t, out, "Accounts:       4")
	require.Contains(t, out, "Total balances: 4000")
	require.Contains(t, out, "Total issuance: 4000")
}

func TestArchive_SnapshotsCanBeArchivedAndRetrieved(t *testing.T) {
	for _, kind := range []string{"ldb", "sqlite"} {
		t.Run(kind, func(t *testing.T) {
			path := createDemoSnapshot(t)
			dir := t.TempDir()
			archiveArgs := func(args ...string) []string {
				return append([]string{"archive", "--archive-dir", dir, "--archive-kind", kind}, args...)
			}

			_, err := runTool(t, archiveArgs("put", "demo", path)...)
			require.NoError(t, err)

			out, err := runTool(t, archiveArgs("list")...)
			require.NoError(t, err)
			snapshot, err := readSnapshotFile(path)
			require.NoError(t, err)
			require.Equal(t, "demo\t"+snapshot.Root().String()+"\n", out)

			restoredPath := filepath.Join(t.TempDir(), "restored")
			_, err = runTool(t, archiveArgs("get", "demo", restoredPath)...)
			require.NoError(t, err)
			original, err := os.ReadFile(path)
			require.NoError(t, err)
			restored, err := os.ReadFile(restoredPath)
			require.NoError(t, err)
			require.Equal(t, original, restored)

			_, err = runTool(t, archiveArgs("delete", "demo")...)
			require.NoError(t, err)
			out, err = runTool(t, archiveArgs("list")...)
			require.NoError(t, err)
			require.Empty(t, out)

			_, err = runTool(t, archiveArgs("get", "demo", restoredPath)...)
			require.Error(t, err)
		})
	}
}

func TestArchive_DirectoryIsRequired(t *testing.T) {
	_, err := runTool(t, "archive", "list")
	require.ErrorContains(t, err, "missing archive directory")
}

func TestArchive_UnknownKindIsRejected(t *testing.T) {
	_, err := runTool(t, "archive", "--archive-dir", t.TempDir(), "--archive-kind", "csv", "list")
	require.ErrorContains(t, err, "unknown archive kind")
}

func TestArchive_SettingsCanBeProvidedByEnvironment(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("SANDBOX_ARCHIVE_DIR", dir)
	t.Setenv("SANDBOX_ARCHIVE_KIND", "sqlite")
	path := createDemoSnapshot(t)

	_, err := runTool(t, "archive", "put", "demo", path)
	require.NoError(t, err)
	require.FileExists(t, filepath.Join(dir, "snapshots.sqlite"))
}
