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
	"log/slog"

	"github.com/0xsoniclabs/sandbox/archive"
	"github.com/0xsoniclabs/sandbox/archive/ldb"
	"github.com/0xsoniclabs/sandbox/archive/sqlite"
	"github.com/urfave/cli/v2"
)

var (
	archiveDirFlag = cli.StringFlag{
		Name:  "archive-dir",
		Usage: "directory of the snapshot archive",
	}
	archiveKindFlag = cli.StringFlag{
		Name:  "archive-kind",
		Usage: "storage format of the snapshot archive (ldb, sqlite)",
	}
)

var ArchiveCmd = cli.Command{
	Name:  "archive",
	Usage: "manages named snapshots in a persistent archive",
	Flags: []cli.Flag{
		&archiveDirFlag,
		&archiveKindFlag,
	},
	Subcommands: []*cli.Command{
		{
			Action:    withDiagnostics(withArchive(doArchivePut)),
			Name:      "put",
			Usage:     "stores a snapshot file in the archive",
			ArgsUsage: "<name> <snapshot file>",
		},
		{
			Action:    withDiagnostics(withArchive(doArchiveGet)),
			Name:      "get",
			Usage:     "writes an archived snapshot to a file",
			ArgsUsage: "<name> <snapshot file>",
		},
		{
			Action: withArchive(doArchiveList),
			Name:   "list",
			Usage:  "lists the names and roots of all archived snapshots",
		},
		{
			Action:    withArchive(doArchiveDelete),
			Name:      "delete",
			Usage:     "removes a snapshot from the archive",
			ArgsUsage: "<name>",
		},
	},
}

// openArchive opens the archive described by the given configuration.
func openArchive(config ArchiveConfig) (archive.Archive, error) {
	if config.Dir == "" {
		return nil, fmt.Errorf("missing archive directory, use --%s", archiveDirFlag.Name)
	}
	switch config.Kind {
	case "ldb":
		return ldb.Open(config.Dir)
	case "sqlite":
		return sqlite.Open(config.Dir)
	}
	return nil, fmt.Errorf("unknown archive kind %q", config.Kind)
}

func withArchive(action func(*cli.Context, archive.Archive) error) cli.ActionFunc {
	return func(context *cli.Context) (err error) {
		config, err := loadConfig(context)
		if err != nil {
			return err
		}
		a, err := openArchive(config.Archive)
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := a.Close(); err == nil {
				err = closeErr
			}
		}()
		return action(context, a)
	}
}

func doArchivePut(context *cli.Context, a archive.Archive) error {
	if context.Args().Len() != 2 {
		return fmt.Errorf("expected snapshot name and file parameters")
	}
	name, path := context.Args().Get(0), context.Args().Get(1)
	snapshot, err := readSnapshotFile(path)
	if err != nil {
		return err
	}
	if err := a.Put(name, snapshot); err != nil {
		return err
	}
	slog.Info("snapshot archived", "name", name, "root", snapshot.Root(), "entries", snapshot.Len())
	return nil
}

func doArchiveGet(context *cli.Context, a archive.Archive) error {
	if context.Args().Len() != 2 {
		return fmt.Errorf("expected snapshot name and file parameters")
	}
	name, path := context.Args().Get(0), context.Args().Get(1)
	snapshot, err := a.Get(name)
	if err != nil {
		return err
	}
	return writeSnapshotFile(path, snapshot)
}

func doArchiveList(context *cli.Context, a archive.Archive) error {
	names, err := a.List()
	if err != nil {
		return err
	}
	for _, name := range names {
		root, err := a.Root(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(context.App.Writer, "%s\t%v\n", name, root)
	}
	return nil
}

func doArchiveDelete(context *cli.Context, a archive.Archive) error {
	if context.Args().Len() != 1 {
		return fmt.Errorf("missing snapshot name parameter")
	}
	return a.Delete(context.Args().Get(0))
}
