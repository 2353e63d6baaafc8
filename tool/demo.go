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
	"math/big"
	"time"

	"github.com/0xsoniclabs/sandbox/sandbox"
	"github.com/0xsoniclabs/sandbox/sandbox/api"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/urfave/cli/v2"
)

var DemoCmd = cli.Command{
	Action: withDiagnostics(doDemo),
	Name:   "demo",
	Usage:  "runs a few transfers in a fresh ledger sandbox and stores the resulting snapshot",
	Flags: []cli.Flag{
		&outFlag,
		&accountsFlag,
	},
}

var (
	outFlag = cli.StringFlag{
		Name:     "out",
		Usage:    "target file of the produced snapshot",
		Required: true,
	}
	accountsFlag = cli.IntFlag{
		Name:  "accounts",
		Usage: "number of accounts in the genesis state",
		Value: 4,
	}
)

func demoAccount(i int) common.Address {
	return common.BigToAddress(big.NewInt(int64(i + 1)))
}

// runDemo performs the demo scenario on a new sandbox: every account sends a
// part of its funds to the next account, and a speculative transfer of all
// funds is evaluated without affecting the state.
func runDemo(variant string, accounts int) (*sandbox.Sandbox, error) {
	if accounts < 2 {
		return nil, fmt.Errorf("at least 2 accounts are required, got %d", accounts)
	}
	genesis := api.GenesisConfig{
		Balances:  map[common.Address]*uint256.Int{},
		Timestamp: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	for i := range accounts {
		genesis.Balances[demoAccount(i)] = uint256.NewInt(1_000)
	}
	sb, err := sandbox.New(sandbox.Parameters{Variant: variant, Config: genesis})
	if err != nil {
		return nil, err
	}
	slog.Info("genesis created", "root", sb.Root(), "accounts", accounts)

	_, err = sandbox.Execute(sb, func(ext *sandbox.Externalities) (struct{}, error) {
		for i := range accounts {
			from, to := demoAccount(i), demoAccount((i+1)%accounts)
			if err := api.Transfer(ext, from, to, uint256.NewInt(uint64(10*(i+1)))); err != nil {
				return struct{}{}, err
			}
		}
		_, err := api.AdvanceBlock(ext)
		return struct{}{}, err
	})
	if err != nil {
		return nil, err
	}
	slog.Info("transfers executed", "root", sb.Root())

	// Moving all funds of the first account is only evaluated.
	balance, err := sandbox.DryRun(sb, func(sb *sandbox.Sandbox) (*uint256.Int, error) {
		return sandbox.Execute(sb, func(ext *sandbox.Externalities) (*uint256.Int, error) {
			from, to := demoAccount(0), demoAccount(1)
			funds, err := api.Balance(ext, from)
			if err != nil {
				return nil, err
			}
			if err := api.Transfer(ext, from, to, funds); err != nil {
				return nil, err
			}
			return api.Balance(ext, to)
		})
	})
	if err != nil {
		return nil, err
	}
	slog.Info("dry run evaluated", "balance", balance.Dec(), "root", sb.Root())
	return sb, nil
}

func doDemo(context *cli.Context) error {
	config, err := loadConfig(context)
	if err != nil {
		return err
	}
	sb, err := runDemo(config.Variant, context.Int(accountsFlag.Name))
	if err != nil {
		return err
	}
	snapshot := sb.TakeSnapshot()
	path := context.String(outFlag.Name)
	if err := writeSnapshotFile(path, snapshot); err != nil {
		return err
	}
	fmt.Fprintf(context.App.Writer, "Snapshot with %d entries and root %v written to %s\n", snapshot.Len(), snapshot.Root(), path)
	return nil
}
