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

	"github.com/0xsoniclabs/sandbox/sandbox"
	"github.com/0xsoniclabs/sandbox/sandbox/api"
	"github.com/holiman/uint256"
	"github.com/urfave/cli/v2"
)

var TotalSupplyCmd = cli.Command{
	Action:    withDiagnostics(doTotalSupplyCalc),
	Name:      "total-supply",
	Usage:     "calculate total supply of tokens in a snapshot",
	ArgsUsage: "<snapshot file>",
}

func doTotalSupplyCalc(context *cli.Context) error {
	path, err := snapshotFileArg(context)
	if err != nil {
		return err
	}
	snapshot, err := readSnapshotFile(path)
	if err != nil {
		return err
	}
	sum, accounts, err := api.SumBalances(snapshot.Entries())
	if err != nil {
		return err
	}

	sb, err := restore(snapshot)
	if err != nil {
		return err
	}
	issuance, err := sandbox.Execute(sb, func(ext *sandbox.Externalities) (*uint256.Int, error) {
		return api.TotalIssuance(ext)
	})
	if err != nil {
		return err
	}

	out := context.App.Writer
	fmt.Fprintf(out, "Accounts:       %d\n", accounts)
	fmt.Fprintf(out, "Total balances: %s\n", sum.Dec())
	fmt.Fprintf(out, "Total issuance: %s\n", issuance.Dec())
	if !sum.Eq(issuance) {
		return fmt.Errorf("total issuance %s does not match sum of balances %s", issuance.Dec(), sum.Dec())
	}
	return nil
}
