// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package api

import (
	"bytes"
	"maps"
	"slices"
	"time"

	"github.com/0xsoniclabs/sandbox/sandbox"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// GenesisConfig defines the initial state of a ledger sandbox.
type GenesisConfig struct {
	Balances    map[common.Address]*uint256.Int
	BlockNumber uint64
	Timestamp   time.Time
}

var _ sandbox.Config = GenesisConfig{}

func (c GenesisConfig) InitializeStorage(ext *sandbox.Externalities) error {
	accounts := slices.SortedFunc(maps.Keys(c.Balances), func(a, b common.Address) int {
		return bytes.Compare(a[:], b[:])
	})
	for _, account := range accounts {
		if c.Balances[account] == nil {
			continue
		}
		if err := Mint(ext, account, c.Balances[account]); err != nil {
			return err
		}
	}
	SetBlockNumber(ext, c.BlockNumber)
	if !c.Timestamp.IsZero() {
		SetTimestamp(ext, c.Timestamp)
	}
	return nil
}
