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
	"errors"
	"fmt"

	"github.com/0xsoniclabs/sandbox/backend"
	"github.com/0xsoniclabs/sandbox/sandbox"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrOverflow            = errors.New("balance overflow")
	ErrCorruptedValue      = errors.New("corrupted value")
)

const balancePrefix = "balance/"

var issuanceKey = []byte("balance:issuance")

func balanceKey(account common.Address) []byte {
	return append([]byte(balancePrefix), account[:]...)
}

func readAmount(ext *sandbox.Externalities, key []byte) (*uint256.Int, error) {
	data, found := ext.Get(key)
	if !found {
		return uint256.NewInt(0), nil
	}
	if len(data) > 32 {
		return nil, fmt.Errorf("%w: amount of %d bytes at key %x", ErrCorruptedValue, len(data), key)
	}
	return new(uint256.Int).SetBytes(data), nil
}

func writeAmount(ext *sandbox.Externalities, key []byte, amount *uint256.Int) {
	if amount.IsZero() {
		ext.Delete(key)
		return
	}
	ext.Set(key, amount.Bytes())
}

// Balance returns the balance of the given account.
func Balance(ext *sandbox.Externalities, account common.Address) (*uint256.Int, error) {
	return readAmount(ext, balanceKey(account))
}

// TotalIssuance returns the sum of the balances of all accounts.
func TotalIssuance(ext *sandbox.Externalities) (*uint256.Int, error) {
	return readAmount(ext, issuanceKey)
}

// SetBalance updates the balance of the given account. The total issuance
// is adjusted accordingly.
func SetBalance(ext *sandbox.Externalities, account common.Address, amount *uint256.Int) error {
	current, err := Balance(ext, account)
	if err != nil {
		return err
	}
	issuance, err := TotalIssuance(ext)
	if err != nil {
		return err
	}
	issuance.Sub(issuance, current)
	if _, overflow := issuance.AddOverflow(issuance, amount); overflow {
		return fmt.Errorf("%w: total issuance exceeds 256 bit", ErrOverflow)
	}
	writeAmount(ext, balanceKey(account), amount)
	writeAmount(ext, issuanceKey, issuance)
	return nil
}

// Mint creates the given amount of new tokens on the given account.
func Mint(ext *sandbox.Externalities, account common.Address, amount *uint256.Int) error {
	current, err := Balance(ext, account)
	if err != nil {
		return err
	}
	if _, overflow := current.AddOverflow(current, amount); overflow {
		return fmt.Errorf("%w: balance of %v exceeds 256 bit", ErrOverflow, account)
	}
	return SetBalance(ext, account, current)
}

// Burn destroys the given amount of tokens on the given account.
func Burn(ext *sandbox.Externalities, account common.Address, amount *uint256.Int) error {
	current, err := Balance(ext, account)
	if err != nil {
		return err
	}
	if current.Lt(amount) {
		return fmt.Errorf("%w: %v has %v, needs %v", ErrInsufficientBalance, account, current, amount)
	}
	return SetBalance(ext, account, current.Sub(current, amount))
}

// Transfer moves the given amount from one account to another and emits a
// transfer event. The state is only modified if the transfer succeeds.
func Transfer(ext *sandbox.Externalities, from, to common.Address, amount *uint256.Int) error {
	fromBalance, err := Balance(ext, from)
	if err != nil {
		return err
	}
	if fromBalance.Lt(amount) {
		return fmt.Errorf("%w: %v has %v, needs %v", ErrInsufficientBalance, from, fromBalance, amount)
	}
	toBalance, err := Balance(ext, to)
	if err != nil {
		return err
	}
	if from != to {
		if _, overflow := toBalance.AddOverflow(toBalance, amount); overflow {
			return fmt.Errorf("%w: balance of %v exceeds 256 bit", ErrOverflow, to)
		}
		writeAmount(ext, balanceKey(from), fromBalance.Sub(fromBalance, amount))
		writeAmount(ext, balanceKey(to), toBalance)
	}
	return EmitEvent(ext, TransferEvent(from, to, amount))
}

// TransferEvent creates the event recording a transfer.
func TransferEvent(from, to common.Address, amount *uint256.Int) Event {
	data := make([]byte, 0, 2*common.AddressLength+32)
	data = append(data, from[:]...)
	data = append(data, to[:]...)
	data = append(data, amount.PaddedBytes(32)...)
	return Event{Topic: TopicTransfer, Data: data}
}

// SumBalances adds up all balances contained in the given entries, e.g. the
// entries of a snapshot. Besides the sum, the number of accounts holding a
// balance is returned.
func SumBalances(entries backend.RawStorage) (*uint256.Int, int, error) {
	sum := uint256.NewInt(0)
	accounts := 0
	for _, cur := range entries {
		if !cur.IsLive() || !bytes.HasPrefix(cur.Key, []byte(balancePrefix)) {
			continue
		}
		if len(cur.Key) != len(balancePrefix)+common.AddressLength || len(cur.Value) > 32 {
			return nil, 0, fmt.Errorf("%w: balance entry %x", ErrCorruptedValue, cur.Key)
		}
		if _, overflow := sum.AddOverflow(sum, new(uint256.Int).SetBytes(cur.Value)); overflow {
			return nil, 0, fmt.Errorf("%w: sum of balances exceeds 256 bit", ErrOverflow)
		}
		accounts++
	}
	return sum, accounts, nil
}
