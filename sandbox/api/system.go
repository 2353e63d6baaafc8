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
	"encoding/binary"
	"fmt"

	"github.com/0xsoniclabs/sandbox/sandbox"
	"github.com/ethereum/go-ethereum/rlp"
)

// TopicTransfer is the topic of events emitted by Transfer.
const TopicTransfer = "transfer"

const eventsPrefix = "system/events/"

var blockNumberKey = []byte("system:block")

// Event is a record emitted by an operation in the current block.
type Event struct {
	Topic string
	Data  []byte
}

func eventsKey(block uint64) []byte {
	return binary.BigEndian.AppendUint64([]byte(eventsPrefix), block)
}

func readUint64(ext *sandbox.Externalities, key []byte) (uint64, error) {
	data, found := ext.Get(key)
	if !found {
		return 0, nil
	}
	if len(data) != 8 {
		return 0, fmt.Errorf("%w: expected 8 bytes at key %q, got %d", ErrCorruptedValue, key, len(data))
	}
	return binary.BigEndian.Uint64(data), nil
}

func writeUint64(ext *sandbox.Externalities, key []byte, value uint64) {
	ext.Set(key, binary.BigEndian.AppendUint64(nil, value))
}

// BlockNumber returns the number of the current block.
func BlockNumber(ext *sandbox.Externalities) (uint64, error) {
	return readUint64(ext, blockNumberKey)
}

// SetBlockNumber sets the number of the current block.
func SetBlockNumber(ext *sandbox.Externalities, block uint64) {
	writeUint64(ext, blockNumberKey, block)
}

// AdvanceBlock moves on to the next block and returns its number. Events of
// the previous block are removed.
func AdvanceBlock(ext *sandbox.Externalities) (uint64, error) {
	current, err := BlockNumber(ext)
	if err != nil {
		return 0, err
	}
	ext.Delete(eventsKey(current))
	SetBlockNumber(ext, current+1)
	return current + 1, nil
}

// Events returns the events emitted in the current block, in emission order.
func Events(ext *sandbox.Externalities) ([]Event, error) {
	block, err := BlockNumber(ext)
	if err != nil {
		return nil, err
	}
	data, found := ext.Get(eventsKey(block))
	if !found {
		return nil, nil
	}
	var res []Event
	if err := rlp.DecodeBytes(data, &res); err != nil {
		return nil, fmt.Errorf("%w: events of block %d: %w", ErrCorruptedValue, block, err)
	}
	return res, nil
}

// EmitEvent records the given event in the current block.
func EmitEvent(ext *sandbox.Externalities, event Event) error {
	events, err := Events(ext)
	if err != nil {
		return err
	}
	block, err := BlockNumber(ext)
	if err != nil {
		return err
	}
	data, err := rlp.EncodeToBytes(append(events, event))
	if err != nil {
		return fmt.Errorf("failed to encode events: %w", err)
	}
	ext.Set(eventsKey(block), data)
	return nil
}
