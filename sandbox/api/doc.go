// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package api provides typed ledger helpers on top of the raw key-value
// state of a sandbox: account balances, block progression with events, and
// a timestamp. All helpers operate on the *sandbox.Externalities handle of a
// running operation.
//
// Keys of the individual helpers are prefixed by a namespace to avoid
// collisions:
//
//	balance/<address>            big-endian balance, absent if zero
//	balance:issuance             sum of all balances
//	system:block                 current block number
//	system/events/<block>        RLP list of events emitted in a block
//	timestamp:now                current time in milliseconds
package api
