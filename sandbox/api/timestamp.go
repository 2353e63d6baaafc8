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
	"time"

	"github.com/0xsoniclabs/sandbox/sandbox"
)

var timestampKey = []byte("timestamp:now")

// Timestamp returns the current time of the ledger.
func Timestamp(ext *sandbox.Externalities) (time.Time, error) {
	millis, err := readUint64(ext, timestampKey)
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(int64(millis)).UTC(), nil
}

// SetTimestamp sets the current time of the ledger, at millisecond
// precision.
func SetTimestamp(ext *sandbox.Externalities, now time.Time) {
	writeUint64(ext, timestampKey, uint64(now.UnixMilli()))
}
