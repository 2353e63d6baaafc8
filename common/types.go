// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package common

import (
	"bytes"
	"encoding/hex"

	"golang.org/x/crypto/sha3"
)

// HashSize is the size of a Hash in bytes.
const HashSize = 32

// Hash is a 32-byte fingerprint, used for storage roots and node hashes.
type Hash [HashSize]byte

// Compare returns -1, 0, or 1 depending on whether h is ordered before, equal
// to, or after other.
func (h *Hash) Compare(other *Hash) int {
	return bytes.Compare(h[:], other[:])
}

// String renders the hash as a 0x-prefixed hex string.
func (h Hash) String() string {
	return "0x" + hex.EncodeToString(h[:])
}

// Keccak256 computes the Keccak256 hash of the concatenation of the given
// byte slices.
func Keccak256(data ...[]byte) Hash {
	hasher := sha3.NewLegacyKeccak256()
	for _, cur := range data {
		hasher.Write(cur)
	}
	var res Hash
	hasher.Sum(res[:0])
	return res
}
