// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package trie

import "math/bits"

// bitMap is a simple bitmap implementation for 256 bits. Inner nodes use it
// to mark which of their potential children are present.
type bitMap [256 / 64]uint64

// get returns true if the bit at the specified index is set.
func (b *bitMap) get(index byte) bool {
	return (b[index/64] & (1 << (index % 64))) != 0
}

// set sets the bit at the specified index.
func (b *bitMap) set(index byte) {
	b[index/64] |= 1 << (index % 64)
}

// any returns true if any bit in the bitmap is set.
func (b *bitMap) any() bool {
	return b[0]|b[1]|b[2]|b[3] != 0
}

// popCount returns the number of bits set in the bitmap.
func (b *bitMap) popCount() int {
	count := 0
	for _, v := range b {
		count += bits.OnesCount64(v)
	}
	return count
}

// rank returns the number of bits set below the given index. For a set bit,
// this is the position of the corresponding element in a compacted list.
func (b *bitMap) rank(index byte) int {
	word := int(index / 64)
	count := 0
	for i := range word {
		count += bits.OnesCount64(b[i])
	}
	mask := uint64(1)<<(index%64) - 1
	return count + bits.OnesCount64(b[word]&mask)
}

// bytes returns the big-endian encoding of the bitmap.
func (b *bitMap) bytes() []byte {
	res := make([]byte, 0, 32)
	for i := len(b) - 1; i >= 0; i-- {
		v := b[i]
		for shift := 56; shift >= 0; shift -= 8 {
			res = append(res, byte(v>>shift))
		}
	}
	return res
}
