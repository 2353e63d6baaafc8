// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package memory implements a copy-on-write in-memory storage backend. The
// committed content is held in a persistent trie, such that cloning a
// backend is cheap: a clone shares all trie nodes with the original and only
// copies the pending changes.
//
// The backend is registered under two variants:
//   - "memory" computing storage roots using parallel hashing
//   - "memory-seq" computing storage roots sequentially
//
// Both variants produce identical roots and are interchangeable, except for
// the variant name recorded in snapshots.
package memory
