// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package sandbox provides an isolated, resettable key-value state for
// executing state-mutating operations. A Sandbox owns a single live
// backend.Backend and supports
//
//   - execution of operations with persistent effects (Execute),
//   - speculative execution whose effects are always discarded (DryRun),
//   - capturing and restoring point-in-time snapshots of the full keyspace
//     (TakeSnapshot, RestoreSnapshot), and
//   - registering typed extensions operations may look up while running.
//
// Operations receive an explicit *Externalities handle providing access to
// the live state. A Sandbox is not thread-safe: it is meant to be driven by a
// single caller at a time. Operations may call back into the Sandbox, e.g.
// to perform nested dry runs.
package sandbox
