// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package sandbox

import (
	"fmt"
	"testing"

	"github.com/0xsoniclabs/sandbox/backend"
	"github.com/0xsoniclabs/sandbox/backend/flat"
	"github.com/0xsoniclabs/sandbox/backend/memory"
	"github.com/stretchr/testify/require"
)

func TestSnapshot_EmptySandboxProducesEmptySnapshot(t *testing.T) {
	forEachVariant(t, func(t *testing.T, sb *Sandbox) {
		snapshot := sb.TakeSnapshot()
		require.Equal(t, sb.Variant(), snapshot.Variant())
		require.Equal(t, backend.EmptyRoot, snapshot.Root())
		require.Zero(t, snapshot.Len())
		require.Empty(t, snapshot.Entries())
	})
}

func TestSnapshot_CapturesEntriesInKeyOrder(t *testing.T) {
	forEachVariant(t, func(t *testing.T, sb *Sandbox) {
		mustExecute(t, sb, write("b", "2"))
		mustExecute(t, sb, write("a", "1"))
		mustExecute(t, sb, write("", "0"))

		snapshot := sb.TakeSnapshot()
		require.Equal(t, sb.Root(), snapshot.Root())
		require.Equal(t, backend.RawStorage{
			{Key: []byte{}, Entry: backend.Entry{Value: []byte("0"), Refs: 1}},
			{Key: []byte("a"), Entry: backend.Entry{Value: []byte("1"), Refs: 1}},
			{Key: []byte("b"), Entry: backend.Entry{Value: []byte("2"), Refs: 1}},
		}, snapshot.Entries())
	})
}

func TestSnapshot_LiveStateIsNotModified(t *testing.T) {
	forEachVariant(t, func(t *testing.T, sb *Sandbox) {
		mustExecute(t, sb, write("a", "1"))
		root := sb.Root()
		first := sb.TakeSnapshot()
		second := sb.TakeSnapshot()
		require.Equal(t, first, second)
		require.Equal(t, root, sb.Root())
		require.False(t, sb.backend.HasPending())
	})
}

func TestSnapshot_DeletedEntriesAreFilteredButCoveredByRoot(t *testing.T) {
	forEachVariant(t, func(t *testing.T, sb *Sandbox) {
		mustExecute(t, sb, write("a", "1"))
		mustExecute(t, sb, write("k", "v"))
		mustExecute(t, sb, func(ext *Externalities) (struct{}, error) {
			ext.Delete([]byte("k"))
			return struct{}{}, nil
		})

		snapshot := sb.TakeSnapshot()
		require.Equal(t, 1, snapshot.Len())
		_, found := snapshot.Get([]byte("k"))
		require.False(t, found)

		reference, err := New(Parameters{Variant: sb.Variant()})
		require.NoError(t, err)
		mustExecute(t, reference, write("a", "1"))
		require.NotEqual(t, reference.Root(), snapshot.Root(), "root must reflect the tombstone")
		require.Equal(t, sb.Root(), snapshot.Root())
	})
}

func TestSnapshot_ReleasedEntriesAreFiltered(t *testing.T) {
	forEachVariant(t, func(t *testing.T, sb *Sandbox) {
		mustExecute(t, sb, func(ext *Externalities) (struct{}, error) {
			ext.Retain([]byte("a"))
			ext.Retain([]byte("a"))
			ext.Release([]byte("a"))
			ext.Release([]byte("b"))
			return struct{}{}, nil
		})
		snapshot := sb.TakeSnapshot()
		require.Equal(t, backend.RawStorage{
			{Key: []byte("a"), Entry: backend.Entry{Value: []byte{}, Refs: 1}},
		}, snapshot.Entries())
	})
}

func TestSnapshot_IncludesWritesOfRunningOperations(t *testing.T) {
	forEachVariant(t, func(t *testing.T, sb *Sandbox) {
		mustExecute(t, sb, func(ext *Externalities) (struct{}, error) {
			ext.Set([]byte("a"), []byte("1"))
			snapshot := sb.TakeSnapshot()
			require.Equal(t, 1, snapshot.Len())
			require.True(t, sb.backend.HasPending(), "live state must not be committed")
			return struct{}{}, nil
		})
	})
}

func TestSnapshot_IsIndependentOfLiveState(t *testing.T) {
	forEachVariant(t, func(t *testing.T, sb *Sandbox) {
		mustExecute(t, sb, write("a", "1"))
		snapshot := sb.TakeSnapshot()
		mustExecute(t, sb, write("a", "2"))
		mustExecute(t, sb, write("b", "3"))

		value, found := snapshot.Get([]byte("a"))
		require.True(t, found)
		require.Equal(t, []byte("1"), value)
		require.Equal(t, 1, snapshot.Len())

		entries := snapshot.Entries()
		entries[0].Value[0] = 'x'
		value, _ = snapshot.Get([]byte("a"))
		require.Equal(t, []byte("1"), value)
	})
}

func TestSnapshot_RestoreRoundTrip(t *testing.T) {
	forEachVariant(t, func(t *testing.T, sb *Sandbox) {
		for i := range 50 {
			mustExecute(t, sb, write(fmt.Sprintf("key-%d", i), fmt.Sprintf("value-%d", i)))
		}
		mustExecute(t, sb, func(ext *Externalities) (struct{}, error) {
			ext.Delete([]byte("key-7"))
			ext.Retain([]byte("key-8"))
			return struct{}{}, nil
		})
		snapshot := sb.TakeSnapshot()

		mustExecute(t, sb, write("key-1", "changed"))
		mustExecute(t, sb, write("other", "value"))
		require.NotEqual(t, snapshot.Root(), sb.Root())

		require.NoError(t, sb.RestoreSnapshot(snapshot))
		require.Equal(t, snapshot.Root(), sb.Root())
		require.Equal(t, snapshot, sb.TakeSnapshot())

		value, err := Execute(sb, func(ext *Externalities) (int32, error) {
			return ext.Refs([]byte("key-8")), nil
		})
		require.NoError(t, err)
		require.EqualValues(t, 2, value)
	})
}

func TestSnapshot_RestoredStateCanBeModified(t *testing.T) {
	forEachVariant(t, func(t *testing.T, sb *Sandbox) {
		mustExecute(t, sb, write("a", "1"))
		snapshot := sb.TakeSnapshot()
		require.NoError(t, sb.RestoreSnapshot(snapshot))
		mustExecute(t, sb, write("b", "2"))

		reference, err := New(Parameters{Variant: sb.Variant()})
		require.NoError(t, err)
		mustExecute(t, reference, write("a", "1"))
		mustExecute(t, reference, write("b", "2"))
		require.Equal(t, reference.Root(), sb.Root())

		// the snapshot is not affected by the modification
		require.Equal(t, 1, snapshot.Len())
		require.NoError(t, sb.RestoreSnapshot(snapshot))
		require.Equal(t, snapshot, sb.TakeSnapshot())
	})
}

func TestSnapshot_RestoringOneSnapshotKeepsOthersValid(t *testing.T) {
	forEachVariant(t, func(t *testing.T, sb *Sandbox) {
		mustExecute(t, sb, write("a", "1"))
		first := sb.TakeSnapshot()
		mustExecute(t, sb, write("b", "2"))
		second := sb.TakeSnapshot()

		require.NoError(t, sb.RestoreSnapshot(first))
		require.Equal(t, first, sb.TakeSnapshot())
		require.NoError(t, sb.RestoreSnapshot(second))
		require.Equal(t, second, sb.TakeSnapshot())
		require.NoError(t, sb.RestoreSnapshot(first))
		require.Equal(t, first, sb.TakeSnapshot())
	})
}

func TestSnapshot_SnapshotsCanBeRestoredInOtherSandboxes(t *testing.T) {
	forEachVariant(t, func(t *testing.T, sb *Sandbox) {
		mustExecute(t, sb, write("a", "1"))
		snapshot := sb.TakeSnapshot()

		other, err := New(Parameters{Variant: sb.Variant()})
		require.NoError(t, err)
		require.NoError(t, other.RestoreSnapshot(snapshot))
		require.Equal(t, sb.Root(), other.Root())
	})
}

func TestSnapshot_SnapshotsOfOtherVariantsAreRejected(t *testing.T) {
	sb, err := New(Parameters{Variant: memory.Variant})
	require.NoError(t, err)
	other, err := New(Parameters{Variant: flat.Variant})
	require.NoError(t, err)
	mustExecute(t, sb, write("a", "1"))

	before := sb.Root()
	err = sb.RestoreSnapshot(other.TakeSnapshot())
	require.ErrorIs(t, err, ErrIncompatibleSnapshot)
	require.Equal(t, before, sb.Root())
}

func TestSnapshot_DryRunDoesNotAffectSnapshot(t *testing.T) {
	forEachVariant(t, func(t *testing.T, sb *Sandbox) {
		writes := []func(*Externalities) (struct{}, error){
			write("a", "1"), write("b", "2"), write("a", "3"),
		}
		for _, op := range writes {
			mustExecute(t, sb, op)
		}
		before := sb.TakeSnapshot()
		for _, op := range writes {
			_, err := DryRun(sb, func(sb *Sandbox) (struct{}, error) {
				return Execute(sb, op)
			})
			require.NoError(t, err)
			require.Equal(t, before, sb.TakeSnapshot())
		}
	})
}

func TestSnapshot_StringSummarizesContent(t *testing.T) {
	sb, err := New(Parameters{Variant: flat.Variant})
	require.NoError(t, err)
	mustExecute(t, sb, write("a", "1"))
	snapshot := sb.TakeSnapshot()
	require.Equal(t,
		fmt.Sprintf("Snapshot{variant: flat, root: %v, entries: 1}", snapshot.Root()),
		snapshot.String(),
	)
}
