// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package backend

import (
	"testing"

	"github.com/0xsoniclabs/sandbox/common"
	"github.com/stretchr/testify/require"
)

func TestEntry_IsLive_OnlyForPositiveReferenceCounts(t *testing.T) {
	require.True(t, Entry{Refs: 1}.IsLive())
	require.True(t, Entry{Refs: 12}.IsLive())
	require.False(t, Entry{Refs: 0}.IsLive())
	require.False(t, Entry{Refs: -1}.IsLive())
}

func TestRawStorage_Live_FiltersTombstonesAndKeepsOrder(t *testing.T) {
	storage := RawStorage{
		{Key: []byte("c"), Entry: Entry{Value: []byte{3}, Refs: 1}},
		{Key: []byte("a"), Entry: Entry{Value: []byte{1}, Refs: 0}},
		{Key: []byte("b"), Entry: Entry{Value: []byte{2}, Refs: 2}},
		{Key: []byte("d"), Entry: Entry{Value: []byte{4}, Refs: -3}},
	}
	require.Equal(t, RawStorage{storage[0], storage[2]}, storage.Live())
}

func TestRawStorage_Clone_DoesNotShareBuffers(t *testing.T) {
	require := require.New(t)
	storage := RawStorage{{Key: []byte("a"), Entry: Entry{Value: []byte{1}, Refs: 1}}}
	clone := storage.Clone()
	require.Equal(storage, clone)

	clone[0].Key[0] = 'b'
	clone[0].Value[0] = 2
	require.Equal([]byte("a"), storage[0].Key)
	require.Equal([]byte{1}, storage[0].Value)

	require.Nil(RawStorage(nil).Clone())
}

func TestChanges_RecordsLatestStatePerKey(t *testing.T) {
	require := require.New(t)
	changes := NewChanges()
	require.Zero(changes.Len())

	changes.Put([]byte("b"), Entry{Value: []byte{1}, Refs: 1})
	changes.Put([]byte("a"), Entry{Value: []byte{2}, Refs: 1})
	changes.Put([]byte("b"), Entry{Value: []byte{3}, Refs: 0})

	require.Equal(2, changes.Len())
	entry, found := changes.Get([]byte("b"))
	require.True(found)
	require.Equal(Entry{Value: []byte{3}, Refs: 0}, entry)

	_, found = changes.Get([]byte("c"))
	require.False(found)

	sorted := changes.Sorted()
	require.Len(sorted, 2)
	require.Equal([]byte("a"), sorted[0].Key)
	require.Equal([]byte("b"), sorted[1].Key)

	changes.Reset()
	require.Zero(changes.Len())
}

func TestChanges_Clone_IsIndependent(t *testing.T) {
	require := require.New(t)
	changes := NewChanges()
	changes.Put([]byte("a"), Entry{Refs: 1})

	clone := changes.Clone()
	clone.Put([]byte("b"), Entry{Refs: 1})
	changes.Reset()

	require.Zero(changes.Len())
	require.Equal(2, clone.Len())
}

func TestSetEntry_RevivesTombstonesAndKeepsReferenceCounts(t *testing.T) {
	require := require.New(t)
	value := []byte{1, 2}

	require.Equal(Entry{Value: value, Refs: 1}, SetEntry(Entry{}, false, value))
	require.Equal(Entry{Value: value, Refs: 1}, SetEntry(Entry{Refs: 0}, true, value))
	require.Equal(Entry{Value: value, Refs: 1}, SetEntry(Entry{Refs: -2}, true, value))
	require.Equal(Entry{Value: value, Refs: 5}, SetEntry(Entry{Refs: 5}, true, value))

	res := SetEntry(Entry{}, false, value)
	value[0] = 9
	require.Equal([]byte{1, 2}, res.Value, "value must be copied")
}

func TestDeleteEntry_TurnsLiveEntriesIntoTombstones(t *testing.T) {
	require := require.New(t)

	res, changed := DeleteEntry(Entry{Value: []byte{1}, Refs: 3}, true)
	require.True(changed)
	require.Equal(Entry{Value: []byte{1}, Refs: 0}, res)

	_, changed = DeleteEntry(Entry{}, false)
	require.False(changed)

	_, changed = DeleteEntry(Entry{Refs: -1}, true)
	require.False(changed)
}

func TestRetainAndReleaseEntry_UpdateReferenceCounts(t *testing.T) {
	require := require.New(t)

	require.Equal(Entry{Value: []byte{}, Refs: 1}, RetainEntry(Entry{}, false))
	require.Equal(Entry{Value: []byte{7}, Refs: 3}, RetainEntry(Entry{Value: []byte{7}, Refs: 2}, true))

	require.Equal(Entry{Value: []byte{}, Refs: -1}, ReleaseEntry(Entry{}, false))
	require.Equal(Entry{Value: []byte{7}, Refs: 0}, ReleaseEntry(Entry{Value: []byte{7}, Refs: 1}, true))
}

func TestGetFactory_UnknownVariantIsReported(t *testing.T) {
	_, err := GetFactory(Configuration{Variant: "does-not-exist"})
	require.ErrorIs(t, err, ErrUnknownVariant)
}

func TestRegisterFactory_RegisteredFactoryCanBeRetrieved(t *testing.T) {
	require := require.New(t)
	config := Configuration{Variant: "test-registry"}
	called := false
	RegisterFactory(config, func(RawStorage, common.Hash) (Backend, error) {
		called = true
		return nil, nil
	})

	factory, err := GetFactory(config)
	require.NoError(err)
	_, err = factory(nil, EmptyRoot)
	require.NoError(err)
	require.True(called)
	require.Contains(GetAllConfigurations(), config)

	require.Panics(func() {
		RegisterFactory(config, factory)
	})
}
