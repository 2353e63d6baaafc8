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
	"testing"

	"github.com/stretchr/testify/require"
)

type clock interface {
	Now() uint64
}

type fixedClock uint64

func (c fixedClock) Now() uint64 {
	return uint64(c)
}

type counter struct {
	calls int
}

func TestExtension_RegisteredExtensionsAreVisibleInOperations(t *testing.T) {
	sb, err := New(Parameters{})
	require.NoError(t, err)
	require.NoError(t, RegisterExtension[clock](sb, fixedClock(12)))

	now, err := Execute(sb, func(ext *Externalities) (uint64, error) {
		c, err := Extension[clock](ext)
		if err != nil {
			return 0, err
		}
		return c.Now(), nil
	})
	require.NoError(t, err)
	require.EqualValues(t, 12, now)

	now, err = DryRun(sb, func(sb *Sandbox) (uint64, error) {
		return Execute(sb, func(ext *Externalities) (uint64, error) {
			c, err := Extension[clock](ext)
			if err != nil {
				return 0, err
			}
			return c.Now(), nil
		})
	})
	require.NoError(t, err)
	require.EqualValues(t, 12, now)
}

func TestExtension_MissingExtensionIsReported(t *testing.T) {
	sb, err := New(Parameters{})
	require.NoError(t, err)
	_, err = Execute(sb, func(ext *Externalities) (clock, error) {
		return Extension[clock](ext)
	})
	require.ErrorIs(t, err, ErrExtensionNotFound)
}

func TestExtension_LookupIsByStaticType(t *testing.T) {
	sb, err := New(Parameters{})
	require.NoError(t, err)
	require.NoError(t, RegisterExtension(sb, fixedClock(1)))

	_, err = Execute(sb, func(ext *Externalities) (clock, error) {
		return Extension[clock](ext)
	})
	require.ErrorIs(t, err, ErrExtensionNotFound)

	c, err := Execute(sb, func(ext *Externalities) (fixedClock, error) {
		return Extension[fixedClock](ext)
	})
	require.NoError(t, err)
	require.Equal(t, fixedClock(1), c)
}

func TestExtension_DuplicateRegistrationIsRejected(t *testing.T) {
	sb, err := New(Parameters{})
	require.NoError(t, err)
	first := &counter{}
	require.NoError(t, RegisterExtension(sb, first))
	require.ErrorIs(t, RegisterExtension(sb, &counter{}), ErrExtensionRegistered)

	got, err := Execute(sb, func(ext *Externalities) (*counter, error) {
		return Extension[*counter](ext)
	})
	require.NoError(t, err)
	require.Same(t, first, got)
}

func TestExtension_UnregisterAllowsReplacement(t *testing.T) {
	sb, err := New(Parameters{})
	require.NoError(t, err)
	require.False(t, UnregisterExtension[*counter](sb))

	require.NoError(t, RegisterExtension(sb, &counter{}))
	require.True(t, UnregisterExtension[*counter](sb))

	second := &counter{calls: 2}
	require.NoError(t, RegisterExtension(sb, second))
	got, err := Execute(sb, func(ext *Externalities) (*counter, error) {
		return Extension[*counter](ext)
	})
	require.NoError(t, err)
	require.Same(t, second, got)
}

func TestExtension_NilInterfaceValuesCanBeRetrieved(t *testing.T) {
	sb, err := New(Parameters{})
	require.NoError(t, err)
	require.NoError(t, RegisterExtension[clock](sb, nil))

	got, err := Execute(sb, func(ext *Externalities) (clock, error) {
		return Extension[clock](ext)
	})
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestExtension_ExtensionsSurviveSnapshotRestore(t *testing.T) {
	sb, err := New(Parameters{})
	require.NoError(t, err)
	snapshot := sb.TakeSnapshot()
	require.NoError(t, RegisterExtension[clock](sb, fixedClock(3)))
	require.NoError(t, sb.RestoreSnapshot(snapshot))

	_, err = Execute(sb, func(ext *Externalities) (clock, error) {
		return Extension[clock](ext)
	})
	require.NoError(t, err)
}
