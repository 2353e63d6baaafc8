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

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewTask_CreatesTaskWithGivenActionAndNumberOfDependencies(t *testing.T) {
	require := require.New(t)

	counter := 0
	tk := newTask(func() { counter++ }, 3)
	require.EqualValues(3, tk.numDependencies.Load())
	tk.action()
	require.Equal(1, counter)
}

func TestTask_Run_DecreasesParentDependencyCountAndReturnsParentWhenReady(t *testing.T) {
	require := require.New(t)

	parent := newTask(func() {}, 2)
	child := newTask(func() {}, 0)
	child.parentTask = parent

	require.Nil(child.run())
	require.EqualValues(1, parent.numDependencies.Load())

	require.Same(parent, child.run())
	require.EqualValues(0, parent.numDependencies.Load())
}

func TestTask_Run_WithoutParentReturnsNil(t *testing.T) {
	require.Nil(t, newTask(func() {}, 0).run())
}

func TestRunTasks_RespectsDependencies(t *testing.T) {
	for _, numLeaves := range []int{1, 5, sequentialTaskLimit, 4 * sequentialTaskLimit} {
		t.Run(fmt.Sprintf("leaves=%d", numLeaves), func(t *testing.T) {
			require := require.New(t)

			// A two-level tree: leaves feed into groups, groups into the root.
			const groupSize = 4
			done := make([]atomic.Bool, numLeaves)
			tasks := []*task{}
			numGroups := (numLeaves + groupSize - 1) / groupSize
			rootRan := false
			root := newTask(func() {
				for i := range done {
					require.True(done[i].Load())
				}
				rootRan = true
			}, numGroups)

			for g := range numGroups {
				from := g * groupSize
				to := min(from+groupSize, numLeaves)
				group := newTask(func() {
					for i := from; i < to; i++ {
						require.True(done[i].Load())
					}
				}, to-from)
				group.parentTask = root
				for i := from; i < to; i++ {
					leaf := newTask(func() { done[i].Store(true) }, 0)
					leaf.parentTask = group
					tasks = append(tasks, leaf)
				}
				tasks = append(tasks, group)
			}
			tasks = append(tasks, root)

			runTasks(tasks)
			require.True(rootRan)
		})
	}
}
