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
	"runtime"
	"sync"
	"sync/atomic"
)

// This file provides a small task execution framework used for computing
// node hashes in parallel. Tasks form a tree: each task may depend on
// multiple child tasks, but only a single parent task may depend on it. These
// properties are not verified.
//
// The intended usage is to
//   1) create a set of tasks, closed under dependencies, topologically sorted
//      such that no task appears before any of its dependencies
//   2) call [runTasks]() with the set of tasks

// task is a unit of work with an optional parent to be notified on
// completion.
type task struct {
	action          func()       // < the action to perform
	numDependencies atomic.Int32 // < number of dependencies before this task can run
	parentTask      *task        // < optional parent task to notify when done
}

func newTask(
	action func(),
	numDependencies int,
) *task {
	t := &task{action: action}
	t.numDependencies.Store(int32(numDependencies))
	return t
}

// run executes the task's action and returns the parent task if it became
// ready to run as a result, nil otherwise.
func (t *task) run() *task {
	t.action()
	if t.parentTask == nil {
		return nil
	}
	if t.parentTask.numDependencies.Add(-1) != 0 {
		return nil // not ready yet
	}
	return t.parentTask
}

// sequentialTaskLimit is the number of tasks below which tasks are run on the
// calling goroutine only.
const sequentialTaskLimit = 64

// runTasks executes the given tasks in parallel, respecting their
// dependencies. The list must include all tasks needed to satisfy
// dependencies, otherwise some tasks are never run.
func runTasks(tasks []*task) {
	if len(tasks) < sequentialTaskLimit {
		for _, task := range tasks {
			task.action()
		}
		return
	}

	// Collect all tasks ready to run (no dependencies).
	workList := make([]*task, 0, len(tasks))
	for _, task := range tasks {
		if task.numDependencies.Load() == 0 {
			workList = append(workList, task)
		}
	}

	// Every task is either in the work list or gets run by the worker
	// completing its last dependency. Thus, once all workers are done, all
	// tasks have been processed.
	pos := atomic.Int32{}
	processTasks := func() {
		for {
			next := pos.Add(1) - 1
			if int(next) >= len(workList) {
				return
			}
			task := workList[next]
			for task != nil {
				task = task.run()
			}
		}
	}

	numWorkers := min(runtime.NumCPU(), 8) - 1
	var wg sync.WaitGroup
	wg.Add(numWorkers)
	for range numWorkers {
		go func() {
			defer wg.Done()
			processTasks()
		}()
	}
	processTasks()
	wg.Wait()
}
