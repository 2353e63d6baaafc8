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
	"fmt"
	"slices"
	"strings"
)

// MemoryFootprintProvider is implemented by all components able to report
// their memory usage.
type MemoryFootprintProvider interface {
	GetMemoryFootprint() *MemoryFootprint
}

// MemoryFootprint describes the memory consumption of a component, broken
// down into named child components.
type MemoryFootprint struct {
	value    uintptr
	children map[string]*MemoryFootprint
	note     string
}

// NewMemoryFootprint creates a new footprint for an object occupying the
// given number of bytes, excluding its children.
func NewMemoryFootprint(value uintptr) *MemoryFootprint {
	return &MemoryFootprint{
		value:    value,
		children: map[string]*MemoryFootprint{},
	}
}

// AddChild registers the footprint of a sub-component.
func (mf *MemoryFootprint) AddChild(name string, child *MemoryFootprint) {
	if child != nil {
		mf.children[name] = child
	}
}

// GetChild returns the child registered under the given name or nil.
func (mf *MemoryFootprint) GetChild(name string) *MemoryFootprint {
	return mf.children[name]
}

// SetNote attaches a free-form note printed next to the footprint.
func (mf *MemoryFootprint) SetNote(note string) {
	mf.note = note
}

// Value returns the memory used by the object itself, excluding children.
func (mf *MemoryFootprint) Value() uintptr {
	return mf.value
}

// Total returns the memory used by the object and all of its children.
// Children shared by multiple parents are only counted once.
func (mf *MemoryFootprint) Total() uintptr {
	visited := map[*MemoryFootprint]bool{}
	return mf.total(visited)
}

func (mf *MemoryFootprint) total(visited map[*MemoryFootprint]bool) uintptr {
	if visited[mf] {
		return 0
	}
	visited[mf] = true
	res := mf.value
	for _, child := range mf.children {
		res += child.total(visited)
	}
	return res
}

func (mf *MemoryFootprint) String() string {
	var b strings.Builder
	mf.toString(&b, ".")
	return b.String()
}

func (mf *MemoryFootprint) toString(b *strings.Builder, path string) {
	names := make([]string, 0, len(mf.children))
	for name := range mf.children {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		mf.children[name].toString(b, path+"/"+name)
	}
	fmt.Fprintf(b, "%s %s %s\n", formatMemory(mf.Total()), path, mf.note)
}

func formatMemory(size uintptr) string {
	const (
		kb = 1 << 10
		mb = 1 << 20
		gb = 1 << 30
	)
	switch {
	case size >= gb:
		return fmt.Sprintf("%6.1f GB", float64(size)/gb)
	case size >= mb:
		return fmt.Sprintf("%6.1f MB", float64(size)/mb)
	case size >= kb:
		return fmt.Sprintf("%6.1f KB", float64(size)/kb)
	}
	return fmt.Sprintf("%6d  B", size)
}
