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
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
)

// ErrUnknownVariant is returned when requesting a backend variant that has
// not been registered.
var ErrUnknownVariant = errors.New("unknown backend variant")

// Configuration identifies a backend implementation.
type Configuration struct {
	Variant string
}

var (
	factoriesMutex sync.Mutex
	factories      = map[Configuration]Factory{}
)

// RegisterFactory registers a factory for the given configuration. Backend
// implementations are expected to call this function in their init function.
// Registering the same configuration twice panics.
func RegisterFactory(config Configuration, factory Factory) {
	factoriesMutex.Lock()
	defer factoriesMutex.Unlock()
	if _, found := factories[config]; found {
		panic(fmt.Sprintf("backend variant %q registered twice", config.Variant))
	}
	factories[config] = factory
}

// GetFactory returns the factory registered for the given configuration.
func GetFactory(config Configuration) (Factory, error) {
	factoriesMutex.Lock()
	defer factoriesMutex.Unlock()
	factory, found := factories[config]
	if !found {
		return nil, fmt.Errorf("%w: %q", ErrUnknownVariant, config.Variant)
	}
	return factory, nil
}

// GetAllConfigurations returns all registered configurations, sorted by
// variant name.
func GetAllConfigurations() []Configuration {
	factoriesMutex.Lock()
	defer factoriesMutex.Unlock()
	return slices.SortedFunc(maps.Keys(factories), func(a, b Configuration) int {
		if a.Variant < b.Variant {
			return -1
		}
		if a.Variant > b.Variant {
			return 1
		}
		return 0
	})
}
