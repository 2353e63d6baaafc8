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
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrExtensionRegistered is reported when registering an extension of a
	// type that is already registered.
	ErrExtensionRegistered = errors.New("extension already registered")
	// ErrExtensionNotFound is reported when looking up an extension of a
	// type that is not registered.
	ErrExtensionNotFound = errors.New("extension not found")
)

// extensions maps the static type of an extension to its instance.
type extensions map[reflect.Type]any

// RegisterExtension attaches the given extension to the sandbox. It can be
// retrieved by operations through its static type T. At most one extension
// may be registered per type; registering a second one fails. Use
// UnregisterExtension to replace an extension.
func RegisterExtension[T any](sb *Sandbox, ext T) error {
	key := reflect.TypeFor[T]()
	if _, found := sb.extensions[key]; found {
		return fmt.Errorf("%w: %v", ErrExtensionRegistered, key)
	}
	sb.extensions[key] = ext
	sb.logger.Debug("extension registered", "type", key.String())
	return nil
}

// UnregisterExtension removes the extension of type T from the sandbox. It
// returns false if no such extension was registered.
func UnregisterExtension[T any](sb *Sandbox) bool {
	key := reflect.TypeFor[T]()
	if _, found := sb.extensions[key]; !found {
		return false
	}
	delete(sb.extensions, key)
	sb.logger.Debug("extension unregistered", "type", key.String())
	return true
}

// Extension retrieves the extension of type T registered in the sandbox the
// given operation is running on.
func Extension[T any](ext *Externalities) (T, error) {
	key := reflect.TypeFor[T]()
	if res, found := ext.sb.extensions[key]; found {
		// nil interface values are stored untyped
		value, _ := res.(T)
		return value, nil
	}
	var zero T
	return zero, fmt.Errorf("%w: %v", ErrExtensionNotFound, key)
}
