// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package result

// Result holds the outcome of an operation, either a value or an error. It
// is used where outcomes of several operations need to be collected in a
// single container, e.g. the individual results of a batch of dry runs.
type Result[T any] struct {
	value T
	err   error
}

// Ok creates a successful Result carrying the given value.
func Ok[T any](value T) Result[T] {
	return Result[T]{value: value}
}

// Err creates a failed Result carrying the given error.
func Err[T any](err error) Result[T] {
	return Result[T]{err: err}
}

// Of creates a Result from the typical (value, error) pair returned by
// fallible functions.
func Of[T any](value T, err error) Result[T] {
	if err != nil {
		return Err[T](err)
	}
	return Ok(value)
}

// Get returns the value and error contained in the Result. Using this function
// forces the caller to handle potential errors.
func (r Result[T]) Get() (T, error) {
	return r.value, r.err
}

// IsOk reports whether the result carries no error.
func (r Result[T]) IsOk() bool {
	return r.err == nil
}

// Err returns the error of the result, nil on success.
func (r Result[T]) Err() error {
	return r.err
}

// Collect splits a list of results into the values of the successful ones
// and the first error encountered, if any.
func Collect[T any](results []Result[T]) ([]T, error) {
	values := make([]T, 0, len(results))
	for _, cur := range results {
		if cur.err != nil {
			return values, cur.err
		}
		values = append(values, cur.value)
	}
	return values, nil
}
