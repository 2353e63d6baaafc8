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
	"log/slog"

	"github.com/0xsoniclabs/sandbox/backend"
	"github.com/0xsoniclabs/sandbox/common"
	"github.com/0xsoniclabs/sandbox/common/result"

	_ "github.com/0xsoniclabs/sandbox/backend/flat"
	_ "github.com/0xsoniclabs/sandbox/backend/memory"
)

// DefaultVariant is the backend variant used if no variant is specified.
const DefaultVariant = "memory"

// Config is an optional initializer of the state of a new sandbox.
type Config interface {
	// InitializeStorage sets up the initial state of a sandbox. The produced
	// state is committed before the sandbox is handed out.
	InitializeStorage(ext *Externalities) error
}

// Parameters summarizes the configuration options of a sandbox.
type Parameters struct {
	// Variant is the name of the backend implementation to be used. If
	// empty, DefaultVariant is used.
	Variant string
	// Config, if not nil, initializes the state of the new sandbox.
	Config Config
}

// Option customizes a sandbox on construction.
type Option func(*Sandbox)

// WithLogger sets the logger used by the sandbox.
func WithLogger(logger *slog.Logger) Option {
	return func(sb *Sandbox) {
		if logger != nil {
			sb.logger = logger
		}
	}
}

// Sandbox is a resettable key-value state. See the package documentation
// for details.
type Sandbox struct {
	variant    string
	factory    backend.Factory
	backend    backend.Backend
	extensions extensions
	logger     *slog.Logger

	// depth is the number of currently active Execute calls.
	depth int
}

// New creates a new sandbox using the given parameters.
func New(params Parameters, opts ...Option) (*Sandbox, error) {
	variant := params.Variant
	if variant == "" {
		variant = DefaultVariant
	}
	factory, err := backend.GetFactory(backend.Configuration{Variant: variant})
	if err != nil {
		return nil, err
	}
	live, err := backend.NewEmpty(factory)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s backend: %w", variant, err)
	}
	res := &Sandbox{
		variant:    variant,
		factory:    factory,
		backend:    live,
		extensions: extensions{},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(res)
	}
	res.logger = res.logger.With("component", "sandbox", "variant", variant)

	if params.Config != nil {
		_, err := Execute(res, func(ext *Externalities) (struct{}, error) {
			return struct{}{}, params.Config.InitializeStorage(ext)
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
	}
	return res, nil
}

// Variant returns the name of the backend implementation of this sandbox.
func (sb *Sandbox) Variant() string {
	return sb.variant
}

// Root returns the fingerprint of the committed live state.
func (sb *Sandbox) Root() common.Hash {
	return sb.backend.Root()
}

// Logger returns the logger of this sandbox.
func (sb *Sandbox) Logger() *slog.Logger {
	return sb.logger
}

func (sb *Sandbox) GetMemoryFootprint() *common.MemoryFootprint {
	res := common.NewMemoryFootprint(0)
	res.AddChild("backend", sb.backend.GetMemoryFootprint())
	return res
}

// Execute runs the given operation on the live state of the sandbox. All
// effects of the operation persist, even if it fails. The result of the
// operation is returned unchanged.
func Execute[T any](sb *Sandbox, op func(*Externalities) (T, error)) (T, error) {
	sb.depth++
	defer func() { sb.depth-- }()
	res, err := op(&Externalities{sb: sb})
	if sb.depth == 1 {
		sb.commit("execute")
	}
	return res, err
}

// DryRun runs the given operation on the live state of the sandbox and
// discards all of its effects afterwards. The operation may freely read and
// modify the state, including nested calls to Execute or DryRun. Its result
// is returned unchanged.
func DryRun[T any](sb *Sandbox, op func(*Sandbox) (T, error)) (T, error) {
	backup := sb.backend.Clone()
	res, err := op(sb)
	// Staged writes must not outlive the swap below.
	sb.commit("dry run")
	sb.backend = backup
	sb.logger.Debug("dry run completed", "root", sb.backend.Root(), "failed", err != nil)
	return res, err
}

// DryRunEach evaluates each of the given operations in isolation, starting
// from the current state of the sandbox. The state is left unchanged.
func DryRunEach[T any](sb *Sandbox, ops ...func(*Sandbox) (T, error)) []result.Result[T] {
	res := make([]result.Result[T], 0, len(ops))
	for _, op := range ops {
		res = append(res, result.Of(DryRun(sb, op)))
	}
	return res
}

// commit materializes the pending writes of the live backend. Backends only
// fail to commit if they are corrupted, in which case continuing would
// produce inconsistent states.
func (sb *Sandbox) commit(context string) {
	if err := sb.backend.Commit(); err != nil {
		sb.logger.Error("failed to commit pending changes", "context", context, "error", err)
		panic(fmt.Sprintf("invariant violation: failed to commit pending changes in %s: %v", context, err))
	}
}
