// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package multinomial

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/gomlx/multinomial/philox"
	"github.com/gomlx/multinomial/sharder"
)

// Engine fills a samples matrix for a pre-validated batch of logits.
//
// The "go" reference engine defines the sampling semantics; alternative
// engines must reproduce the same sampling distribution, but not necessarily
// bit-identical output (parallel floating-point reduction order may differ).
type Engine interface {
	// Name is the registered name of the engine.
	Name() string

	// SampleBatch draws out.NumSamples() independent samples for each row of
	// logits from the categorical distribution the row induces, writing the
	// class indices to out. Randomness comes from rng, of which the engine
	// may consume at most BlocksPerRow(out.NumSamples()) blocks per row.
	//
	// The caller guarantees logits and out are non-empty, shape-consistent
	// and validated.
	SampleBatch(logits *Logits, rng philox.Philox, out *Samples) error
}

// EngineConstructor builds an engine on top of the given worker pool.
type EngineConstructor func(pool *sharder.Pool) Engine

// DefaultEngine is the name of the reference engine, always registered.
const DefaultEngine = "go"

// EngineEnvVar is the environment variable consulted by New for the engine
// name, when WithEngine is not given.
const EngineEnvVar = "MULTINOMIAL_ENGINE"

var (
	muEngines sync.Mutex
	engines   = map[string]EngineConstructor{}
)

// RegisterEngine registers a named engine constructor. The reference "go"
// engine registers itself at init time; alternative implementations (e.g.,
// accelerator-backed) can register here and be selected with WithEngine or
// the MULTINOMIAL_ENGINE environment variable.
func RegisterEngine(name string, constructor EngineConstructor) {
	muEngines.Lock()
	defer muEngines.Unlock()
	engines[name] = constructor
}

func newEngine(name string, pool *sharder.Pool) (Engine, error) {
	muEngines.Lock()
	defer muEngines.Unlock()
	constructor, found := engines[name]
	if !found {
		names := make([]string, 0, len(engines))
		for registered := range engines {
			names = append(names, registered)
		}
		return nil, errors.Wrapf(ErrInvalidValue, "unknown engine %q (registered: %v)", name, names)
	}
	return constructor(pool), nil
}
