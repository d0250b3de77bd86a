// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package multinomial draws independent samples from batches of categorical
// distributions described by unnormalized log-probabilities ("logits").
//
// Given a [batchSize, numClasses] logits matrix, a Sampler draws numSamples
// independent class indices per row, writing a [batchSize, numSamples] index
// matrix. Sampling is numerically stable (max-shifted, float64-accumulated
// CDF per row), parallel over batch rows, and driven by a counter-based
// Philox stream (see the philox package) so that:
//
//   - StatelessSample is fully reproducible: identical logits, sample count
//     and 2-element seed always produce bit-identical output, regardless of
//     how many worker threads or shards process the batch.
//   - Sample draws from an explicitly owned Generator whose state advances
//     with every call, so repeated calls never reuse randomness.
//
// Basic usage:
//
//	sampler := must.M1(multinomial.New())
//	logits := must.M1(multinomial.NewLogits(2, 3, []float32{
//		0, 0, 0, // uniform row
//		10, 0, -10,
//	}))
//	samples := must.M1(sampler.StatelessSample(logits, 5, []uint64{42, 0}))
//	fmt.Println(samples.Int64s()) // 2x5 indices in [0, 3), row-major.
package multinomial

import (
	"math"
	"os"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"

	"github.com/gomlx/multinomial/philox"
	"github.com/gomlx/multinomial/sharder"
	"github.com/gomlx/multinomial/types/shapes"
)

// Error kinds returned by the package, matched with errors.Is. Errors carry
// context and a stack on top of these sentinels.
var (
	// ErrInvalidShape tags inputs with the wrong rank or dimensions.
	ErrInvalidShape = errors.New("invalid shape")

	// ErrInvalidValue tags inputs with out-of-range or unsupported values.
	ErrInvalidValue = errors.New("invalid value")

	// ErrResource tags failures to allocate or address the output.
	ErrResource = errors.New("resource exhausted")
)

// Sampler is the sampling op: it owns the engine, the worker pool and the
// scratch buffers, and is safe for concurrent use.
type Sampler struct {
	engine   Engine
	pool     *sharder.Pool
	outDType dtypes.DType
}

type samplerConfig struct {
	engineName     string
	maxParallelism *int
	outDType       dtypes.DType
}

// Option configures a Sampler created with New.
type Option func(*samplerConfig)

// WithEngine selects the sampling engine by registered name. It overrides
// the MULTINOMIAL_ENGINE environment variable. Default: "go".
func WithEngine(name string) Option {
	return func(cfg *samplerConfig) { cfg.engineName = name }
}

// WithMaxParallelism sets the worker pool's soft parallelism target: 0
// disables parallelism (all rows processed inline), negative means
// unlimited. Default: runtime.NumCPU().
//
// The sampled values do not depend on this setting, only the wall time does.
func WithMaxParallelism(n int) Option {
	return func(cfg *samplerConfig) { cfg.maxParallelism = &n }
}

// WithOutputDType sets the dtype of the sampled indices: dtypes.Int32 or
// dtypes.Int64. Default: dtypes.Int64.
func WithOutputDType(dtype dtypes.DType) Option {
	return func(cfg *samplerConfig) { cfg.outDType = dtype }
}

// New creates a Sampler.
func New(options ...Option) (*Sampler, error) {
	cfg := &samplerConfig{
		engineName: os.Getenv(EngineEnvVar),
		outDType:   dtypes.Int64,
	}
	if cfg.engineName == "" {
		cfg.engineName = DefaultEngine
	}
	for _, option := range options {
		option(cfg)
	}
	if cfg.outDType != dtypes.Int32 && cfg.outDType != dtypes.Int64 {
		return nil, errors.Wrapf(ErrInvalidValue, "output dtype must be Int32 or Int64, got %s", cfg.outDType)
	}

	pool := sharder.New()
	if cfg.maxParallelism != nil {
		pool.SetMaxParallelism(*cfg.maxParallelism)
	}
	engine, err := newEngine(cfg.engineName, pool)
	if err != nil {
		return nil, err
	}
	return &Sampler{engine: engine, pool: pool, outDType: cfg.outDType}, nil
}

// Sample draws numSamples class indices per row of logits, consuming
// randomness from gen -- whose state advances past the consumed counter
// range as a side effect, so consecutive calls never repeat randomness.
//
// It returns a [logits.BatchSize(), numSamples] Samples matrix; every index
// is in [0, logits.NumClasses()).
func (s *Sampler) Sample(gen *Generator, logits *Logits, numSamples int) (*Samples, error) {
	if gen == nil {
		return nil, errors.Wrap(ErrInvalidValue, "nil *Generator")
	}
	if err := s.validate(logits, numSamples); err != nil {
		return nil, err
	}
	out := s.newOutput(logits.BatchSize(), numSamples)
	if out.shape.Size() == 0 {
		// Empty batch or zero samples: nothing to draw, no RNG consumed.
		return out, nil
	}
	rng := gen.Reserve(uint64(logits.BatchSize()) * BlocksPerRow(numSamples))
	if err := s.engine.SampleBatch(logits, rng, out); err != nil {
		return nil, err
	}
	return out, nil
}

// StatelessSample draws numSamples class indices per row of logits, with all
// randomness derived from the 2-element seed: identical (logits, numSamples,
// seed) always produce bit-identical output, and the call has no side
// effects.
func (s *Sampler) StatelessSample(logits *Logits, numSamples int, seed []uint64) (*Samples, error) {
	if len(seed) != 2 {
		return nil, errors.Wrapf(ErrInvalidShape, "seed must have shape [2], got [%d]", len(seed))
	}
	if err := s.validate(logits, numSamples); err != nil {
		return nil, err
	}
	out := s.newOutput(logits.BatchSize(), numSamples)
	if out.shape.Size() == 0 {
		return out, nil
	}
	key, counter := philox.KeyCounterFromSeeds(seed[0], seed[1])
	if err := s.engine.SampleBatch(logits, philox.New(key, counter), out); err != nil {
		return nil, err
	}
	return out, nil
}

// validate fails fast -- before any allocation or RNG consumption.
func (s *Sampler) validate(logits *Logits, numSamples int) error {
	if logits == nil || !logits.shape.Ok() {
		return errors.Wrap(ErrInvalidShape, "logits must be a [batchSize, numClasses] matrix")
	}
	if logits.shape.Rank() != 2 {
		return errors.Wrapf(ErrInvalidShape, "logits must be rank-2, got shape %s", logits.shape)
	}
	if numSamples < 0 {
		return errors.Wrapf(ErrInvalidValue, "numSamples must be non-negative, got %d", numSamples)
	}
	numClasses := logits.NumClasses()
	if numClasses <= 0 {
		return errors.Wrapf(ErrInvalidValue, "numClasses must be positive, got %d", numClasses)
	}
	if s.outDType == dtypes.Int32 && int64(numClasses) > math.MaxInt32 {
		return errors.Wrapf(ErrInvalidValue,
			"numClasses=%d does not fit the Int32 output dtype", numClasses)
	}
	if numSamples > 0 && logits.BatchSize() > math.MaxInt/numSamples {
		return errors.Wrapf(ErrResource,
			"output shape [%d, %d] is too large to address", logits.BatchSize(), numSamples)
	}
	return nil
}

func (s *Sampler) newOutput(batchSize, numSamples int) *Samples {
	shape := shapes.Make(s.outDType, batchSize, numSamples)
	out := &Samples{shape: shape}
	if s.outDType == dtypes.Int32 {
		out.flat = make([]int32, shape.Size())
	} else {
		out.flat = make([]int64, shape.Size())
	}
	return out
}
