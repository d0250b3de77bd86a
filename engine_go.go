// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package multinomial

import (
	"math"
	"sort"
	"sync"

	"github.com/gomlx/gopjrt/dtypes/bfloat16"
	"github.com/pkg/errors"
	"github.com/x448/float16"
	"golang.org/x/exp/constraints"
	"k8s.io/klog/v2"

	"github.com/gomlx/multinomial/philox"
	"github.com/gomlx/multinomial/sharder"
)

func init() {
	RegisterEngine(DefaultEngine, newGoEngine)
}

// BlocksPerRow is the fixed number of Philox blocks one row consumes when
// drawing numSamples samples: each sample draws one uint64 (two 32-bit
// words) and a block holds four words, so a row uses ceil(numSamples/2)
// blocks.
//
// Row r of a call always reads from the counter range
// [r*BlocksPerRow, (r+1)*BlocksPerRow) relative to the call's base counter,
// whatever sharding the engine chooses. That makes the output independent of
// the shard count and guarantees rows never share randomness.
func BlocksPerRow(numSamples int) uint64 {
	return (uint64(numSamples) + 1) / 2
}

// costPerRowFactor converts the O(numSamples*log2(numClasses) + numClasses)
// per-row work into the rough cycle units the sharder expects. A tuning
// parameter.
const costPerRowFactor = 50

// goEngine is the portable reference engine. Its output defines the sampling
// semantics all engines must match.
type goEngine struct {
	pool *sharder.Pool

	// cdfPool recycles per-shard float64 CDF scratch buffers.
	cdfPool sync.Pool
}

func newGoEngine(pool *sharder.Pool) Engine {
	return &goEngine{pool: pool}
}

func (e *goEngine) Name() string { return DefaultEngine }

// SampleBatch implements Engine, parallelizing over batch rows only.
func (e *goEngine) SampleBatch(logits *Logits, rng philox.Philox, out *Samples) error {
	switch flat := logits.flat.(type) {
	case []float16.Float16:
		return dispatchOutput(e, flat, float16.Float16.Float32, rng, out)
	case []bfloat16.BFloat16:
		return dispatchOutput(e, flat, bfloat16.BFloat16.Float32, rng, out)
	case []float32:
		return dispatchOutput(e, flat, func(v float32) float32 { return v }, rng, out)
	case []float64:
		return dispatchOutput(e, flat, func(v float64) float64 { return v }, rng, out)
	}
	return errors.Wrapf(ErrInvalidValue, "engine %q does not support logits dtype %s", e.Name(), logits.DType())
}

// dispatchOutput resolves the output index type; toFloat converts one logit
// to a float the CDF accumulation can widen.
func dispatchOutput[T LogitsConstraint, F constraints.Float](
	e *goEngine, logits []T, toFloat func(T) F, rng philox.Philox, out *Samples) error {
	switch outFlat := out.flat.(type) {
	case []int32:
		sampleRowsGeneric(e, logits, toFloat, rng, out.BatchSize(), out.NumSamples(), outFlat)
	case []int64:
		sampleRowsGeneric(e, logits, toFloat, rng, out.BatchSize(), out.NumSamples(), outFlat)
	default:
		return errors.Wrapf(ErrInvalidValue, "engine %q does not support output dtype %s", e.Name(), out.DType())
	}
	return nil
}

// sampleRowsGeneric shards the batch by rows and samples each row from its
// own counter range. Workers write only to their rows of out and share no
// mutable state, so the row loop needs no synchronization.
func sampleRowsGeneric[T LogitsConstraint, F constraints.Float, O int32 | int64](
	e *goEngine, logits []T, toFloat func(T) F, rng philox.Philox,
	batchSize, numSamples int, out []O) {

	numClasses := len(logits) / batchSize
	costPerRow := costPerRowFactor *
		(float64(numSamples)*math.Log2(float64(numClasses)) + float64(numClasses))
	blocks := BlocksPerRow(numSamples)
	klog.V(2).Infof("multinomial %q engine: batch=%d classes=%d samples=%d costPerRow=%.0f",
		DefaultEngine, batchSize, numClasses, numSamples, costPerRow)

	sharder.Shard(e.pool, batchSize, costPerRow, func(startRow, limitRow int) {
		cdf := e.getCDF(numClasses)
		defer e.putCDF(cdf)
		for row := startRow; row < limitRow; row++ {
			// Private stream for the row: skip is O(1), so positioning per
			// row (instead of once per shard) costs nothing and keeps the
			// offsets a function of the row index alone.
			stream := rng
			stream.Skip(uint64(row) * blocks)
			sampleRow(
				logits[row*numClasses:(row+1)*numClasses], toFloat,
				cdf, philox.NewSource(stream),
				out[row*numSamples:(row+1)*numSamples])
		}
	})
}

// sampleRow draws len(out) samples from the categorical distribution induced
// by one row of logits, via inverse-CDF search.
func sampleRow[T LogitsConstraint, F constraints.Float, O int32 | int64](
	rowLogits []T, toFloat func(T) F, cdf []float64, src *philox.Source, out []O) {

	// Along-class maximum over finite entries, for numerical stability.
	maxLogit := math.Inf(-1)
	hasFinite := false
	for _, v := range rowLogits {
		f := float64(toFloat(v))
		if isFinite(f) {
			hasFinite = true
			if f > maxLogit {
				maxLogit = f
			}
		}
	}

	// Unnormalized CDF, accumulated in float64: the max-shifted probabilities
	// can be extremely small. Non-finite logits contribute zero mass but keep
	// their slot, so indices are preserved. The maximal finite logit
	// contributes exactly 1, hence total > 0 whenever hasFinite, and every
	// term is <= 1, so total <= numClasses and always finite.
	total := 0.0
	if hasFinite {
		for j, v := range rowLogits {
			f := float64(toFloat(v))
			if isFinite(f) {
				total += math.Exp(f - maxLogit)
			}
			cdf[j] = total
		}
	}

	numClasses := len(rowLogits)
	for i := range out {
		u := src.Float64()
		var idx int
		if total > 0 {
			// First index whose cumulative mass strictly exceeds u*total
			// (upper-bound search), so index 0 is chosen for draws below
			// cdf[0].
			target := u * total
			idx = sort.Search(numClasses, func(j int) bool { return cdf[j] > target })
		} else {
			// Degenerate row, every logit non-finite: no class carries mass.
			// Fall back to uniform over classes, consuming the same one
			// uint64 per sample as the normal path.
			idx = int(u * float64(numClasses))
		}
		if idx >= numClasses {
			// Floating-point rounding guard; indices stay in [0, numClasses).
			idx = numClasses - 1
		}
		out[i] = O(idx)
	}
}

func isFinite(f float64) bool {
	return !math.IsInf(f, 0) && !math.IsNaN(f)
}

// getCDF returns a scratch CDF buffer with numClasses elements. Contents are
// unspecified; sampleRow overwrites every slot.
func (e *goEngine) getCDF(numClasses int) []float64 {
	if recycled := e.cdfPool.Get(); recycled != nil {
		cdf := recycled.([]float64)
		if cap(cdf) >= numClasses {
			return cdf[:numClasses]
		}
	}
	return make([]float64, numClasses)
}

func (e *goEngine) putCDF(cdf []float64) {
	e.cdfPool.Put(cdf)
}
