// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package multinomial

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlocksPerRow(t *testing.T) {
	// One uint64 (two words) per sample, four words per block.
	for _, test := range []struct {
		numSamples int
		want       uint64
	}{
		{0, 0}, {1, 1}, {2, 1}, {3, 2}, {4, 2}, {7, 4}, {100, 50},
	} {
		assert.Equal(t, test.want, BlocksPerRow(test.numSamples), "numSamples=%d", test.numSamples)
	}
}

// Row r always reads the counter range starting at r*BlocksPerRow, so the
// first row of any batch matches a single-row call with the same seed.
func TestRowOffsetIndependentOfBatchSize(t *testing.T) {
	sampler := newTestSampler(t)
	row := []float64{1, 2, 0.5, -1}
	batched := append(append(append([]float64{}, row...), row...), row...)

	single, err := NewLogits(1, 4, row)
	require.NoError(t, err)
	batch, err := NewLogits(3, 4, batched)
	require.NoError(t, err)

	seed := []uint64{101, 202}
	const numSamples = 21
	wantRow0, err := sampler.StatelessSample(single, numSamples, seed)
	require.NoError(t, err)
	got, err := sampler.StatelessSample(batch, numSamples, seed)
	require.NoError(t, err)

	assert.Equal(t, wantRow0.Int64s(), got.Int64s()[:numSamples])
	// Later rows draw from disjoint counter ranges: with 21 draws over 4
	// classes, a full collision with row 0 would be vanishingly unlikely.
	assert.NotEqual(t, got.Int64s()[:numSamples], got.Int64s()[numSamples:2*numSamples])
}

func TestCDFScratchReuse(t *testing.T) {
	engine := &goEngine{}
	cdf := engine.getCDF(16)
	require.Len(t, cdf, 16)
	engine.putCDF(cdf)
	again := engine.getCDF(8)
	require.Len(t, again, 8)
	// A larger request after recycling still gets a correctly sized buffer.
	engine.putCDF(again)
	bigger := engine.getCDF(32)
	require.Len(t, bigger, 32)
}

func TestSampleRowUpperBoundTieBreak(t *testing.T) {
	// With all mass on class 0, every draw u*total < cdf[0], and the search
	// must return the first index whose cumulative mass strictly exceeds u.
	negInf := math.Inf(-1)
	logits, err := NewLogits(1, 3, []float64{0, negInf, negInf})
	require.NoError(t, err)
	sampler := newTestSampler(t)
	samples, err := sampler.StatelessSample(logits, 64, []uint64{9, 9})
	require.NoError(t, err)
	for _, idx := range samples.Int64s() {
		require.EqualValues(t, 0, idx)
	}
}
