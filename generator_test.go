// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package multinomial

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gomlx/multinomial/philox"
)

func TestGeneratorSeedDeterminism(t *testing.T) {
	a := NewGeneratorFromSeed(1234)
	b := NewGeneratorFromSeed(1234)
	streamA := a.Reserve(10)
	streamB := b.Reserve(10)
	for range 4 {
		require.Equal(t, streamB.Next(), streamA.Next())
	}

	c := NewGeneratorFromSeed(1235)
	streamC := c.Reserve(10)
	streamA2 := NewGeneratorFromSeed(1234).Reserve(10)
	assert.NotEqual(t, streamA2.Next(), streamC.Next())
}

func TestGeneratorReserveAdvances(t *testing.T) {
	gen := NewGeneratorFromSeed(7)
	first := gen.Reserve(5)
	second := gen.Reserve(5)

	// The second reservation starts exactly where the first one's range ends.
	skipped := first
	skipped.Skip(5)
	assert.Equal(t, second.Next(), skipped.Next())

	// And the ranges do not overlap: their first blocks differ.
	f, s := first, second
	assert.NotEqual(t, f.Next(), s.Next())
}

func TestGeneratorReserveZeroKeepsPosition(t *testing.T) {
	gen := NewGeneratorFromSeed(3)
	before := gen.Reserve(0)
	after := gen.Reserve(1)
	assert.Equal(t, before.Next(), after.Next())
}

func TestGeneratorConcurrentReserves(t *testing.T) {
	gen := NewGeneratorFromSeed(11)
	const numWorkers, blocks = 16, 100

	var wg sync.WaitGroup
	firstBlocks := make([]philox.Block, numWorkers)
	for i := range numWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			stream := gen.Reserve(blocks)
			firstBlocks[i] = stream.Next()
		}()
	}
	wg.Wait()

	// All reservations landed on distinct counter ranges.
	seen := make(map[philox.Block]bool)
	for _, block := range firstBlocks {
		require.False(t, seen[block], "two workers reserved the same counter range")
		seen[block] = true
	}
}
