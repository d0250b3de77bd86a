// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package multinomial

import (
	"math/rand"
	"sync"
	"time"

	"github.com/gomlx/multinomial/philox"
)

// Generator holds the Philox state consumed by the stateful sampling entry
// point (Sampler.Sample).
//
// It is the explicit replacement for process-global RNG state: create one,
// own it, and pass it to every stateful call. Each call reserves a counter
// range and advances the state past it, so consecutive calls -- including
// concurrent ones -- never reuse randomness.
//
// For fully reproducible sampling with no hidden state, use
// Sampler.StatelessSample instead.
type Generator struct {
	mu  sync.Mutex
	rng philox.Philox
}

// NewGenerator returns a Generator seeded from the nanosecond clock.
// Two generators created this way are almost surely on unrelated streams.
func NewGenerator() *Generator {
	return NewGeneratorFromSeed(time.Now().UTC().UnixNano())
}

// NewGeneratorFromSeed returns a Generator deterministically derived from
// seed: the same seed always starts the same stream.
//
// Note that, unlike StatelessSample, the stream still advances across calls,
// so only the first call after creation is reproducible from the seed alone.
func NewGeneratorFromSeed(seed int64) *Generator {
	rng := rand.New(rand.NewSource(seed))
	key := philox.Key{rng.Uint32(), rng.Uint32()}
	counter := philox.Counter{rng.Uint32(), rng.Uint32(), rng.Uint32(), rng.Uint32()}
	return &Generator{rng: philox.New(key, counter)}
}

// Reserve returns a private copy of the stream positioned at the current
// counter and advances the generator past numBlocks blocks. The returned
// stream owns the half-open counter range [current, current+numBlocks); no
// later Reserve overlaps it.
func (g *Generator) Reserve(numBlocks uint64) philox.Philox {
	g.mu.Lock()
	defer g.mu.Unlock()
	reserved := g.rng
	g.rng.Skip(numBlocks)
	return reserved
}
