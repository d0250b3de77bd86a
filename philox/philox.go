// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package philox implements the Philox4x32-10 counter-based pseudorandom
// generator.
//
// Philox produces a fixed block of four 32-bit words as a pure function of a
// (key, counter) pair, so a stream can be split by counter arithmetic instead
// of sequential advancement: Skip jumps the counter by n blocks in O(1).
// Streams with non-overlapping counter ranges are independent, as are streams
// with different keys. This is what makes the generator safe to partition
// across parallel workers and reproducible from an explicit seed.
//
// The bit-stream matches the Random123 reference implementation (see
// "Parallel Random Numbers: As Easy as 1, 2, 3", Salmon et al., SC'11), which
// is the same stream produced by the XLA and TensorFlow Philox generators.
package philox

import "math/bits"

// BlockWords is the number of 32-bit words produced per counter position.
const BlockWords = 4

// Key identifies a Philox stream.
type Key [2]uint32

// Counter is the 128-bit position within a stream, stored as four 32-bit
// words in little-endian order: Counter[0] is the lowest word.
type Counter [4]uint32

// Block is the pseudorandom output for one counter position.
type Block [4]uint32

const (
	mul0  = 0xD2511F53
	mul1  = 0xCD9E8D57
	weyl0 = 0x9E3779B9
	weyl1 = 0xBB67AE85

	numRounds = 10
)

// Apply returns the pseudorandom block for the given (key, counter) pair.
// It is a pure function: the same pair always yields the same block.
func Apply(key Key, counter Counter) Block {
	for round := 0; round < numRounds; round++ {
		hi0, lo0 := bits.Mul32(mul0, counter[0])
		hi1, lo1 := bits.Mul32(mul1, counter[2])
		counter = Counter{
			hi1 ^ counter[1] ^ key[0],
			lo1,
			hi0 ^ counter[3] ^ key[1],
			lo0,
		}
		key[0] += weyl0
		key[1] += weyl1
	}
	return Block(counter)
}

// KeyCounterFromSeeds derives a (key, counter) pair from two 64-bit seeds.
//
// The layout matches the TensorFlow/XLA stateless convention: seed0 becomes
// the key, seed1 fills the two high counter words and the two low words start
// at zero, leaving the full low 64-bit counter range for block generation.
func KeyCounterFromSeeds(seed0, seed1 uint64) (Key, Counter) {
	key := Key{uint32(seed0), uint32(seed0 >> 32)}
	counter := Counter{0, 0, uint32(seed1), uint32(seed1 >> 32)}
	return key, counter
}

// Philox is a stream positioned at a counter.
//
// It has value semantics: copying the struct copies the stream position, and
// the copies evolve independently. That is how workers get private streams --
// each receives a copy pre-skipped to its own counter range.
type Philox struct {
	key     Key
	counter Counter
}

// New returns a stream for the given key, positioned at counter.
func New(key Key, counter Counter) Philox {
	return Philox{key: key, counter: counter}
}

// Next returns the block at the current position and advances the counter by
// one block.
func (p *Philox) Next() Block {
	b := Apply(p.key, p.counter)
	p.Skip(1)
	return b
}

// Skip advances the counter by n blocks in O(1).
func (p *Philox) Skip(n uint64) {
	lo := uint64(p.counter[0]) | uint64(p.counter[1])<<32
	hi := uint64(p.counter[2]) | uint64(p.counter[3])<<32
	var carry uint64
	lo, carry = bits.Add64(lo, n, 0)
	hi, _ = bits.Add64(hi, 0, carry)
	p.counter = Counter{uint32(lo), uint32(lo >> 32), uint32(hi), uint32(hi >> 32)}
}
