// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package philox

import "math"

// Source adapts a block-oriented Philox stream into a sequential generator
// handing out one value at a time. It buffers one block and refills from the
// stream as needed.
//
// A Source is not safe for concurrent use; give each goroutine its own,
// positioned at a disjoint counter range.
type Source struct {
	stream Philox
	block  Block
	used   int
}

// NewSource returns a Source drawing from the given stream position.
func NewSource(stream Philox) *Source {
	return &Source{stream: stream, used: BlockWords}
}

// Uint32 returns the next 32-bit word of the stream.
func (s *Source) Uint32() uint32 {
	if s.used == BlockWords {
		s.block = s.stream.Next()
		s.used = 0
	}
	v := s.block[s.used]
	s.used++
	return v
}

// Uint64 returns the next 64 bits of the stream: the first word is the low
// half, the second the high half.
func (s *Source) Uint64() uint64 {
	lo := s.Uint32()
	hi := s.Uint32()
	return uint64(lo) | uint64(hi)<<32
}

// Float64 returns a uniform value in the half-open interval [0.0, 1.0),
// consuming one Uint64 (two words) of the stream.
//
// It fills the 52 mantissa bits of a float64 in [1.0, 2.0) and subtracts 1,
// the maximum randomness a float64 mantissa holds without breaking
// uniformity.
func (s *Source) Float64() float64 {
	u := s.Uint64()
	const exp uint64 = 1023
	v := math.Float64frombits(exp<<52|u&0x000FFFFFFFFFFFFF) - 1.0
	return v
}
