// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package philox

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Known-answer vectors for philox4x32-10 from the Random123 distribution
// (kat_vectors). TensorFlow/XLA produce the same stream.
func TestApplyKnownVectors(t *testing.T) {
	tests := []struct {
		name    string
		counter Counter
		key     Key
		want    Block
	}{
		{
			name:    "zeros",
			counter: Counter{0, 0, 0, 0},
			key:     Key{0, 0},
			want:    Block{0x6627e8d5, 0xe169c58d, 0xbc324972, 0x6f565238},
		},
		{
			name:    "all-ones",
			counter: Counter{0xffffffff, 0xffffffff, 0xffffffff, 0xffffffff},
			key:     Key{0xffffffff, 0xffffffff},
			want:    Block{0x408f276d, 0x41c83b0e, 0xa20bc7c6, 0x6d5451fd},
		},
		{
			name:    "pi-digits",
			counter: Counter{0x243f6a88, 0x85a308d3, 0x13198a2e, 0x03707344},
			key:     Key{0xa4093822, 0x299f31d0},
			want:    Block{0xd16cfe09, 0x94fdcceb, 0x5001e420, 0x24126ea1},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.want, Apply(test.key, test.counter))
		})
	}
}

func TestApplyIsPure(t *testing.T) {
	key := Key{7, 11}
	counter := Counter{1, 2, 3, 4}
	assert.Equal(t, Apply(key, counter), Apply(key, counter))
}

func TestSkipMatchesSequentialAdvance(t *testing.T) {
	key, counter := KeyCounterFromSeeds(0x1234567890abcdef, 0xfedcba0987654321)
	skipped := New(key, counter)
	skipped.Skip(1000)

	sequential := New(key, counter)
	for range 1000 {
		sequential.Next()
	}
	for range 4 {
		assert.Equal(t, sequential.Next(), skipped.Next())
	}
}

func TestSkipCarriesAcrossCounterWords(t *testing.T) {
	p := New(Key{0, 0}, Counter{0xffffffff, 0xffffffff, 0, 0})
	p.Skip(1)
	assert.Equal(t, Counter{0, 0, 1, 0}, p.counter)

	p = New(Key{0, 0}, Counter{0xfffffffe, 0xffffffff, 0xffffffff, 0})
	p.Skip(3)
	assert.Equal(t, Counter{1, 0, 0, 1}, p.counter)
}

func TestNextAdvancesOneBlock(t *testing.T) {
	p := New(Key{1, 2}, Counter{0, 0, 0, 0})
	first := p.Next()
	second := p.Next()
	assert.NotEqual(t, first, second)
	assert.Equal(t, Counter{2, 0, 0, 0}, p.counter)
}

func TestKeyCounterFromSeeds(t *testing.T) {
	key, counter := KeyCounterFromSeeds(0x1111222233334444, 0x5555666677778888)
	assert.Equal(t, Key{0x33334444, 0x11112222}, key)
	assert.Equal(t, Counter{0, 0, 0x77778888, 0x55556666}, counter)
}

func TestNonOverlappingRangesDiffer(t *testing.T) {
	key, counter := KeyCounterFromSeeds(1, 2)
	a := New(key, counter)
	b := New(key, counter)
	b.Skip(1 << 20)
	require.NotEqual(t, a.Next(), b.Next())
}
