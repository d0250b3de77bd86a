// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package shapes

import (
	"testing"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMake(t *testing.T) {
	s := Make(dtypes.Float32, 2, 3)
	assert.True(t, s.Ok())
	assert.Equal(t, 2, s.Rank())
	assert.Equal(t, 6, s.Size())
	assert.Equal(t, 3, s.Dim(1))
	assert.Equal(t, "(Float32)[2 3]", s.String())

	// Zero dimensions describe empty buffers and are valid.
	empty := Make(dtypes.Int64, 0, 7)
	assert.True(t, empty.Ok())
	assert.Equal(t, 0, empty.Size())

	require.Panics(t, func() { Make(dtypes.Float32, -1, 2) })
}

func TestEqual(t *testing.T) {
	assert.True(t, Make(dtypes.Float64, 4).Equal(Make(dtypes.Float64, 4)))
	assert.False(t, Make(dtypes.Float64, 4).Equal(Make(dtypes.Float32, 4)))
	assert.False(t, Make(dtypes.Float64, 4).Equal(Make(dtypes.Float64, 5)))
	assert.False(t, Invalid().Ok())
}
