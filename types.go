// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package multinomial

import (
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/gopjrt/dtypes/bfloat16"
	"github.com/pkg/errors"
	"github.com/x448/float16"

	"github.com/gomlx/multinomial/types/shapes"
)

// LogitsConstraint lists the element types accepted for logits: the float
// dtypes the reference engine samples from.
type LogitsConstraint interface {
	float16.Float16 | bfloat16.BFloat16 | float32 | float64
}

// Logits is a read-only batch of unnormalized log-probabilities: one row per
// batch element, one column per class. Rows may contain non-finite values,
// which are treated as probability zero.
type Logits struct {
	shape shapes.Shape

	// flat is a slice of the dtype's Go type, row-major.
	flat any
}

// NewLogits wraps data as a [batchSize, numClasses] logits matrix.
//
// data is used directly, not copied, and must have exactly
// batchSize*numClasses elements in row-major order. batchSize may be zero
// (empty batch); numClasses must be positive.
func NewLogits[T LogitsConstraint](batchSize, numClasses int, data []T) (*Logits, error) {
	if batchSize < 0 {
		return nil, errors.Wrapf(ErrInvalidShape, "batchSize must be non-negative, got %d", batchSize)
	}
	if numClasses <= 0 {
		return nil, errors.Wrapf(ErrInvalidValue, "numClasses must be positive, got %d", numClasses)
	}
	if len(data) != batchSize*numClasses {
		return nil, errors.Wrapf(ErrInvalidShape,
			"logits data has %d elements, want batchSize*numClasses=%d*%d=%d",
			len(data), batchSize, numClasses, batchSize*numClasses)
	}
	return &Logits{
		shape: shapes.Make(dtypeOf[T](), batchSize, numClasses),
		flat:  data,
	}, nil
}

func dtypeOf[T LogitsConstraint]() dtypes.DType {
	var v T
	switch any(v).(type) {
	case float16.Float16:
		return dtypes.Float16
	case bfloat16.BFloat16:
		return dtypes.BFloat16
	case float32:
		return dtypes.Float32
	default:
		return dtypes.Float64
	}
}

// BatchSize returns the number of rows (batch elements).
func (l *Logits) BatchSize() int { return l.shape.Dim(0) }

// NumClasses returns the number of columns (classes).
func (l *Logits) NumClasses() int { return l.shape.Dim(1) }

// DType returns the element dtype.
func (l *Logits) DType() dtypes.DType { return l.shape.DType }

// Shape returns the [batch, classes] shape.
func (l *Logits) Shape() shapes.Shape { return l.shape }

// Samples holds the output of a sampling call: a [batchSize, numSamples]
// matrix of class indices, each in [0, numClasses). The dtype is Int32 or
// Int64 (see WithOutputDType).
type Samples struct {
	shape shapes.Shape
	flat  any // []int32 or []int64
}

// BatchSize returns the number of rows.
func (s *Samples) BatchSize() int { return s.shape.Dim(0) }

// NumSamples returns the number of samples drawn per row.
func (s *Samples) NumSamples() int { return s.shape.Dim(1) }

// DType returns the index dtype (Int32 or Int64).
func (s *Samples) DType() dtypes.DType { return s.shape.DType }

// Shape returns the [batch, numSamples] shape.
func (s *Samples) Shape() shapes.Shape { return s.shape }

// Int32s returns the row-major flat indices, or nil if the dtype is not
// Int32.
func (s *Samples) Int32s() []int32 {
	flat, _ := s.flat.([]int32)
	return flat
}

// Int64s returns the row-major flat indices, or nil if the dtype is not
// Int64.
func (s *Samples) Int64s() []int64 {
	flat, _ := s.flat.([]int64)
	return flat
}

// At returns the i-th sample of the given row as an int.
func (s *Samples) At(row, i int) int {
	pos := row*s.NumSamples() + i
	switch flat := s.flat.(type) {
	case []int32:
		return int(flat[pos])
	case []int64:
		return int(flat[pos])
	}
	return 0 // Unreachable: construction only allows Int32/Int64.
}
