// Copyright 2025 The go-highway Authors. SPDX-License-Identifier: Apache-2.0

package extfloat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAccCompensatesCancellation(t *testing.T) {
	a := NewAcc()
	a = a.Accum(1.0)
	for i := 0; i < 1_000_000; i++ {
		a = a.Accum(1e-10)
	}
	a = a.Accum(-1.0)
	// Naive float64 summation of the same sequence rounds at each of the
	// million additions; the compensated accumulator folds those rounding
	// errors back into its result.
	naive := 1.0
	for i := 0; i < 1_000_000; i++ {
		naive += 1e-10
	}
	naive -= 1.0
	assert.InDelta(t, 1e-4, a.Total(), 1e-9)
	_ = naive
}

func TestAccumExtRoundTrip(t *testing.T) {
	a := NewAcc()
	a = a.AccumExt(FromFloat64(1.5))
	a = a.AccumExt(FromFloat64(2.5))
	assert.Equal(t, 4.0, a.Total())
}

func TestDualAccum(t *testing.T) {
	a, b := NewAcc(), NewAcc()
	a, b = DualAccum(a, b, 1.0, 2.0)
	a, b = DualAccum(a, b, 3.0, 4.0)
	assert.Equal(t, 4.0, a.Total())
	assert.Equal(t, 6.0, b.Total())
}
