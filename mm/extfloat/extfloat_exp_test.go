// Copyright 2025 The go-highway Authors. SPDX-License-Identifier: Apache-2.0

package extfloat

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpAgainstMath(t *testing.T) {
	for _, v := range []float64{0, 0.001, 1, -1, 5, -5, 20} {
		got := Exp(FromFloat64(v))
		assert.InDelta(t, math.Exp(v), got.Float64(), math.Abs(math.Exp(v))*1e-12+1e-300)
	}
}

func TestExpm1SmallArgument(t *testing.T) {
	v := 1e-10
	got := Expm1(FromFloat64(v))
	assert.InDelta(t, math.Expm1(v), got.Float64(), 1e-22)
}

func TestLogAgainstMath(t *testing.T) {
	for _, v := range []float64{1, 2, 0.5, 100, 1e-5, math.E} {
		got := Log(FromFloat64(v))
		assert.InDelta(t, math.Log(v), got.Float64(), 1e-12)
	}
}

func TestLogExpAreInverses(t *testing.T) {
	for _, v := range []float64{0.1, 1, 10, -2} {
		x := FromFloat64(v)
		back := Log(Exp(x))
		assert.InDelta(t, v, back.Float64(), 1e-10)
	}
}

func TestLog1pSmallArgument(t *testing.T) {
	v := 1e-12
	got := Log1p(FromFloat64(v))
	assert.InDelta(t, math.Log1p(v), got.Float64(), 1e-24)
}
