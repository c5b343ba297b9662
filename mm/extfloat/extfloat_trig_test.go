// Copyright 2025 The go-highway Authors. SPDX-License-Identifier: Apache-2.0

package extfloat

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSinCosAgainstMath(t *testing.T) {
	cases := []float64{0, 0.1, 0.5, 1.0, math.Pi / 2, math.Pi, 2 * math.Pi, -1.3, 10.0}
	for _, v := range cases {
		s, c := SinCos(FromFloat64(v))
		assert.InDelta(t, math.Sin(v), s.Float64(), 1e-12, "sin(%v)", v)
		assert.InDelta(t, math.Cos(v), c.Float64(), 1e-12, "cos(%v)", v)
	}
}

func TestSinCosPythagoreanIdentity(t *testing.T) {
	for _, v := range []float64{0.3, 1.7, -2.2, 5.5} {
		s, c := SinCos(FromFloat64(v))
		sum := Add(Square(s), Square(c))
		assert.InDelta(t, 1.0, sum.Float64(), 1e-20)
	}
}

func TestAtanAgainstMath(t *testing.T) {
	for _, v := range []float64{0, 0.5, 1.0, 2.0, -3.0, 100.0} {
		got := Atan(FromFloat64(v))
		assert.InDelta(t, math.Atan(v), got.Float64(), 1e-12)
	}
}

func TestAtan2Quadrants(t *testing.T) {
	cases := [][2]float64{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}, {0, 1}, {1, 0}}
	for _, c := range cases {
		y, x := c[0], c[1]
		got := Atan2(FromFloat64(y), FromFloat64(x))
		assert.InDelta(t, math.Atan2(y, x), got.Float64(), 1e-12)
	}
}

func TestReduceModTwoPiLargeArgument(t *testing.T) {
	x := FromFloat64(1e16 + 0.5)
	r, _ := ReduceModTwoPi(x)
	assert.True(t, math.Abs(r.Float64()) <= math.Pi+1e-6)
}
