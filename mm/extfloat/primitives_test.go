// Copyright 2025 The go-highway Authors. SPDX-License-Identifier: Apache-2.0

package extfloat

import (
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTwoSumExact(t *testing.T) {
	x, y := 1.0, math.Ldexp(1, -60)
	s, e := twoSum(x, y)
	// s+e must reconstruct the exact mathematical sum to within float64
	// round-trip, and e must itself be representable (no further error).
	s2, e2 := twoSum(s, e)
	assert.Equal(t, s, s2)
	assert.Equal(t, e, e2)
}

func TestSplitReconstructs(t *testing.T) {
	x := 123456789.123456
	hi, lo := split(x)
	assert.Equal(t, x, hi+lo)
}

func TestTwoProdExact(t *testing.T) {
	x, y := 123456789.0, 987654321.0
	p, e := twoProd(x, y)
	assert.Equal(t, x*y, p)
	// p+e, summed exactly, must equal the exact product.
	exact := new(big.Float).SetPrec(200).Mul(big.NewFloat(x), big.NewFloat(y))
	got := new(big.Float).SetPrec(200).Add(big.NewFloat(p), big.NewFloat(e))
	assert.Equal(t, 0, exact.Cmp(got))
}

func TestCoalesceNormalizes(t *testing.T) {
	hi, lo := coalesce(1.0, 1e-20, 1e-40)
	x := fromNormalizedPair(hi, lo)
	assert.True(t, x.IsNormalized())
}
