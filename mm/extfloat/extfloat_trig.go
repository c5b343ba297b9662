// Copyright 2025 The go-highway Authors. SPDX-License-Identifier: Apache-2.0

package extfloat

import (
	"math"
	"math/big"
)

// sinTaylorCoeffs/cosTaylorCoeffs are the Taylor coefficients used by
// SinCos's core series evaluation once the argument has been reduced to
// [-pi/4, pi/4], matching the reduce-then-Taylor-evaluate structure of the
// original's SinCos/CircleReduce pair.
var sinTaylorCoeffs = []float64{
	1.0,
	-1.0 / 6,
	1.0 / 120,
	-1.0 / 5040,
	1.0 / 362880,
	-1.0 / 39916800,
	1.0 / 6227020800,
	-1.0 / 1307674368000,
	1.0 / 355687428096000,
	-1.0 / 121645100408832000,
}

var cosTaylorCoeffs = []float64{
	1.0,
	-1.0 / 2,
	1.0 / 24,
	-1.0 / 720,
	1.0 / 40320,
	-1.0 / 3628800,
	1.0 / 479001600,
	-1.0 / 87178291200,
	1.0 / 20922789888000,
	-1.0 / 6402373705728000,
}

// ReduceModTwoPi reduces x to r plus the number of quarter turns removed,
// modulo 8: the fast path removes whole turns (r in [-pi, pi], count a
// multiple of 4) and the precise path removes quarter turns (r in
// [0, pi/2)). It follows the original's two-tier strategy: a fast double-double
// reduction using the TwoPi constant for moderate magnitudes, falling back
// to the many-chunk 1/(2*pi) expansion (reduceModTwoPiPrecise) once the
// argument is so large that the fast path's cancellation would destroy all
// significant bits.
func ReduceModTwoPi(x ExtFloat) (r ExtFloat, octant int) {
	const fastPathLimit = 1.0e15
	if math.Abs(x.hi) < fastPathLimit {
		n := Div(x, TwoPi)
		nearest := Floor(Add(n, FromFloat64(0.5)))
		r = Sub(x, Mul(nearest, TwoPi))
		octant = int(math.Mod(nearest.Float64(), 2)) * 4
		return r, octant
	}
	frac, quadrants := reduceModTwoPiPrecise(x.hi)
	r = MulFloat64(HalfPi, frac)
	eight := big.NewInt(8)
	m := new(big.Int).Mod(quadrants, eight)
	octant = int(m.Int64())
	return r, octant
}

// SinCos returns sin(x) and cos(x) simultaneously, which is how the
// original always computes them (CircleReduce + shared Taylor evaluation),
// since the pair is cheaper to produce together than separately once the
// argument has been reduced.
func SinCos(x ExtFloat) (sin, cos ExtFloat) {
	r, octant := ReduceModTwoPi(x)
	// Further reduce r to [-pi/4,pi/4] plus a count of quarter turns, adding
	// it to the count from ReduceModTwoPi so the right quadrant identity
	// applies.
	sub := 0
	for r.Greater(QuarterPi) {
		r = Sub(r, HalfPi)
		sub++
	}
	for r.Less(Neg(QuarterPi)) {
		r = Add(r, HalfPi)
		sub--
	}
	octant = ((octant+sub)%8 + 8) % 8

	s := taylorSeries(r, sinTaylorCoeffs, true)
	c := taylorSeries(r, cosTaylorCoeffs, false)

	switch octant {
	case 0:
		sin, cos = s, c
	case 1:
		sin, cos = c, Neg(s)
	case 2:
		sin, cos = Neg(s), Neg(c)
	case 3:
		sin, cos = Neg(c), s
	case 4:
		sin, cos = s, c
	case 5:
		sin, cos = c, Neg(s)
	case 6:
		sin, cos = Neg(s), Neg(c)
	case 7:
		sin, cos = Neg(c), s
	}
	return sin, cos
}

// taylorSeries evaluates a Taylor series in r*r (Horner form, from the
// highest-degree coefficient down) and, for the odd (sine) series,
// multiplies the result by r at the end.
func taylorSeries(r ExtFloat, coeffs []float64, odd bool) ExtFloat {
	r2 := Square(r)
	acc := FromFloat64(coeffs[len(coeffs)-1])
	for i := len(coeffs) - 2; i >= 0; i-- {
		acc = Add(Mul(acc, r2), FromFloat64(coeffs[i]))
	}
	if odd {
		acc = Mul(acc, r)
	}
	return acc
}

// Sin and Cos are convenience wrappers around SinCos for callers that only
// need one component.
func Sin(x ExtFloat) ExtFloat { s, _ := SinCos(x); return s }
func Cos(x ExtFloat) ExtFloat { _, c := SinCos(x); return c }

// atanTaylorTerms bounds the series length used by Atan's argument-reduced
// Taylor evaluation (arctan converges slowly near +/-1, which is why the
// reduction below always brings |x| under tan(pi/12) before summing).
const atanTaylorTerms = 24

// Atan returns atan(x) via range reduction (tan(pi/12) halving identity)
// followed by a Taylor series, matching the reduce-then-series structure
// used throughout the original's transcendental routines.
func Atan(x ExtFloat) ExtFloat {
	neg := x.IsNeg()
	if neg {
		x = Neg(x)
	}
	recip := false
	if x.Greater(FromFloat64(1)) {
		x = Recip(x)
		recip = true
	}
	// Halve the argument twice via tan half-angle identity t' = t/(1+sqrt(1+t^2))
	// to bring x into a region where the Taylor series converges quickly.
	halvings := 0
	for x.Greater(FromFloat64(0.2)) {
		denom := Add(FromFloat64(1), Sqrt(Add(FromFloat64(1), Square(x))))
		x = Div(x, denom)
		halvings++
	}

	x2 := Square(x)
	acc := Zero
	term := x
	for k := 0; k < atanTaylorTerms; k++ {
		sign := 1.0
		if k%2 == 1 {
			sign = -1.0
		}
		acc = Add(acc, MulFloat64(term, sign/float64(2*k+1)))
		term = Mul(term, x2)
	}

	for i := 0; i < halvings; i++ {
		acc = MulFloat64(acc, 2)
	}
	if recip {
		acc = Sub(HalfPi, acc)
	}
	if neg {
		acc = Neg(acc)
	}
	return acc
}

// Atan2 returns the angle of the point (x, y) in [-pi, pi], handling all
// four quadrants and the axis-aligned special cases the way math.Atan2
// does for float64.
func Atan2(y, x ExtFloat) ExtFloat {
	if x.IsZero() && y.IsZero() {
		if Signbit(x) {
			if Signbit(y) {
				return Neg(Pi)
			}
			return Pi
		}
		return Zero
	}
	if x.IsPos() {
		return Atan(Div(y, x))
	}
	if x.IsNeg() {
		if y.GreaterEq(Zero) {
			return Add(Atan(Div(y, x)), Pi)
		}
		return Sub(Atan(Div(y, x)), Pi)
	}
	// x == 0, y != 0
	if y.IsPos() {
		return HalfPi
	}
	return Neg(HalfPi)
}
