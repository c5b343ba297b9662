// Copyright 2025 The go-highway Authors. SPDX-License-Identifier: Apache-2.0

package extfloat

import "math"

// expTaylorTerms bounds the series length for Expm1's core evaluation once
// the argument has been range-reduced to |r| <= log(2)/2.
const expTaylorTerms = 18

// Exp returns e^x.
func Exp(x ExtFloat) ExtFloat {
	if x.IsZero() {
		return FromFloat64(1)
	}
	return Add(FromFloat64(1), Expm1(x))
}

// Expm1 returns e^x - 1, computed via the classic "reduce by dividing out
// an integer multiple of log(2), Taylor-sum the remainder, then repeatedly
// square back up" strategy: squaring doubles the effective number of
// accurate bits each round, which is why reducing r small first and
// re-expanding via the (1+m)^2-1 = m^2+2m identity is cheaper than summing
// a slowly convergent series directly against the original argument.
func Expm1(x ExtFloat) ExtFloat {
	if x.IsZero() {
		return Zero
	}
	k := math.Round(Div(x, Log2).Float64())
	r := Sub(x, MulFloat64(Log2, k))

	// Further halve r until it's comfortably small for the Taylor series.
	halvings := 0
	for math.Abs(r.hi) > 0.05 {
		r = MulFloat64(r, 0.5)
		halvings++
	}

	term := r
	acc := Zero
	for n := 1; n <= expTaylorTerms; n++ {
		acc = Add(acc, term)
		term = MulFloat64(Mul(term, r), 1/float64(n+1))
	}

	// Undo the halvings: if m = e^r - 1 then e^(2r) - 1 = m^2 + 2m.
	m := acc
	for i := 0; i < halvings; i++ {
		m = Add(Square(m), MulFloat64(m, 2))
	}

	// Undo the log(2) reduction: e^x - 1 = (e^r2^k) - 1 = 2^k*(m+1) - 1.
	scaled := Ldexp(Add(m, FromFloat64(1)), int(k))
	return Sub(scaled, FromFloat64(1))
}

// logTaylorTerms bounds the series length for Log1p's atanh-style series.
const logTaylorTerms = 24

// Log returns the natural logarithm of x.
func Log(x ExtFloat) ExtFloat {
	if !x.IsPos() {
		return ExtFloat{hi: math.NaN()}
	}
	return Log1p(Sub(x, FromFloat64(1)))
}

// Log1p returns log(1+x), computed via the identity log(1+x) =
// 2*atanh(x/(2+x)), whose series in u=x/(2+x) converges much faster near
// x=0 than the naive log Taylor series (the same trick the original's
// log1p-style routines use to avoid catastrophic cancellation for small x).
func Log1p(x ExtFloat) ExtFloat {
	if x.IsZero() {
		return Zero
	}
	one := FromFloat64(1)
	arg := Add(one, x)
	if !arg.IsPos() {
		return ExtFloat{hi: math.NaN()}
	}

	// Pull out a power-of-two scale so u stays small: write 1+x = 2^k * m
	// with m in [2/3, 4/3], then log(1+x) = k*log(2) + log(m).
	mant, exp := math.Frexp(arg.Float64())
	k := exp
	if mant < 2.0/3 {
		mant *= 2
		k--
	}
	scale := math.Ldexp(1, -k)
	m := MulFloat64(arg, scale)

	u := Div(Sub(m, one), Add(m, one))
	u2 := Square(u)
	term := u
	acc := Zero
	for n := 0; n < logTaylorTerms; n++ {
		acc = Add(acc, MulFloat64(term, 1/float64(2*n+1)))
		term = Mul(term, u2)
	}
	logm := MulFloat64(acc, 2)
	return Add(MulFloat64(Log2, float64(k)), logm)
}
