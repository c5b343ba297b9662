// Copyright 2025 The go-highway Authors. SPDX-License-Identifier: Apache-2.0

package extfloat

import "math"

// splitter is 1 + 2^ceil(p/2) for p=53, i.e. 1 + 2^27, used by Dekker's
// split to divide a float64 mantissa into non-overlapping halves.
const splitter = (1 << 27) + 1

// orderedTwoSum requires |x| >= |y|. It returns (s, e) with s = x (+) y
// (the rounded double sum) and e = x + y - s computed exactly. Exact for
// finite inputs; if the sum overflows both returned components become
// +/-Inf with the sum's sign.
func orderedTwoSum(x, y float64) (s, e float64) {
	s = x + y
	if math.IsInf(s, 0) {
		return s, s
	}
	e = y - (s - x)
	return s, e
}

// twoSum is the symmetric (order-independent) variant, using the three
// extra FLOPs Shewchuk's algorithm needs when |x| >= |y| isn't known.
func twoSum(x, y float64) (s, e float64) {
	s = x + y
	bv := s - x
	av := s - bv
	bErr := y - bv
	aErr := x - av
	e = aErr + bErr
	if math.IsInf(s, 0) {
		// Overflow: both components degrade to a signed infinity.
		return s, s
	}
	return s, e
}

// twoDiff is twoSum(x, -y).
func twoDiff(x, y float64) (s, e float64) {
	return twoSum(x, -y)
}

// split performs a Dekker split of x into high and low halves with
// non-overlapping mantissas, each representable exactly in ~26 bits. On
// overflow of the scaling multiply it returns NaNs.
func split(x float64) (hi, lo float64) {
	c := splitter * x
	if math.IsInf(c, 0) {
		return math.NaN(), math.NaN()
	}
	hi = c - (c - x)
	lo = x - hi
	return hi, lo
}

// twoProd returns (p, e) with p = x*y (rounded) and e = x*y - p computed
// exactly, using math.FMA (always available in Go, compiled to a hardware
// FMA instruction when the target supports it). If the product overflows,
// both components are that infinity.
func twoProd(x, y float64) (p, e float64) {
	p = x * y
	if math.IsInf(p, 0) {
		return p, p
	}
	e = math.FMA(x, y, -p)
	return p, e
}

// squareProd computes x*x via twoProd, exposed separately because several
// call sites (Square, norms) want it without constructing a second operand.
func squareProd(x float64) (p, e float64) {
	return twoProd(x, x)
}

// rescale undoes a power-of-two prescale applied before a multiply or
// divide near the overflow/underflow edge by applying math.Ldexp to both
// words. It does not detect precision lost to underflow rounding.
func rescale(x, y, scale float64) (u, v float64) {
	u = math.Ldexp(x, int(scale))
	v = math.Ldexp(y, int(scale))
	return u, v
}

// coalesce folds three doubles, assumed ordered |a0|>=|a1|>=|a2|, down to a
// normalized two-word (hi, lo) pair.
func coalesce(a0, a1, a2 float64) (hi, lo float64) {
	s1, e1 := twoSum(a1, a2)
	s0, e0 := twoSum(a0, s1)
	lo = e0 + e1
	hi, lo = twoSum(s0, lo)
	return hi, lo
}

// --- Arithmetic operators ------------------------------------------------

// Add returns x+y to within 0.5 ULP.
func Add(x, y ExtFloat) ExtFloat {
	if x.hi == 0 && x.lo == 0 {
		return y
	}
	if y.hi == 0 && y.lo == 0 {
		return x
	}
	s, e := twoSum(x.hi, y.hi)
	t, f := twoSum(x.lo, y.lo)
	e += t
	hi, lo := coalesce(s, e, f)
	if math.IsInf(hi, 0) {
		return ExtFloat{hi: hi, lo: 0}
	}
	if hi == 0 && lo == 0 {
		return ExtFloat{hi: SignedZero(1, 1) * 0, lo: 0}
	}
	return fromNormalizedPair(hi, lo)
}

// Sub returns x-y to within 0.5 ULP.
func Sub(x, y ExtFloat) ExtFloat {
	return Add(x, Neg(y))
}

// Neg returns -x, preserving signed zero.
func Neg(x ExtFloat) ExtFloat {
	return ExtFloat{hi: -x.hi, lo: -x.lo}
}

// Abs returns |x|.
func Abs(x ExtFloat) ExtFloat {
	if x.hi < 0 {
		return Neg(x)
	}
	return x
}

// Mul returns x*y to within 0.5 ULP, rescaling near the over/underflow
// edge and preserving signed zero.
func Mul(x, y ExtFloat) ExtFloat {
	if x.hi == 0 || y.hi == 0 {
		h := SignedZero(x.hi, y.hi)
		return ExtFloat{hi: h, lo: 0}
	}
	if needsRescale(x.hi) || needsRescale(y.hi) {
		return mulRescaled(x, y)
	}
	p, e := twoProd(x.hi, y.hi)
	if math.IsInf(p, 0) {
		return ExtFloat{hi: p, lo: 0}
	}
	e += x.hi*y.lo + x.lo*y.hi
	hi, lo := twoSum(p, e)
	return fromNormalizedPair(hi, lo)
}

func needsRescale(x float64) bool {
	if x == 0 {
		return false
	}
	e := ilogb(math.Abs(x))
	return e > 450 || e < -450
}

func mulRescaled(x, y ExtFloat) ExtFloat {
	ex := ilogb(x.hi)
	ey := ilogb(y.hi)
	scale := float64(-(ex + ey))
	xs := ExtFloat{hi: math.Ldexp(x.hi, int(-ex)), lo: math.Ldexp(x.lo, int(-ex))}
	ys := ExtFloat{hi: math.Ldexp(y.hi, int(-ey)), lo: math.Ldexp(y.lo, int(-ey))}
	p, e := twoProd(xs.hi, ys.hi)
	e += xs.hi*ys.lo + xs.lo*ys.hi
	hi, lo := twoSum(p, e)
	unhi := math.Ldexp(hi, -int(scale))
	unlo := math.Ldexp(lo, -int(scale))
	return fromNormalizedPair(unhi, unlo)
}

// Square returns x*x (slightly cheaper than Mul(x,x)).
func Square(x ExtFloat) ExtFloat {
	if x.hi == 0 {
		return ExtFloat{}
	}
	p, e := squareProd(x.hi)
	e += 2 * x.hi * x.lo
	hi, lo := twoSum(p, e)
	return fromNormalizedPair(hi, lo)
}

// Recip returns 1/x via Newton refinement of a float64 seed.
func Recip(x ExtFloat) ExtFloat {
	if x.hi == 0 {
		return ExtFloat{hi: SignedZero(1, x.hi) * math.Inf(1)}
	}
	seed := 1 / x.hi
	// One Newton step in double-double: q1 = seed*(2 - x*seed)
	approx := FromFloat64(seed)
	r := Sub(FromFloat64(1), Mul(x, approx))
	correction := Mul(approx, r)
	q := Add(approx, correction)
	// Second refinement for full double-double accuracy.
	r2 := Sub(FromFloat64(1), Mul(x, q))
	return Add(q, Mul(q, r2))
}

// Div returns x/y.
func Div(x, y ExtFloat) ExtFloat {
	if y.hi == 0 {
		if x.hi == 0 {
			return ExtFloat{hi: math.NaN()}
		}
		sign := SignedZero(x.hi, y.hi)
		inf := math.Inf(1)
		if sign < 0 {
			inf = math.Inf(-1)
		}
		return ExtFloat{hi: inf}
	}
	q := x.hi / y.hi
	qa := FromFloat64(q)
	r := Sub(x, Mul(qa, y))
	qcorr := Div2(r, y)
	result := Add(qa, qcorr)
	if math.IsNaN(result.hi) && x.hi != 0 {
		return result
	}
	if result.hi == 0 && result.lo == 0 {
		h := SignedZero(x.hi, y.hi)
		return ExtFloat{hi: h, lo: 0}
	}
	return result
}

// Div2 is a coarse (float64-accuracy) divide used only to compute a Newton
// correction term inside Div, to avoid infinite recursion.
func Div2(x, y ExtFloat) ExtFloat {
	if y.hi == 0 {
		return ExtFloat{}
	}
	return FromFloat64(x.Float64() / y.hi)
}

// DivFloat64 divides an ExtFloat by a native float64.
func DivFloat64(x ExtFloat, y float64) ExtFloat {
	return Div(x, FromFloat64(y))
}

// MulFloat64 multiplies an ExtFloat by a native float64.
func MulFloat64(x ExtFloat, y float64) ExtFloat {
	return Mul(x, FromFloat64(y))
}

// Sqrt returns sqrt(x) via Newton refinement seeded from math.Sqrt.
func Sqrt(x ExtFloat) ExtFloat {
	if x.hi < 0 {
		return ExtFloat{hi: math.NaN()}
	}
	if x.hi == 0 {
		return ExtFloat{hi: x.hi}
	}
	if math.IsInf(x.hi, 1) {
		return x
	}
	seed := math.Sqrt(x.hi)
	s := FromFloat64(seed)
	// Newton step for sqrt: s' = s - (s*s - x)/(2*s) done in double-double.
	num := Sub(Square(s), x)
	denom := MulFloat64(s, 2)
	return Sub(s, Div(num, denom))
}

// RecipSqrt returns 1/sqrt(x) via a Newton seed refined with a Halley
// correction, matching the source's documented "Newton+Halley" combination.
func RecipSqrt(x ExtFloat) ExtFloat {
	if x.hi <= 0 {
		return ExtFloat{hi: math.NaN()}
	}
	seed := 1 / math.Sqrt(x.hi)
	y := FromFloat64(seed)
	// Newton step: y1 = y*(1.5 - 0.5*x*y*y)
	xy2 := Mul(x, Square(y))
	inner := Sub(FromFloat64(1.5), MulFloat64(xy2, 0.5))
	y1 := Mul(y, inner)
	// Halley correction step for extra precision.
	xy2b := Mul(x, Square(y1))
	t := Sub(FromFloat64(1), xy2b)
	halley := Add(FromFloat64(1), MulFloat64(t, 0.5))
	return Mul(y1, halley)
}

// Ldexp returns x * 2^n exactly (no renormalization needed: scaling by a
// power of two never changes the relative relationship between hi and lo).
func Ldexp(x ExtFloat, n int) ExtFloat {
	return ExtFloat{hi: math.Ldexp(x.hi, n), lo: math.Ldexp(x.lo, n)}
}

// Floor returns the largest ExtFloat integer value <= x.
func Floor(x ExtFloat) ExtFloat {
	hi := math.Floor(x.hi)
	if hi != x.hi {
		return FromFloat64(hi)
	}
	return FromPair(hi, math.Floor(x.lo))
}

// Ceil returns the smallest ExtFloat integer value >= x.
func Ceil(x ExtFloat) ExtFloat {
	hi := math.Ceil(x.hi)
	if hi != x.hi {
		return FromFloat64(hi)
	}
	return FromPair(hi, math.Ceil(x.lo))
}
