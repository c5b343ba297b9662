// Copyright 2025 The go-highway Authors. SPDX-License-Identifier: Apache-2.0

// Package extfloat implements a double-double extended-precision scalar
// (ExtFloat) with a ~106-bit mantissa, correctly-rounded-to-within-0.5-ULP
// basic arithmetic, and a compensated-summation accumulator (Acc). It is
// the extended-precision primitive consumed throughout mm/cgevolve wherever
// long parallel reductions need more than native float64 precision.
//
// Algorithms are grounded on T.J. Dekker's "A floating-point technique for
// extending the available precision" (Numer. Math. 18, 1971) and J.R.
// Shewchuk's "Adaptive precision floating-point arithmetic and fast robust
// geometric predicates" (1997), the same pair cited by the original
// Xp_DoubleDouble source this package's tests are grounded on.
package extfloat

import "math"

// ExtFloat is an extended-precision real: a pair (hi, lo) of float64 with
// |lo| <= 0.5*ULP(hi) and hi+lo evaluated exactly. The pair is normalized on
// every externally visible boundary. NaN and +/-Inf propagate; -0 is
// preserved by +, *, /, unary - and the explicit SignedZero helper.
type ExtFloat struct {
	hi, lo float64
}

// Zero is the additive identity.
var Zero = ExtFloat{}

// FromFloat64 constructs an ExtFloat exactly representing a float64.
func FromFloat64(x float64) ExtFloat {
	return ExtFloat{hi: x, lo: 0}
}

// FromPair constructs an ExtFloat from a (hi, lo) pair, normalizing it so
// that the documented invariant holds. Use this whenever hi and lo are not
// already known to be normalized (e.g. when parsed from text).
func FromPair(hi, lo float64) ExtFloat {
	if math.IsNaN(hi) || math.IsInf(hi, 0) {
		return ExtFloat{hi: hi, lo: 0}
	}
	s, e := twoSum(hi, lo)
	return ExtFloat{hi: s, lo: e}
}

// fromNormalizedPair is used internally where hi/lo are already known to
// satisfy the normalization invariant, skipping the renormalizing two-sum.
func fromNormalizedPair(hi, lo float64) ExtFloat {
	return ExtFloat{hi: hi, lo: lo}
}

// Hi returns the high word.
func (x ExtFloat) Hi() float64 { return x.hi }

// Lo returns the low word.
func (x ExtFloat) Lo() float64 { return x.lo }

// DebugBits returns both words without any sanity checking, for error
// handling / diagnostic code paths only.
func (x ExtFloat) DebugBits() (hi, lo float64) { return x.hi, x.lo }

// Float64 down-converts to the nearest float64.
func (x ExtFloat) Float64() float64 {
	return x.hi + x.lo
}

// IsNormalized reports whether the pair currently satisfies the
// documented normalization invariant. NaN/Inf values are always considered
// normalized (lo is forced to 0 for them).
func (x ExtFloat) IsNormalized() bool {
	if math.IsNaN(x.hi) || math.IsInf(x.hi, 0) {
		return x.lo == 0
	}
	if x.hi == 0 {
		return true // signed-zero corner: implementation-defined, never rejected
	}
	s, e := twoSum(x.hi, x.lo)
	return s == x.hi && e == x.lo
}

// IsNaN, IsInf mirror math's helpers against the high word, which always
// carries any NaN/Inf condition of the pair.
func (x ExtFloat) IsNaN() bool       { return math.IsNaN(x.hi) }
func (x ExtFloat) IsInf(sign int) bool { return math.IsInf(x.hi, sign) }

// IsZero, IsPos, IsNeg classify a normalized value.
func (x ExtFloat) IsZero() bool { return x.hi == 0 }
func (x ExtFloat) IsPos() bool  { return x.hi > 0 }
func (x ExtFloat) IsNeg() bool  { return x.hi < 0 }

// Compare returns -1, 0, or 1 per a<b, a==b, a>b. NaN behavior is
// undefined, matching Xp_Compare.
func Compare(a, b ExtFloat) int {
	if a.hi < b.hi {
		return -1
	}
	if a.hi > b.hi {
		return 1
	}
	if a.lo < b.lo {
		return -1
	}
	if a.lo > b.lo {
		return 1
	}
	return 0
}

func (a ExtFloat) Less(b ExtFloat) bool    { return Compare(a, b) < 0 }
func (a ExtFloat) LessEq(b ExtFloat) bool  { return Compare(a, b) <= 0 }
func (a ExtFloat) Greater(b ExtFloat) bool { return Compare(a, b) > 0 }
func (a ExtFloat) GreaterEq(b ExtFloat) bool { return Compare(a, b) >= 0 }
func (a ExtFloat) Equal(b ExtFloat) bool   { return Compare(a, b) == 0 }

// GetMantissaWidth returns the effective mantissa width in bits: 2*53+1.
func GetMantissaWidth() int { return 2*53 + 1 }

// ULP returns the unit-in-the-last-place magnitude of x, assuming hi and lo
// are close-packed.
func (x ExtFloat) ULP() float64 {
	if x.hi == 0 {
		return math.Ldexp(1, -1074) // smallest subnormal double, as a floor
	}
	e := ilogb(x.hi)
	return math.Ldexp(1, e-2*53+1)
}

// ComputeDiffULP returns the difference between x and ref, measured in
// units of refulp. If refulp is zero, the absolute difference is returned
// instead.
func (x ExtFloat) ComputeDiffULP(ref ExtFloat, refulp float64) float64 {
	diff := Sub(x, ref)
	d := diff.Float64()
	if refulp == 0 {
		return math.Abs(d)
	}
	return math.Abs(d / refulp)
}

func ilogb(x float64) int {
	if x == 0 {
		return 0
	}
	_, e := math.Frexp(x)
	return e - 1
}

// SignedZero returns a signed zero matching the sign that a product or
// quotient of afactor and bfactor would carry, used by multiplication and
// division to preserve signed-zero semantics (spec §4.A).
func SignedZero(afactor, bfactor float64) float64 {
	if signbitF(afactor) != signbitF(bfactor) {
		return math.Copysign(0, -1)
	}
	return math.Copysign(0, 1)
}

func signbitF(x float64) bool { return math.Signbit(x) }

// Signbit returns true if x <= -0.0.
func Signbit(x ExtFloat) bool { return math.Signbit(x.hi) }
