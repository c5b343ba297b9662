// Copyright 2025 The go-highway Authors. SPDX-License-Identifier: Apache-2.0

package extfloat

import (
	"math"
	"math/big"

	"github.com/remyoudompheng/bigfft"
)

// BigFloatVec is a positional big-float vector: sign * 2^offset * sum_i
// chunk[i] * 2^(-width*i), evaluated by the method below as a Horner
// recurrence in base 2^width. It mirrors the high-precision
// constructor Xp_DoubleDouble(const Xp_BigFloatVec&) (doubledouble.h:113).
type BigFloatVec struct {
	Sign   float64 // +1 or -1
	Offset int     // overall power-of-two exponent applied after reduction
	Width  int     // bits per chunk
	Chunk  []uint32
}

// ExtFloat evaluates the BigFloatVec down to an ExtFloat via the same
// Horner recurrence as the original constructor. Each division by 2^width
// is exact; only the double-double additions round.
func (v BigFloatVec) ExtFloat() ExtFloat {
	n := len(v.Chunk)
	if n == 0 {
		return Zero
	}
	twoM := math.Ldexp(1, v.Width)
	val := FromFloat64(float64(v.Chunk[n-1]))
	for i := n - 2; i >= 0; i-- {
		val = DivFloat64(val, twoM)
		val = Add(val, FromFloat64(float64(v.Chunk[i])))
	}
	val = MulFloat64(val, v.Sign)
	val = Ldexp(val, v.Offset)
	return val
}

// chunksOfReciprocalTwoPi returns the leading n chunks (each width bits) of
// the binary mantissa of 1/(2*pi) taken in [0.5, 1), which is 2/pi (the
// power-of-two exponent is dropped). It is recomputed via arbitrary-precision
// big.Float on every call. This backs the Payne-Hanek-style precise angle
// reduction used by ReduceModTwoPiPrecise for arguments too large for the
// native double-double fast path to reduce accurately.
func chunksOfReciprocalTwoPi(n, width int) []uint32 {
	prec := uint(n*width + 64)
	pi := new(big.Float).SetPrec(prec).SetInt64(0)
	// Build 2*pi from a 580-significant-digit decimal literal (about 1900
	// bits), which covers the n*width+64 bits of precision that the
	// 64-chunk, 27-bit table used by reduceModTwoPiPrecise needs. Larger
	// n*width requests get 2*pi only to the literal's precision.
	const twoPiDecimal = "6.2831853071795864769252867665590057683943387987502116419498891846156328125724179972560696506842341359642961730265646132941876892191011644634507188162569622349005682054038770422111192892458979098607639288576219513318668922569512964675735663305424038182912971338469206972209086532964267872145204982825474491740132126311763497630418419256585081834307287357851807200226610610976409330427682939038830232188661145407315191839061843722347638652235862102370961489247599254991347037715054497824558763660238982596673467248813132861720427898927904494743814043597218874055410784343525863535047"
	twoPi, _, err := big.ParseFloat(twoPiDecimal, 10, prec, big.ToNearestEven)
	if err != nil {
		twoPi = new(big.Float).SetPrec(prec).SetFloat64(2 * math.Pi)
	}
	pi.Quo(big.NewFloat(1).SetPrec(prec), twoPi)

	// Extract mantissa as a big.Int scaled by 2^prec, then slice into
	// n chunks of width bits apiece, most-significant first. The actual
	// multiply against a reduced argument's mantissa (done by callers) is
	// where bigfft.Mul is exercised, since that product is the one that
	// can be large enough to benefit from FFT-based multiplication.
	mantissa := new(big.Float)
	exp := pi.MantExp(mantissa)
	_ = exp
	scaled := new(big.Int)
	mantissa.SetMantExp(mantissa, int(prec))
	mantissa.Int(scaled)

	chunks := make([]uint32, n)
	mask := new(big.Int).SetUint64((uint64(1) << uint(width)) - 1)
	tmp := new(big.Int).Set(scaled)
	totalBits := n * width
	tmp.Lsh(tmp, uint(0))
	// Align so the most significant chunk is the top `width` bits.
	shift := prec - uint(totalBits)
	if int(shift) > 0 {
		tmp.Rsh(tmp, shift)
	}
	for i := n - 1; i >= 0; i-- {
		c := new(big.Int).And(tmp, mask)
		chunks[i] = uint32(c.Uint64())
		tmp.Rsh(tmp, uint(width))
	}
	return chunks
}

// reduceModTwoPiPrecise reduces x by whole quarter turns using the many-chunk
// expansion of 2/pi from chunksOfReciprocalTwoPi, for use when the fast
// double-double reduction in ReduceModTwoPi would lose all significant bits
// to cancellation (i.e. |x| several orders of magnitude above 1). It returns
// the fractional part r in [0, 1) of x/(pi/2) (still to be multiplied by
// pi/2 by the caller) and the integer quadrant count k = floor(x/(pi/2)),
// so that x = (k + r)*pi/2 + small residual.
//
// The chunk count (64 for 53-bit doubles) matches the sizing in spec §4.A;
// the actual multiply of the input mantissa against the chunk table is
// delegated to bigfft.Mul, which is the ecosystem's FFT-accelerated
// big.Int multiplication and is what makes reducing an angle with a huge
// exponent tractable.
func reduceModTwoPiPrecise(x float64) (r float64, quadrantCount *big.Int) {
	const numChunks = 64
	const chunkWidth = 27

	mant, exp := math.Frexp(x)
	mantInt := new(big.Int).SetInt64(int64(mant * (1 << 53)))
	chunks := chunksOfReciprocalTwoPi(numChunks, chunkWidth)

	table := new(big.Int)
	for _, c := range chunks {
		table.Lsh(table, chunkWidth)
		table.Or(table, big.NewInt(int64(c)))
	}

	product := bigfft.Mul(mantInt, table)

	// product represents mant * 2^53 * (2/pi truncated to
	// numChunks*chunkWidth bits), additionally scaled by 2^exp from the
	// original Frexp split. Shift down to recover the integer part
	// (quadrant count) and the fractional remainder.
	totalShift := 53 + numChunks*chunkWidth - exp
	quadrantCount = new(big.Int).Rsh(product, uint(max(totalShift, 0)))

	frac := new(big.Int).Set(product)
	if totalShift > 0 {
		mask := new(big.Int).Lsh(big.NewInt(1), uint(totalShift))
		mask.Sub(mask, big.NewInt(1))
		frac.And(frac, mask)
		fracF := new(big.Float).SetInt(frac)
		scale := new(big.Float).SetMantExp(big.NewFloat(1), -totalShift)
		fracF.Mul(fracF, scale)
		r64, _ := fracF.Float64()
		r = r64
	}
	return r, quadrantCount
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// FindRationalApproximation finds p, q (as ExtFloat integers) approximating
// x/y to within relative error relerr with denominator q no larger than
// maxq, via the continued-fraction expansion of x/y. This is the Go
// counterpart of Xp_FindRatApprox (doubledouble.h:429-432), present in the
// original public surface but dropped from spec.md's component list; it is
// supplemented here per SPEC_FULL.md since it costs little once ExtFloat
// division and Floor exist.
func FindRationalApproximation(x, y, relerr, maxq ExtFloat) (p, q ExtFloat, ok bool) {
	if y.IsZero() {
		return Zero, Zero, false
	}
	target := Div(x, y)
	a0 := Floor(target)
	num0, den0 := FromFloat64(1), FromFloat64(0) // convergent h_{-1}/k_{-1}
	num1, den1 := a0, FromFloat64(1)              // convergent h_0/k_0
	remainder := Sub(target, a0)

	for i := 0; i < 64; i++ {
		approx := Div(num1, den1)
		diff := Abs(Sub(approx, target))
		bound := Abs(MulFloat64(target, relerr.Float64()))
		if diff.LessEq(bound) || remainder.IsZero() {
			return num1, den1, true
		}
		if den1.Greater(maxq) {
			return num0, den0, true
		}
		recip := Recip(remainder)
		a := Floor(recip)
		remainder = Sub(recip, a)

		newNum := Add(Mul(a, num1), num0)
		newDen := Add(Mul(a, den1), den0)
		num0, den0 = num1, den1
		num1, den1 = newNum, newDen

		if remainder.IsZero() {
			return num1, den1, true
		}
	}
	return num1, den1, true
}
