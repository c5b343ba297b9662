// Copyright 2025 The go-highway Authors. SPDX-License-Identifier: Apache-2.0

package extfloat

// Double-double reference constants, values as published by Bailey et al.'s
// QD library and cited by the Xp_DoubleDouble source this package mirrors
// (DD_SQRT2, DD_LOG2, DD_PI, DD_HALFPI).
var (
	Pi         = fromNormalizedPair(3.141592653589793116e+00, 1.224646799147353207e-16)
	HalfPi     = fromNormalizedPair(1.570796326794896558e+00, 6.123233995736766036e-17)
	QuarterPi  = fromNormalizedPair(7.853981633974482790e-01, 3.061616997868383018e-17)
	TwoPi      = fromNormalizedPair(6.283185307179586232e+00, 2.449293598294706414e-16)
	Log2       = fromNormalizedPair(6.931471805599452862e-01, 2.319046813846299558e-17)
	Sqrt2      = fromNormalizedPair(1.414213562373095145e+00, -9.667293313452913451e-17)
	recipTwoPi = Div(FromFloat64(1), TwoPi)
)
