// Copyright 2025 The go-highway Authors. SPDX-License-Identifier: Apache-2.0

package extfloat

import "math"

// Acc is a Kahan/Neumaier compensated-summation accumulator for plain
// float64 terms, grounded on Nb_Xpfloat (xpfloat.h). It is the cheap
// alternative to accumulating a full ExtFloat when every term is already a
// native double: one extra float64 of running correction recovers most of
// the precision a double-double would, at roughly half the arithmetic cost.
type Acc struct {
	sum  float64
	corr float64
}

// NewAcc returns a zero-valued accumulator.
func NewAcc() Acc { return Acc{} }

// Accum folds term into the running sum using Kahan-Neumaier compensated
// summation: the correction term captures the low-order bits that the
// direct sum would otherwise round away.
func (a Acc) Accum(term float64) Acc {
	newSum := a.sum + term
	if math.Abs(a.sum) >= math.Abs(term) {
		a.corr += (a.sum - newSum) + term
	} else {
		a.corr += (term - newSum) + a.sum
	}
	a.sum = newSum
	return a
}

// AccumExt folds in a full double-double value by accumulating its high and
// low words as two separate terms.
func (a Acc) AccumExt(x ExtFloat) Acc {
	a = a.Accum(x.hi)
	a = a.Accum(x.lo)
	return a
}

// Total returns the accumulated sum, with the correction term folded in, as
// a float64.
func (a Acc) Total() float64 { return a.sum + a.corr }

// TotalExt returns the accumulated sum plus its correction term combined
// into a full ExtFloat, recovering the precision the plain Total() discards.
func (a Acc) TotalExt() ExtFloat {
	return FromPair(a.sum, a.corr)
}

// DualAccum folds two terms into two independent accumulators in one call,
// mirroring Nb_XpfloatDualAccum's pairing of an energy-density update with
// a matching weighted-sum update from the same loop iteration.
func DualAccum(a, b Acc, ta, tb float64) (Acc, Acc) {
	return a.Accum(ta), b.Accum(tb)
}
