// Copyright 2025 The go-highway Authors. SPDX-License-Identifier: Apache-2.0

package cgevolve

import (
	"math"

	"github.com/oxslab/mmcore/mm/extfloat"
	"github.com/oxslab/mmcore/mm/sim"
)

// dotSum computes sum_i a[i].Dot(b[i]) using a compensated reduction,
// matching spec §5's "reductions use compensated summation" policy.
func dotSum(a, b []sim.Vec3) float64 {
	acc := extfloat.NewAcc()
	for i := range a {
		acc = acc.Accum(a[i].Dot(b[i]))
	}
	return acc.Total()
}

// directionalDerivative computes sum_i direction[i].Dot(g[i]), the raw
// dE/d(offset) term at offset 0 before the -mu0 scale is applied.
func directionalDerivative(direction, g []sim.Vec3) float64 {
	return dotSum(direction, g)
}

func vecNorm(v []sim.Vec3) float64 {
	acc := extfloat.NewAcc()
	for _, x := range v {
		acc = acc.Accum(x.Dot(x))
	}
	return math.Sqrt(acc.Total())
}

// projectOrthogonal removes the component of direction parallel to the
// local spin at each site in place, matching set_base_point's "make d
// orthogonal to m at each site (project out (d.m).m)".
func projectOrthogonal(spins, direction []sim.Vec3) {
	for i := range direction {
		proj := direction[i].Dot(spins[i])
		direction[i] = direction[i].Sub(spins[i].Scale(proj))
	}
}

// kludgeAlpha solves for the positive root of the quadratic that makes
// the blended direction prev + alpha*pg form exactly the kludge angle
// with g, per spec §4.F's "Kludge safety" paragraph. The coefficients
// come from expanding cos(angle)^2 * |d|^2*|g|^2 == (d.g)^2 for
// d = prev + alpha*pg.
func kludgeAlpha(cosAngle float64, prev, pg, g []sim.Vec3) float64 {
	c2 := cosAngle * cosAngle

	prevDotG := dotSum(prev, g)
	pgDotG := dotSum(pg, g)
	prevNorm2 := dotSum(prev, prev)
	pgNorm2 := dotSum(pg, pg)
	crossNorm2 := dotSum(prev, pg)
	gNorm2 := dotSum(g, g)

	// (prevDotG + alpha*pgDotG)^2 = c2 * (prevNorm2 + 2*alpha*crossNorm2 + alpha^2*pgNorm2) * gNorm2
	a := pgDotG*pgDotG - c2*pgNorm2*gNorm2
	b := 2*prevDotG*pgDotG - 2*c2*crossNorm2*gNorm2
	cc := prevDotG*prevDotG - c2*prevNorm2*gNorm2

	if math.Abs(a) < 1e-300 {
		if b == 0 {
			return 0
		}
		return -cc / b
	}
	disc := b*b - 4*a*cc
	if disc < 0 {
		disc = 0
	}
	sq := math.Sqrt(disc)
	r1 := (-b + sq) / (2 * a)
	r2 := (-b - sq) / (2 * a)
	if r1 > 0 && (r2 <= 0 || r1 < r2) {
		return r1
	}
	if r2 > 0 {
		return r2
	}
	return 0
}
