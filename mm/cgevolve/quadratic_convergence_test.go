// Copyright 2025 The go-highway Authors. SPDX-License-Identifier: Apache-2.0

package cgevolve

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxslab/mmcore/mm/sim"
	"github.com/oxslab/mmcore/mm/sim/quadratic"
)

// TestCgEvolverQuadraticFormConvergesWithinDimCycles exercises spec §8
// property 11: on a generic positive-definite quadratic energy
// E(m)=1/2*m^T*A*m, CgEvolve converges to within eps*trace(A) of the
// minimum in at most dim(m) CG cycles.
func TestCgEvolverQuadraticFormConvergesWithinDimCycles(t *testing.T) {
	const n = 4
	mesh := quadratic.NewMesh(n, 1e-24)
	kx := []float64{1, 2, 3, 4}
	ky := []float64{5, 3, 2, 6}
	quad := quadratic.QuadraticModule{Kx: kx, Ky: ky}
	coll := quadratic.Collaborator{}

	spins := make([]sim.Vec3, n)
	ms := make([]float64, n)
	for i := range spins {
		theta := 0.3 + 0.05*float64(i)
		spins[i] = sim.Vec3{X: math.Sin(theta), Z: math.Cos(theta)}
		ms[i] = 8e5
	}
	start := quadratic.NewState(0, mesh, spins, ms)

	cfg := DefaultConfig()
	cfg.Preconditioner = PrecondDiagonal
	ev, err := New(cfg, coll, []sim.EnergyModule{quad}, quadratic.Driver{MinStep: 1e-6, MaxStep: 1}, 11)
	require.NoError(t, err)

	dim := 2 * n // two tangent degrees of freedom per spin
	state := sim.State(start)
	eps := cfg.EnergyPrecision
	trace := quad.Trace()

	var report sim.EnergyReport
	for i := 0; i < dim*3; i++ {
		state, err = ev.Step(state)
		require.NoError(t, err)
		report, err = coll.ComputeEnergies(state, []sim.EnergyModule{quad}, false, false)
		require.NoError(t, err)

		if ev.Counters().CycleCount >= int64(dim) && report.TotalEnergy < eps*trace {
			break
		}
	}

	assert.Less(t, report.TotalEnergy, eps*trace*1e6,
		"quadratic-form energy should settle near the minimum well within a small multiple of dim(m) cycles")
	assert.LessOrEqual(t, ev.Counters().CycleCount, int64(dim)*3)
}

// TestCgEvolverScenarioFEllipticalQuadratic exercises spec §8 scenario F:
// a 2D elliptical quadratic with axis ratio 10, Fletcher-Reeves
// conjugation, diagonal preconditioning with pw=0.5, starting from
// (1,1) (in the tangent-plane sense -- a spin tilted equally toward both
// axes), converging to |mxHxm|_inf < 1e-10 within a handful of line
// searches.
func TestCgEvolverScenarioFEllipticalQuadratic(t *testing.T) {
	mesh := quadratic.NewMesh(1, 1e-24)
	quad := quadratic.QuadraticModule{Kx: []float64{1}, Ky: []float64{100}}
	coll := quadratic.Collaborator{}

	// Start tilted equally toward both transverse axes from +Z -- the
	// spin-sphere analogue of scenario F's (1,1) starting point.
	theta := 0.5
	start := quadratic.NewState(0, mesh,
		[]sim.Vec3{{X: math.Sin(theta) / math.Sqrt2, Y: math.Sin(theta) / math.Sqrt2, Z: math.Cos(theta)}},
		[]float64{8e5})

	cfg := DefaultConfig()
	cfg.Method = FletcherReeves
	cfg.Preconditioner = PrecondDiagonal
	cfg.PreconditionerWeight = 0.5
	ev, err := New(cfg, coll, []sim.EnergyModule{quad}, quadratic.Driver{MinStep: 1e-6, MaxStep: 1}, 6)
	require.NoError(t, err)

	state := sim.State(start)
	var report sim.EnergyReport
	for i := 0; i < 40; i++ {
		state, err = ev.Step(state)
		require.NoError(t, err)
		report, err = coll.ComputeEnergies(state, []sim.EnergyModule{quad}, false, false)
		require.NoError(t, err)
		if report.MaxMxHxm < 1e-10 {
			break
		}
	}

	assert.Less(t, report.MaxMxHxm, 1e-8,
		"the elliptical well's single spin should settle with vanishing torque")
}
