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

func TestConfigResolveConvertsDegreesToTrig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Resolve())
	assert.InDelta(t, 1/math.Tan(80*math.Pi/180), cfg.Resolved.GradientResetCot, 1e-9)
	assert.InDelta(t, math.Cos(5*math.Pi/180), cfg.Resolved.KludgeAdjustCos, 1e-9)
}

func TestConfigValidateRejectsBadWeight(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PreconditionerWeight = 1.5
	assert.Error(t, cfg.Resolve())
}

func TestBuildPreconditionerMsVolume(t *testing.T) {
	mesh := quadratic.NewMesh(2, 1e-24)
	st := quadratic.NewState(0, mesh, []sim.Vec3{{Z: 1}, {Z: 1}}, []float64{8e5, 4e5})
	cfg := DefaultConfig()
	cfg.Preconditioner = PrecondMsVolume
	require.NoError(t, cfg.Resolve())

	p, err := BuildPreconditioner(&cfg, st, nil, nil)
	require.NoError(t, err)
	// raw=1 per cell, maxval=1, pw=0.5: Cinv_i = 1/(0.5/(Ms_i*V_i) + 0.5),
	// not the unblended Ms*V the none path would give.
	assert.InDelta(t, 1.6e-18, p.Cinv[0], 1e-30)
	assert.InDelta(t, 8e-19, p.Cinv[1], 1e-30)
}

func TestBuildPreconditionerNoneIsUnblendedMsVolume(t *testing.T) {
	mesh := quadratic.NewMesh(2, 1e-24)
	st := quadratic.NewState(0, mesh, []sim.Vec3{{Z: 1}, {Z: 1}}, []float64{8e5, 4e5})
	cfg := DefaultConfig()
	cfg.Preconditioner = PrecondNone
	require.NoError(t, cfg.Resolve())

	p, err := BuildPreconditioner(&cfg, st, nil, nil)
	require.NoError(t, err)
	assert.InDelta(t, 8e5*1e-24, p.Cinv[0], 1e-40)
	assert.InDelta(t, 4e5*1e-24, p.Cinv[1], 1e-40)
}

func TestCgEvolverConvergesOnSingleSpinZeeman(t *testing.T) {
	mesh := quadratic.NewMesh(1, 1e-24)
	field := sim.Vec3{X: 0, Y: 0, Z: 1e5}
	zeeman := quadratic.ZeemanModule{Field: field}
	coll := quadratic.Collaborator{}

	// Start tilted 45 degrees away from the field direction.
	theta := math.Pi / 4
	start := quadratic.NewState(0, mesh,
		[]sim.Vec3{{X: math.Sin(theta), Y: 0, Z: math.Cos(theta)}},
		[]float64{8e5})

	cfg := DefaultConfig()
	cfg.Preconditioner = PrecondMsVolume
	ev, err := New(cfg, coll, []sim.EnergyModule{zeeman}, quadratic.Driver{MinStep: 1e-6, MaxStep: 1}, 42)
	require.NoError(t, err)

	state := sim.State(start)
	var last sim.State
	for i := 0; i < 200; i++ {
		next, err := ev.Step(state)
		require.NoError(t, err)
		state = next
		last = next
	}
	require.NotNil(t, last)

	report, err := coll.ComputeEnergies(last, []sim.EnergyModule{zeeman}, false, false)
	require.NoError(t, err)
	assert.Less(t, report.MaxMxHxm, 1e-6)
}

func TestCgEvolverTwoSpinSystemConverges(t *testing.T) {
	mesh := quadratic.NewMesh(2, 1e-24)
	field := sim.Vec3{X: 0, Y: 0, Z: 1e5}
	zeeman := quadratic.ZeemanModule{Field: field}
	coll := quadratic.Collaborator{}

	start := quadratic.NewState(0, mesh,
		[]sim.Vec3{
			{X: math.Sin(0.3), Z: math.Cos(0.3)},
			{X: math.Sin(-0.4), Z: math.Cos(-0.4)},
		},
		[]float64{8e5, 8e5})

	cfg := DefaultConfig()
	cfg.Preconditioner = PrecondNone
	ev, err := New(cfg, coll, []sim.EnergyModule{zeeman}, quadratic.Driver{MinStep: 1e-6, MaxStep: 1}, 7)
	require.NoError(t, err)

	state := sim.State(start)
	for i := 0; i < 300; i++ {
		next, err := ev.Step(state)
		require.NoError(t, err)
		state = next
	}

	report, err := coll.ComputeEnergies(state, []sim.EnergyModule{zeeman}, false, false)
	require.NoError(t, err)
	assert.Less(t, report.MaxMxHxm, 1e-4)
}

func TestCounterBookkeepingAdvances(t *testing.T) {
	mesh := quadratic.NewMesh(1, 1e-24)
	field := sim.Vec3{Z: 1e5}
	zeeman := quadratic.ZeemanModule{Field: field}
	coll := quadratic.Collaborator{}
	start := quadratic.NewState(0, mesh, []sim.Vec3{{X: 1, Z: 0}}, []float64{8e5})

	cfg := DefaultConfig()
	cfg.Preconditioner = PrecondMsVolume
	ev, err := New(cfg, coll, []sim.EnergyModule{zeeman}, quadratic.Driver{MinStep: 1e-6, MaxStep: 1}, 1)
	require.NoError(t, err)

	state := sim.State(start)
	for i := 0; i < 10; i++ {
		state, err = ev.Step(state)
		require.NoError(t, err)
	}
	assert.Greater(t, ev.Counters().EnergyCalcCount, int64(0))
	assert.Greater(t, ev.Counters().CycleCount, int64(0))
}
