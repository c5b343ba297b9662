// Copyright 2025 The go-highway Authors. SPDX-License-Identifier: Apache-2.0

package quadratic

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oxslab/mmcore/mm/sim"
)

func TestZeemanEnergyMinimizedWhenAligned(t *testing.T) {
	mesh := NewMesh(1, 1e-24)
	field := sim.Vec3{X: 0, Y: 0, Z: 1e5}
	zeeman := ZeemanModule{Field: field}
	coll := Collaborator{}

	aligned := NewState(0, mesh, []sim.Vec3{{X: 0, Y: 0, Z: 1}}, []float64{8e5})
	antiAligned := NewState(1, mesh, []sim.Vec3{{X: 0, Y: 0, Z: -1}}, []float64{8e5})

	rAligned, err := coll.ComputeEnergies(aligned, []sim.EnergyModule{zeeman}, false, false)
	assert.NoError(t, err)
	rAnti, err := coll.ComputeEnergies(antiAligned, []sim.EnergyModule{zeeman}, false, false)
	assert.NoError(t, err)

	assert.Less(t, rAligned.TotalEnergy, rAnti.TotalEnergy)
	assert.InDelta(t, 0, rAligned.MaxMxHxm, 1e-12)
}

func TestTorqueNonzeroAwayFromEquilibrium(t *testing.T) {
	mesh := NewMesh(1, 1e-24)
	field := sim.Vec3{X: 1, Y: 0, Z: 0}
	zeeman := ZeemanModule{Field: field}
	coll := Collaborator{}

	perp := NewState(0, mesh, []sim.Vec3{{X: 0, Y: 1, Z: 0}}, []float64{8e5})
	r, err := coll.ComputeEnergies(perp, []sim.EnergyModule{zeeman}, true, true)
	assert.NoError(t, err)
	assert.Greater(t, r.MaxMxHxm, 0.0)
	assert.InDelta(t, 1.0, math.Hypot(r.Field[0].X, r.Field[0].Y), 1e-12)
}

func TestDEnergyDtIsZero(t *testing.T) {
	mesh := NewMesh(2, 1e-24)
	zeeman := ZeemanModule{Field: sim.Vec3{Z: 1}}
	coll := Collaborator{}
	st := NewState(0, mesh,
		[]sim.Vec3{{Z: 1}, {Z: -1}},
		[]float64{8e5, 8e5})
	r, err := coll.ComputeEnergies(st, []sim.EnergyModule{zeeman}, false, false)
	assert.NoError(t, err)
	assert.Equal(t, 0.0, r.DEnergyDt)
}
