// Copyright 2025 The go-highway Authors. SPDX-License-Identifier: Apache-2.0

// Package quadratic provides a synthetic Zeeman-energy test problem
// implementing the mm/sim collaborator interfaces, used to exercise
// mm/cgevolve end to end without pulling in a real micromagnetic energy
// stack. Its energy landscape (quadratic near the minimum, exactly
// solvable) gives CgEvolve tests a known-good target to converge toward.
package quadratic

import (
	"math"

	"github.com/oxslab/mmcore/mm/sim"
)

// Mesh is a uniform flat mesh: cellCount identical cells of cellVol each.
type Mesh struct {
	cellCount int
	cellVol   float64
}

func NewMesh(cellCount int, cellVol float64) *Mesh {
	return &Mesh{cellCount: cellCount, cellVol: cellVol}
}

func (m *Mesh) TotalVolume() float64 { return float64(m.cellCount) * m.cellVol }
func (m *Mesh) CellVolume(int) float64 { return m.cellVol }
func (m *Mesh) HasUniformCellVolumes() (float64, bool) { return m.cellVol, true }
func (m *Mesh) CellCount() int { return m.cellCount }

// State is the concrete sim.State implementation: a spin configuration
// plus its derived-data memo map.
type State struct {
	id      int64
	stage   int
	spins   []sim.Vec3
	ms      []float64
	mesh    *Mesh
	derived sim.MapDerivedData
}

func NewState(id int64, mesh *Mesh, spins []sim.Vec3, ms []float64) *State {
	return &State{
		id:      id,
		mesh:    mesh,
		spins:   spins,
		ms:      ms,
		derived: make(sim.MapDerivedData),
	}
}

func (s *State) ID() int64             { return s.id }
func (s *State) Stage() int            { return s.stage }
func (s *State) Spins() []sim.Vec3     { return s.spins }
func (s *State) Ms() []float64         { return s.ms }
func (s *State) Mesh() sim.Mesh        { return s.mesh }
func (s *State) Derived() sim.DerivedData { return s.derived }

// Clone returns a deep-enough copy for fill_state's structural-field-copy
// semantics: a new spin slice (so a minimizer trial doesn't alias the
// source state), sharing Ms and mesh (which never change mid-run).
func (s *State) Clone(newID int64) *State {
	spins := make([]sim.Vec3, len(s.spins))
	copy(spins, s.spins)
	return &State{
		id:      newID,
		stage:   s.stage,
		spins:   spins,
		ms:      s.ms,
		mesh:    s.mesh,
		derived: make(sim.MapDerivedData),
	}
}

// WithSpins implements sim.State: a new state carrying spins, sharing Ms
// and mesh with the receiver.
func (s *State) WithSpins(id int64, spins []sim.Vec3) sim.State {
	cp := make([]sim.Vec3, len(spins))
	copy(cp, spins)
	return &State{
		id:      id,
		stage:   s.stage,
		spins:   cp,
		ms:      s.ms,
		mesh:    s.mesh,
		derived: make(sim.MapDerivedData),
	}
}

// ZeemanModule is a constant-applied-field energy term:
// E = -mu0 * sum_i Ms_i * V_i * (m_i . Field), whose unique minimum is
// every spin aligned with Field -- a simple, exactly known target for
// convergence tests.
type ZeemanModule struct {
	Field sim.Vec3
}

func (ZeemanModule) Name() string { return "quadratic.Zeeman" }

const mu0 = 4 * math.Pi * 1e-7

// FieldAt returns the (constant) applied field at every cell; this is the
// capability Collaborator.ComputeEnergies looks for on each supplied
// module via a type assertion.
func (z ZeemanModule) FieldAt(state sim.State, i int) sim.Vec3 { return z.Field }

// IncrementPreconditioner contributes the Zeeman term's (trivial, since
// it's linear in m) diagonal: 0, matching a field-only term having no
// curvature. It exists so tests can exercise the diagonal preconditioner
// code path's capability-interface dispatch (sim.PreconditionerContributor).
func (ZeemanModule) IncrementPreconditioner(state sim.State, diag []float64) error {
	return nil
}

// Fielder is the capability Collaborator looks for on each energy module.
// State is passed through so a module's field may depend on the current
// spin configuration (QuadraticModule's bilinear coupling, unlike the
// constant ZeemanModule field).
type Fielder interface {
	FieldAt(state sim.State, i int) sim.Vec3
}

// QuadraticModule is a synthetic bilinear energy term, E = sum_i
// 1/2*(Kx_i*x_i^2 + Ky_i*y_i^2) over the tangent-plane deviation (x_i,
// y_i) of each spin from +Z, giving CgEvolve a genuine E(m)=1/2 m^T A m
// landscape to minimize (A the block-diagonal matrix diag(Kx_1, Ky_1,
// Kx_2, Ky_2, ...)) -- generalizing ZeemanModule's linear field to the
// quadratic form spec §8 property 11 and scenario F require, in the
// structural idiom of OOMMF's Oxs_UniaxialAnisotropy but with
// independent x/y stiffnesses instead of one axial constant.
type QuadraticModule struct {
	Kx, Ky []float64
}

func (QuadraticModule) Name() string { return "quadratic.Biaxial" }

// FieldAt returns the linear-in-m field -A_i*m_i (restricted to the x,y
// tangent-plane components) whose torque drives each spin toward +Z,
// the quadratic well's unique minimum.
func (q QuadraticModule) FieldAt(state sim.State, i int) sim.Vec3 {
	ms := state.Ms()
	mesh := state.Mesh()
	spin := state.Spins()[i]
	scale := 0.5 / (mu0 * ms[i] * mesh.CellVolume(i))
	return sim.Vec3{X: -q.Kx[i] * spin.X * scale, Y: -q.Ky[i] * spin.Y * scale}
}

// IncrementPreconditioner contributes each cell's average tangent-plane
// stiffness as its diagonal Hessian estimate; the scalar-per-cell
// preconditioner format has no room for QuadraticModule's two distinct
// axis stiffnesses, so the two are averaged.
func (q QuadraticModule) IncrementPreconditioner(state sim.State, diag []float64) error {
	for i := range diag {
		diag[i] += 0.5 * (q.Kx[i] + q.Ky[i])
	}
	return nil
}

// Trace returns trace(A) for the block-diagonal matrix this module's
// wells assemble, the scale spec §8 property 11 measures convergence
// precision against (eps*trace(A)).
func (q QuadraticModule) Trace() float64 {
	var t float64
	for i := range q.Kx {
		t += q.Kx[i] + q.Ky[i]
	}
	return t
}

// Collaborator is the sim.EnergyCollaborator that sums every supplied
// module implementing Fielder and derives the torque field
// mxHxm = m x (H x m), the way OOMMF's energy collaborator packages
// per-cell output.
type Collaborator struct{}

func (c Collaborator) ComputeEnergies(state sim.State, modules []sim.EnergyModule, wantField, wantMxH bool) (sim.EnergyReport, error) {
	spins := state.Spins()
	ms := state.Ms()
	mesh := state.Mesh()
	n := len(spins)

	var fielders []Fielder
	for _, mod := range modules {
		if f, ok := mod.(Fielder); ok {
			fielders = append(fielders, f)
		}
	}

	report := sim.EnergyReport{
		MxHxm: make([]sim.Vec3, n),
	}
	if wantField {
		report.Field = make([]sim.Vec3, n)
	}
	if wantMxH {
		report.MxH = make([]sim.Vec3, n)
	}

	var total float64
	var maxTorque float64
	for i := 0; i < n; i++ {
		var h sim.Vec3
		for _, f := range fielders {
			h = h.Add(f.FieldAt(state, i))
		}
		total += -mu0 * ms[i] * mesh.CellVolume(i) * spins[i].Dot(h)

		mxH := spins[i].Cross(h)
		mxHxm := mxH.Cross(spins[i])
		report.MxHxm[i] = mxHxm
		if wantField {
			report.Field[i] = h
		}
		if wantMxH {
			report.MxH[i] = mxH
		}
		norm := math.Sqrt(mxHxm.Dot(mxHxm))
		if norm > maxTorque {
			maxTorque = norm
		}
	}
	report.TotalEnergy = total
	report.MaxMxHxm = maxTorque
	report.DEnergyDt = 0
	return report, nil
}

// Driver is the trivial sim.Driver: structural fields never change across
// a single-stage minimization run.
type Driver struct {
	MinStep, MaxStep float64
}

func (Driver) FillState(prev, next sim.State) {}

func (d Driver) FillStateSupplemental(next sim.State) (float64, float64) {
	return d.MinStep, d.MaxStep
}

func (Driver) FillStateDerived(prev, next sim.State) {}

func (Driver) IsStageDone(sim.State) bool { return false }
