// Copyright 2025 The go-highway Authors. SPDX-License-Identifier: Apache-2.0

// Package sim defines the external-collaborator interfaces CgEvolve
// consumes: simulation state snapshots, mesh geometry, the energy
// collaborator that turns a state into per-cell energies and torques, and
// the driver that advances a state between minimizer steps. These mirror
// the OOMMF Oxs_SimState / Oxs_Mesh / Oxs_Director / Oxs_Driver
// collaboration surface (spec §6), reduced to the slice the minimizer
// actually needs.
package sim

// State is an opaque, conceptually reference-counted snapshot of the spin
// configuration. Implementations are expected to be cheap to derive from
// one another (fill_state/fill_state_supplemental copy structural fields
// rather than recomputing them).
type State interface {
	ID() int64
	Stage() int
	Spins() []Vec3   // per-cell unit magnetization direction
	Ms() []float64   // per-cell saturation magnetization
	Mesh() Mesh
	Derived() DerivedData

	// WithSpins returns a new State sharing this one's Ms and mesh but
	// carrying spins as its spin configuration, matching the
	// fill_state structural-field-copy semantics a trial state needs
	// (CgEvolve's fill_bracket builds a new state per trial offset).
	WithSpins(id int64, spins []Vec3) State
}

// Vec3 is a three-component Cartesian vector; CgEvolve treats it as a
// plain value type throughout (no aliasing concerns), matching the
// original's ThreeVector.
type Vec3 struct {
	X, Y, Z float64
}

func (v Vec3) Add(o Vec3) Vec3   { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3   { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }
func (v Vec3) Dot(o Vec3) float64 { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }
func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		v.Y*o.Z - v.Z*o.Y,
		v.Z*o.X - v.X*o.Z,
		v.X*o.Y - v.Y*o.X,
	}
}

// DerivedData is the extensible string-keyed scalar memo map attached to
// every State, used to cache intermediate quantities across minimizer
// steps ("Total energy", "Max mxHxm", and the rest of the key list in
// spec §6).
type DerivedData interface {
	Get(key string) (float64, bool)
	Set(key string, value float64)
	Delete(key string)
}

// MapDerivedData is the plain map-backed DerivedData implementation new
// State values are expected to embed.
type MapDerivedData map[string]float64

func (m MapDerivedData) Get(key string) (float64, bool) { v, ok := m[key]; return v, ok }
func (m MapDerivedData) Set(key string, value float64)  { m[key] = value }
func (m MapDerivedData) Delete(key string)              { delete(m, key) }

// Mesh exposes the geometric quantities CgEvolve's preconditioner and
// reductions need.
type Mesh interface {
	TotalVolume() float64
	CellVolume(i int) float64
	HasUniformCellVolumes() (vol float64, uniform bool)
	CellCount() int
}

// EnergyReport is the result bundle Cmd(state, ...) in spec §6 would have
// returned as multiple out-parameters; here it's a single struct.
type EnergyReport struct {
	TotalEnergy     float64
	EnergyDensity   []float64 // per cell, optional (nil if not requested)
	Field           []Vec3    // per-cell H accumulator, optional
	MxH             []Vec3    // per-cell mxH accumulator, optional
	MxHxm           []Vec3    // per-cell torque, always populated
	MaxMxHxm        float64
	DensityErrorEst float64
	DEnergyDt       float64 // must be 0 for a valid minimization target
}

// EnergyModule is one contributor to the total energy; CgEvolve only
// needs the aggregate via EnergyCollaborator, but individual modules are
// exposed so the diagonal preconditioner can query them.
type EnergyModule interface {
	Name() string
}

// PreconditionerContributor is the optional capability (spec §4.F
// "diagonal" preconditioner) an EnergyModule may implement to contribute
// its own diagonal term; modules lacking it are skipped with a one-time
// warning.
type PreconditionerContributor interface {
	IncrementPreconditioner(state State, diag []float64) error
}

// EnergyCollaborator computes the aggregate energy/torque report needed
// by one minimizer step.
type EnergyCollaborator interface {
	ComputeEnergies(state State, modules []EnergyModule, wantField, wantMxH bool) (EnergyReport, error)
}

// Driver negotiates state transitions between minimizer steps.
type Driver interface {
	FillState(prev, next State)
	FillStateSupplemental(next State) (minStep, maxStep float64)
	FillStateDerived(prev, next State)
	IsStageDone(state State) bool
}
