// Copyright 2025 The go-highway Authors. SPDX-License-Identifier: Apache-2.0

package cgevolve

import "github.com/oxslab/mmcore/mm/sim"

// Basept is the anchor state a line search emanates from, grounded on
// Oxs_CGEvolve::Oxs_BasePoint: it carries the preconditioned gradient, the
// search direction, and the conjugation bookkeeping spec §4.F describes.
type Basept struct {
	Valid bool
	Stage int

	State sim.State

	PrecondGrad []sim.Vec3 // P*g at this point
	Grad        []sim.Vec3 // g = Ms*V*mxHxm at this point
	Direction   []sim.Vec3 // d, the conjugate search direction

	DirectionMaxMag float64
	DirectionNorm   float64
	Ep              float64 // directional derivative dE/d(offset) at offset 0
	GSumSq          float64 // g^T P g, cached for the next conjugation step

	ScaledMinStep float64
	ScaledMaxStep float64
	StartStep     float64

	SubCount      int     // sub-cycles since last restart
	ResetScore    float64 // +1 per conjugate sub-cycle, 0 on restart; compared with Resolved.GradientResetCot (no angle measure, no smoothing)
	WasLineMinimum bool
}

// BracketEndpoint is one side of the line-search bracket, grounded on
// Oxs_CGEvolve::Oxs_BracketEndpoint.
type BracketEndpoint struct {
	Valid    bool
	Offset   float64
	E        float64 // energy relative to bestpt
	Ep       float64 // directional derivative at this offset
	GradNorm float64
	State    sim.State
}

// Bracket is the current search window plus the extra point the cubic fit
// in find_line_minimum_step may keep around.
type Bracket struct {
	Left  BracketEndpoint
	Right BracketEndpoint
	Extra BracketEndpoint

	MinBracketed bool
	MinFound     bool

	LastReductionRatios [2]float64
	WeakRightStreak     int
}

// Bestpt is the best point observed so far in the current line search.
type Bestpt struct {
	Valid         bool
	Offset        float64
	E             float64
	AbsE          float64 // absolute total energy, for rebasing future E values
	Ep            float64
	GradNorm      float64
	State         sim.State
	IsLineMinimum bool
}

// Counters holds the scalar outputs spec §6 exposes.
type Counters struct {
	BracketCount        int64
	LineMinCount        int64
	CycleCount          int64
	CycleSubCount       int64
	ConjugateCycleCount int64
	EnergyCalcCount     int64
}
