// Copyright 2025 The go-highway Authors. SPDX-License-Identifier: Apache-2.0

// Package cgevolve implements the nonlinear conjugate-gradient line-search
// minimizer described in spec §4.F, grounded on Oxs_CGEvolve
// (cgevolve.cc/cgevolve.h): conjugate direction construction with
// Fletcher-Reeves/Polak-Ribiere updates, a bracket-then-refine line
// search with cubic/quadratic test-point blending, and a diagonal
// preconditioner assembled from per-energy-module contributions.
package cgevolve

import (
	"fmt"
	"math"
)

// Method selects the conjugate-direction update formula.
type Method int

const (
	FletcherReeves Method = iota
	PolakRibiere
)

// PreconditionerKind selects how the diagonal preconditioner is built.
type PreconditionerKind int

const (
	PrecondNone PreconditionerKind = iota
	PrecondMsVolume
	PrecondDiagonal
)

// Config holds the user-facing options table from spec §6, plus the
// degree-to-trig resolved values Oxs_CGEvolve::Init computes once at
// setup so the hot path never calls a trig function on a configuration
// constant.
type Config struct {
	Method               Method
	Preconditioner       PreconditionerKind
	PreconditionerWeight float64 // in [0,1]

	GradientResetAngleDeg float64
	GradientResetCount    int

	KludgeAdjustAngleDeg float64

	MinimumBracketStepDeg float64
	MaximumBracketStepDeg float64

	LineMinimumAnglePrecisionDeg float64
	LineMinimumRelwidth          float64

	EnergyPrecision float64

	// Resolved holds the trig-converted values; call Resolve to populate.
	Resolved Resolved
}

// Resolved is the internal-form configuration: every angle converted to
// the trig value the hot path actually consumes, matching
// Oxs_CGEvolve::Init's own eager conversion.
type Resolved struct {
	GradientResetCot  float64
	KludgeAdjustCos   float64
	MinBracketStepTan float64
	MaxBracketStepTan float64
	LineMinAnglePrecSin float64
}

// Validate checks the option table for out-of-range values, mirroring the
// bad_parameter throws Oxs_CGEvolve::Init performs on bad user input.
func (c *Config) Validate() error {
	if c.PreconditionerWeight < 0 || c.PreconditionerWeight > 1 {
		return fmt.Errorf("cgevolve: preconditioner_weight %v out of [0,1]", c.PreconditionerWeight)
	}
	if c.GradientResetCount < 1 {
		return fmt.Errorf("cgevolve: gradient_reset_count must be >= 1, got %d", c.GradientResetCount)
	}
	if c.LineMinimumRelwidth <= 0 {
		return fmt.Errorf("cgevolve: line_minimum_relwidth must be > 0, got %v", c.LineMinimumRelwidth)
	}
	if c.EnergyPrecision <= 0 {
		return fmt.Errorf("cgevolve: energy_precision must be > 0, got %v", c.EnergyPrecision)
	}
	if c.MinimumBracketStepDeg <= 0 || c.MaximumBracketStepDeg <= c.MinimumBracketStepDeg {
		return fmt.Errorf("cgevolve: bracket step bounds invalid (min=%v max=%v)",
			c.MinimumBracketStepDeg, c.MaximumBracketStepDeg)
	}
	return nil
}

// Resolve converts every degree-valued option into the trig form the
// minimizer consumes, matching the field names used throughout
// cgevolve.cc (gradient_reset_angle stored as cot, kludge_adjust_angle as
// cos, bracket steps as tan, angle precision as sin).
func (c *Config) Resolve() error {
	if err := c.Validate(); err != nil {
		return err
	}
	rad := func(deg float64) float64 { return deg * math.Pi / 180 }

	c.Resolved.GradientResetCot = 1 / math.Tan(rad(c.GradientResetAngleDeg))
	c.Resolved.KludgeAdjustCos = math.Cos(rad(c.KludgeAdjustAngleDeg))
	c.Resolved.MinBracketStepTan = math.Tan(rad(c.MinimumBracketStepDeg))
	c.Resolved.MaxBracketStepTan = math.Tan(rad(c.MaximumBracketStepDeg))
	c.Resolved.LineMinAnglePrecSin = math.Sin(rad(c.LineMinimumAnglePrecisionDeg))
	return nil
}

// DefaultConfig returns the option set OOMMF ships as CGEvolve defaults,
// translated to degrees for the user-facing fields.
func DefaultConfig() Config {
	return Config{
		Method:                       FletcherReeves,
		Preconditioner:               PrecondMsVolume,
		PreconditionerWeight:         0.5,
		GradientResetAngleDeg:        80,
		GradientResetCount:           50,
		KludgeAdjustAngleDeg:         5,
		MinimumBracketStepDeg:        0.05,
		MaximumBracketStepDeg:        10,
		LineMinimumAnglePrecisionDeg: 0.01,
		LineMinimumRelwidth:          1e-4,
		EnergyPrecision:              1e-14,
	}
}
