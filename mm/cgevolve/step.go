// Copyright 2025 The go-highway Authors. SPDX-License-Identifier: Apache-2.0

package cgevolve

import (
	"math"

	"github.com/oxslab/mmcore/mm/sim"
)

// slack returns the numerical-noise floor below which two energy values
// are considered indistinguishable, scaled by energy_precision per spec
// §4.F's "slack" references throughout update_brackets/find_bracket_step.
func (c *CgEvolver) slack(values ...float64) float64 {
	sum := 1.0
	for _, v := range values {
		sum += math.Abs(v)
	}
	return c.cfg.EnergyPrecision * sum
}

// pickBestpt selects the smaller-energy endpoint (ties broken by smaller
// |Ep|) as the new bestpt and rebases every bracket endpoint's E so that
// bestpt's E is exactly zero, matching spec §4.F's closing paragraph of
// update_brackets.
func (c *CgEvolver) pickBestpt() {
	left := c.bracket.Left
	right := c.bracket.Right

	chosen := left
	if right.Valid {
		if right.E < left.E || (right.E == left.E && math.Abs(right.Ep) < math.Abs(left.Ep)) {
			chosen = right
		}
	}

	delta := chosen.E
	c.bestpt = Bestpt{
		Valid:    true,
		Offset:   chosen.Offset,
		E:        0,
		AbsE:     c.bestpt.AbsE + delta,
		Ep:       chosen.Ep,
		GradNorm: chosen.GradNorm,
		State:    chosen.State,
	}

	c.bracket.Left.E -= delta
	if c.bracket.Right.Valid {
		c.bracket.Right.E -= delta
	}
	if c.bracket.Extra.Valid {
		c.bracket.Extra.E -= delta
	}
}

// updateBracketsBracketingPhase implements update_brackets's first regime:
// the tentative offset lies to the right of the current window and the
// window has not yet bracketed a minimum.
func (c *CgEvolver) updateBracketsBracketingPhase(tentative BracketEndpoint) {
	slack := c.slack(c.bracket.Left.E, tentative.E)
	if c.bracket.Right.Valid && c.bracket.Right.E <= c.bracket.Left.E+slack && c.bracket.Right.Ep < 0 {
		c.bracket.Left = c.bracket.Right
	}
	c.bracket.Right = tentative
	c.counters.BracketCount++
}

// updateBracketsLineMinimumPhase implements update_brackets's second
// regime: the tentative offset lies strictly inside (left, right).
func (c *CgEvolver) updateBracketsLineMinimumPhase(tentative BracketEndpoint) {
	if tentative.Ep < 0 {
		c.bracket.Extra = c.bracket.Left
		c.bracket.Left = tentative
	} else {
		c.bracket.Extra = c.bracket.Right
		c.bracket.Right = tentative
	}
	c.counters.LineMinCount++
}

// findBracketStep proposes and evaluates the next bracketing trial offset
// via a weighted quadratic-minimum fit to (left.E, right.E, left.Ep,
// right.Ep), grounded on Oxs_CGEvolve::FindBracketStep.
func (c *CgEvolver) findBracketStep() error {
	left, right := c.bracket.Left, c.bracket.Right

	var candidate float64
	if !right.Valid {
		candidate = c.basept.StartStep
	} else if x, ok := bracketQuadraticCandidate(left, right); ok && x > right.Offset {
		candidate = x
	} else {
		candidate = right.Offset * 2
	}
	if right.Valid && candidate <= right.Offset {
		candidate = right.Offset * 1.5
	}
	if candidate < c.basept.ScaledMinStep {
		candidate = c.basept.ScaledMinStep
	}
	if candidate > c.basept.ScaledMaxStep {
		candidate = c.basept.ScaledMaxStep
	}
	if right.Valid && candidate <= right.Offset {
		candidate = c.basept.ScaledMaxStep
	}

	tentative, err := c.fillBracket(candidate)
	if err != nil {
		return err
	}
	c.updateBracketsBracketingPhase(tentative)
	c.pickBestpt()

	slack := c.slack(c.bracket.Left.E, c.bracket.Right.E)
	if c.bracket.Right.E > c.bracket.Left.E+slack || c.bracket.Right.Ep >= 0 {
		c.bracket.MinBracketed = true
	} else if c.bracket.Right.Offset >= c.basept.ScaledMaxStep {
		c.bracket.MinFound = true
	}
	return nil
}

// findLineMinimumStep evaluates the termination test and, failing that,
// proposes a refined interior test offset via the cubic/alternative blend
// in blendCubicAlternative, shrunk by the previous two reduction ratios
// and floored at an ULP-sized nudge, grounded on
// Oxs_CGEvolve::FindLineMinimumStep.
func (c *CgEvolver) findLineMinimumStep() error {
	sumErrorEst := c.cfg.EnergyPrecision
	threshold := mu0 * c.bestpt.GradNorm * c.basept.DirectionNorm *
		c.cfg.Resolved.LineMinAnglePrecSin * (1 + 2*sumErrorEst)
	span := c.bracket.Right.Offset - c.bracket.Left.Offset
	stopSpan := c.cfg.LineMinimumRelwidth * c.basept.StartStep

	if math.Abs(c.bestpt.Ep) < threshold && c.bestpt.Ep >= c.basept.Ep && span < stopSpan {
		c.bracket.MinFound = true
		c.bestpt.IsLineMinimum = true
		return nil
	}

	left, right := c.bracket.Left, c.bracket.Right
	slack := c.slack(left.E, right.E)
	candidate, ok := blendCubicAlternative(left, right, c.bracket.Extra, c.bracket.Extra.Valid, slack)
	lambda := 0.5
	if ok && span > 0 {
		lambda = (candidate - left.Offset) / span
	}

	const safety = 0.01
	if lambda < safety {
		lambda = safety
	}
	if lambda > 1-safety {
		lambda = 1 - safety
	}

	if r0, r1 := c.bracket.LastReductionRatios[0], c.bracket.LastReductionRatios[1]; r0 > 0 && r1 > 0 {
		maxRatio := math.Min(r0, r1)
		maxRatio *= maxRatio
		if m := math.Min(lambda, 1-lambda); maxRatio > 0 && m > maxRatio {
			if lambda <= 0.5 {
				lambda = maxRatio
			} else {
				lambda = 1 - maxRatio
			}
		}
	}

	nudgeFloor := math.Nextafter(1, 2) - 1
	if lambda < nudgeFloor {
		lambda = nudgeFloor
	}
	if lambda > 1-nudgeFloor {
		lambda = 1 - nudgeFloor
	}

	ratio := math.Min(lambda, 1-lambda)
	c.bracket.LastReductionRatios[0] = c.bracket.LastReductionRatios[1]
	c.bracket.LastReductionRatios[1] = ratio

	offset := left.Offset + lambda*span
	tentative, err := c.fillBracket(offset)
	if err != nil {
		return err
	}
	weak := tentative.Ep < 0 && tentative.E > left.E

	c.updateBracketsLineMinimumPhase(tentative)
	if weak {
		c.bracket.WeakRightStreak++
	} else {
		c.bracket.WeakRightStreak = 0
	}
	if c.bracket.WeakRightStreak >= 4 {
		// bad_Edata: energies below rounding noise, restart bracketing.
		c.bracket.MinBracketed = false
		c.bracket.Right = BracketEndpoint{}
		c.bracket.Extra = BracketEndpoint{}
		c.bracket.WeakRightStreak = 0
	}
	c.pickBestpt()
	return nil
}

// nudgeBestpt jitters bestpt's spins by a small uniform perturbation and
// rebuilds the base point from the result, matching spec §4.F's recovery
// path for a line minimum that collapses onto offset 0.
func (c *CgEvolver) nudgeBestpt() error {
	const jitter = 1e-6
	src := c.bestpt.State.Spins()
	perturbed := make([]sim.Vec3, len(src))
	for i := range src {
		v := sim.Vec3{
			X: src[i].X + (c.rng.Float64()*2-1)*jitter,
			Y: src[i].Y + (c.rng.Float64()*2-1)*jitter,
			Z: src[i].Z + (c.rng.Float64()*2-1)*jitter,
		}
		norm := math.Sqrt(v.Dot(v))
		if norm == 0 {
			norm = 1
		}
		perturbed[i] = v.Scale(1 / norm)
	}

	newState := c.bestpt.State.WithSpins(c.nextStateID, perturbed)
	c.nextStateID++
	return c.setBasePoint(newState)
}
