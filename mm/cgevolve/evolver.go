// Copyright 2025 The go-highway Authors. SPDX-License-Identifier: Apache-2.0

package cgevolve

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/oxslab/mmcore/mm/extfloat"
	"github.com/oxslab/mmcore/mm/sim"
	"github.com/oxslab/mmcore/mm/warn"
)

const mu0 = 4 * math.Pi * 1e-7

// CgEvolver is the nonlinear conjugate-gradient line-search minimizer,
// grounded on Oxs_CGEvolve. One instance drives a single minimization run
// across repeated Step calls; it is not safe for concurrent use by more
// than one goroutine (matching the original's single-master-thread model
// -- any parallelism lives inside the energy collaborator).
type CgEvolver struct {
	cfg     Config
	coll    sim.EnergyCollaborator
	modules []sim.EnergyModule
	driver  sim.Driver
	rng     *rand.Rand

	precond *Preconditioner

	basept  Basept
	bracket Bracket
	bestpt  Bestpt

	counters Counters

	warnSink func(warn.Message)

	nextStateID int64
}

// New returns a CgEvolver ready to minimize the energy functional computed
// by coll over the modules given, using a dedicated PRNG seeded with seed
// so nudge_bestpt's jitter is reproducible independent of scheduling
// (spec §4.F: "A dedicated seeded PRNG per thread ensures determinism").
func New(cfg Config, coll sim.EnergyCollaborator, modules []sim.EnergyModule, driver sim.Driver, seed int64) (*CgEvolver, error) {
	if err := cfg.Resolve(); err != nil {
		return nil, err
	}
	return &CgEvolver{
		cfg:         cfg,
		coll:        coll,
		modules:     modules,
		driver:      driver,
		rng:         rand.New(rand.NewSource(seed)),
		nextStateID: 1,
	}, nil
}

// SetWarningSink installs the sink preconditioner-capability warnings are
// posted through; nil discards them.
func (c *CgEvolver) SetWarningSink(sink func(warn.Message)) { c.warnSink = sink }

// Counters returns a snapshot of the scalar outputs spec §6 exposes.
func (c *CgEvolver) Counters() Counters { return c.counters }

type trial struct {
	state  sim.State
	report sim.EnergyReport
}

func (c *CgEvolver) evaluate(state sim.State) (trial, error) {
	report, err := c.coll.ComputeEnergies(state, c.modules, true, true)
	if err != nil {
		return trial{}, err
	}
	if report.DEnergyDt != 0 {
		return trial{}, fmt.Errorf("cgevolve: energy collaborator reported nonzero dE/dt %v; not a valid minimization target", report.DEnergyDt)
	}
	c.counters.EnergyCalcCount++
	return trial{state: state, report: report}, nil
}

// gradientAt returns g_i = Ms_i*V_i*mxHxm_i, the weighted torque field
// spec §4.F calls "g" throughout set_base_point.
func gradientAt(state sim.State, report sim.EnergyReport) []sim.Vec3 {
	ms := state.Ms()
	mesh := state.Mesh()
	g := make([]sim.Vec3, len(report.MxHxm))
	for i := range g {
		g[i] = report.MxHxm[i].Scale(ms[i] * mesh.CellVolume(i))
	}
	return g
}

func (c *CgEvolver) applyPrecond(g []sim.Vec3) []sim.Vec3 {
	pg := make([]sim.Vec3, len(g))
	for i := range g {
		scale := 1.0
		if c.precond != nil {
			scale = c.precond.Cinv[i]
		}
		pg[i] = g[i].Scale(scale)
	}
	return pg
}

// Step advances the minimizer by one try_step call and returns the new
// candidate state, grounded on Oxs_CGEvolve::Step.
func (c *CgEvolver) Step(current sim.State) (sim.State, error) {
	if !c.basept.Valid || c.basept.Stage != current.Stage() || c.bestpt.IsLineMinimum {
		if err := c.setBasePoint(current); err != nil {
			return nil, err
		}
	}

	if !c.bracket.MinBracketed {
		if err := c.findBracketStep(); err != nil {
			return nil, err
		}
	} else if !c.bracket.MinFound {
		if err := c.findLineMinimumStep(); err != nil {
			return nil, err
		}
		if c.bracket.MinFound && c.bestpt.Offset == 0 {
			if err := c.nudgeBestpt(); err != nil {
				return nil, err
			}
		}
	}

	return c.bestpt.State, nil
}

// setBasePoint rebuilds the conjugate direction from state, grounded on
// Oxs_CGEvolve::SetBasePoint.
func (c *CgEvolver) setBasePoint(state sim.State) error {
	precond, err := BuildPreconditioner(&c.cfg, state, c.modules, c.warnSink)
	if err != nil {
		return err
	}
	c.precond = precond

	tr, err := c.evaluate(state)
	if err != nil {
		return err
	}
	g := gradientAt(state, tr.report)
	pg := c.applyPrecond(g)

	restart := !c.bestpt.IsLineMinimum ||
		!c.basept.Valid ||
		c.basept.Stage != state.Stage() ||
		c.basept.SubCount >= c.cfg.GradientResetCount ||
		c.basept.ResetScore >= c.cfg.Resolved.GradientResetCot

	var direction []sim.Vec3
	var ep float64
	var gSumSq float64

	n := len(g)
	gSumSq = dotSum(g, pg)

	if !restart && c.basept.Valid {
		var gamma float64
		switch c.cfg.Method {
		case FletcherReeves:
			if c.basept.GSumSq != 0 {
				gamma = gSumSq / c.basept.GSumSq
			}
		case PolakRibiere:
			diff := make([]sim.Vec3, n)
			for i := 0; i < n; i++ {
				diff[i] = g[i].Sub(c.basept.Grad[i])
			}
			num := dotSum(diff, pg)
			if c.basept.GSumSq != 0 {
				gamma = num / c.basept.GSumSq
			}
		}
		direction = make([]sim.Vec3, n)
		for i := 0; i < n; i++ {
			direction[i] = pg[i].Add(c.basept.Direction[i].Scale(gamma))
		}
		projectOrthogonal(state.Spins(), direction)
		ep = -mu0 * directionalDerivative(direction, g)

		downhillLimit := c.cfg.Resolved.KludgeAdjustCos * vecNorm(direction) * vecNorm(g)
		if ep > downhillLimit {
			alpha := kludgeAlpha(c.cfg.Resolved.KludgeAdjustCos, c.basept.Direction, pg, g)
			for i := 0; i < n; i++ {
				direction[i] = c.basept.Direction[i].Add(pg[i].Scale(alpha))
			}
			projectOrthogonal(state.Spins(), direction)
			ep = -mu0 * directionalDerivative(direction, g)
		}
		c.basept.SubCount++
		c.basept.ResetScore++
		c.counters.CycleSubCount++
	} else {
		direction = pg
		projectOrthogonal(state.Spins(), direction)
		ep = -mu0 * directionalDerivative(direction, g)
		c.basept.SubCount = 0
		c.basept.ResetScore = 0
		c.counters.ConjugateCycleCount++
	}
	c.counters.CycleCount++

	dirMaxMag := 0.0
	for _, d := range direction {
		m := math.Sqrt(d.Dot(d))
		if m > dirMaxMag {
			dirMaxMag = m
		}
	}
	if dirMaxMag == 0 {
		dirMaxMag = 1
	}

	c.basept = Basept{
		Valid:           true,
		Stage:           state.Stage(),
		State:           state,
		PrecondGrad:     pg,
		Grad:            g,
		Direction:       direction,
		DirectionMaxMag: dirMaxMag,
		DirectionNorm:   vecNorm(direction),
		Ep:              ep,
		GSumSq:          gSumSq,
		ScaledMinStep:   c.cfg.Resolved.MinBracketStepTan / dirMaxMag,
		ScaledMaxStep:   c.cfg.Resolved.MaxBracketStepTan / dirMaxMag,
		SubCount:        c.basept.SubCount,
		ResetScore:      c.basept.ResetScore,
	}
	prevOffset := c.bestpt.Offset
	start := 1.25 * prevOffset
	if start > c.basept.ScaledMaxStep || start <= 0 {
		start = c.basept.ScaledMaxStep
	}
	if start < c.basept.ScaledMinStep {
		start = c.basept.ScaledMinStep
	}
	c.basept.StartStep = start

	c.bracket = Bracket{}
	c.bestpt = Bestpt{
		Valid:    true,
		Offset:   0,
		E:        0,
		AbsE:     tr.report.TotalEnergy,
		Ep:       ep,
		GradNorm: vecNorm(g),
		State:    state,
	}
	c.bracket.Left = BracketEndpoint{Valid: true, Offset: 0, E: 0, Ep: ep, GradNorm: c.bestpt.GradNorm, State: state}
	return nil
}

// fillBracket constructs the trial state at the given offset along the
// great-circle projection from bestpt, grounded on
// Oxs_CGEvolve::FillBracket.
func (c *CgEvolver) fillBracket(offset float64) (BracketEndpoint, error) {
	best := c.bestpt
	t := offset - best.Offset
	d := c.basept.Direction
	spins := best.State.Spins()
	n := len(spins)
	newSpins := make([]sim.Vec3, n)
	for i := 0; i < n; i++ {
		mag2 := d[i].Dot(d[i])
		scale := math.Sqrt(1 + t*t*mag2)
		raw := spins[i].Scale(scale).Add(d[i].Scale(t))
		norm := math.Sqrt(raw.Dot(raw))
		if norm == 0 {
			newSpins[i] = spins[i]
			continue
		}
		newSpins[i] = raw.Scale(1 / norm)
	}

	newState := best.State.WithSpins(c.nextStateID, newSpins)
	c.nextStateID++
	tr, err := c.evaluate(newState)
	if err != nil {
		return BracketEndpoint{}, err
	}
	g := gradientAt(newState, tr.report)

	epAcc := extfloat.NewAcc()
	gradAcc := extfloat.NewAcc()
	for i := 0; i < n; i++ {
		mag2 := d[i].Dot(d[i])
		scaleAdj := math.Sqrt(1 + offset*offset*mag2)
		term := tr.report.MxHxm[i].Dot(d[i]) * newState.Ms()[i] * newState.Mesh().CellVolume(i) / scaleAdj
		epAcc = epAcc.Accum(term)
		gnorm := g[i].Scale(1 / scaleAdj)
		gradAcc = gradAcc.Accum(gnorm.Dot(gnorm))
	}

	ep2 := -mu0 * epAcc.Total()
	gradNorm := math.Sqrt(gradAcc.Total())

	return BracketEndpoint{
		Valid:    true,
		Offset:   offset,
		E:        tr.report.TotalEnergy - c.bestpt.AbsE,
		Ep:       ep2,
		GradNorm: gradNorm,
		State:    newState,
	}, nil
}
