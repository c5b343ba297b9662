// Copyright 2025 The go-highway Authors. SPDX-License-Identifier: Apache-2.0

package cgevolve

import (
	"fmt"
	"math"

	"github.com/oxslab/mmcore/mm/sim"
	"github.com/oxslab/mmcore/mm/warn"
)

// Preconditioner holds the per-cell diagonal C^-1 and C^-2 arrays used to
// scale the gradient before conjugation, grounded on
// Oxs_CGEvolve::InitializePreconditioner. It is rebuilt whenever the mesh
// identity changes (a new cell count or a reordering).
type Preconditioner struct {
	Cinv  []float64
	Cinv2 []float64
}

// BuildPreconditioner assembles a Preconditioner for the given kind. For
// PrecondDiagonal it queries every module implementing
// sim.PreconditionerContributor and emits one warning (via warnSink) per
// module lacking that capability, matching spec §4.F's "modules lacking
// that capability emit a one-time warning and contribute nothing."
func BuildPreconditioner(cfg *Config, state sim.State, modules []sim.EnergyModule, warnSink func(warn.Message)) (*Preconditioner, error) {
	mesh := state.Mesh()
	ms := state.Ms()
	n := mesh.CellCount()

	msv := make([]float64, n)
	for i := 0; i < n; i++ {
		msv[i] = ms[i] * mesh.CellVolume(i)
	}

	p := &Preconditioner{
		Cinv:  make([]float64, n),
		Cinv2: make([]float64, n),
	}

	switch cfg.Preconditioner {
	case PrecondNone:
		// Initialization-failed fallback path (cgevolve.cc's NONE case):
		// C^-1 is Ms*V unblended, not run through the maxval/pw mix below.
		for i := 0; i < n; i++ {
			p.Cinv[i] = msv[i]
		}
	case PrecondMsVolume:
		raw := make([]float64, n)
		for i := range raw {
			raw[i] = 1
		}
		p.Cinv = blendPreconditioner(raw, msv, cfg.PreconditionerWeight)
	case PrecondDiagonal:
		raw := make([]float64, n)
		warned := make(map[string]bool)
		for _, mod := range modules {
			contributor, ok := mod.(sim.PreconditionerContributor)
			if !ok {
				if !warned[mod.Name()] && warnSink != nil {
					warned[mod.Name()] = true
					warnSink(warn.Message{
						Text: fmt.Sprintf("energy module %q does not implement IncrementPreconditioner; contributing 0", mod.Name()),
					})
				}
				continue
			}
			if err := contributor.IncrementPreconditioner(state, raw); err != nil {
				return nil, fmt.Errorf("cgevolve: preconditioner contribution from %q: %w", mod.Name(), err)
			}
		}
		for i := 0; i < n; i++ {
			if raw[i] < 0 {
				return nil, fmt.Errorf("cgevolve: negative preconditioner diagonal at cell %d: %v", i, raw[i])
			}
		}
		p.Cinv = blendPreconditioner(raw, msv, cfg.PreconditionerWeight)
	default:
		return nil, fmt.Errorf("cgevolve: unknown preconditioner kind %d", cfg.Preconditioner)
	}

	for i := 0; i < n; i++ {
		if p.Cinv[i] < 0 || math.IsNaN(p.Cinv[i]) {
			return nil, fmt.Errorf("cgevolve: invalid preconditioner diagonal at cell %d: %v", i, p.Cinv[i])
		}
		p.Cinv2[i] = msv[i] * msv[i] * p.Cinv[i] * p.Cinv[i]
	}
	return p, nil
}

// blendPreconditioner runs a per-cell raw diagonal through the
// maxval/pw mix Oxs_CGEvolve::InitializePreconditioner uses for both its
// MSV and diagonal preconditioner paths:
// Cinv_i = maxval / (maxval*(1-pw)/(Ms_i*V_i) + pw*raw_i).
func blendPreconditioner(raw, msv []float64, pw float64) []float64 {
	n := len(raw)
	cinv := make([]float64, n)

	var maxval float64
	for i := 0; i < n; i++ {
		if raw[i] > maxval {
			maxval = raw[i]
		}
	}
	for i := 0; i < n; i++ {
		denom := maxval*(1-pw)/clampNonzero(msv[i]) + pw*raw[i]
		if maxval == 0 || denom <= 0 {
			cinv[i] = clampNonzero(msv[i])
			continue
		}
		cinv[i] = maxval / denom
	}
	return cinv
}

// clampNonzero protects the ms_volume divide against a zero or
// vanishingly small cell moment, matching the "clamped for safety
// (divide-by-small protected)" language in spec §4.F.
func clampNonzero(v float64) float64 {
	const floor = 1e-300
	if v < floor {
		return floor
	}
	return v
}
