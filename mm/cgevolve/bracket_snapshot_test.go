// Copyright 2025 The go-highway Authors. SPDX-License-Identifier: Apache-2.0

package cgevolve

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"

	"github.com/oxslab/mmcore/mm/sim"
	"github.com/oxslab/mmcore/mm/sim/quadratic"
)

// bracketSnapshot is the scalar projection of a BracketEndpoint used for
// struct-diff assertions; State is opaque and excluded.
type bracketSnapshot struct {
	Offset, E, Ep, GradNorm float64
}

func snapshotOf(e BracketEndpoint) bracketSnapshot {
	return bracketSnapshot{Offset: e.Offset, E: e.E, Ep: e.Ep, GradNorm: e.GradNorm}
}

// TestBracketInvariantLeftEpNonPositive exercises spec property 13: for
// any acceptable step, bracket.left.Ep <= 0 and either bracket.right.Ep
// >= 0 or bracket.right.E > bracket.left.E.
func TestBracketInvariantLeftEpNonPositive(t *testing.T) {
	mesh := quadratic.NewMesh(1, 1e-24)
	zeeman := quadratic.ZeemanModule{Field: sim.Vec3{Z: 1e5}}
	coll := quadratic.Collaborator{}
	start := quadratic.NewState(0, mesh, []sim.Vec3{{X: math.Sin(0.5), Z: math.Cos(0.5)}}, []float64{8e5})

	cfg := DefaultConfig()
	cfg.Preconditioner = PrecondMsVolume
	ev, err := New(cfg, coll, []sim.EnergyModule{zeeman}, quadratic.Driver{MinStep: 1e-6, MaxStep: 1}, 3)
	require.NoError(t, err)

	state := sim.State(start)
	for i := 0; i < 50; i++ {
		state, err = ev.Step(state)
		require.NoError(t, err)

		if !ev.bracket.MinBracketed {
			continue
		}
		left := snapshotOf(ev.bracket.Left)
		right := snapshotOf(ev.bracket.Right)

		if left.Ep > 1e-9 {
			t.Fatalf("bracket.left.Ep should be <= 0, got %+v", left)
		}
		if right.Ep < -1e-9 && right.E <= left.E {
			t.Fatalf("bracket should satisfy right.Ep>=0 or right.E>left.E, got left=%+v right=%+v", left, right)
		}
	}
}

// TestBracketSnapshotDiffIgnoresState demonstrates struct-diff assertions
// over bracket endpoints with opaque State fields excluded, the way a
// cgevolve regression test compares two runs' bracket trajectories.
func TestBracketSnapshotDiffIgnoresState(t *testing.T) {
	a := BracketEndpoint{Offset: 1, E: -2, Ep: -0.5, GradNorm: 0.1}
	b := BracketEndpoint{Offset: 1, E: -2, Ep: -0.5, GradNorm: 0.1}
	if diff := cmp.Diff(snapshotOf(a), snapshotOf(b), cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Fatalf("unexpected diff (-want +got):\n%s", diff)
	}
}
