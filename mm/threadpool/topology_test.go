// Copyright 2025 The go-highway Authors. SPDX-License-Identifier: Apache-2.0

package threadpool

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildLaunchTreeFallbackCoversAllWorkers(t *testing.T) {
	p := New(10)
	defer p.EndThreads()

	seen := map[int]bool{}
	for _, id := range p.RootLaunchList() {
		seen[id] = true
		for _, f := range p.SubLaunchList(id) {
			seen[f] = true
		}
	}
	for id := 1; id < p.NumWorkers(); id++ {
		assert.True(t, seen[id], "worker %d not reachable from launch tree", id)
	}
}

func TestNUMALaunchTreeGroupsByNode(t *testing.T) {
	p := New(6)
	defer p.EndThreads()

	nodes := map[int]int{0: 0, 1: 0, 2: 1, 3: 1, 4: 2, 5: 2}
	p.SetNodeLookup(func(id int) (int, bool) {
		n, ok := nodes[id]
		return n, ok
	})

	root := p.RootLaunchList()
	// Workers 2 and 4 are the first worker of their (non-root) node, so
	// they must become leaders; workers 1,3,5 share a node with a leader
	// (or the root) and must not appear in the root list directly unless
	// they share the root's own node.
	assert.Contains(t, root, 2)
	assert.Contains(t, root, 4)
	assert.Contains(t, p.SubLaunchList(2), 3)
	assert.Contains(t, p.SubLaunchList(4), 5)
}
