// Copyright 2025 The go-highway Authors. SPDX-License-Identifier: Apache-2.0

// Package threadpool implements a persistent, hierarchical worker pool in
// the style of Oxs_ThreadTree (oxsthread.h:550-1250), reusing the
// persistent-goroutine idiom of the teacher's hwy/contrib/workerpool
// package (each worker here waits on a mutex and condition variable rather
// than a channel) but generalizing it to support a
// two-level launch tree, a process-wide error relay, and per-worker
// thread-local storage.
package threadpool

import (
	"sync"

	"github.com/samber/lo"
	"modernc.org/mathutil"

	"github.com/oxslab/mmcore/mm/warn"
)

// Job is the unit of dispatchable work: cmd(worker_id, payload) in spec
// terms. Multilevel requests that LaunchTree recurse into each launched
// worker's sub-launch list rather than running only on root-list workers.
type Job interface {
	Cmd(workerID int, payload any) error
	Multilevel() bool
}

// JobFunc adapts a plain function to the Job interface for callers that
// don't need the multilevel behavior.
type JobFunc func(workerID int, payload any) error

func (f JobFunc) Cmd(workerID int, payload any) error { return f(workerID, payload) }
func (f JobFunc) Multilevel() bool                    { return false }

// worker is one persistent pool member. thread_number is 1-based, matching
// the original (0 is reserved for the master/initiating goroutine).
type worker struct {
	threadNumber int
	startMu      sync.Mutex
	startCond    *sync.Cond
	running      bool // start.count == 0 means "run"
	job          Job
	payload      any
	subDone      *sync.WaitGroup // set only for sub-launch-list dispatch

	lockerMu sync.Mutex
	locker   map[string]any
}

// Pool is the persistent hierarchical worker pool. A zero Pool is not
// usable; construct with New.
type Pool struct {
	mu      sync.Mutex
	workers []*worker // index 0 is the master (no goroutine); workers[1..n-1] run workerLoop

	rootLaunchList []int
	subLaunchLists map[int][]int

	stopMu   sync.Mutex
	stopCond *sync.Cond
	stopLeft int

	errMu   sync.Mutex
	errSet  bool
	errText string

	warnings *warn.Hold

	endOnce sync.Once
	ended   bool

	nodeLookup func(workerID int) (node int, ok bool)

	warnSink func(warn.Message)
}

// SetWarningSink installs the function Join uses to transmit held
// warnings; the default is a no-op, matching a pool whose master never
// registered interest in diagnostics.
func (p *Pool) SetWarningSink(sink func(warn.Message)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.warnSink = sink
}

// PostWarning buffers a warning for the next Join to transmit, the
// goroutine-safe entry point worker jobs use instead of writing directly
// to a shared writer (spec §7's hold/transmit split).
func (p *Pool) PostWarning(id string, cap int, stamp warn.Stamp, text string) {
	p.warnings.Post(id, cap, stamp, text)
}

// New constructs a Pool and immediately ensures it has numWorkers-1
// persistent background workers plus the launch-tree topology, mirroring
// init_threads(n).
func New(numWorkers int) *Pool {
	p := &Pool{
		warnings:       warn.NewHold(),
		subLaunchLists: make(map[int][]int),
	}
	p.stopCond = sync.NewCond(&p.stopMu)
	p.InitThreads(numWorkers)
	return p
}

// InitThreads ensures the pool has at least n-1 persistent workers
// (thread_number 1..n-1), spawning new ones as needed but never destroying
// existing ones, then rebuilds the two-level launch topology for n workers
// total (including the master as worker 0).
func (p *Pool) InitThreads(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for len(p.workers) < n {
		id := len(p.workers)
		w := &worker{threadNumber: id, locker: make(map[string]any)}
		w.startCond = sync.NewCond(&w.startMu)
		p.workers = append(p.workers, w)
		if id > 0 {
			go p.workerLoop(w)
		}
	}
	p.buildLaunchTree(n)
}

// buildLaunchTree assigns root_launch_list and each leader's
// sub_launch_list. Without NUMA node information (the common Go-runtime
// case), it falls back to L = ceil(sqrt(n)) evenly spaced leaders, per
// spec §4.C; a node lookup installed with SetNodeLookup switches it to the
// NUMA-grouped branch when the platform exposes node affinity.
func (p *Pool) buildLaunchTree(n int) {
	p.rootLaunchList = nil
	p.subLaunchLists = make(map[int][]int)

	if n <= 1 {
		return
	}

	if p.nodeLookup != nil {
		p.buildNUMALaunchTree(n)
		return
	}

	l := mathutil.ISqrt(uint64(n))
	if int(l)*int(l) < n {
		l++
	}
	if l < 1 {
		l = 1
	}
	leaderCount := int(l)
	if leaderCount < 1 {
		leaderCount = 1
	}
	spacing := n / leaderCount
	if spacing < 1 {
		spacing = 1
	}

	var leaders []int
	for w := 1; w < n; w += spacing {
		leaders = append(leaders, w)
	}
	leaders = lo.Uniq(leaders)

	for idx, leader := range leaders {
		p.rootLaunchList = append(p.rootLaunchList, leader)
		next := n
		if idx+1 < len(leaders) {
			next = leaders[idx+1]
		}
		var followers []int
		for w := leader + 1; w < next; w++ {
			followers = append(followers, w)
		}
		p.subLaunchLists[leader] = followers
	}
}

// buildNUMALaunchTree groups workers by NUMA node: the first worker of
// each non-root node becomes a leader (placed in root_launch_list), the
// rest of that node's workers go in the leader's sub_launch_list, and all
// extra workers sharing the root's own node are appended directly to
// root_launch_list.
func (p *Pool) buildNUMALaunchTree(n int) {
	type idNode struct {
		id, node int
	}
	var all []idNode
	for w := 1; w < n; w++ {
		node, ok := p.nodeLookup(w)
		if !ok {
			node = 0
		}
		all = append(all, idNode{w, node})
	}
	rootNode, _ := p.nodeLookup(0)

	groups := lo.GroupBy(all, func(x idNode) int { return x.node })
	for node, members := range groups {
		ids := lo.Map(members, func(x idNode, _ int) int { return x.id })
		if node == rootNode {
			p.rootLaunchList = append(p.rootLaunchList, ids...)
			continue
		}
		leader := ids[0]
		p.rootLaunchList = append(p.rootLaunchList, leader)
		p.subLaunchLists[leader] = ids[1:]
	}
}

// SetNodeLookup installs a NUMA node lookup function, switching
// buildLaunchTree onto the node-grouped topology on the next InitThreads
// call (or immediately, if n is already known).
func (p *Pool) SetNodeLookup(lookup func(workerID int) (node int, ok bool)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nodeLookup = lookup
	p.buildLaunchTree(len(p.workers))
}
