// Copyright 2025 The go-highway Authors. SPDX-License-Identifier: Apache-2.0

package threadpool

// EndThreads idempotently tears down every persistent worker: it sends each
// a nil-job tombstone so workerLoop returns, then drops the master's own
// locker map. Calling it more than once is a no-op, matching
// end_threads's reentrancy guard.
func (p *Pool) EndThreads() {
	p.endOnce.Do(func() {
		p.mu.Lock()
		workers := append([]*worker(nil), p.workers[1:]...)
		master := p.workers[0]
		p.ended = true
		p.mu.Unlock()

		for _, w := range workers {
			w.startMu.Lock()
			w.job = nil
			w.running = true
			w.startMu.Unlock()
			w.startCond.Signal()
		}

		master.lockerMu.Lock()
		master.locker = make(map[string]any)
		master.lockerMu.Unlock()
	})
}

// NumWorkers returns the total worker count including the master (thread 0).
func (p *Pool) NumWorkers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.workers)
}

// RootLaunchList exposes the current root launch-tree membership, for tests
// and diagnostics.
func (p *Pool) RootLaunchList() []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]int(nil), p.rootLaunchList...)
}

// SubLaunchList exposes leader id's follower list, for tests.
func (p *Pool) SubLaunchList(leader int) []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]int(nil), p.subLaunchLists[leader]...)
}
