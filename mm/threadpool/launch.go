// Copyright 2025 The go-highway Authors. SPDX-License-Identifier: Apache-2.0

package threadpool

import (
	"fmt"
	"sync"

	"github.com/oxslab/mmcore/mm/warn"
	"github.com/oxslab/mmcore/mm/xerr"
)

// workerLoop is the persistent goroutine body for worker w: block until the
// master flips running to true, run the job, then report back through the
// tree's stop counter exactly as the launch protocol in spec §4.C
// describes (decrement tree.stop, signal if zero, then mark the worker
// idle while still holding tree.stop so the master never observes "idle"
// before the stop count is current).
func (p *Pool) workerLoop(w *worker) {
	for {
		w.startMu.Lock()
		for !w.running {
			w.startCond.Wait()
		}
		job, payload, subDone := w.job, w.payload, w.subDone
		w.startMu.Unlock()

		if job == nil {
			return // end_threads tombstone
		}

		if subDone != nil {
			// This dispatch came from a leader's sub-launch-list fan-out:
			// report to that private WaitGroup, not the tree's stop
			// counter, and never recurse further (sub-workers are leaves).
			p.runOne(w, job, payload)
			w.startMu.Lock()
			w.running = false
			w.subDone = nil
			w.startMu.Unlock()
			subDone.Done()
			continue
		}

		p.runJobOnWorker(w, job, payload)

		p.stopMu.Lock()
		p.stopLeft--
		if p.stopLeft == 0 {
			p.stopCond.Broadcast()
		}
		w.startMu.Lock()
		w.running = false
		w.startMu.Unlock()
		p.stopMu.Unlock()
	}
}

// runJobOnWorker executes job on w. If job.Multilevel() is set, it first
// dispatches w's sub-launch list and blocks on their completion (a
// private WaitGroup, not the tree's shared stop counter), realizing the
// two-level tree: a leader's own report to the tree only happens once its
// entire subtree has finished. Any error/panic is relayed to the
// process-wide error set via SetError, tagged with the worker's thread
// number.
func (p *Pool) runJobOnWorker(w *worker, job Job, payload any) {
	if job.Multilevel() {
		p.mu.Lock()
		subs := append([]int(nil), p.subLaunchLists[w.threadNumber]...)
		p.mu.Unlock()
		if len(subs) > 0 {
			var wg sync.WaitGroup
			wg.Add(len(subs))
			for _, sub := range subs {
				p.launchOne(sub, job, payload, &wg)
			}
			wg.Wait()
		}
	}
	p.runOne(w, job, payload)
}

// runOne executes job.Cmd directly on w, with panic/error capture.
func (p *Pool) runOne(w *worker, job Job, payload any) {
	defer func() {
		if r := recover(); r != nil {
			p.SetError(xerr.ThreadFault(w.threadNumber, fmt.Errorf("%v", r)))
		}
	}()
	if err := job.Cmd(w.threadNumber, payload); err != nil {
		p.SetError(xerr.ThreadFault(w.threadNumber, err))
	}
}

// launchOne performs step 1 of the launch protocol against a single
// worker: lock its start control, arm it to run, unlock, signal. done, if
// non-nil, is signaled by workerLoop instead of the shared tree stop
// counter -- used for sub-launch-list dispatch nested inside a leader's
// own job execution.
func (p *Pool) launchOne(id int, job Job, payload any, done *sync.WaitGroup) {
	w := p.workers[id]
	w.startMu.Lock()
	w.job = job
	w.payload = payload
	w.subDone = done
	w.running = true
	w.startMu.Unlock()
	w.startCond.Signal()
}

// Launch runs job on every worker in root_launch_list (not including the
// master) plus, per worker, its sub_launch_list when job.Multilevel() is
// set, and blocks until all have reported back via Join.
func (p *Pool) Launch(job Job, payload any) error {
	p.mu.Lock()
	targets := append([]int(nil), p.rootLaunchList...)
	p.mu.Unlock()

	p.stopMu.Lock()
	p.stopLeft = len(targets)
	p.stopMu.Unlock()

	if len(targets) == 0 {
		return p.Join()
	}
	for _, id := range targets {
		p.launchOne(id, job, payload, nil)
	}
	return p.Join()
}

// LaunchRoot runs job only on the root worker (thread 0, i.e. the calling
// goroutine itself), synchronously, bypassing the tree entirely.
func (p *Pool) LaunchRoot(job Job, payload any) error {
	if err := job.Cmd(0, payload); err != nil {
		p.SetError(xerr.ThreadFault(0, err))
		return p.Join()
	}
	return p.Join()
}

// LaunchTree runs job across the full two-level tree: root_launch_list
// workers, each optionally recursing into its own sub_launch_list when
// job.Multilevel() reports true. This is the call CgEvolve's parallel
// reductions use.
func (p *Pool) LaunchTree(job Job, payload any) error {
	return p.Launch(job, payload)
}

// RunOnThreadRange runs job only on worker IDs [first, last), outside the
// tree topology, used when the caller already knows exactly which workers
// own the stripes it needs touched.
func (p *Pool) RunOnThreadRange(first, last int, job Job, payload any) error {
	p.mu.Lock()
	n := len(p.workers)
	p.mu.Unlock()
	if first < 1 {
		first = 1
	}
	if last > n {
		last = n
	}
	if first >= last {
		return nil
	}

	p.stopMu.Lock()
	p.stopLeft = last - first
	p.stopMu.Unlock()

	for id := first; id < last; id++ {
		p.launchOne(id, job, payload, nil)
	}
	return p.Join()
}

// Join waits for the tree's stop counter to reach zero, then transmits any
// held warnings and returns any relayed error.
func (p *Pool) Join() error {
	p.stopMu.Lock()
	for p.stopLeft > 0 {
		p.stopCond.Wait()
	}
	p.stopMu.Unlock()

	p.mu.Lock()
	sink := p.warnSink
	p.mu.Unlock()
	if sink == nil {
		sink = func(warn.Message) {}
	}
	p.warnings.Transmit(sink)
	return p.CheckAndClearError()
}
