// Copyright 2025 The go-highway Authors. SPDX-License-Identifier: Apache-2.0

package threadpool

import "golang.org/x/sync/errgroup"

// SetLockerItem stores value under name in worker workerID's thread-local
// map, for tests and for seeding per-worker scratch state before a launch.
func (p *Pool) SetLockerItem(workerID int, name string, value any) {
	p.mu.Lock()
	w := p.workers[workerID]
	p.mu.Unlock()
	w.lockerMu.Lock()
	defer w.lockerMu.Unlock()
	w.locker[name] = value
}

// GetLockerItem retrieves a previously stored thread-local value.
func (p *Pool) GetLockerItem(workerID int, name string) (any, bool) {
	p.mu.Lock()
	w := p.workers[workerID]
	p.mu.Unlock()
	w.lockerMu.Lock()
	defer w.lockerMu.Unlock()
	v, ok := w.locker[name]
	return v, ok
}

// DeleteLockerItem removes name from every persistent worker's thread-local
// map. It fans out one errgroup goroutine per worker, each taking that
// worker's locker mutex; the persistent workers themselves do not run it,
// and the master's (worker 0's) map is not touched.
func (p *Pool) DeleteLockerItem(name string) error {
	p.mu.Lock()
	workers := append([]*worker(nil), p.workers[1:]...)
	p.mu.Unlock()

	var g errgroup.Group
	for _, w := range workers {
		w := w
		g.Go(func() error {
			w.lockerMu.Lock()
			delete(w.locker, name)
			w.lockerMu.Unlock()
			return nil
		})
	}
	return g.Wait()
}
