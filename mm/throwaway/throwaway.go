// Copyright 2025 The go-highway Authors. SPDX-License-Identifier: Apache-2.0

// Package throwaway implements detached background workers that are
// launched and forgotten, grounded on Oxs_ThreadThrowaway (oxsthread.h,
// "THROWAWAY THREADS" section). The launcher tracks only an active count;
// it never learns which specific task finished, by design.
package throwaway

import (
	"fmt"
	"sync"
	"time"
)

// Worker launches detached tasks and tracks how many are currently
// in flight. A zero Worker is ready to use.
type Worker struct {
	Name string

	mu     sync.Mutex
	active int
}

// New returns a named throwaway launcher, mirroring the original's
// constructor that takes a diagnostic name.
func New(name string) *Worker {
	return &Worker{Name: name}
}

// Launch increments the active count, spawns task in a detached goroutine
// that decrements the count on return (including on panic, which is
// recovered and swallowed: a throwaway task has no way to report failure
// to anyone, matching the original's fire-and-forget contract), and
// returns immediately. It always returns nil: starting a goroutine cannot
// fail in Go short of a fatal runtime error, so there is no undo-and-error
// path.
func (w *Worker) Launch(task func()) error {
	w.mu.Lock()
	w.active++
	w.mu.Unlock()

	go func() {
		defer func() {
			recover()
			w.mu.Lock()
			w.active--
			w.mu.Unlock()
		}()
		task()
	}()
	return nil
}

// ActiveCount reports how many launched tasks have not yet returned.
func (w *Worker) ActiveCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.active
}

// waitTimeout is the destructor's best-effort drain budget, and
// pollInterval its polling granularity, matching spec §4.E's
// 100s-at-0.5s-granularity teardown.
const (
	waitTimeout  = 100 * time.Second
	pollInterval = 500 * time.Millisecond
)

// Close polls ActiveCount until it reaches zero or waitTimeout elapses,
// then returns regardless -- a best-effort drain, not a guarantee, since
// throwaway tasks are explicitly not cancellable. It reports whether all
// tasks had finished by the time it returned.
func (w *Worker) Close() (drained bool) {
	deadline := time.Now().Add(waitTimeout)
	for {
		if w.ActiveCount() == 0 {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(pollInterval)
	}
}

// String implements fmt.Stringer for diagnostics.
func (w *Worker) String() string {
	return fmt.Sprintf("throwaway.Worker(%s, active=%d)", w.Name, w.ActiveCount())
}
