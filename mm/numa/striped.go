// Copyright 2025 The go-highway Authors. SPDX-License-Identifier: Apache-2.0

// Package numa implements a NUMA-aware striped array: a contiguous typed
// buffer logically partitioned into per-worker stripes, each of which is
// zeroed by the worker that will subsequently touch it so the host OS's
// first-touch page placement policy binds that stripe's physical pages to
// the initializing worker's NUMA node. Grounded on Oxs_StripedArray<T>
// (oxsthread.h:760-1030) and Oxs_3DArray<T> (oxsarray.h).
package numa

import (
	"fmt"
	"runtime"
	"unsafe"

	"golang.org/x/sys/unix"
)

// stripeBlockSize is the unit that strip boundaries are rounded down to,
// matching OXS_STRIPE_BLOCKSIZE: the system page size when it is larger
// than a cache line, else the cache line size (cache lines are plenty fine
// a grain for a single-node run, but page size is what actually matters
// for first-touch NUMA placement).
func stripeBlockSize() int {
	p := PageSize()
	c := CacheLineSize()
	if p > c {
		return p
	}
	return c
}

// PageSize returns the host's memory page size.
func PageSize() int {
	return unix.Getpagesize()
}

// CacheLineSize is a conservative fixed fallback; Go has no portable way to
// query it at runtime, and 64 bytes covers every mainstream amd64/arm64
// target the teacher's dispatch tables (hwy/dispatch_amd64.go) target.
func CacheLineSize() int {
	return 64
}

// StripedArray is a contiguous slice of T logically divided into
// StripeCount() stripes, each stripe boundary aligned to stripeBlockSize()
// except that the final stripe absorbs whatever excess block-rounding
// left over (mirrors the augment_count distribution in SetSize).
type StripedArray[T any] struct {
	data      []T
	elemSize  int
	stripePos []int // byte offsets, len == stripeCount+1
	byteSize  int
}

// New returns a StripedArray with zero size; call SetSize to allocate.
func New[T any]() *StripedArray[T] {
	var zero T
	return &StripedArray[T]{elemSize: sizeOf(zero)}
}

// sizeOf returns sizeof(T) the way Oxs_StripedArray<T> would compute it:
// via the generic zero value's in-memory footprint. unsafe.Sizeof is exact
// for the plain numeric/struct element types this package is used with.
func sizeOf[T any](v T) int {
	return int(unsafe.Sizeof(v))
}

// Free releases the backing storage and resets all bookkeeping, mirroring
// Oxs_StripedArray<T>::Free's explicit-destructor-then-dealloc sequence
// (here a no-op beyond dropping the slice reference, since the GC owns
// reclamation).
func (s *StripedArray[T]) Free() {
	s.data = nil
	s.stripePos = nil
	s.byteSize = 0
}

// Len returns the current element count.
func (s *StripedArray[T]) Len() int { return len(s.data) }

// StripeCount returns the number of stripes the array was partitioned
// into at the last SetSize call.
func (s *StripedArray[T]) StripeCount() int {
	if len(s.stripePos) == 0 {
		return 0
	}
	return len(s.stripePos) - 1
}

// Slice exposes the backing storage directly for bulk access; callers
// respecting stripe boundaries (via StripPosition) get the NUMA-locality
// benefit, but nothing prevents crossing them.
func (s *StripedArray[T]) Slice() []T { return s.data }

// At returns a pointer to element i for in-place mutation.
func (s *StripedArray[T]) At(i int) *T { return &s.data[i] }

// SetSize reallocates the array to hold n elements across workerCount
// stripes, following the strip-size/augment_count algorithm of
// Oxs_StripedArray<T>::SetSize exactly: nominal stripe size is
// floor(n/workerCount)*sizeof(T) rounded down to the block size, and the
// shortfall against the true byte total is distributed one block at a
// time across the leading stripes. If zeroFn is non-nil, it then calls
// zeroFn(i, start, stop) once per stripe, in stripe order, on the calling
// goroutine (typically a closure over FirstTouchZero); the stripes are not
// zeroed in parallel.
func (s *StripedArray[T]) SetSize(n, workerCount int, zeroFn func(stripeIdx, start, stop int)) error {
	if n < 0 {
		return fmt.Errorf("numa: invalid size request to SetSize: %d (may indicate index overflow)", n)
	}
	s.Free()
	if n == 0 {
		return nil
	}
	if workerCount < 1 {
		workerCount = 1
	}

	block := stripeBlockSize()
	fullsize := n * s.elemSize

	stripeCount := workerCount
	var stripSize, augmentCount int
	if stripeCount > 1 && fullsize > block {
		stripSize = (n / stripeCount) * s.elemSize
		stripSize -= stripSize % block
		leftover := fullsize - stripeCount*stripSize
		augmentCount = leftover / block
	} else {
		stripeCount = 1
		stripSize = fullsize
		augmentCount = 0
	}

	pos := make([]int, stripeCount+1)
	for i := 0; i < stripeCount; i++ {
		var p int
		if i < augmentCount {
			p = i * (stripSize + block)
		} else {
			p = i*stripSize + augmentCount*block
		}
		if p > fullsize {
			p = fullsize
		}
		pos[i] = p
	}
	pos[stripeCount] = fullsize

	s.data = make([]T, n)
	s.stripePos = pos
	s.byteSize = fullsize

	if zeroFn != nil {
		for i := 0; i < stripeCount; i++ {
			start, stop := s.StripPosition(i)
			zeroFn(i, start, stop)
		}
	}
	return nil
}

// StripPosition returns the half-open element-index range [start, stop)
// owned by stripe i, applying the same "first fully enclosed T" rounding
// rule as Oxs_StripedArray<T>::GetStripPosition: a stripe's element range
// starts at the first T entirely inside its byte range and, for every
// stripe but the last, stops at the last T with at least one byte still
// inside the range.
func (s *StripedArray[T]) StripPosition(i int) (start, stop int) {
	stripeCount := s.StripeCount()
	if i < 0 || i >= stripeCount {
		return 0, 0
	}
	mystart := s.stripePos[i]
	mystop := s.stripePos[i+1]

	start = ceilDiv(mystart, s.elemSize)
	endpt := len(s.data)
	if i < stripeCount-1 {
		testpt := ceilDiv(mystop, s.elemSize)
		if testpt < endpt {
			endpt = testpt
		}
	}
	stop = endpt
	if start > stop {
		start = stop
	}
	return start, stop
}

func ceilDiv(a, b int) int {
	if b == 0 {
		return a
	}
	return (a + b - 1) / b
}

// FirstTouchZero zeroes data[start:stop] from the calling goroutine. When
// the goroutine that owns a stripe runs it, the kernel's NUMA-aware page
// fault handler (on platforms that honor first-touch) places those physical
// pages on that goroutine's node. SetSize calls its zeroFn for every stripe
// from its own calling goroutine.
func FirstTouchZero[T any](arr *StripedArray[T], start, stop int) {
	var zero T
	for i := start; i < stop; i++ {
		arr.data[i] = zero
	}
}

// LockOSThreadForStripe is a best-effort hint: pinning the calling
// goroutine to its OS thread for the duration of a first-touch pass
// keeps the physical-page-to-NUMA-node binding stable, avoiding the
// scheduler migrating the goroutine mid-stripe. Callers should always
// pair it with a deferred runtime.UnlockOSThread.
func LockOSThreadForStripe() {
	runtime.LockOSThread()
}
