// Copyright 2025 The go-highway Authors. SPDX-License-Identifier: Apache-2.0

package threadpool

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLaunchRunsOnEveryRootWorker(t *testing.T) {
	p := New(8)
	defer p.EndThreads()

	var hits int32
	job := JobFunc(func(workerID int, payload any) error {
		atomic.AddInt32(&hits, 1)
		return nil
	})
	require.NoError(t, p.Launch(job, nil))
	assert.Equal(t, int32(len(p.RootLaunchList())), hits)
}

func TestRunOnThreadRange(t *testing.T) {
	p := New(6)
	defer p.EndThreads()

	var seen []int32
	ch := make(chan int, 6)
	job := JobFunc(func(workerID int, payload any) error {
		ch <- workerID
		return nil
	})
	require.NoError(t, p.RunOnThreadRange(1, 4, job, nil))
	close(ch)
	for id := range ch {
		seen = append(seen, int32(id))
		assert.GreaterOrEqual(t, id, 1)
		assert.Less(t, id, 4)
	}
	assert.Len(t, seen, 3)
}

func TestErrorRelayConcatenatesAndClears(t *testing.T) {
	p := New(4)
	defer p.EndThreads()

	job := JobFunc(func(workerID int, payload any) error {
		return fmt.Errorf("boom on %d", workerID)
	})
	err := p.Launch(job, nil)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "boom on 1")
	assert.Contains(t, err.Error(), "boom on 3")
	assert.False(t, p.IsError()) // CheckAndClearError already cleared it

	err2 := p.CheckAndClearError()
	assert.NoError(t, err2)
}

func TestDeleteLockerItemRemovesFromEveryWorker(t *testing.T) {
	p := New(5)
	defer p.EndThreads()

	for id := 1; id < p.NumWorkers(); id++ {
		p.SetLockerItem(id, "scratch", id)
	}
	require.NoError(t, p.DeleteLockerItem("scratch"))
	for id := 1; id < p.NumWorkers(); id++ {
		_, ok := p.GetLockerItem(id, "scratch")
		assert.False(t, ok)
	}
}

func TestEndThreadsIsIdempotent(t *testing.T) {
	p := New(4)
	p.EndThreads()
	p.EndThreads() // must not panic or block
}

func TestLaunchTreeMultilevelCoversFollowers(t *testing.T) {
	p := New(12)
	defer p.EndThreads()

	var hits int32
	job := multilevelJob{fn: func(workerID int) { atomic.AddInt32(&hits, 1) }}
	require.NoError(t, p.LaunchTree(job, nil))

	// Every worker reachable from the tree (root list plus each leader's
	// followers) must have run exactly once.
	total := len(p.RootLaunchList())
	for _, leader := range p.RootLaunchList() {
		total += len(p.SubLaunchList(leader))
	}
	assert.Equal(t, int32(total), hits)
}

type multilevelJob struct {
	fn func(workerID int)
}

func (multilevelJob) Multilevel() bool { return true }
func (j multilevelJob) Cmd(workerID int, payload any) error {
	j.fn(workerID)
	return nil
}
