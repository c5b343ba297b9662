// Copyright 2025 The go-highway Authors. SPDX-License-Identifier: Apache-2.0

package throwaway

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLaunchIncrementsAndDecrements(t *testing.T) {
	w := New("test")
	var wg sync.WaitGroup
	wg.Add(1)
	require.NoError(t, w.Launch(func() {
		defer wg.Done()
		time.Sleep(10 * time.Millisecond)
	}))
	assert.Equal(t, 1, w.ActiveCount())
	wg.Wait()
	assert.Eventually(t, func() bool { return w.ActiveCount() == 0 }, time.Second, time.Millisecond)
}

func TestPanicInTaskStillDecrements(t *testing.T) {
	w := New("panicker")
	require.NoError(t, w.Launch(func() {
		panic("boom")
	}))
	assert.Eventually(t, func() bool { return w.ActiveCount() == 0 }, time.Second, time.Millisecond)
}

func TestCloseDrainsBeforeTimeout(t *testing.T) {
	w := New("drain")
	require.NoError(t, w.Launch(func() {
		time.Sleep(5 * time.Millisecond)
	}))
	drained := w.Close()
	assert.True(t, drained)
}

func TestMultipleLaunchesTrackCorrectly(t *testing.T) {
	w := New("multi")
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		require.NoError(t, w.Launch(func() {
			defer wg.Done()
			time.Sleep(time.Millisecond)
		}))
	}
	assert.LessOrEqual(t, w.ActiveCount(), 5)
	wg.Wait()
	assert.Eventually(t, func() bool { return w.ActiveCount() == 0 }, time.Second, time.Millisecond)
}
