// Copyright 2025 The go-highway Authors. SPDX-License-Identifier: Apache-2.0

package numa

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetSizeAllZero(t *testing.T) {
	arr := New[float64]()
	err := arr.SetSize(100000, 8, func(_, start, stop int) { FirstTouchZero(arr, start, stop) })
	require.NoError(t, err)
	for i := 0; i < arr.Len(); i++ {
		assert.Equal(t, 0.0, *arr.At(i))
	}
}

func TestStripPositionPartitionsWholeRange(t *testing.T) {
	arr := New[float64]()
	require.NoError(t, arr.SetSize(100000, 8, nil))

	covered := 0
	prevStop := 0
	for i := 0; i < arr.StripeCount(); i++ {
		start, stop := arr.StripPosition(i)
		assert.GreaterOrEqual(t, start, prevStop)
		assert.LessOrEqual(t, start, stop)
		covered += stop - start
		prevStop = stop
	}
	assert.Equal(t, arr.Len(), prevStop)
	assert.Equal(t, arr.Len(), covered)
}

func TestStripePosByteOffsetsNonDecreasing(t *testing.T) {
	arr := New[float64]()
	require.NoError(t, arr.SetSize(100000, 8, nil))
	for i := 0; i < len(arr.stripePos)-1; i++ {
		assert.LessOrEqual(t, arr.stripePos[i], arr.stripePos[i+1])
	}
	assert.Equal(t, 100000*arr.elemSize, arr.stripePos[len(arr.stripePos)-1])
}

func TestSetSizeNegativeIsBadParameter(t *testing.T) {
	arr := New[float64]()
	err := arr.SetSize(-5, 4, nil)
	assert.Error(t, err)
}

func TestSetSizeSmallArrayCollapsesStripes(t *testing.T) {
	arr := New[float64]()
	require.NoError(t, arr.SetSize(1, 8, nil))
	assert.Equal(t, 1, arr.Len())
	start, stop := arr.StripPosition(0)
	assert.Equal(t, 0, start)
	assert.Equal(t, 1, stop)
}

func TestFreeResetsState(t *testing.T) {
	arr := New[float64]()
	require.NoError(t, arr.SetSize(1000, 4, nil))
	arr.Free()
	assert.Equal(t, 0, arr.Len())
	assert.Equal(t, 0, arr.StripeCount())
}
