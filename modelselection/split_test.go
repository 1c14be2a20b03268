// Copyright 2026 The MLXLearn Authors. SPDX-License-Identifier: Apache-2.0

package modelselection

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// labelsWithRatio builds 200 labels, 80% class "a" and 20% class "b",
// interleaved so the split can't rely on ordering.
func labelsWithRatio() []string {
	y := make([]string, 200)
	for i := range y {
		if i%5 == 4 {
			y[i] = "b"
		} else {
			y[i] = "a"
		}
	}
	return y
}

func countIn(y []string, indices []int, label string) int {
	var n int
	for _, idx := range indices {
		if y[idx] == label {
			n++
		}
	}
	return n
}

func TestSplit(t *testing.T) {
	rng := rand.New(rand.NewSource(17))
	trainIdx, testIdx, err := Split(100, 0.25, rng)
	require.NoError(t, err)
	assert.Len(t, trainIdx, 75)
	assert.Len(t, testIdx, 25)

	// The two partitions are disjoint and cover [0, 100).
	seen := make(map[int]bool)
	for _, idx := range append(append([]int{}, trainIdx...), testIdx...) {
		assert.False(t, seen[idx], "index %d appears twice", idx)
		seen[idx] = true
	}
	assert.Len(t, seen, 100)
}

func TestSplitDegenerateFraction(t *testing.T) {
	rng := rand.New(rand.NewSource(17))
	_, _, err := Split(100, 0, rng)
	assert.Error(t, err)
	_, _, err = Split(100, 1, rng)
	assert.Error(t, err)
	_, _, err = Split(3, 0.01, rng) // Rounds to an empty test partition.
	assert.Error(t, err)
}

func TestStratifiedSplitPreservesProportions(t *testing.T) {
	y := labelsWithRatio()
	rng := rand.New(rand.NewSource(42))
	trainIdx, testIdx, err := StratifiedSplit(y, 0.1, rng)
	require.NoError(t, err)
	require.Len(t, testIdx, 20)
	require.Len(t, trainIdx, 180)

	// 80:20 in the whole dataset must hold exactly in both partitions here,
	// since 10% of each class count is integral.
	assert.Equal(t, 16, countIn(y, testIdx, "a"))
	assert.Equal(t, 4, countIn(y, testIdx, "b"))
	assert.Equal(t, 144, countIn(y, trainIdx, "a"))
	assert.Equal(t, 36, countIn(y, trainIdx, "b"))
}

func TestStratifiedSplitDeterministic(t *testing.T) {
	y := labelsWithRatio()
	train1, test1, err := StratifiedSplit(y, 0.1, rand.New(rand.NewSource(7)))
	require.NoError(t, err)
	train2, test2, err := StratifiedSplit(y, 0.1, rand.New(rand.NewSource(7)))
	require.NoError(t, err)
	assert.Equal(t, train1, train2)
	assert.Equal(t, test1, test2)

	// A different seed gives a different membership.
	_, test3, err := StratifiedSplit(y, 0.1, rand.New(rand.NewSource(8)))
	require.NoError(t, err)
	assert.NotEqual(t, test1, test3)
}

func TestStratifiedSplitClassTooSmall(t *testing.T) {
	y := []string{"a", "a", "a", "a", "a", "a", "a", "a", "a", "b"}
	_, _, err := StratifiedSplit(y, 0.1, rand.New(rand.NewSource(1)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too few to stratify")
}
