// Copyright 2026 The MLXLearn Authors. SPDX-License-Identifier: Apache-2.0

// Package modelselection partitions datasets into train and test (or
// validation) subsets.
//
// Both splitters work on sample indices, so callers can slice whatever
// container holds the actual data. They are driven by a caller-provided
// *rand.Rand: seed it to make the split membership reproducible.
package modelselection

import (
	"math"
	"math/rand"

	"github.com/pkg/errors"
)

// Split partitions the indices [0, numSamples) into a train and a test set,
// with round(numSamples*testFraction) samples in the test set, in shuffled
// order. testFraction must be in (0, 1) and both partitions must end up
// non-empty.
func Split(numSamples int, testFraction float64, rng *rand.Rand) (trainIdx, testIdx []int, err error) {
	if err = checkFraction(testFraction); err != nil {
		return nil, nil, err
	}
	numTest := int(math.Round(float64(numSamples) * testFraction))
	if numTest < 1 || numTest >= numSamples {
		return nil, nil, errors.Errorf(
			"cannot split %d samples with testFraction=%g: it leaves an empty partition",
			numSamples, testFraction)
	}
	perm := rng.Perm(numSamples)
	return perm[numTest:], perm[:numTest], nil
}

// StratifiedSplit partitions the indices [0, len(y)) into a train and a test
// set so that each class keeps its share of the whole dataset in both
// partitions: each class contributes round(n_class*testFraction) samples to
// the test set, which keeps every class within one sample of the requested
// fraction.
//
// It fails if any class is too small to place at least one sample in each
// partition -- there is no fallback to a non-stratified split.
func StratifiedSplit[L comparable](y []L, testFraction float64, rng *rand.Rand) (trainIdx, testIdx []int, err error) {
	if err = checkFraction(testFraction); err != nil {
		return nil, nil, err
	}
	if len(y) == 0 {
		return nil, nil, errors.New("cannot split an empty label vector")
	}

	// Bucket sample indices per class, classes ordered by first appearance
	// so the split is deterministic for a fixed rng.
	buckets := make(map[L][]int)
	var classes []L
	for i, label := range y {
		if _, found := buckets[label]; !found {
			classes = append(classes, label)
		}
		buckets[label] = append(buckets[label], i)
	}

	for _, class := range classes {
		indices := buckets[class]
		rng.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
		numTest := int(math.Round(float64(len(indices)) * testFraction))
		if numTest < 1 || numTest >= len(indices) {
			return nil, nil, errors.Errorf(
				"class %v has only %d samples, too few to stratify with testFraction=%g",
				class, len(indices), testFraction)
		}
		testIdx = append(testIdx, indices[:numTest]...)
		trainIdx = append(trainIdx, indices[numTest:]...)
	}

	// Don't leave the partitions grouped by class.
	rng.Shuffle(len(trainIdx), func(i, j int) { trainIdx[i], trainIdx[j] = trainIdx[j], trainIdx[i] })
	rng.Shuffle(len(testIdx), func(i, j int) { testIdx[i], testIdx[j] = testIdx[j], testIdx[i] })
	return trainIdx, testIdx, nil
}

func checkFraction(testFraction float64) error {
	if testFraction <= 0 || testFraction >= 1 {
		return errors.Errorf("testFraction must be in (0, 1), got %g", testFraction)
	}
	return nil
}
