// Copyright 2026 The MLXLearn Authors. SPDX-License-Identifier: Apache-2.0

// Package preprocessing holds the label bookkeeping used by the classifiers.
//
// A LabelEncoder maps arbitrary ordered label values (ints, floats, strings)
// to the dense zero-based class ids the training losses expect, and back.
package preprocessing

import (
	"cmp"
	"slices"

	"github.com/pkg/errors"
)

// LabelEncoder maps label values of type L to dense zero-based class ids and
// back. The canonical class order is ascending, so class id `i` is the i-th
// smallest distinct label value seen by Fit.
//
// The zero value is unfitted; Transform and InverseTransform return an error
// until Fit is called.
type LabelEncoder[L cmp.Ordered] struct {
	classes []L
	idOf    map[L]int32
}

// NewLabelEncoder returns a new, unfitted LabelEncoder.
func NewLabelEncoder[L cmp.Ordered]() *LabelEncoder[L] {
	return &LabelEncoder[L]{}
}

// Fit records the distinct values in labels, sorted ascending, as the class
// table. Refitting discards the previous table.
//
// It returns the encoder, so calls can be cascaded.
func (e *LabelEncoder[L]) Fit(labels []L) *LabelEncoder[L] {
	e.classes = slices.Clone(labels)
	slices.Sort(e.classes)
	e.classes = slices.Compact(e.classes)
	e.idOf = make(map[L]int32, len(e.classes))
	for i, class := range e.classes {
		e.idOf[class] = int32(i)
	}
	return e
}

// Transform converts labels to their class ids. It fails if the encoder was
// never fitted or if any label was not seen by Fit.
//
// The ids are int32 to match the sparse-label convention of the training
// losses, which take the true category as an integer tensor.
func (e *LabelEncoder[L]) Transform(labels []L) ([]int32, error) {
	if e.idOf == nil {
		return nil, errors.New("LabelEncoder has not been fitted")
	}
	ids := make([]int32, len(labels))
	for i, label := range labels {
		id, found := e.idOf[label]
		if !found {
			return nil, errors.Errorf("label %v was not seen during Fit", label)
		}
		ids[i] = id
	}
	return ids, nil
}

// FitTransform fits the encoder on labels and returns their class ids.
// Every label is in the table it just fitted, so it cannot fail.
func (e *LabelEncoder[L]) FitTransform(labels []L) []int32 {
	e.Fit(labels)
	ids := make([]int32, len(labels))
	for i, label := range labels {
		ids[i] = e.idOf[label]
	}
	return ids
}

// InverseTransform converts class ids back to the original label values.
// It fails if the encoder was never fitted or if any id is out of range.
func (e *LabelEncoder[L]) InverseTransform(ids []int32) ([]L, error) {
	if e.idOf == nil {
		return nil, errors.New("LabelEncoder has not been fitted")
	}
	labels := make([]L, len(ids))
	for i, id := range ids {
		if id < 0 || int(id) >= len(e.classes) {
			return nil, errors.Errorf("class id %d out of range: encoder knows %d classes", id, len(e.classes))
		}
		labels[i] = e.classes[id]
	}
	return labels, nil
}

// Classes returns the class table: the distinct label values seen by Fit in
// ascending order, index-addressable by class id. It returns nil for an
// unfitted encoder. The returned slice is owned by the encoder, don't modify.
func (e *LabelEncoder[L]) Classes() []L {
	return e.classes
}

// NumClasses returns the number of distinct classes seen by Fit.
func (e *LabelEncoder[L]) NumClasses() int {
	return len(e.classes)
}
