// Copyright 2026 The MLXLearn Authors. SPDX-License-Identifier: Apache-2.0

// Package classifier wraps a differentiable model graph in a
// Fit / Predict estimator for multi-class classification.
//
// The caller supplies the model as a graph-building function returning the
// per-class logits; the classifier supplies everything around it: label
// encoding, a stratified train/validation split, mini-batch training with a
// configurable optimizer and loss, per-epoch reporting, checkpoints and the
// compiled inference executors behind Predict, DecisionFunction and
// PredictProba.
//
// A minimal fit of a feed-forward network:
//
//	model := func(ctx *context.Context, spec any, inputs []*graph.Node) []*graph.Node {
//		logits := fnn.New(ctx, inputs[0], numClasses).NumHiddenLayers(2, 32).Done()
//		return []*graph.Node{logits}
//	}
//	clf, err := classifier.New[string](model).
//		BatchSize(64).
//		MaxEpoch(20).
//		Verbose(true).
//		Done()
//	if err != nil { ... }
//	err = clf.Fit(x, y)
//	predicted, err := clf.Predict(xTest)
//
// Labels can be any ordered Go type; the class table is the sorted set of
// distinct values seen by Fit, and it defines the column order of the model's
// output.
package classifier
