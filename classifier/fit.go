// Copyright 2026 The MLXLearn Authors. SPDX-License-Identifier: Apache-2.0

package classifier

import (
	"fmt"
	"math/rand"

	"github.com/gomlx/gomlx/pkg/core/shapes"
	"github.com/gomlx/gomlx/pkg/core/tensors"
	"github.com/gomlx/gomlx/pkg/ml/context/checkpoints"
	"github.com/gomlx/gomlx/pkg/ml/datasets"
	"github.com/gomlx/gomlx/pkg/ml/train"
	"github.com/gomlx/gomlx/pkg/ml/train/metrics"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/kojix2/mlxlearn/modelselection"
	"github.com/kojix2/mlxlearn/preprocessing"
)

// Fit trains the model on x (n_samples × n_features) and y (n_samples).
//
// It encodes the labels, holds out a stratified validation partition, and
// runs MaxEpoch passes of mini-batch gradient descent over the training
// partition. When verbose, it evaluates both partitions after every epoch
// and prints one line with the mean loss and accuracy of each.
//
// Any engine error (shape mismatch, unavailable device, failed allocation)
// aborts the whole fit and is returned; there is no batch-level retry and no
// partial-epoch recovery. Calling Fit again retrains the same variables in
// place.
func (c *NeuralNetworkClassifier[L]) Fit(x mat.Matrix, y []L) error {
	numSamples, _ := x.Dims()
	if numSamples == 0 {
		return errors.New("cannot fit on an empty feature matrix")
	}
	if len(y) != numSamples {
		return errors.Errorf("x has %d samples but y has %d labels", numSamples, len(y))
	}

	encoder := preprocessing.NewLabelEncoder[L]().Fit(y)
	ids, err := encoder.Transform(y)
	if err != nil {
		return err
	}

	// One seeded generator drives both the split membership and the training
	// loader's shuffling.
	rng := rand.New(rand.NewSource(c.config.seed))
	trainIdx, valIdx, err := modelselection.StratifiedSplit(y, c.config.validationSplit, rng)
	if err != nil {
		return errors.WithMessage(err, "train/validation split failed")
	}

	backend := c.config.backend
	trainDS, err := datasets.InMemoryFromData(backend, "train",
		[]any{featureTensor(x, trainIdx)}, []any{labelTensor(ids, trainIdx)})
	if err != nil {
		return errors.WithMessage(err, "building the training batch loader")
	}
	trainDS.BatchSize(c.config.batchSize, false)
	if c.config.shuffle {
		// Reshuffled at every epoch boundary, when the loop resets the loader.
		trainDS.Shuffle().WithRand(rng)
	}

	// The evaluation loaders are only consumed by the verbose reporting.
	var trainEvalDS, valEvalDS *datasets.InMemoryDataset
	if c.config.verbose {
		trainEvalDS, err = datasets.InMemoryFromData(backend, "train eval",
			[]any{featureTensor(x, trainIdx)}, []any{labelTensor(ids, trainIdx)})
		if err != nil {
			return errors.WithMessage(err, "building the train evaluation loader")
		}
		valEvalDS, err = datasets.InMemoryFromData(backend, "validation",
			[]any{featureTensor(x, valIdx)}, []any{labelTensor(ids, valIdx)})
		if err != nil {
			return errors.WithMessage(err, "building the validation loader")
		}
		trainEvalDS.BatchSize(c.config.evalBatchSize, false)
		valEvalDS.BatchSize(c.config.evalBatchSize, false)
	}

	accuracy := metrics.NewSparseCategoricalAccuracy("accuracy", "acc")
	trainer := train.NewTrainer(backend, c.config.ctx, c.config.model,
		c.config.loss, c.config.optimizer,
		nil, // trainMetrics
		[]metrics.Interface{accuracy})
	loop := train.NewLoop(trainer)

	if c.config.progressBar {
		stepsPerEpoch := (len(trainIdx) + c.config.batchSize - 1) / c.config.batchSize
		attachProgressBar(loop, stepsPerEpoch*c.config.maxEpoch)
	}

	var checkpoint *checkpoints.Handler
	if c.config.checkpointDir != "" {
		checkpoint, err = checkpoints.Build(c.config.ctx).
			Dir(c.config.checkpointDir).
			Keep(c.config.checkpointKeep).
			Done()
		if err != nil {
			return errors.WithMessagef(err, "creating checkpoint handler in %q", c.config.checkpointDir)
		}
	}

	for epoch := 0; epoch < c.config.maxEpoch; epoch++ {
		if _, err = loop.RunEpochs(trainDS, 1); err != nil {
			return errors.WithMessagef(err, "training failed at epoch %d/%d", epoch+1, c.config.maxEpoch)
		}
		if c.config.verbose {
			trainLoss, trainAcc, err := evaluate(trainer, trainEvalDS)
			if err != nil {
				return err
			}
			valLoss, valAcc, err := evaluate(trainer, valEvalDS)
			if err != nil {
				return err
			}
			fmt.Printf("Epoch: %d/%d - loss: %.4f - accuracy: %.4f - val_loss: %.4f - val_accuracy: %.4f\n",
				epoch+1, c.config.maxEpoch, trainLoss, trainAcc, valLoss, valAcc)
		}
		if checkpoint != nil {
			if err = checkpoint.Save(); err != nil {
				return errors.WithMessagef(err, "saving checkpoint after epoch %d", epoch+1)
			}
		}
	}

	c.encoder = encoder
	return c.compileInference()
}

// evaluate runs a full evaluation pass over ds: no gradients, no optimizer
// update, training mode off. It returns the batch-size-weighted mean loss
// per sample and the accuracy (correct predictions over dataset size).
func evaluate(trainer *train.Trainer, ds train.Dataset) (meanLoss, accuracy float64, err error) {
	values, err := trainer.Eval(ds)
	if err != nil {
		return 0, 0, errors.WithMessagef(err, "evaluating %q", ds.Name())
	}
	ds.Reset()
	// Trainer.Eval reports the loss metric first, then the configured
	// evaluation metrics -- here the sparse categorical accuracy.
	meanLoss = shapes.ConvertTo[float64](values[0].Value())
	accuracy = shapes.ConvertTo[float64](values[1].Value())
	return meanLoss, accuracy, nil
}

// featureTensor copies the selected rows of x into a `(Float32)[len(indices),
// n_features]` tensor. A nil indices selects every row in order.
func featureTensor(x mat.Matrix, indices []int) *tensors.Tensor {
	numRows, numCols := x.Dims()
	if indices == nil {
		indices = make([]int, numRows)
		for i := range indices {
			indices[i] = i
		}
	}
	flat := make([]float32, 0, len(indices)*numCols)
	for _, row := range indices {
		for col := 0; col < numCols; col++ {
			flat = append(flat, float32(x.At(row, col)))
		}
	}
	return tensors.FromFlatDataAndDimensions(flat, len(indices), numCols)
}

// labelTensor copies the selected class ids into a `(Int32)[len(indices), 1]`
// tensor -- the sparse losses and the accuracy metric require the trailing
// unit axis holding the true category.
func labelTensor(ids []int32, indices []int) *tensors.Tensor {
	flat := make([]int32, len(indices))
	for i, row := range indices {
		flat[i] = ids[row]
	}
	return tensors.FromFlatDataAndDimensions(flat, len(indices), 1)
}
