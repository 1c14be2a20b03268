// Copyright 2026 The MLXLearn Authors. SPDX-License-Identifier: Apache-2.0

package classifier

import (
	"github.com/gomlx/exceptions"
	. "github.com/gomlx/gomlx/pkg/core/graph"
	"github.com/gomlx/gomlx/pkg/core/tensors"
	"github.com/gomlx/gomlx/pkg/core/dtypes"
	"github.com/gomlx/gomlx/pkg/ml/context"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// compileInference builds the executors used by the read paths. They run the
// model forward only -- no gradient bookkeeping -- against the trained
// context, marked for reuse so inference cannot create new variables.
func (c *NeuralNetworkClassifier[L]) compileInference() error {
	ctx := c.config.ctx.Reuse()
	backend := c.config.backend
	logitsFn := func(ctx *context.Context, x *Node) *Node {
		return c.config.model(ctx, nil, []*Node{x})[0]
	}

	var err error
	return exceptions.TryCatch[error](func() {
		c.logitsExec, err = context.NewExec(backend, ctx, logitsFn)
		if err != nil {
			panic(errors.WithMessage(err, "compiling the logits executor"))
		}
		c.predictExec, err = context.NewExec(backend, ctx,
			func(ctx *context.Context, x *Node) *Node {
				// Ties resolve to the lowest class index.
				return ArgMax(logitsFn(ctx, x), -1, dtypes.Int32)
			})
		if err != nil {
			panic(errors.WithMessage(err, "compiling the prediction executor"))
		}
		c.probaExec, err = context.NewExec(backend, ctx,
			func(ctx *context.Context, x *Node) *Node {
				return Softmax(logitsFn(ctx, x))
			})
		if err != nil {
			panic(errors.WithMessage(err, "compiling the probabilities executor"))
		}
	})
}

// Predict runs the model forward on x (n_samples × n_features) and returns
// the predicted label for every sample: the class with the highest output
// value, mapped back through the class table recorded during Fit.
//
// It fails with ErrNotFitted if Fit never completed.
func (c *NeuralNetworkClassifier[L]) Predict(x mat.Matrix) ([]L, error) {
	if c.encoder == nil {
		return nil, ErrNotFitted
	}
	choices, err := c.predictExec.Exec1(featureTensor(x, nil))
	if err != nil {
		return nil, errors.WithMessage(err, "model forward pass failed")
	}
	return c.encoder.InverseTransform(tensors.MustCopyFlatData[int32](choices))
}

// DecisionFunction runs the model forward on x and returns its raw output as
// an (n_samples × n_classes) matrix: the unnormalized per-class values,
// which are calibrated probabilities only if the model itself normalizes
// them.
//
// It fails with ErrNotFitted if Fit never completed.
func (c *NeuralNetworkClassifier[L]) DecisionFunction(x mat.Matrix) (*mat.Dense, error) {
	if c.encoder == nil {
		return nil, ErrNotFitted
	}
	return c.execToMatrix(c.logitsExec, x)
}

// PredictProba returns the per-class probabilities for every sample in x:
// the softmax of the model output, each row summing to 1, columns aligned
// with Classes.
//
// It fails with ErrNotFitted if Fit never completed.
func (c *NeuralNetworkClassifier[L]) PredictProba(x mat.Matrix) (*mat.Dense, error) {
	if c.encoder == nil {
		return nil, ErrNotFitted
	}
	return c.execToMatrix(c.probaExec, x)
}

// Score predicts x and returns the fraction of samples whose predicted label
// equals y.
func (c *NeuralNetworkClassifier[L]) Score(x mat.Matrix, y []L) (float64, error) {
	predicted, err := c.Predict(x)
	if err != nil {
		return 0, err
	}
	if len(predicted) != len(y) {
		return 0, errors.Errorf("x has %d samples but y has %d labels", len(predicted), len(y))
	}
	var correct int
	for i, label := range predicted {
		if label == y[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(y)), nil
}

// execToMatrix runs exec on the features and converts the resulting
// `[n_samples, n_classes]` tensor to a gonum matrix.
func (c *NeuralNetworkClassifier[L]) execToMatrix(exec *context.Exec, x mat.Matrix) (*mat.Dense, error) {
	output, err := exec.Exec1(featureTensor(x, nil))
	if err != nil {
		return nil, errors.WithMessage(err, "model forward pass failed")
	}
	shape := output.Shape()
	if shape.Rank() != 2 {
		return nil, errors.Errorf("model output must be rank-2 `[batch, num_classes]`, got shape %s", shape)
	}
	numRows, numCols := shape.Dimensions[0], shape.Dimensions[1]
	data := make([]float64, 0, numRows*numCols)
	switch shape.DType {
	case dtypes.Float32:
		for _, v := range tensors.MustCopyFlatData[float32](output) {
			data = append(data, float64(v))
		}
	case dtypes.Float64:
		data = tensors.MustCopyFlatData[float64](output)
	default:
		return nil, errors.Errorf("unsupported model output dtype %s", shape.DType)
	}
	return mat.NewDense(numRows, numCols, data), nil
}
