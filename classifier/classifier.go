// Copyright 2026 The MLXLearn Authors. SPDX-License-Identifier: Apache-2.0

package classifier

import (
	"cmp"
	"math/rand"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/gomlx/backends"
	"github.com/gomlx/gomlx/pkg/ml/context"
	"github.com/gomlx/gomlx/pkg/ml/train"
	"github.com/gomlx/gomlx/pkg/ml/train/losses"
	"github.com/gomlx/gomlx/pkg/ml/train/optimizers"
	"github.com/pkg/errors"

	"github.com/kojix2/mlxlearn/preprocessing"
)

// ErrNotFitted is returned by Predict, DecisionFunction, PredictProba and
// Score when called before Fit: there is no class table yet, so no prediction
// can be mapped back to a label.
var ErrNotFitted = errors.New("classifier has not been fitted, call Fit first")

// Config builds a NeuralNetworkClassifier.
//
// Create it with New, chain the option methods and call Done. Every option
// has a default; only the model graph function is mandatory. Once Done
// returns, the configuration is frozen for the classifier's lifetime.
type Config[L cmp.Ordered] struct {
	model     train.ModelFn
	backend   backends.Backend
	ctx       *context.Context
	ctxOwned  bool
	optimizer optimizers.Interface
	loss      losses.LossFn

	batchSize       int
	evalBatchSize   int
	maxEpoch        int
	shuffle         bool
	validationSplit float64
	verbose         bool
	progressBar     bool
	seed            int64
	seedSet         bool

	checkpointDir  string
	checkpointKeep int
}

// New starts the configuration of a NeuralNetworkClassifier for labels of
// type L, wrapping the given model graph function.
//
// The model function must return one output: the per-class logits, shaped
// `[batch_size, num_classes]`. Its trainable variables live in the
// classifier's context and are updated in place during Fit.
func New[L cmp.Ordered](model train.ModelFn) *Config[L] {
	return &Config[L]{
		model:           model,
		batchSize:       128,
		maxEpoch:        10,
		shuffle:         true,
		validationSplit: 0.1,
		checkpointKeep:  3,
	}
}

// Backend sets the compute backend (engine plugin plus device) used for
// training and inference. Defaults to the first available backend.
func (c *Config[L]) Backend(backend backends.Backend) *Config[L] {
	c.backend = backend
	return c
}

// Context sets the context holding the model variables. Use it to resume
// training or to share variables with other executors. Defaults to a fresh
// context owned by the classifier.
func (c *Config[L]) Context(ctx *context.Context) *Config[L] {
	c.ctx = ctx
	return c
}

// Optimizer sets the optimizer that updates the model variables from the
// loss gradients. Defaults to Adam with the engine's default learning rate.
func (c *Config[L]) Optimizer(optimizer optimizers.Interface) *Config[L] {
	c.optimizer = optimizer
	return c
}

// Loss sets the training loss. Defaults to sparse categorical cross-entropy
// on the logits.
func (c *Config[L]) Loss(loss losses.LossFn) *Config[L] {
	c.loss = loss
	return c
}

// BatchSize sets the training mini-batch size. Defaults to 128.
func (c *Config[L]) BatchSize(n int) *Config[L] {
	c.batchSize = n
	return c
}

// EvalBatchSize sets the batch size used by the evaluation passes only.
// Defaults to the training batch size.
func (c *Config[L]) EvalBatchSize(n int) *Config[L] {
	c.evalBatchSize = n
	return c
}

// MaxEpoch sets how many full passes over the training partition Fit runs.
// Defaults to 10.
func (c *Config[L]) MaxEpoch(n int) *Config[L] {
	c.maxEpoch = n
	return c
}

// Shuffle sets whether the training loader reshuffles the training partition
// at every epoch. Defaults to true.
func (c *Config[L]) Shuffle(shuffle bool) *Config[L] {
	c.shuffle = shuffle
	return c
}

// ValidationSplit sets the fraction of samples held out for validation,
// stratified by class. Must be in (0, 1). Defaults to 0.1.
func (c *Config[L]) ValidationSplit(fraction float64) *Config[L] {
	c.validationSplit = fraction
	return c
}

// Verbose sets whether Fit prints one line per epoch with the mean loss and
// accuracy on the train and validation partitions. Defaults to false.
func (c *Config[L]) Verbose(verbose bool) *Config[L] {
	c.verbose = verbose
	return c
}

// ProgressBar sets whether Fit renders a progress bar over the training
// steps. Defaults to false.
func (c *Config[L]) ProgressBar(show bool) *Config[L] {
	c.progressBar = show
	return c
}

// Seed sets the seed driving the train/validation split, the training
// loader's shuffling and, for contexts the classifier creates itself, the
// variable initializers. If unset, a seed is drawn once from the process
// random source when Done is called.
func (c *Config[L]) Seed(seed int64) *Config[L] {
	c.seed = seed
	c.seedSet = true
	return c
}

// Checkpoint makes Fit save the model context to dir at the end of every
// epoch, keeping the most recent checkpoints. Defaults to no checkpointing.
func (c *Config[L]) Checkpoint(dir string) *Config[L] {
	c.checkpointDir = dir
	return c
}

// CheckpointKeep sets how many checkpoints to keep when Checkpoint is
// configured. Defaults to 3.
func (c *Config[L]) CheckpointKeep(n int) *Config[L] {
	c.checkpointKeep = n
	return c
}

// Done validates the configuration, fills in the defaults and returns the
// classifier. It fails if no model was given or if any option is out of
// range.
func (c *Config[L]) Done() (*NeuralNetworkClassifier[L], error) {
	if c.model == nil {
		return nil, errors.New("classifier requires a model graph function, got nil")
	}
	if c.batchSize <= 0 {
		return nil, errors.Errorf("batch size must be positive, got %d", c.batchSize)
	}
	if c.evalBatchSize < 0 {
		return nil, errors.Errorf("evaluation batch size cannot be negative, got %d", c.evalBatchSize)
	}
	if c.maxEpoch <= 0 {
		return nil, errors.Errorf("max epoch must be positive, got %d", c.maxEpoch)
	}
	if c.validationSplit <= 0 || c.validationSplit >= 1 {
		return nil, errors.Errorf("validation split must be in (0, 1), got %g", c.validationSplit)
	}

	cfg := *c
	if cfg.evalBatchSize == 0 {
		cfg.evalBatchSize = cfg.batchSize
	}
	if !cfg.seedSet {
		cfg.seed = rand.Int63()
		cfg.seedSet = true
	}
	if cfg.loss == nil {
		cfg.loss = losses.SparseCategoricalCrossEntropyLogits
	}
	if cfg.optimizer == nil {
		cfg.optimizer = optimizers.Adam().Done()
	}
	if cfg.backend == nil {
		err := exceptions.TryCatch[error](func() { cfg.backend = backends.New() })
		if err != nil {
			return nil, errors.WithMessage(err, "failed to create the default backend")
		}
	}
	if cfg.ctx == nil {
		cfg.ctx = context.New()
		cfg.ctxOwned = true
		// Deterministic variable initialization, but only for contexts we
		// own: a caller-provided context may carry warm state.
		cfg.ctx.RngStateFromSeed(cfg.seed)
	}
	return &NeuralNetworkClassifier[L]{config: cfg}, nil
}

// NeuralNetworkClassifier adapts a differentiable model graph into a
// classifier with a Fit / Predict / DecisionFunction contract.
//
// The trained state is the set of variables inside the context: it is
// mutated in place across epochs and shared by reference with the caller.
// The classifier is not safe for concurrent use; Fit blocks until every
// configured epoch ran or an engine error aborted it.
type NeuralNetworkClassifier[L cmp.Ordered] struct {
	config Config[L]

	// encoder is set by Fit; a nil encoder means not fitted.
	encoder *preprocessing.LabelEncoder[L]

	// Compiled inference executors, built at the end of Fit.
	logitsExec  *context.Exec
	predictExec *context.Exec
	probaExec   *context.Exec
}

// Classes returns the class table recorded during Fit: the distinct label
// values seen, ascending, index-aligned with the model's output columns.
// It returns nil before Fit.
func (c *NeuralNetworkClassifier[L]) Classes() []L {
	if c.encoder == nil {
		return nil
	}
	return c.encoder.Classes()
}

// IsFitted reports whether Fit completed at least once.
func (c *NeuralNetworkClassifier[L]) IsFitted() bool {
	return c.encoder != nil
}

// Context returns the context holding the model variables.
func (c *NeuralNetworkClassifier[L]) Context() *context.Context {
	return c.config.ctx
}

// Seed returns the resolved random seed used by this classifier.
func (c *NeuralNetworkClassifier[L]) Seed() int64 {
	return c.config.seed
}
