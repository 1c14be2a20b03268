// Copyright 2026 The MLXLearn Authors. SPDX-License-Identifier: Apache-2.0

package classifier

import (
	"fmt"
	"os"

	"github.com/gomlx/gomlx/pkg/core/tensors"
	"github.com/gomlx/gomlx/pkg/ml/train"
	"github.com/schollz/progressbar/v3"
)

const progressBarHookName = "mlxlearn.classifier.progressBar"

// fitProgressBar renders one bar across all epochs of a fit. The loop's step
// counter carries over between RunEpochs calls, so the hooks stay attached
// for the whole fit and only report the delta since the last step.
type fitProgressBar struct {
	bar              *progressbar.ProgressBar
	lastStepReported int
}

// attachProgressBar hooks a plain ASCII progress bar over numSteps training
// steps onto the loop.
func attachProgressBar(loop *train.Loop, numSteps int) {
	pBar := &fitProgressBar{
		bar: progressbar.NewOptions(numSteps,
			progressbar.OptionSetDescription("training"),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("steps"),
			progressbar.OptionSetTheme(progressbar.ThemeASCII),
			progressbar.OptionSetWriter(os.Stdout),
		),
	}
	loop.OnStart(progressBarHookName, 0, pBar.onStart)
	loop.OnStep(progressBarHookName, 0, pBar.onStep)
	loop.OnEnd(progressBarHookName, 0, pBar.onEnd)
}

func (pBar *fitProgressBar) onStart(loop *train.Loop, _ train.Dataset) error {
	pBar.lastStepReported = loop.LoopStep
	return nil
}

func (pBar *fitProgressBar) onStep(loop *train.Loop, _ []*tensors.Tensor) error {
	if pBar.bar.IsFinished() {
		return nil
	}
	amount := loop.LoopStep + 1 - pBar.lastStepReported
	if amount <= 0 {
		return nil
	}
	pBar.lastStepReported = loop.LoopStep + 1
	return pBar.bar.Add(amount)
}

func (pBar *fitProgressBar) onEnd(_ *train.Loop, _ []*tensors.Tensor) error {
	if pBar.bar.IsFinished() {
		fmt.Println()
	}
	return nil
}
