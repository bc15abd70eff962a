// Copyright 2025 Quill ML Toolkit. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides gradient descent optimizers.
//
// Example:
//
//	opt := optim.NewSGD(nn.RawParameters[B](model), optim.SGDConfig{LR: 0.01})
//	...
//	_ = autodiff.Backward(loss)
//	_ = opt.Step(backend.Grads())
//	backend.ZeroGrad()
//	backend.Tape().Clear()
package optim

import (
	"github.com/quill-ml/quill/internal/optim"
	"github.com/quill-ml/quill/internal/tensor"
)

// Optimizer updates parameters from gradients.
type Optimizer = optim.Optimizer

// SGD is stochastic gradient descent with optional momentum and L2
// weight decay.
type SGD = optim.SGD

// SGDConfig configures SGD. Zero values mean plain SGD.
type SGDConfig = optim.SGDConfig

// NewSGD creates an SGD optimizer over the given parameters.
//
// Example:
//
//	opt := optim.NewSGD(params, optim.SGDConfig{LR: 0.01, Momentum: 0.9})
func NewSGD(params []*tensor.RawTensor, cfg SGDConfig) *SGD {
	return optim.NewSGD(params, cfg)
}

// Adam maintains per-parameter moment estimates with bias correction.
type Adam = optim.Adam

// AdamConfig configures Adam. Zero-valued fields take the usual
// defaults: lr 0.001, beta1 0.9, beta2 0.999, eps 1e-8.
type AdamConfig = optim.AdamConfig

// NewAdam creates an Adam optimizer over the given parameters.
func NewAdam(params []*tensor.RawTensor, cfg AdamConfig) *Adam {
	return optim.NewAdam(params, cfg)
}
