// Copyright 2025 Quill ML Toolkit. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides neural network building blocks: layers,
// activations, containers, loss functions and checkpointing.
//
// Example:
//
//	backend := autodiff.New(cpu.New())
//	l1, _ := nn.NewLinear(784, 512, backend)
//	l2, _ := nn.NewLinear(512, 10, backend)
//	model := nn.NewSequential[B](
//	    nn.NewFlatten[B](),
//	    l1,
//	    nn.NewReLU[B](),
//	    l2,
//	)
//	logits := model.Forward(images)
package nn

import (
	"github.com/quill-ml/quill/internal/nn"
	"github.com/quill-ml/quill/internal/serialization"
	"github.com/quill-ml/quill/internal/tensor"
)

// Module is a composable piece of a neural network.
type Module[B tensor.Backend] = nn.Module[B]

// Parameter is a trainable tensor with its state dict name.
type Parameter[B tensor.Backend] = nn.Parameter[B]

// RawParameters returns a module's parameter storage in declaration
// order, the form optimizers consume.
func RawParameters[B tensor.Backend](m Module[B]) []*tensor.RawTensor {
	return nn.RawParameters(m)
}

// Layers

// Linear applies the affine transform y = x @ W^T + b.
type Linear[B tensor.Backend] = nn.Linear[B]

// NewLinear creates a fully connected layer with Xavier-initialized
// weights and a zero bias.
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, backend B) (*Linear[B], error) {
	return nn.NewLinear(inFeatures, outFeatures, backend)
}

// NewLinearNoBias creates a fully connected layer without a bias term.
func NewLinearNoBias[B tensor.Backend](inFeatures, outFeatures int, backend B) (*Linear[B], error) {
	return nn.NewLinearNoBias(inFeatures, outFeatures, backend)
}

// Flatten collapses every dimension after the batch dimension.
type Flatten[B tensor.Backend] = nn.Flatten[B]

// NewFlatten creates a flatten module.
func NewFlatten[B tensor.Backend]() *Flatten[B] {
	return nn.NewFlatten[B]()
}

// Activations

// ReLU applies max(x, 0) element-wise.
type ReLU[B tensor.Backend] = nn.ReLU[B]

// NewReLU creates a ReLU activation module.
func NewReLU[B tensor.Backend]() *ReLU[B] {
	return nn.NewReLU[B]()
}

// Sigmoid applies 1 / (1 + e^-x) element-wise.
type Sigmoid[B tensor.Backend] = nn.Sigmoid[B]

// NewSigmoid creates a sigmoid activation module.
func NewSigmoid[B tensor.Backend]() *Sigmoid[B] {
	return nn.NewSigmoid[B]()
}

// Tanh applies the hyperbolic tangent element-wise.
type Tanh[B tensor.Backend] = nn.Tanh[B]

// NewTanh creates a tanh activation module.
func NewTanh[B tensor.Backend]() *Tanh[B] {
	return nn.NewTanh[B]()
}

// Softmax normalizes logits along a dimension into probabilities.
type Softmax[B tensor.Backend] = nn.Softmax[B]

// NewSoftmax creates a softmax module over the given dimension.
func NewSoftmax[B tensor.Backend](dim int) *Softmax[B] {
	return nn.NewSoftmax[B](dim)
}

// Containers

// Sequential chains modules, feeding each one's output to the next.
type Sequential[B tensor.Backend] = nn.Sequential[B]

// NewSequential creates a container running the given modules in
// order.
func NewSequential[B tensor.Backend](modules ...Module[B]) *Sequential[B] {
	return nn.NewSequential(modules...)
}

// Losses

// MSELoss computes the mean squared error between predictions and
// targets.
type MSELoss[B tensor.Backend] = nn.MSELoss[B]

// NewMSELoss creates a mean squared error criterion.
func NewMSELoss[B tensor.Backend]() *MSELoss[B] {
	return nn.NewMSELoss[B]()
}

// CrossEntropyLoss computes mean softmax cross-entropy of logits
// against int32 class indices. Softmax is fused, so raw logits go in
// directly.
type CrossEntropyLoss[B tensor.Backend] = nn.CrossEntropyLoss[B]

// NewCrossEntropyLoss creates a classification criterion.
func NewCrossEntropyLoss[B tensor.Backend]() *CrossEntropyLoss[B] {
	return nn.NewCrossEntropyLoss[B]()
}

// BCEWithLogitsLoss computes binary cross-entropy directly from
// logits.
type BCEWithLogitsLoss[B tensor.Backend] = nn.BCEWithLogitsLoss[B]

// NewBCEWithLogitsLoss creates a binary cross-entropy criterion.
func NewBCEWithLogitsLoss[B tensor.Backend]() *BCEWithLogitsLoss[B] {
	return nn.NewBCEWithLogitsLoss[B]()
}

// Accuracy returns the fraction of rows whose argmax matches the
// target class.
func Accuracy[B tensor.Backend](logits *tensor.Tensor[float32, B], targets *tensor.Tensor[int32, B]) float64 {
	return nn.Accuracy(logits, targets)
}

// Checkpointing

// CheckpointMeta is optional training state stored alongside tensors
// in a .quill file.
type CheckpointMeta = serialization.CheckpointMeta

// StateDicter is anything whose state can be checkpointed: modules and
// optimizers both qualify.
type StateDicter = nn.StateDicter

// SaveCheckpoint writes a module's parameters to a .quill file.
func SaveCheckpoint(path string, m StateDicter, meta *CheckpointMeta) error {
	return nn.SaveCheckpoint(path, m, meta)
}

// LoadCheckpoint restores a module's parameters from a .quill file and
// returns the stored training state, if any.
func LoadCheckpoint(path string, m StateDicter) (*CheckpointMeta, error) {
	return nn.LoadCheckpoint(path, m)
}

// SaveTrainingCheckpoint writes model and optimizer state into one
// file.
func SaveTrainingCheckpoint(path string, model, optimizer StateDicter, meta *CheckpointMeta) error {
	return nn.SaveTrainingCheckpoint(path, model, optimizer, meta)
}

// LoadTrainingCheckpoint restores model and optimizer state written by
// SaveTrainingCheckpoint.
func LoadTrainingCheckpoint(path string, model, optimizer StateDicter) (*CheckpointMeta, error) {
	return nn.LoadTrainingCheckpoint(path, model, optimizer)
}
