// Copyright 2025 Quill ML Toolkit. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff provides reverse-mode automatic differentiation.
//
// It wraps any compute backend with a gradient tape: while recording,
// every differentiable operation is captured, and Backward replays the
// tape in reverse to produce gradients for each tensor involved.
//
// Example:
//
//	backend := autodiff.New(cpu.New())
//	backend.Tape().StartRecording()
//
//	x := tensor.Randn[float32](tensor.Shape{4}, backend)
//	loss := x.Mul(x).Sum()
//
//	_ = autodiff.Backward(loss)
//	grad := autodiff.Grad(x) // 2x
package autodiff

import (
	"github.com/quill-ml/quill/internal/autodiff"
	"github.com/quill-ml/quill/internal/tensor"
)

// Backend is a gradient-tracking decorator around a compute backend.
// Gradients accumulate across Backward calls until ZeroGrad.
type Backend[B tensor.Backend] = autodiff.Backend[B]

// GradientTape records operations during the forward pass.
type GradientTape = autodiff.GradientTape

// New wraps a compute backend with gradient tracking. The tape starts
// out not recording.
func New[B tensor.Backend](inner B) *Backend[B] {
	return autodiff.New(inner)
}

// Backward runs a backward pass from a single-element tensor, seeding
// with ones.
func Backward[T tensor.DType, B tensor.Backend](t *tensor.Tensor[T, B]) error {
	return autodiff.Backward(t)
}

// BackwardWithGrad runs a backward pass from t with an explicit seed
// gradient, computing the vector-Jacobian product.
func BackwardWithGrad[T tensor.DType, B tensor.Backend](t, seed *tensor.Tensor[T, B]) error {
	return autodiff.BackwardWithGrad(t, seed)
}

// Grad returns the accumulated gradient of t, or nil if none has been
// computed.
func Grad[T tensor.DType, B tensor.Backend](t *tensor.Tensor[T, B]) *tensor.Tensor[T, B] {
	return autodiff.Grad(t)
}

// NoGrad runs fn with recording paused, restoring the previous state
// afterwards. Use it for evaluation loops.
func NoGrad[B tensor.Backend](b *Backend[B], fn func()) {
	autodiff.NoGrad(b, fn)
}
