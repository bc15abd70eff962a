// Copyright 2025 Quill ML Toolkit. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides the pure Go CPU compute backend.
package cpu

import (
	internalcpu "github.com/quill-ml/quill/internal/backend/cpu"
	"github.com/quill-ml/quill/internal/parallel"
	"github.com/quill-ml/quill/tensor"
)

// Backend is the CPU backend implementation. Element-wise kernels and
// matrix multiplication parallelize across physical cores.
type Backend = internalcpu.Backend

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// Config controls how CPU kernels split work across goroutines.
type Config = parallel.Config

// New creates a CPU backend with default parallelism.
//
// Example:
//
//	backend := cpu.New()
//	x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
func New() *Backend {
	return internalcpu.New()
}

// NewWithConfig creates a CPU backend with explicit parallelism
// settings, e.g. single-threaded execution for benchmarks.
func NewWithConfig(cfg Config) *Backend {
	return internalcpu.NewWithConfig(cfg)
}
