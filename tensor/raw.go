// Copyright 2025 Quill ML Toolkit. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/quill-ml/quill/internal/tensor"
)

// RawTensor is the untyped storage underneath Tensor: a shape, a dtype
// and a reference-counted buffer with copy-on-write semantics. Backend
// implementations, optimizers and the checkpoint format all work at
// this level.
type RawTensor = tensor.RawTensor

// NewRaw allocates a zero-filled raw tensor.
//
// This is a low-level function; most code should use the typed
// creation functions instead.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	return tensor.NewRaw(shape, dtype, device)
}
