// Copyright 2025 Quill ML Toolkit. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/quill-ml/quill/internal/tensor"
)

// Backend is the interface compute implementations satisfy. All
// operations work on RawTensor and panic on programmer errors such as
// incompatible shapes; fallible construction happens before tensors
// reach a backend.
//
// Backends may additionally offer fused kernels (ReLU, CrossEntropy)
// beyond this interface; higher layers discover them via type
// assertion.
type Backend = tensor.Backend
