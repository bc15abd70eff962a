package nn

import "github.com/quill-ml/quill/internal/tensor"

// Flatten collapses every dimension after the batch dimension, turning
// [N, 1, 28, 28] images into [N, 784] feature vectors.
type Flatten[B tensor.Backend] struct{}

// NewFlatten creates a flatten module.
func NewFlatten[B tensor.Backend]() *Flatten[B] {
	return &Flatten[B]{}
}

// Forward reshapes [N, d1, d2, ...] to [N, d1*d2*...].
func (f *Flatten[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := x.Shape()
	features := 1
	for _, dim := range shape[1:] {
		features *= dim
	}
	backend := x.Backend()
	out := backend.Reshape(x.Raw(), tensor.Shape{shape[0], features})
	return tensor.New[float32](out, backend)
}

// Parameters returns nil; flatten has no state.
func (f *Flatten[B]) Parameters() []*Parameter[B] { return nil }

// StateDict returns an empty map.
func (f *Flatten[B]) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{}
}

// LoadStateDict is a no-op.
func (f *Flatten[B]) LoadStateDict(map[string]*tensor.RawTensor) error { return nil }
