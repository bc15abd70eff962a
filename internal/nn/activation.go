package nn

import "github.com/quill-ml/quill/internal/tensor"

// Backends may provide fused activation kernels beyond the core
// interface. The modules below use them when present and otherwise
// fall back to composing core operations, which keeps every activation
// differentiable on any backend.

type reluCapable interface {
	ReLU(*tensor.RawTensor) *tensor.RawTensor
}

type sigmoidCapable interface {
	Sigmoid(*tensor.RawTensor) *tensor.RawTensor
}

type tanhCapable interface {
	Tanh(*tensor.RawTensor) *tensor.RawTensor
}

// ReLU applies max(x, 0) element-wise.
type ReLU[B tensor.Backend] struct{}

// NewReLU creates a ReLU activation module.
func NewReLU[B tensor.Backend]() *ReLU[B] { return &ReLU[B]{} }

// Forward applies the activation.
func (r *ReLU[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	backend := x.Backend()
	if c, ok := any(backend).(reluCapable); ok {
		return tensor.New[float32](c.ReLU(x.Raw()), backend)
	}

	// mask = (x > 0) as float, out = x * mask
	zeros, err := tensor.NewRaw(x.Shape(), x.DType(), x.Device())
	if err != nil {
		panic(err)
	}
	mask := backend.Cast(backend.Greater(x.Raw(), zeros), tensor.Float32)
	return tensor.New[float32](backend.Mul(x.Raw(), mask), backend)
}

// Parameters returns nil.
func (r *ReLU[B]) Parameters() []*Parameter[B] { return nil }

// StateDict returns an empty map.
func (r *ReLU[B]) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{}
}

// LoadStateDict is a no-op.
func (r *ReLU[B]) LoadStateDict(map[string]*tensor.RawTensor) error { return nil }

// Sigmoid applies 1 / (1 + e^-x) element-wise.
type Sigmoid[B tensor.Backend] struct{}

// NewSigmoid creates a sigmoid activation module.
func NewSigmoid[B tensor.Backend]() *Sigmoid[B] { return &Sigmoid[B]{} }

// Forward applies the activation.
func (s *Sigmoid[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	backend := x.Backend()
	if c, ok := any(backend).(sigmoidCapable); ok {
		return tensor.New[float32](c.Sigmoid(x.Raw()), backend)
	}
	return tensor.New[float32](sigmoidComposed(x.Raw(), backend), backend)
}

// Parameters returns nil.
func (s *Sigmoid[B]) Parameters() []*Parameter[B] { return nil }

// StateDict returns an empty map.
func (s *Sigmoid[B]) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{}
}

// LoadStateDict is a no-op.
func (s *Sigmoid[B]) LoadStateDict(map[string]*tensor.RawTensor) error { return nil }

// Tanh applies the hyperbolic tangent element-wise.
type Tanh[B tensor.Backend] struct{}

// NewTanh creates a tanh activation module.
func NewTanh[B tensor.Backend]() *Tanh[B] { return &Tanh[B]{} }

// Forward applies the activation.
func (t *Tanh[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	backend := x.Backend()
	if c, ok := any(backend).(tanhCapable); ok {
		return tensor.New[float32](c.Tanh(x.Raw()), backend)
	}

	// tanh(x) = 2*sigmoid(2x) - 1
	doubled := backend.MulScalar(x.Raw(), 2)
	out := backend.SubScalar(backend.MulScalar(sigmoidComposed(doubled, backend), 2), 1)
	return tensor.New[float32](out, backend)
}

// Parameters returns nil.
func (t *Tanh[B]) Parameters() []*Parameter[B] { return nil }

// StateDict returns an empty map.
func (t *Tanh[B]) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{}
}

// LoadStateDict is a no-op.
func (t *Tanh[B]) LoadStateDict(map[string]*tensor.RawTensor) error { return nil }

// Softmax normalizes logits along Dim into probabilities.
type Softmax[B tensor.Backend] struct {
	Dim int
}

// NewSoftmax creates a softmax module over the given dimension.
func NewSoftmax[B tensor.Backend](dim int) *Softmax[B] {
	return &Softmax[B]{Dim: dim}
}

// Forward applies the normalization.
func (s *Softmax[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	backend := x.Backend()
	return tensor.New[float32](backend.Softmax(x.Raw(), s.Dim), backend)
}

// Parameters returns nil.
func (s *Softmax[B]) Parameters() []*Parameter[B] { return nil }

// StateDict returns an empty map.
func (s *Softmax[B]) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{}
}

// LoadStateDict is a no-op.
func (s *Softmax[B]) LoadStateDict(map[string]*tensor.RawTensor) error { return nil }

// sigmoidComposed builds sigmoid from core operations so it stays
// differentiable on backends without a fused kernel.
func sigmoidComposed(x *tensor.RawTensor, backend tensor.Backend) *tensor.RawTensor {
	negExp := backend.Exp(backend.MulScalar(x, -1))
	return backend.Pow(backend.AddScalar(negExp, 1), -1)
}
