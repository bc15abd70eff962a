// Package autodiff provides reverse-mode automatic differentiation as a
// backend decorator: it wraps any compute backend, records every
// differentiable operation on a gradient tape, and replays the tape in
// reverse to produce gradients.
package autodiff

import (
	"fmt"

	"github.com/quill-ml/quill/internal/autodiff/ops"
	"github.com/quill-ml/quill/internal/tensor"
)

// Backend decorates an inner compute backend with gradient tracking.
// All computation is delegated to the inner backend; while the tape is
// recording, each operation additionally records its backward rule.
//
// Gradients accumulate across Backward calls until ZeroGrad, so
// multiple backward passes sum their contributions the way repeated
// loss.backward() calls do in most autograd systems.
type Backend[B tensor.Backend] struct {
	inner B
	tape  *GradientTape
	grads map[*tensor.RawTensor]*tensor.RawTensor
}

// New wraps a compute backend with gradient tracking. The tape starts
// out not recording; call Tape().StartRecording() before the forward
// pass that should be differentiated.
func New[B tensor.Backend](inner B) *Backend[B] {
	return &Backend[B]{
		inner: inner,
		tape:  NewGradientTape(),
		grads: make(map[*tensor.RawTensor]*tensor.RawTensor),
	}
}

// Inner returns the wrapped compute backend.
func (b *Backend[B]) Inner() B { return b.inner }

// Tape returns the gradient tape.
func (b *Backend[B]) Tape() *GradientTape { return b.tape }

// Name identifies the backend.
func (b *Backend[B]) Name() string {
	return fmt.Sprintf("Autodiff(%s)", b.inner.Name())
}

// Device returns the inner backend's device.
func (b *Backend[B]) Device() tensor.Device { return b.inner.Device() }

// Backward runs the tape backward from root with the given seed
// gradient and folds the result into the accumulated gradient map,
// which it returns. The map is keyed by tensor identity and remains
// owned by the backend; it is valid until the next ZeroGrad.
func (b *Backend[B]) Backward(root, seed *tensor.RawTensor) map[*tensor.RawTensor]*tensor.RawTensor {
	for t, grad := range b.tape.Backward(root, seed, b.inner) {
		if existing := b.grads[t]; existing != nil {
			release := existing.ForceNonUnique()
			b.grads[t] = b.inner.Add(existing, grad)
			release()
		} else {
			b.grads[t] = grad
		}
	}
	return b.grads
}

// Grads returns the accumulated gradient map.
func (b *Backend[B]) Grads() map[*tensor.RawTensor]*tensor.RawTensor { return b.grads }

// Grad returns the accumulated gradient for t, or nil.
func (b *Backend[B]) Grad(t *tensor.RawTensor) *tensor.RawTensor { return b.grads[t] }

// ZeroGrad discards all accumulated gradients.
func (b *Backend[B]) ZeroGrad() {
	b.grads = make(map[*tensor.RawTensor]*tensor.RawTensor)
}

// pin keeps tensors in copy-on-write mode until the tape is cleared.
// Recorded inputs and outputs must not be overwritten in place while a
// backward pass may still read them.
func (b *Backend[B]) pin(tensors ...*tensor.RawTensor) {
	for _, t := range tensors {
		b.tape.pin(t.ForceNonUnique())
	}
}

// --- Binary arithmetic ---

// Add computes x + y with broadcasting.
func (b *Backend[B]) Add(x, y *tensor.RawTensor) *tensor.RawTensor {
	if !b.tape.IsRecording() {
		return b.inner.Add(x, y)
	}
	b.pin(x, y)
	out := b.inner.Add(x, y)
	b.pin(out)
	b.tape.Record(ops.NewAddOp(x, y, out))
	return out
}

// Sub computes x - y with broadcasting.
func (b *Backend[B]) Sub(x, y *tensor.RawTensor) *tensor.RawTensor {
	if !b.tape.IsRecording() {
		return b.inner.Sub(x, y)
	}
	b.pin(x, y)
	out := b.inner.Sub(x, y)
	b.pin(out)
	b.tape.Record(ops.NewSubOp(x, y, out))
	return out
}

// Mul computes x * y element-wise with broadcasting.
func (b *Backend[B]) Mul(x, y *tensor.RawTensor) *tensor.RawTensor {
	if !b.tape.IsRecording() {
		return b.inner.Mul(x, y)
	}
	b.pin(x, y)
	out := b.inner.Mul(x, y)
	b.pin(out)
	b.tape.Record(ops.NewMulOp(x, y, out))
	return out
}

// Div computes x / y element-wise with broadcasting.
func (b *Backend[B]) Div(x, y *tensor.RawTensor) *tensor.RawTensor {
	if !b.tape.IsRecording() {
		return b.inner.Div(x, y)
	}
	b.pin(x, y)
	out := b.inner.Div(x, y)
	b.pin(out)
	b.tape.Record(ops.NewDivOp(x, y, out))
	return out
}

// MatMul computes the 2D matrix product x @ y.
func (b *Backend[B]) MatMul(x, y *tensor.RawTensor) *tensor.RawTensor {
	if !b.tape.IsRecording() {
		return b.inner.MatMul(x, y)
	}
	b.pin(x, y)
	out := b.inner.MatMul(x, y)
	b.pin(out)
	b.tape.Record(ops.NewMatMulOp(x, y, out))
	return out
}

// --- Shape ---

// Reshape returns a view of t with a new shape.
func (b *Backend[B]) Reshape(t *tensor.RawTensor, shape tensor.Shape) *tensor.RawTensor {
	if !b.tape.IsRecording() {
		return b.inner.Reshape(t, shape)
	}
	b.pin(t)
	out := b.inner.Reshape(t, shape)
	b.pin(out)
	b.tape.Record(ops.NewReshapeOp(t, out))
	return out
}

// Transpose permutes t's dimensions. With no axes, the order is
// reversed.
func (b *Backend[B]) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	if !b.tape.IsRecording() {
		return b.inner.Transpose(t, axes...)
	}
	if len(axes) == 0 {
		rank := len(t.Shape())
		axes = make([]int, rank)
		for i := range axes {
			axes[i] = rank - 1 - i
		}
	}
	b.pin(t)
	out := b.inner.Transpose(t, axes...)
	b.pin(out)
	b.tape.Record(ops.NewTransposeOp(t, out, axes))
	return out
}

// --- Scalar arithmetic ---

// AddScalar computes t + s.
func (b *Backend[B]) AddScalar(t *tensor.RawTensor, s float64) *tensor.RawTensor {
	if !b.tape.IsRecording() {
		return b.inner.AddScalar(t, s)
	}
	b.pin(t)
	out := b.inner.AddScalar(t, s)
	b.pin(out)
	b.tape.Record(ops.NewAddScalarOp(t, out))
	return out
}

// SubScalar computes t - s.
func (b *Backend[B]) SubScalar(t *tensor.RawTensor, s float64) *tensor.RawTensor {
	if !b.tape.IsRecording() {
		return b.inner.SubScalar(t, s)
	}
	b.pin(t)
	out := b.inner.SubScalar(t, s)
	b.pin(out)
	b.tape.Record(ops.NewSubScalarOp(t, out))
	return out
}

// MulScalar computes t * s.
func (b *Backend[B]) MulScalar(t *tensor.RawTensor, s float64) *tensor.RawTensor {
	if !b.tape.IsRecording() {
		return b.inner.MulScalar(t, s)
	}
	b.pin(t)
	out := b.inner.MulScalar(t, s)
	b.pin(out)
	b.tape.Record(ops.NewMulScalarOp(t, out, s))
	return out
}

// DivScalar computes t / s.
func (b *Backend[B]) DivScalar(t *tensor.RawTensor, s float64) *tensor.RawTensor {
	if !b.tape.IsRecording() {
		return b.inner.DivScalar(t, s)
	}
	b.pin(t)
	out := b.inner.DivScalar(t, s)
	b.pin(out)
	b.tape.Record(ops.NewDivScalarOp(t, out, s))
	return out
}

// Pow computes t^p element-wise.
func (b *Backend[B]) Pow(t *tensor.RawTensor, p float64) *tensor.RawTensor {
	if !b.tape.IsRecording() {
		return b.inner.Pow(t, p)
	}
	b.pin(t)
	out := b.inner.Pow(t, p)
	b.pin(out)
	b.tape.Record(ops.NewPowOp(t, out, p))
	return out
}

// --- Element-wise math ---

// Exp computes e^t element-wise.
func (b *Backend[B]) Exp(t *tensor.RawTensor) *tensor.RawTensor {
	if !b.tape.IsRecording() {
		return b.inner.Exp(t)
	}
	b.pin(t)
	out := b.inner.Exp(t)
	b.pin(out)
	b.tape.Record(ops.NewExpOp(t, out))
	return out
}

// Log computes the natural logarithm element-wise.
func (b *Backend[B]) Log(t *tensor.RawTensor) *tensor.RawTensor {
	if !b.tape.IsRecording() {
		return b.inner.Log(t)
	}
	b.pin(t)
	out := b.inner.Log(t)
	b.pin(out)
	b.tape.Record(ops.NewLogOp(t, out))
	return out
}

// Sqrt computes the square root element-wise.
func (b *Backend[B]) Sqrt(t *tensor.RawTensor) *tensor.RawTensor {
	if !b.tape.IsRecording() {
		return b.inner.Sqrt(t)
	}
	b.pin(t)
	out := b.inner.Sqrt(t)
	b.pin(out)
	b.tape.Record(ops.NewSqrtOp(t, out))
	return out
}

// Softmax normalizes t along dim into a probability distribution.
func (b *Backend[B]) Softmax(t *tensor.RawTensor, dim int) *tensor.RawTensor {
	if !b.tape.IsRecording() {
		return b.inner.Softmax(t, dim)
	}
	b.pin(t)
	out := b.inner.Softmax(t, dim)
	b.pin(out)
	b.tape.Record(ops.NewSoftmaxOp(t, out, dim))
	return out
}

// --- Reductions ---

// Sum reduces t to a single-element tensor.
func (b *Backend[B]) Sum(t *tensor.RawTensor) *tensor.RawTensor {
	if !b.tape.IsRecording() {
		return b.inner.Sum(t)
	}
	b.pin(t)
	out := b.inner.Sum(t)
	b.pin(out)
	b.tape.Record(ops.NewSumOp(t, out))
	return out
}

// Mean reduces t to its single-element average.
func (b *Backend[B]) Mean(t *tensor.RawTensor) *tensor.RawTensor {
	if !b.tape.IsRecording() {
		return b.inner.Mean(t)
	}
	b.pin(t)
	out := b.inner.Mean(t)
	b.pin(out)
	b.tape.Record(ops.NewMeanOp(t, out))
	return out
}

// SumDim sums t along dim.
func (b *Backend[B]) SumDim(t *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	if !b.tape.IsRecording() {
		return b.inner.SumDim(t, dim, keepDim)
	}
	b.pin(t)
	out := b.inner.SumDim(t, dim, keepDim)
	b.pin(out)
	b.tape.Record(ops.NewSumDimOp(t, out, dim))
	return out
}

// MeanDim averages t along dim.
func (b *Backend[B]) MeanDim(t *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	if !b.tape.IsRecording() {
		return b.inner.MeanDim(t, dim, keepDim)
	}
	b.pin(t)
	out := b.inner.MeanDim(t, dim, keepDim)
	b.pin(out)
	b.tape.Record(ops.NewMeanDimOp(t, out, dim))
	return out
}

// --- Non-differentiable pass-throughs ---

// Argmax returns the index of the maximum along dim.
func (b *Backend[B]) Argmax(t *tensor.RawTensor, dim int) *tensor.RawTensor {
	return b.inner.Argmax(t, dim)
}

// Equal compares element-wise, returning a bool tensor.
func (b *Backend[B]) Equal(x, y *tensor.RawTensor) *tensor.RawTensor {
	return b.inner.Equal(x, y)
}

// Greater compares element-wise, returning a bool tensor.
func (b *Backend[B]) Greater(x, y *tensor.RawTensor) *tensor.RawTensor {
	return b.inner.Greater(x, y)
}

// Cast converts t to a new data type.
func (b *Backend[B]) Cast(t *tensor.RawTensor, dtype tensor.DataType) *tensor.RawTensor {
	return b.inner.Cast(t, dtype)
}
