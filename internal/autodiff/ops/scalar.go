package ops

import "github.com/quill-ml/quill/internal/tensor"

// ScalarOp records c = a (op) s for the scalar arithmetic family.
// The backward rule depends only on a per-op gradient scale, except for
// Pow which needs the saved input.
type ScalarOp struct {
	in, out *tensor.RawTensor
	scale   float64 // gradient multiplier: 1 for add/sub, s for mul, 1/s for div
}

// NewAddScalarOp records c = a + s.
func NewAddScalarOp(in, out *tensor.RawTensor) *ScalarOp {
	return &ScalarOp{in: in, out: out, scale: 1}
}

// NewSubScalarOp records c = a - s.
func NewSubScalarOp(in, out *tensor.RawTensor) *ScalarOp {
	return &ScalarOp{in: in, out: out, scale: 1}
}

// NewMulScalarOp records c = a * s.
func NewMulScalarOp(in, out *tensor.RawTensor, s float64) *ScalarOp {
	return &ScalarOp{in: in, out: out, scale: s}
}

// NewDivScalarOp records c = a / s.
func NewDivScalarOp(in, out *tensor.RawTensor, s float64) *ScalarOp {
	return &ScalarOp{in: in, out: out, scale: 1 / s}
}

// Inputs returns the input tensor.
func (op *ScalarOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.in} }

// Output returns the result tensor.
func (op *ScalarOp) Output() *tensor.RawTensor { return op.out }

// Backward scales the gradient by the op's constant factor.
func (op *ScalarOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	if op.scale == 1 {
		return []*tensor.RawTensor{outputGrad.Clone()}
	}
	return []*tensor.RawTensor{backend.MulScalar(outputGrad, op.scale)}
}

// PowOp records c = a^p.
type PowOp struct {
	in, out *tensor.RawTensor
	p       float64
}

// NewPowOp creates a power operation.
func NewPowOp(in, out *tensor.RawTensor, p float64) *PowOp {
	return &PowOp{in: in, out: out, p: p}
}

// Inputs returns the input tensor.
func (op *PowOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.in} }

// Output returns the result tensor.
func (op *PowOp) Output() *tensor.RawTensor { return op.out }

// Backward: d/dx x^p = p * x^(p-1).
func (op *PowOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	deriv := backend.MulScalar(backend.Pow(op.in, op.p-1), op.p)
	return []*tensor.RawTensor{backend.Mul(outputGrad, deriv)}
}
