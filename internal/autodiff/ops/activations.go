package ops

import (
	"fmt"

	"github.com/quill-ml/quill/internal/tensor"
)

// ReLUOp records c = max(a, 0).
type ReLUOp struct {
	in, out *tensor.RawTensor
}

// NewReLUOp creates a ReLU operation.
func NewReLUOp(in, out *tensor.RawTensor) *ReLUOp {
	return &ReLUOp{in: in, out: out}
}

// Inputs returns the input tensor.
func (op *ReLUOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.in} }

// Output returns the result tensor.
func (op *ReLUOp) Output() *tensor.RawTensor { return op.out }

// Backward masks the gradient where the input was non-positive.
func (op *ReLUOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	grad := zerosLike(op.in)
	switch op.in.DType() {
	case tensor.Float32:
		in, g, out := op.in.AsFloat32(), outputGrad.AsFloat32(), grad.AsFloat32()
		for i := range in {
			if in[i] > 0 {
				out[i] = g[i]
			}
		}
	case tensor.Float64:
		in, g, out := op.in.AsFloat64(), outputGrad.AsFloat64(), grad.AsFloat64()
		for i := range in {
			if in[i] > 0 {
				out[i] = g[i]
			}
		}
	default:
		panic(fmt.Sprintf("relu backward: unsupported dtype %s", op.in.DType()))
	}
	return []*tensor.RawTensor{grad}
}

// SigmoidOp records c = 1 / (1 + exp(-a)).
type SigmoidOp struct {
	in, out *tensor.RawTensor
}

// NewSigmoidOp creates a sigmoid operation.
func NewSigmoidOp(in, out *tensor.RawTensor) *SigmoidOp {
	return &SigmoidOp{in: in, out: out}
}

// Inputs returns the input tensor.
func (op *SigmoidOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.in} }

// Output returns the result tensor.
func (op *SigmoidOp) Output() *tensor.RawTensor { return op.out }

// Backward: dy/dx = y * (1 - y), using the saved output.
func (op *SigmoidOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	oneMinus := backend.MulScalar(backend.SubScalar(op.out, 1), -1)
	deriv := backend.Mul(op.out, oneMinus)
	return []*tensor.RawTensor{backend.Mul(outputGrad, deriv)}
}

// TanhOp records c = tanh(a).
type TanhOp struct {
	in, out *tensor.RawTensor
}

// NewTanhOp creates a tanh operation.
func NewTanhOp(in, out *tensor.RawTensor) *TanhOp {
	return &TanhOp{in: in, out: out}
}

// Inputs returns the input tensor.
func (op *TanhOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.in} }

// Output returns the result tensor.
func (op *TanhOp) Output() *tensor.RawTensor { return op.out }

// Backward: dy/dx = 1 - y^2, using the saved output.
func (op *TanhOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	ySquared := backend.Mul(op.out, op.out)
	deriv := backend.MulScalar(backend.SubScalar(ySquared, 1), -1)
	return []*tensor.RawTensor{backend.Mul(outputGrad, deriv)}
}
