package ops

import "github.com/quill-ml/quill/internal/tensor"

// ExpOp records c = exp(a).
type ExpOp struct {
	in, out *tensor.RawTensor
}

// NewExpOp creates an exponential operation.
func NewExpOp(in, out *tensor.RawTensor) *ExpOp {
	return &ExpOp{in: in, out: out}
}

// Inputs returns the input tensor.
func (op *ExpOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.in} }

// Output returns the result tensor.
func (op *ExpOp) Output() *tensor.RawTensor { return op.out }

// Backward: d/dx exp(x) = exp(x), which is the saved output.
func (op *ExpOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Mul(outputGrad, op.out)}
}

// LogOp records c = ln(a).
type LogOp struct {
	in, out *tensor.RawTensor
}

// NewLogOp creates a logarithm operation.
func NewLogOp(in, out *tensor.RawTensor) *LogOp {
	return &LogOp{in: in, out: out}
}

// Inputs returns the input tensor.
func (op *LogOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.in} }

// Output returns the result tensor.
func (op *LogOp) Output() *tensor.RawTensor { return op.out }

// Backward: d/dx ln(x) = 1/x.
func (op *LogOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Div(outputGrad, op.in)}
}

// SqrtOp records c = sqrt(a).
type SqrtOp struct {
	in, out *tensor.RawTensor
}

// NewSqrtOp creates a square root operation.
func NewSqrtOp(in, out *tensor.RawTensor) *SqrtOp {
	return &SqrtOp{in: in, out: out}
}

// Inputs returns the input tensor.
func (op *SqrtOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.in} }

// Output returns the result tensor.
func (op *SqrtOp) Output() *tensor.RawTensor { return op.out }

// Backward: d/dx sqrt(x) = 1 / (2*sqrt(x)), using the saved output.
func (op *SqrtOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.MulScalar(backend.Div(outputGrad, op.out), 0.5)}
}
