package ops

import "github.com/quill-ml/quill/internal/tensor"

// SoftmaxOp records c = softmax(a) along dim.
type SoftmaxOp struct {
	in, out *tensor.RawTensor
	dim     int
}

// NewSoftmaxOp creates a softmax operation.
func NewSoftmaxOp(in, out *tensor.RawTensor, dim int) *SoftmaxOp {
	return &SoftmaxOp{in: in, out: out, dim: dim}
}

// Inputs returns the input tensor.
func (op *SoftmaxOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.in} }

// Output returns the softmax output.
func (op *SoftmaxOp) Output() *tensor.RawTensor { return op.out }

// Backward uses the Jacobian-vector product
//
//	grad_x = y * (grad - sum(grad * y, dim))
//
// where the sum runs along the softmax dimension.
func (op *SoftmaxOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	dot := backend.SumDim(backend.Mul(outputGrad, op.out), op.dim, true)
	return []*tensor.RawTensor{backend.Mul(op.out, backend.Sub(outputGrad, dot))}
}
