package ops

import "github.com/quill-ml/quill/internal/tensor"

// ReshapeOp records a shape change. Without it, gradients computed for
// the reshaped view would never reach the original parameter.
type ReshapeOp struct {
	in, out *tensor.RawTensor
}

// NewReshapeOp creates a reshape operation.
func NewReshapeOp(in, out *tensor.RawTensor) *ReshapeOp {
	return &ReshapeOp{in: in, out: out}
}

// Inputs returns the input tensor.
func (op *ReshapeOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.in} }

// Output returns the reshaped tensor.
func (op *ReshapeOp) Output() *tensor.RawTensor { return op.out }

// Backward reshapes the gradient back to the input's shape.
func (op *ReshapeOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Reshape(outputGrad, op.in.Shape())}
}

// TransposeOp records a dimension permutation.
type TransposeOp struct {
	in, out *tensor.RawTensor
	axes    []int
}

// NewTransposeOp creates a transpose operation. axes must be the
// explicit permutation applied in the forward pass.
func NewTransposeOp(in, out *tensor.RawTensor, axes []int) *TransposeOp {
	return &TransposeOp{in: in, out: out, axes: axes}
}

// Inputs returns the input tensor.
func (op *TransposeOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.in} }

// Output returns the transposed tensor.
func (op *TransposeOp) Output() *tensor.RawTensor { return op.out }

// Backward applies the inverse permutation to the gradient.
func (op *TransposeOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	inverse := make([]int, len(op.axes))
	for i, ax := range op.axes {
		inverse[ax] = i
	}
	return []*tensor.RawTensor{backend.Transpose(outputGrad, inverse...)}
}
