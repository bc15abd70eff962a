package ops

import "github.com/quill-ml/quill/internal/tensor"

// MatMulOp records c = a @ b for 2D operands.
type MatMulOp struct {
	a, b, out *tensor.RawTensor
}

// NewMatMulOp creates a matrix multiplication operation.
func NewMatMulOp(a, b, out *tensor.RawTensor) *MatMulOp {
	return &MatMulOp{a: a, b: b, out: out}
}

// Inputs returns the operand tensors.
func (op *MatMulOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.a, op.b} }

// Output returns the result tensor.
func (op *MatMulOp) Output() *tensor.RawTensor { return op.out }

// Backward:
//
//	grad_a = grad @ b^T
//	grad_b = a^T @ grad
func (op *MatMulOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	gradA := backend.MatMul(outputGrad, backend.Transpose(op.b))
	gradB := backend.MatMul(backend.Transpose(op.a), outputGrad)
	return []*tensor.RawTensor{gradA, gradB}
}
