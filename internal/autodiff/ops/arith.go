package ops

import "github.com/quill-ml/quill/internal/tensor"

// AddOp records c = a + b.
type AddOp struct {
	a, b, out *tensor.RawTensor
}

// NewAddOp creates an addition operation.
func NewAddOp(a, b, out *tensor.RawTensor) *AddOp {
	return &AddOp{a: a, b: b, out: out}
}

// Inputs returns the operand tensors.
func (op *AddOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.a, op.b} }

// Output returns the result tensor.
func (op *AddOp) Output() *tensor.RawTensor { return op.out }

// Backward passes the gradient through unchanged, reducing broadcasts.
func (op *AddOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{
		reduceBroadcast(outputGrad, op.a.Shape(), backend),
		reduceBroadcast(outputGrad, op.b.Shape(), backend),
	}
}

// SubOp records c = a - b.
type SubOp struct {
	a, b, out *tensor.RawTensor
}

// NewSubOp creates a subtraction operation.
func NewSubOp(a, b, out *tensor.RawTensor) *SubOp {
	return &SubOp{a: a, b: b, out: out}
}

// Inputs returns the operand tensors.
func (op *SubOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.a, op.b} }

// Output returns the result tensor.
func (op *SubOp) Output() *tensor.RawTensor { return op.out }

// Backward negates the gradient for the subtrahend.
func (op *SubOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	negated := backend.MulScalar(outputGrad, -1)
	return []*tensor.RawTensor{
		reduceBroadcast(outputGrad, op.a.Shape(), backend),
		reduceBroadcast(negated, op.b.Shape(), backend),
	}
}

// MulOp records c = a * b.
type MulOp struct {
	a, b, out *tensor.RawTensor
}

// NewMulOp creates a multiplication operation.
func NewMulOp(a, b, out *tensor.RawTensor) *MulOp {
	return &MulOp{a: a, b: b, out: out}
}

// Inputs returns the operand tensors.
func (op *MulOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.a, op.b} }

// Output returns the result tensor.
func (op *MulOp) Output() *tensor.RawTensor { return op.out }

// Backward applies the product rule.
func (op *MulOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{
		reduceBroadcast(backend.Mul(outputGrad, op.b), op.a.Shape(), backend),
		reduceBroadcast(backend.Mul(outputGrad, op.a), op.b.Shape(), backend),
	}
}

// DivOp records c = a / b.
type DivOp struct {
	a, b, out *tensor.RawTensor
}

// NewDivOp creates a division operation.
func NewDivOp(a, b, out *tensor.RawTensor) *DivOp {
	return &DivOp{a: a, b: b, out: out}
}

// Inputs returns the operand tensors.
func (op *DivOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.a, op.b} }

// Output returns the result tensor.
func (op *DivOp) Output() *tensor.RawTensor { return op.out }

// Backward applies the quotient rule:
// d/da = grad/b, d/db = -grad*a/b^2.
func (op *DivOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	gradA := backend.Div(outputGrad, op.b)

	bSquared := backend.Mul(op.b, op.b)
	gradB := backend.MulScalar(backend.Div(backend.Mul(outputGrad, op.a), bSquared), -1)

	return []*tensor.RawTensor{
		reduceBroadcast(gradA, op.a.Shape(), backend),
		reduceBroadcast(gradB, op.b.Shape(), backend),
	}
}
