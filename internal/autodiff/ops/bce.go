package ops

import (
	"fmt"
	"math"

	"github.com/quill-ml/quill/internal/tensor"
)

// BCEWithLogitsOp records the numerically stable binary cross-entropy
// loss computed directly from logits.
type BCEWithLogitsOp struct {
	logits  *tensor.RawTensor
	targets *tensor.RawTensor // same shape as logits, values in [0, 1]
	out     *tensor.RawTensor // [1] mean loss
}

// NewBCEWithLogitsOp creates a binary cross-entropy loss operation.
func NewBCEWithLogitsOp(logits, targets, out *tensor.RawTensor) *BCEWithLogitsOp {
	return &BCEWithLogitsOp{logits: logits, targets: targets, out: out}
}

// Inputs returns logits and targets.
func (op *BCEWithLogitsOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.logits, op.targets}
}

// Output returns the scalar loss.
func (op *BCEWithLogitsOp) Output() *tensor.RawTensor { return op.out }

// Backward:
//
//	grad_logits = (sigmoid(logits) - targets) / n
//
// The targets carry no gradient.
func (op *BCEWithLogitsOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	grad := zerosLike(op.logits)
	scale := scalarValue(outputGrad) / float64(op.logits.NumElements())

	switch op.logits.DType() {
	case tensor.Float32:
		z, y, data := op.logits.AsFloat32(), op.targets.AsFloat32(), grad.AsFloat32()
		for i := range z {
			sig := 1 / (1 + math.Exp(-float64(z[i])))
			data[i] = float32((sig - float64(y[i])) * scale)
		}
	case tensor.Float64:
		z, y, data := op.logits.AsFloat64(), op.targets.AsFloat64(), grad.AsFloat64()
		for i := range z {
			sig := 1 / (1 + math.Exp(-z[i]))
			data[i] = (sig - y[i]) * scale
		}
	default:
		panic(fmt.Sprintf("bce backward: unsupported dtype %s", op.logits.DType()))
	}

	return []*tensor.RawTensor{grad, nil}
}
