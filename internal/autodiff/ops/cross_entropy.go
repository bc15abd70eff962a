package ops

import (
	"fmt"

	"github.com/quill-ml/quill/internal/tensor"
)

// CrossEntropyOp records the fused softmax + negative log likelihood
// loss over a batch of logits. Fusing the two keeps the backward pass a
// single subtraction instead of chaining softmax and log gradients.
type CrossEntropyOp struct {
	logits  *tensor.RawTensor // [batch, classes]
	targets *tensor.RawTensor // [batch] int32 class indices
	out     *tensor.RawTensor // [1] mean loss
}

// NewCrossEntropyOp creates a cross-entropy loss operation.
func NewCrossEntropyOp(logits, targets, out *tensor.RawTensor) *CrossEntropyOp {
	return &CrossEntropyOp{logits: logits, targets: targets, out: out}
}

// Inputs returns logits and targets.
func (op *CrossEntropyOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.logits, op.targets}
}

// Output returns the scalar loss.
func (op *CrossEntropyOp) Output() *tensor.RawTensor { return op.out }

// Backward:
//
//	grad_logits = (softmax(logits) - onehot(targets)) / batch
//
// The targets carry no gradient.
func (op *CrossEntropyOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	batch := op.logits.Shape()[0]
	grad := backend.Softmax(op.logits, 1)
	targets := op.targets.AsInt32()
	scale := scalarValue(outputGrad) / float64(batch)

	switch grad.DType() {
	case tensor.Float32:
		data := grad.AsFloat32()
		classes := op.logits.Shape()[1]
		for b, t := range targets {
			data[b*classes+int(t)] -= 1
		}
		f := float32(scale)
		for i := range data {
			data[i] *= f
		}
	case tensor.Float64:
		data := grad.AsFloat64()
		classes := op.logits.Shape()[1]
		for b, t := range targets {
			data[b*classes+int(t)] -= 1
		}
		for i := range data {
			data[i] *= scale
		}
	default:
		panic(fmt.Sprintf("cross-entropy backward: unsupported dtype %s", grad.DType()))
	}

	return []*tensor.RawTensor{grad, nil}
}
