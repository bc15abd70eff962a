package autodiff

import (
	"fmt"

	"github.com/quill-ml/quill/internal/autodiff/ops"
	"github.com/quill-ml/quill/internal/tensor"
)

// Optional backend capabilities. The decorator forwards these when the
// inner backend implements them and records the fused backward rule, so
// layers asserting for a capability find it on the wrapped backend too.

type reluBackend interface {
	ReLU(*tensor.RawTensor) *tensor.RawTensor
}

type sigmoidBackend interface {
	Sigmoid(*tensor.RawTensor) *tensor.RawTensor
}

type tanhBackend interface {
	Tanh(*tensor.RawTensor) *tensor.RawTensor
}

type crossEntropyBackend interface {
	CrossEntropy(logits, targets *tensor.RawTensor) *tensor.RawTensor
}

type bceWithLogitsBackend interface {
	BCEWithLogits(logits, targets *tensor.RawTensor) *tensor.RawTensor
}

func capability[C any](inner any, name string) C {
	c, ok := inner.(C)
	if !ok {
		panic(fmt.Sprintf("backend %T does not implement %s", inner, name))
	}
	return c
}

// ReLU computes max(t, 0) element-wise.
func (b *Backend[B]) ReLU(t *tensor.RawTensor) *tensor.RawTensor {
	inner := capability[reluBackend](any(b.inner), "ReLU")
	if !b.tape.IsRecording() {
		return inner.ReLU(t)
	}
	b.pin(t)
	out := inner.ReLU(t)
	b.pin(out)
	b.tape.Record(ops.NewReLUOp(t, out))
	return out
}

// Sigmoid computes 1/(1+e^-t) element-wise.
func (b *Backend[B]) Sigmoid(t *tensor.RawTensor) *tensor.RawTensor {
	inner := capability[sigmoidBackend](any(b.inner), "Sigmoid")
	if !b.tape.IsRecording() {
		return inner.Sigmoid(t)
	}
	b.pin(t)
	out := inner.Sigmoid(t)
	b.pin(out)
	b.tape.Record(ops.NewSigmoidOp(t, out))
	return out
}

// Tanh computes the hyperbolic tangent element-wise.
func (b *Backend[B]) Tanh(t *tensor.RawTensor) *tensor.RawTensor {
	inner := capability[tanhBackend](any(b.inner), "Tanh")
	if !b.tape.IsRecording() {
		return inner.Tanh(t)
	}
	b.pin(t)
	out := inner.Tanh(t)
	b.pin(out)
	b.tape.Record(ops.NewTanhOp(t, out))
	return out
}

// CrossEntropy computes the mean softmax cross-entropy loss of logits
// [batch, classes] against int32 class indices [batch].
func (b *Backend[B]) CrossEntropy(logits, targets *tensor.RawTensor) *tensor.RawTensor {
	inner := capability[crossEntropyBackend](any(b.inner), "CrossEntropy")
	if !b.tape.IsRecording() {
		return inner.CrossEntropy(logits, targets)
	}
	b.pin(logits, targets)
	out := inner.CrossEntropy(logits, targets)
	b.pin(out)
	b.tape.Record(ops.NewCrossEntropyOp(logits, targets, out))
	return out
}

// BCEWithLogits computes the mean binary cross-entropy loss directly
// from logits. Targets must match the logits' shape.
func (b *Backend[B]) BCEWithLogits(logits, targets *tensor.RawTensor) *tensor.RawTensor {
	inner := capability[bceWithLogitsBackend](any(b.inner), "BCEWithLogits")
	if !b.tape.IsRecording() {
		return inner.BCEWithLogits(logits, targets)
	}
	b.pin(logits, targets)
	out := inner.BCEWithLogits(logits, targets)
	b.pin(out)
	b.tape.Record(ops.NewBCEWithLogitsOp(logits, targets, out))
	return out
}
