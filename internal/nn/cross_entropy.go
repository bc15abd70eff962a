package nn

import (
	"math"

	"github.com/quill-ml/quill/internal/tensor"
)

type crossEntropyCapable interface {
	CrossEntropy(logits, targets *tensor.RawTensor) *tensor.RawTensor
}

// CrossEntropyLoss computes the mean softmax cross-entropy of logits
// [batch, classes] against int32 class indices [batch]. Softmax and
// negative log likelihood are fused, so raw logits go in directly.
type CrossEntropyLoss[B tensor.Backend] struct{}

// NewCrossEntropyLoss creates a classification criterion.
func NewCrossEntropyLoss[B tensor.Backend]() *CrossEntropyLoss[B] { return &CrossEntropyLoss[B]{} }

// Forward returns the mean loss as a single-element tensor. Backends
// with a fused kernel get full gradient support; elsewhere the loss is
// evaluated directly and carries no gradient.
func (l *CrossEntropyLoss[B]) Forward(logits *tensor.Tensor[float32, B], targets *tensor.Tensor[int32, B]) *tensor.Tensor[float32, B] {
	backend := logits.Backend()
	if c, ok := any(backend).(crossEntropyCapable); ok {
		return tensor.New[float32](c.CrossEntropy(logits.Raw(), targets.Raw()), backend)
	}
	return tensor.New[float32](crossEntropyDirect(logits.Raw(), targets.Raw()), backend)
}

// crossEntropyDirect evaluates mean(logsumexp(row) - row[target])
// without any backend support. Forward value only.
func crossEntropyDirect(logits, targets *tensor.RawTensor) *tensor.RawTensor {
	shape := logits.Shape()
	batch, classes := shape[0], shape[1]
	data := logits.AsFloat32()
	idx := targets.AsInt32()

	var sum float64
	for b := 0; b < batch; b++ {
		row := data[b*classes : (b+1)*classes]

		maxVal := float64(row[0])
		for _, v := range row[1:] {
			if float64(v) > maxVal {
				maxVal = float64(v)
			}
		}
		var expSum float64
		for _, v := range row {
			expSum += math.Exp(float64(v) - maxVal)
		}
		sum += maxVal + math.Log(expSum) - float64(row[idx[b]])
	}

	out, err := tensor.NewRaw(tensor.Shape{1}, tensor.Float32, logits.Device())
	if err != nil {
		panic(err)
	}
	out.AsFloat32()[0] = float32(sum / float64(batch))
	return out
}

// Accuracy returns the fraction of rows whose argmax matches the
// target class.
func Accuracy[B tensor.Backend](logits *tensor.Tensor[float32, B], targets *tensor.Tensor[int32, B]) float64 {
	backend := logits.Backend()
	pred := backend.Argmax(logits.Raw(), 1)

	predIdx := pred.AsInt32()
	wantIdx := targets.Raw().AsInt32()

	correct := 0
	for i := range predIdx {
		if predIdx[i] == wantIdx[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(predIdx))
}
