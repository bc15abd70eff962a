package nn

import (
	"math"

	"github.com/quill-ml/quill/internal/tensor"
)

// MSELoss computes the mean squared error between predictions and
// targets of the same shape.
type MSELoss[B tensor.Backend] struct{}

// NewMSELoss creates a mean squared error criterion.
func NewMSELoss[B tensor.Backend]() *MSELoss[B] { return &MSELoss[B]{} }

// Forward returns mean((pred - target)^2) as a single-element tensor.
func (l *MSELoss[B]) Forward(pred, target *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	backend := pred.Backend()
	diff := backend.Sub(pred.Raw(), target.Raw())
	return tensor.New[float32](backend.Mean(backend.Mul(diff, diff)), backend)
}

type bceCapable interface {
	BCEWithLogits(logits, targets *tensor.RawTensor) *tensor.RawTensor
}

// BCEWithLogitsLoss computes binary cross-entropy directly from
// logits, which is numerically stabler than sigmoid followed by a
// plain BCE.
type BCEWithLogitsLoss[B tensor.Backend] struct{}

// NewBCEWithLogitsLoss creates a binary cross-entropy criterion.
func NewBCEWithLogitsLoss[B tensor.Backend]() *BCEWithLogitsLoss[B] { return &BCEWithLogitsLoss[B]{} }

// Forward returns the mean loss over all elements. Targets must match
// the logits' shape, with values in [0, 1].
func (l *BCEWithLogitsLoss[B]) Forward(logits, targets *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	backend := logits.Backend()
	if c, ok := any(backend).(bceCapable); ok {
		return tensor.New[float32](c.BCEWithLogits(logits.Raw(), targets.Raw()), backend)
	}
	return tensor.New[float32](bceWithLogitsDirect(logits.Raw(), targets.Raw()), backend)
}

// bceWithLogitsDirect evaluates max(z,0) - z*y + log(1 + e^-|z|)
// without any backend support. Forward value only.
func bceWithLogitsDirect(logits, targets *tensor.RawTensor) *tensor.RawTensor {
	z := logits.AsFloat32()
	y := targets.AsFloat32()

	var sum float64
	for i := range z {
		zi, yi := float64(z[i]), float64(y[i])
		sum += math.Max(zi, 0) - zi*yi + math.Log1p(math.Exp(-math.Abs(zi)))
	}

	out, err := tensor.NewRaw(tensor.Shape{1}, tensor.Float32, logits.Device())
	if err != nil {
		panic(err)
	}
	out.AsFloat32()[0] = float32(sum / float64(len(z)))
	return out
}
