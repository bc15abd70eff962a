package autodiff

import (
	"fmt"

	"github.com/quill-ml/quill/internal/autodiff/ops"
	"github.com/quill-ml/quill/internal/tensor"
)

// gradientBackend is the non-generic surface Backward needs from an
// autodiff-aware backend.
type gradientBackend interface {
	Backward(root, seed *tensor.RawTensor) map[*tensor.RawTensor]*tensor.RawTensor
	ZeroGrad()
	Grad(*tensor.RawTensor) *tensor.RawTensor
}

// Backward runs a backward pass from t, seeding with ones. t must hold
// a single element (a loss value); for larger outputs use
// BackwardWithGrad with an explicit seed.
func Backward[T tensor.DType, B tensor.Backend](t *tensor.Tensor[T, B]) error {
	if t.NumElements() != 1 {
		return fmt.Errorf("backward from a %v tensor requires an explicit output gradient", t.Shape())
	}
	ad, ok := any(t.Backend()).(gradientBackend)
	if !ok {
		return fmt.Errorf("backend %T does not track gradients", t.Backend())
	}
	ad.Backward(t.Raw(), ops.OnesLike(t.Raw()))
	return nil
}

// BackwardWithGrad runs a backward pass from t with an explicit seed
// gradient of the same shape, computing the vector-Jacobian product.
func BackwardWithGrad[T tensor.DType, B tensor.Backend](t, seed *tensor.Tensor[T, B]) error {
	if !t.Shape().Equal(seed.Shape()) {
		return fmt.Errorf("output gradient shape %v does not match output shape %v", seed.Shape(), t.Shape())
	}
	ad, ok := any(t.Backend()).(gradientBackend)
	if !ok {
		return fmt.Errorf("backend %T does not track gradients", t.Backend())
	}
	ad.Backward(t.Raw(), seed.Raw())
	return nil
}

// Grad returns the accumulated gradient of t as a typed tensor, or nil
// if no gradient has been computed for it.
func Grad[T tensor.DType, B tensor.Backend](t *tensor.Tensor[T, B]) *tensor.Tensor[T, B] {
	ad, ok := any(t.Backend()).(gradientBackend)
	if !ok {
		return nil
	}
	raw := ad.Grad(t.Raw())
	if raw == nil {
		return nil
	}
	return tensor.New[T](raw, t.Backend())
}

// NoGrad runs fn with recording paused, restoring the previous state
// afterwards. Use it for evaluation and any bookkeeping math that
// should stay off the tape.
func NoGrad[B tensor.Backend](b *Backend[B], fn func()) {
	wasRecording := b.tape.IsRecording()
	b.tape.StopRecording()
	defer func() {
		if wasRecording {
			b.tape.StartRecording()
		}
	}()
	fn()
}
