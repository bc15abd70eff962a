// Package optim implements gradient descent optimizers. An optimizer
// owns a fixed list of parameter tensors and updates them in place from
// a gradient map produced by the autodiff layer.
package optim

import (
	"fmt"

	"github.com/quill-ml/quill/internal/tensor"
)

// Optimizer updates parameters from gradients. Implementations with
// internal state (momentum, moment estimates) expose it through the
// state dict methods so training can resume from a checkpoint.
type Optimizer interface {
	// Step applies one update. Parameters without an entry in grads
	// are left untouched.
	Step(grads map[*tensor.RawTensor]*tensor.RawTensor) error

	// GetLR returns the current learning rate.
	GetLR() float64

	// SetLR changes the learning rate, e.g. for a schedule.
	SetLR(lr float64)

	// StateDict returns the optimizer's internal state keyed by name.
	StateDict() map[string]*tensor.RawTensor

	// LoadStateDict restores internal state saved by StateDict.
	LoadStateDict(state map[string]*tensor.RawTensor) error
}

// axpy computes p -= lr * g for matching float tensors.
func axpy(p, g *tensor.RawTensor, lr float64) error {
	if !p.Shape().Equal(g.Shape()) {
		return fmt.Errorf("gradient shape %v does not match parameter shape %v", g.Shape(), p.Shape())
	}

	switch p.DType() {
	case tensor.Float32:
		pd, gd := p.AsFloat32(), g.AsFloat32()
		f := float32(lr)
		for i := range pd {
			pd[i] -= f * gd[i]
		}
	case tensor.Float64:
		pd, gd := p.AsFloat64(), g.AsFloat64()
		for i := range pd {
			pd[i] -= lr * gd[i]
		}
	default:
		return fmt.Errorf("cannot optimize %s parameters", p.DType())
	}
	return nil
}

// zerosLike allocates a zero state buffer matching a parameter.
func zerosLike(p *tensor.RawTensor) (*tensor.RawTensor, error) {
	return tensor.NewRaw(p.Shape(), p.DType(), p.Device())
}

// copyState copies a restored buffer into live optimizer state.
func copyState(name string, dst, src *tensor.RawTensor) error {
	if !dst.Shape().Equal(src.Shape()) || dst.DType() != src.DType() {
		return fmt.Errorf("state %q does not match the current parameters", name)
	}
	copy(dst.Data(), src.Data())
	return nil
}
