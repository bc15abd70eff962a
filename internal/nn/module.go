// Package nn provides neural network building blocks: layers,
// activations, containers and loss functions, composable into models
// that train against any compute backend.
package nn

import (
	"fmt"

	"github.com/quill-ml/quill/internal/tensor"
)

// Module is a composable piece of a neural network. Implementations
// hold their own parameters and expose them both as a flat list for
// optimizers and as a named state dict for checkpointing.
type Module[B tensor.Backend] interface {
	// Forward computes the module's output for a batch of inputs.
	Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]

	// Parameters returns all trainable parameters, leaves first.
	Parameters() []*Parameter[B]

	// StateDict returns the module's parameters keyed by name.
	StateDict() map[string]*tensor.RawTensor

	// LoadStateDict copies stored values into the module's existing
	// parameters, preserving their identity.
	LoadStateDict(state map[string]*tensor.RawTensor) error
}

// Parameter is a trainable tensor with the name it carries in state
// dicts.
type Parameter[B tensor.Backend] struct {
	Name  string
	Value *tensor.Tensor[float32, B]
}

// Raw returns the parameter's underlying storage, the identity
// optimizers and gradient maps are keyed on.
func (p *Parameter[B]) Raw() *tensor.RawTensor { return p.Value.Raw() }

// RawParameters returns a module's parameter storage in declaration
// order, the form optimizers consume.
func RawParameters[B tensor.Backend](m Module[B]) []*tensor.RawTensor {
	params := m.Parameters()
	raws := make([]*tensor.RawTensor, len(params))
	for i, p := range params {
		raws[i] = p.Raw()
	}
	return raws
}

// copyInto overwrites dst's elements with src's after checking that the
// two agree on shape and dtype.
func copyInto(name string, dst, src *tensor.RawTensor) error {
	if !dst.Shape().Equal(src.Shape()) {
		return fmt.Errorf("parameter %q: shape mismatch, have %v, checkpoint has %v", name, dst.Shape(), src.Shape())
	}
	if dst.DType() != src.DType() {
		return fmt.Errorf("parameter %q: dtype mismatch, have %s, checkpoint has %s", name, dst.DType(), src.DType())
	}
	copy(dst.Data(), src.Data())
	return nil
}
