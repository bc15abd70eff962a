package nn

import (
	"fmt"

	"github.com/quill-ml/quill/internal/tensor"
)

// Linear applies the affine transform y = x @ W^T + b.
//
// The weight is stored [outFeatures, inFeatures] so a row holds all
// incoming weights of one output unit.
type Linear[B tensor.Backend] struct {
	weight *tensor.Tensor[float32, B]
	bias   *tensor.Tensor[float32, B] // nil when constructed without bias
}

// NewLinear creates a fully connected layer with Xavier-initialized
// weights and a zero bias.
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, backend B) (*Linear[B], error) {
	weightRaw, err := tensor.NewRaw(tensor.Shape{outFeatures, inFeatures}, tensor.Float32, backend.Device())
	if err != nil {
		return nil, fmt.Errorf("allocating weight: %w", err)
	}
	xavierUniform(weightRaw, inFeatures, outFeatures)

	biasRaw, err := tensor.NewRaw(tensor.Shape{outFeatures}, tensor.Float32, backend.Device())
	if err != nil {
		return nil, fmt.Errorf("allocating bias: %w", err)
	}

	return &Linear[B]{
		weight: tensor.New[float32](weightRaw, backend).RequireGrad(),
		bias:   tensor.New[float32](biasRaw, backend).RequireGrad(),
	}, nil
}

// NewLinearNoBias creates a fully connected layer without a bias term.
func NewLinearNoBias[B tensor.Backend](inFeatures, outFeatures int, backend B) (*Linear[B], error) {
	l, err := NewLinear(inFeatures, outFeatures, backend)
	if err != nil {
		return nil, err
	}
	l.bias = nil
	return l, nil
}

// Weight returns the [outFeatures, inFeatures] weight tensor.
func (l *Linear[B]) Weight() *tensor.Tensor[float32, B] { return l.weight }

// Bias returns the bias tensor, or nil for a bias-free layer.
func (l *Linear[B]) Bias() *tensor.Tensor[float32, B] { return l.bias }

// Forward computes x @ W^T + b for a [batch, inFeatures] input.
func (l *Linear[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	backend := x.Backend()
	out := backend.MatMul(x.Raw(), backend.Transpose(l.weight.Raw()))
	if l.bias != nil {
		out = backend.Add(out, l.bias.Raw())
	}
	return tensor.New[float32](out, backend)
}

// Parameters returns the weight and, if present, the bias.
func (l *Linear[B]) Parameters() []*Parameter[B] {
	params := []*Parameter[B]{{Name: "weight", Value: l.weight}}
	if l.bias != nil {
		params = append(params, &Parameter[B]{Name: "bias", Value: l.bias})
	}
	return params
}

// StateDict returns the layer's tensors under "weight" and "bias".
func (l *Linear[B]) StateDict() map[string]*tensor.RawTensor {
	state := map[string]*tensor.RawTensor{"weight": l.weight.Raw()}
	if l.bias != nil {
		state["bias"] = l.bias.Raw()
	}
	return state
}

// LoadStateDict copies stored values into the layer's parameters.
func (l *Linear[B]) LoadStateDict(state map[string]*tensor.RawTensor) error {
	weight, ok := state["weight"]
	if !ok {
		return fmt.Errorf("state dict is missing %q", "weight")
	}
	if err := copyInto("weight", l.weight.Raw(), weight); err != nil {
		return err
	}

	if l.bias != nil {
		bias, ok := state["bias"]
		if !ok {
			return fmt.Errorf("state dict is missing %q", "bias")
		}
		return copyInto("bias", l.bias.Raw(), bias)
	}
	return nil
}
