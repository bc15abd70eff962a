// Package ops defines the differentiable operations recorded on the
// gradient tape, each pairing a forward result with its backward rule.
package ops

import "github.com/quill-ml/quill/internal/tensor"

// Operation is one recorded step of the forward pass.
//
// Backward receives the gradient flowing into the operation's output and
// returns one gradient per input, in the same order as Inputs. Entries
// may be nil for inputs that are not differentiated (e.g. class index
// targets).
type Operation interface {
	Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor
	Inputs() []*tensor.RawTensor
	Output() *tensor.RawTensor
}
