package nn

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/quill-ml/quill/internal/tensor"
)

// Sequential chains modules, feeding each one's output to the next.
// State dict keys are prefixed with the module's position, so a linear
// layer at index 1 stores "1.weight" and "1.bias".
type Sequential[B tensor.Backend] struct {
	modules []Module[B]
}

// NewSequential creates a container running the given modules in order.
func NewSequential[B tensor.Backend](modules ...Module[B]) *Sequential[B] {
	return &Sequential[B]{modules: modules}
}

// Forward runs the input through every module in order.
func (s *Sequential[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	out := x
	for _, m := range s.modules {
		out = m.Forward(out)
	}
	return out
}

// Modules returns the contained modules in execution order.
func (s *Sequential[B]) Modules() []Module[B] { return s.modules }

// Parameters returns the parameters of all contained modules, with
// names prefixed by module index.
func (s *Sequential[B]) Parameters() []*Parameter[B] {
	var params []*Parameter[B]
	for i, m := range s.modules {
		for _, p := range m.Parameters() {
			params = append(params, &Parameter[B]{
				Name:  fmt.Sprintf("%d.%s", i, p.Name),
				Value: p.Value,
			})
		}
	}
	return params
}

// StateDict returns all contained parameters under index-prefixed keys.
func (s *Sequential[B]) StateDict() map[string]*tensor.RawTensor {
	state := make(map[string]*tensor.RawTensor)
	for i, m := range s.modules {
		for name, t := range m.StateDict() {
			state[fmt.Sprintf("%d.%s", i, name)] = t
		}
	}
	return state
}

// LoadStateDict routes index-prefixed entries to the matching module.
func (s *Sequential[B]) LoadStateDict(state map[string]*tensor.RawTensor) error {
	perModule := make(map[int]map[string]*tensor.RawTensor)
	for key, t := range state {
		idx, rest, found := strings.Cut(key, ".")
		if !found {
			return fmt.Errorf("state dict key %q is missing a module index", key)
		}
		i, err := strconv.Atoi(idx)
		if err != nil || i < 0 || i >= len(s.modules) {
			return fmt.Errorf("state dict key %q does not address a module", key)
		}
		if perModule[i] == nil {
			perModule[i] = make(map[string]*tensor.RawTensor)
		}
		perModule[i][rest] = t
	}

	for i, m := range s.modules {
		sub := perModule[i]
		if len(sub) == 0 {
			// Stateless modules have nothing to load.
			if len(m.StateDict()) > 0 {
				return fmt.Errorf("state dict has no entries for module %d", i)
			}
			continue
		}
		if err := m.LoadStateDict(sub); err != nil {
			return fmt.Errorf("module %d: %w", i, err)
		}
	}
	return nil
}
