package optim

import (
	"fmt"

	"github.com/quill-ml/quill/internal/tensor"
)

// SGDConfig configures stochastic gradient descent. Zero values mean
// plain SGD without momentum or weight decay.
type SGDConfig struct {
	LR          float64
	Momentum    float64
	WeightDecay float64
}

// SGD is stochastic gradient descent with optional momentum and L2
// weight decay:
//
//	v = momentum*v + grad + weightDecay*param
//	param -= lr * v
type SGD struct {
	params []*tensor.RawTensor
	cfg    SGDConfig

	// velocity[i] matches params[i]; allocated on first use.
	velocity []*tensor.RawTensor
}

// NewSGD creates an SGD optimizer over the given parameters.
func NewSGD(params []*tensor.RawTensor, cfg SGDConfig) *SGD {
	return &SGD{
		params:   params,
		cfg:      cfg,
		velocity: make([]*tensor.RawTensor, len(params)),
	}
}

// Step applies one SGD update.
func (s *SGD) Step(grads map[*tensor.RawTensor]*tensor.RawTensor) error {
	for i, p := range s.params {
		g := grads[p]
		if g == nil {
			continue
		}

		update := g
		if s.cfg.WeightDecay > 0 || s.cfg.Momentum > 0 {
			var err error
			update, err = s.effectiveGrad(i, p, g)
			if err != nil {
				return err
			}
		}
		if err := axpy(p, update, s.cfg.LR); err != nil {
			return err
		}
	}
	return nil
}

// effectiveGrad folds weight decay into the gradient and advances the
// velocity buffer when momentum is enabled.
func (s *SGD) effectiveGrad(i int, p, g *tensor.RawTensor) (*tensor.RawTensor, error) {
	if !p.Shape().Equal(g.Shape()) {
		return nil, fmt.Errorf("gradient shape %v does not match parameter shape %v", g.Shape(), p.Shape())
	}

	if s.cfg.Momentum > 0 && s.velocity[i] == nil {
		v, err := zerosLike(p)
		if err != nil {
			return nil, err
		}
		s.velocity[i] = v
	}

	switch p.DType() {
	case tensor.Float32:
		pd, gd := p.AsFloat32(), g.AsFloat32()
		wd, mom := float32(s.cfg.WeightDecay), float32(s.cfg.Momentum)

		if s.cfg.Momentum > 0 {
			vd := s.velocity[i].AsFloat32()
			for j := range vd {
				vd[j] = mom*vd[j] + gd[j] + wd*pd[j]
			}
			return s.velocity[i], nil
		}

		out, err := zerosLike(p)
		if err != nil {
			return nil, err
		}
		od := out.AsFloat32()
		for j := range od {
			od[j] = gd[j] + wd*pd[j]
		}
		return out, nil

	case tensor.Float64:
		pd, gd := p.AsFloat64(), g.AsFloat64()

		if s.cfg.Momentum > 0 {
			vd := s.velocity[i].AsFloat64()
			for j := range vd {
				vd[j] = s.cfg.Momentum*vd[j] + gd[j] + s.cfg.WeightDecay*pd[j]
			}
			return s.velocity[i], nil
		}

		out, err := zerosLike(p)
		if err != nil {
			return nil, err
		}
		od := out.AsFloat64()
		for j := range od {
			od[j] = gd[j] + s.cfg.WeightDecay*pd[j]
		}
		return out, nil
	}
	return nil, fmt.Errorf("cannot optimize %s parameters", p.DType())
}

// GetLR returns the learning rate.
func (s *SGD) GetLR() float64 { return s.cfg.LR }

// SetLR changes the learning rate.
func (s *SGD) SetLR(lr float64) { s.cfg.LR = lr }

// StateDict returns the velocity buffers under "velocity.<i>" keys.
// Plain SGD has no state and returns an empty map.
func (s *SGD) StateDict() map[string]*tensor.RawTensor {
	state := make(map[string]*tensor.RawTensor)
	for i, v := range s.velocity {
		if v != nil {
			state[fmt.Sprintf("velocity.%d", i)] = v
		}
	}
	return state
}

// LoadStateDict restores velocity buffers saved by StateDict.
func (s *SGD) LoadStateDict(state map[string]*tensor.RawTensor) error {
	for i, p := range s.params {
		key := fmt.Sprintf("velocity.%d", i)
		src, ok := state[key]
		if !ok {
			continue
		}
		if s.velocity[i] == nil {
			v, err := zerosLike(p)
			if err != nil {
				return err
			}
			s.velocity[i] = v
		}
		if err := copyState(key, s.velocity[i], src); err != nil {
			return err
		}
	}
	return nil
}
