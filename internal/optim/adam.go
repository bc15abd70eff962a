package optim

import (
	"fmt"
	"math"

	"github.com/quill-ml/quill/internal/tensor"
)

// AdamConfig configures the Adam optimizer. Zero-valued fields take
// the usual defaults: lr 0.001, beta1 0.9, beta2 0.999, eps 1e-8.
type AdamConfig struct {
	LR          float64
	Beta1       float64
	Beta2       float64
	Eps         float64
	WeightDecay float64
}

func (c AdamConfig) withDefaults() AdamConfig {
	if c.LR == 0 {
		c.LR = 0.001
	}
	if c.Beta1 == 0 {
		c.Beta1 = 0.9
	}
	if c.Beta2 == 0 {
		c.Beta2 = 0.999
	}
	if c.Eps == 0 {
		c.Eps = 1e-8
	}
	return c
}

// Adam maintains per-parameter first and second moment estimates with
// bias correction:
//
//	m = beta1*m + (1-beta1)*g
//	v = beta2*v + (1-beta2)*g^2
//	param -= lr * mHat / (sqrt(vHat) + eps)
type Adam struct {
	params []*tensor.RawTensor
	cfg    AdamConfig

	m, v []*tensor.RawTensor
	step int64
}

// NewAdam creates an Adam optimizer over the given parameters.
func NewAdam(params []*tensor.RawTensor, cfg AdamConfig) *Adam {
	return &Adam{
		params: params,
		cfg:    cfg.withDefaults(),
		m:      make([]*tensor.RawTensor, len(params)),
		v:      make([]*tensor.RawTensor, len(params)),
	}
}

// Step applies one Adam update.
func (a *Adam) Step(grads map[*tensor.RawTensor]*tensor.RawTensor) error {
	a.step++
	correction1 := 1 - math.Pow(a.cfg.Beta1, float64(a.step))
	correction2 := 1 - math.Pow(a.cfg.Beta2, float64(a.step))

	for i, p := range a.params {
		g := grads[p]
		if g == nil {
			continue
		}
		if !p.Shape().Equal(g.Shape()) {
			return fmt.Errorf("gradient shape %v does not match parameter shape %v", g.Shape(), p.Shape())
		}

		if a.m[i] == nil {
			m, err := zerosLike(p)
			if err != nil {
				return err
			}
			v, err := zerosLike(p)
			if err != nil {
				return err
			}
			a.m[i], a.v[i] = m, v
		}

		switch p.DType() {
		case tensor.Float32:
			a.updateFloat32(p, g, a.m[i], a.v[i], correction1, correction2)
		case tensor.Float64:
			a.updateFloat64(p, g, a.m[i], a.v[i], correction1, correction2)
		default:
			return fmt.Errorf("cannot optimize %s parameters", p.DType())
		}
	}
	return nil
}

func (a *Adam) updateFloat32(p, g, m, v *tensor.RawTensor, c1, c2 float64) {
	pd, gd := p.AsFloat32(), g.AsFloat32()
	md, vd := m.AsFloat32(), v.AsFloat32()
	b1, b2 := float32(a.cfg.Beta1), float32(a.cfg.Beta2)
	wd := float32(a.cfg.WeightDecay)

	for j := range pd {
		grad := gd[j] + wd*pd[j]
		md[j] = b1*md[j] + (1-b1)*grad
		vd[j] = b2*vd[j] + (1-b2)*grad*grad

		mHat := float64(md[j]) / c1
		vHat := float64(vd[j]) / c2
		pd[j] -= float32(a.cfg.LR * mHat / (math.Sqrt(vHat) + a.cfg.Eps))
	}
}

func (a *Adam) updateFloat64(p, g, m, v *tensor.RawTensor, c1, c2 float64) {
	pd, gd := p.AsFloat64(), g.AsFloat64()
	md, vd := m.AsFloat64(), v.AsFloat64()

	for j := range pd {
		grad := gd[j] + a.cfg.WeightDecay*pd[j]
		md[j] = a.cfg.Beta1*md[j] + (1-a.cfg.Beta1)*grad
		vd[j] = a.cfg.Beta2*vd[j] + (1-a.cfg.Beta2)*grad*grad

		mHat := md[j] / c1
		vHat := vd[j] / c2
		pd[j] -= a.cfg.LR * mHat / (math.Sqrt(vHat) + a.cfg.Eps)
	}
}

// GetLR returns the learning rate.
func (a *Adam) GetLR() float64 { return a.cfg.LR }

// SetLR changes the learning rate.
func (a *Adam) SetLR(lr float64) { a.cfg.LR = lr }

// StateDict returns moment buffers under "m.<i>" and "v.<i>" plus the
// update count under "step".
func (a *Adam) StateDict() map[string]*tensor.RawTensor {
	state := make(map[string]*tensor.RawTensor)
	for i := range a.params {
		if a.m[i] != nil {
			state[fmt.Sprintf("m.%d", i)] = a.m[i]
			state[fmt.Sprintf("v.%d", i)] = a.v[i]
		}
	}

	step, err := tensor.NewRaw(tensor.Shape{1}, tensor.Int64, tensor.CPU)
	if err == nil {
		step.AsInt64()[0] = a.step
		state["step"] = step
	}
	return state
}

// LoadStateDict restores moment buffers and the step count.
func (a *Adam) LoadStateDict(state map[string]*tensor.RawTensor) error {
	if step, ok := state["step"]; ok && step.DType() == tensor.Int64 {
		a.step = step.AsInt64()[0]
	}

	for i, p := range a.params {
		mKey, vKey := fmt.Sprintf("m.%d", i), fmt.Sprintf("v.%d", i)
		mSrc, mOK := state[mKey]
		vSrc, vOK := state[vKey]
		if !mOK || !vOK {
			continue
		}

		if a.m[i] == nil {
			m, err := zerosLike(p)
			if err != nil {
				return err
			}
			v, err := zerosLike(p)
			if err != nil {
				return err
			}
			a.m[i], a.v[i] = m, v
		}
		if err := copyState(mKey, a.m[i], mSrc); err != nil {
			return err
		}
		if err := copyState(vKey, a.v[i], vSrc); err != nil {
			return err
		}
	}
	return nil
}
