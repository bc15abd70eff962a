package cpu

import (
	"fmt"
	"math"

	"github.com/quill-ml/quill/internal/tensor"
)

// AddScalar returns t + s elementwise.
func (cpu *Backend) AddScalar(t *tensor.RawTensor, s float64) *tensor.RawTensor {
	return cpu.scalarOp("add_scalar", t, s, func(x, y float64) float64 { return x + y })
}

// SubScalar returns t - s elementwise.
func (cpu *Backend) SubScalar(t *tensor.RawTensor, s float64) *tensor.RawTensor {
	return cpu.scalarOp("sub_scalar", t, s, func(x, y float64) float64 { return x - y })
}

// MulScalar returns t * s elementwise.
func (cpu *Backend) MulScalar(t *tensor.RawTensor, s float64) *tensor.RawTensor {
	return cpu.scalarOp("mul_scalar", t, s, func(x, y float64) float64 { return x * y })
}

// DivScalar returns t / s elementwise.
func (cpu *Backend) DivScalar(t *tensor.RawTensor, s float64) *tensor.RawTensor {
	return cpu.scalarOp("div_scalar", t, s, func(x, y float64) float64 { return x / y })
}

// Pow returns t^p elementwise.
func (cpu *Backend) Pow(t *tensor.RawTensor, p float64) *tensor.RawTensor {
	return cpu.scalarOp("pow", t, p, math.Pow)
}

func (cpu *Backend) scalarOp(name string, t *tensor.RawTensor, s float64, op func(float64, float64) float64) *tensor.RawTensor {
	result, err := tensor.NewRaw(t.Shape(), t.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("%s: %v", name, err))
	}

	switch t.DType() {
	case tensor.Float32:
		src := t.AsFloat32()
		dst := result.AsFloat32()
		for i, v := range src {
			dst[i] = float32(op(float64(v), s))
		}
	case tensor.Float64:
		src := t.AsFloat64()
		dst := result.AsFloat64()
		for i, v := range src {
			dst[i] = op(v, s)
		}
	case tensor.Int32:
		src := t.AsInt32()
		dst := result.AsInt32()
		for i, v := range src {
			dst[i] = int32(op(float64(v), s))
		}
	case tensor.Int64:
		src := t.AsInt64()
		dst := result.AsInt64()
		for i, v := range src {
			dst[i] = int64(op(float64(v), s))
		}
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", name, t.DType()))
	}

	return result
}
