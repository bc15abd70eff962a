package cpu

import (
	"fmt"
	"math"

	"github.com/quill-ml/quill/internal/tensor"
)

// Exp computes elementwise exp(x).
func (cpu *Backend) Exp(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryFloat("exp", x, math.Exp)
}

// Log computes the elementwise natural logarithm.
// Non-positive inputs produce -Inf/NaN per IEEE semantics.
func (cpu *Backend) Log(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryFloat("log", x, math.Log)
}

// Sqrt computes the elementwise square root.
func (cpu *Backend) Sqrt(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryFloat("sqrt", x, math.Sqrt)
}

func (cpu *Backend) unaryFloat(name string, x *tensor.RawTensor, op func(float64) float64) *tensor.RawTensor {
	result, err := tensor.NewRaw(x.Shape(), x.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("%s: %v", name, err))
	}

	switch x.DType() {
	case tensor.Float32:
		src := x.AsFloat32()
		dst := result.AsFloat32()
		for i, v := range src {
			dst[i] = float32(op(float64(v)))
		}
	case tensor.Float64:
		src := x.AsFloat64()
		dst := result.AsFloat64()
		for i, v := range src {
			dst[i] = op(v)
		}
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s (only float32/float64)", name, x.DType()))
	}

	return result
}

// Softmax normalizes along dim using the max-subtraction trick for
// numerical stability.
func (cpu *Backend) Softmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	if dim < 0 || dim >= len(shape) {
		panic(fmt.Sprintf("softmax: invalid dim %d for shape %v", dim, shape))
	}

	result, err := tensor.NewRaw(shape, x.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("softmax: %v", err))
	}

	switch x.DType() {
	case tensor.Float32:
		softmaxLines(x.AsFloat32(), result.AsFloat32(), shape, dim)
	case tensor.Float64:
		softmaxLines(x.AsFloat64(), result.AsFloat64(), shape, dim)
	default:
		panic(fmt.Sprintf("softmax: unsupported dtype %s", x.DType()))
	}

	return result
}

func softmaxLines[T ~float32 | ~float64](src, dst []T, shape tensor.Shape, dim int) {
	eachLine(shape, dim, func(base, stride, n int) {
		maxVal := src[base]
		for i := 1; i < n; i++ {
			if v := src[base+i*stride]; v > maxVal {
				maxVal = v
			}
		}

		var sum T
		for i := 0; i < n; i++ {
			e := T(math.Exp(float64(src[base+i*stride] - maxVal)))
			dst[base+i*stride] = e
			sum += e
		}
		for i := 0; i < n; i++ {
			dst[base+i*stride] /= sum
		}
	})
}
