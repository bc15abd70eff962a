package ops

import (
	"fmt"

	"github.com/quill-ml/quill/internal/tensor"
)

// reduceBroadcast reduces a gradient to the target shape, undoing any
// broadcasting the forward pass performed.
//
//	Forward:  a[3,1] + b[3,4] -> c[3,4]
//	Backward: grad_c[3,4] -> grad_a[3,1]  (summed along dim 1)
func reduceBroadcast(grad *tensor.RawTensor, targetShape tensor.Shape, backend tensor.Backend) *tensor.RawTensor {
	gradShape := grad.Shape()

	// Clone when shapes already match so later in-place accumulation
	// cannot alias the shared gradient.
	if gradShape.Equal(targetShape) {
		return grad.Clone()
	}

	// Sum away leading dimensions the target does not have.
	result := grad
	for len(result.Shape()) > len(targetShape) {
		result = backend.SumDim(result, 0, false)
	}

	// Sum dimensions where the target is 1.
	for i := 0; i < len(targetShape); i++ {
		if targetShape[i] == 1 && result.Shape()[i] > 1 {
			result = backend.SumDim(result, i, true)
		}
	}

	if !result.Shape().Equal(targetShape) {
		result = backend.Reshape(result, targetShape)
	}
	return result
}

// zerosLike allocates a zero gradient matching t's shape and dtype.
func zerosLike(t *tensor.RawTensor) *tensor.RawTensor {
	out, err := tensor.NewRaw(t.Shape(), t.DType(), t.Device())
	if err != nil {
		panic(fmt.Sprintf("zerosLike: %v", err))
	}
	return out
}

// OnesLike allocates a ones tensor matching t's shape and dtype.
// Exported for use as the default backward seed.
func OnesLike(t *tensor.RawTensor) *tensor.RawTensor {
	out := zerosLike(t)
	switch t.DType() {
	case tensor.Float32:
		data := out.AsFloat32()
		for i := range data {
			data[i] = 1
		}
	case tensor.Float64:
		data := out.AsFloat64()
		for i := range data {
			data[i] = 1
		}
	default:
		panic(fmt.Sprintf("OnesLike: unsupported dtype %s", t.DType()))
	}
	return out
}

// fillScalar writes v into every element of a float tensor.
func fillScalar(t *tensor.RawTensor, v float64) {
	switch t.DType() {
	case tensor.Float32:
		data := t.AsFloat32()
		f := float32(v)
		for i := range data {
			data[i] = f
		}
	case tensor.Float64:
		data := t.AsFloat64()
		for i := range data {
			data[i] = v
		}
	default:
		panic(fmt.Sprintf("fillScalar: unsupported dtype %s", t.DType()))
	}
}

// scalarValue reads the single element of a reduction output.
func scalarValue(t *tensor.RawTensor) float64 {
	switch t.DType() {
	case tensor.Float32:
		return float64(t.AsFloat32()[0])
	case tensor.Float64:
		return t.AsFloat64()[0]
	default:
		panic(fmt.Sprintf("scalarValue: unsupported dtype %s", t.DType()))
	}
}

// eachLine visits every 1D line along dim in row-major output order.
func eachLine(shape tensor.Shape, dim int, fn func(base, stride, n int)) {
	n := shape[dim]

	outer := 1
	for i := 0; i < dim; i++ {
		outer *= shape[i]
	}
	inner := 1
	for i := dim + 1; i < len(shape); i++ {
		inner *= shape[i]
	}

	for o := 0; o < outer; o++ {
		for in := 0; in < inner; in++ {
			fn(o*n*inner+in, inner, n)
		}
	}
}
