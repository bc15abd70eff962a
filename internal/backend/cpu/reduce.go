package cpu

import (
	"fmt"

	"github.com/quill-ml/quill/internal/tensor"
)

// Sum reduces the whole tensor to a single-element tensor.
func (cpu *Backend) Sum(t *tensor.RawTensor) *tensor.RawTensor {
	return cpu.fullReduce("sum", t, false)
}

// Mean reduces the whole tensor to its average.
func (cpu *Backend) Mean(t *tensor.RawTensor) *tensor.RawTensor {
	return cpu.fullReduce("mean", t, true)
}

func (cpu *Backend) fullReduce(name string, t *tensor.RawTensor, mean bool) *tensor.RawTensor {
	result, err := tensor.NewRaw(tensor.Shape{1}, t.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("%s: %v", name, err))
	}

	switch t.DType() {
	case tensor.Float32:
		var sum float32
		for _, v := range t.AsFloat32() {
			sum += v
		}
		if mean {
			sum /= float32(t.NumElements())
		}
		result.AsFloat32()[0] = sum
	case tensor.Float64:
		var sum float64
		for _, v := range t.AsFloat64() {
			sum += v
		}
		if mean {
			sum /= float64(t.NumElements())
		}
		result.AsFloat64()[0] = sum
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", name, t.DType()))
	}

	return result
}

// SumDim sums along one dimension.
func (cpu *Backend) SumDim(t *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	return cpu.dimReduce("sum_dim", t, dim, keepDim, false)
}

// MeanDim averages along one dimension.
func (cpu *Backend) MeanDim(t *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	return cpu.dimReduce("mean_dim", t, dim, keepDim, true)
}

func (cpu *Backend) dimReduce(name string, t *tensor.RawTensor, dim int, keepDim, mean bool) *tensor.RawTensor {
	shape := t.Shape()
	if dim < 0 || dim >= len(shape) {
		panic(fmt.Sprintf("%s: invalid dim %d for shape %v", name, dim, shape))
	}

	outShape := dropDim(shape, dim, keepDim)
	result, err := tensor.NewRaw(outShape, t.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("%s: %v", name, err))
	}

	switch t.DType() {
	case tensor.Float32:
		reduceLines(t.AsFloat32(), result.AsFloat32(), shape, dim, mean)
	case tensor.Float64:
		reduceLines(t.AsFloat64(), result.AsFloat64(), shape, dim, mean)
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", name, t.DType()))
	}

	return result
}

func reduceLines[T ~float32 | ~float64](src, dst []T, shape tensor.Shape, dim int, mean bool) {
	idx := 0
	eachLine(shape, dim, func(base, stride, n int) {
		var sum T
		for i := 0; i < n; i++ {
			sum += src[base+i*stride]
		}
		if mean {
			sum /= T(n)
		}
		dst[idx] = sum
		idx++
	})
}

// Argmax returns Int32 indices of the maxima along dim.
func (cpu *Backend) Argmax(t *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := t.Shape()
	if dim < 0 || dim >= len(shape) {
		panic(fmt.Sprintf("argmax: invalid dim %d for shape %v", dim, shape))
	}

	result, err := tensor.NewRaw(dropDim(shape, dim, false), tensor.Int32, cpu.device)
	if err != nil {
		panic(fmt.Sprintf("argmax: %v", err))
	}

	switch t.DType() {
	case tensor.Float32:
		argmaxLines(t.AsFloat32(), result.AsInt32(), shape, dim)
	case tensor.Float64:
		argmaxLines(t.AsFloat64(), result.AsInt32(), shape, dim)
	case tensor.Int32:
		argmaxLines(t.AsInt32(), result.AsInt32(), shape, dim)
	case tensor.Int64:
		argmaxLines(t.AsInt64(), result.AsInt32(), shape, dim)
	default:
		panic(fmt.Sprintf("argmax: unsupported dtype %s", t.DType()))
	}

	return result
}

func argmaxLines[T number](src []T, dst []int32, shape tensor.Shape, dim int) {
	idx := 0
	eachLine(shape, dim, func(base, stride, n int) {
		best := 0
		bestVal := src[base]
		for i := 1; i < n; i++ {
			if v := src[base+i*stride]; v > bestVal {
				bestVal = v
				best = i
			}
		}
		dst[idx] = int32(best)
		idx++
	})
}

// dropDim removes dim from shape, or keeps it as size 1.
// Reducing the only dimension yields Shape{1}.
func dropDim(shape tensor.Shape, dim int, keepDim bool) tensor.Shape {
	if keepDim {
		out := shape.Clone()
		out[dim] = 1
		return out
	}
	out := make(tensor.Shape, 0, len(shape)-1)
	for i, d := range shape {
		if i != dim {
			out = append(out, d)
		}
	}
	if len(out) == 0 {
		out = tensor.Shape{1}
	}
	return out
}

// eachLine visits every 1D line along dim in row-major output order:
// fn receives the line's base flat index, element stride and length.
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
