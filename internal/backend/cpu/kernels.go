package cpu

import (
	"fmt"

	"github.com/quill-ml/quill/internal/tensor"
)

// number covers the dtypes the arithmetic kernels operate on.
type number interface {
	~float32 | ~float64 | ~int32 | ~int64
}

// kernel selects the arithmetic operation for the generic loops below.
type kernel int

const (
	addKernel kernel = iota
	subKernel
	mulKernel
	divKernel
)

func applyOp[T number](op kernel, x, y T) T {
	switch op {
	case addKernel:
		return x + y
	case subKernel:
		return x - y
	case mulKernel:
		return x * y
	case divKernel:
		return x / y
	default:
		panic("unknown kernel")
	}
}

// applyInplace computes a = a op b. Requires matching shapes and a
// uniquely-owned a.
func applyInplace(a, b *tensor.RawTensor, op kernel) {
	switch a.DType() {
	case tensor.Float32:
		inplaceLoop(op, a.AsFloat32(), b.AsFloat32())
	case tensor.Float64:
		inplaceLoop(op, a.AsFloat64(), b.AsFloat64())
	case tensor.Int32:
		inplaceLoop(op, a.AsInt32(), b.AsInt32())
	case tensor.Int64:
		inplaceLoop(op, a.AsInt64(), b.AsInt64())
	default:
		panic(fmt.Sprintf("arithmetic: unsupported dtype %s", a.DType()))
	}
}

func inplaceLoop[T number](op kernel, a, b []T) {
	for i := range a {
		a[i] = applyOp(op, a[i], b[i])
	}
}

// applyVectorized computes result = a op b over matching shapes.
func applyVectorized(result, a, b *tensor.RawTensor, op kernel) {
	switch a.DType() {
	case tensor.Float32:
		vectorizedLoop(op, result.AsFloat32(), a.AsFloat32(), b.AsFloat32())
	case tensor.Float64:
		vectorizedLoop(op, result.AsFloat64(), a.AsFloat64(), b.AsFloat64())
	case tensor.Int32:
		vectorizedLoop(op, result.AsInt32(), a.AsInt32(), b.AsInt32())
	case tensor.Int64:
		vectorizedLoop(op, result.AsInt64(), a.AsInt64(), b.AsInt64())
	default:
		panic(fmt.Sprintf("arithmetic: unsupported dtype %s", a.DType()))
	}
}

func vectorizedLoop[T number](op kernel, dst, a, b []T) {
	for i := range dst {
		dst[i] = applyOp(op, a[i], b[i])
	}
}

// applyBroadcast computes result = a op b where operand shapes differ.
func applyBroadcast(result, a, b *tensor.RawTensor, outShape tensor.Shape, op kernel) {
	switch a.DType() {
	case tensor.Float32:
		broadcastLoop(op, result.AsFloat32(), a.AsFloat32(), b.AsFloat32(), a.Shape(), b.Shape(), outShape)
	case tensor.Float64:
		broadcastLoop(op, result.AsFloat64(), a.AsFloat64(), b.AsFloat64(), a.Shape(), b.Shape(), outShape)
	case tensor.Int32:
		broadcastLoop(op, result.AsInt32(), a.AsInt32(), b.AsInt32(), a.Shape(), b.Shape(), outShape)
	case tensor.Int64:
		broadcastLoop(op, result.AsInt64(), a.AsInt64(), b.AsInt64(), a.Shape(), b.Shape(), outShape)
	default:
		panic(fmt.Sprintf("arithmetic: unsupported dtype %s", a.DType()))
	}
}

func broadcastLoop[T number](op kernel, dst, a, b []T, aShape, bShape, outShape tensor.Shape) {
	aIdx := newBroadcastIndexer(outShape, aShape)
	bIdx := newBroadcastIndexer(outShape, bShape)
	for i := range dst {
		dst[i] = applyOp(op, a[aIdx.at(i)], b[bIdx.at(i)])
	}
}

// broadcastIndexer maps flat output indices to flat input indices for a
// broadcast operand.
type broadcastIndexer struct {
	outStrides []int
	inStrides  []int // 0 stride where the input dimension is 1
}

func newBroadcastIndexer(outShape, inShape tensor.Shape) broadcastIndexer {
	outStrides := outShape.ComputeStrides()
	realStrides := inShape.ComputeStrides()

	inStrides := make([]int, len(outShape))
	offset := len(outShape) - len(inShape)
	for i := range outShape {
		if i < offset {
			continue // missing leading dim, broadcasts with stride 0
		}
		if inShape[i-offset] == 1 {
			continue
		}
		inStrides[i] = realStrides[i-offset]
	}
	return broadcastIndexer{outStrides: outStrides, inStrides: inStrides}
}

func (bi broadcastIndexer) at(flat int) int {
	idx := 0
	for d := 0; d < len(bi.outStrides); d++ {
		coord := flat / bi.outStrides[d]
		flat %= bi.outStrides[d]
		idx += coord * bi.inStrides[d]
	}
	return idx
}

// transposeData permutes src into result according to axes.
func transposeData(result, src *tensor.RawTensor, axes []int) {
	switch src.DType() {
	case tensor.Float32:
		transposeLoop(result.AsFloat32(), src.AsFloat32(), src.Shape(), axes)
	case tensor.Float64:
		transposeLoop(result.AsFloat64(), src.AsFloat64(), src.Shape(), axes)
	case tensor.Int32:
		transposeLoop(result.AsInt32(), src.AsInt32(), src.Shape(), axes)
	case tensor.Int64:
		transposeLoop(result.AsInt64(), src.AsInt64(), src.Shape(), axes)
	case tensor.Uint8:
		transposeLoop(result.AsUint8(), src.AsUint8(), src.Shape(), axes)
	default:
		panic(fmt.Sprintf("transpose: unsupported dtype %s", src.DType()))
	}
}

func transposeLoop[T any](dst, src []T, shape tensor.Shape, axes []int) {
	ndim := len(shape)
	oldStrides := shape.ComputeStrides()

	newShape := make(tensor.Shape, ndim)
	for i, ax := range axes {
		newShape[i] = shape[ax]
	}
	newStrides := newShape.ComputeStrides()

	indices := make([]int, ndim)
	for i := range src {
		temp := i
		for d := 0; d < ndim; d++ {
			indices[d] = temp / oldStrides[d]
			temp %= oldStrides[d]
		}

		newIdx := 0
		for d, ax := range axes {
			newIdx += indices[ax] * newStrides[d]
		}
		dst[newIdx] = src[i]
	}
}
