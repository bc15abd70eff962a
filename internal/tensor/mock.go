package tensor

import (
	"fmt"
	"math"
)

// Verify that MockBackend implements Backend.
var _ Backend = (*MockBackend)(nil)

// MockBackend implements every operation naively through float64
// round-trips. It exists for tests that need a backend without
// depending on the cpu package (which would be an import cycle).
type MockBackend struct{}

// NewMockBackend creates a new MockBackend.
func NewMockBackend() *MockBackend {
	return &MockBackend{}
}

// Name returns the backend name.
func (m *MockBackend) Name() string {
	return "mock"
}

// Device returns the device type.
func (m *MockBackend) Device() Device {
	return CPU
}

// Add performs elementwise addition with broadcasting.
func (m *MockBackend) Add(a, b *RawTensor) *RawTensor {
	return m.elementWise(a, b, func(x, y float64) float64 { return x + y })
}

// Sub performs elementwise subtraction with broadcasting.
func (m *MockBackend) Sub(a, b *RawTensor) *RawTensor {
	return m.elementWise(a, b, func(x, y float64) float64 { return x - y })
}

// Mul performs elementwise multiplication with broadcasting.
func (m *MockBackend) Mul(a, b *RawTensor) *RawTensor {
	return m.elementWise(a, b, func(x, y float64) float64 { return x * y })
}

// Div performs elementwise division with broadcasting.
func (m *MockBackend) Div(a, b *RawTensor) *RawTensor {
	return m.elementWise(a, b, func(x, y float64) float64 { return x / y })
}

func (m *MockBackend) elementWise(a, b *RawTensor, op func(float64, float64) float64) *RawTensor {
	outShape, _, err := BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(err)
	}

	result, err := NewRaw(outShape, a.DType(), m.Device())
	if err != nil {
		panic(err)
	}

	aData := m.toFloat64Slice(a)
	bData := m.toFloat64Slice(b)
	resultData := make([]float64, outShape.NumElements())

	for i := range resultData {
		aIdx := m.broadcastIndex(i, outShape, a.Shape())
		bIdx := m.broadcastIndex(i, outShape, b.Shape())
		resultData[i] = op(aData[aIdx], bData[bIdx])
	}

	m.fromFloat64Slice(resultData, result)
	return result
}

// MatMul performs 2D matrix multiplication.
func (m *MockBackend) MatMul(a, b *RawTensor) *RawTensor {
	aShape, bShape := a.Shape(), b.Shape()
	if len(aShape) != 2 || len(bShape) != 2 {
		panic("MatMul only supports 2D tensors in mock backend")
	}
	if aShape[1] != bShape[0] {
		panic(fmt.Sprintf("incompatible shapes for MatMul: %v @ %v", aShape, bShape))
	}

	rows, inner, cols := aShape[0], aShape[1], bShape[1]

	result, err := NewRaw(Shape{rows, cols}, a.DType(), m.Device())
	if err != nil {
		panic(err)
	}

	aData := m.toFloat64Slice(a)
	bData := m.toFloat64Slice(b)
	resultData := make([]float64, rows*cols)

	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			sum := 0.0
			for k := 0; k < inner; k++ {
				sum += aData[i*inner+k] * bData[k*cols+j]
			}
			resultData[i*cols+j] = sum
		}
	}

	m.fromFloat64Slice(resultData, result)
	return result
}

// Reshape copies the data under a new shape.
func (m *MockBackend) Reshape(t *RawTensor, newShape Shape) *RawTensor {
	view, err := t.WithShape(newShape)
	if err != nil {
		panic(err)
	}
	return view
}

// Transpose permutes dimensions.
func (m *MockBackend) Transpose(t *RawTensor, axes ...int) *RawTensor {
	shape := t.Shape()
	ndim := len(shape)

	if len(axes) == 0 {
		axes = make([]int, ndim)
		for i := range axes {
			axes[i] = ndim - 1 - i
		}
	}
	if len(axes) != ndim {
		panic(fmt.Sprintf("axes length %d doesn't match tensor dimensions %d", len(axes), ndim))
	}

	newShape := make(Shape, ndim)
	for i, axis := range axes {
		if axis < 0 || axis >= ndim {
			panic(fmt.Sprintf("axis %d out of bounds for %dD tensor", axis, ndim))
		}
		newShape[i] = shape[axis]
	}

	result, err := NewRaw(newShape, t.DType(), m.Device())
	if err != nil {
		panic(err)
	}

	tData := m.toFloat64Slice(t)
	resultData := make([]float64, t.NumElements())

	oldStrides := shape.ComputeStrides()
	newStrides := newShape.ComputeStrides()

	for i := 0; i < t.NumElements(); i++ {
		indices := make([]int, ndim)
		temp := i
		for j := 0; j < ndim; j++ {
			indices[j] = temp / oldStrides[j]
			temp %= oldStrides[j]
		}

		newIdx := 0
		for j, axis := range axes {
			newIdx += indices[axis] * newStrides[j]
		}
		resultData[newIdx] = tData[i]
	}

	m.fromFloat64Slice(resultData, result)
	return result
}

// AddScalar adds s to every element.
func (m *MockBackend) AddScalar(t *RawTensor, s float64) *RawTensor {
	return m.unary(t, func(x float64) float64 { return x + s })
}

// SubScalar subtracts s from every element.
func (m *MockBackend) SubScalar(t *RawTensor, s float64) *RawTensor {
	return m.unary(t, func(x float64) float64 { return x - s })
}

// MulScalar multiplies every element by s.
func (m *MockBackend) MulScalar(t *RawTensor, s float64) *RawTensor {
	return m.unary(t, func(x float64) float64 { return x * s })
}

// DivScalar divides every element by s.
func (m *MockBackend) DivScalar(t *RawTensor, s float64) *RawTensor {
	return m.unary(t, func(x float64) float64 { return x / s })
}

// Pow raises every element to the power p.
func (m *MockBackend) Pow(t *RawTensor, p float64) *RawTensor {
	return m.unary(t, func(x float64) float64 { return math.Pow(x, p) })
}

// Exp applies e^x elementwise.
func (m *MockBackend) Exp(t *RawTensor) *RawTensor {
	return m.unary(t, math.Exp)
}

// Log applies the natural logarithm elementwise.
func (m *MockBackend) Log(t *RawTensor) *RawTensor {
	return m.unary(t, math.Log)
}

// Sqrt applies the square root elementwise.
func (m *MockBackend) Sqrt(t *RawTensor) *RawTensor {
	return m.unary(t, math.Sqrt)
}

func (m *MockBackend) unary(t *RawTensor, op func(float64) float64) *RawTensor {
	result, err := NewRaw(t.Shape(), t.DType(), m.Device())
	if err != nil {
		panic(err)
	}
	data := m.toFloat64Slice(t)
	out := make([]float64, len(data))
	for i, v := range data {
		out[i] = op(v)
	}
	m.fromFloat64Slice(out, result)
	return result
}

// Softmax normalizes along dim.
func (m *MockBackend) Softmax(t *RawTensor, dim int) *RawTensor {
	shape := t.Shape()
	if dim < 0 || dim >= len(shape) {
		panic(fmt.Sprintf("softmax: invalid dim %d for shape %v", dim, shape))
	}

	result, err := NewRaw(shape, t.DType(), m.Device())
	if err != nil {
		panic(err)
	}

	data := m.toFloat64Slice(t)
	out := make([]float64, len(data))
	forEachLine(shape, dim, func(base, stride, n int) {
		maxVal := math.Inf(-1)
		for i := 0; i < n; i++ {
			if v := data[base+i*stride]; v > maxVal {
				maxVal = v
			}
		}
		sum := 0.0
		for i := 0; i < n; i++ {
			e := math.Exp(data[base+i*stride] - maxVal)
			out[base+i*stride] = e
			sum += e
		}
		for i := 0; i < n; i++ {
			out[base+i*stride] /= sum
		}
	})

	m.fromFloat64Slice(out, result)
	return result
}

// Sum reduces all elements to a single-element tensor.
func (m *MockBackend) Sum(t *RawTensor) *RawTensor {
	return m.fullReduce(t, false)
}

// Mean reduces all elements to their average.
func (m *MockBackend) Mean(t *RawTensor) *RawTensor {
	return m.fullReduce(t, true)
}

func (m *MockBackend) fullReduce(t *RawTensor, mean bool) *RawTensor {
	result, err := NewRaw(Shape{1}, t.DType(), m.Device())
	if err != nil {
		panic(err)
	}
	sum := 0.0
	data := m.toFloat64Slice(t)
	for _, v := range data {
		sum += v
	}
	if mean {
		sum /= float64(len(data))
	}
	m.fromFloat64Slice([]float64{sum}, result)
	return result
}

// SumDim sums along one dimension.
func (m *MockBackend) SumDim(t *RawTensor, dim int, keepDim bool) *RawTensor {
	return m.dimReduce(t, dim, keepDim, false)
}

// MeanDim averages along one dimension.
func (m *MockBackend) MeanDim(t *RawTensor, dim int, keepDim bool) *RawTensor {
	return m.dimReduce(t, dim, keepDim, true)
}

func (m *MockBackend) dimReduce(t *RawTensor, dim int, keepDim, mean bool) *RawTensor {
	shape := t.Shape()
	if dim < 0 || dim >= len(shape) {
		panic(fmt.Sprintf("reduce: invalid dim %d for shape %v", dim, shape))
	}

	outShape := reducedShape(shape, dim, keepDim)
	result, err := NewRaw(outShape, t.DType(), m.Device())
	if err != nil {
		panic(err)
	}

	data := m.toFloat64Slice(t)
	out := make([]float64, outShape.NumElements())
	idx := 0
	forEachLine(shape, dim, func(base, stride, n int) {
		sum := 0.0
		for i := 0; i < n; i++ {
			sum += data[base+i*stride]
		}
		if mean {
			sum /= float64(n)
		}
		out[idx] = sum
		idx++
	})

	m.fromFloat64Slice(out, result)
	return result
}

// Argmax returns Int32 indices of the maxima along dim.
func (m *MockBackend) Argmax(t *RawTensor, dim int) *RawTensor {
	shape := t.Shape()
	if dim < 0 || dim >= len(shape) {
		panic(fmt.Sprintf("argmax: invalid dim %d for shape %v", dim, shape))
	}

	outShape := reducedShape(shape, dim, false)
	result, err := NewRaw(outShape, Int32, m.Device())
	if err != nil {
		panic(err)
	}

	data := m.toFloat64Slice(t)
	out := result.AsInt32()
	idx := 0
	forEachLine(shape, dim, func(base, stride, n int) {
		best := 0
		bestVal := data[base]
		for i := 1; i < n; i++ {
			if v := data[base+i*stride]; v > bestVal {
				bestVal = v
				best = i
			}
		}
		out[idx] = int32(best)
		idx++
	})

	return result
}

// Equal compares elementwise into a Bool tensor.
func (m *MockBackend) Equal(a, b *RawTensor) *RawTensor {
	return m.compare(a, b, func(x, y float64) bool { return x == y })
}

// Greater compares elementwise into a Bool tensor.
func (m *MockBackend) Greater(a, b *RawTensor) *RawTensor {
	return m.compare(a, b, func(x, y float64) bool { return x > y })
}

func (m *MockBackend) compare(a, b *RawTensor, op func(float64, float64) bool) *RawTensor {
	outShape, _, err := BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(err)
	}

	result, err := NewRaw(outShape, Bool, m.Device())
	if err != nil {
		panic(err)
	}

	aData := m.toFloat64Slice(a)
	bData := m.toFloat64Slice(b)
	out := result.AsBool()

	for i := range out {
		aIdx := m.broadcastIndex(i, outShape, a.Shape())
		bIdx := m.broadcastIndex(i, outShape, b.Shape())
		out[i] = op(aData[aIdx], bData[bIdx])
	}

	return result
}

// Cast converts a tensor to a new element type.
func (m *MockBackend) Cast(t *RawTensor, dtype DataType) *RawTensor {
	result, err := NewRaw(t.Shape(), dtype, m.Device())
	if err != nil {
		panic(err)
	}
	m.fromFloat64Slice(m.toFloat64Slice(t), result)
	return result
}

// Helper functions

func (m *MockBackend) toFloat64Slice(t *RawTensor) []float64 {
	switch t.DType() {
	case Float32:
		src := t.AsFloat32()
		dst := make([]float64, len(src))
		for i, v := range src {
			dst[i] = float64(v)
		}
		return dst
	case Float64:
		return t.AsFloat64()
	case Int32:
		src := t.AsInt32()
		dst := make([]float64, len(src))
		for i, v := range src {
			dst[i] = float64(v)
		}
		return dst
	case Int64:
		src := t.AsInt64()
		dst := make([]float64, len(src))
		for i, v := range src {
			dst[i] = float64(v)
		}
		return dst
	case Uint8:
		src := t.AsUint8()
		dst := make([]float64, len(src))
		for i, v := range src {
			dst[i] = float64(v)
		}
		return dst
	case Bool:
		src := t.AsBool()
		dst := make([]float64, len(src))
		for i, v := range src {
			if v {
				dst[i] = 1
			}
		}
		return dst
	default:
		panic(fmt.Sprintf("unsupported dtype: %s", t.DType()))
	}
}

func (m *MockBackend) fromFloat64Slice(src []float64, t *RawTensor) {
	switch t.DType() {
	case Float32:
		dst := t.AsFloat32()
		for i, v := range src {
			dst[i] = float32(v)
		}
	case Float64:
		copy(t.AsFloat64(), src)
	case Int32:
		dst := t.AsInt32()
		for i, v := range src {
			dst[i] = int32(v)
		}
	case Int64:
		dst := t.AsInt64()
		for i, v := range src {
			dst[i] = int64(v)
		}
	case Uint8:
		dst := t.AsUint8()
		for i, v := range src {
			dst[i] = uint8(v)
		}
	case Bool:
		dst := t.AsBool()
		for i, v := range src {
			dst[i] = v != 0
		}
	}
}

func (m *MockBackend) broadcastIndex(flatIdx int, outShape, inShape Shape) int {
	outStrides := outShape.ComputeStrides()
	indices := make([]int, len(outShape))

	temp := flatIdx
	for i := 0; i < len(outShape); i++ {
		indices[i] = temp / outStrides[i]
		temp %= outStrides[i]
	}

	inStrides := inShape.ComputeStrides()
	inIdx := 0

	offset := len(outShape) - len(inShape)
	for i := 0; i < len(inShape); i++ {
		outDimIdx := indices[offset+i]
		if inShape[i] == 1 {
			outDimIdx = 0
		}
		inIdx += outDimIdx * inStrides[i]
	}

	return inIdx
}

// reducedShape drops (or keeps as 1) the reduced dimension.
// A full reduction of a 1D tensor yields Shape{1}.
func reducedShape(shape Shape, dim int, keepDim bool) Shape {
	if keepDim {
		out := shape.Clone()
		out[dim] = 1
		return out
	}
	out := make(Shape, 0, len(shape)-1)
	for i, d := range shape {
		if i != dim {
			out = append(out, d)
		}
	}
	if len(out) == 0 {
		out = Shape{1}
	}
	return out
}

// forEachLine visits every 1D line along dim: fn receives the base flat
// index of the line, the stride between its elements and its length.
func forEachLine(shape Shape, dim int, fn func(base, stride, n int)) {
	strides := shape.ComputeStrides()
	n := shape[dim]
	stride := strides[dim]

	outer := 1
	for i := 0; i < dim; i++ {
		outer *= shape[i]
	}
	inner := 1
	for i := dim + 1; i < len(shape); i++ {
		inner *= shape[i]
	}

	// Row-major layout: stride == inner, lines are spaced n*inner apart.
	for o := 0; o < outer; o++ {
		for in := 0; in < inner; in++ {
			fn(o*n*inner+in, stride, n)
		}
	}
}
