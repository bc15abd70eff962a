package tensor

import (
	"math"
	"math/rand"
)

// Zeros creates a tensor filled with zeros.
func Zeros[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	var dummy T
	raw, err := NewRaw(shape, inferDataType(dummy), b.Device())
	if err != nil {
		panic(err) // callers validate shapes
	}
	// allocation is already zeroed
	return New[T, B](raw, b)
}

// Ones creates a tensor filled with ones.
func Ones[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return Full[T, B](shape, oneValue[T](), b)
}

// Full creates a tensor filled with value.
func Full[T DType, B Backend](shape Shape, value T, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()
	for i := range data {
		data[i] = value
	}
	return t
}

// Randn creates a float tensor with samples from N(0, 1) using the
// Box-Muller transform. math/rand is intentional: training wants
// seedable, reproducible randomness, not crypto randomness.
func Randn[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()

	var dummy T
	switch any(dummy).(type) {
	case float32:
		out := any(data).([]float32)
		for i := 0; i < len(out); i += 2 {
			u1 := rand.Float64()
			u2 := rand.Float64()
			r := math.Sqrt(-2.0 * math.Log(u1))
			out[i] = float32(r * math.Cos(2.0*math.Pi*u2))
			if i+1 < len(out) {
				out[i+1] = float32(r * math.Sin(2.0*math.Pi*u2))
			}
		}
	case float64:
		out := any(data).([]float64)
		for i := 0; i < len(out); i += 2 {
			u1 := rand.Float64()
			u2 := rand.Float64()
			r := math.Sqrt(-2.0 * math.Log(u1))
			out[i] = r * math.Cos(2.0*math.Pi*u2)
			if i+1 < len(out) {
				out[i+1] = r * math.Sin(2.0*math.Pi*u2)
			}
		}
	default:
		panic("Randn only supports float32 and float64 types")
	}
	return t
}

// Rand creates a float tensor with samples from U[0, 1).
func Rand[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()

	var dummy T
	switch any(dummy).(type) {
	case float32:
		out := any(data).([]float32)
		for i := range out {
			out[i] = rand.Float32()
		}
	case float64:
		out := any(data).([]float64)
		for i := range out {
			out[i] = rand.Float64()
		}
	default:
		panic("Rand only supports float32 and float64 types")
	}
	return t
}

// Arange creates a 1D tensor with values start, start+1, ..., end-1.
// Not supported for bool.
func Arange[T DType, B Backend](start, end T, b B) *Tensor[T, B] {
	var numElements int
	switch s := any(start).(type) {
	case float32:
		numElements = int(any(end).(float32) - s)
	case float64:
		numElements = int(any(end).(float64) - s)
	case int32:
		numElements = int(any(end).(int32) - s)
	case int64:
		numElements = int(any(end).(int64) - s)
	case uint8:
		numElements = int(any(end).(uint8) - s)
	default:
		panic("Arange not supported for this type")
	}

	if numElements <= 0 {
		panic("end must be greater than start")
	}

	t := Zeros[T, B](Shape{numElements}, b)
	data := t.Data()

	switch s := any(start).(type) {
	case float32:
		out := any(data).([]float32)
		for i := range out {
			out[i] = s + float32(i)
		}
	case float64:
		out := any(data).([]float64)
		for i := range out {
			out[i] = s + float64(i)
		}
	case int32:
		out := any(data).([]int32)
		for i := range out {
			out[i] = s + int32(i)
		}
	case int64:
		out := any(data).([]int64)
		for i := range out {
			out[i] = s + int64(i)
		}
	case uint8:
		out := any(data).([]uint8)
		for i := range out {
			out[i] = s + uint8(i)
		}
	}
	return t
}

// Eye creates an n-by-n identity matrix.
func Eye[T DType, B Backend](n int, b B) *Tensor[T, B] {
	t := Zeros[T, B](Shape{n, n}, b)
	one := oneValue[T]()
	for i := 0; i < n; i++ {
		t.Set(one, i, i)
	}
	return t
}

func oneValue[T DType]() T {
	var dummy T
	var one any
	switch any(dummy).(type) {
	case float32:
		one = float32(1)
	case float64:
		one = float64(1)
	case int32:
		one = int32(1)
	case int64:
		one = int64(1)
	case uint8:
		one = uint8(1)
	case bool:
		one = true
	}
	return one.(T)
}
