package cpu

import (
	"fmt"

	"github.com/quill-ml/quill/internal/tensor"
)

// Equal compares elementwise into a Bool tensor, with broadcasting.
func (cpu *Backend) Equal(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.compare("equal", a, b, func(x, y float64) bool { return x == y })
}

// Greater compares elementwise into a Bool tensor, with broadcasting.
func (cpu *Backend) Greater(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.compare("greater", a, b, func(x, y float64) bool { return x > y })
}

func (cpu *Backend) compare(name string, a, b *tensor.RawTensor, op func(float64, float64) bool) *tensor.RawTensor {
	outShape, _, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(fmt.Sprintf("%s: %v", name, err))
	}
	if a.DType() != b.DType() {
		panic(fmt.Sprintf("%s: dtype mismatch %s vs %s", name, a.DType(), b.DType()))
	}

	result, err := tensor.NewRaw(outShape, tensor.Bool, cpu.device)
	if err != nil {
		panic(fmt.Sprintf("%s: %v", name, err))
	}

	aVals := asFloat64(a)
	bVals := asFloat64(b)
	aIdx := newBroadcastIndexer(outShape, a.Shape())
	bIdx := newBroadcastIndexer(outShape, b.Shape())

	out := result.AsBool()
	for i := range out {
		out[i] = op(aVals[aIdx.at(i)], bVals[bIdx.at(i)])
	}

	return result
}

// Cast converts between element types through float64.
func (cpu *Backend) Cast(t *tensor.RawTensor, dtype tensor.DataType) *tensor.RawTensor {
	if t.DType() == dtype {
		return t.Clone()
	}

	result, err := tensor.NewRaw(t.Shape(), dtype, cpu.device)
	if err != nil {
		panic(fmt.Sprintf("cast: %v", err))
	}

	vals := asFloat64(t)
	switch dtype {
	case tensor.Float32:
		dst := result.AsFloat32()
		for i, v := range vals {
			dst[i] = float32(v)
		}
	case tensor.Float64:
		copy(result.AsFloat64(), vals)
	case tensor.Int32:
		dst := result.AsInt32()
		for i, v := range vals {
			dst[i] = int32(v)
		}
	case tensor.Int64:
		dst := result.AsInt64()
		for i, v := range vals {
			dst[i] = int64(v)
		}
	case tensor.Uint8:
		dst := result.AsUint8()
		for i, v := range vals {
			dst[i] = uint8(v)
		}
	case tensor.Bool:
		dst := result.AsBool()
		for i, v := range vals {
			dst[i] = v != 0
		}
	default:
		panic(fmt.Sprintf("cast: unsupported target dtype %s", dtype))
	}

	return result
}

func asFloat64(t *tensor.RawTensor) []float64 {
	switch t.DType() {
	case tensor.Float32:
		src := t.AsFloat32()
		dst := make([]float64, len(src))
		for i, v := range src {
			dst[i] = float64(v)
		}
		return dst
	case tensor.Float64:
		return t.AsFloat64()
	case tensor.Int32:
		src := t.AsInt32()
		dst := make([]float64, len(src))
		for i, v := range src {
			dst[i] = float64(v)
		}
		return dst
	case tensor.Int64:
		src := t.AsInt64()
		dst := make([]float64, len(src))
		for i, v := range src {
			dst[i] = float64(v)
		}
		return dst
	case tensor.Uint8:
		src := t.AsUint8()
		dst := make([]float64, len(src))
		for i, v := range src {
			dst[i] = float64(v)
		}
		return dst
	case tensor.Bool:
		src := t.AsBool()
		dst := make([]float64, len(src))
		for i, v := range src {
			if v {
				dst[i] = 1
			}
		}
		return dst
	default:
		panic(fmt.Sprintf("unsupported dtype %s", t.DType()))
	}
}
