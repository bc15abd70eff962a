package cpu

import (
	"fmt"

	"github.com/quill-ml/quill/internal/parallel"
	"github.com/quill-ml/quill/internal/tensor"
)

// MatMul computes the 2D matrix product a @ b.
// Rows of the result are computed in parallel.
func (cpu *Backend) MatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	aShape, bShape := a.Shape(), b.Shape()
	if len(aShape) != 2 || len(bShape) != 2 {
		panic(fmt.Sprintf("matmul: requires 2D tensors, got %v @ %v", aShape, bShape))
	}
	if aShape[1] != bShape[0] {
		panic(fmt.Sprintf("matmul: incompatible shapes %v @ %v", aShape, bShape))
	}
	if a.DType() != b.DType() {
		panic(fmt.Sprintf("matmul: dtype mismatch %s vs %s", a.DType(), b.DType()))
	}

	rows, inner, cols := aShape[0], aShape[1], bShape[1]

	result, err := tensor.NewRaw(tensor.Shape{rows, cols}, a.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("matmul: %v", err))
	}

	switch a.DType() {
	case tensor.Float32:
		matmulRows(cpu.pcfg, result.AsFloat32(), a.AsFloat32(), b.AsFloat32(), rows, inner, cols)
	case tensor.Float64:
		matmulRows(cpu.pcfg, result.AsFloat64(), a.AsFloat64(), b.AsFloat64(), rows, inner, cols)
	default:
		panic(fmt.Sprintf("matmul: unsupported dtype %s", a.DType()))
	}

	return result
}

// matmulRows runs an ikj loop per output row, which keeps accesses to b
// sequential and lets rows parallelize independently.
func matmulRows[T ~float32 | ~float64](cfg parallel.Config, dst, a, b []T, rows, inner, cols int) {
	rowCfg := cfg
	rowCfg.MinChunkSize = 1
	if rows*inner*cols < 1<<14 {
		rowCfg.Enabled = false // goroutine overhead dominates tiny products
	}

	parallel.For(rows, func(i int) {
		out := dst[i*cols : (i+1)*cols]
		for k := 0; k < inner; k++ {
			aik := a[i*inner+k]
			if aik == 0 {
				continue
			}
			brow := b[k*cols : (k+1)*cols]
			for j := range out {
				out[j] += aik * brow[j]
			}
		}
	}, rowCfg)
}
