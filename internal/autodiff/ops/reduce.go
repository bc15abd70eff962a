package ops

import (
	"fmt"

	"github.com/quill-ml/quill/internal/tensor"
)

// SumOp records the full reduction c = sum(a).
type SumOp struct {
	in, out *tensor.RawTensor
}

// NewSumOp creates a sum reduction operation.
func NewSumOp(in, out *tensor.RawTensor) *SumOp {
	return &SumOp{in: in, out: out}
}

// Inputs returns the input tensor.
func (op *SumOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.in} }

// Output returns the scalar result.
func (op *SumOp) Output() *tensor.RawTensor { return op.out }

// Backward broadcasts the scalar gradient to every input element.
func (op *SumOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	grad := zerosLike(op.in)
	fillScalar(grad, scalarValue(outputGrad))
	return []*tensor.RawTensor{grad}
}

// MeanOp records the full reduction c = mean(a).
type MeanOp struct {
	in, out *tensor.RawTensor
}

// NewMeanOp creates a mean reduction operation.
func NewMeanOp(in, out *tensor.RawTensor) *MeanOp {
	return &MeanOp{in: in, out: out}
}

// Inputs returns the input tensor.
func (op *MeanOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.in} }

// Output returns the scalar result.
func (op *MeanOp) Output() *tensor.RawTensor { return op.out }

// Backward spreads the scalar gradient evenly across the input.
func (op *MeanOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	grad := zerosLike(op.in)
	fillScalar(grad, scalarValue(outputGrad)/float64(op.in.NumElements()))
	return []*tensor.RawTensor{grad}
}

// SumDimOp records c = sum(a, dim).
type SumDimOp struct {
	in, out *tensor.RawTensor
	dim     int
}

// NewSumDimOp creates a dimension-wise sum operation.
func NewSumDimOp(in, out *tensor.RawTensor, dim int) *SumDimOp {
	return &SumDimOp{in: in, out: out, dim: dim}
}

// Inputs returns the input tensor.
func (op *SumDimOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.in} }

// Output returns the reduced tensor.
func (op *SumDimOp) Output() *tensor.RawTensor { return op.out }

// Backward repeats each reduced gradient along the summed dimension.
func (op *SumDimOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{expandAlongDim(outputGrad, op.in, op.dim, 1)}
}

// MeanDimOp records c = mean(a, dim).
type MeanDimOp struct {
	in, out *tensor.RawTensor
	dim     int
}

// NewMeanDimOp creates a dimension-wise mean operation.
func NewMeanDimOp(in, out *tensor.RawTensor, dim int) *MeanDimOp {
	return &MeanDimOp{in: in, out: out, dim: dim}
}

// Inputs returns the input tensor.
func (op *MeanDimOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.in} }

// Output returns the reduced tensor.
func (op *MeanDimOp) Output() *tensor.RawTensor { return op.out }

// Backward repeats each reduced gradient, scaled by 1/n.
func (op *MeanDimOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	n := op.in.Shape()[op.dim]
	return []*tensor.RawTensor{expandAlongDim(outputGrad, op.in, op.dim, 1/float64(n))}
}

// expandAlongDim undoes a dimension reduction: every element of a line
// along dim receives the line's reduced gradient, scaled by scale. The
// reduced gradient holds one value per line, in the line visit order of
// eachLine, regardless of whether the forward pass kept the dimension.
func expandAlongDim(grad, in *tensor.RawTensor, dim int, scale float64) *tensor.RawTensor {
	out := zerosLike(in)
	switch in.DType() {
	case tensor.Float32:
		g, data := grad.AsFloat32(), out.AsFloat32()
		line := 0
		eachLine(in.Shape(), dim, func(base, stride, n int) {
			v := g[line] * float32(scale)
			line++
			for i := 0; i < n; i++ {
				data[base+i*stride] = v
			}
		})
	case tensor.Float64:
		g, data := grad.AsFloat64(), out.AsFloat64()
		line := 0
		eachLine(in.Shape(), dim, func(base, stride, n int) {
			v := g[line] * scale
			line++
			for i := 0; i < n; i++ {
				data[base+i*stride] = v
			}
		})
	default:
		panic(fmt.Sprintf("expandAlongDim: unsupported dtype %s", in.DType()))
	}
	return out
}
