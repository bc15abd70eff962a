package cpu

import (
	"fmt"
	"math"

	"github.com/quill-ml/quill/internal/tensor"
)

// Activation methods are not part of the Backend interface; the nn
// package discovers them through capability interfaces, so inference
// works on a plain CPU backend and training on the autodiff wrapper.

// ReLU computes max(0, x) elementwise.
func (cpu *Backend) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryFloat("relu", x, func(v float64) float64 {
		if v > 0 {
			return v
		}
		return 0
	})
}

// Sigmoid computes 1/(1+exp(-x)) elementwise.
func (cpu *Backend) Sigmoid(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryFloat("sigmoid", x, func(v float64) float64 {
		return 1.0 / (1.0 + math.Exp(-v))
	})
}

// Tanh computes the hyperbolic tangent elementwise.
func (cpu *Backend) Tanh(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryFloat("tanh", x, math.Tanh)
}

// CrossEntropy computes mean cross-entropy loss from logits
// [batch, classes] and Int32 class indices [batch]. Uses the
// log-sum-exp trick; returns a single-element tensor.
func (cpu *Backend) CrossEntropy(logits, targets *tensor.RawTensor) *tensor.RawTensor {
	logitsShape := logits.Shape()
	if len(logitsShape) != 2 {
		panic(fmt.Sprintf("cross_entropy: logits must be 2D, got %v", logitsShape))
	}
	targetsShape := targets.Shape()
	if len(targetsShape) != 1 || targetsShape[0] != logitsShape[0] {
		panic(fmt.Sprintf("cross_entropy: targets %v incompatible with logits %v", targetsShape, logitsShape))
	}

	batch, classes := logitsShape[0], logitsShape[1]

	result, err := tensor.NewRaw(tensor.Shape{1}, logits.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("cross_entropy: %v", err))
	}

	idx := targets.AsInt32()
	switch logits.DType() {
	case tensor.Float32:
		result.AsFloat32()[0] = float32(crossEntropyMean(asFloat64(logits), idx, batch, classes))
	case tensor.Float64:
		result.AsFloat64()[0] = crossEntropyMean(logits.AsFloat64(), idx, batch, classes)
	default:
		panic(fmt.Sprintf("cross_entropy: unsupported dtype %s", logits.DType()))
	}

	return result
}

func crossEntropyMean(logits []float64, targets []int32, batch, classes int) float64 {
	total := 0.0
	for b := 0; b < batch; b++ {
		row := logits[b*classes : (b+1)*classes]
		target := int(targets[b])
		if target < 0 || target >= classes {
			panic(fmt.Sprintf("cross_entropy: target %d out of range [0,%d)", target, classes))
		}

		maxVal := row[0]
		for _, v := range row[1:] {
			if v > maxVal {
				maxVal = v
			}
		}
		sumExp := 0.0
		for _, v := range row {
			sumExp += math.Exp(v - maxVal)
		}
		logSumExp := maxVal + math.Log(sumExp)

		total += logSumExp - row[target]
	}
	return total / float64(batch)
}

// BCEWithLogits computes mean binary cross-entropy from logits and
// float targets of the same shape, fusing the sigmoid for stability:
// loss = max(z,0) - z*y + log(1+exp(-|z|)).
func (cpu *Backend) BCEWithLogits(logits, targets *tensor.RawTensor) *tensor.RawTensor {
	if !logits.Shape().Equal(targets.Shape()) {
		panic(fmt.Sprintf("bce_with_logits: shape mismatch %v vs %v", logits.Shape(), targets.Shape()))
	}

	result, err := tensor.NewRaw(tensor.Shape{1}, logits.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("bce_with_logits: %v", err))
	}

	z := asFloat64(logits)
	y := asFloat64(targets)

	total := 0.0
	for i := range z {
		total += math.Max(z[i], 0) - z[i]*y[i] + math.Log1p(math.Exp(-math.Abs(z[i])))
	}
	mean := total / float64(len(z))

	switch logits.DType() {
	case tensor.Float32:
		result.AsFloat32()[0] = float32(mean)
	case tensor.Float64:
		result.AsFloat64()[0] = mean
	default:
		panic(fmt.Sprintf("bce_with_logits: unsupported dtype %s", logits.DType()))
	}

	return result
}
