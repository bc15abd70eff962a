package nn

import (
	"math"
	"testing"

	"github.com/quill-ml/quill/internal/backend/cpu"
	"github.com/quill-ml/quill/internal/tensor"
)

func TestReLUForward(t *testing.T) {
	b := cpu.New()
	x := fromFloat32(t, b, []float32{-2, -0.5, 0, 1, 3}, tensor.Shape{5})

	y := NewReLU[*cpu.Backend]().Forward(x)
	assertNear(t, y.Data(), []float32{0, 0, 0, 1, 3}, 1e-6)
}

func TestReLUFallbackWithoutKernel(t *testing.T) {
	// The mock backend has no fused ReLU, forcing the composed path.
	b := tensor.NewMockBackend()
	x, err := tensor.FromSlice([]float32{-1, 0, 2}, tensor.Shape{3}, b)
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}

	y := NewReLU[*tensor.MockBackend]().Forward(x)
	want := []float32{0, 0, 2}
	for i, v := range y.Data() {
		if v != want[i] {
			t.Fatalf("element %d: got %v, want %v", i, v, want[i])
		}
	}
}

func TestSigmoidForward(t *testing.T) {
	b := cpu.New()
	x := fromFloat32(t, b, []float32{-2, 0, 2}, tensor.Shape{3})

	y := NewSigmoid[*cpu.Backend]().Forward(x)
	for i, v := range x.Data() {
		want := float32(1 / (1 + math.Exp(-float64(v))))
		if diff := y.Data()[i] - want; diff > 1e-5 || diff < -1e-5 {
			t.Fatalf("sigmoid(%v): got %v, want %v", v, y.Data()[i], want)
		}
	}
}

func TestTanhForward(t *testing.T) {
	b := cpu.New()
	x := fromFloat32(t, b, []float32{-1, 0, 1}, tensor.Shape{3})

	y := NewTanh[*cpu.Backend]().Forward(x)
	for i, v := range x.Data() {
		want := float32(math.Tanh(float64(v)))
		if diff := y.Data()[i] - want; diff > 1e-5 || diff < -1e-5 {
			t.Fatalf("tanh(%v): got %v, want %v", v, y.Data()[i], want)
		}
	}
}

func TestSoftmaxForward(t *testing.T) {
	b := cpu.New()
	x := fromFloat32(t, b, []float32{1, 2, 3, 1, 1, 1}, tensor.Shape{2, 3})

	y := NewSoftmax[*cpu.Backend](1).Forward(x)
	data := y.Data()

	for row := 0; row < 2; row++ {
		var sum float32
		for c := 0; c < 3; c++ {
			sum += data[row*3+c]
		}
		if diff := sum - 1; diff > 1e-5 || diff < -1e-5 {
			t.Fatalf("row %d sums to %v, want 1", row, sum)
		}
	}
	// Uniform logits give uniform probabilities.
	assertNear(t, data[3:], []float32{1.0 / 3, 1.0 / 3, 1.0 / 3}, 1e-5)
}
