package nn

import (
	"math"
	"testing"

	"github.com/quill-ml/quill/internal/backend/cpu"
	"github.com/quill-ml/quill/internal/tensor"
)

func TestMSELoss(t *testing.T) {
	b := cpu.New()
	pred := fromFloat32(t, b, []float32{1, 2, 3}, tensor.Shape{3})
	target := fromFloat32(t, b, []float32{1, 0, 0}, tensor.Shape{3})

	loss := NewMSELoss[*cpu.Backend]().Forward(pred, target)
	// (0 + 4 + 9) / 3
	if diff := loss.Item() - 13.0/3; diff > 1e-5 || diff < -1e-5 {
		t.Fatalf("loss: got %v, want %v", loss.Item(), 13.0/3)
	}
}

func TestCrossEntropyLossUniform(t *testing.T) {
	b := cpu.New()
	logits := fromFloat32(t, b, make([]float32, 2*10), tensor.Shape{2, 10})
	targets, err := tensor.FromSlice([]int32{3, 7}, tensor.Shape{2}, b)
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}

	loss := NewCrossEntropyLoss[*cpu.Backend]().Forward(logits, targets)
	want := float32(math.Log(10))
	if diff := loss.Item() - want; diff > 1e-5 || diff < -1e-5 {
		t.Fatalf("uniform logits: got %v, want ln(10)=%v", loss.Item(), want)
	}
}

func TestCrossEntropyLossDirectFallback(t *testing.T) {
	b := tensor.NewMockBackend()
	logits, err := tensor.FromSlice(make([]float32, 3*4), tensor.Shape{3, 4}, b)
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	targets, err := tensor.FromSlice([]int32{0, 1, 2}, tensor.Shape{3}, b)
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}

	loss := NewCrossEntropyLoss[*tensor.MockBackend]().Forward(logits, targets)
	want := float32(math.Log(4))
	if diff := loss.Item() - want; diff > 1e-5 || diff < -1e-5 {
		t.Fatalf("fallback: got %v, want ln(4)=%v", loss.Item(), want)
	}
}

func TestBCEWithLogitsLoss(t *testing.T) {
	b := cpu.New()
	logits := fromFloat32(t, b, []float32{0, 0}, tensor.Shape{2})
	targets := fromFloat32(t, b, []float32{0, 1}, tensor.Shape{2})

	loss := NewBCEWithLogitsLoss[*cpu.Backend]().Forward(logits, targets)
	// Zero logits predict 0.5 either way: loss is ln(2).
	want := float32(math.Ln2)
	if diff := loss.Item() - want; diff > 1e-5 || diff < -1e-5 {
		t.Fatalf("loss: got %v, want ln(2)=%v", loss.Item(), want)
	}
}

func TestBCEWithLogitsLargeLogitsStable(t *testing.T) {
	b := cpu.New()
	logits := fromFloat32(t, b, []float32{100, -100}, tensor.Shape{2})
	targets := fromFloat32(t, b, []float32{1, 0}, tensor.Shape{2})

	loss := NewBCEWithLogitsLoss[*cpu.Backend]().Forward(logits, targets)
	if v := loss.Item(); v < 0 || v > 1e-4 || math.IsNaN(float64(v)) {
		t.Fatalf("confident correct predictions: got %v, want ~0", v)
	}
}

func TestAccuracy(t *testing.T) {
	b := cpu.New()
	logits := fromFloat32(t, b, []float32{
		5, 1, 0, // argmax 0, target 0: correct
		0, 1, 9, // argmax 2, target 2: correct
		3, 2, 1, // argmax 0, target 1: wrong
		0, 7, 0, // argmax 1, target 1: correct
	}, tensor.Shape{4, 3})
	targets, err := tensor.FromSlice([]int32{0, 2, 1, 1}, tensor.Shape{4}, b)
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}

	if got := Accuracy(logits, targets); got != 0.75 {
		t.Fatalf("accuracy: got %v, want 0.75", got)
	}
}
