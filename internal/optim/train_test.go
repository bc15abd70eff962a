package optim

import (
	"testing"

	"github.com/quill-ml/quill/internal/autodiff"
	"github.com/quill-ml/quill/internal/backend/cpu"
	"github.com/quill-ml/quill/internal/nn"
	"github.com/quill-ml/quill/internal/tensor"
)

type adBackend = *autodiff.Backend[*cpu.Backend]

// Fits y = 2x + 1 with a single linear unit, exercising the full
// forward/backward/update cycle.
func TestTrainLinearRegression(t *testing.T) {
	b := autodiff.New(cpu.New())

	model, err := nn.NewLinear(1, 1, b)
	if err != nil {
		t.Fatalf("NewLinear: %v", err)
	}
	criterion := nn.NewMSELoss[adBackend]()
	opt := NewSGD(nn.RawParameters[adBackend](model), SGDConfig{LR: 0.1})

	xs := []float32{-2, -1, 0, 1, 2, 3}
	ys := make([]float32, len(xs))
	for i, x := range xs {
		ys[i] = 2*x + 1
	}
	x, err := tensor.FromSlice(xs, tensor.Shape{len(xs), 1}, b)
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	y, err := tensor.FromSlice(ys, tensor.Shape{len(ys), 1}, b)
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}

	b.Tape().StartRecording()
	var lastLoss float32
	for epoch := 0; epoch < 300; epoch++ {
		pred := model.Forward(x)
		loss := criterion.Forward(pred, y)
		lastLoss = loss.Item()

		if err := autodiff.Backward(loss); err != nil {
			t.Fatalf("epoch %d: %v", epoch, err)
		}
		if err := opt.Step(b.Grads()); err != nil {
			t.Fatalf("epoch %d: %v", epoch, err)
		}
		b.ZeroGrad()
		b.Tape().Clear()
	}

	if lastLoss > 1e-3 {
		t.Fatalf("loss did not converge: %v", lastLoss)
	}
	if w := model.Weight().Data()[0]; w < 1.9 || w > 2.1 {
		t.Fatalf("weight: got %v, want ~2", w)
	}
	if bias := model.Bias().Data()[0]; bias < 0.9 || bias > 1.1 {
		t.Fatalf("bias: got %v, want ~1", bias)
	}
}

// A small classifier must overfit a linearly separable toy set.
func TestTrainClassifierWithAdam(t *testing.T) {
	b := autodiff.New(cpu.New())

	l1, err := nn.NewLinear(2, 8, b)
	if err != nil {
		t.Fatalf("NewLinear: %v", err)
	}
	l2, err := nn.NewLinear(8, 2, b)
	if err != nil {
		t.Fatalf("NewLinear: %v", err)
	}
	model := nn.NewSequential[adBackend](l1, nn.NewReLU[adBackend](), l2)

	criterion := nn.NewCrossEntropyLoss[adBackend]()
	opt := NewAdam(nn.RawParameters[adBackend](model), AdamConfig{LR: 0.05})

	// Class 0 sits in the negative quadrant, class 1 in the positive.
	x, err := tensor.FromSlice([]float32{
		-1, -1, -2, -0.5, -0.5, -2, -1.5, -1.5,
		1, 1, 2, 0.5, 0.5, 2, 1.5, 1.5,
	}, tensor.Shape{8, 2}, b)
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	labels, err := tensor.FromSlice([]int32{0, 0, 0, 0, 1, 1, 1, 1}, tensor.Shape{8}, b)
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}

	b.Tape().StartRecording()
	for epoch := 0; epoch < 100; epoch++ {
		logits := model.Forward(x)
		loss := criterion.Forward(logits, labels)

		if err := autodiff.Backward(loss); err != nil {
			t.Fatalf("epoch %d: %v", epoch, err)
		}
		if err := opt.Step(b.Grads()); err != nil {
			t.Fatalf("epoch %d: %v", epoch, err)
		}
		b.ZeroGrad()
		b.Tape().Clear()
	}

	b.Tape().StopRecording()
	logits := model.Forward(x)
	if acc := nn.Accuracy(logits, labels); acc < 1 {
		t.Fatalf("accuracy after training: got %v, want 1.0", acc)
	}
}
