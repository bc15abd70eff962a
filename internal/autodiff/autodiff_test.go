package autodiff

import (
	"math"
	"testing"

	"github.com/quill-ml/quill/internal/backend/cpu"
	"github.com/quill-ml/quill/internal/tensor"
)

type testBackend = *Backend[*cpu.Backend]

func newTestBackend() testBackend {
	return New(cpu.New())
}

func fromFloat32(t *testing.T, b testBackend, data []float32, shape tensor.Shape) *tensor.Tensor[float32, testBackend] {
	t.Helper()
	out, err := tensor.FromSlice(data, shape, b)
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	return out
}

func assertFloat32Near(t *testing.T, got, want []float32, tol float32) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}
	for i := range got {
		if diff := got[i] - want[i]; diff > tol || diff < -tol {
			t.Fatalf("element %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestBackwardSquare(t *testing.T) {
	b := newTestBackend()
	b.Tape().StartRecording()

	x := fromFloat32(t, b, []float32{1, 2, 3}, tensor.Shape{3})
	loss := x.Mul(x).Sum()

	if err := Backward(loss); err != nil {
		t.Fatalf("Backward: %v", err)
	}

	grad := Grad(x)
	if grad == nil {
		t.Fatal("no gradient for x")
	}
	assertFloat32Near(t, grad.Data(), []float32{2, 4, 6}, 1e-6)
}

func TestBackwardChainRule(t *testing.T) {
	b := newTestBackend()
	b.Tape().StartRecording()

	// y = sum((x + 2)^2), dy/dx = 2(x + 2)
	x := fromFloat32(t, b, []float32{0, 1, -3}, tensor.Shape{3})
	loss := x.AddScalar(2).Pow(2).Sum()

	if err := Backward(loss); err != nil {
		t.Fatalf("Backward: %v", err)
	}
	assertFloat32Near(t, Grad(x).Data(), []float32{4, 6, -2}, 1e-5)
}

func TestBackwardBroadcast(t *testing.T) {
	b := newTestBackend()
	b.Tape().StartRecording()

	a := fromFloat32(t, b, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	bias := fromFloat32(t, b, []float32{10, 20}, tensor.Shape{2})
	loss := a.Add(bias).Sum()

	if err := Backward(loss); err != nil {
		t.Fatalf("Backward: %v", err)
	}

	gradA := Grad(a)
	assertFloat32Near(t, gradA.Data(), []float32{1, 1, 1, 1}, 1e-6)

	// The bias was broadcast across 2 rows, so its gradient sums them.
	gradBias := Grad(bias)
	if !gradBias.Shape().Equal(tensor.Shape{2}) {
		t.Fatalf("bias gradient shape: got %v, want [2]", gradBias.Shape())
	}
	assertFloat32Near(t, gradBias.Data(), []float32{2, 2}, 1e-6)
}

func TestBackwardMatMul(t *testing.T) {
	b := newTestBackend()
	b.Tape().StartRecording()

	a := fromFloat32(t, b, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	w := fromFloat32(t, b, []float32{1, 0, 0, 1, 1, 1}, tensor.Shape{3, 2})
	loss := a.MatMul(w).Sum()

	if err := Backward(loss); err != nil {
		t.Fatalf("Backward: %v", err)
	}

	// grad_a = ones @ w^T: each element is the sum of w's matching row.
	assertFloat32Near(t, Grad(a).Data(), []float32{1, 1, 2, 1, 1, 2}, 1e-5)
	// grad_w = a^T @ ones: each element is the sum of a's matching column.
	assertFloat32Near(t, Grad(w).Data(), []float32{5, 5, 7, 7, 9, 9}, 1e-5)
}

func TestGradientAccumulation(t *testing.T) {
	b := newTestBackend()
	b.Tape().StartRecording()

	x := fromFloat32(t, b, []float32{1, 2}, tensor.Shape{2})
	loss := x.Mul(x).Sum()

	if err := Backward(loss); err != nil {
		t.Fatalf("first Backward: %v", err)
	}
	if err := Backward(loss); err != nil {
		t.Fatalf("second Backward: %v", err)
	}

	// Two passes without ZeroGrad sum their contributions.
	assertFloat32Near(t, Grad(x).Data(), []float32{4, 8}, 1e-5)

	b.ZeroGrad()
	if Grad(x) != nil {
		t.Fatal("gradient survived ZeroGrad")
	}

	if err := Backward(loss); err != nil {
		t.Fatalf("Backward after ZeroGrad: %v", err)
	}
	assertFloat32Near(t, Grad(x).Data(), []float32{2, 4}, 1e-5)
}

func TestNonScalarBackwardNeedsSeed(t *testing.T) {
	b := newTestBackend()
	b.Tape().StartRecording()

	x := fromFloat32(t, b, []float32{1, 2}, tensor.Shape{2})
	y := x.Mul(x)

	if err := Backward(y); err == nil {
		t.Fatal("expected an error for backward from a non-scalar output")
	}
}

func TestVectorJacobianProduct(t *testing.T) {
	b := newTestBackend()
	b.Tape().StartRecording()

	// y = 2x^2, seeded with s: grad = 4x * s
	x := fromFloat32(t, b, []float32{1, 2, 3}, tensor.Shape{3})
	y := x.Mul(x).MulScalar(2)
	seed := fromFloat32(t, b, []float32{1, 0.5, 2}, tensor.Shape{3})

	if err := BackwardWithGrad(y, seed); err != nil {
		t.Fatalf("BackwardWithGrad: %v", err)
	}
	assertFloat32Near(t, Grad(x).Data(), []float32{4, 4, 24}, 1e-5)
}

func TestNoGradSkipsRecording(t *testing.T) {
	b := newTestBackend()
	b.Tape().StartRecording()

	x := fromFloat32(t, b, []float32{1, 2}, tensor.Shape{2})
	_ = x.Mul(x)
	recorded := b.Tape().NumOperations()

	NoGrad(b, func() {
		_ = x.Mul(x).Sum()
	})

	if got := b.Tape().NumOperations(); got != recorded {
		t.Fatalf("NoGrad recorded %d extra operations", got-recorded)
	}
	if !b.Tape().IsRecording() {
		t.Fatal("recording not restored after NoGrad")
	}
}

func TestDetachCutsHistory(t *testing.T) {
	b := newTestBackend()
	b.Tape().StartRecording()

	x := fromFloat32(t, b, []float32{2, 3}, tensor.Shape{2})
	d := x.Mul(x).Detach()
	loss := d.Mul(d).Sum()

	if err := Backward(loss); err != nil {
		t.Fatalf("Backward: %v", err)
	}
	if Grad(x) != nil {
		t.Fatal("gradient reached a tensor behind Detach")
	}
}

func TestActivationGradients(t *testing.T) {
	b := newTestBackend()
	b.Tape().StartRecording()

	x := fromFloat32(t, b, []float32{-1, 0.5, 2}, tensor.Shape{3})

	relu := tensor.New[float32](b.ReLU(x.Raw()), b)
	if err := Backward(tensor.New[float32](b.Sum(relu.Raw()), b)); err != nil {
		t.Fatalf("Backward: %v", err)
	}
	assertFloat32Near(t, Grad(x).Data(), []float32{0, 1, 1}, 1e-6)

	b.ZeroGrad()
	b.Tape().Clear()

	sig := tensor.New[float32](b.Sigmoid(x.Raw()), b)
	if err := Backward(tensor.New[float32](b.Sum(sig.Raw()), b)); err != nil {
		t.Fatalf("Backward: %v", err)
	}
	grad := Grad(x).Data()
	for i, v := range x.Data() {
		s := 1 / (1 + math.Exp(-float64(v)))
		want := float32(s * (1 - s))
		if diff := grad[i] - want; diff > 1e-5 || diff < -1e-5 {
			t.Fatalf("sigmoid grad[%d]: got %v, want %v", i, grad[i], want)
		}
	}
}

func TestCrossEntropyGradient(t *testing.T) {
	b := newTestBackend()
	b.Tape().StartRecording()

	logits := fromFloat32(t, b, []float32{
		1, 2, 0.5,
		0, 0, 0,
	}, tensor.Shape{2, 3})
	targets, err := tensor.FromSlice([]int32{1, 0}, tensor.Shape{2}, b)
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}

	loss := tensor.New[float32](b.CrossEntropy(logits.Raw(), targets.Raw()), b)
	if err := Backward(loss); err != nil {
		t.Fatalf("Backward: %v", err)
	}

	grad := Grad(logits)
	if !grad.Shape().Equal(tensor.Shape{2, 3}) {
		t.Fatalf("gradient shape: got %v", grad.Shape())
	}

	// (softmax - onehot) / batch: each row sums to zero.
	data := grad.Data()
	for row := 0; row < 2; row++ {
		sum := data[row*3] + data[row*3+1] + data[row*3+2]
		if sum > 1e-5 || sum < -1e-5 {
			t.Fatalf("row %d gradient sums to %v, want 0", row, sum)
		}
	}
	// The target class gradient is negative, pushing its logit up.
	if data[1] >= 0 {
		t.Fatalf("target class gradient %v, want negative", data[1])
	}
}

func TestGradientDescentConverges(t *testing.T) {
	b := newTestBackend()
	b.Tape().StartRecording()

	// Minimize (x0 - 3)^2 + (x1 + 2)^2 from the origin.
	x := fromFloat32(t, b, []float32{0, 0}, tensor.Shape{2})
	target := fromFloat32(t, b, []float32{3, -2}, tensor.Shape{2})

	const lr = 0.1
	for step := 0; step < 50; step++ {
		diff := x.Sub(target)
		loss := diff.Mul(diff).Sum()

		if err := Backward(loss); err != nil {
			t.Fatalf("step %d: %v", step, err)
		}

		grad := Grad(x).Data()
		b.Tape().Clear()
		b.ZeroGrad()

		data := x.Data()
		for i := range data {
			data[i] -= lr * grad[i]
		}
	}

	assertFloat32Near(t, x.Data(), []float32{3, -2}, 1e-3)
}
