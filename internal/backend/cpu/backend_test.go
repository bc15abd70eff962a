package cpu

import (
	"math"
	"testing"

	"github.com/quill-ml/quill/internal/tensor"
)

func newTestBackend() *Backend {
	return New()
}

func rawFromFloat32(t *testing.T, data []float32, shape tensor.Shape) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.NewRaw(shape, tensor.Float32, tensor.CPU)
	if err != nil {
		t.Fatalf("NewRaw failed: %v", err)
	}
	copy(raw.AsFloat32(), data)
	return raw
}

func float32SliceEqual(a, b []float32) bool {
	const epsilon = 1e-5
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Abs(float64(a[i]-b[i])) > epsilon {
			return false
		}
	}
	return true
}

func TestBackendNew(t *testing.T) {
	backend := New()
	if backend.Name() != "CPU" {
		t.Errorf("Name() = %q, want CPU", backend.Name())
	}
	if backend.Device() != tensor.CPU {
		t.Errorf("Device() = %v, want CPU", backend.Device())
	}
}

func TestAddSameShape(t *testing.T) {
	backend := newTestBackend()

	a := rawFromFloat32(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	b := rawFromFloat32(t, []float32{10, 20, 30, 40}, tensor.Shape{2, 2})

	result := backend.Add(a, b)
	if !float32SliceEqual(result.AsFloat32(), []float32{11, 22, 33, 44}) {
		t.Errorf("Add = %v", result.AsFloat32())
	}
}

func TestAddInplaceWhenUnique(t *testing.T) {
	backend := newTestBackend()

	a := rawFromFloat32(t, []float32{1, 2}, tensor.Shape{2})
	b := rawFromFloat32(t, []float32{3, 4}, tensor.Shape{2})

	result := backend.Add(a, b)
	if result != a {
		t.Error("Add should reuse a uniquely-owned left operand")
	}
}

func TestAddRespectsSharedBuffers(t *testing.T) {
	backend := newTestBackend()

	a := rawFromFloat32(t, []float32{1, 2}, tensor.Shape{2})
	b := rawFromFloat32(t, []float32{3, 4}, tensor.Shape{2})

	pinned := a.Clone() // a is no longer unique
	result := backend.Add(a, b)

	if result == a {
		t.Error("Add must not write in place while the buffer is shared")
	}
	if !float32SliceEqual(pinned.AsFloat32(), []float32{1, 2}) {
		t.Errorf("shared buffer was modified: %v", pinned.AsFloat32())
	}
}

func TestAddBroadcast(t *testing.T) {
	backend := newTestBackend()

	a := rawFromFloat32(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	row := rawFromFloat32(t, []float32{10, 20, 30}, tensor.Shape{1, 3})

	result := backend.Add(a, row)
	if !result.Shape().Equal(tensor.Shape{2, 3}) {
		t.Fatalf("broadcast shape = %v", result.Shape())
	}
	if !float32SliceEqual(result.AsFloat32(), []float32{11, 22, 33, 14, 25, 36}) {
		t.Errorf("broadcast Add = %v", result.AsFloat32())
	}
}

func TestSubMulDiv(t *testing.T) {
	backend := newTestBackend()

	a := rawFromFloat32(t, []float32{10, 20, 30}, tensor.Shape{3})
	b := rawFromFloat32(t, []float32{2, 4, 5}, tensor.Shape{3})

	if got := backend.Sub(a.Clone(), b).AsFloat32(); !float32SliceEqual(got, []float32{8, 16, 25}) {
		t.Errorf("Sub = %v", got)
	}
	if got := backend.Mul(a.Clone(), b).AsFloat32(); !float32SliceEqual(got, []float32{20, 80, 150}) {
		t.Errorf("Mul = %v", got)
	}
	if got := backend.Div(a.Clone(), b).AsFloat32(); !float32SliceEqual(got, []float32{5, 5, 6}) {
		t.Errorf("Div = %v", got)
	}
}

func TestMatMul(t *testing.T) {
	backend := newTestBackend()

	a := rawFromFloat32(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	b := rawFromFloat32(t, []float32{7, 8, 9, 10, 11, 12}, tensor.Shape{3, 2})

	result := backend.MatMul(a, b)
	if !result.Shape().Equal(tensor.Shape{2, 2}) {
		t.Fatalf("MatMul shape = %v", result.Shape())
	}
	if !float32SliceEqual(result.AsFloat32(), []float32{58, 64, 139, 154}) {
		t.Errorf("MatMul = %v", result.AsFloat32())
	}
}

func TestMatMulIncompatiblePanics(t *testing.T) {
	backend := newTestBackend()

	a := rawFromFloat32(t, make([]float32, 6), tensor.Shape{2, 3})
	b := rawFromFloat32(t, make([]float32, 8), tensor.Shape{4, 2})

	defer func() {
		if recover() == nil {
			t.Error("MatMul should panic on inner-dimension mismatch")
		}
	}()
	backend.MatMul(a, b)
}

func TestReshapeIsView(t *testing.T) {
	backend := newTestBackend()

	a := rawFromFloat32(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	r := backend.Reshape(a, tensor.Shape{3, 2})

	if !r.Shape().Equal(tensor.Shape{3, 2}) {
		t.Fatalf("Reshape shape = %v", r.Shape())
	}

	// Views share the buffer.
	r.AsFloat32()[0] = 100
	if a.AsFloat32()[0] != 100 {
		t.Error("Reshape should return a view, not a copy")
	}
}

func TestTranspose2D(t *testing.T) {
	backend := newTestBackend()

	a := rawFromFloat32(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	tr := backend.Transpose(a)

	if !tr.Shape().Equal(tensor.Shape{3, 2}) {
		t.Fatalf("Transpose shape = %v", tr.Shape())
	}
	if !float32SliceEqual(tr.AsFloat32(), []float32{1, 4, 2, 5, 3, 6}) {
		t.Errorf("Transpose = %v", tr.AsFloat32())
	}
}

func TestScalarOps(t *testing.T) {
	backend := newTestBackend()

	a := rawFromFloat32(t, []float32{1, 4, 9}, tensor.Shape{3})

	if got := backend.AddScalar(a, 1).AsFloat32(); !float32SliceEqual(got, []float32{2, 5, 10}) {
		t.Errorf("AddScalar = %v", got)
	}
	if got := backend.MulScalar(a, 3).AsFloat32(); !float32SliceEqual(got, []float32{3, 12, 27}) {
		t.Errorf("MulScalar = %v", got)
	}
	if got := backend.Pow(a, 0.5).AsFloat32(); !float32SliceEqual(got, []float32{1, 2, 3}) {
		t.Errorf("Pow = %v", got)
	}
}

func TestMathOps(t *testing.T) {
	backend := newTestBackend()

	a := rawFromFloat32(t, []float32{0, 1, 2}, tensor.Shape{3})
	exp := backend.Exp(a)
	want := []float32{1, float32(math.E), float32(math.Exp(2))}
	if !float32SliceEqual(exp.AsFloat32(), want) {
		t.Errorf("Exp = %v, want %v", exp.AsFloat32(), want)
	}

	b := rawFromFloat32(t, []float32{1, 4, 16}, tensor.Shape{3})
	if got := backend.Sqrt(b).AsFloat32(); !float32SliceEqual(got, []float32{1, 2, 4}) {
		t.Errorf("Sqrt = %v", got)
	}
	if got := backend.Log(backend.Exp(a)).AsFloat32(); !float32SliceEqual(got, []float32{0, 1, 2}) {
		t.Errorf("Log(Exp(x)) = %v", got)
	}
}

func TestSoftmaxRows(t *testing.T) {
	backend := newTestBackend()

	a := rawFromFloat32(t, []float32{1, 2, 3, 3, 2, 1}, tensor.Shape{2, 3})
	s := backend.Softmax(a, 1)

	out := s.AsFloat32()
	for row := 0; row < 2; row++ {
		sum := float32(0)
		for col := 0; col < 3; col++ {
			sum += out[row*3+col]
		}
		if math.Abs(float64(sum-1)) > 1e-5 {
			t.Errorf("softmax row %d sums to %v", row, sum)
		}
	}
	// Symmetric inputs produce mirrored outputs.
	if math.Abs(float64(out[0]-out[5])) > 1e-6 {
		t.Errorf("softmax symmetry broken: %v vs %v", out[0], out[5])
	}
}

func TestSoftmaxLargeLogitsStable(t *testing.T) {
	backend := newTestBackend()

	a := rawFromFloat32(t, []float32{1000, 1001, 1002}, tensor.Shape{1, 3})
	s := backend.Softmax(a, 1)
	for _, v := range s.AsFloat32() {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			t.Fatalf("softmax overflowed: %v", s.AsFloat32())
		}
	}
}

func TestReductions(t *testing.T) {
	backend := newTestBackend()

	a := rawFromFloat32(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})

	if got := backend.Sum(a).AsFloat32()[0]; got != 21 {
		t.Errorf("Sum = %v, want 21", got)
	}
	if got := backend.Mean(a).AsFloat32()[0]; got != 3.5 {
		t.Errorf("Mean = %v, want 3.5", got)
	}

	rows := backend.SumDim(a, 1, false)
	if !rows.Shape().Equal(tensor.Shape{2}) {
		t.Fatalf("SumDim shape = %v", rows.Shape())
	}
	if !float32SliceEqual(rows.AsFloat32(), []float32{6, 15}) {
		t.Errorf("SumDim = %v", rows.AsFloat32())
	}

	cols := backend.MeanDim(a, 0, true)
	if !cols.Shape().Equal(tensor.Shape{1, 3}) {
		t.Fatalf("MeanDim shape = %v", cols.Shape())
	}
	if !float32SliceEqual(cols.AsFloat32(), []float32{2.5, 3.5, 4.5}) {
		t.Errorf("MeanDim = %v", cols.AsFloat32())
	}
}

func TestArgmax(t *testing.T) {
	backend := newTestBackend()

	a := rawFromFloat32(t, []float32{1, 9, 3, 8, 2, 4}, tensor.Shape{2, 3})
	idx := backend.Argmax(a, 1)

	got := idx.AsInt32()
	if got[0] != 1 || got[1] != 0 {
		t.Errorf("Argmax = %v, want [1 0]", got)
	}
}

func TestEqualAndGreater(t *testing.T) {
	backend := newTestBackend()

	a := rawFromFloat32(t, []float32{1, 2, 3}, tensor.Shape{3})
	b := rawFromFloat32(t, []float32{1, 5, 2}, tensor.Shape{3})

	eq := backend.Equal(a, b).AsBool()
	if !eq[0] || eq[1] || eq[2] {
		t.Errorf("Equal = %v", eq)
	}

	gt := backend.Greater(a, b).AsBool()
	if gt[0] || gt[1] || !gt[2] {
		t.Errorf("Greater = %v", gt)
	}
}

func TestCast(t *testing.T) {
	backend := newTestBackend()

	raw, err := tensor.NewRaw(tensor.Shape{3}, tensor.Uint8, tensor.CPU)
	if err != nil {
		t.Fatal(err)
	}
	copy(raw.AsUint8(), []uint8{0, 128, 255})

	f := backend.Cast(raw, tensor.Float32)
	if f.DType() != tensor.Float32 {
		t.Fatalf("Cast dtype = %s", f.DType())
	}
	if !float32SliceEqual(f.AsFloat32(), []float32{0, 128, 255}) {
		t.Errorf("Cast = %v", f.AsFloat32())
	}
}

func TestReLUSigmoidTanh(t *testing.T) {
	backend := newTestBackend()

	a := rawFromFloat32(t, []float32{-2, 0, 3}, tensor.Shape{3})

	if got := backend.ReLU(a).AsFloat32(); !float32SliceEqual(got, []float32{0, 0, 3}) {
		t.Errorf("ReLU = %v", got)
	}

	sig := backend.Sigmoid(a).AsFloat32()
	if math.Abs(float64(sig[1]-0.5)) > 1e-6 {
		t.Errorf("Sigmoid(0) = %v, want 0.5", sig[1])
	}
	if sig[0] >= 0.5 || sig[2] <= 0.5 {
		t.Errorf("Sigmoid ordering broken: %v", sig)
	}

	th := backend.Tanh(a).AsFloat32()
	if th[1] != 0 {
		t.Errorf("Tanh(0) = %v, want 0", th[1])
	}
}

func TestCrossEntropyUniformLogits(t *testing.T) {
	backend := newTestBackend()

	// Uniform logits over 4 classes: loss = ln(4) regardless of target.
	logits := rawFromFloat32(t, make([]float32, 8), tensor.Shape{2, 4})
	targets, err := tensor.NewRaw(tensor.Shape{2}, tensor.Int32, tensor.CPU)
	if err != nil {
		t.Fatal(err)
	}
	copy(targets.AsInt32(), []int32{0, 3})

	loss := backend.CrossEntropy(logits, targets).AsFloat32()[0]
	want := float32(math.Log(4))
	if math.Abs(float64(loss-want)) > 1e-5 {
		t.Errorf("CrossEntropy = %v, want %v", loss, want)
	}
}

func TestBCEWithLogitsZeroLogit(t *testing.T) {
	backend := newTestBackend()

	// Logit 0 with any target: loss = ln(2).
	logits := rawFromFloat32(t, []float32{0, 0}, tensor.Shape{2})
	targets := rawFromFloat32(t, []float32{0, 1}, tensor.Shape{2})

	loss := backend.BCEWithLogits(logits, targets).AsFloat32()[0]
	want := float32(math.Log(2))
	if math.Abs(float64(loss-want)) > 1e-5 {
		t.Errorf("BCEWithLogits = %v, want %v", loss, want)
	}
}
