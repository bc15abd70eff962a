package nn

import (
	"path/filepath"
	"testing"

	"github.com/quill-ml/quill/internal/backend/cpu"
	"github.com/quill-ml/quill/internal/serialization"
	"github.com/quill-ml/quill/internal/tensor"
)

func TestCheckpointRoundTrip(t *testing.T) {
	b := cpu.New()
	src := newMLP(t, b)
	path := filepath.Join(t.TempDir(), "model.quill")

	meta := &serialization.CheckpointMeta{Epoch: 3, Step: 900, Loss: 1.25}
	if err := SaveCheckpoint(path, src, meta); err != nil {
		t.Fatalf("SaveCheckpoint: %v", err)
	}

	dst := newMLP(t, b)
	got, err := LoadCheckpoint(path, dst)
	if err != nil {
		t.Fatalf("LoadCheckpoint: %v", err)
	}
	if got == nil || got.Epoch != 3 || got.Loss != 1.25 {
		t.Fatalf("meta: got %+v", got)
	}

	x := fromFloat32(t, b, []float32{0.5, -1, 2, 0}, tensor.Shape{1, 4})
	assertNear(t, dst.Forward(x).Data(), src.Forward(x).Data(), 1e-6)
}

func TestLoadCheckpointArchitectureMismatch(t *testing.T) {
	b := cpu.New()
	src := newMLP(t, b)
	path := filepath.Join(t.TempDir(), "model.quill")

	if err := SaveCheckpoint(path, src, nil); err != nil {
		t.Fatalf("SaveCheckpoint: %v", err)
	}

	wrong, err := NewLinear(4, 8, b)
	if err != nil {
		t.Fatalf("NewLinear: %v", err)
	}
	if _, err := LoadCheckpoint(path, wrong); err == nil {
		t.Fatal("expected an error loading into a different architecture")
	}
}
