package data

import (
	"compress/gzip"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

// writeIDX writes a minimal IDX image/label pair with count 2x2 images
// whose pixels are (index*10 + position).
func writeIDX(t *testing.T, dir string, count int, gzipped bool) (imagesPath, labelsPath string) {
	t.Helper()

	images := make([]byte, 16+count*4)
	binary.BigEndian.PutUint32(images[0:4], idxImagesMagic)
	binary.BigEndian.PutUint32(images[4:8], uint32(count))
	binary.BigEndian.PutUint32(images[8:12], 2)
	binary.BigEndian.PutUint32(images[12:16], 2)
	for i := 0; i < count; i++ {
		for p := 0; p < 4; p++ {
			images[16+i*4+p] = byte(i*10 + p)
		}
	}

	labels := make([]byte, 8+count)
	binary.BigEndian.PutUint32(labels[0:4], idxLabelsMagic)
	binary.BigEndian.PutUint32(labels[4:8], uint32(count))
	for i := 0; i < count; i++ {
		labels[8+i] = byte(i % 10)
	}

	write := func(name string, payload []byte) string {
		path := filepath.Join(dir, name)
		if gzipped {
			path += ".gz"
			f, err := os.Create(path)
			if err != nil {
				t.Fatalf("Create: %v", err)
			}
			gz := gzip.NewWriter(f)
			if _, err := gz.Write(payload); err != nil {
				t.Fatalf("gzip write: %v", err)
			}
			if err := gz.Close(); err != nil {
				t.Fatalf("gzip close: %v", err)
			}
			if err := f.Close(); err != nil {
				t.Fatalf("close: %v", err)
			}
			return path
		}
		if err := os.WriteFile(path, payload, 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
		return path
	}

	return write("images-idx3-ubyte", images), write("labels-idx1-ubyte", labels)
}

func TestFashionMNISTLoads(t *testing.T) {
	imagesPath, labelsPath := writeIDX(t, t.TempDir(), 3, false)

	ds, err := OpenFashionMNIST(imagesPath, labelsPath, nil)
	if err != nil {
		t.Fatalf("OpenFashionMNIST: %v", err)
	}
	if ds.Len() != 3 {
		t.Fatalf("Len: got %d, want 3", ds.Len())
	}

	s, err := ds.At(1)
	if err != nil {
		t.Fatalf("At: %v", err)
	}
	if s.Label != 1 {
		t.Fatalf("label: got %d, want 1", s.Label)
	}
	if got := s.Image.Shape(); len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != 2 {
		t.Fatalf("image shape: got %v, want [1 2 2]", got)
	}

	// Pixel 10 scaled by 255.
	if got, want := s.Image.AsFloat32()[0], float32(10)/255; got != want {
		t.Fatalf("pixel: got %v, want %v", got, want)
	}
}

func TestFashionMNISTGzip(t *testing.T) {
	imagesPath, labelsPath := writeIDX(t, t.TempDir(), 2, true)

	ds, err := OpenFashionMNIST(imagesPath, labelsPath, nil)
	if err != nil {
		t.Fatalf("OpenFashionMNIST: %v", err)
	}
	if ds.Len() != 2 {
		t.Fatalf("Len: got %d, want 2", ds.Len())
	}
}

func TestFashionMNISTBadMagic(t *testing.T) {
	dir := t.TempDir()
	imagesPath, labelsPath := writeIDX(t, dir, 1, false)

	// Corrupt the image magic.
	raw, err := os.ReadFile(imagesPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	raw[3] = 0xFF
	if err := os.WriteFile(imagesPath, raw, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := OpenFashionMNIST(imagesPath, labelsPath, nil); err == nil {
		t.Fatal("expected an error for a bad magic")
	}
}

func TestFashionMNISTCountMismatch(t *testing.T) {
	dir := t.TempDir()
	imagesPath, _ := writeIDX(t, dir, 2, false)
	sub := filepath.Join(dir, "other")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	_, labelsPath := writeIDX(t, sub, 3, false)

	if _, err := OpenFashionMNIST(imagesPath, labelsPath, nil); err == nil {
		t.Fatal("expected an error for mismatched counts")
	}
}

func TestFashionMNISTTransform(t *testing.T) {
	imagesPath, labelsPath := writeIDX(t, t.TempDir(), 1, false)

	ds, err := OpenFashionMNIST(imagesPath, labelsPath, Normalize{Mean: 0.5, Std: 0.5})
	if err != nil {
		t.Fatalf("OpenFashionMNIST: %v", err)
	}
	s, err := ds.At(0)
	if err != nil {
		t.Fatalf("At: %v", err)
	}
	// Pixel 0 maps to (0 - 0.5) / 0.5 = -1.
	if got := s.Image.AsFloat32()[0]; got != -1 {
		t.Fatalf("normalized pixel: got %v, want -1", got)
	}
}

func TestClassNames(t *testing.T) {
	ds := &FashionMNIST{labels: []byte{0}}
	if got := ds.ClassName(9); got != "Ankle boot" {
		t.Fatalf("class 9: got %q", got)
	}
	if got := ds.ClassName(42); got != "unknown" {
		t.Fatalf("class 42: got %q", got)
	}
}
