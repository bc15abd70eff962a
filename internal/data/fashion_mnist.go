package data

import (
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/quill-ml/quill/internal/tensor"
)

// FashionMNISTClasses maps label indices to their class names.
var FashionMNISTClasses = [10]string{
	"T-shirt/top",
	"Trouser",
	"Pullover",
	"Dress",
	"Coat",
	"Sandal",
	"Shirt",
	"Sneaker",
	"Bag",
	"Ankle boot",
}

// IDX magic numbers for unsigned byte tensors of rank 3 and 1.
const (
	idxImagesMagic = 0x00000803
	idxLabelsMagic = 0x00000801
)

// FashionMNIST serves 28x28 grayscale clothing images from a pair of
// IDX files. Pixels are loaded eagerly as raw bytes and converted to
// [1, 28, 28] float32 tensors in [0, 1] on access.
type FashionMNIST struct {
	pixels     []byte
	labels     []byte
	rows, cols int
	transform  Transform
}

// OpenFashionMNIST reads an images/labels IDX file pair. Files ending
// in .gz are decompressed transparently. transform may be nil.
func OpenFashionMNIST(imagesPath, labelsPath string, transform Transform) (*FashionMNIST, error) {
	pixels, rows, cols, err := readIDXImages(imagesPath)
	if err != nil {
		return nil, fmt.Errorf("reading images: %w", err)
	}
	labels, err := readIDXLabels(labelsPath)
	if err != nil {
		return nil, fmt.Errorf("reading labels: %w", err)
	}

	imageSize := rows * cols
	if len(pixels)/imageSize != len(labels) {
		return nil, fmt.Errorf("image count %d does not match label count %d", len(pixels)/imageSize, len(labels))
	}

	return &FashionMNIST{
		pixels:    pixels,
		labels:    labels,
		rows:      rows,
		cols:      cols,
		transform: transform,
	}, nil
}

// Len returns the number of images.
func (d *FashionMNIST) Len() int { return len(d.labels) }

// At returns the i-th image scaled to [0, 1], with the transform (if
// any) applied, and its label.
func (d *FashionMNIST) At(i int) (Sample, error) {
	if i < 0 || i >= len(d.labels) {
		return Sample{}, fmt.Errorf("sample index %d out of range [0, %d)", i, len(d.labels))
	}

	img, err := tensor.NewRaw(tensor.Shape{1, d.rows, d.cols}, tensor.Float32, tensor.CPU)
	if err != nil {
		return Sample{}, err
	}

	size := d.rows * d.cols
	src := d.pixels[i*size : (i+1)*size]
	dst := img.AsFloat32()
	for j, p := range src {
		dst[j] = float32(p) / 255
	}

	if d.transform != nil {
		img, err = d.transform.Apply(img)
		if err != nil {
			return Sample{}, err
		}
	}
	return Sample{Image: img, Label: int32(d.labels[i])}, nil
}

// ClassName returns the human-readable name of a label.
func (d *FashionMNIST) ClassName(label int32) string {
	if label < 0 || int(label) >= len(FashionMNISTClasses) {
		return "unknown"
	}
	return FashionMNISTClasses[label]
}

func openMaybeGzip(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(path, ".gz") {
		return f, nil
	}

	gz, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &gzipFile{gz: gz, f: f}, nil
}

type gzipFile struct {
	gz *gzip.Reader
	f  *os.File
}

func (g *gzipFile) Read(p []byte) (int, error) { return g.gz.Read(p) }

func (g *gzipFile) Close() error {
	gzErr := g.gz.Close()
	if err := g.f.Close(); err != nil {
		return err
	}
	return gzErr
}

func readIDXImages(path string) (pixels []byte, rows, cols int, err error) {
	r, err := openMaybeGzip(path)
	if err != nil {
		return nil, 0, 0, err
	}
	defer r.Close()

	var hdr [16]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, 0, 0, fmt.Errorf("reading IDX header: %w", err)
	}
	if magic := binary.BigEndian.Uint32(hdr[0:4]); magic != idxImagesMagic {
		return nil, 0, 0, fmt.Errorf("bad IDX image magic 0x%08x", magic)
	}

	count := int(binary.BigEndian.Uint32(hdr[4:8]))
	rows = int(binary.BigEndian.Uint32(hdr[8:12]))
	cols = int(binary.BigEndian.Uint32(hdr[12:16]))
	if count < 0 || rows <= 0 || cols <= 0 {
		return nil, 0, 0, fmt.Errorf("implausible IDX dimensions %dx%dx%d", count, rows, cols)
	}

	pixels = make([]byte, count*rows*cols)
	if _, err := io.ReadFull(r, pixels); err != nil {
		return nil, 0, 0, fmt.Errorf("reading %d images: %w", count, err)
	}
	return pixels, rows, cols, nil
}

func readIDXLabels(path string) ([]byte, error) {
	r, err := openMaybeGzip(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var hdr [8]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, fmt.Errorf("reading IDX header: %w", err)
	}
	if magic := binary.BigEndian.Uint32(hdr[0:4]); magic != idxLabelsMagic {
		return nil, fmt.Errorf("bad IDX label magic 0x%08x", magic)
	}

	count := int(binary.BigEndian.Uint32(hdr[4:8]))
	labels := make([]byte, count)
	if _, err := io.ReadFull(r, labels); err != nil {
		return nil, fmt.Errorf("reading %d labels: %w", count, err)
	}
	return labels, nil
}
