package data

import (
	"encoding/csv"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strconv"

	"github.com/quill-ml/quill/internal/tensor"
)

// CSVImageDataset serves images listed in an annotations CSV with rows
// of the form "filename,label". Image files are PNGs resolved against a
// root directory and decoded lazily on access, so arbitrarily large
// datasets only cost memory per batch.
type CSVImageDataset struct {
	root            string
	entries         []csvEntry
	transform       Transform
	targetTransform TargetTransform
}

type csvEntry struct {
	file  string
	label int32
}

// OpenCSVImageDataset parses the annotations file. transform and
// targetTransform may be nil.
func OpenCSVImageDataset(annotationsPath, imageRoot string, transform Transform, targetTransform TargetTransform) (*CSVImageDataset, error) {
	f, err := os.Open(annotationsPath)
	if err != nil {
		return nil, fmt.Errorf("opening annotations: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 2

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing annotations: %w", err)
	}

	entries := make([]csvEntry, 0, len(records))
	for i, rec := range records {
		label, err := strconv.ParseInt(rec[1], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("row %d: label %q is not an integer", i+1, rec[1])
		}
		entries = append(entries, csvEntry{file: rec[0], label: int32(label)})
	}

	return &CSVImageDataset{
		root:            imageRoot,
		entries:         entries,
		transform:       transform,
		targetTransform: targetTransform,
	}, nil
}

// Len returns the number of annotated images.
func (d *CSVImageDataset) Len() int { return len(d.entries) }

// At decodes the i-th image into a [1, H, W] grayscale float32 tensor
// in [0, 1] and applies the transform, if any.
func (d *CSVImageDataset) At(i int) (Sample, error) {
	if i < 0 || i >= len(d.entries) {
		return Sample{}, fmt.Errorf("sample index %d out of range [0, %d)", i, len(d.entries))
	}
	entry := d.entries[i]

	img, err := decodePNGGray(filepath.Join(d.root, entry.file))
	if err != nil {
		return Sample{}, fmt.Errorf("image %q: %w", entry.file, err)
	}

	if d.transform != nil {
		img, err = d.transform.Apply(img)
		if err != nil {
			return Sample{}, err
		}
	}

	var target *tensor.RawTensor
	if d.targetTransform != nil {
		target, err = d.targetTransform(entry.label)
		if err != nil {
			return Sample{}, fmt.Errorf("label %d: %w", entry.label, err)
		}
	}
	return Sample{Image: img, Label: entry.label, Target: target}, nil
}

func decodePNGGray(path string) (*tensor.RawTensor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	src, err := png.Decode(f)
	if err != nil {
		return nil, err
	}

	bounds := src.Bounds()
	h, w := bounds.Dy(), bounds.Dx()
	out, err := tensor.NewRaw(tensor.Shape{1, h, w}, tensor.Float32, tensor.CPU)
	if err != nil {
		return nil, err
	}

	gray := image.NewGray(bounds)
	data := out.AsFloat32()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			gray.Set(bounds.Min.X+x, bounds.Min.Y+y, src.At(bounds.Min.X+x, bounds.Min.Y+y))
			data[y*w+x] = float32(gray.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y) / 255
		}
	}
	return out, nil
}
