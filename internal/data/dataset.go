// Package data provides datasets and a batching loader for training.
// A Dataset is random access over individual samples; a Loader turns it
// into shuffled, batched tensors.
package data

import (
	"fmt"

	"github.com/quill-ml/quill/internal/tensor"
)

// Sample is one labeled example: a float32 image tensor and its class.
// Target is only set by datasets configured with a TargetTransform and
// holds the transformed label, for example a one-hot vector.
type Sample struct {
	Image  *tensor.RawTensor
	Label  int32
	Target *tensor.RawTensor
}

// Dataset is random access over samples. At may be called from
// multiple goroutines concurrently.
type Dataset interface {
	Len() int
	At(i int) (Sample, error)
}

// SliceDataset serves pre-built samples from memory. Useful for tests
// and synthetic data.
type SliceDataset struct {
	Samples []Sample
}

// Len returns the number of samples.
func (d *SliceDataset) Len() int { return len(d.Samples) }

// At returns the i-th sample.
func (d *SliceDataset) At(i int) (Sample, error) {
	if i < 0 || i >= len(d.Samples) {
		return Sample{}, fmt.Errorf("sample index %d out of range [0, %d)", i, len(d.Samples))
	}
	return d.Samples[i], nil
}
