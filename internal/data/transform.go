package data

import (
	"fmt"

	"github.com/quill-ml/quill/internal/tensor"
)

// Transform maps an image tensor to a new image tensor. Transforms run
// inside the loader's fetch workers, so they must be safe for
// concurrent use.
type Transform interface {
	Apply(img *tensor.RawTensor) (*tensor.RawTensor, error)
}

// Compose chains transforms left to right.
type Compose []Transform

// Apply runs every transform in order.
func (c Compose) Apply(img *tensor.RawTensor) (*tensor.RawTensor, error) {
	out := img
	var err error
	for i, t := range c {
		out, err = t.Apply(out)
		if err != nil {
			return nil, fmt.Errorf("transform %d: %w", i, err)
		}
	}
	return out, nil
}

// Normalize shifts and scales every element: (x - Mean) / Std.
type Normalize struct {
	Mean float32
	Std  float32
}

// Apply normalizes a float32 tensor out of place.
func (n Normalize) Apply(img *tensor.RawTensor) (*tensor.RawTensor, error) {
	if img.DType() != tensor.Float32 {
		return nil, fmt.Errorf("normalize expects float32, got %s", img.DType())
	}
	if n.Std == 0 {
		return nil, fmt.Errorf("normalize std must be non-zero")
	}

	out, err := tensor.NewRaw(img.Shape(), tensor.Float32, img.Device())
	if err != nil {
		return nil, err
	}
	src, dst := img.AsFloat32(), out.AsFloat32()
	for i, v := range src {
		dst[i] = (v - n.Mean) / n.Std
	}
	return out, nil
}

// TargetTransform maps a class label to a target tensor. Like
// Transform it runs inside the loader's fetch workers and must be safe
// for concurrent use.
type TargetTransform func(label int32) (*tensor.RawTensor, error)

// OneHotTarget returns a TargetTransform that one-hot encodes labels.
func OneHotTarget(classes int) TargetTransform {
	return func(label int32) (*tensor.RawTensor, error) {
		return OneHot(label, classes)
	}
}

// OneHot encodes a class index as a float32 vector with a single 1.
func OneHot(label int32, classes int) (*tensor.RawTensor, error) {
	if label < 0 || int(label) >= classes {
		return nil, fmt.Errorf("label %d out of range for %d classes", label, classes)
	}
	out, err := tensor.NewRaw(tensor.Shape{classes}, tensor.Float32, tensor.CPU)
	if err != nil {
		return nil, err
	}
	out.AsFloat32()[label] = 1
	return out, nil
}
