// Copyright 2025 Quill ML Toolkit. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package data provides datasets, transforms and a batching loader.
//
// Example:
//
//	ds, _ := data.OpenFashionMNIST(imagesPath, labelsPath, nil)
//	loader, _ := data.NewLoader(ds, data.LoaderConfig{BatchSize: 64, Shuffle: true})
//	for {
//		batch, err := loader.Next()
//		if errors.Is(err, io.EOF) {
//			break
//		}
//		...
//	}
package data

import (
	"github.com/quill-ml/quill/internal/data"
	"github.com/quill-ml/quill/internal/tensor"
)

// Sample is one labeled example.
type Sample = data.Sample

// Dataset is random access over samples.
type Dataset = data.Dataset

// SliceDataset serves pre-built samples from memory.
type SliceDataset = data.SliceDataset

// Batch is a stacked slice of a dataset: images [N, ...] float32 and
// labels [N] int32.
type Batch = data.Batch

// Loader iterates a Dataset in shuffled batches, fetching samples
// concurrently. Next returns io.EOF after the last batch; Reset starts
// a new epoch.
type Loader = data.Loader

// LoaderConfig configures batching behavior.
type LoaderConfig = data.LoaderConfig

// NewLoader creates a loader over ds.
func NewLoader(ds Dataset, cfg LoaderConfig) (*Loader, error) {
	return data.NewLoader(ds, cfg)
}

// Datasets

// FashionMNIST serves 28x28 grayscale clothing images from IDX files.
type FashionMNIST = data.FashionMNIST

// FashionMNISTClasses maps label indices to class names.
var FashionMNISTClasses = data.FashionMNISTClasses

// OpenFashionMNIST reads an images/labels IDX file pair. Files ending
// in .gz are decompressed transparently.
func OpenFashionMNIST(imagesPath, labelsPath string, transform Transform) (*FashionMNIST, error) {
	return data.OpenFashionMNIST(imagesPath, labelsPath, transform)
}

// CSVImageDataset serves PNG images listed in an annotations CSV,
// decoded lazily on access.
type CSVImageDataset = data.CSVImageDataset

// OpenCSVImageDataset parses an annotations file with "filename,label"
// rows.
func OpenCSVImageDataset(annotationsPath, imageRoot string, transform Transform, targetTransform TargetTransform) (*CSVImageDataset, error) {
	return data.OpenCSVImageDataset(annotationsPath, imageRoot, transform, targetTransform)
}

// Transforms

// Transform maps an image tensor to a new image tensor.
type Transform = data.Transform

// Compose chains transforms left to right.
type Compose = data.Compose

// Normalize shifts and scales every element: (x - Mean) / Std.
type Normalize = data.Normalize

// TargetTransform maps a class label to a target tensor.
type TargetTransform = data.TargetTransform

// OneHotTarget returns a TargetTransform that one-hot encodes labels.
func OneHotTarget(classes int) TargetTransform {
	return data.OneHotTarget(classes)
}

// OneHot encodes a class index as a float32 vector with a single 1.
func OneHot(label int32, classes int) (*tensor.RawTensor, error) {
	return data.OneHot(label, classes)
}
