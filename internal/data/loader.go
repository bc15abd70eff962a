package data

import (
	"errors"
	"fmt"
	"io"
	"math/rand"

	"github.com/quill-ml/quill/internal/parallel"
	"github.com/quill-ml/quill/internal/tensor"
)

// Batch is a stacked slice of a dataset: images [N, ...] float32 and
// labels [N] int32.
type Batch struct {
	Images *tensor.RawTensor
	Labels *tensor.RawTensor
	Size   int
}

// LoaderConfig configures batching behavior.
type LoaderConfig struct {
	// BatchSize is the number of samples per batch. Required.
	BatchSize int

	// Shuffle reorders samples on every Reset.
	Shuffle bool

	// Seed fixes the shuffle order. Ignored when Shuffle is false.
	Seed int64

	// DropLast discards a final batch smaller than BatchSize.
	DropLast bool

	// Parallel controls the per-batch sample fetch workers. The zero
	// value means parallel.DefaultConfig.
	Parallel parallel.Config
}

// Loader iterates a Dataset in batches. Samples within a batch are
// fetched concurrently, which pays off for datasets that decode on
// access.
//
//	loader := data.NewLoader(ds, data.LoaderConfig{BatchSize: 64, Shuffle: true})
//	for {
//		batch, err := loader.Next()
//		if errors.Is(err, io.EOF) {
//			break
//		}
//		...
//	}
type Loader struct {
	ds   Dataset
	cfg  LoaderConfig
	rng  *rand.Rand
	perm []int
	pos  int
}

// NewLoader creates a loader over ds and positions it at the first
// batch.
func NewLoader(ds Dataset, cfg LoaderConfig) (*Loader, error) {
	if cfg.BatchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", cfg.BatchSize)
	}
	if cfg.Parallel == (parallel.Config{}) {
		cfg.Parallel = parallel.DefaultConfig()
		// Fetching one sample may decode a whole image, so fan out even
		// for small batches; the kernel-oriented default chunk size
		// would serialize every batch up to its own size.
		cfg.Parallel.MinChunkSize = 1
	}

	l := &Loader{
		ds:  ds,
		cfg: cfg,
		rng: rand.New(rand.NewSource(cfg.Seed)),
	}
	l.Reset()
	return l, nil
}

// NumBatches returns how many batches one pass over the dataset
// yields.
func (l *Loader) NumBatches() int {
	n := l.ds.Len() / l.cfg.BatchSize
	if !l.cfg.DropLast && l.ds.Len()%l.cfg.BatchSize != 0 {
		n++
	}
	return n
}

// Reset rewinds to the first batch, reshuffling when configured.
func (l *Loader) Reset() {
	n := l.ds.Len()
	if l.perm == nil {
		l.perm = make([]int, n)
		for i := range l.perm {
			l.perm[i] = i
		}
	}
	if l.cfg.Shuffle {
		l.rng.Shuffle(n, func(i, j int) {
			l.perm[i], l.perm[j] = l.perm[j], l.perm[i]
		})
	}
	l.pos = 0
}

// Next returns the next batch, or io.EOF after the last one. The final
// batch may be smaller than BatchSize unless DropLast is set.
func (l *Loader) Next() (*Batch, error) {
	remaining := l.ds.Len() - l.pos
	if remaining <= 0 {
		return nil, io.EOF
	}

	n := l.cfg.BatchSize
	if remaining < n {
		if l.cfg.DropLast {
			return nil, io.EOF
		}
		n = remaining
	}

	indices := l.perm[l.pos : l.pos+n]
	l.pos += n

	// The first sample fixes the batch layout.
	first, err := l.ds.At(indices[0])
	if err != nil {
		return nil, fmt.Errorf("sample %d: %w", indices[0], err)
	}
	sampleShape := first.Image.Shape()
	sampleSize := sampleShape.NumElements()

	images, err := tensor.NewRaw(append(tensor.Shape{n}, sampleShape...), tensor.Float32, tensor.CPU)
	if err != nil {
		return nil, err
	}
	labels, err := tensor.NewRaw(tensor.Shape{n}, tensor.Int32, tensor.CPU)
	if err != nil {
		return nil, err
	}

	imgData := images.AsFloat32()
	labelData := labels.AsInt32()
	errs := make([]error, n)

	fill := func(j int, s Sample) {
		if !s.Image.Shape().Equal(sampleShape) {
			errs[j] = fmt.Errorf("sample %d shape %v differs from batch shape %v", indices[j], s.Image.Shape(), sampleShape)
			return
		}
		copy(imgData[j*sampleSize:(j+1)*sampleSize], s.Image.AsFloat32())
		labelData[j] = s.Label
	}

	fill(0, first)
	parallel.For(n-1, func(k int) {
		j := k + 1
		s, err := l.ds.At(indices[j])
		if err != nil {
			errs[j] = fmt.Errorf("sample %d: %w", indices[j], err)
			return
		}
		fill(j, s)
	}, l.cfg.Parallel)

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return &Batch{Images: images, Labels: labels, Size: n}, nil
}
