package serialization

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"

	"github.com/quill-ml/quill/internal/tensor"
)

// File is a fully decoded checkpoint.
type File struct {
	tensors map[string]*tensor.RawTensor
	meta    *CheckpointMeta
}

// Load reads and verifies a checkpoint from path.
func Load(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading checkpoint: %w", err)
	}
	return Decode(raw)
}

// Decode parses checkpoint bytes, verifying the data checksum.
func Decode(raw []byte) (*File, error) {
	h, err := decodeHeader(raw)
	if err != nil {
		return nil, err
	}

	// Size fields come from the wire; compare against the remaining
	// length instead of summing, so oversized values cannot wrap.
	size := uint64(len(raw))
	if h.metaSize > size-headerSize {
		return nil, fmt.Errorf("%w: metadata size exceeds file", ErrInvalidMagic)
	}
	metaEnd := headerSize + h.metaSize
	dataStart := alignUp(metaEnd)
	if dataStart > size || h.dataSize > size-dataStart {
		return nil, fmt.Errorf("%w: truncated file", ErrInvalidMagic)
	}

	var meta metadata
	if err := json.Unmarshal(raw[headerSize:metaEnd], &meta); err != nil {
		return nil, fmt.Errorf("decoding checkpoint metadata: %w", err)
	}

	data := raw[dataStart : dataStart+h.dataSize]
	if sha256.Sum256(data) != h.checksum {
		return nil, ErrChecksum
	}

	tensors := make(map[string]*tensor.RawTensor, len(meta.Tensors))
	for _, entry := range meta.Tensors {
		dtype, ok := tensor.ParseDataType(entry.DType)
		if !ok {
			return nil, fmt.Errorf("tensor %q has unknown dtype %q", entry.Name, entry.DType)
		}

		t, err := tensor.NewRaw(tensor.Shape(entry.Shape), dtype, tensor.CPU)
		if err != nil {
			return nil, fmt.Errorf("tensor %q: %w", entry.Name, err)
		}
		if entry.Offset > h.dataSize || entry.Size > h.dataSize-entry.Offset || int(entry.Size) != t.ByteSize() {
			return nil, fmt.Errorf("tensor %q has inconsistent data bounds", entry.Name)
		}

		copy(t.Data(), data[entry.Offset:entry.Offset+entry.Size])
		tensors[entry.Name] = t
	}

	return &File{tensors: tensors, meta: meta.Checkpoint}, nil
}

// Tensor returns the named tensor.
func (f *File) Tensor(name string) (*tensor.RawTensor, error) {
	t, ok := f.tensors[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrTensorNotFound, name)
	}
	return t, nil
}

// Tensors returns all tensors keyed by name.
func (f *File) Tensors() map[string]*tensor.RawTensor { return f.tensors }

// Names returns the stored tensor names in unspecified order.
func (f *File) Names() []string {
	names := make([]string, 0, len(f.tensors))
	for name := range f.tensors {
		names = append(names, name)
	}
	return names
}

// Meta returns the stored training state, or nil if none was saved.
func (f *File) Meta() *CheckpointMeta { return f.meta }
