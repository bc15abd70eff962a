package serialization

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/quill-ml/quill/internal/tensor"
)

// Save writes named tensors and optional training state to path,
// creating or truncating the file. Meta may be nil.
func Save(path string, tensors map[string]*tensor.RawTensor, meta *CheckpointMeta) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating checkpoint: %w", err)
	}

	if err := Write(f, tensors, meta); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Write streams a checkpoint to w. Tensors are laid out in sorted name
// order so identical state always produces identical bytes.
func Write(w io.Writer, tensors map[string]*tensor.RawTensor, meta *CheckpointMeta) error {
	names := make([]string, 0, len(tensors))
	for name := range tensors {
		names = append(names, name)
	}
	sort.Strings(names)

	entries := make([]TensorEntry, 0, len(names))
	var offset uint64
	for _, name := range names {
		t := tensors[name]
		offset = alignUp(offset)
		entries = append(entries, TensorEntry{
			Name:   name,
			DType:  t.DType().String(),
			Shape:  t.Shape().Clone(),
			Offset: offset,
			Size:   uint64(t.ByteSize()),
		})
		offset += uint64(t.ByteSize())
	}
	dataSize := offset

	data := make([]byte, dataSize)
	for i, name := range names {
		entry := entries[i]
		copy(data[entry.Offset:entry.Offset+entry.Size], tensors[name].Data())
	}

	metaJSON, err := json.Marshal(metadata{Tensors: entries, Checkpoint: meta})
	if err != nil {
		return fmt.Errorf("encoding checkpoint metadata: %w", err)
	}

	h := header{
		version:  Version,
		metaSize: uint64(len(metaJSON)),
		dataSize: dataSize,
		checksum: sha256.Sum256(data),
	}

	if _, err := w.Write(h.encode()); err != nil {
		return fmt.Errorf("writing checkpoint header: %w", err)
	}
	if _, err := w.Write(metaJSON); err != nil {
		return fmt.Errorf("writing checkpoint metadata: %w", err)
	}

	// Pad so the data section starts 64-byte aligned.
	dataStart := alignUp(headerSize + uint64(len(metaJSON)))
	if pad := dataStart - headerSize - uint64(len(metaJSON)); pad > 0 {
		if _, err := w.Write(make([]byte, pad)); err != nil {
			return fmt.Errorf("writing checkpoint padding: %w", err)
		}
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing checkpoint data: %w", err)
	}
	return nil
}
