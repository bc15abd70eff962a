// Package serialization reads and writes the .quill checkpoint format.
//
// Layout of a .quill file:
//
//	[64B fixed header] [JSON metadata] [padding] [tensor data]
//
// The header carries the magic, format version, metadata size, data
// size and a SHA-256 digest of the data section. The JSON metadata is a
// table of named tensors (dtype, shape, offset, size) plus optional
// training state (epoch, step, loss, optimizer). Tensor data is raw
// little-endian element bytes, each tensor aligned to 64 bytes from the
// start of the data section.
package serialization

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// Magic identifies a .quill checkpoint file.
	Magic = "QUIL"

	// Version is the current format version.
	Version = 1

	headerSize    = 64
	dataAlignment = 64
)

// Typed errors callers can match with errors.Is.
var (
	ErrInvalidMagic       = errors.New("not a quill checkpoint file")
	ErrUnsupportedVersion = errors.New("unsupported checkpoint version")
	ErrChecksum           = errors.New("checkpoint data corrupted (checksum mismatch)")
	ErrTensorNotFound     = errors.New("tensor not found in checkpoint")
)

// TensorEntry describes one tensor in the metadata table. Offset and
// Size locate its bytes within the data section.
type TensorEntry struct {
	Name   string `json:"name"`
	DType  string `json:"dtype"`
	Shape  []int  `json:"shape"`
	Offset uint64 `json:"offset"`
	Size   uint64 `json:"size"`
}

// CheckpointMeta is optional training state stored alongside tensors.
type CheckpointMeta struct {
	Epoch     int     `json:"epoch"`
	Step      int64   `json:"step"`
	Loss      float64 `json:"loss"`
	Optimizer string  `json:"optimizer,omitempty"`
}

// metadata is the JSON document between the header and the data.
type metadata struct {
	Tensors    []TensorEntry   `json:"tensors"`
	Checkpoint *CheckpointMeta `json:"checkpoint,omitempty"`
}

// header is the fixed-size preamble.
type header struct {
	version  uint32
	flags    uint32
	metaSize uint64
	dataSize uint64
	checksum [32]byte
}

func (h *header) encode() []byte {
	buf := make([]byte, headerSize)
	copy(buf[0:4], Magic)
	binary.LittleEndian.PutUint32(buf[4:8], h.version)
	binary.LittleEndian.PutUint32(buf[8:12], h.flags)
	binary.LittleEndian.PutUint64(buf[12:20], h.metaSize)
	binary.LittleEndian.PutUint64(buf[20:28], h.dataSize)
	copy(buf[28:60], h.checksum[:])
	return buf
}

func decodeHeader(buf []byte) (*header, error) {
	if len(buf) < headerSize {
		return nil, fmt.Errorf("%w: file too short", ErrInvalidMagic)
	}
	if string(buf[0:4]) != Magic {
		return nil, ErrInvalidMagic
	}

	h := &header{
		version:  binary.LittleEndian.Uint32(buf[4:8]),
		flags:    binary.LittleEndian.Uint32(buf[8:12]),
		metaSize: binary.LittleEndian.Uint64(buf[12:20]),
		dataSize: binary.LittleEndian.Uint64(buf[20:28]),
	}
	copy(h.checksum[:], buf[28:60])

	if h.version != Version {
		return nil, fmt.Errorf("%w: got version %d, support version %d", ErrUnsupportedVersion, h.version, Version)
	}
	return h, nil
}

// alignUp rounds n up to the next multiple of dataAlignment.
func alignUp(n uint64) uint64 {
	return (n + dataAlignment - 1) &^ (dataAlignment - 1)
}
