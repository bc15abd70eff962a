package serialization

import (
	"bytes"
	"crypto/sha256"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/quill-ml/quill/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func float32Tensor(t *testing.T, data []float32, shape tensor.Shape) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.NewRaw(shape, tensor.Float32, tensor.CPU)
	require.NoError(t, err)
	copy(raw.AsFloat32(), data)
	return raw
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.quill")

	weight := float32Tensor(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	bias := float32Tensor(t, []float32{0.1, -0.2}, tensor.Shape{2})
	meta := &CheckpointMeta{Epoch: 5, Step: 1200, Loss: 0.42, Optimizer: "sgd"}

	err := Save(path, map[string]*tensor.RawTensor{
		"linear.weight": weight,
		"linear.bias":   bias,
	}, meta)
	require.NoError(t, err)

	f, err := Load(path)
	require.NoError(t, err)

	got, err := f.Tensor("linear.weight")
	require.NoError(t, err)
	assert.True(t, got.Shape().Equal(tensor.Shape{2, 3}), "weight shape: %v", got.Shape())
	assert.Equal(t, weight.AsFloat32(), got.AsFloat32())

	require.NotNil(t, f.Meta())
	assert.Equal(t, 5, f.Meta().Epoch)
	assert.Equal(t, 0.42, f.Meta().Loss)
	assert.Equal(t, "sgd", f.Meta().Optimizer)
}

func TestDeterministicOutput(t *testing.T) {
	tensors := map[string]*tensor.RawTensor{
		"b": float32Tensor(t, []float32{1}, tensor.Shape{1}),
		"a": float32Tensor(t, []float32{2}, tensor.Shape{1}),
	}

	var first, second bytes.Buffer
	require.NoError(t, Write(&first, tensors, nil))
	require.NoError(t, Write(&second, tensors, nil))
	assert.Equal(t, first.Bytes(), second.Bytes(), "identical state produced different bytes")
}

func TestInvalidMagic(t *testing.T) {
	_, err := Decode([]byte("GGUF nonsense that is definitely long enough to hold a header...."))
	assert.ErrorIs(t, err, ErrInvalidMagic)

	_, err = Decode([]byte("QU"))
	assert.ErrorIs(t, err, ErrInvalidMagic, "short input")
}

func TestOversizedHeaderFields(t *testing.T) {
	// Size fields near MaxUint64 would wrap the bounds checks if they
	// were summed; both must decode to a typed error, not a panic.
	h := &header{version: Version, metaSize: math.MaxUint64 - 63}
	_, err := Decode(h.encode())
	assert.ErrorIs(t, err, ErrInvalidMagic, "oversized metaSize")

	h = &header{version: Version, dataSize: math.MaxUint64}
	_, err = Decode(h.encode())
	assert.ErrorIs(t, err, ErrInvalidMagic, "oversized dataSize")
}

func TestTensorEntryBoundsOverflow(t *testing.T) {
	// A tensor entry whose offset+size wraps past the data section must
	// be rejected even though the header and checksum are valid.
	metaJSON := []byte(`{"tensors":[{"name":"w","dtype":"float32","shape":[4],"offset":18446744073709551615,"size":16}]}`)
	data := make([]byte, 16)

	h := &header{
		version:  Version,
		metaSize: uint64(len(metaJSON)),
		dataSize: uint64(len(data)),
		checksum: sha256.Sum256(data),
	}
	buf := h.encode()
	buf = append(buf, metaJSON...)
	buf = append(buf, make([]byte, int(alignUp(uint64(len(buf))))-len(buf))...)
	buf = append(buf, data...)

	_, err := Decode(buf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "inconsistent data bounds")
}

func TestChecksumDetectsCorruption(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.quill")
	err := Save(path, map[string]*tensor.RawTensor{
		"w": float32Tensor(t, []float32{1, 2, 3, 4}, tensor.Shape{4}),
	}, nil)
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0xFF

	_, err = Decode(raw)
	assert.ErrorIs(t, err, ErrChecksum)
}

func TestTensorNotFound(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, map[string]*tensor.RawTensor{
		"w": float32Tensor(t, []float32{1}, tensor.Shape{1}),
	}, nil)
	require.NoError(t, err)

	f, err := Decode(buf.Bytes())
	require.NoError(t, err)

	_, err = f.Tensor("missing")
	assert.ErrorIs(t, err, ErrTensorNotFound)
}

func TestMixedDTypes(t *testing.T) {
	steps, err := tensor.NewRaw(tensor.Shape{3}, tensor.Int64, tensor.CPU)
	require.NoError(t, err)
	copy(steps.AsInt64(), []int64{10, 20, 30})

	var buf bytes.Buffer
	err = Write(&buf, map[string]*tensor.RawTensor{
		"steps": steps,
		"w":     float32Tensor(t, []float32{1.5}, tensor.Shape{1}),
	}, nil)
	require.NoError(t, err)

	f, err := Decode(buf.Bytes())
	require.NoError(t, err)

	got, err := f.Tensor("steps")
	require.NoError(t, err)
	assert.Equal(t, tensor.Int64, got.DType())
	assert.Equal(t, []int64{10, 20, 30}, got.AsInt64())
}
