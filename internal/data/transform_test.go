package data

import (
	"testing"

	"github.com/quill-ml/quill/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatImage(t *testing.T, data []float32) *tensor.RawTensor {
	t.Helper()
	img, err := tensor.NewRaw(tensor.Shape{1, 1, len(data)}, tensor.Float32, tensor.CPU)
	require.NoError(t, err)
	copy(img.AsFloat32(), data)
	return img
}

func TestNormalize(t *testing.T) {
	img := floatImage(t, []float32{0, 0.5, 1})

	out, err := Normalize{Mean: 0.5, Std: 0.5}.Apply(img)
	require.NoError(t, err)
	assert.Equal(t, []float32{-1, 0, 1}, out.AsFloat32())

	// The input is untouched.
	assert.Equal(t, float32(0), img.AsFloat32()[0], "normalize modified its input")
}

func TestNormalizeZeroStd(t *testing.T) {
	_, err := (Normalize{Std: 0}).Apply(floatImage(t, []float32{1}))
	assert.Error(t, err, "zero std must be rejected")
}

func TestCompose(t *testing.T) {
	img := floatImage(t, []float32{1})

	// Two normalizations chain: ((1-1)/2 - 0)/0.5 = 0
	out, err := Compose{
		Normalize{Mean: 1, Std: 2},
		Normalize{Mean: 0, Std: 0.5},
	}.Apply(img)
	require.NoError(t, err)
	assert.Equal(t, float32(0), out.AsFloat32()[0])
}

func TestOneHot(t *testing.T) {
	v, err := OneHot(3, 10)
	require.NoError(t, err)

	want := make([]float32, 10)
	want[3] = 1
	assert.Equal(t, want, v.AsFloat32())

	_, err = OneHot(10, 10)
	assert.Error(t, err, "out-of-range label must be rejected")
}
