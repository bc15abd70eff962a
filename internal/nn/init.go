package nn

import (
	"math"
	"math/rand"

	"github.com/quill-ml/quill/internal/tensor"
)

// xavierUniform fills t with samples from U(-limit, limit) where
// limit = sqrt(6 / (fanIn + fanOut)). Keeps activation variance stable
// through depth for symmetric activations.
func xavierUniform(t *tensor.RawTensor, fanIn, fanOut int) {
	limit := float32(math.Sqrt(6.0 / float64(fanIn+fanOut)))
	data := t.AsFloat32()
	for i := range data {
		data[i] = (rand.Float32()*2 - 1) * limit
	}
}
