package tensor

// Backend is the device abstraction all tensor operations go through.
//
// Implementations operate on RawTensor so a single backend serves every
// element type; the generic Tensor[T, B] layer restores type safety on
// top. Operations panic on shape or dtype violations (programmer errors)
// after the public constructors have validated user input.
//
// Binary elementwise operations follow NumPy broadcasting rules.
type Backend interface {
	// Elementwise arithmetic with broadcasting.
	Add(a, b *RawTensor) *RawTensor
	Sub(a, b *RawTensor) *RawTensor
	Mul(a, b *RawTensor) *RawTensor
	Div(a, b *RawTensor) *RawTensor

	// MatMul computes the matrix product of two 2D tensors.
	MatMul(a, b *RawTensor) *RawTensor

	// Shape manipulation.
	Reshape(t *RawTensor, shape Shape) *RawTensor
	Transpose(t *RawTensor, axes ...int) *RawTensor

	// Scalar arithmetic. The scalar is converted to the tensor's dtype.
	AddScalar(t *RawTensor, s float64) *RawTensor
	SubScalar(t *RawTensor, s float64) *RawTensor
	MulScalar(t *RawTensor, s float64) *RawTensor
	DivScalar(t *RawTensor, s float64) *RawTensor
	Pow(t *RawTensor, p float64) *RawTensor

	// Elementwise math (float tensors only).
	Exp(t *RawTensor) *RawTensor
	Log(t *RawTensor) *RawTensor
	Sqrt(t *RawTensor) *RawTensor

	// Softmax normalizes along the given dimension.
	Softmax(t *RawTensor, dim int) *RawTensor

	// Reductions. Sum and Mean reduce to a single-element tensor;
	// SumDim and MeanDim reduce one dimension, keeping it as size 1
	// when keepDim is set.
	Sum(t *RawTensor) *RawTensor
	Mean(t *RawTensor) *RawTensor
	SumDim(t *RawTensor, dim int, keepDim bool) *RawTensor
	MeanDim(t *RawTensor, dim int, keepDim bool) *RawTensor

	// Argmax returns Int32 indices of the maxima along dim.
	Argmax(t *RawTensor, dim int) *RawTensor

	// Comparisons produce Bool tensors.
	Equal(a, b *RawTensor) *RawTensor
	Greater(a, b *RawTensor) *RawTensor

	// Cast converts between element types.
	Cast(t *RawTensor, dtype DataType) *RawTensor

	// Name identifies the backend implementation.
	Name() string

	// Device reports where this backend allocates tensors.
	Device() Device
}
