package autodiff

import (
	"github.com/quill-ml/quill/internal/autodiff/ops"
	"github.com/quill-ml/quill/internal/tensor"
)

// GradientTape records operations during the forward pass so the
// backward pass can replay them in reverse.
//
// A tape is not safe for concurrent use; each goroutine running a
// forward pass needs its own autodiff backend.
type GradientTape struct {
	operations []ops.Operation
	recording  bool

	// pins hold recorded tensors in copy-on-write mode until Clear, so
	// later in-place operations cannot overwrite values the backward
	// pass still needs.
	pins []func()
}

// NewGradientTape creates an empty, non-recording tape.
func NewGradientTape() *GradientTape {
	return &GradientTape{}
}

// StartRecording begins capturing operations.
func (t *GradientTape) StartRecording() { t.recording = true }

// StopRecording pauses capture. Recorded operations are kept.
func (t *GradientTape) StopRecording() { t.recording = false }

// IsRecording reports whether operations are currently captured.
func (t *GradientTape) IsRecording() bool { return t.recording }

// Record appends an operation. Call only while recording.
func (t *GradientTape) Record(op ops.Operation) {
	t.operations = append(t.operations, op)
}

// NumOperations returns the number of recorded operations.
func (t *GradientTape) NumOperations() int { return len(t.operations) }

// Clear drops all recorded operations and releases pinned tensors.
// The recording state is unchanged. Call once per training step after
// the optimizer has consumed the gradients.
func (t *GradientTape) Clear() {
	for _, release := range t.pins {
		release()
	}
	t.pins = nil
	t.operations = nil
}

func (t *GradientTape) pin(release func()) {
	t.pins = append(t.pins, release)
}

// Backward walks the tape in reverse from root, which must be the
// output of a recorded operation, seeding it with the given gradient.
// It returns the gradient of root with respect to every tensor reached
// on the way, keyed by tensor identity.
//
// Recording is paused for the duration so the backward computations do
// not land on the tape.
func (t *GradientTape) Backward(root, seed *tensor.RawTensor, backend tensor.Backend) map[*tensor.RawTensor]*tensor.RawTensor {
	wasRecording := t.recording
	t.recording = false
	defer func() { t.recording = wasRecording }()

	grads := map[*tensor.RawTensor]*tensor.RawTensor{root: seed}

	for i := len(t.operations) - 1; i >= 0; i-- {
		op := t.operations[i]

		outputGrad := grads[op.Output()]
		if outputGrad == nil {
			// Operation does not contribute to root.
			continue
		}

		// Pin the flowing gradient so backward rules that reuse it as a
		// left operand cannot modify it in place.
		release := outputGrad.ForceNonUnique()
		inputGrads := op.Backward(outputGrad, backend)
		release()

		for j, input := range op.Inputs() {
			grad := inputGrads[j]
			if input == nil || grad == nil {
				continue
			}
			if existing := grads[input]; existing != nil {
				releaseExisting := existing.ForceNonUnique()
				grads[input] = backend.Add(existing, grad)
				releaseExisting()
			} else {
				grads[input] = grad
			}
		}
	}

	return grads
}
