package nn

import (
	"fmt"

	"github.com/quill-ml/quill/internal/serialization"
	"github.com/quill-ml/quill/internal/tensor"
)

// StateDicter is anything whose state can be checkpointed: modules and
// optimizers both qualify.
type StateDicter interface {
	StateDict() map[string]*tensor.RawTensor
	LoadStateDict(state map[string]*tensor.RawTensor) error
}

// SaveCheckpoint writes a module's parameters to a .quill file. Meta
// may be nil.
func SaveCheckpoint(path string, m StateDicter, meta *serialization.CheckpointMeta) error {
	return serialization.Save(path, m.StateDict(), meta)
}

// LoadCheckpoint restores a module's parameters from a .quill file and
// returns the stored training state, if any. The module must already
// have the architecture the checkpoint was saved from.
func LoadCheckpoint(path string, m StateDicter) (*serialization.CheckpointMeta, error) {
	f, err := serialization.Load(path)
	if err != nil {
		return nil, err
	}
	if err := m.LoadStateDict(f.Tensors()); err != nil {
		return nil, fmt.Errorf("restoring state: %w", err)
	}
	return f.Meta(), nil
}

// SaveTrainingCheckpoint writes model and optimizer state into one
// file, prefixing keys with "model." and "optim." so the two never
// collide.
func SaveTrainingCheckpoint(path string, model, optimizer StateDicter, meta *serialization.CheckpointMeta) error {
	combined := make(map[string]*tensor.RawTensor)
	for name, t := range model.StateDict() {
		combined["model."+name] = t
	}
	for name, t := range optimizer.StateDict() {
		combined["optim."+name] = t
	}
	return serialization.Save(path, combined, meta)
}

// LoadTrainingCheckpoint restores model and optimizer state written by
// SaveTrainingCheckpoint.
func LoadTrainingCheckpoint(path string, model, optimizer StateDicter) (*serialization.CheckpointMeta, error) {
	f, err := serialization.Load(path)
	if err != nil {
		return nil, err
	}

	modelState := make(map[string]*tensor.RawTensor)
	optimState := make(map[string]*tensor.RawTensor)
	for name, t := range f.Tensors() {
		switch {
		case len(name) > 6 && name[:6] == "model.":
			modelState[name[6:]] = t
		case len(name) > 6 && name[:6] == "optim.":
			optimState[name[6:]] = t
		default:
			return nil, fmt.Errorf("unexpected checkpoint entry %q", name)
		}
	}

	if err := model.LoadStateDict(modelState); err != nil {
		return nil, fmt.Errorf("restoring model: %w", err)
	}
	if err := optimizer.LoadStateDict(optimState); err != nil {
		return nil, fmt.Errorf("restoring optimizer: %w", err)
	}
	return f.Meta(), nil
}
