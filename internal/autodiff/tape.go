package autodiff

import (
	"github.com/viterin/vek/vek32"

	"github.com/born-ml/pointops/internal/autodiff/ops"
	"github.com/born-ml/pointops/internal/tensor"
)

// GradientTape records operations during the forward pass and computes
// gradients during the backward pass using reverse-mode automatic differentiation.
//
// Usage:
//
//	tape := NewGradientTape()
//	tape.StartRecording()
//	// ... perform operations ...
//	gradients := tape.Backward(outputGrad, backend)
type GradientTape struct {
	operations []ops.Operation // Recorded operations (in execution order)
	recording  bool            // Whether tape is currently recording
}

// NewGradientTape creates a new gradient tape.
func NewGradientTape() *GradientTape {
	return &GradientTape{
		operations: make([]ops.Operation, 0, 16),
	}
}

// StartRecording enables operation recording.
func (t *GradientTape) StartRecording() {
	t.recording = true
}

// StopRecording disables operation recording.
func (t *GradientTape) StopRecording() {
	t.recording = false
}

// IsRecording returns true if the tape is currently recording operations.
func (t *GradientTape) IsRecording() bool {
	return t.recording
}

// Record adds an operation to the tape.
// Only records if the tape is currently recording.
func (t *GradientTape) Record(op ops.Operation) {
	if t.recording {
		t.operations = append(t.operations, op)
	}
}

// Clear resets the tape, removing all recorded operations.
// Recording state is preserved.
func (t *GradientTape) Clear() {
	t.operations = t.operations[:0]
}

// NumOps returns the number of recorded operations.
func (t *GradientTape) NumOps() int {
	return len(t.operations)
}

// Backward seeds the output of the last recorded operation with outputGrad
// and walks the tape in reverse.
//
// Returns a map from RawTensor to its accumulated gradient.
func (t *GradientTape) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) map[*tensor.RawTensor]*tensor.RawTensor {
	if len(t.operations) == 0 {
		return make(map[*tensor.RawTensor]*tensor.RawTensor)
	}
	last := t.operations[len(t.operations)-1]
	return t.BackwardFrom(map[*tensor.RawTensor]*tensor.RawTensor{last.Output(): outputGrad}, backend)
}

// BackwardFrom walks the tape in reverse starting from several seeded
// outputs. Gradients reaching the same tensor along different paths are
// summed. The seed tensors are never modified.
func (t *GradientTape) BackwardFrom(seeds map[*tensor.RawTensor]*tensor.RawTensor, backend tensor.Backend) map[*tensor.RawTensor]*tensor.RawTensor {
	// Stop recording during backward pass to prevent recording gradient operations
	wasRecording := t.recording
	t.recording = false
	defer func() {
		t.recording = wasRecording
	}()

	grads := make(map[*tensor.RawTensor]*tensor.RawTensor, len(seeds))
	owned := make(map[*tensor.RawTensor]bool)
	for out, g := range seeds {
		grads[out] = g
	}

	for i := len(t.operations) - 1; i >= 0; i-- {
		op := t.operations[i]
		outGrad, ok := grads[op.Output()]
		if !ok {
			continue
		}
		inputGrads := op.Backward(outGrad, backend)
		for j, input := range op.Inputs() {
			if j >= len(inputGrads) || inputGrads[j] == nil {
				continue
			}
			accumulate(grads, owned, input, inputGrads[j])
		}
	}

	return grads
}

// accumulate adds g into grads[input]. A gradient the tape did not allocate
// (a seed) is copied before the first in-place add.
func accumulate(grads map[*tensor.RawTensor]*tensor.RawTensor, owned map[*tensor.RawTensor]bool, input, g *tensor.RawTensor) {
	existing, ok := grads[input]
	if !ok {
		grads[input] = g
		owned[input] = true
		return
	}
	if !owned[input] {
		existing = existing.Copy()
		grads[input] = existing
		owned[input] = true
	}
	vek32.Add_Inplace(existing.AsFloat32(), g.AsFloat32())
}
