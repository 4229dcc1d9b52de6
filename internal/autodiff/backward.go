package autodiff

import (
	"fmt"

	"github.com/born-ml/pointops/internal/tensor"
)

// BackwardCapable is an interface for backends that support backward pass.
// AutodiffBackend implements this interface.
type BackwardCapable interface {
	tensor.Backend
	// GetTape returns the gradient tape for backward computation.
	GetTape() *GradientTape
}

// GetTape returns the gradient tape (implements BackwardCapable interface).
func (b *AutodiffBackend[B]) GetTape() *GradientTape {
	return b.tape
}

// Backward computes gradients of sum(output) with respect to every recorded
// input, seeding output with ones.
//
// Example:
//
//	backend := autodiff.New(cpu.New())
//	backend.Tape().StartRecording()
//	backend.GroupPoints(features, idx, grouped)
//	grads := autodiff.Backward(grouped, backend)
//	// grads[features][i,l,k] counts how often point k was grouped.
func Backward(output *tensor.RawTensor, backend BackwardCapable) map[*tensor.RawTensor]*tensor.RawTensor {
	tape := backend.GetTape()
	if tape.NumOps() == 0 {
		panic("backward: no operations recorded (did you forget to call Tape().StartRecording()?)")
	}
	if output.DType() != tensor.Float32 {
		panic(fmt.Sprintf("backward: unsupported dtype %s (only float32 supported)", output.DType()))
	}

	outputGrad, err := tensor.NewRaw(output.Shape(), tensor.Float32, output.Device())
	if err != nil {
		panic(fmt.Sprintf("backward: failed to create output gradient: %v", err))
	}
	outputGrad.Fill(1)

	return tape.BackwardFrom(map[*tensor.RawTensor]*tensor.RawTensor{output: outputGrad}, backend)
}
