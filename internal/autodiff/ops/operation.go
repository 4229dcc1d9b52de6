// Package ops defines the differentiable point-cloud operations recorded by
// the gradient tape.
//
// Each operation keeps references to its differentiable input and its output
// from the forward pass and computes the input gradient with the matching
// reverse kernel of the backend:
//   - GatherPointsOp: gather, reversed by GatherPointsGrad
//   - GroupPointsOp: neighbourhood grouping, reversed by GroupPointsGrad
//   - ThreeInterpolateOp: three-point interpolation, reversed by ThreeInterpolateGrad
//
// Index and weight tensors are treated as constants. Sampling, ball query
// and three-NN produce indices and are never recorded.
package ops

import "github.com/born-ml/pointops/internal/tensor"

// Operation represents a differentiable operation in the computation graph.
type Operation interface {
	// Backward computes gradients for inputs given the output gradient.
	// Returns one gradient per tensor in Inputs.
	Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor

	// Inputs returns the differentiable input tensors.
	Inputs() []*tensor.RawTensor

	// Output returns the output tensor produced by this operation.
	Output() *tensor.RawTensor

	// Name identifies the operation in diagnostics.
	Name() string
}

// zeroGrad allocates a zeroed float32 gradient shaped like t. Reverse kernels
// accumulate into it.
func zeroGrad(op string, t *tensor.RawTensor) *tensor.RawTensor {
	grad, err := tensor.NewRaw(t.Shape(), tensor.Float32, tensor.CPU)
	if err != nil {
		panic(op + ": " + err.Error())
	}
	return grad
}
