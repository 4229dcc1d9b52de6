package ops

import "github.com/born-ml/pointops/internal/tensor"

// GatherPointsOp records out = GatherPoints(features, idx).
//
// Backward scatter-adds the output gradient (b, c, m) back into a zeroed
// (b, c, n) gradient; indices chosen more than once receive the sum.
type GatherPointsOp struct {
	features *tensor.RawTensor
	idx      *tensor.RawTensor
	output   *tensor.RawTensor
}

// NewGatherPointsOp creates a new gather operation.
func NewGatherPointsOp(features, idx, output *tensor.RawTensor) *GatherPointsOp {
	return &GatherPointsOp{features: features, idx: idx, output: output}
}

// Inputs returns the features tensor. Indices carry no gradient.
func (op *GatherPointsOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.features}
}

// Output returns the gathered tensor.
func (op *GatherPointsOp) Output() *tensor.RawTensor {
	return op.output
}

// Name returns "gather_points".
func (op *GatherPointsOp) Name() string {
	return "gather_points"
}

// Backward computes the features gradient.
func (op *GatherPointsOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	grad := zeroGrad(op.Name(), op.features)
	backend.GatherPointsGrad(outputGrad, op.idx, grad)
	return []*tensor.RawTensor{grad}
}
