package ops

import "github.com/born-ml/pointops/internal/tensor"

// GroupPointsOp records out = GroupPoints(features, idx) with idx of shape
// (b, npoint, nsample).
type GroupPointsOp struct {
	features *tensor.RawTensor
	idx      *tensor.RawTensor
	output   *tensor.RawTensor
}

// NewGroupPointsOp creates a new grouping operation.
func NewGroupPointsOp(features, idx, output *tensor.RawTensor) *GroupPointsOp {
	return &GroupPointsOp{features: features, idx: idx, output: output}
}

// Inputs returns the features tensor.
func (op *GroupPointsOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.features}
}

// Output returns the grouped tensor.
func (op *GroupPointsOp) Output() *tensor.RawTensor {
	return op.output
}

// Name returns "group_points".
func (op *GroupPointsOp) Name() string {
	return "group_points"
}

// Backward computes the features gradient.
func (op *GroupPointsOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	grad := zeroGrad(op.Name(), op.features)
	backend.GroupPointsGrad(outputGrad, op.idx, grad)
	return []*tensor.RawTensor{grad}
}
