package ops

import "github.com/born-ml/pointops/internal/tensor"

// ThreeInterpolateOp records out = ThreeInterpolate(features, idx, weight).
//
// Only features are differentiable:
//
//	grad[i,l,idx[i,j,t]] += outputGrad[i,l,j] * weight[i,j,t]
type ThreeInterpolateOp struct {
	features *tensor.RawTensor
	idx      *tensor.RawTensor
	weight   *tensor.RawTensor
	output   *tensor.RawTensor
}

// NewThreeInterpolateOp creates a new interpolation operation.
func NewThreeInterpolateOp(features, idx, weight, output *tensor.RawTensor) *ThreeInterpolateOp {
	return &ThreeInterpolateOp{features: features, idx: idx, weight: weight, output: output}
}

// Inputs returns the features tensor.
func (op *ThreeInterpolateOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.features}
}

// Output returns the interpolated tensor.
func (op *ThreeInterpolateOp) Output() *tensor.RawTensor {
	return op.output
}

// Name returns "three_interpolate".
func (op *ThreeInterpolateOp) Name() string {
	return "three_interpolate"
}

// Backward computes the features gradient.
func (op *ThreeInterpolateOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	grad := zeroGrad(op.Name(), op.features)
	backend.ThreeInterpolateGrad(outputGrad, op.idx, op.weight, grad)
	return []*tensor.RawTensor{grad}
}
