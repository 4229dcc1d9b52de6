// Package autodiff adds reverse-mode differentiation to a point-cloud backend
// using the decorator pattern.
//
// AutodiffBackend wraps any tensor.Backend (CPU, WebGPU) and records the
// differentiable kernels it runs on a GradientTape. Backward then replays
// the tape in reverse through the backend's reverse kernels.
//
// Usage:
//
//	backend := autodiff.New(cpu.New())
//	backend.Tape().StartRecording()
//	backend.GatherPoints(features, idx, sampled)
//	backend.ThreeInterpolate(sampled, nnIdx, weight, upsampled)
//	grads := autodiff.Backward(upsampled, backend)
//	gradFeatures := grads[features]
package autodiff

import (
	"github.com/born-ml/pointops/internal/autodiff/ops"
	"github.com/born-ml/pointops/internal/tensor"
)

// AutodiffBackend wraps a Backend and adds automatic differentiation.
// It implements tensor.Backend and records operations in a GradientTape.
type AutodiffBackend[B tensor.Backend] struct {
	inner B             // Wrapped backend
	tape  *GradientTape // Records operations for backpropagation
}

// New creates a new AutodiffBackend wrapping the given backend.
func New[B tensor.Backend](backend B) *AutodiffBackend[B] {
	return &AutodiffBackend[B]{
		inner: backend,
		tape:  NewGradientTape(),
	}
}

// Tape returns the gradient tape for manual control.
func (b *AutodiffBackend[B]) Tape() *GradientTape {
	return b.tape
}

// Inner returns the wrapped backend for direct access.
func (b *AutodiffBackend[B]) Inner() B {
	return b.inner
}

// Name returns the backend name.
func (b *AutodiffBackend[B]) Name() string {
	return "Autodiff(" + b.inner.Name() + ")"
}

// Device returns the compute device.
func (b *AutodiffBackend[B]) Device() tensor.Device {
	return b.inner.Device()
}

// FurthestPointSample produces indices and is not recorded.
func (b *AutodiffBackend[B]) FurthestPointSample(xyz, scratch, idx *tensor.RawTensor) {
	b.inner.FurthestPointSample(xyz, scratch, idx)
}

// BallQuery produces indices and is not recorded.
func (b *AutodiffBackend[B]) BallQuery(newXYZ, xyz *tensor.RawTensor, radius float32, idx *tensor.RawTensor) {
	b.inner.BallQuery(newXYZ, xyz, radius, idx)
}

// ThreeNN produces indices and distances and is not recorded.
func (b *AutodiffBackend[B]) ThreeNN(unknown, known, dist2, idx *tensor.RawTensor) {
	b.inner.ThreeNN(unknown, known, dist2, idx)
}

// GatherPoints gathers features and records the operation.
func (b *AutodiffBackend[B]) GatherPoints(features, idx, out *tensor.RawTensor) {
	b.inner.GatherPoints(features, idx, out)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewGatherPointsOp(features, idx, out))
	}
}

// GroupPoints groups features and records the operation.
func (b *AutodiffBackend[B]) GroupPoints(features, idx, out *tensor.RawTensor) {
	b.inner.GroupPoints(features, idx, out)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewGroupPointsOp(features, idx, out))
	}
}

// ThreeInterpolate interpolates features and records the operation.
func (b *AutodiffBackend[B]) ThreeInterpolate(features, idx, weight, out *tensor.RawTensor) {
	b.inner.ThreeInterpolate(features, idx, weight, out)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewThreeInterpolateOp(features, idx, weight, out))
	}
}

// GatherPointsGrad delegates to the wrapped backend.
func (b *AutodiffBackend[B]) GatherPointsGrad(gradOut, idx, gradFeatures *tensor.RawTensor) {
	b.inner.GatherPointsGrad(gradOut, idx, gradFeatures)
}

// GroupPointsGrad delegates to the wrapped backend.
func (b *AutodiffBackend[B]) GroupPointsGrad(gradOut, idx, gradFeatures *tensor.RawTensor) {
	b.inner.GroupPointsGrad(gradOut, idx, gradFeatures)
}

// ThreeInterpolateGrad delegates to the wrapped backend.
func (b *AutodiffBackend[B]) ThreeInterpolateGrad(gradOut, idx, weight, gradFeatures *tensor.RawTensor) {
	b.inner.ThreeInterpolateGrad(gradOut, idx, weight, gradFeatures)
}
