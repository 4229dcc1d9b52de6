//go:build !windows

package webgpu

import "github.com/born-ml/pointops/internal/tensor"

// Backend is the WebGPU backend. It cannot be constructed on this platform.
type Backend struct{}

// New always fails with ErrUnavailable on this platform.
func New() (*Backend, error) {
	return nil, ErrUnavailable
}

// IsAvailable reports whether a WebGPU adapter can be acquired.
func IsAvailable() bool {
	return false
}

// Release is a no-op.
func (b *Backend) Release() {}

// Name returns the backend name.
func (b *Backend) Name() string { return "WebGPU" }

// Device returns the compute device.
func (b *Backend) Device() tensor.Device { return tensor.WebGPU }

// Info returns an empty adapter description.
func (b *Backend) Info() Info { return Info{} }

func unavailable(op string) {
	panic("webgpu: " + op + ": " + ErrUnavailable.Error())
}

func (b *Backend) FurthestPointSample(_, _, _ *tensor.RawTensor) {
	unavailable("furthest_point_sample")
}

func (b *Backend) BallQuery(_, _ *tensor.RawTensor, _ float32, _ *tensor.RawTensor) {
	unavailable("ball_query")
}

func (b *Backend) GatherPoints(_, _, _ *tensor.RawTensor)     { unavailable("gather_points") }
func (b *Backend) GatherPointsGrad(_, _, _ *tensor.RawTensor) { unavailable("gather_points_grad") }
func (b *Backend) GroupPoints(_, _, _ *tensor.RawTensor)      { unavailable("group_points") }
func (b *Backend) GroupPointsGrad(_, _, _ *tensor.RawTensor)  { unavailable("group_points_grad") }
func (b *Backend) ThreeNN(_, _, _, _ *tensor.RawTensor)       { unavailable("three_nn") }

func (b *Backend) ThreeInterpolate(_, _, _, _ *tensor.RawTensor) {
	unavailable("three_interpolate")
}

func (b *Backend) ThreeInterpolateGrad(_, _, _, _ *tensor.RawTensor) {
	unavailable("three_interpolate_grad")
}
