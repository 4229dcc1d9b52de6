// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package pointops

import (
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/born-ml/pointops/internal/autodiff"
	"github.com/born-ml/pointops/internal/backend/cpu"
	"github.com/born-ml/pointops/internal/backend/webgpu"
	"github.com/born-ml/pointops/internal/parallel"
	"github.com/born-ml/pointops/tensor"
)

// Device names accepted by Config.Device.
const (
	DeviceCPU    = "cpu"
	DeviceWebGPU = "webgpu"
	DeviceAuto   = "auto"
)

// FPSScratchInit is the initial value of the furthest-point scratch buffer.
const FPSScratchInit = cpu.FPSScratchInit

// Config selects the backend and its parallelism.
type Config struct {
	// Device is "cpu", "webgpu" or "auto" (WebGPU when an adapter is
	// available, otherwise CPU). Empty means "cpu".
	Device string

	// Parallel controls how the CPU backend spreads independent batches and
	// rows over goroutines. Results do not depend on it.
	Parallel parallel.Config
}

// DefaultConfig returns a CPU configuration using every core.
func DefaultConfig() Config {
	return Config{
		Device:   DeviceCPU,
		Parallel: parallel.DefaultConfig(),
	}
}

// Ops validates arguments, allocates outputs and dispatches the point
// kernels to one backend chosen at Open time.
//
// Ops is safe for concurrent use when its backend is: the CPU backend is
// stateless, the WebGPU backend serialises its own queue.
type Ops struct {
	backend tensor.Backend
	gpu     *webgpu.Backend
	tape    *autodiff.GradientTape
}

// Open selects a backend according to cfg.
//
// Requesting "webgpu" on a machine without a usable adapter, or an unknown
// device name, fails with ErrUnsupportedTarget.
func Open(cfg Config) (*Ops, error) {
	if cfg.Parallel.NumWorkers == 0 {
		cfg.Parallel = parallel.DefaultConfig()
	}

	switch device := strings.ToLower(cfg.Device); device {
	case "", DeviceCPU:
		return openCPU(cfg), nil
	case DeviceWebGPU:
		gpu, err := webgpu.New()
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrUnsupportedTarget, device, err)
		}
		slog.Debug("pointops backend selected", "backend", gpu.Name(), "adapter", gpu.Info().Device)
		return &Ops{backend: gpu, gpu: gpu}, nil
	case DeviceAuto:
		gpu, err := webgpu.New()
		if err != nil {
			slog.Debug("webgpu unavailable, using cpu", "error", err)
			return openCPU(cfg), nil
		}
		slog.Debug("pointops backend selected", "backend", gpu.Name(), "adapter", gpu.Info().Device)
		return &Ops{backend: gpu, gpu: gpu}, nil
	default:
		return nil, fmt.Errorf("%w: unknown device %q", ErrUnsupportedTarget, cfg.Device)
	}
}

func openCPU(cfg Config) *Ops {
	backend := cpu.NewWithConfig(cfg.Parallel)
	slog.Debug("pointops backend selected", "backend", backend.Name(),
		"parallel", cfg.Parallel.Enabled, "workers", cfg.Parallel.NumWorkers)
	return &Ops{backend: backend}
}

// NewWithBackend wraps an existing backend without any device probing.
func NewWithBackend(backend tensor.Backend) *Ops {
	return &Ops{backend: backend}
}

// Backend returns the backend the kernels run on.
func (o *Ops) Backend() tensor.Backend {
	return o.backend
}

// Tape returns the gradient tape of an Ops created by WithTape, or nil.
func (o *Ops) Tape() *autodiff.GradientTape {
	return o.tape
}

// WithTape returns an Ops sharing this one's backend whose differentiable
// kernels (GatherPoints, GroupPoints, ThreeInterpolate) are recorded on a
// fresh gradient tape that is already recording.
//
// Example:
//
//	rec := ops.WithTape()
//	grouped, _ := rec.GroupPoints(features, idx)
//	grads := rec.Tape().Backward(gradGrouped, rec.Backend())
//	gradFeatures := grads[features]
func (o *Ops) WithTape() *Ops {
	rec := autodiff.New(o.backend)
	rec.Tape().StartRecording()
	return &Ops{backend: rec, gpu: o.gpu, tape: rec.Tape()}
}

// Close releases GPU resources. The CPU backend holds none.
func (o *Ops) Close() error {
	if o.gpu != nil && o.tape == nil {
		o.gpu.Release()
		o.gpu = nil
	}
	return nil
}

// Name returns the backend name.
func (o *Ops) Name() string {
	return o.backend.Name()
}

func alloc(shape tensor.Shape, dtype tensor.DataType) *tensor.RawTensor {
	// Shapes are validated before allocation, so NewRaw cannot fail here.
	return tensor.MustNewRaw(shape, dtype, tensor.CPU)
}

// FurthestPointSample picks m of the n points of every batch of xyz (b, n, 3)
// and returns their indices as int32 (b, m).
func (o *Ops) FurthestPointSample(xyz *tensor.RawTensor, m int) (*tensor.RawTensor, error) {
	const op = "furthest_point_sample"
	b, n, err := points(op, "xyz", xyz)
	if err != nil {
		return nil, err
	}
	if m < 1 || m > n {
		return nil, argErr(op, "m=%d outside [1, %d]", m, n)
	}

	scratch := alloc(tensor.Shape{b, n}, tensor.Float32)
	scratch.Fill(FPSScratchInit)
	idx := alloc(tensor.Shape{b, m}, tensor.Int32)
	o.backend.FurthestPointSample(xyz, scratch, idx)
	return idx, nil
}

// BallQuery returns, for every query point of newXYZ (b, m, 3), up to
// nsample indices of xyz (b, n, 3) lying strictly within radius, as int32
// (b, m, nsample). Short rows repeat their first hit; rows of queries with
// no neighbour are all zeros.
func (o *Ops) BallQuery(newXYZ, xyz *tensor.RawTensor, radius float32, nsample int) (*tensor.RawTensor, error) {
	const op = "ball_query"
	b, m, err := points(op, "new_xyz", newXYZ)
	if err != nil {
		return nil, err
	}
	bx, _, err := points(op, "xyz", xyz)
	if err != nil {
		return nil, err
	}
	if bx != b {
		return nil, shapeErr(op, "xyz has batch %d, new_xyz has %d", bx, b)
	}
	if !(radius > 0) || math.IsInf(float64(radius), 1) {
		return nil, argErr(op, "radius=%v must be positive and finite", radius)
	}
	if nsample < 1 {
		return nil, argErr(op, "nsample=%d must be at least 1", nsample)
	}

	idx := alloc(tensor.Shape{b, m, nsample}, tensor.Int32)
	o.backend.BallQuery(newXYZ, xyz, radius, idx)
	return idx, nil
}

// GatherPoints returns features (b, c, n) gathered by idx (b, m) as (b, c, m).
func (o *Ops) GatherPoints(features, idx *tensor.RawTensor) (*tensor.RawTensor, error) {
	const op = "gather_points"
	b, c, n, err := featureDims(op, "features", features)
	if err != nil {
		return nil, err
	}
	if err := indices(op, "idx", idx, 2, b, n); err != nil {
		return nil, err
	}

	out := alloc(tensor.Shape{b, c, idx.Shape()[1]}, tensor.Float32)
	o.backend.GatherPoints(features, idx, out)
	return out, nil
}

// GatherPointsGrad scatter-adds gradOut (b, c, m) back through idx (b, m)
// into a fresh (b, c, n) gradient.
func (o *Ops) GatherPointsGrad(gradOut, idx *tensor.RawTensor, n int) (*tensor.RawTensor, error) {
	const op = "gather_points_grad"
	b, c, m, err := featureDims(op, "grad_out", gradOut)
	if err != nil {
		return nil, err
	}
	if n < 1 {
		return nil, argErr(op, "n=%d must be at least 1", n)
	}
	if err := indices(op, "idx", idx, 2, b, n); err != nil {
		return nil, err
	}
	if err := sameShape(op, "idx", idx, tensor.Shape{b, m}); err != nil {
		return nil, err
	}

	grad := alloc(tensor.Shape{b, c, n}, tensor.Float32)
	o.backend.GatherPointsGrad(gradOut, idx, grad)
	return grad, nil
}

// GroupPoints returns features (b, c, n) grouped by idx (b, npoint, nsample)
// as (b, c, npoint, nsample).
func (o *Ops) GroupPoints(features, idx *tensor.RawTensor) (*tensor.RawTensor, error) {
	const op = "group_points"
	b, c, n, err := featureDims(op, "features", features)
	if err != nil {
		return nil, err
	}
	if err := indices(op, "idx", idx, 3, b, n); err != nil {
		return nil, err
	}

	s := idx.Shape()
	out := alloc(tensor.Shape{b, c, s[1], s[2]}, tensor.Float32)
	o.backend.GroupPoints(features, idx, out)
	return out, nil
}

// GroupPointsGrad scatter-adds gradOut (b, c, npoint, nsample) back through
// idx (b, npoint, nsample) into a fresh (b, c, n) gradient.
func (o *Ops) GroupPointsGrad(gradOut, idx *tensor.RawTensor, n int) (*tensor.RawTensor, error) {
	const op = "group_points_grad"
	if err := requireDType(op, "grad_out", gradOut, tensor.Float32); err != nil {
		return nil, err
	}
	gs := gradOut.Shape()
	if len(gs) != 4 {
		return nil, shapeErr(op, "grad_out has shape %v, want (b, c, npoint, nsample)", gs)
	}
	if n < 1 {
		return nil, argErr(op, "n=%d must be at least 1", n)
	}
	b, c := gs[0], gs[1]
	if err := indices(op, "idx", idx, 3, b, n); err != nil {
		return nil, err
	}
	if err := sameShape(op, "idx", idx, tensor.Shape{b, gs[2], gs[3]}); err != nil {
		return nil, err
	}

	grad := alloc(tensor.Shape{b, c, n}, tensor.Float32)
	o.backend.GroupPointsGrad(gradOut, idx, grad)
	return grad, nil
}

// ThreeNN finds, for every point of unknown (b, n, 3), the three nearest
// points of known (b, m, 3). It returns squared distances float32 (b, n, 3)
// in ascending order and their int32 indices (b, n, 3). With m < 3 the
// unfilled slots hold +Inf and index 0.
func (o *Ops) ThreeNN(unknown, known *tensor.RawTensor) (dist2, idx *tensor.RawTensor, err error) {
	const op = "three_nn"
	b, n, err := points(op, "unknown", unknown)
	if err != nil {
		return nil, nil, err
	}
	bk, _, err := points(op, "known", known)
	if err != nil {
		return nil, nil, err
	}
	if bk != b {
		return nil, nil, shapeErr(op, "known has batch %d, unknown has %d", bk, b)
	}

	dist2 = alloc(tensor.Shape{b, n, 3}, tensor.Float32)
	idx = alloc(tensor.Shape{b, n, 3}, tensor.Int32)
	o.backend.ThreeNN(unknown, known, dist2, idx)
	return dist2, idx, nil
}

// ThreeInterpolate blends features (b, c, m) at idx (b, n, 3) with weight
// (b, n, 3) into (b, c, n). Weights are used as given.
func (o *Ops) ThreeInterpolate(features, idx, weight *tensor.RawTensor) (*tensor.RawTensor, error) {
	const op = "three_interpolate"
	b, c, m, err := featureDims(op, "features", features)
	if err != nil {
		return nil, err
	}
	n, err := triples(op, idx, weight, b, m)
	if err != nil {
		return nil, err
	}

	out := alloc(tensor.Shape{b, c, n}, tensor.Float32)
	o.backend.ThreeInterpolate(features, idx, weight, out)
	return out, nil
}

// ThreeInterpolateGrad scatter-adds weighted gradOut (b, c, n) through idx
// and weight (b, n, 3) into a fresh (b, c, m) gradient.
func (o *Ops) ThreeInterpolateGrad(gradOut, idx, weight *tensor.RawTensor, m int) (*tensor.RawTensor, error) {
	const op = "three_interpolate_grad"
	b, c, n, err := featureDims(op, "grad_out", gradOut)
	if err != nil {
		return nil, err
	}
	if m < 1 {
		return nil, argErr(op, "m=%d must be at least 1", m)
	}
	ni, err := triples(op, idx, weight, b, m)
	if err != nil {
		return nil, err
	}
	if ni != n {
		return nil, shapeErr(op, "idx covers %d points, grad_out has %d", ni, n)
	}

	grad := alloc(tensor.Shape{b, c, m}, tensor.Float32)
	o.backend.ThreeInterpolateGrad(gradOut, idx, weight, grad)
	return grad, nil
}

// triples validates the (b, n, 3) idx/weight pair of the interpolation
// kernels and returns n.
func triples(op string, idx, weight *tensor.RawTensor, b, m int) (int, error) {
	if err := indices(op, "idx", idx, 3, b, m); err != nil {
		return 0, err
	}
	s := idx.Shape()
	if s[2] != 3 {
		return 0, shapeErr(op, "idx has shape %v, want (b, n, 3)", s)
	}
	if err := requireDType(op, "weight", weight, tensor.Float32); err != nil {
		return 0, err
	}
	if err := sameShape(op, "weight", weight, s); err != nil {
		return 0, err
	}
	return s[1], nil
}
