// Package cpu implements the CPU backend for the point-cloud kernels.
//
// The exported package-level functions are the kernels themselves: plain
// loops over flat slices with every dimension passed explicitly. CPUBackend
// adapts them to tensor.Backend and spreads independent batches, query
// points and channel rows over goroutines.
package cpu

import (
	"fmt"

	"golang.org/x/sys/cpu"

	"github.com/born-ml/pointops/internal/parallel"
	"github.com/born-ml/pointops/internal/tensor"
)

// CPUBackend implements tensor.Backend on the host CPU.
type CPUBackend struct {
	device tensor.Device
	par    parallel.Config
}

// New creates a new CPU backend with the default parallel configuration.
func New() *CPUBackend {
	return NewWithConfig(parallel.DefaultConfig())
}

// NewWithConfig creates a CPU backend with an explicit parallel configuration.
func NewWithConfig(cfg parallel.Config) *CPUBackend {
	return &CPUBackend{
		device: tensor.CPU,
		par:    cfg,
	}
}

// Name returns the backend name.
func (b *CPUBackend) Name() string {
	return "CPU"
}

// Device returns the compute device.
func (b *CPUBackend) Device() tensor.Device {
	return b.device
}

// Parallel returns the parallel configuration in use.
func (b *CPUBackend) Parallel() parallel.Config {
	return b.par
}

// Features lists the SIMD features reported by the host CPU.
func (b *CPUBackend) Features() []string {
	var features []string
	if cpu.X86.HasSSE41 {
		features = append(features, "sse4.1")
	}
	if cpu.X86.HasAVX2 {
		features = append(features, "avx2")
	}
	if cpu.X86.HasFMA {
		features = append(features, "fma")
	}
	if cpu.X86.HasAVX512F {
		features = append(features, "avx512f")
	}
	if cpu.ARM64.HasASIMD {
		features = append(features, "neon")
	}
	return features
}

// coarse is the parallel config for units that are already large
// (whole batches, whole channel rows): every unit may get its own goroutine.
func (b *CPUBackend) coarse() parallel.Config {
	cfg := b.par
	cfg.MinChunkSize = 1
	return cfg
}

// FurthestPointSample runs furthest-point sampling; batches run concurrently.
func (b *CPUBackend) FurthestPointSample(xyz, scratch, idx *tensor.RawTensor) {
	bs, n := pointDims("furthest_point_sample", xyz)
	m := idx.Shape().Dim(1)
	if m < 1 || m > n {
		panic(fmt.Sprintf("furthest_point_sample: m=%d outside [1, %d]", m, n))
	}

	pts, tmp, out := xyz.AsFloat32(), scratch.AsFloat32(), idx.AsInt32()
	parallel.For(bs, func(i int) {
		fpsBatch(n, m, pts[i*n*3:(i+1)*n*3], tmp[i*n:(i+1)*n], out[i*m:(i+1)*m])
	}, b.coarse())
}

// BallQuery runs the fixed-radius neighbour scan; query points run concurrently.
// The number of samples is taken from idx's last dimension.
func (b *CPUBackend) BallQuery(newXYZ, xyz *tensor.RawTensor, radius float32, idx *tensor.RawTensor) {
	bs, m := pointDims("ball_query", newXYZ)
	_, n := pointDims("ball_query", xyz)
	nsample := idx.Shape().Dim(2)

	radius2 := radius * radius
	q, pts, out := newXYZ.AsFloat32(), xyz.AsFloat32(), idx.AsInt32()
	parallel.ForBatch(bs, m, func(i, j int) {
		r := i*m + j
		ballQueryRow(n, radius2, q[r*3:(r+1)*3], pts[i*n*3:(i+1)*n*3], out[r*nsample:(r+1)*nsample])
	}, b.par)
}

// GatherPoints gathers features (b,c,n) by idx (b,m) into out (b,c,m).
func (b *CPUBackend) GatherPoints(features, idx, out *tensor.RawTensor) {
	bs, c, n := featureDims("gather_points", features)
	m := idx.Shape().Dim(1)
	b.gather(bs, c, n, m, features.AsFloat32(), idx.AsInt32(), out.AsFloat32())
}

// GatherPointsGrad scatter-adds gradOut (b,c,m) into gradFeatures (b,c,n).
func (b *CPUBackend) GatherPointsGrad(gradOut, idx, gradFeatures *tensor.RawTensor) {
	bs, c, n := featureDims("gather_points_grad", gradFeatures)
	m := idx.Shape().Dim(1)
	b.scatter(bs, c, n, m, gradOut.AsFloat32(), idx.AsInt32(), gradFeatures.AsFloat32())
}

// GroupPoints gathers features (b,c,n) by idx (b,npoint,nsample) into
// out (b,c,npoint,nsample).
func (b *CPUBackend) GroupPoints(features, idx, out *tensor.RawTensor) {
	bs, c, n := featureDims("group_points", features)
	k := idx.Shape().Dim(1) * idx.Shape().Dim(2)
	b.gather(bs, c, n, k, features.AsFloat32(), idx.AsInt32(), out.AsFloat32())
}

// GroupPointsGrad scatter-adds gradOut (b,c,npoint,nsample) into gradFeatures (b,c,n).
func (b *CPUBackend) GroupPointsGrad(gradOut, idx, gradFeatures *tensor.RawTensor) {
	bs, c, n := featureDims("group_points_grad", gradFeatures)
	k := idx.Shape().Dim(1) * idx.Shape().Dim(2)
	b.scatter(bs, c, n, k, gradOut.AsFloat32(), idx.AsInt32(), gradFeatures.AsFloat32())
}

// ThreeNN finds the three nearest known points per unknown point.
func (b *CPUBackend) ThreeNN(unknown, known, dist2, idx *tensor.RawTensor) {
	bs, n := pointDims("three_nn", unknown)
	_, m := pointDims("three_nn", known)

	u, k, d, out := unknown.AsFloat32(), known.AsFloat32(), dist2.AsFloat32(), idx.AsInt32()
	parallel.ForBatch(bs, n, func(i, j int) {
		o := (i*n + j) * 3
		threeNNRow(m, u[o:o+3], k[i*m*3:(i+1)*m*3], d[o:o+3], out[o:o+3])
	}, b.par)
}

// ThreeInterpolate blends features (b,c,m) into out (b,c,n).
func (b *CPUBackend) ThreeInterpolate(features, idx, weight, out *tensor.RawTensor) {
	bs, c, m := featureDims("three_interpolate", features)
	n := idx.Shape().Dim(1)

	f, ix, w, dst := features.AsFloat32(), idx.AsInt32(), weight.AsFloat32(), out.AsFloat32()
	parallel.ForBatch(bs, c, func(i, l int) {
		r := i*c + l
		interpolateRow(f[r*m:(r+1)*m], ix[i*n*3:(i+1)*n*3], w[i*n*3:(i+1)*n*3], dst[r*n:(r+1)*n])
	}, b.coarse())
}

// ThreeInterpolateGrad scatter-adds weighted gradOut (b,c,n) into gradFeatures (b,c,m).
func (b *CPUBackend) ThreeInterpolateGrad(gradOut, idx, weight, gradFeatures *tensor.RawTensor) {
	bs, c, m := featureDims("three_interpolate_grad", gradFeatures)
	n := idx.Shape().Dim(1)

	g, ix, w, dst := gradOut.AsFloat32(), idx.AsInt32(), weight.AsFloat32(), gradFeatures.AsFloat32()
	parallel.ForBatch(bs, c, func(i, l int) {
		r := i*c + l
		interpolateGradRow(g[r*n:(r+1)*n], ix[i*n*3:(i+1)*n*3], w[i*n*3:(i+1)*n*3], dst[r*m:(r+1)*m])
	}, b.coarse())
}

// gather runs gatherRow over every (batch, channel) row.
func (b *CPUBackend) gather(bs, c, n, k int, src []float32, idx []int32, dst []float32) {
	parallel.ForBatch(bs, c, func(i, l int) {
		r := i*c + l
		gatherRow(src[r*n:(r+1)*n], idx[i*k:(i+1)*k], dst[r*k:(r+1)*k])
	}, b.coarse())
}

// scatter runs scatterAddRow over every (batch, channel) row. Rows write
// disjoint destination rows, so no two goroutines touch the same element.
func (b *CPUBackend) scatter(bs, c, n, k int, src []float32, idx []int32, dst []float32) {
	parallel.ForBatch(bs, c, func(i, l int) {
		r := i*c + l
		scatterAddRow(dst[r*n:(r+1)*n], idx[i*k:(i+1)*k], src[r*k:(r+1)*k])
	}, b.coarse())
}

// pointDims returns (b, n) of a (b, n, 3) point tensor.
func pointDims(op string, t *tensor.RawTensor) (int, int) {
	s := t.Shape()
	if len(s) != 3 || s[2] != 3 {
		panic(fmt.Sprintf("%s: expected (b, n, 3) points, got shape %v", op, s))
	}
	return s[0], s[1]
}

// featureDims returns (b, c, n) of a (b, c, n) feature tensor.
func featureDims(op string, t *tensor.RawTensor) (int, int, int) {
	s := t.Shape()
	if len(s) != 3 {
		panic(fmt.Sprintf("%s: expected (b, c, n) features, got shape %v", op, s))
	}
	return s[0], s[1], s[2]
}
