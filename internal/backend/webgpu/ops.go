//go:build windows

package webgpu

import (
	"fmt"
	"math"

	"github.com/born-ml/pointops/internal/tensor"
)

// FurthestPointSample runs furthest-point sampling, one invocation per batch.
func (b *Backend) FurthestPointSample(xyz, scratch, idx *tensor.RawTensor) {
	bs, n := xyz.Shape().Dim(0), xyz.Shape().Dim(1)
	m := idx.Shape().Dim(1)
	if m < 1 || m > n {
		panic(fmt.Sprintf("webgpu: furthest_point_sample: m=%d outside [1, %d]", m, n))
	}
	b.must("furthest_point_sample", b.launch("fps", fpsShader, bs,
		params{}.u32(bs).u32(n).u32(m),
		input(xyz), output(scratch), output(idx)))
}

// BallQuery runs the radius scan, one invocation per query point.
func (b *Backend) BallQuery(newXYZ, xyz *tensor.RawTensor, radius float32, idx *tensor.RawTensor) {
	bs, m := newXYZ.Shape().Dim(0), newXYZ.Shape().Dim(1)
	n := xyz.Shape().Dim(1)
	nsample := idx.Shape().Dim(2)
	b.must("ball_query", b.launch("ball_query", ballQueryShader, bs*m,
		params{}.u32(bs).u32(n).u32(m).u32(nsample).f32(radius*radius),
		input(newXYZ), input(xyz), output(idx)))
}

// GatherPoints gathers features (b,c,n) by idx (b,m) into out (b,c,m).
func (b *Backend) GatherPoints(features, idx, out *tensor.RawTensor) {
	b.gather("gather_points", features, idx, idx.Shape().Dim(1), out)
}

// GatherPointsGrad scatter-adds gradOut (b,c,m) into gradFeatures (b,c,n).
func (b *Backend) GatherPointsGrad(gradOut, idx, gradFeatures *tensor.RawTensor) {
	b.scatter("gather_points_grad", gradOut, idx, idx.Shape().Dim(1), gradFeatures)
}

// GroupPoints gathers features (b,c,n) by idx (b,npoint,nsample) into
// out (b,c,npoint,nsample).
func (b *Backend) GroupPoints(features, idx, out *tensor.RawTensor) {
	b.gather("group_points", features, idx, idx.Shape().Dim(1)*idx.Shape().Dim(2), out)
}

// GroupPointsGrad scatter-adds gradOut (b,c,npoint,nsample) into gradFeatures (b,c,n).
func (b *Backend) GroupPointsGrad(gradOut, idx, gradFeatures *tensor.RawTensor) {
	b.scatter("group_points_grad", gradOut, idx, idx.Shape().Dim(1)*idx.Shape().Dim(2), gradFeatures)
}

// ThreeNN finds the three nearest known points, one invocation per unknown point.
// Unfilled slots report +Inf with index 0, as on the CPU.
func (b *Backend) ThreeNN(unknown, known, dist2, idx *tensor.RawTensor) {
	bs, n := unknown.Shape().Dim(0), unknown.Shape().Dim(1)
	m := known.Shape().Dim(1)
	infBits := math.Float32bits(float32(math.Inf(1)))
	b.must("three_nn", b.launch("three_nn", threeNNShader, bs*n,
		append(params{}.u32(bs).u32(n).u32(m), infBits),
		input(unknown), input(known), output(dist2), output(idx)))
}

// ThreeInterpolate blends features (b,c,m) into out (b,c,n).
func (b *Backend) ThreeInterpolate(features, idx, weight, out *tensor.RawTensor) {
	s := features.Shape()
	bs, c, m := s[0], s[1], s[2]
	n := idx.Shape().Dim(1)
	b.must("three_interpolate", b.launch("three_interpolate", interpolateShader, bs*c*n,
		params{}.u32(bs).u32(c).u32(m).u32(n),
		input(features), input(idx), input(weight), output(out)))
}

// ThreeInterpolateGrad scatter-adds weighted gradOut (b,c,n) into gradFeatures (b,c,m).
func (b *Backend) ThreeInterpolateGrad(gradOut, idx, weight, gradFeatures *tensor.RawTensor) {
	s := gradFeatures.Shape()
	bs, c, m := s[0], s[1], s[2]
	n := idx.Shape().Dim(1)
	b.must("three_interpolate_grad", b.launch("three_interpolate_grad", interpolateGradShader, bs*c,
		params{}.u32(bs).u32(c).u32(m).u32(n),
		input(gradOut), input(idx), input(weight), output(gradFeatures)))
}

func (b *Backend) gather(op string, features, idx *tensor.RawTensor, k int, out *tensor.RawTensor) {
	s := features.Shape()
	bs, c, n := s[0], s[1], s[2]
	b.must(op, b.launch("gather", gatherShader, bs*c*k,
		params{}.u32(bs).u32(c).u32(n).u32(k),
		input(features), input(idx), output(out)))
}

func (b *Backend) scatter(op string, gradOut, idx *tensor.RawTensor, k int, gradFeatures *tensor.RawTensor) {
	s := gradFeatures.Shape()
	bs, c, n := s[0], s[1], s[2]
	b.must(op, b.launch("scatter_add", scatterAddShader, bs*c,
		params{}.u32(bs).u32(c).u32(n).u32(k),
		input(gradOut), input(idx), output(gradFeatures)))
}

// must turns a launch failure into the backend's panic convention.
func (b *Backend) must(op string, err error) {
	if err != nil {
		panic("webgpu: " + op + ": " + err.Error())
	}
}
