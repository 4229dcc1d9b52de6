package cpu

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/pointops/internal/tensor"
)

func newScratch(b, n int) []float32 {
	s := make([]float32, b*n)
	for i := range s {
		s[i] = FPSScratchInit
	}
	return s
}

func TestFurthestPointSampling_UnitAxes(t *testing.T) {
	idx := make([]int32, 2)
	FurthestPointSampling(1, 4, 2, unitPoints, newScratch(1, 4), idx)

	// All three axis points are at distance 1 from the origin; the lowest wins.
	if diff := cmp.Diff([]int32{0, 1}, idx); diff != "" {
		t.Errorf("FPS mismatch (-want +got):\n%s", diff)
	}
}

func TestFurthestPointSampling_SelectsAllAxes(t *testing.T) {
	idx := make([]int32, 4)
	FurthestPointSampling(1, 4, 4, unitPoints, newScratch(1, 4), idx)

	// The origin is padding (|p|^2 <= 1e-3) and can only come back through the
	// fallback once every real point has been chosen.
	assert.Equal(t, []int32{0, 1, 2, 3}, idx)
}

func TestFurthestPointSampling_Line(t *testing.T) {
	// Points on the x axis: 0 is taken first, then the far end, then the middle.
	xyz := []float32{
		1, 0, 0,
		2, 0, 0,
		3, 0, 0,
		5, 0, 0,
		9, 0, 0,
	}
	idx := make([]int32, 3)
	FurthestPointSampling(1, 5, 3, xyz, newScratch(1, 5), idx)
	assert.Equal(t, []int32{0, 4, 3}, idx)
}

func TestFurthestPointSampling_AllPaddingReselectsZero(t *testing.T) {
	xyz := make([]float32, 5*3) // every point at the origin
	idx := make([]int32, 3)
	FurthestPointSampling(1, 5, 3, xyz, newScratch(1, 5), idx)
	assert.Equal(t, []int32{0, 0, 0}, idx)
}

func TestFurthestPointSampling_ScratchUpdatedForPadding(t *testing.T) {
	xyz := []float32{
		0, 0, 0, // padding
		2, 0, 0,
		0, 3, 0,
	}
	scratch := newScratch(1, 3)
	idx := make([]int32, 2)
	FurthestPointSampling(1, 3, 2, xyz, scratch, idx)

	assert.Equal(t, []int32{0, 2}, idx)
	assert.Equal(t, []float32{0, 4, 9}, scratch)
}

func TestFurthestPointSampling_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	tests := []struct {
		b, n, m int
	}{
		{1, 1, 1},
		{1, 10, 10},
		{2, 50, 7},
		{4, 128, 32},
	}

	for _, tt := range tests {
		xyz := randomFloats(rng, tt.b*tt.n*3, 5)
		idx := make([]int32, tt.b*tt.m)
		FurthestPointSampling(tt.b, tt.n, tt.m, xyz, newScratch(tt.b, tt.n), idx)

		again := make([]int32, tt.b*tt.m)
		FurthestPointSampling(tt.b, tt.n, tt.m, xyz, newScratch(tt.b, tt.n), again)
		assert.Equal(t, idx, again, "FPS must be deterministic")

		for i := 0; i < tt.b; i++ {
			row := idx[i*tt.m : (i+1)*tt.m]
			assert.Equal(t, int32(0), row[0], "first index is always 0")
			seen := make(map[int32]bool)
			for _, v := range row {
				assert.GreaterOrEqual(t, v, int32(0))
				assert.Less(t, v, int32(tt.n))
				assert.False(t, seen[v], "index %d repeated in batch %d", v, i)
				seen[v] = true
			}
		}
	}
}

func TestFurthestPointSampling_BatchesIndependent(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	const n, m = 40, 9
	a := randomFloats(rng, n*3, 1)
	c := randomFloats(rng, n*3, 1)

	both := make([]int32, 2*m)
	FurthestPointSampling(2, n, m, append(append([]float32{}, a...), c...), newScratch(2, n), both)

	single := make([]int32, m)
	FurthestPointSampling(1, n, m, c, newScratch(1, n), single)
	assert.Equal(t, single, both[m:])
}

func TestGatherPoints(t *testing.T) {
	// b=1, c=2, n=4
	feats := []float32{
		10, 20, 30, 40,
		-1, -2, -3, -4,
	}
	idx := []int32{3, 0, 3}
	out := make([]float32, 2*3)
	GatherPoints(1, 2, 4, 3, feats, idx, out)
	assert.Equal(t, []float32{40, 10, 40, -4, -1, -4}, out)
}

func TestGatherPointsGrad_FanIn(t *testing.T) {
	gout := []float32{
		1, 2, 4,
		8, 16, 32,
	}
	idx := []int32{3, 0, 3}
	grad := make([]float32, 2*4)
	GatherPointsGrad(1, 2, 4, 3, gout, idx, grad)
	assert.Equal(t, []float32{2, 0, 0, 5, 16, 0, 0, 40}, grad)
}

func TestGatherPointsGrad_Accumulates(t *testing.T) {
	grad := []float32{1, 1}
	GatherPointsGrad(1, 1, 2, 2, []float32{2, 3}, []int32{1, 1}, grad)
	assert.Equal(t, []float32{1, 6}, grad)
}

func TestGatherAdjoint(t *testing.T) {
	rng := rand.New(rand.NewSource(13))
	const b, c, n, m = 3, 6, 25, 40

	feats := randomFloats(rng, b*c*n, 1)
	idx := randomIndices(rng, b*m, n)
	gout := randomFloats(rng, b*c*m, 1)

	for name, backend := range testBackends() {
		t.Run(name, func(t *testing.T) {
			out := zeros(tensor.Shape{b, c, m}, tensor.Float32)
			backend.GatherPoints(mustFloat32(t, feats, tensor.Shape{b, c, n}), mustInt32(t, idx, tensor.Shape{b, m}), out)

			grad := zeros(tensor.Shape{b, c, n}, tensor.Float32)
			backend.GatherPointsGrad(mustFloat32(t, gout, tensor.Shape{b, c, m}), mustInt32(t, idx, tensor.Shape{b, m}), grad)

			lhs := dot64(out.AsFloat32(), gout)
			rhs := dot64(feats, grad.AsFloat32())
			require.InDelta(t, lhs, rhs, 1e-4)
		})
	}
}
