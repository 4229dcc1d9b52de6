package cpu

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/pointops/internal/tensor"
)

func TestTopK3_Insert(t *testing.T) {
	tests := []struct {
		name     string
		dists    []float64
		wantDist [3]float64
		wantIdx  [3]int32
	}{
		{
			name:     "ascending input",
			dists:    []float64{1, 2, 3, 4},
			wantDist: [3]float64{1, 2, 3},
			wantIdx:  [3]int32{0, 1, 2},
		},
		{
			name:     "descending input",
			dists:    []float64{4, 3, 2, 1},
			wantDist: [3]float64{1, 2, 3},
			wantIdx:  [3]int32{3, 2, 1},
		},
		{
			name:     "ties keep earliest index",
			dists:    []float64{5, 5, 5, 5},
			wantDist: [3]float64{5, 5, 5},
			wantIdx:  [3]int32{0, 1, 2},
		},
		{
			name:     "fewer than three",
			dists:    []float64{2},
			wantDist: [3]float64{2, ThreeNNSentinel, ThreeNNSentinel},
			wantIdx:  [3]int32{0, 0, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			best := newTopK3()
			for k, d := range tt.dists {
				best.insert(d, int32(k))
			}
			assert.Equal(t, tt.wantDist, best.dist)
			assert.Equal(t, tt.wantIdx, best.idx)
		})
	}
}

func TestThreeNN_UnitPoints(t *testing.T) {
	dist := make([]float32, 3)
	idx := make([]int32, 3)
	ThreeNN(1, 1, 4, []float32{0.9, 0, 0}, unitPoints, dist, idx)

	// Point 1 is closest (0.01), the origin next (0.81), then 2 and 3 tie at
	// 1.81 and the lower index wins.
	assert.Equal(t, []int32{1, 0, 2}, idx)
	assert.InDeltaSlice(t, []float32{0.01, 0.81, 1.81}, dist, 1e-6)
}

func TestThreeNN_FewerThanThreeKnown(t *testing.T) {
	dist := make([]float32, 3)
	idx := []int32{9, 9, 9}
	ThreeNN(1, 1, 2, []float32{0, 0, 0}, []float32{0, 0, 2, 0, 0, 1}, dist, idx)

	assert.Equal(t, []int32{1, 0, 0}, idx)
	assert.Equal(t, float32(1), dist[0])
	assert.Equal(t, float32(4), dist[1])
	assert.True(t, math.IsInf(float64(dist[2]), 1), "unfilled slot reads back as +Inf")
}

func TestThreeNN_MatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(29))
	const b, n, m = 2, 20, 50

	unknown := randomFloats(rng, b*n*3, 1)
	known := randomFloats(rng, b*m*3, 1)

	for name, backend := range testBackends() {
		t.Run(name, func(t *testing.T) {
			dist := zeros(tensor.Shape{b, n, 3}, tensor.Float32)
			idx := zeros(tensor.Shape{b, n, 3}, tensor.Int32)
			backend.ThreeNN(mustFloat32(t, unknown, tensor.Shape{b, n, 3}), mustFloat32(t, known, tensor.Shape{b, m, 3}), dist, idx)
			gotDist, gotIdx := dist.AsFloat32(), idx.AsInt32()

			for i := 0; i < b; i++ {
				for j := 0; j < n; j++ {
					q := unknown[(i*n+j)*3 : (i*n+j+1)*3]
					all := make([]float32, m)
					for k := 0; k < m; k++ {
						p := known[(i*m+k)*3 : (i*m+k+1)*3]
						dx, dy, dz := q[0]-p[0], q[1]-p[1], q[2]-p[2]
						all[k] = dx*dx + dy*dy + dz*dz
					}
					order := make([]int, m)
					for k := range order {
						order[k] = k
					}
					sort.SliceStable(order, func(a, c int) bool { return all[order[a]] < all[order[c]] })

					o := (i*n + j) * 3
					for s := 0; s < 3; s++ {
						assert.Equal(t, int32(order[s]), gotIdx[o+s])
						assert.InDelta(t, all[order[s]], gotDist[o+s], 1e-6)
					}
					assert.LessOrEqual(t, gotDist[o], gotDist[o+1])
					assert.LessOrEqual(t, gotDist[o+1], gotDist[o+2])
				}
			}
		})
	}
}

func TestThreeInterpolate(t *testing.T) {
	// b=1, c=2, m=3, n=2
	feats := []float32{
		1, 2, 4,
		10, 20, 40,
	}
	idx := []int32{
		0, 1, 2,
		2, 2, 0,
	}
	weight := []float32{
		0.5, 0.25, 0.25,
		0.5, 0.5, 0,
	}
	out := make([]float32, 2*2)
	ThreeInterpolate(1, 2, 3, 2, feats, idx, weight, out)
	assert.Equal(t, []float32{2, 4, 20, 40}, out)
}

func TestThreeInterpolateGrad(t *testing.T) {
	gout := []float32{
		4, 8,
		1, 2,
	}
	idx := []int32{
		0, 1, 2,
		2, 2, 0,
	}
	weight := []float32{
		0.5, 0.25, 0.25,
		0.5, 0.5, 0,
	}
	grad := make([]float32, 2*3)
	ThreeInterpolateGrad(1, 2, 2, 3, gout, idx, weight, grad)
	assert.Equal(t, []float32{2, 1, 9, 0.5, 0.25, 2.25}, grad)
}

func TestThreeInterpolateAdjoint(t *testing.T) {
	rng := rand.New(rand.NewSource(31))
	const b, c, m, n = 2, 4, 15, 35

	feats := randomFloats(rng, b*c*m, 1)
	idx := randomIndices(rng, b*n*3, m)
	weight := make([]float32, b*n*3)
	for i := range weight {
		weight[i] = rng.Float32()
	}
	gout := randomFloats(rng, b*c*n, 1)

	for name, backend := range testBackends() {
		t.Run(name, func(t *testing.T) {
			idxT := mustInt32(t, idx, tensor.Shape{b, n, 3})
			wT := mustFloat32(t, weight, tensor.Shape{b, n, 3})

			out := zeros(tensor.Shape{b, c, n}, tensor.Float32)
			backend.ThreeInterpolate(mustFloat32(t, feats, tensor.Shape{b, c, m}), idxT, wT, out)

			grad := zeros(tensor.Shape{b, c, m}, tensor.Float32)
			backend.ThreeInterpolateGrad(mustFloat32(t, gout, tensor.Shape{b, c, n}), idxT, wT, grad)

			lhs := dot64(out.AsFloat32(), gout)
			rhs := dot64(feats, grad.AsFloat32())
			require.InDelta(t, lhs, rhs, 1e-3)
		})
	}
}
