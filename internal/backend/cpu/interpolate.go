package cpu

// ThreeNNSentinel is the distance reported for neighbour slots that could
// not be filled because fewer than three known points exist. It overflows
// float32, so such slots read back as +Inf; their index is 0.
const ThreeNNSentinel = 1e40

// topK3 keeps the three smallest distances seen so far, ascending.
// Insertion uses strict comparisons, so an equal distance never displaces
// an earlier index.
type topK3 struct {
	dist [3]float64
	idx  [3]int32
}

func newTopK3() topK3 {
	return topK3{dist: [3]float64{ThreeNNSentinel, ThreeNNSentinel, ThreeNNSentinel}}
}

func (t *topK3) insert(d float64, k int32) {
	switch {
	case d < t.dist[0]:
		t.dist[2], t.idx[2] = t.dist[1], t.idx[1]
		t.dist[1], t.idx[1] = t.dist[0], t.idx[0]
		t.dist[0], t.idx[0] = d, k
	case d < t.dist[1]:
		t.dist[2], t.idx[2] = t.dist[1], t.idx[1]
		t.dist[1], t.idx[1] = d, k
	case d < t.dist[2]:
		t.dist[2], t.idx[2] = d, k
	}
}

// ThreeNN finds the three nearest known points of every unknown point.
//
// Layout: unknown (b, n, 3), known (b, m, 3), dist2 (b, n, 3), idx (b, n, 3).
// dist2 holds squared distances sorted ascending.
func ThreeNN(b, n, m int, unknown, known, dist2 []float32, idx []int32) {
	for i := 0; i < b; i++ {
		for j := 0; j < n; j++ {
			o := (i*n + j) * 3
			threeNNRow(m, unknown[o:o+3], known[i*m*3:(i+1)*m*3], dist2[o:o+3], idx[o:o+3])
		}
	}
}

func threeNNRow(m int, query, known, dist2 []float32, idx []int32) {
	ux, uy, uz := query[0], query[1], query[2]

	best := newTopK3()
	for k := 0; k < m; k++ {
		x := known[k*3+0]
		y := known[k*3+1]
		z := known[k*3+2]

		d := (ux-x)*(ux-x) + (uy-y)*(uy-y) + (uz-z)*(uz-z)
		best.insert(float64(d), int32(k)) //nolint:gosec // G115: k < m
	}

	for t := 0; t < 3; t++ {
		dist2[t] = float32(best.dist[t])
		idx[t] = best.idx[t]
	}
}

// ThreeInterpolate blends three neighbour features per point.
//
// Layout: features (b, c, m), idx (b, n, 3), weight (b, n, 3), out (b, c, n);
// out[i,l,j] = sum_t features[i,l,idx[i,j,t]] * weight[i,j,t].
// Weights are used as given.
func ThreeInterpolate(b, c, m, n int, features []float32, idx []int32, weight, out []float32) {
	for i := 0; i < b; i++ {
		for l := 0; l < c; l++ {
			interpolateRow(features[(i*c+l)*m:(i*c+l+1)*m], idx[i*n*3:(i+1)*n*3], weight[i*n*3:(i+1)*n*3], out[(i*c+l)*n:(i*c+l+1)*n])
		}
	}
}

// ThreeInterpolateGrad scatter-adds gradOut (b, c, n) weighted by weight
// into gradFeatures (b, c, m), which must be zeroed by the caller.
func ThreeInterpolateGrad(b, c, n, m int, gradOut []float32, idx []int32, weight, gradFeatures []float32) {
	for i := 0; i < b; i++ {
		for l := 0; l < c; l++ {
			interpolateGradRow(gradOut[(i*c+l)*n:(i*c+l+1)*n], idx[i*n*3:(i+1)*n*3], weight[i*n*3:(i+1)*n*3], gradFeatures[(i*c+l)*m:(i*c+l+1)*m])
		}
	}
}

func interpolateRow(src []float32, idx []int32, weight, dst []float32) {
	for j := range dst {
		t := j * 3
		dst[j] = src[idx[t]]*weight[t] + src[idx[t+1]]*weight[t+1] + src[idx[t+2]]*weight[t+2]
	}
}

func interpolateGradRow(gradOut []float32, idx []int32, weight, dst []float32) {
	for j, g := range gradOut {
		t := j * 3
		dst[idx[t]] += g * weight[t]
		dst[idx[t+1]] += g * weight[t+1]
		dst[idx[t+2]] += g * weight[t+2]
	}
}
