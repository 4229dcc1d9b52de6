package cpu

// FPSScratchInit is the value the furthest-point scratch buffer must hold
// before sampling starts. It stands in for +Inf.
const FPSScratchInit = 1e10

// fpsMinMagnitude is the squared norm at or below which a point is treated
// as padding and never chosen by furthest-point sampling.
const fpsMinMagnitude = 1e-3

// FurthestPointSampling selects m of n points per batch by greedy
// furthest-point sampling.
//
// Layout: xyz (b, n, 3), scratch (b, n), idx (b, m).
//
// scratch must be filled with FPSScratchInit by the caller; it holds the
// running squared distance from every point to the selected set. Index 0 is
// always selected first. Points with a squared norm <= 1e-3 keep having
// their scratch updated but are never selected; if no point qualifies, index
// 0 is selected again.
func FurthestPointSampling(b, n, m int, xyz, scratch []float32, idx []int32) {
	for i := 0; i < b; i++ {
		fpsBatch(n, m, xyz[i*n*3:(i+1)*n*3], scratch[i*n:(i+1)*n], idx[i*m:(i+1)*m])
	}
}

func fpsBatch(n, m int, xyz, scratch []float32, idx []int32) {
	old := 0
	idx[0] = 0

	for j := 1; j < m; j++ {
		besti := 0
		best := float32(-1)

		x1 := xyz[old*3+0]
		y1 := xyz[old*3+1]
		z1 := xyz[old*3+2]

		for k := 0; k < n; k++ {
			x2 := xyz[k*3+0]
			y2 := xyz[k*3+1]
			z2 := xyz[k*3+2]

			d := (x2-x1)*(x2-x1) + (y2-y1)*(y2-y1) + (z2-z1)*(z2-z1)
			d2 := min(d, scratch[k])
			scratch[k] = d2

			if x2*x2+y2*y2+z2*z2 <= fpsMinMagnitude {
				continue
			}
			// Strict > keeps the lowest index on ties.
			if d2 > best {
				best = d2
				besti = k
			}
		}

		old = besti
		idx[j] = int32(old) //nolint:gosec // G115: old < n, n fits int32 by contract
	}
}

// GatherPoints gathers features by index.
//
// Layout: features (b, c, n), idx (b, m), out (b, c, m);
// out[i,l,j] = features[i,l,idx[i,j]].
func GatherPoints(b, c, n, m int, features []float32, idx []int32, out []float32) {
	for i := 0; i < b; i++ {
		for l := 0; l < c; l++ {
			gatherRow(features[(i*c+l)*n:(i*c+l+1)*n], idx[i*m:(i+1)*m], out[(i*c+l)*m:(i*c+l+1)*m])
		}
	}
}

// GatherPointsGrad scatter-adds gradOut (b, c, m) into gradFeatures (b, c, n).
// gradFeatures must be zeroed by the caller; repeated indices accumulate.
func GatherPointsGrad(b, c, n, m int, gradOut []float32, idx []int32, gradFeatures []float32) {
	for i := 0; i < b; i++ {
		for l := 0; l < c; l++ {
			scatterAddRow(gradFeatures[(i*c+l)*n:(i*c+l+1)*n], idx[i*m:(i+1)*m], gradOut[(i*c+l)*m:(i*c+l+1)*m])
		}
	}
}

// gatherRow writes dst[j] = src[idx[j]] for one channel row.
func gatherRow(src []float32, idx []int32, dst []float32) {
	for j, a := range idx {
		dst[j] = src[a]
	}
}

// scatterAddRow accumulates dst[idx[j]] += src[j] for one channel row.
//
// Each channel row owns its destination row, so rows can run concurrently
// while the additions inside a row stay in scan order.
func scatterAddRow(dst []float32, idx []int32, src []float32) {
	for j, a := range idx {
		dst[a] += src[j]
	}
}
