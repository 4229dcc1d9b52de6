package cpu

// GroupPoints gathers neighbourhood features.
//
// Layout: features (b, c, n), idx (b, npoints, nsample),
// out (b, c, npoints, nsample); out[i,l,j,k] = features[i,l,idx[i,j,k]].
//
// A grouped channel row is a gather with the (npoints, nsample) index block
// read as one flat index row, so both directions reuse the gather row helpers.
func GroupPoints(b, c, n, npoints, nsample int, features []float32, idx []int32, out []float32) {
	k := npoints * nsample
	for i := 0; i < b; i++ {
		for l := 0; l < c; l++ {
			gatherRow(features[(i*c+l)*n:(i*c+l+1)*n], idx[i*k:(i+1)*k], out[(i*c+l)*k:(i*c+l+1)*k])
		}
	}
}

// GroupPointsGrad scatter-adds gradOut (b, c, npoints, nsample) into
// gradFeatures (b, c, n), which must be zeroed by the caller.
func GroupPointsGrad(b, c, n, npoints, nsample int, gradOut []float32, idx []int32, gradFeatures []float32) {
	k := npoints * nsample
	for i := 0; i < b; i++ {
		for l := 0; l < c; l++ {
			scatterAddRow(gradFeatures[(i*c+l)*n:(i*c+l+1)*n], idx[i*k:(i+1)*k], gradOut[(i*c+l)*k:(i*c+l+1)*k])
		}
	}
}
