package cpu

// BallQuery finds, for every query point, up to nsample reference points
// strictly inside radius.
//
// Layout: newXYZ (b, m, 3), xyz (b, n, 3), idx (b, m, nsample).
//
// Reference points are scanned in index order. On the first hit the whole
// row is filled with that index, so unused trailing slots repeat the first
// hit. A query with no hit leaves its row untouched: idx must be zeroed by
// the caller or those rows keep whatever the buffer held before.
func BallQuery(b, n, m int, radius float32, nsample int, newXYZ, xyz []float32, idx []int32) {
	radius2 := radius * radius
	for i := 0; i < b; i++ {
		for j := 0; j < m; j++ {
			ballQueryRow(n, radius2,
				newXYZ[(i*m+j)*3:(i*m+j+1)*3],
				xyz[i*n*3:(i+1)*n*3],
				idx[(i*m+j)*nsample:(i*m+j+1)*nsample])
		}
	}
}

func ballQueryRow(n int, radius2 float32, query, xyz []float32, row []int32) {
	qx, qy, qz := query[0], query[1], query[2]
	nsample := len(row)

	cnt := 0
	for k := 0; k < n && cnt < nsample; k++ {
		x := xyz[k*3+0]
		y := xyz[k*3+1]
		z := xyz[k*3+2]

		d2 := (qx-x)*(qx-x) + (qy-y)*(qy-y) + (qz-z)*(qz-z)
		if d2 < radius2 {
			hit := int32(k) //nolint:gosec // G115: k < n
			if cnt == 0 {
				for l := range row {
					row[l] = hit
				}
			}
			row[cnt] = hit
			cnt++
		}
	}
}
