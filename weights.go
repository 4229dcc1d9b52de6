// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package pointops

import (
	"math"

	"github.com/viterin/vek/vek32"

	"github.com/born-ml/pointops/tensor"
)

// weightEpsilon keeps coincident points from producing infinite weights.
const weightEpsilon = 1e-8

// InverseDistanceWeights turns the squared distances returned by ThreeNN
// (b, n, 3) into interpolation weights of the same shape:
//
//	w_k = (1 / (sqrt(dist2_k) + 1e-8)) / sum_j (1 / (sqrt(dist2_j) + 1e-8))
//
// Every triple sums to one. Unfilled +Inf slots (fewer than three known
// points) get weight zero.
func InverseDistanceWeights(dist2 *tensor.RawTensor) (*tensor.RawTensor, error) {
	const op = "inverse_distance_weights"
	b, n, err := points(op, "dist2", dist2)
	if err != nil {
		return nil, err
	}

	out := alloc(tensor.Shape{b, n, 3}, tensor.Float32)
	w, d := out.AsFloat32(), dist2.AsFloat32()
	for i, v := range d {
		if v < 0 || math.IsNaN(float64(v)) {
			return nil, argErr(op, "dist2[%d] = %v is not a squared distance", i, v)
		}
		w[i] = float32(1 / (math.Sqrt(float64(v)) + weightEpsilon))
	}
	for r := 0; r < len(w); r += 3 {
		row := w[r : r+3]
		vek32.DivNumber_Inplace(row, vek32.Sum(row))
	}
	return out, nil
}
