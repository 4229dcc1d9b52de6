// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package pointops_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/pointops"
	"github.com/born-ml/pointops/tensor"
)

func TestInverseDistanceWeights(t *testing.T) {
	inf := float32(math.Inf(1))
	tests := []struct {
		name  string
		dist2 []float32
		want  []float32
	}{
		{"equal distances", []float32{4, 4, 4}, []float32{1.0 / 3, 1.0 / 3, 1.0 / 3}},
		// 1/1 : 1/2 : 1/4 normalised by 7/4.
		{"inverse proportional", []float32{1, 4, 16}, []float32{4.0 / 7, 2.0 / 7, 1.0 / 7}},
		{"coincident point dominates", []float32{0, 1, 1}, []float32{1, 0, 0}},
		{"sentinel slot gets zero", []float32{1, 1, inf}, []float32{0.5, 0.5, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := pointops.InverseDistanceWeights(f32(t, tt.dist2, tensor.Shape{1, 1, 3}))
			require.NoError(t, err)
			assert.Equal(t, tensor.Shape{1, 1, 3}, w.Shape())
			assert.InDeltaSlice(t, tt.want, w.AsFloat32(), 1e-6)
		})
	}
}

func TestInverseDistanceWeights_RowsSumToOne(t *testing.T) {
	dist2 := f32(t, []float32{
		0.01, 0.81, 1.81,
		2, 3, 5,
	}, tensor.Shape{2, 1, 3})

	w, err := pointops.InverseDistanceWeights(dist2)
	require.NoError(t, err)
	data := w.AsFloat32()
	for r := 0; r < len(data); r += 3 {
		assert.InDelta(t, 1, data[r]+data[r+1]+data[r+2], 1e-6, "row %d", r/3)
		assert.GreaterOrEqual(t, data[r], data[r+1])
		assert.GreaterOrEqual(t, data[r+1], data[r+2])
	}
}

func TestInverseDistanceWeights_Errors(t *testing.T) {
	_, err := pointops.InverseDistanceWeights(f32(t, []float32{1, -1, 1}, tensor.Shape{1, 1, 3}))
	assert.ErrorIs(t, err, pointops.ErrInvalidArgument)

	_, err = pointops.InverseDistanceWeights(f32(t, []float32{1, 1}, tensor.Shape{1, 1, 2}))
	assert.ErrorIs(t, err, pointops.ErrShapeMismatch)
}

// TestFeaturePropagation runs the three-NN, weight and interpolation steps
// end to end: known features that are linear in x are reproduced exactly at
// a query lying on a known point.
func TestFeaturePropagation(t *testing.T) {
	ops := openCPU(t)
	known := f32(t, unitPoints, tensor.Shape{1, 4, 3})
	features := f32(t, []float32{0, 1, 0, 0}, tensor.Shape{1, 1, 4}) // x coordinate
	dense := f32(t, []float32{1, 0, 0}, tensor.Shape{1, 1, 3})

	dist2, idx, err := ops.ThreeNN(dense, known)
	require.NoError(t, err)
	w, err := pointops.InverseDistanceWeights(dist2)
	require.NoError(t, err)
	up, err := ops.ThreeInterpolate(features, idx, w)
	require.NoError(t, err)

	assert.InDelta(t, 1, up.AsFloat32()[0], 1e-6)
}
