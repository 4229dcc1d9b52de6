// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/pointops/internal/backend/cpu"
	"github.com/born-ml/pointops/tensor"
)

// TestBackendInterface verifies that cpu.CPUBackend implements tensor.Backend.
func TestBackendInterface(_ *testing.T) {
	var _ tensor.Backend = (*cpu.CPUBackend)(nil)
}

func TestRawTensorAPI(t *testing.T) {
	raw, err := tensor.NewRaw(tensor.Shape{1, 4, 3}, tensor.Float32, tensor.CPU)
	require.NoError(t, err)

	assert.True(t, raw.Shape().Equal(tensor.Shape{1, 4, 3}))
	assert.Equal(t, tensor.Float32, raw.DType())
	assert.Equal(t, tensor.CPU, raw.Device())
	assert.Equal(t, 12, raw.NumElements())
	assert.Equal(t, 48, raw.ByteSize())
	assert.Equal(t, make([]float32, 12), raw.AsFloat32(), "NewRaw zero-fills")
}

func TestFromSlices(t *testing.T) {
	coords := []float32{0, 0, 0, 1, 2, 3}
	xyz, err := tensor.FromFloat32(coords, tensor.Shape{1, 2, 3})
	require.NoError(t, err)
	coords[0] = 9
	assert.Equal(t, float32(0), xyz.AsFloat32()[0], "FromFloat32 copies its input")

	idx, err := tensor.FromInt32([]int32{1, 0}, tensor.Shape{1, 2})
	require.NoError(t, err)
	assert.Equal(t, tensor.Int32, idx.DType())

	_, err = tensor.FromFloat32(coords, tensor.Shape{1, 3, 3})
	assert.Error(t, err)
}

func TestMustNewRaw_Panics(t *testing.T) {
	assert.Panics(t, func() {
		tensor.MustNewRaw(tensor.Shape{0, 3}, tensor.Float32, tensor.CPU)
	})
}
