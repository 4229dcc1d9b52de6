//go:build !windows

package webgpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/pointops/internal/tensor"
)

func TestNew_Unavailable(t *testing.T) {
	backend, err := New()
	require.ErrorIs(t, err, ErrUnavailable)
	assert.Nil(t, backend)
	assert.False(t, IsAvailable())
}

func TestStub_ImplementsBackend(t *testing.T) {
	var b tensor.Backend = &Backend{}
	assert.Equal(t, tensor.WebGPU, b.Device())
	assert.PanicsWithValue(t, "webgpu: three_nn: webgpu: no usable adapter", func() {
		b.ThreeNN(nil, nil, nil, nil)
	})
}
