package webgpu

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDispatchSize(t *testing.T) {
	tests := []struct {
		name    string
		threads int
		wantX   uint32
		wantY   uint32
	}{
		{"empty", 0, 0, 0},
		{"one", 1, 1, 1},
		{"exact workgroup", workgroupSize, 1, 1},
		{"one over", workgroupSize + 1, 2, 1},
		{"at limit", maxWorkgroupsPerDim * workgroupSize, maxWorkgroupsPerDim, 1},
		{"spills into y", maxWorkgroupsPerDim*workgroupSize + 1, maxWorkgroupsPerDim, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y := dispatchSize(tt.threads)
			assert.Equal(t, tt.wantX, x)
			assert.Equal(t, tt.wantY, y)
			assert.GreaterOrEqual(t, int(x)*int(y)*workgroupSize, tt.threads)
		})
	}
}

func TestParams(t *testing.T) {
	buf := params{}.u32(3).u32(7).f32(0.25).bytes()
	assert.Len(t, buf, 16)
	assert.Equal(t, uint32(3), binary.LittleEndian.Uint32(buf[0:]))
	assert.Equal(t, uint32(7), binary.LittleEndian.Uint32(buf[4:]))
	assert.Equal(t, float32(0.25), math.Float32frombits(binary.LittleEndian.Uint32(buf[8:])))
	assert.Equal(t, uint32(0), binary.LittleEndian.Uint32(buf[12:]))

	assert.Len(t, params{}.u32(1).u32(2).u32(3).u32(4).u32(5).bytes(), 32)
	assert.Len(t, params{}.bytes(), 16)
}
