// Package webgpu runs the point-cloud kernels as WGSL compute shaders
// through go-webgpu (github.com/go-webgpu/webgpu), a zero-CGO binding to
// wgpu-native.
//
// The GPU path is built on windows, where the native library ships with the
// bindings. On other platforms New always fails with ErrUnavailable.
package webgpu

import (
	"encoding/binary"
	"errors"
	"math"
)

// ErrUnavailable is returned by New when no WebGPU adapter can be used.
var ErrUnavailable = errors.New("webgpu: no usable adapter")

const (
	// workgroupSize is the number of invocations per workgroup in every shader.
	workgroupSize = 256

	// maxWorkgroupsPerDim is the WebGPU limit on workgroups per dispatch dimension.
	maxWorkgroupsPerDim = 65535
)

// Info describes the adapter a backend runs on.
type Info struct {
	Vendor       string
	Device       string
	Architecture string
	Backend      string
}

// dispatchSize returns the workgroup grid for threads invocations.
// Grids larger than the per-dimension limit spill into y; shaders flatten
// the invocation id as gid.y*(num_workgroups.x*workgroupSize) + gid.x.
func dispatchSize(threads int) (x, y uint32) {
	if threads <= 0 {
		return 0, 0
	}
	groups := (threads + workgroupSize - 1) / workgroupSize
	if groups <= maxWorkgroupsPerDim {
		return uint32(groups), 1 //nolint:gosec // G115: bounded above
	}
	rows := (groups + maxWorkgroupsPerDim - 1) / maxWorkgroupsPerDim
	return maxWorkgroupsPerDim, uint32(rows) //nolint:gosec // G115: rows < groups
}

// params packs a shader uniform block of 32-bit words, padded to the 16-byte
// alignment uniform buffers require.
type params []uint32

func (p params) u32(v int) params {
	return append(p, uint32(v)) //nolint:gosec // G115: dims are validated positive ints
}

func (p params) f32(v float32) params {
	return append(p, math.Float32bits(v))
}

func (p params) bytes() []byte {
	size := (len(p)*4 + 15) &^ 15
	if size == 0 {
		size = 16
	}
	out := make([]byte, size)
	for i, v := range p {
		binary.LittleEndian.PutUint32(out[i*4:], v)
	}
	return out
}
