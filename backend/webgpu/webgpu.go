// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package webgpu provides the WebGPU backend for GPU-accelerated point kernels.
//
// The kernels run as WGSL compute shaders through go-webgpu. On platforms
// without WebGPU support New returns ErrUnavailable.
//
// Example:
//
//	gpu, err := webgpu.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer gpu.Release()
//
//	idx := tensor.MustNewRaw(tensor.Shape{b, n, 3}, tensor.Int32, tensor.CPU)
//	dist2 := tensor.MustNewRaw(tensor.Shape{b, n, 3}, tensor.Float32, tensor.CPU)
//	gpu.ThreeNN(unknown, known, dist2, idx)
package webgpu

import (
	internalwebgpu "github.com/born-ml/pointops/internal/backend/webgpu"
	"github.com/born-ml/pointops/tensor"
)

// Backend represents the WebGPU backend implementation.
type Backend = internalwebgpu.Backend

// Info describes the adapter a Backend runs on.
type Info = internalwebgpu.Info

// ErrUnavailable is returned by New when no usable adapter exists.
var ErrUnavailable = internalwebgpu.ErrUnavailable

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// New creates a new WebGPU backend.
//
// Call Release when done to free GPU resources. Returns an error wrapping
// ErrUnavailable if no compatible GPU is present.
func New() (*Backend, error) {
	return internalwebgpu.New()
}

// IsAvailable checks if WebGPU is available on the current system.
//
// This function attempts to initialize a WebGPU adapter to verify
// that a compatible GPU and drivers are present. It's useful for
// graceful fallback to CPU backend when GPU is not available.
//
// Example:
//
//	device := "cpu"
//	if webgpu.IsAvailable() {
//	    device = "webgpu"
//	}
//	ops, err := pointops.Open(pointops.Config{Device: device})
func IsAvailable() bool {
	return internalwebgpu.IsAvailable()
}
