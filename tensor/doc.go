// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the flat-buffer tensors the point kernels read
// and write.
//
// # Overview
//
// A RawTensor is a contiguous, row-major byte buffer with a shape, a dtype
// and a device tag. The kernels use three layouts:
//   - PointSet: float32 (b, n, 3), xyz interleaved per point
//   - FeatureArray: float32 (b, c, n), channel-major
//   - IndexArray: int32 (b, m) or (b, m, k)
//
// # Basic Usage
//
//	import "github.com/born-ml/pointops/tensor"
//
//	xyz, err := tensor.FromFloat32([]float32{
//	    0, 0, 0,
//	    1, 0, 0,
//	}, tensor.Shape{1, 2, 3})
//
//	idx := tensor.MustNewRaw(tensor.Shape{1, 2}, tensor.Int32, tensor.CPU)
//	for i, v := range idx.AsInt32() { ... }
//
// # Data Types
//
//   - Float32: coordinates, features, distances, weights
//   - Int32: indices
//   - Float16: storage only; widen with ToFloat32 before running a kernel
//
// NewRaw always returns a zero-filled buffer, which is what the ball query
// and the scatter-add reverse kernels expect of their outputs.
package tensor
