// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides a pure Go CPU backend for the point kernels.
//
// # Overview
//
// This package implements a CPU backend with:
//   - Pure Go implementation (no CGO)
//   - Furthest-point sampling, ball query, gather, grouping, three-NN and
//     three-point interpolation, plus the scatter-add reverse kernels
//   - Batches, query points and channel rows spread over goroutines
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/pointops/backend/cpu"
//	    "github.com/born-ml/pointops/tensor"
//	)
//
//	func main() {
//	    backend := cpu.New()
//
//	    scratch := tensor.MustNewRaw(tensor.Shape{1, n}, tensor.Float32, tensor.CPU)
//	    scratch.Fill(1e10)
//	    idx := tensor.MustNewRaw(tensor.Shape{1, 128}, tensor.Int32, tensor.CPU)
//	    backend.FurthestPointSample(xyz, scratch, idx)
//	}
//
// Backend methods trust their arguments. The pointops package wraps them
// with validation and output allocation.
//
// # Determinism
//
// Work is only split across outputs that no other goroutine writes, so
// every result, including tie-breaks and scatter-add sums, is identical for
// any worker count.
//
// # Thread Safety
//
// The CPU backend is safe for concurrent use. It holds no mutable state.
package cpu
