// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package pointops provides batched point-cloud primitives for
// PointNet++-style backbones: furthest-point sampling, ball query, gather,
// grouping, three-nearest-neighbour search and three-point interpolation,
// with the reverse kernels of the differentiable ones.
//
// # Overview
//
// Point sets are float32 tensors of shape (b, n, 3), feature maps are
// channel-major float32 tensors (b, c, n), and index arrays are int32.
// Ops checks every shape, dtype and index range, allocates zeroed outputs
// and runs the kernel on the backend chosen by Open:
//
//	ops, err := pointops.Open(pointops.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer ops.Close()
//
//	centres, _ := ops.FurthestPointSample(xyz, 512)
//	newXYZ, _ := ops.GatherPoints(xyzT, centres) // xyzT is (b, 3, n)
//	idx, _ := ops.BallQuery(newXYZ, xyz, 0.2, 32)
//	grouped, _ := ops.GroupPoints(feats, idx)
//
// # Feature propagation
//
// ThreeNN, InverseDistanceWeights and ThreeInterpolate together upsample
// features from a coarse point set onto a dense one:
//
//	dist2, nn, _ := ops.ThreeNN(dense, coarse)
//	w, _ := pointops.InverseDistanceWeights(dist2)
//	up, _ := ops.ThreeInterpolate(coarseFeats, nn, w)
//
// # Backends
//
// The CPU backend runs everywhere and spreads independent batches, query
// points and channel rows over goroutines; its results do not depend on the
// worker count. The WebGPU backend runs the same kernels as WGSL compute
// shaders where an adapter is available. Requesting it elsewhere fails with
// ErrUnsupportedTarget.
//
// # Gradients
//
// WithTape returns an Ops that records GatherPoints, GroupPoints and
// ThreeInterpolate on a gradient tape; the tape's Backward replays them
// through the reverse kernels.
package pointops
