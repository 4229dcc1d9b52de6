// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	internalcpu "github.com/born-ml/pointops/internal/backend/cpu"
	"github.com/born-ml/pointops/internal/parallel"
	"github.com/born-ml/pointops/tensor"
)

// Backend represents the CPU backend implementation.
type Backend = internalcpu.CPUBackend

// ParallelConfig controls how batches and rows are spread over goroutines.
type ParallelConfig = parallel.Config

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// New creates a CPU backend using every core.
//
// Example:
//
//	backend := cpu.New()
//	idx := tensor.MustNewRaw(tensor.Shape{1, 2, 4}, tensor.Int32, tensor.CPU)
//	backend.BallQuery(newXYZ, xyz, 0.5, idx)
func New() *Backend {
	return internalcpu.New()
}

// NewWithConfig creates a CPU backend with explicit parallelism.
func NewWithConfig(cfg ParallelConfig) *Backend {
	return internalcpu.NewWithConfig(cfg)
}

// DefaultParallelConfig returns one worker per CPU.
func DefaultParallelConfig() ParallelConfig {
	return parallel.DefaultConfig()
}

// Sequential returns a configuration that runs every kernel on the calling
// goroutine.
func Sequential() ParallelConfig {
	return parallel.Sequential()
}
