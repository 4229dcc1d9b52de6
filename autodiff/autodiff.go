// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff provides reverse-mode differentiation for the point kernels.
//
// It wraps any backend to record the differentiable kernels (gather,
// grouping, three-point interpolation) on a gradient tape and replays them
// through the matching reverse kernels.
//
// Example:
//
//	import (
//	    "github.com/born-ml/pointops/autodiff"
//	    "github.com/born-ml/pointops/backend/cpu"
//	)
//
//	func main() {
//	    backend := autodiff.New(cpu.New())
//	    backend.Tape().StartRecording()
//
//	    backend.GroupPoints(features, idx, grouped)
//
//	    // d sum(grouped) / d features
//	    grads := autodiff.Backward(grouped, backend)
//	    _ = grads[features]
//	}
package autodiff

import (
	"github.com/born-ml/pointops/internal/autodiff"
	"github.com/born-ml/pointops/internal/tensor"
)

// Backend is the autodiff-enabled backend.
type Backend[B tensor.Backend] = autodiff.AutodiffBackend[B]

// New creates a new autodiff backend wrapping the given backend.
//
// Example:
//
//	base := cpu.New()
//	backend := autodiff.New(base)
func New[B tensor.Backend](backend B) *Backend[B] {
	return autodiff.New(backend)
}

// GradientTape records operations for automatic differentiation.
type GradientTape = autodiff.GradientTape

// NewGradientTape creates a new gradient tape.
func NewGradientTape() *GradientTape {
	return autodiff.NewGradientTape()
}

// BackwardCapable interface for backends that support backpropagation.
type BackwardCapable = autodiff.BackwardCapable

// Backward computes gradients of sum(output) with respect to every input of
// the recorded operations.
func Backward(output *tensor.RawTensor, backend BackwardCapable) map[*tensor.RawTensor]*tensor.RawTensor {
	return autodiff.Backward(output, backend)
}
