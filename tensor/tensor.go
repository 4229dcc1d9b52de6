// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/born-ml/pointops/internal/tensor"
)

// DataType represents the element type of a tensor.
type DataType = tensor.DataType

// Data type constants.
const (
	Float32 DataType = tensor.Float32
	Int32   DataType = tensor.Int32
	Float16 DataType = tensor.Float16
)

// Device represents the compute device a backend runs on.
type Device = tensor.Device

// Device constants.
const (
	CPU    Device = tensor.CPU
	WebGPU Device = tensor.WebGPU
)

// Shape represents the dimensions of a tensor.
// Example: Shape{2, 1024, 3} is a batch of two 1024-point clouds.
type Shape = tensor.Shape

// RawTensor is a reference-counted flat buffer with shape and dtype.
//
// Example:
//
//	raw, _ := tensor.NewRaw(tensor.Shape{1, 4, 3}, tensor.Float32, tensor.CPU)
//	data := raw.AsFloat32() // live view of the buffer
//	clone := raw.Clone()    // shares the buffer
type RawTensor = tensor.RawTensor

// Backend is implemented by every compute backend (backend/cpu,
// backend/webgpu) and by the autodiff decorator.
//
// Backend methods write into caller-allocated outputs and trust their
// inputs. Use the pointops package for validated, allocating calls.
type Backend = tensor.Backend

// NewRaw creates a zero-filled tensor.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	return tensor.NewRaw(shape, dtype, device)
}

// MustNewRaw is like NewRaw but panics on an invalid shape.
func MustNewRaw(shape Shape, dtype DataType, device Device) *RawTensor {
	return tensor.MustNewRaw(shape, dtype, device)
}

// FromFloat32 creates a float32 CPU tensor holding a copy of data.
func FromFloat32(data []float32, shape Shape) (*RawTensor, error) {
	return tensor.FromFloat32(data, shape)
}

// FromInt32 creates an int32 CPU tensor holding a copy of data.
func FromInt32(data []int32, shape Shape) (*RawTensor, error) {
	return tensor.FromInt32(data, shape)
}
