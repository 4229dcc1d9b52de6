// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package pointops

import (
	"errors"
	"fmt"

	"github.com/born-ml/pointops/tensor"
)

// Errors returned by Open and the Ops methods. Every returned error wraps
// exactly one of them, so callers can branch with errors.Is.
var (
	// ErrShapeMismatch reports a tensor whose rank or dimensions disagree
	// with the kernel layout or with another argument (including batch size).
	ErrShapeMismatch = errors.New("pointops: shape mismatch")

	// ErrDType reports a tensor of the wrong element type.
	ErrDType = errors.New("pointops: wrong dtype")

	// ErrInvalidArgument reports a bad scalar argument (m, radius, nsample,
	// n) or an index outside its source range.
	ErrInvalidArgument = errors.New("pointops: invalid argument")

	// ErrUnsupportedTarget reports a requested device that is unknown or
	// not available on this machine. It is returned by Open before any
	// kernel runs.
	ErrUnsupportedTarget = errors.New("pointops: unsupported execution target")
)

func shapeErr(op, format string, args ...any) error {
	return fmt.Errorf("%s: %w: %s", op, ErrShapeMismatch, fmt.Sprintf(format, args...))
}

func argErr(op, format string, args ...any) error {
	return fmt.Errorf("%s: %w: %s", op, ErrInvalidArgument, fmt.Sprintf(format, args...))
}

func requireDType(op, name string, t *tensor.RawTensor, want tensor.DataType) error {
	if t == nil {
		return argErr(op, "%s is nil", name)
	}
	if t.DType() != want {
		return fmt.Errorf("%s: %w: %s is %s, want %s", op, ErrDType, name, t.DType(), want)
	}
	return nil
}

// points validates a (b, n, 3) float32 tensor and returns b and n.
func points(op, name string, t *tensor.RawTensor) (int, int, error) {
	if err := requireDType(op, name, t, tensor.Float32); err != nil {
		return 0, 0, err
	}
	s := t.Shape()
	if len(s) != 3 || s[2] != 3 {
		return 0, 0, shapeErr(op, "%s has shape %v, want (b, n, 3)", name, s)
	}
	return s[0], s[1], nil
}

// featureDims validates a (b, c, n) float32 tensor and returns b, c and n.
func featureDims(op, name string, t *tensor.RawTensor) (int, int, int, error) {
	if err := requireDType(op, name, t, tensor.Float32); err != nil {
		return 0, 0, 0, err
	}
	s := t.Shape()
	if len(s) != 3 {
		return 0, 0, 0, shapeErr(op, "%s has shape %v, want (b, c, n)", name, s)
	}
	return s[0], s[1], s[2], nil
}

// indices validates an int32 tensor of the given rank whose leading
// dimension is b, and checks every entry lies in [0, hi).
func indices(op, name string, t *tensor.RawTensor, rank, b, hi int) error {
	if err := requireDType(op, name, t, tensor.Int32); err != nil {
		return err
	}
	s := t.Shape()
	if len(s) != rank {
		return shapeErr(op, "%s has rank %d, want %d", name, len(s), rank)
	}
	if s[0] != b {
		return shapeErr(op, "%s has batch %d, want %d", name, s[0], b)
	}
	for i, v := range t.AsInt32() {
		if v < 0 || int(v) >= hi {
			return argErr(op, "%s[%d] = %d outside [0, %d)", name, i, v, hi)
		}
	}
	return nil
}

// sameShape checks that t has exactly the expected shape.
func sameShape(op, name string, t *tensor.RawTensor, want tensor.Shape) error {
	if !t.Shape().Equal(want) {
		return shapeErr(op, "%s has shape %v, want %v", name, t.Shape(), want)
	}
	return nil
}
