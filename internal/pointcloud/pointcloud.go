// Package pointcloud loads point sets from disk.
//
// Two formats are understood, chosen by file extension:
//   - .xyz / .txt: one point per line, whitespace separated "x y z [extra...]",
//     blank lines and lines starting with '#' ignored.
//   - .safetensors: a float32 or float16 tensor named "xyz" or "points" with
//     shape (n, 3) or (b, n, 3).
//
// Every loader returns a float32 tensor of shape (b, n, 3) ready for the
// kernels; text files always produce b = 1.
package pointcloud

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/born-ml/pointops/internal/serialization"
	"github.com/born-ml/pointops/internal/tensor"
)

// Format represents a point-cloud file format.
type Format int

// Supported formats.
const (
	FormatUnknown Format = iota
	FormatXYZ
	FormatSafeTensors
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatXYZ:
		return "XYZ"
	case FormatSafeTensors:
		return "SafeTensors"
	default:
		return "Unknown"
	}
}

// TensorNames are the names probed, in order, in safetensors files.
var TensorNames = []string{"xyz", "points"}

// ErrNoPoints is returned when a file holds no usable points.
var ErrNoPoints = errors.New("pointcloud: no points")

// DetectFormat infers the format from the file extension.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xyz", ".txt":
		return FormatXYZ
	case ".safetensors":
		return FormatSafeTensors
	default:
		return FormatUnknown
	}
}

// Load reads a point set and returns it as a (b, n, 3) float32 tensor.
func Load(path string) (*tensor.RawTensor, error) {
	switch f := DetectFormat(path); f {
	case FormatXYZ:
		//nolint:gosec // G304: loading user-supplied point clouds is the purpose
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open file: %w", err)
		}
		defer func() {
			_ = file.Close()
		}()
		pts, err := ReadXYZ(file)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return pts, nil
	case FormatSafeTensors:
		return loadSafeTensors(path)
	default:
		return nil, fmt.Errorf("unsupported file format: %s (expected .xyz, .txt or .safetensors)",
			filepath.Ext(path))
	}
}

// ReadXYZ parses whitespace-separated coordinates. Columns past the third
// (normals, colours, intensities) are ignored.
func ReadXYZ(r io.Reader) (*tensor.RawTensor, error) {
	var coords []float32
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) < 3 {
			return nil, fmt.Errorf("line %d: want at least 3 columns, got %d", line, len(fields))
		}
		for _, field := range fields[:3] {
			v, err := strconv.ParseFloat(field, 32)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			coords = append(coords, float32(v))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(coords) == 0 {
		return nil, ErrNoPoints
	}
	return tensor.FromFloat32(coords, tensor.Shape{1, len(coords) / 3, 3})
}

// WriteXYZ writes a (b, n, 3) or (n, 3) point tensor as text, one point per
// line. Batches are written back to back.
func WriteXYZ(w io.Writer, pts *tensor.RawTensor) error {
	if pts.DType() != tensor.Float32 {
		return fmt.Errorf("write xyz: dtype %s, want float32", pts.DType())
	}
	shape := pts.Shape()
	if len(shape) == 0 || shape[len(shape)-1] != 3 {
		return fmt.Errorf("write xyz: shape %v, want (..., 3)", shape)
	}
	bw := bufio.NewWriter(w)
	data := pts.AsFloat32()
	for i := 0; i+2 < len(data); i += 3 {
		if _, err := fmt.Fprintf(bw, "%g %g %g\n", data[i], data[i+1], data[i+2]); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func loadSafeTensors(path string) (*tensor.RawTensor, error) {
	r, err := serialization.NewSafeTensorsReader(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = r.Close()
	}()

	name := ""
	for _, candidate := range TensorNames {
		if r.Has(candidate) {
			name = candidate
			break
		}
	}
	if name == "" {
		return nil, fmt.Errorf("%s: %w (looked for %s)", path, serialization.ErrTensorNotFound,
			strings.Join(TensorNames, ", "))
	}

	pts, err := r.ReadTensor(name)
	if err != nil {
		return nil, err
	}
	if pts.DType() != tensor.Float32 {
		return nil, fmt.Errorf("%s: tensor %q has dtype %s, want float32 or float16", path, name, pts.DType())
	}

	shape := pts.Shape()
	switch {
	case len(shape) == 2 && shape[1] == 3:
		return tensor.FromFloat32(pts.AsFloat32(), tensor.Shape{1, shape[0], 3})
	case len(shape) == 3 && shape[2] == 3:
		return pts, nil
	default:
		return nil, fmt.Errorf("%s: tensor %q has shape %v, want (n, 3) or (b, n, 3)", path, name, shape)
	}
}
