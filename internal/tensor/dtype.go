// Package tensor provides the flat-buffer container used by the point-cloud
// kernels: a shape, a dtype, a device tag and a contiguous byte buffer.
package tensor

// DataType represents runtime type information for tensors.
type DataType int

// Supported data types for tensors.
//
// Float16 is a storage type only: point clouds saved in half precision are
// widened with ToFloat32 before any kernel sees them.
const (
	Float32 DataType = iota
	Int32
	Float16
)

// Size returns the byte size of the data type.
func (dt DataType) Size() int {
	switch dt {
	case Float32, Int32:
		return 4
	case Float16:
		return 2
	default:
		panic("unknown data type")
	}
}

// String returns a human-readable name for the data type.
func (dt DataType) String() string {
	switch dt {
	case Float32:
		return "float32"
	case Int32:
		return "int32"
	case Float16:
		return "float16"
	default:
		return "unknown"
	}
}
