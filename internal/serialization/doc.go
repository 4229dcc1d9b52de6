// Package serialization reads and writes point-cloud data in the SafeTensors
// format, the exchange format used by the surrounding ML tooling.
//
//	Format Structure:
//	  [8 bytes: Header Size (uint64 LE)]
//	  [Header: JSON, tensor name -> {dtype, shape, data_offsets}, plus __metadata__]
//	  [Tensor data: raw little-endian bytes]
//
// Supported dtypes are F32, I32 and F16. F16 tensors (compact point-cloud
// dumps) are widened to float32 when read.
//
// Files written by this package carry a SHA-256 of the data section in the
// "checksum" metadata entry; the reader verifies it when present.
//
// Example usage:
//
//	err := serialization.WriteSafeTensors("cloud.safetensors", map[string]*tensor.RawTensor{
//	    "xyz": points,
//	    "idx": sampled,
//	}, map[string]string{"source": "scan-17"})
//
//	r, err := serialization.NewSafeTensorsReader("cloud.safetensors")
//	defer r.Close()
//	xyz, err := r.ReadTensor("xyz")
package serialization
