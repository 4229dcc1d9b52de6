package tensor

// Backend defines the point-cloud kernels every compute backend implements.
//
// All methods write into caller-owned output tensors and never keep a
// reference to any argument after returning. Inputs are assumed to be
// validated (float32/int32 dtypes, matching batch sizes, indices in range);
// backends panic on the violations they happen to notice and otherwise have
// undefined results.
//
// Implementations:
//   - CPU: pure Go, parallel across independent batches/rows
//   - WebGPU: WGSL compute shaders (windows)
type Backend interface {
	// Sampling
	FurthestPointSample(xyz, scratch, idx *RawTensor) // xyz (b,n,3), scratch (b,n), idx (b,m)
	BallQuery(newXYZ, xyz *RawTensor, radius float32, idx *RawTensor)

	// Gather: features (b,c,n), idx (b,m), out (b,c,m)
	GatherPoints(features, idx, out *RawTensor)
	GatherPointsGrad(gradOut, idx, gradFeatures *RawTensor)

	// Grouping: features (b,c,n), idx (b,npoint,nsample), out (b,c,npoint,nsample)
	GroupPoints(features, idx, out *RawTensor)
	GroupPointsGrad(gradOut, idx, gradFeatures *RawTensor)

	// Interpolation: unknown (b,n,3), known (b,m,3) -> dist2, idx (b,n,3)
	ThreeNN(unknown, known, dist2, idx *RawTensor)
	ThreeInterpolate(features, idx, weight, out *RawTensor)
	ThreeInterpolateGrad(gradOut, idx, weight, gradFeatures *RawTensor)

	// Metadata
	Name() string
	Device() Device
}
