package autodiff_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/pointops/internal/autodiff"
	"github.com/born-ml/pointops/internal/backend/cpu"
	"github.com/born-ml/pointops/internal/tensor"
)

func f32(t *testing.T, data []float32, shape tensor.Shape) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.FromFloat32(data, shape)
	require.NoError(t, err)
	return raw
}

func i32(t *testing.T, data []int32, shape tensor.Shape) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.FromInt32(data, shape)
	require.NoError(t, err)
	return raw
}

func empty(shape tensor.Shape, dtype tensor.DataType) *tensor.RawTensor {
	return tensor.MustNewRaw(shape, dtype, tensor.CPU)
}

func TestAutodiffBackend_Wraps(t *testing.T) {
	backend := autodiff.New(cpu.New())
	assert.Equal(t, "Autodiff(CPU)", backend.Name())
	assert.Equal(t, tensor.CPU, backend.Device())
	assert.NotNil(t, backend.Inner())

	var _ tensor.Backend = backend
	var _ autodiff.BackwardCapable = backend
}

func TestTape_RecordsOnlyWhenRecording(t *testing.T) {
	backend := autodiff.New(cpu.New())
	features := f32(t, []float32{1, 2, 3}, tensor.Shape{1, 1, 3})
	idx := i32(t, []int32{2}, tensor.Shape{1, 1})

	backend.GatherPoints(features, idx, empty(tensor.Shape{1, 1, 1}, tensor.Float32))
	assert.Equal(t, 0, backend.Tape().NumOps())

	backend.Tape().StartRecording()
	assert.True(t, backend.Tape().IsRecording())
	backend.GatherPoints(features, idx, empty(tensor.Shape{1, 1, 1}, tensor.Float32))
	assert.Equal(t, 1, backend.Tape().NumOps())

	backend.Tape().Clear()
	assert.Equal(t, 0, backend.Tape().NumOps())
	assert.True(t, backend.Tape().IsRecording())

	backend.Tape().StopRecording()
	assert.False(t, backend.Tape().IsRecording())
}

func TestTape_IndexKernelsNotRecorded(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	xyz := f32(t, []float32{0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0, 1}, tensor.Shape{1, 4, 3})
	scratch := empty(tensor.Shape{1, 4}, tensor.Float32)
	scratch.Fill(cpu.FPSScratchInit)
	backend.FurthestPointSample(xyz, scratch, empty(tensor.Shape{1, 2}, tensor.Int32))
	backend.BallQuery(xyz, xyz, 0.5, empty(tensor.Shape{1, 4, 2}, tensor.Int32))
	backend.ThreeNN(xyz, xyz, empty(tensor.Shape{1, 4, 3}, tensor.Float32), empty(tensor.Shape{1, 4, 3}, tensor.Int32))

	assert.Equal(t, 0, backend.Tape().NumOps())
}

func TestBackward_GroupCountsUses(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	features := f32(t, []float32{1, 2, 3, 4}, tensor.Shape{1, 1, 4})
	idx := i32(t, []int32{0, 0, 3, 1}, tensor.Shape{1, 2, 2})
	grouped := empty(tensor.Shape{1, 1, 2, 2}, tensor.Float32)
	backend.GroupPoints(features, idx, grouped)
	assert.Equal(t, []float32{1, 1, 4, 2}, grouped.AsFloat32())

	grads := autodiff.Backward(grouped, backend)
	require.Contains(t, grads, features)
	assert.Equal(t, []float32{2, 1, 0, 1}, grads[features].AsFloat32())
}

func TestBackward_Chain(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	// features (1,1,4) -> gather 2 points -> interpolate back to 3 points.
	features := f32(t, []float32{1, 2, 3, 4}, tensor.Shape{1, 1, 4})
	sampleIdx := i32(t, []int32{3, 1}, tensor.Shape{1, 2})
	sampled := empty(tensor.Shape{1, 1, 2}, tensor.Float32)
	backend.GatherPoints(features, sampleIdx, sampled)

	nnIdx := i32(t, []int32{
		0, 1, 1,
		1, 0, 0,
		0, 0, 0,
	}, tensor.Shape{1, 3, 3})
	weight := f32(t, []float32{
		0.5, 0.25, 0.25,
		1, 0, 0,
		0.2, 0.3, 0.5,
	}, tensor.Shape{1, 3, 3})
	up := empty(tensor.Shape{1, 1, 3}, tensor.Float32)
	backend.ThreeInterpolate(sampled, nnIdx, weight, up)
	assert.InDeltaSlice(t, []float32{3, 2, 4}, up.AsFloat32(), 1e-6)

	grads := autodiff.Backward(up, backend)

	// d(sum up)/d(sampled) = [0.5+0+1, 0.5+1+0] = [1.5, 1.5]
	assert.InDeltaSlice(t, []float32{1.5, 1.5}, grads[sampled].AsFloat32(), 1e-6)
	// scattered to features[3] and features[1]
	assert.InDeltaSlice(t, []float32{0, 1.5, 0, 1.5}, grads[features].AsFloat32(), 1e-6)
}

func TestBackwardFrom_SumsBranches(t *testing.T) {
	backend := autodiff.New(cpu.New())
	tape := backend.Tape()
	tape.StartRecording()

	features := f32(t, []float32{1, 2, 3}, tensor.Shape{1, 1, 3})

	a := empty(tensor.Shape{1, 1, 2}, tensor.Float32)
	backend.GatherPoints(features, i32(t, []int32{0, 2}, tensor.Shape{1, 2}), a)

	b := empty(tensor.Shape{1, 1, 1, 2}, tensor.Float32)
	backend.GroupPoints(features, i32(t, []int32{2, 2}, tensor.Shape{1, 1, 2}), b)

	seedA := f32(t, []float32{1, 10}, tensor.Shape{1, 1, 2})
	seedB := f32(t, []float32{100, 1000}, tensor.Shape{1, 1, 1, 2})
	grads := tape.BackwardFrom(map[*tensor.RawTensor]*tensor.RawTensor{a: seedA, b: seedB}, backend)

	assert.Equal(t, []float32{1, 0, 1110}, grads[features].AsFloat32())
	assert.Equal(t, []float32{1, 10}, seedA.AsFloat32(), "seeds are not modified")
	assert.Equal(t, []float32{100, 1000}, seedB.AsFloat32(), "seeds are not modified")
	assert.True(t, tape.IsRecording(), "recording state restored")
}

func TestBackward_EmptyTape(t *testing.T) {
	backend := autodiff.New(cpu.New())
	out := empty(tensor.Shape{1, 1, 1}, tensor.Float32)

	assert.Empty(t, backend.Tape().Backward(out, backend))
	assert.Panics(t, func() { autodiff.Backward(out, backend) })
}
