package ops

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/pointops/internal/backend/cpu"
	"github.com/born-ml/pointops/internal/tensor"
)

func TestOperations_Backward(t *testing.T) {
	backend := cpu.New()

	features, err := tensor.FromFloat32([]float32{1, 2, 3}, tensor.Shape{1, 1, 3})
	require.NoError(t, err)
	gatherIdx, err := tensor.FromInt32([]int32{2, 2}, tensor.Shape{1, 2})
	require.NoError(t, err)
	groupIdx, err := tensor.FromInt32([]int32{0, 1, 1, 1}, tensor.Shape{1, 2, 2})
	require.NoError(t, err)
	nnIdx, err := tensor.FromInt32([]int32{0, 1, 2}, tensor.Shape{1, 1, 3})
	require.NoError(t, err)
	weight, err := tensor.FromFloat32([]float32{0.5, 0.25, 0.25}, tensor.Shape{1, 1, 3})
	require.NoError(t, err)

	tests := []struct {
		name     string
		op       Operation
		gradOut  []float32
		gradOutS tensor.Shape
		want     []float32
	}{
		{
			name:     "gather_points",
			op:       NewGatherPointsOp(features, gatherIdx, nil),
			gradOut:  []float32{1, 2},
			gradOutS: tensor.Shape{1, 1, 2},
			want:     []float32{0, 0, 3},
		},
		{
			name:     "group_points",
			op:       NewGroupPointsOp(features, groupIdx, nil),
			gradOut:  []float32{1, 2, 3, 4},
			gradOutS: tensor.Shape{1, 1, 2, 2},
			want:     []float32{1, 9, 0},
		},
		{
			name:     "three_interpolate",
			op:       NewThreeInterpolateOp(features, nnIdx, weight, nil),
			gradOut:  []float32{8},
			gradOutS: tensor.Shape{1, 1, 1},
			want:     []float32{4, 2, 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, tt.op.Name())
			require.Len(t, tt.op.Inputs(), 1)
			assert.Same(t, features, tt.op.Inputs()[0])

			gradOut, err := tensor.FromFloat32(tt.gradOut, tt.gradOutS)
			require.NoError(t, err)
			grads := tt.op.Backward(gradOut, backend)
			require.Len(t, grads, 1)
			assert.Equal(t, tensor.Shape{1, 1, 3}, grads[0].Shape())
			assert.Equal(t, tt.want, grads[0].AsFloat32())
		})
	}
}
