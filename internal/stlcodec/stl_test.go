package stlcodec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTripPreservesTriangleCountAndVertices(t *testing.T) {
	tris := []Triangle{
		{
			Normal: Vec3{X: 0, Y: 0, Z: 1},
			V0:     Vec3{X: 0, Y: 0, Z: 0},
			V1:     Vec3{X: 1, Y: 0, Z: 0},
			V2:     Vec3{X: 0, Y: 1, Z: 0},
		},
		{
			Normal: Vec3{X: 0, Y: 0, Z: -1},
			V0:     Vec3{X: 0, Y: 0, Z: 0},
			V1:     Vec3{X: 0, Y: 1, Z: 0},
			V2:     Vec3{X: -1, Y: 0, Z: 0},
		},
	}

	data := Encode(tris)
	assert.Len(t, data, headerSize+4+2*recordSize)

	decoded, err := Decode(data)
	require.NoError(t, err)
	require.Len(t, decoded, len(tris))
	for i := range tris {
		assert.InDelta(t, tris[i].V0.X, decoded[i].V0.X, 1e-5)
		assert.InDelta(t, tris[i].V1.Y, decoded[i].V1.Y, 1e-5)
		assert.InDelta(t, tris[i].V2.Z, decoded[i].V2.Z, 1e-5)
		assert.InDelta(t, tris[i].Normal.Z, decoded[i].Normal.Z, 1e-5)
	}
}

func TestDecodeRejectsTruncatedFile(t *testing.T) {
	_, err := Decode(make([]byte, 10))
	assert.Error(t, err)
}

func TestDecodeRejectsShortTriangleData(t *testing.T) {
	data := Encode([]Triangle{{}, {}})
	_, err := Decode(data[:len(data)-10])
	assert.Error(t, err)
}
