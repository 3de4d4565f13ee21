package manifold_test

import (
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/stackfab/internal/manifold"
	"github.com/piwi3910/stackfab/internal/stackmodel"
)

// unitCube builds a closed triangulated cube spanning [0,1]^3.
func unitCube() manifold.Manifold {
	v := []stackmodel.Point3D{
		{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 1, Y: 1, Z: 0}, {X: 0, Y: 1, Z: 0},
		{X: 0, Y: 0, Z: 1}, {X: 1, Y: 0, Z: 1}, {X: 1, Y: 1, Z: 1}, {X: 0, Y: 1, Z: 1},
	}
	return manifold.Manifold{
		Vertices: v,
		Triangles: []manifold.Triangle{
			{0, 2, 1}, {0, 3, 2}, // bottom
			{4, 5, 6}, {4, 6, 7}, // top
			{0, 1, 5}, {0, 5, 4}, // front
			{2, 3, 7}, {2, 7, 6}, // back
			{0, 4, 7}, {0, 7, 3}, // left
			{1, 2, 6}, {1, 6, 5}, // right
		},
	}
}

func TestMeshSDFSignedDistanceOnUnitCube(t *testing.T) {
	cube := unitCube()
	require.True(t, cube.Watertight())
	s := manifold.MeshSDF(cube)

	// Center of the cube: inside, half an edge from every face.
	assert.InDelta(t, -0.5, s.Evaluate(v3.Vec{X: 0.5, Y: 0.5, Z: 0.5}), 1e-9)

	// One unit outside the +X face.
	assert.InDelta(t, 1.0, s.Evaluate(v3.Vec{X: 2, Y: 0.5, Z: 0.5}), 1e-9)

	// Above the top face, along the ray-cast axis.
	assert.InDelta(t, 1.0, s.Evaluate(v3.Vec{X: 0.5, Y: 0.5, Z: 2}), 1e-9)

	// Nearest feature is a corner: distance is the diagonal to (0,0,0).
	d := s.Evaluate(v3.Vec{X: -1, Y: -1, Z: -1})
	assert.InDelta(t, 1.7320508, d, 1e-6)
}

func TestMeshSDFBoundingBoxMatchesVertices(t *testing.T) {
	s := manifold.MeshSDF(unitCube())
	bb := s.BoundingBox()
	assert.Equal(t, v3.Vec{X: 0, Y: 0, Z: 0}, bb.Min)
	assert.Equal(t, v3.Vec{X: 1, Y: 1, Z: 1}, bb.Max)
}
