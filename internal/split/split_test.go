package split

import (
	"testing"

	"github.com/piwi3910/stackfab/internal/manifold"
	"github.com/piwi3910/stackfab/internal/stackmodel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tetrahedron(cx, cy, cz, scale float64) manifold.Manifold {
	v := []stackmodel.Point3D{
		{X: cx, Y: cy, Z: cz},
		{X: cx + scale, Y: cy, Z: cz},
		{X: cx, Y: cy + scale, Z: cz},
		{X: cx, Y: cy, Z: cz + scale},
	}
	return manifold.Manifold{
		Vertices: v,
		Triangles: []manifold.Triangle{
			{0, 2, 1},
			{0, 1, 3},
			{1, 2, 3},
			{2, 0, 3},
		},
	}
}

func TestDecomposeSplitsDisjointComponents(t *testing.T) {
	a := tetrahedron(0, 0, 0, 1)
	b := tetrahedron(100, 100, 100, 2)

	combined := manifold.Manifold{}
	offset := len(a.Vertices)
	combined.Vertices = append(combined.Vertices, a.Vertices...)
	combined.Vertices = append(combined.Vertices, b.Vertices...)
	combined.Triangles = append(combined.Triangles, a.Triangles...)
	for _, tr := range b.Triangles {
		combined.Triangles = append(combined.Triangles, manifold.Triangle{
			tr[0] + offset, tr[1] + offset, tr[2] + offset,
		})
	}

	parts := Decompose(combined)
	require.Len(t, parts, 2)

	// Larger tetrahedron (scale 2, volume 8x) ranked first.
	assert.Greater(t, abs(parts[0].Volume()), abs(parts[1].Volume()))
	assert.True(t, parts[0].Watertight())
	assert.True(t, parts[1].Watertight())
}

func TestDecomposeSingleComponentReturnsOnePart(t *testing.T) {
	m := tetrahedron(0, 0, 0, 1)
	parts := Decompose(m)
	require.Len(t, parts, 1)
	assert.Equal(t, len(m.Triangles), len(parts[0].Triangles))
}

func TestDecomposeEmptyManifoldReturnsNil(t *testing.T) {
	assert.Nil(t, Decompose(manifold.Manifold{}))
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
