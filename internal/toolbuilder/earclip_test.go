package toolbuilder

import (
	"testing"

	"github.com/piwi3910/stackfab/internal/stackmodel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func square(x0, y0, x1, y1 float64) []stackmodel.Point2D {
	return []stackmodel.Point2D{
		{X: x0, Y: y0},
		{X: x1, Y: y0},
		{X: x1, Y: y1},
		{X: x0, Y: y1},
	}
}

func TestEarClipSquareProducesTwoTriangles(t *testing.T) {
	tris := earClip(square(0, 0, 10, 10))
	assert.Len(t, tris, 2)
}

func TestEarClipTriangleIsNoOp(t *testing.T) {
	poly := []stackmodel.Point2D{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 0, Y: 10}}
	tris := earClip(poly)
	require.Len(t, tris, 1)
	assert.ElementsMatch(t, []int{0, 1, 2}, []int{tris[0][0], tris[0][1], tris[0][2]})
}

func TestCapPolygonWithHoleTriangulatesFully(t *testing.T) {
	outer := square(0, 0, 10, 10)
	hole := []stackmodel.Point2D{
		{X: 3, Y: 3},
		{X: 3, Y: 4},
		{X: 4, Y: 4},
		{X: 4, Y: 3},
	}
	pts, tris := capPolygon(outer, [][]stackmodel.Point2D{hole})
	require.NotEmpty(t, tris)
	// Merged polygon gains 2 extra vertices for the bridge splice; every
	// triangle index must stay within bounds.
	assert.Len(t, pts, len(outer)+len(hole)+2)
	for _, tr := range tris {
		for _, idx := range tr {
			assert.GreaterOrEqual(t, idx, 0)
			assert.Less(t, idx, len(pts))
		}
	}
}
