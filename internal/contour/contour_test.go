package contour

import (
	"math"
	"testing"

	"github.com/piwi3910/stackfab/internal/expr"
	"github.com/piwi3910/stackfab/internal/flatten"
	"github.com/piwi3910/stackfab/internal/stackmodel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCircleHasResolutionVerticesAtRadius(t *testing.T) {
	cs := Circle(10, 16)
	require.Len(t, cs.Paths, 1)
	assert.Len(t, cs.Paths[0], 16)

	outline := cs.Outlines()[0]
	for _, p := range outline {
		assert.InDelta(t, 5, math.Hypot(p.X, p.Y), 1e-6)
	}
	assert.Greater(t, signedArea(cs.Paths[0]), 0.0, "circle must wind CCW")
}

func TestRectSharpCorners(t *testing.T) {
	cs := Rect(10, 6, 0, DefaultResolution)
	require.Len(t, cs.Paths, 1)
	assert.Len(t, cs.Paths[0], 4)
	assert.Greater(t, signedArea(cs.Paths[0]), 0.0)
}

func TestRectRoundedCornerClampedToHalfMinDimension(t *testing.T) {
	// Corner radius far larger than min(w,h)/2 should not panic or
	// produce a negative inset rectangle; the result still bounds a
	// positive area no larger than the sharp rectangle.
	sharp := Rect(10, 6, 0, DefaultResolution)
	rounded := Rect(10, 6, 50, DefaultResolution)
	require.NotEmpty(t, rounded.Paths)
	assert.LessOrEqual(t, math.Abs(signedArea(rounded.Paths[0])), math.Abs(signedArea(sharp.Paths[0])))
}

func TestRectRoundedHasMoreVerticesThanSharp(t *testing.T) {
	rounded := Rect(10, 6, 1, DefaultResolution)
	require.NotEmpty(t, rounded.Paths)
	assert.Greater(t, len(rounded.Paths[0]), 4)
}

func TestPolygonEnforcesCCWEvenWhenInputIsCW(t *testing.T) {
	// A clockwise-wound square.
	pts := []stackmodel.Point{
		{X: "0", Y: "0"},
		{X: "0", Y: "10"},
		{X: "10", Y: "10"},
		{X: "10", Y: "0"},
	}
	footprint := &stackmodel.Footprint{ID: "R"}
	lib := stackmodel.FootprintLibrary{"R": footprint}
	cs := Polygon(pts, footprint, lib, expr.Scope{}, 32)
	require.Len(t, cs.Paths, 1)
	assert.Greater(t, signedArea(cs.Paths[0]), 0.0)
}

func TestLineProducesClosedNonEmptyOutline(t *testing.T) {
	pts := []stackmodel.Point{
		{X: "0", Y: "0"},
		{X: "20", Y: "0"},
	}
	footprint := &stackmodel.Footprint{ID: "R"}
	lib := stackmodel.FootprintLibrary{"R": footprint}
	cs := Line(4, pts, footprint, lib, expr.Scope{}, 32)
	require.Len(t, cs.Paths, 1)
	assert.Greater(t, len(cs.Paths[0]), 4)

	// The outline must extend roughly half the thickness beyond the
	// centerline on the Y axis.
	outline := cs.Outlines()[0]
	var maxY float64
	for _, p := range outline {
		if p.Y > maxY {
			maxY = p.Y
		}
	}
	assert.InDelta(t, 2, maxY, 0.5)
}

func TestLineWithFewerThanTwoPointsIsEmpty(t *testing.T) {
	footprint := &stackmodel.Footprint{ID: "R"}
	lib := stackmodel.FootprintLibrary{"R": footprint}
	cs := Line(4, []stackmodel.Point{{X: "0", Y: "0"}}, footprint, lib, expr.Scope{}, 32)
	assert.True(t, cs.IsEmpty())
}

func TestBuildFromFlatShapeDispatchesByKind(t *testing.T) {
	footprint := &stackmodel.Footprint{ID: "R"}
	lib := stackmodel.FootprintLibrary{"R": footprint}

	circle := stackmodel.NewCircle("c1", "0", "0", "10")
	fs := flatten.FlatShape{Primitive: circle, ContextFootprint: footprint}

	cs, err := BuildFromFlatShape(fs, lib, expr.Scope{}, DefaultResolution)
	require.NoError(t, err)
	assert.False(t, cs.IsEmpty())
}

func TestBuildFromFlatShapeRejectsUnsupportedKind(t *testing.T) {
	footprint := &stackmodel.Footprint{ID: "R"}
	lib := stackmodel.FootprintLibrary{"R": footprint}
	text := stackmodel.NewText("t1", "0", "0", "hello")
	fs := flatten.FlatShape{Primitive: text, ContextFootprint: footprint}

	_, err := BuildFromFlatShape(fs, lib, expr.Scope{}, DefaultResolution)
	assert.Error(t, err)
}
