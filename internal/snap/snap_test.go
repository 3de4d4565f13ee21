package snap

import (
	"testing"

	"github.com/piwi3910/stackfab/internal/expr"
	"github.com/piwi3910/stackfab/internal/stackmodel"
	"github.com/stretchr/testify/assert"
)

// Root R references child C (translated
// (10,0), rotated 90°); C contains WireGuide G at local (5,0). A point
// in R snapping to "refC:G" should resolve to (10, 5).
func TestResolveNestedReferenceSnap(t *testing.T) {
	guide := stackmodel.NewWireGuide("G", "5", "0")
	childFootprint := &stackmodel.Footprint{
		ID:     "C",
		Shapes: []stackmodel.Shape{guide},
	}
	ref := stackmodel.NewFootprintReference("refC", "10", "0", "90", "C")
	rootFootprint := &stackmodel.Footprint{
		ID:     "R",
		Shapes: []stackmodel.Shape{ref},
	}
	lib := stackmodel.FootprintLibrary{"C": childFootprint, "R": rootFootprint}

	p := stackmodel.Point{SnapTo: "refC:G"}
	result := Resolve(p, rootFootprint, lib, expr.Scope{})

	assert.False(t, result.Broken)
	assert.InDelta(t, 10, result.X, 1e-9)
	assert.InDelta(t, 5, result.Y, 1e-9)
}

func TestResolveBrokenPathFallsBackToLocal(t *testing.T) {
	rootFootprint := &stackmodel.Footprint{ID: "R", Shapes: nil}
	lib := stackmodel.FootprintLibrary{"R": rootFootprint}

	p := stackmodel.Point{SnapTo: "missing:G", X: "3", Y: "4"}
	result := Resolve(p, rootFootprint, lib, expr.Scope{})

	assert.True(t, result.Broken)
	assert.InDelta(t, 3, result.X, 1e-9)
	assert.InDelta(t, 4, result.Y, 1e-9)
}

func TestResolveNoSnapUsesLocalCoordinates(t *testing.T) {
	rootFootprint := &stackmodel.Footprint{ID: "R"}
	lib := stackmodel.FootprintLibrary{"R": rootFootprint}
	p := stackmodel.Point{X: "1", Y: "2"}
	result := Resolve(p, rootFootprint, lib, expr.Scope{})
	assert.InDelta(t, 1, result.X, 1e-9)
	assert.InDelta(t, 2, result.Y, 1e-9)
}

// Two traversals that accumulate the same rigid transforms return
// identical coordinates bit-for-bit.
func TestResolveDeterministicAcrossEquivalentPaths(t *testing.T) {
	guide := stackmodel.NewWireGuide("G", "5", "0")
	childFootprint := &stackmodel.Footprint{ID: "C", Shapes: []stackmodel.Shape{guide}}
	ref := stackmodel.NewFootprintReference("refC", "10", "0", "90", "C")
	rootFootprint := &stackmodel.Footprint{ID: "R", Shapes: []stackmodel.Shape{ref}}
	lib := stackmodel.FootprintLibrary{"C": childFootprint, "R": rootFootprint}

	p := stackmodel.Point{SnapTo: "refC:G"}
	r1 := Resolve(p, rootFootprint, lib, expr.Scope{})
	r2 := Resolve(p, rootFootprint, lib, expr.Scope{})
	assert.Equal(t, r1.X, r2.X)
	assert.Equal(t, r1.Y, r2.Y)
}
