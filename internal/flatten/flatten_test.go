package flatten

import (
	"fmt"
	"testing"

	"github.com/piwi3910/stackfab/internal/expr"
	"github.com/piwi3910/stackfab/internal/stackmodel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlattenSkipsWireGuideAndBoardOutline(t *testing.T) {
	root := &stackmodel.Footprint{
		ID: "R",
		Shapes: []stackmodel.Shape{
			stackmodel.NewWireGuide("wg", "0", "0"),
			stackmodel.NewBoardOutline("bo", "0", "0", nil),
			stackmodel.NewCircle("c1", "1", "2", "5"),
		},
	}
	lib := stackmodel.FootprintLibrary{"R": root}
	out := Flatten(root, lib, expr.Scope{})

	require.Len(t, out, 1)
	assert.Equal(t, stackmodel.KindCircle, out[0].Primitive.Kind())
}

func TestFlattenUnionTagsChildrenAndOverridesAssignments(t *testing.T) {
	override := stackmodel.WithAssignment("layer1", stackmodel.LayerAssignment{Depth: "2"})
	c1 := stackmodel.NewCircle("c1", "0", "0", "5")
	c1.AssignedLayers = stackmodel.WithAssignment("layer1", stackmodel.LayerAssignment{Depth: "99"})
	u := stackmodel.NewUnion("u1", "0", "0", []stackmodel.Shape{c1})
	u.AssignedLayers = override

	root := &stackmodel.Footprint{ID: "R", Shapes: []stackmodel.Shape{u}}
	lib := stackmodel.FootprintLibrary{"R": root}
	out := Flatten(root, lib, expr.Scope{})

	require.Len(t, out, 1)
	assert.Equal(t, "u1", out[0].UnionID)
	assert.Equal(t, "2", out[0].Assignments["layer1"].Depth)
}

func TestFlattenOuterUnionIDWinsOverNested(t *testing.T) {
	inner := stackmodel.NewCircle("c1", "0", "0", "5")
	innerUnion := stackmodel.NewUnion("inner", "0", "0", []stackmodel.Shape{inner})
	outerUnion := stackmodel.NewUnion("outer", "0", "0", []stackmodel.Shape{innerUnion})

	root := &stackmodel.Footprint{ID: "R", Shapes: []stackmodel.Shape{outerUnion}}
	lib := stackmodel.FootprintLibrary{"R": root}
	out := Flatten(root, lib, expr.Scope{})

	require.Len(t, out, 1)
	assert.Equal(t, "outer", out[0].UnionID)
}

func TestFlattenFootprintReferenceComposesTransform(t *testing.T) {
	child := &stackmodel.Footprint{
		ID:     "C",
		Shapes: []stackmodel.Shape{stackmodel.NewCircle("c1", "5", "0", "2")},
	}
	ref := stackmodel.NewFootprintReference("ref1", "10", "0", "90", "C")
	root := &stackmodel.Footprint{ID: "R", Shapes: []stackmodel.Shape{ref}}
	lib := stackmodel.FootprintLibrary{"R": root, "C": child}

	out := Flatten(root, lib, expr.Scope{})
	require.Len(t, out, 1)
	// Rotating (5,0) by 90deg gives (0,5), then translate by (10,0).
	assert.InDelta(t, 10, out[0].AbsoluteX, 1e-9)
	assert.InDelta(t, 5, out[0].AbsoluteY, 1e-9)
}

func TestFlattenDepthBoundTruncatesSilently(t *testing.T) {
	lib := stackmodel.FootprintLibrary{}
	// Build a chain of 20 nested references, each containing one circle.
	prev := "leaf"
	lib[prev] = &stackmodel.Footprint{ID: prev, Shapes: []stackmodel.Shape{stackmodel.NewCircle("c", "0", "0", "1")}}
	for i := 0; i < 20; i++ {
		id := fmt.Sprintf("level%d", i)
		ref := stackmodel.NewFootprintReference("r", "0", "0", "0", prev)
		fp := &stackmodel.Footprint{ID: id, Shapes: []stackmodel.Shape{ref}}
		lib[id] = fp
		prev = id
	}
	root := lib[prev]
	out := Flatten(root, lib, expr.Scope{})
	assert.Less(t, len(out), 20)
}

func TestFlattenBrokenReferenceResolvesToNothing(t *testing.T) {
	ref := stackmodel.NewFootprintReference("ref1", "0", "0", "0", "missing")
	root := &stackmodel.Footprint{ID: "R", Shapes: []stackmodel.Shape{ref}}
	lib := stackmodel.FootprintLibrary{"R": root}
	out := Flatten(root, lib, expr.Scope{})
	assert.Empty(t, out)
}
