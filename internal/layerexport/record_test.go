package layerexport

import (
	"testing"

	"github.com/piwi3910/stackfab/internal/expr"
	"github.com/piwi3910/stackfab/internal/flatten"
	"github.com/piwi3910/stackfab/internal/stackmodel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildShapeRecordsFiltersByLayerAssignment(t *testing.T) {
	circle := stackmodel.NewCircle("C1", "5", "5", "10")
	circle.SetAssignments(map[string]stackmodel.LayerAssignment{
		"L1": {Depth: "3"},
	})
	rect := stackmodel.NewRect("R1", "0", "0", "20", "10")
	// R1 carries no assignment for L1: must be skipped.

	footprint := &stackmodel.Footprint{ID: "F1", Shapes: []stackmodel.Shape{circle, rect}}
	lib := stackmodel.FootprintLibrary{"F1": footprint}
	scope := expr.Scope{}

	flat := flatten.Flatten(footprint, lib, scope)
	records, err := BuildShapeRecords(flat, lib, scope, "L1", 16)
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, ShapeCircle, records[0].ShapeKind)
	assert.Equal(t, 3.0, records[0].Depth)
	require.NotNil(t, records[0].Diameter)
	assert.Equal(t, 10.0, *records[0].Diameter)
	assert.NotEmpty(t, records[0].Points)
}

func TestBuildShapeRecordsSkipsUnassignedShapes(t *testing.T) {
	circle := stackmodel.NewCircle("C1", "0", "0", "10")
	footprint := &stackmodel.Footprint{ID: "F1", Shapes: []stackmodel.Shape{circle}}
	lib := stackmodel.FootprintLibrary{"F1": footprint}
	scope := expr.Scope{}

	flat := flatten.Flatten(footprint, lib, scope)
	records, err := BuildShapeRecords(flat, lib, scope, "L1", 16)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestBuildOutlineResolvesExplicitPoints(t *testing.T) {
	points := []stackmodel.Point{
		{X: "0", Y: "0"},
		{X: "10", Y: "0"},
		{X: "10", Y: "10"},
	}
	footprint := &stackmodel.Footprint{ID: "F1"}
	lib := stackmodel.FootprintLibrary{"F1": footprint}
	scope := expr.Scope{}

	outline := BuildOutline(points, footprint, lib, scope)
	require.Len(t, outline, 3)
	assert.Equal(t, 10.0, outline[1].X)
	assert.Equal(t, 10.0, outline[2].Y)
}
