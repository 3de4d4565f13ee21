package batch

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/piwi3910/stackfab/internal/layerexport"
	"github.com/piwi3910/stackfab/internal/manifold"
	"github.com/piwi3910/stackfab/internal/pocket"
	"github.com/piwi3910/stackfab/internal/progress"
	"github.com/piwi3910/stackfab/internal/stackmodel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLibrary() *stackmodel.Library {
	lib := stackmodel.NewLibrary("demo")
	lib.Params = []stackmodel.Parameter{
		{ID: "p1", Key: "D", Expression: "10", Unit: stackmodel.UnitMM},
	}
	lib.Stackup = []stackmodel.StackupLayer{
		{ID: "L1", Name: "Top", Type: stackmodel.LayerCut, Thickness: "3", CarveSide: stackmodel.CarveTop},
	}

	outline := stackmodel.NewBoardOutline("BO1", "0", "0", []stackmodel.Point{
		{X: "-20", Y: "-20"}, {X: "20", Y: "-20"}, {X: "20", Y: "20"}, {X: "-20", Y: "20"},
	})
	hole := stackmodel.NewCircle("C1", "0", "0", "D")
	hole.SetAssignments(map[string]stackmodel.LayerAssignment{"L1": {Depth: "3"}})

	footprint := &stackmodel.Footprint{
		ID:      "F1",
		Name:    "Board",
		IsBoard: true,
		Shapes:  []stackmodel.Shape{outline, hole},
	}
	lib.Footprints["F1"] = footprint
	return &lib
}

func TestRunVectorJobWritesSVGFile(t *testing.T) {
	lib := testLibrary()
	scope, resolved := BuildScope(lib)
	for _, p := range resolved {
		require.NoError(t, p.Err)
	}

	outPath := filepath.Join(t.TempDir(), "layer.svg")
	job := Job{FootprintID: "F1", LayerID: "L1", OutputPath: outPath, Format: layerexport.FileSVG}

	err := Run(context.Background(), lib, scope, job, Settings{Layer: manifold.DefaultLayerOptions()})
	require.NoError(t, err)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<svg")
}

func TestRunGCodeJobWritesMoves(t *testing.T) {
	lib := testLibrary()
	scope, _ := BuildScope(lib)

	outPath := filepath.Join(t.TempDir(), "layer.gcode")
	job := Job{FootprintID: "F1", LayerID: "L1", OutputPath: outPath, Format: layerexport.FileGCode}
	settings := Settings{
		Pocket: pocket.Settings{ToolDiameter: 3.175, StepDown: 2, StepOver: 1.5, SafeZ: 10},
		GCode:  layerexport.Settings{Profile: "Generic", FeedRate: 1200, PlungeRate: 400},
		Layer:  manifold.DefaultLayerOptions(),
	}

	err := Run(context.Background(), lib, scope, job, settings)
	require.NoError(t, err)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

func TestRunUnknownFootprintErrors(t *testing.T) {
	lib := testLibrary()
	scope, _ := BuildScope(lib)
	job := Job{FootprintID: "nope", LayerID: "L1", OutputPath: "x.svg", Format: layerexport.FileSVG}
	err := Run(context.Background(), lib, scope, job, Settings{Layer: manifold.DefaultLayerOptions()})
	assert.Error(t, err)
}

func TestRunAllDispatchesAllJobsAndReportsProgress(t *testing.T) {
	lib := testLibrary()
	scope, _ := BuildScope(lib)
	dir := t.TempDir()

	jobs := []Job{
		{FootprintID: "F1", LayerID: "L1", OutputPath: filepath.Join(dir, "a.svg"), Format: layerexport.FileSVG},
		{FootprintID: "F1", LayerID: "L1", OutputPath: filepath.Join(dir, "b.dxf"), Format: layerexport.FileDXF},
	}
	collector := progress.NewCollector()
	results := RunAll(context.Background(), lib, scope, jobs, Settings{Layer: manifold.DefaultLayerOptions()}, 2, collector)

	require.Len(t, results, 2)
	for _, r := range results {
		assert.NoError(t, r.Err)
	}
	assert.Len(t, collector.Events, 2)
}
