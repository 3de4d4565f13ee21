package manifold_test

// Exercises the full boolean pipeline (Flattener -> ContourBuilder ->
// sdfx kernel -> marching cubes), using toolbuilder.SubtractionSDF as
// the injected ToolBodyFunc the same way a composition root would.

import (
	"context"
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/stackfab/internal/expr"
	"github.com/piwi3910/stackfab/internal/manifold"
	"github.com/piwi3910/stackfab/internal/stackmodel"
	"github.com/piwi3910/stackfab/internal/toolbuilder"
)

func boardOutlinePoints(hw, hh float64) []stackmodel.Point {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	return []stackmodel.Point{
		{ID: "p0", X: f(-hw), Y: f(-hh)},
		{ID: "p1", X: f(hw), Y: f(-hh)},
		{ID: "p2", X: f(hw), Y: f(hh)},
		{ID: "p3", X: f(-hw), Y: f(hh)},
	}
}

// A 10mm-diameter circle through-cut on a 40x40x3mm board.
// Expected volume 40*40*3 - pi*5^2*3 = 4564.381 mm^3 (tolerance widened
// to account for marching-cubes discretization at the configured render
// resolution, on top of a 0.5% base tolerance).
func TestComputeLayerCircleThroughCut(t *testing.T) {
	board := stackmodel.NewBoardOutline("board", "0", "0", boardOutlinePoints(20, 20))

	circle := stackmodel.NewCircle("hole", "0", "0", "10")
	circle.AssignedLayers = stackmodel.WithAssignment("L1", stackmodel.LayerAssignment{})

	footprint := &stackmodel.Footprint{
		ID:      "root",
		IsBoard: true,
		Shapes:  []stackmodel.Shape{board, circle},
	}
	lib := stackmodel.FootprintLibrary{footprint.ID: footprint}
	layer := &stackmodel.StackupLayer{ID: "L1", Type: stackmodel.LayerCut, Thickness: "3", CarveSide: stackmodel.CarveTop}

	eng := manifold.NewEngine(lib, expr.Scope{}, manifold.DefaultLayerOptions(), toolbuilder.SubtractionSDF)
	mesh, err := eng.ComputeLayer(context.Background(), footprint, layer)
	require.NoError(t, err)
	require.True(t, mesh.Watertight())

	const want = 40.0*40.0*3.0 - 3.141592653589793*5*5*3.0
	assert.InDelta(t, want, mesh.Volume(), want*0.03)
}

// A carved 10x10 pocket, depth 2 of a 3mm-thick board, with a
// 1mm bottom ball-end fillet and no endmill clamp issue. Expected removed
// volume ~= 198.28mm^3 (100*2 - (4-pi)*1^2*2), i.e. final layer volume ~=
// board volume minus that.
func TestComputeLayerCarvedPocketWithFillet(t *testing.T) {
	board := stackmodel.NewBoardOutline("board", "0", "0", boardOutlinePoints(20, 20))

	pocket := stackmodel.NewRect("pocket", "0", "0", "10", "10")
	pocket.AssignedLayers = stackmodel.WithAssignment("L1", stackmodel.LayerAssignment{
		Depth: "2", EndmillRadius: "1", InputFillet: "0",
	})

	footprint := &stackmodel.Footprint{
		ID:      "root",
		IsBoard: true,
		Shapes:  []stackmodel.Shape{board, pocket},
	}
	lib := stackmodel.FootprintLibrary{footprint.ID: footprint}
	layer := &stackmodel.StackupLayer{ID: "L1", Type: stackmodel.LayerCarved, Thickness: "3", CarveSide: stackmodel.CarveTop}

	eng := manifold.NewEngine(lib, expr.Scope{}, manifold.DefaultLayerOptions(), toolbuilder.SubtractionSDF)
	mesh, err := eng.ComputeLayer(context.Background(), footprint, layer)
	require.NoError(t, err)
	require.True(t, mesh.Watertight())

	const boardVolume = 40.0 * 40.0 * 3.0
	const removed = 100.0*2.0 - (4-3.141592653589793)*1*1*2.0
	want := boardVolume - removed
	assert.InDelta(t, want, mesh.Volume(), boardVolume*0.03)
}

// Monotonicity of restorative cuts: a deeper cut earlier in the shape
// list must not leave the overlap at its own depth once a shallower cut
// later in the list covers it. The shallower rect is processed after the
// deeper one, sees the recorded deeper overlap, and heals the shared
// 4x4 region back up to depth 1 through the restorative branch.
func TestComputeLayerRestorativeHealing(t *testing.T) {
	deep := stackmodel.NewRect("deep", "0", "0", "20", "4")
	deep.AssignedLayers = stackmodel.WithAssignment("L1", stackmodel.LayerAssignment{Depth: "2"})

	shallow := stackmodel.NewRect("shallow", "0", "0", "4", "20")
	shallow.AssignedLayers = stackmodel.WithAssignment("L1", stackmodel.LayerAssignment{Depth: "1"})

	footprint := &stackmodel.Footprint{
		ID:      "root",
		IsBoard: false,
		Shapes:  []stackmodel.Shape{deep, shallow},
	}
	lib := stackmodel.FootprintLibrary{footprint.ID: footprint}
	layer := &stackmodel.StackupLayer{ID: "L1", Type: stackmodel.LayerCarved, Thickness: "3", CarveSide: stackmodel.CarveTop}

	opts := manifold.DefaultLayerOptions()
	opts.BoardPadding = 5
	eng := manifold.NewEngine(lib, expr.Scope{}, opts, toolbuilder.SubtractionSDF)
	mesh, err := eng.ComputeLayer(context.Background(), footprint, layer)
	require.NoError(t, err)
	require.True(t, mesh.Watertight())

	// The overlap region (the central 4x4 square) must not be carved
	// past the shallow rect's depth of 1mm: no vertex in that column
	// should sit below top - 1 (with a small allowance for mesh
	// discretization), even though the deep rect alone would reach -2.
	const eps = 0.35
	for _, v := range mesh.Vertices {
		if v.X < -2+eps || v.X > 2-eps || v.Y < -2+eps || v.Y > 2-eps {
			continue
		}
		assert.GreaterOrEqual(t, v.Z, 1.5-1.0-eps, "overlap vertex carved deeper than the healed shallow depth")
	}
}

// The mirror arrangement is not healed: when the deeper cut is the later
// shape, it wins the overlap outright.
func TestComputeLayerLaterDeeperCutWins(t *testing.T) {
	shallow := stackmodel.NewRect("shallow", "0", "0", "20", "4")
	shallow.AssignedLayers = stackmodel.WithAssignment("L1", stackmodel.LayerAssignment{Depth: "1"})

	deep := stackmodel.NewRect("deep", "0", "0", "4", "20")
	deep.AssignedLayers = stackmodel.WithAssignment("L1", stackmodel.LayerAssignment{Depth: "2"})

	footprint := &stackmodel.Footprint{
		ID:      "root",
		IsBoard: false,
		Shapes:  []stackmodel.Shape{shallow, deep},
	}
	lib := stackmodel.FootprintLibrary{footprint.ID: footprint}
	layer := &stackmodel.StackupLayer{ID: "L1", Type: stackmodel.LayerCarved, Thickness: "3", CarveSide: stackmodel.CarveTop}

	opts := manifold.DefaultLayerOptions()
	opts.BoardPadding = 5
	eng := manifold.NewEngine(lib, expr.Scope{}, opts, toolbuilder.SubtractionSDF)
	mesh, err := eng.ComputeLayer(context.Background(), footprint, layer)
	require.NoError(t, err)
	require.True(t, mesh.Watertight())

	// Somewhere in the overlap column the floor must reach the deep
	// rect's 2mm depth.
	const eps = 0.35
	minZ := math.Inf(1)
	for _, v := range mesh.Vertices {
		if v.X < -2+eps || v.X > 2-eps || v.Y < -2+eps || v.Y > 2-eps {
			continue
		}
		if v.Z < -1.5+eps {
			continue // the board's uncut bottom face at z=-1.5, not the carved floor
		}
		if v.Z < minZ {
			minZ = v.Z
		}
	}
	assert.Less(t, minZ, 1.5-2.0+eps, "later deeper cut should carve the overlap to its own depth")
}
