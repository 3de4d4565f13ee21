package pocket

import (
	"math"
	"testing"

	"github.com/piwi3910/stackfab/internal/contour"
	"github.com/piwi3910/stackfab/internal/expr"
	"github.com/piwi3910/stackfab/internal/flatten"
	"github.com/piwi3910/stackfab/internal/stackmodel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func circleFlatShape(layerID string, diameter, depth string) flatten.FlatShape {
	return flatten.FlatShape{
		Primitive: &stackmodel.Circle{
			X: "0", Y: "0", Diameter: diameter,
		},
		Assignments: map[string]stackmodel.LayerAssignment{
			layerID: {Depth: depth},
		},
		RelativeTransform: stackmodel.Identity(),
	}
}

func TestDepthMapLaterShapeOverridesEarlier(t *testing.T) {
	layer := &stackmodel.StackupLayer{ID: "L1", Type: stackmodel.LayerCarved, Thickness: "10"}
	flat := []flatten.FlatShape{
		circleFlatShape("L1", "20", "4"),
		circleFlatShape("L1", "8", "8"),
	}
	regions, err := depthMap(flat, stackmodel.FootprintLibrary{}, expr.Scope{}, contour.DefaultResolution, layer, 10)
	require.NoError(t, err)
	require.Len(t, regions, 2)
	// The smaller, later circle carries the deeper depth and fully
	// subtracts its own area from the first (larger) region.
	assert.InDelta(t, 8, regions[1].depth, 1e-9)
	assert.InDelta(t, 4, regions[0].depth, 1e-9)
	assert.False(t, regions[0].cs.IsEmpty())
}

func TestPocketClearingProducesLevelsDownToRegionDepth(t *testing.T) {
	r := region{cs: contour.Circle(20, 32), depth: 4}
	settings := Settings{ToolDiameter: 2, StepDown: 2, StepOver: 1, SafeZ: 5}

	moves := pocketClearing(r, settings, 0, 100)
	require.NotEmpty(t, moves)

	// Every emitted Z must be translated by bottomZ=100 and lie within
	// [100-4, 100+5] (region bottom to safe-Z retract height).
	for _, m := range moves {
		assert.GreaterOrEqual(t, m.Z, 100-4-1e-6)
		assert.LessOrEqual(t, m.Z, 105+1e-6)
	}

	// The deepest cutting move must reach the region's own bottom.
	minCutZ := moves[0].Z
	for _, m := range moves {
		if !m.Rapid && m.Z < minCutZ {
			minCutZ = m.Z
		}
	}
	assert.InDelta(t, 96, minCutZ, 1e-6)
}

func TestConcentricInwardStopsWhenEmpty(t *testing.T) {
	passes := concentricInward(contour.Circle(10, 32), 2)
	require.NotEmpty(t, passes)
	for _, p := range passes {
		assert.False(t, p.IsEmpty())
	}
}

func TestCheckDustShoeCollisionsFlagsCloseApproach(t *testing.T) {
	path := []Move{
		{X: 0, Y: 0, Z: -1, Rapid: false},
		{X: 50, Y: 50, Z: -1, Rapid: false},
	}
	zones := []ClampZone{{Label: "clamp-A", X: -2, Y: -2, Width: 4, Height: 4}}

	collisions := CheckDustShoeCollisions(path, zones, 10, 1)
	require.Len(t, collisions, 1)
	assert.Equal(t, "clamp-A", collisions[0].ClampLabel)
}

func TestCheckDustShoeCollisionsNoZonesReturnsNil(t *testing.T) {
	assert.Nil(t, CheckDustShoeCollisions(nil, nil, 10, 1))
}

// A 20mm-diameter
// circular pocket cut 4mm deep with a 2mm tool at Δz=2mm, Δxy=1mm must
// produce exactly 2 Z-levels (depth 4 / step-down 2) and 9 concentric
// passes per level (the D/2=1mm-offset boundary has radius 9mm, and
// ceil((9-0)/1)=9 inward steps before the area vanishes), with every
// cutting pass bracketed by an entry+exit rapid travel move at a
// constant safe-Z.
func TestPocketClearingTravelCounts(t *testing.T) {
	r := region{cs: contour.Circle(20, 64), depth: 4}
	settings := Settings{ToolDiameter: 2, StepDown: 2, StepOver: 1, SafeZ: 5}

	moves := pocketClearing(r, settings, 0, 100)
	require.NotEmpty(t, moves)

	var rapidIdx []int
	cutZLevels := map[float64]bool{}
	for i, m := range moves {
		if m.Rapid {
			assert.InDelta(t, 105, m.Z, 1e-6, "safe-Z must be constant across every travel move")
			rapidIdx = append(rapidIdx, i)
			continue
		}
		cutZLevels[math.Round(m.Z*1e6)/1e6] = true
	}

	require.Len(t, cutZLevels, 2, "depth 4mm at step-down 2mm must produce exactly 2 Z-levels")
	require.Len(t, rapidIdx, 36, "2 Z-levels * 9 concentric passes = 18 passes, each bracketed by an entry+exit rapid")

	for i := 0; i+1 < len(rapidIdx); i += 2 {
		entry, exit := rapidIdx[i], rapidIdx[i+1]
		require.Greater(t, exit, entry+1, "a pass must contain at least one cutting move between its entry and exit rapids")
		for j := entry + 1; j < exit; j++ {
			assert.False(t, moves[j].Rapid, "no rapid move expected inside a single cutting pass")
		}
	}
}
