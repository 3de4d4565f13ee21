// Package toolbuilder implements ToolBuilder: the subtraction body for a
// partial-depth cut shaped as a top chamfer, a vertical wall, and a
// bottom ball-nose fillet. The primary path lofts the offset level sets
// into a closed mesh via the robust two-ring tiler; Build returns that
// mesh (or its stair-step approximation) for diagnostics/export, and
// SubtractionSDF lifts the same mesh into an sdf.SDF3 for BooleanEngine's
// CSG pipeline, falling back to a stair-step prism union only when the
// loft cannot close.
package toolbuilder

import (
	"fmt"
	"math"

	"github.com/deadsy/sdfx/sdf"

	"github.com/piwi3910/stackfab/internal/contour"
	"github.com/piwi3910/stackfab/internal/manifold"
	"github.com/piwi3910/stackfab/internal/stackerr"
	"github.com/piwi3910/stackfab/internal/stackmodel"
)

// defaultArcSteps is the quarter-circle sample count used when a caller
// does not specify one.
const defaultArcSteps = 8

const weldScale = 1e4

// Result is ToolBuilder's output: either a closed manifold from the
// robust tiler, or the stair-step fallback, tagged so a caller can
// surface which path produced it — a stair-step result is not a
// failure, just a coarser mesh.
type Result struct {
	Mesh      manifold.Manifold
	StairStep bool
}

type levelIslands struct {
	z       float64
	islands []contour.CrossSection
}

// tiledMesh runs the primary level-set loft: the offset stack, top and
// bottom caps, and robustly tiled walls between adjacent levels. ok is
// false when the profile collapses to fewer than two levels or the
// welded mesh does not close, signalling the caller to fall back to the
// stair-step approximation.
func tiledMesh(base contour.CrossSection, depth, topRadius, bottomRadius float64, arcSteps int) (manifold.Manifold, bool) {
	levels := stepProfile(depth, topRadius, bottomRadius, arcSteps)
	var stack []levelIslands
	for _, lv := range levels {
		cs := contour.Offset(base, -lv.offset)
		islands := contour.Islands(cs)
		if len(islands) == 0 {
			continue
		}
		stack = append(stack, levelIslands{z: lv.z, islands: islands})
	}
	if len(stack) < 2 {
		return manifold.Manifold{}, false
	}

	mb := newMeshBuilder()
	ok := true

	for _, is := range stack[0].islands {
		if !addCap(mb, is, stack[0].z, true) {
			ok = false
		}
	}
	last := stack[len(stack)-1]
	for _, is := range last.islands {
		if !addCap(mb, is, last.z, false) {
			ok = false
		}
	}
	for i := 0; i < len(stack)-1; i++ {
		if !addWalls(mb, stack[i], stack[i+1]) {
			ok = false
		}
	}

	built := mb.manifold()
	if !ok || built.IsEmpty() || !built.Watertight() {
		return manifold.Manifold{}, false
	}
	return built, true
}

// Build produces the subtraction body for a partial-depth cut: topRadius
// is the top chamfer (Rt), bottomRadius the ball-nose bottom fillet
// (Rb).
func Build(shapeID string, base contour.CrossSection, depth, topRadius, bottomRadius float64, arcSteps int) (Result, error) {
	if arcSteps <= 0 {
		arcSteps = defaultArcSteps
	}
	if depth <= 0 {
		return Result{}, &stackerr.ToolBuildFailure{ShapeID: shapeID, Detail: "depth must be positive"}
	}
	if mesh, ok := tiledMesh(base, depth, topRadius, bottomRadius, arcSteps); ok {
		return Result{Mesh: mesh}, nil
	}
	return fallback(shapeID, base, depth, topRadius, bottomRadius, arcSteps)
}

func fallback(shapeID string, base contour.CrossSection, depth, topRadius, bottomRadius float64, arcSteps int) (Result, error) {
	solid, err := stairStepSDF(base, depth, topRadius, bottomRadius, arcSteps*2)
	if err != nil {
		return Result{}, &stackerr.ToolBuildFailure{ShapeID: shapeID, Detail: err.Error()}
	}
	mesh, err := manifold.Render(solid, arcSteps*40)
	if err != nil {
		return Result{}, &stackerr.ToolBuildFailure{ShapeID: shapeID, Detail: err.Error()}
	}
	return Result{Mesh: mesh, StairStep: true}, nil
}

// SubtractionSDF builds the tool body in the form BooleanEngine's
// tool-profile subtraction branch consumes: the robustly tiled loft,
// lifted into the CSG expression tree via manifold.MeshSDF. Only when
// the loft cannot close does it fall back to the coarser stair-step
// prism union, reporting stairStep=true so the engine can surface a
// diagnostic naming the shape.
func SubtractionSDF(base contour.CrossSection, depth, topRadius, bottomRadius float64, arcSteps int) (body sdf.SDF3, stairStep bool, err error) {
	if arcSteps <= 0 {
		arcSteps = defaultArcSteps
	}
	if depth <= 0 {
		return nil, false, fmt.Errorf("toolbuilder: depth must be positive, got %g", depth)
	}
	if mesh, ok := tiledMesh(base, depth, topRadius, bottomRadius, arcSteps); ok {
		return manifold.MeshSDF(mesh), false, nil
	}
	s, err := stairStepSDF(base, depth, topRadius, bottomRadius, arcSteps*2)
	return s, true, err
}

func stairStepSDF(base contour.CrossSection, depth, topRadius, bottomRadius float64, arcSteps int) (sdf.SDF3, error) {
	levels := stepProfile(depth, topRadius, bottomRadius, arcSteps)
	var solids []sdf.SDF3
	for i := 0; i < len(levels)-1; i++ {
		zTop, zBot := levels[i].z, levels[i+1].z
		height := math.Abs(zTop - zBot)
		if height < 1e-9 {
			continue
		}
		sampleOffset := levels[i].offset
		if math.Abs(levels[i+1].offset) > math.Abs(sampleOffset) {
			sampleOffset = levels[i+1].offset
		}
		cs := contour.Offset(base, -sampleOffset)
		if cs.IsEmpty() {
			continue
		}
		solid, err := manifold.Extrude(cs, height)
		if err != nil {
			continue
		}
		solids = append(solids, manifold.TranslateZ(solid, (zTop+zBot)/2))
	}
	if len(solids) == 0 {
		return nil, fmt.Errorf("toolbuilder: stair-step profile produced no geometry")
	}
	return manifold.Union3D(solids...), nil
}

// meshBuilder accumulates a welded vertex/triangle buffer for Build's
// tiler path — coincident points (to within weldScale) across adjacent
// caps and wall tiles collapse to one shared index, the same technique
// internal/manifold's fromTriangleSoup uses for marching-cubes output,
// so the result can satisfy Manifold.Watertight.
type meshBuilder struct {
	verts []stackmodel.Point3D
	tris  []manifold.Triangle
	index map[[3]int64]int
}

func newMeshBuilder() *meshBuilder { return &meshBuilder{index: map[[3]int64]int{}} }

func (mb *meshBuilder) vertex(p stackmodel.Point2D, z float64) int {
	k := [3]int64{
		int64(math.Round(p.X * weldScale)),
		int64(math.Round(p.Y * weldScale)),
		int64(math.Round(z * weldScale)),
	}
	if i, ok := mb.index[k]; ok {
		return i
	}
	i := len(mb.verts)
	mb.verts = append(mb.verts, stackmodel.Point3D{X: p.X, Y: p.Y, Z: z})
	mb.index[k] = i
	return i
}

func (mb *meshBuilder) addTriangle(a, b, c int) {
	if a == b || b == c || a == c {
		return
	}
	mb.tris = append(mb.tris, manifold.Triangle{a, b, c})
}

func (mb *meshBuilder) manifold() manifold.Manifold {
	return manifold.Manifold{Vertices: mb.verts, Triangles: mb.tris}
}

// addCap triangulates one island at a fixed Z and adds it as a cap:
// facingUp true gives a +Z-facing winding (top cap), false gives a
// -Z-facing winding (bottom cap, or a disappearing 1-to-0 island capped
// at the level it vanished).
func addCap(mb *meshBuilder, cs contour.CrossSection, z float64, facingUp bool) bool {
	outlines := cs.Outlines()
	if len(outlines) == 0 {
		return true
	}
	outer := outlines[0]
	holes := outlines[1:]
	pts, tris := capPolygon(outer, holes)
	if len(tris) == 0 {
		return false
	}
	for _, t := range tris {
		a, b, c := t[0], t[1], t[2]
		if !facingUp {
			b, c = c, b
		}
		mb.addTriangle(mb.vertex(pts[a], z), mb.vertex(pts[b], z), mb.vertex(pts[c], z))
	}
	return true
}

func ringCentroid(ring []stackmodel.Point2D) stackmodel.Point2D {
	var cx, cy float64
	for _, p := range ring {
		cx += p.X
		cy += p.Y
	}
	n := float64(len(ring))
	return stackmodel.Point2D{X: cx / n, Y: cy / n}
}

// addWalls matches parent (lower-index, shallower) islands to child
// (next-level, deeper) islands by centroid containment and tiles the
// wall between each match, per the 1-to-1 / 1-to-0 / 1-to-N
// parent/child rules.
func addWalls(mb *meshBuilder, parent, child levelIslands) bool {
	ok := true
	claimed := make([]bool, len(child.islands))

	for _, p := range parent.islands {
		pOutlines := p.Outlines()
		pOuter := pOutlines[0]
		pHoles := pOutlines[1:]

		var matches []int
		for ci, c := range child.islands {
			cOuter := c.Outlines()[0]
			if contour.PointInPolygon(pOuter, ringCentroid(cOuter)) {
				matches = append(matches, ci)
			}
		}

		switch len(matches) {
		case 0:
			// 1-to-0: the island disappears between these levels, capped
			// at the parent's Z facing downward (into the remaining solid).
			if !addCap(mb, p, parent.z, false) {
				ok = false
			}

		case 1:
			c := child.islands[matches[0]]
			claimed[matches[0]] = true
			cOutlines := c.Outlines()
			cOuter := cOutlines[0]
			cHoles := cOutlines[1:]

			boundary := append(append([][]stackmodel.Point2D{}, pHoles...), cHoles...)
			tris, found := tileRings(pOuter, cOuter, boundary)
			if !found {
				ok = false
				continue
			}
			addBridge(mb, tris, pOuter, parent.z, cOuter, child.z)

			if len(pHoles) != len(cHoles) {
				if len(pHoles) != 0 || len(cHoles) != 0 {
					ok = false
				}
				continue
			}
			for hi := range pHoles {
				htris, hfound := tileRings(pHoles[hi], cHoles[hi], boundary)
				if !hfound {
					ok = false
					continue
				}
				addBridge(mb, htris, pHoles[hi], parent.z, cHoles[hi], child.z)
			}

		default:
			// 1-to-N: the parent's outer ring with every matched child's
			// outer ring as a hole forms a shoulder at the parent's Z; each
			// child continues independently into the level below.
			var holeRings [][]stackmodel.Point2D
			for _, ci := range matches {
				claimed[ci] = true
				holeRings = append(holeRings, child.islands[ci].Outlines()[0])
			}
			pts, tris := capPolygon(pOuter, append(holeRings, pHoles...))
			if len(tris) == 0 {
				ok = false
				continue
			}
			for _, t := range tris {
				mb.addTriangle(mb.vertex(pts[t[0]], parent.z), mb.vertex(pts[t[1]], parent.z), mb.vertex(pts[t[2]], parent.z))
			}
		}
	}

	for ci, c := range claimed {
		if c {
			continue
		}
		// Orphan child with no containing parent: cap it at the child
		// level instead of leaving an open boundary in the mesh.
		if !addCap(mb, child.islands[ci], child.z, true) {
			ok = false
		}
	}
	return ok
}

func addBridge(mb *meshBuilder, tris []bridgeTriangle, aRing []stackmodel.Point2D, az float64, bRing []stackmodel.Point2D, bz float64) {
	for _, t := range tris {
		var vi [3]int
		for k, rv := range t.v {
			if rv.inA {
				vi[k] = mb.vertex(aRing[rv.idx], az)
			} else {
				vi[k] = mb.vertex(bRing[rv.idx], bz)
			}
		}
		mb.addTriangle(vi[0], vi[1], vi[2])
	}
}
