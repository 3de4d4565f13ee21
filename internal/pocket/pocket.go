// Package pocket implements the Pocketer: the toolpath generator that
// turns a layer's assigned shapes into an ordered sequence of 3D tool
// moves. It builds a depth map of disjoint regions (later
// shapes override earlier ones where they intersect), then emits a
// facing pass, per-region pocket clearing, and a board-outline profile
// cut, each as Z-stepped concentric offset passes bracketed by entry and
// exit travel moves.
package pocket

import (
	"math"

	"github.com/piwi3910/stackfab/internal/contour"
	"github.com/piwi3910/stackfab/internal/expr"
	"github.com/piwi3910/stackfab/internal/flatten"
	"github.com/piwi3910/stackfab/internal/stackmodel"
)

// Move is one point of tool motion: Rapid true means a non-cutting
// travel move (retract/plunge/approach), false means a cutting move
// along a contour at the given Z.
type Move struct {
	X, Y, Z float64
	Rapid   bool
}

// Settings carries the tool and fixture parameters Generate takes as
// input: tool diameter D, step-down Δz, step-over Δxy, the chuck's
// clearance radius (for the outline profile cut's outward reach), and
// the safe-Z retract height used between passes.
type Settings struct {
	ToolDiameter float64
	StepDown     float64
	StepOver     float64
	ChuckRadius  float64
	SafeZ        float64
}

// region is one disjoint depth-map entry: a 2D area and the Z depth
// below the layer's top the tool must reach there.
type region struct {
	cs    contour.CrossSection
	depth float64
}

// Generate builds the full ordered toolpath for one layer's assigned
// shapes. stockTop and layerTop are both measured as mm above the
// layer's own local Z origin (layerTop is conventionally 0 when the
// layer's top face is flush with the stock, positive when stock remains
// above it); bottomZ is the global Z the caller adds to every local
// coordinate emitted, translating a local Z origin into a global one.
func Generate(flat []flatten.FlatShape, footprint *stackmodel.Footprint, lib stackmodel.FootprintLibrary, scope expr.Scope, resolution int, layer *stackmodel.StackupLayer, settings Settings, stockTop, layerTop, bottomZ float64) ([]Move, error) {
	thickness, err := expr.Eval(layer.Thickness, scope)
	if err != nil {
		return nil, err
	}

	regions, err := depthMap(flat, lib, scope, resolution, layer, thickness)
	if err != nil {
		return nil, err
	}

	var boardOutline *contour.CrossSection
	if footprint.IsBoard {
		if cs, ok := boardOutlineCrossSection(footprint, layer.ID, lib, scope, resolution); ok {
			boardOutline = &cs
		}
	}

	var moves []Move

	moves = append(moves, surfacingPass(regions, settings, stockTop, layerTop, bottomZ)...)
	moves = append(moves, clearRegions(regions, settings, layerTop, bottomZ)...)

	if boardOutline != nil {
		moves = append(moves, profileCut(*boardOutline, settings, thickness, layerTop, bottomZ)...)
	}

	return moves, nil
}

// depthMap builds the depth map: later shapes in list order
// subtract from every region recorded so far, then add themselves as a
// new region at their own depth. BoardOutline shapes do not participate
// in the depth map (they are not emitted by Flattener); the caller's
// board outline, if any, is located separately for the profile cut.
func depthMap(flat []flatten.FlatShape, lib stackmodel.FootprintLibrary, scope expr.Scope, resolution int, layer *stackmodel.StackupLayer, thickness float64) ([]region, error) {
	var regions []region

	for _, fs := range flat {
		assignment, ok := fs.Assignments[layer.ID]
		if !ok {
			continue
		}

		cs, err := contour.BuildFromFlatShape(fs, lib, scope, resolution)
		if err != nil {
			return nil, err
		}
		cs = contour.Transform(cs, fs.RelativeTransform)
		if cs.IsEmpty() {
			continue
		}

		depth := thickness
		if layer.Type == stackmodel.LayerCarved {
			d, err := expr.Eval(assignment.Depth, scope)
			if err != nil {
				return nil, err
			}
			depth = clamp(d, 0, thickness)
		}

		for i := range regions {
			regions[i].cs = contour.Difference2D(regions[i].cs, cs)
		}
		regions = append(regions, region{cs: cs, depth: depth})
	}

	var kept []region
	for _, r := range regions {
		if !r.cs.IsEmpty() {
			kept = append(kept, r)
		}
	}
	return kept, nil
}

// boardOutlineCrossSection resolves and builds the board outline shape
// that serves as this layer's base extrusion, using the same
// assignment-then-first-outline fallback lookup internal/manifold
// applies, here for the profile/moat cut.
func boardOutlineCrossSection(footprint *stackmodel.Footprint, layerID string, lib stackmodel.FootprintLibrary, scope expr.Scope, resolution int) (contour.CrossSection, bool) {
	id, ok := footprint.BoardOutlineFor(layerID)
	if !ok {
		return contour.CrossSection{}, false
	}
	for _, s := range footprint.Shapes {
		bo, ok := s.(*stackmodel.BoardOutline)
		if !ok || bo.ShapeID() != id {
			continue
		}
		return contour.Polygon(bo.Points, footprint, lib, scope, resolution), true
	}
	return contour.CrossSection{}, false
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// surfacingPass is the facing pass: if stock remains above
// the layer's own top, face the whole assigned area at each Z level
// stepping from stockTop down to layerTop by Δz, using concentric
// offsets of the padded bounding rectangle (margin 2D).
func surfacingPass(regions []region, settings Settings, stockTop, layerTop, bottomZ float64) []Move {
	if stockTop <= layerTop || len(regions) == 0 {
		return nil
	}

	var sections []contour.CrossSection
	for _, r := range regions {
		sections = append(sections, r.cs)
	}
	bounds := contour.Union2D(sections...).Bounds()
	margin := 2 * settings.ToolDiameter
	w, h := bounds.Width()+2*margin, bounds.Height()+2*margin
	rect := contour.Transform(
		contour.Rect(w, h, 0, contour.DefaultResolution),
		stackmodel.Transform2D{TX: bounds.CenterX(), TY: bounds.CenterY()},
	)

	passes := concentricInward(rect, settings.StepOver)

	var moves []Move
	for z := stockTop; z > layerTop+1e-9; z -= settings.StepDown {
		cutZ := z - settings.StepDown
		if cutZ < layerTop {
			cutZ = layerTop
		}
		for _, pass := range passes {
			moves = append(moves, cutPass(pass, cutZ, settings.SafeZ, bottomZ)...)
		}
	}
	return moves
}

// clearingPlan is one region's precomputed pocket clearing: its
// concentric passes and the Z its floor sits at.
type clearingPlan struct {
	passes []contour.CrossSection
	bottom float64
}

// planClearing offsets the region inward by D/2 and generates its
// concentric inward passes until the area vanishes. ok is false when the
// region is too small for the tool to enter at all.
func planClearing(r region, settings Settings, layerTop float64) (clearingPlan, bool) {
	boundary := contour.Offset(r.cs, -settings.ToolDiameter/2)
	if boundary.IsEmpty() {
		return clearingPlan{}, false
	}
	passes := concentricInward(boundary, settings.StepOver)
	if len(passes) == 0 {
		return clearingPlan{}, false
	}
	return clearingPlan{passes: passes, bottom: layerTop - r.depth}, true
}

// clearRegions sweeps every region's pocket clearing with the Z level as
// the outer loop: at each step-down level, every region whose floor lies
// below the previous level cuts its full set of concentric passes before
// the next level begins. Regions shallower than the current level drop
// out once their own floor is reached.
func clearRegions(regions []region, settings Settings, layerTop, bottomZ float64) []Move {
	var plans []clearingPlan
	maxDepth := 0.0
	for _, r := range regions {
		plan, ok := planClearing(r, settings, layerTop)
		if !ok {
			continue
		}
		plans = append(plans, plan)
		if r.depth > maxDepth {
			maxDepth = r.depth
		}
	}

	var moves []Move
	for z := layerTop; z > layerTop-maxDepth+1e-9; z -= settings.StepDown {
		for _, plan := range plans {
			if z <= plan.bottom+1e-9 {
				continue
			}
			cutZ := z - settings.StepDown
			if cutZ < plan.bottom {
				cutZ = plan.bottom
			}
			for _, pass := range plan.passes {
				moves = append(moves, cutPass(pass, cutZ, settings.SafeZ, bottomZ)...)
			}
		}
	}
	return moves
}

// pocketClearing clears a single region in isolation.
func pocketClearing(r region, settings Settings, layerTop, bottomZ float64) []Move {
	return clearRegions([]region{r}, settings, layerTop, bottomZ)
}

// profileCut cuts a "moat" around a
// board outline, offsetting outward from D/2 up to
// max(D/2, chuckRadius+2mm), clearing full layer thickness plus a
// 0.5mm breakthrough.
func profileCut(outline contour.CrossSection, settings Settings, thickness, layerTop, bottomZ float64) []Move {
	maxReach := settings.ChuckRadius + 2
	if settings.ToolDiameter/2 > maxReach {
		maxReach = settings.ToolDiameter / 2
	}

	var passes []contour.CrossSection
	lastD := 0.0
	for d := settings.ToolDiameter / 2; d <= maxReach+1e-9; d += settings.StepOver {
		passes = append(passes, contour.Offset(outline, d))
		lastD = d
	}
	if len(passes) == 0 || lastD < maxReach-1e-9 {
		// ensure the outermost requested offset is represented even if
		// StepOver doesn't divide the range evenly
		passes = append(passes, contour.Offset(outline, maxReach))
	}

	moatBottom := layerTop - (thickness + 0.5)

	var moves []Move
	for z := layerTop; z > moatBottom+1e-9; z -= settings.StepDown {
		cutZ := z - settings.StepDown
		if cutZ < moatBottom {
			cutZ = moatBottom
		}
		for _, pass := range passes {
			moves = append(moves, cutPass(pass, cutZ, settings.SafeZ, bottomZ)...)
		}
	}
	return moves
}

// concentricInward steps a boundary inward by stepOver, generating
// concentric offsets until the offset area is empty.
func concentricInward(boundary contour.CrossSection, stepOver float64) []contour.CrossSection {
	if boundary.IsEmpty() || stepOver <= 0 {
		return []contour.CrossSection{boundary}
	}
	passes := []contour.CrossSection{boundary}
	for offset := stepOver; ; offset += stepOver {
		next := contour.Offset(boundary, -offset)
		if next.IsEmpty() {
			break
		}
		passes = append(passes, next)
	}
	return passes
}

// cutPass emits the entry move (rapid to safeZ then plunge to cutZ),
// the closed cut contour at cutZ, then the exit move back to safeZ, for
// every outline in pass (an outer boundary plus any holes, each cut
// independently).
func cutPass(pass contour.CrossSection, cutZ, safeZ, bottomZ float64) []Move {
	var moves []Move
	for _, outline := range pass.Outlines() {
		if len(outline) < 3 {
			continue
		}
		start := outline[0]
		moves = append(moves,
			Move{X: start.X, Y: start.Y, Z: bottomZ + safeZ, Rapid: true},
			Move{X: start.X, Y: start.Y, Z: bottomZ + cutZ, Rapid: false},
		)
		for _, p := range outline[1:] {
			moves = append(moves, Move{X: p.X, Y: p.Y, Z: bottomZ + cutZ, Rapid: false})
		}
		moves = append(moves, Move{X: start.X, Y: start.Y, Z: bottomZ + cutZ, Rapid: false})
		moves = append(moves, Move{X: start.X, Y: start.Y, Z: bottomZ + safeZ, Rapid: true})
	}
	return moves
}
