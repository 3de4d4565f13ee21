package manifold

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/deadsy/sdfx/sdf"

	"github.com/piwi3910/stackfab/internal/contour"
	"github.com/piwi3910/stackfab/internal/expr"
	"github.com/piwi3910/stackfab/internal/flatten"
	"github.com/piwi3910/stackfab/internal/progress"
	"github.com/piwi3910/stackfab/internal/stackerr"
	"github.com/piwi3910/stackfab/internal/stackmodel"
)

// ToolBodyFunc builds a partial-depth cut's subtraction body as an
// sdf.SDF3 expression tree — the shape internal/toolbuilder.SubtractionSDF
// has, injected rather than imported directly: dependency order has
// ToolBuilder depend on BooleanEngine (it needs a Manifold to
// triangulate against), so BooleanEngine cannot import
// internal/toolbuilder without a cycle. The composition root wires
// toolbuilder.SubtractionSDF in via NewEngine. stairStep reports that
// the implementation could not close its primary lofted body and fell
// back to a stair-step approximation; the engine surfaces that as a
// diagnostic naming the shape.
type ToolBodyFunc func(base contour.CrossSection, depth, topRadius, bottomRadius float64, arcSteps int) (body sdf.SDF3, stairStep bool, err error)

// LayerOptions tunes ComputeLayer/ComputeLayers.
type LayerOptions struct {
	ContourResolution int     // arc tessellation passed to ContourBuilder
	RenderCells       int     // marching-cubes-octree resolution
	BoardPadding      float64 // mm, padding around a boardless footprint's bbox
	EndmillClampEps   float64 // mm, safety margin subtracted from the clamp bound
	ToolArcSteps      int     // quarter-circle samples per ToolBuilder profile
	KerfWidth         float64 // mm, SplitLine groove thickness
	Workers           int     // ComputeLayers worker pool size; <=0 uses GOMAXPROCS
}

// DefaultLayerOptions returns sane defaults for ComputeLayer/ComputeLayers.
func DefaultLayerOptions() LayerOptions {
	return LayerOptions{
		ContourResolution: contour.DefaultResolution,
		RenderCells:       200,
		BoardPadding:      5,
		EndmillClampEps:   0.05,
		ToolArcSteps:      8,
		KerfWidth:         1.0,
	}
}

// Engine is BooleanEngine: the per-layer driver that turns a footprint's
// assigned shapes into a closed, watertight 3D manifold.
type Engine struct {
	Lib      stackmodel.FootprintLibrary
	Scope    expr.Scope
	Opts     LayerOptions
	ToolBody ToolBodyFunc

	// Reporter, when set, receives per-shape diagnostics (a tool body
	// falling back to its stair-step approximation). Layer-level
	// progress goes through the reporter passed to ComputeLayers
	// instead. Nil discards diagnostics.
	Reporter progress.Reporter
}

func (e *Engine) reporter() progress.Reporter {
	if e.Reporter != nil {
		return e.Reporter
	}
	return progress.Discard
}

// NewEngine constructs an Engine. toolBody may be nil; layers that
// request a tool profile then fall back to a straight extruded prism and
// the caller is responsible for knowing the result is an approximation
// (a host wiring a real ToolBodyFunc, i.e. toolbuilder.SubtractionSDF, is
// the expected configuration).
func NewEngine(lib stackmodel.FootprintLibrary, scope expr.Scope, opts LayerOptions, toolBody ToolBodyFunc) *Engine {
	return &Engine{Lib: lib, Scope: scope, Opts: opts, ToolBody: toolBody}
}

// execItem is one boolean-application unit: a single shape, or every
// member sharing a unionId.
type execItem struct {
	key     string
	members []flatten.FlatShape
}

// cutRecord is one processed island's (depth, crossSection) pair, kept
// for later restorative-cut queries.
type cutRecord struct {
	depth float64
	cs    contour.CrossSection
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

// placedCrossSection builds fs's shape-local cross-section and places it
// into the footprint-global frame via its RelativeTransform — the
// post-processing step every consumer of contour.BuildFromFlatShape
// needs, since ContourBuilder's primitives are built centered/anchored
// in their own local frame (see internal/contour/contour.go).
func placedCrossSection(fs flatten.FlatShape, lib stackmodel.FootprintLibrary, scope expr.Scope, resolution int) (contour.CrossSection, error) {
	cs, err := contour.BuildFromFlatShape(fs, lib, scope, resolution)
	if err != nil {
		return contour.CrossSection{}, err
	}
	return contour.Transform(cs, fs.RelativeTransform), nil
}

// groupExecutionItems partitions the flat list into execItems in
// shape-list order, skipping Text (render-only) and SplitLine (handled
// separately after the boolean loop). Later shapes are processed later,
// so their cuts land on top of earlier ones — and a later, shallower cut
// heals an earlier deeper one through the restorative branch.
func groupExecutionItems(flat []flatten.FlatShape) []execItem {
	var items []execItem
	indexOf := map[string]int{}
	for _, fs := range flat {
		switch fs.Primitive.(type) {
		case *stackmodel.Text, *stackmodel.SplitLine:
			continue
		}
		if fs.UnionID == "" {
			items = append(items, execItem{key: fs.Primitive.ShapeID(), members: []flatten.FlatShape{fs}})
			continue
		}
		if idx, ok := indexOf[fs.UnionID]; ok {
			items[idx].members = append(items[idx].members, fs)
			continue
		}
		indexOf[fs.UnionID] = len(items)
		items = append(items, execItem{key: fs.UnionID, members: []flatten.FlatShape{fs}})
	}
	return items
}

// boardOutlineCrossSection resolves and builds the CrossSection for the
// BoardOutline assigned to layerID (falling back to the footprint's
// first BoardOutline), or reports ok=false if the footprint carries none.
func boardOutlineCrossSection(footprint *stackmodel.Footprint, layerID string, lib stackmodel.FootprintLibrary, scope expr.Scope, resolution int) (contour.CrossSection, bool) {
	id, ok := footprint.BoardOutlineFor(layerID)
	if !ok {
		return contour.CrossSection{}, false
	}
	for _, s := range footprint.Shapes {
		bo, match := s.(*stackmodel.BoardOutline)
		if !match || bo.ID != id {
			continue
		}
		return contour.Polygon(bo.Points, footprint, lib, scope, resolution), true
	}
	return contour.CrossSection{}, false
}

// paddedBoundingBoxCrossSection builds a rectangle enclosing every
// placed flat shape's cross-section, grown by padding on each side — the
// base-solid fallback for a footprint with no assigned BoardOutline.
func paddedBoundingBoxCrossSection(flat []flatten.FlatShape, lib stackmodel.FootprintLibrary, scope expr.Scope, resolution int, padding float64) contour.CrossSection {
	var b contour.BBox
	first := true
	for _, fs := range flat {
		switch fs.Primitive.(type) {
		case *stackmodel.Text, *stackmodel.SplitLine:
			continue
		}
		cs, err := placedCrossSection(fs, lib, scope, resolution)
		if err != nil || cs.IsEmpty() {
			continue
		}
		fb := cs.Bounds()
		if first {
			b, first = fb, false
			continue
		}
		if fb.MinX < b.MinX {
			b.MinX = fb.MinX
		}
		if fb.MinY < b.MinY {
			b.MinY = fb.MinY
		}
		if fb.MaxX > b.MaxX {
			b.MaxX = fb.MaxX
		}
		if fb.MaxY > b.MaxY {
			b.MaxY = fb.MaxY
		}
	}
	if first {
		b = contour.BBox{MinX: -padding, MinY: -padding, MaxX: padding, MaxY: padding}
	}
	w, h := b.Width()+2*padding, b.Height()+2*padding
	rect := contour.Rect(w, h, 0, contour.DefaultResolution)
	return contour.Transform(rect, stackmodel.Transform2D{TX: b.CenterX(), TY: b.CenterY()})
}

func (e *Engine) baseCrossSection(footprint *stackmodel.Footprint, layer *stackmodel.StackupLayer, flat []flatten.FlatShape) contour.CrossSection {
	if footprint.IsBoard {
		if cs, ok := boardOutlineCrossSection(footprint, layer.ID, e.Lib, e.Scope, e.Opts.ContourResolution); ok {
			return cs
		}
	}
	return paddedBoundingBoxCrossSection(flat, e.Lib, e.Scope, e.Opts.ContourResolution, e.Opts.BoardPadding)
}

// isRestorative reports whether cs spatially intersects any previously
// processed (list-earlier) island of strictly greater depth. Such an
// overlap must not stay at the deeper level: the current, later cut
// owns it, so its application heals the shared region back up to the
// current depth.
func isRestorative(cs contour.CrossSection, depth float64, processed []cutRecord) bool {
	for _, p := range processed {
		if p.depth <= depth {
			continue
		}
		if !contour.Intersect2D(cs, p.cs).IsEmpty() {
			return true
		}
	}
	return false
}

// cutBody builds the Z-positioned solid to subtract. stairStep reports
// that the tool-profile branch fell back to the stair-step
// approximation, so the caller can surface a diagnostic.
func (e *Engine) cutBody(cs contour.CrossSection, thickness, actualDepth, endmillRadius, fillet float64, carveSide stackmodel.CarveSide) (body sdf.SDF3, stairStep bool, err error) {
	partial := actualDepth < thickness-1e-9
	needsToolProfile := (endmillRadius > 0 && partial) || fillet > 0

	if needsToolProfile && e.ToolBody != nil {
		body, stairStep, err := e.ToolBody(cs, actualDepth, fillet, endmillRadius, e.Opts.ToolArcSteps)
		if err != nil {
			return nil, false, err
		}
		// The profile spans z in [-actualDepth, 0], entrance at z=0.
		if carveSide == stackmodel.CarveBottom {
			body = FlipAboutXAxis(body)
			return TranslateZ(body, -thickness/2), stairStep, nil
		}
		return TranslateZ(body, thickness/2), stairStep, nil
	}

	solid, err := Extrude(cs, actualDepth)
	if err != nil {
		return nil, false, err
	}
	var center float64
	if carveSide == stackmodel.CarveBottom {
		center = -thickness/2 + actualDepth/2
	} else {
		center = thickness/2 - actualDepth/2
	}
	return TranslateZ(solid, center), false, nil
}

// ComputeLayer realizes one stackup layer's manifold for footprint:
// base solid, shape-list-order boolean loop with restorative healing,
// split-line kerfs, then a final boundary clip. The engine's Scope must
// already carry every resolved parameter value.
func (e *Engine) ComputeLayer(ctx context.Context, footprint *stackmodel.Footprint, layer *stackmodel.StackupLayer) (Manifold, error) {
	gc := newGarbageList()
	defer gc.Release()

	thickness, err := expr.Eval(layer.Thickness, e.Scope)
	if err != nil || thickness <= 0 {
		return Manifold{}, fmt.Errorf("manifold: layer %q has non-positive thickness", layer.ID)
	}

	flat := flatten.Flatten(footprint, e.Lib, e.Scope)
	baseCS := e.baseCrossSection(footprint, layer, flat)
	if baseCS.IsEmpty() {
		return Manifold{}, &stackerr.GeometryDegenerate{ShapeID: footprint.ID, Detail: "base cross-section is empty"}
	}

	baseSolid, err := Extrude(baseCS, thickness)
	if err != nil {
		return Manifold{}, err
	}
	boundaryColumn, err := Extrude(baseCS, thickness*4+100)
	if err != nil {
		return Manifold{}, err
	}

	current := baseSolid
	var processed []cutRecord

	for _, item := range groupExecutionItems(flat) {
		if err := ctx.Err(); err != nil {
			return Manifold{}, &stackerr.Cancelled{}
		}

		first := item.members[0]
		assign, hasAssign := first.Assignments[layer.ID]
		if !hasAssign {
			continue
		}

		var sections []contour.CrossSection
		for _, m := range item.members {
			cs, err := placedCrossSection(m, e.Lib, e.Scope, e.Opts.ContourResolution)
			if err != nil || cs.IsEmpty() {
				continue
			}
			sections = append(sections, cs)
		}
		if len(sections) == 0 {
			continue
		}
		combined := contour.Union2D(sections...)

		var actualDepth float64
		if layer.Type == stackmodel.LayerCut {
			actualDepth = thickness
		} else {
			d, _ := expr.Eval(assign.Depth, e.Scope)
			actualDepth = clamp(d, 0, thickness)
		}
		endmillRadius, _ := expr.Eval(assign.EndmillRadius, e.Scope)
		fillet, _ := expr.Eval(assign.InputFillet, e.Scope)
		if endmillRadius < 0 {
			endmillRadius = 0
		}
		if fillet < 0 {
			fillet = 0
		}

		bounds := combined.Bounds()
		minHalf := bounds.Width() / 2
		if bounds.Height()/2 < minHalf {
			minHalf = bounds.Height() / 2
		}
		clampBound := minHalf - e.Opts.EndmillClampEps
		if len(item.members) > 1 && actualDepth < clampBound {
			clampBound = actualDepth
		}
		if endmillRadius > clampBound {
			endmillRadius = clampBound
		}
		if endmillRadius < 0 {
			endmillRadius = 0
		}

		for _, island := range contour.Islands(combined) {
			if err := ctx.Err(); err != nil {
				return Manifold{}, &stackerr.Cancelled{}
			}

			restorative := isRestorative(island, actualDepth, processed)
			if restorative {
				throughHole, err := Extrude(island, thickness)
				if err == nil {
					current = Difference3D(current, throughHole)
				}
				remaining := thickness - actualDepth
				if remaining > 1e-9 {
					slabCS := island
					if fillet > 0 {
						slabCS = contour.Offset(island, fillet)
					}
					slab, err := Extrude(slabCS, remaining)
					if err == nil {
						var slabCenter float64
						if layer.CarveSide == stackmodel.CarveBottom {
							slabCenter = thickness/2 - remaining/2
						} else {
							slabCenter = -thickness/2 + remaining/2
						}
						current = Union3D(current, TranslateZ(slab, slabCenter))
					}
				}
			} else {
				body, stairStep, err := e.cutBody(island, thickness, actualDepth, endmillRadius, fillet, layer.CarveSide)
				if err == nil {
					if stairStep {
						e.reporter().Report(progress.Event{
							ID:      item.key,
							Message: fmt.Sprintf("shape %s: tool body fell back to stair-step approximation", item.key),
						})
					}
					current = Difference3D(current, body)
				}
			}

			processed = append(processed, cutRecord{depth: actualDepth, cs: island})
		}
	}

	for _, fs := range flat {
		sl, ok := fs.Primitive.(*stackmodel.SplitLine)
		if !ok {
			continue
		}
		kerf := contour.KerfCrossSection(sl, e.Scope, e.Opts.KerfWidth, e.Opts.ContourResolution)
		if kerf.IsEmpty() {
			continue
		}
		kerfSolid, err := Extrude(kerf, thickness*4+100)
		if err != nil {
			continue
		}
		current = Difference3D(current, kerfSolid)
	}

	current = Intersect3D(current, boundaryColumn)

	mesh, err := Render(current, e.Opts.RenderCells)
	if err != nil {
		return Manifold{}, err
	}
	if mesh.IsEmpty() {
		return Manifold{}, &stackerr.GeometryDegenerate{ShapeID: footprint.ID, Detail: "layer " + layer.ID + " produced an empty mesh"}
	}
	mesh.SourceShapeIDs = append(mesh.SourceShapeIDs, footprint.ID)
	return mesh, nil
}

// ComputeLayers dispatches ComputeLayer across a bounded worker pool, one
// goroutine slot per layer, reporting ordered progress.Events and
// honoring cooperative cancellation. Results are returned in the same
// order as layers.
func (e *Engine) ComputeLayers(ctx context.Context, footprint *stackmodel.Footprint, layers []*stackmodel.StackupLayer, reporter progress.Reporter) ([]Manifold, error) {
	if reporter == nil {
		reporter = progress.Discard
	}
	workers := e.Opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	results := make([]Manifold, len(layers))
	errs := make([]error, len(layers))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i, layer := range layers {
		select {
		case <-ctx.Done():
			errs[i] = &stackerr.Cancelled{}
			continue
		case sem <- struct{}{}:
		}
		wg.Add(1)
		go func(i int, layer *stackmodel.StackupLayer) {
			defer wg.Done()
			defer func() { <-sem }()
			m, err := e.ComputeLayer(ctx, footprint, layer)
			results[i], errs[i] = m, err
			pct := float64(i+1) / float64(len(layers))
			reporter.Report(progress.Event{ID: footprint.ID, LayerIndex: i, Message: "layer " + layer.ID, Percent: pct, Err: err})
		}(i, layer)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return results, err
		}
	}
	return results, nil
}
