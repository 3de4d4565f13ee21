package layerexport

import (
	"github.com/piwi3910/stackfab/internal/contour"
	"github.com/piwi3910/stackfab/internal/expr"
	"github.com/piwi3910/stackfab/internal/flatten"
	"github.com/piwi3910/stackfab/internal/snap"
	"github.com/piwi3910/stackfab/internal/stackmodel"
)

// BuildShapeRecords converts the subset of flat whose assignment map
// carries layerID into the ShapeRecord list a Request needs, resolving
// each primitive's absolute 2D outline via ContourBuilder. Shapes with no
// assignment for layerID (not cut on this layer) are skipped, and shapes
// with no 2D cross-section (Text, SplitLine) are skipped as well — they
// render or split but never appear in a layer's cut file.
func BuildShapeRecords(flat []flatten.FlatShape, lib stackmodel.FootprintLibrary, scope expr.Scope, layerID string, resolution int) ([]ShapeRecord, error) {
	var records []ShapeRecord
	for _, fs := range flat {
		assignment, ok := fs.Assignments[layerID]
		if !ok {
			continue
		}

		kind, ok := toExportKind(fs.Primitive.Kind())
		if !ok {
			continue
		}

		cs, err := contour.BuildFromFlatShape(fs, lib, scope, resolution)
		if err != nil {
			return nil, err
		}
		absolute := contour.Transform(cs, fs.RelativeTransform)

		depth, err := expr.Eval(assignment.Depth, scope)
		if err != nil {
			return nil, err
		}

		record := ShapeRecord{
			ShapeKind: kind,
			X:         fs.AbsoluteX,
			Y:         fs.AbsoluteY,
			Angle:     fs.AbsoluteRotationDeg,
			Depth:     depth,
		}
		if outlines := absolute.Outlines(); len(outlines) > 0 {
			record.Points = outlines[0]
		}
		populateDimensions(&record, fs.Primitive, scope)

		records = append(records, record)
	}
	return records, nil
}

func toExportKind(k stackmodel.ShapeKind) (ShapeKind, bool) {
	switch k {
	case stackmodel.KindCircle:
		return ShapeCircle, true
	case stackmodel.KindRect:
		return ShapeRect, true
	case stackmodel.KindPolygon:
		return ShapePolygon, true
	case stackmodel.KindLine:
		return ShapeLine, true
	default:
		return "", false
	}
}

// populateDimensions fills the optional width/height/diameter/thickness
// fields a ShapeRecord's ShapeKind uses, beyond the outline points, so an
// exporter can render primitives (e.g. an SVG <rect>) without
// re-deriving them from the polygon outline.
func populateDimensions(record *ShapeRecord, primitive stackmodel.Shape, scope expr.Scope) {
	switch v := primitive.(type) {
	case *stackmodel.Circle:
		if d, err := expr.Eval(v.Diameter, scope); err == nil {
			record.Diameter = &d
		}
	case *stackmodel.Rect:
		if w, err := expr.Eval(v.Width, scope); err == nil {
			record.Width = &w
		}
		if h, err := expr.Eval(v.Height, scope); err == nil {
			record.Height = &h
		}
	case *stackmodel.Line:
		if t, err := expr.Eval(v.Thickness, scope); err == nil {
			record.Thickness = &t
		}
	}
}

// BuildOutline converts a BoardOutline's resolved points into the
// OutlinePoint list a Request's board extrusion outline needs. Bezier
// handles are copied through unchanged; the DXF/SVG writers do not use
// them.
func BuildOutline(points []stackmodel.Point, ctx *stackmodel.Footprint, lib stackmodel.FootprintLibrary, scope expr.Scope) []OutlinePoint {
	out := make([]OutlinePoint, 0, len(points))
	for _, p := range points {
		x, y := resolvePointXY(p, ctx, lib, scope)
		out = append(out, OutlinePoint{X: x, Y: y, HandleIn: p.HandleIn, HandleOut: p.HandleOut})
	}
	return out
}

func resolvePointXY(p stackmodel.Point, ctx *stackmodel.Footprint, lib stackmodel.FootprintLibrary, scope expr.Scope) (float64, float64) {
	result := snap.Resolve(p, ctx, lib, scope)
	return result.X, result.Y
}
