// Package flatten implements the Flattener: it walks a footprint tree —
// shapes, recursive footprint references, unions, and line tie-downs —
// composing rotation/translation transforms, and emits a flat sequence of
// positioned primitives tagged with their originating union (if any) for
// grouping in BooleanEngine and Pocketer.
package flatten

import (
	"github.com/piwi3910/stackfab/internal/expr"
	"github.com/piwi3910/stackfab/internal/geomutil"
	"github.com/piwi3910/stackfab/internal/snap"
	"github.com/piwi3910/stackfab/internal/stackmodel"
)

// tieDownArcDivisions controls how finely a Line's curve is sampled
// before searching for the tie-down's arclength position; it need not
// match ContourBuilder's own resolution exactly, only be fine enough that
// the two agree to within floating-point noise on straight segments.
const tieDownArcDivisions = 16

// MaxDepth is the recursion fuse for footprint references: a defensive
// bound, not a design intent. Deeper references are silently truncated.
const MaxDepth = 10

// FlatShape is one fully-positioned primitive ready for ContourBuilder.
type FlatShape struct {
	Primitive           stackmodel.Shape
	AbsoluteX           float64
	AbsoluteY           float64
	AbsoluteRotationDeg float64
	ContextFootprint    *stackmodel.Footprint
	UnionID             string // empty if not part of a union
	RelativeTransform   stackmodel.Transform2D
	Assignments         map[string]stackmodel.LayerAssignment
}

// Flatten walks root's shapes and returns the flat primitive list.
func Flatten(root *stackmodel.Footprint, lib stackmodel.FootprintLibrary, scope expr.Scope) []FlatShape {
	var out []FlatShape
	walkShapes(root.Shapes, root, lib, scope, stackmodel.Identity(), "", nil, 0, &out)
	return out
}

func walkShapes(shapes []stackmodel.Shape, ctx *stackmodel.Footprint, lib stackmodel.FootprintLibrary, scope expr.Scope, acc stackmodel.Transform2D, unionID string, overrideAssignments map[string]stackmodel.LayerAssignment, depth int, out *[]FlatShape) {
	if depth > MaxDepth {
		return
	}
	for _, s := range shapes {
		walkShape(s, ctx, lib, scope, acc, unionID, overrideAssignments, depth, out)
	}
}

func walkShape(s stackmodel.Shape, ctx *stackmodel.Footprint, lib stackmodel.FootprintLibrary, scope expr.Scope, acc stackmodel.Transform2D, unionID string, overrideAssignments map[string]stackmodel.LayerAssignment, depth int, out *[]FlatShape) {
	switch v := s.(type) {
	case *stackmodel.WireGuide, *stackmodel.BoardOutline:
		// Consumed elsewhere (snap targets / base extrusion); never
		// emitted into the flat output.
		return

	case *stackmodel.Circle:
		x, _ := expr.Eval(v.X, scope)
		y, _ := expr.Eval(v.Y, scope)
		childAcc := translateOnly(acc, x, y)
		emit(v, ctx, childAcc, unionID, overrideAssignments, out)

	case *stackmodel.Polygon:
		x, _ := expr.Eval(v.X, scope)
		y, _ := expr.Eval(v.Y, scope)
		childAcc := translateOnly(acc, x, y)
		emit(v, ctx, childAcc, unionID, overrideAssignments, out)

	case *stackmodel.Line:
		// A Line's own x/y are implicit (its points carry position); it
		// accumulates no local translation of its own beyond the parent.
		emit(v, ctx, acc, unionID, overrideAssignments, out)
		for _, td := range v.TieDowns {
			descendTieDown(v, td, ctx, lib, scope, acc, unionID, depth, out)
		}

	case *stackmodel.SplitLine:
		emit(v, ctx, acc, unionID, overrideAssignments, out)

	case *stackmodel.Text:
		x, _ := expr.Eval(v.X, scope)
		y, _ := expr.Eval(v.Y, scope)
		angle, _ := expr.Eval(v.Angle, scope)
		childAcc := composeRotTrans(acc, x, y, angle)
		emit(v, ctx, childAcc, unionID, overrideAssignments, out)

	case *stackmodel.Rect:
		x, _ := expr.Eval(v.X, scope)
		y, _ := expr.Eval(v.Y, scope)
		angle, _ := expr.Eval(v.Angle, scope)
		childAcc := composeRotTrans(acc, x, y, angle)
		emit(v, ctx, childAcc, unionID, overrideAssignments, out)

	case *stackmodel.FootprintReference:
		x, _ := expr.Eval(v.X, scope)
		y, _ := expr.Eval(v.Y, scope)
		angle, _ := expr.Eval(v.Angle, scope)
		childAcc := composeRotTrans(acc, x, y, angle)
		child, ok := lib[v.FootprintID]
		if !ok {
			return // broken reference: resolves to nothing in the flat list
		}
		// unionId is preserved across the reference: a reference inside
		// a union remains tagged with that union's id.
		walkShapes(child.Shapes, child, lib, scope, childAcc, unionID, overrideAssignments, depth+1, out)

	case *stackmodel.Union:
		x, _ := expr.Eval(v.X, scope)
		y, _ := expr.Eval(v.Y, scope)
		angle, _ := expr.Eval(v.Angle, scope)
		childAcc := composeRotTrans(acc, x, y, angle)

		effectiveUnionID := unionID
		if effectiveUnionID == "" {
			effectiveUnionID = v.ID
		}
		effectiveOverride := overrideAssignments
		if v.AssignedLayers != nil {
			effectiveOverride = v.AssignedLayers
		}
		walkShapes(v.Shapes, ctx, lib, scope, childAcc, effectiveUnionID, effectiveOverride, depth+1, out)
	}
}

func descendTieDown(line *stackmodel.Line, td stackmodel.TieDown, ctx *stackmodel.Footprint, lib stackmodel.FootprintLibrary, scope expr.Scope, acc stackmodel.Transform2D, unionID string, depth int, out *[]FlatShape) {
	child, ok := lib[td.FootprintID]
	if !ok {
		return
	}
	distance, _ := expr.Eval(td.Distance, scope)
	extraAngle, _ := expr.Eval(td.Angle, scope)

	samples := geomutil.SamplePolyline(line.Points, scope, tieDownArcDivisions)
	pos, tangentDeg, ok := geomutil.PointAtArcLength(samples, distance)
	if !ok {
		// Arclength beyond the line's total length is silently
		// ignored.
		return
	}

	// Tie-downs attach perpendicular to the curve by default: tangent -
	// 90deg, plus any extra rotation the tie-down specifies.
	placementAngle := tangentDeg - 90 + extraAngle
	childAcc := composeRotTrans(acc, pos.X, pos.Y, placementAngle)
	walkShapes(child.Shapes, child, lib, scope, childAcc, unionID, nil, depth+1, out)
}

func emit(s stackmodel.Shape, ctx *stackmodel.Footprint, t stackmodel.Transform2D, unionID string, override map[string]stackmodel.LayerAssignment, out *[]FlatShape) {
	assignments := s.Assignments()
	if override != nil {
		assignments = override
	}
	*out = append(*out, FlatShape{
		Primitive:           s,
		AbsoluteX:           t.TX,
		AbsoluteY:           t.TY,
		AbsoluteRotationDeg: t.Deg,
		ContextFootprint:    ctx,
		UnionID:             unionID,
		RelativeTransform:   t,
		Assignments:         assignments,
	})
}

// translateOnly accumulates a translation without contributing to the
// rotation, for primitives whose own "angle" field does not exist
// (Circle/Line/Polygon).
func translateOnly(acc stackmodel.Transform2D, x, y float64) stackmodel.Transform2D {
	return composeRotTrans(acc, x, y, 0)
}

// composeRotTrans composes a child (x, y, angleDeg) onto an accumulated
// parent transform using the same rigid-body rule internal/snap uses.
func composeRotTrans(parent stackmodel.Transform2D, x, y, angleDeg float64) stackmodel.Transform2D {
	rotated := snap.RotatePoint(stackmodel.Point2D{X: x, Y: y}, parent.Deg)
	return stackmodel.Transform2D{
		TX:  parent.TX + rotated.X,
		TY:  parent.TY + rotated.Y,
		Deg: parent.Deg + angleDeg,
	}
}
