package contour

import (
	"fmt"
	"math"

	clipper "github.com/go-clipper/clipper2"
	"github.com/piwi3910/stackfab/internal/expr"
	"github.com/piwi3910/stackfab/internal/flatten"
	"github.com/piwi3910/stackfab/internal/geomutil"
	"github.com/piwi3910/stackfab/internal/snap"
	"github.com/piwi3910/stackfab/internal/stackmodel"
)

// Circle builds a regular n-gon of `resolution` sides approximating a
// disc of the given diameter, centered at the origin. resolution<=0
// falls back to DefaultResolution.
func Circle(diameterMM float64, resolution int) CrossSection {
	if resolution <= 0 {
		resolution = DefaultResolution
	}
	r := diameterMM / 2
	pts := make([]stackmodel.Point2D, resolution)
	for i := 0; i < resolution; i++ {
		theta := 2 * math.Pi * float64(i) / float64(resolution)
		pts[i] = stackmodel.Point2D{X: r * math.Cos(theta), Y: r * math.Sin(theta)}
	}
	return CrossSection{Paths: clipper.Paths64{ensureCCW(pathToUnits(pts))}}
}

func rectCorners(w, h float64) []stackmodel.Point2D {
	return []stackmodel.Point2D{
		{X: -w / 2, Y: -h / 2},
		{X: w / 2, Y: -h / 2},
		{X: w / 2, Y: h / 2},
		{X: -w / 2, Y: h / 2},
	}
}

// Rect builds an axis-local rectangle centered at the origin. A sharp
// rectangle when cornerRadius<=0; otherwise a rectangle inset by the
// radius on every side and grown back out by it with round joins,
// clamped so the radius never exceeds min(w,h)/2.
func Rect(w, h, cornerRadius float64, resolution int) CrossSection {
	if cornerRadius <= 0 {
		return CrossSection{Paths: clipper.Paths64{ensureCCW(pathToUnits(rectCorners(w, h)))}}
	}
	cr := cornerRadius
	if maxCr := math.Min(w, h) / 2; cr > maxCr {
		cr = maxCr
	}
	inner := ensureCCW(pathToUnits(rectCorners(w-2*cr, h-2*cr)))
	rounded := offset(clipper.Paths64{inner}, cr, clipper.Round)
	return CrossSection{Paths: rounded}
}

func resolvePoints(points []stackmodel.Point, ctx *stackmodel.Footprint, lib stackmodel.FootprintLibrary, scope expr.Scope) []snap.Result {
	out := make([]snap.Result, len(points))
	for i, p := range points {
		out[i] = snap.Resolve(p, ctx, lib, scope)
	}
	return out
}

func sampleResolvedSegment(a, b snap.Result, divisions int) []stackmodel.Point2D {
	p0 := stackmodel.Point2D{X: a.X, Y: a.Y}
	p3 := stackmodel.Point2D{X: b.X, Y: b.Y}
	if a.HandleOut == nil && b.HandleIn == nil {
		return []stackmodel.Point2D{p0}
	}
	p1 := p0
	if a.HandleOut != nil {
		p1 = p0.Add(*a.HandleOut)
	}
	p2 := p3
	if b.HandleIn != nil {
		p2 = p3.Add(*b.HandleIn)
	}
	if divisions < 1 {
		divisions = 1
	}
	pts := make([]stackmodel.Point2D, 0, divisions)
	for i := 0; i < divisions; i++ {
		t := float64(i) / float64(divisions)
		pts = append(pts, geomutil.CubicBezier(p0, p1, p2, p3, t))
	}
	return pts
}

// Polygon discretizes a closed, possibly-Bezier point list (resolving
// each point's snapTo path through SnapResolver) and enforces CCW
// winding.
func Polygon(points []stackmodel.Point, ctx *stackmodel.Footprint, lib stackmodel.FootprintLibrary, scope expr.Scope, resolution int) CrossSection {
	if resolution <= 0 {
		resolution = DefaultResolution
	}
	divisions := resolution / 4
	if divisions < 1 {
		divisions = 1
	}
	resolved := resolvePoints(points, ctx, lib, scope)
	if len(resolved) < 3 {
		return CrossSection{}
	}
	var pts []stackmodel.Point2D
	n := len(resolved)
	for i := 0; i < n; i++ {
		pts = append(pts, sampleResolvedSegment(resolved[i], resolved[(i+1)%n], divisions)...)
	}
	return CrossSection{Paths: clipper.Paths64{ensureCCW(pathToUnits(pts))}}
}

func tangentAt(pts []stackmodel.Point2D, i int) stackmodel.Point2D {
	var a, b stackmodel.Point2D
	switch {
	case len(pts) < 2:
		return stackmodel.Point2D{X: 1, Y: 0}
	case i == 0:
		a, b = pts[0], pts[1]
	case i == len(pts)-1:
		a, b = pts[len(pts)-2], pts[len(pts)-1]
	default:
		a, b = pts[i-1], pts[i+1]
	}
	dx, dy := b.X-a.X, b.Y-a.Y
	length := math.Hypot(dx, dy)
	if length == 0 {
		return stackmodel.Point2D{X: 1, Y: 0}
	}
	return stackmodel.Point2D{X: dx / length, Y: dy / length}
}

// offsetCenterline builds the left and right parallel offset polylines
// of a centerline using per-vertex normals from averaged tangents, as
// Line extrusion requires.
func offsetCenterline(pts []stackmodel.Point2D, half float64) (left, right []stackmodel.Point2D) {
	left = make([]stackmodel.Point2D, len(pts))
	right = make([]stackmodel.Point2D, len(pts))
	for i, p := range pts {
		t := tangentAt(pts, i)
		normal := stackmodel.Point2D{X: -t.Y, Y: t.X}
		left[i] = stackmodel.Point2D{X: p.X + normal.X*half, Y: p.Y + normal.Y*half}
		right[i] = stackmodel.Point2D{X: p.X - normal.X*half, Y: p.Y - normal.Y*half}
	}
	return left, right
}

// semicircleCap returns the interior arc points (excluding both
// endpoints, which coincide with the side polylines) of a half-circle
// cap at center, oriented by the local tangent direction. isStart caps
// sweep "backward" (away from the line), end caps sweep "forward".
func semicircleCap(center, tangent stackmodel.Point2D, radius float64, divisions int, isStart bool) []stackmodel.Point2D {
	if divisions < 2 {
		divisions = 2
	}
	baseAngle := math.Atan2(tangent.Y, tangent.X)
	var startAngle float64
	if isStart {
		startAngle = baseAngle + math.Pi/2
	} else {
		startAngle = baseAngle - math.Pi/2
	}
	sweep := math.Pi
	pts := make([]stackmodel.Point2D, 0, divisions-1)
	for i := 1; i < divisions; i++ {
		t := float64(i) / float64(divisions)
		angle := startAngle + sweep*t
		pts = append(pts, stackmodel.Point2D{X: center.X + radius*math.Cos(angle), Y: center.Y + radius*math.Sin(angle)})
	}
	return pts
}

// Line builds the extruded outline of an open polyline with rounded
// (half-circle) caps: bezier-sampled centerline,
// lateral offset by thickness/2 using per-vertex averaged-tangent
// normals, miter-free half-circle end caps sampled at R/4 steps.
// Self-intersections are not repaired.
func Line(thicknessMM float64, points []stackmodel.Point, ctx *stackmodel.Footprint, lib stackmodel.FootprintLibrary, scope expr.Scope, resolution int) CrossSection {
	if resolution <= 0 {
		resolution = DefaultResolution
	}
	resolved := resolvePoints(points, ctx, lib, scope)
	if len(resolved) < 2 {
		return CrossSection{}
	}
	var centerline []stackmodel.Point2D
	for i := 0; i < len(resolved)-1; i++ {
		centerline = append(centerline, sampleResolvedSegment(resolved[i], resolved[i+1], resolution)...)
	}
	last := resolved[len(resolved)-1]
	centerline = append(centerline, stackmodel.Point2D{X: last.X, Y: last.Y})
	if len(centerline) < 2 {
		return CrossSection{}
	}

	return LineFromCenterline(centerline, thicknessMM, resolution)
}

// LineFromCenterline builds the rounded-cap extruded outline of an
// already-resolved (absolute mm) open centerline — the construction Line
// uses once its points are resolved via SnapResolver, factored out for
// callers (SplitEngine's dovetail polyline) that already hold numeric
// points and have no SnapTo references to chase.
func LineFromCenterline(centerline []stackmodel.Point2D, thicknessMM float64, resolution int) CrossSection {
	if len(centerline) < 2 {
		return CrossSection{}
	}
	if resolution <= 0 {
		resolution = DefaultResolution
	}
	half := thicknessMM / 2
	left, right := offsetCenterline(centerline, half)

	capDivisions := resolution / 4
	if capDivisions < 2 {
		capDivisions = 2
	}
	startTangent := tangentAt(centerline, 0)
	endTangent := tangentAt(centerline, len(centerline)-1)
	startCap := semicircleCap(centerline[0], startTangent, half, capDivisions, true)
	endCap := semicircleCap(centerline[len(centerline)-1], endTangent, half, capDivisions, false)

	var outline []stackmodel.Point2D
	outline = append(outline, right...)
	outline = append(outline, endCap...)
	outline = append(outline, reversePoints(left)...)
	outline = append(outline, startCap...)

	return CrossSection{Paths: clipper.Paths64{ensureCCW(pathToUnits(outline))}}
}

// BuildFromFlatShape dispatches a flattened primitive to the matching
// ContourBuilder entry point. Circle, rect, line, polygon are the only
// primitives with 2D geometry — WireGuide/BoardOutline are
// never flattened, Text and SplitLine are handled by their own
// consumers).
func BuildFromFlatShape(fs flatten.FlatShape, lib stackmodel.FootprintLibrary, scope expr.Scope, resolution int) (CrossSection, error) {
	switch v := fs.Primitive.(type) {
	case *stackmodel.Circle:
		d, err := expr.Eval(v.Diameter, scope)
		if err != nil {
			return CrossSection{}, err
		}
		return Circle(d, resolution), nil

	case *stackmodel.Rect:
		w, err := expr.Eval(v.Width, scope)
		if err != nil {
			return CrossSection{}, err
		}
		h, err := expr.Eval(v.Height, scope)
		if err != nil {
			return CrossSection{}, err
		}
		cr, err := expr.Eval(v.CornerRadius, scope)
		if err != nil {
			return CrossSection{}, err
		}
		return Rect(w, h, cr, resolution), nil

	case *stackmodel.Polygon:
		return Polygon(v.Points, fs.ContextFootprint, lib, scope, resolution), nil

	case *stackmodel.Line:
		thickness, err := expr.Eval(v.Thickness, scope)
		if err != nil {
			return CrossSection{}, err
		}
		return Line(thickness, v.Points, fs.ContextFootprint, lib, scope, resolution), nil

	default:
		return CrossSection{}, fmt.Errorf("contour: %s has no 2D cross-section", fs.Primitive.Kind())
	}
}
