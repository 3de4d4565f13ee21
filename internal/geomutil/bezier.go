// Package geomutil holds small 2D math helpers shared by internal/flatten
// (tie-down arclength placement) and internal/contour (Bezier sampling of
// Line/Polygon handles), so both components discretize curves identically
// rather than drifting apart.
package geomutil

import (
	"math"

	"github.com/piwi3910/stackfab/internal/expr"
	"github.com/piwi3910/stackfab/internal/stackmodel"
)

// CubicBezier evaluates a cubic Bezier at parameter t in [0,1] via
// De Casteljau's algorithm.
func CubicBezier(p0, p1, p2, p3 stackmodel.Point2D, t float64) stackmodel.Point2D {
	a := lerp(p0, p1, t)
	b := lerp(p1, p2, t)
	c := lerp(p2, p3, t)
	ab := lerp(a, b, t)
	bc := lerp(b, c, t)
	return lerp(ab, bc, t)
}

func lerp(a, b stackmodel.Point2D, t float64) stackmodel.Point2D {
	return stackmodel.Point2D{X: a.X + (b.X-a.X)*t, Y: a.Y + (b.Y-a.Y)*t}
}

// SampleSegment discretizes one segment between two Points into
// `divisions` sub-points (inclusive of the start, exclusive of the end).
// When neither point carries a handle the segment is a straight line;
// otherwise it is treated as a cubic Bezier using handleOut of the start
// point and handleIn of the end point (falling back to the endpoint
// itself when a handle is absent, the conventional "no curvature" case).
func SampleSegment(start, end stackmodel.Point, scope expr.Scope, divisions int) []stackmodel.Point2D {
	p0 := evalPoint(start, scope)
	p3 := evalPoint(end, scope)

	if start.HandleOut == nil && end.HandleIn == nil {
		return []stackmodel.Point2D{p0}
	}

	p1 := p0
	if start.HandleOut != nil {
		p1 = p0.Add(*start.HandleOut)
	}
	p2 := p3
	if end.HandleIn != nil {
		p2 = p3.Add(*end.HandleIn)
	}

	if divisions < 1 {
		divisions = 1
	}
	pts := make([]stackmodel.Point2D, 0, divisions)
	for i := 0; i < divisions; i++ {
		t := float64(i) / float64(divisions)
		pts = append(pts, CubicBezier(p0, p1, p2, p3, t))
	}
	return pts
}

func evalPoint(p stackmodel.Point, scope expr.Scope) stackmodel.Point2D {
	x, _ := expr.Eval(p.X, scope)
	y, _ := expr.Eval(p.Y, scope)
	return stackmodel.Point2D{X: x, Y: y}
}

// SamplePolyline discretizes an open or closed point list (with optional
// Bezier handles) into a dense polyline, divisions-per-segment scaled by
// resolution the same way ContourBuilder scales arc tessellation.
func SamplePolyline(points []stackmodel.Point, scope expr.Scope, divisionsPerSegment int) []stackmodel.Point2D {
	if len(points) == 0 {
		return nil
	}
	var out []stackmodel.Point2D
	for i := 0; i < len(points)-1; i++ {
		out = append(out, SampleSegment(points[i], points[i+1], scope, divisionsPerSegment)...)
	}
	out = append(out, evalPoint(points[len(points)-1], scope))
	return out
}

// PointAtArcLength walks a sampled polyline and returns the point and
// tangent angle (degrees) at the given arclength from the start. Returns
// ok=false if distance exceeds the polyline's total length; callers
// silently ignore such tie-downs.
func PointAtArcLength(samples []stackmodel.Point2D, distance float64) (stackmodel.Point2D, float64, bool) {
	if len(samples) < 2 || distance < 0 {
		return stackmodel.Point2D{}, 0, false
	}
	remaining := distance
	for i := 0; i < len(samples)-1; i++ {
		a, b := samples[i], samples[i+1]
		segLen := math.Hypot(b.X-a.X, b.Y-a.Y)
		if segLen == 0 {
			continue
		}
		if remaining <= segLen {
			t := remaining / segLen
			pos := lerp(a, b, t)
			tangent := math.Atan2(b.Y-a.Y, b.X-a.X) * 180 / math.Pi
			return pos, tangent, true
		}
		remaining -= segLen
	}
	return stackmodel.Point2D{}, 0, false
}
