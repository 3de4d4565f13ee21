package contour

import (
	"math"
	"sort"

	"github.com/piwi3910/stackfab/internal/expr"
	"github.com/piwi3910/stackfab/internal/stackmodel"
)

// DovetailCenterline evaluates a SplitLine's endpoints and dovetail
// positions into an absolute-mm centerline with one trapezoidal
// excursion per DovetailPositions entry: base points at the tooth's
// start/end fraction along the line, then tip points offset
// perpendicular by DovetailHeight, on the opposite side when Flip is
// set.
func DovetailCenterline(sl *stackmodel.SplitLine, scope expr.Scope) []stackmodel.Point2D {
	x0, err := expr.Eval(sl.X, scope)
	if err != nil {
		return nil
	}
	y0, err := expr.Eval(sl.Y, scope)
	if err != nil {
		return nil
	}
	x1, err := expr.Eval(sl.EndX, scope)
	if err != nil {
		return nil
	}
	y1, err := expr.Eval(sl.EndY, scope)
	if err != nil {
		return nil
	}

	dx, dy := x1-x0, y1-y0
	length := math.Hypot(dx, dy)
	if length == 0 {
		return []stackmodel.Point2D{{X: x0, Y: y0}, {X: x1, Y: y1}}
	}

	width, err := expr.Eval(sl.DovetailWidth, scope)
	if err != nil || width <= 0 || len(sl.DovetailPositions) == 0 {
		return []stackmodel.Point2D{{X: x0, Y: y0}, {X: x1, Y: y1}}
	}
	height, err := expr.Eval(sl.DovetailHeight, scope)
	if err != nil {
		height = 0
	}

	ux, uy := dx/length, dy/length // unit tangent
	nx, ny := -uy, ux              // unit normal
	if sl.Flip {
		nx, ny = -nx, -ny
	}

	var fractions []float64
	for _, expression := range sl.DovetailPositions {
		f, err := expr.Eval(expression, scope)
		if err != nil {
			continue
		}
		if f < 0 {
			f = 0
		}
		if f > 1 {
			f = 1
		}
		fractions = append(fractions, f)
	}
	sort.Float64s(fractions)

	at := func(s float64) stackmodel.Point2D {
		return stackmodel.Point2D{X: x0 + ux*s, Y: y0 + uy*s}
	}

	points := []stackmodel.Point2D{{X: x0, Y: y0}}
	for _, f := range fractions {
		center := f * length
		lo, hi := center-width/2, center+width/2
		if lo < 0 {
			lo = 0
		}
		if hi > length {
			hi = length
		}
		baseIn := at(lo)
		baseOut := at(hi)
		tipIn := stackmodel.Point2D{X: baseIn.X + nx*height, Y: baseIn.Y + ny*height}
		tipOut := stackmodel.Point2D{X: baseOut.X + nx*height, Y: baseOut.Y + ny*height}
		points = append(points, baseIn, tipIn, tipOut, baseOut)
	}
	points = append(points, stackmodel.Point2D{X: x1, Y: y1})
	return points
}

// KerfCrossSection builds the groove a SplitLine cuts: its dovetailed
// centerline extruded to kerfWidth using the same rounded-cap
// construction ordinary Line primitives use.
func KerfCrossSection(sl *stackmodel.SplitLine, scope expr.Scope, kerfWidth float64, resolution int) CrossSection {
	centerline := DovetailCenterline(sl, scope)
	if len(centerline) < 2 {
		return CrossSection{}
	}
	return LineFromCenterline(centerline, kerfWidth, resolution)
}
