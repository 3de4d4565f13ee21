// Package contour implements ContourBuilder: converting a flattened
// primitive (circle, rounded rectangle, bezier/line, polygon) into a 2D
// CrossSection suitable for extrusion and boolean combination in
// internal/manifold.
//
// The boolean and offset primitives are a thin adapter over Clipper2
// (github.com/go-clipper/clipper2, package `clipper`): a
// scanline/Vatti-algorithm polygon clipper operating on
// 64-bit integer coordinates. Everything in this file is the narrow
// int64-units <-> mm boundary; the rest of the package works in float64
// mm.
package contour

import (
	"math"

	clipper "github.com/go-clipper/clipper2"
	"github.com/piwi3910/stackfab/internal/snap"
	"github.com/piwi3910/stackfab/internal/stackmodel"
)

// DefaultResolution is the circle n-gon / arc tessellation resolution R
// defaults to.
const DefaultResolution = 32

// scale converts millimeters to Clipper2's int64 coordinate units. 1e5
// gives 10 nm resolution, comfortably below anything a CNC toolpath
// cares about, while keeping board-scale (meter-range) coordinates well
// inside int64 range.
const scale = 1e5

func toUnits(mm float64) int64 { return int64(math.Round(mm * scale)) }

func toMM(u int64) float64 { return float64(u) / scale }

func pointToUnits(p stackmodel.Point2D) clipper.Point64 {
	return clipper.Point64{X: toUnits(p.X), Y: toUnits(p.Y)}
}

func pathToUnits(pts []stackmodel.Point2D) clipper.Path64 {
	out := make(clipper.Path64, len(pts))
	for i, p := range pts {
		out[i] = pointToUnits(p)
	}
	return out
}

func pathToMM(path clipper.Path64) []stackmodel.Point2D {
	out := make([]stackmodel.Point2D, len(path))
	for i, p := range path {
		out[i] = stackmodel.Point2D{X: toMM(p.X), Y: toMM(p.Y)}
	}
	return out
}

// signedArea computes the shoelace area in squared units (half the
// cross-product sum); sign gives winding direction (positive = CCW).
func signedArea(path clipper.Path64) float64 {
	n := len(path)
	if n < 3 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		a, b := path[i], path[(i+1)%n]
		sum += float64(a.X)*float64(b.Y) - float64(b.X)*float64(a.Y)
	}
	return sum / 2
}

func ensureCCW(path clipper.Path64) clipper.Path64 {
	if signedArea(path) < 0 {
		return reversePath(path)
	}
	return path
}

func reversePath(path clipper.Path64) clipper.Path64 {
	out := make(clipper.Path64, len(path))
	for i, p := range path {
		out[len(path)-1-i] = p
	}
	return out
}

func reversePoints(pts []stackmodel.Point2D) []stackmodel.Point2D {
	out := make([]stackmodel.Point2D, len(pts))
	for i, p := range pts {
		out[len(pts)-1-i] = p
	}
	return out
}

// CrossSection is a set of simple polygons under even-odd fill: outer
// boundaries CCW, holes CW, matching Manifold cross-section
// invariant.
type CrossSection struct {
	Paths clipper.Paths64
}

func (cs CrossSection) IsEmpty() bool { return len(cs.Paths) == 0 }

// Outlines returns the contained paths as mm-space point lists, outer
// boundaries first in insertion order, for callers (export, debugging)
// that don't need to touch Clipper2 types directly.
func (cs CrossSection) Outlines() [][]stackmodel.Point2D {
	out := make([][]stackmodel.Point2D, len(cs.Paths))
	for i, p := range cs.Paths {
		out[i] = pathToMM(p)
	}
	return out
}

// BBox is an axis-aligned bounding box in mm.
type BBox struct {
	MinX, MinY, MaxX, MaxY float64
}

func (b BBox) Width() float64  { return b.MaxX - b.MinX }
func (b BBox) Height() float64 { return b.MaxY - b.MinY }
func (b BBox) CenterX() float64 { return (b.MinX + b.MaxX) / 2 }
func (b BBox) CenterY() float64 { return (b.MinY + b.MaxY) / 2 }

// Contains reports whether p lies within b (inclusive).
func (b BBox) Contains(p stackmodel.Point2D) bool {
	return p.X >= b.MinX && p.X <= b.MaxX && p.Y >= b.MinY && p.Y <= b.MaxY
}

// Bounds returns the axis-aligned bounding box of every point in every
// path of cs. The zero value is returned for an empty CrossSection.
func (cs CrossSection) Bounds() BBox {
	var b BBox
	first := true
	for _, path := range cs.Paths {
		for _, p := range path {
			x, y := toMM(p.X), toMM(p.Y)
			if first {
				b = BBox{MinX: x, MinY: y, MaxX: x, MaxY: y}
				first = false
				continue
			}
			if x < b.MinX {
				b.MinX = x
			}
			if x > b.MaxX {
				b.MaxX = x
			}
			if y < b.MinY {
				b.MinY = y
			}
			if y > b.MaxY {
				b.MaxY = y
			}
		}
	}
	return b
}

// Area returns the total signed area of cs (outer loops positive, holes
// negative under the CCW-outer/CW-hole winding convention), in mm^2.
func (cs CrossSection) Area() float64 {
	var total float64
	for _, path := range cs.Paths {
		total += signedArea(path) / (scale * scale)
	}
	return total
}

// SignedArea computes twice the shoelace area of an mm-space polygon;
// positive means CCW (outer boundary), negative means CW (hole), matching
// the winding convention CrossSection.Paths always carries.
func SignedArea(path []stackmodel.Point2D) float64 {
	n := len(path)
	if n < 3 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		a, b := path[i], path[(i+1)%n]
		sum += a.X*b.Y - b.X*a.Y
	}
	return sum
}

// Transform rotates (about the origin, degrees) then translates every
// point of cs by t, converting a shape-local CrossSection (as Circle,
// Rect, Polygon and Line all build them, centered on the shape's own
// origin) into the footprint-global frame a FlatShape's AbsoluteX/
// AbsoluteY/AbsoluteRotationDeg describe.
func Transform(cs CrossSection, t stackmodel.Transform2D) CrossSection {
	if t.Deg == 0 && t.TX == 0 && t.TY == 0 {
		return cs
	}
	out := CrossSection{Paths: make(clipper.Paths64, len(cs.Paths))}
	for i, path := range cs.Paths {
		mm := pathToMM(path)
		transformed := make([]stackmodel.Point2D, len(mm))
		for j, p := range mm {
			rotated := snap.RotatePoint(p, t.Deg)
			transformed[j] = stackmodel.Point2D{X: rotated.X + t.TX, Y: rotated.Y + t.TY}
		}
		out.Paths[i] = pathToUnits(transformed)
	}
	return out
}

// FromOutlines builds a CrossSection directly from mm-space outer/hole
// polygon loops, for callers (BooleanEngine's island decomposition,
// ToolBuilder's level-set reconstruction) that need to reassemble a
// CrossSection after grouping paths themselves.
func FromOutlines(paths [][]stackmodel.Point2D) CrossSection {
	cs := CrossSection{}
	for _, p := range paths {
		cs.Paths = append(cs.Paths, pathToUnits(p))
	}
	return cs
}

// PointInPolygon reports whether p lies inside the closed polygon path
// (mm-space, ray casting), used by the BooleanEngine's island/hole
// containment grouping.
func PointInPolygon(path []stackmodel.Point2D, p stackmodel.Point2D) bool {
	inside := false
	n := len(path)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		pi, pj := path[i], path[j]
		if (pi.Y > p.Y) != (pj.Y > p.Y) &&
			p.X < (pj.X-pi.X)*(p.Y-pi.Y)/(pj.Y-pi.Y)+pi.X {
			inside = !inside
		}
	}
	return inside
}

func offset(paths clipper.Paths64, deltaMM float64, join clipper.JoinType) clipper.Paths64 {
	if len(paths) == 0 {
		return nil
	}
	opts := clipper.OffsetOptions{MiterLimit: 2.0, ArcTolerance: 0.25 * scale}
	return clipper.InflatePaths(paths, deltaMM*scale, join, clipper.ClosedPolygon, opts)
}

// Offset grows (positive delta) or shrinks (negative delta) a
// CrossSection by deltaMM using round joins — the Minkowski offset
// primitive behind rounded rect corners, the tool builder's level-set
// offsets, and the pocketer's concentric passes.
func Offset(cs CrossSection, deltaMM float64) CrossSection {
	return CrossSection{Paths: offset(cs.Paths, deltaMM, clipper.Round)}
}

func booleanOp(clipType clipper.ClipType, fillRule clipper.FillRule, subjects, clips clipper.Paths64) clipper.Paths64 {
	c := clipper.NewClipper64()
	c.AddSubject(subjects...)
	if len(clips) > 0 {
		c.AddClip(clips...)
	}
	result, err := c.Execute(clipType, fillRule)
	if err != nil {
		return nil
	}
	return result
}

// Union2D combines every path of every section into one CrossSection —
// used for BooleanEngine's union-of-member-cross-sections execution item
// grouping.
func Union2D(sections ...CrossSection) CrossSection {
	var subjects clipper.Paths64
	for _, s := range sections {
		subjects = append(subjects, s.Paths...)
	}
	if len(subjects) == 0 {
		return CrossSection{}
	}
	return CrossSection{Paths: booleanOp(clipper.Union, clipper.EvenOdd, subjects, nil)}
}

// Difference2D subtracts every clip section from subject.
func Difference2D(subject CrossSection, clips ...CrossSection) CrossSection {
	var clipPaths clipper.Paths64
	for _, c := range clips {
		clipPaths = append(clipPaths, c.Paths...)
	}
	if len(clipPaths) == 0 {
		return subject
	}
	return CrossSection{Paths: booleanOp(clipper.Difference, clipper.EvenOdd, subject.Paths, clipPaths)}
}

// Intersect2D intersects two CrossSections.
func Intersect2D(a, b CrossSection) CrossSection {
	return CrossSection{Paths: booleanOp(clipper.Intersection, clipper.EvenOdd, a.Paths, b.Paths)}
}
