package layerexport

import (
	"math"

	"github.com/yofu/dxf"

	"github.com/piwi3910/stackfab/internal/stackmodel"
)

// DXFExporter writes a layer's board outline and shape set via
// github.com/yofu/dxf: every outline and shape polygon is drawn as a
// chain of LINE entities.
type DXFExporter struct{}

// Export writes req's outline and shapes as LINE entities on the
// drawing's default layer, one file per call; outline and shapes are
// not separated into layers.
func (DXFExporter) Export(req Request) error {
	drawing := dxf.NewDrawing()

	outlinePts := make([]stackmodel.Point2D, len(req.Outline))
	for i, p := range req.Outline {
		outlinePts[i] = stackmodel.Point2D{X: p.X, Y: p.Y}
	}
	drawClosedPolyline(drawing, outlinePts)

	for _, s := range req.Shapes {
		drawClosedPolyline(drawing, shapePoints(s))
	}

	return drawing.SaveAs(req.FilePath)
}

// drawClosedPolyline emits one LINE entity per edge of a closed polygon.
func drawClosedPolyline(drawing *dxf.Drawing, pts []stackmodel.Point2D) {
	n := len(pts)
	if n < 2 {
		return
	}
	for i := 0; i < n; i++ {
		a, b := pts[i], pts[(i+1)%n]
		drawing.Line(a.X, a.Y, 0, b.X, b.Y, 0)
	}
}

// shapePoints resolves a ShapeRecord's polygon points the DXF/SVG writers
// share: the explicit Points for polygon/line shapes, which
// BuildShapeRecords already stores in absolute coordinates, or a
// tessellated circle / rectangle for the others, built in the shape's
// own local frame and then translated and rotated to its X/Y/Angle.
func shapePoints(s ShapeRecord) []stackmodel.Point2D {
	switch s.ShapeKind {
	case ShapePolygon, ShapeLine:
		return s.Points
	case ShapeCircle:
		if s.Diameter == nil {
			return nil
		}
		return transformLocal(tessellateCircle(*s.Diameter/2, 64), s)
	case ShapeRect:
		if s.Width == nil || s.Height == nil {
			return nil
		}
		w, h := *s.Width/2, *s.Height/2
		return transformLocal([]stackmodel.Point2D{
			{X: -w, Y: -h}, {X: w, Y: -h}, {X: w, Y: h}, {X: -w, Y: h},
		}, s)
	default:
		return nil
	}
}

func tessellateCircle(radius float64, n int) []stackmodel.Point2D {
	pts := make([]stackmodel.Point2D, n)
	for i := 0; i < n; i++ {
		theta := 2 * math.Pi * float64(i) / float64(n)
		pts[i] = stackmodel.Point2D{X: radius * math.Cos(theta), Y: radius * math.Sin(theta)}
	}
	return pts
}

func transformLocal(pts []stackmodel.Point2D, s ShapeRecord) []stackmodel.Point2D {
	out := make([]stackmodel.Point2D, len(pts))
	rad := s.Angle * math.Pi / 180
	cosA, sinA := math.Cos(rad), math.Sin(rad)
	for i, p := range pts {
		out[i] = stackmodel.Point2D{
			X: s.X + p.X*cosA - p.Y*sinA,
			Y: s.Y + p.X*sinA + p.Y*cosA,
		}
	}
	return out
}
