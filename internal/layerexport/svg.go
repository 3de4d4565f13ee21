package layerexport

import (
	"os"

	"github.com/gosvg/gosvg"

	"github.com/piwi3910/stackfab/internal/stackmodel"
)

// SVGExporter writes a layer's board outline and shapes via
// github.com/gosvg/gosvg, rendering the outline and each shape as its own
// <path> nested in a <g> group, with an evenodd fill-rule so a shape that
// itself contains holes (via multiple subpaths) renders correctly —
// matching the cross-section winding convention internal/contour uses
// (outer boundaries CCW, holes CW).
type SVGExporter struct{}

const svgMarginMM = 10.0

// Export writes req as an SVG document sized to the outline's bounding
// box plus a fixed margin.
func (SVGExporter) Export(req Request) error {
	outlinePts := make([]stackmodel.Point2D, len(req.Outline))
	for i, p := range req.Outline {
		outlinePts[i] = stackmodel.Point2D{X: p.X, Y: p.Y}
	}

	minX, minY, maxX, maxY := bounds(outlinePts)
	width, height := maxX-minX+2*svgMarginMM, maxY-minY+2*svgMarginMM

	canvas := gosvg.NewSVG(width, height)
	canvas.ViewBox.Set(minX-svgMarginMM, minY-svgMarginMM, width, height)

	outlineGroup := canvas.Group()
	outlinePath := outlineGroup.Path()
	outlinePath.Style.Set("fill", "none")
	outlinePath.Style.Set("stroke", "black")
	outlinePath.Style.Set("stroke-width", "0.2")
	addClosedSubpath(outlinePath, outlinePts)

	shapesGroup := canvas.Group()
	for _, s := range req.Shapes {
		path := shapesGroup.Path()
		path.Style.Set("fill", "#3388cc")
		path.Style.Set("fill-rule", "evenodd")
		path.Style.Set("stroke", "#333333")
		path.Style.Set("stroke-width", "0.1")
		addClosedSubpath(path, shapePoints(s))
	}

	f, err := os.Create(req.FilePath)
	if err != nil {
		return err
	}
	defer f.Close()

	return canvas.Render(f)
}

// addClosedSubpath appends one closed M...L...Z subpath to path.
func addClosedSubpath(path *gosvg.Path, pts []stackmodel.Point2D) {
	if len(pts) < 2 {
		return
	}
	gosvgPts := make([]gosvg.Point, len(pts))
	for i, p := range pts {
		gosvgPts[i] = gosvg.Point{X: p.X, Y: p.Y}
	}
	path.Ma(gosvgPts[0]).La(gosvgPts[1:]...).Z()
}

func bounds(pts []stackmodel.Point2D) (minX, minY, maxX, maxY float64) {
	if len(pts) == 0 {
		return 0, 0, 0, 0
	}
	minX, minY, maxX, maxY = pts[0].X, pts[0].Y, pts[0].X, pts[0].Y
	for _, p := range pts[1:] {
		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}
	return minX, minY, maxX, maxY
}
