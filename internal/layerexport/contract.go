// Package layerexport implements the LayerExporter contract: turning
// one computed layer into an external file format — DXF, SVG, STL, and
// GCode output plus a per-layer summary report.
package layerexport

import "github.com/piwi3910/stackfab/internal/stackmodel"

// FileType selects the output format of an Export call.
type FileType string

const (
	FileSVG   FileType = "SVG"
	FileDXF   FileType = "DXF"
	FileSTL   FileType = "STL"
	FileGCode FileType = "GCODE"
)

// MachiningType mirrors stackmodel.LayerType across the export boundary;
// kept as its own string enum because the contract is an external
// interface independent of the in-process data model.
type MachiningType string

const (
	MachiningCut    MachiningType = "Cut"
	MachiningCarved MachiningType = "Carved"
)

// CutDirection mirrors stackmodel.CarveSide across the export boundary.
type CutDirection string

const (
	CutTop    CutDirection = "Top"
	CutBottom CutDirection = "Bottom"
)

// ShapeKind names the shape_type field of an exported shape record.
type ShapeKind string

const (
	ShapeCircle  ShapeKind = "circle"
	ShapeRect    ShapeKind = "rect"
	ShapePolygon ShapeKind = "polygon"
	ShapeLine    ShapeKind = "line"
)

// OutlinePoint is one vertex of the board outline, with optional Bezier
// handles. The DXF and SVG writers read only X/Y and draw straight edges
// between consecutive points; the handles are not rendered.
type OutlinePoint struct {
	X, Y               float64
	HandleIn, HandleOut *stackmodel.Point2D
}

// ShapeRecord is one exported shape, carrying whichever of its optional
// fields its ShapeKind uses, a shape_type-tagged union.
type ShapeRecord struct {
	ShapeKind ShapeKind
	X, Y      float64
	Angle     float64
	Depth     float64
	Width     *float64
	Height    *float64
	Diameter  *float64
	Thickness *float64
	Points    []stackmodel.Point2D
}

// Request is the engine-to-exporter payload, pinned byte-for-byte for
// STL and field-for-field for DXF/SVG.
type Request struct {
	FilePath       string
	FileType       FileType
	MachiningType  MachiningType
	CutDirection   CutDirection
	Outline        []OutlinePoint
	Shapes         []ShapeRecord
	LayerThickness float64
	STLContent     []byte // binary STL, populated only when FileType == FileSTL
}

// Exporter writes one Request to disk, returning a non-nil error if the
// file could not be produced.
type Exporter interface {
	Export(req Request) error
}
