package stackmodel

// ShapeKind discriminates the Shape interface's concrete implementations.
type ShapeKind string

const (
	KindCircle             ShapeKind = "circle"
	KindRect               ShapeKind = "rect"
	KindPolygon            ShapeKind = "polygon"
	KindLine               ShapeKind = "line"
	KindWireGuide          ShapeKind = "wire_guide"
	KindBoardOutline       ShapeKind = "board_outline"
	KindFootprintReference ShapeKind = "footprint_reference"
	KindUnion              ShapeKind = "union"
	KindSplitLine          ShapeKind = "split_line"
	KindText               ShapeKind = "text"
)

// Shape is the common interface every footprint entry implements.
type Shape interface {
	Kind() ShapeKind
	ShapeID() string
	ShapeName() string
	IsLocked() bool
	Assignments() map[string]LayerAssignment
}

// base is embedded by every concrete Shape to carry the fields common to
// all variants.
type base struct {
	ID             string                     `json:"id"`
	Name           string                     `json:"name"`
	Locked         bool                       `json:"locked,omitempty"`
	AssignedLayers map[string]LayerAssignment `json:"assigned_layers,omitempty"`
}

func (b base) ShapeID() string                            { return b.ID }
func (b base) ShapeName() string                           { return b.Name }
func (b base) IsLocked() bool                               { return b.Locked }
func (b base) Assignments() map[string]LayerAssignment       { return b.AssignedLayers }

// SetAssignments replaces AssignedLayers in place, used by the union-as-
// override pass (Flattener) and by project-file backward-compat
// defaulting (internal/kernelio) to seed a non-nil empty map on shapes
// loaded from an older project file.
func (b *base) SetAssignments(m map[string]LayerAssignment) { b.AssignedLayers = m }

// Point is a vertex reference: either an explicit (x,y) pair given as
// expressions, or a snap-to reference that overrides them.
type Point struct {
	ID        string `json:"id"`
	X         string `json:"x"`
	Y         string `json:"y"`
	HandleIn  *Vec2  `json:"handle_in,omitempty"`
	HandleOut *Vec2  `json:"handle_out,omitempty"`
	SnapTo    string `json:"snap_to,omitempty"` // id-path "id1:id2:...:idN"
}

// Circle is a filled disc of the given diameter.
type Circle struct {
	base
	X        string `json:"x"`
	Y        string `json:"y"`
	Diameter string `json:"diameter"`
}

func (Circle) Kind() ShapeKind { return KindCircle }

// Rect is an axis-local rectangle with an optional corner radius and
// rotation.
type Rect struct {
	base
	X            string `json:"x"`
	Y            string `json:"y"`
	Width        string `json:"width"`
	Height       string `json:"height"`
	Angle        string `json:"angle"`
	CornerRadius string `json:"corner_radius"`
}

func (Rect) Kind() ShapeKind { return KindRect }

// Polygon is an explicit closed point list.
type Polygon struct {
	base
	X      string  `json:"x"`
	Y      string  `json:"y"`
	Points []Point `json:"points"`
}

func (Polygon) Kind() ShapeKind { return KindPolygon }

// TieDown attaches a child footprint to a point along a Line's curve.
type TieDown struct {
	FootprintID string `json:"footprint_id"`
	Distance    string `json:"distance"` // arclength, expression
	Angle       string `json:"angle"` // additional rotation, expression
}

// Line is an open polyline with rounded caps, optionally carrying
// tie-down attachment points.
type Line struct {
	base
	Thickness string    `json:"thickness"`
	Points    []Point   `json:"points"`
	TieDowns  []TieDown `json:"tie_downs,omitempty"`
}

func (Line) Kind() ShapeKind { return KindLine }

// WireGuide has no geometry; it exists only as a SnapResolver target.
type WireGuide struct {
	base
	X      string `json:"x"`
	Y      string `json:"y"`
	Handle *Vec2  `json:"handle,omitempty"`
}

func (WireGuide) Kind() ShapeKind { return KindWireGuide }

// BoardOutline is the closed outline used as the base extrusion for a
// footprint with IsBoard set.
type BoardOutline struct {
	base
	X      string  `json:"x"`
	Y      string  `json:"y"`
	Points []Point `json:"points"`
}

func (BoardOutline) Kind() ShapeKind { return KindBoardOutline }

// FootprintReference instantiates a child footprint with a transform.
type FootprintReference struct {
	base
	X           string `json:"x"`
	Y           string `json:"y"`
	Angle       string `json:"angle"`
	FootprintID string `json:"footprint_id"`
}

func (FootprintReference) Kind() ShapeKind { return KindFootprintReference }

// Union groups child shapes under one id tag; if AssignedLayers is set it
// overrides every descendant's own assignment map (union-as-override).
type Union struct {
	base
	X      string  `json:"x"`
	Y      string  `json:"y"`
	Angle  string  `json:"angle"`
	Shapes []Shape `json:"shapes"`
}

func (Union) Kind() ShapeKind { return KindUnion }

// SplitLine marks a dovetailed kerf line used to decompose a finished
// layer manifold into separate fabrication pieces.
type SplitLine struct {
	base
	X                 string   `json:"x"`
	Y                 string   `json:"y"`
	EndX              string   `json:"end_x"`
	EndY              string   `json:"end_y"`
	DovetailPositions []string `json:"dovetail_positions"` // fractional, expressions
	DovetailWidth     string   `json:"dovetail_width"`
	DovetailHeight    string   `json:"dovetail_height"`
	Flip              bool     `json:"flip"`
}

func (SplitLine) Kind() ShapeKind { return KindSplitLine }

// Text renders only; it contributes nothing to the geometry core and the
// Flattener drops it like WireGuide/BoardOutline would be dropped from
// boolean input, but it still appears in FlatShape for layout rendering.
type Text struct {
	base
	X        string `json:"x"`
	Y        string `json:"y"`
	Angle    string `json:"angle"`
	Content  string `json:"text"`
	FontSize string `json:"font_size"`
	Anchor   string `json:"anchor"`
}

func (Text) Kind() ShapeKind { return KindText }

// Footprint is a named, parametric collection of shapes, optionally
// referenced recursively by FootprintReference.
type Footprint struct {
	ID                      string            `json:"id"`
	Name                    string            `json:"name"`
	IsBoard                 bool              `json:"is_board"`
	Shapes                  []Shape           `json:"shapes"` // ordered; later = on top
	BoardOutlineAssignments map[string]string `json:"board_outline_assignments"` // layerID -> shapeID
}

// FirstBoardOutline returns the id of the first BoardOutline shape in
// shape-list order, used as the fallback base extrusion target when
// BoardOutlineAssignments has no entry for a layer.
func (f *Footprint) FirstBoardOutline() (string, bool) {
	for _, s := range f.Shapes {
		if bo, ok := s.(*BoardOutline); ok {
			return bo.ID, true
		}
	}
	return "", false
}

// BoardOutlineFor resolves which BoardOutline shape id serves as the
// base extrusion for a given stackup layer, falling back to the first
// BoardOutline when the layer has no explicit assignment.
func (f *Footprint) BoardOutlineFor(layerID string) (string, bool) {
	if id, ok := f.BoardOutlineAssignments[layerID]; ok && id != "" {
		return id, true
	}
	return f.FirstBoardOutline()
}

// FootprintLibrary resolves footprint ids to footprints; SnapResolver
// and Flattener are handed one to resolve FootprintReference targets.
type FootprintLibrary map[string]*Footprint

// FootprintInstance places a footprint at the layout level.
type FootprintInstance struct {
	ID          string  `json:"id"`
	FootprintID string  `json:"footprint_id"`
	Name        string  `json:"name"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Angle       float64 `json:"angle"`
}
