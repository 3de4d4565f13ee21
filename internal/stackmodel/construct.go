package stackmodel

// Constructors for each Shape variant: a plain function taking the
// fields that matter for construction, zero-value everything else.

func NewCircle(id, x, y, diameter string) *Circle {
	return &Circle{base: base{ID: id}, X: x, Y: y, Diameter: diameter}
}

func NewRect(id, x, y, width, height string) *Rect {
	return &Rect{base: base{ID: id}, X: x, Y: y, Width: width, Height: height, Angle: "0", CornerRadius: "0"}
}

func NewPolygon(id, x, y string, points []Point) *Polygon {
	return &Polygon{base: base{ID: id}, X: x, Y: y, Points: points}
}

func NewLine(id, thickness string, points []Point) *Line {
	return &Line{base: base{ID: id}, Thickness: thickness, Points: points}
}

func NewWireGuide(id, x, y string) *WireGuide {
	return &WireGuide{base: base{ID: id}, X: x, Y: y}
}

func NewBoardOutline(id, x, y string, points []Point) *BoardOutline {
	return &BoardOutline{base: base{ID: id}, X: x, Y: y, Points: points}
}

func NewFootprintReference(id, x, y, angle, footprintID string) *FootprintReference {
	return &FootprintReference{base: base{ID: id}, X: x, Y: y, Angle: angle, FootprintID: footprintID}
}

func NewUnion(id, x, y string, shapes []Shape) *Union {
	return &Union{base: base{ID: id}, X: x, Y: y, Angle: "0", Shapes: shapes}
}

func NewSplitLine(id, x, y, endX, endY string) *SplitLine {
	return &SplitLine{base: base{ID: id}, X: x, Y: y, EndX: endX, EndY: endY}
}

func NewText(id, x, y, content string) *Text {
	return &Text{base: base{ID: id}, X: x, Y: y, Content: content}
}

// WithAssignment builds a one-entry assignment map, the common case for
// callers assigning a shape to a single layer.
func WithAssignment(layerID string, a LayerAssignment) map[string]LayerAssignment {
	return map[string]LayerAssignment{layerID: a}
}
