// Package stackmodel defines the symbolic, user-edited data model:
// parameters, stackup layers, shapes, footprints, and the root Library
// aggregate the rest of the engine consumes.
package stackmodel

// Point2D is a 2D coordinate in millimetres.
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Point3D is a 3D coordinate in millimetres, used by Manifold vertices.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Vec2 is a displacement vector in millimetres, used for Bezier handles
// and snap-target tangents.
type Vec2 = Point2D

// Add returns the sum of two points/vectors.
func (p Point2D) Add(o Point2D) Point2D { return Point2D{p.X + o.X, p.Y + o.Y} }

// Sub returns p - o.
func (p Point2D) Sub(o Point2D) Point2D { return Point2D{p.X - o.X, p.Y - o.Y} }

// Scale returns p scaled by s.
func (p Point2D) Scale(s float64) Point2D { return Point2D{p.X * s, p.Y * s} }

// Transform2D is a rigid-body transform: rotate then translate, the
// composition rule used throughout SnapResolver and Flattener.
type Transform2D struct {
	TX, TY float64 // translation, mm
	Deg    float64 // rotation, degrees, applied before translation
}

// Identity returns the no-op transform.
func Identity() Transform2D { return Transform2D{} }

// Unit is a parameter expression's declared unit.
type Unit string

const (
	UnitMM Unit = "mm"
	UnitIn Unit = "in"
)

// MMPerInch is the reduction factor mandates for unit
// suffix literals and Parameter.Unit normalization.
const MMPerInch = 25.4
