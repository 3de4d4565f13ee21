// Package snap implements SnapResolver: resolving a Point's explicit
// (x,y) or a snapTo id-path into an absolute 2D position plus optional
// handle vectors.
//
// Implemented as a small pure-function tree-walker: small structs,
// explicit recursion, no reflection.
package snap

import (
	"math"
	"strings"

	"github.com/piwi3910/stackfab/internal/expr"
	"github.com/piwi3910/stackfab/internal/stackmodel"
)

// Result is the resolved absolute position and, for snap targets that
// carry one, a handle pair rotated (but not translated) by the
// accumulated transform.
type Result struct {
	X, Y             float64
	HandleIn         *stackmodel.Vec2
	HandleOut        *stackmodel.Vec2
	Broken           bool // true if a snapTo path failed to resolve and the local fallback was used
}

// Resolve resolves p relative to startFootprint within lib, using scope
// to evaluate any local x/y/handle expressions.
func Resolve(p stackmodel.Point, startFootprint *stackmodel.Footprint, lib stackmodel.FootprintLibrary, scope expr.Scope) Result {
	if strings.TrimSpace(p.SnapTo) == "" {
		return localResult(p, scope)
	}

	steps := strings.Split(p.SnapTo, ":")
	pos, handle, ok := walkPath(startFootprint, lib, steps, stackmodel.Identity(), scope)
	if !ok {
		r := localResult(p, scope)
		r.Broken = true
		return r
	}
	return Result{X: pos.X, Y: pos.Y, HandleIn: handle, HandleOut: handle}
}

func localResult(p stackmodel.Point, scope expr.Scope) Result {
	x, _ := expr.Eval(p.X, scope)
	y, _ := expr.Eval(p.Y, scope)
	return Result{X: x, Y: y, HandleIn: p.HandleIn, HandleOut: p.HandleOut}
}

// walkPath walks id1:id2:...:idN from footprint, composing the
// accumulated rigid transform at every FootprintReference step and
// resolving the final step as a WireGuide. Any mismatch (missing shape,
// missing footprint, wrong kind at a non-final step) silently falls back
// (returns ok=false).
func walkPath(footprint *stackmodel.Footprint, lib stackmodel.FootprintLibrary, steps []string, acc stackmodel.Transform2D, scope expr.Scope) (stackmodel.Point2D, *stackmodel.Vec2, bool) {
	if footprint == nil || len(steps) == 0 {
		return stackmodel.Point2D{}, nil, false
	}

	id := steps[0]
	shape := findShape(footprint, id)
	if shape == nil {
		return stackmodel.Point2D{}, nil, false
	}

	last := len(steps) == 1
	if last {
		wg, ok := shape.(*stackmodel.WireGuide)
		if !ok {
			return stackmodel.Point2D{}, nil, false
		}
		x, _ := expr.Eval(wg.X, scope)
		y, _ := expr.Eval(wg.Y, scope)
		pos := applyTransform(acc, stackmodel.Point2D{X: x, Y: y})
		var handle *stackmodel.Vec2
		if wg.Handle != nil {
			rotated := rotateOnly(acc, *wg.Handle)
			handle = &rotated
		}
		return pos, handle, true
	}

	ref, ok := shape.(*stackmodel.FootprintReference)
	if !ok {
		return stackmodel.Point2D{}, nil, false
	}
	child, ok := lib[ref.FootprintID]
	if !ok {
		return stackmodel.Point2D{}, nil, false
	}
	x, _ := expr.Eval(ref.X, scope)
	y, _ := expr.Eval(ref.Y, scope)
	angle, _ := expr.Eval(ref.Angle, scope)
	childAcc := composeTransform(acc, stackmodel.Transform2D{TX: x, TY: y, Deg: angle})
	return walkPath(child, lib, steps[1:], childAcc, scope)
}

func findShape(f *stackmodel.Footprint, id string) stackmodel.Shape {
	for _, s := range f.Shapes {
		if s.ShapeID() == id {
			return s
		}
		if u, ok := s.(*stackmodel.Union); ok {
			if found := findShapeIn(u.Shapes, id); found != nil {
				return found
			}
		}
	}
	return nil
}

func findShapeIn(shapes []stackmodel.Shape, id string) stackmodel.Shape {
	for _, s := range shapes {
		if s.ShapeID() == id {
			return s
		}
		if u, ok := s.(*stackmodel.Union); ok {
			if found := findShapeIn(u.Shapes, id); found != nil {
				return found
			}
		}
	}
	return nil
}

// composeTransform composes a child transform onto an accumulated one:
// rotate the child's translation by the parent's rotation, then add the
// parent's translation; rotations add. This is standard 2D rigid-body
// composition, giving a bit-for-bit identical result regardless of
// traversal order.
func composeTransform(parent, child stackmodel.Transform2D) stackmodel.Transform2D {
	rotated := rotateOnly(parent, stackmodel.Point2D{X: child.TX, Y: child.TY})
	return stackmodel.Transform2D{
		TX:  parent.TX + rotated.X,
		TY:  parent.TY + rotated.Y,
		Deg: parent.Deg + child.Deg,
	}
}

func applyTransform(t stackmodel.Transform2D, p stackmodel.Point2D) stackmodel.Point2D {
	rotated := RotatePoint(p, t.Deg)
	return stackmodel.Point2D{X: rotated.X + t.TX, Y: rotated.Y + t.TY}
}

// rotateOnly rotates a vector by t's rotation without translating — used
// for handle vectors, which are directions, not positions.
func rotateOnly(t stackmodel.Transform2D, v stackmodel.Vec2) stackmodel.Vec2 {
	return RotatePoint(v, t.Deg)
}

// RotatePoint rotates p by deg degrees about the origin. Exported so
// internal/flatten can compose transforms with the exact same rigid-body
// rule SnapResolver uses, keeping the two components bit-for-bit
// consistent with each other.
func RotatePoint(p stackmodel.Point2D, deg float64) stackmodel.Point2D {
	if deg == 0 {
		return p
	}
	rad := deg * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)
	return stackmodel.Point2D{
		X: p.X*cos - p.Y*sin,
		Y: p.X*sin + p.Y*cos,
	}
}
