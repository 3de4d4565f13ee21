package manifold

import (
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/piwi3910/stackfab/internal/stackmodel"
)

// meshSDF adapts a closed triangle mesh into the sdf.SDF3 interface so a
// robustly tiled tool body can sit in the same CSG expression tree as
// the analytic solids. Evaluate returns the distance to the nearest
// triangle, negated when the sample point is inside the mesh (parity of
// a +Z ray). Evaluation is linear in triangle count per sample; tool
// bodies are a few hundred triangles, well below where a spatial index
// would pay for itself.
type meshSDF struct {
	mesh Manifold
	bb   sdf.Box3
}

// MeshSDF wraps a watertight Manifold as an sdf.SDF3. The inside test
// relies on the mesh being closed; callers hand over only meshes that
// pass Watertight.
func MeshSDF(m Manifold) sdf.SDF3 {
	minV := v3.Vec{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	maxV := v3.Vec{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)}
	for _, p := range m.Vertices {
		minV.X = math.Min(minV.X, p.X)
		minV.Y = math.Min(minV.Y, p.Y)
		minV.Z = math.Min(minV.Z, p.Z)
		maxV.X = math.Max(maxV.X, p.X)
		maxV.Y = math.Max(maxV.Y, p.Y)
		maxV.Z = math.Max(maxV.Z, p.Z)
	}
	return &meshSDF{mesh: m, bb: sdf.Box3{Min: minV, Max: maxV}}
}

func (s *meshSDF) BoundingBox() sdf.Box3 { return s.bb }

func (s *meshSDF) Evaluate(p v3.Vec) float64 {
	q := stackmodel.Point3D{X: p.X, Y: p.Y, Z: p.Z}
	best := math.Inf(1)
	for _, t := range s.mesh.Triangles {
		a := s.mesh.Vertices[t[0]]
		b := s.mesh.Vertices[t[1]]
		c := s.mesh.Vertices[t[2]]
		if d := pointTriangleDistance(q, a, b, c); d < best {
			best = d
		}
	}
	if s.inside(q) {
		return -best
	}
	return best
}

// inside counts crossings of a +Z ray from q against every triangle; an
// odd count means q is enclosed. The ray starts a tiny, unequal XY step
// away from q so that a grid-aligned sample (such as a point on a
// diagonal edge shared by two triangles) is not counted twice; a ray
// that still grazes a shared edge yields one mis-signed sample, not a
// torn mesh.
func (s *meshSDF) inside(q stackmodel.Point3D) bool {
	q.X += 1.1e-9
	q.Y += 2.3e-9
	crossings := 0
	for _, t := range s.mesh.Triangles {
		a := s.mesh.Vertices[t[0]]
		b := s.mesh.Vertices[t[1]]
		c := s.mesh.Vertices[t[2]]
		d := (b.Y-c.Y)*(a.X-c.X) + (c.X-b.X)*(a.Y-c.Y)
		if d == 0 {
			continue // triangle is vertical in XY; the ray runs along it
		}
		l1 := ((b.Y-c.Y)*(q.X-c.X) + (c.X-b.X)*(q.Y-c.Y)) / d
		l2 := ((c.Y-a.Y)*(q.X-c.X) + (a.X-c.X)*(q.Y-c.Y)) / d
		l3 := 1 - l1 - l2
		if l1 < 0 || l2 < 0 || l3 < 0 {
			continue
		}
		if l1*a.Z+l2*b.Z+l3*c.Z > q.Z {
			crossings++
		}
	}
	return crossings%2 == 1
}

func sub3(a, b stackmodel.Point3D) stackmodel.Point3D {
	return stackmodel.Point3D{X: a.X - b.X, Y: a.Y - b.Y, Z: a.Z - b.Z}
}

func dot3(a, b stackmodel.Point3D) float64 { return a.X*b.X + a.Y*b.Y + a.Z*b.Z }

func scale3(a stackmodel.Point3D, s float64) stackmodel.Point3D {
	return stackmodel.Point3D{X: a.X * s, Y: a.Y * s, Z: a.Z * s}
}

func norm3(a stackmodel.Point3D) float64 { return math.Sqrt(dot3(a, a)) }

// pointTriangleDistance returns the distance from p to the closest point
// of triangle abc, walking the Voronoi regions of the triangle's
// vertices, edges, and face.
func pointTriangleDistance(p, a, b, c stackmodel.Point3D) float64 {
	ab := sub3(b, a)
	ac := sub3(c, a)
	ap := sub3(p, a)

	d1 := dot3(ab, ap)
	d2 := dot3(ac, ap)
	if d1 <= 0 && d2 <= 0 {
		return norm3(ap)
	}

	bp := sub3(p, b)
	d3 := dot3(ab, bp)
	d4 := dot3(ac, bp)
	if d3 >= 0 && d4 <= d3 {
		return norm3(bp)
	}

	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 && d1 != d3 {
		v := d1 / (d1 - d3)
		return norm3(sub3(ap, scale3(ab, v)))
	}

	cp := sub3(p, c)
	d5 := dot3(ab, cp)
	d6 := dot3(ac, cp)
	if d6 >= 0 && d5 <= d6 {
		return norm3(cp)
	}

	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 && d2 != d6 {
		w := d2 / (d2 - d6)
		return norm3(sub3(ap, scale3(ac, w)))
	}

	va := d3*d6 - d5*d4
	if va <= 0 && d4-d3 >= 0 && d5-d6 >= 0 && (d4-d3)+(d5-d6) != 0 {
		w := (d4 - d3) / ((d4 - d3) + (d5 - d6))
		return norm3(sub3(bp, scale3(sub3(c, b), w)))
	}

	denom := va + vb + vc
	if denom == 0 {
		return math.Min(norm3(ap), math.Min(norm3(bp), norm3(cp)))
	}
	v := vb / denom
	w := vc / denom
	closest := stackmodel.Point3D{
		X: a.X + ab.X*v + ac.X*w,
		Y: a.Y + ab.Y*v + ac.Y*w,
		Z: a.Z + ab.Z*v + ac.Z*w,
	}
	return norm3(sub3(p, closest))
}
