// Package manifold implements the Manifold type, the adapter over the
// deadsy/sdfx signed-distance-field kernel, and BooleanEngine: the
// per-layer driver that extrudes and composes each footprint's assigned
// shapes into a closed 3D solid.
package manifold

import (
	"github.com/piwi3910/stackfab/internal/stackmodel"
)

// Triangle is one facet as three indices into a Manifold's Vertices.
type Triangle [3]int

// Manifold is a closed, oriented triangle mesh, watertight
// mesh invariant: each triangle has non-zero area, and edges are shared
// by exactly two triangles after boolean operations.
//
// Generation and SourceShapeIDs are not semantically load-bearing; they
// exist only so internal/layerexport diagnostics and the progress stream
// can name which shapes contributed to a degenerate result, supplementing
// stackerr.ToolBuildFailure's "names the shape" requirement.
type Manifold struct {
	Vertices       []stackmodel.Point3D
	Triangles      []Triangle
	Generation     int
	SourceShapeIDs []string
}

// IsEmpty reports whether the manifold has no geometry at all — the
// condition BooleanEngine's GeometryDegenerate check and the stair-step
// ToolBuilder fallback both test for.
func (m Manifold) IsEmpty() bool {
	return len(m.Vertices) == 0 || len(m.Triangles) == 0
}

// Volume computes the signed volume enclosed by the mesh via the
// divergence theorem: sum over triangles of v0 . (v1 x v2) / 6. Positive
// for an outward-facing (CCW, viewed from outside) manifold: per-triangle
// normals face outward when signed volume is positive.
func (m Manifold) Volume() float64 {
	var sum float64
	for _, t := range m.Triangles {
		a, b, c := m.Vertices[t[0]], m.Vertices[t[1]], m.Vertices[t[2]]
		sum += a.X*(b.Y*c.Z-b.Z*c.Y) - a.Y*(b.X*c.Z-b.Z*c.X) + a.Z*(b.X*c.Y-b.Y*c.X)
	}
	return sum / 6
}

// edgeKey is an unordered pair of vertex indices.
type edgeKey struct{ a, b int }

func makeEdgeKey(i, j int) edgeKey {
	if i < j {
		return edgeKey{i, j}
	}
	return edgeKey{j, i}
}

// Watertight reports whether every edge of the mesh is shared by exactly
// two triangles, the manifold-closure property. An empty mesh is
// vacuously not watertight (there is nothing to close).
func (m Manifold) Watertight() bool {
	if m.IsEmpty() {
		return false
	}
	counts := make(map[edgeKey]int, len(m.Triangles)*3)
	for _, t := range m.Triangles {
		counts[makeEdgeKey(t[0], t[1])]++
		counts[makeEdgeKey(t[1], t[2])]++
		counts[makeEdgeKey(t[2], t[0])]++
	}
	for _, c := range counts {
		if c != 2 {
			return false
		}
	}
	return true
}

// BoundsCheck reports whether every vertex lies within tolerance of the
// given axis-aligned XY bounding box (Z unconstrained) — the clipping
// invariant: no vertex may lie strictly outside the boundary mask by
// more than 1e-4 mm.
func (m Manifold) BoundsCheck(minX, minY, maxX, maxY, tolerance float64) bool {
	for _, v := range m.Vertices {
		if v.X < minX-tolerance || v.X > maxX+tolerance || v.Y < minY-tolerance || v.Y > maxY+tolerance {
			return false
		}
	}
	return true
}
