// Package split implements the decomposition half of SplitEngine:
// splitting a finished layer manifold (already kerf-cut by BooleanEngine
// using internal/contour's dovetail construction) into its disjoint
// connected components and ranking them by volume.
package split

import (
	"math"
	"sort"

	"github.com/piwi3910/stackfab/internal/manifold"
)

// Decompose splits a manifold into its disjoint connected components by
// shared-vertex adjacency (two triangles belong to the same component if
// they share a vertex index). Run after BooleanEngine has already
// subtracted the kerf groove, so the components are genuinely separate
// solids. Results are ordered largest-volume first; callers select by
// volume rank.
func Decompose(m manifold.Manifold) []manifold.Manifold {
	n := len(m.Vertices)
	if n == 0 {
		return nil
	}
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[ra] = rb
		}
	}
	for _, t := range m.Triangles {
		union(t[0], t[1])
		union(t[1], t[2])
	}

	groups := map[int][]int{} // root -> triangle indices
	for i, t := range m.Triangles {
		root := find(t[0])
		groups[root] = append(groups[root], i)
	}

	roots := make([]int, 0, len(groups))
	for r := range groups {
		roots = append(roots, r)
	}
	sort.Ints(roots)

	parts := make([]manifold.Manifold, 0, len(roots))
	for _, r := range roots {
		part := manifold.Manifold{Generation: m.Generation, SourceShapeIDs: m.SourceShapeIDs}
		remap := map[int]int{}
		vertexIndex := func(i int) int {
			if j, ok := remap[i]; ok {
				return j
			}
			j := len(part.Vertices)
			part.Vertices = append(part.Vertices, m.Vertices[i])
			remap[i] = j
			return j
		}
		for _, ti := range groups[r] {
			t := m.Triangles[ti]
			part.Triangles = append(part.Triangles, manifold.Triangle{
				vertexIndex(t[0]), vertexIndex(t[1]), vertexIndex(t[2]),
			})
		}
		parts = append(parts, part)
	}

	sort.Slice(parts, func(i, j int) bool {
		return math.Abs(parts[i].Volume()) > math.Abs(parts[j].Volume())
	})
	return parts
}
