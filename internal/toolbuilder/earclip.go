package toolbuilder

import "github.com/piwi3910/stackfab/internal/stackmodel"

// triIdx is a triangle expressed as indices into the polygon slice
// earClip was called with.
type triIdx [3]int

// earClip triangulates a simple CCW polygon by repeatedly clipping
// convex "ears" — a vertex whose triangle with its two neighbors
// contains no other polygon vertex. Holes are not handled here; mergeHole
// below splices a hole ring into the outer ring first so earClip only
// ever sees a simple polygon.
func earClip(poly []stackmodel.Point2D) []triIdx {
	n := len(poly)
	if n < 3 {
		return nil
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}

	var tris []triIdx
	guard := 0
	for len(idx) > 3 && guard < n*n+10 {
		guard++
		clipped := false
		for i := 0; i < len(idx); i++ {
			prev := idx[(i-1+len(idx))%len(idx)]
			cur := idx[i]
			next := idx[(i+1)%len(idx)]
			if !isConvex(poly[prev], poly[cur], poly[next]) {
				continue
			}
			if anyPointInside(poly, idx, prev, cur, next) {
				continue
			}
			tris = append(tris, triIdx{prev, cur, next})
			idx = append(idx[:i], idx[i+1:]...)
			clipped = true
			break
		}
		if !clipped {
			break // degenerate/self-intersecting input; stop with what we have
		}
	}
	if len(idx) == 3 {
		tris = append(tris, triIdx{idx[0], idx[1], idx[2]})
	}
	return tris
}

func isConvex(a, b, c stackmodel.Point2D) bool {
	cross := (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
	return cross > 0
}

func pointInTriangle(p, a, b, c stackmodel.Point2D) bool {
	d1 := sign(p, a, b)
	d2 := sign(p, b, c)
	d3 := sign(p, c, a)
	hasNeg := d1 < 0 || d2 < 0 || d3 < 0
	hasPos := d1 > 0 || d2 > 0 || d3 > 0
	return !(hasNeg && hasPos)
}

func sign(p, a, b stackmodel.Point2D) float64 {
	return (p.X-b.X)*(a.Y-b.Y) - (a.X-b.X)*(p.Y-b.Y)
}

func anyPointInside(poly []stackmodel.Point2D, idx []int, prev, cur, next int) bool {
	for _, k := range idx {
		if k == prev || k == cur || k == next {
			continue
		}
		if pointInTriangle(poly[k], poly[prev], poly[cur], poly[next]) {
			return true
		}
	}
	return false
}

// mergeHole splices hole into outer via a bridge edge between the
// closest pair of vertices, the standard technique for reducing a
// polygon-with-one-hole into a single simple polygon earClip can
// consume. Holes arrive wound CW (CrossSection's convention), which is
// already the reverse orientation the bridge needs, so the splice walks
// the hole in stored order and the bridged result stays CCW.
func mergeHole(outer, hole []stackmodel.Point2D) []stackmodel.Point2D {
	bestI, bestJ, bestD := 0, 0, -1.0
	for i, op := range outer {
		for j, hp := range hole {
			dx, dy := op.X-hp.X, op.Y-hp.Y
			d := dx*dx + dy*dy
			if bestD < 0 || d < bestD {
				bestD, bestI, bestJ = d, i, j
			}
		}
	}
	out := make([]stackmodel.Point2D, 0, len(outer)+len(hole)+2)
	out = append(out, outer[:bestI+1]...)
	n := len(hole)
	for k := 0; k <= n; k++ {
		out = append(out, hole[(bestJ+k)%n])
	}
	out = append(out, outer[bestI:]...)
	return out
}

// capPolygon merges every hole of an island into its outer ring and
// ear-clips the result, returning the merged point list (tris index into
// it) in CCW ("top cap") orientation; callers flip winding for a bottom
// cap.
func capPolygon(outer []stackmodel.Point2D, holes [][]stackmodel.Point2D) ([]stackmodel.Point2D, []triIdx) {
	merged := append([]stackmodel.Point2D{}, outer...)
	for _, h := range holes {
		merged = mergeHole(merged, h)
	}
	return merged, earClip(merged)
}
