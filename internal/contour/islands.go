package contour

import "github.com/piwi3910/stackfab/internal/stackmodel"

// Islands splits a CrossSection into disjoint connected components, so
// the boolean engine can process each independently and the tool builder
// can group regions for parent/child matching between level sets.
//
// Rather than a full polygon nesting forest, every CCW (outer) path
// seeds its own island, and every
// CW (hole) path is assigned to the smallest-bbox outer path that
// contains it. This matches every cross-section ContourBuilder actually
// produces — holes never span two disjoint outers — without a general
// point-in-polygon forest over arbitrarily nested geometry.
func Islands(cs CrossSection) []CrossSection {
	outlines := cs.Outlines()
	type candidate struct {
		path   []stackmodel.Point2D
		bounds BBox
	}
	var outers, holes []candidate
	for _, path := range outlines {
		if len(path) < 3 {
			continue
		}
		c := candidate{path: path, bounds: boundsOf(path)}
		if SignedArea(path) >= 0 {
			outers = append(outers, c)
		} else {
			holes = append(holes, c)
		}
	}
	if len(outers) == 0 {
		return nil
	}

	islandPaths := make([][][]stackmodel.Point2D, len(outers))
	for i, o := range outers {
		islandPaths[i] = [][]stackmodel.Point2D{o.path}
	}

	for _, h := range holes {
		best := -1
		var bestArea float64
		for i, o := range outers {
			if !o.bounds.Contains(h.path[0]) {
				continue
			}
			if !PointInPolygon(o.path, h.path[0]) {
				continue
			}
			area := o.bounds.Width() * o.bounds.Height()
			if best == -1 || area < bestArea {
				best = i
				bestArea = area
			}
		}
		if best == -1 {
			// An unenclosed hole loop has no outer to belong to; drop
			// it rather than inventing a host. Malformed input degrades
			// silently, never panics.
			continue
		}
		islandPaths[best] = append(islandPaths[best], h.path)
	}

	islands := make([]CrossSection, len(islandPaths))
	for i, paths := range islandPaths {
		islands[i] = FromOutlines(paths)
	}
	return islands
}

func boundsOf(path []stackmodel.Point2D) BBox {
	b := BBox{MinX: path[0].X, MinY: path[0].Y, MaxX: path[0].X, MaxY: path[0].Y}
	for _, p := range path[1:] {
		if p.X < b.MinX {
			b.MinX = p.X
		}
		if p.X > b.MaxX {
			b.MaxX = p.X
		}
		if p.Y < b.MinY {
			b.MinY = p.Y
		}
		if p.Y > b.MaxY {
			b.MaxY = p.Y
		}
	}
	return b
}
