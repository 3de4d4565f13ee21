package toolbuilder

import (
	"math"

	"github.com/piwi3910/stackfab/internal/contour"
	"github.com/piwi3910/stackfab/internal/stackmodel"
)

// areaWeight is the triangle-area term's coefficient in the robust
// tiler's cost function, AREA_WEIGHT.
const areaWeight = 4.0

// seamWindow bounds how many rotational offsets of B the cyclic seam
// search tries once |B| grows past three windows: a 20-offset window
// around the geometric nearest point instead of every rotation.
const seamWindow = 20

const inf = math.MaxFloat64 / 4

// bridgeTriangle is one triangle of a tile between two rings, each
// vertex tagged with which ring it came from and its index within that
// ring, so the caller can weld it into a shared mesh.
type bridgeTriangle struct {
	v [3]ringVertex
}

type ringVertex struct {
	inA bool
	idx int
}

func sqDist(p, q stackmodel.Point2D) float64 {
	dx, dy := p.X-q.X, p.Y-q.Y
	return dx*dx + dy*dy
}

func triArea(p, q, r stackmodel.Point2D) float64 {
	return math.Abs((q.X-p.X)*(r.Y-p.Y)-(r.X-p.X)*(q.Y-p.Y)) / 2
}

// tileRings bridges two closed polygon rings (A at one Z level, B at an
// adjacent level) with a triangle strip, robust tiler: an
// O(|A|*|B|) dynamic program walking a monotone sequence of triangles
// alternating between edges of A and B, a cyclic seam search over B's
// rotation, and a strict/permissive boundary filter.
//
// The DP walks extended rings with the seam vertex appended once more at
// the end (a[m] = a[0], b[n] = b[0]). State dp[i][j] is the minimum cost
// of a strip covering a[0..i-1] and b[0..j-1] whose open frontier edge is
// (a[i-1], b[j-1]); dp[1][1] = 0 is the seam itself, before any triangle
// has been cut. dp[m+1][n+1] is then the fully closed tube: the frontier
// has walked all the way around and landed back on the seam edge.
//
// holes are the hole loops of the level's own cross-section (used by the
// strict filter to reject triangles whose centroid falls inside one, so
// a wall cannot cut through an island's own interior feature).
//
// Returns false if even the permissive pass cannot find a finite-cost
// path (e.g. a degenerate single-point ring), signalling the caller to
// fall back to the stair-step approximation.
func tileRings(a, b []stackmodel.Point2D, holes [][]stackmodel.Point2D) ([]bridgeTriangle, bool) {
	if len(a) < 3 || len(b) < 3 {
		return nil, false
	}
	if offset, ok := chooseSeam(a, b, holes, true); ok {
		if tris, ok := bridgeAtOffset(a, b, holes, true, offset); ok {
			return tris, true
		}
	}
	if offset, ok := chooseSeam(a, b, holes, false); ok {
		if tris, ok := bridgeAtOffset(a, b, holes, false, offset); ok {
			return tris, true
		}
	}
	return nil, false
}

// chooseSeam finds the rotational offset of B minimizing total DP cost
// plus the squared seam-edge distance between A[0] and the rotated B[0].
func chooseSeam(a, b []stackmodel.Point2D, holes [][]stackmodel.Point2D, strict bool) (int, bool) {
	n := len(b)
	var offsets []int
	if n > seamWindow*3 {
		nearest := nearestIndex(a[0], b)
		for d := -seamWindow; d <= seamWindow; d++ {
			offsets = append(offsets, ((nearest+d)%n+n)%n)
		}
	} else {
		for k := 0; k < n; k++ {
			offsets = append(offsets, k)
		}
	}

	best, bestCost, found := -1, math.Inf(1), false
	for _, k := range offsets {
		rotated := rotate(b, k)
		cost, ok := closureCost(a, rotated, holes, strict)
		if !ok {
			continue
		}
		total := cost + sqDist(a[0], rotated[0])
		if total < bestCost {
			bestCost, best, found = total, k, true
		}
	}
	return best, found
}

// extendRing appends the ring's first vertex so the DP frontier can walk
// back onto the seam edge and close the tube.
func extendRing(ring []stackmodel.Point2D) []stackmodel.Point2D {
	out := make([]stackmodel.Point2D, 0, len(ring)+1)
	out = append(out, ring...)
	return append(out, ring[0])
}

func nearestIndex(p stackmodel.Point2D, ring []stackmodel.Point2D) int {
	best, bestD := 0, math.Inf(1)
	for i, q := range ring {
		if d := sqDist(p, q); d < bestD {
			bestD, best = d, i
		}
	}
	return best
}

func rotate(ring []stackmodel.Point2D, k int) []stackmodel.Point2D {
	n := len(ring)
	out := make([]stackmodel.Point2D, n)
	for i := 0; i < n; i++ {
		out[i] = ring[(i+k)%n]
	}
	return out
}

// closureCost fills the cost table described in tileRings's doc comment
// over the seam-extended rings and returns the closed tube's total cost.
// ok is false if the closing cell is unreachable (strict mode rejected
// every path to it).
func closureCost(a, b []stackmodel.Point2D, holes [][]stackmodel.Point2D, strict bool) (float64, bool) {
	a, b = extendRing(a), extendRing(b)
	m, n := len(a), len(b)
	dp := make([][]float64, m+1)
	for i := range dp {
		dp[i] = make([]float64, n+1)
		for j := range dp[i] {
			dp[i][j] = inf
		}
	}
	dp[1][1] = 0
	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			if i == 1 && j == 1 {
				continue
			}
			cur := inf
			if i > 1 {
				p, q, r := a[i-2], a[i-1], b[j-1]
				if dp[i-1][j] < inf && (!strict || triangleValid(p, q, r, holes)) {
					if c := dp[i-1][j] + sqDist(q, r) + areaWeight*triArea(p, q, r); c < cur {
						cur = c
					}
				}
			}
			if j > 1 {
				p, q, r := a[i-1], b[j-2], b[j-1]
				if dp[i][j-1] < inf && (!strict || triangleValid(p, q, r, holes)) {
					if c := dp[i][j-1] + sqDist(p, r) + areaWeight*triArea(p, q, r); c < cur {
						cur = c
					}
				}
			}
			dp[i][j] = cur
		}
	}
	return dp[m][n], dp[m][n] < inf
}

// bridgeAtOffset replays closureCost's recurrence at the chosen B rotation,
// this time recording which transition won at each cell so the actual
// triangle sequence can be walked back from (m,n) to the seam.
func bridgeAtOffset(a, b []stackmodel.Point2D, holes [][]stackmodel.Point2D, strict bool, offset int) ([]bridgeTriangle, bool) {
	if offset < 0 {
		return nil, false
	}
	ax := extendRing(a)
	bx := extendRing(rotate(b, offset))
	m, n := len(ax), len(bx)
	dp := make([][]float64, m+1)
	choice := make([][]byte, m+1)
	for i := range dp {
		dp[i] = make([]float64, n+1)
		choice[i] = make([]byte, n+1)
		for j := range dp[i] {
			dp[i][j] = inf
		}
	}
	dp[1][1] = 0
	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			if i == 1 && j == 1 {
				continue
			}
			cur := inf
			var pick byte
			if i > 1 {
				p, q, r := ax[i-2], ax[i-1], bx[j-1]
				if dp[i-1][j] < inf && (!strict || triangleValid(p, q, r, holes)) {
					if c := dp[i-1][j] + sqDist(q, r) + areaWeight*triArea(p, q, r); c < cur {
						cur, pick = c, 'A'
					}
				}
			}
			if j > 1 {
				p, q, r := ax[i-1], bx[j-2], bx[j-1]
				if dp[i][j-1] < inf && (!strict || triangleValid(p, q, r, holes)) {
					if c := dp[i][j-1] + sqDist(p, r) + areaWeight*triArea(p, q, r); c < cur {
						cur, pick = c, 'B'
					}
				}
			}
			dp[i][j] = cur
			choice[i][j] = pick
		}
	}
	if dp[m][n] >= inf {
		return nil, false
	}

	// Extended-ring index i maps back to the original ring as i % len;
	// for B the rotation offset is folded back in so the caller's ring
	// indices line up with the unrotated input.
	aIdx := func(i int) int { return i % len(a) }
	bIdx := func(j int) int { return (j + offset) % len(b) }

	var tris []bridgeTriangle
	i, j := m, n
	for i > 1 || j > 1 {
		switch choice[i][j] {
		case 'A':
			tris = append(tris, bridgeTriangle{v: [3]ringVertex{
				{true, aIdx(i - 2)}, {true, aIdx(i - 1)}, {false, bIdx(j - 1)},
			}})
			i--
		case 'B':
			tris = append(tris, bridgeTriangle{v: [3]ringVertex{
				{true, aIdx(i - 1)}, {false, bIdx(j - 2)}, {false, bIdx(j - 1)},
			}})
			j--
		default:
			return nil, false
		}
	}
	return tris, true
}

func triangleValid(p, q, r stackmodel.Point2D, holes [][]stackmodel.Point2D) bool {
	mid := stackmodel.Point2D{X: (p.X + q.X + r.X) / 3, Y: (p.Y + q.Y + r.Y) / 3}
	for _, h := range holes {
		if contour.PointInPolygon(h, mid) {
			return false
		}
	}
	return true
}
