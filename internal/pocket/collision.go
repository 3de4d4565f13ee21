package pocket

import (
	"fmt"
	"math"
)

// ClampZone is a rectangular fixture/clamp footprint on the stock, in the
// same XY frame as the generated toolpath.
type ClampZone struct {
	Label                  string
	X, Y, Width, Height    float64
}

// DustShoeCollision reports a toolpath position where the dust shoe
// (modeled as a circle of DustShoeWidth/2 centered on the tool) comes
// within clearance of a clamp zone.
type DustShoeCollision struct {
	ClampLabel  string
	X, Y        float64
	Distance    float64
	DuringCut   bool
}

// CheckDustShoeCollisions scans every move in path and reports, per
// clamp zone, the closest approach that violates clearance. At most one
// collision per zone, so a long pass skimming a clamp does not flood the
// warning list.
func CheckDustShoeCollisions(path []Move, zones []ClampZone, dustShoeWidth, clearance float64) []DustShoeCollision {
	if dustShoeWidth <= 0 || len(zones) == 0 {
		return nil
	}
	dustShoeRadius := dustShoeWidth / 2
	effectiveRadius := dustShoeRadius + clearance

	type best struct {
		collision DustShoeCollision
		dist      float64
		found     bool
	}
	closest := make(map[string]*best)

	for _, m := range path {
		for _, z := range zones {
			d := distanceToZone(m.X, m.Y, z)
			if d >= effectiveRadius {
				continue
			}
			b, ok := closest[z.Label]
			if !ok {
				b = &best{}
				closest[z.Label] = b
			}
			if !b.found || d < b.dist {
				b.found = true
				b.dist = d
				b.collision = DustShoeCollision{
					ClampLabel: z.Label,
					X:          m.X,
					Y:          m.Y,
					Distance:   d - dustShoeRadius,
					DuringCut:  !m.Rapid,
				}
			}
		}
	}

	var out []DustShoeCollision
	for _, z := range zones {
		if b, ok := closest[z.Label]; ok {
			out = append(out, b.collision)
		}
	}
	return out
}

func distanceToZone(x, y float64, z ClampZone) float64 {
	nearestX := math.Max(z.X, math.Min(x, z.X+z.Width))
	nearestY := math.Max(z.Y, math.Min(y, z.Y+z.Height))
	dx, dy := x-nearestX, y-nearestY
	return math.Sqrt(dx*dx + dy*dy)
}

// FormatCollisionWarnings produces human-readable warning messages from
// collision data.
func FormatCollisionWarnings(collisions []DustShoeCollision) []string {
	var warnings []string
	for _, c := range collisions {
		moveType := "cutting"
		if !c.DuringCut {
			moveType = "rapid"
		}
		warnings = append(warnings, fmt.Sprintf(
			"Clamp %q may collide with the dust shoe while %s at (%.1f, %.1f) — clearance %.2fmm",
			c.ClampLabel, moveType, c.X, c.Y, c.Distance,
		))
	}
	return warnings
}
