// This file isolates every call into github.com/deadsy/sdfx, the
// signed-distance-field CAD kernel. Keeping the kernel surface in one
// file means a future signature change touches only this adapter, the
// same isolation internal/contour/clipperadapter.go applies to Clipper2.
//
// Kernel surface used:
//
//	sdf.Box3D(v3.Vec{w, h, d}, round) (sdf.SDF3, error)
//	sdf.Extrude3D(sdf2, height) sdf.SDF3
//	sdf.Polygon2D(points []v2.Vec) sdf.SDF2
//	sdf.Union3D(...sdf.SDF3) sdf.SDF3
//	sdf.Difference3D(a, b sdf.SDF3) sdf.SDF3
//	sdf.Intersect3D(a, b sdf.SDF3) sdf.SDF3
//	sdf.Transform3D(s sdf.SDF3, m sdf.M44) sdf.SDF3
//	sdf.Translate3d(v3.Vec) sdf.M44
//	sdf.RotateX(radians) sdf.M44  (M44 composes via .Mul)
//	render.NewMarchingCubesOctree(cells int) render.RenderMesh
//	render.ToSTL(s sdf.SDF3, path string, mesh render.RenderMesh) error
package manifold

import (
	"fmt"
	"math"
	"os"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/piwi3910/stackfab/internal/contour"
	"github.com/piwi3910/stackfab/internal/stackmodel"
	"github.com/piwi3910/stackfab/internal/stlcodec"
)

// crossSectionToSDF2 builds an sdf.SDF2 from a CrossSection by unioning
// every CCW (outer) path's polygon and subtracting every CW (hole) path's
// polygon, matching the even-odd fill convention CrossSection uses.
func crossSectionToSDF2(cs contour.CrossSection) (sdf.SDF2, error) {
	outlines := cs.Outlines()
	if len(outlines) == 0 {
		return nil, fmt.Errorf("manifold: empty cross-section has no 2D geometry")
	}

	var outer, holes []sdf.SDF2
	for _, outline := range outlines {
		if len(outline) < 3 {
			continue
		}
		pts := make([]v2.Vec, len(outline))
		for i, p := range outline {
			pts[i] = v2.Vec{X: p.X, Y: p.Y}
		}
		poly := sdf.Polygon2D(pts)
		if signedAreaMM(outline) >= 0 {
			outer = append(outer, poly)
		} else {
			holes = append(holes, poly)
		}
	}
	if len(outer) == 0 {
		return nil, fmt.Errorf("manifold: cross-section has no outer boundary")
	}

	result := sdf.Union2D(outer...)
	if len(holes) > 0 {
		result = sdf.Difference2D(result, sdf.Union2D(holes...))
	}
	return result, nil
}

func signedAreaMM(pts []stackmodel.Point2D) float64 {
	var sum float64
	n := len(pts)
	for i := 0; i < n; i++ {
		a, b := pts[i], pts[(i+1)%n]
		sum += a.X*b.Y - b.X*a.Y
	}
	return sum
}

// Extrude turns a CrossSection into a solid of the given height,
// centered on z=0 (spanning [-height/2, height/2]), matching the
// boundary-mask alignment every extruded cut and the base solid share.
func Extrude(cs contour.CrossSection, height float64) (sdf.SDF3, error) {
	if height <= 0 {
		return nil, fmt.Errorf("manifold: extrude height must be positive, got %g", height)
	}
	sdf2, err := crossSectionToSDF2(cs)
	if err != nil {
		return nil, err
	}
	return sdf.Extrude3D(sdf2, height), nil
}

// Box builds an axis-aligned box solid centered at the origin.
func Box(w, h, d float64) (sdf.SDF3, error) {
	return sdf.Box3D(v3.Vec{X: w, Y: h, Z: d}, 0)
}

// TranslateZ shifts a solid along Z by dz.
func TranslateZ(s sdf.SDF3, dz float64) sdf.SDF3 {
	return sdf.Transform3D(s, sdf.Translate3d(v3.Vec{X: 0, Y: 0, Z: dz}))
}

// FlipAboutXAxis rotates a solid 180deg about the X axis, used to turn a
// top-entry tool-profile subtraction body into a bottom-entry one when a
// layer carves from its underside.
func FlipAboutXAxis(s sdf.SDF3) sdf.SDF3 {
	return sdf.Transform3D(s, sdf.RotateX(math.Pi))
}

// Union3D, Difference3D, Intersect3D thinly re-export the sdfx CSG
// operators so callers outside this file never import "github.com/
// deadsy/sdfx/sdf" directly, keeping the kernel surface isolated to this
// adapter.
func Union3D(parts ...sdf.SDF3) sdf.SDF3 { return sdf.Union3D(parts...) }

func Difference3D(a, b sdf.SDF3) sdf.SDF3 { return sdf.Difference3D(a, b) }

func Intersect3D(a, b sdf.SDF3) sdf.SDF3 { return sdf.Intersect3D(a, b) }

// Render realizes an sdf.SDF3 expression tree into a Manifold using
// sdfx's marching-cubes-octree mesher. sdfx's render.ToSTL writes
// directly to a path rather than returning an in-memory triangle
// buffer, so this adapter writes to a scratch temp file and immediately
// decodes it back with internal/stlcodec — one codec, two directions.
// The scratch file is process-local disk scratch removed before
// returning, the closest the path-only ToSTL API allows to a fully
// in-memory render; it is the one disk touch inside a layer
// computation.
func Render(s sdf.SDF3, resolutionCells int) (Manifold, error) {
	if resolutionCells <= 0 {
		resolutionCells = 200
	}
	f, err := os.CreateTemp("", "stackfab-layer-*.stl")
	if err != nil {
		return Manifold{}, fmt.Errorf("manifold: scratch file: %w", err)
	}
	path := f.Name()
	f.Close()
	defer os.Remove(path)

	if err := render.ToSTL(s, path, render.NewMarchingCubesOctree(resolutionCells)); err != nil {
		return Manifold{}, fmt.Errorf("manifold: render: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifold{}, fmt.Errorf("manifold: reading rendered mesh: %w", err)
	}
	tris, err := stlcodec.Decode(data)
	if err != nil {
		return Manifold{}, fmt.Errorf("manifold: decoding rendered mesh: %w", err)
	}
	return fromTriangleSoup(tris), nil
}

// fromTriangleSoup welds coincident vertices (to within a small epsilon)
// so the resulting Manifold can satisfy the watertight edge-sharing
// check; marching-cubes output is an unindexed triangle soup where
// adjacent facets reference geometrically (not index-) identical
// vertices.
func fromTriangleSoup(tris []stlcodec.Triangle) Manifold {
	const weldScale = 1e4 // 0.1 micron grid, one decade coarser than contour's 1e5 int64 scale
	type key struct{ x, y, z int64 }
	index := map[key]int{}
	var verts []stackmodel.Point3D

	vertexIndex := func(v stlcodec.Vec3) int {
		k := key{
			x: int64(math.Round(v.X * weldScale)),
			y: int64(math.Round(v.Y * weldScale)),
			z: int64(math.Round(v.Z * weldScale)),
		}
		if i, ok := index[k]; ok {
			return i
		}
		i := len(verts)
		verts = append(verts, stackmodel.Point3D{X: v.X, Y: v.Y, Z: v.Z})
		index[k] = i
		return i
	}

	m := Manifold{}
	for _, t := range tris {
		a := vertexIndex(t.V0)
		b := vertexIndex(t.V1)
		c := vertexIndex(t.V2)
		if a == b || b == c || a == c {
			continue // zero-area degenerate facet
		}
		m.Triangles = append(m.Triangles, Triangle{a, b, c})
	}
	m.Vertices = verts
	return m
}
