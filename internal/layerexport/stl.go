package layerexport

import (
	"math"
	"os"

	"github.com/piwi3910/stackfab/internal/manifold"
	"github.com/piwi3910/stackfab/internal/stackmodel"
	"github.com/piwi3910/stackfab/internal/stlcodec"
)

// STLExporter writes a Manifold as binary STL using internal/stlcodec's
// fixed byte layout directly, rather than sdfx/render's own writer, so
// the emitted file round-trips bit-for-bit through the same codec.
type STLExporter struct{}

// Export writes a pre-encoded STL payload arriving over the external
// contract (req.STLContent), satisfying the Exporter interface.
func (STLExporter) Export(req Request) error {
	return os.WriteFile(req.FilePath, req.STLContent, 0o644)
}

// ExportMesh encodes mesh's triangles as binary STL and writes them to
// path, building the Request the way a real composition root would
// before handing it to Export.
func (e STLExporter) ExportMesh(path string, mesh manifold.Manifold) error {
	triangles := make([]stlcodec.Triangle, len(mesh.Triangles))
	for i, t := range mesh.Triangles {
		v0, v1, v2 := mesh.Vertices[t[0]], mesh.Vertices[t[1]], mesh.Vertices[t[2]]
		triangles[i] = stlcodec.Triangle{
			Normal: toVec3(faceNormal(v0, v1, v2)),
			V0:     toVec3(v0),
			V1:     toVec3(v1),
			V2:     toVec3(v2),
		}
	}
	return e.Export(Request{FilePath: path, FileType: FileSTL, STLContent: stlcodec.Encode(triangles)})
}

func toVec3(p stackmodel.Point3D) stlcodec.Vec3 {
	return stlcodec.Vec3{X: p.X, Y: p.Y, Z: p.Z}
}

// faceNormal computes the unit normal of a triangle via the cross
// product of two edges, degenerating to the zero vector for a
// zero-area facet (matching stlcodec's "attribute=0, normal left to the
// caller" contract rather than inventing a direction for junk input).
func faceNormal(a, b, c stackmodel.Point3D) stackmodel.Point3D {
	ux, uy, uz := b.X-a.X, b.Y-a.Y, b.Z-a.Z
	vx, vy, vz := c.X-a.X, c.Y-a.Y, c.Z-a.Z
	nx := uy*vz - uz*vy
	ny := uz*vx - ux*vz
	nz := ux*vy - uy*vx
	length := math.Sqrt(nx*nx + ny*ny + nz*nz)
	if length < 1e-12 {
		return stackmodel.Point3D{}
	}
	return stackmodel.Point3D{X: nx / length, Y: ny / length, Z: nz / length}
}
