// Package stlcodec implements the binary STL byte layout: an 80-byte
// header, a little-endian uint32 triangle count, then 50 bytes per
// triangle (a 12-byte float32 normal, three 12-byte float32 vertices,
// and a trailing 2-byte attribute field written as zero).
//
// This is deliberately independent of the sdfx kernel's own STL writer:
// internal/manifold uses it to read back a mesh rendered by
// github.com/deadsy/sdfx's render.ToSTL, and internal/layerexport uses it
// to write the exporter contract's byte-identical STL, so both directions
// of the round-trip ("Round-trip STL") go through the same
// decoder/encoder pair.
package stlcodec

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Vec3 is a 3D point or direction in millimetres.
type Vec3 struct {
	X, Y, Z float64
}

// Triangle is one facet: an outward-facing normal and three vertices,
// matching the binary STL record.
type Triangle struct {
	Normal     Vec3
	V0, V1, V2 Vec3
}

const (
	headerSize    = 80
	recordSize    = 50
	countFieldPos = 80
)

// Encode writes triangles as binary STL, header and attribute bytes
// left zero.
func Encode(triangles []Triangle) []byte {
	buf := make([]byte, headerSize+4+len(triangles)*recordSize)
	binary.LittleEndian.PutUint32(buf[countFieldPos:], uint32(len(triangles)))
	off := headerSize + 4
	for _, t := range triangles {
		putVec3(buf[off:], t.Normal)
		putVec3(buf[off+12:], t.V0)
		putVec3(buf[off+24:], t.V1)
		putVec3(buf[off+36:], t.V2)
		// attribute byte count left as 0
		off += recordSize
	}
	return buf
}

func putVec3(b []byte, v Vec3) {
	binary.LittleEndian.PutUint32(b[0:4], math.Float32bits(float32(v.X)))
	binary.LittleEndian.PutUint32(b[4:8], math.Float32bits(float32(v.Y)))
	binary.LittleEndian.PutUint32(b[8:12], math.Float32bits(float32(v.Z)))
}

func readVec3(b []byte) Vec3 {
	x := math.Float32frombits(binary.LittleEndian.Uint32(b[0:4]))
	y := math.Float32frombits(binary.LittleEndian.Uint32(b[4:8]))
	z := math.Float32frombits(binary.LittleEndian.Uint32(b[8:12]))
	return Vec3{X: float64(x), Y: float64(y), Z: float64(z)}
}

// Decode parses binary STL bytes into triangles.
func Decode(data []byte) ([]Triangle, error) {
	if len(data) < headerSize+4 {
		return nil, fmt.Errorf("stlcodec: file too short for a binary STL header (%d bytes)", len(data))
	}
	count := binary.LittleEndian.Uint32(data[countFieldPos : countFieldPos+4])
	want := headerSize + 4 + int(count)*recordSize
	if len(data) < want {
		return nil, fmt.Errorf("stlcodec: truncated STL: header claims %d triangles, have %d bytes, want %d", count, len(data), want)
	}
	out := make([]Triangle, count)
	off := headerSize + 4
	for i := range out {
		out[i] = Triangle{
			Normal: readVec3(data[off:]),
			V0:     readVec3(data[off+12:]),
			V1:     readVec3(data[off+24:]),
			V2:     readVec3(data[off+36:]),
		}
		off += recordSize
	}
	return out, nil
}

// DecodeReader parses binary STL from a stream, for callers reading the
// sdfx kernel's rendered file directly rather than from an in-memory
// byte slice.
func DecodeReader(r io.Reader) ([]Triangle, error) {
	data, err := io.ReadAll(bufio.NewReader(r))
	if err != nil {
		return nil, err
	}
	return Decode(data)
}
