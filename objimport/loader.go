// Package objimport builds a tilemesh.BuildTileParams fixture from a
// polygon-soup OBJ file. There is no voxelizer in this module's scope,
// so every OBJ face becomes one navmesh polygon directly; a face with
// more vertices than tilemesh.VertsPerPoly is fan-triangulated first.
package objimport

import (
	"fmt"

	"github.com/arl/gobj"
	"github.com/arl/gogeo/f32"
	"github.com/arl/gogeo/f32/d3"
	"github.com/arl/tilemesh"
)

const nullIdx = 0xffff

// Options controls how an OBJ file is converted into build parameters.
type Options struct {
	TileX, TileY, Layer int32
	Scale               float32

	WalkableHeight float32
	WalkableRadius float32
	WalkableClimb  float32

	Flags uint16
	Area  uint8

	BuildBVTree bool
}

// DefaultOptions returns Options with a unit scale and every polygon
// walkable (Flags=1), suitable for quick fixtures and demos.
func DefaultOptions() Options {
	return Options{
		Scale:          1,
		WalkableHeight: 2,
		WalkableRadius: 0.5,
		WalkableClimb:  0.5,
		Flags:          1,
	}
}

// Load reads the OBJ file at path and converts it into a
// BuildTileParams ready for tilemesh.BuildTile.
func Load(path string, opts Options) (*tilemesh.BuildTileParams, error) {
	obj, err := gobj.Load(path)
	if err != nil {
		return nil, fmt.Errorf("objimport: %w", err)
	}

	b := newBuilder(opts.Scale)
	params := &tilemesh.BuildTileParams{
		X: opts.TileX, Y: opts.TileY, Layer: opts.Layer,
		WalkableHeight: opts.WalkableHeight,
		WalkableRadius: opts.WalkableRadius,
		WalkableClimb:  opts.WalkableClimb,
		BuildBVTree:    opts.BuildBVTree,
	}

	for _, poly := range obj.Polys() {
		if len(poly) < 3 {
			continue
		}
		idxs := make([]uint16, len(poly))
		for i, v := range poly {
			idxs[i] = b.vertIndex(v)
		}
		for _, face := range fanTriangulate(idxs) {
			var pv [tilemesh.VertsPerPoly]uint16
			for i := range pv {
				pv[i] = nullIdx
			}
			copy(pv[:], face)
			params.PolyVerts = append(params.PolyVerts, pv)
			params.PolyFlags = append(params.PolyFlags, opts.Flags)
			params.PolyAreas = append(params.PolyAreas, opts.Area)
		}
	}

	if b.count() >= nullIdx {
		return nil, fmt.Errorf("objimport: %s has too many distinct vertices (%d) for a single tile", path, b.count())
	}

	params.Verts = b.verts
	params.Bmin, params.Bmax = b.bounds()
	return params, nil
}

// fanTriangulate splits idxs into one polygon if it already fits within
// VertsPerPoly, or a vertex fan of triangles otherwise.
func fanTriangulate(idxs []uint16) [][]uint16 {
	if len(idxs) <= tilemesh.VertsPerPoly {
		return [][]uint16{idxs}
	}
	faces := make([][]uint16, 0, len(idxs)-2)
	for i := 2; i < len(idxs); i++ {
		faces = append(faces, []uint16{idxs[0], idxs[i-1], idxs[i]})
	}
	return faces
}

// builder deduplicates vertex positions into a single shared buffer, so
// OBJ faces that happen to share a corner end up sharing a polygon
// vertex index too, the way buildtile.go's adjacency pass expects.
type builder struct {
	index map[[3]float32]uint16
	verts []float32
	scale float32
}

func newBuilder(scale float32) *builder {
	if scale == 0 {
		scale = 1
	}
	return &builder{index: make(map[[3]float32]uint16), scale: scale}
}

func (b *builder) vertIndex(v gobj.Vertex) uint16 {
	p := [3]float32{
		float32(v.X()) * b.scale,
		float32(v.Y()) * b.scale,
		float32(v.Z()) * b.scale,
	}
	if idx, ok := b.index[p]; ok {
		return idx
	}
	idx := uint16(b.count())
	b.index[p] = idx
	b.verts = append(b.verts, p[0], p[1], p[2])
	return idx
}

func (b *builder) count() int { return len(b.verts) / 3 }

func (b *builder) bounds() (d3.Vec3, d3.Vec3) {
	if len(b.verts) == 0 {
		return d3.Vec3{}, d3.Vec3{}
	}
	min := d3.Vec3{b.verts[0], b.verts[1], b.verts[2]}
	max := d3.Vec3{b.verts[0], b.verts[1], b.verts[2]}
	for i := 3; i < len(b.verts); i += 3 {
		f32.SetMin(&min[0], b.verts[i])
		f32.SetMin(&min[1], b.verts[i+1])
		f32.SetMin(&min[2], b.verts[i+2])
		f32.SetMax(&max[0], b.verts[i])
		f32.SetMax(&max[1], b.verts[i+1])
		f32.SetMax(&max[2], b.verts[i+2])
	}
	return min, max
}
