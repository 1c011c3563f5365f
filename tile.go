package tilemesh

import (
	"github.com/arl/gogeo/f32/d3"
	"github.com/arl/tilemesh/geom"
)

// Link is one directed edge of the polygon graph: either an internal
// neighbour within the same tile or a portal crossing into a
// neighbouring tile. Links belonging to a single polygon are threaded
// as a linked list (via Next) rooted at Poly.FirstLink; the nodes
// themselves live in NavMesh's shared link pool rather than a per-tile
// array, so tiles of wildly different polygon counts don't each pay for
// a worst-case-sized link table.
type Link struct {
	Ref  NodeRef // the neighbour this link reaches
	Next uint32  // next link in this polygon's list, or nullLink
	Edge uint8   // which edge of the owning polygon this link crosses
	Side uint8   // Side the link crosses, or SideInternal
	Bmin uint8   // quantized sub-edge portal range, minimum
	Bmax uint8   // quantized sub-edge portal range, maximum
}

// Tile is one static chunk of navmesh: a set of polygons sharing a
// vertex buffer, detail mesh, and bounding-volume tree, placed at one
// (x, z, layer) grid cell.
type Tile struct {
	// index is this tile's slot in NavMesh.tiles, kept in sync by
	// AddTile/RemoveTile so a *Tile can report its own NodeRef tile id
	// without the caller threading the index through every call.
	index int32

	// Salt is copied into every NodeRef of every polygon in this tile.
	// It is bumped each time the tile's pool slot is freed and reused,
	// invalidating any reference captured before the change. Kept within
	// the ref codec's salt field width (see nextSalt) so it always
	// compares equal to the masked salt NodeRef.UnpackPoly returns.
	Salt uint32

	// Sequence is a monotonically increasing counter assigned by
	// AddTile when this tile is installed, independent of which pool slot it
	// lands in or how many times that slot has been recycled. It never
	// repeats for the lifetime of the NavMesh and exists purely for
	// ordering/debugging (e.g. "which of two tiles at this slot is
	// newer"); NodeRef identity is carried by (slot index, Salt), not
	// by Sequence.
	Sequence uint64

	X, Y, Layer int32
	UserID      uint32

	Bmin, Bmax d3.Vec3

	WalkableHeight float32
	WalkableRadius float32
	WalkableClimb  float32

	// BvQuantFactor converts a world-space extent into the tile-local
	// quantized units BvTree's bounds are stored in.
	BvQuantFactor float32

	Verts []float32 // (x,y,z) per vertex

	Polys []Poly

	DetailMeshes []PolyDetail
	DetailVerts  []float32
	DetailTris   []uint8 // (vertA, vertB, vertC, edgeFlags) per detail triangle

	// BvTree is empty when the tile has too few polygons to be worth
	// indexing; callers fall back to a linear scan of Polys.
	BvTree []BvNode

	// OffMeshCons are this tile's off-mesh pseudo-polygons. Poly
	// indices OffMeshBase..len(Polys) correspond 1:1, in order, to
	// OffMeshCons.
	OffMeshCons []OffMeshConnection
	OffMeshBase int
}

// PolyVerts returns poly's vertex positions, reading through the tile's
// shared Verts buffer.
func (t *Tile) PolyVerts(p *Poly) []float32 {
	out := make([]float32, int(p.VertCount)*3)
	for i := 0; i < int(p.VertCount); i++ {
		v := t.Verts[int(p.Verts[i])*3 : int(p.Verts[i])*3+3]
		copy(out[i*3:i*3+3], v)
	}
	return out
}

// quantizePoint converts a world-space point into this tile's quantized
// BV-tree units, clamped to the tile bounds.
func (t *Tile) quantizePoint(p d3.Vec3) [3]uint16 {
	var q [3]uint16
	for i := 0; i < 3; i++ {
		v := (p[i] - t.Bmin[i]) * t.BvQuantFactor
		if v < 0 {
			v = 0
		}
		if v > 0xffff {
			v = 0xffff
		}
		q[i] = uint16(v)
	}
	return q
}

// QueryPolysInBounds appends to out the indices of every polygon in t
// whose AABB overlaps [qmin, qmax], using the BV tree when present and
// falling back to a linear scan otherwise.
func (t *Tile) QueryPolysInBounds(qmin, qmax d3.Vec3, out []int32) []int32 {
	if len(t.BvTree) == 0 {
		return t.queryPolysLinear(qmin, qmax, out)
	}

	bmin := t.quantizePoint(qmin)
	bmax := t.quantizePoint(qmax)

	node := 0
	end := len(t.BvTree)
	for node < end {
		n := &t.BvTree[node]
		isLeaf := n.I >= 0
		overlap := geom.OverlapQuantBounds(bmin, bmax, n.Bmin, n.Bmax)
		if isLeaf && overlap {
			out = append(out, n.I)
		}
		if overlap || isLeaf {
			node++
		} else {
			escape := -int(n.I)
			node += escape
		}
	}
	return out
}

func (t *Tile) queryPolysLinear(qmin, qmax d3.Vec3, out []int32) []int32 {
	for i := range t.Polys {
		if t.Polys[i].Type() != PolyTypeGround {
			continue
		}
		pmin, pmax := t.polyBounds(int32(i))
		if geom.OverlapBounds(qmin, qmax, pmin, pmax) {
			out = append(out, int32(i))
		}
	}
	return out
}

func (t *Tile) polyBounds(polyIdx int32) (pmin, pmax d3.Vec3) {
	p := &t.Polys[polyIdx]
	v := t.Verts[int(p.Verts[0])*3 : int(p.Verts[0])*3+3]
	pmin, pmax = d3.Vec3{v[0], v[1], v[2]}, d3.Vec3{v[0], v[1], v[2]}
	for i := 1; i < int(p.VertCount); i++ {
		v := t.Verts[int(p.Verts[i])*3 : int(p.Verts[i])*3+3]
		for k := 0; k < 3; k++ {
			if v[k] < pmin[k] {
				pmin[k] = v[k]
			}
			if v[k] > pmax[k] {
				pmax[k] = v[k]
			}
		}
	}
	return pmin, pmax
}
