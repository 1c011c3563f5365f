package tilemesh

import "github.com/arl/gogeo/f32/d3"

// Poly describes one polygon within a Tile: ground surface or off-mesh
// pseudo-polygon, whichever PolyType reports.
type Poly struct {
	// FirstLink indexes the first link in this polygon's linked list
	// within the shared link pool, or nullLink if it has none.
	FirstLink uint32

	// Verts are indices into the owning Tile's Verts buffer.
	Verts [VertsPerPoly]uint16

	// Neis packs, per edge, either 0 (solid wall), extLink|side (tile
	// boundary portal) or 1+neighbourPolyIndex (internal neighbour).
	Neis [VertsPerPoly]uint16

	// Flags is the user-defined traversal flags (tested by QueryFilter).
	Flags uint16

	VertCount uint8

	// areaAndType packs the user area id (low 6 bits) and PolyType
	// (high 2 bits).
	areaAndType uint8
}

// SetArea sets the user-defined area id (must be < MaxAreas).
func (p *Poly) SetArea(a uint8) {
	p.areaAndType = (p.areaAndType & 0xc0) | (a & 0x3f)
}

// SetType sets the polygon type.
func (p *Poly) SetType(t PolyType) {
	p.areaAndType = (p.areaAndType & 0x3f) | (uint8(t) << 6)
}

// Area returns the user-defined area id.
func (p *Poly) Area() uint8 { return p.areaAndType & 0x3f }

// Type returns the polygon type.
func (p *Poly) Type() PolyType { return PolyType(p.areaAndType >> 6) }

// PolyDetail locates one polygon's detail sub-mesh within the owning
// Tile's DetailVerts/DetailTris buffers.
type PolyDetail struct {
	VertBase  uint32
	TriBase   uint32
	VertCount uint8
	TriCount  uint8
}

// BvNode is one node of a tile's quantized bounding-volume tree, stored
// depth-first so a miss can skip its whole subtree via I.
type BvNode struct {
	Bmin [3]uint16
	Bmax [3]uint16

	// I is the node's poly index for a leaf, or the negative escape
	// offset (number of nodes to skip, negated) for an internal node
	// whose subtree missed.
	I int32
}

// OffMeshConnection is the tile-embedded endpoint data for an off-mesh
// link — the pseudo-polygon's actual geometry. The runtime registry
// that tracks attach/detach lifecycle independently of any tile lives
// in offmesh.go; this type only holds the per-tile polygon's payload.
type OffMeshConnection struct {
	// Start and end world-space positions of the connection.
	Start, End d3.Vec3

	// Rad is the radius within which an agent is considered to have
	// reached an endpoint.
	Rad float32

	// Poly is the index of this connection's pseudo-polygon within the
	// owning tile.
	Poly uint16

	// Direction controls whether the link may be traversed End->Start
	// as well as Start->End.
	Direction OffMeshDirection

	// UserID is an opaque caller-assigned identifier, used to look the
	// connection back up after AddOffMeshConnection.
	UserID uint32
}

// CalcPolyCenter returns the centroid of the convex polygon whose
// vertex indices are idx (nidx of them) into verts.
func CalcPolyCenter(idx []uint16, nidx int, verts []float32) d3.Vec3 {
	c := d3.NewVec3()
	for j := 0; j < nidx; j++ {
		start := int(idx[j]) * 3
		c[0] += verts[start]
		c[1] += verts[start+1]
		c[2] += verts[start+2]
	}
	return c.Scale(1 / float32(nidx))
}
