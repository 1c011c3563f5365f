package tilemesh

import (
	"sort"

	"github.com/arl/gogeo/f32/d3"
	"github.com/arl/math32"
)

// BuildTileParams is the raw polygon-soup input to BuildTile: a shared
// vertex buffer and a set of (up to VertsPerPoly)-gon polygons, plus the
// tile's placement and walkable parameters. It plays the role the
// recast polygon-mesh + detail-mesh pair plays for the original build
// pipeline, simplified to what this runtime accepts directly rather
// than voxelizing input geometry itself (voxelization is out of scope;
// see objimport for one way to produce a BuildTileParams from a
// triangle mesh).
type BuildTileParams struct {
	X, Y, Layer int32
	UserID      uint32

	Bmin, Bmax d3.Vec3

	WalkableHeight float32
	WalkableRadius float32
	WalkableClimb  float32

	// Verts is the tile-local vertex buffer, (x,y,z) per vertex.
	Verts []float32

	// PolyVerts holds, for each polygon, up to VertsPerPoly vertex
	// indices into Verts; unused trailing slots are nullMeshIdx.
	PolyVerts [][VertsPerPoly]uint16
	PolyFlags []uint16
	PolyAreas []uint8

	// DetailMeshes/DetailVerts/DetailTris mirror Tile's fields; nil is
	// acceptable, in which case height queries use the polygon's own
	// vertices (a triangle fan from its first vertex).
	DetailMeshes []PolyDetail
	DetailVerts  []float32
	DetailTris   []uint8

	OffMeshCons []OffMeshConnection

	// BuildBVTree controls whether a bounding-volume tree is built for
	// the tile; skip it for tiles too small to benefit (the query
	// engine falls back to a linear scan when empty).
	BuildBVTree bool
}

const nullMeshIdx = 0xffff

// BuildTile derives a runtime Tile from params: polygon adjacency
// (Neis), the quantized bounding-volume tree, and bookkeeping fields.
// It does not install the tile into any NavMesh — pass the result to
// NavMesh.AddTile.
func BuildTile(params *BuildTileParams) (Tile, Status) {
	if len(params.PolyVerts) == 0 {
		return Tile{}, Failure | InvalidParam
	}

	t := Tile{
		X:              params.X,
		Y:              params.Y,
		Layer:          params.Layer,
		UserID:         params.UserID,
		Bmin:           params.Bmin,
		Bmax:           params.Bmax,
		WalkableHeight: params.WalkableHeight,
		WalkableRadius: params.WalkableRadius,
		WalkableClimb:  params.WalkableClimb,
		Verts:          params.Verts,
		DetailMeshes:   params.DetailMeshes,
		DetailVerts:    params.DetailVerts,
		DetailTris:     params.DetailTris,
	}

	t.Polys = make([]Poly, len(params.PolyVerts))
	for i, pv := range params.PolyVerts {
		p := &t.Polys[i]
		p.Verts = pv
		p.VertCount = vertCountOf(pv)
		if len(params.PolyFlags) > i {
			p.Flags = params.PolyFlags[i]
		}
		if len(params.PolyAreas) > i {
			p.SetArea(params.PolyAreas[i])
		}
		p.SetType(PolyTypeGround)
	}

	buildAdjacency(&t, params)

	t.OffMeshBase = len(t.Polys)
	for _, con := range params.OffMeshCons {
		idx := len(t.Polys)
		poly := Poly{VertCount: 2}
		poly.SetType(PolyTypeOffMesh)
		v0 := appendVert(&t, con.Start)
		v1 := appendVert(&t, con.End)
		poly.Verts[0], poly.Verts[1] = v0, v1
		t.Polys = append(t.Polys, poly)
		con.Poly = uint16(idx)
		t.OffMeshCons = append(t.OffMeshCons, con)
	}

	if params.BuildBVTree && len(params.PolyVerts) > 0 {
		t.BvTree, t.BvQuantFactor = buildBVTree(&t)
	}

	return t, Success
}

func vertCountOf(pv [VertsPerPoly]uint16) uint8 {
	var n uint8
	for n < VertsPerPoly && pv[n] != nullMeshIdx {
		n++
	}
	return n
}

func appendVert(t *Tile, v d3.Vec3) uint16 {
	idx := uint16(len(t.Verts) / 3)
	t.Verts = append(t.Verts, v[0], v[1], v[2])
	return idx
}

// edgeKey is a pair of vertex indices (lo <= hi) identifying a polygon
// edge regardless of direction, so two polygons sharing the edge map to
// the same key.
type edgeKey struct{ lo, hi uint16 }

type edgeOwner struct {
	poly, edge int32
	count      int
}

// buildAdjacency fills each polygon's Neis: a shared edge (seen by
// exactly two polygons) becomes an internal neighbour reference; an
// edge seen once becomes either a wall (0) or, if it lies on the tile's
// AABB boundary, an external portal (extLink|side).
func buildAdjacency(t *Tile, params *BuildTileParams) {
	edges := make(map[edgeKey]edgeOwner)
	edgeAt := make(map[edgeKey][2]struct{ poly, edge int32 })

	for i := range t.Polys {
		p := &t.Polys[i]
		nv := int(p.VertCount)
		for j := 0; j < nv; j++ {
			v0, v1 := p.Verts[j], p.Verts[(j+1)%nv]
			key := edgeKey{v0, v1}
			if v0 > v1 {
				key = edgeKey{v1, v0}
			}
			owner := edges[key]
			entry := edgeAt[key]
			if owner.count == 0 {
				entry[0] = struct{ poly, edge int32 }{int32(i), int32(j)}
			} else {
				entry[1] = struct{ poly, edge int32 }{int32(i), int32(j)}
			}
			owner.count++
			edges[key] = owner
			edgeAt[key] = entry
		}
	}

	for key, owner := range edges {
		entry := edgeAt[key]
		if owner.count == 2 {
			a, b := entry[0], entry[1]
			t.Polys[a.poly].Neis[a.edge] = uint16(b.poly) + 1
			t.Polys[b.poly].Neis[b.edge] = uint16(a.poly) + 1
			continue
		}
		a := entry[0]
		side := boundarySide(t, params, a.poly, a.edge)
		if side != SideInternal {
			t.Polys[a.poly].Neis[a.edge] = extLink | uint16(side)
		}
	}
}

// boundarySide reports which tile side (if any) the given polygon edge
// lies on, by comparing both endpoints against the tile's AABB.
func boundarySide(t *Tile, params *BuildTileParams, polyIdx, edge int32) Side {
	p := &t.Polys[polyIdx]
	nv := int(p.VertCount)
	v0 := vertAt(t, p.Verts[edge])
	v1 := vertAt(t, p.Verts[(int(edge)+1)%nv])
	const eps = 1e-3

	switch {
	case math32.Abs(v0[0]-params.Bmax[0]) < eps && math32.Abs(v1[0]-params.Bmax[0]) < eps:
		return SidePlusX
	case math32.Abs(v0[0]-params.Bmin[0]) < eps && math32.Abs(v1[0]-params.Bmin[0]) < eps:
		return SideMinusX
	case math32.Abs(v0[2]-params.Bmax[2]) < eps && math32.Abs(v1[2]-params.Bmax[2]) < eps:
		return SidePlusZ
	case math32.Abs(v0[2]-params.Bmin[2]) < eps && math32.Abs(v1[2]-params.Bmin[2]) < eps:
		return SideMinusZ
	default:
		return SideInternal
	}
}

type bvItem struct {
	bmin, bmax [3]uint16
	poly       int32
}

// buildBVTree builds a quantized, depth-first bounding-volume tree over
// t's ground polygons (off-mesh pseudo-polygons are excluded — they are
// addressed directly by index, never spatially queried), returning the
// tree and the quantization factor used to build it.
func buildBVTree(t *Tile) ([]BvNode, float32) {
	extent := t.Bmax.Sub(t.Bmin)
	maxExtent := extent[0]
	if extent[2] > maxExtent {
		maxExtent = extent[2]
	}
	if maxExtent <= 0 {
		maxExtent = 1
	}
	quant := 0xffff / maxExtent

	var items []bvItem
	for i := range t.Polys {
		p := &t.Polys[i]
		if p.Type() != PolyTypeGround {
			continue
		}
		pmin, pmax := t.polyBounds(int32(i))
		items = append(items, bvItem{
			bmin: quantizeAbs(pmin, t.Bmin, quant),
			bmax: quantizeAbs(pmax, t.Bmin, quant),
			poly: int32(i),
		})
	}
	if len(items) == 0 {
		return nil, quant
	}

	nodes := make([]BvNode, 0, 2*len(items))
	subdivideBV(items, &nodes)
	return nodes, quant
}

func quantizeAbs(p, bmin d3.Vec3, quant float32) [3]uint16 {
	var q [3]uint16
	for i := 0; i < 3; i++ {
		v := (p[i] - bmin[i]) * quant
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

func subdivideBV(items []bvItem, nodes *[]BvNode) {
	n := len(items)
	nodeIdx := len(*nodes)
	*nodes = append(*nodes, BvNode{})

	if n == 1 {
		(*nodes)[nodeIdx] = BvNode{Bmin: items[0].bmin, Bmax: items[0].bmax, I: items[0].poly}
		return
	}

	bmin, bmax := items[0].bmin, items[0].bmax
	for _, it := range items[1:] {
		for k := 0; k < 3; k++ {
			if it.bmin[k] < bmin[k] {
				bmin[k] = it.bmin[k]
			}
			if it.bmax[k] > bmax[k] {
				bmax[k] = it.bmax[k]
			}
		}
	}
	(*nodes)[nodeIdx] = BvNode{Bmin: bmin, Bmax: bmax}

	axis := longestAxis(bmax[0]-bmin[0], bmax[1]-bmin[1], bmax[2]-bmin[2])
	sort.Slice(items, func(i, j int) bool {
		return items[i].bmin[axis] < items[j].bmin[axis]
	})

	split := n / 2
	subdivideBV(items[:split], nodes)
	subdivideBV(items[split:], nodes)

	(*nodes)[nodeIdx].I = -int32(len(*nodes) - nodeIdx)
}

func longestAxis(x, y, z uint16) int {
	axis, max := 0, x
	if y > max {
		axis, max = 1, y
	}
	if z > max {
		axis = 2
	}
	return axis
}
