package tilemesh

import (
	"log"

	"github.com/arl/gogeo/f32"
	"github.com/arl/gogeo/f32/d3"
	"github.com/arl/math32"
	"github.com/arl/tilemesh/geom"
	"github.com/arl/tilemesh/pool"
)

// NavMesh is the tile graph: a fixed-capacity array of slots each
// holding zero or one Tile, a position hash table for grid-coordinate
// lookup, and the shared link pool every tile's polygons allocate from.
// Queries run against a NavMesh through the query package; this type
// only owns the graph and its lifecycle (AddTile/RemoveTile and the
// cross-tile stitching that keeps it connected).
type NavMesh struct {
	Orig                  d3.Vec3
	TileWidth, TileHeight float32
	MaxTiles              int32
	MaxPolys              int32

	tiles    []Tile
	tileLive []bool  // true for slots currently installed by AddTile
	tileNext []int32 // hash-chain link when live, free-chain link when dead
	freeHead int32
	lutSize  int32
	lutMask  int32
	lut      []int32 // hash bucket -> head tile index, -1 if empty

	links   *pool.Pool[Link]
	offMesh *offMeshRegistry

	nextSequence uint64
}

// NewNavMesh allocates a NavMesh with room for maxTiles tiles of up to
// maxPolys polygons each, anchored at orig in world space.
func NewNavMesh(orig d3.Vec3, tileWidth, tileHeight float32, maxTiles, maxPolys, maxLinks int32) (*NavMesh, Status) {
	if maxTiles <= 0 || maxTiles > 1<<refTileIDBits || maxPolys <= 0 || maxPolys > 1<<refPolyIndexBits {
		return nil, Failure | InvalidParam
	}

	m := &NavMesh{
		Orig:       orig,
		TileWidth:  tileWidth,
		TileHeight: tileHeight,
		MaxTiles:   maxTiles,
		MaxPolys:   maxPolys,
		links:      pool.New[Link](int(maxLinks)),
	}
	m.offMesh = newOffMeshRegistry(m)

	m.lutSize = int32(math32.NextPow2(uint32(maxTiles / 4)))
	if m.lutSize == 0 {
		m.lutSize = 1
	}
	m.lutMask = m.lutSize - 1

	m.tiles = make([]Tile, maxTiles)
	m.tileLive = make([]bool, maxTiles)
	m.tileNext = make([]int32, maxTiles)
	m.lut = make([]int32, m.lutSize)
	for i := range m.lut {
		m.lut[i] = -1
	}
	m.freeHead = 0
	for i := int32(0); i < maxTiles; i++ {
		m.tiles[i].Salt = 1
		if i == maxTiles-1 {
			m.tileNext[i] = -1
		} else {
			m.tileNext[i] = i + 1
		}
	}

	return m, Success
}

func computeTileHash(x, y, mask int32) int32 {
	const h1 int64 = 0x8da6b343
	const h2 int64 = 0xd8163841
	n := h1*int64(x) + h2*int64(y)
	return int32(n) & mask
}

// TileAt returns the tile at the given grid cell, or nil.
func (m *NavMesh) TileAt(x, y, layer int32) *Tile {
	h := computeTileHash(x, y, m.lutMask)
	idx := m.lut[h]
	for idx != -1 {
		t := &m.tiles[idx]
		if t.X == x && t.Y == y && t.Layer == layer {
			return t
		}
		idx = m.tileNext[idx]
	}
	return nil
}

// TilesAt appends every layer present at grid cell (x, y) to out.
func (m *NavMesh) TilesAt(x, y int32, out []*Tile) []*Tile {
	h := computeTileHash(x, y, m.lutMask)
	idx := m.lut[h]
	for idx != -1 {
		t := &m.tiles[idx]
		if t.X == x && t.Y == y {
			out = append(out, t)
		}
		idx = m.tileNext[idx]
	}
	return out
}

// NodeRefBase returns the NodeRef of polygon index 0 within tile;
// ORing in a polygon index yields that polygon's full reference.
func (m *NavMesh) NodeRefBase(tile *Tile) NodeRef {
	return PackPolyRef(uint32(tile.index), 0, tile.Salt)
}

// AddTileParams is the built tile payload handed to AddTile — the
// output of a tile builder (see BuildTile), not a serialized byte
// buffer: there is no on-disk format in scope here, tiles are built and
// installed in-process.
type AddTileParams struct {
	Tile Tile
}

// AddTile installs a newly built tile into the mesh at its (X, Y,
// Layer) grid cell, stitching it to every already-present neighbour
// tile and base-connecting its off-mesh connections. wantIndex, if
// non-negative, requests a specific tile slot be reused (e.g. to restore a
// previously removed tile to the same NodeRef space); pass -1 to let
// the mesh pick any free slot.
func (m *NavMesh) AddTile(tile Tile, wantIndex int32) (Status, NodeRef) {
	if m.TileAt(tile.X, tile.Y, tile.Layer) != nil {
		return Failure, 0
	}

	var idx int32
	if wantIndex < 0 {
		if m.freeHead == -1 {
			return Failure | OutOfMemory, 0
		}
		idx = m.freeHead
		m.freeHead = m.tileNext[idx]
	} else {
		if wantIndex >= m.MaxTiles {
			return Failure | InvalidParam, 0
		}
		// Splice wantIndex out of the free list, wherever it is.
		if m.freeHead == wantIndex {
			m.freeHead = m.tileNext[wantIndex]
		} else {
			prev := m.freeHead
			found := false
			for prev != -1 {
				if m.tileNext[prev] == wantIndex {
					m.tileNext[prev] = m.tileNext[wantIndex]
					found = true
					break
				}
				prev = m.tileNext[prev]
			}
			if !found {
				log.Printf("tilemesh: requested tile slot %d is not free", wantIndex)
				return Failure | InvalidParam, 0
			}
		}
		idx = wantIndex
	}

	salt := m.tiles[idx].Salt
	tile.Salt = salt
	tile.index = idx
	m.tileLive[idx] = true
	m.nextSequence++
	tile.Sequence = m.nextSequence
	m.tiles[idx] = tile

	t := &m.tiles[idx]
	h := computeTileHash(t.X, t.Y, m.lutMask)
	m.tileNext[idx] = m.lut[h]
	m.lut[h] = idx

	for i := range t.Polys {
		t.Polys[i].FirstLink = nullLink
	}

	m.connectIntLinks(t)
	m.baseOffMeshLinks(t)
	m.connectExtOffMeshLinks(t, t, -1)

	var neis []*Tile
	neis = m.TilesAt(t.X, t.Y, neis[:0])
	for _, n := range neis {
		if n == t {
			continue
		}
		m.connectExtLinks(t, n, -1)
		m.connectExtLinks(n, t, -1)
		m.connectExtOffMeshLinks(t, n, -1)
		m.connectExtOffMeshLinks(n, t, -1)
	}

	for side := int32(0); side < 8; side++ {
		neis = m.neighbourTilesAt(t.X, t.Y, side, neis[:0])
		for _, n := range neis {
			m.connectExtLinks(t, n, side)
			m.connectExtLinks(n, t, oppositeSide(side))
			m.connectExtOffMeshLinks(t, n, side)
			m.connectExtOffMeshLinks(n, t, oppositeSide(side))
		}
	}

	m.offMesh.onTileAdded(t)

	return Success, m.NodeRefBase(t)
}

// RemoveTile detaches and clears the tile addressed by ref, freeing its
// slot for reuse. Returns the removed tile's data so the caller may
// reinstall it later via AddTile's wantIndex, and the freed slot index
// for that purpose.
func (m *NavMesh) RemoveTile(ref NodeRef) (removed Tile, slotIndex int32, st Status) {
	tileID, _, salt, ok := ref.UnpackPoly()
	if !ok {
		return Tile{}, 0, Failure | InvalidParam
	}
	idx := int32(tileID)
	if idx < 0 || idx >= m.MaxTiles || m.tiles[idx].Salt != salt {
		return Tile{}, 0, Failure | InvalidParam
	}

	t := &m.tiles[idx]
	h := computeTileHash(t.X, t.Y, m.lutMask)
	if m.lut[h] == idx {
		m.lut[h] = m.tileNext[idx]
	} else {
		prev := m.lut[h]
		for prev != -1 && m.tileNext[prev] != idx {
			prev = m.tileNext[prev]
		}
		if prev != -1 {
			m.tileNext[prev] = m.tileNext[idx]
		}
	}

	var neis []*Tile
	neis = m.TilesAt(t.X, t.Y, neis[:0])
	for _, n := range neis {
		if n == t {
			continue
		}
		m.unconnectLinks(n, t)
	}
	for side := int32(0); side < 8; side++ {
		neis = m.neighbourTilesAt(t.X, t.Y, side, neis[:0])
		for _, n := range neis {
			m.unconnectLinks(n, t)
		}
	}

	m.offMesh.onTileRemoved(t)

	removed = *t
	*t = Tile{Salt: nextSalt(t.Salt), index: idx}
	m.tileLive[idx] = false
	m.tileNext[idx] = m.freeHead
	m.freeHead = idx

	return removed, idx, Success
}

// EachTile calls fn for every tile currently installed in the mesh, in
// slot order. fn must not call AddTile or RemoveTile.
func (m *NavMesh) EachTile(fn func(t *Tile)) {
	for i := range m.tiles {
		if m.tileLive[i] {
			fn(&m.tiles[i])
		}
	}
}

func (m *NavMesh) connectIntLinks(t *Tile) {
	base := m.NodeRefBase(t)
	for i := range t.Polys {
		poly := &t.Polys[i]
		if poly.Type() != PolyTypeGround {
			continue
		}
		for j := int(poly.VertCount) - 1; j >= 0; j-- {
			if poly.Neis[j] == 0 || poly.Neis[j]&extLink != 0 {
				continue
			}
			idx, ok := m.links.Alloc()
			if !ok {
				continue
			}
			link, _ := m.links.AtIndex(idx)
			*link = Link{
				Ref:  base | NodeRef(poly.Neis[j]-1),
				Edge: uint8(j),
				Side: uint8(SideInternal),
			}
			link.Next = poly.FirstLink
			poly.FirstLink = uint32(idx)
		}
	}
}

func (m *NavMesh) connectExtLinks(tile, target *Tile, side int32) {
	for i := range tile.Polys {
		poly := &tile.Polys[i]
		nv := int32(poly.VertCount)
		for j := int32(0); j < nv; j++ {
			if poly.Neis[j]&extLink == 0 {
				continue
			}
			dir := int32(poly.Neis[j] & 0xff)
			if side != -1 && dir != side {
				continue
			}

			va := vertAt(tile, poly.Verts[j])
			vb := vertAt(tile, poly.Verts[(j+1)%uint16(nv)])

			conRefs, conLo, conHi := m.findConnectingPolys(va, vb, target, oppositeSide(dir))
			for k := range conRefs {
				idx, ok := m.links.Alloc()
				if !ok {
					continue
				}
				link, _ := m.links.AtIndex(idx)
				*link = Link{Ref: conRefs[k], Edge: uint8(j), Side: uint8(dir)}
				link.Next = poly.FirstLink
				poly.FirstLink = uint32(idx)

				if dir == int32(SidePlusX) || dir == int32(SideMinusX) {
					setPortalRange(link, va[2], vb[2], conLo[k], conHi[k])
				} else if dir == int32(SidePlusZ) || dir == int32(SideMinusZ) {
					setPortalRange(link, va[0], vb[0], conLo[k], conHi[k])
				}
			}
		}
	}
}

func setPortalRange(link *Link, va, vb, lo, hi float32) {
	tmin := (lo - va) / (vb - va)
	tmax := (hi - va) / (vb - va)
	if tmin > tmax {
		tmin, tmax = tmax, tmin
	}
	link.Bmin = uint8(f32.Clamp(tmin, 0, 1) * 255)
	link.Bmax = uint8(f32.Clamp(tmax, 0, 1) * 255)
}

// findConnectingPolys returns every polygon of tile whose boundary edge
// on the given side overlaps the portal segment va-vb, along with the
// overlapping sub-range of each in slab coordinates.
func (m *NavMesh) findConnectingPolys(va, vb d3.Vec3, tile *Tile, side int32) (refs []NodeRef, lo, hi []float32) {
	if tile == nil {
		return nil, nil, nil
	}
	amin, amax := calcSlabEndPoints(va, vb, side)
	apos := slabCoord(va, side)

	want := extLink | uint16(side)
	base := m.NodeRefBase(tile)

	for i := range tile.Polys {
		poly := &tile.Polys[i]
		nv := poly.VertCount
		for j := uint16(0); j < uint16(nv); j++ {
			if poly.Neis[j] != want {
				continue
			}
			vc := vertAt(tile, poly.Verts[j])
			vd := vertAt(tile, poly.Verts[(j+1)%nv])
			bpos := slabCoord(vc, side)
			if math32.Abs(apos-bpos) > 0.01 {
				continue
			}
			bmin, bmax := calcSlabEndPoints(vc, vd, side)
			if !overlapSlabs(amin, amax, bmin, bmax, 0.01, tile.WalkableClimb) {
				continue
			}
			refs = append(refs, base|NodeRef(i))
			lo = append(lo, math32.Max(amin[0], bmin[0]))
			hi = append(hi, math32.Min(amax[0], bmax[0]))
			break
		}
	}
	return refs, lo, hi
}

func (m *NavMesh) unconnectLinks(tile, target *Tile) {
	targetIdx := target.index
	for i := range tile.Polys {
		poly := &tile.Polys[i]
		j := poly.FirstLink
		prev := nullLink
		for j != nullLink {
			link, _ := m.links.AtIndex(int32(j))
			tileID, _, _, _ := link.Ref.UnpackPoly()
			next := link.Next
			if int32(tileID) == targetIdx {
				if prev == nullLink {
					poly.FirstLink = next
				} else {
					pl, _ := m.links.AtIndex(int32(prev))
					pl.Next = next
				}
				m.links.Free(int32(j))
			} else {
				prev = j
			}
			j = next
		}
	}
}

func calcSlabEndPoints(va, vb d3.Vec3, side int32) (amin, amax [2]float32) {
	if side == int32(SidePlusX) || side == int32(SideMinusX) {
		if va[2] < vb[2] {
			return [2]float32{va[2], va[1]}, [2]float32{vb[2], vb[1]}
		}
		return [2]float32{vb[2], vb[1]}, [2]float32{va[2], va[1]}
	}
	if va[0] < vb[0] {
		return [2]float32{va[0], va[1]}, [2]float32{vb[0], vb[1]}
	}
	return [2]float32{vb[0], vb[1]}, [2]float32{va[0], va[1]}
}

func slabCoord(va d3.Vec3, side int32) float32 {
	if side == int32(SidePlusX) || side == int32(SideMinusX) {
		return va[0]
	}
	return va[2]
}

func overlapSlabs(amin, amax, bmin, bmax [2]float32, px, py float32) bool {
	minx := math32.Max(amin[0]+px, bmin[0]+px)
	maxx := math32.Min(amax[0]-px, bmax[0]-px)
	if minx > maxx {
		return false
	}
	ad := (amax[1] - amin[1]) / (amax[0] - amin[0])
	ak := amin[1] - ad*amin[0]
	bd := (bmax[1] - bmin[1]) / (bmax[0] - bmin[0])
	bk := bmin[1] - bd*bmin[0]
	aminy := ad*minx + ak
	amaxy := ad*maxx + ak
	bminy := bd*minx + bk
	bmaxy := bd*maxx + bk
	dmin := bminy - aminy
	dmax := bmaxy - amaxy
	if dmin*dmax < 0 {
		return true
	}
	thr := math32.Sqr(py * 2)
	return dmin*dmin <= thr || dmax*dmax <= thr
}

var neighbourOffsets = [8][2]int32{
	{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1},
}

func (m *NavMesh) neighbourTilesAt(x, y, side int32, out []*Tile) []*Tile {
	o := neighbourOffsets[side]
	return m.TilesAt(x+o[0], y+o[1], out)
}

// baseOffMeshLinks connects each off-mesh connection's start endpoint
// to its nearest ground polygon within the same tile, and links that
// polygon back to the connection.
func (m *NavMesh) baseOffMeshLinks(t *Tile) {
	base := m.NodeRefBase(t)
	for i := range t.OffMeshCons {
		con := &t.OffMeshCons[i]
		poly := &t.Polys[con.Poly]

		ext := d3.Vec3{con.Rad, t.WalkableClimb, con.Rad}
		ref, nearest, found := m.FindNearestPolyInTile(t, con.Start, ext)
		if !found {
			continue
		}
		if math32.Sqr(nearest[0]-con.Start[0])+math32.Sqr(nearest[2]-con.Start[2]) > math32.Sqr(con.Rad) {
			continue
		}

		idx, ok := m.links.Alloc()
		if ok {
			link, _ := m.links.AtIndex(idx)
			*link = Link{Ref: ref, Side: uint8(SideInternal)}
			link.Next = poly.FirstLink
			poly.FirstLink = uint32(idx)
		}

		tidx, ok := m.links.Alloc()
		if ok {
			landTileID, landPolyIdx, _, _ := ref.UnpackPoly()
			landTile := &m.tiles[landTileID]
			land := &landTile.Polys[landPolyIdx]
			link, _ := m.links.AtIndex(tidx)
			*link = Link{Ref: base | NodeRef(con.Poly), Edge: 0xff, Side: uint8(SideInternal)}
			link.Next = land.FirstLink
			land.FirstLink = uint32(tidx)
		}
	}
}

// connectExtOffMeshLinks connects target's off-mesh connections whose
// end point lands on the given side into tile, the reverse of
// baseOffMeshLinks for cross-tile off-mesh connections.
func (m *NavMesh) connectExtOffMeshLinks(tile, target *Tile, side int32) {
	oppSide := uint8(SideInternal)
	if side != -1 {
		oppSide = uint8(oppositeSide(side))
	}

	for i := range target.OffMeshCons {
		con := &target.OffMeshCons[i]
		if con.Direction != Bidirectional {
			continue
		}
		targetPoly := &target.Polys[con.Poly]
		if targetPoly.FirstLink == nullLink {
			continue
		}

		ext := d3.Vec3{con.Rad, target.WalkableClimb, con.Rad}
		ref, nearest, found := m.FindNearestPolyInTile(tile, con.End, ext)
		if !found {
			continue
		}
		if math32.Sqr(nearest[0]-con.End[0])+math32.Sqr(nearest[2]-con.End[2]) > math32.Sqr(con.Rad) {
			continue
		}

		idx, ok := m.links.Alloc()
		if ok {
			link, _ := m.links.AtIndex(idx)
			*link = Link{Ref: ref, Edge: 1, Side: oppSide}
			link.Next = targetPoly.FirstLink
			targetPoly.FirstLink = uint32(idx)
		}

		tidx, ok := m.links.Alloc()
		if ok {
			sideVal := uint8(SideInternal)
			if side != -1 {
				sideVal = uint8(side)
			}
			landTileID, landPolyIdx, _, _ := ref.UnpackPoly()
			landTile := &m.tiles[landTileID]
			land := &landTile.Polys[landPolyIdx]
			link, _ := m.links.AtIndex(tidx)
			*link = Link{Ref: m.NodeRefBase(target) | NodeRef(con.Poly), Edge: 0xff, Side: sideVal}
			link.Next = land.FirstLink
			land.FirstLink = uint32(tidx)
		}
	}
}

// FindNearestPolyInTile returns the polygon of tile nearest to center
// (searched within a center±extents box), and the point on that
// polygon closest to center.
func (m *NavMesh) FindNearestPolyInTile(tile *Tile, center, extents d3.Vec3) (ref NodeRef, nearest d3.Vec3, found bool) {
	bmin := center.Sub(extents)
	bmax := center.Add(extents)

	var scratch [128]int32
	polys := tile.QueryPolysInBounds(bmin, bmax, scratch[:0])

	base := m.NodeRefBase(tile)
	nearestDistSqr := float32(-1)
	for _, pidx := range polys {
		ref2 := base | NodeRef(pidx)
		closest, posOverPoly := m.ClosestPointOnPoly(ref2, center)
		d := closest.Sub(center)
		var distSqr float32
		if posOverPoly {
			dy := math32.Max(0, math32.Abs(d[1])-tile.WalkableClimb)
			distSqr = dy * dy
		} else {
			distSqr = d.LenSqr()
		}
		if nearestDistSqr < 0 || distSqr < nearestDistSqr {
			nearestDistSqr = distSqr
			nearest = closest
			ref = ref2
			found = true
		}
	}
	return ref, nearest, found
}

// ClosestPointOnPoly returns the point on polygon ref closest to pos,
// and whether pos's xz projection falls inside the polygon's footprint
// (as opposed to being clamped to its boundary).
func (m *NavMesh) ClosestPointOnPoly(ref NodeRef, pos d3.Vec3) (closest d3.Vec3, posOverPoly bool) {
	tile, poly, ok := m.TileAndPolyByRef(ref)
	if !ok {
		return pos, false
	}
	if poly.Type() == PolyTypeOffMesh {
		v0 := vertAt(tile, poly.Verts[0])
		v1 := vertAt(tile, poly.Verts[1])
		_, t := geom.DistancePtSegSqr2D(pos, v0, v1)
		return v0.Lerp(v1, t), false
	}

	nv := int(poly.VertCount)
	verts := tile.PolyVerts(poly)
	var ed, et [VertsPerPoly]float32
	if geom.PointInPoly2D(pos, verts, int32(nv), ed[:nv], et[:nv]) {
		closest = d3.Vec3{pos[0], pos[1], pos[2]}
		di := m.detailMeshOf(tile, ref)
		if di != nil {
			if h, ok := closestHeightOnDetailMesh(tile, di, pos); ok {
				closest[1] = h
				return closest, true
			}
		}
		// Without a height from the detail mesh, take it from the
		// polygon's own triangle fan.
		for i := 2; i < nv; i++ {
			a := d3.Vec3(verts[0:3])
			b := d3.Vec3(verts[(i-1)*3 : i*3])
			c := d3.Vec3(verts[i*3 : i*3+3])
			if h, ok := geom.ClosestHeightPointTriangle(pos, a, b, c); ok {
				closest[1] = h
				break
			}
		}
		return closest, true
	}

	imin := 0
	dmin := ed[0]
	for i := 1; i < nv; i++ {
		if ed[i] < dmin {
			dmin = ed[i]
			imin = i
		}
	}
	va := d3.Vec3(verts[imin*3 : imin*3+3])
	vb := d3.Vec3(verts[((imin+1)%nv)*3 : ((imin+1)%nv)*3+3])
	return va.Lerp(vb, et[imin]), false
}

func (m *NavMesh) detailMeshOf(tile *Tile, ref NodeRef) *PolyDetail {
	_, polyIdx, _, _ := ref.UnpackPoly()
	if int(polyIdx) >= len(tile.DetailMeshes) {
		return nil
	}
	return &tile.DetailMeshes[polyIdx]
}

func closestHeightOnDetailMesh(tile *Tile, dm *PolyDetail, pos d3.Vec3) (float32, bool) {
	for i := 0; i < int(dm.TriCount); i++ {
		t := tile.DetailTris[int(dm.TriBase)*4+i*4 : int(dm.TriBase)*4+i*4+3]
		var verts [3]d3.Vec3
		for k := 0; k < 3; k++ {
			verts[k] = detailVert(tile, dm, t[k])
		}
		if h, ok := geom.ClosestHeightPointTriangle(pos, verts[0], verts[1], verts[2]); ok {
			return h, true
		}
	}
	return 0, false
}

func detailVert(tile *Tile, dm *PolyDetail, idx uint8) d3.Vec3 {
	// Vertex indices < poly.VertCount (not tracked on PolyDetail itself,
	// callers only invoke this for polygons whose detail triangles were
	// built referencing the detail mesh's own extra verts) index into
	// DetailVerts; the first VertsPerPoly "virtual" indices referencing
	// the polygon's own corner verts are resolved by the caller's detail
	// mesh builder at BuildTile time, so by the time a tile reaches the
	// runtime, DetailTris indices always address DetailVerts directly.
	base := int(dm.VertBase) * 3
	return d3.Vec3(tile.DetailVerts[base+int(idx)*3 : base+int(idx)*3+3])
}

// TileAndPolyByRef resolves ref to its owning tile and polygon,
// verifying the salt matches the tile's current generation.
func (m *NavMesh) TileAndPolyByRef(ref NodeRef) (*Tile, *Poly, bool) {
	tileID, polyIdx, salt, ok := ref.UnpackPoly()
	if !ok {
		return nil, nil, false
	}
	if int32(tileID) >= m.MaxTiles {
		return nil, nil, false
	}
	tile := &m.tiles[tileID]
	if tile.Salt != salt || tile.Salt == 0 {
		return nil, nil, false
	}
	if int(polyIdx) >= len(tile.Polys) {
		return nil, nil, false
	}
	return tile, &tile.Polys[polyIdx], true
}

// IsValidNodeRef reports whether ref currently addresses a live node.
func (m *NavMesh) IsValidNodeRef(ref NodeRef) bool {
	if ref.TypeOf() == NodeGroundPoly {
		_, _, ok := m.TileAndPolyByRef(ref)
		return ok
	}
	offMeshID, _, salt, ok := ref.UnpackOffMesh()
	if !ok {
		return false
	}
	return m.offMesh.isLive(offMeshID, salt)
}

// CalcTileLoc returns the grid cell containing the world-space point pos.
func (m *NavMesh) CalcTileLoc(pos d3.Vec3) (tx, ty int32) {
	tx = int32(math32.Floor((pos[0] - m.Orig[0]) / m.TileWidth))
	ty = int32(math32.Floor((pos[2] - m.Orig[2]) / m.TileHeight))
	return tx, ty
}

// Links exposes the shared link pool for the query package.
func (m *NavMesh) Links() *pool.Pool[Link] { return m.links }

func vertAt(t *Tile, idx uint16) d3.Vec3 {
	return d3.Vec3(t.Verts[int(idx)*3 : int(idx)*3+3])
}
