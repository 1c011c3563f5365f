package tilemesh

import (
	"github.com/arl/gogeo/f32/d3"
	"github.com/arl/math32"
	"github.com/arl/tilemesh/pool"
)

// offMeshEntry is one runtime-registered off-mesh connection. Unlike a
// ground polygon, it is not baked into any Tile's Polys at build time:
// it is added and removed independently. Its attachment to the
// surrounding ground graph is torn down when a landing tile is removed
// and retried every time a tile is added.
type offMeshEntry struct {
	Start, End d3.Vec3
	Rad        float32
	Direction  OffMeshDirection
	UserID     uint32

	// startLandFound/endLandFound record whether a landing polygon has
	// been resolved for that side yet, independent of whether a ground
	// entry link has actually been wired for it: the start side's
	// outgoing link targets the end landing poly and vice versa, so
	// neither side can be wired until both are resolved.
	startLandFound, endLandFound bool
	startLandRef, endLandRef     NodeRef

	// attachedStart/attachedEnd record whether this side currently has
	// a live link into the ground graph, and which link pool slot it
	// occupies, so it can be torn down cleanly.
	attachedStart, attachedEnd bool
	startLinkOut, startLinkIn  uint32
	endLinkOut, endLinkIn      uint32
}

// offMeshRegistry tracks every AddOffMeshConnection call, independent
// of tile storage. It is the supplemented counterpart to the ground
// polygon graph NavMesh otherwise owns entirely through Tile/Poly.
type offMeshRegistry struct {
	mesh *NavMesh
	pool *pool.Pool[offMeshEntry]
}

func newOffMeshRegistry(mesh *NavMesh) *offMeshRegistry {
	return &offMeshRegistry{mesh: mesh, pool: pool.New[offMeshEntry](1024)}
}

// AddOffMeshConnection registers a new off-mesh connection between
// start and end, and immediately attempts to attach both endpoints
// (or just the start, if direction is StartToEnd) to the nearest
// ground polygon within rad.
func (m *NavMesh) AddOffMeshConnection(start, end d3.Vec3, rad float32, direction OffMeshDirection, userID uint32) (NodeRef, Status) {
	idx, salt, ok := m.offMesh.pool.Alloc()
	if !ok {
		return 0, Failure | OutOfMemory
	}
	e, _ := m.offMesh.pool.AtIndex(idx)
	*e = offMeshEntry{Start: start, End: end, Rad: rad, Direction: direction, UserID: userID}

	m.offMesh.attach(idx, e)

	return PackOffMeshRef(uint32(idx), 0, salt), Success
}

// RemoveOffMeshConnection detaches and frees the connection addressed
// by ref (either side's NodeRef resolves the same connection).
func (m *NavMesh) RemoveOffMeshConnection(ref NodeRef) Status {
	id, _, salt, ok := ref.UnpackOffMesh()
	if !ok {
		return Failure | InvalidParam
	}
	e, ok := m.offMesh.pool.At(int32(id), salt)
	if !ok {
		return Failure | InvalidParam
	}
	m.offMesh.detach(e)
	m.offMesh.pool.Free(int32(id))
	return Success
}

func (r *offMeshRegistry) isLive(id, salt uint32) bool {
	_, ok := r.pool.At(int32(id), salt)
	return ok
}

// OffMeshFirstLink returns the link pool index of the single outgoing
// link from the off-mesh pseudo-node ref into the ground graph, used by
// the query engine to expand off-mesh nodes exactly like polygon nodes.
func (m *NavMesh) OffMeshFirstLink(ref NodeRef) (uint32, bool) {
	id, side, salt, ok := ref.UnpackOffMesh()
	if !ok {
		return 0, false
	}
	e, ok := m.offMesh.pool.At(int32(id), salt)
	if !ok {
		return 0, false
	}
	if side == 0 {
		if !e.attachedStart {
			return 0, false
		}
		return e.startLinkOut, true
	}
	if !e.attachedEnd {
		return 0, false
	}
	return e.endLinkOut, true
}

// OffMeshEndpoints returns the world-space start and end positions of
// the off-mesh connection ref belongs to.
func (m *NavMesh) OffMeshEndpoints(ref NodeRef) (start, end d3.Vec3, ok bool) {
	id, _, salt, ok := ref.UnpackOffMesh()
	if !ok {
		return d3.Vec3{}, d3.Vec3{}, false
	}
	e, ok := m.offMesh.pool.At(int32(id), salt)
	if !ok {
		return d3.Vec3{}, d3.Vec3{}, false
	}
	return e.Start, e.End, true
}

// onTileAdded retries attachment for every connection not yet fully
// attached — the new tile may supply a ground polygon one of them was
// missing.
func (r *offMeshRegistry) onTileAdded(t *Tile) {
	r.pool.Each(func(idx int32, e *offMeshEntry) {
		if !e.attachedStart || (e.Direction == Bidirectional && !e.attachedEnd) {
			r.attach(idx, e)
		}
	})
}

// onTileRemoved tears down any attachment whose landing polygon landed
// in the now-removed tile t. Either side's outgoing link bridges to the
// *other* side's landing poly, so losing one side's landing poly also
// strands the other side's link target: both are fully detached and
// marked unresolved, leaving the whole connection eligible for a clean
// re-attachment on a future AddTile.
func (r *offMeshRegistry) onTileRemoved(t *Tile) {
	inTile := func(ref NodeRef) bool {
		tileID, _, _, ok := ref.UnpackPoly()
		return ok && int32(tileID) == t.index
	}
	r.pool.Each(func(idx int32, e *offMeshEntry) {
		startHit := e.startLandFound && inTile(e.startLandRef)
		endHit := e.endLandFound && inTile(e.endLandRef)
		if !startHit && !endHit {
			return
		}
		r.detachStart(e)
		r.detachEnd(e)
		if startHit {
			e.startLandFound = false
		}
		if endHit {
			e.endLandFound = false
		}
	})
}

// attach resolves a landing polygon for each side not yet resolved,
// then — once both are known — wires each side's off-mesh pseudo-node
// with an incoming link from its own landing poly and an outgoing link
// to the *opposite* side's landing poly, so the connection actually
// bridges start to end instead of looping back on itself. A
// StartToEnd connection still needs the end landing poly resolved (to
// give the start side's outgoing link a destination) even though the
// end side itself never gets a ground entry link.
func (r *offMeshRegistry) attach(idx int32, e *offMeshEntry) {
	if !e.startLandFound {
		if ref, ok := r.findLandingPoly(e.Start, e.Rad); ok {
			e.startLandRef = ref
			e.startLandFound = true
		}
	}
	if !e.endLandFound {
		if ref, ok := r.findLandingPoly(e.End, e.Rad); ok {
			e.endLandRef = ref
			e.endLandFound = true
		}
	}
	if !e.startLandFound || !e.endLandFound {
		return
	}

	if !e.attachedStart {
		r.linkSide(idx, e, e.startLandRef, e.endLandRef, true)
	}
	if e.Direction == Bidirectional && !e.attachedEnd {
		r.linkSide(idx, e, e.endLandRef, e.startLandRef, false)
	}
}

func (r *offMeshRegistry) detach(e *offMeshEntry) {
	r.detachStart(e)
	r.detachEnd(e)
}

func (r *offMeshRegistry) detachStart(e *offMeshEntry) {
	if !e.attachedStart {
		return
	}
	r.unlink(e.startLandRef, e.startLinkIn)
	r.mesh.links.Free(int32(e.startLinkOut))
	e.attachedStart = false
}

func (r *offMeshRegistry) detachEnd(e *offMeshEntry) {
	if !e.attachedEnd {
		return
	}
	r.unlink(e.endLandRef, e.endLinkIn)
	r.mesh.links.Free(int32(e.endLinkOut))
	e.attachedEnd = false
}

// unlink removes the link at pool index linkIdx from landRef's polygon
// link chain and frees its slot.
func (r *offMeshRegistry) unlink(landRef NodeRef, linkIdx uint32) {
	_, poly, ok := r.mesh.TileAndPolyByRef(landRef)
	if !ok {
		return
	}
	j := poly.FirstLink
	prev := nullLink
	for j != nullLink {
		if j == linkIdx {
			next, _ := r.mesh.links.AtIndex(int32(j))
			if prev == nullLink {
				poly.FirstLink = next.Next
			} else {
				pl, _ := r.mesh.links.AtIndex(int32(prev))
				pl.Next = next.Next
			}
			r.mesh.links.Free(int32(j))
			return
		}
		prev = j
		link, _ := r.mesh.links.AtIndex(int32(j))
		j = link.Next
	}
}

// findLandingPoly searches the tiles in the 3x3 grid-cell neighbourhood
// of pos (every layer) for the ground polygon nearest pos, accepting it
// only if within rad in the xz plane.
func (r *offMeshRegistry) findLandingPoly(pos d3.Vec3, rad float32) (NodeRef, bool) {
	tx, ty := r.mesh.CalcTileLoc(pos)
	ext := d3.Vec3{rad, rad, rad}

	var best NodeRef
	bestDistSqr := float32(-1)
	var tiles []*Tile
	for dx := int32(-1); dx <= 1; dx++ {
		for dy := int32(-1); dy <= 1; dy++ {
			tiles = r.mesh.TilesAt(tx+dx, ty+dy, tiles[:0])
			for _, t := range tiles {
				ref, nearest, found := r.mesh.FindNearestPolyInTile(t, pos, ext)
				if !found {
					continue
				}
				dsq := math32.Sqr(nearest[0]-pos[0]) + math32.Sqr(nearest[2]-pos[2])
				if dsq > math32.Sqr(rad) {
					continue
				}
				if bestDistSqr < 0 || dsq < bestDistSqr {
					bestDistSqr = dsq
					best = ref
				}
			}
		}
	}
	return best, bestDistSqr >= 0
}

// linkSide wires one side of a connection: an incoming link from
// landRef's polygon into the off-mesh pseudo-node (so the ground graph
// can enter the connection there), and an outgoing link from the
// pseudo-node to targetRef — the *other* side's landing poly, the
// actual destination this side's traversal bridges to.
func (r *offMeshRegistry) linkSide(idx int32, e *offMeshEntry, landRef, targetRef NodeRef, isStart bool) {
	_, landPoly, ok := r.mesh.TileAndPolyByRef(landRef)
	if !ok {
		return
	}

	side := uint8(0)
	if !isStart {
		side = 1
	}
	selfRef := PackOffMeshRef(uint32(idx), side, r.pool.SaltAt(idx))

	outIdx, ok := r.mesh.links.Alloc()
	if !ok {
		return
	}
	outLink, _ := r.mesh.links.AtIndex(outIdx)
	*outLink = Link{Ref: targetRef, Side: uint8(SideInternal)}

	inIdx, ok := r.mesh.links.Alloc()
	if !ok {
		r.mesh.links.Free(outIdx)
		return
	}
	inLink, _ := r.mesh.links.AtIndex(inIdx)
	*inLink = Link{Ref: selfRef, Edge: 0xff, Side: uint8(SideInternal)}
	inLink.Next = landPoly.FirstLink
	landPoly.FirstLink = uint32(inIdx)

	if isStart {
		e.attachedStart = true
		e.startLinkOut = uint32(outIdx)
		e.startLinkIn = uint32(inIdx)
	} else {
		e.attachedEnd = true
		e.endLinkOut = uint32(outIdx)
		e.endLinkIn = uint32(inIdx)
	}
}
