// Package query implements the spatial queries that run against a
// tilemesh.NavMesh: nearest-polygon lookup, A* pathfinding (both
// one-shot and sliced across multiple frames), straight-path string
// pulling, raycasts, and surface-bound movement and sampling. The
// navmesh package owns the graph; this package only reads it.
package query

import (
	"github.com/arl/gogeo/f32/d3"
	"github.com/arl/math32"
	"github.com/arl/tilemesh"
)

// NavMeshQuery runs spatial queries against a NavMesh, keeping its own
// scratch node pools and open list so repeated queries don't reallocate
// search state.
type NavMeshQuery struct {
	nav *tilemesh.NavMesh

	nodePool     *nodePool
	tinyNodePool *nodePool // small pool for BFS-style queries (MoveAlongSurface, FindLocalNeighbourhood)
	openList     *nodeQueue

	slice sliceQuery
}

// NewNavMeshQuery builds a query engine over nav with room for up to
// maxNodes search nodes per FindPath/sliced-find-path call.
func NewNavMeshQuery(nav *tilemesh.NavMesh, maxNodes int32) (*NavMeshQuery, tilemesh.Status) {
	if nav == nil || maxNodes <= 0 || maxNodes > 0xffff {
		return nil, tilemesh.Failure | tilemesh.InvalidParam
	}

	hashSize := int32(math32.NextPow2(uint32(maxNodes/4) + 1))
	q := &NavMeshQuery{
		nav:          nav,
		nodePool:     newNodePool(maxNodes, hashSize),
		tinyNodePool: newNodePool(64, 32),
		openList:     newNodeQueue(maxNodes),
	}
	return q, tilemesh.Success
}

// tileAndPoly resolves ref to its tile and polygon. A runtime off-mesh
// node (as opposed to a build-time off-mesh pseudo-polygon, which is an
// ordinary ground-type ref) has no backing polygon at all; ok is false
// in that case, tile and poly are both nil.
func tileAndPoly(nav *tilemesh.NavMesh, ref tilemesh.NodeRef) (*tilemesh.Tile, *tilemesh.Poly, bool) {
	if ref.TypeOf() == tilemesh.NodeOffMesh {
		return nil, nil, false
	}
	return nav.TileAndPolyByRef(ref)
}

// forEachLink calls fn for every outgoing link of ref. For a ground
// polygon (including a build-time off-mesh pseudo-polygon) that walks
// poly.FirstLink; for a runtime off-mesh registry node it is the single
// synthetic link into the node's attached landing polygon.
func forEachLink(nav *tilemesh.NavMesh, ref tilemesh.NodeRef, poly *tilemesh.Poly, fn func(link *tilemesh.Link)) {
	if ref.TypeOf() == tilemesh.NodeOffMesh {
		idx, ok := nav.OffMeshFirstLink(ref)
		if !ok {
			return
		}
		link, ok := nav.Links().AtIndex(int32(idx))
		if ok {
			fn(link)
		}
		return
	}

	j := poly.FirstLink
	for j != tilemesh.NullLink {
		link, ok := nav.Links().AtIndex(int32(j))
		if !ok {
			break
		}
		next := link.Next
		fn(link)
		j = next
	}
}

func findLinkTo(nav *tilemesh.NavMesh, poly *tilemesh.Poly, toRef tilemesh.NodeRef) (*tilemesh.Link, bool) {
	j := poly.FirstLink
	for j != tilemesh.NullLink {
		link, ok := nav.Links().AtIndex(int32(j))
		if !ok {
			break
		}
		if link.Ref == toRef {
			return link, true
		}
		j = link.Next
	}
	return nil, false
}

func vertAtT(t *tilemesh.Tile, idx uint16) d3.Vec3 {
	return d3.Vec3(t.Verts[int(idx)*3 : int(idx)*3+3])
}

// offMeshPoint returns the world position of one side of an off-mesh
// connection ref, ground or registry, whichever side ref's bit selects.
func offMeshPoint(nav *tilemesh.NavMesh, ref tilemesh.NodeRef) (d3.Vec3, bool) {
	start, end, ok := nav.OffMeshEndpoints(ref)
	if !ok {
		return d3.Vec3{}, false
	}
	_, side, _, _ := ref.UnpackOffMesh()
	if side == 1 {
		return end, true
	}
	return start, true
}

// portalPoints returns the left/right endpoints of the edge (or
// degenerate point, for an off-mesh connection) that fromRef exits
// through on its way to toRef.
func portalPoints(nav *tilemesh.NavMesh, fromRef tilemesh.NodeRef, fromTile *tilemesh.Tile, fromPoly *tilemesh.Poly, toRef tilemesh.NodeRef) (left, right d3.Vec3, ok bool) {
	if fromPoly == nil {
		p, found := offMeshPoint(nav, fromRef)
		if !found {
			return d3.Vec3{}, d3.Vec3{}, false
		}
		return p, p, true
	}

	if toRef.TypeOf() == tilemesh.NodeOffMesh {
		p, found := offMeshPoint(nav, toRef)
		if !found {
			return d3.Vec3{}, d3.Vec3{}, false
		}
		return p, p, true
	}

	toTile, toPoly, okTo := nav.TileAndPolyByRef(toRef)
	if !okTo {
		return d3.Vec3{}, d3.Vec3{}, false
	}
	if toPoly.Type() == tilemesh.PolyTypeOffMesh {
		p := vertAtT(toTile, toPoly.Verts[0])
		return p, p, true
	}

	link, found := findLinkTo(nav, fromPoly, toRef)
	if !found {
		return d3.Vec3{}, d3.Vec3{}, false
	}

	nv := int(fromPoly.VertCount)
	v0 := vertAtT(fromTile, fromPoly.Verts[link.Edge])
	v1 := vertAtT(fromTile, fromPoly.Verts[(int(link.Edge)+1)%nv])

	if tilemesh.Side(link.Side) != tilemesh.SideInternal {
		lo := float32(link.Bmin) / 255
		hi := float32(link.Bmax) / 255
		return v0.Lerp(v1, lo), v0.Lerp(v1, hi), true
	}
	return v0, v1, true
}

func edgeMidPoint(nav *tilemesh.NavMesh, fromRef tilemesh.NodeRef, fromTile *tilemesh.Tile, fromPoly *tilemesh.Poly, toRef tilemesh.NodeRef) (d3.Vec3, bool) {
	left, right, ok := portalPoints(nav, fromRef, fromTile, fromPoly, toRef)
	if !ok {
		return d3.Vec3{}, false
	}
	return left.Lerp(right, 0.5), true
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func d3Equal(a, b d3.Vec3) bool {
	const eps = 1e-4
	return math32.Abs(a[0]-b[0]) < eps && math32.Abs(a[1]-b[1]) < eps && math32.Abs(a[2]-b[2]) < eps
}

// FindPath finds the lowest-cost chain of polygon references from
// startRef to endRef via A*, writing up to len(path) refs into path in
// start-to-end order and returning how many were written. When the
// open list empties before reaching endRef, the result carries
// PartialResult and instead runs to whichever explored node had the
// lowest heuristic distance to endPos.
func (q *NavMeshQuery) FindPath(startRef, endRef tilemesh.NodeRef, startPos, endPos d3.Vec3, filter tilemesh.QueryFilter, path []tilemesh.NodeRef) (int, tilemesh.Status) {
	if !q.nav.IsValidNodeRef(startRef) || !q.nav.IsValidNodeRef(endRef) || filter == nil || len(path) == 0 {
		return 0, tilemesh.Failure | tilemesh.InvalidParam
	}

	if startRef == endRef {
		path[0] = startRef
		return 1, tilemesh.Success
	}

	q.nodePool.Clear()
	q.openList.clear()

	startNode := q.nodePool.Node(startRef, 0)
	startNode.Pos.Assign(startPos)
	startNode.PIdx = 0
	startNode.Cost = 0
	startNode.Total = startPos.Dist(endPos) * tilemesh.HeuristicScale
	startNode.Ref = startRef
	startNode.Flags = nodeOpen
	q.openList.push(startNode)

	lastBestNode := startNode
	lastBestNodeCost := startNode.Total
	outOfNodes := false

	for !q.openList.empty() {
		bestNode := q.openList.pop()
		bestNode.Flags &^= nodeOpen
		bestNode.Flags |= nodeClosed

		if bestNode.Ref == endRef {
			lastBestNode = bestNode
			break
		}

		bestTile, bestPoly, ok := tileAndPoly(q.nav, bestNode.Ref)
		if bestNode.Ref.TypeOf() == tilemesh.NodeGroundPoly && !ok {
			continue
		}

		var parentRef tilemesh.NodeRef
		var parentTile *tilemesh.Tile
		var parentPoly *tilemesh.Poly
		if bestNode.PIdx != 0 {
			parent := q.nodePool.NodeAtIdx(bestNode.PIdx)
			parentRef = parent.Ref
			parentTile, parentPoly, _ = tileAndPoly(q.nav, parentRef)
		}

		forEachLink(q.nav, bestNode.Ref, bestPoly, func(link *tilemesh.Link) {
			neighbourRef := link.Ref
			if neighbourRef == 0 || neighbourRef == parentRef {
				return
			}

			neighbourTile, neighbourPoly, okn := tileAndPoly(q.nav, neighbourRef)
			if neighbourRef.TypeOf() == tilemesh.NodeGroundPoly {
				if !okn || !filter.PassFilter(neighbourRef, neighbourTile, neighbourPoly) {
					return
				}
			}

			var crossSide uint8
			if tilemesh.Side(link.Side) != tilemesh.SideInternal {
				crossSide = link.Side >> 1
			}

			neighbourNode := q.nodePool.Node(neighbourRef, crossSide)
			if neighbourNode == nil {
				outOfNodes = true
				return
			}

			if neighbourNode.Flags == 0 {
				if mid, ok := edgeMidPoint(q.nav, bestNode.Ref, bestTile, bestPoly, neighbourRef); ok {
					neighbourNode.Pos.Assign(mid)
				}
			}

			var curCost float32
			if bestPoly != nil {
				curCost = filter.Cost(bestNode.Pos, neighbourNode.Pos,
					parentRef, parentTile, parentPoly,
					bestNode.Ref, bestTile, bestPoly,
					neighbourRef, neighbourTile, neighbourPoly)
			} else {
				curCost = bestNode.Pos.Dist(neighbourNode.Pos)
			}

			var cost, heuristic float32
			if neighbourRef == endRef {
				var endCost float32
				if neighbourPoly != nil {
					endCost = filter.Cost(neighbourNode.Pos, endPos,
						bestNode.Ref, bestTile, bestPoly,
						neighbourRef, neighbourTile, neighbourPoly,
						0, nil, nil)
				} else {
					endCost = neighbourNode.Pos.Dist(endPos)
				}
				cost = bestNode.Cost + curCost + endCost
			} else {
				cost = bestNode.Cost + curCost
				heuristic = neighbourNode.Pos.Dist(endPos) * tilemesh.HeuristicScale
			}
			total := cost + heuristic

			if neighbourNode.Flags&(nodeOpen|nodeClosed) != 0 && total >= neighbourNode.Total {
				return
			}

			neighbourNode.PIdx = q.nodePool.NodeIdx(bestNode)
			neighbourNode.Ref = neighbourRef
			neighbourNode.Flags &^= nodeClosed
			neighbourNode.Cost = cost
			neighbourNode.Total = total

			if neighbourNode.Flags&nodeOpen != 0 {
				q.openList.modify(neighbourNode)
			} else {
				neighbourNode.Flags |= nodeOpen
				q.openList.push(neighbourNode)
			}

			if heuristic < lastBestNodeCost {
				lastBestNodeCost = heuristic
				lastBestNode = neighbourNode
			}
		})
	}

	n, status := q.pathToNode(lastBestNode, path)
	if lastBestNode.Ref != endRef {
		status |= tilemesh.PartialResult
	}
	if outOfNodes {
		status |= tilemesh.OutOfNodes
	}
	return n, status
}

// pathToNode walks n's parent chain, within the big search pool, back
// to the search root, writing refs into path in start-to-end order.
func (q *NavMeshQuery) pathToNode(n *node, path []tilemesh.NodeRef) (int, tilemesh.Status) {
	return pathToNodeIn(q.nodePool, n, path)
}

// pathToNodeIn is pathToNode generalized over which pool n's chain
// lives in, since BFS-style queries (MoveAlongSurface) build their
// chain in the small tinyNodePool rather than the big search pool.
func pathToNodeIn(pool *nodePool, n *node, path []tilemesh.NodeRef) (int, tilemesh.Status) {
	total := 0
	for cur := n; cur != nil; cur = pool.NodeAtIdx(cur.PIdx) {
		total++
	}

	count := total
	status := tilemesh.Success
	if count > len(path) {
		count = len(path)
		status |= tilemesh.BufferTooSmall
	}

	cur := n
	for i := count - 1; i >= 0; i-- {
		path[i] = cur.Ref
		cur = pool.NodeAtIdx(cur.PIdx)
	}
	return count, status
}

// FindNearestPoly returns the polygon nearest center, searched within
// center±halfExtents, and the exact point on that polygon closest to
// center. A point strictly inside a polygon's footprint is scored by a
// small penalty on its height difference so a query sitting just above
// a floor prefers that floor over a nearby wall's edge; a point outside
// every candidate footprint is scored by plain 3D distance to its
// clamped-to-boundary point.
func (q *NavMeshQuery) FindNearestPoly(center, halfExtents d3.Vec3, filter tilemesh.QueryFilter) (tilemesh.NodeRef, d3.Vec3, tilemesh.Status) {
	if filter == nil {
		return 0, d3.Vec3{}, tilemesh.Failure | tilemesh.InvalidParam
	}

	bmin := center.Sub(halfExtents)
	bmax := center.Add(halfExtents)
	tx0, ty0 := q.nav.CalcTileLoc(bmin)
	tx1, ty1 := q.nav.CalcTileLoc(bmax)

	var best tilemesh.NodeRef
	var bestPt d3.Vec3
	bestDistSqr := float32(-1)

	var tiles []*tilemesh.Tile
	for ty := ty0; ty <= ty1; ty++ {
		for tx := tx0; tx <= tx1; tx++ {
			tiles = q.nav.TilesAt(tx, ty, tiles[:0])
			for _, tile := range tiles {
				var scratch [128]int32
				polys := tile.QueryPolysInBounds(bmin, bmax, scratch[:0])
				base := q.nav.NodeRefBase(tile)
				for _, pidx := range polys {
					ref := base | tilemesh.NodeRef(pidx)
					_, poly, ok := q.nav.TileAndPolyByRef(ref)
					if !ok || !filter.PassFilter(ref, tile, poly) {
						continue
					}
					closest, posOverPoly := q.nav.ClosestPointOnPoly(ref, center)
					d := closest.Sub(center)
					var distSqr float32
					if posOverPoly {
						dy := math32.Max(0, math32.Abs(d[1])-tile.WalkableClimb)
						distSqr = dy * dy
					} else {
						distSqr = d.LenSqr()
					}
					if bestDistSqr < 0 || distSqr < bestDistSqr {
						bestDistSqr = distSqr
						best = ref
						bestPt = closest
					}
				}
			}
		}
	}

	if bestDistSqr < 0 {
		return 0, center, tilemesh.Success
	}
	return best, bestPt, tilemesh.Success
}
