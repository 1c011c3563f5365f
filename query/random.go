package query

import (
	"github.com/arl/gogeo/f32/d3"
	"github.com/arl/tilemesh"
	"github.com/arl/tilemesh/geom"
)

// MoveAlongSurface slides a point from startRef/startPos towards endPos
// without leaving the walkable surface, stopping short at any wall.
// There is no teacher precedent for this operation; it is built from
// the same BFS-over-the-link-graph machinery FindPath and
// FindLocalNeighbourhood use, bounded to the disk centred on the
// midpoint of startPos and endPos, of radius dist(startPos,endPos)/2
// (plus a small slack), which is all the surface walk can ever need
// to explore. visited receives the chain of polygons crossed,
// nearest-to-farthest from startRef.
func (q *NavMeshQuery) MoveAlongSurface(startRef tilemesh.NodeRef, startPos, endPos d3.Vec3, filter tilemesh.QueryFilter, visited []tilemesh.NodeRef) (d3.Vec3, int, tilemesh.Status) {
	if !q.nav.IsValidNodeRef(startRef) || filter == nil {
		return startPos, 0, tilemesh.Failure | tilemesh.InvalidParam
	}

	searchPos := startPos.Lerp(endPos, 0.5)
	radius := startPos.Dist(endPos)/2 + 0.001
	radiusSqr := radius * radius

	q.tinyNodePool.Clear()
	startNode := q.tinyNodePool.Node(startRef, 0)
	startNode.PIdx = 0
	startNode.Ref = startRef
	startNode.Flags = nodeClosed

	queue := []*node{startNode}

	bestNode := startNode
	bestPos, _ := q.nav.ClosestPointOnPoly(startRef, endPos)
	bestDist := bestPos.DistSqr(endPos)

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		curTile, curPoly, ok := tileAndPoly(q.nav, cur.Ref)
		if !ok {
			continue
		}

		if closest, _ := q.nav.ClosestPointOnPoly(cur.Ref, endPos); closest.DistSqr(endPos) < bestDist {
			bestDist = closest.DistSqr(endPos)
			bestPos = closest
			bestNode = cur
		}

		forEachLink(q.nav, cur.Ref, curPoly, func(link *tilemesh.Link) {
			neighbourRef := link.Ref
			if neighbourRef == 0 || q.tinyNodePool.FindNode(neighbourRef, 0) != nil {
				return
			}
			neighbourTile, neighbourPoly, okn := tileAndPoly(q.nav, neighbourRef)
			if !okn || !filter.PassFilter(neighbourRef, neighbourTile, neighbourPoly) {
				return
			}

			left, right, okp := portalPoints(q.nav, cur.Ref, curTile, curPoly, neighbourRef)
			if !okp {
				return
			}
			if d, _ := geom.DistancePtSegSqr2D(searchPos, left, right); d > radiusSqr {
				return
			}

			neighbourNode := q.tinyNodePool.Node(neighbourRef, 0)
			if neighbourNode == nil {
				return
			}
			neighbourNode.PIdx = q.tinyNodePool.NodeIdx(cur)
			neighbourNode.Ref = neighbourRef
			neighbourNode.Flags = nodeClosed
			queue = append(queue, neighbourNode)
		})
	}

	n, _ := pathToNodeIn(q.tinyNodePool, bestNode, visited)
	return bestPos, n, tilemesh.Success
}

// polyArea2D returns a convex polygon's xz-plane area via triangle fan
// from vertex 0.
func polyArea2D(verts []float32, nv int) float32 {
	var area float32
	for i := 2; i < nv; i++ {
		v0 := d3.Vec3(verts[0:3])
		v1 := d3.Vec3(verts[(i-1)*3 : (i-1)*3+3])
		v2 := d3.Vec3(verts[i*3 : i*3+3])
		a := geom.TriArea2D(v0, v1, v2)
		if a < 0 {
			a = -a
		}
		area += a
	}
	return area
}

// FindRandomPoint samples a uniformly-distributed point over every
// polygon filter accepts, picking a tile uniformly, then a
// polygon within it weighted by area, then a point within that polygon.
// rand must return successive independent uniform values in [0,1).
// There is no teacher precedent for this operation; grounded directly
// on the sampling procedure geom.RandomPointInConvexPoly implements.
func (q *NavMeshQuery) FindRandomPoint(filter tilemesh.QueryFilter, rand func() float32) (tilemesh.NodeRef, d3.Vec3, tilemesh.Status) {
	if filter == nil || rand == nil {
		return 0, d3.Vec3{}, tilemesh.Failure | tilemesh.InvalidParam
	}

	var tiles []*tilemesh.Tile
	q.nav.EachTile(func(t *tilemesh.Tile) { tiles = append(tiles, t) })
	if len(tiles) == 0 {
		return 0, d3.Vec3{}, tilemesh.Failure
	}
	tile := tiles[int(rand()*float32(len(tiles)))%len(tiles)]

	type candidate struct {
		idx  int
		area float32
	}
	var cands []candidate
	var areaSum float32
	base := q.nav.NodeRefBase(tile)

	for i := range tile.Polys {
		p := &tile.Polys[i]
		if p.Type() != tilemesh.PolyTypeGround {
			continue
		}
		ref := base | tilemesh.NodeRef(i)
		if !filter.PassFilter(ref, tile, p) {
			continue
		}
		a := polyArea2D(tile.PolyVerts(p), int(p.VertCount))
		areaSum += a
		cands = append(cands, candidate{i, a})
	}
	if len(cands) == 0 {
		return 0, d3.Vec3{}, tilemesh.Failure
	}

	threshold := rand() * areaSum
	var acc float32
	chosen := cands[len(cands)-1]
	for _, c := range cands {
		acc += c.area
		if threshold <= acc {
			chosen = c
			break
		}
	}

	poly := &tile.Polys[chosen.idx]
	verts := tile.PolyVerts(poly)
	nv := int(poly.VertCount)
	areas := make([]float32, nv)
	pt := geom.RandomPointInConvexPoly(verts, nv, areas, rand(), rand())

	ref := base | tilemesh.NodeRef(chosen.idx)
	if closest, _ := q.nav.ClosestPointOnPoly(ref, pt); true {
		pt[1] = closest[1]
	}
	return ref, pt, tilemesh.Success
}

// FindRandomPointAroundCircle samples a uniformly-distributed point
// among every polygon reachable from startRef without crossing outside
// radius of centerPos, via a Dijkstra expansion bounded by that radius
// followed by the same area-weighted-polygon / in-polygon sampling
// FindRandomPoint uses. There is no teacher precedent for this
// operation.
func (q *NavMeshQuery) FindRandomPointAroundCircle(startRef tilemesh.NodeRef, centerPos d3.Vec3, radius float32, filter tilemesh.QueryFilter, rand func() float32) (tilemesh.NodeRef, d3.Vec3, tilemesh.Status) {
	if !q.nav.IsValidNodeRef(startRef) || filter == nil || rand == nil {
		return 0, d3.Vec3{}, tilemesh.Failure | tilemesh.InvalidParam
	}

	q.nodePool.Clear()
	q.openList.clear()

	startNode := q.nodePool.Node(startRef, 0)
	startNode.Pos.Assign(centerPos)
	startNode.PIdx = 0
	startNode.Cost = 0
	startNode.Total = 0
	startNode.Ref = startRef
	startNode.Flags = nodeOpen
	q.openList.push(startNode)

	radiusSqr := radius * radius

	type candidate struct {
		ref  tilemesh.NodeRef
		tile *tilemesh.Tile
		poly *tilemesh.Poly
		area float32
	}
	var cands []candidate
	var areaSum float32

	for !q.openList.empty() {
		bestNode := q.openList.pop()
		bestNode.Flags &^= nodeOpen
		bestNode.Flags |= nodeClosed

		bestTile, bestPoly, ok := tileAndPoly(q.nav, bestNode.Ref)
		if !ok {
			continue
		}

		if bestPoly.Type() == tilemesh.PolyTypeGround {
			a := polyArea2D(bestTile.PolyVerts(bestPoly), int(bestPoly.VertCount))
			areaSum += a
			cands = append(cands, candidate{bestNode.Ref, bestTile, bestPoly, a})
		}

		forEachLink(q.nav, bestNode.Ref, bestPoly, func(link *tilemesh.Link) {
			neighbourRef := link.Ref
			if neighbourRef == 0 || q.nodePool.FindNode(neighbourRef, 0) != nil {
				return
			}
			neighbourTile, neighbourPoly, okn := tileAndPoly(q.nav, neighbourRef)
			if !okn || !filter.PassFilter(neighbourRef, neighbourTile, neighbourPoly) {
				return
			}

			left, right, okp := portalPoints(q.nav, bestNode.Ref, bestTile, bestPoly, neighbourRef)
			if !okp {
				return
			}
			if d, _ := geom.DistancePtSegSqr2D(centerPos, left, right); d > radiusSqr {
				return
			}

			neighbourNode := q.nodePool.Node(neighbourRef, 0)
			if neighbourNode == nil {
				return
			}
			mid := left.Lerp(right, 0.5)
			neighbourNode.Pos.Assign(mid)
			neighbourNode.PIdx = q.nodePool.NodeIdx(bestNode)
			neighbourNode.Ref = neighbourRef
			neighbourNode.Total = bestNode.Total + bestNode.Pos.Dist(mid)
			neighbourNode.Flags |= nodeOpen
			q.openList.push(neighbourNode)
		})
	}

	if len(cands) == 0 {
		return 0, d3.Vec3{}, tilemesh.Failure
	}

	threshold := rand() * areaSum
	var acc float32
	chosen := cands[len(cands)-1]
	for _, c := range cands {
		acc += c.area
		if threshold <= acc {
			chosen = c
			break
		}
	}

	verts := chosen.tile.PolyVerts(chosen.poly)
	nv := int(chosen.poly.VertCount)
	areas := make([]float32, nv)
	pt := geom.RandomPointInConvexPoly(verts, nv, areas, rand(), rand())
	if closest, _ := q.nav.ClosestPointOnPoly(chosen.ref, pt); true {
		pt[1] = closest[1]
	}
	return chosen.ref, pt, tilemesh.Success
}
