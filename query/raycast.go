package query

import (
	"github.com/arl/gogeo/f32/d3"
	"github.com/arl/math32"
	"github.com/arl/tilemesh"
	"github.com/arl/tilemesh/geom"
)

// RaycastUseCosts makes Raycast accumulate PathCost using the filter's
// per-area cost, instead of leaving it at zero.
const RaycastUseCosts uint8 = 1 << 0

// RaycastHit is the result of Raycast: either a wall hit partway along
// the segment, or T == math32.MaxFloat32 if the segment's endpoint was
// reached without obstruction.
type RaycastHit struct {
	T            float32
	HitNormal    d3.Vec3
	HitEdgeIndex int32
	Path         []tilemesh.NodeRef
	PathCost     float32
}

// Raycast walks the polygon the segment startPos-endPos crosses,
// entirely in the xz plane, stopping either at a non-traversable edge
// (a true wall, or an edge whose neighbour the filter rejects — off-mesh
// connections are always walls to a raycast) or at the segment's own
// endpoint. Path records every polygon walked through, truncated to its
// capacity.
func (q *NavMeshQuery) Raycast(startRef tilemesh.NodeRef, startPos, endPos d3.Vec3, filter tilemesh.QueryFilter, options uint8, path []tilemesh.NodeRef) (RaycastHit, tilemesh.Status) {
	var hit RaycastHit

	if !q.nav.IsValidNodeRef(startRef) || filter == nil {
		return hit, tilemesh.Failure | tilemesh.InvalidParam
	}

	curPos := startPos
	curRef := startRef
	n := 0
	var prevRef tilemesh.NodeRef
	var prevTile *tilemesh.Tile
	var prevPoly *tilemesh.Poly

	for curRef != 0 {
		tile, poly, ok := q.nav.TileAndPolyByRef(curRef)
		if !ok {
			break
		}

		verts := tile.PolyVerts(poly)
		nv := int(poly.VertCount)

		_, tmax, _, segMax, intersects := geom.IntersectSegmentPoly2D(startPos, endPos, verts, nv)
		if !intersects {
			return hit, tilemesh.Failure | tilemesh.InvalidParam
		}
		if n < len(path) {
			path[n] = curRef
		}
		n++

		hitPt := startPos.Lerp(endPos, tmax)
		if options&RaycastUseCosts != 0 {
			hit.PathCost += filter.Cost(curPos, hitPt,
				prevRef, prevTile, prevPoly,
				curRef, tile, poly,
				0, nil, nil)
		}

		if segMax == -1 {
			// The segment's endpoint lies inside this polygon: no wall hit.
			hit.T = math32.MaxFloat32
			hit.Path = path[:minInt(n, len(path))]
			return hit, tilemesh.Success
		}

		va := d3.Vec3(verts[segMax*3 : segMax*3+3])
		vb := d3.Vec3(verts[((segMax+1)%nv)*3 : ((segMax+1)%nv)*3+3])

		nextRef := edgeNeighbour(q.nav, poly, segMax, hitPt, va, vb, filter)
		if nextRef == 0 {
			dx := vb[0] - va[0]
			dz := vb[2] - va[2]
			normal := d3.Vec3{dz, 0, -dx}
			normal.Normalize()
			hit.HitNormal = normal
			hit.T = tmax
			hit.HitEdgeIndex = int32(segMax)
			hit.Path = path[:minInt(n, len(path))]
			return hit, tilemesh.Success
		}

		prevRef, prevTile, prevPoly = curRef, tile, poly
		curPos = hitPt
		curRef = nextRef
	}

	hit.T = math32.MaxFloat32
	hit.Path = path[:minInt(n, len(path))]
	return hit, tilemesh.Success
}

// edgeNeighbour picks, among poly's links on the given edge, the one
// whose portal sub-range actually covers where the raycast crossed it
// (when the edge has more than one cross-tile portal link), skipping
// any neighbour the filter rejects or whose polygon is an off-mesh
// connection (off-mesh connections are always walls to a raycast).
func edgeNeighbour(nav *tilemesh.NavMesh, poly *tilemesh.Poly, edge int, hitPt, va, vb d3.Vec3, filter tilemesh.QueryFilter) tilemesh.NodeRef {
	_, edgeT := geom.DistancePtSegSqr2D(hitPt, va, vb)

	j := poly.FirstLink
	for j != tilemesh.NullLink {
		link, ok := nav.Links().AtIndex(int32(j))
		if !ok {
			break
		}
		if int(link.Edge) != edge {
			j = link.Next
			continue
		}
		if tilemesh.Side(link.Side) != tilemesh.SideInternal {
			lo := float32(link.Bmin) / 255
			hi := float32(link.Bmax) / 255
			const eps = 1e-4
			if edgeT < lo-eps || edgeT > hi+eps {
				j = link.Next
				continue
			}
		}
		neighbourRef := link.Ref
		if neighbourRef != 0 {
			nt, np, okn := nav.TileAndPolyByRef(neighbourRef)
			if okn && np.Type() == tilemesh.PolyTypeGround && filter.PassFilter(neighbourRef, nt, np) {
				return neighbourRef
			}
		}
		j = link.Next
	}
	return 0
}
