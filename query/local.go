package query

import (
	"sort"

	"github.com/arl/gogeo/f32/d3"
	"github.com/arl/tilemesh"
	"github.com/arl/tilemesh/geom"
)

// FindLocalNeighbourhood collects every polygon reachable from startRef
// without its shared portal leaving radius of pos and without
// xz-overlapping a polygon already accepted — the second rule keeps the
// result from wrapping back over itself across a thin wall or a
// multi-layer tile stack. resultRefs/resultParents receive the
// accepted polygons and, for each, the ref it was reached from (0 for
// startRef itself); both are capped at their slice length, and n (the
// return value) never exceeds len(resultRefs): polygons accepted once
// resultRefs is full are still explored but not reported. There is no teacher precedent for this
// operation.
func (q *NavMeshQuery) FindLocalNeighbourhood(startRef tilemesh.NodeRef, pos d3.Vec3, radius float32, filter tilemesh.QueryFilter, resultRefs, resultParents []tilemesh.NodeRef) (int, tilemesh.Status) {
	if !q.nav.IsValidNodeRef(startRef) || filter == nil || len(resultRefs) == 0 {
		return 0, tilemesh.Failure | tilemesh.InvalidParam
	}

	q.tinyNodePool.Clear()
	startNode := q.tinyNodePool.Node(startRef, 0)
	startNode.PIdx = 0
	startNode.Ref = startRef
	startNode.Flags = nodeClosed

	stack := []*node{startNode}
	n := 0
	resultRefs[0] = startRef
	if len(resultParents) > 0 {
		resultParents[0] = 0
	}
	n = 1
	radiusSqr := radius * radius

	for len(stack) > 0 {
		cur := stack[0]
		stack = stack[1:]

		curTile, curPoly, ok := tileAndPoly(q.nav, cur.Ref)
		if !ok {
			continue
		}

		forEachLink(q.nav, cur.Ref, curPoly, func(link *tilemesh.Link) {
			neighbourRef := link.Ref
			if neighbourRef == 0 || q.tinyNodePool.FindNode(neighbourRef, 0) != nil {
				return
			}
			neighbourTile, neighbourPoly, okn := tileAndPoly(q.nav, neighbourRef)
			if !okn || neighbourPoly.Type() != tilemesh.PolyTypeGround || !filter.PassFilter(neighbourRef, neighbourTile, neighbourPoly) {
				return
			}

			left, right, okp := portalPoints(q.nav, cur.Ref, curTile, curPoly, neighbourRef)
			if !okp {
				return
			}
			if d, _ := geom.DistancePtSegSqr2D(pos, left, right); d > radiusSqr {
				return
			}
			if overlapsAnyVisited(q.nav, neighbourRef, neighbourTile, neighbourPoly, resultRefs[:n]) {
				return
			}

			neighbourNode := q.tinyNodePool.Node(neighbourRef, 0)
			if neighbourNode == nil {
				return
			}
			neighbourNode.PIdx = q.tinyNodePool.NodeIdx(cur)
			neighbourNode.Ref = neighbourRef
			neighbourNode.Flags = nodeClosed
			stack = append(stack, neighbourNode)

			if n < len(resultRefs) {
				resultRefs[n] = neighbourRef
				if n < len(resultParents) {
					resultParents[n] = cur.Ref
				}
				n++
			}
		})
	}

	return n, tilemesh.Success
}

func overlapsAnyVisited(nav *tilemesh.NavMesh, ref tilemesh.NodeRef, tile *tilemesh.Tile, poly *tilemesh.Poly, visited []tilemesh.NodeRef) bool {
	va := tile.PolyVerts(poly)
	nva := int(poly.VertCount)
	for _, vref := range visited {
		if vref == ref {
			continue
		}
		vtile, vpoly, ok := nav.TileAndPolyByRef(vref)
		if !ok || vpoly.Type() != tilemesh.PolyTypeGround {
			continue
		}
		vb := vtile.PolyVerts(vpoly)
		nvb := int(vpoly.VertCount)
		if polysOverlap2D(va, nva, vb, nvb) {
			return true
		}
	}
	return false
}

// polysOverlap2D is a standard separating-axis test for two convex
// polygons projected onto the xz plane. Polygons that only touch along
// a shared edge or vertex do not count as overlapping.
func polysOverlap2D(va []float32, nva int, vb []float32, nvb int) bool {
	return !separates(va, nva, vb, nvb) && !separates(vb, nvb, va, nva)
}

func separates(a []float32, na int, b []float32, nb int) bool {
	const eps = 1e-4
	for i, j := 0, na-1; i < na; j, i = i, i+1 {
		ax, az := a[i*3]-a[j*3], a[i*3+2]-a[j*3+2]
		axisX, axisZ := az, -ax
		amin, amax := projectPoly(a, na, axisX, axisZ)
		bmin, bmax := projectPoly(b, nb, axisX, axisZ)
		if amax-eps < bmin || bmax-eps < amin {
			return true
		}
	}
	return false
}

func projectPoly(v []float32, nv int, ax, az float32) (min, max float32) {
	min = v[0]*ax + v[2]*az
	max = min
	for i := 1; i < nv; i++ {
		d := v[i*3]*ax + v[i*3+2]*az
		if d < min {
			min = d
		}
		if d > max {
			max = d
		}
	}
	return min, max
}

// WallSegment is one edge-aligned span of a polygon's boundary: a solid
// wall (Ref == 0), or a portal to Ref when includePortals was set on
// GetPolyWallSegments.
type WallSegment struct {
	S, E d3.Vec3
	Ref  tilemesh.NodeRef
}

// GetPolyWallSegments splits every edge of ref's polygon into the
// sub-spans not covered by a passable link (the polygon's "walls" from
// the filter's perspective) and, if includePortals is set, the
// passable sub-spans too (tagged with the neighbour they lead to).
// There is no teacher precedent for this operation.
func (q *NavMeshQuery) GetPolyWallSegments(ref tilemesh.NodeRef, filter tilemesh.QueryFilter, includePortals bool) ([]WallSegment, tilemesh.Status) {
	tile, poly, ok := q.nav.TileAndPolyByRef(ref)
	if !ok || filter == nil {
		return nil, tilemesh.Failure | tilemesh.InvalidParam
	}

	verts := tile.PolyVerts(poly)
	nv := int(poly.VertCount)

	var segs []WallSegment
	for edge := 0; edge < nv; edge++ {
		va := d3.Vec3(verts[edge*3 : edge*3+3])
		vb := d3.Vec3(verts[((edge+1)%nv)*3 : ((edge+1)%nv)*3+3])

		type interval struct {
			lo, hi float32
			ref    tilemesh.NodeRef
		}
		var ivals []interval

		j := poly.FirstLink
		for j != tilemesh.NullLink {
			link, oklink := q.nav.Links().AtIndex(int32(j))
			if !oklink {
				break
			}
			if int(link.Edge) == edge {
				nt, np, okn := q.nav.TileAndPolyByRef(link.Ref)
				if okn && filter.PassFilter(link.Ref, nt, np) {
					lo, hi := float32(0), float32(1)
					if tilemesh.Side(link.Side) != tilemesh.SideInternal {
						lo = float32(link.Bmin) / 255
						hi = float32(link.Bmax) / 255
					}
					ivals = append(ivals, interval{lo, hi, link.Ref})
				}
			}
			j = link.Next
		}

		sort.Slice(ivals, func(a, b int) bool { return ivals[a].lo < ivals[b].lo })

		cursor := float32(0)
		for _, iv := range ivals {
			if iv.lo > cursor {
				segs = append(segs, WallSegment{S: va.Lerp(vb, cursor), E: va.Lerp(vb, iv.lo)})
			}
			if includePortals {
				segs = append(segs, WallSegment{S: va.Lerp(vb, iv.lo), E: va.Lerp(vb, iv.hi), Ref: iv.ref})
			}
			if iv.hi > cursor {
				cursor = iv.hi
			}
		}
		if cursor < 1 {
			segs = append(segs, WallSegment{S: va.Lerp(vb, cursor), E: vb})
		}
	}

	return segs, tilemesh.Success
}
