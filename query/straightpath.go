package query

import (
	"github.com/arl/gogeo/f32/d3"
	"github.com/arl/tilemesh"
	"github.com/arl/tilemesh/geom"
)

// StraightPathFlags marks what kind of waypoint a FindStraightPath
// corner is.
type StraightPathFlags uint8

const (
	StraightPathStart            StraightPathFlags = 1 << iota // the first vertex in the path
	StraightPathEnd                                             // the last vertex in the path
	StraightPathOffMeshConnection                                // the vertex leads onto an off-mesh connection
)

// StraightPathOptions controls which intermediate corners
// FindStraightPath additionally reports.
type StraightPathOptions uint8

const (
	// StraightPathAreaCrossings adds a vertex at each polygon-area
	// change, even where the path doesn't otherwise bend.
	StraightPathAreaCrossings StraightPathOptions = 1 << iota

	// StraightPathAllCrossings adds a vertex at every polygon crossing.
	StraightPathAllCrossings
)

// FindStraightPath reduces a polygon corridor (path, as returned by
// FindPath) to the minimal sequence of straight-line waypoints an agent
// can walk in a straight line between, via the "simple stupid funnel"
// algorithm: a shrinking (left, right) wedge anchored at the last
// accepted corner (the apex), widened by each portal in turn, and
// collapsed into a new corner whenever a portal would narrow the wedge
// past the opposite side.
func (q *NavMeshQuery) FindStraightPath(startPos, endPos d3.Vec3, path []tilemesh.NodeRef, straightPath []d3.Vec3, straightPathFlags []StraightPathFlags, straightPathRefs []tilemesh.NodeRef, options StraightPathOptions) (int, tilemesh.Status) {
	if len(path) == 0 || len(straightPath) == 0 {
		return 0, tilemesh.Failure | tilemesh.InvalidParam
	}

	closestStart, _ := q.nav.ClosestPointOnPoly(path[0], startPos)
	closestEnd, _ := q.nav.ClosestPointOnPoly(path[len(path)-1], endPos)

	n, status := appendVertex(closestStart, StraightPathStart, path[0], straightPath, straightPathFlags, straightPathRefs, 0)
	if tilemesh.HasDetail(status, tilemesh.BufferTooSmall) {
		return n, status
	}
	if len(path) == 1 {
		return n, tilemesh.Success
	}

	portalApex := closestStart
	portalLeft := closestStart
	portalRight := closestStart
	apexIndex := 0
	leftIndex := 0
	rightIndex := 0
	var leftOffMesh, rightOffMesh bool

	i := 0
	for i < len(path) {
		var left, right d3.Vec3
		var toOffMesh bool

		if i+1 < len(path) {
			tile, poly, ok := tileAndPoly(q.nav, path[i])
			if !ok && path[i].TypeOf() != tilemesh.NodeOffMesh {
				break
			}
			l, r, okp := portalPoints(q.nav, path[i], tile, poly, path[i+1])
			if !okp {
				closestEnd, _ = q.nav.ClosestPointOnPoly(path[i], endPos)
				n, status = appendVertex(closestEnd, 0, path[i], straightPath, straightPathFlags, straightPathRefs, n)
				return n, status | tilemesh.PartialResult
			}
			left, right = l, r

			_, nextPoly, okn := tileAndPoly(q.nav, path[i+1])
			toOffMesh = path[i+1].TypeOf() == tilemesh.NodeOffMesh
			if okn && nextPoly.Type() == tilemesh.PolyTypeOffMesh {
				toOffMesh = true
			}

			if apexIndex == i && d3Equal(left, right) && d3Equal(left, portalApex) {
				i++
				continue
			}

			if options != 0 && poly != nil && crossesOnOptions(options, poly, okn, nextPoly) {
				n, status = appendVertex(left.Lerp(right, 0.5), 0, path[i+1], straightPath, straightPathFlags, straightPathRefs, n)
				if tilemesh.HasDetail(status, tilemesh.BufferTooSmall) {
					return n, status
				}
			}
		} else {
			left, right = closestEnd, closestEnd
		}

		if geom.TriArea2D(portalApex, portalRight, right) <= 0 {
			if d3Equal(portalApex, portalRight) || geom.TriArea2D(portalApex, portalLeft, right) > 0 {
				portalRight = right
				rightOffMesh = toOffMesh
				rightIndex = i
			} else {
				n, status = appendVertex(portalLeft, 0, path[leftIndex+1], straightPath, straightPathFlags, straightPathRefs, n)
				if tilemesh.HasDetail(status, tilemesh.BufferTooSmall) {
					return n, status
				}
				if leftOffMesh && n > 0 && n-1 < len(straightPathFlags) {
					straightPathFlags[n-1] |= StraightPathOffMeshConnection
				}

				portalApex = portalLeft
				apexIndex = leftIndex
				portalLeft = portalApex
				portalRight = portalApex
				leftIndex = apexIndex
				rightIndex = apexIndex
				i = apexIndex
				continue
			}
		}

		if geom.TriArea2D(portalApex, portalLeft, left) >= 0 {
			if d3Equal(portalApex, portalLeft) || geom.TriArea2D(portalApex, portalRight, left) < 0 {
				portalLeft = left
				leftOffMesh = toOffMesh
				leftIndex = i
			} else {
				n, status = appendVertex(portalRight, 0, path[rightIndex+1], straightPath, straightPathFlags, straightPathRefs, n)
				if tilemesh.HasDetail(status, tilemesh.BufferTooSmall) {
					return n, status
				}
				if rightOffMesh && n > 0 && n-1 < len(straightPathFlags) {
					straightPathFlags[n-1] |= StraightPathOffMeshConnection
				}

				portalApex = portalRight
				apexIndex = rightIndex
				portalLeft = portalApex
				portalRight = portalApex
				leftIndex = apexIndex
				rightIndex = apexIndex
				i = apexIndex
				continue
			}
		}

		i++
	}

	n, status = appendVertex(closestEnd, StraightPathEnd, 0, straightPath, straightPathFlags, straightPathRefs, n)
	return n, status
}

// crossesOnOptions reports whether stepping from fromPoly onto the
// next portal should insert an extra waypoint under options:
// unconditionally for StraightPathAllCrossings, or only where the
// polygon area changes for StraightPathAreaCrossings. A portal whose
// far side can't be resolved to a ground polygon (stepping onto a
// runtime off-mesh connection) never counts as an area crossing.
func crossesOnOptions(options StraightPathOptions, fromPoly *tilemesh.Poly, okTo bool, toPoly *tilemesh.Poly) bool {
	if options&StraightPathAllCrossings != 0 {
		return true
	}
	if options&StraightPathAreaCrossings != 0 && okTo {
		return fromPoly.Area() != toPoly.Area()
	}
	return false
}

// appendVertex writes pos (and its flags/ref) at straightPath[n],
// merging into the previous vertex instead if it's at the same
// position. Returns BufferTooSmall (with the Success bit still set, so
// the caller can tell a full-but-valid result from an error) once
// straightPath is full.
func appendVertex(pos d3.Vec3, flags StraightPathFlags, ref tilemesh.NodeRef, straightPath []d3.Vec3, straightPathFlags []StraightPathFlags, straightPathRefs []tilemesh.NodeRef, n int) (int, tilemesh.Status) {
	if n > 0 && d3Equal(straightPath[n-1], pos) {
		if n-1 < len(straightPathFlags) {
			straightPathFlags[n-1] |= flags
		}
		if ref != 0 && n-1 < len(straightPathRefs) {
			straightPathRefs[n-1] = ref
		}
		return n, tilemesh.Success
	}

	if n >= len(straightPath) {
		return n, tilemesh.Success | tilemesh.BufferTooSmall
	}

	straightPath[n] = pos
	if n < len(straightPathFlags) {
		straightPathFlags[n] = flags
	}
	if n < len(straightPathRefs) {
		straightPathRefs[n] = ref
	}
	n++
	return n, tilemesh.Success
}
