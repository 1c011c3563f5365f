package query

import (
	"github.com/arl/gogeo/f32/d3"
	"github.com/arl/tilemesh"
)

// sliceQuery holds the state a sliced find-path call carries between
// UpdateSlicedFindPath calls.
type sliceQuery struct {
	status   tilemesh.Status
	startRef tilemesh.NodeRef
	endRef   tilemesh.NodeRef
	endPos   d3.Vec3
	filter   tilemesh.QueryFilter

	lastBestNode     *node
	lastBestNodeCost float32
}

// InitSlicedFindPath begins an A* search that UpdateSlicedFindPath will
// run to completion across as many calls as the caller budgets for it —
// the time-sliced counterpart to FindPath, for callers that need to
// amortize a long search across multiple frames.
func (q *NavMeshQuery) InitSlicedFindPath(startRef, endRef tilemesh.NodeRef, startPos, endPos d3.Vec3, filter tilemesh.QueryFilter) tilemesh.Status {
	q.slice = sliceQuery{}

	if !q.nav.IsValidNodeRef(startRef) || !q.nav.IsValidNodeRef(endRef) || filter == nil {
		q.slice.status = tilemesh.Failure | tilemesh.InvalidParam
		return q.slice.status
	}

	q.slice.startRef = startRef
	q.slice.endRef = endRef
	q.slice.endPos = endPos
	q.slice.filter = filter

	if startRef == endRef {
		q.slice.status = tilemesh.Success
		return q.slice.status
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

	q.slice.lastBestNode = startNode
	q.slice.lastBestNodeCost = startNode.Total
	q.slice.status = tilemesh.InProgress
	return q.slice.status
}

// UpdateSlicedFindPath runs up to maxIter more iterations of the search
// InitSlicedFindPath started, returning how many it actually ran and
// the search's current status (still InProgress, or Success/Failure
// once it's done).
func (q *NavMeshQuery) UpdateSlicedFindPath(maxIter int) (int, tilemesh.Status) {
	if q.slice.status&tilemesh.InProgress == 0 {
		return 0, q.slice.status
	}

	filter := q.slice.filter
	endRef := q.slice.endRef
	endPos := q.slice.endPos
	outOfNodes := false
	iter := 0

	for iter < maxIter && !q.openList.empty() {
		iter++
		bestNode := q.openList.pop()
		bestNode.Flags &^= nodeOpen
		bestNode.Flags |= nodeClosed

		if bestNode.Ref == endRef {
			q.slice.lastBestNode = bestNode
			q.slice.status = tilemesh.Success
			return iter, q.slice.status
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

			if heuristic < q.slice.lastBestNodeCost {
				q.slice.lastBestNodeCost = heuristic
				q.slice.lastBestNode = neighbourNode
			}
		})
	}

	if q.openList.empty() {
		q.slice.status = tilemesh.Success | tilemesh.PartialResult
	}
	if outOfNodes {
		q.slice.status |= tilemesh.OutOfNodes
	}
	return iter, q.slice.status
}

// FinalizeSlicedFindPath writes the result of a completed sliced search
// into path, exactly as FindPath would have.
func (q *NavMeshQuery) FinalizeSlicedFindPath(path []tilemesh.NodeRef) (int, tilemesh.Status) {
	if q.slice.status&tilemesh.Failure != 0 {
		return 0, q.slice.status
	}
	if q.slice.startRef == q.slice.endRef {
		if len(path) == 0 {
			return 0, tilemesh.Failure | tilemesh.InvalidParam
		}
		path[0] = q.slice.startRef
		return 1, tilemesh.Success
	}

	n, status := q.pathToNode(q.slice.lastBestNode, path)
	if q.slice.lastBestNode.Ref != q.slice.endRef {
		status |= tilemesh.PartialResult
	}
	return n, status
}

// FinalizeSlicedFindPathPartial is like FinalizeSlicedFindPath, but
// anchors the result on the deepest ref of existingPath (walked from
// its end) that the search tree still recognizes, rather than on the
// search's own best node — useful when the caller already committed to
// following a prefix of a previous path and wants the continuation to
// still line up with it.
func (q *NavMeshQuery) FinalizeSlicedFindPathPartial(existingPath []tilemesh.NodeRef, path []tilemesh.NodeRef) (int, tilemesh.Status) {
	if q.slice.status&tilemesh.Failure != 0 {
		return 0, q.slice.status
	}
	if len(existingPath) == 0 {
		return q.FinalizeSlicedFindPath(path)
	}

	anchor := q.slice.lastBestNode
	for i := len(existingPath) - 1; i >= 0; i-- {
		if n := q.nodePool.FindNode(existingPath[i], 0); n != nil {
			anchor = n
			break
		}
	}

	n, status := q.pathToNode(anchor, path)
	if anchor.Ref != q.slice.endRef {
		status |= tilemesh.PartialResult
	}
	return n, status
}
