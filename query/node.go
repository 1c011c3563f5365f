package query

import (
	"github.com/arl/gogeo/f32/d3"
	"github.com/arl/tilemesh"
)

// NodeFlags tracks a search node's membership in the open/closed sets,
// and whether it was reached via a raycast shortcut rather than a
// direct graph edge (see the ANY_ANGLE option on sliced queries).
type NodeFlags uint8

const (
	nodeOpen NodeFlags = 1 << iota
	nodeClosed
	nodeParentDetached
)

const nullIdx int32 = -1

func hashRef(ref tilemesh.NodeRef) uint32 {
	a := uint64(ref)
	a += ^(a << 15)
	a ^= a >> 10
	a += a << 3
	a ^= a >> 6
	a += ^(a << 11)
	a ^= a >> 16
	return uint32(a)
}

// node is one A*/Dijkstra search node: a (NodeRef, crossSide state)
// pair, since a polygon entered through two different tile-boundary
// sub-ranges is functionally a different search state.
type node struct {
	Pos   d3.Vec3
	Cost  float32
	Total float32
	PIdx  int32 // index+1 of the parent node in the owning pool, 0 for none
	State uint8
	Flags NodeFlags
	Ref   tilemesh.NodeRef

	self int32 // this node's own index into the pool's backing array
}

// nodePool hands out node values keyed by (Ref, State), reusing the
// same backing array across searches via Clear rather than
// reallocating it.
type nodePool struct {
	nodes    []node
	first    []int32
	next     []int32
	maxNodes int32
	count    int32
}

func newNodePool(maxNodes, hashSize int32) *nodePool {
	np := &nodePool{maxNodes: maxNodes}
	np.nodes = make([]node, maxNodes)
	np.next = make([]int32, maxNodes)
	np.first = make([]int32, hashSize)
	for i := range np.first {
		np.first[i] = nullIdx
	}
	for i := range np.next {
		np.next[i] = nullIdx
	}
	return np
}

func (np *nodePool) Clear() {
	for i := range np.first {
		np.first[i] = nullIdx
	}
	np.count = 0
}

// Node returns the existing node for (ref, state), or allocates a fresh
// one. Returns nil if the pool is exhausted.
func (np *nodePool) Node(ref tilemesh.NodeRef, state uint8) *node {
	bucket := hashRef(ref) & uint32(len(np.first)-1)
	for i := np.first[bucket]; i != nullIdx; i = np.next[i] {
		if np.nodes[i].Ref == ref && np.nodes[i].State == state {
			return &np.nodes[i]
		}
	}
	if np.count >= np.maxNodes {
		return nil
	}
	i := np.count
	np.count++
	n := &np.nodes[i]
	*n = node{Ref: ref, State: state, self: i, Pos: d3.NewVec3()}
	np.next[i] = np.first[bucket]
	np.first[bucket] = i
	return n
}

// FindNode returns the existing node for (ref, state), or nil.
func (np *nodePool) FindNode(ref tilemesh.NodeRef, state uint8) *node {
	bucket := hashRef(ref) & uint32(len(np.first)-1)
	for i := np.first[bucket]; i != nullIdx; i = np.next[i] {
		if np.nodes[i].Ref == ref && np.nodes[i].State == state {
			return &np.nodes[i]
		}
	}
	return nil
}

// NodeIdx returns n's index+1 within the pool (0 denotes "no node"),
// the same convention Node.PIdx uses to link to a parent.
func (np *nodePool) NodeIdx(n *node) int32 {
	if n == nil {
		return 0
	}
	return n.self + 1
}

// NodeAtIdx resolves a 1-based index (as stored in Node.PIdx) back to a
// node pointer, or nil for 0.
func (np *nodePool) NodeAtIdx(idx int32) *node {
	if idx == 0 {
		return nil
	}
	return &np.nodes[idx-1]
}
