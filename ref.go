package tilemesh

// NodeRef is the compact handle every consumer outside the engine
// holds: either a (tile, polygon, salt) triple or an (off-mesh
// connection, side, salt) triple, packed into a single machine word. It
// is the only stable identity the engine hands out; everything else
// (pool slot indices, pointers) is private to the engine and may move
// between calls.
//
// Layout (bit 63 down to bit 0):
//
//	type:1 | unused:12 | salt:7 | tileID:22 | polyIndex:22     (POLY)
//	type:1 | unused:33 | salt:7 | offMeshID:22 | side:1        (OFFMESH)
//
// A zero NodeRef never denotes a valid node. Slot 0 is used like any
// other, but a live tile's salt starts at 1 and nextSalt skips 0, so a
// poly ref always has a nonzero salt field; an off-mesh ref always has
// its type bit set.
type NodeRef uint64

// NodeType distinguishes the two kinds of node a NodeRef may reference.
type NodeType uint8

const (
	NodeGroundPoly NodeType = 0
	NodeOffMesh    NodeType = 1
)

const (
	refPolyIndexBits = 22
	refTileIDBits    = 22
	refOffMeshIDBits = 22
	refSideBits      = 1
	refSaltBits      = 7

	refTypeShift = 63

	// POLY field shifts.
	polyIndexShift = 0
	tileIDShift    = polyIndexShift + refPolyIndexBits
	polySaltShift  = tileIDShift + refTileIDBits

	// OFFMESH field shifts.
	sideShift       = 0
	offMeshIDShift  = sideShift + refSideBits
	offMeshSaltShift = offMeshIDShift + refOffMeshIDBits
)

func mask(bits uint) uint64 { return (uint64(1) << bits) - 1 }

// nextSalt returns salt incremented modulo the ref's salt field width,
// skipping 0 (a zero salt marks a tile slot as never-allocated, and a
// zero NodeRef must never be producible by Pack).
func nextSalt(salt uint32) uint32 {
	salt = (salt + 1) & uint32(mask(refSaltBits))
	if salt == 0 {
		salt = 1
	}
	return salt
}

// PackPolyRef encodes a ground-polygon node reference.
func PackPolyRef(tileID uint32, polyIndex uint32, salt uint32) NodeRef {
	v := uint64(1)<<refTypeShift |
		uint64(salt&uint32(mask(refSaltBits)))<<polySaltShift |
		uint64(tileID&uint32(mask(refTileIDBits)))<<tileIDShift |
		uint64(polyIndex&uint32(mask(refPolyIndexBits)))<<polyIndexShift
	// type bit 0 means POLY: clear the bit we just OR'd in above by
	// construction (see typeOf) — POLY is encoded as bit63==0.
	return NodeRef(v &^ (uint64(1) << refTypeShift))
}

// PackOffMeshRef encodes an off-mesh-connection node reference.
func PackOffMeshRef(offMeshID uint32, side uint8, salt uint32) NodeRef {
	v := uint64(salt&uint32(mask(refSaltBits)))<<offMeshSaltShift |
		uint64(offMeshID&uint32(mask(refOffMeshIDBits)))<<offMeshIDShift |
		uint64(side&1)<<sideShift
	return NodeRef(v | uint64(1)<<refTypeShift)
}

// TypeOf reports whether ref addresses a ground polygon or an off-mesh
// connection node.
func (ref NodeRef) TypeOf() NodeType {
	if ref == 0 {
		return NodeGroundPoly
	}
	if uint64(ref)>>refTypeShift&1 != 0 {
		return NodeOffMesh
	}
	return NodeGroundPoly
}

// UnpackPoly decodes ref as a ground-polygon reference. ok is false if
// ref is actually an off-mesh reference.
func (ref NodeRef) UnpackPoly() (tileID, polyIndex, salt uint32, ok bool) {
	if ref.TypeOf() != NodeGroundPoly {
		return 0, 0, 0, false
	}
	v := uint64(ref)
	polyIndex = uint32(v>>polyIndexShift) & uint32(mask(refPolyIndexBits))
	tileID = uint32(v>>tileIDShift) & uint32(mask(refTileIDBits))
	salt = uint32(v>>polySaltShift) & uint32(mask(refSaltBits))
	return tileID, polyIndex, salt, true
}

// UnpackOffMesh decodes ref as an off-mesh-connection reference. ok is
// false if ref is actually a ground-polygon reference.
func (ref NodeRef) UnpackOffMesh() (offMeshID uint32, side uint8, salt uint32, ok bool) {
	if ref.TypeOf() != NodeOffMesh {
		return 0, 0, 0, false
	}
	v := uint64(ref)
	side = uint8(v>>sideShift) & 1
	offMeshID = uint32(v>>offMeshIDShift) & uint32(mask(refOffMeshIDBits))
	salt = uint32(v>>offMeshSaltShift) & uint32(mask(refSaltBits))
	return offMeshID, side, salt, true
}

// IsNull reports whether ref is the null/unset reference.
func (ref NodeRef) IsNull() bool { return ref == 0 }
