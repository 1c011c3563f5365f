package tilemesh

import (
	"testing"

	"github.com/arl/gogeo/f32/d3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddOffMeshConnectionAttachesToExistingTile(t *testing.T) {
	nav, status := NewNavMesh(d3.Vec3{0, 0, 0}, 10, 10, 8, 16, 256)
	require.True(t, Succeeded(status))

	tile0 := buildQuadTile(t, 0, 0, 0, 0, 10, 10)
	tile1 := buildQuadTile(t, 1, 0, 10, 0, 20, 10)
	status, _ = nav.AddTile(tile0, -1)
	require.True(t, Succeeded(status))
	status, _ = nav.AddTile(tile1, -1)
	require.True(t, Succeeded(status))

	ref, status := nav.AddOffMeshConnection(
		d3.Vec3{5, 0, 5}, d3.Vec3{15, 0, 5}, 1, Bidirectional, 99)
	require.True(t, Succeeded(status))
	assert.Equal(t, NodeOffMesh, ref.TypeOf())
	assert.True(t, nav.IsValidNodeRef(ref))

	start, end, ok := nav.OffMeshEndpoints(ref)
	require.True(t, ok)
	assert.Equal(t, d3.Vec3{5, 0, 5}, start)
	assert.Equal(t, d3.Vec3{15, 0, 5}, end)

	_, ok = nav.OffMeshFirstLink(ref)
	assert.True(t, ok, "the start side should have attached to tile0's polygon")

	offMeshID, side, salt, ok := ref.UnpackOffMesh()
	require.True(t, ok)
	endRef := PackOffMeshRef(offMeshID, 1-side, salt)
	_, ok = nav.OffMeshFirstLink(endRef)
	assert.True(t, ok, "bidirectional connection should also attach on its end side")
}

func TestAddOffMeshConnectionUnidirectionalHasNoEndLink(t *testing.T) {
	nav, status := NewNavMesh(d3.Vec3{0, 0, 0}, 10, 10, 8, 16, 256)
	require.True(t, Succeeded(status))

	tile0 := buildQuadTile(t, 0, 0, 0, 0, 10, 10)
	tile1 := buildQuadTile(t, 1, 0, 10, 0, 20, 10)
	_, _ = nav.AddTile(tile0, -1)
	_, _ = nav.AddTile(tile1, -1)

	ref, status := nav.AddOffMeshConnection(
		d3.Vec3{5, 0, 5}, d3.Vec3{15, 0, 5}, 1, StartToEnd, 1)
	require.True(t, Succeeded(status))

	offMeshID, _, salt, _ := ref.UnpackOffMesh()
	endRef := PackOffMeshRef(offMeshID, 1, salt)
	_, ok := nav.OffMeshFirstLink(endRef)
	assert.False(t, ok, "a start-to-end-only connection must not attach its end side")
}

func TestRemoveOffMeshConnectionInvalidatesRef(t *testing.T) {
	nav, status := NewNavMesh(d3.Vec3{0, 0, 0}, 10, 10, 8, 16, 256)
	require.True(t, Succeeded(status))

	tile0 := buildQuadTile(t, 0, 0, 0, 0, 10, 10)
	_, _ = nav.AddTile(tile0, -1)

	ref, status := nav.AddOffMeshConnection(d3.Vec3{5, 0, 5}, d3.Vec3{5, 0, 5}, 1, StartToEnd, 0)
	require.True(t, Succeeded(status))
	require.True(t, nav.IsValidNodeRef(ref))

	status = nav.RemoveOffMeshConnection(ref)
	require.True(t, Succeeded(status))
	assert.False(t, nav.IsValidNodeRef(ref))
}

func TestOffMeshReattachesAfterTileAddedNearby(t *testing.T) {
	nav, status := NewNavMesh(d3.Vec3{0, 0, 0}, 10, 10, 8, 16, 256)
	require.True(t, Succeeded(status))

	tile0 := buildQuadTile(t, 0, 0, 0, 0, 10, 10)
	_, _ = nav.AddTile(tile0, -1)

	// End point (15,0,5) lands in tile1, which doesn't exist yet.
	ref, status := nav.AddOffMeshConnection(
		d3.Vec3{5, 0, 5}, d3.Vec3{15, 0, 5}, 1, Bidirectional, 0)
	require.True(t, Succeeded(status))

	offMeshID, _, salt, _ := ref.UnpackOffMesh()
	endRef := PackOffMeshRef(offMeshID, 1, salt)
	_, ok := nav.OffMeshFirstLink(endRef)
	assert.False(t, ok, "end side has nothing to attach to yet")

	tile1 := buildQuadTile(t, 1, 0, 10, 0, 20, 10)
	status, _ = nav.AddTile(tile1, -1)
	require.True(t, Succeeded(status))

	_, ok = nav.OffMeshFirstLink(endRef)
	assert.True(t, ok, "adding tile1 should retry attachment and succeed")
}
