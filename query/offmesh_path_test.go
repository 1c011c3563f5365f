package query

import (
	"testing"

	"github.com/arl/gogeo/f32/d3"
	"github.com/arl/tilemesh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFindPathCrossesOffMeshConnection exercises a path that has no
// ordinary portal between its two tiles at all: the only bridge is a
// runtime off-mesh connection, so FindPath must expand the off-mesh
// node's single outgoing link to reach the far tile, and
// FindStraightPath must report the off-mesh node as a typed waypoint.
func TestFindPathCrossesOffMeshConnection(t *testing.T) {
	nav, ref0, ref1 := buildTwoDisjointTileMesh(t)

	connStart := d3.Vec3{8, 0, 5}
	connEnd := d3.Vec3{52, 0, 5}
	connRef, status := nav.AddOffMeshConnection(connStart, connEnd, 1, tilemesh.Bidirectional, 7)
	require.True(t, tilemesh.Succeeded(status))
	require.Equal(t, tilemesh.NodeOffMesh, connRef.TypeOf())

	q, status := NewNavMeshQuery(nav, 256)
	require.True(t, tilemesh.Succeeded(status))

	filter := tilemesh.NewStandardQueryFilter()
	start := d3.Vec3{1, 0, 5}
	end := d3.Vec3{55, 0, 5}

	path := make([]tilemesh.NodeRef, 8)
	n, status := q.FindPath(ref0, ref1, start, end, filter, path)
	require.True(t, tilemesh.Succeeded(status), "status: %v", status)
	require.Equal(t, 3, n, "path should be [ref0, off-mesh node, ref1]")
	assert.Equal(t, ref0, path[0])
	assert.Equal(t, ref1, path[2])
	assert.Equal(t, tilemesh.NodeOffMesh, path[1].TypeOf(), "middle node must be the off-mesh connection")

	straightPath := make([]d3.Vec3, 8)
	flags := make([]StraightPathFlags, 8)
	refs := make([]tilemesh.NodeRef, 8)
	sn, status := q.FindStraightPath(start, end, path[:n], straightPath, flags, refs, 0)
	require.True(t, tilemesh.Succeeded(status))
	require.GreaterOrEqual(t, sn, 2)

	foundOffMesh := false
	for i := 0; i < sn; i++ {
		if flags[i]&StraightPathOffMeshConnection != 0 {
			foundOffMesh = true
			assert.Equal(t, tilemesh.NodeOffMesh, refs[i].TypeOf(),
				"a corner flagged off-mesh must reference the off-mesh connection")
		}
	}
	assert.True(t, foundOffMesh, "straight path must surface a waypoint typed off-mesh (scenario middle waypoint)")
}

// TestFindPathUnidirectionalOffMeshOnlyCrossesForward confirms a
// StartToEnd connection bridges start->end but that the reverse query
// only returns a partial path, matching the one-way semantics of OffMeshDirection.
func TestFindPathUnidirectionalOffMeshOnlyCrossesForward(t *testing.T) {
	nav, ref0, ref1 := buildTwoDisjointTileMesh(t)

	connStart := d3.Vec3{8, 0, 5}
	connEnd := d3.Vec3{52, 0, 5}
	_, status := nav.AddOffMeshConnection(connStart, connEnd, 1, tilemesh.StartToEnd, 0)
	require.True(t, tilemesh.Succeeded(status))

	q, status := NewNavMeshQuery(nav, 256)
	require.True(t, tilemesh.Succeeded(status))
	filter := tilemesh.NewStandardQueryFilter()

	path := make([]tilemesh.NodeRef, 8)
	n, status := q.FindPath(ref0, ref1, d3.Vec3{1, 0, 5}, d3.Vec3{55, 0, 5}, filter, path)
	require.True(t, tilemesh.Succeeded(status))
	require.Equal(t, 3, n)
	assert.Equal(t, tilemesh.NodeOffMesh, path[1].TypeOf())

	n, status = q.FindPath(ref1, ref0, d3.Vec3{55, 0, 5}, d3.Vec3{1, 0, 5}, filter, path)
	assert.True(t, tilemesh.HasDetail(status, tilemesh.PartialResult),
		"a start-to-end-only connection must not bridge the reverse direction")
	assert.Equal(t, 1, n)
}
