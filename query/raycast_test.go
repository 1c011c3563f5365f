package query

import (
	"testing"

	"github.com/arl/gogeo/f32/d3"
	"github.com/arl/math32"
	"github.com/arl/tilemesh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRaycastInsidePolyNoHit(t *testing.T) {
	nav, ref0, _ := buildTwoTileMesh(t)
	q, status := NewNavMeshQuery(nav, 256)
	require.True(t, tilemesh.Succeeded(status))

	filter := tilemesh.NewStandardQueryFilter()
	path := make([]tilemesh.NodeRef, 4)
	hit, status := q.Raycast(ref0, d3.Vec3{1, 0, 1}, d3.Vec3{5, 0, 5}, filter, 0, path)
	require.True(t, tilemesh.Succeeded(status))
	assert.Equal(t, float32(math32.MaxFloat32), hit.T)
}

func TestRaycastCrossesIntoNeighbourTile(t *testing.T) {
	nav, ref0, ref1 := buildTwoTileMesh(t)
	q, status := NewNavMeshQuery(nav, 256)
	require.True(t, tilemesh.Succeeded(status))

	filter := tilemesh.NewStandardQueryFilter()
	path := make([]tilemesh.NodeRef, 4)
	hit, status := q.Raycast(ref0, d3.Vec3{1, 0, 5}, d3.Vec3{15, 0, 5}, filter, 0, path)
	require.True(t, tilemesh.Succeeded(status))
	assert.Equal(t, float32(math32.MaxFloat32), hit.T)
	require.GreaterOrEqual(t, len(hit.Path), 2)
	assert.Equal(t, ref0, hit.Path[0])
	assert.Equal(t, ref1, hit.Path[1])
}

func TestRaycastHitsOuterWall(t *testing.T) {
	nav, ref0, _ := buildTwoTileMesh(t)
	q, status := NewNavMeshQuery(nav, 256)
	require.True(t, tilemesh.Succeeded(status))

	filter := tilemesh.NewStandardQueryFilter()
	path := make([]tilemesh.NodeRef, 4)
	hit, status := q.Raycast(ref0, d3.Vec3{1, 0, 5}, d3.Vec3{1, 0, -5}, filter, 0, path)
	require.True(t, tilemesh.Succeeded(status))
	assert.Less(t, hit.T, float32(1))
	assert.NotNil(t, hit.HitNormal)
	assert.GreaterOrEqual(t, hit.HitEdgeIndex, int32(0))
}
