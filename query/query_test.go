package query

import (
	"testing"

	"github.com/arl/gogeo/f32/d3"
	"github.com/arl/tilemesh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindPathAcrossTiles(t *testing.T) {
	nav, ref0, ref1 := buildTwoTileMesh(t)
	q, status := NewNavMeshQuery(nav, 256)
	require.True(t, tilemesh.Succeeded(status))

	filter := tilemesh.NewStandardQueryFilter()
	start := d3.Vec3{1, 0, 5}
	end := d3.Vec3{19, 0, 5}

	path := make([]tilemesh.NodeRef, 8)
	n, status := q.FindPath(ref0, ref1, start, end, filter, path)
	require.True(t, tilemesh.Succeeded(status))
	require.Equal(t, 2, n)
	assert.Equal(t, ref0, path[0])
	assert.Equal(t, ref1, path[1])
}

func TestFindPathSameStartEnd(t *testing.T) {
	nav, ref0, _ := buildTwoTileMesh(t)
	q, status := NewNavMeshQuery(nav, 256)
	require.True(t, tilemesh.Succeeded(status))

	filter := tilemesh.NewStandardQueryFilter()
	path := make([]tilemesh.NodeRef, 4)
	n, status := q.FindPath(ref0, ref0, d3.Vec3{1, 0, 1}, d3.Vec3{1, 0, 1}, filter, path)
	require.True(t, tilemesh.Succeeded(status))
	require.Equal(t, 1, n)
	assert.Equal(t, ref0, path[0])
}

func TestFindPathExcludedByFilterIsPartial(t *testing.T) {
	nav, ref0, ref1 := buildTwoTileMesh(t)
	q, status := NewNavMeshQuery(nav, 256)
	require.True(t, tilemesh.Succeeded(status))

	filter := tilemesh.NewStandardQueryFilter()
	filter.SetIncludeFlags(0) // nothing passes, not even the start's neighbours

	path := make([]tilemesh.NodeRef, 8)
	n, status := q.FindPath(ref0, ref1, d3.Vec3{1, 0, 5}, d3.Vec3{19, 0, 5}, filter, path)
	assert.True(t, tilemesh.HasDetail(status, tilemesh.PartialResult))
	require.Equal(t, 1, n)
	assert.Equal(t, ref0, path[0])
}

func TestFindNearestPoly(t *testing.T) {
	nav, ref0, ref1 := buildTwoTileMesh(t)
	q, status := NewNavMeshQuery(nav, 256)
	require.True(t, tilemesh.Succeeded(status))

	filter := tilemesh.NewStandardQueryFilter()

	ref, pt, status := q.FindNearestPoly(d3.Vec3{1, 1, 1}, d3.Vec3{2, 2, 2}, filter)
	require.True(t, tilemesh.Succeeded(status))
	assert.Equal(t, ref0, ref)
	assert.InDelta(t, float32(0), pt[1], 1e-3)

	ref, _, status = q.FindNearestPoly(d3.Vec3{15, 1, 5}, d3.Vec3{2, 2, 2}, filter)
	require.True(t, tilemesh.Succeeded(status))
	assert.Equal(t, ref1, ref)
}
