package query

import (
	"testing"

	"github.com/arl/gogeo/f32/d3"
	"github.com/arl/tilemesh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlicedFindPathMatchesFindPath(t *testing.T) {
	nav, ref0, ref1 := buildTwoTileMesh(t)
	q, status := NewNavMeshQuery(nav, 256)
	require.True(t, tilemesh.Succeeded(status))

	filter := tilemesh.NewStandardQueryFilter()
	start := d3.Vec3{1, 0, 5}
	end := d3.Vec3{19, 0, 5}

	direct := make([]tilemesh.NodeRef, 8)
	wantN, status := q.FindPath(ref0, ref1, start, end, filter, direct)
	require.True(t, tilemesh.Succeeded(status))

	status = q.InitSlicedFindPath(ref0, ref1, start, end, filter)
	require.True(t, status&tilemesh.InProgress != 0 || tilemesh.Succeeded(status))

	for status&tilemesh.InProgress != 0 {
		_, status = q.UpdateSlicedFindPath(1)
	}
	require.True(t, tilemesh.Succeeded(status))

	sliced := make([]tilemesh.NodeRef, 8)
	slicedN, status := q.FinalizeSlicedFindPath(sliced)
	require.True(t, tilemesh.Succeeded(status))

	assert.Equal(t, wantN, slicedN)
	assert.Equal(t, direct[:wantN], sliced[:slicedN])
}

func TestSlicedFindPathSameStartEnd(t *testing.T) {
	nav, ref0, _ := buildTwoTileMesh(t)
	q, status := NewNavMeshQuery(nav, 256)
	require.True(t, tilemesh.Succeeded(status))

	filter := tilemesh.NewStandardQueryFilter()
	status = q.InitSlicedFindPath(ref0, ref0, d3.Vec3{1, 0, 1}, d3.Vec3{1, 0, 1}, filter)
	require.True(t, tilemesh.Succeeded(status))

	path := make([]tilemesh.NodeRef, 4)
	n, status := q.FinalizeSlicedFindPath(path)
	require.True(t, tilemesh.Succeeded(status))
	require.Equal(t, 1, n)
	assert.Equal(t, ref0, path[0])
}

func TestFinalizeSlicedFindPathPartialAnchorsOnExistingPrefix(t *testing.T) {
	nav, ref0, ref1 := buildTwoTileMesh(t)
	q, status := NewNavMeshQuery(nav, 256)
	require.True(t, tilemesh.Succeeded(status))

	filter := tilemesh.NewStandardQueryFilter()
	start := d3.Vec3{1, 0, 5}
	end := d3.Vec3{19, 0, 5}

	status = q.InitSlicedFindPath(ref0, ref1, start, end, filter)
	require.True(t, status&tilemesh.InProgress != 0 || tilemesh.Succeeded(status))
	for status&tilemesh.InProgress != 0 {
		_, status = q.UpdateSlicedFindPath(1)
	}
	require.True(t, tilemesh.Succeeded(status))

	existing := []tilemesh.NodeRef{ref0}
	path := make([]tilemesh.NodeRef, 8)
	n, status := q.FinalizeSlicedFindPathPartial(existing, path)
	require.True(t, tilemesh.Succeeded(status))
	require.GreaterOrEqual(t, n, 1)
	assert.Equal(t, ref0, path[0])
}
