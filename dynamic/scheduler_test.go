package dynamic

import (
	"testing"
	"time"

	"github.com/arl/gogeo/f32/d3"
	"github.com/arl/tilemesh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// quadPipeline builds an empty-but-valid 10x10 quad tile for whatever
// column it is asked to rebuild, and counts how many times each column
// was rebuilt.
type quadPipeline struct {
	tileWidth, tileHeight float32
	builds                map[[2]int32]int
}

func newQuadPipeline(tileWidth, tileHeight float32) *quadPipeline {
	return &quadPipeline{tileWidth: tileWidth, tileHeight: tileHeight, builds: make(map[[2]int32]int)}
}

func (p *quadPipeline) BuildTile(tileX, tileY int32, occupants []Obstacle) (tilemesh.Tile, tilemesh.Status) {
	p.builds[[2]int32{tileX, tileY}]++

	x0 := float32(tileX) * p.tileWidth
	z0 := float32(tileY) * p.tileHeight
	x1 := x0 + p.tileWidth
	z1 := z0 + p.tileHeight

	verts := []float32{
		x0, 0, z0,
		x1, 0, z0,
		x1, 0, z1,
		x0, 0, z1,
	}
	params := &tilemesh.BuildTileParams{
		X: tileX, Y: tileY,
		Bmin: d3.Vec3{x0, 0, z0},
		Bmax: d3.Vec3{x1, 1, z1},
		WalkableHeight: 2, WalkableRadius: 0.5, WalkableClimb: 0.5,
		Verts: verts,
		PolyVerts: [][tilemesh.VertsPerPoly]uint16{
			{0, 1, 2, 3, 0xffff, 0xffff},
		},
		PolyFlags: []uint16{1},
		PolyAreas: []uint8{0},
	}
	return tilemesh.BuildTile(params)
}

func newTestMesh(t *testing.T) *tilemesh.NavMesh {
	t.Helper()
	nav, status := tilemesh.NewNavMesh(d3.Vec3{0, 0, 0}, 10, 10, 16, 16, 256)
	require.True(t, tilemesh.Succeeded(status))
	return nav
}

func TestAddObstacleEnqueuesOverlappingColumn(t *testing.T) {
	nav := newTestMesh(t)
	pipeline := newQuadPipeline(10, 10)
	sched := NewScheduler(nav, pipeline, time.Millisecond)

	sched.AddObstacle(d3.Vec3{5, 0, 5}, 1)
	assert.Equal(t, 1, sched.queue.len())

	status := sched.Tick(time.Now())
	assert.True(t, tilemesh.Succeeded(status))
	assert.Equal(t, 1, pipeline.builds[[2]int32{0, 0}])
	assert.NotNil(t, nav.TileAt(0, 0, 0))
}

func TestTickThrottlesRepeatRebuild(t *testing.T) {
	nav := newTestMesh(t)
	pipeline := newQuadPipeline(10, 10)
	sched := NewScheduler(nav, pipeline, time.Hour)

	id := sched.AddObstacle(d3.Vec3{5, 0, 5}, 1)
	now := time.Now()
	require.True(t, tilemesh.Succeeded(sched.Tick(now)))
	assert.Equal(t, 1, pipeline.builds[[2]int32{0, 0}])

	// Moving within the same column marks it dirty again, but the
	// throttle window hasn't elapsed: Tick should re-queue, not rebuild.
	sched.SetObstaclePose(id, d3.Vec3{6, 0, 6}, true)
	require.True(t, tilemesh.Succeeded(sched.Tick(now)))
	assert.Equal(t, 1, pipeline.builds[[2]int32{0, 0}], "still within throttle window")
	assert.Equal(t, 1, sched.queue.len(), "dirty column stays queued")

	later := now.Add(2 * time.Hour)
	require.True(t, tilemesh.Succeeded(sched.Tick(later)))
	assert.Equal(t, 2, pipeline.builds[[2]int32{0, 0}])
}

func TestObstacleCrossingTileBoundaryEnqueuesBothColumns(t *testing.T) {
	nav := newTestMesh(t)
	pipeline := newQuadPipeline(10, 10)
	sched := NewScheduler(nav, pipeline, time.Millisecond)

	id := sched.AddObstacle(d3.Vec3{8, 0, 5}, 1)
	require.True(t, tilemesh.Succeeded(sched.Tick(time.Now())))
	assert.Equal(t, 1, pipeline.builds[[2]int32{0, 0}])

	// Slide into the neighbouring column; the swept AABB (x 7..13) still
	// covers the original column, so both it and the one entered should
	// be queued.
	sched.SetObstaclePose(id, d3.Vec3{12, 0, 5}, true)
	assert.Equal(t, 2, sched.queue.len())

	require.True(t, tilemesh.Succeeded(sched.Tick(time.Now().Add(time.Second))))
	assert.Equal(t, 2, pipeline.builds[[2]int32{0, 0}], "original column, still under the swept AABB, rebuilt once more")
	assert.Equal(t, 1, pipeline.builds[[2]int32{1, 0}])
}

func TestRemoveObstacleEnqueuesVacatedColumn(t *testing.T) {
	nav := newTestMesh(t)
	pipeline := newQuadPipeline(10, 10)
	sched := NewScheduler(nav, pipeline, time.Millisecond)

	id := sched.AddObstacle(d3.Vec3{5, 0, 5}, 1)
	require.True(t, tilemesh.Succeeded(sched.Tick(time.Now())))

	sched.RemoveObstacle(id)
	assert.Equal(t, 1, sched.queue.len())
	require.True(t, tilemesh.Succeeded(sched.Tick(time.Now().Add(time.Second))))
	assert.Equal(t, 2, pipeline.builds[[2]int32{0, 0}])
}

func TestSwapTileReusesSlotButBumpsSalt(t *testing.T) {
	nav := newTestMesh(t)
	pipeline := newQuadPipeline(10, 10)
	sched := NewScheduler(nav, pipeline, time.Millisecond)

	id := sched.AddObstacle(d3.Vec3{5, 0, 5}, 1)
	require.True(t, tilemesh.Succeeded(sched.Tick(time.Now())))
	tile := nav.TileAt(0, 0, 0)
	require.NotNil(t, tile)
	firstRef := nav.NodeRefBase(tile)

	sched.SetObstaclePose(id, d3.Vec3{6, 0, 6}, true)
	require.True(t, tilemesh.Succeeded(sched.Tick(time.Now().Add(time.Second))))
	tile = nav.TileAt(0, 0, 0)
	require.NotNil(t, tile)
	secondRef := nav.NodeRefBase(tile)

	firstTileID, _, _, ok := firstRef.UnpackPoly()
	require.True(t, ok)
	secondTileID, _, _, ok := secondRef.UnpackPoly()
	require.True(t, ok)
	assert.Equal(t, firstTileID, secondTileID, "rebuilding the same column should reuse its tile slot")
	assert.NotEqual(t, firstRef, secondRef, "the salt bump on swap must invalidate refs taken before the rebuild")
	assert.False(t, nav.IsValidNodeRef(firstRef))
	assert.True(t, nav.IsValidNodeRef(secondRef))
}
