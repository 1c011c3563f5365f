// Package dynamic schedules tile rebuilds around moving obstacles. It
// owns no geometry of its own: it tracks which obstacles currently
// overlap which tile columns, queues the columns that changed
// occupancy, and throttles how often any one column is rebuilt,
// delegating the actual triangle-level rebuild to an external
// BuildPipeline.
package dynamic

import (
	"log"
	"time"

	"github.com/arl/gogeo/f32"
	"github.com/arl/gogeo/f32/d3"
	"github.com/arl/tilemesh"
)

// ObstacleID addresses one obstacle tracked by a Scheduler.
type ObstacleID uint32

// Obstacle is the read-only view of an occupant a BuildPipeline
// receives when asked to rebuild a tile column.
type Obstacle struct {
	ID     ObstacleID
	Pos    d3.Vec3
	Radius float32
}

// BuildPipeline is the external collaborator that turns a tile
// column's static geometry plus its current occupants into a new
// Tile. The scheduler never looks inside it; tileX/tileY identify
// which column is being rebuilt, occupants are every obstacle
// currently overlapping it.
type BuildPipeline interface {
	BuildTile(tileX, tileY int32, occupants []Obstacle) (tilemesh.Tile, tilemesh.Status)
}

type tileKey struct{ X, Y int32 }

type obstacleState struct {
	pos, lastPos d3.Vec3
	radius       float32
	awake        bool
	tiles        map[tileKey]struct{}
}

type tileState struct {
	occupants   map[ObstacleID]struct{}
	lastRebuild time.Time
	dirty       bool
}

// Scheduler tracks obstacle-to-tile-column residency for one NavMesh
// and throttles rebuilds of the columns that residency change touched.
type Scheduler struct {
	mesh     *tilemesh.NavMesh
	pipeline BuildPipeline
	throttle time.Duration

	obstacles map[ObstacleID]*obstacleState
	tiles     map[tileKey]*tileState
	queue     tileQueue
	nextID    ObstacleID
}

// NewScheduler returns a Scheduler rebuilding tile columns of mesh
// through pipeline, never more often than once per throttle interval.
func NewScheduler(mesh *tilemesh.NavMesh, pipeline BuildPipeline, throttle time.Duration) *Scheduler {
	return &Scheduler{
		mesh:      mesh,
		pipeline:  pipeline,
		throttle:  throttle,
		obstacles: make(map[ObstacleID]*obstacleState),
		tiles:     make(map[tileKey]*tileState),
	}
}

// AddObstacle registers a new obstacle at pos, awake, and enqueues every
// tile column it immediately overlaps.
func (s *Scheduler) AddObstacle(pos d3.Vec3, radius float32) ObstacleID {
	id := s.nextID
	s.nextID++
	st := &obstacleState{pos: pos, lastPos: pos, radius: radius, awake: true, tiles: make(map[tileKey]struct{})}
	s.obstacles[id] = st
	s.updateResidency(id, st)
	return id
}

// RemoveObstacle drops the obstacle and enqueues every tile column it
// was occupying for rebuild.
func (s *Scheduler) RemoveObstacle(id ObstacleID) {
	st, ok := s.obstacles[id]
	if !ok {
		return
	}
	for k := range st.tiles {
		s.removeOccupant(k, id)
		s.markDirty(k)
	}
	delete(s.obstacles, id)
}

// SetObstaclePose moves the obstacle to pos, recomputes the swept AABB
// against its previous position, and enqueues every column it left
// plus, if awake, every column the swept AABB now overlaps (whether or
// not the obstacle already occupied it).
func (s *Scheduler) SetObstaclePose(id ObstacleID, pos d3.Vec3, awake bool) {
	st, ok := s.obstacles[id]
	if !ok {
		return
	}
	st.lastPos = st.pos
	st.pos = pos
	st.awake = awake
	s.updateResidency(id, st)
}

func (s *Scheduler) updateResidency(id ObstacleID, st *obstacleState) {
	newTiles := s.sweptTiles(st)

	for k := range st.tiles {
		if _, still := newTiles[k]; !still {
			s.removeOccupant(k, id)
			s.markDirty(k)
		}
	}
	if st.awake {
		for k := range newTiles {
			s.addOccupant(k, id)
			s.markDirty(k)
		}
	}
	st.tiles = newTiles
}

// sweptTiles returns the set of tile columns overlapped by st's swept
// AABB (lastPos..pos, expanded by radius), converted to grid
// coordinates with CalcTileLoc. The range is not clamped: columns with
// no installed tile, including ones outside the built area, are
// included too.
func (s *Scheduler) sweptTiles(st *obstacleState) map[tileKey]struct{} {
	minX, maxX := st.lastPos[0], st.pos[0]
	f32.SetMin(&minX, st.pos[0])
	f32.SetMax(&maxX, st.lastPos[0])
	minZ, maxZ := st.lastPos[2], st.pos[2]
	f32.SetMin(&minZ, st.pos[2])
	f32.SetMax(&maxZ, st.lastPos[2])
	minX -= st.radius
	maxX += st.radius
	minZ -= st.radius
	maxZ += st.radius

	tx0, ty0 := s.mesh.CalcTileLoc(d3.Vec3{minX, st.pos[1], minZ})
	tx1, ty1 := s.mesh.CalcTileLoc(d3.Vec3{maxX, st.pos[1], maxZ})

	tiles := make(map[tileKey]struct{})
	for x := tx0; x <= tx1; x++ {
		for y := ty0; y <= ty1; y++ {
			tiles[tileKey{x, y}] = struct{}{}
		}
	}
	return tiles
}

func (s *Scheduler) tileState(k tileKey) *tileState {
	ts, ok := s.tiles[k]
	if !ok {
		ts = &tileState{occupants: make(map[ObstacleID]struct{})}
		s.tiles[k] = ts
	}
	return ts
}

func (s *Scheduler) addOccupant(k tileKey, id ObstacleID) {
	s.tileState(k).occupants[id] = struct{}{}
}

func (s *Scheduler) removeOccupant(k tileKey, id ObstacleID) {
	ts := s.tileState(k)
	delete(ts.occupants, id)
}

func (s *Scheduler) markDirty(k tileKey) {
	ts := s.tileState(k)
	if ts.dirty {
		return
	}
	ts.dirty = true
	s.queue.push(k)
}

// Tick drains the rebuild queue as of now: every column due (its last
// rebuild is at least throttle in the past) is rebuilt through the
// pipeline and swapped into the mesh atomically; columns still within
// their throttle window are re-queued for a later Tick. Only the
// columns present in the queue at entry are considered, so a column
// that goes dirty again mid-Tick (from a pipeline-triggered mutation)
// waits for the next call.
func (s *Scheduler) Tick(now time.Time) tilemesh.Status {
	pending := s.queue.len()
	for i := 0; i < pending; i++ {
		k := s.queue.pop()
		ts := s.tileState(k)

		if now.Sub(ts.lastRebuild) < s.throttle {
			s.queue.push(k)
			continue
		}
		ts.dirty = false

		occupants := make([]Obstacle, 0, len(ts.occupants))
		for id := range ts.occupants {
			o := s.obstacles[id]
			if o == nil {
				continue
			}
			occupants = append(occupants, Obstacle{ID: id, Pos: o.pos, Radius: o.radius})
		}

		tile, status := s.pipeline.BuildTile(k.X, k.Y, occupants)
		if tilemesh.Failed(status) {
			log.Printf("dynamic: rebuild of tile (%d,%d) failed: %s", k.X, k.Y, status.Error())
			return tilemesh.Failure | tilemesh.RebuildFailed
		}

		if err := s.swapTile(k, tile); err != nil {
			return *err
		}
		ts.lastRebuild = now
	}
	return tilemesh.Success
}

// swapTile removes whatever tile currently occupies column k (if any)
// and installs tile in its place, reusing the freed slot index so the
// rebuilt tile keeps the same tile ID; RemoveTile's salt bump still
// changes every NodeRef of the column. Returns a non-nil status pointer only on failure.
func (s *Scheduler) swapTile(k tileKey, tile tilemesh.Tile) *tilemesh.Status {
	wantIndex := int32(-1)
	if old := s.mesh.TileAt(k.X, k.Y, 0); old != nil {
		oldRef := s.mesh.NodeRefBase(old)
		_, slot, status := s.mesh.RemoveTile(oldRef)
		if tilemesh.Failed(status) {
			return &status
		}
		wantIndex = slot
	}
	tile.X, tile.Y = k.X, k.Y
	status, _ := s.mesh.AddTile(tile, wantIndex)
	if tilemesh.Failed(status) {
		return &status
	}
	return nil
}
