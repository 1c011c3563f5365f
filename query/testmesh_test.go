package query

import (
	"testing"

	"github.com/arl/gogeo/f32/d3"
	"github.com/arl/tilemesh"
	"github.com/stretchr/testify/require"
)

// buildTwoTileMesh installs two adjacent 10x10 single-quad tiles
// sharing the x=10 boundary, and returns the mesh plus the NodeRef of
// each tile's one polygon.
func buildTwoTileMesh(t *testing.T) (*tilemesh.NavMesh, tilemesh.NodeRef, tilemesh.NodeRef) {
	t.Helper()

	nav, status := tilemesh.NewNavMesh(d3.Vec3{0, 0, 0}, 10, 10, 8, 16, 256)
	require.True(t, tilemesh.Succeeded(status))

	buildQuadTile := func(x, y int32, x0, z0, x1, z1 float32) tilemesh.Tile {
		verts := []float32{
			x0, 0, z0,
			x1, 0, z0,
			x1, 0, z1,
			x0, 0, z1,
		}
		params := &tilemesh.BuildTileParams{
			X: x, Y: y,
			Bmin: d3.Vec3{x0, 0, z0},
			Bmax: d3.Vec3{x1, 1, z1},
			WalkableHeight: 2, WalkableRadius: 0.5, WalkableClimb: 0.5,
			Verts: verts,
			PolyVerts: [][6]uint16{
				{0, 1, 2, 3, 0xffff, 0xffff},
			},
			PolyFlags:   []uint16{1},
			PolyAreas:   []uint8{0},
			BuildBVTree: true,
		}
		tile, st := tilemesh.BuildTile(params)
		require.True(t, tilemesh.Succeeded(st))
		return tile
	}

	tile0 := buildQuadTile(0, 0, 0, 0, 10, 10)
	tile1 := buildQuadTile(1, 0, 10, 0, 20, 10)

	st, base0 := nav.AddTile(tile0, -1)
	require.True(t, tilemesh.Succeeded(st))
	st, base1 := nav.AddTile(tile1, -1)
	require.True(t, tilemesh.Succeeded(st))

	ref0 := base0 | tilemesh.NodeRef(0)
	ref1 := base1 | tilemesh.NodeRef(0)
	return nav, ref0, ref1
}

// buildTwoDisjointTileMesh installs two 10x10 single-quad tiles far
// enough apart that AddTile never links them: any path between ref0
// and ref1 has to go through an off-mesh connection.
func buildTwoDisjointTileMesh(t *testing.T) (*tilemesh.NavMesh, tilemesh.NodeRef, tilemesh.NodeRef) {
	t.Helper()

	nav, status := tilemesh.NewNavMesh(d3.Vec3{0, 0, 0}, 10, 10, 8, 16, 256)
	require.True(t, tilemesh.Succeeded(status))

	buildQuadTile := func(x, y int32, x0, z0, x1, z1 float32) tilemesh.Tile {
		verts := []float32{
			x0, 0, z0,
			x1, 0, z0,
			x1, 0, z1,
			x0, 0, z1,
		}
		params := &tilemesh.BuildTileParams{
			X: x, Y: y,
			Bmin: d3.Vec3{x0, 0, z0},
			Bmax: d3.Vec3{x1, 1, z1},
			WalkableHeight: 2, WalkableRadius: 0.5, WalkableClimb: 0.5,
			Verts: verts,
			PolyVerts: [][6]uint16{
				{0, 1, 2, 3, 0xffff, 0xffff},
			},
			PolyFlags:   []uint16{1},
			PolyAreas:   []uint8{0},
			BuildBVTree: true,
		}
		tile, st := tilemesh.BuildTile(params)
		require.True(t, tilemesh.Succeeded(st))
		return tile
	}

	tile0 := buildQuadTile(0, 0, 0, 0, 10, 10)
	tile1 := buildQuadTile(5, 0, 50, 0, 60, 10)

	st, base0 := nav.AddTile(tile0, -1)
	require.True(t, tilemesh.Succeeded(st))
	st, base1 := nav.AddTile(tile1, -1)
	require.True(t, tilemesh.Succeeded(st))

	ref0 := base0 | tilemesh.NodeRef(0)
	ref1 := base1 | tilemesh.NodeRef(0)
	return nav, ref0, ref1
}
