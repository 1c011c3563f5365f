package tilemesh

import (
	"testing"

	"github.com/arl/gogeo/f32/d3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildQuadTile(t *testing.T, x, y int32, x0, z0, x1, z1 float32) Tile {
	t.Helper()
	verts := []float32{
		x0, 0, z0,
		x1, 0, z0,
		x1, 0, z1,
		x0, 0, z1,
	}
	params := &BuildTileParams{
		X: x, Y: y,
		Bmin: d3.Vec3{x0, 0, z0},
		Bmax: d3.Vec3{x1, 1, z1},
		WalkableHeight: 2, WalkableRadius: 0.5, WalkableClimb: 0.5,
		Verts: verts,
		PolyVerts: [][VertsPerPoly]uint16{
			{0, 1, 2, 3, 0xffff, 0xffff},
		},
		PolyFlags:   []uint16{1},
		PolyAreas:   []uint8{0},
		BuildBVTree: true,
	}
	tile, status := BuildTile(params)
	require.True(t, Succeeded(status))
	return tile
}

func TestAddTileConnectsAdjacentTiles(t *testing.T) {
	nav, status := NewNavMesh(d3.Vec3{0, 0, 0}, 10, 10, 8, 16, 256)
	require.True(t, Succeeded(status))

	tile0 := buildQuadTile(t, 0, 0, 0, 0, 10, 10)
	tile1 := buildQuadTile(t, 1, 0, 10, 0, 20, 10)

	status, base0 := nav.AddTile(tile0, -1)
	require.True(t, Succeeded(status))
	status, base1 := nav.AddTile(tile1, -1)
	require.True(t, Succeeded(status))

	_, poly0, ok := nav.TileAndPolyByRef(base0)
	require.True(t, ok)
	assert.NotEqual(t, nullLink, poly0.FirstLink, "tile0's poly should have gained a cross-tile link")

	_, poly1, ok := nav.TileAndPolyByRef(base1)
	require.True(t, ok)
	assert.NotEqual(t, nullLink, poly1.FirstLink)

	link0, ok := nav.Links().AtIndex(int32(poly0.FirstLink))
	require.True(t, ok)
	assert.Equal(t, base1, link0.Ref)
}

func TestAddTileRejectsDuplicateCell(t *testing.T) {
	nav, status := NewNavMesh(d3.Vec3{0, 0, 0}, 10, 10, 8, 16, 256)
	require.True(t, Succeeded(status))

	tile0 := buildQuadTile(t, 0, 0, 0, 0, 10, 10)
	status, _ = nav.AddTile(tile0, -1)
	require.True(t, Succeeded(status))

	tile0dup := buildQuadTile(t, 0, 0, 0, 0, 10, 10)
	status, _ = nav.AddTile(tile0dup, -1)
	assert.True(t, Failed(status))
}

func TestRemoveTileInvalidatesReferences(t *testing.T) {
	nav, status := NewNavMesh(d3.Vec3{0, 0, 0}, 10, 10, 8, 16, 256)
	require.True(t, Succeeded(status))

	tile0 := buildQuadTile(t, 0, 0, 0, 0, 10, 10)
	status, base0 := nav.AddTile(tile0, -1)
	require.True(t, Succeeded(status))
	assert.True(t, nav.IsValidNodeRef(base0))

	_, slot, status := nav.RemoveTile(base0)
	require.True(t, Succeeded(status))
	assert.False(t, nav.IsValidNodeRef(base0), "ref captured before removal must no longer validate")

	// RemoveTile bumped the slot's salt, so reinstalling at the freed
	// slot yields a new ref and the old ref still doesn't resolve even
	// though the cell is live again.
	tile0b := buildQuadTile(t, 0, 0, 0, 0, 10, 10)
	status, base0b := nav.AddTile(tile0b, slot)
	require.True(t, Succeeded(status))
	assert.NotEqual(t, base0, base0b)
	assert.True(t, nav.IsValidNodeRef(base0b))
}

func TestFindNearestPolyInTile(t *testing.T) {
	nav, status := NewNavMesh(d3.Vec3{0, 0, 0}, 10, 10, 8, 16, 256)
	require.True(t, Succeeded(status))

	tile0 := buildQuadTile(t, 0, 0, 0, 0, 10, 10)
	status, base0 := nav.AddTile(tile0, -1)
	require.True(t, Succeeded(status))

	tile, _, _ := nav.TileAndPolyByRef(base0)
	ref, nearest, found := nav.FindNearestPolyInTile(tile, d3.Vec3{5, 0, 5}, d3.Vec3{1, 3, 1})
	require.True(t, found)
	assert.Equal(t, base0, ref)
	assert.InDelta(t, float32(5), nearest[0], 1e-3)
	assert.InDelta(t, float32(0), nearest[1], 1e-3)
}

func TestClosestPointOnPolyClampsOutsidePoint(t *testing.T) {
	nav, status := NewNavMesh(d3.Vec3{0, 0, 0}, 10, 10, 8, 16, 256)
	require.True(t, Succeeded(status))

	tile0 := buildQuadTile(t, 0, 0, 0, 0, 10, 10)
	status, base0 := nav.AddTile(tile0, -1)
	require.True(t, Succeeded(status))

	closest, over := nav.ClosestPointOnPoly(base0, d3.Vec3{5, 0, 5})
	assert.True(t, over)
	assert.Equal(t, d3.Vec3{5, 0, 5}, closest)

	closest, over = nav.ClosestPointOnPoly(base0, d3.Vec3{-5, 0, 5})
	assert.False(t, over)
	assert.InDelta(t, float32(0), closest[0], 1e-3)
}

func TestCalcTileLoc(t *testing.T) {
	nav, status := NewNavMesh(d3.Vec3{0, 0, 0}, 10, 10, 8, 16, 256)
	require.True(t, Succeeded(status))

	tx, ty := nav.CalcTileLoc(d3.Vec3{15, 0, 25})
	assert.Equal(t, int32(1), tx)
	assert.Equal(t, int32(2), ty)
}

func TestEachTile(t *testing.T) {
	nav, status := NewNavMesh(d3.Vec3{0, 0, 0}, 10, 10, 8, 16, 256)
	require.True(t, Succeeded(status))

	tile0 := buildQuadTile(t, 0, 0, 0, 0, 10, 10)
	tile1 := buildQuadTile(t, 1, 0, 10, 0, 20, 10)
	_, base0 := nav.AddTile(tile0, -1)
	_, base1 := nav.AddTile(tile1, -1)

	var seen []NodeRef
	nav.EachTile(func(tl *Tile) {
		seen = append(seen, nav.NodeRefBase(tl))
	})
	assert.ElementsMatch(t, []NodeRef{base0, base1}, seen)
}
