package objimport

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeOBJ(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "mesh.obj")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadTriangleFaceBecomesOnePoly(t *testing.T) {
	path := writeOBJ(t, "v 0 0 0\nv 10 0 0\nv 10 0 10\nf 1 2 3\n")

	params, err := Load(path, DefaultOptions())
	require.NoError(t, err)

	require.Len(t, params.PolyVerts, 1)
	assert.Equal(t, uint16(0), params.PolyVerts[0][0])
	assert.Equal(t, uint16(1), params.PolyVerts[0][1])
	assert.Equal(t, uint16(2), params.PolyVerts[0][2])
	assert.Equal(t, uint16(0xffff), params.PolyVerts[0][3])
	assert.Equal(t, []uint16{1}, params.PolyFlags)
	assert.Len(t, params.Verts, 9)
}

func TestLoadQuadFaceKeptWhole(t *testing.T) {
	path := writeOBJ(t, "v 0 0 0\nv 10 0 0\nv 10 0 10\nv 0 0 10\nf 1 2 3 4\n")

	params, err := Load(path, DefaultOptions())
	require.NoError(t, err)

	require.Len(t, params.PolyVerts, 1, "a quad fits within VertsPerPoly so it isn't split")
	assert.Equal(t, uint16(3), params.PolyVerts[0][3])
	assert.Equal(t, uint16(0xffff), params.PolyVerts[0][4])
}

func TestLoadSharedVertexIsDeduplicated(t *testing.T) {
	path := writeOBJ(t, "v 0 0 0\nv 10 0 0\nv 10 0 10\nv 0 0 10\nf 1 2 3\nf 1 3 4\n")

	params, err := Load(path, DefaultOptions())
	require.NoError(t, err)

	assert.Len(t, params.Verts, 12, "4 distinct positions shared across the two faces")
	require.Len(t, params.PolyVerts, 2)
	assert.Equal(t, params.PolyVerts[0][0], params.PolyVerts[1][0], "vertex 1 is shared by both faces")
}

func TestLoadAppliesScale(t *testing.T) {
	path := writeOBJ(t, "v 1 2 3\nv 4 5 6\nv 7 8 9\nf 1 2 3\n")

	opts := DefaultOptions()
	opts.Scale = 2
	params, err := Load(path, opts)
	require.NoError(t, err)

	assert.InDelta(t, float32(2), params.Verts[0], 1e-4)
	assert.InDelta(t, float32(4), params.Verts[1], 1e-4)
	assert.InDelta(t, float32(6), params.Verts[2], 1e-4)
}

func TestLoadComputesBounds(t *testing.T) {
	path := writeOBJ(t, "v -1 0 -2\nv 10 1 0\nv 0 0 10\nf 1 2 3\n")

	params, err := Load(path, DefaultOptions())
	require.NoError(t, err)

	assert.InDelta(t, float32(-1), params.Bmin[0], 1e-4)
	assert.InDelta(t, float32(0), params.Bmin[1], 1e-4)
	assert.InDelta(t, float32(-2), params.Bmin[2], 1e-4)
	assert.InDelta(t, float32(10), params.Bmax[0], 1e-4)
	assert.InDelta(t, float32(1), params.Bmax[1], 1e-4)
	assert.InDelta(t, float32(10), params.Bmax[2], 1e-4)
}

func TestLoadMissingFileErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.obj"), DefaultOptions())
	assert.Error(t, err)
}
