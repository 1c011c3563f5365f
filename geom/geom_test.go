package geom

import (
	"testing"

	"github.com/arl/gogeo/f32/d3"
	"github.com/stretchr/testify/assert"
)

func TestTriArea2D(t *testing.T) {
	a := d3.Vec3{0, 0, 0}
	b := d3.Vec3{1, 0, 0}
	c := d3.Vec3{0, 0, 1}
	assert.NotEqual(t, float32(0), TriArea2D(a, b, c))

	// collinear points have zero signed area
	d := d3.Vec3{2, 0, 0}
	assert.Equal(t, float32(0), TriArea2D(a, b, d))
}

func TestDistancePtSegSqr2D(t *testing.T) {
	p := d3.Vec3{0, 0, 0}
	q := d3.Vec3{10, 0, 0}

	distSqr, tt := DistancePtSegSqr2D(d3.Vec3{5, 0, 5}, p, q)
	assert.InDelta(t, float32(25), distSqr, 1e-4)
	assert.InDelta(t, float32(0.5), tt, 1e-4)

	// projection clamps to the segment's endpoints
	_, tt = DistancePtSegSqr2D(d3.Vec3{-5, 0, 0}, p, q)
	assert.Equal(t, float32(0), tt)
	_, tt = DistancePtSegSqr2D(d3.Vec3{15, 0, 0}, p, q)
	assert.Equal(t, float32(1), tt)
}

func TestPointInPoly2D(t *testing.T) {
	verts := []float32{
		0, 0, 0,
		10, 0, 0,
		10, 0, 10,
		0, 0, 10,
	}
	var ed, et [4]float32
	assert.True(t, PointInPoly2D(d3.Vec3{5, 0, 5}, verts, 4, ed[:], et[:]))
	assert.False(t, PointInPoly2D(d3.Vec3{15, 0, 5}, verts, 4, ed[:], et[:]))
}

func TestIntersectSegSeg2D(t *testing.T) {
	hit, s, tt := IntersectSegSeg2D(
		d3.Vec3{0, 0, 0}, d3.Vec3{10, 0, 0},
		d3.Vec3{5, 0, -5}, d3.Vec3{5, 0, 5},
	)
	require := assert.New(t)
	require.True(hit)
	require.InDelta(float32(0.5), s, 1e-4)
	require.InDelta(float32(0.5), tt, 1e-4)

	hit, _, _ = IntersectSegSeg2D(
		d3.Vec3{0, 0, 0}, d3.Vec3{10, 0, 0},
		d3.Vec3{0, 0, 5}, d3.Vec3{10, 0, 5},
	)
	assert.False(t, hit, "parallel segments never intersect")
}

func TestIntersectSegmentPoly2D(t *testing.T) {
	verts := []float32{
		0, 0, 0,
		10, 0, 0,
		10, 0, 10,
		0, 0, 10,
	}

	tmin, tmax, segMin, segMax, hit := IntersectSegmentPoly2D(
		d3.Vec3{-5, 0, 5}, d3.Vec3{15, 0, 5}, verts, 4)
	assert.True(t, hit)
	assert.InDelta(t, float32(0.25), tmin, 1e-4)
	assert.InDelta(t, float32(0.75), tmax, 1e-4)
	assert.GreaterOrEqual(t, segMin, 0)
	assert.GreaterOrEqual(t, segMax, 0)

	// entirely inside: both endpoints are interior, so no entry/exit edge
	tmin, tmax, segMin, segMax, hit = IntersectSegmentPoly2D(
		d3.Vec3{2, 0, 2}, d3.Vec3{8, 0, 8}, verts, 4)
	assert.True(t, hit)
	assert.Equal(t, -1, segMin)
	assert.Equal(t, -1, segMax)
	assert.Equal(t, float32(0), tmin)
	assert.Equal(t, float32(1), tmax)

	// misses the polygon entirely
	_, _, _, _, hit = IntersectSegmentPoly2D(
		d3.Vec3{-5, 0, 20}, d3.Vec3{15, 0, 20}, verts, 4)
	assert.False(t, hit)
}

func TestClosestHeightPointTriangle(t *testing.T) {
	a := d3.Vec3{0, 0, 0}
	b := d3.Vec3{10, 2, 0}
	c := d3.Vec3{0, 4, 10}

	h, ok := ClosestHeightPointTriangle(d3.Vec3{0, 0, 0}, a, b, c)
	assert.True(t, ok)
	assert.InDelta(t, float32(0), h, 1e-4)

	_, ok = ClosestHeightPointTriangle(d3.Vec3{-5, 0, -5}, a, b, c)
	assert.False(t, ok, "point outside the triangle has no interpolated height")
}

func TestOverlapBounds(t *testing.T) {
	assert.True(t, OverlapBounds(
		d3.Vec3{0, 0, 0}, d3.Vec3{10, 10, 10},
		d3.Vec3{5, 5, 5}, d3.Vec3{15, 15, 15}))
	assert.False(t, OverlapBounds(
		d3.Vec3{0, 0, 0}, d3.Vec3{10, 10, 10},
		d3.Vec3{20, 20, 20}, d3.Vec3{30, 30, 30}))
}

func TestOverlapQuantBounds(t *testing.T) {
	assert.True(t, OverlapQuantBounds(
		[3]uint16{0, 0, 0}, [3]uint16{10, 10, 10},
		[3]uint16{5, 5, 5}, [3]uint16{15, 15, 15}))
	assert.False(t, OverlapQuantBounds(
		[3]uint16{0, 0, 0}, [3]uint16{10, 10, 10},
		[3]uint16{20, 20, 20}, [3]uint16{30, 30, 30}))
}

func TestRandomPointInConvexPoly(t *testing.T) {
	verts := []float32{
		0, 0, 0,
		10, 0, 0,
		10, 0, 10,
		0, 0, 10,
	}
	var areas [4]float32
	pt := RandomPointInConvexPoly(verts, 4, areas[:], 0.3, 0.7)
	assert.GreaterOrEqual(t, pt[0], float32(0))
	assert.LessOrEqual(t, pt[0], float32(10))
	assert.GreaterOrEqual(t, pt[2], float32(0))
	assert.LessOrEqual(t, pt[2], float32(10))
}
