// Package geom implements the 2D/3D primitive predicates the navmesh
// engine builds on: point-in-polygon and point-to-segment tests in the
// xz plane, segment/segment and segment/polygon intersection, triangle
// signed area, closest-height-on-triangle, and random sampling inside a
// convex polygon.
//
// All of it operates on the xz (horizontal) plane for 2D tests, with y
// (height) handled separately where it matters, matching the convention
// used throughout the navmesh runtime: agents move on a horizontal
// surface and y is a derived height, not a search dimension.
package geom

import (
	"github.com/arl/gogeo/f32/d3"
	"github.com/arl/math32"
)

// TriArea2D returns the signed xz-plane area of the triangle abc, or
// equivalently the relationship of line ab to point c: positive if c is
// to the left of ab, negative if to the right, zero if collinear.
func TriArea2D(a, b, c d3.Vec3) float32 {
	abx := b[0] - a[0]
	abz := b[2] - a[2]
	acx := c[0] - a[0]
	acz := c[2] - a[2]
	return acx*abz - abx*acz
}

// DistancePtSegSqr2D returns the squared xz-distance from pt to the
// segment pq, along with the normalized projection t of pt onto pq
// (clamped to [0,1]).
func DistancePtSegSqr2D(pt, p, q d3.Vec3) (distSqr, t float32) {
	pqx := q[0] - p[0]
	pqz := q[2] - p[2]
	dx := pt[0] - p[0]
	dz := pt[2] - p[2]
	d := pqx*pqx + pqz*pqz
	t = pqx*dx + pqz*dz
	if d > 0 {
		t /= d
	}
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	dx = p[0] + t*pqx - pt[0]
	dz = p[2] + t*pqz - pt[2]
	return dx*dx + dz*dz, t
}

// PointInPoly2D returns true if pt lies within the polygon described by
// verts (a flat xyz array of nverts vertices), tested in the xz plane.
// As a side effect it fills ed/et (must have capacity nverts) with the
// squared distance and projection of pt against every boundary edge —
// callers that need the nearest-edge fallback get it for free.
func PointInPoly2D(pt d3.Vec3, verts []float32, nverts int32, ed, et []float32) bool {
	c := false
	for i, j := int32(0), nverts-1; i < nverts; i++ {
		vi := verts[i*3 : i*3+3]
		vj := verts[j*3 : j*3+3]
		if ((vi[2] > pt[2]) != (vj[2] > pt[2])) &&
			(pt[0] < (vj[0]-vi[0])*(pt[2]-vi[2])/(vj[2]-vi[2])+vi[0]) {
			c = !c
		}
		ed[j], et[j] = DistancePtSegSqr2D(pt, vj, vi)
		j = i
	}
	return c
}

// IntersectSegSeg2D returns whether segments ap-aq and bp-bq intersect
// in the xz plane and, if so, the parametric s (along ap-aq) and t
// (along bp-bq) of the intersection point.
func IntersectSegSeg2D(ap, aq, bp, bq d3.Vec3) (hit bool, s, t float32) {
	u := aq.Sub(ap)
	v := bq.Sub(bp)
	w := ap.Sub(bp)

	d := u.Perp2D(v)
	if math32.Abs(d) < 1e-6 {
		return false, 0, 0
	}
	return true, v.Perp2D(w) / d, u.Perp2D(w) / d
}

// IntersectSegmentPoly2D clips the segment p0-p1 against the convex
// polygon verts (nverts vertices) in the xz plane. It returns the entry
///exit parameters tmin/tmax along the segment, the indices of the
// entry/exit edges (segMin/segMax, -1 if the corresponding endpoint
// starts inside), and whether the segment intersects the polygon at
// all.
func IntersectSegmentPoly2D(p0, p1 d3.Vec3, verts []float32, nverts int) (tmin, tmax float32, segMin, segMax int, hit bool) {
	const eps float32 = 1e-8

	tmin = 0
	tmax = 1
	segMin = -1
	segMax = -1

	dir := p1.Sub(p0)
	j := nverts - 1
	for i := 0; i < nverts; i++ {
		edge := d3.Vec3(verts[i*3:]).Sub(d3.Vec3(verts[j*3:]))
		diff := p0.Sub(d3.Vec3(verts[j*3:]))
		n := edge.Perp2D(diff)
		d := dir.Perp2D(edge)
		if math32.Abs(d) < eps {
			// segment is nearly parallel to this edge
			if n < 0 {
				return tmin, tmax, segMin, segMax, false
			}
			j = i
			continue
		}
		t := n / d
		if d < 0 {
			// entering across this edge
			if t > tmin {
				tmin = t
				segMin = j
				if tmin > tmax {
					return tmin, tmax, segMin, segMax, false
				}
			}
		} else {
			// leaving across this edge
			if t < tmax {
				tmax = t
				segMax = j
				if tmax < tmin {
					return tmin, tmax, segMin, segMax, false
				}
			}
		}
		j = i
	}
	return tmin, tmax, segMin, segMax, true
}

// ClosestHeightPointTriangle computes the y (height) of the vertical
// projection of p onto the triangle abc, assuming p's xz falls inside
// the triangle. Returns false (degenerate triangle, or p outside) when
// no height could be derived.
func ClosestHeightPointTriangle(p, a, b, c d3.Vec3) (h float32, ok bool) {
	v0 := c.Sub(a)
	v1 := b.Sub(a)
	v2 := p.Sub(a)

	dot00 := v0.Dot2D(v0)
	dot01 := v0.Dot2D(v1)
	dot02 := v0.Dot2D(v2)
	dot11 := v1.Dot2D(v1)
	dot12 := v1.Dot2D(v2)

	denom := dot00*dot11 - dot01*dot01
	if math32.Abs(denom) < 1e-12 {
		return 0, false
	}
	invDenom := 1.0 / denom
	u := (dot11*dot02 - dot01*dot12) * invDenom
	v := (dot00*dot12 - dot01*dot02) * invDenom

	// sloppy epsilon lets points interpolated exactly on a triangle edge
	// still report a height.
	const eps = 1e-4
	if u >= -eps && v >= -eps && (u+v) <= 1+eps {
		return a[1] + v0[1]*u + v1[1]*v, true
	}
	return 0, false
}

// OverlapBounds reports whether two float AABBs overlap.
func OverlapBounds(amin, amax, bmin, bmax d3.Vec3) bool {
	if amin[0] > bmax[0] || amax[0] < bmin[0] {
		return false
	}
	if amin[1] > bmax[1] || amax[1] < bmin[1] {
		return false
	}
	if amin[2] > bmax[2] || amax[2] < bmin[2] {
		return false
	}
	return true
}

// OverlapQuantBounds reports whether two quantized (uint16) AABBs
// overlap — used to walk a tile's BV tree against a quantized query box.
func OverlapQuantBounds(amin, amax, bmin, bmax [3]uint16) bool {
	if amin[0] > bmax[0] || amax[0] < bmin[0] {
		return false
	}
	if amin[1] > bmax[1] || amax[1] < bmin[1] {
		return false
	}
	if amin[2] > bmax[2] || amax[2] < bmin[2] {
		return false
	}
	return true
}

// RandomPointInConvexPoly samples a uniformly-distributed point inside
// the convex polygon pts (npts xyz vertices) given two uniform random
// numbers s,t in [0,1). areas must have capacity npts and is used as
// scratch for the per-triangle area weights.
func RandomPointInConvexPoly(pts []float32, npts int, areas []float32, s, t float32) d3.Vec3 {
	// triangle fan from vertex 0; weight each triangle by its area so the
	// sample is uniform over the whole polygon, not just uniform over
	// triangle index.
	var areasum float32
	for i := 2; i < npts; i++ {
		areas[i] = triArea2D3(
			d3.Vec3(pts[0:3]),
			d3.Vec3(pts[(i-1)*3:(i-1)*3+3]),
			d3.Vec3(pts[i*3:i*3+3]))
		areasum += math32.Max(areas[i], 0.001)
	}
	threshold := s * areasum
	var acc float32
	frac := float32(1)
	triIndex := 2
	for ; triIndex < npts; triIndex++ {
		w := math32.Max(areas[triIndex], 0.001)
		if threshold < acc+w {
			frac = (threshold - acc) / w
			break
		}
		acc += w
	}
	if triIndex >= npts {
		triIndex = npts - 1
	}

	// pick a random point inside the selected triangle via barycentric
	// sampling of the unit square folded along its diagonal.
	u := math32.Sqrt(t)
	a := 1 - u
	b := (1 - frac) * u
	c := frac * u
	pa := d3.Vec3(pts[0:3])
	pb := d3.Vec3(pts[(triIndex-1)*3 : (triIndex-1)*3+3])
	pc := d3.Vec3(pts[triIndex*3 : triIndex*3+3])

	out := d3.NewVec3()
	for i := 0; i < 3; i++ {
		out[i] = a*pa[i] + b*pb[i] + c*pc[i]
	}
	return out
}

func triArea2D3(a, b, c d3.Vec3) float32 {
	v := TriArea2D(a, b, c)
	if v < 0 {
		return -v
	}
	return v
}
