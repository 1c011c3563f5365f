package tilemesh

import "github.com/arl/gogeo/f32/d3"

// QueryFilter decides which polygons a query is allowed to enter and
// what it costs to cross them. Implementations should be cheap: they
// are called on every candidate edge of every expanded search node.
type QueryFilter interface {
	// PassFilter reports whether ref may be visited.
	PassFilter(ref NodeRef, tile *Tile, poly *Poly) bool

	// Cost returns the cost of moving from pa to pb, a segment fully
	// contained within curPoly, given the polygons entered before and
	// after it.
	Cost(pa, pb d3.Vec3,
		prevRef NodeRef, prevTile *Tile, prevPoly *Poly,
		curRef NodeRef, curTile *Tile, curPoly *Poly,
		nextRef NodeRef, nextTile *Tile, nextPoly *Poly) float32
}

// StandardQueryFilter is the default QueryFilter: per-area cost
// multipliers plus include/exclude flag masks. A polygon is only ever
// considered if it has at least one include flag set and no exclude
// flags set.
type StandardQueryFilter struct {
	areaCost     [MaxAreas]float32
	includeFlags uint16
	excludeFlags uint16
}

// NewStandardQueryFilter returns a filter that includes every polygon
// flag, excludes none, and costs every area at 1.0.
func NewStandardQueryFilter() *StandardQueryFilter {
	f := &StandardQueryFilter{includeFlags: 0xffff}
	for i := range f.areaCost {
		f.areaCost[i] = 1.0
	}
	return f
}

func (f *StandardQueryFilter) AreaCost(area uint8) float32 { return f.areaCost[area] }
func (f *StandardQueryFilter) SetAreaCost(area uint8, cost float32) { f.areaCost[area] = cost }

func (f *StandardQueryFilter) IncludeFlags() uint16        { return f.includeFlags }
func (f *StandardQueryFilter) SetIncludeFlags(flags uint16) { f.includeFlags = flags }

func (f *StandardQueryFilter) ExcludeFlags() uint16        { return f.excludeFlags }
func (f *StandardQueryFilter) SetExcludeFlags(flags uint16) { f.excludeFlags = flags }

func (f *StandardQueryFilter) PassFilter(ref NodeRef, tile *Tile, poly *Poly) bool {
	return poly.Flags&f.includeFlags != 0 && poly.Flags&f.excludeFlags == 0
}

func (f *StandardQueryFilter) Cost(pa, pb d3.Vec3,
	prevRef NodeRef, prevTile *Tile, prevPoly *Poly,
	curRef NodeRef, curTile *Tile, curPoly *Poly,
	nextRef NodeRef, nextTile *Tile, nextPoly *Poly) float32 {
	return pa.Dist(pb) * f.areaCost[curPoly.Area()]
}
