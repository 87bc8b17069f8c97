package geo

import (
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
)

// Covers reports boundary-inclusive membership: the point is inside the
// surface or on its boundary. This is the predicate used when joining
// concession points against administrative subsets.
func Covers(mp *geom.MultiPolygon, c geom.Coord) bool {
	interior, boundary := locate(mp, c)
	return interior || boundary
}

// ContainsStrict reports boundary-exclusive membership: the point is
// strictly inside the surface. This is the predicate used for freehand
// drawn polygons. The two predicates are deliberately distinct; see the
// aggregate package.
func ContainsStrict(mp *geom.MultiPolygon, c geom.Coord) bool {
	interior, boundary := locate(mp, c)
	return interior && !boundary
}

func locate(mp *geom.MultiPolygon, c geom.Coord) (interior, boundary bool) {
	if mp == nil {
		return false, false
	}
	for i := 0; i < mp.NumPolygons(); i++ {
		in, on := locatePolygon(mp.Polygon(i), c)
		if on {
			boundary = true
		}
		if in {
			interior = true
		}
	}
	return interior, boundary
}

func locatePolygon(p *geom.Polygon, c geom.Coord) (interior, boundary bool) {
	if p.NumLinearRings() == 0 {
		return false, false
	}
	for r := 0; r < p.NumLinearRings(); r++ {
		if xy.IsOnLine(geom.XY, c, p.LinearRing(r).FlatCoords()) {
			return false, true
		}
	}
	if !xy.IsPointInRing(geom.XY, c, p.LinearRing(0).FlatCoords()) {
		return false, false
	}
	// inside the shell; holes exclude
	for r := 1; r < p.NumLinearRings(); r++ {
		if xy.IsPointInRing(geom.XY, c, p.LinearRing(r).FlatCoords()) {
			return false, false
		}
	}
	return true, false
}
