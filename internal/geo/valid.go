package geo

import (
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy/lineintersector"
)

// Valid reports whether an areal geometry is usable: non-empty, every ring
// closed with at least four vertices, and no ring self-intersection. Rows
// failing this are dropped at load time rather than surfaced as errors.
func Valid(mp *geom.MultiPolygon) bool {
	if mp == nil || mp.NumPolygons() == 0 {
		return false
	}
	for i := 0; i < mp.NumPolygons(); i++ {
		p := mp.Polygon(i)
		if p.NumLinearRings() == 0 {
			return false
		}
		for r := 0; r < p.NumLinearRings(); r++ {
			if !validRing(p.LinearRing(r)) {
				return false
			}
		}
	}
	return true
}

func validRing(ring *geom.LinearRing) bool {
	fc := ring.FlatCoords()
	stride := ring.Stride()
	n := len(fc) / stride
	if n < 4 {
		return false
	}
	if fc[0] != fc[(n-1)*stride] || fc[1] != fc[(n-1)*stride+1] {
		return false
	}
	return !ringSelfIntersects(fc, stride, n)
}

// ringSelfIntersects tests every non-adjacent segment pair. O(n^2) is fine
// at the ring sizes enumeration areas have.
func ringSelfIntersects(fc []float64, stride, n int) bool {
	segs := n - 1
	at := func(i int) geom.Coord {
		return geom.Coord{fc[i*stride], fc[i*stride+1]}
	}
	strategy := lineintersector.RobustLineIntersector{}
	for i := 0; i < segs; i++ {
		for j := i + 2; j < segs; j++ {
			// first and last segments share the closing vertex
			if i == 0 && j == segs-1 {
				continue
			}
			res := lineintersector.LineIntersectsLine(strategy, at(i), at(i+1), at(j), at(j+1))
			if res.HasIntersection() {
				return true
			}
		}
	}
	return false
}
