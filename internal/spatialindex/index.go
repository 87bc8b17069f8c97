// Package spatialindex buckets concession points by H3 cell so containment
// tests only run against candidates near the target polygon. The candidate
// set is a superset; the exact predicate still decides membership.
package spatialindex

import (
	"sort"

	"github.com/twpayne/go-geom"
	h3 "github.com/uber/h3-go/v4"

	"github.com/mocamara/se-atlas/internal/dataset"
)

type Index struct {
	res   int
	cells map[h3.Cell][]int
	// points that could not be assigned a cell are candidates for every
	// query so nothing is ever missed
	unindexed []int
}

func New(t *dataset.ConcessionTable, res int) *Index {
	ix := &Index{res: res, cells: make(map[h3.Cell][]int, t.Len())}
	for i, row := range t.Rows {
		cell, err := h3.LatLngToCell(h3.LatLng{Lat: row.Lat, Lng: row.Lon}, res)
		if err != nil {
			ix.unindexed = append(ix.unindexed, i)
			continue
		}
		ix.cells[cell] = append(ix.cells[cell], i)
	}
	return ix
}

// Candidates returns the indices of points that may fall inside the
// surface. ok is false when the polygon cannot be polyfilled, telling the
// caller to scan the whole table instead.
func (ix *Index) Candidates(mp *geom.MultiPolygon) ([]int, bool) {
	if ix == nil || mp == nil {
		return nil, false
	}

	seen := make(map[h3.Cell]struct{})
	for p := 0; p < mp.NumPolygons(); p++ {
		poly, ok := toGeoPolygon(mp.Polygon(p))
		if !ok {
			return nil, false
		}
		cells, err := h3.PolygonToCells(poly, ix.res)
		if err != nil {
			return nil, false
		}
		// polyfill keeps cells whose center is inside; a polygon smaller
		// than one cell yields no cells at all, and the prefilter cannot
		// bound it
		if len(cells) == 0 {
			return nil, false
		}
		// one ring of neighbors covers the boundary cells the center
		// test misses
		for _, c := range cells {
			disk, err := h3.GridDisk(c, 1)
			if err != nil {
				return nil, false
			}
			for _, d := range disk {
				seen[d] = struct{}{}
			}
		}
	}

	var out []int
	for c := range seen {
		out = append(out, ix.cells[c]...)
	}
	out = append(out, ix.unindexed...)
	sort.Ints(out)
	return out, true
}

func toGeoPolygon(p *geom.Polygon) (h3.GeoPolygon, bool) {
	if p.NumLinearRings() == 0 {
		return h3.GeoPolygon{}, false
	}
	outer := toLoop(p.LinearRing(0))
	if len(outer) < 3 {
		return h3.GeoPolygon{}, false
	}
	var holes []h3.GeoLoop
	for r := 1; r < p.NumLinearRings(); r++ {
		h := toLoop(p.LinearRing(r))
		if len(h) < 3 {
			return h3.GeoPolygon{}, false
		}
		holes = append(holes, h)
	}
	return h3.GeoPolygon{GeoLoop: outer, Holes: holes}, true
}

// toLoop converts a ring to an h3.GeoLoop in degrees, dropping the
// duplicated closing vertex.
func toLoop(ring *geom.LinearRing) h3.GeoLoop {
	fc := ring.FlatCoords()
	stride := ring.Stride()
	n := len(fc) / stride
	loop := make(h3.GeoLoop, 0, n)
	for i := 0; i < n; i++ {
		loop = append(loop, h3.LatLng{Lat: fc[i*stride+1], Lng: fc[i*stride]})
	}
	if len(loop) >= 2 {
		last := loop[len(loop)-1]
		first := loop[0]
		if last.Lat == first.Lat && last.Lng == first.Lng {
			loop = loop[:len(loop)-1]
		}
	}
	return loop
}
