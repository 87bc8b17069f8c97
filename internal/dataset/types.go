// Package dataset loads and memoizes the two remote reference datasets:
// enumeration-area boundaries (GeoJSON polygons) and concession points (CSV).
package dataset

import (
	"github.com/twpayne/go-geom"
)

const (
	Boundaries  = "boundaries"
	Concessions = "concessions"
)

// Boundary is one enumeration-area unit. Missing attributes default to the
// zero value at load; the geometry is always valid and non-empty.
type Boundary struct {
	Region  string
	Cercle  string
	Commune string
	UnitID  string
	PopSE   float64
	PopSECT float64
	Geom    *geom.MultiPolygon
}

// BoundaryTable is immutable after load; filtering yields new tables
// sharing the underlying rows.
type BoundaryTable struct {
	Rows []Boundary
}

func (t *BoundaryTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Bounds returns the envelope of every geometry in the table. ok is false
// for an empty table.
func (t *BoundaryTable) Bounds() (b *geom.Bounds, ok bool) {
	if t.Len() == 0 {
		return nil, false
	}
	out := geom.NewBounds(geom.XY)
	for _, r := range t.Rows {
		out.Extend(r.Geom)
	}
	return out, true
}

// Concession is one household point location. Fields carries every CSV
// column as raw text; numeric coercion happens at aggregation time.
type Concession struct {
	Lat    float64
	Lon    float64
	Fields map[string]string
}

// Coord returns the point in lon/lat order.
func (c Concession) Coord() geom.Coord {
	return geom.Coord{c.Lon, c.Lat}
}

type ConcessionTable struct {
	Columns []string
	Rows    []Concession
}

func (t *ConcessionTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// EmptyLike returns an empty table with the same column shape, the
// degenerate-input result the aggregator hands back instead of an error.
func (t *ConcessionTable) EmptyLike() *ConcessionTable {
	if t == nil {
		return &ConcessionTable{}
	}
	cols := make([]string, len(t.Columns))
	copy(cols, t.Columns)
	return &ConcessionTable{Columns: cols}
}
