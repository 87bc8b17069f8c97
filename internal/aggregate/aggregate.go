// Package aggregate implements point-in-polygon membership and column sums
// over the concession table.
//
// Two containment predicates exist on purpose and must not be collapsed:
// joins against administrative subsets are boundary-inclusive (Covers)
// while freehand drawn polygons use strict containment (ContainsStrict).
package aggregate

import (
	"strconv"
	"strings"
	"time"

	"github.com/twpayne/go-geom"

	"github.com/mocamara/se-atlas/internal/core/observability"
	"github.com/mocamara/se-atlas/internal/dataset"
	"github.com/mocamara/se-atlas/internal/geo"
)

// CandidateIndex narrows the rows worth testing against a surface. A nil
// index or a false ok falls back to scanning the whole table.
type CandidateIndex interface {
	Candidates(mp *geom.MultiPolygon) ([]int, bool)
}

// JoinIntersects returns the points covered by at least one boundary in the
// subset, boundary points included. Degenerate inputs yield an empty table
// with the point table's column shape, never an error.
func JoinIntersects(pts *dataset.ConcessionTable, bounds *dataset.BoundaryTable, idx CandidateIndex) *dataset.ConcessionTable {
	if pts.Len() == 0 || bounds.Len() == 0 {
		return pts.EmptyLike()
	}

	start := time.Now()
	matched := make([]bool, pts.Len())
	for _, b := range bounds.Rows {
		for _, i := range candidates(pts, b.Geom, idx) {
			if matched[i] {
				continue
			}
			if geo.Covers(b.Geom, pts.Rows[i].Coord()) {
				matched[i] = true
			}
		}
	}
	out := collect(pts, matched)
	observability.ObserveAggregation("intersects", time.Since(start).Seconds())
	return out
}

// Within returns the points strictly inside the surface, boundary points
// excluded. Same degenerate-input contract as JoinIntersects.
func Within(pts *dataset.ConcessionTable, surface *geom.MultiPolygon, idx CandidateIndex) *dataset.ConcessionTable {
	if pts.Len() == 0 || surface == nil || surface.NumPolygons() == 0 {
		return pts.EmptyLike()
	}

	start := time.Now()
	matched := make([]bool, pts.Len())
	for _, i := range candidates(pts, surface, idx) {
		if geo.ContainsStrict(surface, pts.Rows[i].Coord()) {
			matched[i] = true
		}
	}
	out := collect(pts, matched)
	observability.ObserveAggregation("within", time.Since(start).Seconds())
	return out
}

// SumCounts coerces each named column to numeric (missing or non-numeric
// values count as zero) and sums it, reporting integer counts.
func SumCounts(t *dataset.ConcessionTable, cols ...string) map[string]int64 {
	out := make(map[string]int64, len(cols))
	for _, c := range cols {
		var sum float64
		for _, r := range t.Rows {
			sum += Coerce(r.Fields[c])
		}
		out[c] = int64(sum)
	}
	return out
}

// Coerce parses a raw field as a number; anything unparseable is zero.
// Coercion is idempotent: a formatted numeric value round-trips unchanged.
func Coerce(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}

func candidates(pts *dataset.ConcessionTable, mp *geom.MultiPolygon, idx CandidateIndex) []int {
	if idx != nil {
		if c, ok := idx.Candidates(mp); ok {
			return c
		}
	}
	all := make([]int, pts.Len())
	for i := range all {
		all[i] = i
	}
	return all
}

// collect preserves the input row order, so output is always a subset of
// the input table.
func collect(pts *dataset.ConcessionTable, matched []bool) *dataset.ConcessionTable {
	out := pts.EmptyLike()
	for i, ok := range matched {
		if ok {
			out.Rows = append(out.Rows, pts.Rows[i])
		}
	}
	return out
}
