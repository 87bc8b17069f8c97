package geo

import (
	"strings"
	"testing"

	"github.com/twpayne/go-geom"
)

// unit square (0,0)-(10,10) as a MultiPolygon
func square(t *testing.T) *geom.MultiPolygon {
	t.Helper()
	g, err := DecodeGeometry([]byte(`{"type":"Polygon","coordinates":[[[0,0],[10,0],[10,10],[0,10],[0,0]]]}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	mp, err := AsMultiPolygon(g)
	if err != nil {
		t.Fatalf("promote: %v", err)
	}
	return mp
}

func donut(t *testing.T) *geom.MultiPolygon {
	t.Helper()
	g, err := DecodeGeometry([]byte(`{"type":"Polygon","coordinates":[
		[[0,0],[10,0],[10,10],[0,10],[0,0]],
		[[4,4],[6,4],[6,6],[4,6],[4,4]]]}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	mp, err := AsMultiPolygon(g)
	if err != nil {
		t.Fatalf("promote: %v", err)
	}
	return mp
}

func TestCovers_InteriorAndBoundary(t *testing.T) {
	mp := square(t)

	cases := []struct {
		name string
		c    geom.Coord
		want bool
	}{
		{"interior", geom.Coord{5, 5}, true},
		{"edge", geom.Coord{10, 5}, true},
		{"vertex", geom.Coord{0, 0}, true},
		{"outside", geom.Coord{11, 5}, false},
	}
	for _, tc := range cases {
		if got := Covers(mp, tc.c); got != tc.want {
			t.Errorf("%s: Covers=%v want %v", tc.name, got, tc.want)
		}
	}
}

func TestContainsStrict_ExcludesBoundary(t *testing.T) {
	mp := square(t)

	if !ContainsStrict(mp, geom.Coord{5, 5}) {
		t.Fatalf("interior point not contained")
	}
	if ContainsStrict(mp, geom.Coord{10, 5}) {
		t.Fatalf("edge point contained by strict predicate")
	}
	if ContainsStrict(mp, geom.Coord{0, 0}) {
		t.Fatalf("vertex contained by strict predicate")
	}
	if ContainsStrict(mp, geom.Coord{-1, -1}) {
		t.Fatalf("outside point contained")
	}
}

func TestContainment_Hole(t *testing.T) {
	mp := donut(t)

	if Covers(mp, geom.Coord{5, 5}) {
		t.Fatalf("point inside hole covered")
	}
	if !Covers(mp, geom.Coord{2, 2}) {
		t.Fatalf("point between shell and hole not covered")
	}
	if ContainsStrict(mp, geom.Coord{5, 5}) {
		t.Fatalf("point inside hole strictly contained")
	}
}

func TestContainment_NilSurface(t *testing.T) {
	if Covers(nil, geom.Coord{0, 0}) || ContainsStrict(nil, geom.Coord{0, 0}) {
		t.Fatalf("nil surface must contain nothing")
	}
}

func TestValid_AcceptsSimpleRing(t *testing.T) {
	if !Valid(square(t)) {
		t.Fatalf("square reported invalid")
	}
	if !Valid(donut(t)) {
		t.Fatalf("donut reported invalid")
	}
}

func TestValid_RejectsBowtie(t *testing.T) {
	g, err := DecodeGeometry([]byte(`{"type":"Polygon","coordinates":[[[0,0],[10,10],[10,0],[0,10],[0,0]]]}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	mp, err := AsMultiPolygon(g)
	if err != nil {
		t.Fatalf("promote: %v", err)
	}
	if Valid(mp) {
		t.Fatalf("self-intersecting ring reported valid")
	}
}

func TestValid_RejectsEmpty(t *testing.T) {
	if Valid(nil) {
		t.Fatalf("nil reported valid")
	}
	if Valid(geom.NewMultiPolygon(geom.XY)) {
		t.Fatalf("empty multipolygon reported valid")
	}
}

func TestAsMultiPolygon_RejectsNonAreal(t *testing.T) {
	if _, err := AsMultiPolygon(NewPoint(1, 2)); err == nil {
		t.Fatalf("point promoted to surface")
	}
}

func TestCanonicalWKT_Stable(t *testing.T) {
	a, err := CanonicalWKT(square(t))
	if err != nil {
		t.Fatalf("wkt: %v", err)
	}
	b, err := CanonicalWKT(square(t))
	if err != nil {
		t.Fatalf("wkt: %v", err)
	}
	if a != b {
		t.Fatalf("same geometry rendered differently: %q vs %q", a, b)
	}
	if !strings.HasPrefix(a, "MULTIPOLYGON") {
		t.Fatalf("unexpected wkt prefix: %q", a)
	}
}
