// Package geo wraps the geometry operations the service needs: GeoJSON
// decoding, polygon validity, point containment and canonical WKT encoding.
package geo

import (
	"fmt"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// DecodeGeometry parses a GeoJSON geometry object.
func DecodeGeometry(raw []byte) (geom.T, error) {
	var g geom.T
	if err := geojson.Unmarshal(raw, &g); err != nil {
		return nil, fmt.Errorf("parse geojson geometry: %w", err)
	}
	return g, nil
}

// EncodeGeometry renders a geometry back to GeoJSON.
func EncodeGeometry(g geom.T) ([]byte, error) {
	b, err := geojson.Marshal(g)
	if err != nil {
		return nil, fmt.Errorf("encode geojson geometry: %w", err)
	}
	return b, nil
}

// AsMultiPolygon promotes a Polygon to a single-member MultiPolygon so
// downstream code deals with one surface type. Non-areal geometries are
// rejected.
func AsMultiPolygon(g geom.T) (*geom.MultiPolygon, error) {
	switch t := g.(type) {
	case *geom.MultiPolygon:
		return t, nil
	case *geom.Polygon:
		mp := geom.NewMultiPolygon(geom.XY)
		if err := mp.Push(t); err != nil {
			return nil, fmt.Errorf("promote polygon: %w", err)
		}
		return mp, nil
	default:
		return nil, fmt.Errorf("geometry type %T is not areal", g)
	}
}

// NewPoint builds a point geometry from a lon/lat pair.
func NewPoint(lon, lat float64) *geom.Point {
	return geom.NewPointFlat(geom.XY, []float64{lon, lat})
}
