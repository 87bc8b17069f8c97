package shapes

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// GeoJSON renders the session's shapes as a FeatureCollection carrying
// identifier, label and kind as feature properties.
func (l *List) GeoJSON() ([]byte, error) {
	all := l.All()
	fc := geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(all))}
	for _, s := range all {
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:       s.ID,
			Geometry: s.Geom,
			Properties: map[string]any{
				"id":    s.ID,
				"label": s.Label,
				"kind":  string(s.Kind),
			},
		})
	}
	b, err := json.Marshal(&fc)
	if err != nil {
		return nil, fmt.Errorf("encode shapes geojson: %w", err)
	}
	return b, nil
}

// MarkersCSV renders the drawn point markers as delimited text with
// latitude, longitude and label columns. Polygon shapes are skipped.
func (l *List) MarkersCSV() ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"latitude", "longitude", "label"}); err != nil {
		return nil, fmt.Errorf("write markers header: %w", err)
	}
	for _, s := range l.All() {
		p, ok := s.Geom.(*geom.Point)
		if !ok {
			continue
		}
		c := p.Coords()
		rec := []string{
			strconv.FormatFloat(c[1], 'f', -1, 64),
			strconv.FormatFloat(c[0], 'f', -1, 64),
			s.Label,
		}
		if err := w.Write(rec); err != nil {
			return nil, fmt.Errorf("write marker row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush markers csv: %w", err)
	}
	return buf.Bytes(), nil
}
