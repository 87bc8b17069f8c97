package dataset

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/mocamara/se-atlas/internal/core/observability"
	"github.com/mocamara/se-atlas/internal/geo"
)

// column renames applied to boundary properties after lower-casing
var boundaryRenames = map[string]string{
	"lregion":  "region",
	"lcercle":  "cercle",
	"lcommune": "commune",
}

type Loader struct {
	logger *slog.Logger
	client *http.Client
}

func NewLoader(logger *slog.Logger, client *http.Client) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger, client: client}
}

// Fetch retrieves a remote source. Any failure is returned to the caller;
// the interaction that triggered the load fails visibly and the next one
// retries.
func (l *Loader) Fetch(ctx context.Context, dataset, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	start := time.Now()
	resp, err := l.client.Do(req)
	observability.ObserveFetch(dataset, err, time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", dataset, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
		return nil, fmt.Errorf("fetch %s: upstream status %d: %s", dataset, resp.StatusCode, string(b))
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: read body: %w", dataset, err)
	}
	l.logger.Debug("dataset fetched", "dataset", dataset, "bytes", len(b))
	return b, nil
}

// ParseBoundaries builds the boundary table from a GeoJSON
// FeatureCollection. Property keys are lower-cased and trimmed, known
// alternate names renamed, missing attribute columns defaulted, and rows
// with invalid or empty geometry dropped.
func ParseBoundaries(data []byte) (*BoundaryTable, error) {
	if err := checkSourceCRS(data); err != nil {
		return nil, err
	}

	var fc geojson.FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse boundaries geojson: %w", err)
	}

	rows := make([]Boundary, 0, len(fc.Features))
	dropped := 0
	for _, f := range fc.Features {
		if f == nil || f.Geometry == nil {
			dropped++
			continue
		}
		mp, err := geo.AsMultiPolygon(f.Geometry)
		if err != nil || !geo.Valid(mp) {
			dropped++
			continue
		}
		props := normalizeProps(f.Properties)
		rows = append(rows, Boundary{
			Region:  textProp(props, "region"),
			Cercle:  textProp(props, "cercle"),
			Commune: textProp(props, "commune"),
			UnitID:  textProp(props, "idse_new"),
			PopSE:   numProp(props, "pop_se"),
			PopSECT: numProp(props, "pop_se_ct"),
			Geom:    mp,
		})
	}

	observability.AddRowsLoaded(Boundaries, len(rows))
	observability.AddRowsDropped(Boundaries, "geometry", dropped)
	return &BoundaryTable{Rows: rows}, nil
}

// ParseConcessions builds the point table from delimited text. LAT/LON are
// coerced to numeric and rows where either is missing or non-numeric are
// dropped. Every other column is carried as raw text.
func ParseConcessions(data []byte) (*ConcessionTable, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("parse concessions csv: read header: %w", err)
	}

	latIdx, lonIdx := -1, -1
	cols := make([]string, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		cols[i] = h
		switch strings.ToLower(h) {
		case "lat":
			latIdx = i
		case "lon":
			lonIdx = i
		}
	}
	if latIdx < 0 || lonIdx < 0 {
		return nil, errors.New("parse concessions csv: missing LAT or LON column")
	}

	var rows []Concession
	dropped := 0
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse concessions csv: %w", err)
		}
		if latIdx >= len(rec) || lonIdx >= len(rec) {
			dropped++
			continue
		}
		lat, latErr := strconv.ParseFloat(strings.TrimSpace(rec[latIdx]), 64)
		lon, lonErr := strconv.ParseFloat(strings.TrimSpace(rec[lonIdx]), 64)
		if latErr != nil || lonErr != nil {
			dropped++
			continue
		}
		fields := make(map[string]string, len(cols))
		for i, c := range cols {
			if i < len(rec) {
				fields[c] = rec[i]
			}
		}
		rows = append(rows, Concession{Lat: lat, Lon: lon, Fields: fields})
	}

	observability.AddRowsLoaded(Concessions, len(rows))
	observability.AddRowsDropped(Concessions, "coordinates", dropped)
	return &ConcessionTable{Columns: cols, Rows: rows}, nil
}

// checkSourceCRS rejects sources declaring a projection we cannot serve.
// GeoJSON is geographic lon/lat per RFC 7946; a legacy crs member naming
// EPSG:4326 or CRS84 is accepted, anything else is a parse failure.
func checkSourceCRS(data []byte) error {
	var hdr struct {
		CRS *struct {
			Properties struct {
				Name string `json:"name"`
			} `json:"properties"`
		} `json:"crs"`
	}
	if err := json.Unmarshal(data, &hdr); err != nil {
		return fmt.Errorf("parse boundaries geojson: %w", err)
	}
	if hdr.CRS == nil {
		return nil
	}
	name := strings.ToUpper(hdr.CRS.Properties.Name)
	if strings.Contains(name, "4326") || strings.Contains(name, "CRS84") {
		return nil
	}
	return fmt.Errorf("source projection %q: reprojection is unsupported, provide EPSG:4326/CRS84 data", hdr.CRS.Properties.Name)
}

func normalizeProps(props map[string]any) map[string]any {
	norm := make(map[string]any, len(props))
	for k, v := range props {
		norm[strings.ToLower(strings.TrimSpace(k))] = v
	}
	for from, to := range boundaryRenames {
		if v, ok := norm[from]; ok {
			if _, exists := norm[to]; !exists {
				norm[to] = v
			}
			delete(norm, from)
		}
	}
	return norm
}

func textProp(props map[string]any, key string) string {
	v, ok := props[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

func numProp(props map[string]any, key string) float64 {
	v, ok := props[key]
	if !ok || v == nil {
		return 0
	}
	switch t := v.(type) {
	case float64:
		return t
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0
		}
		return f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}
