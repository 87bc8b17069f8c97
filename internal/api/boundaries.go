package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/mocamara/se-atlas/internal/aggregate"
	"github.com/mocamara/se-atlas/internal/hierarchy"
)

func selectionFrom(r *http.Request) hierarchy.Selection {
	q := r.URL.Query()
	return hierarchy.Selection{
		Region:  strings.TrimSpace(q.Get("region")),
		Cercle:  strings.TrimSpace(q.Get("cercle")),
		Commune: strings.TrimSpace(q.Get("commune")),
		Unit:    strings.TrimSpace(q.Get("unit")),
	}
}

// FilterOptions returns the candidate values for the first unset level
// given the parent choices so far.
func (h *Handlers) FilterOptions(w http.ResponseWriter, r *http.Request) {
	table, err := h.boundaries(r.Context())
	if err != nil {
		h.dataUnavailable(r.Context(), w, "boundary", err)
		return
	}

	sel := selectionFrom(r)
	level := hierarchy.LevelRegion
	switch {
	case sel.Region == "":
		level = hierarchy.LevelRegion
	case sel.Cercle == "":
		level = hierarchy.LevelCercle
	case sel.Commune == "":
		level = hierarchy.LevelCommune
	default:
		level = hierarchy.LevelUnit
	}

	values, err := hierarchy.Options(table, sel, level)
	if err != nil {
		staleSelection(w, err)
		return
	}

	resp := struct {
		Level  string   `json:"level"`
		Values []string `json:"values"`
	}{Level: level.String(), Values: values}
	if level == hierarchy.LevelUnit {
		resp.Values = append([]string{hierarchy.NoFilter}, resp.Values...)
	}
	writeJSON(w, http.StatusOK, resp)
}

type featureCollection struct {
	Type     string             `json:"type"`
	BBox     []float64          `json:"bbox,omitempty"`
	Features []*geojson.Feature `json:"features"`
}

// Boundaries returns the filtered polygon subset as a FeatureCollection
// with a top-level bbox for map recentering.
func (h *Handlers) Boundaries(w http.ResponseWriter, r *http.Request) {
	table, err := h.boundaries(r.Context())
	if err != nil {
		h.dataUnavailable(r.Context(), w, "boundary", err)
		return
	}

	subset, err := hierarchy.Narrow(table, selectionFrom(r))
	if err != nil {
		staleSelection(w, err)
		return
	}

	fc := featureCollection{
		Type:     "FeatureCollection",
		Features: make([]*geojson.Feature, 0, subset.Len()),
	}
	for _, b := range subset.Rows {
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:       b.UnitID,
			Geometry: b.Geom,
			Properties: map[string]any{
				"region":    b.Region,
				"cercle":    b.Cercle,
				"commune":   b.Commune,
				"idse_new":  b.UnitID,
				"pop_se":    b.PopSE,
				"pop_se_ct": b.PopSECT,
			},
		})
	}
	if bounds, ok := subset.Bounds(); ok {
		fc.BBox = []float64{bounds.Min(0), bounds.Min(1), bounds.Max(0), bounds.Max(1)}
	}
	writeJSON(w, http.StatusOK, fc)
}

type unitStats struct {
	Unit    string  `json:"unit"`
	PopSE   float64 `json:"pop_se"`
	PopSECT float64 `json:"pop_se_ct"`
}

type boundaryStats struct {
	Units    []unitStats `json:"units"`
	Masculin int64       `json:"masculin"`
	Feminin  int64       `json:"feminin"`
	Total    int64       `json:"total"`
	Points   int         `json:"points"`
}

// BoundaryStats sums the population fields per unit and the sex counts of
// the concession points covered by the subset (boundary-inclusive join).
func (h *Handlers) BoundaryStats(w http.ResponseWriter, r *http.Request) {
	table, err := h.boundaries(r.Context())
	if err != nil {
		h.dataUnavailable(r.Context(), w, "boundary", err)
		return
	}
	points, idx, err := h.concessions(r.Context())
	if err != nil {
		h.dataUnavailable(r.Context(), w, "concession", err)
		return
	}

	subset, err := hierarchy.Narrow(table, selectionFrom(r))
	if err != nil {
		staleSelection(w, err)
		return
	}

	inside := aggregate.JoinIntersects(points, subset, idx)
	sums := aggregate.SumCounts(inside, ColMasculin, ColFeminin)

	resp := boundaryStats{
		Units:    make([]unitStats, 0, subset.Len()),
		Masculin: sums[ColMasculin],
		Feminin:  sums[ColFeminin],
		Total:    sums[ColMasculin] + sums[ColFeminin],
		Points:   inside.Len(),
	}
	for _, b := range subset.Rows {
		resp.Units = append(resp.Units, unitStats{Unit: b.UnitID, PopSE: b.PopSE, PopSECT: b.PopSECT})
	}
	writeJSON(w, http.StatusOK, resp)
}

func staleSelection(w http.ResponseWriter, err error) {
	var stale *hierarchy.StaleSelectionError
	if errors.As(err, &stale) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"error": stale.Error(),
			"level": stale.Level.String(),
		})
		return
	}
	http.Error(w, err.Error(), http.StatusBadRequest)
}
