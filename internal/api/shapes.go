package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mocamara/se-atlas/internal/aggregate"
	"github.com/mocamara/se-atlas/internal/geo"
	"github.com/mocamara/se-atlas/internal/shapes"
)

type shapeRequest struct {
	Geometry json.RawMessage `json:"geometry"`
	Label    string          `json:"label"`
}

type shapeResponse struct {
	ID        string          `json:"id"`
	Kind      string          `json:"kind"`
	Label     string          `json:"label"`
	Geometry  json.RawMessage `json:"geometry"`
	Duplicate bool            `json:"duplicate,omitempty"`
}

func toShapeResponse(s shapes.Shape, dup bool) (shapeResponse, error) {
	g, err := geo.EncodeGeometry(s.Geom)
	if err != nil {
		return shapeResponse{}, err
	}
	return shapeResponse{
		ID:        s.ID,
		Kind:      string(s.Kind),
		Label:     s.Label,
		Geometry:  g,
		Duplicate: dup,
	}, nil
}

// ShapeCreate records a drawn shape. Submitting the same geometry twice
// stores it once; the duplicate submission answers 200 with the original.
func (h *Handlers) ShapeCreate(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOr401(w, r)
	if !ok {
		return
	}

	var req shapeRequest
	if err := readJSON(r, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	g, err := geo.DecodeGeometry(req.Geometry)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s, added, err := sess.Shapes.Add(g, req.Label)
	if err != nil {
		if errors.Is(err, shapes.ErrUnsupported) {
			http.Error(w, "geometry must be Point, Polygon or MultiPolygon", http.StatusBadRequest)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	resp, err := toShapeResponse(s, !added)
	if err != nil {
		http.Error(w, "encode shape", http.StatusInternalServerError)
		return
	}
	code := http.StatusCreated
	if !added {
		code = http.StatusOK
	}
	writeJSON(w, code, resp)
}

func (h *Handlers) ShapeList(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOr401(w, r)
	if !ok {
		return
	}

	all := sess.Shapes.All()
	out := make([]shapeResponse, 0, len(all))
	for _, s := range all {
		resp, err := toShapeResponse(s, false)
		if err != nil {
			http.Error(w, "encode shape", http.StatusInternalServerError)
			return
		}
		out = append(out, resp)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) ShapeRename(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOr401(w, r)
	if !ok {
		return
	}

	var req struct {
		Label string `json:"label"`
	}
	if err := readJSON(r, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	id := chi.URLParam(r, "id")
	if err := sess.Shapes.Rename(id, req.Label); err != nil {
		http.Error(w, "shape not found", http.StatusNotFound)
		return
	}
	s, _ := sess.Shapes.Get(id)
	resp, err := toShapeResponse(s, false)
	if err != nil {
		http.Error(w, "encode shape", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) ShapeDelete(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOr401(w, r)
	if !ok {
		return
	}

	if err := sess.Shapes.Delete(chi.URLParam(r, "id")); err != nil {
		http.Error(w, "shape not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type drawnStats struct {
	Masculin int64 `json:"masculin"`
	Feminin  int64 `json:"feminin"`
	Total    int64 `json:"total"`
	Points   int   `json:"points"`
}

// ShapeStats counts the concession points strictly inside a drawn polygon
// and sums the sex columns over them.
func (h *Handlers) ShapeStats(w http.ResponseWriter, r *http.Request) {
	if _, ok := sessionOr401(w, r); !ok {
		return
	}

	var req struct {
		Geometry json.RawMessage `json:"geometry"`
	}
	if err := readJSON(r, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	g, err := geo.DecodeGeometry(req.Geometry)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	mp, err := geo.AsMultiPolygon(g)
	if err != nil {
		http.Error(w, "geometry must be Polygon or MultiPolygon", http.StatusBadRequest)
		return
	}

	points, idx, err := h.concessions(r.Context())
	if err != nil {
		h.dataUnavailable(r.Context(), w, "concession", err)
		return
	}

	inside := aggregate.Within(points, mp, idx)
	sums := aggregate.SumCounts(inside, ColMasculin, ColFeminin)
	writeJSON(w, http.StatusOK, drawnStats{
		Masculin: sums[ColMasculin],
		Feminin:  sums[ColFeminin],
		Total:    sums[ColMasculin] + sums[ColFeminin],
		Points:   inside.Len(),
	})
}

func (h *Handlers) ExportShapesGeoJSON(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOr401(w, r)
	if !ok {
		return
	}

	b, err := sess.Shapes.GeoJSON()
	if err != nil {
		http.Error(w, "encode shapes", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.Header().Set("Content-Disposition", `attachment; filename="shapes.geojson"`)
	_, _ = w.Write(b)
}

func (h *Handlers) ExportMarkersCSV(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOr401(w, r)
	if !ok {
		return
	}

	b, err := sess.Shapes.MarkersCSV()
	if err != nil {
		http.Error(w, "encode markers", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="markers.csv"`)
	_, _ = w.Write(b)
}
