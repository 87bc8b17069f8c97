package api

import (
	"net/http"

	"github.com/mocamara/se-atlas/internal/dataset"
)

// AdminReload drops the named dataset snapshots (all of them when none are
// named) and reloads immediately so the next interaction sees fresh data.
func (h *Handlers) AdminReload(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Datasets []string `json:"datasets"`
	}
	if r.ContentLength > 0 {
		if err := readJSON(r, &req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
	}
	for _, d := range req.Datasets {
		if d != dataset.Boundaries && d != dataset.Concessions {
			http.Error(w, "unknown dataset "+d, http.StatusBadRequest)
			return
		}
	}

	h.snaps.Invalidate(r.Context(), req.Datasets...)

	status := map[string]string{}
	reload := req.Datasets
	if len(reload) == 0 {
		reload = []string{dataset.Boundaries, dataset.Concessions}
	}
	for _, d := range reload {
		var err error
		switch d {
		case dataset.Boundaries:
			_, err = h.boundaries(r.Context())
		case dataset.Concessions:
			_, _, err = h.concessions(r.Context())
		}
		if err != nil {
			h.logger.ErrorContext(r.Context(), "reload failed", "dataset", d, "err", err)
			status[d] = "error: " + err.Error()
			continue
		}
		status[d] = "reloaded"
	}
	writeJSON(w, http.StatusOK, status)
}
