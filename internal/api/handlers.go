// Package api implements the JSON surface consumed by the map client.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/mocamara/se-atlas/internal/auth"
	"github.com/mocamara/se-atlas/internal/core/config"
	"github.com/mocamara/se-atlas/internal/core/observability"
	"github.com/mocamara/se-atlas/internal/dataset"
	"github.com/mocamara/se-atlas/internal/spatialindex"
)

// Demographic columns of the concession source.
const (
	ColMasculin = "Masculin"
	ColFeminin  = "Feminin"
)

type Handlers struct {
	logger   *slog.Logger
	cfg      config.Config
	snaps    *dataset.Snapshots
	sessions *auth.SessionStore
	creds    *auth.Credentials

	// point index memoized per concession snapshot
	mu     sync.Mutex
	idxFor *dataset.ConcessionTable
	idx    *spatialindex.Index
}

func New(logger *slog.Logger, cfg config.Config, snaps *dataset.Snapshots, sessions *auth.SessionStore, creds *auth.Credentials) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		logger:   logger,
		cfg:      cfg,
		snaps:    snaps,
		sessions: sessions,
		creds:    creds,
	}
}

// boundaries and concessions treat a failed load as a hard stop: the
// interaction fails visibly with 503 and the next one retries.
func (h *Handlers) boundaries(ctx context.Context) (*dataset.BoundaryTable, error) {
	return h.snaps.Boundaries(ctx, h.cfg.BoundariesURL)
}

func (h *Handlers) concessions(ctx context.Context) (*dataset.ConcessionTable, *spatialindex.Index, error) {
	t, err := h.snaps.Concessions(ctx, h.cfg.ConcessionsURL)
	if err != nil {
		return nil, nil, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.idxFor != t {
		h.idx = spatialindex.New(t, h.cfg.IndexRes)
		h.idxFor = t
	}
	return t, h.idx, nil
}

func (h *Handlers) dataUnavailable(ctx context.Context, w http.ResponseWriter, what string, err error) {
	h.logger.ErrorContext(ctx, "dataset load failed", "dataset", what, "err", err)
	http.Error(w, what+" data unavailable", http.StatusServiceUnavailable)
}

// instrument records request metrics under a stable route label.
func instrument(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next(sw, r)
		observability.ObserveHTTP(r.Method, route, sw.code, time.Since(start).Seconds())
	}
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func readJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
