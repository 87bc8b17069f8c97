package dataset

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

const tinyBoundaries = `{"type":"FeatureCollection","features":[
  {"type":"Feature",
   "properties":{"LRegion":"Kayes","LCercle":"Bafoulabe","LCommune":"Bamafele","IDSE_NEW":"SE-001"},
   "geometry":{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,1],[0,0]]]}}]}`

// fakeRemote is an in-memory stand-in for the Redis tier.
type fakeRemote struct {
	mu   sync.Mutex
	data map[string][]byte
	sets int
}

func newFakeRemote() *fakeRemote { return &fakeRemote{data: make(map[string][]byte)} }

func (f *fakeRemote) Get(_ context.Context, key string) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.data[key]
	return b, ok, nil
}

func (f *fakeRemote) Set(_ context.Context, key string, val []byte, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = val
	f.sets++
	return nil
}

func (f *fakeRemote) Del(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

func countingServer(t *testing.T, body string, hits *atomic.Int64) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSnapshots_MemoizesLoad(t *testing.T) {
	var hits atomic.Int64
	srv := countingServer(t, tinyBoundaries, &hits)

	snaps, err := NewSnapshots(nil, NewLoader(nil, srv.Client()), nil, time.Minute, 8)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	ctx := context.Background()
	first, err := snaps.Boundaries(ctx, srv.URL)
	if err != nil {
		t.Fatalf("first load: %v", err)
	}
	second, err := snaps.Boundaries(ctx, srv.URL)
	if err != nil {
		t.Fatalf("second load: %v", err)
	}
	if first != second {
		t.Fatalf("repeated load returned a different table")
	}
	if got := hits.Load(); got != 1 {
		t.Fatalf("upstream fetched %d times, want 1", got)
	}
}

func TestSnapshots_InvalidateRefetches(t *testing.T) {
	var hits atomic.Int64
	srv := countingServer(t, tinyBoundaries, &hits)

	snaps, err := NewSnapshots(nil, NewLoader(nil, srv.Client()), nil, time.Minute, 8)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	ctx := context.Background()
	if _, err := snaps.Boundaries(ctx, srv.URL); err != nil {
		t.Fatalf("load: %v", err)
	}
	snaps.Invalidate(ctx, Boundaries)
	if _, err := snaps.Boundaries(ctx, srv.URL); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got := hits.Load(); got != 2 {
		t.Fatalf("upstream fetched %d times, want 2", got)
	}
}

func TestSnapshots_FetchFailureSurfacesAndRetries(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(tinyBoundaries))
	}))
	t.Cleanup(srv.Close)

	snaps, err := NewSnapshots(nil, NewLoader(nil, srv.Client()), nil, time.Minute, 8)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	ctx := context.Background()
	if _, err := snaps.Boundaries(ctx, srv.URL); err == nil {
		t.Fatalf("upstream failure not surfaced")
	}
	if ready, _ := snaps.Readiness(); ready {
		t.Fatalf("ready with no snapshot loaded")
	}

	fail.Store(false)
	if _, err := snaps.Boundaries(ctx, srv.URL); err != nil {
		t.Fatalf("retry after failure: %v", err)
	}
}

func TestSnapshots_RemoteTierServesRawBytes(t *testing.T) {
	var hits atomic.Int64
	srv := countingServer(t, tinyBoundaries, &hits)
	remote := newFakeRemote()

	ctx := context.Background()
	mk := func() *Snapshots {
		t.Helper()
		s, err := NewSnapshots(nil, NewLoader(nil, srv.Client()), remote, time.Minute, 8)
		if err != nil {
			t.Fatalf("new: %v", err)
		}
		return s
	}

	if _, err := mk().Boundaries(ctx, srv.URL); err != nil {
		t.Fatalf("first process load: %v", err)
	}
	// a fresh Snapshots simulates a restart: the raw bytes come from the
	// remote tier, not the upstream
	if _, err := mk().Boundaries(ctx, srv.URL); err != nil {
		t.Fatalf("second process load: %v", err)
	}
	if got := hits.Load(); got != 1 {
		t.Fatalf("upstream fetched %d times, want 1", got)
	}
	if remote.sets != 1 {
		t.Fatalf("remote sets=%d want 1", remote.sets)
	}
}

func TestSnapshots_PoisonedRemoteEntryDropped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not geojson at all"))
	}))
	t.Cleanup(srv.Close)
	remote := newFakeRemote()

	snaps, err := NewSnapshots(nil, NewLoader(nil, srv.Client()), remote, time.Minute, 8)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	ctx := context.Background()
	if _, err := snaps.Boundaries(ctx, srv.URL); err == nil {
		t.Fatalf("unparseable payload accepted")
	}
	key := SnapshotKey(Boundaries, srv.URL)
	if _, ok, _ := remote.Get(ctx, key); ok {
		t.Fatalf("unparseable payload left in remote tier")
	}
}

func TestSnapshots_ReadinessNeedsBothDatasets(t *testing.T) {
	var hits atomic.Int64
	bSrv := countingServer(t, tinyBoundaries, &hits)
	cSrv := countingServer(t, "LAT,LON\n10.1,-5.1\n", &hits)

	snaps, err := NewSnapshots(nil, NewLoader(nil, bSrv.Client()), nil, time.Minute, 8)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	ctx := context.Background()
	if _, err := snaps.Boundaries(ctx, bSrv.URL); err != nil {
		t.Fatalf("boundaries: %v", err)
	}
	if ready, ds := snaps.Readiness(); ready || len(ds) != 1 {
		t.Fatalf("ready=%v ds=%v after one dataset", ready, ds)
	}
	if _, err := snaps.Concessions(ctx, cSrv.URL); err != nil {
		t.Fatalf("concessions: %v", err)
	}
	if ready, ds := snaps.Readiness(); !ready || len(ds) != 2 {
		t.Fatalf("ready=%v ds=%v after both datasets", ready, ds)
	}
}
