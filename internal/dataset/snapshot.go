package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/mocamara/se-atlas/internal/cache"
	"github.com/mocamara/se-atlas/internal/core/observability"
)

// Snapshots memoizes dataset loads per source URL. The memory tier holds
// parsed tables for the process lifetime; the optional remote tier holds
// the raw fetched bytes with a TTL so restarts avoid refetching. Entries
// leave only through explicit invalidation (admin endpoint or an
// invalidation event) or LRU pressure.
type Snapshots struct {
	logger *slog.Logger
	loader *Loader
	remote cache.Interface // nil when Redis is disabled
	ttl    time.Duration

	mu     sync.Mutex
	mem    *lru.Cache[string, memEntry]
	loaded map[string]string // dataset kind -> source url of last good load
}

type memEntry struct {
	table    any
	loadedAt time.Time
}

func NewSnapshots(logger *slog.Logger, loader *Loader, remote cache.Interface, ttl time.Duration, memSize int) (*Snapshots, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if memSize <= 0 {
		memSize = 8
	}
	mem, err := lru.New[string, memEntry](memSize)
	if err != nil {
		return nil, fmt.Errorf("snapshot lru: %w", err)
	}
	return &Snapshots{
		logger: logger,
		loader: loader,
		remote: remote,
		ttl:    ttl,
		mem:    mem,
		loaded: make(map[string]string),
	}, nil
}

// Boundaries returns the memoized boundary table for url, loading it on
// first use. Repeated calls with the same source never refetch.
func (s *Snapshots) Boundaries(ctx context.Context, url string) (*BoundaryTable, error) {
	v, err := s.get(ctx, Boundaries, url, func(b []byte) (any, error) {
		return ParseBoundaries(b)
	})
	if err != nil {
		return nil, err
	}
	return v.(*BoundaryTable), nil
}

func (s *Snapshots) Concessions(ctx context.Context, url string) (*ConcessionTable, error) {
	v, err := s.get(ctx, Concessions, url, func(b []byte) (any, error) {
		return ParseConcessions(b)
	})
	if err != nil {
		return nil, err
	}
	return v.(*ConcessionTable), nil
}

func (s *Snapshots) get(ctx context.Context, kind, url string, parse func([]byte) (any, error)) (any, error) {
	key := SnapshotKey(kind, url)

	// One load at a time; concurrent callers for the same source wait for
	// the winner's result instead of racing the fetch.
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.mem.Get(key); ok {
		observability.IncSnapshotHit("memory")
		return e.table, nil
	}
	observability.IncSnapshotMiss("memory")

	raw, err := s.rawBytes(ctx, kind, key, url)
	if err != nil {
		return nil, err
	}

	table, err := parse(raw)
	if err != nil {
		// poisoned remote entry would otherwise mask the fix upstream
		if s.remote != nil {
			_ = s.remote.Del(ctx, key)
		}
		return nil, err
	}

	s.mem.Add(key, memEntry{table: table, loadedAt: time.Now()})
	s.loaded[kind] = url
	s.logger.Info("dataset snapshot loaded", "dataset", kind, "source", url)
	return table, nil
}

func (s *Snapshots) rawBytes(ctx context.Context, kind, key, url string) ([]byte, error) {
	if s.remote != nil {
		b, ok, err := s.remote.Get(ctx, key)
		if err != nil {
			s.logger.Warn("snapshot remote tier get failed", "dataset", kind, "err", err)
		} else if ok {
			observability.IncSnapshotHit("remote")
			return b, nil
		} else {
			observability.IncSnapshotMiss("remote")
		}
	}

	raw, err := s.loader.Fetch(ctx, kind, url)
	if err != nil {
		return nil, err
	}
	if s.remote != nil {
		if err := s.remote.Set(ctx, key, raw, s.ttl); err != nil {
			s.logger.Warn("snapshot remote tier set failed", "dataset", kind, "err", err)
		}
	}
	return raw, nil
}

// Invalidate drops the snapshots for the given kinds from both tiers. An
// empty list drops everything.
func (s *Snapshots) Invalidate(ctx context.Context, kinds ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(kinds) == 0 {
		kinds = []string{Boundaries, Concessions}
	}
	for _, kind := range kinds {
		url, ok := s.loaded[kind]
		if !ok {
			continue
		}
		key := SnapshotKey(kind, url)
		s.mem.Remove(key)
		delete(s.loaded, kind)
		if s.remote != nil {
			if err := s.remote.Del(ctx, key); err != nil {
				s.logger.Warn("snapshot remote tier del failed", "dataset", kind, "err", err)
			}
		}
		s.logger.Info("dataset snapshot invalidated", "dataset", kind)
	}
}

// Readiness reports which datasets have a good snapshot. The service is
// ready once both have loaded at least once.
func (s *Snapshots) Readiness() (bool, []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ds []string
	for _, kind := range []string{Boundaries, Concessions} {
		if _, ok := s.loaded[kind]; ok {
			ds = append(ds, kind)
		}
	}
	return len(ds) == 2, ds
}
