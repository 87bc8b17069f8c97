package kafkaconsumer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/IBM/sarama"
)

type recordingStore struct {
	mu    sync.Mutex
	drops []string
}

func (r *recordingStore) Invalidate(_ context.Context, kinds ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.drops = append(r.drops, kinds...)
}

func (r *recordingStore) dropped() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.drops...)
}

func msg(value string) *sarama.ConsumerMessage {
	return &sarama.ConsumerMessage{Topic: "atlas.invalidations", Value: []byte(value)}
}

func eventJSON(op, ds string, ts int64) string {
	return `{"version":1,"op":"` + op + `","dataset":"` + ds + `","ts":"` +
		time.Unix(ts, 0).UTC().Format(time.RFC3339) + `"}`
}

func testConsumer(store *recordingStore, reload ReloadFunc) *Consumer {
	return New(DefaultConfig("localhost:9092", "atlas.invalidations", "se-atlas"), nil, store, reload)
}

func TestProcessOne_AppliesDrop(t *testing.T) {
	store := &recordingStore{}
	c := testConsumer(store, nil)

	if err := c.ProcessOne(context.Background(), msg(eventJSON("drop", "boundaries", 1_700_000_000))); err != nil {
		t.Fatalf("process: %v", err)
	}
	if got := store.dropped(); len(got) != 1 || got[0] != "boundaries" {
		t.Fatalf("dropped=%v", got)
	}
}

func TestProcessOne_SkipsMalformedAndInvalid(t *testing.T) {
	store := &recordingStore{}
	c := testConsumer(store, nil)
	ctx := context.Background()

	if err := c.ProcessOne(ctx, msg("{not json")); err != nil {
		t.Fatalf("malformed event returned error: %v", err)
	}
	if err := c.ProcessOne(ctx, msg(`{"version":9,"op":"drop","dataset":"boundaries","ts":"2023-11-14T00:00:00Z"}`)); err != nil {
		t.Fatalf("invalid event returned error: %v", err)
	}
	if got := store.dropped(); len(got) != 0 {
		t.Fatalf("bad events applied: %v", got)
	}
}

func TestProcessOne_DeduplicatesRedelivery(t *testing.T) {
	store := &recordingStore{}
	c := testConsumer(store, nil)
	ctx := context.Background()

	same := eventJSON("drop", "concessions", 1_700_000_000)
	for i := 0; i < 3; i++ {
		if err := c.ProcessOne(ctx, msg(same)); err != nil {
			t.Fatalf("process %d: %v", i, err)
		}
	}
	if got := store.dropped(); len(got) != 1 {
		t.Fatalf("redelivered event applied %d times", len(got))
	}

	// a later event for the same dataset is not a duplicate
	if err := c.ProcessOne(ctx, msg(eventJSON("drop", "concessions", 1_700_000_060))); err != nil {
		t.Fatalf("process later event: %v", err)
	}
	if got := store.dropped(); len(got) != 2 {
		t.Fatalf("distinct event deduplicated: %v", got)
	}
}

func TestProcessOne_ReloadOpRefetches(t *testing.T) {
	store := &recordingStore{}
	var reloaded []string
	c := testConsumer(store, func(_ context.Context, ds string) error {
		reloaded = append(reloaded, ds)
		return nil
	})

	if err := c.ProcessOne(context.Background(), msg(eventJSON("reload", "boundaries", 1_700_000_000))); err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(store.dropped()) != 1 {
		t.Fatalf("reload did not drop first: %v", store.dropped())
	}
	if len(reloaded) != 1 || reloaded[0] != "boundaries" {
		t.Fatalf("reloaded=%v", reloaded)
	}
}

func TestDefaultConfig_SplitsBrokers(t *testing.T) {
	cfg := DefaultConfig("a:9092, b:9092 ,c:9092", "t", "g")
	if len(cfg.Brokers) != 3 || cfg.Brokers[1] != "b:9092" {
		t.Fatalf("brokers=%v", cfg.Brokers)
	}
}
