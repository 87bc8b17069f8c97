package invalidation

import (
	"testing"
	"time"
)

func validEvent() Event {
	return Event{Version: 1, Op: "drop", Dataset: "boundaries", TS: time.Unix(1_700_000_000, 0)}
}

func TestValidate(t *testing.T) {
	if err := validEvent().Validate(); err != nil {
		t.Fatalf("valid event rejected: %v", err)
	}

	cases := []struct {
		name string
		mod  func(*Event)
	}{
		{"bad-version", func(e *Event) { e.Version = 2 }},
		{"bad-op", func(e *Event) { e.Op = "purge" }},
		{"bad-dataset", func(e *Event) { e.Dataset = "layers" }},
		{"empty-dataset", func(e *Event) { e.Dataset = " " }},
		{"zero-ts", func(e *Event) { e.TS = time.Time{} }},
	}
	for _, tc := range cases {
		ev := validEvent()
		tc.mod(&ev)
		if err := ev.Validate(); err == nil {
			t.Errorf("%s: accepted", tc.name)
		}
	}
}

func TestKey_DistinguishesEvents(t *testing.T) {
	a := validEvent()
	b := validEvent()
	if a.Key() != b.Key() {
		t.Fatalf("identical events have different keys")
	}
	b.TS = b.TS.Add(time.Second)
	if a.Key() == b.Key() {
		t.Fatalf("distinct events share a key")
	}
	c := validEvent()
	c.Op = "reload"
	if a.Key() == c.Key() {
		t.Fatalf("distinct ops share a key")
	}
}
