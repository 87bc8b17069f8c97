// Package invalidation drops dataset snapshots in response to external
// events, so an edited upstream file is refetched without a restart.
package invalidation

import (
	"fmt"
	"strings"
	"time"

	"github.com/mocamara/se-atlas/internal/dataset"
)

type Event struct {
	Version int       `json:"version"`
	Op      string    `json:"op"`
	Dataset string    `json:"dataset"`
	TS      time.Time `json:"ts"`
	Source  string    `json:"source,omitempty"`
}

func (e Event) Validate() error {
	if e.Version != 1 {
		return fmt.Errorf("version must be 1")
	}
	switch e.Op {
	case "drop", "reload":
	default:
		return fmt.Errorf("op must be drop|reload")
	}
	switch strings.TrimSpace(e.Dataset) {
	case dataset.Boundaries, dataset.Concessions:
	case "":
		return fmt.Errorf("dataset is required")
	default:
		return fmt.Errorf("dataset must be %s|%s", dataset.Boundaries, dataset.Concessions)
	}
	if e.TS.IsZero() {
		return fmt.Errorf("ts is required")
	}
	return nil
}

// Key identifies an event for idempotent processing; redeliveries of the
// same event are applied once.
func (e Event) Key() string {
	return fmt.Sprintf("%s:%s:%d", e.Op, e.Dataset, e.TS.UnixNano())
}
