// Package hierarchy narrows the boundary table through the administrative
// levels region > cercle > commune > unit.
package hierarchy

import (
	"fmt"
	"sort"

	"github.com/mocamara/se-atlas/internal/dataset"
)

// NoFilter is the sentinel accepted at the unit level meaning "every row
// passing the first three levels".
const NoFilter = "No filter"

type Level int

const (
	LevelRegion Level = iota
	LevelCercle
	LevelCommune
	LevelUnit
)

func (l Level) String() string {
	switch l {
	case LevelRegion:
		return "region"
	case LevelCercle:
		return "cercle"
	case LevelCommune:
		return "commune"
	case LevelUnit:
		return "unit"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// Selection holds the chosen value per level; empty means unset. Unit also
// accepts NoFilter.
type Selection struct {
	Region  string
	Cercle  string
	Commune string
	Unit    string
}

func (s Selection) value(l Level) string {
	switch l {
	case LevelRegion:
		return s.Region
	case LevelCercle:
		return s.Cercle
	case LevelCommune:
		return s.Commune
	default:
		return s.Unit
	}
}

func rowValue(b dataset.Boundary, l Level) string {
	switch l {
	case LevelRegion:
		return b.Region
	case LevelCercle:
		return b.Cercle
	case LevelCommune:
		return b.Commune
	default:
		return b.UnitID
	}
}

// StaleSelectionError reports a child value that no longer appears in its
// parent's subset, e.g. a cercle kept after the region changed.
type StaleSelectionError struct {
	Level Level
	Value string
}

func (e *StaleSelectionError) Error() string {
	return fmt.Sprintf("selection %q is not available at level %s", e.Value, e.Level)
}

// Narrow applies the selection level by level and returns the surviving
// subset. A set value absent from the preceding subset is an error rather
// than a silently empty result.
func Narrow(t *dataset.BoundaryTable, sel Selection) (*dataset.BoundaryTable, error) {
	cur := t
	for _, l := range []Level{LevelRegion, LevelCercle, LevelCommune, LevelUnit} {
		want := sel.value(l)
		if want == "" {
			break
		}
		if l == LevelUnit && want == NoFilter {
			break
		}
		next := filter(cur, l, want)
		if next.Len() == 0 {
			return nil, &StaleSelectionError{Level: l, Value: want}
		}
		cur = next
	}
	return cur, nil
}

// Options returns the sorted distinct non-empty values available at level
// given the parent selections, computed from the already-filtered rows and
// never the full table.
func Options(t *dataset.BoundaryTable, sel Selection, level Level) ([]string, error) {
	parents := sel
	switch level {
	case LevelRegion:
		parents = Selection{}
	case LevelCercle:
		parents = Selection{Region: sel.Region}
	case LevelCommune:
		parents = Selection{Region: sel.Region, Cercle: sel.Cercle}
	case LevelUnit:
		parents = Selection{Region: sel.Region, Cercle: sel.Cercle, Commune: sel.Commune}
	}

	subset, err := Narrow(t, parents)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var out []string
	for _, r := range subset.Rows {
		v := rowValue(r, level)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out, nil
}

func filter(t *dataset.BoundaryTable, l Level, want string) *dataset.BoundaryTable {
	out := &dataset.BoundaryTable{}
	for _, r := range t.Rows {
		if rowValue(r, l) == want {
			out.Rows = append(out.Rows, r)
		}
	}
	return out
}
