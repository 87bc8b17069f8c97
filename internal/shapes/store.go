// Package shapes keeps the freehand geometries drawn during one session.
package shapes

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/twpayne/go-geom"

	"github.com/mocamara/se-atlas/internal/geo"
)

type Kind string

const (
	KindPoint   Kind = "point"
	KindPolygon Kind = "polygon"
)

var (
	ErrNotFound    = errors.New("shape not found")
	ErrUnsupported = errors.New("unsupported shape geometry")
)

type Shape struct {
	ID        string
	Kind      Kind
	Label     string
	Geom      geom.T
	CreatedAt time.Time
}

// List holds the session's shapes in insertion order. Guarded by a mutex
// because the HTTP server handles requests in parallel even though each
// session logically performs one interaction at a time.
type List struct {
	mu     sync.Mutex
	shapes []Shape
	seen   map[string]struct{}
	now    func() time.Time
}

func NewList() *List {
	return &List{seen: make(map[string]struct{}), now: time.Now}
}

// Add records a drawn geometry unless an identical one already exists.
// Points compare by coordinate pair, polygons by canonical well-known
// text. Duplicates are ignored silently: added is false and the returned
// shape is the stored original.
func (l *List) Add(g geom.T, label string) (Shape, bool, error) {
	kind, key, err := identity(g)
	if err != nil {
		return Shape{}, false, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, dup := l.seen[key]; dup {
		return l.find(key), false, nil
	}

	s := Shape{
		ID:        uuid.NewString(),
		Kind:      kind,
		Label:     label,
		Geom:      g,
		CreatedAt: l.now(),
	}
	l.shapes = append(l.shapes, s)
	l.seen[key] = struct{}{}
	return s, true, nil
}

// Rename sets a shape's label. Labels are free text and never validated.
func (l *List) Rename(id, label string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range l.shapes {
		if l.shapes[i].ID == id {
			l.shapes[i].Label = label
			return nil
		}
	}
	return ErrNotFound
}

// Delete removes a shape permanently; there is no undo. The geometry may
// be drawn again afterwards.
func (l *List) Delete(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range l.shapes {
		if l.shapes[i].ID != id {
			continue
		}
		if _, key, err := identity(l.shapes[i].Geom); err == nil {
			delete(l.seen, key)
		}
		l.shapes = append(l.shapes[:i], l.shapes[i+1:]...)
		return nil
	}
	return ErrNotFound
}

// All returns the shapes in insertion order.
func (l *List) All() []Shape {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Shape, len(l.shapes))
	copy(out, l.shapes)
	return out
}

func (l *List) Get(id string) (Shape, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, s := range l.shapes {
		if s.ID == id {
			return s, true
		}
	}
	return Shape{}, false
}

// find returns the stored shape matching an identity key; callers hold the
// lock and know the key exists.
func (l *List) find(key string) Shape {
	for _, s := range l.shapes {
		if _, k, err := identity(s.Geom); err == nil && k == key {
			return s
		}
	}
	return Shape{}
}

func identity(g geom.T) (Kind, string, error) {
	switch t := g.(type) {
	case *geom.Point:
		c := t.Coords()
		key := "pt:" + strconv.FormatFloat(c[0], 'f', -1, 64) +
			":" + strconv.FormatFloat(c[1], 'f', -1, 64)
		return KindPoint, key, nil
	case *geom.Polygon, *geom.MultiPolygon:
		w, err := geo.CanonicalWKT(g)
		if err != nil {
			return "", "", fmt.Errorf("shape identity: %w", err)
		}
		return KindPolygon, "wkt:" + w, nil
	default:
		return "", "", ErrUnsupported
	}
}
