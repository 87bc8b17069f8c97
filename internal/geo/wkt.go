package geo

import (
	"fmt"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkt"
)

// CanonicalWKT renders a geometry as well-known text. Identical vertex
// sequences produce identical strings, which is what drawn-shape
// deduplication compares.
func CanonicalWKT(g geom.T) (string, error) {
	s, err := wkt.Marshal(g)
	if err != nil {
		return "", fmt.Errorf("encode wkt: %w", err)
	}
	return s, nil
}
