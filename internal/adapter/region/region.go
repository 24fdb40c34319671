// Package region assigns crash locations to regional boundaries read from a
// GeoJSON FeatureCollection.
package region

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"github.com/twpayne/go-geom/xy"

	"github.com/couchcryptid/crash-data-etl/internal/domain"
)

// NameProperty is the feature property holding the boundary name.
const NameProperty = "NAME"

// nameSuffixes are trimmed from boundary names ("Wellington Region").
var nameSuffixes = []string{" Region", " County"}

type boundary struct {
	name     string
	bounds   *geom.Bounds
	polygons []*geom.Polygon
}

// Locator finds the first boundary containing a point. Boundaries are checked
// in file order.
type Locator struct {
	boundaries []boundary
}

// Load reads boundaries from a GeoJSON file.
func Load(path string) (*Locator, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open regions: %w: %w", domain.ErrTableLoad, err)
	}
	defer f.Close()
	return Read(f)
}

// Read parses a FeatureCollection of Polygon or MultiPolygon features.
// Features of any other geometry are ignored.
func Read(r io.Reader) (*Locator, error) {
	var fc geojson.FeatureCollection
	if err := json.NewDecoder(r).Decode(&fc); err != nil {
		return nil, fmt.Errorf("decode regions: %w: %w", domain.ErrTableLoad, err)
	}

	loc := &Locator{}
	for i, f := range fc.Features {
		name, _ := f.Properties[NameProperty].(string)
		if name == "" {
			return nil, fmt.Errorf("region feature %d has no %s: %w", i, NameProperty, domain.ErrTableLoad)
		}

		var polys []*geom.Polygon
		switch g := f.Geometry.(type) {
		case *geom.Polygon:
			polys = []*geom.Polygon{g}
		case *geom.MultiPolygon:
			for j := 0; j < g.NumPolygons(); j++ {
				polys = append(polys, g.Polygon(j))
			}
		default:
			continue
		}
		loc.boundaries = append(loc.boundaries, boundary{
			name:     TrimName(name),
			bounds:   f.Geometry.Bounds(),
			polygons: polys,
		})
	}
	return loc, nil
}

// Len returns the number of usable boundaries.
func (l *Locator) Len() int { return len(l.boundaries) }

// Region implements domain.RegionLocator.
func (l *Locator) Region(p domain.GeoPoint) (string, bool) {
	c := geom.Coord{p.Lon, p.Lat}
	for _, b := range l.boundaries {
		if !b.bounds.OverlapsPoint(geom.XY, c) {
			continue
		}
		for _, poly := range b.polygons {
			if inPolygon(poly, c) {
				return b.name, true
			}
		}
	}
	return "", false
}

// inPolygon reports whether c is inside the shell and outside every hole.
func inPolygon(poly *geom.Polygon, c geom.Coord) bool {
	if poly.NumLinearRings() == 0 {
		return false
	}
	if !xy.IsPointInRing(geom.XY, c, poly.LinearRing(0).FlatCoords()) {
		return false
	}
	for i := 1; i < poly.NumLinearRings(); i++ {
		if xy.IsPointInRing(geom.XY, c, poly.LinearRing(i).FlatCoords()) {
			return false
		}
	}
	return true
}

// TrimName strips a trailing administrative suffix.
func TrimName(name string) string {
	name = strings.TrimSpace(name)
	for _, s := range nameSuffixes {
		if trimmed, ok := strings.CutSuffix(name, s); ok {
			return trimmed
		}
	}
	return name
}
