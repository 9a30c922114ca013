package classify

import (
	"strings"

	"github.com/dgallion1/eclipsepath/internal/geom"
	"github.com/dgallion1/eclipsepath/internal/placemark"
)

// DefaultMarker is the name fragment that identifies the center line placemark.
const DefaultMarker = "central"

// Classification splits a document's features into zone polygons and the center line.
type Classification struct {
	Zones      []geom.Ring
	ZoneNames  []string
	CenterLine *placemark.Feature // nil when no line matches the marker
}

// IsCenterLine reports whether name contains marker, ignoring case.
func IsCenterLine(name, marker string) bool {
	return strings.Contains(strings.ToLower(name), strings.ToLower(marker))
}

// Classify keeps every polygon ring and the first line whose name contains marker.
// Data providers publish one center line per file; later matches are ignored.
func Classify(features []placemark.Feature, marker string) Classification {
	var c Classification
	for i := range features {
		f := &features[i]
		switch f.Kind {
		case placemark.KindPolygon:
			c.Zones = append(c.Zones, f.Ring)
			c.ZoneNames = append(c.ZoneNames, f.Name)
		case placemark.KindLine:
			if c.CenterLine == nil && IsCenterLine(f.Name, marker) {
				line := *f
				c.CenterLine = &line
			}
		}
	}
	return c
}
