package placemark

import "github.com/dgallion1/eclipsepath/internal/geom"

// Kind identifies which geometry a Feature carries.
type Kind string

const (
	KindPolygon Kind = "polygon"
	KindLine    Kind = "line"
)

// Feature is one geometry taken from a KML Placemark.
type Feature struct {
	Name        string    // Placemark name, "" when the element is absent
	Description string    // Plain text of the description element
	Index       int       // Position of the placemark in document order
	Kind        Kind      // Polygon or line
	Ring        geom.Ring // Set when Kind is KindPolygon
	Line        geom.Line // Set when Kind is KindLine
}

// Document is the parsed content of one KML file.
type Document struct {
	Name     string // Document-level name, if any
	Features []Feature
}
