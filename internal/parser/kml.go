package parser

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/dgallion1/eclipsepath/internal/geom"
	"github.com/dgallion1/eclipsepath/internal/placemark"
)

// KMLParser handles bare .kml documents.
type KMLParser struct{}

func (p *KMLParser) Parse(ctx context.Context, r io.Reader, filename string) (*placemark.Document, error) {
	doc, err := ParseKML(ctx, r)
	if err != nil {
		return nil, err
	}
	if doc.Name == "" {
		doc.Name = Stem(filename)
	}
	return doc, nil
}

// Elements are matched by local name, so KML 2.1, 2.2 and the Google
// extension namespaces all decode the same way.
type kmlPlacemark struct {
	Name        string `xml:"name"`
	Description string `xml:"description"`
	kmlGeometry
}

type kmlGeometry struct {
	Polygons      []kmlPolygon     `xml:"Polygon"`
	LineStrings   []kmlCoordinates `xml:"LineString"`
	MultiGeometry []kmlGeometry    `xml:"MultiGeometry"`
}

type kmlPolygon struct {
	OuterBoundary *kmlBoundary `xml:"outerBoundaryIs"`
}

type kmlBoundary struct {
	LinearRing *kmlCoordinates `xml:"LinearRing"`
}

type kmlCoordinates struct {
	Coordinates *string `xml:"coordinates"`
}

// ParseKML reads placemarks from a KML document in document order. Placemarks
// may sit at any depth below Document or Folder elements.
func ParseKML(ctx context.Context, r io.Reader) (*placemark.Document, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel

	doc := &placemark.Document{}
	var stack []string
	index := 0

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedMarkup, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch {
			case t.Name.Local == "Placemark":
				if err := ctx.Err(); err != nil {
					return nil, err
				}
				var pm kmlPlacemark
				if err := dec.DecodeElement(&pm, &t); err != nil {
					return nil, fmt.Errorf("%w: %v", ErrMalformedMarkup, err)
				}
				features, err := pm.features(index)
				if err != nil {
					return nil, err
				}
				doc.Features = append(doc.Features, features...)
				index++
			case t.Name.Local == "name" && doc.Name == "" && len(stack) > 0 && stack[len(stack)-1] == "Document":
				var name string
				if err := dec.DecodeElement(&name, &t); err != nil {
					return nil, fmt.Errorf("%w: %v", ErrMalformedMarkup, err)
				}
				doc.Name = strings.TrimSpace(name)
			default:
				stack = append(stack, t.Name.Local)
			}
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}

	return doc, nil
}

// features converts one placemark into at most one polygon and one line feature.
// Degenerate geometries are dropped without error.
func (pm *kmlPlacemark) features(index int) ([]placemark.Feature, error) {
	name := strings.TrimSpace(pm.Name)
	desc := descriptionText(pm.Description)

	var out []placemark.Feature

	if poly, ok := pm.firstPolygon(); ok {
		if poly.OuterBoundary == nil || poly.OuterBoundary.LinearRing == nil {
			return nil, &GeometryFormatError{Placemark: name, Reason: "polygon has no outerBoundaryIs/LinearRing"}
		}
		coords := poly.OuterBoundary.LinearRing.Coordinates
		if coords == nil {
			return nil, &GeometryFormatError{Placemark: name, Reason: "polygon ring has no coordinates element"}
		}
		vs, err := parseCoordinates(name, *coords)
		if err != nil {
			return nil, err
		}
		if ring := geom.Ring(vs); ring.Valid() {
			out = append(out, placemark.Feature{
				Name:        name,
				Description: desc,
				Index:       index,
				Kind:        placemark.KindPolygon,
				Ring:        ring,
			})
		}
	}

	if ls, ok := pm.firstLineString(); ok {
		if ls.Coordinates == nil {
			return nil, &GeometryFormatError{Placemark: name, Reason: "line has no coordinates element"}
		}
		vs, err := parseCoordinates(name, *ls.Coordinates)
		if err != nil {
			return nil, err
		}
		if len(vs) >= 2 {
			out = append(out, placemark.Feature{
				Name:        name,
				Description: desc,
				Index:       index,
				Kind:        placemark.KindLine,
				Line:        geom.Line(vs),
			})
		}
	}

	return out, nil
}

func (g *kmlGeometry) firstPolygon() (kmlPolygon, bool) {
	if len(g.Polygons) > 0 {
		return g.Polygons[0], true
	}
	for i := range g.MultiGeometry {
		if p, ok := g.MultiGeometry[i].firstPolygon(); ok {
			return p, true
		}
	}
	return kmlPolygon{}, false
}

func (g *kmlGeometry) firstLineString() (kmlCoordinates, bool) {
	if len(g.LineStrings) > 0 {
		return g.LineStrings[0], true
	}
	for i := range g.MultiGeometry {
		if l, ok := g.MultiGeometry[i].firstLineString(); ok {
			return l, true
		}
	}
	return kmlCoordinates{}, false
}

// parseCoordinates reads whitespace-separated "lon,lat[,alt]" tuples.
func parseCoordinates(placemarkName, text string) ([]geom.Vertex, error) {
	tuples := strings.Fields(text)
	out := make([]geom.Vertex, 0, len(tuples))
	for _, tuple := range tuples {
		parts := strings.Split(tuple, ",")
		if len(parts) < 2 {
			return nil, &GeometryFormatError{
				Placemark: placemarkName,
				Reason:    fmt.Sprintf("coordinate %q has fewer than two components", tuple),
			}
		}
		lon, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return nil, &GeometryFormatError{
				Placemark: placemarkName,
				Reason:    fmt.Sprintf("bad longitude in %q", tuple),
				Err:       err,
			}
		}
		lat, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, &GeometryFormatError{
				Placemark: placemarkName,
				Reason:    fmt.Sprintf("bad latitude in %q", tuple),
				Err:       err,
			}
		}
		out = append(out, geom.Vertex{Lon: lon, Lat: lat})
	}
	return out, nil
}
