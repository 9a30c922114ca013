package parser

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dgallion1/eclipsepath/internal/placemark"
)

const kmlHeader = `<?xml version="1.0" encoding="UTF-8"?>
<kml xmlns="http://www.opengis.net/kml/2.2">
<Document>
<name>TSE_2026_08_12</name>
`

const kmlFooter = `</Document>
</kml>
`

func kmlDoc(body string) string {
	return kmlHeader + body + kmlFooter
}

func polygonPlacemark(name, coords string) string {
	return `<Placemark><name>` + name + `</name><Polygon><outerBoundaryIs><LinearRing><coordinates>` +
		coords + `</coordinates></LinearRing></outerBoundaryIs></Polygon></Placemark>
`
}

func linePlacemark(name, coords string) string {
	return `<Placemark><name>` + name + `</name><LineString><coordinates>` +
		coords + `</coordinates></LineString></Placemark>
`
}

func TestParseKML_PolygonsAndLines(t *testing.T) {
	input := kmlDoc(
		polygonPlacemark("Umbral Path", "-10,40,0 -5,41,0 0,42,0 -10,40,0") +
			linePlacemark("Northern Limit", "-10,41 0,43") +
			linePlacemark("Central Line", "-10,40.5,0 -5,41.5,0 0,42.5,0"),
	)

	doc, err := ParseKML(context.Background(), strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Name != "TSE_2026_08_12" {
		t.Errorf("expected document name %q, got %q", "TSE_2026_08_12", doc.Name)
	}
	if len(doc.Features) != 3 {
		t.Fatalf("expected 3 features, got %d", len(doc.Features))
	}

	wantKinds := []placemark.Kind{placemark.KindPolygon, placemark.KindLine, placemark.KindLine}
	wantNames := []string{"Umbral Path", "Northern Limit", "Central Line"}
	for i, f := range doc.Features {
		if f.Kind != wantKinds[i] {
			t.Errorf("feature %d: expected kind %q, got %q", i, wantKinds[i], f.Kind)
		}
		if f.Name != wantNames[i] {
			t.Errorf("feature %d: expected name %q, got %q", i, wantNames[i], f.Name)
		}
		if f.Index != i {
			t.Errorf("feature %d: expected index %d, got %d", i, i, f.Index)
		}
	}

	ring := doc.Features[0].Ring
	if len(ring) != 4 {
		t.Fatalf("expected 4 ring vertices, got %d", len(ring))
	}
	if ring[1].Lon != -5 || ring[1].Lat != 41 {
		t.Errorf("expected altitude to be dropped and (-5,41) kept, got %+v", ring[1])
	}
	if len(doc.Features[2].Line) != 3 {
		t.Errorf("expected 3 line vertices, got %d", len(doc.Features[2].Line))
	}
}

func TestParseKML_DegeneratePolygonSkipped(t *testing.T) {
	input := kmlDoc(polygonPlacemark("Tiny", "0,0 1,0 0,1"))

	doc, err := ParseKML(context.Background(), strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Features) != 0 {
		t.Errorf("expected 3-vertex ring to be skipped, got %d features", len(doc.Features))
	}
}

func TestParseKML_DegenerateLineSkipped(t *testing.T) {
	input := kmlDoc(linePlacemark("Central Line", "5,5"))

	doc, err := ParseKML(context.Background(), strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Features) != 0 {
		t.Errorf("expected single-vertex line to be skipped, got %d features", len(doc.Features))
	}
}

func TestParseKML_MissingNameIsEmpty(t *testing.T) {
	input := kmlDoc(`<Placemark><LineString><coordinates>0,0 1,1</coordinates></LineString></Placemark>`)

	doc, err := ParseKML(context.Background(), strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Features) != 1 {
		t.Fatalf("expected 1 feature, got %d", len(doc.Features))
	}
	if doc.Features[0].Name != "" {
		t.Errorf("expected empty name, got %q", doc.Features[0].Name)
	}
}

func TestParseKML_PlacemarkWithoutGeometryIgnored(t *testing.T) {
	input := kmlDoc(`<Placemark><name>Greatest Eclipse</name><Point><coordinates>-25,65</coordinates></Point></Placemark>`)

	doc, err := ParseKML(context.Background(), strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Features) != 0 {
		t.Errorf("expected point placemark to be ignored, got %d features", len(doc.Features))
	}
}

func TestParseKML_NestedFoldersAndMultiGeometry(t *testing.T) {
	input := kmlDoc(`<Folder><name>Limits</name>
<Placemark><name>Zone</name><MultiGeometry>
<Polygon><outerBoundaryIs><LinearRing><coordinates>0,0 1,0 1,1 0,1 0,0</coordinates></LinearRing></outerBoundaryIs></Polygon>
</MultiGeometry></Placemark>
<Folder><Placemark><name>central line</name><MultiGeometry><MultiGeometry>
<LineString><coordinates>0,0 2,2</coordinates></LineString>
</MultiGeometry></MultiGeometry></Placemark></Folder>
</Folder>`)

	doc, err := ParseKML(context.Background(), strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Features) != 2 {
		t.Fatalf("expected 2 features, got %d", len(doc.Features))
	}
	if doc.Features[0].Kind != placemark.KindPolygon || len(doc.Features[0].Ring) != 5 {
		t.Errorf("expected 5-vertex polygon first, got %+v", doc.Features[0])
	}
	if doc.Features[1].Kind != placemark.KindLine || doc.Features[1].Name != "central line" {
		t.Errorf("expected nested central line second, got %+v", doc.Features[1])
	}
	if doc.Name != "TSE_2026_08_12" {
		t.Errorf("expected folder name not to override document name, got %q", doc.Name)
	}
}

func TestParseKML_MalformedCoordinates(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		wantPM string
	}{
		{"non-numeric longitude", polygonPlacemark("Zone A", "0,0 x,1 1,1 0,0"), "Zone A"},
		{"non-numeric latitude", linePlacemark("Central", "0,0 1,north"), "Central"},
		{"single component", linePlacemark("Central", "0,0 15"), "Central"},
		{"missing coordinates", `<Placemark><name>Broken</name><LineString></LineString></Placemark>`, "Broken"},
		{"missing ring", `<Placemark><name>Hollow</name><Polygon></Polygon></Placemark>`, "Hollow"},
	}
	for _, tt := range tests {
		_, err := ParseKML(context.Background(), strings.NewReader(kmlDoc(tt.body)))
		var gerr *GeometryFormatError
		if !errors.As(err, &gerr) {
			t.Errorf("%s: expected GeometryFormatError, got %v", tt.name, err)
			continue
		}
		if gerr.Placemark != tt.wantPM {
			t.Errorf("%s: expected placemark %q, got %q", tt.name, tt.wantPM, gerr.Placemark)
		}
	}
}

func TestParseKML_MalformedXML(t *testing.T) {
	_, err := ParseKML(context.Background(), strings.NewReader(`<kml><Document><Placemark>`))
	if !errors.Is(err, ErrMalformedMarkup) {
		t.Errorf("expected ErrMalformedMarkup, got %v", err)
	}
}

func TestParseKML_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ParseKML(ctx, strings.NewReader(kmlDoc(linePlacemark("Central", "0,0 1,1"))))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestParseKML_DescriptionText(t *testing.T) {
	input := kmlDoc(`<Placemark><name>Central Line</name>
<description><![CDATA[<h3>Total Solar Eclipse</h3><p>Duration: <b>2m18s</b></p>]]></description>
<LineString><coordinates>0,0 1,1</coordinates></LineString></Placemark>`)

	doc, err := ParseKML(context.Background(), strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "Total Solar Eclipse Duration: 2m18s"
	if got := doc.Features[0].Description; got != want {
		t.Errorf("expected description %q, got %q", want, got)
	}
}

func TestParseKML_Latin1Encoding(t *testing.T) {
	// "Línea Central" encoded as ISO-8859-1.
	input := "<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?>\n<kml><Document>" +
		"<Placemark><name>L\xednea Central</name><LineString><coordinates>0,0 1,1</coordinates></LineString></Placemark>" +
		"</Document></kml>"

	doc, err := ParseKML(context.Background(), strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Features[0].Name != "Línea Central" {
		t.Errorf("expected %q, got %q", "Línea Central", doc.Features[0].Name)
	}
}
