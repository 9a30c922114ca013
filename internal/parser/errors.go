package parser

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedMarkup is returned when the KML document is not well-formed XML.
var ErrMalformedMarkup = errors.New("malformed kml document")

// ContainerFormatError indicates a KMZ archive that does not hold exactly one KML document.
type ContainerFormatError struct {
	Container string   // Archive name
	Members   []string // Matching .kml members found
	Err       error    // Underlying archive error, if the input is not a readable zip
}

func (e *ContainerFormatError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("container %s: not a readable archive: %v", e.Container, e.Err)
	case len(e.Members) == 0:
		return fmt.Sprintf("container %s: no .kml document found", e.Container)
	default:
		return fmt.Sprintf("container %s: expected one .kml document, found %d (%s)",
			e.Container, len(e.Members), strings.Join(e.Members, ", "))
	}
}

func (e *ContainerFormatError) Unwrap() error {
	return e.Err
}

// GeometryFormatError indicates unusable geometry inside a placemark.
type GeometryFormatError struct {
	Placemark string // Placemark name, may be empty
	Reason    string
	Err       error
}

func (e *GeometryFormatError) Error() string {
	name := e.Placemark
	if name == "" {
		name = "(unnamed)"
	}
	if e.Err != nil {
		return fmt.Sprintf("placemark %q: %s: %v", name, e.Reason, e.Err)
	}
	return fmt.Sprintf("placemark %q: %s", name, e.Reason)
}

func (e *GeometryFormatError) Unwrap() error {
	return e.Err
}
