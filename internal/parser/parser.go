package parser

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/eclipsepath/internal/placemark"
)

// Parser converts raw file bytes into a placemark Document.
type Parser interface {
	Parse(ctx context.Context, r io.Reader, filename string) (*placemark.Document, error)
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".kmz": true,
	".kml": true,
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".kmz":
		return &KMZParser{}, nil
	case ".kml":
		return &KMLParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// IsContainer reports whether filename names a KMZ archive. Batch listings
// only pick up containers.
func IsContainer(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".kmz")
}

// Stem returns the base filename without its extension.
func Stem(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
