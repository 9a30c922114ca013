package parser

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/eclipsepath/internal/placemark"
)

// DefaultMaxMarkupBytes caps the decompressed size of the embedded KML document.
const DefaultMaxMarkupBytes = 256 << 20

// KMZParser handles .kmz archives. The archive is read in memory; nothing is
// extracted to disk.
type KMZParser struct {
	MaxMarkupBytes int64
}

func (p *KMZParser) Parse(ctx context.Context, r io.Reader, filename string) (*placemark.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filename, err)
	}
	markup, err := p.unpack(bytes.NewReader(data), int64(len(data)), filename)
	if err != nil {
		return nil, err
	}
	doc, err := ParseKML(ctx, bytes.NewReader(markup))
	if err != nil {
		return nil, err
	}
	if doc.Name == "" {
		doc.Name = Stem(filename)
	}
	return doc, nil
}

// OpenContainer reads the KML document out of the KMZ archive at path. Only
// the KML member is read; the rest of the archive stays on disk.
func OpenContainer(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", filepath.Base(path), err)
	}
	p := &KMZParser{}
	return p.unpack(f, info.Size(), filepath.Base(path))
}

func (p *KMZParser) unpack(ra io.ReaderAt, size int64, name string) ([]byte, error) {
	zr, err := zip.NewReader(ra, size)
	if err != nil {
		return nil, &ContainerFormatError{Container: name, Err: err}
	}
	return p.readMarkup(zr, name)
}

func (p *KMZParser) readMarkup(zr *zip.Reader, name string) ([]byte, error) {
	var found []*zip.File
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if strings.HasSuffix(strings.ToLower(f.Name), ".kml") {
			found = append(found, f)
		}
	}
	if len(found) != 1 {
		members := make([]string, 0, len(found))
		for _, f := range found {
			members = append(members, f.Name)
		}
		return nil, &ContainerFormatError{Container: name, Members: members}
	}

	limit := p.MaxMarkupBytes
	if limit <= 0 {
		limit = DefaultMaxMarkupBytes
	}

	rc, err := found[0].Open()
	if err != nil {
		return nil, &ContainerFormatError{Container: name, Members: []string{found[0].Name}, Err: err}
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, limit+1))
	if err != nil {
		return nil, &ContainerFormatError{Container: name, Members: []string{found[0].Name}, Err: err}
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("container %s: %s exceeds %d bytes", name, found[0].Name, limit)
	}
	return data, nil
}
