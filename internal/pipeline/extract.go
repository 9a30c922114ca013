package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dgallion1/eclipsepath/internal/classify"
	"github.com/dgallion1/eclipsepath/internal/geom"
	"github.com/dgallion1/eclipsepath/internal/metrics"
	"github.com/dgallion1/eclipsepath/internal/parser"
	"github.com/dgallion1/eclipsepath/internal/placemark"
)

// Options controls how files are extracted.
type Options struct {
	Marker      string        // Center line name fragment, matched case-insensitively
	Threshold   float64       // Longitude jump treated as a dateline wrap
	PaletteSize int           // Number of styles cycled through in a batch
	FileTimeout time.Duration // Budget for one file; zero means none
}

// DefaultOptions returns the settings used by the source data provider's files.
func DefaultOptions() Options {
	return Options{
		Marker:      classify.DefaultMarker,
		Threshold:   geom.DefaultDatelineThreshold,
		PaletteSize: 10,
		FileTimeout: 30 * time.Second,
	}
}

// Result holds the geometry extracted from one file.
type Result struct {
	Title          string         `json:"title"`
	Zones          []geom.Ring    `json:"zones"`
	ZoneNames      []string       `json:"zone_names"`
	CenterLine     []geom.Segment `json:"center_line"`
	CenterLineName string         `json:"center_line_name,omitempty"`
	UnclosedZones  int            `json:"unclosed_zones"`
	Extent         *geom.Bounds   `json:"extent,omitempty"` // Box around all zones and segments
}

// HasCenterLine reports whether a center line was found.
func (r *Result) HasCenterLine() bool {
	return len(r.CenterLine) > 0
}

// Outcome is the per-file entry of a batch: either Result or Err is set.
type Outcome struct {
	Filename   string
	Label      string
	StyleIndex int
	Result     *Result
	Err        error
	Duration   time.Duration
}

func (o Outcome) MarshalJSON() ([]byte, error) {
	type wire struct {
		Filename   string  `json:"filename"`
		Label      string  `json:"label"`
		StyleIndex int     `json:"style_index"`
		Result     *Result `json:"result,omitempty"`
		Error      string  `json:"error,omitempty"`
		DurationMs int64   `json:"duration_ms"`
	}
	w := wire{
		Filename:   o.Filename,
		Label:      o.Label,
		StyleIndex: o.StyleIndex,
		Result:     o.Result,
		DurationMs: o.Duration.Milliseconds(),
	}
	if o.Err != nil {
		w.Error = o.Err.Error()
	}
	return json.Marshal(w)
}

// Failure pairs a filename with the error that stopped its extraction.
type Failure struct {
	Filename string
	Err      error
}

// Batch is the outcome of extracting every container in a directory.
type Batch struct {
	Dir      string    `json:"dir"`
	Outcomes []Outcome `json:"outcomes"`
}

// Results returns the outcomes that produced geometry, in filename order.
func (b *Batch) Results() []Outcome {
	var out []Outcome
	for _, o := range b.Outcomes {
		if o.Err == nil {
			out = append(out, o)
		}
	}
	return out
}

// Failures returns the files that could not be extracted.
func (b *Batch) Failures() []Failure {
	var out []Failure
	for _, o := range b.Outcomes {
		if o.Err != nil {
			out = append(out, Failure{Filename: o.Filename, Err: o.Err})
		}
	}
	return out
}

// Extractor runs unpack, parse, classify and dateline splitting for files.
type Extractor struct {
	opts  Options
	log   *slog.Logger
	Stats *ExtractionStats
}

func NewExtractor(opts Options, log *slog.Logger) *Extractor {
	def := DefaultOptions()
	if opts.Threshold <= 0 {
		opts.Threshold = def.Threshold
	}
	if opts.PaletteSize <= 0 {
		opts.PaletteSize = def.PaletteSize
	}
	return &Extractor{
		opts:  opts,
		log:   log,
		Stats: NewExtractionStats(time.Hour),
	}
}

// Options returns the extractor's settings.
func (e *Extractor) Options() Options {
	return e.opts
}

// Extract reads one .kmz or .kml file from r.
func (e *Extractor) Extract(ctx context.Context, r io.Reader, filename string) (*Result, error) {
	return e.run(ctx, filename, func(ctx context.Context) (*placemark.Document, error) {
		p, err := parser.ForFile(filename)
		if err != nil {
			return nil, err
		}
		return p.Parse(ctx, r, filename)
	})
}

// ExtractFile extracts the file at path. KMZ archives are read in place, so
// only the embedded KML document is loaded into memory.
func (e *Extractor) ExtractFile(ctx context.Context, path string) (*Result, error) {
	name := filepath.Base(path)
	if !parser.IsContainer(name) {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		defer f.Close()
		return e.Extract(ctx, f, name)
	}
	return e.run(ctx, name, func(ctx context.Context) (*placemark.Document, error) {
		markup, err := parser.OpenContainer(path)
		if err != nil {
			return nil, err
		}
		p := &parser.KMLParser{}
		return p.Parse(ctx, bytes.NewReader(markup), name)
	})
}

// run applies the per-file budget to parse, builds the Result and records
// stats and metrics.
func (e *Extractor) run(ctx context.Context, filename string, parse func(context.Context) (*placemark.Document, error)) (*Result, error) {
	if e.opts.FileTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.FileTimeout)
		defer cancel()
	}

	start := time.Now()
	res, err := e.extract(ctx, filename, parse)
	elapsed := time.Since(start)

	e.Stats.Record(elapsed.Milliseconds(), err == nil)
	metrics.ExtractDuration.Observe(elapsed.Seconds())
	metrics.FilesProcessed.WithLabelValues(outcomeLabel(err)).Inc()
	if err == nil {
		metrics.ZonesExtracted.Add(float64(len(res.Zones)))
		metrics.SegmentsExtracted.Add(float64(len(res.CenterLine)))
	}
	return res, err
}

func (e *Extractor) extract(ctx context.Context, filename string, parse func(context.Context) (*placemark.Document, error)) (*Result, error) {
	doc, err := parse(ctx)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c := classify.Classify(doc.Features, e.opts.Marker)
	res := &Result{
		Title:     doc.Name,
		Zones:     c.Zones,
		ZoneNames: c.ZoneNames,
	}
	for _, z := range c.Zones {
		if !z.Closed() {
			res.UnclosedZones++
		}
	}
	if res.UnclosedZones > 0 {
		e.log.Debug("zone rings not closed", "file", filename, "count", res.UnclosedZones)
	}

	if c.CenterLine != nil {
		res.CenterLineName = c.CenterLine.Name
		res.CenterLine = geom.SplitAll(c.CenterLine.Line, e.opts.Threshold)
		if dropped := geom.Dropped(c.CenterLine.Line, e.opts.Threshold); dropped > 0 {
			e.log.Debug("dropped isolated center line vertices", "file", filename, "count", dropped)
		}
	}
	res.Extent = extent(res.Zones, res.CenterLine)
	if res.Zones == nil {
		res.Zones = []geom.Ring{}
	}
	if res.ZoneNames == nil {
		res.ZoneNames = []string{}
	}
	if res.CenterLine == nil {
		res.CenterLine = []geom.Segment{}
	}
	return res, nil
}

// ExtractDir extracts every supported file in dir, in filename order. A file
// that fails is recorded in its Outcome and does not stop the batch. Style
// indexes follow listing position, so a failed file still holds its slot.
func (e *Extractor) ExtractDir(ctx context.Context, dir string) (*Batch, error) {
	files, err := ListContainers(dir)
	if err != nil {
		return nil, err
	}

	batch := &Batch{Dir: dir, Outcomes: make([]Outcome, 0, len(files))}
	for i, name := range files {
		if err := ctx.Err(); err != nil {
			return batch, err
		}
		log := e.log.With("file", name)

		start := time.Now()
		res, err := e.ExtractFile(ctx, filepath.Join(dir, name))
		out := Outcome{
			Filename:   name,
			Label:      parser.Stem(name),
			StyleIndex: i % e.opts.PaletteSize,
			Result:     res,
			Err:        err,
			Duration:   time.Since(start),
		}
		if err != nil {
			log.Warn("extraction failed", "error", err)
		} else {
			log.Info("extracted",
				"zones", len(res.Zones),
				"center_line_segments", len(res.CenterLine),
				"duration_ms", out.Duration.Milliseconds(),
			)
		}
		batch.Outcomes = append(batch.Outcomes, out)
	}
	return batch, nil
}

// ListContainers returns the names of the .kmz files in dir, sorted by name.
func ListContainers(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir) // sorted by filename
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	var names []string
	for _, ent := range entries {
		if ent.IsDir() || !parser.IsContainer(ent.Name()) {
			continue
		}
		names = append(names, ent.Name())
	}
	return names, nil
}

func extent(zones []geom.Ring, segments []geom.Segment) *geom.Bounds {
	var b *geom.Bounds
	grow := func(o geom.Bounds) {
		if b == nil {
			b = &o
			return
		}
		*b = b.Extend(o)
	}
	for _, z := range zones {
		grow(z.Bounds())
	}
	for _, s := range segments {
		grow(s.Bounds())
	}
	return b
}

func outcomeLabel(err error) string {
	var cerr *parser.ContainerFormatError
	var gerr *parser.GeometryFormatError
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.As(err, &cerr):
		return metrics.OutcomeContainer
	case errors.As(err, &gerr):
		return metrics.OutcomeGeometry
	case errors.Is(err, parser.ErrMalformedMarkup):
		return metrics.OutcomeMarkup
	case errors.Is(err, context.DeadlineExceeded):
		return metrics.OutcomeTimeout
	default:
		return metrics.OutcomeIO
	}
}
