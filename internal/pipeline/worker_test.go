package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/dgallion1/eclipsepath/internal/config"
	"github.com/dgallion1/eclipsepath/internal/geom"
	"github.com/dgallion1/eclipsepath/internal/spatial"
)

func TestWorker_ProcessStatuses(t *testing.T) {
	good := kmzBytes(t, "doc.kml", kml(zone2026, line2026))
	bad := []byte("not a zip archive")

	tests := []struct {
		name  string
		files map[string][]byte
		want  JobStatus
	}{
		{"all ok", map[string][]byte{"a.kmz": good, "b.kmz": good}, StatusCompleted},
		{"mixed", map[string][]byte{"a.kmz": good, "b.kmz": bad}, StatusPartial},
		{"all failed", map[string][]byte{"a.kmz": bad}, StatusFailed},
		{"empty dir", map[string][]byte{}, StatusCompleted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for name, data := range tt.files {
				writeFile(t, dir, name, data)
			}
			job := NewJob(dir)
			NewWorker(NewExtractor(DefaultOptions(), testLogger()), testLogger()).Process(context.Background(), job)

			if job.Status != tt.want {
				t.Errorf("expected status %q, got %q", tt.want, job.Status)
			}
			if job.Batch() == nil {
				t.Error("expected batch to be stored")
			}
		})
	}
}

func TestWorker_MissingDirFails(t *testing.T) {
	job := NewJob(filepath.Join(t.TempDir(), "gone"))
	NewWorker(NewExtractor(DefaultOptions(), testLogger()), testLogger()).Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusFailed {
		t.Errorf("expected status %q, got %q", StatusFailed, snap.Status)
	}
	if len(snap.Errors) != 1 {
		t.Errorf("expected 1 job error, got %d", len(snap.Errors))
	}
}

func TestBuildIndex(t *testing.T) {
	b := &Batch{Outcomes: []Outcome{
		{Label: "TSE_2026_08_12", StyleIndex: 0, Result: &Result{
			Zones:          []geom.Ring{{{Lon: -30, Lat: 60}, {Lon: -5, Lat: 38}, {Lon: 3, Lat: 40}, {Lon: -30, Lat: 60}}},
			ZoneNames:      []string{"Umbra"},
			CenterLine:     []geom.Segment{{{Lon: -28, Lat: 63}, {Lon: -1, Lat: 39}}},
			CenterLineName: "Central Line",
		}},
		{Label: "broken", StyleIndex: 1, Err: context.DeadlineExceeded},
	}}

	ix := BuildIndex(b)
	if ix.Len() != 2 {
		t.Fatalf("expected 2 indexed items, got %d", ix.Len())
	}
	got := ix.Query(geom.Bounds{MinLon: -20, MinLat: 40, MaxLon: -10, MaxLat: 55})
	if len(got) != 2 {
		t.Fatalf("expected zone and center line, got %d", len(got))
	}
	if got[0].Kind != spatial.KindZone || got[0].Name != "Umbra" {
		t.Errorf("expected zone %q first, got %q %q", "Umbra", got[0].Kind, got[0].Name)
	}
	if got[1].Name != "Central Line" {
		t.Errorf("expected center line name, got %q", got[1].Name)
	}
}

func TestOrchestrator_SubmitAndComplete(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "TSE_2026_08_12.kmz", kmzBytes(t, "doc.kml", kml(zone2026, line2026)))

	cfg := config.Config{
		CenterLineMarker:  "central",
		DatelineThreshold: 180,
		Palette:           config.DefaultPalette,
		FileTimeout:       time.Second,
		WorkerCount:       1,
		MaxQueueSize:      4,
		JobTTL:            time.Hour,
	}
	o := NewOrchestrator(cfg, testLogger())
	o.Start(context.Background())
	defer o.Stop()

	job := NewJob(dir)
	if err := o.Submit(job); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if o.GetJob(job.ID) != job {
		t.Fatal("expected job to be registered")
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		snap := job.Snapshot()
		if snap.Status == StatusCompleted {
			if snap.Succeeded != 1 {
				t.Errorf("expected 1 succeeded file, got %d", snap.Succeeded)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("job did not complete, status %q", snap.Status)
		}
		time.Sleep(10 * time.Millisecond)
	}
	if len(o.Palette()) != len(config.DefaultPalette) {
		t.Errorf("expected default palette, got %d colors", len(o.Palette()))
	}
}

func TestOrchestrator_QueueFull(t *testing.T) {
	cfg := config.Config{Palette: config.DefaultPalette, MaxQueueSize: 1, JobTTL: time.Hour}
	o := NewOrchestrator(cfg, testLogger())

	// No workers started, so the second submit overflows.
	if err := o.Submit(NewJob(t.TempDir())); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	job := NewJob(t.TempDir())
	if err := o.Submit(job); err == nil {
		t.Fatal("expected queue full error")
	}
	if job.Snapshot().Status != StatusFailed {
		t.Errorf("expected overflowed job to be failed, got %q", job.Snapshot().Status)
	}
	if o.QueueDepth() != 1 {
		t.Errorf("expected queue depth 1, got %d", o.QueueDepth())
	}
}

func TestOrchestrator_SubmitAfterStop(t *testing.T) {
	cfg := config.Config{Palette: config.DefaultPalette, WorkerCount: 1, MaxQueueSize: 2, JobTTL: time.Hour}
	o := NewOrchestrator(cfg, testLogger())
	o.Start(context.Background())
	o.Stop()
	o.Stop()

	job := NewJob(t.TempDir())
	if err := o.Submit(job); !errors.Is(err, ErrStopped) {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
	if o.GetJob(job.ID) != nil {
		t.Error("expected rejected job not to be registered")
	}
}
