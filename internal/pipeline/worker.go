package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dgallion1/eclipsepath/internal/spatial"
)

// Worker runs batch jobs one at a time.
type Worker struct {
	extractor *Extractor
	log       *slog.Logger
}

func NewWorker(extractor *Extractor, log *slog.Logger) *Worker {
	return &Worker{
		extractor: extractor,
		log:       log,
	}
}

// Process extracts every container in the job's directory and indexes the result.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "dir", job.Dir)

	job.SetStatus(StatusRunning)
	batch, err := w.extractor.ExtractDir(ctx, job.Dir)
	if err != nil && batch == nil {
		log.Error("batch failed", "error", err)
		job.AddError(fmt.Sprintf("batch: %s", err))
		job.SetStatus(StatusFailed)
		return
	}
	if err != nil {
		log.Warn("batch interrupted", "error", err, "processed", len(batch.Outcomes))
		job.AddError(fmt.Sprintf("interrupted: %s", err))
	}

	ix := BuildIndex(batch)
	failed := len(batch.Failures())
	succeeded := len(batch.Outcomes) - failed

	status := StatusCompleted
	switch {
	case err != nil || (failed > 0 && succeeded > 0):
		status = StatusPartial
	case failed > 0:
		status = StatusFailed
	}
	job.Finish(batch, ix, status)
	log.Info("batch complete", "files", len(batch.Outcomes), "failed", failed, "indexed", ix.Len(), "status", status)
}

// BuildIndex indexes every zone ring and center line segment of a batch.
func BuildIndex(b *Batch) *spatial.Index {
	ix := spatial.NewIndex()
	for _, o := range b.Results() {
		for i, z := range o.Result.Zones {
			name := ""
			if i < len(o.Result.ZoneNames) {
				name = o.Result.ZoneNames[i]
			}
			ix.Add(o.Label, o.StyleIndex, spatial.KindZone, i, name, z)
		}
		for i, seg := range o.Result.CenterLine {
			ix.Add(o.Label, o.StyleIndex, spatial.KindCenterLine, i, o.Result.CenterLineName, seg)
		}
	}
	return ix
}
