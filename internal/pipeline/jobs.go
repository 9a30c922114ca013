package pipeline

import (
	"sync"
	"time"

	"github.com/dgallion1/eclipsepath/internal/spatial"
)

// JobStatus represents the state of a batch job.
type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusRunning   JobStatus = "running"
	StatusCompleted JobStatus = "completed"
	StatusPartial   JobStatus = "partial"
	StatusFailed    JobStatus = "failed"
)

// Job tracks one directory batch.
type Job struct {
	mu sync.Mutex

	ID     string    `json:"job_id"`
	Dir    string    `json:"dir"`
	Status JobStatus `json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Internal: not serialized.
	batch  *Batch
	index  *spatial.Index
	errors []string
}

// NewJob returns a queued job for dir.
func NewJob(dir string) *Job {
	now := time.Now()
	return &Job{
		ID:        newJobID(),
		Dir:       dir,
		Status:    StatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Cleanup removes finished jobs that have not changed within the TTL.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		expired := now.Sub(job.UpdatedAt) > s.ttl && job.Status != StatusQueued && job.Status != StatusRunning
		job.mu.Unlock()
		if expired {
			delete(s.jobs, id)
		}
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.UpdatedAt = time.Now()
}

// AddError records a job-level error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.UpdatedAt = time.Now()
}

// Finish stores the batch and its spatial index and sets the final status.
func (j *Job) Finish(b *Batch, ix *spatial.Index, status JobStatus) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.batch = b
	j.index = ix
	j.Status = status
	j.UpdatedAt = time.Now()
}

// Batch returns the finished batch, or nil while the job is pending.
func (j *Job) Batch() *Batch {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.batch
}

// Index returns the spatial index of the finished batch, or nil.
func (j *Job) Index() *spatial.Index {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.index
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID        string    `json:"job_id"`
	Dir       string    `json:"dir"`
	Status    JobStatus `json:"status"`
	Files     int       `json:"files"`
	Succeeded int       `json:"succeeded"`
	Failed    int       `json:"failed"`
	Errors    []string  `json:"errors"`
	Outcomes  []Outcome `json:"outcomes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	snap := JobSnapshot{
		ID:        j.ID,
		Dir:       j.Dir,
		Status:    j.Status,
		Errors:    append([]string{}, j.errors...),
		Outcomes:  []Outcome{},
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
	if j.batch != nil {
		snap.Outcomes = append(snap.Outcomes, j.batch.Outcomes...)
		snap.Files = len(j.batch.Outcomes)
		for _, o := range j.batch.Outcomes {
			if o.Err != nil {
				snap.Failed++
			} else {
				snap.Succeeded++
			}
		}
	}
	return snap
}
