package repository

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/noah-isme/curriculum-api/internal/models"
)

// ErrExportJobNotFound is returned for unknown job ids.
var ErrExportJobNotFound = errors.New("export job not found")

// ExportJobRepository keeps bulk export jobs in process memory.
// Jobs are dropped once they are older than the retention window.
type ExportJobRepository struct {
	mu        sync.RWMutex
	jobs      map[string]models.ExportJob
	retention time.Duration
	now       func() time.Time
}

// NewExportJobRepository creates an empty store.
func NewExportJobRepository(retention time.Duration) *ExportJobRepository {
	if retention <= 0 {
		retention = 24 * time.Hour
	}
	return &ExportJobRepository{jobs: map[string]models.ExportJob{}, retention: retention, now: time.Now}
}

// Create stores a new job.
func (r *ExportJobRepository) Create(_ context.Context, job *models.ExportJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.jobs[job.ID]; exists {
		return errors.New("export job already exists")
	}
	r.jobs[job.ID] = cloneExportJob(*job)
	return nil
}

// Get returns a copy of the job.
func (r *ExportJobRepository) Get(_ context.Context, id string) (*models.ExportJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, ErrExportJobNotFound
	}
	out := cloneExportJob(job)
	return &out, nil
}

// Update applies mutate to the stored job atomically.
func (r *ExportJobRepository) Update(_ context.Context, id string, mutate func(*models.ExportJob)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return ErrExportJobNotFound
	}
	mutate(&job)
	r.jobs[id] = job
	return nil
}

// ListPending returns queued or processing jobs, oldest first.
func (r *ExportJobRepository) ListPending(_ context.Context) ([]models.ExportJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.ExportJob, 0)
	for _, job := range r.jobs {
		if job.Status == models.ExportJobQueued || job.Status == models.ExportJobProcessing {
			out = append(out, cloneExportJob(job))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// Prune deletes finished or failed jobs older than the retention window and returns how many were removed.
func (r *ExportJobRepository) Prune(_ context.Context) int {
	cutoff := r.now().Add(-r.retention)
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, job := range r.jobs {
		if job.FinishedAt != nil && job.FinishedAt.Before(cutoff) {
			delete(r.jobs, id)
			removed++
		}
	}
	return removed
}

func cloneExportJob(job models.ExportJob) models.ExportJob {
	job.CurriculumIDs = append([]string(nil), job.CurriculumIDs...)
	return job
}
