package service

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/curriculum-api/internal/dto"
	"github.com/noah-isme/curriculum-api/internal/models"
	"github.com/noah-isme/curriculum-api/internal/repository"
	appErrors "github.com/noah-isme/curriculum-api/pkg/errors"
	"github.com/noah-isme/curriculum-api/pkg/jobs"
	"github.com/noah-isme/curriculum-api/pkg/middleware/requestid"
)

// JobTypeBulkExport tags bulk export jobs on the queue.
const JobTypeBulkExport = "curriculum_bulk_export"

type exportJobStore interface {
	Create(ctx context.Context, job *models.ExportJob) error
	Get(ctx context.Context, id string) (*models.ExportJob, error)
	Update(ctx context.Context, id string, mutate func(*models.ExportJob)) error
	ListPending(ctx context.Context) ([]models.ExportJob, error)
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

type curriculumLoader interface {
	Load(ctx context.Context, ids []string) ([]models.SavedCurriculum, error)
}

type exportRenderer interface {
	Render(c *models.Curriculum, format models.ExportFormat, includeDetails bool) (*ExportFile, error)
	Store(ctx context.Context, owner string, file *ExportFile) (*ExportResult, error)
}

// BulkExportService accepts bulk export requests and reports their progress.
type BulkExportService struct {
	store     exportJobStore
	queue     jobDispatcher
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
	newID     func() string
}

// NewBulkExportService constructs the service.
func NewBulkExportService(store exportJobStore, queue jobDispatcher, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *BulkExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &BulkExportService{
		store:     store,
		queue:     queue,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		now:       time.Now,
		newID:     func() string { return uuid.NewString() },
	}
}

// Submit validates the request, records a queued job and dispatches it.
func (s *BulkExportService) Submit(ctx context.Context, req dto.BulkExportRequest) (*models.ExportJob, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "curriculumIds and a supported format are required")
	}
	job := &models.ExportJob{
		ID:             s.newID(),
		CurriculumIDs:  append([]string(nil), req.CurriculumIDs...),
		Format:         req.Format,
		IncludeDetails: dto.IncludeDetailsOrDefault(req.IncludeDetails),
		Status:         models.ExportJobQueued,
		CreatedAt:      s.now().UTC(),
	}
	if err := s.store.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create export job")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: JobTypeBulkExport}); err != nil {
		msg := "failed to enqueue export job"
		finished := s.now().UTC()
		_ = s.store.Update(ctx, job.ID, func(j *models.ExportJob) {
			j.Status = models.ExportJobFailed
			j.Error = &msg
			j.FinishedAt = &finished
		})
		s.metrics.RecordExportJob(string(models.ExportJobFailed))
		return nil, appErrors.Wrap(err, appErrors.ErrServiceUnavailable.Code, appErrors.ErrServiceUnavailable.Status, msg)
	}
	s.metrics.RecordExportJob(string(models.ExportJobQueued))
	s.logger.Info("bulk export queued",
		zap.String("job_id", job.ID),
		zap.String("request_id", requestid.FromContext(ctx)),
		zap.Int("curricula", len(job.CurriculumIDs)),
		zap.String("format", string(job.Format)))
	return job, nil
}

// Status returns the current state of a job.
func (s *BulkExportService) Status(ctx context.Context, id string) (*models.ExportJob, error) {
	job, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrExportJobNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export job")
	}
	return job, nil
}

// RecoverPending re-dispatches jobs left queued or processing.
func (s *BulkExportService) RecoverPending(ctx context.Context) int {
	pending, err := s.store.ListPending(ctx)
	if err != nil {
		s.logger.Warn("failed to list pending export jobs", zap.Error(err))
		return 0
	}
	recovered := 0
	for _, job := range pending {
		if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: JobTypeBulkExport}); err != nil {
			s.logger.Warn("failed to requeue export job", zap.String("job_id", job.ID), zap.Error(err))
			continue
		}
		recovered++
	}
	return recovered
}

// BulkExportWorker renders queued bulk export jobs into a zip archive.
type BulkExportWorker struct {
	store       exportJobStore
	curricula   curriculumLoader
	exporter    exportRenderer
	metrics     *MetricsService
	logger      *zap.Logger
	maxRetries  int
	concurrency int
	now         func() time.Time
}

// NewBulkExportWorker constructs a worker. concurrency bounds parallel renders per job.
func NewBulkExportWorker(store exportJobStore, curricula curriculumLoader, exporter exportRenderer, metrics *MetricsService, maxRetries, concurrency int, logger *zap.Logger) *BulkExportWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if concurrency <= 0 {
		concurrency = 4
	}
	return &BulkExportWorker{
		store:       store,
		curricula:   curricula,
		exporter:    exporter,
		metrics:     metrics,
		logger:      logger,
		maxRetries:  maxRetries,
		concurrency: concurrency,
		now:         time.Now,
	}
}

// Handle processes one queue delivery.
func (w *BulkExportWorker) Handle(ctx context.Context, job jobs.Job) error {
	record, err := w.store.Get(ctx, job.ID)
	if err != nil {
		return jobs.Permanent(err)
	}
	if err := w.store.Update(ctx, job.ID, func(j *models.ExportJob) {
		j.Status = models.ExportJobProcessing
		j.Progress = 5
		j.Error = nil
	}); err != nil {
		return err
	}

	result, err := w.run(ctx, record)
	if err != nil {
		permanent := jobs.IsPermanent(err) || errors.Is(err, appErrors.ErrNotFound)
		if permanent || job.Attempt >= w.maxRetries {
			w.fail(ctx, job.ID, err)
			return jobs.Permanent(err)
		}
		msg := err.Error()
		if updateErr := w.store.Update(ctx, job.ID, func(j *models.ExportJob) {
			j.Status = models.ExportJobQueued
			j.Progress = 0
			j.Error = &msg
		}); updateErr != nil {
			w.logger.Warn("failed to mark export job queued", zap.String("job_id", job.ID), zap.Error(updateErr))
		}
		return err
	}

	finished := w.now().UTC()
	url := result.URL
	if err := w.store.Update(ctx, job.ID, func(j *models.ExportJob) {
		j.Status = models.ExportJobFinished
		j.Progress = 100
		j.ResultURL = &url
		j.Error = nil
		j.FinishedAt = &finished
	}); err != nil {
		return err
	}
	w.metrics.RecordExportJob(string(models.ExportJobFinished))
	w.logger.Info("bulk export finished", zap.String("job_id", job.ID), zap.String("file", result.Filename))
	return nil
}

func (w *BulkExportWorker) run(ctx context.Context, record *models.ExportJob) (*ExportResult, error) {
	saved, err := w.curricula.Load(ctx, record.CurriculumIDs)
	if err != nil {
		return nil, err
	}

	files := make([]*ExportFile, len(saved))
	var (
		mu   sync.Mutex
		done int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)
	for i := range saved {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			file, err := w.exporter.Render(saved[i].Curriculum, record.Format, record.IncludeDetails)
			if err != nil {
				return fmt.Errorf("render %s: %w", saved[i].ID, err)
			}
			files[i] = file

			mu.Lock()
			done++
			progress := 5 + done*85/len(saved)
			mu.Unlock()
			if err := w.store.Update(gctx, record.ID, func(j *models.ExportJob) {
				if progress > j.Progress {
					j.Progress = progress
				}
			}); err != nil {
				w.logger.Warn("failed to update export progress", zap.String("job_id", record.ID), zap.Error(err))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	archive, err := zipExports(files)
	if err != nil {
		return nil, err
	}
	return w.exporter.Store(ctx, record.ID, &ExportFile{
		Data:        archive,
		Filename:    fmt.Sprintf("Curricula_Export_%s.zip", record.ID),
		ContentType: "application/zip",
		Format:      record.Format,
	})
}

func (w *BulkExportWorker) fail(ctx context.Context, id string, cause error) {
	msg := cause.Error()
	finished := w.now().UTC()
	if err := w.store.Update(ctx, id, func(j *models.ExportJob) {
		j.Status = models.ExportJobFailed
		j.Progress = 100
		j.Error = &msg
		j.FinishedAt = &finished
	}); err != nil {
		w.logger.Warn("failed to mark export job failed", zap.String("job_id", id), zap.Error(err))
	}
	w.metrics.RecordExportJob(string(models.ExportJobFailed))
	w.logger.Error("bulk export failed", zap.String("job_id", id), zap.Error(cause))
}

// zipExports packs files in order, numbering entries so equal titles do not collide.
func zipExports(files []*ExportFile) ([]byte, error) {
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	for i, f := range files {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     fmt.Sprintf("%02d_%s", i+1, f.Filename),
			Method:   zip.Deflate,
			Modified: time.Now().UTC(),
		})
		if err != nil {
			return nil, fmt.Errorf("add %s to archive: %w", f.Filename, err)
		}
		if _, err := w.Write(f.Data); err != nil {
			return nil, fmt.Errorf("write %s to archive: %w", f.Filename, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalize archive: %w", err)
	}
	return buf.Bytes(), nil
}
