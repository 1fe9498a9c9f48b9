package service

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/curriculum-api/internal/dto"
	"github.com/noah-isme/curriculum-api/internal/models"
	"github.com/noah-isme/curriculum-api/internal/repository"
	appErrors "github.com/noah-isme/curriculum-api/pkg/errors"
	"github.com/noah-isme/curriculum-api/pkg/jobs"
)

type recordingQueue struct {
	jobs []jobs.Job
	err  error
}

func (q *recordingQueue) Enqueue(job jobs.Job) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

type stubLoader struct {
	saved map[string]models.SavedCurriculum
	err   error
	calls int
}

func (l *stubLoader) Load(_ context.Context, ids []string) ([]models.SavedCurriculum, error) {
	l.calls++
	if l.err != nil {
		return nil, l.err
	}
	out := make([]models.SavedCurriculum, 0, len(ids))
	for _, id := range ids {
		s, ok := l.saved[id]
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "curriculum not found")
		}
		out = append(out, s)
	}
	return out, nil
}

func newBulkFixture(t *testing.T) (*BulkExportService, *BulkExportWorker, *repository.ExportJobRepository, *recordingQueue, *stubLoader) {
	t.Helper()
	store := repository.NewExportJobRepository(0)
	queue := &recordingQueue{}
	metrics := NewMetricsService()
	exporter, _ := newExportServiceForTest(t)
	c := sampleCurriculum(t)
	loader := &stubLoader{saved: map[string]models.SavedCurriculum{
		"cur-1": {ID: "cur-1", Curriculum: c},
		"cur-2": {ID: "cur-2", Curriculum: c},
	}}
	svc := NewBulkExportService(store, queue, metrics, nil, zap.NewNop())
	ids := 0
	svc.newID = func() string {
		ids++
		return "job-" + string(rune('0'+ids))
	}
	worker := NewBulkExportWorker(store, loader, exporter, metrics, 2, 2, zap.NewNop())
	return svc, worker, store, queue, loader
}

func TestBulkExportSubmitQueuesJob(t *testing.T) {
	svc, _, _, queue, _ := newBulkFixture(t)

	job, err := svc.Submit(context.Background(), dto.BulkExportRequest{CurriculumIDs: []string{"cur-1"}, Format: models.ExportFormatJSON})
	require.NoError(t, err)
	assert.Equal(t, "job-1", job.ID)
	assert.Equal(t, models.ExportJobQueued, job.Status)
	assert.True(t, job.IncludeDetails)
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, jobs.Job{ID: "job-1", Type: JobTypeBulkExport}, queue.jobs[0])

	status, err := svc.Status(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, models.ExportJobQueued, status.Status)
}

func TestBulkExportSubmitValidation(t *testing.T) {
	svc, _, _, queue, _ := newBulkFixture(t)

	_, err := svc.Submit(context.Background(), dto.BulkExportRequest{Format: models.ExportFormatJSON})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Submit(context.Background(), dto.BulkExportRequest{CurriculumIDs: []string{"cur-1"}, Format: "rtf"})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, queue.jobs)
}

func TestBulkExportSubmitEnqueueFailureMarksJobFailed(t *testing.T) {
	svc, _, store, queue, _ := newBulkFixture(t)
	queue.err = errors.New("queue not started")

	_, err := svc.Submit(context.Background(), dto.BulkExportRequest{CurriculumIDs: []string{"cur-1"}, Format: models.ExportFormatJSON})
	assert.Equal(t, appErrors.ErrServiceUnavailable.Code, appErrors.FromError(err).Code)

	job, err := store.Get(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, models.ExportJobFailed, job.Status)
	require.NotNil(t, job.Error)
}

func TestBulkExportStatusNotFound(t *testing.T) {
	svc, _, _, _, _ := newBulkFixture(t)
	_, err := svc.Status(context.Background(), "missing")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestBulkExportWorkerProducesArchive(t *testing.T) {
	svc, worker, _, queue, _ := newBulkFixture(t)
	ctx := context.Background()

	_, err := svc.Submit(ctx, dto.BulkExportRequest{CurriculumIDs: []string{"cur-1", "cur-2"}, Format: models.ExportFormatMarkdown})
	require.NoError(t, err)
	require.NoError(t, worker.Handle(ctx, queue.jobs[0]))

	job, err := svc.Status(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, models.ExportJobFinished, job.Status)
	assert.Equal(t, 100, job.Progress)
	require.NotNil(t, job.ResultURL)
	assert.Contains(t, *job.ResultURL, "/api/v1/exports/")
	require.NotNil(t, job.FinishedAt)

	exporter := worker.exporter.(*ExportService)
	token := (*job.ResultURL)[len("/api/v1/exports/"):]
	download, err := exporter.ResolveDownload(token)
	require.NoError(t, err)
	defer download.File.Close()
	assert.Equal(t, "application/zip", download.ContentType)

	data, err := io.ReadAll(download.File)
	require.NoError(t, err)
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Len(t, zr.File, 2)
	assert.Equal(t, "01_Cloud_Computing_-_Beginner_Level_Curriculum.md", zr.File[0].Name)
	assert.Equal(t, "02_Cloud_Computing_-_Beginner_Level_Curriculum.md", zr.File[1].Name)
}

func TestBulkExportWorkerMissingCurriculumIsPermanent(t *testing.T) {
	svc, worker, _, queue, loader := newBulkFixture(t)
	ctx := context.Background()

	_, err := svc.Submit(ctx, dto.BulkExportRequest{CurriculumIDs: []string{"cur-1", "gone"}, Format: models.ExportFormatJSON})
	require.NoError(t, err)

	err = worker.Handle(ctx, queue.jobs[0])
	require.Error(t, err)
	assert.True(t, jobs.IsPermanent(err))
	assert.Equal(t, 1, loader.calls)

	job, err := svc.Status(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, models.ExportJobFailed, job.Status)
	require.NotNil(t, job.Error)
	assert.Contains(t, *job.Error, "curriculum not found")
}

func TestBulkExportWorkerRetriesTransientFailures(t *testing.T) {
	svc, worker, _, queue, loader := newBulkFixture(t)
	ctx := context.Background()
	loader.err = errors.New("connection reset")

	_, err := svc.Submit(ctx, dto.BulkExportRequest{CurriculumIDs: []string{"cur-1"}, Format: models.ExportFormatCSV})
	require.NoError(t, err)

	delivery := queue.jobs[0]
	err = worker.Handle(ctx, delivery)
	require.Error(t, err)
	assert.False(t, jobs.IsPermanent(err))
	job, _ := svc.Status(ctx, "job-1")
	assert.Equal(t, models.ExportJobQueued, job.Status)

	delivery.Attempt = 2
	err = worker.Handle(ctx, delivery)
	assert.True(t, jobs.IsPermanent(err))
	job, _ = svc.Status(ctx, "job-1")
	assert.Equal(t, models.ExportJobFailed, job.Status)
}

func TestBulkExportRecoverPending(t *testing.T) {
	svc, _, _, queue, _ := newBulkFixture(t)
	ctx := context.Background()

	_, err := svc.Submit(ctx, dto.BulkExportRequest{CurriculumIDs: []string{"cur-1"}, Format: models.ExportFormatJSON})
	require.NoError(t, err)
	queue.jobs = nil

	assert.Equal(t, 1, svc.RecoverPending(ctx))
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, "job-1", queue.jobs[0].ID)
}
