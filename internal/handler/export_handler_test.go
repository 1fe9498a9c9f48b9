package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/curriculum-api/internal/dto"
	"github.com/noah-isme/curriculum-api/internal/models"
	"github.com/noah-isme/curriculum-api/internal/service"
	appErrors "github.com/noah-isme/curriculum-api/pkg/errors"
	"github.com/noah-isme/curriculum-api/pkg/storage"
)

type savedGetterMock struct {
	saved *models.SavedCurriculum
}

func (m *savedGetterMock) Get(_ context.Context, id string) (*models.SavedCurriculum, error) {
	if m.saved == nil || m.saved.ID != id {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "curriculum not found")
	}
	return m.saved, nil
}

type bulkServiceMock struct {
	submitted dto.BulkExportRequest
	job       *models.ExportJob
	err       error
}

func (m *bulkServiceMock) Submit(_ context.Context, req dto.BulkExportRequest) (*models.ExportJob, error) {
	m.submitted = req
	return m.job, m.err
}

func (m *bulkServiceMock) Status(_ context.Context, id string) (*models.ExportJob, error) {
	if m.job == nil || m.job.ID != id {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
	}
	return m.job, nil
}

func newExportServiceFixture(t *testing.T) *service.ExportService {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("handler-secret", time.Hour)
	return service.NewExportService(store, signer, nil, nil, nil, service.ExportConfig{APIPrefix: "/api/v1"})
}

func testCurriculum() *models.Curriculum {
	req := dto.GenerateCurriculumRequest{Subject: "Data Science", Duration: "2 weeks", SkillLevel: models.SkillLevelIntermediate}
	return service.AssembleCurriculum(req, 2, service.GenerateWeeklyModules(req, 2, nil))
}

func TestExportHandlerExportStreamsFile(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewExportHandler(newExportServiceFixture(t), nil, nil)

	payload, err := json.Marshal(dto.ExportCurriculumRequest{Curriculum: testCurriculum(), Format: models.ExportFormatMarkdown})
	require.NoError(t, err)
	c, w := newTestContext(http.MethodPost, "/api/v1/curricula/export", payload)
	h.Export(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="Data_Science_-_Intermediate_Level_Curriculum.md"`, w.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(w.Body.String(), "# Data Science - Intermediate Level"))

	c, w = newTestContext(http.MethodPost, "/api/v1/curricula/export", []byte(`{"format":"rtf"}`))
	h.Export(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExportHandlerExportSavedAndDownload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	exports := newExportServiceFixture(t)
	h := NewExportHandler(exports, &savedGetterMock{saved: &models.SavedCurriculum{ID: "cur-9", Curriculum: testCurriculum()}}, nil)

	c, w := newTestContext(http.MethodPost, "/api/v1/curricula/cur-9/export", []byte(`{"format":"json","includeDetails":false}`))
	c.Params = gin.Params{{Key: "id", Value: "cur-9"}}
	h.ExportSaved(c)
	require.Equal(t, http.StatusCreated, w.Code)

	var link dto.ExportLinkResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &link))
	assert.Equal(t, "Data_Science_-_Intermediate_Level_Curriculum.json", link.Filename)
	require.True(t, strings.HasPrefix(link.URL, "/api/v1/exports/"))

	token := strings.TrimPrefix(link.URL, "/api/v1/exports/")
	c, w = newTestContext(http.MethodGet, link.URL, nil)
	c.Params = gin.Params{{Key: "token", Value: token}}
	h.Download(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body models.Curriculum
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Data Science - Intermediate Level", body.Title)
	assert.Empty(t, body.Modules[0].Resources)

	c, w = newTestContext(http.MethodGet, "/api/v1/exports/bogus", nil)
	c.Params = gin.Params{{Key: "token", Value: "bogus"}}
	h.Download(c)
	assert.Equal(t, http.StatusForbidden, w.Code)

	c, w = newTestContext(http.MethodPost, "/api/v1/curricula/missing/export", []byte(`{"format":"json"}`))
	c.Params = gin.Params{{Key: "id", Value: "missing"}}
	h.ExportSaved(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExportHandlerExportSavedWithoutLibrary(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewExportHandler(newExportServiceFixture(t), nil, nil)

	c, w := newTestContext(http.MethodPost, "/api/v1/curricula/cur-1/export", []byte(`{"format":"json"}`))
	c.Params = gin.Params{{Key: "id", Value: "cur-1"}}
	h.ExportSaved(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	c, w = newTestContext(http.MethodPost, "/api/v1/curricula/bulk-export", []byte(`{}`))
	h.BulkExport(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestExportHandlerBulkExport(t *testing.T) {
	gin.SetMode(gin.TestMode)
	bulk := &bulkServiceMock{job: &models.ExportJob{ID: "job-1", Status: models.ExportJobQueued}}
	h := NewExportHandler(newExportServiceFixture(t), nil, bulk)

	c, w := newTestContext(http.MethodPost, "/api/v1/curricula/bulk-export", []byte(`{"curriculumIds":["a","b"],"format":"pdf"}`))
	h.BulkExport(c)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, []string{"a", "b"}, bulk.submitted.CurriculumIDs)
	assert.Equal(t, models.ExportFormatPDF, bulk.submitted.Format)

	c, w = newTestContext(http.MethodGet, "/api/v1/curricula/bulk-export/job-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "job-1"}}
	h.BulkExportStatus(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"queued"`)

	c, w = newTestContext(http.MethodGet, "/api/v1/curricula/bulk-export/job-2", nil)
	c.Params = gin.Params{{Key: "id", Value: "job-2"}}
	h.BulkExportStatus(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
