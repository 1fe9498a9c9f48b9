package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/curriculum-api/internal/dto"
	"github.com/noah-isme/curriculum-api/internal/middleware"
	"github.com/noah-isme/curriculum-api/internal/models"
	appErrors "github.com/noah-isme/curriculum-api/pkg/errors"
)

type curriculumServiceMock struct {
	generateResp *dto.GenerateCurriculumResponse
	generateErr  error
	lastGenerate dto.GenerateCurriculumRequest
	templateID   string
	saved        *models.SavedCurriculum
	listItems    []models.SavedCurriculum
	listPage     *models.Pagination
	lastQuery    dto.CurriculumQuery
	err          error
	deletedID    string
}

func (m *curriculumServiceMock) Generate(_ context.Context, req dto.GenerateCurriculumRequest) (*dto.GenerateCurriculumResponse, error) {
	m.lastGenerate = req
	return m.generateResp, m.generateErr
}

func (m *curriculumServiceMock) Templates() []models.CurriculumTemplate {
	return []models.CurriculumTemplate{{ID: "cloud-fundamentals", Title: "Cloud Computing Fundamentals"}}
}

func (m *curriculumServiceMock) GenerateFromTemplate(_ context.Context, id string, _ dto.GenerateFromTemplateRequest) (*dto.GenerateCurriculumResponse, error) {
	m.templateID = id
	return m.generateResp, m.generateErr
}

func (m *curriculumServiceMock) Save(_ context.Context, _ dto.SaveCurriculumRequest) (*models.SavedCurriculum, error) {
	return m.saved, m.err
}

func (m *curriculumServiceMock) Get(_ context.Context, _ string) (*models.SavedCurriculum, error) {
	return m.saved, m.err
}

func (m *curriculumServiceMock) List(_ context.Context, query dto.CurriculumQuery) ([]models.SavedCurriculum, *models.Pagination, error) {
	m.lastQuery = query
	return m.listItems, m.listPage, m.err
}

func (m *curriculumServiceMock) UpdateStatus(_ context.Context, _ string, _ dto.UpdateCurriculumStatusRequest) (*models.SavedCurriculum, error) {
	return m.saved, m.err
}

func (m *curriculumServiceMock) Delete(_ context.Context, id string) error {
	m.deletedID = id
	return m.err
}

func newTestContext(method, target string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

type envelope struct {
	Data  json.RawMessage        `json:"data"`
	Error *appErrors.Error       `json:"error"`
	Meta  map[string]interface{} `json:"meta"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestCurriculumHandlerGenerate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &curriculumServiceMock{generateResp: &dto.GenerateCurriculumResponse{
		Curriculum: &models.Curriculum{Title: "Cloud Computing - Beginner Level", TotalWeeks: 4},
		Cached:     true,
	}}
	h := NewCurriculumHandler(svc)

	body := []byte(`{"subject":"Cloud Computing","duration":"4 weeks","skillLevel":"Beginner","documentIds":["doc-1"]}`)
	c, w := newTestContext(http.MethodPost, "/api/v1/curricula/generate", body)
	c.Set("response_meta", map[string]interface{}{})

	h.Generate(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Cloud Computing", svc.lastGenerate.Subject)
	assert.Equal(t, []string{"doc-1"}, svc.lastGenerate.DocumentIDs)

	env := decodeEnvelope(t, w)
	var resp dto.GenerateCurriculumResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.Equal(t, 4, resp.Curriculum.TotalWeeks)
	assert.Equal(t, true, env.Meta["cache_hit"])
}

func TestCurriculumHandlerGenerateErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &curriculumServiceMock{generateErr: appErrors.Clone(appErrors.ErrValidation, "Missing required fields: subject, duration, skillLevel")}
	h := NewCurriculumHandler(svc)

	c, w := newTestContext(http.MethodPost, "/api/v1/curricula/generate", []byte(`{}`))
	h.Generate(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Missing required fields: subject, duration, skillLevel", decodeEnvelope(t, w).Error.Message)

	c, w = newTestContext(http.MethodPost, "/api/v1/curricula/generate", []byte(`{"subject":`))
	h.Generate(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCurriculumHandlerDegradedMeta(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &curriculumServiceMock{generateResp: &dto.GenerateCurriculumResponse{Curriculum: &models.Curriculum{}, Degraded: true}}
	h := NewCurriculumHandler(svc)

	c, w := newTestContext(http.MethodPost, "/api/v1/curricula/templates/cloud-fundamentals/generate", nil)
	c.Params = gin.Params{{Key: "id", Value: "cloud-fundamentals"}}
	h.GenerateFromTemplate(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "cloud-fundamentals", svc.templateID)
	env := decodeEnvelope(t, w)
	assert.Equal(t, "web resources unavailable", env.Meta["degraded"])
	assert.Equal(t, false, env.Meta["cache_hit"])
}

func TestCurriculumHandlerLibrary(t *testing.T) {
	gin.SetMode(gin.TestMode)
	saved := &models.SavedCurriculum{ID: "cur-1", Title: "Go", Status: models.CurriculumStatusDraft}
	svc := &curriculumServiceMock{
		saved:     saved,
		listItems: []models.SavedCurriculum{*saved},
		listPage:  &models.Pagination{Page: 2, PageSize: 5, TotalCount: 6},
	}
	h := NewCurriculumHandler(svc)

	c, w := newTestContext(http.MethodPost, "/api/v1/curricula", []byte(`{"subject":"Go","curriculum":{"title":"Go"}}`))
	h.Save(c)
	assert.Equal(t, http.StatusCreated, w.Code)

	c, w = newTestContext(http.MethodGet, "/api/v1/curricula?search=%20go%20&status=Draft&page=2&pageSize=5", nil)
	h.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, dto.CurriculumQuery{Search: "go", Status: "Draft", Page: 2, PageSize: 5}, svc.lastQuery)
	assert.Contains(t, w.Body.String(), `"pagination"`)

	c, w = newTestContext(http.MethodGet, "/api/v1/curricula?page=abc", nil)
	h.List(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	c, w = newTestContext(http.MethodPatch, "/api/v1/curricula/cur-1/status", []byte(`{"status":"Active"}`))
	c.Params = gin.Params{{Key: "id", Value: "cur-1"}}
	h.UpdateStatus(c)
	assert.Equal(t, http.StatusOK, w.Code)

	c, w = newTestContext(http.MethodDelete, "/api/v1/curricula/cur-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "cur-1"}}
	h.Delete(c)
	c.Writer.WriteHeaderNow()
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "cur-1", svc.deletedID)
}

func TestCurriculumHandlerNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &curriculumServiceMock{err: appErrors.Clone(appErrors.ErrNotFound, "curriculum not found")}
	h := NewCurriculumHandler(svc)

	c, w := newTestContext(http.MethodGet, "/api/v1/curricula/missing", nil)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}
	h.Get(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCurriculumHandlerRoutesThroughMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &curriculumServiceMock{generateResp: &dto.GenerateCurriculumResponse{Curriculum: &models.Curriculum{}}}
	h := NewCurriculumHandler(svc)

	router := gin.New()
	router.Use(middleware.WithResponseMeta())
	router.GET("/templates", h.Templates)
	router.POST("/generate", h.Generate)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/templates", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "cloud-fundamentals")

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/generate", bytes.NewReader([]byte(`{"subject":"Go","duration":"2 weeks","skillLevel":"Beginner"}`)))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w)
	assert.Contains(t, env.Meta, "processing_time_ms")
}
