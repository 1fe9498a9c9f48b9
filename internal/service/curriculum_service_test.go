package service

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/curriculum-api/internal/dto"
	"github.com/noah-isme/curriculum-api/internal/models"
	"github.com/noah-isme/curriculum-api/internal/repository"
	appErrors "github.com/noah-isme/curriculum-api/pkg/errors"
)

type stubProvider struct {
	resources []models.ResourceEntry
	err       error
	calls     int
}

func (p *stubProvider) FetchResources(ctx context.Context, _ string, _ models.SkillLevel) ([]models.ResourceEntry, error) {
	p.calls++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return p.resources, p.err
}

type stubResolver map[string]models.DocumentRecord

func (r stubResolver) Resolve(ids []string) ([]models.DocumentRecord, error) {
	out := make([]models.DocumentRecord, 0, len(ids))
	for _, id := range ids {
		doc, ok := r[id]
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		out = append(out, doc)
	}
	return out, nil
}

type memoryCurriculumStore struct {
	rows map[string]models.SavedCurriculum
}

func newMemoryCurriculumStore() *memoryCurriculumStore {
	return &memoryCurriculumStore{rows: map[string]models.SavedCurriculum{}}
}

func (m *memoryCurriculumStore) Create(_ context.Context, c *models.SavedCurriculum) error {
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	row := *c
	row.Curriculum = nil
	m.rows[c.ID] = row
	return nil
}

func (m *memoryCurriculumStore) FindByID(_ context.Context, id string) (*models.SavedCurriculum, error) {
	row, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrCurriculumNotFound
	}
	return &row, nil
}

func (m *memoryCurriculumStore) FindByIDs(_ context.Context, ids []string) ([]models.SavedCurriculum, error) {
	out := make([]models.SavedCurriculum, 0, len(ids))
	for _, id := range ids {
		if row, ok := m.rows[id]; ok {
			out = append(out, row)
		}
	}
	return out, nil
}

func (m *memoryCurriculumStore) List(_ context.Context, filter models.CurriculumFilter) ([]models.SavedCurriculum, int, error) {
	out := make([]models.SavedCurriculum, 0)
	for _, row := range m.rows {
		if filter.Status != "" && row.Status != filter.Status {
			continue
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	total := len(out)
	if filter.Offset >= len(out) {
		return []models.SavedCurriculum{}, total, nil
	}
	out = out[filter.Offset:]
	if len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, total, nil
}

func (m *memoryCurriculumStore) UpdateStatus(_ context.Context, id string, status models.CurriculumStatus) error {
	row, ok := m.rows[id]
	if !ok {
		return repository.ErrCurriculumNotFound
	}
	row.Status = status
	m.rows[id] = row
	return nil
}

func (m *memoryCurriculumStore) Delete(_ context.Context, id string) error {
	if _, ok := m.rows[id]; !ok {
		return repository.ErrCurriculumNotFound
	}
	delete(m.rows, id)
	return nil
}

func cloudRequest() dto.GenerateCurriculumRequest {
	return dto.GenerateCurriculumRequest{
		Subject:    "Cloud Computing",
		Duration:   "4 weeks",
		SkillLevel: models.SkillLevelBeginner,
	}
}

func TestCurriculumServiceGenerateMissingFields(t *testing.T) {
	provider := &stubProvider{}
	metrics := NewMetricsService()
	svc := NewCurriculumService(nil, nil, provider, nil, metrics, nil, nil, CurriculumServiceConfig{})

	cases := []dto.GenerateCurriculumRequest{
		{Duration: "4 weeks", SkillLevel: models.SkillLevelBeginner},
		{Subject: "Go", SkillLevel: models.SkillLevelBeginner},
		{Subject: "Go", Duration: "4 weeks"},
	}
	for _, req := range cases {
		req.IncludeWebResources = true
		resp, err := svc.Generate(context.Background(), req)
		assert.Nil(t, resp)
		appErr := appErrors.FromError(err)
		require.NotNil(t, appErr)
		assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
		assert.Equal(t, "Missing required fields: subject, duration, skillLevel", appErr.Message)
	}
	assert.Zero(t, provider.calls)
	assert.EqualValues(t, 3, metrics.Snapshot().GenerationFailures)
}

func TestCurriculumServiceGenerateRejectsBadLevelAndWeeks(t *testing.T) {
	svc := NewCurriculumService(nil, nil, nil, nil, nil, nil, nil, CurriculumServiceConfig{MaxWeeks: 12})

	req := cloudRequest()
	req.SkillLevel = "Expert"
	_, err := svc.Generate(context.Background(), req)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	req = cloudRequest()
	req.Duration = "6 months"
	_, err = svc.Generate(context.Background(), req)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	req.Duration = "0 weeks"
	_, err = svc.Generate(context.Background(), req)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	req.Duration = "99999999999999999999 weeks"
	_, err = svc.Generate(context.Background(), req)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCurriculumServiceGenerateEndToEnd(t *testing.T) {
	svc := NewCurriculumService(nil, nil, &stubProvider{}, nil, nil, nil, nil, CurriculumServiceConfig{})

	resp, err := svc.Generate(context.Background(), cloudRequest())
	require.NoError(t, err)
	assert.False(t, resp.Cached)
	c := resp.Curriculum
	assert.Equal(t, "Cloud Computing - Beginner Level", c.Title)
	assert.Equal(t, 4, c.TotalWeeks)
	require.Len(t, c.Modules, 4)
	assert.Equal(t, "Introduction to Cloud Computing", c.Modules[0].Title)
	assert.Contains(t, c.Modules[1].Assessments, assessmentQuiz)
	assert.Contains(t, c.Modules[3].Assessments, assessmentFinalExam)
	assert.Contains(t, c.Modules[3].Assessments, assessmentFinalProject)
}

func TestCurriculumServiceProviderFailureDegrades(t *testing.T) {
	provider := &stubProvider{err: errors.New("search unavailable")}
	metrics := NewMetricsService()
	svc := NewCurriculumService(nil, nil, provider, nil, metrics, nil, nil, CurriculumServiceConfig{ProviderName: "web"})

	req := cloudRequest()
	req.IncludeWebResources = true
	resp, err := svc.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, provider.calls)
	assert.True(t, resp.Degraded)
	assert.Contains(t, resp.Curriculum.Description, " Enhanced with curated web resources.")
	for _, m := range resp.Curriculum.Modules {
		for _, r := range m.Resources {
			assert.NotContains(t, r, "🌐")
		}
	}
	assert.EqualValues(t, 1, metrics.Snapshot().ResourceFallbacks)
}

func TestCurriculumServiceCanceledContext(t *testing.T) {
	provider := &stubProvider{}
	svc := NewCurriculumService(nil, nil, provider, nil, nil, nil, nil, CurriculumServiceConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := cloudRequest()
	req.IncludeWebResources = true
	resp, err := svc.Generate(ctx, req)
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCurriculumServicePanicBecomesInternalError(t *testing.T) {
	svc := NewCurriculumService(nil, nil, nil, nil, nil, nil, nil, CurriculumServiceConfig{})
	svc.derive = func(dto.GenerateCurriculumRequest, int, []models.ResourceEntry) *models.Curriculum {
		panic("index out of range")
	}

	resp, err := svc.Generate(context.Background(), cloudRequest())
	assert.Nil(t, resp)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}

func TestCurriculumServiceResolvesRegisteredDocuments(t *testing.T) {
	content := "Serverless notes"
	resolver := stubResolver{
		"doc-1": {ID: "doc-1", Name: "serverless.pdf", Topics: []string{"Serverless Computing"}, Content: &content},
	}
	svc := NewCurriculumService(nil, resolver, nil, nil, nil, nil, nil, CurriculumServiceConfig{})

	req := cloudRequest()
	req.DocumentIDs = []string{"doc-1"}
	resp, err := svc.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []string{"Serverless Computing", "Cloud Fundamentals"}, resp.Curriculum.Modules[0].Topics)
	assert.Equal(t, "📄 serverless.pdf (pages relevant to Serverless Computing)", resp.Curriculum.Modules[0].Resources[0])

	req.DocumentIDs = []string{"missing"}
	_, err = svc.Generate(context.Background(), req)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCurriculumServiceCachesGeneration(t *testing.T) {
	repo := newMemoryCacheRepo()
	cache := NewGenerationCache(repo, nil, time.Minute, nil)
	svc := NewCurriculumService(nil, nil, nil, cache, nil, nil, nil, CurriculumServiceConfig{})

	first, err := svc.Generate(context.Background(), cloudRequest())
	require.NoError(t, err)
	assert.False(t, first.Cached)
	require.Len(t, repo.items, 1)

	second, err := svc.Generate(context.Background(), cloudRequest())
	require.NoError(t, err)
	assert.True(t, second.Cached)
	want, err := json.Marshal(first.Curriculum)
	require.NoError(t, err)
	got, err := json.Marshal(second.Curriculum)
	require.NoError(t, err)
	assert.JSONEq(t, string(want), string(got))
}

func TestCurriculumServiceSkipsCacheOnDegradedResources(t *testing.T) {
	repo := newMemoryCacheRepo()
	cache := NewGenerationCache(repo, nil, time.Minute, nil)
	svc := NewCurriculumService(nil, nil, &stubProvider{err: errors.New("down")}, cache, nil, nil, nil, CurriculumServiceConfig{})

	req := cloudRequest()
	req.IncludeWebResources = true
	_, err := svc.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Empty(t, repo.items)
}

func TestCurriculumServiceTemplates(t *testing.T) {
	svc := NewCurriculumService(nil, nil, nil, nil, nil, nil, nil, CurriculumServiceConfig{})

	templates := svc.Templates()
	require.Len(t, templates, 3)
	templates[0].Topics[0] = "mutated"
	assert.Equal(t, "AWS", svc.Templates()[0].Topics[0])

	resp, err := svc.GenerateFromTemplate(context.Background(), "machine-learning-bootcamp", dto.GenerateFromTemplateRequest{})
	require.NoError(t, err)
	assert.Equal(t, "Machine Learning - Intermediate Level", resp.Curriculum.Title)
	assert.Equal(t, 12, resp.Curriculum.TotalWeeks)

	_, err = svc.GenerateFromTemplate(context.Background(), "nope", dto.GenerateFromTemplateRequest{})
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCurriculumServiceLibrary(t *testing.T) {
	store := newMemoryCurriculumStore()
	svc := NewCurriculumService(store, nil, nil, nil, nil, nil, nil, CurriculumServiceConfig{})
	svc.newID = func() string { return "cur-1" }
	ctx := context.Background()

	generated, err := svc.Generate(ctx, cloudRequest())
	require.NoError(t, err)

	saved, err := svc.Save(ctx, dto.SaveCurriculumRequest{Subject: "Cloud Computing", Curriculum: generated.Curriculum})
	require.NoError(t, err)
	assert.Equal(t, "cur-1", saved.ID)
	assert.Equal(t, models.CurriculumStatusDraft, saved.Status)
	assert.Equal(t, 4, saved.TotalWeeks)

	loaded, err := svc.Get(ctx, "cur-1")
	require.NoError(t, err)
	assert.Equal(t, generated.Curriculum.Title, loaded.Curriculum.Title)
	assert.Len(t, loaded.Curriculum.Modules, 4)

	updated, err := svc.UpdateStatus(ctx, "cur-1", dto.UpdateCurriculumStatusRequest{Status: models.CurriculumStatusActive})
	require.NoError(t, err)
	assert.Equal(t, models.CurriculumStatusActive, updated.Status)

	_, err = svc.UpdateStatus(ctx, "cur-1", dto.UpdateCurriculumStatusRequest{Status: "Archived"})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	items, page, err := svc.List(ctx, dto.CurriculumQuery{Status: "Active"})
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 20, page.PageSize)
	assert.Equal(t, 1, page.TotalCount)

	_, _, err = svc.List(ctx, dto.CurriculumQuery{SkillLevel: "Expert"})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	loadedMany, err := svc.Load(ctx, []string{"cur-1"})
	require.NoError(t, err)
	require.Len(t, loadedMany, 1)
	assert.NotNil(t, loadedMany[0].Curriculum)
	_, err = svc.Load(ctx, []string{"cur-1", "cur-2"})
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	require.NoError(t, svc.Delete(ctx, "cur-1"))
	_, err = svc.Get(ctx, "cur-1")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	err = svc.Delete(ctx, "cur-1")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCurriculumServiceSaveRejectsBrokenShape(t *testing.T) {
	svc := NewCurriculumService(newMemoryCurriculumStore(), nil, nil, nil, nil, nil, nil, CurriculumServiceConfig{})
	broken := &models.Curriculum{Title: "x", TotalWeeks: 2, Modules: []models.WeekModule{{Week: 1}}}

	_, err := svc.Save(context.Background(), dto.SaveCurriculumRequest{Subject: "x", Curriculum: broken})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCurriculumServiceLibraryRequiresStore(t *testing.T) {
	svc := NewCurriculumService(nil, nil, nil, nil, nil, nil, nil, CurriculumServiceConfig{})
	_, err := svc.Get(context.Background(), "cur-1")
	assert.Equal(t, appErrors.ErrServiceUnavailable.Code, appErrors.FromError(err).Code)
}
