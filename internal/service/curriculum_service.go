package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/noah-isme/curriculum-api/internal/dto"
	"github.com/noah-isme/curriculum-api/internal/models"
	"github.com/noah-isme/curriculum-api/internal/repository"
	appErrors "github.com/noah-isme/curriculum-api/pkg/errors"
	"github.com/noah-isme/curriculum-api/pkg/middleware/requestid"
	"github.com/noah-isme/curriculum-api/pkg/tracing"
)

const missingFieldsMessage = "Missing required fields: subject, duration, skillLevel"

const (
	defaultCurriculumPageSize = 20
	maxCurriculumPageSize     = 100
)

// CurriculumStore persists saved curricula.
type CurriculumStore interface {
	Create(ctx context.Context, c *models.SavedCurriculum) error
	FindByID(ctx context.Context, id string) (*models.SavedCurriculum, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.SavedCurriculum, error)
	List(ctx context.Context, filter models.CurriculumFilter) ([]models.SavedCurriculum, int, error)
	UpdateStatus(ctx context.Context, id string, status models.CurriculumStatus) error
	Delete(ctx context.Context, id string) error
}

type documentResolver interface {
	Resolve(ids []string) ([]models.DocumentRecord, error)
}

// CurriculumServiceConfig tunes generation guards.
type CurriculumServiceConfig struct {
	MaxWeeks     int
	ProviderName string
}

// CurriculumService generates curricula and manages the saved library.
type CurriculumService struct {
	store     CurriculumStore
	documents documentResolver
	provider  ResourceProvider
	cache     *GenerationCache
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	tracer    trace.Tracer
	cfg       CurriculumServiceConfig
	newID     func() string
	derive    func(req dto.GenerateCurriculumRequest, weeks int, resources []models.ResourceEntry) *models.Curriculum
}

// NewCurriculumService constructs the service. store, documents and cache may be nil.
func NewCurriculumService(store CurriculumStore, documents documentResolver, provider ResourceProvider, cache *GenerationCache, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg CurriculumServiceConfig) *CurriculumService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if provider == nil {
		provider = NewStaticResourceProvider()
	}
	if cfg.MaxWeeks <= 0 {
		cfg.MaxWeeks = 52
	}
	if cfg.ProviderName == "" {
		cfg.ProviderName = "static"
	}
	return &CurriculumService{
		store:     store,
		documents: documents,
		provider:  provider,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		tracer:    tracing.Tracer(),
		cfg:       cfg,
		newID:     func() string { return uuid.NewString() },
		derive:    deriveCurriculum,
	}
}

func deriveCurriculum(req dto.GenerateCurriculumRequest, weeks int, resources []models.ResourceEntry) *models.Curriculum {
	return AssembleCurriculum(req, weeks, GenerateWeeklyModules(req, weeks, resources))
}

// Generate validates the request and runs the curriculum pipeline.
func (s *CurriculumService) Generate(ctx context.Context, req dto.GenerateCurriculumRequest) (*dto.GenerateCurriculumResponse, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "curriculum.generate",
		trace.WithAttributes(
			attribute.String("curriculum.subject", req.Subject),
			attribute.String("curriculum.skill_level", string(req.SkillLevel)),
		),
	)
	defer span.End()

	resp, weeks, outcome, err := s.generate(ctx, req)
	level := string(req.SkillLevel)
	if !req.SkillLevel.Valid() {
		level = "unknown"
	}
	s.metrics.ObserveGeneration(outcome, level, weeks, time.Since(start))
	span.SetAttributes(attribute.String("curriculum.outcome", outcome), attribute.Int("curriculum.weeks", weeks))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		return nil, err
	}
	return resp, nil
}

func (s *CurriculumService) generate(ctx context.Context, req dto.GenerateCurriculumRequest) (*dto.GenerateCurriculumResponse, int, string, error) {
	if req.Subject == "" || req.Duration == "" || req.SkillLevel == "" {
		return nil, 0, OutcomeValidation, appErrors.Clone(appErrors.ErrValidation, missingFieldsMessage)
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, 0, OutcomeValidation, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid curriculum request")
	}
	weeks := ParseDurationToWeeks(req.Duration)
	if weeks < 1 || weeks > s.cfg.MaxWeeks {
		return nil, weeks, OutcomeValidation, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("duration must resolve to between 1 and %d weeks", s.cfg.MaxWeeks))
	}

	resolved, err := s.resolveDocuments(req)
	if err != nil {
		return nil, weeks, OutcomeValidation, err
	}

	cacheKey := ""
	if s.cache.Enabled() {
		if key, err := s.cache.Key(resolved); err == nil {
			cacheKey = key
			if cached, hit := s.cache.Lookup(ctx, cacheKey); hit {
				return &dto.GenerateCurriculumResponse{Curriculum: cached, Cached: true}, weeks, OutcomeCached, nil
			}
		}
	}

	resources, degraded := s.fetchResources(ctx, resolved)
	if err := ctx.Err(); err != nil {
		return nil, weeks, OutcomeCanceled, err
	}

	curriculum, err := s.build(ctx, resolved, weeks, resources)
	if err != nil {
		return nil, weeks, OutcomeInternal, err
	}
	if err := ctx.Err(); err != nil {
		return nil, weeks, OutcomeCanceled, err
	}

	if cacheKey != "" && !degraded {
		_ = s.cache.Store(ctx, cacheKey, curriculum)
	}
	s.logger.Info("curriculum generated",
		zap.String("request_id", requestid.FromContext(ctx)),
		zap.String("subject", req.Subject),
		zap.String("skill_level", string(req.SkillLevel)),
		zap.Int("weeks", weeks),
		zap.Int("documents", len(resolved.SourceDocuments)),
		zap.Int("resources", len(resources)),
	)
	return &dto.GenerateCurriculumResponse{Curriculum: curriculum, Degraded: degraded}, weeks, OutcomeSuccess, nil
}

// resolveDocuments appends registered documents named by DocumentIDs to the inline sources.
func (s *CurriculumService) resolveDocuments(req dto.GenerateCurriculumRequest) (dto.GenerateCurriculumRequest, error) {
	if len(req.DocumentIDs) == 0 {
		return req, nil
	}
	if s.documents == nil {
		return req, appErrors.Clone(appErrors.ErrValidation, "document references are not supported")
	}
	docs, err := s.documents.Resolve(req.DocumentIDs)
	if err != nil {
		return req, err
	}
	sources := make([]dto.SourceDocument, 0, len(req.SourceDocuments)+len(docs))
	sources = append(sources, req.SourceDocuments...)
	for _, doc := range docs {
		sources = append(sources, dto.SourceDocument{
			Name:    doc.Name,
			Topics:  append([]string(nil), doc.Topics...),
			Content: doc.Content,
		})
	}
	req.SourceDocuments = sources
	req.DocumentIDs = nil
	return req, nil
}

// fetchResources returns web resources when requested. Provider failures degrade to an empty list.
func (s *CurriculumService) fetchResources(ctx context.Context, req dto.GenerateCurriculumRequest) ([]models.ResourceEntry, bool) {
	if !req.IncludeWebResources {
		return []models.ResourceEntry{}, false
	}
	ctx, span := s.tracer.Start(ctx, "curriculum.fetch_resources")
	defer span.End()

	resources, err := s.provider.FetchResources(ctx, req.Subject, req.SkillLevel)
	if err != nil {
		if ctx.Err() == nil {
			s.metrics.RecordResourceFallback(s.cfg.ProviderName)
			s.logger.Warn("resource provider failed, continuing without resources",
				zap.String("provider", s.cfg.ProviderName),
				zap.String("subject", req.Subject),
				zap.Error(err),
			)
		}
		span.RecordError(err)
		return []models.ResourceEntry{}, true
	}
	span.SetAttributes(attribute.Int("curriculum.resources", len(resources)))
	return resources, false
}

// build runs the pure pipeline stages. A panic surfaces as an internal error.
func (s *CurriculumService) build(ctx context.Context, req dto.GenerateCurriculumRequest, weeks int, resources []models.ResourceEntry) (curriculum *models.Curriculum, err error) {
	_, span := s.tracer.Start(ctx, "curriculum.build")
	defer span.End()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("curriculum derivation panicked", zap.Any("panic", r), zap.String("subject", req.Subject))
			curriculum = nil
			err = appErrors.Wrap(fmt.Errorf("%v", r), appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate curriculum")
		}
	}()
	return s.derive(req, weeks, resources), nil
}

// Templates lists the predefined curriculum templates.
func (s *CurriculumService) Templates() []models.CurriculumTemplate {
	out := make([]models.CurriculumTemplate, len(curriculumTemplates))
	for i, tpl := range curriculumTemplates {
		tpl.Topics = append([]string(nil), tpl.Topics...)
		out[i] = tpl
	}
	return out
}

// GenerateFromTemplate runs the pipeline with a template's subject, duration and level.
func (s *CurriculumService) GenerateFromTemplate(ctx context.Context, id string, req dto.GenerateFromTemplateRequest) (*dto.GenerateCurriculumResponse, error) {
	for _, tpl := range curriculumTemplates {
		if tpl.ID != id {
			continue
		}
		return s.Generate(ctx, dto.GenerateCurriculumRequest{
			Subject:             tpl.Subject,
			Duration:            tpl.Duration,
			SkillLevel:          tpl.SkillLevel,
			DocumentIDs:         req.DocumentIDs,
			IncludeWebResources: req.IncludeWebResources,
		})
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "template not found")
}

// Save stores a generated curriculum in the library.
func (s *CurriculumService) Save(ctx context.Context, req dto.SaveCurriculumRequest) (*models.SavedCurriculum, error) {
	if err := s.requireStore(); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid curriculum payload")
	}
	if err := checkCurriculumShape(req.Curriculum); err != nil {
		return nil, err
	}
	body, err := json.Marshal(req.Curriculum)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode curriculum")
	}
	status := req.Status
	if status == "" {
		status = models.CurriculumStatusDraft
	}
	saved := &models.SavedCurriculum{
		ID:         s.newID(),
		Title:      req.Curriculum.Title,
		Subject:    strings.TrimSpace(req.Subject),
		SkillLevel: req.Curriculum.SkillLevel,
		TotalWeeks: req.Curriculum.TotalWeeks,
		Status:     status,
		Body:       body,
		Curriculum: req.Curriculum,
	}
	if err := s.store.Create(ctx, saved); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save curriculum")
	}
	return saved, nil
}

// Get returns a saved curriculum with its decoded body.
func (s *CurriculumService) Get(ctx context.Context, id string) (*models.SavedCurriculum, error) {
	if err := s.requireStore(); err != nil {
		return nil, err
	}
	saved, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, mapCurriculumError(err, "failed to load curriculum")
	}
	if err := decodeSaved(saved); err != nil {
		return nil, err
	}
	return saved, nil
}

// Load returns saved curricula for ids in the requested order.
func (s *CurriculumService) Load(ctx context.Context, ids []string) ([]models.SavedCurriculum, error) {
	if err := s.requireStore(); err != nil {
		return nil, err
	}
	start := time.Now()
	rows, err := s.store.FindByIDs(ctx, ids)
	s.metrics.ObserveDBQuery("curricula_load", time.Since(start))
	if err != nil {
		return nil, mapCurriculumError(err, "failed to load curricula")
	}
	byID := make(map[string]models.SavedCurriculum, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}
	out := make([]models.SavedCurriculum, 0, len(ids))
	for _, id := range ids {
		row, ok := byID[id]
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("curriculum %s not found", id))
		}
		if err := decodeSaved(&row); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, nil
}

// List returns a filtered page of saved curricula without their bodies.
func (s *CurriculumService) List(ctx context.Context, query dto.CurriculumQuery) ([]models.SavedCurriculum, *models.Pagination, error) {
	if err := s.requireStore(); err != nil {
		return nil, nil, err
	}
	level := models.SkillLevel(strings.TrimSpace(query.SkillLevel))
	if level != "" && !level.Valid() {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "invalid skillLevel filter")
	}
	status := models.CurriculumStatus(strings.TrimSpace(query.Status))
	if status != "" && !status.Valid() {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "invalid status filter")
	}
	page := query.Page
	if page <= 0 {
		page = 1
	}
	size := query.PageSize
	if size <= 0 {
		size = defaultCurriculumPageSize
	}
	if size > maxCurriculumPageSize {
		size = maxCurriculumPageSize
	}
	start := time.Now()
	items, total, err := s.store.List(ctx, models.CurriculumFilter{
		Search:     query.Search,
		SkillLevel: level,
		Status:     status,
		Limit:      size,
		Offset:     (page - 1) * size,
	})
	s.metrics.ObserveDBQuery("curricula_list", time.Since(start))
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list curricula")
	}
	return items, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// UpdateStatus moves a saved curriculum to a new lifecycle status.
func (s *CurriculumService) UpdateStatus(ctx context.Context, id string, req dto.UpdateCurriculumStatusRequest) (*models.SavedCurriculum, error) {
	if err := s.requireStore(); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "status must be Draft, Active or Completed")
	}
	if err := s.store.UpdateStatus(ctx, id, req.Status); err != nil {
		return nil, mapCurriculumError(err, "failed to update curriculum status")
	}
	return s.Get(ctx, id)
}

// Delete removes a saved curriculum.
func (s *CurriculumService) Delete(ctx context.Context, id string) error {
	if err := s.requireStore(); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return mapCurriculumError(err, "failed to delete curriculum")
	}
	return nil
}

func (s *CurriculumService) requireStore() error {
	if s.store == nil {
		return appErrors.Clone(appErrors.ErrServiceUnavailable, "curriculum library requires a database")
	}
	return nil
}

// checkCurriculumShape enforces totalWeeks == len(modules) and contiguous week numbers.
func checkCurriculumShape(c *models.Curriculum) error {
	if c.TotalWeeks != len(c.Modules) {
		return appErrors.Clone(appErrors.ErrValidation, "totalWeeks must equal the number of modules")
	}
	for i, m := range c.Modules {
		if m.Week != i+1 {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("module %d has week %d", i+1, m.Week))
		}
	}
	return nil
}

func decodeSaved(saved *models.SavedCurriculum) error {
	var c models.Curriculum
	if err := json.Unmarshal(saved.Body, &c); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "stored curriculum is corrupt")
	}
	saved.Curriculum = &c
	return nil
}

func mapCurriculumError(err error, message string) error {
	if errors.Is(err, repository.ErrCurriculumNotFound) {
		return appErrors.Clone(appErrors.ErrNotFound, "curriculum not found")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}
