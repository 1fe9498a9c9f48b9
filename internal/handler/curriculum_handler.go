package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/curriculum-api/internal/dto"
	"github.com/noah-isme/curriculum-api/internal/middleware"
	"github.com/noah-isme/curriculum-api/internal/models"
	"github.com/noah-isme/curriculum-api/pkg/response"
)

type curriculumService interface {
	Generate(ctx context.Context, req dto.GenerateCurriculumRequest) (*dto.GenerateCurriculumResponse, error)
	Templates() []models.CurriculumTemplate
	GenerateFromTemplate(ctx context.Context, id string, req dto.GenerateFromTemplateRequest) (*dto.GenerateCurriculumResponse, error)
	Save(ctx context.Context, req dto.SaveCurriculumRequest) (*models.SavedCurriculum, error)
	Get(ctx context.Context, id string) (*models.SavedCurriculum, error)
	List(ctx context.Context, query dto.CurriculumQuery) ([]models.SavedCurriculum, *models.Pagination, error)
	UpdateStatus(ctx context.Context, id string, req dto.UpdateCurriculumStatusRequest) (*models.SavedCurriculum, error)
	Delete(ctx context.Context, id string) error
}

// CurriculumHandler exposes generation and library endpoints.
type CurriculumHandler struct {
	service curriculumService
}

// NewCurriculumHandler constructs the handler.
func NewCurriculumHandler(svc curriculumService) *CurriculumHandler {
	return &CurriculumHandler{service: svc}
}

// Generate godoc
// @Summary Generate a curriculum
// @Description Splits the subject into weekly modules. Registered documents referenced by documentIds are folded into the sources.
// @Tags Curricula
// @Accept json
// @Produce json
// @Param payload body dto.GenerateCurriculumRequest true "Generation request"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /curricula/generate [post]
func (h *CurriculumHandler) Generate(c *gin.Context) {
	var req dto.GenerateCurriculumRequest
	if !bindJSON(c, &req, "invalid curriculum request") {
		return
	}
	h.respondGenerated(c, func(ctx context.Context) (*dto.GenerateCurriculumResponse, error) {
		return h.service.Generate(ctx, req)
	})
}

// Templates godoc
// @Summary List curriculum templates
// @Tags Curricula
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /curricula/templates [get]
func (h *CurriculumHandler) Templates(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.Templates(), nil)
}

// GenerateFromTemplate godoc
// @Summary Generate a curriculum from a template
// @Tags Curricula
// @Accept json
// @Produce json
// @Param id path string true "Template ID"
// @Param payload body dto.GenerateFromTemplateRequest false "Template options"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /curricula/templates/{id}/generate [post]
func (h *CurriculumHandler) GenerateFromTemplate(c *gin.Context) {
	var req dto.GenerateFromTemplateRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req, "invalid template options") {
		return
	}
	id := c.Param("id")
	h.respondGenerated(c, func(ctx context.Context) (*dto.GenerateCurriculumResponse, error) {
		return h.service.GenerateFromTemplate(ctx, id, req)
	})
}

func (h *CurriculumHandler) respondGenerated(c *gin.Context, run func(context.Context) (*dto.GenerateCurriculumResponse, error)) {
	result, err := run(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, result.Cached)
	if result.Degraded {
		middleware.SetDegraded(c, "web resources unavailable")
	}
	respondWithMeta(c, http.StatusOK, result, nil)
}

// Save godoc
// @Summary Save a curriculum to the library
// @Tags Curricula
// @Accept json
// @Produce json
// @Param payload body dto.SaveCurriculumRequest true "Curriculum to save"
// @Success 201 {object} response.Envelope
// @Router /curricula [post]
func (h *CurriculumHandler) Save(c *gin.Context) {
	var req dto.SaveCurriculumRequest
	if !bindJSON(c, &req, "invalid curriculum payload") {
		return
	}
	saved, err := h.service.Save(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, saved)
}

// List godoc
// @Summary List saved curricula
// @Tags Curricula
// @Produce json
// @Param search query string false "Title or subject contains"
// @Param skillLevel query string false "Beginner, Intermediate or Advanced"
// @Param status query string false "Draft, Active or Completed"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /curricula [get]
func (h *CurriculumHandler) List(c *gin.Context) {
	var query dto.CurriculumQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, validationError(err, "invalid query parameters"))
		return
	}
	query.Search = strings.TrimSpace(query.Search)
	items, pagination, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get a saved curriculum
// @Tags Curricula
// @Produce json
// @Param id path string true "Curriculum ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /curricula/{id} [get]
func (h *CurriculumHandler) Get(c *gin.Context) {
	saved, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, saved, nil)
}

// UpdateStatus godoc
// @Summary Change a saved curriculum's status
// @Tags Curricula
// @Accept json
// @Produce json
// @Param id path string true "Curriculum ID"
// @Param payload body dto.UpdateCurriculumStatusRequest true "New status"
// @Success 200 {object} response.Envelope
// @Router /curricula/{id}/status [patch]
func (h *CurriculumHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdateCurriculumStatusRequest
	if !bindJSON(c, &req, "invalid status payload") {
		return
	}
	saved, err := h.service.UpdateStatus(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, saved, nil)
}

// Delete godoc
// @Summary Delete a saved curriculum
// @Tags Curricula
// @Param id path string true "Curriculum ID"
// @Success 204
// @Router /curricula/{id} [delete]
func (h *CurriculumHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
