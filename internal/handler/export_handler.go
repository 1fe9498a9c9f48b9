package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/curriculum-api/internal/dto"
	"github.com/noah-isme/curriculum-api/internal/models"
	"github.com/noah-isme/curriculum-api/internal/service"
	appErrors "github.com/noah-isme/curriculum-api/pkg/errors"
	"github.com/noah-isme/curriculum-api/pkg/response"
)

type exportService interface {
	Export(req dto.ExportCurriculumRequest) (*service.ExportFile, error)
	Render(c *models.Curriculum, format models.ExportFormat, includeDetails bool) (*service.ExportFile, error)
	Store(ctx context.Context, owner string, file *service.ExportFile) (*service.ExportResult, error)
	ResolveDownload(token string) (*service.ExportDownload, error)
}

type savedCurriculumGetter interface {
	Get(ctx context.Context, id string) (*models.SavedCurriculum, error)
}

type bulkExportService interface {
	Submit(ctx context.Context, req dto.BulkExportRequest) (*models.ExportJob, error)
	Status(ctx context.Context, id string) (*models.ExportJob, error)
}

// ExportHandler renders curricula to files and serves signed downloads.
type ExportHandler struct {
	exports   exportService
	curricula savedCurriculumGetter
	bulk      bulkExportService
}

// NewExportHandler constructs the handler. curricula and bulk may be nil when no library is configured.
func NewExportHandler(exports exportService, curricula savedCurriculumGetter, bulk bulkExportService) *ExportHandler {
	return &ExportHandler{exports: exports, curricula: curricula, bulk: bulk}
}

// Export godoc
// @Summary Render a curriculum to a file
// @Description Streams the rendered file. Supported formats are markdown, pdf, docx, json, yaml and csv.
// @Tags Exports
// @Accept json
// @Produce octet-stream
// @Param payload body dto.ExportCurriculumRequest true "Curriculum and format"
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Router /curricula/export [post]
func (h *ExportHandler) Export(c *gin.Context) {
	var req dto.ExportCurriculumRequest
	if !bindJSON(c, &req, "invalid export request") {
		return
	}
	file, err := h.exports.Export(req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Data)
}

// ExportSaved godoc
// @Summary Render a saved curriculum and return a signed download link
// @Tags Exports
// @Accept json
// @Produce json
// @Param id path string true "Curriculum ID"
// @Param payload body dto.StoredExportRequest true "Format"
// @Success 201 {object} response.Envelope
// @Router /curricula/{id}/export [post]
func (h *ExportHandler) ExportSaved(c *gin.Context) {
	if h.curricula == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrServiceUnavailable, "curriculum library requires a database"))
		return
	}
	var req dto.StoredExportRequest
	if !bindJSON(c, &req, "invalid export request") {
		return
	}
	saved, err := h.curricula.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	file, err := h.exports.Render(saved.Curriculum, req.Format, dto.IncludeDetailsOrDefault(req.IncludeDetails))
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.exports.Store(c.Request.Context(), saved.ID, file)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.ExportLinkResponse{
		Filename:  result.Filename,
		URL:       result.URL,
		ExpiresAt: result.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

// Download godoc
// @Summary Download a stored export via signed token
// @Tags Exports
// @Produce octet-stream
// @Param token path string true "Signed token"
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Router /exports/{token} [get]
func (h *ExportHandler) Download(c *gin.Context) {
	token := strings.TrimSpace(c.Param("token"))
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}
	result, err := h.exports.ResolveDownload(token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer result.File.Close() //nolint:errcheck

	var size int64 = -1
	if info, statErr := result.File.Stat(); statErr == nil {
		size = info.Size()
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", result.Filename))
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, size, result.ContentType, result.File, nil)
}

// BulkExport godoc
// @Summary Queue a bulk export of saved curricula
// @Tags Exports
// @Accept json
// @Produce json
// @Param payload body dto.BulkExportRequest true "Curricula and format"
// @Success 202 {object} response.Envelope
// @Router /curricula/bulk-export [post]
func (h *ExportHandler) BulkExport(c *gin.Context) {
	if h.bulk == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrServiceUnavailable, "bulk export is not configured"))
		return
	}
	var req dto.BulkExportRequest
	if !bindJSON(c, &req, "invalid bulk export request") {
		return
	}
	job, err := h.bulk.Submit(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, job)
}

// BulkExportStatus godoc
// @Summary Bulk export job status
// @Tags Exports
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /curricula/bulk-export/{id} [get]
func (h *ExportHandler) BulkExportStatus(c *gin.Context) {
	if h.bulk == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrServiceUnavailable, "bulk export is not configured"))
		return
	}
	job, err := h.bulk.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, job, nil)
}
