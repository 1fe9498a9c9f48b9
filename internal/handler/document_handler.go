package handler

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/curriculum-api/internal/dto"
	"github.com/noah-isme/curriculum-api/internal/models"
	"github.com/noah-isme/curriculum-api/internal/service"
	appErrors "github.com/noah-isme/curriculum-api/pkg/errors"
	"github.com/noah-isme/curriculum-api/pkg/response"
)

type documentService interface {
	Upload(ctx context.Context, upload service.DocumentUpload) (*models.DocumentRecord, error)
	List() []models.DocumentRecord
	Get(id string) (*models.DocumentRecord, error)
	Delete(ctx context.Context, id string) error
	Analyze(ctx context.Context, req dto.AnalyzeDocumentRequest) (*models.DocumentAnalysis, error)
	Search(query dto.DocumentSearchQuery) ([]models.DocumentSearchHit, error)
}

type batchUploadResponse struct {
	Message   string                  `json:"message"`
	Documents []models.DocumentRecord `json:"documents"`
	Skipped   []string                `json:"skipped,omitempty"`
}

// DocumentHandler manages uploaded source documents.
type DocumentHandler struct {
	service documentService
}

// NewDocumentHandler constructs the handler.
func NewDocumentHandler(svc documentService) *DocumentHandler {
	return &DocumentHandler{service: svc}
}

// Upload godoc
// @Summary Upload source documents
// @Description Accepts a single "file" part or several "files" parts. In batch mode unsupported or oversized files are skipped.
// @Tags Documents
// @Accept multipart/form-data
// @Produce json
// @Param file formData file false "Document"
// @Param files formData file false "Documents (batch)"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Failure 415 {object} response.Envelope
// @Router /documents [post]
func (h *DocumentHandler) Upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "No files provided"))
		return
	}
	if batch := form.File["files"]; len(batch) > 0 {
		h.uploadBatch(c, batch)
		return
	}
	single := form.File["file"]
	if len(single) == 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "No files provided"))
		return
	}
	doc, err := h.uploadOne(c.Request.Context(), single[0])
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, doc)
}

func (h *DocumentHandler) uploadBatch(c *gin.Context, headers []*multipart.FileHeader) {
	out := batchUploadResponse{Documents: make([]models.DocumentRecord, 0, len(headers))}
	for _, fh := range headers {
		doc, err := h.uploadOne(c.Request.Context(), fh)
		if err != nil {
			if appErrors.IsAny(err, appErrors.ErrUnsupportedMedia, appErrors.ErrPayloadTooLarge, appErrors.ErrValidation) {
				out.Skipped = append(out.Skipped, fh.Filename)
				continue
			}
			response.Error(c, err)
			return
		}
		out.Documents = append(out.Documents, *doc)
	}
	out.Message = fmt.Sprintf("%d files processed successfully", len(out.Documents))
	response.Created(c, out)
}

func (h *DocumentHandler) uploadOne(ctx context.Context, fh *multipart.FileHeader) (*models.DocumentRecord, error) {
	src, err := fh.Open()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open file")
	}
	defer src.Close()
	content, err := io.ReadAll(src)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to buffer file")
	}
	return h.service.Upload(ctx, service.DocumentUpload{
		Filename: fh.Filename,
		MimeType: fh.Header.Get("Content-Type"),
		Content:  content,
	})
}

// List godoc
// @Summary List registered documents
// @Tags Documents
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /documents [get]
func (h *DocumentHandler) List(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.List(), nil)
}

// Search godoc
// @Summary Full-text search over document names and content
// @Tags Documents
// @Produce json
// @Param q query string true "Query"
// @Param limit query int false "Maximum hits"
// @Success 200 {object} response.Envelope
// @Router /documents/search [get]
func (h *DocumentHandler) Search(c *gin.Context) {
	var query dto.DocumentSearchQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, validationError(err, "invalid search parameters"))
		return
	}
	hits, err := h.service.Search(query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, hits, nil)
}

// Get godoc
// @Summary Get a registered document
// @Tags Documents
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /documents/{id} [get]
func (h *DocumentHandler) Get(c *gin.Context) {
	doc, err := h.service.Get(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, doc, nil)
}

// Analyze godoc
// @Summary Analyze a document or raw text
// @Tags Documents
// @Accept json
// @Produce json
// @Param payload body dto.AnalyzeDocumentRequest true "Document id or content"
// @Success 200 {object} response.Envelope
// @Router /documents/analyze [post]
func (h *DocumentHandler) Analyze(c *gin.Context) {
	var req dto.AnalyzeDocumentRequest
	if !bindJSON(c, &req, "invalid analysis request") {
		return
	}
	analysis, err := h.service.Analyze(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, analysis, nil)
}

// Delete godoc
// @Summary Remove a registered document
// @Tags Documents
// @Param id path string true "Document ID"
// @Success 204
// @Router /documents/{id} [delete]
func (h *DocumentHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
