package service

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/curriculum-api/internal/dto"
	"github.com/noah-isme/curriculum-api/internal/models"
	appErrors "github.com/noah-isme/curriculum-api/pkg/errors"
	"github.com/noah-isme/curriculum-api/pkg/extract"
	"github.com/noah-isme/curriculum-api/pkg/search"
)

// Ingestion sources reported to metrics.
const (
	SourceUpload = "upload"
	SourceInbox  = "inbox"
)

type documentFileStorage interface {
	Save(filename string, data []byte) (string, error)
	Read(filename string) ([]byte, error)
	Delete(filename string) error
}

type documentIndex interface {
	Put(id string, entry search.Entry) error
	Delete(id string) error
	Search(query string, limit int) ([]search.Hit, error)
}

// DocumentUpload is one file handed to the service.
type DocumentUpload struct {
	Filename string
	MimeType string
	Content  []byte
}

// DocumentServiceConfig holds upload validation parameters.
type DocumentServiceConfig struct {
	MaxFileSize  int64
	AllowedMIMEs []string
	ContentLimit int
}

// DocumentService ingests, analyzes and searches source documents.
type DocumentService struct {
	registry    *DocumentRegistry
	storage     documentFileStorage
	index       documentIndex
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
	cfg         DocumentServiceConfig
	mimeSet     map[string]struct{}
	now         func() time.Time
	newID       func() string
	unsubscribe func()
}

// NewDocumentService wires the service and keeps index in sync with registry.
// storage and index may be nil.
func NewDocumentService(registry *DocumentRegistry, storage documentFileStorage, index documentIndex, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg DocumentServiceConfig) *DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = 10 * 1024 * 1024
	}
	if cfg.ContentLimit <= 0 {
		cfg.ContentLimit = documentContentCap
	}
	if len(cfg.AllowedMIMEs) == 0 {
		cfg.AllowedMIMEs = []string{
			extract.MIMEPDF,
			extract.MIMEPlain,
			extract.MIMEMarkdown,
			extract.MIMEDOCX,
			extract.MIMEXLSX,
			extract.MIMEODT,
			extract.MIMERTF,
		}
	}
	mimeSet := make(map[string]struct{}, len(cfg.AllowedMIMEs))
	for _, mt := range cfg.AllowedMIMEs {
		mimeSet[extract.NormalizeMIME(mt)] = struct{}{}
	}
	s := &DocumentService{
		registry:  registry,
		storage:   storage,
		index:     index,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		mimeSet:   mimeSet,
		now:       time.Now,
		newID:     func() string { return uuid.NewString() },
	}
	if index != nil {
		for _, doc := range registry.List() {
			s.indexDocument(doc)
		}
		s.unsubscribe = registry.Subscribe(s.syncIndex)
	}
	return s
}

// Close detaches the index subscriber.
func (s *DocumentService) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}

// Upload validates, stores, extracts and registers a document.
func (s *DocumentService) Upload(ctx context.Context, upload DocumentUpload) (*models.DocumentRecord, error) {
	return s.ingest(ctx, upload, SourceUpload)
}

// IngestFile reads a file dropped into the inbox directory and registers it.
func (s *DocumentService) IngestFile(ctx context.Context, path string) (*models.DocumentRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read inbox file")
	}
	return s.ingest(ctx, DocumentUpload{Filename: filepath.Base(path), Content: data}, SourceInbox)
}

func (s *DocumentService) ingest(ctx context.Context, upload DocumentUpload, source string) (*models.DocumentRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(filepath.Base(upload.Filename))
	if name == "" || name == "." || name == "/" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file name is required")
	}
	if len(upload.Content) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file is required")
	}
	if int64(len(upload.Content)) > s.cfg.MaxFileSize {
		return nil, appErrors.Clone(appErrors.ErrPayloadTooLarge, fmt.Sprintf("file exceeds %d bytes limit", s.cfg.MaxFileSize))
	}
	mimeType := s.detectMIME(name, upload)
	if _, ok := s.mimeSet[mimeType]; !ok {
		return nil, appErrors.Clone(appErrors.ErrUnsupportedMedia, fmt.Sprintf("file type %s not supported", mimeType))
	}

	text, err := extract.Text(upload.Content, mimeType)
	if err != nil {
		s.logger.Warn("document text extraction failed", zap.String("name", name), zap.String("mime", mimeType), zap.Error(err))
		text = ""
	}

	id := s.newID()
	var locator *string
	if s.storage != nil {
		rel, err := s.storage.Save(filepath.Join("documents", id+strings.ToLower(filepath.Ext(name))), upload.Content)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist document")
		}
		locator = &rel
	}

	content := truncateRunes(text, s.cfg.ContentLimit)
	doc := models.DocumentRecord{
		ID:         id,
		Name:       name,
		Size:       int64(len(upload.Content)),
		Type:       mimeType,
		UploadDate: s.now().UTC(),
		Topics:     ExtractTopics(name + " " + text),
		Content:    &content,
		Locator:    locator,
	}
	if err := s.registry.Add(ctx, doc); err != nil {
		if locator != nil {
			_ = s.storage.Delete(*locator)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to register document")
	}
	s.metrics.RecordDocumentIngested(source)
	s.logger.Info("document registered",
		zap.String("id", doc.ID),
		zap.String("name", doc.Name),
		zap.String("source", source),
		zap.Strings("topics", doc.Topics),
	)
	return &doc, nil
}

func (s *DocumentService) detectMIME(name string, upload DocumentUpload) string {
	declared := extract.NormalizeMIME(upload.MimeType)
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	if mt, ok := extract.MIMEFromName(name); ok {
		return mt
	}
	return extract.NormalizeMIME(http.DetectContentType(upload.Content))
}

// List returns every registered document in upload order.
func (s *DocumentService) List() []models.DocumentRecord {
	return s.registry.List()
}

// Get returns one document.
func (s *DocumentService) Get(id string) (*models.DocumentRecord, error) {
	doc, ok := s.registry.Get(id)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "document not found")
	}
	return &doc, nil
}

// Resolve returns the registered documents for ids, in the given order.
func (s *DocumentService) Resolve(ids []string) ([]models.DocumentRecord, error) {
	docs := make([]models.DocumentRecord, 0, len(ids))
	for _, id := range ids {
		doc, ok := s.registry.Get(id)
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("document %s not found", id))
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Delete unregisters the document and removes its stored bytes.
func (s *DocumentService) Delete(ctx context.Context, id string) error {
	doc, ok := s.registry.Get(id)
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "document not found")
	}
	removed, err := s.registry.Remove(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete document")
	}
	if !removed {
		return appErrors.Clone(appErrors.ErrNotFound, "document not found")
	}
	if doc.Locator != nil && s.storage != nil {
		if err := s.storage.Delete(*doc.Locator); err != nil {
			s.logger.Warn("failed to delete document bytes", zap.String("id", id), zap.Error(err))
		}
	}
	return nil
}

// Analyze computes reading and difficulty heuristics for a registered document or raw text.
func (s *DocumentService) Analyze(ctx context.Context, req dto.AnalyzeDocumentRequest) (*models.DocumentAnalysis, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "documentId or content is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	text := req.Content
	topics := req.Topics
	var doc models.DocumentRecord
	if req.DocumentID != "" {
		found, ok := s.registry.Get(req.DocumentID)
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		doc = found
		if text == "" {
			text = s.fullText(doc)
		}
		if len(topics) == 0 {
			topics = doc.Topics
		}
	}
	analysis := AnalyzeText(text, topics)
	analysis.DocumentID = doc.ID
	analysis.FileName = doc.Name
	return &analysis, nil
}

// fullText re-extracts the stored file, falling back to the truncated content.
func (s *DocumentService) fullText(doc models.DocumentRecord) string {
	if doc.Locator != nil && s.storage != nil {
		raw, err := s.storage.Read(*doc.Locator)
		var text string
		if err == nil {
			text, err = extract.Text(raw, doc.Type)
		}
		if err == nil {
			return text
		}
		s.logger.Debug("falling back to stored excerpt", zap.String("document_id", doc.ID), zap.Error(err))
	}
	if doc.Content != nil {
		return *doc.Content
	}
	return ""
}

// Search runs a full-text query over document names and extracted text.
func (s *DocumentService) Search(query dto.DocumentSearchQuery) ([]models.DocumentSearchHit, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "search query is required")
	}
	if s.index == nil {
		return nil, appErrors.Clone(appErrors.ErrServiceUnavailable, "document search disabled")
	}
	hits, err := s.index.Search(query.Query, query.Limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to search documents")
	}
	out := make([]models.DocumentSearchHit, 0, len(hits))
	for _, h := range hits {
		doc, ok := s.registry.Get(h.ID)
		if !ok {
			continue
		}
		out = append(out, models.DocumentSearchHit{Document: doc, Score: h.Score})
	}
	return out, nil
}

func (s *DocumentService) syncIndex(event models.DocumentEvent) {
	switch event.Type {
	case models.DocumentAdded:
		s.indexDocument(event.Document)
	case models.DocumentRemoved:
		if err := s.index.Delete(event.Document.ID); err != nil {
			s.logger.Warn("failed to unindex document", zap.String("id", event.Document.ID), zap.Error(err))
		}
	}
}

func (s *DocumentService) indexDocument(doc models.DocumentRecord) {
	entry := search.Entry{Name: doc.Name, Topics: doc.Topics}
	if doc.Content != nil {
		entry.Content = *doc.Content
	}
	if err := s.index.Put(doc.ID, entry); err != nil {
		s.logger.Warn("failed to index document", zap.String("id", doc.ID), zap.Error(err))
	}
}
