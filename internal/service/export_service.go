package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/noah-isme/curriculum-api/internal/dto"
	"github.com/noah-isme/curriculum-api/internal/models"
	appErrors "github.com/noah-isme/curriculum-api/pkg/errors"
	"github.com/noah-isme/curriculum-api/pkg/export"
	"github.com/noah-isme/curriculum-api/pkg/extract"
)

const listCellSeparator = "; "

var (
	whitespaceRun  = regexp.MustCompile(`\s+`)
	pathSeparators = strings.NewReplacer("/", "-", "\\", "-")
)

var exportContentTypes = map[models.ExportFormat]string{
	models.ExportFormatMarkdown: "text/markdown; charset=utf-8",
	models.ExportFormatPDF:      extract.MIMEPDF,
	models.ExportFormatDOCX:     extract.MIMEDOCX,
	models.ExportFormatJSON:     "application/json",
	models.ExportFormatYAML:     "application/yaml",
	models.ExportFormatCSV:      "text/csv; charset=utf-8",
}

type exportFileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type downloadSigner interface {
	Generate(id, relPath string) (string, time.Time, error)
	Parse(token string, allowExpired bool) (id, relPath string, expiresAt time.Time, err error)
}

type outlineRenderer interface {
	Render(o export.Outline) ([]byte, error)
}

type datasetRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportFile is a rendered curriculum ready to stream or store.
type ExportFile struct {
	Data        []byte
	Filename    string
	ContentType string
	Format      models.ExportFormat
}

// ExportResult captures where a stored export can be downloaded.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Filename     string
	ExpiresAt    time.Time
}

// ExportDownload is an opened stored export.
type ExportDownload struct {
	File        *os.File
	Filename    string
	ContentType string
	ExpiresAt   time.Time
}

// ExportService renders curricula and persists rendered files behind signed links.
type ExportService struct {
	storage   exportFileStorage
	signer    downloadSigner
	markdown  outlineRenderer
	pdf       outlineRenderer
	docx      outlineRenderer
	csv       datasetRenderer
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ExportConfig
}

// NewExportService constructs an ExportService. storage and signer are only needed by Store and ResolveDownload.
func NewExportService(storage exportFileStorage, signer downloadSigner, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg ExportConfig) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api/v1"
	}
	return &ExportService{
		storage:   storage,
		signer:    signer,
		markdown:  export.NewMarkdownExporter(),
		pdf:       export.NewPDFExporter(),
		docx:      export.NewDOCXExporter(),
		csv:       export.NewCSVExporter(),
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// Export validates an inline export request and renders it.
func (s *ExportService) Export(req dto.ExportCurriculumRequest) (*ExportFile, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "curriculum and a supported format are required")
	}
	return s.Render(req.Curriculum, req.Format, dto.IncludeDetailsOrDefault(req.IncludeDetails))
}

// Render converts the curriculum into the requested format.
// includeDetails adds weekly objectives, resources and exercises.
func (s *ExportService) Render(c *models.Curriculum, format models.ExportFormat, includeDetails bool) (*ExportFile, error) {
	if c == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "curriculum is required")
	}
	contentType, ok := exportContentTypes[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}

	var (
		data []byte
		err  error
	)
	switch format {
	case models.ExportFormatMarkdown:
		data, err = s.markdown.Render(curriculumOutline(c, includeDetails))
	case models.ExportFormatPDF:
		data, err = s.pdf.Render(curriculumOutline(c, includeDetails))
	case models.ExportFormatDOCX:
		data, err = s.docx.Render(curriculumOutline(c, includeDetails))
	case models.ExportFormatCSV:
		data, err = s.csv.Render(curriculumDataset(c, includeDetails))
	case models.ExportFormatJSON:
		data, err = json.MarshalIndent(withDetails(c, includeDetails), "", "  ")
	case models.ExportFormatYAML:
		data, err = yaml.Marshal(withDetails(c, includeDetails))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	s.metrics.RecordExport(string(format))
	return &ExportFile{
		Data:        data,
		Filename:    ExportFilename(c.Title, format),
		ContentType: contentType,
		Format:      format,
	}, nil
}

// Store persists file under owner and returns a signed download link.
func (s *ExportService) Store(_ context.Context, owner string, file *ExportFile) (*ExportResult, error) {
	if s.storage == nil || s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrServiceUnavailable, "export storage is not configured")
	}
	relPath, err := s.storage.Save(path.Join(owner, file.Filename), file.Data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store export")
	}
	token, expiresAt, err := s.signer.Generate(owner, relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign export link")
	}
	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/exports/%s", strings.TrimRight(s.cfg.APIPrefix, "/"), token),
		Filename:     file.Filename,
		ExpiresAt:    expiresAt,
	}, nil
}

// ResolveDownload validates a signed token and opens the stored export.
func (s *ExportService) ResolveDownload(token string) (*ExportDownload, error) {
	if s.storage == nil || s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrServiceUnavailable, "export storage is not configured")
	}
	_, relPath, expiresAt, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "download link is invalid or expired")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export file not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open export")
	}
	filename := path.Base(relPath)
	return &ExportDownload{
		File:        file,
		Filename:    filename,
		ContentType: contentTypeForFile(filename),
		ExpiresAt:   expiresAt,
	}, nil
}

// Cleanup removes stored exports older than ttl (the configured result TTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if s.storage == nil {
		return nil, nil
	}
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	removed, err := s.storage.CleanupOlderThan(ttl)
	if err != nil {
		return nil, err
	}
	if len(removed) > 0 {
		s.logger.Info("expired exports removed", zap.Int("count", len(removed)))
	}
	return removed, nil
}

// ExportFilename is "{title with whitespace runs replaced by _}_Curriculum.{ext}".
func ExportFilename(title string, format models.ExportFormat) string {
	base := pathSeparators.Replace(whitespaceRun.ReplaceAllString(title, "_"))
	return fmt.Sprintf("%s_Curriculum.%s", base, format.Extension())
}

func contentTypeForFile(name string) string {
	ext := strings.TrimPrefix(path.Ext(name), ".")
	switch ext {
	case "md":
		return exportContentTypes[models.ExportFormatMarkdown]
	case "zip":
		return "application/zip"
	}
	if ct, ok := exportContentTypes[models.ExportFormat(ext)]; ok {
		return ct
	}
	return "application/octet-stream"
}

func weekHeading(m models.WeekModule) string {
	prefix := fmt.Sprintf("Week %d", m.Week)
	title := strings.TrimPrefix(m.Title, prefix+": ")
	return prefix + ": " + title
}

func curriculumOutline(c *models.Curriculum, includeDetails bool) export.Outline {
	o := export.Outline{
		Title:   c.Title,
		Summary: c.Description,
		Fields: []export.Field{
			{Label: "Duration", Value: c.Duration},
			{Label: "Skill Level", Value: string(c.SkillLevel)},
			{Label: "Total Weeks", Value: strconv.Itoa(c.TotalWeeks)},
		},
		Lists: []export.List{
			{Heading: "Learning Objectives", Items: c.OverallObjectives},
			{Heading: "Prerequisites", Items: c.Prerequisites},
		},
		Sections: make([]export.Section, 0, len(c.Modules)),
	}
	for _, m := range c.Modules {
		section := export.Section{Heading: weekHeading(m)}
		if len(m.Topics) > 0 {
			section.Fields = []export.Field{{Label: "Topics", Value: strings.Join(m.Topics, ", ")}}
		}
		if includeDetails {
			section.Lists = append(section.Lists,
				export.List{Heading: "Learning Objectives", Items: m.LearningObjectives},
				export.List{Heading: "Resources", Items: m.Resources},
				export.List{Heading: "Exercises", Items: m.Exercises},
			)
		}
		section.Lists = append(section.Lists, export.List{Heading: "Assessments", Items: m.Assessments})
		o.Sections = append(o.Sections, section)
	}
	if c.FinalAssessment != "" {
		o.Closing = []export.List{{Heading: "Final Assessment", Items: []string{c.FinalAssessment}, Prose: true}}
	}
	return o
}

func curriculumDataset(c *models.Curriculum, includeDetails bool) export.Dataset {
	headers := []string{"Week", "Title", "Topics"}
	if includeDetails {
		headers = append(headers, "Learning Objectives", "Resources", "Exercises")
	}
	headers = append(headers, "Assessments")

	rows := make([][]string, 0, len(c.Modules))
	for _, m := range c.Modules {
		row := []string{strconv.Itoa(m.Week), m.Title, strings.Join(m.Topics, listCellSeparator)}
		if includeDetails {
			row = append(row,
				strings.Join(m.LearningObjectives, listCellSeparator),
				strings.Join(m.Resources, listCellSeparator),
				strings.Join(m.Exercises, listCellSeparator),
			)
		}
		row = append(row, strings.Join(m.Assessments, listCellSeparator))
		rows = append(rows, row)
	}
	return export.Dataset{Headers: headers, Rows: rows}
}

// withDetails returns c unchanged, or a copy whose modules omit objectives, resources and exercises.
func withDetails(c *models.Curriculum, includeDetails bool) *models.Curriculum {
	if includeDetails {
		return c
	}
	out := *c
	out.Modules = make([]models.WeekModule, len(c.Modules))
	for i, m := range c.Modules {
		m.LearningObjectives = []string{}
		m.Resources = []string{}
		m.Exercises = []string{}
		out.Modules[i] = m
	}
	return &out
}
