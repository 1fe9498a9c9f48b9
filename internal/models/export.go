package models

import "time"

// ExportFormat is a closed set of curriculum export formats.
type ExportFormat string

const (
	ExportFormatMarkdown ExportFormat = "markdown"
	ExportFormatPDF      ExportFormat = "pdf"
	ExportFormatDOCX     ExportFormat = "docx"
	ExportFormatJSON     ExportFormat = "json"
	ExportFormatYAML     ExportFormat = "yaml"
	ExportFormatCSV      ExportFormat = "csv"
)

// Extension returns the file extension used in export filenames.
func (f ExportFormat) Extension() string {
	if f == ExportFormatMarkdown {
		return "md"
	}
	return string(f)
}

// ExportJobStatus tracks bulk export progress.
type ExportJobStatus string

const (
	ExportJobQueued     ExportJobStatus = "queued"
	ExportJobProcessing ExportJobStatus = "processing"
	ExportJobFinished   ExportJobStatus = "finished"
	ExportJobFailed     ExportJobStatus = "failed"
)

// ExportJob is a bulk export request processed in the background.
type ExportJob struct {
	ID             string          `json:"id"`
	CurriculumIDs  []string        `json:"curriculumIds"`
	Format         ExportFormat    `json:"format"`
	IncludeDetails bool            `json:"includeDetails"`
	Status         ExportJobStatus `json:"status"`
	Progress       int             `json:"progress"`
	ResultURL      *string         `json:"resultUrl,omitempty"`
	Error          *string         `json:"error,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	FinishedAt     *time.Time      `json:"finishedAt,omitempty"`
}
