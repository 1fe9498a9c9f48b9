package dto

import "github.com/noah-isme/curriculum-api/internal/models"

// SourceDocument is an inline document reference supplied with a generation request.
type SourceDocument struct {
	Name    string   `json:"name" validate:"required"`
	Topics  []string `json:"topics"`
	Content *string  `json:"content,omitempty"`
}

// GenerateCurriculumRequest is the input to the curriculum generator.
type GenerateCurriculumRequest struct {
	Subject             string            `json:"subject" validate:"required"`
	Duration            string            `json:"duration" validate:"required"`
	SkillLevel          models.SkillLevel `json:"skillLevel" validate:"required,oneof=Beginner Intermediate Advanced"`
	SourceDocuments     []SourceDocument  `json:"sourceDocuments" validate:"omitempty,dive"`
	DocumentIDs         []string          `json:"documentIds" validate:"omitempty,dive,required"`
	CustomRequirements  string            `json:"customRequirements"`
	IncludeWebResources bool              `json:"includeWebResources"`
}

// GenerateCurriculumResponse wraps a generated curriculum.
type GenerateCurriculumResponse struct {
	Curriculum *models.Curriculum `json:"curriculum"`
	Cached     bool               `json:"cached"`
	Degraded   bool               `json:"degraded,omitempty"`
}

// GenerateFromTemplateRequest toggles optional enrichment for template generation.
type GenerateFromTemplateRequest struct {
	IncludeWebResources bool     `json:"includeWebResources"`
	DocumentIDs         []string `json:"documentIds"`
}

// SaveCurriculumRequest persists a generated curriculum in the library.
type SaveCurriculumRequest struct {
	Subject    string                  `json:"subject" validate:"required"`
	Status     models.CurriculumStatus `json:"status" validate:"omitempty,oneof=Draft Active Completed"`
	Curriculum *models.Curriculum      `json:"curriculum" validate:"required"`
}

// UpdateCurriculumStatusRequest moves a saved curriculum to a new status.
type UpdateCurriculumStatusRequest struct {
	Status models.CurriculumStatus `json:"status" validate:"required,oneof=Draft Active Completed"`
}

// CurriculumQuery captures library listing filters.
type CurriculumQuery struct {
	Search     string `form:"search"`
	SkillLevel string `form:"skillLevel"`
	Status     string `form:"status"`
	Page       int    `form:"page"`
	PageSize   int    `form:"pageSize"`
}
