package dto

import "github.com/noah-isme/curriculum-api/internal/models"

// ExportCurriculumRequest renders an inline curriculum.
type ExportCurriculumRequest struct {
	Curriculum     *models.Curriculum  `json:"curriculum" validate:"required"`
	Format         models.ExportFormat `json:"format" validate:"required,oneof=markdown pdf docx json yaml csv"`
	IncludeDetails *bool               `json:"includeDetails"`
}

// StoredExportRequest renders a saved curriculum into storage.
type StoredExportRequest struct {
	Format         models.ExportFormat `json:"format" validate:"required,oneof=markdown pdf docx json yaml csv"`
	IncludeDetails *bool               `json:"includeDetails"`
}

// BulkExportRequest exports several saved curricula into one archive.
type BulkExportRequest struct {
	CurriculumIDs  []string            `json:"curriculumIds" validate:"required,min=1,max=50,dive,required"`
	Format         models.ExportFormat `json:"format" validate:"required,oneof=markdown pdf docx json yaml csv"`
	IncludeDetails *bool               `json:"includeDetails"`
}

// ExportLinkResponse carries a signed download link.
type ExportLinkResponse struct {
	Filename  string `json:"filename"`
	URL       string `json:"url"`
	ExpiresAt string `json:"expiresAt"`
}

// IncludeDetailsOrDefault resolves the optional flag; details are included unless disabled.
func IncludeDetailsOrDefault(v *bool) bool {
	if v == nil {
		return true
	}
	return *v
}
