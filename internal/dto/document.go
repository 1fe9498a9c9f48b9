package dto

// AnalyzeDocumentRequest selects a registered document or raw text to analyze.
type AnalyzeDocumentRequest struct {
	DocumentID string   `json:"documentId" validate:"required_without=Content"`
	Content    string   `json:"content" validate:"required_without=DocumentID"`
	Topics     []string `json:"topics"`
}

// DocumentSearchQuery is the full-text search input.
type DocumentSearchQuery struct {
	Query string `form:"q" validate:"required"`
	Limit int    `form:"limit" validate:"omitempty,min=1,max=100"`
}
