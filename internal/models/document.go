package models

import (
	"time"

	"github.com/lib/pq"
)

// DocumentRecord is an uploaded source document and its extracted metadata.
type DocumentRecord struct {
	ID         string         `db:"id" json:"id"`
	Name       string         `db:"name" json:"name"`
	Size       int64          `db:"size" json:"size"`
	Type       string         `db:"type" json:"type"`
	UploadDate time.Time      `db:"upload_date" json:"uploadDate"`
	Topics     pq.StringArray `db:"topics" json:"topics"`
	Content    *string        `db:"content" json:"content,omitempty"`
	Locator    *string        `db:"locator" json:"-"`
}

// DocumentEventType names a registry mutation.
type DocumentEventType string

const (
	DocumentAdded   DocumentEventType = "added"
	DocumentRemoved DocumentEventType = "removed"
)

// DocumentEvent is delivered to registry subscribers after each mutation.
type DocumentEvent struct {
	Type      DocumentEventType
	Document  DocumentRecord
	Documents []DocumentRecord
}

// DocumentAnalysis summarises heuristics computed over a document's text.
type DocumentAnalysis struct {
	DocumentID            string     `json:"documentId,omitempty"`
	FileName              string     `json:"fileName,omitempty"`
	WordCount             int        `json:"wordCount"`
	ReadingTimeMinutes    int        `json:"readingTime"`
	Concepts              []string   `json:"concepts"`
	Difficulty            SkillLevel `json:"difficulty"`
	SuggestedDuration     string     `json:"suggestedDuration"`
	KeyTopics             []string   `json:"keyTopics"`
	LearningObjectives    []string   `json:"learningObjectives"`
	AssessmentSuggestions []string   `json:"assessmentSuggestions"`
}

// DocumentSearchHit is one full-text match.
type DocumentSearchHit struct {
	Document DocumentRecord `json:"document"`
	Score    float64        `json:"score"`
}
