package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// SkillLevel is the learner level a curriculum targets.
type SkillLevel string

const (
	SkillLevelBeginner     SkillLevel = "Beginner"
	SkillLevelIntermediate SkillLevel = "Intermediate"
	SkillLevelAdvanced     SkillLevel = "Advanced"
)

// Valid reports whether the level is one of the known values.
func (l SkillLevel) Valid() bool {
	switch l {
	case SkillLevelBeginner, SkillLevelIntermediate, SkillLevelAdvanced:
		return true
	default:
		return false
	}
}

// ResourceEntry is a titled reference pointing learners to supplementary material.
type ResourceEntry struct {
	Title       string `json:"title" yaml:"title"`
	URL         string `json:"url" yaml:"url"`
	Description string `json:"description" yaml:"description"`
}

// WeekModule is the curriculum unit for a single week.
type WeekModule struct {
	Week               int      `json:"week" yaml:"week"`
	Title              string   `json:"title" yaml:"title"`
	Topics             []string `json:"topics" yaml:"topics"`
	LearningObjectives []string `json:"learningObjectives" yaml:"learningObjectives"`
	Resources          []string `json:"resources" yaml:"resources"`
	Exercises          []string `json:"exercises" yaml:"exercises"`
	Assessments        []string `json:"assessments" yaml:"assessments"`
}

// Curriculum is the week-by-week course plan produced by the generator.
type Curriculum struct {
	Title             string       `json:"title" yaml:"title"`
	Description       string       `json:"description" yaml:"description"`
	Duration          string       `json:"duration" yaml:"duration"`
	SkillLevel        SkillLevel   `json:"skillLevel" yaml:"skillLevel"`
	TotalWeeks        int          `json:"totalWeeks" yaml:"totalWeeks"`
	Modules           []WeekModule `json:"modules" yaml:"modules"`
	OverallObjectives []string     `json:"overallObjectives" yaml:"overallObjectives"`
	Prerequisites     []string     `json:"prerequisites" yaml:"prerequisites"`
	FinalAssessment   string       `json:"finalAssessment" yaml:"finalAssessment"`
}

// CurriculumStatus tracks a saved curriculum through its teaching lifecycle.
type CurriculumStatus string

const (
	CurriculumStatusDraft     CurriculumStatus = "Draft"
	CurriculumStatusActive    CurriculumStatus = "Active"
	CurriculumStatusCompleted CurriculumStatus = "Completed"
)

// Valid reports whether the status is one of the known values.
func (s CurriculumStatus) Valid() bool {
	switch s {
	case CurriculumStatusDraft, CurriculumStatusActive, CurriculumStatusCompleted:
		return true
	default:
		return false
	}
}

// SavedCurriculum is a persisted curriculum row.
type SavedCurriculum struct {
	ID         string           `db:"id" json:"id"`
	Title      string           `db:"title" json:"title"`
	Subject    string           `db:"subject" json:"subject"`
	SkillLevel SkillLevel       `db:"skill_level" json:"skillLevel"`
	TotalWeeks int              `db:"total_weeks" json:"totalWeeks"`
	Status     CurriculumStatus `db:"status" json:"status"`
	Body       types.JSONText   `db:"body" json:"-"`
	CreatedAt  time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time        `db:"updated_at" json:"updatedAt"`

	Curriculum *Curriculum `db:"-" json:"curriculum,omitempty"`
}

// CurriculumFilter narrows saved curriculum listings.
type CurriculumFilter struct {
	Search     string
	SkillLevel SkillLevel
	Status     CurriculumStatus
	Limit      int
	Offset     int
}

// CurriculumTemplate is a predefined generation request offered to users.
type CurriculumTemplate struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Subject     string     `json:"subject"`
	Description string     `json:"description"`
	Duration    string     `json:"duration"`
	SkillLevel  SkillLevel `json:"skillLevel"`
	Topics      []string   `json:"topics"`
}
