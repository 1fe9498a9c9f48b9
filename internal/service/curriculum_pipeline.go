package service

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/noah-isme/curriculum-api/internal/dto"
	"github.com/noah-isme/curriculum-api/internal/models"
)

// DefaultWeeks is used when a duration has no number or no recognised unit.
const DefaultWeeks = 8

var durationDigits = regexp.MustCompile(`\d+`)

// ParseDurationToWeeks converts a free-form duration such as "8 weeks" or "3 months" into weeks.
// Strings with digits but neither "week" nor "month" fall back to DefaultWeeks; the number is ignored.
func ParseDurationToWeeks(duration string) int {
	match := durationDigits.FindString(duration)
	if match == "" {
		return DefaultWeeks
	}
	n, err := strconv.Atoi(match)
	if err != nil {
		n = math.MaxInt32
	}
	switch {
	case strings.Contains(duration, "week"):
		return n
	case strings.Contains(duration, "month"):
		return n * 4
	default:
		return DefaultWeeks
	}
}

// ExtractAllTopics unions document topic tags with the static subject table, preserving
// first-seen order and dropping exact duplicates.
func ExtractAllTopics(req dto.GenerateCurriculumRequest) []string {
	seen := make(map[string]struct{})
	topics := make([]string, 0)
	add := func(topic string) {
		if _, ok := seen[topic]; ok {
			return
		}
		seen[topic] = struct{}{}
		topics = append(topics, topic)
	}
	for _, doc := range req.SourceDocuments {
		for _, topic := range doc.Topics {
			add(topic)
		}
	}
	for _, topic := range tableTopics(req.Subject, req.SkillLevel) {
		add(topic)
	}
	return topics
}

// GenerateWeeklyModules builds one module per week, 1..totalWeeks.
func GenerateWeeklyModules(req dto.GenerateCurriculumRequest, totalWeeks int, resources []models.ResourceEntry) []models.WeekModule {
	if totalWeeks <= 0 {
		return []models.WeekModule{}
	}
	topics := ExtractAllTopics(req)
	perWeek := ceilDiv(len(topics), totalWeeks)

	modules := make([]models.WeekModule, 0, totalWeeks)
	for week := 1; week <= totalWeeks; week++ {
		weekTopics := sliceWindow(topics, (week-1)*perWeek, perWeek)
		modules = append(modules, models.WeekModule{
			Week:               week,
			Title:              weekTitle(req.Subject, week, weekTopics),
			Topics:             weekTopics,
			LearningObjectives: weekObjectives(weekTopics, req.SkillLevel),
			Resources:          weekResources(req.SourceDocuments, weekTopics, resources, week, totalWeeks),
			Exercises:          weekExercises(weekTopics, req.SkillLevel),
			Assessments:        weekAssessments(week, totalWeeks),
		})
	}
	return modules
}

// AssembleCurriculum combines the week plan with the level policies.
func AssembleCurriculum(req dto.GenerateCurriculumRequest, totalWeeks int, modules []models.WeekModule) *models.Curriculum {
	description := fmt.Sprintf(
		"A comprehensive %d-week curriculum covering %s fundamentals and advanced concepts, designed for %s learners.",
		totalWeeks, req.Subject, strings.ToLower(string(req.SkillLevel)),
	)
	if req.IncludeWebResources {
		description += " Enhanced with curated web resources."
	}
	return &models.Curriculum{
		Title:             fmt.Sprintf("%s - %s Level", req.Subject, req.SkillLevel),
		Description:       description,
		Duration:          req.Duration,
		SkillLevel:        req.SkillLevel,
		TotalWeeks:        totalWeeks,
		Modules:           modules,
		OverallObjectives: overallObjectives(req.Subject, req.SkillLevel),
		Prerequisites:     prerequisites(req.SkillLevel),
		FinalAssessment:   finalAssessment(req.SkillLevel),
	}
}

func weekTitle(subject string, week int, topics []string) string {
	switch {
	case week == 1:
		return fmt.Sprintf("Introduction to %s", subject)
	case len(topics) == 0:
		return fmt.Sprintf("Week %d: Advanced Topics", week)
	case len(topics) > 1:
		return fmt.Sprintf("Week %d: %s & More", week, topics[0])
	default:
		return fmt.Sprintf("Week %d: %s", week, topics[0])
	}
}

func weekObjectives(topics []string, level models.SkillLevel) []string {
	phrasing, ok := phrasings[level]
	if !ok {
		return []string{}
	}
	return expandTopics(topics, phrasing.objectives, maxObjectivesPerWeek)
}

func weekExercises(topics []string, level models.SkillLevel) []string {
	phrasing, ok := phrasings[level]
	if !ok {
		return []string{}
	}
	return expandTopics(topics, phrasing.exercises, maxExercisesPerWeek)
}

func expandTopics(topics []string, templates [2]string, limit int) []string {
	out := make([]string, 0, limit)
	for _, topic := range topics {
		for _, tmpl := range templates {
			if len(out) == limit {
				return out
			}
			out = append(out, fmt.Sprintf(tmpl, topic))
		}
	}
	return out
}

func weekResources(docs []dto.SourceDocument, topics []string, web []models.ResourceEntry, week, totalWeeks int) []string {
	out := make([]string, 0, maxResourcesPerWeek)

	for _, doc := range docs {
		if documentMatches(doc.Topics, topics) {
			out = append(out, fmt.Sprintf("📄 %s (pages relevant to %s)", doc.Name, topics[0]))
		}
	}

	if len(web) > 0 {
		size := ceilDiv(len(web), totalWeeks)
		for _, res := range sliceWindow(web, (week-1)*size, size) {
			out = append(out, fmt.Sprintf("🌐 %s - %s", res.Title, res.URL))
		}
	}

	for _, topic := range topics {
		out = append(out,
			fmt.Sprintf("📚 Online tutorial: %s fundamentals", topic),
			fmt.Sprintf("📖 Research paper: Latest developments in %s", topic),
		)
	}

	if len(out) > maxResourcesPerWeek {
		out = out[:maxResourcesPerWeek]
	}
	return out
}

// documentMatches reports a case-insensitive substring match, in either direction,
// between any document tag and any week topic.
func documentMatches(docTopics, weekTopics []string) bool {
	for _, dt := range docTopics {
		d := strings.ToLower(dt)
		for _, wt := range weekTopics {
			w := strings.ToLower(wt)
			if strings.Contains(w, d) || strings.Contains(d, w) {
				return true
			}
		}
	}
	return false
}

func weekAssessments(week, totalWeeks int) []string {
	out := make([]string, 0, 3)
	if week%2 == 0 {
		out = append(out, assessmentQuiz)
	}
	if week == totalWeeks/2 {
		out = append(out, assessmentMidterm)
	}
	if week == totalWeeks {
		out = append(out, assessmentFinalExam, assessmentFinalProject)
	}
	if len(out) == 0 {
		out = append(out, assessmentParticipate)
	}
	return out
}

func ceilDiv(n, d int) int {
	if d <= 0 || n <= 0 {
		return 0
	}
	return (n + d - 1) / d
}

// sliceWindow returns a copy of items[start:start+size] clamped to bounds.
func sliceWindow[T any](items []T, start, size int) []T {
	if start >= len(items) || size <= 0 {
		return []T{}
	}
	end := start + size
	if end > len(items) {
		end = len(items)
	}
	out := make([]T, end-start)
	copy(out, items[start:end])
	return out
}
