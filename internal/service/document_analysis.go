package service

import (
	"fmt"
	"strings"

	"github.com/noah-isme/curriculum-api/internal/models"
)

const (
	maxDocumentTopics  = 5
	maxConcepts        = 10
	wordsPerMinute     = 200
	documentContentCap = 1000
)

// topicKeywords is scanned in order; the first maxDocumentTopics hits become a document's topics.
var topicKeywords = []string{
	"machine learning", "artificial intelligence", "deep learning", "neural networks",
	"cloud computing", "aws", "azure", "docker", "kubernetes",
	"database", "sql", "nosql", "mongodb", "postgresql",
	"web development", "react", "javascript", "typescript", "node.js",
	"data science", "python", "statistics", "analytics",
	"cybersecurity", "encryption", "authentication", "security",
	"software engineering", "algorithms", "data structures",
}

var (
	advancedTerms     = []string{"algorithm", "optimization", "complexity", "architecture", "framework"}
	intermediateTerms = []string{"implementation", "design", "structure", "methodology"}
)

var assessmentSuggestions = []string{
	"Multiple choice quiz on key concepts",
	"Practical assignment implementing learned techniques",
	"Case study analysis and presentation",
	"Peer review of project work",
}

// ExtractTopics returns up to five known keywords found in text, in keyword-list order.
func ExtractTopics(text string) []string {
	lower := strings.ToLower(text)
	topics := make([]string, 0, maxDocumentTopics)
	for _, kw := range topicKeywords {
		if strings.Contains(lower, kw) {
			topics = append(topics, kw)
			if len(topics) == maxDocumentTopics {
				break
			}
		}
	}
	return topics
}

// AnalyzeText runs the reading, concept and difficulty heuristics over text.
// topics overrides keyword extraction when non-empty.
func AnalyzeText(text string, topics []string) models.DocumentAnalysis {
	words := len(strings.Fields(text))
	if len(topics) == 0 {
		topics = ExtractTopics(text)
	}
	return models.DocumentAnalysis{
		WordCount:             words,
		ReadingTimeMinutes:    ceilDiv(words, wordsPerMinute),
		Concepts:              extractConcepts(text),
		Difficulty:            assessDifficulty(text),
		SuggestedDuration:     suggestDuration(words),
		KeyTopics:             topics,
		LearningObjectives:    analysisObjectives(topics),
		AssessmentSuggestions: append([]string(nil), assessmentSuggestions...),
	}
}

// extractConcepts takes the words preceding the first word that contains
// "is", "are" or "means" on each definition-like line.
func extractConcepts(text string) []string {
	concepts := make([]string, 0)
	for _, line := range strings.Split(text, "\n") {
		if !strings.Contains(line, " is ") && !strings.Contains(line, " are ") && !strings.Contains(line, " means ") {
			continue
		}
		words := strings.Split(line, " ")
		idx := -1
		for i, w := range words {
			if strings.Contains(w, "is") || strings.Contains(w, "are") || strings.Contains(w, "means") {
				idx = i
				break
			}
		}
		if idx <= 0 {
			continue
		}
		if concept := strings.TrimSpace(strings.Join(words[:idx], " ")); concept != "" {
			concepts = append(concepts, concept)
		}
		if len(concepts) == maxConcepts {
			break
		}
	}
	return concepts
}

func assessDifficulty(text string) models.SkillLevel {
	lower := strings.ToLower(text)
	count := func(terms []string) int {
		n := 0
		for _, t := range terms {
			if strings.Contains(lower, t) {
				n++
			}
		}
		return n
	}
	switch {
	case count(advancedTerms) >= 3:
		return models.SkillLevelAdvanced
	case count(intermediateTerms) >= 2:
		return models.SkillLevelIntermediate
	default:
		return models.SkillLevelBeginner
	}
}

func suggestDuration(words int) string {
	switch {
	case words < 1000:
		return "2-3 weeks"
	case words < 3000:
		return "4-6 weeks"
	case words < 5000:
		return "8-10 weeks"
	default:
		return "12-16 weeks"
	}
}

func analysisObjectives(topics []string) []string {
	if len(topics) > 3 {
		topics = topics[:3]
	}
	out := make([]string, 0, len(topics)*2)
	for _, t := range topics {
		out = append(out,
			fmt.Sprintf("Understand the fundamentals of %s", t),
			fmt.Sprintf("Apply %s concepts in practical scenarios", t),
		)
	}
	return out
}

// truncateRunes cuts s to at most n characters without splitting a code point.
func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
