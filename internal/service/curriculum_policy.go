package service

import (
	"fmt"

	"github.com/noah-isme/curriculum-api/internal/models"
)

type subjectKey int

const (
	subjectGeneric subjectKey = iota
	subjectCloudComputing
	subjectMachineLearning
	subjectWebDevelopment
)

// lookupSubject maps an exact subject label onto the closed set of known subjects.
func lookupSubject(subject string) subjectKey {
	switch subject {
	case "Cloud Computing":
		return subjectCloudComputing
	case "Machine Learning":
		return subjectMachineLearning
	case "Web Development":
		return subjectWebDevelopment
	default:
		return subjectGeneric
	}
}

var genericTopics = []string{"Introduction", "Core Concepts", "Practical Applications", "Best Practices", "Advanced Topics"}

var subjectTopics = map[subjectKey]map[models.SkillLevel][]string{
	subjectCloudComputing: {
		models.SkillLevelBeginner:     {"Cloud Fundamentals", "IaaS vs PaaS vs SaaS", "AWS Basics", "Virtual Machines", "Storage Solutions"},
		models.SkillLevelIntermediate: {"Container Orchestration", "Microservices", "Load Balancing", "Auto Scaling", "Security Best Practices"},
		models.SkillLevelAdvanced:     {"Multi-Cloud Architecture", "Serverless Computing", "DevOps Integration", "Cost Optimization", "Disaster Recovery"},
	},
	subjectMachineLearning: {
		models.SkillLevelBeginner:     {"ML Fundamentals", "Supervised Learning", "Data Preprocessing", "Linear Regression", "Classification"},
		models.SkillLevelIntermediate: {"Neural Networks", "Deep Learning", "Feature Engineering", "Model Evaluation", "Cross Validation"},
		models.SkillLevelAdvanced:     {"Advanced Neural Networks", "Transfer Learning", "Reinforcement Learning", "MLOps", "Model Deployment"},
	},
	subjectWebDevelopment: {
		models.SkillLevelBeginner:     {"HTML/CSS Basics", "JavaScript Fundamentals", "DOM Manipulation", "Responsive Design", "Version Control"},
		models.SkillLevelIntermediate: {"React/Vue Framework", "API Integration", "State Management", "Testing", "Build Tools"},
		models.SkillLevelAdvanced:     {"Performance Optimization", "Security", "Microservices", "CI/CD", "Cloud Deployment"},
	},
}

// tableTopics returns the static topic list for a subject/level pair.
func tableTopics(subject string, level models.SkillLevel) []string {
	key := lookupSubject(subject)
	if key == subjectGeneric {
		return genericTopics
	}
	if topics, ok := subjectTopics[key][level]; ok {
		return topics
	}
	return genericTopics
}

// levelPhrasing holds the two templates applied per topic for one skill level.
type levelPhrasing struct {
	objectives [2]string
	exercises  [2]string
}

var phrasings = map[models.SkillLevel]levelPhrasing{
	models.SkillLevelBeginner: {
		objectives: [2]string{"Understand the basics of %s", "Identify key concepts in %s"},
		exercises:  [2]string{"Complete basic %s tutorial", "Write a summary of %s concepts"},
	},
	models.SkillLevelIntermediate: {
		objectives: [2]string{"Apply %s in practical scenarios", "Analyze %s implementations"},
		exercises:  [2]string{"Implement a %s solution", "Compare different %s approaches"},
	},
	models.SkillLevelAdvanced: {
		objectives: [2]string{"Design solutions using %s", "Evaluate and optimize %s approaches"},
		exercises:  [2]string{"Design and build a %s system", "Optimize existing %s implementation"},
	},
}

const (
	maxObjectivesPerWeek = 4
	maxResourcesPerWeek  = 6
	maxExercisesPerWeek  = 3
)

const (
	assessmentQuiz         = "Quiz on weekly topics (20 points)"
	assessmentMidterm      = "Midterm project presentation (100 points)"
	assessmentFinalExam    = "Final comprehensive exam (150 points)"
	assessmentFinalProject = "Final project submission (200 points)"
	assessmentParticipate  = "Participation and discussion (10 points)"
)

func overallObjectives(subject string, level models.SkillLevel) []string {
	objectives := []string{
		fmt.Sprintf("Master fundamental concepts of %s", subject),
		fmt.Sprintf("Apply %s principles to solve real-world problems", subject),
		"Develop practical skills through hands-on exercises",
		"Understand industry best practices and current trends",
	}
	if level == models.SkillLevelAdvanced {
		objectives = append(objectives,
			"Design and implement complex systems",
			"Lead technical discussions and mentor others",
		)
	}
	return objectives
}

func prerequisites(level models.SkillLevel) []string {
	switch level {
	case models.SkillLevelBeginner:
		return []string{"Basic computer literacy", "High school mathematics"}
	case models.SkillLevelIntermediate:
		return []string{"Completion of beginner-level course or equivalent experience", "Familiarity with basic programming concepts"}
	case models.SkillLevelAdvanced:
		return []string{"Intermediate-level knowledge of the subject", "2+ years of practical experience", "Strong analytical and problem-solving skills"}
	default:
		return []string{}
	}
}

func finalAssessment(level models.SkillLevel) string {
	switch level {
	case models.SkillLevelBeginner:
		return "Comprehensive final exam (60%) + practical project (40%)"
	case models.SkillLevelIntermediate:
		return "Capstone project (50%) + technical presentation (30%) + peer review (20%)"
	case models.SkillLevelAdvanced:
		return "Original research project (40%) + implementation (35%) + technical leadership demonstration (25%)"
	default:
		return "Final project and presentation"
	}
}

var curriculumTemplates = []models.CurriculumTemplate{
	{
		ID:          "cloud-computing-fundamentals",
		Title:       "Cloud Computing Fundamentals",
		Subject:     "Cloud Computing",
		Description: "Complete introduction to cloud technologies and services",
		Duration:    "8 weeks",
		SkillLevel:  models.SkillLevelBeginner,
		Topics:      []string{"AWS", "Azure", "Docker", "Kubernetes"},
	},
	{
		ID:          "machine-learning-bootcamp",
		Title:       "Machine Learning Bootcamp",
		Subject:     "Machine Learning",
		Description: "Hands-on ML course with Python and TensorFlow",
		Duration:    "12 weeks",
		SkillLevel:  models.SkillLevelIntermediate,
		Topics:      []string{"Python", "TensorFlow", "Neural Networks", "Deep Learning"},
	},
	{
		ID:          "web-development-mastery",
		Title:       "Web Development Mastery",
		Subject:     "Web Development",
		Description: "Full-stack development with modern frameworks",
		Duration:    "16 weeks",
		SkillLevel:  models.SkillLevelAdvanced,
		Topics:      []string{"React", "Node.js", "MongoDB", "TypeScript"},
	},
}
