package agents

import (
	"context"
	"math"
	"regexp"
	"slices"
	"strings"

	"github.com/jeanbgt59/ecoagent/internal/task"
)

// Analyzer is the entry point of every workflow. It assesses the request and
// produces the plan the downstream agents build on.
type Analyzer struct{}

func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

func (a *Analyzer) Name() string { return "analyze" }

func (a *Analyzer) Description() string {
	return "Analyzes the request, extracts requirements and plans the development strategy"
}

// CanHandle accepts analyze tasks and anything with a description to score.
func (a *Analyzer) CanHandle(t *task.Task) bool {
	return t.Type == "analyze" || t.Description != ""
}

// EstimateCost is always zero: analysis runs on local models.
func (a *Analyzer) EstimateCost(t *task.Task) float64 {
	return 0
}

func (a *Analyzer) Execute(ctx context.Context, t *task.Task) (map[string]any, error) {
	complexity := assessComplexity(t.Description)
	projectType := detectProjectType(t.Description)
	requirements := extractRequirements(t.Description)

	return map[string]any{
		"project_type":         projectType,
		"complexity":           complexity,
		"requirements":         requirements,
		"action_plan":          actionPlan(projectType, complexity),
		"resource_estimate":    estimateResources(projectType, complexity),
		"suggestions":          suggestions(t.Description, projectType),
		"recommended_workflow": recommendWorkflow(projectType, complexity),
		"technical_stack":      suggestTechStack(projectType),
		"risk_assessment":      assessRisks(projectType, complexity),
	}, nil
}

var (
	highComplexitySignals = []string{
		"database", "rest api", "microservice", "authentication", "payment",
		"real-time", "machine learning", "distributed", "kubernetes",
		"docker", "cloud",
	}
	mediumComplexitySignals = []string{
		"web", "api", "backend", "frontend", "crud", "form", "validation", "file",
	}
	simpleSignals = []string{
		"simple", "basic", "small", "script", "utility", "converter", "calculator",
	}
)

func assessComplexity(description string) string {
	desc := strings.ToLower(description)

	high := countMatches(desc, highComplexitySignals)
	medium := countMatches(desc, mediumComplexitySignals)
	simple := countMatches(desc, simpleSignals)

	switch {
	case high >= 2:
		return "complex"
	case high >= 1 || medium >= 2:
		return "medium"
	case simple >= 1:
		return "simple"
	case len(description) > 200:
		return "medium"
	default:
		return "simple"
	}
}

// projectTypeSignals is ordered: the first match wins.
var projectTypeSignals = []struct {
	name    string
	signals []string
}{
	{"web_application", []string{"web app", "webapp", "website"}},
	{"api", []string{"api", "rest", "endpoint", "microservice"}},
	{"mobile_app", []string{"mobile", "android", "ios"}},
	{"desktop_app", []string{"desktop", "gui"}},
	{"script", []string{"script", "automation", "batch", "utility"}},
	{"library", []string{"library", "package", "module"}},
	{"data_analysis", []string{"data analysis", "statistics", "dashboard"}},
	{"game", []string{"game", "gaming"}},
	{"documentation", []string{"documentation", "readme", "guide"}},
}

func detectProjectType(description string) string {
	desc := strings.ToLower(description)
	for _, pt := range projectTypeSignals {
		if containsAny(desc, pt.signals...) {
			return pt.name
		}
	}
	return "general_application"
}

var functionalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:must|should|needs? to|able to)\s+([^.!?]+)`),
	regexp.MustCompile(`(?i)(?:create|display|manage|send|receive|calculate|process)\s+([^.!?]+)`),
	regexp.MustCompile(`(?i)(?:users? can|allow users? to)\s+([^.!?]+)`),
}

var techKeywords = []string{
	"python", "golang", "javascript", "typescript", "react", "vue", "angular",
	"django", "flask", "fastapi", "postgresql", "mysql", "mongodb", "redis",
	"docker", "kubernetes", "aws", "azure", "gcp", "graphql",
}

var performanceKeywords = []string{
	"fast", "performant", "real-time", "scalable", "responsive",
}

func extractRequirements(description string) map[string]any {
	var functional []string
	for _, pattern := range functionalPatterns {
		for _, m := range pattern.FindAllStringSubmatch(description, -1) {
			functional = append(functional, strings.TrimSpace(m[1]))
		}
	}
	if len(functional) > 10 {
		functional = functional[:10]
	}

	desc := strings.ToLower(description)

	var technical []string
	for _, kw := range techKeywords {
		if strings.Contains(desc, kw) {
			technical = append(technical, kw)
		}
	}

	var performance []string
	for _, kw := range performanceKeywords {
		if strings.Contains(desc, kw) {
			performance = append(performance, kw)
		}
	}

	return map[string]any{
		"functional":  functional,
		"technical":   technical,
		"performance": performance,
	}
}

func actionPlan(projectType, complexity string) []map[string]string {
	plan := []map[string]string{
		{"step": "analyze", "description": "Assess the request and define requirements", "status": "completed"},
		{"step": "design", "description": "Design the architecture and pick technologies", "status": "pending"},
		{"step": "build", "description": "Implement the main code", "status": "pending"},
		{"step": "test", "description": "Write unit and integration tests", "status": "pending"},
		{"step": "document", "description": "Document the code and write the user guide", "status": "pending"},
	}

	if projectType == "web_application" {
		plan = slices.Insert(plan, 3,
			map[string]string{"step": "frontend", "description": "Build the user interface", "status": "pending"},
			map[string]string{"step": "backend", "description": "Build the server-side logic", "status": "pending"},
		)
	}

	if complexity == "complex" {
		plan = slices.Insert(plan, 2,
			map[string]string{"step": "prototype", "description": "Build a prototype for validation", "status": "pending"},
		)
		plan = append(plan,
			map[string]string{"step": "deploy", "description": "Configure and ship to production", "status": "pending"},
		)
	}

	return plan
}

var resourceBaselines = map[string]struct {
	hours  int
	agents int
	euros  float64
}{
	"simple":  {2, 2, 0.0},
	"medium":  {8, 4, 0.02},
	"complex": {24, 6, 0.10},
}

var projectTypeMultipliers = map[string]float64{
	"web_application": 1.2,
	"mobile_app":      1.5,
	"api":             0.8,
	"script":          0.5,
	"documentation":   0.3,
}

func estimateResources(projectType, complexity string) map[string]any {
	base, ok := resourceBaselines[complexity]
	if !ok {
		base = resourceBaselines["medium"]
	}

	multiplier, ok := projectTypeMultipliers[projectType]
	if !ok {
		multiplier = 1.0
	}

	return map[string]any{
		"time_hours":    int(float64(base.hours) * multiplier),
		"agents_needed": base.agents,
		"cost_euros":    math.Round(base.euros*multiplier*10000) / 10000,
	}
}

func suggestions(description, projectType string) []string {
	desc := strings.ToLower(description)
	var out []string

	if !strings.Contains(desc, "test") {
		out = append(out, "Add automated tests to lock in quality")
	}
	if !strings.Contains(desc, "security") {
		out = append(out, "Consider security early: input validation and authentication")
	}
	if projectType == "web_application" && !strings.Contains(desc, "responsive") {
		out = append(out, "Plan a responsive design for mobile and tablet")
	}
	if !strings.Contains(desc, "performance") {
		out = append(out, "Budget performance from the start")
	}
	if !strings.Contains(desc, "documentation") {
		out = append(out, "Plan user and technical documentation")
	}

	return out
}

func recommendWorkflow(projectType, complexity string) string {
	switch {
	case complexity == "complex":
		return "full"
	case projectType == "web_application":
		return "webapp"
	case projectType == "documentation":
		return "docs"
	case strings.Contains(projectType, "bug") || strings.Contains(projectType, "fix"):
		return "bugfix"
	default:
		return "minimal"
	}
}

func suggestTechStack(projectType string) map[string]string {
	switch projectType {
	case "web_application":
		return map[string]string{
			"backend":    "FastAPI",
			"frontend":   "React",
			"database":   "PostgreSQL",
			"deployment": "Docker",
		}
	case "api":
		return map[string]string{
			"framework":      "FastAPI",
			"database":       "PostgreSQL",
			"authentication": "JWT",
			"documentation":  "OpenAPI",
		}
	case "script":
		return map[string]string{
			"language":     "Python",
			"dependencies": "minimal",
			"distribution": "pip package",
		}
	case "documentation":
		return map[string]string{
			"format":    "Markdown",
			"generator": "MkDocs",
			"hosting":   "GitHub Pages",
		}
	default:
		return map[string]string{
			"language":  "Python",
			"framework": "to be decided from the requirements",
		}
	}
}

func assessRisks(projectType, complexity string) []map[string]string {
	var risks []map[string]string

	if complexity == "complex" {
		risks = append(risks, map[string]string{
			"type":       "technical complexity",
			"level":      "high",
			"mitigation": "phased development with an early prototype",
		})
	}
	if projectType == "web_application" {
		risks = append(risks, map[string]string{
			"type":       "web security",
			"level":      "medium",
			"mitigation": "strict validation and robust authentication",
		})
	}

	risks = append(risks, map[string]string{
		"type":       "changing requirements",
		"level":      "medium",
		"mitigation": "modular architecture and clear documentation",
	})

	return risks
}
