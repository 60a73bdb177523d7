package agents

import (
	"context"
	"strings"

	"github.com/jeanbgt59/ecoagent/internal/cost"
	"github.com/jeanbgt59/ecoagent/internal/task"
)

// Reviewer inspects what the other agents produced and scores the result.
// It never blocks a workflow: findings come back as issues, not errors.
type Reviewer struct {
	modelChoice
}

func NewReviewer() *Reviewer {
	return &Reviewer{modelChoice{provider: cost.ProviderOllama, model: "mistral:7b"}}
}

func (r *Reviewer) Name() string { return "review" }

func (r *Reviewer) Description() string {
	return "Reviews the generated project for gaps and scores the outcome"
}

func (r *Reviewer) CanHandle(t *task.Task) bool {
	return t.Type == "review"
}

func (r *Reviewer) EstimateCost(t *task.Task) float64 {
	return r.estimate(complexityOf(t))
}

func (r *Reviewer) Execute(ctx context.Context, t *task.Task) (map[string]any, error) {
	build := stepOutput(t, "build")
	testOut := stepOutput(t, "test")
	docOut := stepOutput(t, "document")

	score := 100
	var issues []string

	sources, _ := build["generated_files"].(map[string]string)
	switch {
	case build == nil:
		issues = append(issues, "no build output to review")
		score -= 40
	case len(sources) == 0:
		issues = append(issues, "build produced no files")
		score -= 30
	default:
		if !hasFile(sources, ".gitignore") {
			issues = append(issues, "missing .gitignore")
			score -= 5
		}
		if !hasFile(sources, "requirements.txt") {
			issues = append(issues, "dependencies are not pinned in requirements.txt")
			score -= 10
		}
	}

	if testOut == nil {
		issues = append(issues, "no tests were written")
		score -= 20
	} else if coverage, ok := testOut["coverage_estimate_percent"].(int); ok && coverage < 70 {
		issues = append(issues, "estimated coverage is below 70%")
		score -= 10
	}

	if docOut == nil && complexityOf(t) != "simple" {
		issues = append(issues, "no documentation for a non-trivial project")
		score -= 10
	}

	if score < 0 {
		score = 0
	}

	return map[string]any{
		"score":    score,
		"approved": score >= 70,
		"issues":   issues,
		"summary":  reviewSummary(score),
		"cost":     r.charge(complexityOf(t)),
	}, nil
}

func hasFile(files map[string]string, suffix string) bool {
	for name := range files {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

func reviewSummary(score int) string {
	switch {
	case score >= 90:
		return "ready to ship"
	case score >= 70:
		return "acceptable with minor follow-ups"
	default:
		return "needs rework before shipping"
	}
}
