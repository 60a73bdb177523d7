// Package agents provides the built-in development agents behind the
// workflow steps: analyze, design, build, test, document and review.
//
// Every agent defaults to a local model so a run costs nothing. SetModel
// switches an agent to a paid provider, which changes both the estimate
// and the actual cost it reports.
package agents

import (
	"strings"

	"github.com/jeanbgt59/ecoagent/internal/agent"
	"github.com/jeanbgt59/ecoagent/internal/cost"
	"github.com/jeanbgt59/ecoagent/internal/task"
)

// Defaults returns the full built-in roster in step order.
func Defaults() []agent.Agent {
	return []agent.Agent{
		NewAnalyzer(),
		NewDesigner(),
		NewBuilder(),
		NewTester(),
		NewDocumenter(),
		NewReviewer(),
	}
}

// SetTracker wires usage tracking into every cost-aware agent in the roster.
// Agents that never spend anything are left alone.
func SetTracker(roster []agent.Agent, tr *cost.Tracker) {
	for _, a := range roster {
		if ca, ok := a.(interface{ SetTracker(*cost.Tracker) }); ok {
			ca.SetTracker(tr)
		}
	}
}

// modelChoice pins an agent to one provider/model pair.
type modelChoice struct {
	provider cost.Provider
	model    string
	tracker  *cost.Tracker
}

// SetModel routes the agent's work to a specific provider and model.
func (m *modelChoice) SetModel(provider cost.Provider, model string) {
	m.provider = provider
	m.model = model
}

// SetTracker records the agent's usage from then on.
func (m *modelChoice) SetTracker(tr *cost.Tracker) {
	m.tracker = tr
}

func (m *modelChoice) estimate(complexity string) float64 {
	in, out := cost.Budget(complexity)
	return cost.Calculate(m.provider, m.model, in, out)
}

// charge prices an executed step and logs it as actual usage, unlike estimate
// which never touches the tracker.
func (m *modelChoice) charge(complexity string) float64 {
	in, out := cost.Budget(complexity)
	c := cost.Calculate(m.provider, m.model, in, out)
	if m.tracker != nil {
		m.tracker.Track(m.provider, m.model, in, out, c)
	}
	return c
}

// stepOutput returns the payload a previous step produced, or nil.
func stepOutput(t *task.Task, step string) map[string]any {
	out, _ := t.PreviousOutputs[step].(map[string]any)
	return out
}

// complexityOf prefers the complexity assessed by the analyze step and falls
// back to scoring the description when no analysis ran.
func complexityOf(t *task.Task) string {
	if c, ok := stepOutput(t, "analyze")["complexity"].(string); ok {
		return c
	}
	return assessComplexity(t.Description)
}

// projectTypeOf prefers the project type detected by the analyze step.
func projectTypeOf(t *task.Task) string {
	if p, ok := stepOutput(t, "analyze")["project_type"].(string); ok {
		return p
	}
	return detectProjectType(t.Description)
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func countMatches(s string, subs []string) int {
	n := 0
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			n++
		}
	}
	return n
}
