// Package cost estimates and tracks what agent work costs across model
// providers. Estimates are deliberately conservative: the point is that a
// user sees a price before anything runs.
package cost

import "math"

type Provider string

const (
	ProviderOllama    Provider = "ollama"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

// tokenPrice is the per-token price in euros.
type tokenPrice struct {
	input  float64
	output float64
}

// List prices as of January 2025.
var pricing = map[Provider]map[string]tokenPrice{
	ProviderOpenAI: {
		"gpt-4o":        {input: 0.0000025, output: 0.00001},
		"gpt-4o-mini":   {input: 0.00000015, output: 0.0000006},
		"gpt-3.5-turbo": {input: 0.0000005, output: 0.0000015},
	},
	ProviderAnthropic: {
		"claude-3-5-sonnet": {input: 0.000003, output: 0.000015},
		"claude-3-haiku":    {input: 0.00000025, output: 0.00000125},
	},
	ProviderOllama: {
		"default":      {},
		"mistral:7b":   {},
		"codellama:7b": {},
	},
}

// Token budgets per task complexity, per participating agent.
var tokenBudgets = map[string]struct{ input, output int }{
	"simple":  {500, 1000},
	"medium":  {1500, 3000},
	"complex": {5000, 8000},
}

// Budget returns the per-agent token budget for a task of the given
// complexity. Unknown complexities size as medium.
func Budget(complexity string) (inputTokens, outputTokens int) {
	budget, ok := tokenBudgets[complexity]
	if !ok {
		budget = tokenBudgets["medium"]
	}
	return budget.input, budget.output
}

// Estimate is one provider option for running a task.
type Estimate struct {
	Provider   Provider `json:"provider"`
	Model      string   `json:"model"`
	Tokens     int      `json:"estimated_tokens"`
	CostEuros  float64  `json:"cost_euros"`
	Confidence float64  `json:"confidence"`
	Reasoning  string   `json:"reasoning"`
}

// Calculate returns the exact cost of one model call, rounded to four
// decimals. Unknown provider/model pairs cost nothing.
func Calculate(provider Provider, model string, inputTokens, outputTokens int) float64 {
	price, ok := pricing[provider][model]
	if !ok {
		return 0
	}

	c := float64(inputTokens)*price.input + float64(outputTokens)*price.output
	return math.Round(c*10000) / 10000
}

// EstimateTask sizes a task by complexity and returns the provider options.
// The free local option always comes first; a paid option is added only when
// local models are unlikely to cope.
func EstimateTask(complexity string, agents int) []Estimate {
	budget, ok := tokenBudgets[complexity]
	if !ok {
		budget = tokenBudgets["medium"]
	}
	if agents < 1 {
		agents = 1
	}

	inputTokens := budget.input * agents
	outputTokens := budget.output * agents
	total := inputTokens + outputTokens

	estimates := []Estimate{{
		Provider:   ProviderOllama,
		Model:      "mistral:7b + codellama:7b",
		Tokens:     total,
		CostEuros:  0,
		Confidence: 0.95,
		Reasoning:  "local models, no API cost",
	}}

	if complexity == "complex" || complexity == "enterprise" {
		estimates = append(estimates, Estimate{
			Provider:   ProviderOpenAI,
			Model:      "gpt-4o-mini",
			Tokens:     total,
			CostEuros:  Calculate(ProviderOpenAI, "gpt-4o-mini", inputTokens, outputTokens),
			Confidence: 0.85,
			Reasoning:  "recommended when local models fall short on " + complexity + " work",
		})
	}

	return estimates
}

// Cheapest returns the lowest-cost option among the estimates.
func Cheapest(estimates []Estimate) (Estimate, bool) {
	if len(estimates) == 0 {
		return Estimate{}, false
	}

	best := estimates[0]
	for _, e := range estimates[1:] {
		if e.CostEuros < best.CostEuros {
			best = e
		}
	}
	return best, true
}
