package cost

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculate(t *testing.T) {
	tests := []struct {
		name     string
		provider Provider
		model    string
		input    int
		output   int
		expected float64
	}{
		{
			name:     "gpt-4o",
			provider: ProviderOpenAI,
			model:    "gpt-4o",
			input:    1000,
			output:   1000,
			expected: 0.0125,
		},
		{
			name:     "claude haiku",
			provider: ProviderAnthropic,
			model:    "claude-3-haiku",
			input:    4000,
			output:   4000,
			expected: 0.006,
		},
		{
			name:     "local is free",
			provider: ProviderOllama,
			model:    "default",
			input:    100000,
			output:   100000,
			expected: 0,
		},
		{
			name:     "unknown model",
			provider: ProviderOpenAI,
			model:    "gpt-9",
			input:    1000,
			output:   1000,
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Calculate(tt.provider, tt.model, tt.input, tt.output), 1e-9)
		})
	}
}

func TestBudget(t *testing.T) {
	in, out := Budget("simple")
	assert.Equal(t, 500, in)
	assert.Equal(t, 1000, out)

	in, out = Budget("nonsense")
	assert.Equal(t, 1500, in)
	assert.Equal(t, 3000, out)
}

func TestEstimateTask_SimpleStaysLocal(t *testing.T) {
	estimates := EstimateTask("simple", 2)

	require.Len(t, estimates, 1)
	assert.Equal(t, ProviderOllama, estimates[0].Provider)
	assert.Equal(t, 3000, estimates[0].Tokens)
	assert.Zero(t, estimates[0].CostEuros)
	assert.Equal(t, 0.95, estimates[0].Confidence)
}

func TestEstimateTask_ComplexAddsPaidOption(t *testing.T) {
	estimates := EstimateTask("complex", 2)

	require.Len(t, estimates, 2)
	paid := estimates[1]
	assert.Equal(t, ProviderOpenAI, paid.Provider)
	assert.Equal(t, "gpt-4o-mini", paid.Model)
	assert.Equal(t, 26000, paid.Tokens)
	assert.InDelta(t, 0.0111, paid.CostEuros, 1e-9)
	assert.Equal(t, 0.85, paid.Confidence)
}

func TestEstimateTask_UnknownComplexityDefaultsToMedium(t *testing.T) {
	estimates := EstimateTask("gigantic", 1)

	require.Len(t, estimates, 1)
	assert.Equal(t, 4500, estimates[0].Tokens)
}

func TestEstimateTask_AtLeastOneAgent(t *testing.T) {
	estimates := EstimateTask("simple", 0)

	assert.Equal(t, 1500, estimates[0].Tokens)
}

func TestCheapest(t *testing.T) {
	estimates := EstimateTask("complex", 3)

	best, ok := Cheapest(estimates)

	require.True(t, ok)
	assert.Equal(t, ProviderOllama, best.Provider)

	_, ok = Cheapest(nil)
	assert.False(t, ok)
}

func TestTracker(t *testing.T) {
	tr := NewTracker()

	tr.Track(ProviderOllama, "mistral:7b", 500, 900, 0)
	tr.Track(ProviderOllama, "codellama:7b", 700, 1200, 0)
	tr.Track(ProviderOpenAI, "gpt-4o-mini", 1500, 3000, 0.0024)

	summary := tr.DailySummary()

	assert.Equal(t, 3, summary.TotalRequests)
	assert.Equal(t, 2, summary.LocalRequests)
	assert.Equal(t, 1, summary.APIRequests)
	assert.InDelta(t, 0.0024, summary.TotalCostEuros, 1e-9)
	assert.InDelta(t, 0.0008, summary.AverageCostPerRequest, 1e-9)
}

func TestTracker_IgnoresOldRecords(t *testing.T) {
	tr := NewTracker()
	tr.Track(ProviderOpenAI, "gpt-4o", 100, 100, 0.0125)

	records := tr.usage.Items()
	records[0].Timestamp = time.Now().Add(-48 * time.Hour)
	tr.usage.Reset()
	tr.usage.Push(records[0])

	summary := tr.DailySummary()

	assert.Zero(t, summary.TotalRequests)
	assert.Zero(t, summary.TotalCostEuros)
}

func TestTracker_EmptySummary(t *testing.T) {
	tr := NewTracker()

	summary := tr.DailySummary()

	assert.Zero(t, summary.TotalRequests)
	assert.Zero(t, summary.AverageCostPerRequest)
}
