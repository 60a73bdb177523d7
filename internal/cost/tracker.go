package cost

import (
	"math"
	"sync"
	"time"

	"github.com/jeanbgt59/ecoagent/internal/ring"
)

// usageHistorySize bounds the in-memory usage log.
const usageHistorySize = 1000

// UsageRecord is one actual model call, as opposed to an estimate.
type UsageRecord struct {
	Timestamp    time.Time `json:"timestamp"`
	Provider     Provider  `json:"provider"`
	Model        string    `json:"model"`
	InputTokens  int       `json:"input_tokens"`
	OutputTokens int       `json:"output_tokens"`
	ActualCost   float64   `json:"actual_cost"`
}

// DailySummary aggregates the last 24 hours of tracked usage.
type DailySummary struct {
	TotalCostEuros        float64 `json:"total_cost_euros"`
	TotalRequests         int     `json:"total_requests"`
	AverageCostPerRequest float64 `json:"average_cost_per_request"`
	LocalRequests         int     `json:"local_requests"`
	APIRequests           int     `json:"api_requests"`
}

// Tracker accumulates actual model usage for the daily summary. Safe for
// concurrent use.
type Tracker struct {
	mu    sync.Mutex
	usage *ring.Buffer[UsageRecord]
}

func NewTracker() *Tracker {
	return &Tracker{usage: ring.New[UsageRecord](usageHistorySize)}
}

func (t *Tracker) Track(provider Provider, model string, inputTokens, outputTokens int, actualCost float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.usage.Push(UsageRecord{
		Timestamp:    time.Now(),
		Provider:     provider,
		Model:        model,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		ActualCost:   actualCost,
	})
}

func (t *Tracker) Records() []UsageRecord {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.usage.Items()
}

func (t *Tracker) DailySummary() DailySummary {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := time.Now().Add(-24 * time.Hour)

	var s DailySummary
	for _, rec := range t.usage.Items() {
		if rec.Timestamp.Before(cutoff) {
			continue
		}
		s.TotalRequests++
		s.TotalCostEuros += rec.ActualCost
		if rec.Provider == ProviderOllama {
			s.LocalRequests++
		} else {
			s.APIRequests++
		}
	}

	s.TotalCostEuros = math.Round(s.TotalCostEuros*10000) / 10000
	s.AverageCostPerRequest = math.Round(s.TotalCostEuros/math.Max(1, float64(s.TotalRequests))*10000) / 10000
	return s
}
