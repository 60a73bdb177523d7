package task

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewTask(t *testing.T) {
	reqs := map[string]any{"language": "go"}

	tk := NewTask("webapp", "build a todo app", reqs)

	assert.NotEmpty(t, tk.ID)
	assert.Equal(t, "webapp", tk.Type)
	assert.Equal(t, "build a todo app", tk.Description)
	assert.Equal(t, reqs, tk.Requirements)
	assert.Nil(t, tk.Context)
	assert.Nil(t, tk.PreviousOutputs)
}

func TestForStep(t *testing.T) {
	tk := NewTask("webapp", "build a todo app", map[string]any{"language": "go"})
	outputs := map[string]any{
		"analyze": map[string]any{"complexity": "medium"},
	}

	derived := tk.ForStep("build", outputs)

	assert.Equal(t, tk.ID+"_build", derived.ID)
	assert.Equal(t, "build", derived.Type)
	assert.Equal(t, tk.Description, derived.Description)
	assert.Equal(t, tk.Requirements, derived.Requirements)
	assert.Equal(t, outputs, derived.Context)
	assert.Equal(t, outputs, derived.PreviousOutputs)
}

func TestForStep_SnapshotsOutputs(t *testing.T) {
	tk := NewTask("minimal", "small fix", nil)
	outputs := map[string]any{"analyze": "done"}

	derived := tk.ForStep("build", outputs)
	outputs["build"] = "later"

	assert.NotContains(t, derived.Context, "build")
}

func TestNewRun(t *testing.T) {
	tk := NewTask("minimal", "small fix", nil)

	run := NewRun(tk, PriorityHigh)

	assert.Equal(t, tk.ID, run.ID)
	assert.Equal(t, *tk, run.Task)
	assert.Equal(t, PriorityHigh, run.Priority)
	assert.Equal(t, StatusPending, run.Status)
	assert.False(t, run.CreatedAt.IsZero())
	assert.False(t, run.ScheduledAt.IsZero())
	assert.Nil(t, run.StartedAt)
	assert.Nil(t, run.CompletedAt)
}

func TestRunJSONRoundTrip(t *testing.T) {
	now := time.Now()
	run := &Run{
		ID:          "run-123",
		Task:        *NewTask("bugfix", "fix the crash", nil),
		Priority:    PriorityNormal,
		Status:      StatusRunning,
		TotalCost:   0.0042,
		CreatedAt:   now,
		ScheduledAt: now,
		StartedAt:   &now,
		Result:      []byte(`{"success":true}`),
		Error:       "partial",
	}

	jsonStr, err := run.ToJSON()
	assert.NoError(t, err)

	restored, err := RunFromJSON(jsonStr)
	assert.NoError(t, err)

	assert.Equal(t, run.ID, restored.ID)
	assert.Equal(t, run.Task.Description, restored.Task.Description)
	assert.Equal(t, run.Priority, restored.Priority)
	assert.Equal(t, run.Status, restored.Status)
	assert.Equal(t, run.TotalCost, restored.TotalCost)
	assert.JSONEq(t, `{"success":true}`, string(restored.Result))
	assert.Equal(t, run.Error, restored.Error)
}

func TestRunFromJSON_InvalidJSON(t *testing.T) {
	_, err := RunFromJSON("invalid json")

	assert.Error(t, err)
}

func TestRunPriority_String(t *testing.T) {
	tests := []struct {
		name     string
		priority RunPriority
		expected string
	}{
		{
			name:     "low priority",
			priority: PriorityLow,
			expected: "low",
		},
		{
			name:     "normal priority",
			priority: PriorityNormal,
			expected: "normal",
		},
		{
			name:     "high priority",
			priority: PriorityHigh,
			expected: "high",
		},
		{
			name:     "unknown priority value",
			priority: RunPriority(99),
			expected: "unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.priority.String())
		})
	}
}
