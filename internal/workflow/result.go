package workflow

import "time"

// TimelineEntry records one executed step, in execution order.
type TimelineEntry struct {
	Step      string        `json:"step"`
	Timestamp time.Time     `json:"timestamp"`
	Duration  time.Duration `json:"duration"`
	Success   bool          `json:"success"`
}

// Result aggregates one full run of a workflow. For an unknown workflow type
// only Error and AvailableWorkflows are populated.
type Result struct {
	WorkflowType       string                    `json:"workflow_type"`
	TaskID             string                    `json:"task_id"`
	Success            bool                      `json:"success"`
	StepsCompleted     []string                  `json:"steps_completed"`
	StepsFailed        []string                  `json:"steps_failed"`
	TotalCost          float64                   `json:"total_cost"`
	Outputs            map[string]map[string]any `json:"outputs,omitempty"`
	Timeline           []TimelineEntry           `json:"timeline,omitempty"`
	Error              string                    `json:"error,omitempty"`
	AvailableWorkflows []string                  `json:"available_workflows,omitempty"`
}
