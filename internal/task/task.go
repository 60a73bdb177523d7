// Package task defines the task domain model shared by the workflow engine,
// the queue and the persistence layers. It contains the submitted task shape,
// the run envelope tracked by the queue, and serialization helpers.
package task

import (
	"maps"

	"github.com/google/uuid"
)

// Task is one unit of submitted work. Type carries the workflow name on
// submissions; the coordinator rewrites it to the step name on the tasks it
// derives for each step.
type Task struct {
	ID              string         `json:"id"`
	Type            string         `json:"type"`
	Description     string         `json:"description"`
	Context         map[string]any `json:"context,omitempty"`
	PreviousOutputs map[string]any `json:"previous_outputs,omitempty"`
	Requirements    map[string]any `json:"requirements,omitempty"`
}

func NewTask(workflowType, description string, requirements map[string]any) *Task {
	return &Task{
		ID:           uuid.New().String(),
		Type:         workflowType,
		Description:  description,
		Requirements: requirements,
	}
}

// ForStep derives the task handed to a single workflow step. The accumulated
// outputs travel as both Context and PreviousOutputs; the snapshot keeps a
// mutating agent from corrupting the coordinator's accumulator.
func (t *Task) ForStep(step string, outputs map[string]any) *Task {
	snapshot := maps.Clone(outputs)
	return &Task{
		ID:              t.ID + "_" + step,
		Type:            step,
		Description:     t.Description,
		Context:         snapshot,
		PreviousOutputs: snapshot,
		Requirements:    t.Requirements,
	}
}
