package agent

import "slices"

// Registry maps agent names to their runners. It is populated during startup
// and treated as read-only afterwards, so lookups take no lock.
type Registry struct {
	runners     map[string]*Runner
	historySize int
}

func NewRegistry(historySize int) *Registry {
	return &Registry{
		runners:     make(map[string]*Runner),
		historySize: historySize,
	}
}

// Register wraps the agent in a runner and stores it under the agent's name,
// replacing any previous registration.
func (r *Registry) Register(a Agent) *Runner {
	runner := NewRunner(a, r.historySize)
	r.runners[a.Name()] = runner
	return runner
}

func (r *Registry) Get(name string) (*Runner, bool) {
	runner, ok := r.runners[name]
	return runner, ok
}

// Names returns the registered agent names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.runners))
	for name := range r.runners {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (r *Registry) Len() int {
	return len(r.runners)
}

// Summaries returns the performance summary of every registered agent, keyed
// by agent name.
func (r *Registry) Summaries() map[string]PerformanceSummary {
	out := make(map[string]PerformanceSummary, len(r.runners))
	for name, runner := range r.runners {
		out[name] = runner.PerformanceSummary()
	}
	return out
}
