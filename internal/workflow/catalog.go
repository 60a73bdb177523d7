// Package workflow implements the catalog of named workflows and the
// coordinator that runs them step by step through registered agents.
package workflow

import "slices"

// Definition is one named workflow: an ordered list of agent steps plus the
// subset whose failure aborts the remainder of the run.
type Definition struct {
	Name     string   `json:"name"`
	Steps    []string `json:"steps"`
	Critical []string `json:"critical,omitempty"`
}

func (d Definition) IsCritical(step string) bool {
	return slices.Contains(d.Critical, step)
}

// Catalog maps workflow names to their definitions. Like the agent registry
// it is built at startup and read-only afterwards.
type Catalog map[string]Definition

func (c Catalog) Add(d Definition) {
	c[d.Name] = d
}

func (c Catalog) Get(name string) (Definition, bool) {
	d, ok := c[name]
	return d, ok
}

// Names returns the catalog's workflow names in sorted order.
func (c Catalog) Names() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Definitions returns every definition, ordered by workflow name.
func (c Catalog) Definitions() []Definition {
	defs := make([]Definition, 0, len(c))
	for _, name := range c.Names() {
		defs = append(defs, c[name])
	}
	return defs
}

// DefaultCatalog returns the built-in workflows. Analysis and design gate
// everything behind them, so they are critical wherever they appear.
func DefaultCatalog() Catalog {
	critical := []string{"analyze", "design"}

	c := Catalog{}
	for _, d := range []Definition{
		{Name: "minimal", Steps: []string{"analyze", "build"}},
		{Name: "webapp", Steps: []string{"analyze", "design", "build", "test", "document"}},
		{Name: "full", Steps: []string{"analyze", "design", "build", "review", "test", "document"}},
		{Name: "bugfix", Steps: []string{"analyze", "build", "test", "review"}},
		{Name: "refactor", Steps: []string{"analyze", "design", "build", "review", "test"}},
		{Name: "docs", Steps: []string{"analyze", "document"}},
	} {
		for _, step := range d.Steps {
			if slices.Contains(critical, step) {
				d.Critical = append(d.Critical, step)
			}
		}
		c.Add(d)
	}
	return c
}
