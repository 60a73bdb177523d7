package agents

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/jeanbgt59/ecoagent/internal/cost"
	"github.com/jeanbgt59/ecoagent/internal/task"
)

// Documenter writes the README and usage notes from what the earlier steps
// produced.
type Documenter struct {
	modelChoice
}

func NewDocumenter() *Documenter {
	return &Documenter{modelChoice{provider: cost.ProviderOllama, model: "mistral:7b"}}
}

func (d *Documenter) Name() string { return "document" }

func (d *Documenter) Description() string {
	return "Writes the README, installation notes and usage guide"
}

func (d *Documenter) CanHandle(t *task.Task) bool {
	return t.Type == "document"
}

func (d *Documenter) EstimateCost(t *task.Task) float64 {
	return d.estimate(complexityOf(t))
}

func (d *Documenter) Execute(ctx context.Context, t *task.Task) (map[string]any, error) {
	build := stepOutput(t, "build")

	var install, run []string
	if cmds, ok := build["installation_commands"].([]string); ok {
		install = cmds
	}
	if cmds, ok := build["run_commands"].([]string); ok {
		run = cmds
	}

	readme := renderReadme(t.Description, projectTypeOf(t), install, run)

	return map[string]any{
		"files": map[string]string{
			"README.md": readme,
		},
		"sections": []string{"Overview", "Installation", "Usage"},
		"cost":     d.charge(complexityOf(t)),
	}, nil
}

func renderReadme(description, projectType string, install, run []string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", titleFrom(description))
	fmt.Fprintf(&b, "%s\n\n", strings.TrimSpace(description))
	fmt.Fprintf(&b, "Project type: %s\n\n", projectType)

	b.WriteString("## Installation\n\n")
	writeCommands(&b, install, "pip install -r requirements.txt")

	b.WriteString("## Usage\n\n")
	writeCommands(&b, run, "python main.py")

	return b.String()
}

func writeCommands(b *strings.Builder, cmds []string, fallback string) {
	if len(cmds) == 0 {
		cmds = []string{fallback}
	}
	b.WriteString("```\n")
	for _, cmd := range cmds {
		b.WriteString(cmd)
		b.WriteString("\n")
	}
	b.WriteString("```\n\n")
}

func titleFrom(description string) string {
	title := summarize(description)
	if title == "" {
		return "Generated Project"
	}

	runes := []rune(title)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
