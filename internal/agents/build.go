package agents

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jeanbgt59/ecoagent/internal/cost"
	"github.com/jeanbgt59/ecoagent/internal/task"
)

// Builder generates the project sources from the architecture the design
// step produced.
type Builder struct {
	modelChoice
}

func NewBuilder() *Builder {
	return &Builder{modelChoice{provider: cost.ProviderOllama, model: "codellama:7b"}}
}

func (b *Builder) Name() string { return "build" }

func (b *Builder) Description() string {
	return "Generates the project source files, configuration and entry point"
}

func (b *Builder) CanHandle(t *task.Task) bool {
	return t.Type == "build"
}

func (b *Builder) EstimateCost(t *task.Task) float64 {
	return b.estimate(complexityOf(t))
}

func (b *Builder) Execute(ctx context.Context, t *task.Task) (map[string]any, error) {
	projectType := projectTypeOf(t)
	complexity := complexityOf(t)

	design := stepOutput(t, "design")
	stack, _ := design["technology_stack"].(map[string]string)

	files := map[string]string{}
	switch projectType {
	case "web_application", "api":
		files["main.py"] = apiMain(t.Description)
		files["routers/items.py"] = itemsRouter()
		files["requirements.txt"] = "fastapi\nuvicorn\npydantic\n"
	case "script":
		files["main.py"] = scriptMain(t.Description)
	default:
		files["main.py"] = scriptMain(t.Description)
		files["requirements.txt"] = "pydantic\n"
	}
	files[".gitignore"] = "__pycache__/\n*.pyc\n.env\n"

	return map[string]any{
		"generated_files":       files,
		"file_count":            len(files),
		"main_technologies":     mainTechnologies(stack),
		"entry_point":           "main.py",
		"installation_commands": []string{"pip install -r requirements.txt"},
		"run_commands":          runCommands(projectType),
		"cost":                  b.charge(complexity),
	}, nil
}

func apiMain(description string) string {
	return fmt.Sprintf(`"""%s"""
from fastapi import FastAPI
from routers import items

app = FastAPI()
app.include_router(items.router)


@app.get("/health")
def health():
    return {"status": "ok"}
`, summarize(description))
}

func itemsRouter() string {
	return `from fastapi import APIRouter

router = APIRouter(prefix="/api/items")


@router.get("/")
def list_items():
    return []
`
}

func scriptMain(description string) string {
	return fmt.Sprintf(`"""%s"""


def main():
    pass


if __name__ == "__main__":
    main()
`, summarize(description))
}

// summarize keeps the first sentence of the description, capped at 80 runes.
func summarize(description string) string {
	if i := strings.IndexAny(description, ".!?"); i > 0 {
		description = description[:i]
	}
	runes := []rune(description)
	if len(runes) > 80 {
		description = string(runes[:80])
	}
	return strings.TrimSpace(description)
}

func mainTechnologies(stack map[string]string) []string {
	keys := make([]string, 0, len(stack))
	for k := range stack {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	techs := make([]string, 0, 3)
	for _, k := range keys {
		techs = append(techs, stack[k])
		if len(techs) == 3 {
			break
		}
	}
	return techs
}

func runCommands(projectType string) []string {
	if projectType == "web_application" || projectType == "api" {
		return []string{"uvicorn main:app --reload"}
	}
	return []string{"python main.py"}
}
