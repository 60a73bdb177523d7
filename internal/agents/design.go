package agents

import (
	"context"

	"github.com/jeanbgt59/ecoagent/internal/cost"
	"github.com/jeanbgt59/ecoagent/internal/task"
)

// Designer turns the analysis into a technical architecture: project
// structure, technology stack, data model and API surface.
type Designer struct {
	modelChoice
}

func NewDesigner() *Designer {
	return &Designer{modelChoice{provider: cost.ProviderOllama, model: "mistral:7b"}}
}

func (d *Designer) Name() string { return "design" }

func (d *Designer) Description() string {
	return "Designs the technical architecture, file layout and technology choices"
}

func (d *Designer) CanHandle(t *task.Task) bool {
	return t.Type == "design"
}

func (d *Designer) EstimateCost(t *task.Task) float64 {
	return d.estimate(complexityOf(t))
}

func (d *Designer) Execute(ctx context.Context, t *task.Task) (map[string]any, error) {
	projectType := projectTypeOf(t)
	complexity := complexityOf(t)

	analysis := stepOutput(t, "analyze")
	requirements, _ := analysis["requirements"].(map[string]any)

	return map[string]any{
		"project_structure":       designStructure(projectType, complexity),
		"technology_stack":        selectStack(projectType, requirements),
		"database_design":         designDatabase(projectType, requirements),
		"api_design":              designAPI(projectType),
		"deployment_strategy":     designDeployment(complexity),
		"security_considerations": designSecurity(projectType),
		"file_structure":          fileStructure(projectType),
		"dependencies":            listDependencies(projectType),
		"cost":                    d.charge(complexity),
	}, nil
}

func designStructure(projectType, complexity string) map[string]any {
	structure := map[string]any{
		"pattern":    "layered_architecture",
		"layers":     []string{"presentation", "business", "data"},
		"principles": []string{"separation_of_concerns", "single_responsibility"},
	}

	switch projectType {
	case "web_application":
		structure["pattern"] = "mvc"
		structure["layers"] = []string{"presentation", "controller", "service", "repository", "model"}
	case "api":
		structure["pattern"] = "layered_api"
		structure["layers"] = []string{"router", "service", "repository", "model"}
	case "script":
		structure["pattern"] = "functional"
		structure["layers"] = []string{"main", "utils", "config"}
	}

	if complexity == "complex" {
		layers := structure["layers"].([]string)
		structure["layers"] = append(layers, "middleware", "cache", "monitoring")
	}

	return structure
}

func selectStack(projectType string, requirements map[string]any) map[string]string {
	stack := suggestTechStack(projectType)

	technical, _ := requirements["technical"].([]string)
	for _, tech := range technical {
		switch tech {
		case "django":
			stack["backend"] = "Django"
		case "vue":
			stack["frontend"] = "Vue.js"
		case "mysql":
			stack["database"] = "MySQL"
		case "mongodb":
			stack["database"] = "MongoDB"
		}
	}

	return stack
}

func designDatabase(projectType string, requirements map[string]any) map[string]any {
	technical, _ := requirements["technical"].([]string)

	needsDB := projectType == "web_application" || projectType == "api"
	for _, tech := range technical {
		if tech == "postgresql" || tech == "mysql" || tech == "mongodb" {
			needsDB = true
		}
	}

	if !needsDB || projectType == "script" {
		return map[string]any{"type": "none", "reason": "no persistent data for this project type"}
	}

	return map[string]any{
		"type":       "relational",
		"engine":     "PostgreSQL",
		"entities":   []string{"users", "items"},
		"migrations": "versioned SQL files",
	}
}

func designAPI(projectType string) map[string]any {
	if projectType != "web_application" && projectType != "api" {
		return map[string]any{"style": "none"}
	}

	return map[string]any{
		"style": "REST",
		"endpoints": []string{
			"GET /api/items",
			"POST /api/items",
			"GET /api/items/{id}",
			"GET /health",
		},
		"documentation": "OpenAPI",
	}
}

func designDeployment(complexity string) map[string]string {
	if complexity == "complex" {
		return map[string]string{
			"strategy":   "containers behind a load balancer",
			"ci":         "build, test and deploy pipeline",
			"monitoring": "metrics and alerting from day one",
		}
	}
	return map[string]string{
		"strategy": "single container",
		"ci":       "build and test pipeline",
	}
}

func designSecurity(projectType string) []string {
	security := []string{"validate all input", "keep secrets out of the repository"}
	if projectType == "web_application" || projectType == "api" {
		security = append(security, "authenticate every mutating endpoint", "rate-limit public routes")
	}
	return security
}

func fileStructure(projectType string) []string {
	switch projectType {
	case "web_application", "api":
		return []string{"main.py", "routers/", "services/", "models/", "tests/", "requirements.txt"}
	case "script":
		return []string{"main.py", "utils.py", "config.py", "tests/"}
	default:
		return []string{"main.py", "lib/", "tests/", "requirements.txt"}
	}
}

func listDependencies(projectType string) []string {
	switch projectType {
	case "web_application", "api":
		return []string{"fastapi", "uvicorn", "pydantic", "sqlalchemy", "pytest"}
	case "script":
		return []string{"pytest"}
	default:
		return []string{"pydantic", "pytest"}
	}
}
