package agents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeanbgt59/ecoagent/internal/cost"
	"github.com/jeanbgt59/ecoagent/internal/task"
)

func stepTask(step, description string, outputs map[string]any) *task.Task {
	base := task.NewTask("webapp", description, nil)
	return base.ForStep(step, outputs)
}

func analysisFor(complexity, projectType string) map[string]any {
	return map[string]any{
		"analyze": map[string]any{
			"complexity":   complexity,
			"project_type": projectType,
			"requirements": map[string]any{"technical": []string{}},
		},
	}
}

func TestDefaults_CoversEveryStep(t *testing.T) {
	roster := Defaults()
	require.Len(t, roster, 6)

	var names []string
	for _, a := range roster {
		names = append(names, a.Name())
		assert.NotEmpty(t, a.Description())
	}
	assert.Equal(t, []string{"analyze", "design", "build", "test", "document", "review"}, names)
}

func TestAnalyzer_ComplexWebApp(t *testing.T) {
	a := NewAnalyzer()
	tsk := stepTask("analyze", "Build a web app with database, authentication and payment processing", nil)

	require.True(t, a.CanHandle(tsk))
	assert.Zero(t, a.EstimateCost(tsk))

	out, err := a.Execute(context.Background(), tsk)
	require.NoError(t, err)

	assert.Equal(t, "complex", out["complexity"])
	assert.Equal(t, "web_application", out["project_type"])
	assert.Equal(t, "full", out["recommended_workflow"])

	plan := out["action_plan"].([]map[string]string)
	var steps []string
	for _, p := range plan {
		steps = append(steps, p["step"])
	}
	assert.Contains(t, steps, "prototype")
	assert.Contains(t, steps, "deploy")
	assert.Contains(t, steps, "frontend")
}

func TestAnalyzer_SimpleScript(t *testing.T) {
	a := NewAnalyzer()
	tsk := stepTask("analyze", "A simple script that converts csv to json", nil)

	out, err := a.Execute(context.Background(), tsk)
	require.NoError(t, err)

	assert.Equal(t, "simple", out["complexity"])
	assert.Equal(t, "script", out["project_type"])
	assert.Equal(t, "minimal", out["recommended_workflow"])

	estimate := out["resource_estimate"].(map[string]any)
	assert.Equal(t, 1, estimate["time_hours"])
	assert.Equal(t, 0.0, estimate["cost_euros"])
}

func TestAnalyzer_ExtractsRequirements(t *testing.T) {
	a := NewAnalyzer()
	tsk := stepTask("analyze", "The api must accept uploads. Users can manage postgresql records. It should be fast.", nil)

	out, err := a.Execute(context.Background(), tsk)
	require.NoError(t, err)

	reqs := out["requirements"].(map[string]any)
	assert.NotEmpty(t, reqs["functional"])
	assert.Contains(t, reqs["technical"], "postgresql")
	assert.Contains(t, reqs["performance"], "fast")
}

func TestAnalyzer_CanHandle(t *testing.T) {
	a := NewAnalyzer()

	assert.True(t, a.CanHandle(&task.Task{Type: "analyze"}))
	assert.True(t, a.CanHandle(&task.Task{Type: "build", Description: "anything"}))
	assert.False(t, a.CanHandle(&task.Task{Type: "build"}))
}

func TestDesigner_UsesAnalysis(t *testing.T) {
	d := NewDesigner()
	outputs := map[string]any{
		"analyze": map[string]any{
			"complexity":   "complex",
			"project_type": "api",
			"requirements": map[string]any{"technical": []string{"mongodb"}},
		},
	}
	tsk := stepTask("design", "an api", outputs)

	require.True(t, d.CanHandle(tsk))

	out, err := d.Execute(context.Background(), tsk)
	require.NoError(t, err)

	stack := out["technology_stack"].(map[string]string)
	assert.Equal(t, "MongoDB", stack["database"])

	structure := out["project_structure"].(map[string]any)
	assert.Contains(t, structure["layers"].([]string), "monitoring")

	api := out["api_design"].(map[string]any)
	assert.Equal(t, "REST", api["style"])

	assert.Equal(t, 0.0, out["cost"])
}

func TestDesigner_ScriptSkipsDatabase(t *testing.T) {
	d := NewDesigner()
	tsk := stepTask("design", "a script", analysisFor("simple", "script"))

	out, err := d.Execute(context.Background(), tsk)
	require.NoError(t, err)

	db := out["database_design"].(map[string]any)
	assert.Equal(t, "none", db["type"])
}

func TestDesigner_PaidModelEstimate(t *testing.T) {
	d := NewDesigner()
	d.SetModel(cost.ProviderOpenAI, "gpt-4o-mini")

	tsk := stepTask("design", "x", analysisFor("simple", "api"))

	// 500 input and 1000 output tokens at gpt-4o-mini prices.
	assert.InDelta(t, 0.0007, d.EstimateCost(tsk), 1e-9)
}

func TestSetTracker_RecordsExecutedSteps(t *testing.T) {
	tr := cost.NewTracker()
	roster := Defaults()
	SetTracker(roster, tr)

	d := roster[1].(*Designer)
	d.SetModel(cost.ProviderOpenAI, "gpt-4o-mini")

	tsk := stepTask("design", "x", analysisFor("simple", "api"))

	// Estimating has no side effects; executing records usage.
	d.EstimateCost(tsk)
	assert.Empty(t, tr.Records())

	_, err := d.Execute(context.Background(), tsk)
	require.NoError(t, err)

	records := tr.Records()
	require.Len(t, records, 1)
	assert.Equal(t, cost.ProviderOpenAI, records[0].Provider)
	assert.Equal(t, "gpt-4o-mini", records[0].Model)
	assert.Equal(t, 500, records[0].InputTokens)
	assert.Equal(t, 1000, records[0].OutputTokens)
	assert.InDelta(t, 0.0007, records[0].ActualCost, 1e-9)
}

func TestSetTracker_LocalUsageIsFree(t *testing.T) {
	tr := cost.NewTracker()
	b := NewBuilder()
	b.SetTracker(tr)

	tsk := stepTask("build", "a cleanup script", analysisFor("simple", "script"))
	_, err := b.Execute(context.Background(), tsk)
	require.NoError(t, err)

	records := tr.Records()
	require.Len(t, records, 1)
	assert.Equal(t, cost.ProviderOllama, records[0].Provider)
	assert.Equal(t, 0.0, records[0].ActualCost)
}

func TestBuilder_GeneratesAPIProject(t *testing.T) {
	b := NewBuilder()
	outputs := analysisFor("simple", "api")
	outputs["design"] = map[string]any{
		"technology_stack": map[string]string{"framework": "FastAPI", "database": "PostgreSQL"},
	}
	tsk := stepTask("build", "An api for tracking plants. It waters them too.", outputs)

	require.True(t, b.CanHandle(tsk))

	out, err := b.Execute(context.Background(), tsk)
	require.NoError(t, err)

	files := out["generated_files"].(map[string]string)
	assert.Contains(t, files, "main.py")
	assert.Contains(t, files, "routers/items.py")
	assert.Contains(t, files, "requirements.txt")
	assert.Contains(t, files, ".gitignore")
	assert.Equal(t, 4, out["file_count"])

	assert.Contains(t, files["main.py"], "An api for tracking plants")
	assert.Equal(t, "main.py", out["entry_point"])
	assert.Equal(t, []string{"uvicorn main:app --reload"}, out["run_commands"])
	assert.Equal(t, []string{"PostgreSQL", "FastAPI"}, out["main_technologies"])
}

func TestBuilder_ScriptProject(t *testing.T) {
	b := NewBuilder()
	tsk := stepTask("build", "a cleanup script", analysisFor("simple", "script"))

	out, err := b.Execute(context.Background(), tsk)
	require.NoError(t, err)

	files := out["generated_files"].(map[string]string)
	assert.Contains(t, files, "main.py")
	assert.NotContains(t, files, "requirements.txt")
	assert.Equal(t, []string{"python main.py"}, out["run_commands"])
}

func TestTester_CoversGeneratedSources(t *testing.T) {
	a := NewTester()
	outputs := analysisFor("simple", "api")
	outputs["build"] = map[string]any{
		"generated_files": map[string]string{
			"main.py":          "code",
			"routers/items.py": "code",
			"requirements.txt": "fastapi",
		},
	}
	tsk := stepTask("test", "x", outputs)

	out, err := a.Execute(context.Background(), tsk)
	require.NoError(t, err)

	files := out["test_files"].(map[string]string)
	assert.Contains(t, files, "tests/test_main.py")
	assert.Contains(t, files, "tests/test_items.py")
	assert.NotContains(t, files, "tests/test_requirements.txt")

	assert.Equal(t, 4, out["test_cases"])
	assert.Equal(t, 80, out["coverage_estimate_percent"])
	assert.Contains(t, files["tests/test_items.py"], "import routers.items as items")
}

func TestTester_NoSourcesStillSmokes(t *testing.T) {
	a := NewTester()
	tsk := stepTask("test", "x", nil)

	out, err := a.Execute(context.Background(), tsk)
	require.NoError(t, err)

	files := out["test_files"].(map[string]string)
	assert.Contains(t, files, "tests/test_smoke.py")
	assert.Equal(t, 2, out["test_cases"])
	assert.Equal(t, 60, out["coverage_estimate_percent"])
}

func TestDocumenter_RendersReadme(t *testing.T) {
	d := NewDocumenter()
	outputs := analysisFor("simple", "api")
	outputs["build"] = map[string]any{
		"installation_commands": []string{"pip install -r requirements.txt"},
		"run_commands":          []string{"uvicorn main:app --reload"},
	}
	tsk := stepTask("document", "an api for plants. it grows.", outputs)

	out, err := d.Execute(context.Background(), tsk)
	require.NoError(t, err)

	files := out["files"].(map[string]string)
	readme := files["README.md"]
	assert.Contains(t, readme, "# An api for plants")
	assert.Contains(t, readme, "## Installation")
	assert.Contains(t, readme, "uvicorn main:app --reload")
	assert.Equal(t, []string{"Overview", "Installation", "Usage"}, out["sections"])
}

func TestReviewer_ApprovesCompleteProject(t *testing.T) {
	r := NewReviewer()
	outputs := analysisFor("medium", "api")
	outputs["build"] = map[string]any{
		"generated_files": map[string]string{
			"main.py":          "code",
			"requirements.txt": "fastapi",
			".gitignore":       "*.pyc",
		},
	}
	outputs["test"] = map[string]any{"coverage_estimate_percent": 80}
	outputs["document"] = map[string]any{"files": map[string]string{"README.md": "docs"}}
	tsk := stepTask("review", "x", outputs)

	out, err := r.Execute(context.Background(), tsk)
	require.NoError(t, err)

	assert.Equal(t, 100, out["score"])
	assert.Equal(t, true, out["approved"])
	assert.Empty(t, out["issues"])
	assert.Equal(t, "ready to ship", out["summary"])
}

func TestReviewer_FlagsGaps(t *testing.T) {
	r := NewReviewer()
	outputs := analysisFor("simple", "script")
	outputs["build"] = map[string]any{
		"generated_files": map[string]string{"main.py": "code", ".gitignore": "*.pyc"},
	}
	tsk := stepTask("review", "x", outputs)

	out, err := r.Execute(context.Background(), tsk)
	require.NoError(t, err)

	// Unpinned dependencies and missing tests cost 10 and 20 points.
	assert.Equal(t, 70, out["score"])
	assert.Equal(t, true, out["approved"])
	assert.Contains(t, out["issues"], "no tests were written")
}

func TestReviewer_NothingToReview(t *testing.T) {
	r := NewReviewer()
	tsk := stepTask("review", "x", analysisFor("simple", "script"))

	out, err := r.Execute(context.Background(), tsk)
	require.NoError(t, err)

	assert.Equal(t, 40, out["score"])
	assert.Equal(t, false, out["approved"])
	assert.Equal(t, "needs rework before shipping", out["summary"])
}
