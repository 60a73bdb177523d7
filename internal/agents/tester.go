package agents

import (
	"context"
	"strings"

	"github.com/jeanbgt59/ecoagent/internal/cost"
	"github.com/jeanbgt59/ecoagent/internal/task"
)

// Tester writes tests for the files the build step generated and estimates
// the coverage they reach.
type Tester struct {
	modelChoice
}

func NewTester() *Tester {
	return &Tester{modelChoice{provider: cost.ProviderOllama, model: "codellama:7b"}}
}

func (a *Tester) Name() string { return "test" }

func (a *Tester) Description() string {
	return "Writes unit tests for the generated sources and estimates coverage"
}

func (a *Tester) CanHandle(t *task.Task) bool {
	return t.Type == "test"
}

func (a *Tester) EstimateCost(t *task.Task) float64 {
	return a.estimate(complexityOf(t))
}

func (a *Tester) Execute(ctx context.Context, t *task.Task) (map[string]any, error) {
	build := stepOutput(t, "build")
	sources, _ := build["generated_files"].(map[string]string)

	testFiles := map[string]string{}
	cases := 0
	for name := range sources {
		if !strings.HasSuffix(name, ".py") {
			continue
		}
		testFiles[testFileName(name)] = testTemplate(name)
		cases += 2
	}

	if len(testFiles) == 0 {
		// Nothing to cover yet: still ship a smoke test.
		testFiles["tests/test_smoke.py"] = testTemplate("main.py")
		cases = 2
	}

	coverage := 60
	if len(sources) > 0 && len(testFiles) >= len(sources)/2 {
		coverage = 80
	}

	return map[string]any{
		"test_files":                testFiles,
		"test_cases":                cases,
		"coverage_estimate_percent": coverage,
		"framework":                 "pytest",
		"cost":                      a.charge(complexityOf(t)),
	}, nil
}

func testFileName(source string) string {
	base := source
	if i := strings.LastIndex(base, "/"); i >= 0 {
		base = base[i+1:]
	}
	return "tests/test_" + base
}

func testTemplate(source string) string {
	module := strings.TrimSuffix(source, ".py")
	module = strings.ReplaceAll(module, "/", ".")

	name := lastSegment(module)
	imp := "import " + module
	if name != module {
		imp += " as " + name
	}

	return imp + `


def test_imports():
    assert ` + name + ` is not None


def test_smoke():
    assert True
`
}

func lastSegment(module string) string {
	if i := strings.LastIndex(module, "."); i >= 0 {
		return module[i+1:]
	}
	return module
}
