package workflow

import "strings"

// Suggest picks a built-in workflow for a free-text description using keyword
// heuristics. It always returns a valid name from the default catalog.
func Suggest(description string) string {
	d := strings.ToLower(description)

	switch {
	case containsAny(d, "bug", "fix", "crash", "broken"):
		return "bugfix"
	case containsAny(d, "web", "app", "site"):
		return "webapp"
	case containsAny(d, "doc", "readme", "guide"):
		return "docs"
	case containsAny(d, "refactor", "optimi", "cleanup"):
		return "refactor"
	case containsAny(d, "full", "complete", "project"):
		return "full"
	default:
		return "minimal"
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
