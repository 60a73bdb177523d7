package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSuggest(t *testing.T) {
	tests := []struct {
		name        string
		description string
		expected    string
	}{
		{
			name:        "bug keywords win",
			description: "Fix the login crash on startup",
			expected:    "bugfix",
		},
		{
			name:        "web application",
			description: "Create a web dashboard for sales",
			expected:    "webapp",
		},
		{
			name:        "documentation request",
			description: "Write a README for the tool",
			expected:    "docs",
		},
		{
			name:        "refactoring request",
			description: "Refactor the parser module",
			expected:    "refactor",
		},
		{
			name:        "complete project",
			description: "Complete inventory management system",
			expected:    "full",
		},
		{
			name:        "fallback",
			description: "A tiny helper",
			expected:    "minimal",
		},
		{
			name:        "empty description",
			description: "",
			expected:    "minimal",
		},
		{
			name:        "case insensitive",
			description: "BROKEN build pipeline",
			expected:    "bugfix",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Suggest(tt.description))
		})
	}
}

func TestSuggest_AlwaysReturnsCatalogName(t *testing.T) {
	catalog := DefaultCatalog()

	for _, desc := range []string{
		"fix it", "web shop", "readme", "optimize loops", "full project", "anything else",
	} {
		_, ok := catalog.Get(Suggest(desc))
		assert.True(t, ok, "suggestion for %q must exist in the catalog", desc)
	}
}
