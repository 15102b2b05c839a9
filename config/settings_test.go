package config

import (
	"strings"
	"testing"
)

func TestTableSettingsValidate(t *testing.T) {
	tests := []struct {
		name           string
		settings       TableSettings
		expectedErrors int
		description    string
	}{
		{
			name:           "array table without kind",
			settings:       TableSettings{Name: "Articles"},
			expectedErrors: 0,
			description:    "An empty kind means array",
		},
		{
			name:           "patricia trie lexicon",
			settings:       TableSettings{Name: "Terms", Kind: "patricia_trie", DefaultTokenizer: "TokenBigram"},
			expectedErrors: 0,
			description:    "Kinds are matched without underscores",
		},
		{
			name:           "unknown kind",
			settings:       TableSettings{Name: "Terms", Kind: "btree"},
			expectedErrors: 1,
			description:    "Unknown kinds are rejected",
		},
		{
			name:           "empty name and bad kind",
			settings:       TableSettings{Name: " ", Kind: "btree"},
			expectedErrors: 2,
			description:    "Every problem is reported",
		},
		{
			name:           "dotted name",
			settings:       TableSettings{Name: "Terms.content"},
			expectedErrors: 1,
			description:    "Dots separate table and column names",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errors := tt.settings.Validate()
			if len(errors) != tt.expectedErrors {
				t.Errorf("%s: expected %d errors, got %d: %v", tt.description, tt.expectedErrors, len(errors), errors)
			}
		})
	}
}

func TestColumnSettingsValidate(t *testing.T) {
	tests := []struct {
		name           string
		settings       ColumnSettings
		expectedErrors int
	}{
		{"short text", ColumnSettings{Name: "title", Type: "ShortText"}, 0},
		{"int vector", ColumnSettings{Name: "scores", Type: "Int32", Vector: true}, 0},
		{"reserved name", ColumnSettings{Name: "_key", Type: "ShortText"}, 1},
		{"unknown type", ColumnSettings{Name: "title", Type: "Blob"}, 1},
		{"empty", ColumnSettings{}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errors := tt.settings.Validate()
			if len(errors) != tt.expectedErrors {
				t.Errorf("Expected %d errors, got %d: %v", tt.expectedErrors, len(errors), errors)
			}
		})
	}
}

func TestIndexColumnSettingsValidate(t *testing.T) {
	valid := IndexColumnSettings{
		Name:         "content",
		Lexicon:      "Terms",
		Range:        "Articles",
		Sources:      []string{"title", "content"},
		WithPosition: true,
	}
	if errors := valid.Validate(); len(errors) != 0 {
		t.Errorf("Expected no errors, got %v", errors)
	}
	if valid.FullName() != "Terms.content" {
		t.Errorf("Expected full name 'Terms.content', got %s", valid.FullName())
	}

	duplicate := valid
	duplicate.Sources = []string{"title", "title", ""}
	errors := duplicate.Validate()
	if len(errors) != 2 {
		t.Fatalf("Expected 2 errors, got %d: %v", len(errors), errors)
	}
	if !strings.Contains(errors[0], "Duplicate field 'title'") {
		t.Errorf("Unexpected first error: %s", errors[0])
	}

	missing := IndexColumnSettings{Name: "content"}
	if errors := missing.Validate(); len(errors) != 2 {
		t.Errorf("Expected lexicon and range errors, got %v", errors)
	}
}
