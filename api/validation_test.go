package api

import (
	"testing"

	"github.com/gcbaptista/colsearch/config"
	"github.com/gcbaptista/colsearch/model"
	"github.com/gcbaptista/colsearch/services"
)

func TestValidationResult_AddError(t *testing.T) {
	result := &ValidationResult{Valid: true}

	result.AddError("field1", "error message")

	if result.Valid {
		t.Error("Expected Valid to be false after adding error")
	}

	if len(result.Errors) != 1 {
		t.Errorf("Expected 1 error, got %d", len(result.Errors))
	}

	if result.Errors[0].Field != "field1" {
		t.Errorf("Expected field 'field1', got '%s'", result.Errors[0].Field)
	}

	if result.Errors[0].Message != "error message" {
		t.Errorf("Expected message 'error message', got '%s'", result.Errors[0].Message)
	}
}

func TestValidationResult_HasErrors(t *testing.T) {
	result := &ValidationResult{Valid: true}

	if result.HasErrors() {
		t.Error("Expected HasErrors to be false for empty result")
	}

	result.AddError("field", "message")

	if !result.HasErrors() {
		t.Error("Expected HasErrors to be true after adding error")
	}
}


func TestValidateName(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantValid bool
	}{
		{"plain name", "Articles", true},
		{"full index name", "Terms.content", true},
		{"empty name", "", false},
		{"leading whitespace", " Articles", false},
		{"trailing whitespace", "Articles ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateName("table", tt.input)
			if result.Valid != tt.wantValid {
				t.Errorf("ValidateName(%q) Valid = %v, want %v", tt.input, result.Valid, tt.wantValid)
			}
			if !tt.wantValid && result.Errors[0].Field != "table" {
				t.Errorf("Expected field 'table', got '%s'", result.Errors[0].Field)
			}
		})
	}
}

func TestValidateIndexSettings(t *testing.T) {
	tests := []struct {
		name       string
		settings   *config.IndexColumnSettings
		wantErrors bool
	}{
		{
			name:     "valid settings",
			settings: &config.IndexColumnSettings{Name: "content", Lexicon: "Terms", Range: "Articles", Sources: []string{"title", "content"}},
		},
		{
			name:       "nil settings",
			settings:   nil,
			wantErrors: true,
		},
		{
			name:       "missing range",
			settings:   &config.IndexColumnSettings{Name: "content", Lexicon: "Terms"},
			wantErrors: true,
		},
		{
			name:       "duplicate sources",
			settings:   &config.IndexColumnSettings{Name: "content", Lexicon: "Terms", Range: "Articles", Sources: []string{"title", "title"}},
			wantErrors: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateIndexSettings(tt.settings)
			if result.HasErrors() != tt.wantErrors {
				t.Errorf("ValidateIndexSettings() errors = %v, want errors %v", result.Errors, tt.wantErrors)
			}
		})
	}
}

func TestValidateRecords(t *testing.T) {
	tests := []struct {
		name       string
		records    []services.RecordInput
		wantErrors int
	}{
		{
			name:    "valid records",
			records: []services.RecordInput{{Key: "alice", Values: model.Values{"bio": "ruby"}}, {Values: model.Values{"bio": "go"}}},
		},
		{
			name:       "no records",
			records:    nil,
			wantErrors: 1,
		},
		{
			name:       "whitespace key",
			records:    []services.RecordInput{{Key: "  ", Values: model.Values{"bio": "ruby"}}},
			wantErrors: 1,
		},
		{
			name:       "empty record",
			records:    []services.RecordInput{{Values: model.Values{"bio": "ruby"}}, {}},
			wantErrors: 1,
		},
		{
			name:    "key without values",
			records: []services.RecordInput{{Key: "alice"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateRecords(tt.records)
			if len(result.Errors) != tt.wantErrors {
				t.Errorf("ValidateRecords() errors = %v, want %d", result.Errors, tt.wantErrors)
			}
		})
	}
}

func TestValidateQueryRequest(t *testing.T) {
	tests := []struct {
		name         string
		req          services.QueryRequest
		wantFields   []string
		wantPage     int
		wantPageSize int
	}{
		{
			name:         "valid request gets default pagination",
			req:          services.QueryRequest{Table: "Articles", Query: "groonga"},
			wantPage:     1,
			wantPageSize: 10,
		},
		{
			name:       "missing table and query",
			req:        services.QueryRequest{Query: "   "},
			wantFields: []string{"table", "query"},
		},
		{
			name:       "snippet without columns",
			req:        services.QueryRequest{Table: "Articles", Query: "groonga", Snippet: &services.SnippetRequest{Width: -1}},
			wantFields: []string{"snippet.columns", "snippet.width"},
		},
		{
			name:         "page size is capped",
			req:          services.QueryRequest{Table: "Articles", Query: "groonga", Page: 3, PageSize: 500},
			wantPage:     3,
			wantPageSize: 100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			result := ValidateQueryRequest(&req)

			if len(result.Errors) != len(tt.wantFields) {
				t.Fatalf("ValidateQueryRequest() errors = %v, want fields %v", result.Errors, tt.wantFields)
			}
			for i, field := range tt.wantFields {
				if result.Errors[i].Field != field {
					t.Errorf("Error %d field = %s, want %s", i, result.Errors[i].Field, field)
				}
			}
			if result.Valid != (len(tt.wantFields) == 0) {
				t.Errorf("ValidateQueryRequest() Valid = %v", result.Valid)
			}
			if tt.wantPage != 0 && (req.Page != tt.wantPage || req.PageSize != tt.wantPageSize) {
				t.Errorf("Pagination = (%d, %d), want (%d, %d)", req.Page, req.PageSize, tt.wantPage, tt.wantPageSize)
			}
		})
	}
}

func TestValidatePagination(t *testing.T) {
	tests := []struct {
		name         string
		page         int
		pageSize     int
		wantPage     int
		wantPageSize int
		wantValid    bool
	}{
		{
			name:         "valid pagination",
			page:         2,
			pageSize:     20,
			wantPage:     2,
			wantPageSize: 20,
			wantValid:    true,
		},
		{
			name:         "zero page defaults to 1",
			page:         0,
			pageSize:     20,
			wantPage:     1,
			wantPageSize: 20,
			wantValid:    true,
		},
		{
			name:         "zero page size defaults to 10",
			page:         1,
			pageSize:     0,
			wantPage:     1,
			wantPageSize: 10,
			wantValid:    true,
		},
		{
			name:         "negative page is rejected",
			page:         -1,
			pageSize:     20,
			wantPage:     1,
			wantPageSize: 20,
			wantValid:    false,
		},
		{
			name:         "negative page size is rejected",
			page:         1,
			pageSize:     -5,
			wantPage:     1,
			wantPageSize: 10,
			wantValid:    false,
		},
		{
			name:         "page size over 100 capped to 100",
			page:         1,
			pageSize:     150,
			wantPage:     1,
			wantPageSize: 100,
			wantValid:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotPage, gotPageSize, result := ValidatePagination(tt.page, tt.pageSize)

			if gotPage != tt.wantPage {
				t.Errorf("ValidatePagination() page = %v, want %v", gotPage, tt.wantPage)
			}

			if gotPageSize != tt.wantPageSize {
				t.Errorf("ValidatePagination() pageSize = %v, want %v", gotPageSize, tt.wantPageSize)
			}

			if result.Valid != tt.wantValid {
				t.Errorf("ValidatePagination() Valid = %v, want %v", result.Valid, tt.wantValid)
			}
		})
	}
}

