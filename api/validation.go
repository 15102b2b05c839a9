// Package api provides validation utilities for API request handling.
package api

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gcbaptista/colsearch/config"
	"github.com/gcbaptista/colsearch/services"
)

// maxPageSize caps page_size on search and query requests.
const maxPageSize = 100

// ValidationError represents a validation error with field context
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationResult holds the result of validation operations
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// AddError adds a validation error to the result
func (vr *ValidationResult) AddError(field, message string) {
	vr.Valid = false
	vr.Errors = append(vr.Errors, ValidationError{
		Field:   field,
		Message: message,
	})
}

// HasErrors returns true if there are validation errors
func (vr *ValidationResult) HasErrors() bool {
	return len(vr.Errors) > 0
}

// ValidateName validates a table or index name path parameter
func ValidateName(field, name string) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if name == "" {
		result.AddError(field, "Name is required")
		return result
	}

	if strings.TrimSpace(name) != name {
		result.AddError(field, "Name cannot have leading or trailing whitespace")
		return result
	}

	return result
}

// ValidateSettings collects the problems reported by a settings Validate
// method under one field.
func ValidateSettings(field string, problems []string) *ValidationResult {
	result := &ValidationResult{Valid: true}
	for _, problem := range problems {
		result.AddError(field, problem)
	}
	return result
}

// ValidateIndexSettings validates index column settings for creation
func ValidateIndexSettings(settings *config.IndexColumnSettings) *ValidationResult {
	if settings == nil {
		result := &ValidationResult{Valid: true}
		result.AddError("settings", "Index settings are required")
		return result
	}
	return ValidateSettings("settings", settings.Validate())
}

// ValidateRecords validates records for writing. Values are checked against
// column types by the table itself.
func ValidateRecords(records []services.RecordInput) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if len(records) == 0 {
		result.AddError("records", "No records provided")
		return result
	}

	for i, record := range records {
		if record.Key != "" && strings.TrimSpace(record.Key) == "" {
			result.AddError(fmt.Sprintf("records[%d].key", i), "Record key cannot be whitespace-only")
		}
		if len(record.Values) == 0 && record.Key == "" {
			result.AddError(fmt.Sprintf("records[%d]", i), "Record must have a key or at least one value")
		}
	}

	return result
}

// ValidateQueryRequest validates a query request before parsing
func ValidateQueryRequest(req *services.QueryRequest) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if req.Table == "" {
		result.AddError("table", "Table is required")
	}
	if strings.TrimSpace(req.Query) == "" {
		result.AddError("query", "Query is required")
	}
	if req.Snippet != nil {
		if len(req.Snippet.Columns) == 0 {
			result.AddError("snippet.columns", "At least one column is required for snippets")
		}
		if req.Snippet.Width < 0 {
			result.AddError("snippet.width", "Width cannot be negative")
		}
	}

	var pageResult *ValidationResult
	req.Page, req.PageSize, pageResult = ValidatePagination(req.Page, req.PageSize)
	result.Errors = append(result.Errors, pageResult.Errors...)
	if len(result.Errors) > 0 {
		result.Valid = false
	}
	return result
}

// ValidatePagination validates pagination parameters. Zero values take the
// defaults, negative values are rejected and page_size is capped.
func ValidatePagination(page, pageSize int) (int, int, *ValidationResult) {
	result := &ValidationResult{Valid: true}

	if page < 0 {
		result.AddError("page", "Page cannot be negative")
	}
	if pageSize < 0 {
		result.AddError("page_size", "Page size cannot be negative")
	}

	// Set defaults
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 10
	}

	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	return page, pageSize, result
}

// SendValidationError sends a standardized validation error response
func SendValidationError(c *gin.Context, result *ValidationResult) {
	SendStructuredValidationError(c, result)
}

// ValidateJSONBinding validates JSON binding and returns a standardized error
func ValidateJSONBinding(c *gin.Context, target interface{}) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if err := c.ShouldBindJSON(target); err != nil {
		result.AddError("request_body", "Invalid request body: "+err.Error())
	}

	return result
}
