package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestTableNotFoundError(t *testing.T) {
	err := NewTableNotFoundError("Users")

	// Test error message
	expectedMsg := "table named 'Users' not found"
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message '%s', got '%s'", expectedMsg, err.Error())
	}

	// Test Is() method
	if !errors.Is(err, ErrTableNotFound) {
		t.Error("Expected error to match ErrTableNotFound sentinel")
	}

	// Test that it doesn't match other sentinels
	if errors.Is(err, ErrRecordNotFound) {
		t.Error("Error should not match ErrRecordNotFound")
	}
}

func TestRecordNotFoundError(t *testing.T) {
	err := NewRecordNotFoundError("Articles", 7)
	expectedMsg := "record with ID 7 not found in table 'Articles'"
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message '%s', got '%s'", expectedMsg, err.Error())
	}

	err2 := NewRecordKeyNotFoundError("Users", "morita")
	expectedMsg2 := "record with key 'morita' not found in table 'Users'"
	if err2.Error() != expectedMsg2 {
		t.Errorf("Expected error message '%s', got '%s'", expectedMsg2, err2.Error())
	}

	if !errors.Is(err2, ErrRecordNotFound) {
		t.Error("Expected error to match ErrRecordNotFound sentinel")
	}
}

func TestExpressionErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
		message  string
	}{
		{"unknown operator", NewUnknownOperatorError("frobnicate"), ErrUnknownOperator, `unknown operator: "frobnicate"`},
		{"unknown mode", NewUnknownModeError(999), ErrUnknownMode, "unknown mode: 999"},
		{"duplicate name", NewDuplicateNameError("user"), ErrDuplicateName, "variable named 'user' is already defined"},
		{"invalid owner", NewInvalidOwnerError("x"), ErrInvalidOwner, "variable 'x' belongs to another expression"},
		{"invalid owner anonymous", NewInvalidOwnerError(""), ErrInvalidOwner, "anonymous variable belongs to another expression"},
		{"malformed at position", NewMalformedProgramError(3, "stack underflow"), ErrMalformedProgram, "malformed program at code 3: stack underflow"},
		{"malformed without position", NewMalformedProgramError(-1, "empty program"), ErrMalformedProgram, "malformed program: empty program"},
		{"no such column", NewNoSuchColumnError("Users", "age"), ErrNoSuchColumn, "no such column: 'Users.age'"},
		{"no such column bare", NewNoSuchColumnError("", "age"), ErrNoSuchColumn, "no such column: 'age'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Error() != tt.message {
				t.Errorf("Expected error message '%s', got '%s'", tt.message, tt.err.Error())
			}
			if !errors.Is(tt.err, tt.sentinel) {
				t.Errorf("Expected error to match sentinel %v", tt.sentinel)
			}
		})
	}
}

func TestWrappedErrors(t *testing.T) {
	// Test that wrapped errors still match sentinels
	originalErr := NewNoSuchColumnError("Users", "age")
	wrappedErr := fmt.Errorf("GET_VALUE failed: %w", originalErr)

	if !errors.Is(wrappedErr, ErrNoSuchColumn) {
		t.Error("Expected wrapped error to match ErrNoSuchColumn sentinel")
	}

	var target *NoSuchColumnError
	if !errors.As(wrappedErr, &target) {
		t.Fatal("Expected errors.As to extract NoSuchColumnError")
	}
	if target.Column != "age" {
		t.Errorf("Expected column 'age', got '%s'", target.Column)
	}
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("name", "must not be empty")
	expectedMsg := "validation error for field 'name': must not be empty"
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message '%s', got '%s'", expectedMsg, err.Error())
	}
	if !errors.Is(err, ErrInvalidInput) {
		t.Error("Expected error to match ErrInvalidInput sentinel")
	}

	err2 := NewValidationError("", "bad request")
	if err2.Error() != "validation error: bad request" {
		t.Errorf("Unexpected message '%s'", err2.Error())
	}
}

func TestJobNotFoundError(t *testing.T) {
	err := NewJobNotFoundError("job-1")
	if err.Error() != "job with ID 'job-1' not found" {
		t.Errorf("Unexpected message '%s'", err.Error())
	}
	if !errors.Is(err, ErrJobNotFound) {
		t.Error("Expected error to match ErrJobNotFound sentinel")
	}
}
