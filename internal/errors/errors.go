package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions
var (
	// ErrTableNotFound is returned when a table or column path does not resolve
	ErrTableNotFound = errors.New("table not found")

	// ErrTableExists is returned when trying to define a table or column that already exists
	ErrTableExists = errors.New("table already exists")

	// ErrRecordNotFound is returned when a record id or key does not exist in a table
	ErrRecordNotFound = errors.New("record not found")

	// ErrJobNotFound is returned when a job is not found
	ErrJobNotFound = errors.New("job not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnknownOperator is returned when an operator name, symbol or code cannot be resolved
	ErrUnknownOperator = errors.New("unknown operator")

	// ErrUnknownMode is returned when a match mode name, symbol or code cannot be resolved
	ErrUnknownMode = errors.New("unknown mode")

	// ErrDuplicateName is returned when a variable name collides within one expression
	ErrDuplicateName = errors.New("duplicate name")

	// ErrInvalidOwner is returned when a variable is appended to an expression that does not own it
	ErrInvalidOwner = errors.New("invalid owner")

	// ErrMalformedProgram is returned for stack underflow or leftover values
	ErrMalformedProgram = errors.New("malformed program")

	// ErrNoSuchColumn is returned when GET_VALUE names a column the record's table lacks
	ErrNoSuchColumn = errors.New("no such column")

	// ErrTypeMismatch is returned when an operand has the wrong type for an operator
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrClosed is returned when a released resource is used again
	ErrClosed = errors.New("resource closed")

	// ErrDivisionByZero is returned by SLASH and MOD with a zero divisor
	ErrDivisionByZero = errors.New("division by zero")
)

// TableNotFoundError represents a table not found error with context
type TableNotFoundError struct {
	Name string
}

func (e *TableNotFoundError) Error() string {
	return fmt.Sprintf("table named '%s' not found", e.Name)
}

func (e *TableNotFoundError) Is(target error) bool {
	return target == ErrTableNotFound
}

// NewTableNotFoundError creates a new TableNotFoundError
func NewTableNotFoundError(name string) *TableNotFoundError {
	return &TableNotFoundError{Name: name}
}

// TableExistsError represents a duplicate table or column definition
type TableExistsError struct {
	Name string
}

func (e *TableExistsError) Error() string {
	return fmt.Sprintf("object named '%s' already exists", e.Name)
}

func (e *TableExistsError) Is(target error) bool {
	return target == ErrTableExists
}

// NewTableExistsError creates a new TableExistsError
func NewTableExistsError(name string) *TableExistsError {
	return &TableExistsError{Name: name}
}

// RecordNotFoundError represents a record not found error with context
type RecordNotFoundError struct {
	Table string
	ID    uint32
	Key   string
}

func (e *RecordNotFoundError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("record with key '%s' not found in table '%s'", e.Key, e.Table)
	}
	return fmt.Sprintf("record with ID %d not found in table '%s'", e.ID, e.Table)
}

func (e *RecordNotFoundError) Is(target error) bool {
	return target == ErrRecordNotFound
}

// NewRecordNotFoundError creates a new RecordNotFoundError
func NewRecordNotFoundError(table string, id uint32) *RecordNotFoundError {
	return &RecordNotFoundError{Table: table, ID: id}
}

// NewRecordKeyNotFoundError creates a RecordNotFoundError for a key lookup
func NewRecordKeyNotFoundError(table, key string) *RecordNotFoundError {
	return &RecordNotFoundError{Table: table, Key: key}
}

// JobNotFoundError represents a job not found error with context
type JobNotFoundError struct {
	JobID string
}

func (e *JobNotFoundError) Error() string {
	return fmt.Sprintf("job with ID '%s' not found", e.JobID)
}

func (e *JobNotFoundError) Is(target error) bool {
	return target == ErrJobNotFound
}

// NewJobNotFoundError creates a new JobNotFoundError
func NewJobNotFoundError(jobID string) *JobNotFoundError {
	return &JobNotFoundError{JobID: jobID}
}

// ValidationError represents an input validation error with context
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// UnknownOperatorError carries the operator input that failed to resolve
type UnknownOperatorError struct {
	Input any
}

func (e *UnknownOperatorError) Error() string {
	return fmt.Sprintf("unknown operator: %#v", e.Input)
}

func (e *UnknownOperatorError) Is(target error) bool {
	return target == ErrUnknownOperator
}

// NewUnknownOperatorError creates a new UnknownOperatorError
func NewUnknownOperatorError(input any) *UnknownOperatorError {
	return &UnknownOperatorError{Input: input}
}

// UnknownModeError carries the mode input that failed to resolve
type UnknownModeError struct {
	Input any
}

func (e *UnknownModeError) Error() string {
	return fmt.Sprintf("unknown mode: %#v", e.Input)
}

func (e *UnknownModeError) Is(target error) bool {
	return target == ErrUnknownMode
}

// NewUnknownModeError creates a new UnknownModeError
func NewUnknownModeError(input any) *UnknownModeError {
	return &UnknownModeError{Input: input}
}

// DuplicateNameError represents a variable name collision
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("variable named '%s' is already defined", e.Name)
}

func (e *DuplicateNameError) Is(target error) bool {
	return target == ErrDuplicateName
}

// NewDuplicateNameError creates a new DuplicateNameError
func NewDuplicateNameError(name string) *DuplicateNameError {
	return &DuplicateNameError{Name: name}
}

// InvalidOwnerError is returned when a variable from one expression is used in another
type InvalidOwnerError struct {
	Variable string
}

func (e *InvalidOwnerError) Error() string {
	if e.Variable == "" {
		return "anonymous variable belongs to another expression"
	}
	return fmt.Sprintf("variable '%s' belongs to another expression", e.Variable)
}

func (e *InvalidOwnerError) Is(target error) bool {
	return target == ErrInvalidOwner
}

// NewInvalidOwnerError creates a new InvalidOwnerError
func NewInvalidOwnerError(variable string) *InvalidOwnerError {
	return &InvalidOwnerError{Variable: variable}
}

// MalformedProgramError reports where a program failed its stack discipline
type MalformedProgramError struct {
	Position int
	Reason   string
}

func (e *MalformedProgramError) Error() string {
	if e.Position < 0 {
		return fmt.Sprintf("malformed program: %s", e.Reason)
	}
	return fmt.Sprintf("malformed program at code %d: %s", e.Position, e.Reason)
}

func (e *MalformedProgramError) Is(target error) bool {
	return target == ErrMalformedProgram
}

// NewMalformedProgramError creates a new MalformedProgramError. Use a negative
// position for errors that are not tied to a single code.
func NewMalformedProgramError(position int, reason string) *MalformedProgramError {
	return &MalformedProgramError{Position: position, Reason: reason}
}

// NoSuchColumnError represents a lookup of a column the table does not define
type NoSuchColumnError struct {
	Table  string
	Column string
}

func (e *NoSuchColumnError) Error() string {
	if e.Table == "" {
		return fmt.Sprintf("no such column: '%s'", e.Column)
	}
	return fmt.Sprintf("no such column: '%s.%s'", e.Table, e.Column)
}

func (e *NoSuchColumnError) Is(target error) bool {
	return target == ErrNoSuchColumn
}

// NewNoSuchColumnError creates a new NoSuchColumnError
func NewNoSuchColumnError(table, column string) *NoSuchColumnError {
	return &NoSuchColumnError{Table: table, Column: column}
}

// TypeMismatchError describes an operand an operator cannot consume
type TypeMismatchError struct {
	Operator string
	Got      any
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("%s: unsupported operand %T (%v)", e.Operator, e.Got, e.Got)
}

func (e *TypeMismatchError) Is(target error) bool {
	return target == ErrTypeMismatch
}

// NewTypeMismatchError creates a new TypeMismatchError
func NewTypeMismatchError(operator string, got any) *TypeMismatchError {
	return &TypeMismatchError{Operator: operator, Got: got}
}
