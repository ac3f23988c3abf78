package models

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Error codes surfaced to the API layer.
const (
	CodeNotFound   = "NOT_FOUND"
	CodeValidation = "VALIDATION_ERROR"
	CodeBadRequest = "BAD_REQUEST"
	CodeConflict   = "CONFLICT"
	CodeForbidden  = "FORBIDDEN"
	CodeInternal   = "INTERNAL_ERROR"
)

// DefaultInternalMessage is used when an internal error carries no custom message.
const DefaultInternalMessage = "An unexpected error occurred. Please try again later."

// ErrorResponse represents a standardized API error response
type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code,omitempty"`
	Details string            `json:"details,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// AppError represents a custom application error
type AppError struct {
	Code    string
	Message string
	Err     error
	// Fields holds per-field messages for validation failures.
	Fields map[string]string
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// ToResponse converts the error into the payload shape used by the API layer.
func (e *AppError) ToResponse() ErrorResponse {
	resp := ErrorResponse{Error: e.Message, Code: e.Code, Fields: e.Fields}
	if e.Err != nil {
		resp.Details = e.Err.Error()
	}
	return resp
}

// Predefined error constructors
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
	}
}

// NewFieldValidationError reports a failure tied to a single input field.
func NewFieldValidationError(field, message string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
		Fields:  map[string]string{field: message},
	}
}

// NewFieldsValidationError reports failures on several fields at once.
func NewFieldsValidationError(fields map[string]string) *AppError {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, fields[k]))
	}
	return &AppError{
		Code:    CodeValidation,
		Message: strings.Join(parts, "; "),
		Fields:  fields,
	}
}

// NewBadRequestError wraps a caller mistake. An empty code falls back to BAD_REQUEST.
func NewBadRequestError(message, code string) *AppError {
	if message == "" {
		message = "Something went wrong."
	}
	if code == "" {
		code = CodeBadRequest
	}
	return &AppError{Code: code, Message: message}
}

func NewConflictError(message string) *AppError {
	return &AppError{Code: CodeConflict, Message: message}
}

func NewForbiddenError(message string) *AppError {
	return &AppError{Code: CodeForbidden, Message: message}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: DefaultInternalMessage,
		Err:     err,
	}
}

// IsCode reports whether err is an AppError carrying code.
func IsCode(err error, code string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}
