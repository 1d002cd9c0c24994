package model

import (
	"errors"
	"fmt"
	"net/http"
)

// OrganizationError định nghĩa base error cho organization domain
type OrganizationError struct {
	Code    string
	Message string
	Details map[string]string
	Err     error
}

func (e *OrganizationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *OrganizationError) Unwrap() error {
	return e.Err
}

const (
	CodeValidation   = "VALIDATION_FAILED"
	CodeInvalidID    = "INVALID_ID"
	CodeNotFound     = "ORGANIZATION_NOT_FOUND"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeConflict     = "CONFLICT"
	CodeInternal     = "INTERNAL_ERROR"
)

// ============================================
// ERROR FACTORY FUNCTIONS
// ============================================

func NewValidationError(details map[string]string) *OrganizationError {
	return &OrganizationError{Code: CodeValidation, Message: "Invalid request", Details: details}
}

func NewInvalidID(id string) *OrganizationError {
	return &OrganizationError{Code: CodeInvalidID, Message: fmt.Sprintf("Invalid organization ID: %s", id)}
}

func NewNotFound() *OrganizationError {
	return &OrganizationError{Code: CodeNotFound, Message: "Organization not found"}
}

func NewUnauthorized(message string) *OrganizationError {
	return &OrganizationError{Code: CodeUnauthorized, Message: message}
}

func NewConflict(message string) *OrganizationError {
	return &OrganizationError{Code: CodeConflict, Message: message}
}

func NewInternal(message string, err error) *OrganizationError {
	return &OrganizationError{Code: CodeInternal, Message: message, Err: err}
}

func codeOf(err error) string {
	var orgErr *OrganizationError
	if errors.As(err, &orgErr) {
		return orgErr.Code
	}
	return ""
}

func IsNotFound(err error) bool     { return codeOf(err) == CodeNotFound }
func IsUnauthorized(err error) bool { return codeOf(err) == CodeUnauthorized }

// MapErrorToHTTP maps an organization error to status, code and message
func MapErrorToHTTP(err error) (int, string, string) {
	var orgErr *OrganizationError
	if !errors.As(err, &orgErr) {
		return http.StatusInternalServerError, CodeInternal, "Internal server error"
	}
	switch orgErr.Code {
	case CodeValidation, CodeInvalidID:
		return http.StatusBadRequest, orgErr.Code, orgErr.Message
	case CodeNotFound:
		return http.StatusNotFound, orgErr.Code, orgErr.Message
	case CodeUnauthorized:
		return http.StatusUnauthorized, orgErr.Code, orgErr.Message
	case CodeConflict:
		return http.StatusConflict, orgErr.Code, orgErr.Message
	}
	return http.StatusInternalServerError, CodeInternal, "Internal server error"
}
