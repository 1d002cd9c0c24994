package model

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// FieldError is one itemized validation problem
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (f FieldError) String() string {
	if f.Field == "" {
		return f.Message
	}
	return fmt.Sprintf("%s: %s", f.Field, f.Message)
}

// ProfileError is the base error of the profile domain
type ProfileError struct {
	Code    string       // Error code duy nhất (VD: "PROFILE_NOT_FOUND")
	Message string       // Human-readable message
	Details []FieldError // Itemized problems for validation errors
	Err     error        // Underlying error
}

func (e *ProfileError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if len(e.Details) > 0 {
		parts := make([]string, len(e.Details))
		for i, d := range e.Details {
			parts[i] = d.String()
		}
		msg += ": " + strings.Join(parts, "; ")
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

func (e *ProfileError) Unwrap() error {
	return e.Err
}

// ============================================
// ERROR CODES
// ============================================

const (
	CodeValidation      = "VALIDATION_FAILED"
	CodeInvalidID       = "INVALID_ID"
	CodeNotFound        = "NOT_FOUND"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeNotAllowed      = "NOT_ALLOWED"
	CodeConflict        = "CONFLICT"
	CodeIRIImmutable    = "IRI_IMMUTABLE"
	CodeInternal        = "INTERNAL_ERROR"
	CodeInvalidDocument = "INVALID_DOCUMENT"
)

// ============================================
// ERROR FACTORY FUNCTIONS
// ============================================

// NewValidationError wraps itemized problems into one report
func NewValidationError(message string, details ...FieldError) *ProfileError {
	return &ProfileError{Code: CodeValidation, Message: message, Details: details}
}

func NewInvalidID(value string) *ProfileError {
	return &ProfileError{Code: CodeInvalidID, Message: fmt.Sprintf("Invalid uuid: %s", value)}
}

func NewInvalidDocument(err error) *ProfileError {
	return &ProfileError{Code: CodeInvalidDocument, Message: "Profile document could not be parsed", Err: err}
}

func NewNotFound(what string) *ProfileError {
	return &ProfileError{Code: CodeNotFound, Message: fmt.Sprintf("%s not found", what)}
}

func NewUnauthorized(message string) *ProfileError {
	if message == "" {
		message = "Not Authorized"
	}
	return &ProfileError{Code: CodeUnauthorized, Message: message}
}

func NewNotAllowed(message string) *ProfileError {
	return &ProfileError{Code: CodeNotAllowed, Message: message}
}

func NewConflict(message string) *ProfileError {
	return &ProfileError{Code: CodeConflict, Message: message}
}

func NewIRIImmutable(iri string) *ProfileError {
	return &ProfileError{
		Code:    CodeIRIImmutable,
		Message: "Component IRI cannot be changed once assigned",
		Details: []FieldError{{Field: "iri", Message: fmt.Sprintf("iri is fixed to %s", iri)}},
	}
}

func NewInternal(message string, err error) *ProfileError {
	return &ProfileError{Code: CodeInternal, Message: message, Err: err}
}

// ============================================
// ERROR CHECKING FUNCTIONS
// ============================================

func codeOf(err error) string {
	var pErr *ProfileError
	if errors.As(err, &pErr) {
		return pErr.Code
	}
	return ""
}

func IsValidation(err error) bool {
	switch codeOf(err) {
	case CodeValidation, CodeInvalidID, CodeIRIImmutable, CodeInvalidDocument:
		return true
	}
	return false
}

func IsNotFound(err error) bool     { return codeOf(err) == CodeNotFound }
func IsUnauthorized(err error) bool { return codeOf(err) == CodeUnauthorized }
func IsNotAllowed(err error) bool   { return codeOf(err) == CodeNotAllowed }
func IsConflict(err error) bool     { return codeOf(err) == CodeConflict }

// DetailsOf returns the itemized problems carried by err
func DetailsOf(err error) []FieldError {
	var pErr *ProfileError
	if errors.As(err, &pErr) {
		return pErr.Details
	}
	return nil
}

// MapErrorToHTTP chuyển ProfileError sang HTTP status, message và code
func MapErrorToHTTP(err error) (int, string, string) {
	if err == nil {
		return http.StatusOK, "Success", ""
	}

	var pErr *ProfileError
	if !errors.As(err, &pErr) {
		return http.StatusInternalServerError, "Internal server error", CodeInternal
	}

	switch {
	case IsValidation(err):
		return http.StatusBadRequest, pErr.Message, pErr.Code
	case IsNotFound(err):
		return http.StatusNotFound, pErr.Message, pErr.Code
	case IsUnauthorized(err):
		return http.StatusUnauthorized, pErr.Message, pErr.Code
	case IsNotAllowed(err):
		return http.StatusMethodNotAllowed, pErr.Message, pErr.Code
	case IsConflict(err):
		return http.StatusConflict, pErr.Message, pErr.Code
	default:
		return http.StatusInternalServerError, "Internal server error", pErr.Code
	}
}
