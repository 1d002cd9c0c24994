// Package iri validates and generates the IRIs of profiles, versions and components.
package iri

import (
	"fmt"
	"regexp"
	"strings"

	"profile-server/internal/domains/profile/model"

	"github.com/google/uuid"
)

// Mode is how a component IRI is assigned
type Mode string

const (
	External  Mode = model.IRITypeExternal
	Generated Mode = model.IRITypeGenerated
)

// Field names reported on IRI errors, matching the authoring form
const (
	ExtIRIField  = "extiri"
	GenIRIField  = "geniri"
	IRITypeField = "iriType"
)

// scheme ":" followed by at least one character that is not whitespace
// or one of the characters RFC 3987 excludes from IRIs
var iriPattern = regexp.MustCompile("^[A-Za-z][A-Za-z0-9+.\\-]*:[^\\s<>\"{}|\\\\^`]+$")

var suffixPattern = regexp.MustCompile("^[^\\s<>\"{}|\\\\^`#?]+$")

// IsValidIRI reports whether s is an absolute IRI without whitespace
func IsValidIRI(s string) bool {
	return iriPattern.MatchString(s)
}

// Profile returns the generated IRI of a profile root
func Profile(base string, id uuid.UUID) string {
	return strings.TrimRight(base, "/") + "/" + id.String()
}

// Version returns the IRI of the given version of a profile
func Version(profileIRI string, version int) string {
	return fmt.Sprintf("%s/v/%d", strings.TrimRight(profileIRI, "/"), version)
}

// Generate builds {parentIRI}/{concepts|templates|patterns}/{suffix}
func Generate(parentIRI string, t model.ComponentType, suffix string) (string, error) {
	if !t.Valid() {
		return "", model.NewValidationError("Invalid component type",
			model.FieldError{Field: "componentType", Message: fmt.Sprintf("unknown component type %q", t)})
	}
	suffix = strings.Trim(suffix, "/")
	if suffix == "" {
		return "", model.NewValidationError("Invalid IRI",
			model.FieldError{Field: GenIRIField, Message: "a suffix is required to generate an IRI"})
	}
	if !suffixPattern.MatchString(suffix) {
		return "", model.NewValidationError("Invalid IRI",
			model.FieldError{Field: GenIRIField, Message: fmt.Sprintf("%q cannot be used in an IRI", suffix)})
	}

	generated := strings.TrimRight(parentIRI, "/") + "/" + t.Segment() + "/" + suffix
	if !IsValidIRI(generated) {
		return "", model.NewValidationError("Invalid IRI",
			model.FieldError{Field: GenIRIField, Message: fmt.Sprintf("%s is not a valid IRI", generated)})
	}
	return generated, nil
}

// Resolve assigns a component IRI. External IRIs are taken as given and
// validated; generated IRIs are built under parentIRI.
func Resolve(parentIRI string, t model.ComponentType, mode Mode, value string) (string, error) {
	switch mode {
	case External:
		if !IsValidIRI(value) {
			return "", model.NewValidationError("Invalid IRI",
				model.FieldError{Field: ExtIRIField, Message: fmt.Sprintf("%q is not a valid IRI", value)})
		}
		return value, nil
	case Generated:
		return Generate(parentIRI, t, value)
	}
	return "", model.NewValidationError("Invalid IRI type",
		model.FieldError{Field: IRITypeField, Message: "iriType must be external or generated"})
}
