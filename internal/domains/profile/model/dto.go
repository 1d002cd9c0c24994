package model

import (
	"encoding/json"
	"errors"
	"sort"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"
)

// IRI assignment modes used by authoring requests
const (
	IRITypeExternal  = "external"
	IRITypeGenerated = "generated"
)

// ========================================
// PROFILE REQUESTS
// ========================================

// CreateProfileRequest creates a profile together with its first draft
type CreateProfileRequest struct {
	IRI             string        `json:"iri"`
	Name            string        `json:"name"`
	Description     string        `json:"description"`
	Translations    []Translation `json:"translations"`
	Tags            []string      `json:"tags"`
	MoreInformation string        `json:"moreInformation"`
}

func (r CreateProfileRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name,
			validation.Required.Error("name is required"),
			validation.Length(1, 200).Error("name must be 1-200 characters"),
		),
		validation.Field(&r.Description,
			validation.Required.Error("description is required"),
		),
		validation.Field(&r.Translations, validation.Each(validation.By(validateTranslation))),
		validation.Field(&r.MoreInformation, is.URL),
	)
}

// UpdateProfileRequest updates descriptive metadata of a draft version
type UpdateProfileRequest struct {
	UUID            uuid.UUID      `json:"uuid"`
	Name            *string        `json:"name"`
	Description     *string        `json:"description"`
	Translations    *[]Translation `json:"translations"`
	Tags            *[]string      `json:"tags"`
	MoreInformation *string        `json:"moreInformation"`
}

func (r UpdateProfileRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.UUID, validation.Required.Error("uuid is required")),
		validation.Field(&r.Name,
			validation.When(r.Name != nil,
				validation.Required.Error("name cannot be empty"),
				validation.Length(1, 200).Error("name must be 1-200 characters"),
			),
		),
		validation.Field(&r.MoreInformation, validation.When(r.MoreInformation != nil, is.URL)),
	)
}

// ImportRequest carries an externally authored JSON-LD profile.
// Organization is only read for user tokens; API keys carry their own.
type ImportRequest struct {
	Profile      json.RawMessage `json:"profile"`
	Status       string          `json:"status"`
	Organization *uuid.UUID      `json:"organization"`
}

func (r ImportRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Profile, validation.Required.Error("Profile document missing.")),
		validation.Field(&r.Status, validation.In("draft", "published").Error("status must be draft or published")),
	)
}

// Published reports whether the import should publish right after commit
func (r ImportRequest) Published() bool {
	return r.Status != string(StateDraft)
}

// StatusRequest publishes a draft and/or requests verification
type StatusRequest struct {
	Published           bool       `json:"published"`
	VerificationRequest *time.Time `json:"verificationRequest"`
}

// DeprecateRequest optionally names the version that replaces the deprecated one
type DeprecateRequest struct {
	ReplacedBy *uuid.UUID `json:"replacedBy"`
}

// ListQuery is the query string of GET /profiles
type ListQuery struct {
	IRI          string `form:"iri"`
	WorkingGroup string `form:"workinggroup"`
	Limit        int    `form:"limit"`
	Page         int    `form:"page"`
}

func (q ListQuery) Validate() error {
	return validation.ValidateStruct(&q,
		validation.Field(&q.WorkingGroup, is.UUID.Error("workinggroup must be a uuid")),
		validation.Field(&q.Limit, validation.Min(0).Error("limit must be >= 0")),
		validation.Field(&q.Page, validation.Min(0).Error("page must be >= 0")),
	)
}

// ========================================
// COMPONENT REQUESTS
// ========================================

// IRIFields selects how a new component gets its IRI
type IRIFields struct {
	IRIType string `json:"iriType"`
	ExtIRI  string `json:"extiri"`
	GenIRI  string `json:"geniri"`
}

func (f IRIFields) validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.IRIType, validation.Required.Error("iriType is required"), validation.In(IRITypeExternal, IRITypeGenerated).Error("iriType must be external or generated")),
		validation.Field(&f.ExtIRI, validation.When(f.IRIType == IRITypeExternal, validation.Required.Error("extiri is required"))),
		validation.Field(&f.GenIRI, validation.When(f.IRIType == IRITypeGenerated, validation.Required.Error("geniri is required"))),
	)
}

// HeaderFields are the descriptive fields every component request carries
type HeaderFields struct {
	Name         string        `json:"name"`
	Description  string        `json:"description"`
	Translations []Translation `json:"translations"`
	Tags         []string      `json:"tags"`
	Deprecated   bool          `json:"isDeprecated"`
}

type ConceptRequest struct {
	IRIFields
	HeaderFields
	Type ConceptKind     `json:"conceptType"`
	Body json.RawMessage `json:"body"`
}

func (r ConceptRequest) Validate() error {
	if err := r.IRIFields.validate(); err != nil {
		return err
	}
	return r.ValidateContent()
}

// ValidateContent checks everything but the IRI fields
func (r ConceptRequest) ValidateContent() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Type,
			validation.Required.Error("conceptType is required"),
			validation.By(func(value interface{}) error {
				if r.Type.Category() == "" {
					return errors.New("unknown conceptType")
				}
				return nil
			}),
		),
		validation.Field(&r.Name, validation.When(r.Type != KindActivity, validation.Required.Error("name is required"))),
	)
}

type TemplateRequest struct {
	IRIFields
	HeaderFields
	TemplateBody
}

func (r TemplateRequest) Validate() error {
	if err := r.IRIFields.validate(); err != nil {
		return err
	}
	return r.ValidateContent()
}

// ValidateContent checks everything but the IRI fields
func (r TemplateRequest) ValidateContent() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required.Error("name is required")),
	)
}

// MemberRequest references a pattern member by uuid or by IRI
type MemberRequest struct {
	ID            *uuid.UUID    `json:"id"`
	IRI           string        `json:"iri"`
	ComponentType ComponentType `json:"componentType"`
}

type PatternRequest struct {
	IRIFields
	HeaderFields
	PrimaryOrSecondary string          `json:"primaryorsecondary"`
	Type               PatternOperator `json:"type"`
	Members            []MemberRequest `json:"members"`
}

// Primary reports whether the request describes a primary pattern
func (r PatternRequest) Primary() bool {
	return r.PrimaryOrSecondary == "primary"
}

func (r PatternRequest) Validate() error {
	if err := r.IRIFields.validate(); err != nil {
		return err
	}
	return r.ValidateContent()
}

// ValidateContent checks everything but the IRI fields
func (r PatternRequest) ValidateContent() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.PrimaryOrSecondary,
			validation.Required.Error("primaryorsecondary is required"),
			validation.In("primary", "secondary").Error("primaryorsecondary must be primary or secondary"),
		),
		validation.Field(&r.Type,
			validation.Required.Error("type is required"),
			validation.In(OperatorSequence, OperatorAlternates, OperatorOptional, OperatorOneOrMore, OperatorZeroOrMore).
				Error("type must be one of sequence, alternates, optional, oneOrMore, zeroOrMore"),
		),
		validation.Field(&r.Members,
			validation.Required.Error("members are required"),
			validation.When(r.Type.IsUnary(), validation.Length(1, 1).Error("this pattern type takes exactly one member")),
			validation.When(r.Type == OperatorSequence || r.Type == OperatorAlternates,
				validation.Length(1, 0).Error("at least one member is required")),
		),
		validation.Field(&r.Name, validation.When(r.Primary(), validation.Required.Error("name is required"))),
	)
}

func validateTranslation(value interface{}) error {
	t, ok := value.(Translation)
	if !ok {
		return nil
	}
	if t.Language == "" {
		return errors.New("language is required")
	}
	return nil
}

// FromValidation converts an ozzo-validation error into a ProfileError
func FromValidation(err error) *ProfileError {
	var fieldErrs validation.Errors
	if !errors.As(err, &fieldErrs) {
		return NewValidationError(err.Error())
	}
	details := make([]FieldError, 0, len(fieldErrs))
	for field, fieldErr := range fieldErrs {
		details = append(details, FieldError{Field: field, Message: fieldErr.Error()})
	}
	sort.Slice(details, func(i, j int) bool { return details[i].Field < details[j].Field })
	return NewValidationError("Request validation failed", details...)
}
