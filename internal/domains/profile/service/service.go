package service

import (
	"context"
	"encoding/json"
	"time"

	orgModel "profile-server/internal/domains/organization/model"
	"profile-server/internal/domains/profile/model"
	"profile-server/internal/domains/profile/validator"
	"profile-server/internal/shared"

	"github.com/google/uuid"
)

// ServiceInterface defines business operations for profiles.
// Every operation receives the caller as a shared.Actor; ids may name
// either a profile root or one of its versions unless stated otherwise.
type ServiceInterface interface {
	// Profiles
	CreateProfile(ctx context.Context, actor shared.Actor, orgID uuid.UUID, req *model.CreateProfileRequest) (*ProfileDetail, error)
	GetProfile(ctx context.Context, actor shared.Actor, id uuid.UUID) (*ProfileDetail, error)
	Resolve(ctx context.Context, actor shared.Actor, id uuid.UUID) (*Resolution, error)
	UpdateProfile(ctx context.Context, actor shared.Actor, req *model.UpdateProfileRequest) (*model.ProfileVersion, error)
	DeleteProfile(ctx context.Context, actor shared.Actor, id uuid.UUID) (*model.Metadata, error)

	// Lifecycle
	Publish(ctx context.Context, actor shared.Actor, id uuid.UUID) (*PublishResult, error)
	Deprecate(ctx context.Context, actor shared.Actor, id uuid.UUID, req *model.DeprecateRequest) (*model.ProfileVersion, error)
	GetMetadata(ctx context.Context, actor shared.Actor, id uuid.UUID) (*model.Metadata, error)
	UpdateStatus(ctx context.Context, actor shared.Actor, id uuid.UUID, req *model.StatusRequest) (*model.Status, error)

	// Documents
	Import(ctx context.Context, actor shared.Actor, req *model.ImportRequest) (*model.Metadata, error)
	Validate(ctx context.Context, raw json.RawMessage) (*validator.Result, error)
	Export(ctx context.Context, actor shared.Actor, id uuid.UUID) (*ExportResult, error)
	ExportByIRI(ctx context.Context, actor shared.Actor, iri string) (*ExportResult, error)
	ListPublished(ctx context.Context, query *model.ListQuery) ([]model.Metadata, error)

	// Components of the current draft
	CreateConcept(ctx context.Context, actor shared.Actor, profileID uuid.UUID, req *model.ConceptRequest) (*model.Concept, error)
	UpdateConcept(ctx context.Context, actor shared.Actor, profileID, conceptID uuid.UUID, req *model.ConceptRequest) (*model.Concept, error)
	CreateTemplate(ctx context.Context, actor shared.Actor, profileID uuid.UUID, req *model.TemplateRequest) (*model.Template, error)
	UpdateTemplate(ctx context.Context, actor shared.Actor, profileID, templateID uuid.UUID, req *model.TemplateRequest) (*model.Template, error)
	CreatePattern(ctx context.Context, actor shared.Actor, profileID uuid.UUID, req *model.PatternRequest) (*model.Pattern, error)
	UpdatePattern(ctx context.Context, actor shared.Actor, profileID, patternID uuid.UUID, req *model.PatternRequest) (*model.Pattern, error)
	DeleteComponent(ctx context.Context, actor shared.Actor, profileID uuid.UUID, t model.ComponentType, componentID uuid.UUID) error
}

// OrganizationReader is what the profile domain needs from organizations.
// Implemented by the organization service.
type OrganizationReader interface {
	Get(ctx context.Context, id uuid.UUID) (*orgModel.Organization, error)
	IsMember(ctx context.Context, orgID, userID uuid.UUID) (bool, error)
}

// ========================================
// RESULTS
// ========================================

// ProfileDetail is a profile root with the versions the caller may see
type ProfileDetail struct {
	*model.Profile
	Versions []model.Metadata `json:"versions"`
}

// Resolution answers "which profile, version and organization is this id"
type Resolution struct {
	Profile        *model.Profile         `json:"profile"`
	ProfileVersion *model.ProfileVersion  `json:"profileVersion"`
	Organization   *orgModel.Organization `json:"organization"`
}

// PublishResult is the published version and its updated root
type PublishResult struct {
	Version *model.ProfileVersion
	Profile *model.Profile
	Draft   *model.ProfileVersion
}

// ExportResult is a serialized JSON-LD document
type ExportResult struct {
	Body         json.RawMessage
	LastModified time.Time
}
