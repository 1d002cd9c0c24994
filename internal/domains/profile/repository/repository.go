package repository

import (
	"context"

	"profile-server/internal/domains/profile/model"

	"github.com/google/uuid"
)

// Repository defines all data access for profiles, versions and components.
// Lookups return a NotFound ProfileError when nothing matches; unique
// violations come back as Conflict.
type Repository interface {
	// WithTx runs fn against a transactional view of the store. All writes
	// made through the view commit together or not at all.
	WithTx(ctx context.Context, fn func(tx Repository) error) error

	// Profiles
	CreateProfile(ctx context.Context, profile *model.Profile) error
	UpdateProfile(ctx context.Context, profile *model.Profile) error
	DeleteProfile(ctx context.Context, id uuid.UUID) error
	GetProfile(ctx context.Context, id uuid.UUID) (*model.Profile, error)
	GetProfileByIRI(ctx context.Context, iri string) (*model.Profile, error)

	// ListPublished returns the current published version of every profile
	// that has one, most recently updated first
	ListPublished(ctx context.Context, filter model.ListFilter) ([]*model.ProfileVersion, error)

	// Versions
	CreateVersion(ctx context.Context, version *model.ProfileVersion) error
	// UpdateVersion writes metadata and component lists only while the
	// stored state still equals version.State; otherwise Conflict. State,
	// publication and history columns are left for TransitionVersion.
	UpdateVersion(ctx context.Context, version *model.ProfileVersion) error
	DeleteVersion(ctx context.Context, id uuid.UUID) error
	GetVersion(ctx context.Context, id uuid.UUID) (*model.ProfileVersion, error)
	GetVersionByIRI(ctx context.Context, iri string) (*model.ProfileVersion, error)
	// ListVersions returns every version of a profile, newest first
	ListVersions(ctx context.Context, profileID uuid.UUID) ([]*model.ProfileVersion, error)
	// ListVersionsByState returns versions in the given state across profiles
	ListVersionsByState(ctx context.Context, state model.State, limit int) ([]*model.ProfileVersion, error)
	// TransitionVersion writes version only if the stored state still equals
	// from. A lost race returns Conflict.
	TransitionVersion(ctx context.Context, version *model.ProfileVersion, from model.State) error

	// Components. Save* insert or replace by id. IRIs are unique per
	// parent version.
	SaveConcept(ctx context.Context, concept *model.Concept) error
	SaveTemplate(ctx context.Context, template *model.Template) error
	SavePattern(ctx context.Context, pattern *model.Pattern) error
	GetComponent(ctx context.Context, id uuid.UUID) (*model.ComponentSummary, error)
	// GetComponentByIRI prefers a copy owned by a published version, newest
	// first, over a draft copy
	GetComponentByIRI(ctx context.Context, iri string) (*model.ComponentSummary, error)
	// Get{Concepts,Templates,Patterns} keep the order of ids and skip ids
	// that no longer exist
	GetConcepts(ctx context.Context, ids []uuid.UUID) ([]*model.Concept, error)
	GetTemplates(ctx context.Context, ids []uuid.UUID) ([]*model.Template, error)
	GetPatterns(ctx context.Context, ids []uuid.UUID) ([]*model.Pattern, error)
	DeleteComponent(ctx context.Context, id uuid.UUID) error
	// PatternsReferencing returns ids of patterns that list id as a member
	PatternsReferencing(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error)
	// VersionsOwning returns ids of versions whose component lists contain id
	VersionsOwning(ctx context.Context, t model.ComponentType, id uuid.UUID) ([]uuid.UUID, error)
}

// LoadGraph loads the profile, the version history up to version and the
// components version owns. Author is left for the caller.
func LoadGraph(ctx context.Context, repo Repository, version *model.ProfileVersion) (*model.Graph, error) {
	profile, err := repo.GetProfile(ctx, version.ProfileID)
	if err != nil {
		return nil, err
	}
	all, err := repo.ListVersions(ctx, profile.ID)
	if err != nil {
		return nil, err
	}
	history := make([]*model.ProfileVersion, 0, len(all))
	for _, v := range all {
		if v.Version <= version.Version {
			history = append(history, v)
		}
	}

	concepts, err := repo.GetConcepts(ctx, version.Concepts)
	if err != nil {
		return nil, err
	}
	templates, err := repo.GetTemplates(ctx, version.Templates)
	if err != nil {
		return nil, err
	}
	patterns, err := repo.GetPatterns(ctx, version.Patterns)
	if err != nil {
		return nil, err
	}

	return &model.Graph{
		Profile:   profile,
		Version:   version,
		Versions:  history,
		Concepts:  concepts,
		Templates: templates,
		Patterns:  patterns,
	}, nil
}
