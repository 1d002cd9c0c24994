package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"profile-server/internal/domains/profile/exporter"
	"profile-server/internal/domains/profile/importer"
	"profile-server/internal/domains/profile/iri"
	"profile-server/internal/domains/profile/lifecycle"
	"profile-server/internal/domains/profile/model"
	"profile-server/internal/domains/profile/repository"
	"profile-server/internal/domains/profile/validator"
	"profile-server/internal/shared"
	"profile-server/pkg/cache"
	"profile-server/pkg/metrics"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"
)

const (
	defaultQueryResultLimit = 1000
	defaultExportCacheTTL   = time.Hour
)

// Config holds the profile settings the service needs
type Config struct {
	IRIBase          string
	QueryResultLimit int
	ExportCacheTTL   time.Duration
}

// TaskEnqueuer is satisfied by *asynq.Client
type TaskEnqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// profileService implements ServiceInterface
type profileService struct {
	repo      repository.Repository
	orgs      OrganizationReader
	validator *validator.Validator
	importer  *importer.Importer
	cache     cache.Cache
	tasks     TaskEnqueuer
	metrics   *metrics.Metrics
	cfg       Config
	now       func() time.Time
}

// NewProfileService wires the service. tasks and m may be nil.
func NewProfileService(
	repo repository.Repository,
	orgs OrganizationReader,
	v *validator.Validator,
	c cache.Cache,
	tasks TaskEnqueuer,
	m *metrics.Metrics,
	cfg Config,
) ServiceInterface {
	if cfg.QueryResultLimit <= 0 {
		cfg.QueryResultLimit = defaultQueryResultLimit
	}
	if cfg.ExportCacheTTL <= 0 {
		cfg.ExportCacheTTL = defaultExportCacheTTL
	}
	return &profileService{
		repo:      repo,
		orgs:      orgs,
		validator: v,
		importer:  importer.New(repo, v),
		cache:     c,
		tasks:     tasks,
		metrics:   m,
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

// ========================================
// PROFILES
// ========================================

func (s *profileService) CreateProfile(ctx context.Context, actor shared.Actor, orgID uuid.UUID, req *model.CreateProfileRequest) (*ProfileDetail, error) {
	if err := req.Validate(); err != nil {
		return nil, model.FromValidation(err)
	}
	if err := s.authorizeWrite(ctx, actor, orgID); err != nil {
		return nil, err
	}
	org, err := s.organization(ctx, orgID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	profileID := uuid.New()
	profileIRI := strings.TrimSpace(req.IRI)
	if profileIRI == "" {
		profileIRI = iri.Profile(s.cfg.IRIBase, profileID)
	} else if !iri.IsValidIRI(profileIRI) {
		return nil, model.NewValidationError("Invalid IRI",
			model.FieldError{Field: "iri", Message: fmt.Sprintf("%q is not a valid IRI", profileIRI)})
	}

	version := &model.ProfileVersion{
		ID:              uuid.New(),
		IRI:             iri.Version(profileIRI, 1),
		ProfileID:       profileID,
		OrganizationID:  orgID,
		Version:         1,
		State:           model.StateDraft,
		Name:            strings.TrimSpace(req.Name),
		Description:     strings.TrimSpace(req.Description),
		Translations:    req.Translations,
		Tags:            req.Tags,
		MoreInformation: req.MoreInformation,
		Concepts:        []uuid.UUID{},
		Templates:       []uuid.UUID{},
		Patterns:        []uuid.UUID{},
		CreatedOn:       now,
		UpdatedOn:       now,
	}
	draftID := version.ID
	profile := &model.Profile{
		ID:                    profileID,
		IRI:                   profileIRI,
		OrganizationID:        orgID,
		CurrentDraftVersionID: &draftID,
		CreatedOn:             now,
		UpdatedOn:             now,
	}

	err = s.repo.WithTx(ctx, func(tx repository.Repository) error {
		if err := tx.CreateProfile(ctx, profile); err != nil {
			return err
		}
		return tx.CreateVersion(ctx, version)
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("profile_iri", profile.IRI).
		Str("organization_id", orgID.String()).
		Str("actor", actor.String()).
		Msg("Profile created")

	wg := model.WorkingGroup{UUID: org.ID, Name: org.Name}
	return &ProfileDetail{Profile: profile, Versions: []model.Metadata{model.NewMetadata(version, wg)}}, nil
}

func (s *profileService) GetProfile(ctx context.Context, actor shared.Actor, id uuid.UUID) (*ProfileDetail, error) {
	profile, _, err := s.locate(ctx, id)
	if err != nil {
		return nil, err
	}
	versions, err := s.repo.ListVersions(ctx, profile.ID)
	if err != nil {
		return nil, err
	}

	drafts := s.canSeeDrafts(ctx, actor, profile.OrganizationID)
	wg := s.newWorkingGroups().get(ctx, profile.OrganizationID)
	detail := &ProfileDetail{Profile: profile, Versions: []model.Metadata{}}
	for _, v := range versions {
		if v.IsDraft() && !drafts {
			continue
		}
		detail.Versions = append(detail.Versions, model.NewMetadata(v, wg))
	}
	if len(detail.Versions) == 0 {
		return nil, model.NewNotFound("Profile")
	}
	return detail, nil
}

func (s *profileService) Resolve(ctx context.Context, actor shared.Actor, id uuid.UUID) (*Resolution, error) {
	profile, version, err := s.visibleVersion(ctx, actor, id, true)
	if err != nil {
		return nil, err
	}
	org, err := s.organization(ctx, profile.OrganizationID)
	if err != nil {
		return nil, err
	}
	return &Resolution{Profile: profile, ProfileVersion: version, Organization: org}, nil
}

func (s *profileService) UpdateProfile(ctx context.Context, actor shared.Actor, req *model.UpdateProfileRequest) (*model.ProfileVersion, error) {
	if err := req.Validate(); err != nil {
		return nil, model.FromValidation(err)
	}
	profile, version, err := s.draftOf(ctx, req.UUID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeWrite(ctx, actor, profile.OrganizationID); err != nil {
		return nil, err
	}
	if !version.IsDraft() {
		return nil, model.NewNotAllowed("Not Allowed: Only drafts can be edited.")
	}

	updated := version.Clone()
	if req.Name != nil {
		updated.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		updated.Description = strings.TrimSpace(*req.Description)
	}
	if req.Translations != nil {
		updated.Translations = *req.Translations
	}
	if req.Tags != nil {
		updated.Tags = *req.Tags
	}
	if req.MoreInformation != nil {
		updated.MoreInformation = *req.MoreInformation
	}
	updated.UpdatedOn = s.now()

	if err := s.repo.UpdateVersion(ctx, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteProfile deletes a never-published draft together with the
// components only it owns. The root goes too when nothing else is left.
func (s *profileService) DeleteProfile(ctx context.Context, actor shared.Actor, id uuid.UUID) (*model.Metadata, error) {
	profile, version, err := s.locate(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeWrite(ctx, actor, profile.OrganizationID); err != nil {
		return nil, err
	}
	if version == nil {
		target := profile.CurrentDraftVersionID
		if target == nil {
			target = profile.CurrentPublishedVersionID
		}
		if target == nil {
			return nil, model.NewNotFound("Profile version")
		}
		if version, err = s.repo.GetVersion(ctx, *target); err != nil {
			return nil, err
		}
	}
	if err := lifecycle.CheckDeletable(version); err != nil {
		return nil, err
	}

	profileRemoved := false
	err = s.repo.WithTx(ctx, func(tx repository.Repository) error {
		if err := deleteOwnedComponents(ctx, tx, version); err != nil {
			return err
		}
		if err := tx.DeleteVersion(ctx, version.ID); err != nil {
			return err
		}
		remaining, err := tx.ListVersions(ctx, profile.ID)
		if err != nil {
			return err
		}
		if len(remaining) == 0 {
			profileRemoved = true
			return tx.DeleteProfile(ctx, profile.ID)
		}
		updated := profile.Clone()
		updated.CurrentDraftVersionID = nil
		updated.UpdatedOn = s.now()
		return tx.UpdateProfile(ctx, updated)
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("version_iri", version.IRI).
		Bool("profile_removed", profileRemoved).
		Str("actor", actor.String()).
		Msg("Draft deleted")

	meta := model.NewMetadata(version, s.newWorkingGroups().get(ctx, profile.OrganizationID))
	return &meta, nil
}

// deleteOwnedComponents removes the components only version owns and
// nothing outside that set references
func deleteOwnedComponents(ctx context.Context, tx repository.Repository, version *model.ProfileVersion) error {
	owned := make(map[uuid.UUID]model.ComponentType)
	for _, t := range []model.ComponentType{model.ComponentPattern, model.ComponentTemplate, model.ComponentConcept} {
		for _, id := range version.ComponentIDs(t) {
			owners, err := tx.VersionsOwning(ctx, t, id)
			if err != nil {
				return err
			}
			if len(owners) == 1 && owners[0] == version.ID {
				owned[id] = t
			}
		}
	}

	for _, t := range []model.ComponentType{model.ComponentPattern, model.ComponentTemplate, model.ComponentConcept} {
		for _, id := range version.ComponentIDs(t) {
			if _, ok := owned[id]; !ok {
				continue
			}
			refs, err := tx.PatternsReferencing(ctx, id)
			if err != nil {
				return err
			}
			if !allIn(refs, owned) {
				continue
			}
			if err := tx.DeleteComponent(ctx, id); err != nil && !model.IsNotFound(err) {
				return err
			}
		}
	}
	return nil
}

func allIn(ids []uuid.UUID, set map[uuid.UUID]model.ComponentType) bool {
	for _, id := range ids {
		if _, ok := set[id]; !ok {
			return false
		}
	}
	return true
}

// ========================================
// LIFECYCLE
// ========================================

func (s *profileService) Publish(ctx context.Context, actor shared.Actor, id uuid.UUID) (*PublishResult, error) {
	profile, version, err := s.draftOf(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeWrite(ctx, actor, profile.OrganizationID); err != nil {
		return nil, err
	}
	return s.publish(ctx, actor, profile, version)
}

// publish validates the exported draft, then flips states and pointers in
// one transaction. The draft's state column decides concurrent publishes.
func (s *profileService) publish(ctx context.Context, actor shared.Actor, profile *model.Profile, version *model.ProfileVersion) (*PublishResult, error) {
	if !version.IsDraft() {
		return nil, model.NewConflict(fmt.Sprintf("Only drafts can be published; version %d is %s", version.Version, version.State))
	}

	body, err := s.render(ctx, version)
	if err != nil {
		return nil, err
	}
	check := s.validator.Validate(body)
	s.metrics.RecordValidation(check.Valid)
	if !check.Valid {
		return nil, model.NewValidationError("Profile is not valid", check.Errors...)
	}

	outcome, err := lifecycle.Publish(profile, version, actor.String(), uuid.New(), s.now())
	if err != nil {
		return nil, err
	}

	err = s.repo.WithTx(ctx, func(tx repository.Repository) error {
		if err := tx.TransitionVersion(ctx, outcome.Published, model.StateDraft); err != nil {
			return err
		}
		// the next draft edits its own copies; the published rows stay frozen
		if err := s.copyComponents(ctx, tx, outcome); err != nil {
			return err
		}
		if err := tx.CreateVersion(ctx, outcome.Draft); err != nil {
			return err
		}
		return tx.UpdateProfile(ctx, outcome.Profile)
	})
	s.metrics.RecordPublish(err)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("profile_iri", profile.IRI).
		Int("version", outcome.Published.Version).
		Int("next_draft", outcome.Draft.Version).
		Str("actor", actor.String()).
		Msg("Profile version published")

	s.enqueueSnapshot(outcome.Published)
	return &PublishResult{Version: outcome.Published, Profile: outcome.Profile, Draft: outcome.Draft}, nil
}

func (s *profileService) copyComponents(ctx context.Context, tx repository.Repository, outcome *lifecycle.PublishOutcome) error {
	concepts, err := tx.GetConcepts(ctx, outcome.Published.Concepts)
	if err != nil {
		return err
	}
	templates, err := tx.GetTemplates(ctx, outcome.Published.Templates)
	if err != nil {
		return err
	}
	patterns, err := tx.GetPatterns(ctx, outcome.Published.Patterns)
	if err != nil {
		return err
	}

	copies := lifecycle.CopyComponents(outcome.Draft, concepts, templates, patterns, uuid.New, outcome.Draft.CreatedOn)
	for _, c := range copies.Concepts {
		if err := tx.SaveConcept(ctx, c); err != nil {
			return err
		}
	}
	for _, t := range copies.Templates {
		if err := tx.SaveTemplate(ctx, t); err != nil {
			return err
		}
	}
	for _, p := range copies.Patterns {
		if err := tx.SavePattern(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

func (s *profileService) Deprecate(ctx context.Context, actor shared.Actor, id uuid.UUID, req *model.DeprecateRequest) (*model.ProfileVersion, error) {
	profile, version, err := s.locate(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeWrite(ctx, actor, profile.OrganizationID); err != nil {
		return nil, err
	}
	if version == nil {
		if profile.CurrentPublishedVersionID == nil {
			return nil, model.NewNotFound("Published version")
		}
		if version, err = s.repo.GetVersion(ctx, *profile.CurrentPublishedVersionID); err != nil {
			return nil, err
		}
	}

	replacement, err := s.replacementFor(ctx, profile, version, req)
	if err != nil {
		return nil, err
	}
	updatedProfile, deprecated, err := lifecycle.Deprecate(profile, version, replacement, s.now())
	if err != nil {
		return nil, err
	}

	err = s.repo.WithTx(ctx, func(tx repository.Repository) error {
		if err := tx.TransitionVersion(ctx, deprecated, model.StatePublished); err != nil {
			return err
		}
		return tx.UpdateProfile(ctx, updatedProfile)
	})
	if err != nil {
		return nil, err
	}

	s.invalidateExport(ctx, deprecated.ID)
	log.Info().Str("version_iri", deprecated.IRI).Str("actor", actor.String()).Msg("Profile version deprecated")
	return deprecated, nil
}

// replacementFor picks the version the published pointer moves to: the one
// named in the request, else the newest other published version
func (s *profileService) replacementFor(ctx context.Context, profile *model.Profile, version *model.ProfileVersion, req *model.DeprecateRequest) (*model.ProfileVersion, error) {
	if req != nil && req.ReplacedBy != nil {
		replacement, err := s.repo.GetVersion(ctx, *req.ReplacedBy)
		if err != nil {
			if model.IsNotFound(err) {
				return nil, model.NewValidationError("Invalid replacement version",
					model.FieldError{Field: "replacedBy", Message: "version not found"})
			}
			return nil, err
		}
		return replacement, nil
	}

	if profile.CurrentPublishedVersionID == nil || *profile.CurrentPublishedVersionID != version.ID {
		return nil, nil
	}
	versions, err := s.repo.ListVersions(ctx, profile.ID)
	if err != nil {
		return nil, err
	}
	return lifecycle.LatestPublished(versions, version.ID), nil
}

func (s *profileService) GetMetadata(ctx context.Context, actor shared.Actor, id uuid.UUID) (*model.Metadata, error) {
	if actor.IsPublic() {
		return nil, model.NewUnauthorized("")
	}
	profile, version, err := s.visibleVersion(ctx, actor, id, true)
	if err != nil {
		return nil, err
	}
	meta := model.NewMetadata(version, s.newWorkingGroups().get(ctx, profile.OrganizationID))
	return &meta, nil
}

// UpdateStatus records a verification request and/or publishes the draft
func (s *profileService) UpdateStatus(ctx context.Context, actor shared.Actor, id uuid.UUID, req *model.StatusRequest) (*model.Status, error) {
	if actor.IsPublic() {
		return nil, model.NewUnauthorized("")
	}
	profile, version, err := s.draftOf(ctx, id)
	if err != nil {
		if !model.IsNotFound(err) {
			return nil, err
		}
		if profile, version, err = s.visibleVersion(ctx, actor, id, false); err != nil {
			return nil, err
		}
	}
	if err := s.authorizeWrite(ctx, actor, profile.OrganizationID); err != nil {
		return nil, err
	}

	if req.VerificationRequest != nil {
		updated := version.Clone()
		at := req.VerificationRequest.UTC().Truncate(time.Microsecond)
		updated.VerificationRequest = &at
		updated.UpdatedOn = s.now()
		if err := s.repo.UpdateVersion(ctx, updated); err != nil {
			return nil, err
		}
		version = updated
	}

	if req.Published && version.IsDraft() {
		result, err := s.publish(ctx, actor, profile, version)
		if err != nil {
			return nil, err
		}
		version = result.Version
	}

	status := model.NewMetadata(version, model.WorkingGroup{}).Status
	return &status, nil
}

// ========================================
// DOCUMENTS
// ========================================

// Import reconciles a JSON-LD document and publishes it unless the
// request asks for a draft
func (s *profileService) Import(ctx context.Context, actor shared.Actor, req *model.ImportRequest) (*model.Metadata, error) {
	if err := req.Validate(); err != nil {
		return nil, model.FromValidation(err)
	}
	orgID, err := s.importOrganization(ctx, actor, req)
	if err != nil {
		return nil, err
	}

	result, err := s.importer.Import(ctx, orgID, req.Profile)
	s.metrics.RecordImport(err)
	if err != nil {
		return nil, err
	}

	// an identical re-import of a published version comes back unchanged
	version := result.Version
	if req.Published() && version.IsDraft() {
		published, err := s.publish(ctx, actor, result.Profile, result.Version)
		if err != nil {
			return nil, err
		}
		version = published.Version
	}

	meta := model.NewMetadata(version, s.newWorkingGroups().get(ctx, orgID))
	return &meta, nil
}

// importOrganization: API keys import into their own organization, users
// name the organization in the request
func (s *profileService) importOrganization(ctx context.Context, actor shared.Actor, req *model.ImportRequest) (uuid.UUID, error) {
	switch actor.Scope {
	case shared.ScopeAPIKey:
		if !actor.CanWrite {
			return uuid.Nil, model.NewUnauthorized("")
		}
		return actor.OrganizationID, nil
	case shared.ScopeUser:
		if req.Organization == nil {
			return uuid.Nil, model.NewValidationError("Request validation failed",
				model.FieldError{Field: "organization", Message: "organization is required"})
		}
		if err := s.authorizeWrite(ctx, actor, *req.Organization); err != nil {
			return uuid.Nil, err
		}
		return *req.Organization, nil
	}
	return uuid.Nil, model.NewUnauthorized("")
}

func (s *profileService) Validate(ctx context.Context, raw json.RawMessage) (*validator.Result, error) {
	if len(raw) == 0 {
		return nil, model.NewValidationError("Profile document missing.")
	}
	result := s.validator.Validate(raw)
	s.metrics.RecordValidation(result.Valid)
	if !result.Valid {
		return &result, model.NewValidationError("Profile is not valid", result.Errors...)
	}
	return &result, nil
}

func (s *profileService) Export(ctx context.Context, actor shared.Actor, id uuid.UUID) (*ExportResult, error) {
	_, version, err := s.visibleVersion(ctx, actor, id, false)
	if err != nil {
		return nil, err
	}
	return s.export(ctx, version)
}

// ExportByIRI looks up a profile IRI first, then a version IRI
func (s *profileService) ExportByIRI(ctx context.Context, actor shared.Actor, lookup string) (*ExportResult, error) {
	profile, err := s.repo.GetProfileByIRI(ctx, lookup)
	if err == nil {
		if profile.CurrentPublishedVersionID == nil {
			return nil, model.NewNotFound("Published profile")
		}
		version, err := s.repo.GetVersion(ctx, *profile.CurrentPublishedVersionID)
		if err != nil {
			return nil, err
		}
		return s.export(ctx, version)
	}
	if !model.IsNotFound(err) {
		return nil, err
	}

	version, err := s.repo.GetVersionByIRI(ctx, lookup)
	if err != nil {
		if model.IsNotFound(err) {
			return nil, model.NewNotFound("Profile")
		}
		return nil, err
	}
	if version.IsDraft() && !s.canSeeDrafts(ctx, actor, version.OrganizationID) {
		return nil, model.NewNotFound("Profile")
	}
	return s.export(ctx, version)
}

// export serves non-draft versions from the cache; drafts change too often
func (s *profileService) export(ctx context.Context, version *model.ProfileVersion) (*ExportResult, error) {
	cacheable := !version.IsDraft() && s.cache != nil
	key := exportCacheKey(version.ID)

	if cacheable {
		var cached json.RawMessage
		found, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			log.Warn().Err(err).Str("key", key).Msg("Export cache GET failed")
		}
		s.metrics.RecordExportCache(found)
		if found {
			return &ExportResult{Body: cached, LastModified: version.UpdatedOn}, nil
		}
	}

	body, err := s.render(ctx, version)
	if err != nil {
		return nil, err
	}

	if cacheable {
		if err := s.cache.Set(ctx, key, json.RawMessage(body), s.cfg.ExportCacheTTL); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("Export cache SET failed")
		}
	}
	return &ExportResult{Body: body, LastModified: version.UpdatedOn}, nil
}

// render loads the graph of version and serializes it
func (s *profileService) render(ctx context.Context, version *model.ProfileVersion) ([]byte, error) {
	graph, err := repository.LoadGraph(ctx, s.repo, version)
	if err != nil {
		return nil, err
	}
	if graph.Author, err = s.author(ctx, graph.Profile.OrganizationID); err != nil {
		return nil, err
	}
	body, err := exporter.Marshal(graph)
	if err != nil {
		return nil, model.NewInternal("failed to serialize profile", err)
	}
	return body, nil
}

func (s *profileService) ListPublished(ctx context.Context, query *model.ListQuery) ([]model.Metadata, error) {
	if err := query.Validate(); err != nil {
		return nil, model.FromValidation(err)
	}

	filter := model.ListFilter{Limit: query.Limit}
	if filter.Limit == 0 {
		filter.Limit = s.cfg.QueryResultLimit
	}
	page := query.Page
	if page < 1 {
		page = 1
	}
	filter.Offset = (page - 1) * filter.Limit

	if query.WorkingGroup != "" {
		orgID, err := uuid.Parse(query.WorkingGroup)
		if err != nil {
			return []model.Metadata{}, nil
		}
		if _, err := s.organization(ctx, orgID); err != nil {
			if model.IsNotFound(err) {
				return []model.Metadata{}, nil
			}
			return nil, err
		}
		filter.OrganizationID = &orgID
	}

	versions, err := s.repo.ListPublished(ctx, filter)
	if err != nil {
		return nil, err
	}

	groups := s.newWorkingGroups()
	out := make([]model.Metadata, 0, len(versions))
	for _, v := range versions {
		out = append(out, model.NewMetadata(v, groups.get(ctx, v.OrganizationID)))
	}
	return out, nil
}

// ========================================
// CACHE & JOBS
// ========================================

func exportCacheKey(versionID uuid.UUID) string {
	return "profile:export:" + versionID.String()
}

func (s *profileService) invalidateExport(ctx context.Context, versionID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, exportCacheKey(versionID)); err != nil {
		log.Warn().Err(err).Str("version_id", versionID.String()).Msg("Failed to invalidate export cache")
	}
}

// enqueueSnapshot asks the worker to archive the published document
func (s *profileService) enqueueSnapshot(version *model.ProfileVersion) {
	if s.tasks == nil {
		return
	}
	payload, err := json.Marshal(shared.ExportSnapshotPayload{
		ProfileID: version.ProfileID,
		VersionID: version.ID,
		Version:   version.Version,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode snapshot payload")
		return
	}

	task := asynq.NewTask(shared.TypeExportSnapshot, payload)
	if _, err := s.tasks.Enqueue(task, asynq.Queue(shared.QueueProfile), asynq.MaxRetry(3)); err != nil {
		log.Error().Err(err).Str("version_id", version.ID.String()).Msg("Failed to enqueue snapshot task")
	}
}
