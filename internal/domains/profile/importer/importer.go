// Package importer reconciles an externally authored JSON-LD profile with
// the stored organization, profile, version and component records.
package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	"profile-server/internal/domains/profile/exporter"
	"profile-server/internal/domains/profile/model"
	"profile-server/internal/domains/profile/repository"
	"profile-server/internal/domains/profile/validator"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Result describes what an import wrote. Unchanged means the document
// matched a version that is already published and nothing was written.
type Result struct {
	Profile        *model.Profile
	Version        *model.ProfileVersion
	ProfileCreated bool
	VersionCreated bool
	Unchanged      bool
}

// Importer runs the validate → profile → version → components → commit
// pipeline. Publishing is left to the caller.
type Importer struct {
	repo      repository.Repository
	validator *validator.Validator
	now       func() time.Time
}

func New(repo repository.Repository, v *validator.Validator) *Importer {
	return &Importer{
		repo:      repo,
		validator: v,
		now:       func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

// Import validates raw and stores it for organizationID. Nothing is written
// unless every layer succeeds.
func (im *Importer) Import(ctx context.Context, organizationID uuid.UUID, raw []byte) (*Result, error) {
	check := im.validator.Validate(raw)
	if !check.Valid {
		return nil, model.NewValidationError("Profile is not valid", check.Errors...)
	}

	var doc model.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, model.NewInvalidDocument(err)
	}

	var result *Result
	err := im.repo.WithTx(ctx, func(tx repository.Repository) error {
		run := &importRun{tx: tx, doc: &doc, raw: raw, orgID: organizationID, now: im.now()}

		if err := run.scanProfileLayer(ctx); err != nil {
			return err
		}
		if err := run.scanVersionLayer(ctx); err != nil {
			return err
		}
		if run.unchanged {
			result = &Result{Profile: run.profile, Version: run.version, Unchanged: true}
			return nil
		}
		if err := run.scanComponentLayer(ctx); err != nil {
			return err
		}
		if err := run.save(ctx); err != nil {
			return err
		}
		result = &Result{
			Profile:        run.profile,
			Version:        run.version,
			ProfileCreated: run.profileCreated,
			VersionCreated: run.versionCreated,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if result.Unchanged {
		log.Info().
			Str("profile_iri", result.Profile.IRI).
			Str("version_iri", result.Version.IRI).
			Msg("Profile import matches published version")
		return result, nil
	}

	log.Info().
		Str("profile_iri", result.Profile.IRI).
		Str("version_iri", result.Version.IRI).
		Int("concepts", len(result.Version.Concepts)).
		Int("templates", len(result.Version.Templates)).
		Int("patterns", len(result.Version.Patterns)).
		Bool("profile_created", result.ProfileCreated).
		Msg("Profile imported")
	return result, nil
}

// importRun holds the state of one import while the layers fill it in
type importRun struct {
	tx    repository.Repository
	doc   *model.Document
	raw   []byte
	orgID uuid.UUID
	now   time.Time

	profile        *model.Profile
	profileCreated bool
	version        *model.ProfileVersion
	previousState  model.State
	versionCreated bool
	unchanged      bool

	// components the reused draft already owns, by IRI
	owned map[string]ownedComponent

	concepts  []*model.Concept
	templates []*model.Template
	patterns  []*model.Pattern
}

// ========================================
// PROFILE LAYER
// ========================================

func (r *importRun) scanProfileLayer(ctx context.Context) error {
	existing, err := r.tx.GetProfileByIRI(ctx, r.doc.ID)
	switch {
	case err == nil:
		if existing.OrganizationID != r.orgID {
			return model.NewUnauthorized("Profile " + r.doc.ID + " belongs to another organization")
		}
		r.profile = existing
		return nil
	case !model.IsNotFound(err):
		return err
	}

	if _, err := r.tx.GetVersionByIRI(ctx, r.doc.ID); err == nil {
		return model.NewValidationError("Profile is not valid", model.FieldError{
			Field:   "id",
			Message: fmt.Sprintf("%s is already used by a profile version", r.doc.ID),
		})
	}

	r.profile = &model.Profile{
		ID:             uuid.New(),
		IRI:            r.doc.ID,
		OrganizationID: r.orgID,
		CreatedOn:      r.now,
		UpdatedOn:      r.now,
	}
	r.profileCreated = true
	return nil
}

// ========================================
// VERSION LAYER
// ========================================

func (r *importRun) scanVersionLayer(ctx context.Context) error {
	if len(r.doc.Versions) == 0 {
		return model.NewValidationError("Profile is not valid", model.FieldError{Field: "versions", Message: "at least one version is required"})
	}
	ref := r.doc.Versions[0]

	version, err := r.findVersion(ctx, ref.ID)
	if err != nil {
		return err
	}
	if r.unchanged {
		r.version = version
		return nil
	}
	if version == nil {
		if version, err = r.newVersion(ctx); err != nil {
			return err
		}
	}

	version.IRI = ref.ID
	version.Name, version.Description, version.Translations = model.SplitLanguageMaps(r.doc.PrefLabel, r.doc.Definition)
	version.MoreInformation = r.doc.SeeAlso
	version.UpdatedOn = r.now
	if generated, err := time.Parse(time.RFC3339, ref.GeneratedAtTime); err == nil {
		version.CreatedOn = generated.UTC()
	}
	history, err := r.history(ctx, version)
	if err != nil {
		return err
	}
	version.ImportedHistory = history

	r.version = version
	return nil
}

// history links the version to a stored predecessor where one exists and
// keeps the declared refs that have no stored version
func (r *importRun) history(ctx context.Context, version *model.ProfileVersion) (model.ImportedHistory, error) {
	var out model.ImportedHistory
	linked := false
	for _, prevIRI := range r.doc.Versions[0].WasRevisionOf {
		prev, err := r.storedVersion(ctx, prevIRI)
		if err != nil {
			return out, err
		}
		if prev != nil && !linked {
			prevID := prev.ID
			version.WasRevisionOf = &prevID
			linked = true
			continue
		}
		out.RevisionOf = append(out.RevisionOf, prevIRI)
	}

	for _, ref := range r.doc.Versions[1:] {
		prev, err := r.storedVersion(ctx, ref.ID)
		if err != nil {
			return out, err
		}
		if prev == nil {
			out.Versions = append(out.Versions, ref)
		}
	}
	return out, nil
}

// storedVersion returns the version of this profile with iri, or nil
func (r *importRun) storedVersion(ctx context.Context, versionIRI string) (*model.ProfileVersion, error) {
	if r.profileCreated {
		return nil, nil
	}
	v, err := r.tx.GetVersionByIRI(ctx, versionIRI)
	if err != nil {
		if model.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	if v.ProfileID != r.profile.ID {
		return nil, nil
	}
	return v, nil
}

// findVersion returns the stored draft the document describes: the version
// with the same IRI, or else the profile's current draft. A match that is
// no longer a draft is a conflict unless the document is identical to it.
func (r *importRun) findVersion(ctx context.Context, versionIRI string) (*model.ProfileVersion, error) {
	existing, err := r.tx.GetVersionByIRI(ctx, versionIRI)
	switch {
	case err == nil:
		if existing.ProfileID != r.profile.ID {
			return nil, model.NewValidationError("Profile is not valid", model.FieldError{
				Field:   "versions.0.id",
				Message: fmt.Sprintf("%s is a version of another profile", versionIRI),
			})
		}
		if !existing.IsDraft() {
			same, err := r.matches(ctx, existing)
			if err != nil {
				return nil, err
			}
			if !same {
				return nil, model.NewConflict(fmt.Sprintf("Version %s is %s and cannot be re-imported", versionIRI, existing.State))
			}
			r.unchanged = true
			return existing, nil
		}
		r.previousState = existing.State
		return existing, r.loadOwned(ctx, existing)
	case !model.IsNotFound(err):
		return nil, err
	}

	if r.profileCreated || r.profile.CurrentDraftVersionID == nil {
		return nil, nil
	}
	draft, err := r.tx.GetVersion(ctx, *r.profile.CurrentDraftVersionID)
	if err != nil {
		if model.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	if !draft.IsDraft() {
		return nil, nil
	}
	r.previousState = draft.State
	return draft, r.loadOwned(ctx, draft)
}

// matches reports whether the document says the same as the stored export
// of version. The author comes from the document since it is not stored.
func (r *importRun) matches(ctx context.Context, version *model.ProfileVersion) (bool, error) {
	graph, err := repository.LoadGraph(ctx, r.tx, version)
	if err != nil {
		return false, err
	}
	graph.Author = model.Author{Name: r.doc.Author.Name, URL: r.doc.Author.URL}
	stored, err := exporter.Marshal(graph)
	if err != nil {
		return false, model.NewInternal("failed to serialize profile", err)
	}

	var want, got interface{}
	if err := json.Unmarshal(r.raw, &want); err != nil {
		return false, model.NewInvalidDocument(err)
	}
	if err := json.Unmarshal(stored, &got); err != nil {
		return false, model.NewInternal("failed to read stored profile", err)
	}
	return reflect.DeepEqual(want, got), nil
}

// ownedComponent is a component record the reused draft already holds
type ownedComponent struct {
	typ    model.ComponentType
	header model.ComponentHeader
}

// loadOwned indexes the draft's own components. Only these are updated in
// place; anything a published version holds is left alone.
func (r *importRun) loadOwned(ctx context.Context, draft *model.ProfileVersion) error {
	r.owned = make(map[string]ownedComponent)
	keep := func(t model.ComponentType, h model.ComponentHeader) {
		if h.ParentVersionID == draft.ID {
			r.owned[h.IRI] = ownedComponent{typ: t, header: h}
		}
	}

	concepts, err := r.tx.GetConcepts(ctx, draft.Concepts)
	if err != nil {
		return err
	}
	for _, c := range concepts {
		keep(model.ComponentConcept, c.ComponentHeader)
	}
	templates, err := r.tx.GetTemplates(ctx, draft.Templates)
	if err != nil {
		return err
	}
	for _, t := range templates {
		keep(model.ComponentTemplate, t.ComponentHeader)
	}
	patterns, err := r.tx.GetPatterns(ctx, draft.Patterns)
	if err != nil {
		return err
	}
	for _, p := range patterns {
		keep(model.ComponentPattern, p.ComponentHeader)
	}
	return nil
}

func (r *importRun) newVersion(ctx context.Context) (*model.ProfileVersion, error) {
	number := 1
	if !r.profileCreated {
		versions, err := r.tx.ListVersions(ctx, r.profile.ID)
		if err != nil {
			return nil, err
		}
		if len(versions) > 0 {
			number = versions[0].Version + 1
		}
	}
	r.versionCreated = true
	return &model.ProfileVersion{
		ID:             uuid.New(),
		ProfileID:      r.profile.ID,
		OrganizationID: r.orgID,
		Version:        number,
		State:          model.StateDraft,
		CreatedOn:      r.now,
	}, nil
}

// ========================================
// COMPONENT LAYER
// ========================================

// docEntry is a component declared in the document being imported
type docEntry struct {
	id      uuid.UUID
	typ     model.ComponentType
	primary bool
}

func (r *importRun) scanComponentLayer(ctx context.Context) error {
	var errs []model.FieldError
	declared := make(map[string]docEntry)

	// concepts and templates first so patterns can point at them
	for i, cd := range r.doc.Concepts {
		field := fmt.Sprintf("concepts.%d", i)
		header, fe := r.header(ctx, field, cd.ID, model.ComponentConcept)
		if fe != nil {
			errs = append(errs, *fe)
			continue
		}
		if cd.Type != model.KindActivity {
			header.Name, header.Description, header.Translations = model.SplitLanguageMaps(cd.PrefLabel, cd.Definition)
		}
		header.Deprecated = cd.Deprecated
		r.concepts = append(r.concepts, &model.Concept{ComponentHeader: header, Kind: cd.Type, Body: cd.Body()})
		declared[cd.ID] = docEntry{id: header.ID, typ: model.ComponentConcept}
	}

	for i, td := range r.doc.Templates {
		field := fmt.Sprintf("templates.%d", i)
		header, fe := r.header(ctx, field, td.ID, model.ComponentTemplate)
		if fe != nil {
			errs = append(errs, *fe)
			continue
		}
		header.Name, header.Description, header.Translations = model.SplitLanguageMaps(td.PrefLabel, td.Definition)
		header.Deprecated = td.Deprecated
		r.templates = append(r.templates, &model.Template{ComponentHeader: header, TemplateBody: td.TemplateBody})
		declared[td.ID] = docEntry{id: header.ID, typ: model.ComponentTemplate}
	}

	// identities of every pattern are needed before any member is resolved
	headers := make([]model.ComponentHeader, len(r.doc.Patterns))
	resolved := make([]bool, len(r.doc.Patterns))
	for i, pd := range r.doc.Patterns {
		field := fmt.Sprintf("patterns.%d", i)
		header, fe := r.header(ctx, field, pd.ID, model.ComponentPattern)
		if fe != nil {
			errs = append(errs, *fe)
			continue
		}
		headers[i] = header
		resolved[i] = true
		declared[pd.ID] = docEntry{id: header.ID, typ: model.ComponentPattern, primary: pd.Primary}
	}

	for i, pd := range r.doc.Patterns {
		if !resolved[i] {
			continue
		}
		header := headers[i]
		header.Name, header.Description, header.Translations = model.SplitLanguageMaps(pd.PrefLabel, pd.Definition)
		header.Deprecated = pd.Deprecated

		op, memberIRIs := pd.Operator()
		members := make([]model.ComponentRef, 0, len(memberIRIs))
		for _, memberIRI := range memberIRIs {
			ref, fe := r.member(ctx, fmt.Sprintf("patterns.%d", i), memberIRI, declared)
			if fe != nil {
				errs = append(errs, *fe)
				continue
			}
			members = append(members, ref)
		}
		r.patterns = append(r.patterns, &model.Pattern{
			ComponentHeader: header,
			PatternBody:     model.PatternBody{Primary: pd.Primary, Type: op, Members: members},
		})
	}

	if len(errs) > 0 {
		return model.NewValidationError("Profile components could not be imported", errs...)
	}
	return nil
}

// header reuses the draft's own record for iri or prepares a new one. An
// IRI held by another profile, or by a component of another type, is
// reported as a field error.
func (r *importRun) header(ctx context.Context, field, componentIRI string, t model.ComponentType) (model.ComponentHeader, *model.FieldError) {
	fresh := model.ComponentHeader{
		ID:              uuid.New(),
		IRI:             componentIRI,
		ParentVersionID: r.version.ID,
		ParentProfileID: r.profile.ID,
		CreatedOn:       r.now,
		UpdatedOn:       r.now,
	}

	summary, err := r.tx.GetComponentByIRI(ctx, componentIRI)
	if err != nil {
		if model.IsNotFound(err) {
			return fresh, nil
		}
		return fresh, &model.FieldError{Field: field, Message: err.Error()}
	}
	if summary.ParentProfileID != r.profile.ID {
		return fresh, &model.FieldError{Field: field, Message: fmt.Sprintf("%s belongs to another profile", componentIRI)}
	}
	if summary.Type != t {
		return fresh, &model.FieldError{Field: field, Message: fmt.Sprintf("%s is already used by a %s", componentIRI, summary.Type)}
	}

	own, ok := r.owned[componentIRI]
	if !ok || own.typ != t {
		return fresh, nil
	}
	existing := own.header
	existing.UpdatedOn = r.now
	return existing, nil
}

// member resolves a pattern member IRI against the document first and the
// store second, so members may live in other profiles
func (r *importRun) member(ctx context.Context, field, memberIRI string, declared map[string]docEntry) (model.ComponentRef, *model.FieldError) {
	if entry, ok := declared[memberIRI]; ok {
		if entry.typ == model.ComponentConcept {
			return model.ComponentRef{}, &model.FieldError{Field: field, Message: fmt.Sprintf("%s is a concept; pattern members must be templates or patterns", memberIRI)}
		}
		if entry.primary {
			return model.ComponentRef{}, &model.FieldError{Field: field, Message: fmt.Sprintf("%s is a primary pattern and cannot be a member of another pattern", memberIRI)}
		}
		return model.ComponentRef{ComponentID: entry.id, ComponentType: entry.typ, IRI: memberIRI}, nil
	}

	summary, err := r.tx.GetComponentByIRI(ctx, memberIRI)
	if err != nil {
		if model.IsNotFound(err) {
			return model.ComponentRef{}, &model.FieldError{Field: field, Message: fmt.Sprintf("member %s was not found", memberIRI)}
		}
		return model.ComponentRef{}, &model.FieldError{Field: field, Message: err.Error()}
	}
	switch {
	case summary.Type == model.ComponentConcept:
		return model.ComponentRef{}, &model.FieldError{Field: field, Message: fmt.Sprintf("%s is a concept; pattern members must be templates or patterns", memberIRI)}
	case summary.Primary:
		return model.ComponentRef{}, &model.FieldError{Field: field, Message: fmt.Sprintf("%s is a primary pattern and cannot be a member of another pattern", memberIRI)}
	}
	return model.ComponentRef{ComponentID: summary.ID, ComponentType: summary.Type, IRI: memberIRI}, nil
}

// ========================================
// COMMIT
// ========================================

func (r *importRun) save(ctx context.Context) error {
	r.version.Concepts = r.version.Concepts[:0]
	r.version.Templates = r.version.Templates[:0]
	r.version.Patterns = r.version.Patterns[:0]
	for _, c := range r.concepts {
		r.version.AddComponent(model.ComponentConcept, c.ID)
	}
	for _, t := range r.templates {
		r.version.AddComponent(model.ComponentTemplate, t.ID)
	}
	for _, p := range r.patterns {
		r.version.AddComponent(model.ComponentPattern, p.ID)
	}

	draftID := r.version.ID
	r.profile.CurrentDraftVersionID = &draftID
	r.profile.UpdatedOn = r.now

	if r.profileCreated {
		if err := r.tx.CreateProfile(ctx, r.profile); err != nil {
			return err
		}
	} else if err := r.tx.UpdateProfile(ctx, r.profile); err != nil {
		return err
	}

	if r.versionCreated {
		if err := r.tx.CreateVersion(ctx, r.version); err != nil {
			return err
		}
	} else if err := r.tx.TransitionVersion(ctx, r.version, r.previousState); err != nil {
		return err
	}

	for _, c := range r.concepts {
		if err := r.tx.SaveConcept(ctx, c); err != nil {
			return err
		}
	}
	for _, t := range r.templates {
		if err := r.tx.SaveTemplate(ctx, t); err != nil {
			return err
		}
	}
	for _, p := range r.patterns {
		if err := r.tx.SavePattern(ctx, p); err != nil {
			return err
		}
	}
	return nil
}
