package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"profile-server/internal/domains/profile/iri"
	"profile-server/internal/domains/profile/model"
	"profile-server/internal/domains/profile/repository"
	"profile-server/internal/shared"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ========================================
// CONCEPTS
// ========================================

func (s *profileService) CreateConcept(ctx context.Context, actor shared.Actor, profileID uuid.UUID, req *model.ConceptRequest) (*model.Concept, error) {
	if err := req.Validate(); err != nil {
		return nil, model.FromValidation(err)
	}
	profile, draft, err := s.editableDraft(ctx, actor, profileID)
	if err != nil {
		return nil, err
	}
	componentIRI, err := assignIRI(profile.IRI, model.ComponentConcept, req.IRIFields)
	if err != nil {
		return nil, err
	}
	if err := s.claimIRI(ctx, draft, componentIRI); err != nil {
		return nil, err
	}
	body, err := decodeBody(req)
	if err != nil {
		return nil, err
	}

	now := s.now()
	concept := &model.Concept{
		ComponentHeader: newHeader(draft, componentIRI, req.HeaderFields, now),
		Kind:            req.Type,
		Body:            body,
	}
	err = s.attach(ctx, draft, model.ComponentConcept, concept.ID, func(tx repository.Repository) error {
		return tx.SaveConcept(ctx, concept)
	})
	if err != nil {
		return nil, err
	}
	return concept, nil
}

func (s *profileService) UpdateConcept(ctx context.Context, actor shared.Actor, profileID, conceptID uuid.UUID, req *model.ConceptRequest) (*model.Concept, error) {
	if err := req.ValidateContent(); err != nil {
		return nil, model.FromValidation(err)
	}
	profile, draft, err := s.editableDraft(ctx, actor, profileID)
	if err != nil {
		return nil, err
	}
	if err := ownedBy(draft, model.ComponentConcept, conceptID); err != nil {
		return nil, err
	}
	found, err := s.repo.GetConcepts(ctx, []uuid.UUID{conceptID})
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, model.NewNotFound("Concept")
	}
	concept := found[0]
	if err := editableCopy(draft, concept.ComponentHeader); err != nil {
		return nil, err
	}
	if err := checkIRIUnchanged(profile.IRI, model.ComponentConcept, concept.IRI, req.IRIFields); err != nil {
		return nil, err
	}
	body, err := decodeBody(req)
	if err != nil {
		return nil, err
	}

	applyHeader(&concept.ComponentHeader, req.HeaderFields, s.now())
	concept.Kind = req.Type
	concept.Body = body
	if err := s.repo.SaveConcept(ctx, concept); err != nil {
		return nil, err
	}
	return concept, nil
}

func decodeBody(req *model.ConceptRequest) (model.ConceptBody, error) {
	body, err := model.DecodeConceptBody(req.Type, req.Body)
	if err != nil {
		return nil, model.NewValidationError("Request validation failed",
			model.FieldError{Field: "body", Message: fmt.Sprintf("body does not match %s: %v", req.Type, err)})
	}
	return body, nil
}

// ========================================
// TEMPLATES
// ========================================

func (s *profileService) CreateTemplate(ctx context.Context, actor shared.Actor, profileID uuid.UUID, req *model.TemplateRequest) (*model.Template, error) {
	if err := req.Validate(); err != nil {
		return nil, model.FromValidation(err)
	}
	profile, draft, err := s.editableDraft(ctx, actor, profileID)
	if err != nil {
		return nil, err
	}
	componentIRI, err := assignIRI(profile.IRI, model.ComponentTemplate, req.IRIFields)
	if err != nil {
		return nil, err
	}
	if err := s.claimIRI(ctx, draft, componentIRI); err != nil {
		return nil, err
	}

	template := &model.Template{
		ComponentHeader: newHeader(draft, componentIRI, req.HeaderFields, s.now()),
		TemplateBody:    req.TemplateBody,
	}
	err = s.attach(ctx, draft, model.ComponentTemplate, template.ID, func(tx repository.Repository) error {
		return tx.SaveTemplate(ctx, template)
	})
	if err != nil {
		return nil, err
	}
	return template, nil
}

func (s *profileService) UpdateTemplate(ctx context.Context, actor shared.Actor, profileID, templateID uuid.UUID, req *model.TemplateRequest) (*model.Template, error) {
	if err := req.ValidateContent(); err != nil {
		return nil, model.FromValidation(err)
	}
	profile, draft, err := s.editableDraft(ctx, actor, profileID)
	if err != nil {
		return nil, err
	}
	if err := ownedBy(draft, model.ComponentTemplate, templateID); err != nil {
		return nil, err
	}
	found, err := s.repo.GetTemplates(ctx, []uuid.UUID{templateID})
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, model.NewNotFound("Template")
	}
	template := found[0]
	if err := editableCopy(draft, template.ComponentHeader); err != nil {
		return nil, err
	}
	if err := checkIRIUnchanged(profile.IRI, model.ComponentTemplate, template.IRI, req.IRIFields); err != nil {
		return nil, err
	}

	applyHeader(&template.ComponentHeader, req.HeaderFields, s.now())
	template.TemplateBody = req.TemplateBody
	if err := s.repo.SaveTemplate(ctx, template); err != nil {
		return nil, err
	}
	return template, nil
}

// ========================================
// PATTERNS
// ========================================

func (s *profileService) CreatePattern(ctx context.Context, actor shared.Actor, profileID uuid.UUID, req *model.PatternRequest) (*model.Pattern, error) {
	if err := req.Validate(); err != nil {
		return nil, model.FromValidation(err)
	}
	profile, draft, err := s.editableDraft(ctx, actor, profileID)
	if err != nil {
		return nil, err
	}
	componentIRI, err := assignIRI(profile.IRI, model.ComponentPattern, req.IRIFields)
	if err != nil {
		return nil, err
	}
	if err := s.claimIRI(ctx, draft, componentIRI); err != nil {
		return nil, err
	}

	pattern := &model.Pattern{
		ComponentHeader: newHeader(draft, componentIRI, req.HeaderFields, s.now()),
		PatternBody:     model.PatternBody{Primary: req.Primary(), Type: req.Type},
	}
	if pattern.Members, err = s.resolveMembers(ctx, draft, req.Members, pattern.ID); err != nil {
		return nil, err
	}

	err = s.attach(ctx, draft, model.ComponentPattern, pattern.ID, func(tx repository.Repository) error {
		return tx.SavePattern(ctx, pattern)
	})
	if err != nil {
		return nil, err
	}
	return pattern, nil
}

func (s *profileService) UpdatePattern(ctx context.Context, actor shared.Actor, profileID, patternID uuid.UUID, req *model.PatternRequest) (*model.Pattern, error) {
	if err := req.ValidateContent(); err != nil {
		return nil, model.FromValidation(err)
	}
	profile, draft, err := s.editableDraft(ctx, actor, profileID)
	if err != nil {
		return nil, err
	}
	if err := ownedBy(draft, model.ComponentPattern, patternID); err != nil {
		return nil, err
	}
	found, err := s.repo.GetPatterns(ctx, []uuid.UUID{patternID})
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, model.NewNotFound("Pattern")
	}
	pattern := found[0]
	if err := editableCopy(draft, pattern.ComponentHeader); err != nil {
		return nil, err
	}
	if err := checkIRIUnchanged(profile.IRI, model.ComponentPattern, pattern.IRI, req.IRIFields); err != nil {
		return nil, err
	}

	if req.Primary() && !pattern.Primary {
		refs, err := s.repo.PatternsReferencing(ctx, pattern.ID)
		if err != nil {
			return nil, err
		}
		if len(refs) > 0 {
			return nil, model.NewValidationError("Request validation failed",
				model.FieldError{Field: "primaryorsecondary", Message: "a pattern used as a member of another pattern cannot be primary"})
		}
	}
	members, err := s.resolveMembers(ctx, draft, req.Members, pattern.ID)
	if err != nil {
		return nil, err
	}

	applyHeader(&pattern.ComponentHeader, req.HeaderFields, s.now())
	pattern.Primary = req.Primary()
	pattern.Type = req.Type
	pattern.Members = members
	if err := s.repo.SavePattern(ctx, pattern); err != nil {
		return nil, err
	}
	return pattern, nil
}

// resolveMembers turns member requests into stored references. Members may
// live in other profiles; members of this profile resolve to the draft's
// own copy. Problems are reported together.
func (s *profileService) resolveMembers(ctx context.Context, draft *model.ProfileVersion, reqs []model.MemberRequest, self uuid.UUID) ([]model.ComponentRef, error) {
	refs := make([]model.ComponentRef, 0, len(reqs))
	var problems []model.FieldError

	local, err := s.draftMembers(ctx, draft)
	if err != nil {
		return nil, err
	}

	for i, m := range reqs {
		field := fmt.Sprintf("members[%d]", i)
		summary, err := s.memberSummary(ctx, m)
		if err == nil && summary.ParentProfileID == draft.ProfileID && summary.ParentVersionID != draft.ID {
			if own, ok := local[summary.IRI]; ok {
				summary = own
			} else {
				err = model.NewNotFound("Member")
			}
		}
		if err != nil {
			if !model.IsNotFound(err) {
				return nil, err
			}
			problems = append(problems, model.FieldError{Field: field, Message: fmt.Sprintf("member %s was not found", memberLabel(m))})
			continue
		}

		var problem string
		switch {
		case summary.Type == model.ComponentConcept:
			problem = "members must be templates or patterns"
		case m.ComponentType != "" && m.ComponentType != summary.Type:
			problem = fmt.Sprintf("member is a %s, not a %s", summary.Type, m.ComponentType)
		case summary.ID == self:
			problem = "a pattern cannot be a member of itself"
		case summary.Type == model.ComponentPattern && summary.Primary:
			problem = "a primary pattern cannot be a member of another pattern"
		}
		if problem != "" {
			problems = append(problems, model.FieldError{Field: field, Message: problem})
			continue
		}
		refs = append(refs, model.ComponentRef{ComponentID: summary.ID, ComponentType: summary.Type, IRI: summary.IRI})
	}

	if len(problems) > 0 {
		return nil, model.NewValidationError("Pattern members could not be resolved", problems...)
	}
	return refs, nil
}

// draftMembers indexes the templates and patterns the draft owns by IRI
func (s *profileService) draftMembers(ctx context.Context, draft *model.ProfileVersion) (map[string]*model.ComponentSummary, error) {
	templates, err := s.repo.GetTemplates(ctx, draft.Templates)
	if err != nil {
		return nil, err
	}
	patterns, err := s.repo.GetPatterns(ctx, draft.Patterns)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*model.ComponentSummary, len(templates)+len(patterns))
	for _, t := range templates {
		out[t.IRI] = &model.ComponentSummary{ID: t.ID, IRI: t.IRI, Type: model.ComponentTemplate, ParentVersionID: t.ParentVersionID, ParentProfileID: t.ParentProfileID}
	}
	for _, p := range patterns {
		out[p.IRI] = &model.ComponentSummary{ID: p.ID, IRI: p.IRI, Type: model.ComponentPattern, ParentVersionID: p.ParentVersionID, ParentProfileID: p.ParentProfileID, Primary: p.Primary}
	}
	return out, nil
}

func (s *profileService) memberSummary(ctx context.Context, m model.MemberRequest) (*model.ComponentSummary, error) {
	if m.ID != nil {
		return s.repo.GetComponent(ctx, *m.ID)
	}
	if strings.TrimSpace(m.IRI) == "" {
		return nil, model.NewNotFound("Member")
	}
	return s.repo.GetComponentByIRI(ctx, strings.TrimSpace(m.IRI))
}

func memberLabel(m model.MemberRequest) string {
	if m.ID != nil {
		return m.ID.String()
	}
	return m.IRI
}

// ========================================
// DELETE
// ========================================

// DeleteComponent unlinks a component from the draft. The record itself
// is only removed when no version owns it and no pattern references it.
func (s *profileService) DeleteComponent(ctx context.Context, actor shared.Actor, profileID uuid.UUID, t model.ComponentType, componentID uuid.UUID) error {
	if !t.Valid() {
		return model.NewValidationError("Invalid component type",
			model.FieldError{Field: "componentType", Message: fmt.Sprintf("unknown component type %q", t)})
	}
	_, draft, err := s.editableDraft(ctx, actor, profileID)
	if err != nil {
		return err
	}
	if err := ownedBy(draft, t, componentID); err != nil {
		return err
	}

	return s.repo.WithTx(ctx, func(tx repository.Repository) error {
		refs, err := tx.PatternsReferencing(ctx, componentID)
		if err != nil {
			return err
		}
		for _, ref := range refs {
			if containsID(draft.Patterns, ref) {
				return model.NewConflict("Component is a member of a pattern in this profile; remove it from the pattern first")
			}
		}

		updated := draft.Clone()
		updated.RemoveComponent(t, componentID)
		updated.UpdatedOn = s.now()
		if err := tx.UpdateVersion(ctx, updated); err != nil {
			return err
		}

		owners, err := tx.VersionsOwning(ctx, t, componentID)
		if err != nil {
			return err
		}
		if len(owners) == 0 && len(refs) == 0 {
			if err := tx.DeleteComponent(ctx, componentID); err != nil {
				return err
			}
			log.Info().Str("component_id", componentID.String()).Str("type", string(t)).Msg("Component deleted")
		}
		return nil
	})
}

// ========================================
// HELPERS
// ========================================

// editableDraft returns the current draft of a profile the caller may write
func (s *profileService) editableDraft(ctx context.Context, actor shared.Actor, id uuid.UUID) (*model.Profile, *model.ProfileVersion, error) {
	profile, draft, err := s.draftOf(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if err := s.authorizeWrite(ctx, actor, profile.OrganizationID); err != nil {
		return nil, nil, err
	}
	if !draft.IsDraft() {
		return nil, nil, model.NewNotAllowed("Not Allowed: Only drafts can be edited.")
	}
	return profile, draft, nil
}

// attach saves a new component and links it to the draft in one transaction
func (s *profileService) attach(ctx context.Context, draft *model.ProfileVersion, t model.ComponentType, id uuid.UUID, save func(tx repository.Repository) error) error {
	return s.repo.WithTx(ctx, func(tx repository.Repository) error {
		if err := save(tx); err != nil {
			return err
		}
		updated := draft.Clone()
		updated.AddComponent(t, id)
		updated.UpdatedOn = s.now()
		return tx.UpdateVersion(ctx, updated)
	})
}

// claimIRI rejects an IRI another profile already uses. Within this
// profile every version holds its own copy, so reuse is fine.
func (s *profileService) claimIRI(ctx context.Context, draft *model.ProfileVersion, componentIRI string) error {
	existing, err := s.repo.GetComponentByIRI(ctx, componentIRI)
	if err != nil {
		if model.IsNotFound(err) {
			return nil
		}
		return err
	}
	if existing.ParentProfileID != draft.ProfileID {
		return model.NewConflict(fmt.Sprintf("a component with IRI %s already exists", componentIRI))
	}
	return nil
}

// editableCopy guards against writing through to a record a published
// version still owns
func editableCopy(draft *model.ProfileVersion, h model.ComponentHeader) error {
	if h.ParentVersionID != draft.ID {
		return model.NewNotAllowed("Not Allowed: Only drafts can be edited.")
	}
	return nil
}

func assignIRI(profileIRI string, t model.ComponentType, f model.IRIFields) (string, error) {
	value := f.ExtIRI
	if f.IRIType == model.IRITypeGenerated {
		value = f.GenIRI
	}
	return iri.Resolve(profileIRI, t, iri.Mode(f.IRIType), strings.TrimSpace(value))
}

// checkIRIUnchanged rejects updates that would give a component a new IRI.
// Leaving the IRI fields out keeps the current one.
func checkIRIUnchanged(profileIRI string, t model.ComponentType, current string, f model.IRIFields) error {
	if f.IRIType == "" {
		return nil
	}
	requested, err := assignIRI(profileIRI, t, f)
	if err != nil {
		return err
	}
	if requested != current {
		return model.NewIRIImmutable(current)
	}
	return nil
}

func ownedBy(draft *model.ProfileVersion, t model.ComponentType, id uuid.UUID) error {
	if !containsID(draft.ComponentIDs(t), id) {
		name := string(t)
		return model.NewNotFound(strings.ToUpper(name[:1]) + name[1:])
	}
	return nil
}

func newHeader(draft *model.ProfileVersion, componentIRI string, f model.HeaderFields, now time.Time) model.ComponentHeader {
	h := model.ComponentHeader{
		ID:              uuid.New(),
		IRI:             componentIRI,
		ParentVersionID: draft.ID,
		ParentProfileID: draft.ProfileID,
		CreatedOn:       now,
	}
	applyHeader(&h, f, now)
	return h
}

func applyHeader(h *model.ComponentHeader, f model.HeaderFields, now time.Time) {
	h.Name = strings.TrimSpace(f.Name)
	h.Description = strings.TrimSpace(f.Description)
	h.Translations = f.Translations
	h.Tags = f.Tags
	h.Deprecated = f.Deprecated
	h.UpdatedOn = now
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, existing := range ids {
		if existing == id {
			return true
		}
	}
	return false
}
