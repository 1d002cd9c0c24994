package service

import (
	"context"

	orgModel "profile-server/internal/domains/organization/model"
	"profile-server/internal/domains/profile/model"
	"profile-server/internal/shared"

	"github.com/google/uuid"
)

// ========================================
// AUTHORIZATION
// ========================================

// authorizeWrite: API keys of the owning organization with write
// permission, or users that are members of it
func (s *profileService) authorizeWrite(ctx context.Context, actor shared.Actor, orgID uuid.UUID) error {
	switch actor.Scope {
	case shared.ScopeAPIKey:
		if actor.OrganizationID == orgID && actor.CanWrite {
			return nil
		}
	case shared.ScopeUser:
		member, err := s.orgs.IsMember(ctx, orgID, actor.UserID)
		if err != nil {
			return model.NewInternal("failed to check membership", err)
		}
		if member {
			return nil
		}
	}
	return model.NewUnauthorized("")
}

// canSeeDrafts: drafts are only visible inside the owning organization
func (s *profileService) canSeeDrafts(ctx context.Context, actor shared.Actor, orgID uuid.UUID) bool {
	switch actor.Scope {
	case shared.ScopeAPIKey:
		return actor.OrganizationID == orgID && actor.CanRead
	case shared.ScopeUser:
		member, err := s.orgs.IsMember(ctx, orgID, actor.UserID)
		return err == nil && member
	}
	return false
}

// ========================================
// LOOKUPS
// ========================================

// locate resolves id to its profile. version is nil when id names the
// profile root.
func (s *profileService) locate(ctx context.Context, id uuid.UUID) (*model.Profile, *model.ProfileVersion, error) {
	if id == uuid.Nil {
		return nil, nil, model.NewInvalidID(id.String())
	}

	version, err := s.repo.GetVersion(ctx, id)
	if err == nil {
		profile, err := s.repo.GetProfile(ctx, version.ProfileID)
		if err != nil {
			return nil, nil, err
		}
		return profile, version, nil
	}
	if !model.IsNotFound(err) {
		return nil, nil, err
	}

	profile, err := s.repo.GetProfile(ctx, id)
	if err != nil {
		if model.IsNotFound(err) {
			return nil, nil, model.NewNotFound("Profile")
		}
		return nil, nil, err
	}
	return profile, nil, nil
}

// draftOf returns the version named by id, or the current draft for a root id
func (s *profileService) draftOf(ctx context.Context, id uuid.UUID) (*model.Profile, *model.ProfileVersion, error) {
	profile, version, err := s.locate(ctx, id)
	if err != nil || version != nil {
		return profile, version, err
	}
	if profile.CurrentDraftVersionID == nil {
		return nil, nil, model.NewNotFound("Draft")
	}
	version, err = s.repo.GetVersion(ctx, *profile.CurrentDraftVersionID)
	if err != nil {
		return nil, nil, err
	}
	return profile, version, nil
}

// visibleVersion returns the version named by id, or for a root id the
// draft (when preferDraft) or the published version. Drafts the caller may
// not see are reported as missing.
func (s *profileService) visibleVersion(ctx context.Context, actor shared.Actor, id uuid.UUID, preferDraft bool) (*model.Profile, *model.ProfileVersion, error) {
	profile, version, err := s.locate(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	drafts := s.canSeeDrafts(ctx, actor, profile.OrganizationID)

	if version == nil {
		order := []*uuid.UUID{profile.CurrentPublishedVersionID}
		if drafts {
			order = append(order, profile.CurrentDraftVersionID)
			if preferDraft {
				order[0], order[1] = order[1], order[0]
			}
		}
		for _, candidate := range order {
			if candidate == nil {
				continue
			}
			version, err = s.repo.GetVersion(ctx, *candidate)
			if err != nil {
				return nil, nil, err
			}
			break
		}
	}

	if version == nil || (version.IsDraft() && !drafts) {
		return nil, nil, model.NewNotFound("Profile version")
	}
	return profile, version, nil
}

// ========================================
// ORGANIZATIONS
// ========================================

func (s *profileService) organization(ctx context.Context, id uuid.UUID) (*orgModel.Organization, error) {
	org, err := s.orgs.Get(ctx, id)
	if err != nil {
		if orgModel.IsNotFound(err) {
			return nil, model.NewNotFound("Organization")
		}
		return nil, model.NewInternal("failed to load organization", err)
	}
	return org, nil
}

func (s *profileService) author(ctx context.Context, orgID uuid.UUID) (model.Author, error) {
	org, err := s.organization(ctx, orgID)
	if err != nil {
		return model.Author{}, err
	}
	return model.Author{Name: org.Name, URL: org.CollaborationLink}, nil
}

// workingGroups memoizes organization names for one listing
type workingGroups struct {
	svc   *profileService
	known map[uuid.UUID]model.WorkingGroup
}

func (s *profileService) newWorkingGroups() *workingGroups {
	return &workingGroups{svc: s, known: make(map[uuid.UUID]model.WorkingGroup)}
}

func (w *workingGroups) get(ctx context.Context, orgID uuid.UUID) model.WorkingGroup {
	if wg, ok := w.known[orgID]; ok {
		return wg
	}
	wg := model.WorkingGroup{UUID: orgID}
	if org, err := w.svc.organization(ctx, orgID); err == nil {
		wg.Name = org.Name
	}
	w.known[orgID] = wg
	return wg
}
