// Package lifecycle holds the version state machine. Everything here is
// pure: functions take entities and return the changed copies, and the
// repository applies them with conditional updates.
package lifecycle

import (
	"fmt"
	"time"

	"profile-server/internal/domains/profile/iri"
	"profile-server/internal/domains/profile/model"

	"github.com/google/uuid"
)

// transitions lists the allowed target states per source state
var transitions = map[model.State][]model.State{
	model.StateDraft:     {model.StatePublished},
	model.StatePublished: {model.StateDeprecated},
}

// CanTransition reports whether a version may move from one state to another
func CanTransition(from, to model.State) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Snapshot derives the next draft from a published version: same component
// lists, version number + 1, fresh IRI, revision link to the source.
// CopyComponents then gives the draft its own component records.
func Snapshot(published *model.ProfileVersion, profileIRI string, id uuid.UUID, now time.Time) *model.ProfileVersion {
	draft := published.Clone()
	sourceID := published.ID

	draft.ID = id
	draft.Version = published.Version + 1
	draft.IRI = iri.Version(profileIRI, draft.Version)
	draft.State = model.StateDraft
	draft.WasRevisionOf = &sourceID
	draft.IsVerified = false
	draft.VerificationRequest = nil
	draft.PublishedOn = nil
	draft.PublishedBy = ""
	draft.ImportedHistory = model.ImportedHistory{}
	draft.CreatedOn = now
	draft.UpdatedOn = now
	return draft
}

// PublishOutcome is everything a publish changes
type PublishOutcome struct {
	Profile   *model.Profile
	Published *model.ProfileVersion
	Draft     *model.ProfileVersion
}

// Publish moves a draft to published, points the profile at it and
// creates the follow-up draft.
func Publish(profile *model.Profile, version *model.ProfileVersion, actor string, draftID uuid.UUID, now time.Time) (*PublishOutcome, error) {
	if version.ProfileID != profile.ID {
		return nil, model.NewInternal("version does not belong to profile", fmt.Errorf("version %s, profile %s", version.ID, profile.ID))
	}
	if !CanTransition(version.State, model.StatePublished) {
		return nil, model.NewConflict(fmt.Sprintf("Only drafts can be published; version %d is %s", version.Version, version.State))
	}

	published := version.Clone()
	published.State = model.StatePublished
	published.PublishedOn = &now
	published.PublishedBy = actor
	published.UpdatedOn = now

	draft := Snapshot(published, profile.IRI, draftID, now)

	updated := profile.Clone()
	publishedID := published.ID
	newDraftID := draft.ID
	updated.CurrentPublishedVersionID = &publishedID
	updated.CurrentDraftVersionID = &newDraftID
	updated.UpdatedOn = now

	return &PublishOutcome{Profile: updated, Published: published, Draft: draft}, nil
}

// ComponentCopies are the records a new draft owns after a publish
type ComponentCopies struct {
	Concepts  []*model.Concept
	Templates []*model.Template
	Patterns  []*model.Pattern
}

// CopyComponents copies the published components into draft, so the draft
// can be edited while the published records stay as they are. Copies keep
// their IRI and get a new id; the draft's lists point at the copies in the
// original order, and pattern members that point at a copied component
// point at its copy. Members in other profiles are left alone.
func CopyComponents(draft *model.ProfileVersion, concepts []*model.Concept, templates []*model.Template, patterns []*model.Pattern, newID func() uuid.UUID, now time.Time) *ComponentCopies {
	remap := make(map[uuid.UUID]uuid.UUID, len(concepts)+len(templates)+len(patterns))
	header := func(h model.ComponentHeader) model.ComponentHeader {
		id := newID()
		remap[h.ID] = id
		h.ID = id
		h.ParentVersionID = draft.ID
		h.CreatedOn = now
		h.UpdatedOn = now
		return h
	}

	out := &ComponentCopies{}
	draft.Concepts = make([]uuid.UUID, 0, len(concepts))
	for _, c := range concepts {
		cp := c.Clone()
		cp.ComponentHeader = header(cp.ComponentHeader)
		draft.Concepts = append(draft.Concepts, cp.ID)
		out.Concepts = append(out.Concepts, cp)
	}
	draft.Templates = make([]uuid.UUID, 0, len(templates))
	for _, t := range templates {
		cp := t.Clone()
		cp.ComponentHeader = header(cp.ComponentHeader)
		draft.Templates = append(draft.Templates, cp.ID)
		out.Templates = append(out.Templates, cp)
	}
	draft.Patterns = make([]uuid.UUID, 0, len(patterns))
	for _, p := range patterns {
		cp := p.Clone()
		cp.ComponentHeader = header(cp.ComponentHeader)
		draft.Patterns = append(draft.Patterns, cp.ID)
		out.Patterns = append(out.Patterns, cp)
	}

	// every id is known now, rewire members
	for _, p := range out.Patterns {
		for i, m := range p.Members {
			if id, ok := remap[m.ComponentID]; ok {
				p.Members[i].ComponentID = id
			}
		}
	}
	return out
}

// Deprecate moves a published version to deprecated. When it was the
// profile's current published version, the pointer moves to replacement
// (nil clears it).
func Deprecate(profile *model.Profile, version, replacement *model.ProfileVersion, now time.Time) (*model.Profile, *model.ProfileVersion, error) {
	if !CanTransition(version.State, model.StateDeprecated) {
		return nil, nil, model.NewConflict(fmt.Sprintf("Only published versions can be deprecated; version %d is %s", version.Version, version.State))
	}
	if replacement != nil {
		if replacement.ProfileID != profile.ID || replacement.State != model.StatePublished || replacement.ID == version.ID {
			return nil, nil, model.NewValidationError("Invalid replacement version",
				model.FieldError{Field: "replacedBy", Message: "replacement must be another published version of the same profile"})
		}
	}

	deprecated := version.Clone()
	deprecated.State = model.StateDeprecated
	deprecated.UpdatedOn = now

	updated := profile.Clone()
	if updated.CurrentPublishedVersionID != nil && *updated.CurrentPublishedVersionID == version.ID {
		if replacement != nil {
			id := replacement.ID
			updated.CurrentPublishedVersionID = &id
		} else {
			updated.CurrentPublishedVersionID = nil
		}
	}
	updated.UpdatedOn = now
	return updated, deprecated, nil
}

// LatestPublished returns the newest published version other than exclude
func LatestPublished(versions []*model.ProfileVersion, exclude uuid.UUID) *model.ProfileVersion {
	var latest *model.ProfileVersion
	for _, v := range versions {
		if v.ID == exclude || v.State != model.StatePublished {
			continue
		}
		if latest == nil || v.Version > latest.Version {
			latest = v
		}
	}
	return latest
}

// CheckDeletable returns a NotAllowed error unless the version is a draft
// that was never published
func CheckDeletable(version *model.ProfileVersion) error {
	if !version.IsDraft() || version.HasPublicationHistory() {
		return model.NewNotAllowed("Not Allowed: Only drafts can be deleted.")
	}
	return nil
}
