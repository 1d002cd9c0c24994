package model

import (
	"time"

	"github.com/google/uuid"
)

// State is the lifecycle state of a profile version
type State string

const (
	StateDraft      State = "draft"
	StatePublished  State = "published"
	StateDeprecated State = "deprecated"
)

// DefaultLanguage is the language of Name/Description on every entity.
// Every other language lives in Translations.
const DefaultLanguage = "en"

// Translation holds a name/description pair for a non-default language
type Translation struct {
	Language    string `json:"language"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
}

// ========================================
// PROFILE (ROOT AGGREGATE)
// ========================================

// Profile is the root of a versioned profile. It only carries identity
// and the two version pointers; everything descriptive lives on versions.
type Profile struct {
	ID                        uuid.UUID  `json:"uuid"`
	IRI                       string     `json:"iri"`
	OrganizationID            uuid.UUID  `json:"organization"`
	CurrentDraftVersionID     *uuid.UUID `json:"currentDraftVersion,omitempty"`
	CurrentPublishedVersionID *uuid.UUID `json:"currentPublishedVersion,omitempty"`
	CreatedOn                 time.Time  `json:"createdOn"`
	UpdatedOn                 time.Time  `json:"updatedOn"`
}

// Clone returns a deep copy
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	cp := *p
	cp.CurrentDraftVersionID = cloneUUIDPtr(p.CurrentDraftVersionID)
	cp.CurrentPublishedVersionID = cloneUUIDPtr(p.CurrentPublishedVersionID)
	return &cp
}

// ========================================
// PROFILE VERSION
// ========================================

// ProfileVersion is one immutable-once-published snapshot of a profile.
// Components are owned through the three identifier lists.
type ProfileVersion struct {
	ID                  uuid.UUID     `json:"uuid"`
	IRI                 string        `json:"iri"`
	ProfileID           uuid.UUID     `json:"parentProfile"`
	OrganizationID      uuid.UUID     `json:"organization"`
	Version             int           `json:"version"`
	State               State         `json:"state"`
	Name                string        `json:"name"`
	Description         string        `json:"description"`
	Translations        []Translation `json:"translations,omitempty"`
	Tags                []string      `json:"tags,omitempty"`
	MoreInformation     string        `json:"moreInformation,omitempty"`
	WasRevisionOf       *uuid.UUID    `json:"wasRevisionOf,omitempty"`
	IsVerified          bool          `json:"isVerified"`
	VerificationRequest *time.Time    `json:"verificationRequest,omitempty"`
	PublishedOn         *time.Time    `json:"publishedOn,omitempty"`
	PublishedBy         string        `json:"publishedBy,omitempty"`
	Concepts            []uuid.UUID   `json:"concepts"`
	Templates           []uuid.UUID   `json:"templates"`
	Patterns            []uuid.UUID   `json:"patterns"`
	CreatedOn           time.Time     `json:"createdOn"`
	UpdatedOn           time.Time     `json:"updatedOn"`

	// ImportedHistory is set on imported versions only
	ImportedHistory ImportedHistory `json:"-"`
}

// ImportedHistory keeps the parts of an imported document's version list
// that no stored version stands for, so exports repeat them
type ImportedHistory struct {
	// RevisionOf is the declared wasRevisionOf of the version itself when
	// the revised version is not stored
	RevisionOf []string `json:"revisionOf,omitempty"`
	// Versions are the older entries, newest first
	Versions []VersionRef `json:"versions,omitempty"`
}

func (h ImportedHistory) IsZero() bool {
	return len(h.RevisionOf) == 0 && len(h.Versions) == 0
}

func (h ImportedHistory) clone() ImportedHistory {
	out := ImportedHistory{RevisionOf: cloneStrings(h.RevisionOf)}
	for _, ref := range h.Versions {
		ref.WasRevisionOf = cloneStrings(ref.WasRevisionOf)
		out.Versions = append(out.Versions, ref)
	}
	return out
}

func (v *ProfileVersion) IsDraft() bool { return v.State == StateDraft }

// HasPublicationHistory reports whether the version was ever published
func (v *ProfileVersion) HasPublicationHistory() bool {
	return v.PublishedOn != nil || v.State != StateDraft
}

// ComponentIDs returns the id list owned for the given component type
func (v *ProfileVersion) ComponentIDs(t ComponentType) []uuid.UUID {
	switch t {
	case ComponentConcept:
		return v.Concepts
	case ComponentTemplate:
		return v.Templates
	case ComponentPattern:
		return v.Patterns
	}
	return nil
}

// AddComponent appends id to the matching list unless it is already there
func (v *ProfileVersion) AddComponent(t ComponentType, id uuid.UUID) {
	if containsUUID(v.ComponentIDs(t), id) {
		return
	}
	switch t {
	case ComponentConcept:
		v.Concepts = append(v.Concepts, id)
	case ComponentTemplate:
		v.Templates = append(v.Templates, id)
	case ComponentPattern:
		v.Patterns = append(v.Patterns, id)
	}
}

// RemoveComponent drops id from the matching list
func (v *ProfileVersion) RemoveComponent(t ComponentType, id uuid.UUID) bool {
	ids := v.ComponentIDs(t)
	out := make([]uuid.UUID, 0, len(ids))
	removed := false
	for _, existing := range ids {
		if existing == id {
			removed = true
			continue
		}
		out = append(out, existing)
	}
	switch t {
	case ComponentConcept:
		v.Concepts = out
	case ComponentTemplate:
		v.Templates = out
	case ComponentPattern:
		v.Patterns = out
	}
	return removed
}

// Clone returns a deep copy
func (v *ProfileVersion) Clone() *ProfileVersion {
	if v == nil {
		return nil
	}
	cp := *v
	cp.Translations = append([]Translation(nil), v.Translations...)
	cp.Tags = append([]string(nil), v.Tags...)
	cp.WasRevisionOf = cloneUUIDPtr(v.WasRevisionOf)
	cp.VerificationRequest = cloneTimePtr(v.VerificationRequest)
	cp.PublishedOn = cloneTimePtr(v.PublishedOn)
	cp.Concepts = append([]uuid.UUID{}, v.Concepts...)
	cp.Templates = append([]uuid.UUID{}, v.Templates...)
	cp.Patterns = append([]uuid.UUID{}, v.Patterns...)
	cp.ImportedHistory = v.ImportedHistory.clone()
	return &cp
}

// Graph is a version loaded together with everything an export needs
type Graph struct {
	Profile   *Profile
	Version   *ProfileVersion
	Versions  []*ProfileVersion // newest first, includes Version
	Author    Author
	Concepts  []*Concept
	Templates []*Template
	Patterns  []*Pattern
}

// Author is the organization credited in exports
type Author struct {
	Name string
	URL  string
}

// ListFilter drives the published profile listing
type ListFilter struct {
	OrganizationID *uuid.UUID
	Limit          int
	Offset         int
}

func cloneUUIDPtr(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	cp := *id
	return &cp
}

func cloneTimePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	cp := *t
	return &cp
}

func containsUUID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, existing := range ids {
		if existing == id {
			return true
		}
	}
	return false
}
