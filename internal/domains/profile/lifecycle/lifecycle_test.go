package lifecycle

import (
	"testing"
	"time"

	"profile-server/internal/domains/profile/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixture() (*model.Profile, *model.ProfileVersion) {
	profile := &model.Profile{ID: uuid.New(), IRI: "https://example.org/profiles/p"}
	version := &model.ProfileVersion{
		ID:        uuid.New(),
		IRI:       "https://example.org/profiles/p/v/1",
		ProfileID: profile.ID,
		Version:   1,
		State:     model.StateDraft,
		Name:      "P",
		Concepts:  []uuid.UUID{uuid.New()},
		Templates: []uuid.UUID{uuid.New(), uuid.New()},
		Patterns:  []uuid.UUID{uuid.New()},
	}
	draftID := version.ID
	profile.CurrentDraftVersionID = &draftID
	return profile, version
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(model.StateDraft, model.StatePublished))
	assert.True(t, CanTransition(model.StatePublished, model.StateDeprecated))
	assert.False(t, CanTransition(model.StatePublished, model.StatePublished))
	assert.False(t, CanTransition(model.StateDeprecated, model.StatePublished))
	assert.False(t, CanTransition(model.StateDraft, model.StateDeprecated))
}

func TestPublish(t *testing.T) {
	profile, version := fixture()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	draftID := uuid.New()

	out, err := Publish(profile, version, "user:alice", draftID, now)
	require.NoError(t, err)

	assert.Equal(t, model.StatePublished, out.Published.State)
	require.NotNil(t, out.Published.PublishedOn)
	assert.Equal(t, now, *out.Published.PublishedOn)
	assert.Equal(t, "user:alice", out.Published.PublishedBy)

	assert.Equal(t, draftID, out.Draft.ID)
	assert.Equal(t, model.StateDraft, out.Draft.State)
	assert.Equal(t, 2, out.Draft.Version)
	assert.Equal(t, "https://example.org/profiles/p/v/2", out.Draft.IRI)
	require.NotNil(t, out.Draft.WasRevisionOf)
	assert.Equal(t, version.ID, *out.Draft.WasRevisionOf)
	assert.Equal(t, version.Concepts, out.Draft.Concepts)
	assert.Equal(t, version.Templates, out.Draft.Templates)
	assert.Equal(t, version.Patterns, out.Draft.Patterns)
	assert.Nil(t, out.Draft.PublishedOn)

	assert.Equal(t, version.ID, *out.Profile.CurrentPublishedVersionID)
	assert.Equal(t, draftID, *out.Profile.CurrentDraftVersionID)

	// inputs are untouched
	assert.Equal(t, model.StateDraft, version.State)
	assert.Nil(t, profile.CurrentPublishedVersionID)
}

func TestPublishOnlyFromDraft(t *testing.T) {
	profile, version := fixture()
	version.State = model.StatePublished

	_, err := Publish(profile, version, "user:alice", uuid.New(), time.Now())

	require.Error(t, err)
	assert.True(t, model.IsConflict(err))
}

func TestSnapshotDoesNotShareSlices(t *testing.T) {
	_, version := fixture()
	draft := Snapshot(version, "https://example.org/profiles/p", uuid.New(), time.Now())

	draft.Concepts[0] = uuid.New()

	assert.NotEqual(t, draft.Concepts[0], version.Concepts[0])
}

func TestDeprecateMovesPointer(t *testing.T) {
	profile, v1 := fixture()
	v1.State = model.StatePublished
	v2 := &model.ProfileVersion{ID: uuid.New(), ProfileID: profile.ID, Version: 2, State: model.StatePublished}
	current := v2.ID
	profile.CurrentPublishedVersionID = &current

	updated, deprecated, err := Deprecate(profile, v2, v1, time.Now())
	require.NoError(t, err)

	assert.Equal(t, model.StateDeprecated, deprecated.State)
	assert.Equal(t, v1.ID, *updated.CurrentPublishedVersionID)
}

func TestDeprecateWithoutReplacementClearsPointer(t *testing.T) {
	profile, v1 := fixture()
	v1.State = model.StatePublished
	current := v1.ID
	profile.CurrentPublishedVersionID = &current

	updated, _, err := Deprecate(profile, v1, nil, time.Now())
	require.NoError(t, err)

	assert.Nil(t, updated.CurrentPublishedVersionID)
}

func TestDeprecateRejectsDraft(t *testing.T) {
	profile, v1 := fixture()

	_, _, err := Deprecate(profile, v1, nil, time.Now())

	assert.True(t, model.IsConflict(err))
}

func TestLatestPublished(t *testing.T) {
	v1 := &model.ProfileVersion{ID: uuid.New(), Version: 1, State: model.StatePublished}
	v2 := &model.ProfileVersion{ID: uuid.New(), Version: 2, State: model.StatePublished}
	v3 := &model.ProfileVersion{ID: uuid.New(), Version: 3, State: model.StateDraft}

	assert.Equal(t, v2, LatestPublished([]*model.ProfileVersion{v1, v2, v3}, uuid.Nil))
	assert.Equal(t, v1, LatestPublished([]*model.ProfileVersion{v1, v2, v3}, v2.ID))
	assert.Nil(t, LatestPublished([]*model.ProfileVersion{v3}, uuid.Nil))
}

func TestCheckDeletable(t *testing.T) {
	_, v := fixture()
	assert.NoError(t, CheckDeletable(v))

	v.State = model.StatePublished
	assert.True(t, model.IsNotAllowed(CheckDeletable(v)))
}

func TestCopyComponentsGivesDraftItsOwnRecords(t *testing.T) {
	profile, version := fixture()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	out, err := Publish(profile, version, "user:alice", uuid.New(), now)
	require.NoError(t, err)

	header := func(id uuid.UUID, iri string) model.ComponentHeader {
		return model.ComponentHeader{ID: id, IRI: iri, ParentVersionID: version.ID, ParentProfileID: profile.ID}
	}
	concept := &model.Concept{
		ComponentHeader: header(version.Concepts[0], "https://example.org/profiles/p/concepts/c"),
		Kind:            model.KindVerb,
		Body:            model.SemanticBody{ExactMatch: []string{"https://example.org/verbs/v"}},
	}
	templates := []*model.Template{
		{ComponentHeader: header(version.Templates[0], "https://example.org/profiles/p/templates/a")},
		{ComponentHeader: header(version.Templates[1], "https://example.org/profiles/p/templates/b")},
	}
	external := uuid.New()
	pattern := &model.Pattern{
		ComponentHeader: header(version.Patterns[0], "https://example.org/profiles/p/patterns/main"),
		PatternBody: model.PatternBody{Primary: true, Type: model.OperatorSequence, Members: []model.ComponentRef{
			{ComponentID: templates[1].ID, ComponentType: model.ComponentTemplate, IRI: templates[1].IRI},
			{ComponentID: external, ComponentType: model.ComponentTemplate, IRI: "https://example.org/other/templates/x"},
		}},
	}

	copies := CopyComponents(out.Draft, []*model.Concept{concept}, templates, []*model.Pattern{pattern}, uuid.New, now)

	require.Len(t, copies.Templates, 2)
	for i, cp := range copies.Templates {
		assert.NotEqual(t, templates[i].ID, cp.ID)
		assert.Equal(t, templates[i].IRI, cp.IRI)
		assert.Equal(t, out.Draft.ID, cp.ParentVersionID)
		assert.Equal(t, cp.ID, out.Draft.Templates[i])
	}
	assert.Equal(t, copies.Concepts[0].ID, out.Draft.Concepts[0])
	assert.Equal(t, copies.Patterns[0].ID, out.Draft.Patterns[0])

	members := copies.Patterns[0].Members
	assert.Equal(t, copies.Templates[1].ID, members[0].ComponentID)
	assert.Equal(t, external, members[1].ComponentID)

	// the published records are untouched
	assert.Equal(t, version.ID, templates[0].ParentVersionID)
	assert.Equal(t, templates[1].ID, pattern.Members[0].ComponentID)
	assert.Equal(t, version.Templates, out.Published.Templates)
}
