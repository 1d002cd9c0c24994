package exporter

import (
	"testing"
	"time"

	"profile-server/internal/domains/profile/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func graph() *model.Graph {
	profile := &model.Profile{ID: uuid.New(), IRI: "https://example.org/profiles/p"}
	v1 := &model.ProfileVersion{
		ID:        uuid.New(),
		IRI:       profile.IRI + "/v/1",
		ProfileID: profile.ID,
		Version:   1,
		State:     model.StatePublished,
		CreatedOn: time.Date(2023, 5, 1, 10, 0, 0, 0, time.UTC),
	}
	prev := v1.ID
	v2 := &model.ProfileVersion{
		ID:            uuid.New(),
		IRI:           profile.IRI + "/v/2",
		ProfileID:     profile.ID,
		Version:       2,
		State:         model.StateDraft,
		Name:          "Profile",
		Description:   "A profile.",
		Translations:  []model.Translation{{Language: "de", Name: "Profil"}},
		WasRevisionOf: &prev,
		CreatedOn:     time.Date(2024, 1, 2, 3, 4, 5, 0, time.FixedZone("X", 3600)),
	}
	return &model.Graph{
		Profile:  profile,
		Version:  v2,
		Versions: []*model.ProfileVersion{v2, v1},
		Author:   model.Author{Name: "WG"},
		Concepts: []*model.Concept{
			{
				ComponentHeader: model.ComponentHeader{IRI: profile.IRI + "/concepts/a", Name: "ignored"},
				Kind:            model.KindActivity,
				Body:            model.ActivityBody{ActivityDefinition: map[string]interface{}{"type": "https://example.org/type"}},
			},
		},
		Patterns: []*model.Pattern{
			{
				ComponentHeader: model.ComponentHeader{IRI: profile.IRI + "/patterns/opt"},
				PatternBody: model.PatternBody{
					Type:    model.OperatorOptional,
					Members: []model.ComponentRef{{IRI: "https://example.org/other/templates/t", ComponentType: model.ComponentTemplate}},
				},
			},
		},
	}
}

func TestToJSONLDHeader(t *testing.T) {
	doc := ToJSONLD(graph())

	assert.Equal(t, "https://example.org/profiles/p", doc.ID)
	assert.Equal(t, model.ContextIRI, doc.Context)
	assert.Equal(t, "Profile", doc.Type)
	assert.Equal(t, model.ConformsTo, doc.ConformsTo)
	assert.Equal(t, model.LanguageMap{"en": "Profile", "de": "Profil"}, doc.PrefLabel)
	assert.Equal(t, model.LanguageMap{"en": "A profile."}, doc.Definition)
	assert.Equal(t, model.AuthorDocument{Type: "Organization", Name: "WG"}, doc.Author)
}

func TestToJSONLDVersionHistory(t *testing.T) {
	doc := ToJSONLD(graph())

	require.Len(t, doc.Versions, 2)
	assert.Equal(t, "https://example.org/profiles/p/v/2", doc.Versions[0].ID)
	assert.Equal(t, []string{"https://example.org/profiles/p/v/1"}, doc.Versions[0].WasRevisionOf)
	assert.Equal(t, "2024-01-02T02:04:05Z", doc.Versions[0].GeneratedAtTime)
	assert.Nil(t, doc.Versions[1].WasRevisionOf)
}

func TestToJSONLDImportedHistory(t *testing.T) {
	g := graph()
	v1 := g.Versions[1]
	v1.ImportedHistory = model.ImportedHistory{
		RevisionOf: []string{"https://example.org/profiles/p/v/0"},
		Versions: []model.VersionRef{
			{ID: "https://example.org/profiles/p/v/0", GeneratedAtTime: "2022-01-01T00:00:00Z"},
			{ID: "https://example.org/profiles/p/v/1", GeneratedAtTime: "2023-05-01T10:00:00Z"},
		},
	}

	doc := ToJSONLD(g)

	require.Len(t, doc.Versions, 3)
	assert.Equal(t, []string{"https://example.org/profiles/p/v/0"}, doc.Versions[1].WasRevisionOf)
	assert.Equal(t, "https://example.org/profiles/p/v/0", doc.Versions[2].ID)
	assert.Equal(t, "2022-01-01T00:00:00Z", doc.Versions[2].GeneratedAtTime)
}

func TestToJSONLDComponents(t *testing.T) {
	doc := ToJSONLD(graph())

	require.Len(t, doc.Concepts, 1)
	activity := doc.Concepts[0]
	assert.Nil(t, activity.PrefLabel)
	assert.Equal(t, "https://example.org/profiles/p/v/2", activity.InScheme)
	assert.Equal(t, "https://example.org/type", activity.ActivityDefinition["type"])

	assert.Empty(t, doc.Templates)
	require.Len(t, doc.Patterns, 1)
	assert.Equal(t, "https://example.org/other/templates/t", doc.Patterns[0].Optional)
	assert.False(t, doc.Patterns[0].Primary)
}

func TestMarshalIsDeterministic(t *testing.T) {
	g := graph()

	first, err := Marshal(g)
	require.NoError(t, err)
	second, err := Marshal(g)
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
	assert.NotContains(t, string(first), `"templates"`)
}
