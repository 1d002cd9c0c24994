package importer

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"testing"

	"profile-server/internal/domains/profile/exporter"
	"profile-server/internal/domains/profile/model"
	"profile-server/internal/domains/profile/repository"
	"profile-server/internal/domains/profile/validator"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixture(t *testing.T) []byte {
	t.Helper()
	raw, err := os.ReadFile("../testdata/profile.json")
	require.NoError(t, err)
	return raw
}

func mutate(t *testing.T, raw []byte, fn func(doc map[string]interface{})) []byte {
	t.Helper()
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &doc))
	fn(doc)
	out, err := json.Marshal(doc)
	require.NoError(t, err)
	return out
}

func setup(t *testing.T) (*Importer, repository.Repository) {
	t.Helper()
	v, err := validator.New()
	require.NoError(t, err)
	repo := repository.NewMemoryRepository()
	return New(repo, v), repo
}

func exportJSON(t *testing.T, repo repository.Repository, version *model.ProfileVersion) []byte {
	t.Helper()
	graph, err := repository.LoadGraph(context.Background(), repo, version)
	require.NoError(t, err)
	graph.Author = model.Author{Name: "Example Working Group", URL: "https://example.org/wg"}
	out, err := exporter.Marshal(graph)
	require.NoError(t, err)
	return out
}

func TestImportThenExportRoundTrips(t *testing.T) {
	im, repo := setup(t)
	raw := fixture(t)

	result, err := im.Import(context.Background(), uuid.New(), raw)
	require.NoError(t, err)

	assert.True(t, result.ProfileCreated)
	assert.True(t, result.VersionCreated)
	assert.Equal(t, model.StateDraft, result.Version.State)
	assert.Len(t, result.Version.Concepts, 3)
	assert.Len(t, result.Version.Templates, 2)
	assert.Len(t, result.Version.Patterns, 2)

	assert.JSONEq(t, string(raw), string(exportJSON(t, repo, result.Version)))
}

func TestReimportIsIdempotent(t *testing.T) {
	im, repo := setup(t)
	ctx := context.Background()
	org := uuid.New()
	raw := fixture(t)

	first, err := im.Import(ctx, org, raw)
	require.NoError(t, err)
	second, err := im.Import(ctx, org, raw)
	require.NoError(t, err)

	assert.False(t, second.ProfileCreated)
	assert.False(t, second.VersionCreated)
	assert.Equal(t, first.Profile.ID, second.Profile.ID)
	assert.Equal(t, first.Version.ID, second.Version.ID)
	assert.Equal(t, first.Version.Concepts, second.Version.Concepts)
	assert.Equal(t, first.Version.Patterns, second.Version.Patterns)

	versions, err := repo.ListVersions(ctx, first.Profile.ID)
	require.NoError(t, err)
	assert.Len(t, versions, 1)
	assert.JSONEq(t, string(raw), string(exportJSON(t, repo, second.Version)))
}

func TestImportResolvesPatternMembersToStoredIdentities(t *testing.T) {
	im, repo := setup(t)
	ctx := context.Background()

	result, err := im.Import(ctx, uuid.New(), fixture(t))
	require.NoError(t, err)

	patterns, err := repo.GetPatterns(ctx, result.Version.Patterns)
	require.NoError(t, err)
	require.Len(t, patterns, 2)

	attempt := patterns[0]
	require.Len(t, attempt.Members, 2)
	assert.Equal(t, model.ComponentTemplate, attempt.Members[0].ComponentType)
	assert.Equal(t, result.Version.Templates[0], attempt.Members[0].ComponentID)
	assert.Equal(t, model.ComponentPattern, attempt.Members[1].ComponentType)
	assert.Equal(t, patterns[1].ID, attempt.Members[1].ComponentID)
}

func TestImportRejectsInvalidDocument(t *testing.T) {
	im, repo := setup(t)
	raw := mutate(t, fixture(t), func(doc map[string]interface{}) { delete(doc, "author") })

	_, err := im.Import(context.Background(), uuid.New(), raw)

	require.Error(t, err)
	assert.True(t, model.IsValidation(err))
	_, err = repo.GetProfileByIRI(context.Background(), "https://example.org/profiles/scorm")
	assert.True(t, model.IsNotFound(err))
}

func TestImportRejectsProfileOfAnotherOrganization(t *testing.T) {
	im, _ := setup(t)
	ctx := context.Background()
	raw := fixture(t)

	_, err := im.Import(ctx, uuid.New(), raw)
	require.NoError(t, err)
	_, err = im.Import(ctx, uuid.New(), raw)

	assert.True(t, model.IsUnauthorized(err))
}

func publish(t *testing.T, repo repository.Repository, version *model.ProfileVersion) {
	t.Helper()
	published := version.Clone()
	published.State = model.StatePublished
	require.NoError(t, repo.TransitionVersion(context.Background(), published, model.StateDraft))
}

// nextVersion rewrites the fixture as v/2, a revision of v/1, with the
// launch template renamed
func nextVersion(t *testing.T, raw []byte) []byte {
	t.Helper()
	next := bytes.ReplaceAll(raw, []byte("profiles/scorm/v/1"), []byte("profiles/scorm/v/2"))
	return mutate(t, next, func(doc map[string]interface{}) {
		doc["versions"] = []interface{}{
			map[string]interface{}{
				"id":              "https://example.org/profiles/scorm/v/2",
				"wasRevisionOf":   []interface{}{"https://example.org/profiles/scorm/v/1"},
				"generatedAtTime": "2021-06-01T00:00:00Z",
			},
			map[string]interface{}{
				"id":              "https://example.org/profiles/scorm/v/1",
				"generatedAtTime": "2020-01-01T00:00:00Z",
			},
		}
		templates := doc["templates"].([]interface{})
		launch := templates[0].(map[string]interface{})
		launch["prefLabel"] = map[string]interface{}{"en": "Launch (renamed)"}
	})
}

func TestReimportOfPublishedVersionIsUnchanged(t *testing.T) {
	im, repo := setup(t)
	ctx := context.Background()
	org := uuid.New()
	raw := fixture(t)

	first, err := im.Import(ctx, org, raw)
	require.NoError(t, err)
	publish(t, repo, first.Version)

	again, err := im.Import(ctx, org, raw)
	require.NoError(t, err)

	assert.True(t, again.Unchanged)
	assert.Equal(t, first.Version.ID, again.Version.ID)
	assert.Equal(t, model.StatePublished, again.Version.State)
	versions, err := repo.ListVersions(ctx, first.Profile.ID)
	require.NoError(t, err)
	assert.Len(t, versions, 1)
}

func TestImportRejectsChangedPublishedVersion(t *testing.T) {
	im, repo := setup(t)
	ctx := context.Background()
	org := uuid.New()
	raw := fixture(t)

	first, err := im.Import(ctx, org, raw)
	require.NoError(t, err)
	publish(t, repo, first.Version)

	changed := mutate(t, raw, func(doc map[string]interface{}) {
		doc["prefLabel"] = map[string]interface{}{"en": "Changed"}
	})
	_, err = im.Import(ctx, org, changed)
	assert.True(t, model.IsConflict(err))

	stored, err := repo.GetVersion(ctx, first.Version.ID)
	require.NoError(t, err)
	assert.JSONEq(t, string(raw), string(exportJSON(t, repo, stored)))
}

func TestImportOfNextVersionLeavesPublishedVersionAlone(t *testing.T) {
	im, repo := setup(t)
	ctx := context.Background()
	org := uuid.New()
	raw := fixture(t)

	first, err := im.Import(ctx, org, raw)
	require.NoError(t, err)
	publish(t, repo, first.Version)

	next := nextVersion(t, raw)
	second, err := im.Import(ctx, org, next)
	require.NoError(t, err)
	assert.True(t, second.VersionCreated)
	assert.NotEqual(t, first.Version.ID, second.Version.ID)
	require.NotNil(t, second.Version.WasRevisionOf)
	assert.Equal(t, first.Version.ID, *second.Version.WasRevisionOf)

	for _, id := range second.Version.Templates {
		assert.NotContains(t, first.Version.Templates, id)
	}

	v1, err := repo.GetVersion(ctx, first.Version.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatePublished, v1.State)
	assert.JSONEq(t, string(raw), string(exportJSON(t, repo, v1)))
	assert.JSONEq(t, string(next), string(exportJSON(t, repo, second.Version)))
}

func TestImportKeepsHistoryWithoutStoredVersions(t *testing.T) {
	im, repo := setup(t)
	next := nextVersion(t, fixture(t))

	result, err := im.Import(context.Background(), uuid.New(), next)
	require.NoError(t, err)

	assert.Nil(t, result.Version.WasRevisionOf)
	assert.Equal(t, []string{"https://example.org/profiles/scorm/v/1"}, result.Version.ImportedHistory.RevisionOf)
	require.Len(t, result.Version.ImportedHistory.Versions, 1)
	assert.JSONEq(t, string(next), string(exportJSON(t, repo, result.Version)))
}

func TestImportResolvesCrossProfileMembers(t *testing.T) {
	im, repo := setup(t)
	ctx := context.Background()
	org := uuid.New()

	_, err := im.Import(ctx, org, fixture(t))
	require.NoError(t, err)

	other := mutate(t, fixture(t), func(doc map[string]interface{}) {
		base := "https://example.org/profiles/other"
		doc["id"] = base
		doc["versions"] = []interface{}{map[string]interface{}{"id": base + "/v/1", "generatedAtTime": "2021-01-01T00:00:00Z"}}
		delete(doc, "concepts")
		doc["templates"] = []interface{}{map[string]interface{}{
			"id": base + "/templates/t", "type": "StatementTemplate", "inScheme": base + "/v/1",
			"prefLabel": map[string]interface{}{"en": "T"}, "definition": map[string]interface{}{"en": "T"},
		}}
		doc["patterns"] = []interface{}{map[string]interface{}{
			"id": base + "/patterns/p", "type": "Pattern", "inScheme": base + "/v/1", "primary": true,
			"prefLabel":  map[string]interface{}{"en": "P"},
			"definition": map[string]interface{}{"en": "P"},
			"sequence":   []interface{}{base + "/templates/t", "https://example.org/profiles/scorm/patterns/exits"},
		}}
	})

	result, err := im.Import(ctx, org, other)
	require.NoError(t, err)

	patterns, err := repo.GetPatterns(ctx, result.Version.Patterns)
	require.NoError(t, err)
	require.Len(t, patterns, 1)
	exits, err := repo.GetComponentByIRI(ctx, "https://example.org/profiles/scorm/patterns/exits")
	require.NoError(t, err)
	assert.Equal(t, exits.ID, patterns[0].Members[1].ComponentID)
}

func TestImportAggregatesMemberErrors(t *testing.T) {
	im, _ := setup(t)
	raw := mutate(t, fixture(t), func(doc map[string]interface{}) {
		patterns := doc["patterns"].([]interface{})
		attempt := patterns[0].(map[string]interface{})
		attempt["sequence"] = []interface{}{
			"https://example.org/nowhere/templates/a",
			"https://example.org/nowhere/templates/b",
		}
	})

	_, err := im.Import(context.Background(), uuid.New(), raw)

	require.True(t, model.IsValidation(err))
	assert.Len(t, model.DetailsOf(err), 2)
}
