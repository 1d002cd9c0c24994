//go:build integration

package repository

import (
	"context"
	"errors"
	"sync"
	"testing"

	"profile-server/internal/domains/profile/model"
	"profile-server/internal/infrastructure/database"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresRepository(t *testing.T) {
	db := database.StartTestPostgres(t)
	repo := NewPostgresRepository(db.Pool)
	ctx := context.Background()

	t.Run("profile lookups", func(t *testing.T) {
		profile, version := seed(t, repo)

		got, err := repo.GetProfileByIRI(ctx, profile.IRI)
		require.NoError(t, err)
		assert.Equal(t, profile.ID, got.ID)
		require.NotNil(t, got.CurrentDraftVersionID)
		assert.Equal(t, version.ID, *got.CurrentDraftVersionID)

		gotVersion, err := repo.GetVersionByIRI(ctx, version.IRI)
		require.NoError(t, err)
		assert.Equal(t, model.StateDraft, gotVersion.State)
		assert.Equal(t, "Profile", gotVersion.Name)

		_, err = repo.GetProfile(ctx, uuid.New())
		assert.True(t, model.IsNotFound(err))
	})

	t.Run("duplicate IRIs conflict", func(t *testing.T) {
		profile, _ := seed(t, repo)
		assert.True(t, model.IsConflict(repo.CreateProfile(ctx, &model.Profile{ID: uuid.New(), IRI: profile.IRI})))

		iri := "https://example.org/components/" + uuid.NewString()
		concept := &model.Concept{ComponentHeader: model.ComponentHeader{ID: uuid.New(), IRI: iri}, Kind: model.KindVerb, Body: model.SemanticBody{}}
		require.NoError(t, repo.SaveConcept(ctx, concept))
		template := &model.Template{ComponentHeader: model.ComponentHeader{ID: uuid.New(), IRI: iri}}
		assert.True(t, model.IsConflict(repo.SaveTemplate(ctx, template)))
	})

	t.Run("transition has one winner", func(t *testing.T) {
		_, version := seed(t, repo)

		var (
			wg   sync.WaitGroup
			mu   sync.Mutex
			wins int
		)
		for i := 0; i < 6; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				published := version.Clone()
				published.State = model.StatePublished
				if err := repo.TransitionVersion(ctx, published, model.StateDraft); err == nil {
					mu.Lock()
					wins++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, 1, wins)

		published, err := repo.ListVersionsByState(ctx, model.StatePublished, 100)
		require.NoError(t, err)
		ids := make([]uuid.UUID, 0, len(published))
		for _, v := range published {
			ids = append(ids, v.ID)
		}
		assert.Contains(t, ids, version.ID)
	})

	t.Run("transaction rolls back", func(t *testing.T) {
		profile, version := seed(t, repo)
		boom := errors.New("boom")

		err := repo.WithTx(ctx, func(tx Repository) error {
			updated := version.Clone()
			updated.Name = "inside tx"
			if err := tx.UpdateVersion(ctx, updated); err != nil {
				return err
			}
			if err := tx.DeleteProfile(ctx, profile.ID); err != nil {
				return err
			}
			return boom
		})
		require.ErrorIs(t, err, boom)

		got, err := repo.GetVersion(ctx, version.ID)
		require.NoError(t, err)
		assert.Equal(t, "Profile", got.Name)
	})

	t.Run("stale update does not undo a publish", func(t *testing.T) {
		_, version := seed(t, repo)
		stale := version.Clone()
		stale.Name = "renamed"

		published := version.Clone()
		published.State = model.StatePublished
		require.NoError(t, repo.TransitionVersion(ctx, published, model.StateDraft))

		assert.True(t, model.IsConflict(repo.UpdateVersion(ctx, stale)))
		got, err := repo.GetVersion(ctx, version.ID)
		require.NoError(t, err)
		assert.Equal(t, model.StatePublished, got.State)
		assert.Equal(t, "Profile", got.Name)
	})

	t.Run("components keep order and references", func(t *testing.T) {
		a := &model.Template{ComponentHeader: model.ComponentHeader{ID: uuid.New(), IRI: "https://example.org/t/" + uuid.NewString()}}
		b := &model.Template{ComponentHeader: model.ComponentHeader{ID: uuid.New(), IRI: "https://example.org/t/" + uuid.NewString()}}
		require.NoError(t, repo.SaveTemplate(ctx, a))
		require.NoError(t, repo.SaveTemplate(ctx, b))

		got, err := repo.GetTemplates(ctx, []uuid.UUID{b.ID, uuid.New(), a.ID})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, b.ID, got[0].ID)
		assert.Equal(t, a.ID, got[1].ID)

		pattern := &model.Pattern{
			ComponentHeader: model.ComponentHeader{ID: uuid.New(), IRI: "https://example.org/p/" + uuid.NewString()},
			PatternBody: model.PatternBody{
				Type:    model.OperatorOptional,
				Members: []model.ComponentRef{{ComponentID: a.ID, ComponentType: model.ComponentTemplate, IRI: a.IRI}},
			},
		}
		require.NoError(t, repo.SavePattern(ctx, pattern))

		refs, err := repo.PatternsReferencing(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{pattern.ID}, refs)

		summary, err := repo.GetComponentByIRI(ctx, pattern.IRI)
		require.NoError(t, err)
		assert.Equal(t, model.ComponentPattern, summary.Type)
	})
}
