//go:build integration

package service

import (
	"context"
	"testing"

	"profile-server/internal/domains/profile/repository"
	"profile-server/internal/infrastructure/database"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// TestProfileServiceSuitePostgres runs the service suite against a real database
func TestProfileServiceSuitePostgres(t *testing.T) {
	db := database.StartTestPostgres(t)

	suite.Run(t, &ProfileServiceSuite{
		newRepo: func() repository.Repository {
			_, err := db.Pool.Exec(context.Background(), `TRUNCATE profiles, profile_versions, profile_components CASCADE`)
			require.NoError(t, err)
			return repository.NewPostgresRepository(db.Pool)
		},
	})
}
