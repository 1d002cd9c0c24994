package repository

import (
	"context"

	"profile-server/internal/domains/organization/model"

	"github.com/google/uuid"
)

// Repository defines data access for organizations, members and API keys
type Repository interface {
	// Create inserts the organization and its first member in one step
	Create(ctx context.Context, org *model.Organization, owner model.Member) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Organization, error)
	List(ctx context.Context) ([]*model.Organization, error)

	AddMember(ctx context.Context, member model.Member) error
	// GetMember returns NotFound when the user is not a member
	GetMember(ctx context.Context, orgID, userID uuid.UUID) (*model.Member, error)

	CreateAPIKey(ctx context.Context, key *model.APIKey) error
	// FindAPIKeyByHash returns NotFound for unknown or disabled keys
	FindAPIKeyByHash(ctx context.Context, hash string) (*model.APIKey, error)
}
