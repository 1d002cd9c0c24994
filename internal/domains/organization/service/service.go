package service

import (
	"context"

	"profile-server/internal/domains/organization/model"

	"github.com/google/uuid"
)

// ServiceInterface defines business operations for organizations
type ServiceInterface interface {
	// Create makes a new organization with userID as its admin
	Create(ctx context.Context, userID uuid.UUID, req *model.CreateOrganizationRequest) (*model.Organization, error)

	Get(ctx context.Context, id uuid.UUID) (*model.Organization, error)
	List(ctx context.Context) ([]*model.Organization, error)

	// IsMember reports whether userID belongs to orgID
	IsMember(ctx context.Context, orgID, userID uuid.UUID) (bool, error)

	// AddMember lets an organization admin add another user
	AddMember(ctx context.Context, adminID, orgID uuid.UUID, req *model.AddMemberRequest) (*model.Member, error)

	// CreateAPIKey issues a key; only organization admins may do this.
	// The plain key is only ever returned here.
	CreateAPIKey(ctx context.Context, userID, orgID uuid.UUID, req *model.CreateAPIKeyRequest) (*model.APIKeyCreated, error)

	// ResolveAPIKey returns the enabled key matching raw
	ResolveAPIKey(ctx context.Context, raw string) (*model.APIKey, error)
}
