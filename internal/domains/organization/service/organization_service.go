package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"

	"profile-server/internal/domains/organization/model"
	"profile-server/internal/domains/organization/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/blake2b"
)

// organizationService implements ServiceInterface
type organizationService struct {
	repo repository.Repository
}

// NewOrganizationService creates a new organization service instance
func NewOrganizationService(repo repository.Repository) ServiceInterface {
	return &organizationService{repo: repo}
}

func (s *organizationService) Create(ctx context.Context, userID uuid.UUID, req *model.CreateOrganizationRequest) (*model.Organization, error) {
	if err := req.Validate(); err != nil {
		return nil, model.FromValidation(err)
	}

	now := time.Now().UTC().Truncate(time.Microsecond)
	org := &model.Organization{
		ID:                uuid.New(),
		Name:              strings.TrimSpace(req.Name),
		Description:       strings.TrimSpace(req.Description),
		CollaborationLink: strings.TrimSpace(req.CollaborationLink),
		CreatedOn:         now,
		UpdatedOn:         now,
	}
	owner := model.Member{OrganizationID: org.ID, UserID: userID, Role: model.RoleAdmin, CreatedOn: now}

	if err := s.repo.Create(ctx, org, owner); err != nil {
		return nil, err
	}

	log.Info().Str("organization_id", org.ID.String()).Str("owner", userID.String()).Msg("Organization created")
	return org, nil
}

func (s *organizationService) Get(ctx context.Context, id uuid.UUID) (*model.Organization, error) {
	if id == uuid.Nil {
		return nil, model.NewInvalidID(id.String())
	}
	return s.repo.GetByID(ctx, id)
}

func (s *organizationService) List(ctx context.Context) ([]*model.Organization, error) {
	return s.repo.List(ctx)
}

func (s *organizationService) IsMember(ctx context.Context, orgID, userID uuid.UUID) (bool, error) {
	_, err := s.repo.GetMember(ctx, orgID, userID)
	if err != nil {
		if model.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *organizationService) AddMember(ctx context.Context, adminID, orgID uuid.UUID, req *model.AddMemberRequest) (*model.Member, error) {
	if err := req.Validate(); err != nil {
		return nil, model.FromValidation(err)
	}
	if err := s.requireAdmin(ctx, orgID, adminID); err != nil {
		return nil, err
	}

	role := req.Role
	if role == "" {
		role = model.RoleMember
	}
	member := model.Member{
		OrganizationID: orgID,
		UserID:         req.UserID,
		Role:           role,
		CreatedOn:      time.Now().UTC().Truncate(time.Microsecond),
	}
	if err := s.repo.AddMember(ctx, member); err != nil {
		return nil, err
	}

	log.Info().Str("organization_id", orgID.String()).Str("user_id", req.UserID.String()).Str("role", string(role)).Msg("Member added")
	return &member, nil
}

// requireAdmin: organization must exist and userID must be one of its admins
func (s *organizationService) requireAdmin(ctx context.Context, orgID, userID uuid.UUID) error {
	if _, err := s.repo.GetByID(ctx, orgID); err != nil {
		return err
	}
	member, err := s.repo.GetMember(ctx, orgID, userID)
	if err != nil {
		if model.IsNotFound(err) {
			return model.NewUnauthorized("Not Authorized")
		}
		return err
	}
	if member.Role != model.RoleAdmin {
		return model.NewUnauthorized("Only organization admins can do this")
	}
	return nil
}

func (s *organizationService) CreateAPIKey(ctx context.Context, userID, orgID uuid.UUID, req *model.CreateAPIKeyRequest) (*model.APIKeyCreated, error) {
	if err := req.Validate(); err != nil {
		return nil, model.FromValidation(err)
	}
	if err := s.requireAdmin(ctx, orgID, userID); err != nil {
		return nil, err
	}

	raw, err := generateKey()
	if err != nil {
		return nil, model.NewInternal("failed to generate api key", err)
	}
	key := &model.APIKey{
		ID:              uuid.New(),
		OrganizationID:  orgID,
		KeyHash:         HashAPIKey(raw),
		Description:     strings.TrimSpace(req.Description),
		ReadPermission:  req.CanRead(),
		WritePermission: req.WritePermission,
		IsEnabled:       true,
		CreatedOn:       time.Now().UTC().Truncate(time.Microsecond),
	}
	if err := s.repo.CreateAPIKey(ctx, key); err != nil {
		return nil, err
	}

	log.Info().
		Str("organization_id", orgID.String()).
		Str("api_key_id", key.ID.String()).
		Bool("write", key.WritePermission).
		Msg("API key created")
	return &model.APIKeyCreated{APIKey: *key, Key: raw}, nil
}

func (s *organizationService) ResolveAPIKey(ctx context.Context, raw string) (*model.APIKey, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, model.NewUnauthorized("Invalid API key")
	}
	key, err := s.repo.FindAPIKeyByHash(ctx, HashAPIKey(raw))
	if err != nil {
		if model.IsNotFound(err) {
			return nil, model.NewUnauthorized("Invalid API key")
		}
		return nil, err
	}
	return key, nil
}

// HashAPIKey is the stored form of a key. Keys are random, so a fast
// unsalted hash is enough for lookup.
func HashAPIKey(raw string) string {
	sum := blake2b.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func generateKey() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
