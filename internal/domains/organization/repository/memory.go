package repository

import (
	"context"
	"sort"
	"sync"

	"profile-server/internal/domains/organization/model"

	"github.com/google/uuid"
)

type memberKey struct {
	org  uuid.UUID
	user uuid.UUID
}

type memoryRepository struct {
	mu      sync.RWMutex
	orgs    map[uuid.UUID]model.Organization
	members map[memberKey]model.Member
	keys    map[string]model.APIKey // by hash
}

// NewMemoryRepository creates an in-process organization store
func NewMemoryRepository() Repository {
	return &memoryRepository{
		orgs:    make(map[uuid.UUID]model.Organization),
		members: make(map[memberKey]model.Member),
		keys:    make(map[string]model.APIKey),
	}
}

func (r *memoryRepository) Create(ctx context.Context, org *model.Organization, owner model.Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orgs[org.ID]; ok {
		return model.NewConflict("organization already exists")
	}
	r.orgs[org.ID] = *org
	owner.OrganizationID = org.ID
	r.members[memberKey{org.ID, owner.UserID}] = owner
	return nil
}

func (r *memoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Organization, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	org, ok := r.orgs[id]
	if !ok {
		return nil, model.NewNotFound()
	}
	return &org, nil
}

func (r *memoryRepository) List(ctx context.Context) ([]*model.Organization, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*model.Organization, 0, len(r.orgs))
	for _, org := range r.orgs {
		org := org
		out = append(out, &org)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *memoryRepository) AddMember(ctx context.Context, member model.Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orgs[member.OrganizationID]; !ok {
		return model.NewNotFound()
	}
	r.members[memberKey{member.OrganizationID, member.UserID}] = member
	return nil
}

func (r *memoryRepository) GetMember(ctx context.Context, orgID, userID uuid.UUID) (*model.Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.members[memberKey{orgID, userID}]
	if !ok {
		return nil, model.NewNotFound()
	}
	return &m, nil
}

func (r *memoryRepository) CreateAPIKey(ctx context.Context, key *model.APIKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orgs[key.OrganizationID]; !ok {
		return model.NewNotFound()
	}
	if _, ok := r.keys[key.KeyHash]; ok {
		return model.NewConflict("api key already exists")
	}
	r.keys[key.KeyHash] = *key
	return nil
}

func (r *memoryRepository) FindAPIKeyByHash(ctx context.Context, hash string) (*model.APIKey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	key, ok := r.keys[hash]
	if !ok || !key.IsEnabled {
		return nil, model.NewNotFound()
	}
	return &key, nil
}
