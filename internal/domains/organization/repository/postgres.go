package repository

import (
	"context"
	"errors"

	"profile-server/internal/domains/organization/model"
	"profile-server/pkg/database"
	"profile-server/pkg/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// postgresRepository implements organization Repository
type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

// Create inserts the organization and its owner in one transaction
func (r *postgresRepository) Create(ctx context.Context, org *model.Organization, owner model.Member) error {
	return database.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO organizations (id, name, description, collaboration_link, created_on, updated_on)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, org.ID, org.Name, org.Description, org.CollaborationLink, org.CreatedOn, org.UpdatedOn)
		if err != nil {
			return mapWriteError(err, "create organization")
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO organization_members (organization_id, user_id, role, created_on)
			VALUES ($1, $2, $3, $4)
		`, org.ID, owner.UserID, string(owner.Role), owner.CreatedOn)
		return mapWriteError(err, "add organization owner")
	})
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Organization, error) {
	var org model.Organization
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, description, collaboration_link, created_on, updated_on
		FROM organizations WHERE id = $1
	`, id).Scan(&org.ID, &org.Name, &org.Description, &org.CollaborationLink, &org.CreatedOn, &org.UpdatedOn)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.NewNotFound()
		}
		return nil, model.NewInternal("failed to load organization", err)
	}
	return &org, nil
}

func (r *postgresRepository) List(ctx context.Context) ([]*model.Organization, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, description, collaboration_link, created_on, updated_on
		FROM organizations ORDER BY name
	`)
	if err != nil {
		return nil, model.NewInternal("failed to list organizations", err)
	}
	defer rows.Close()

	out := make([]*model.Organization, 0)
	for rows.Next() {
		var org model.Organization
		if err := rows.Scan(&org.ID, &org.Name, &org.Description, &org.CollaborationLink, &org.CreatedOn, &org.UpdatedOn); err != nil {
			return nil, model.NewInternal("failed to scan organization", err)
		}
		out = append(out, &org)
	}
	return out, rows.Err()
}

func (r *postgresRepository) AddMember(ctx context.Context, m model.Member) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO organization_members (organization_id, user_id, role, created_on)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (organization_id, user_id) DO UPDATE SET role = EXCLUDED.role
	`, m.OrganizationID, m.UserID, string(m.Role), m.CreatedOn)
	return mapWriteError(err, "add organization member")
}

func (r *postgresRepository) GetMember(ctx context.Context, orgID, userID uuid.UUID) (*model.Member, error) {
	var (
		m    model.Member
		role string
	)
	err := r.pool.QueryRow(ctx, `
		SELECT organization_id, user_id, role, created_on
		FROM organization_members WHERE organization_id = $1 AND user_id = $2
	`, orgID, userID).Scan(&m.OrganizationID, &m.UserID, &role, &m.CreatedOn)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.NewNotFound()
		}
		return nil, model.NewInternal("failed to load organization member", err)
	}
	m.Role = model.Role(role)
	return &m, nil
}

func (r *postgresRepository) CreateAPIKey(ctx context.Context, k *model.APIKey) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO api_keys (id, organization_id, key_hash, description, read_permission, write_permission, is_enabled, created_on)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, k.ID, k.OrganizationID, k.KeyHash, k.Description, k.ReadPermission, k.WritePermission, k.IsEnabled, k.CreatedOn)
	return mapWriteError(err, "create api key")
}

func (r *postgresRepository) FindAPIKeyByHash(ctx context.Context, hash string) (*model.APIKey, error) {
	var k model.APIKey
	err := r.pool.QueryRow(ctx, `
		SELECT id, organization_id, key_hash, description, read_permission, write_permission, is_enabled, created_on
		FROM api_keys WHERE key_hash = $1 AND is_enabled
	`, hash).Scan(&k.ID, &k.OrganizationID, &k.KeyHash, &k.Description, &k.ReadPermission, &k.WritePermission, &k.IsEnabled, &k.CreatedOn)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.NewNotFound()
		}
		return nil, model.NewInternal("failed to load api key", err)
	}
	return &k, nil
}

func mapWriteError(err error, op string) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return model.NewConflict(op + ": already exists")
		case "23503":
			return model.NewNotFound()
		}
	}
	var orgErr *model.OrganizationError
	if errors.As(err, &orgErr) {
		return err
	}
	logger.Error(op+": database error", err)
	return model.NewInternal("failed to "+op, err)
}
