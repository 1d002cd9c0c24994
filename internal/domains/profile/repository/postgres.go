package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"profile-server/internal/domains/profile/model"
	"profile-server/pkg/database"
	"profile-server/pkg/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

// querier is what pgxpool.Pool and pgx.Tx have in common
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// postgresRepository implements Repository on top of pgxpool
type postgresRepository struct {
	pool *pgxpool.Pool // nil inside a transaction
	q    querier
}

// NewPostgresRepository creates a repository bound to the pool
func NewPostgresRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool, q: pool}
}

func (r *postgresRepository) WithTx(ctx context.Context, fn func(tx Repository) error) error {
	if r.pool == nil {
		return fn(r)
	}
	return database.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(&postgresRepository{q: tx})
	})
}

// ========================================
// PROFILES
// ========================================

const profileColumns = `id, iri, organization_id, current_draft_version_id, current_published_version_id, created_on, updated_on`

func (r *postgresRepository) CreateProfile(ctx context.Context, p *model.Profile) error {
	query := `
		INSERT INTO profiles (` + profileColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.q.Exec(ctx, query,
		p.ID, p.IRI, p.OrganizationID, p.CurrentDraftVersionID, p.CurrentPublishedVersionID, p.CreatedOn, p.UpdatedOn,
	)
	return mapWriteError(err, "create profile", fmt.Sprintf("a profile with IRI %s already exists", p.IRI))
}

func (r *postgresRepository) UpdateProfile(ctx context.Context, p *model.Profile) error {
	query := `
		UPDATE profiles
		SET iri = $2, current_draft_version_id = $3, current_published_version_id = $4, updated_on = $5
		WHERE id = $1
	`
	tag, err := r.q.Exec(ctx, query, p.ID, p.IRI, p.CurrentDraftVersionID, p.CurrentPublishedVersionID, p.UpdatedOn)
	if err != nil {
		return mapWriteError(err, "update profile", fmt.Sprintf("a profile with IRI %s already exists", p.IRI))
	}
	if tag.RowsAffected() == 0 {
		return model.NewNotFound("profile")
	}
	return nil
}

func (r *postgresRepository) DeleteProfile(ctx context.Context, id uuid.UUID) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM profiles WHERE id = $1`, id)
	if err != nil {
		return model.NewInternal("failed to delete profile", err)
	}
	if tag.RowsAffected() == 0 {
		return model.NewNotFound("profile")
	}
	return nil
}

func (r *postgresRepository) GetProfile(ctx context.Context, id uuid.UUID) (*model.Profile, error) {
	row := r.q.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id)
	return scanProfile(row)
}

func (r *postgresRepository) GetProfileByIRI(ctx context.Context, iri string) (*model.Profile, error) {
	row := r.q.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE iri = $1`, iri)
	return scanProfile(row)
}

func scanProfile(row pgx.Row) (*model.Profile, error) {
	var p model.Profile
	err := row.Scan(
		&p.ID,
		&p.IRI,
		&p.OrganizationID,
		&p.CurrentDraftVersionID,
		&p.CurrentPublishedVersionID,
		&p.CreatedOn,
		&p.UpdatedOn,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.NewNotFound("profile")
		}
		return nil, model.NewInternal("failed to load profile", err)
	}
	return &p, nil
}

func (r *postgresRepository) ListPublished(ctx context.Context, filter model.ListFilter) ([]*model.ProfileVersion, error) {
	query := `
		SELECT ` + prefixed("v", versionColumnList) + `
		FROM profiles p
		JOIN profile_versions v ON v.id = p.current_published_version_id
		WHERE ($1::uuid IS NULL OR p.organization_id = $1)
		ORDER BY v.updated_on DESC, v.id
		LIMIT $2 OFFSET $3
	`
	limit := filter.Limit
	if limit <= 0 {
		limit = 1000
	}
	rows, err := r.q.Query(ctx, query, filter.OrganizationID, limit, filter.Offset)
	if err != nil {
		return nil, model.NewInternal("failed to list published profiles", err)
	}
	return collectVersions(rows)
}

// ========================================
// VERSIONS
// ========================================

var versionColumnList = []string{
	"id", "iri", "profile_id", "organization_id", "version", "state", "name", "description",
	"translations", "tags", "more_information", "was_revision_of", "is_verified", "verification_request",
	"published_on", "published_by", "concepts", "templates", "patterns", "created_on", "updated_on",
	"imported_history",
}

var versionColumns = strings.Join(versionColumnList, ", ")

func (r *postgresRepository) CreateVersion(ctx context.Context, v *model.ProfileVersion) error {
	args, err := versionArgs(v)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO profile_versions (` + versionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
	`
	_, err = r.q.Exec(ctx, query, args...)
	return mapWriteError(err, "create profile version", fmt.Sprintf("a profile version with IRI %s already exists", v.IRI))
}

// UpdateVersion leaves state, publication and history columns alone and
// only applies while the stored state still equals v.State, so a stale
// copy cannot undo a concurrent publish.
func (r *postgresRepository) UpdateVersion(ctx context.Context, v *model.ProfileVersion) error {
	translations, err := jsonArg(v.Translations)
	if err != nil {
		return err
	}
	concepts, err := jsonArg(v.Concepts)
	if err != nil {
		return err
	}
	templates, err := jsonArg(v.Templates)
	if err != nil {
		return err
	}
	patterns, err := jsonArg(v.Patterns)
	if err != nil {
		return err
	}

	query := `
		UPDATE profile_versions SET
			iri = $2, name = $3, description = $4, translations = $5, tags = $6,
			more_information = $7, is_verified = $8, verification_request = $9,
			concepts = $10, templates = $11, patterns = $12, updated_on = $13
		WHERE id = $1 AND state = $14
	`
	tag, err := r.q.Exec(ctx, query,
		v.ID, v.IRI, v.Name, v.Description, translations, pq.Array(nonNilStrings(v.Tags)),
		v.MoreInformation, v.IsVerified, v.VerificationRequest,
		concepts, templates, patterns, v.UpdatedOn, string(v.State),
	)
	return r.versionWritten(ctx, v, v.State, tag, err)
}

// TransitionVersion rewrites every mutable column while the stored state
// still equals from.
func (r *postgresRepository) TransitionVersion(ctx context.Context, v *model.ProfileVersion, from model.State) error {
	translations, err := jsonArg(v.Translations)
	if err != nil {
		return err
	}
	concepts, err := jsonArg(v.Concepts)
	if err != nil {
		return err
	}
	templates, err := jsonArg(v.Templates)
	if err != nil {
		return err
	}
	patterns, err := jsonArg(v.Patterns)
	if err != nil {
		return err
	}
	history, err := jsonArg(v.ImportedHistory)
	if err != nil {
		return err
	}

	query := `
		UPDATE profile_versions SET
			iri = $2, state = $3, name = $4, description = $5, translations = $6, tags = $7,
			more_information = $8, was_revision_of = $9, is_verified = $10, verification_request = $11,
			published_on = $12, published_by = $13, concepts = $14, templates = $15, patterns = $16,
			updated_on = $17, imported_history = $18
		WHERE id = $1 AND state = $19
	`
	tag, err := r.q.Exec(ctx, query,
		v.ID, v.IRI, string(v.State), v.Name, v.Description, translations, pq.Array(nonNilStrings(v.Tags)),
		v.MoreInformation, v.WasRevisionOf, v.IsVerified, v.VerificationRequest,
		v.PublishedOn, v.PublishedBy, concepts, templates, patterns, v.UpdatedOn, history, string(from),
	)
	return r.versionWritten(ctx, v, from, tag, err)
}

func (r *postgresRepository) versionWritten(ctx context.Context, v *model.ProfileVersion, expected model.State, tag pgconn.CommandTag, err error) error {
	if err != nil {
		return mapWriteError(err, "update profile version", fmt.Sprintf("a profile version with IRI %s already exists", v.IRI))
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	// zero rows: either the version is gone or the state moved underneath us
	if _, getErr := r.GetVersion(ctx, v.ID); getErr != nil {
		return getErr
	}
	return model.NewConflict(fmt.Sprintf("version %d is no longer %s", v.Version, expected))
}

func (r *postgresRepository) DeleteVersion(ctx context.Context, id uuid.UUID) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM profile_versions WHERE id = $1`, id)
	if err != nil {
		return model.NewInternal("failed to delete profile version", err)
	}
	if tag.RowsAffected() == 0 {
		return model.NewNotFound("profile version")
	}
	return nil
}

func (r *postgresRepository) GetVersion(ctx context.Context, id uuid.UUID) (*model.ProfileVersion, error) {
	row := r.q.QueryRow(ctx, `SELECT `+versionColumns+` FROM profile_versions WHERE id = $1`, id)
	return scanVersion(row)
}

func (r *postgresRepository) GetVersionByIRI(ctx context.Context, iri string) (*model.ProfileVersion, error) {
	row := r.q.QueryRow(ctx, `SELECT `+versionColumns+` FROM profile_versions WHERE iri = $1`, iri)
	return scanVersion(row)
}

func (r *postgresRepository) ListVersions(ctx context.Context, profileID uuid.UUID) ([]*model.ProfileVersion, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+versionColumns+` FROM profile_versions WHERE profile_id = $1 ORDER BY version DESC`, profileID)
	if err != nil {
		return nil, model.NewInternal("failed to list profile versions", err)
	}
	return collectVersions(rows)
}

func (r *postgresRepository) ListVersionsByState(ctx context.Context, state model.State, limit int) ([]*model.ProfileVersion, error) {
	if limit <= 0 {
		limit = 1000
	}
	rows, err := r.q.Query(ctx,
		`SELECT `+versionColumns+` FROM profile_versions WHERE state = $1 ORDER BY updated_on DESC LIMIT $2`,
		string(state), limit)
	if err != nil {
		return nil, model.NewInternal("failed to list profile versions", err)
	}
	return collectVersions(rows)
}

func versionArgs(v *model.ProfileVersion) ([]any, error) {
	translations, err := jsonArg(v.Translations)
	if err != nil {
		return nil, err
	}
	concepts, err := jsonArg(v.Concepts)
	if err != nil {
		return nil, err
	}
	templates, err := jsonArg(v.Templates)
	if err != nil {
		return nil, err
	}
	patterns, err := jsonArg(v.Patterns)
	if err != nil {
		return nil, err
	}
	history, err := jsonArg(v.ImportedHistory)
	if err != nil {
		return nil, err
	}
	return []any{
		v.ID, v.IRI, v.ProfileID, v.OrganizationID, v.Version, string(v.State), v.Name, v.Description,
		translations, pq.Array(nonNilStrings(v.Tags)), v.MoreInformation, v.WasRevisionOf, v.IsVerified, v.VerificationRequest,
		v.PublishedOn, v.PublishedBy, concepts, templates, patterns, v.CreatedOn, v.UpdatedOn,
		history,
	}, nil
}

func scanVersion(row pgx.Row) (*model.ProfileVersion, error) {
	var (
		v            model.ProfileVersion
		state        string
		translations []byte
		tags         pq.StringArray
		concepts     []byte
		templates    []byte
		patterns     []byte
		history      []byte
	)
	err := row.Scan(
		&v.ID, &v.IRI, &v.ProfileID, &v.OrganizationID, &v.Version, &state, &v.Name, &v.Description,
		&translations, pq.Array(&tags), &v.MoreInformation, &v.WasRevisionOf, &v.IsVerified, &v.VerificationRequest,
		&v.PublishedOn, &v.PublishedBy, &concepts, &templates, &patterns, &v.CreatedOn, &v.UpdatedOn,
		&history,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.NewNotFound("profile version")
		}
		return nil, model.NewInternal("failed to load profile version", err)
	}
	v.State = model.State(state)
	v.Tags = []string(tags)
	if err := decodeJSON(translations, &v.Translations); err != nil {
		return nil, err
	}
	if err := decodeJSON(concepts, &v.Concepts); err != nil {
		return nil, err
	}
	if err := decodeJSON(templates, &v.Templates); err != nil {
		return nil, err
	}
	if err := decodeJSON(patterns, &v.Patterns); err != nil {
		return nil, err
	}
	if err := decodeJSON(history, &v.ImportedHistory); err != nil {
		return nil, err
	}
	return &v, nil
}

func collectVersions(rows pgx.Rows) ([]*model.ProfileVersion, error) {
	defer rows.Close()
	out := make([]*model.ProfileVersion, 0)
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, model.NewInternal("failed to read profile versions", err)
	}
	return out, nil
}

// ========================================
// COMPONENTS
// ========================================

const componentColumns = `id, iri, component_type, parent_version_id, parent_profile_id, name, description,
	translations, tags, is_deprecated, kind, is_primary, body, created_on, updated_on`

// componentRow is the flattened storage form of any component
type componentRow struct {
	header  model.ComponentHeader
	kind    string
	primary bool
	body    []byte
	typ     model.ComponentType
}

func (r *postgresRepository) SaveConcept(ctx context.Context, c *model.Concept) error {
	body, err := json.Marshal(c.Body)
	if err != nil {
		return model.NewInternal("failed to encode concept body", err)
	}
	return r.saveComponent(ctx, componentRow{
		header: c.ComponentHeader, kind: string(c.Kind), body: body, typ: model.ComponentConcept,
	})
}

func (r *postgresRepository) SaveTemplate(ctx context.Context, t *model.Template) error {
	body, err := json.Marshal(t.TemplateBody)
	if err != nil {
		return model.NewInternal("failed to encode template body", err)
	}
	return r.saveComponent(ctx, componentRow{header: t.ComponentHeader, body: body, typ: model.ComponentTemplate})
}

func (r *postgresRepository) SavePattern(ctx context.Context, p *model.Pattern) error {
	body, err := json.Marshal(struct {
		Members []model.ComponentRef `json:"members"`
	}{Members: p.Members})
	if err != nil {
		return model.NewInternal("failed to encode pattern body", err)
	}
	return r.saveComponent(ctx, componentRow{
		header: p.ComponentHeader, kind: string(p.Type), primary: p.Primary, body: body, typ: model.ComponentPattern,
	})
}

func (r *postgresRepository) saveComponent(ctx context.Context, row componentRow) error {
	translations, err := jsonArg(row.header.Translations)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO profile_components (` + componentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO UPDATE SET
			iri = EXCLUDED.iri,
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			translations = EXCLUDED.translations,
			tags = EXCLUDED.tags,
			is_deprecated = EXCLUDED.is_deprecated,
			kind = EXCLUDED.kind,
			is_primary = EXCLUDED.is_primary,
			body = EXCLUDED.body,
			updated_on = EXCLUDED.updated_on
	`
	h := row.header
	_, err = r.q.Exec(ctx, query,
		h.ID, h.IRI, string(row.typ), h.ParentVersionID, h.ParentProfileID, h.Name, h.Description,
		translations, pq.Array(nonNilStrings(h.Tags)), h.Deprecated, row.kind, row.primary, string(row.body),
		h.CreatedOn, h.UpdatedOn,
	)
	return mapWriteError(err, "save "+string(row.typ), fmt.Sprintf("a component with IRI %s already exists", h.IRI))
}

func (r *postgresRepository) GetComponent(ctx context.Context, id uuid.UUID) (*model.ComponentSummary, error) {
	return r.summary(ctx, `WHERE c.id = $1`, id)
}

// published copies first, then the newest version
func (r *postgresRepository) GetComponentByIRI(ctx context.Context, iri string) (*model.ComponentSummary, error) {
	return r.summary(ctx, `
		WHERE c.iri = $1
		ORDER BY CASE WHEN v.state IS NULL OR v.state = 'draft' THEN 1 ELSE 0 END,
			v.version DESC NULLS LAST, c.id
		LIMIT 1`, iri)
}

func (r *postgresRepository) summary(ctx context.Context, filter string, arg any) (*model.ComponentSummary, error) {
	var (
		s   model.ComponentSummary
		typ string
	)
	err := r.q.QueryRow(ctx,
		`SELECT c.id, c.iri, c.component_type, c.parent_version_id, c.parent_profile_id, c.is_primary
		 FROM profile_components c
		 LEFT JOIN profile_versions v ON v.id = c.parent_version_id `+filter, arg,
	).Scan(&s.ID, &s.IRI, &typ, &s.ParentVersionID, &s.ParentProfileID, &s.Primary)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.NewNotFound("component")
		}
		return nil, model.NewInternal("failed to load component", err)
	}
	s.Type = model.ComponentType(typ)
	return &s, nil
}

func (r *postgresRepository) GetConcepts(ctx context.Context, ids []uuid.UUID) ([]*model.Concept, error) {
	rows, err := r.loadComponents(ctx, model.ComponentConcept, ids)
	if err != nil {
		return nil, err
	}
	out := make([]*model.Concept, 0, len(rows))
	for _, row := range rows {
		kind := model.ConceptKind(row.kind)
		body, err := model.DecodeConceptBody(kind, row.body)
		if err != nil {
			return nil, model.NewInternal("failed to decode concept body", err)
		}
		out = append(out, &model.Concept{ComponentHeader: row.header, Kind: kind, Body: body})
	}
	return out, nil
}

func (r *postgresRepository) GetTemplates(ctx context.Context, ids []uuid.UUID) ([]*model.Template, error) {
	rows, err := r.loadComponents(ctx, model.ComponentTemplate, ids)
	if err != nil {
		return nil, err
	}
	out := make([]*model.Template, 0, len(rows))
	for _, row := range rows {
		t := &model.Template{ComponentHeader: row.header}
		if err := decodeJSON(row.body, &t.TemplateBody); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *postgresRepository) GetPatterns(ctx context.Context, ids []uuid.UUID) ([]*model.Pattern, error) {
	rows, err := r.loadComponents(ctx, model.ComponentPattern, ids)
	if err != nil {
		return nil, err
	}
	out := make([]*model.Pattern, 0, len(rows))
	for _, row := range rows {
		p := &model.Pattern{ComponentHeader: row.header}
		p.Primary = row.primary
		p.Type = model.PatternOperator(row.kind)
		var body struct {
			Members []model.ComponentRef `json:"members"`
		}
		if err := decodeJSON(row.body, &body); err != nil {
			return nil, err
		}
		p.Members = body.Members
		out = append(out, p)
	}
	return out, nil
}

// loadComponents fetches rows for ids and returns them in the order of ids
func (r *postgresRepository) loadComponents(ctx context.Context, t model.ComponentType, ids []uuid.UUID) ([]componentRow, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.q.Query(ctx,
		`SELECT `+componentColumns+` FROM profile_components WHERE component_type = $1 AND id = ANY($2)`,
		string(t), ids)
	if err != nil {
		return nil, model.NewInternal("failed to load components", err)
	}
	defer rows.Close()

	byID := make(map[uuid.UUID]componentRow, len(ids))
	for rows.Next() {
		var (
			row          componentRow
			typ          string
			translations []byte
			tags         pq.StringArray
		)
		h := &row.header
		if err := rows.Scan(
			&h.ID, &h.IRI, &typ, &h.ParentVersionID, &h.ParentProfileID, &h.Name, &h.Description,
			&translations, pq.Array(&tags), &h.Deprecated, &row.kind, &row.primary, &row.body,
			&h.CreatedOn, &h.UpdatedOn,
		); err != nil {
			return nil, model.NewInternal("failed to scan component", err)
		}
		row.typ = model.ComponentType(typ)
		h.Tags = []string(tags)
		if err := decodeJSON(translations, &h.Translations); err != nil {
			return nil, err
		}
		byID[h.ID] = row
	}
	if err := rows.Err(); err != nil {
		return nil, model.NewInternal("failed to read components", err)
	}

	out := make([]componentRow, 0, len(byID))
	for _, id := range ids {
		if row, ok := byID[id]; ok {
			out = append(out, row)
		}
	}
	return out, nil
}

func (r *postgresRepository) DeleteComponent(ctx context.Context, id uuid.UUID) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM profile_components WHERE id = $1`, id)
	if err != nil {
		return model.NewInternal("failed to delete component", err)
	}
	if tag.RowsAffected() == 0 {
		return model.NewNotFound("component")
	}
	return nil
}

func (r *postgresRepository) PatternsReferencing(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error) {
	needle, err := json.Marshal(map[string]any{"members": []map[string]string{{"id": id.String()}}})
	if err != nil {
		return nil, model.NewInternal("failed to encode member lookup", err)
	}
	rows, err := r.q.Query(ctx,
		`SELECT id FROM profile_components WHERE component_type = 'pattern' AND body @> $1::jsonb`, string(needle))
	if err != nil {
		return nil, model.NewInternal("failed to find referencing patterns", err)
	}
	return collectIDs(rows)
}

func (r *postgresRepository) VersionsOwning(ctx context.Context, t model.ComponentType, id uuid.UUID) ([]uuid.UUID, error) {
	var column string
	switch t {
	case model.ComponentConcept:
		column = "concepts"
	case model.ComponentTemplate:
		column = "templates"
	case model.ComponentPattern:
		column = "patterns"
	default:
		return nil, model.NewInvalidID(string(t))
	}
	needle, _ := json.Marshal([]string{id.String()})
	rows, err := r.q.Query(ctx,
		`SELECT id FROM profile_versions WHERE `+column+` @> $1::jsonb`, string(needle))
	if err != nil {
		return nil, model.NewInternal("failed to find owning versions", err)
	}
	return collectIDs(rows)
}

// ========================================
// HELPERS
// ========================================

func collectIDs(rows pgx.Rows) ([]uuid.UUID, error) {
	defer rows.Close()
	var out []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, model.NewInternal("failed to scan id", err)
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, model.NewInternal("failed to read ids", err)
	}
	return out, nil
}

// jsonArg encodes v for a jsonb column; nil slices become []
func jsonArg(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", model.NewInternal("failed to encode column", err)
	}
	if string(raw) == "null" {
		return "[]", nil
	}
	return string(raw), nil
}

func decodeJSON(raw []byte, dest any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return model.NewInternal("failed to decode column", err)
	}
	return nil
}

func nonNilStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

func prefixed(alias string, columns []string) string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = alias + "." + c
	}
	return strings.Join(out, ", ")
}

// mapWriteError turns unique violations into Conflict and anything else
// into an internal error
func mapWriteError(err error, op, conflictMsg string) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return model.NewConflict(conflictMsg)
	}
	var profileErr *model.ProfileError
	if errors.As(err, &profileErr) {
		return err
	}
	logger.Error(op+": database error", err)
	return model.NewInternal("failed to "+op, err)
}

var _ Repository = (*postgresRepository)(nil)
