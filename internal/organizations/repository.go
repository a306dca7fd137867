package organizations

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/forgecloud/backend/internal/models"
)

// Repository is the organization directory: durable organization records
// looked up by id and slug.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an organizations repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const orgColumns = `id, name, slug, plan, is_active, owner_user_id, created_by_user_id, created_at, updated_at`

func scanOrganization(row pgx.Row) (*models.Organization, error) {
	var o models.Organization
	err := row.Scan(&o.ID, &o.Name, &o.Slug, &o.Plan, &o.IsActive,
		&o.OwnerUserID, &o.CreatedByUserID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &o, nil
}

// FindByID returns an organization by ID, or nil when absent.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	const q = `SELECT ` + orgColumns + ` FROM organizations WHERE id = $1`
	return scanOrganization(r.pool.QueryRow(ctx, q, id))
}

// FindBySlug returns an organization by slug, or nil when absent.
func (r *Repository) FindBySlug(ctx context.Context, slug string) (*models.Organization, error) {
	const q = `SELECT ` + orgColumns + ` FROM organizations WHERE slug = $1`
	return scanOrganization(r.pool.QueryRow(ctx, q, slug))
}

// ListAll returns every organization, newest last.
func (r *Repository) ListAll(ctx context.Context) ([]models.Organization, error) {
	const q = `SELECT ` + orgColumns + ` FROM organizations ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Organization
	for rows.Next() {
		var o models.Organization
		if err := rows.Scan(&o.ID, &o.Name, &o.Slug, &o.Plan, &o.IsActive,
			&o.OwnerUserID, &o.CreatedByUserID, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, o)
	}
	return list, rows.Err()
}

// CreateWithOwner inserts the organization and the creator's OWNER/ACTIVE
// membership in one transaction, so no organization ever exists without its
// founding membership.
func (r *Repository) CreateWithOwner(ctx context.Context, org *models.Organization) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const insertOrg = `INSERT INTO organizations (name, slug, plan, owner_user_id, created_by_user_id)
		VALUES ($1, $2, $3, $4, $4)
		RETURNING id, plan, is_active, created_at, updated_at`
	err = tx.QueryRow(ctx, insertOrg, org.Name, org.Slug, org.Plan, org.CreatedByUserID).
		Scan(&org.ID, &org.Plan, &org.IsActive, &org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		return err
	}

	const insertMembership = `INSERT INTO organization_memberships (user_id, organization_id, role, status, joined_at)
		VALUES ($1, $2, $3, $4, NOW())`
	if _, err := tx.Exec(ctx, insertMembership, org.CreatedByUserID, org.ID,
		models.RoleOwner, models.MembershipActive); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// Save persists name and plan updates.
func (r *Repository) Save(ctx context.Context, org *models.Organization) error {
	const q = `UPDATE organizations SET name = $2, plan = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`
	return r.pool.QueryRow(ctx, q, org.ID, org.Name, org.Plan).Scan(&org.UpdatedAt)
}

// DeleteByID removes an organization, reporting whether a row was deleted.
func (r *Repository) DeleteByID(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM organizations WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
