package projects

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/forgecloud/backend/internal/models"
)

const projectColumns = `id, organization_id, name, project_key, description, status, visibility,
	created_by_user_id, last_updated_by_user_id, created_at, updated_at`

// Repository handles project persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a projects repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanProject(row pgx.Row) (*models.Project, error) {
	var p models.Project
	err := row.Scan(&p.ID, &p.OrganizationID, &p.Name, &p.Key, &p.Description, &p.Status, &p.Visibility,
		&p.CreatedByUserID, &p.LastUpdatedByUserID, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListByOrg returns all projects in an organization, newest first.
func (r *Repository) ListByOrg(ctx context.Context, orgID uuid.UUID) ([]models.Project, error) {
	const q = `SELECT ` + projectColumns + ` FROM projects WHERE organization_id = $1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *p)
	}
	return list, rows.Err()
}

// GetByID returns a project by ID, nil when absent.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	const q = `SELECT ` + projectColumns + ` FROM projects WHERE id = $1`
	return scanProject(r.pool.QueryRow(ctx, q, id))
}

// FindByOrgAndKey returns the project with the given key in the organization,
// nil when absent.
func (r *Repository) FindByOrgAndKey(ctx context.Context, orgID uuid.UUID, key string) (*models.Project, error) {
	const q = `SELECT ` + projectColumns + ` FROM projects WHERE organization_id = $1 AND project_key = $2`
	return scanProject(r.pool.QueryRow(ctx, q, orgID, key))
}

// Create inserts a new project, filling in generated fields.
func (r *Repository) Create(ctx context.Context, p *models.Project) error {
	const q = `INSERT INTO projects (organization_id, name, project_key, description, status, visibility, created_by_user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, status, visibility, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, p.OrganizationID, p.Name, p.Key, p.Description, p.Status, p.Visibility, p.CreatedByUserID).
		Scan(&p.ID, &p.Status, &p.Visibility, &p.CreatedAt, &p.UpdatedAt)
}

// Save updates mutable project fields.
func (r *Repository) Save(ctx context.Context, p *models.Project) error {
	const q = `UPDATE projects SET name = $2, description = $3, status = $4, visibility = $5,
			last_updated_by_user_id = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`
	return r.pool.QueryRow(ctx, q, p.ID, p.Name, p.Description, p.Status, p.Visibility, p.LastUpdatedByUserID).
		Scan(&p.UpdatedAt)
}
