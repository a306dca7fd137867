package sentinel

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/forgecloud/backend/internal/models"
)

const sourceColumns = `id, organization_id, project_id, name, type, status, description, environment,
	ingest_key, created_at, updated_at`

// SourceRepository handles log source persistence.
type SourceRepository struct {
	pool *pgxpool.Pool
}

// NewSourceRepository creates a log source repository.
func NewSourceRepository(pool *pgxpool.Pool) *SourceRepository {
	return &SourceRepository{pool: pool}
}

func scanSource(row pgx.Row) (*models.LogSource, error) {
	var s models.LogSource
	err := row.Scan(&s.ID, &s.OrganizationID, &s.ProjectID, &s.Name, &s.Type, &s.Status,
		&s.Description, &s.Environment, &s.IngestKey, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListByOrg returns all log sources in an organization, newest first.
func (r *SourceRepository) ListByOrg(ctx context.Context, orgID uuid.UUID) ([]models.LogSource, error) {
	const q = `SELECT ` + sourceColumns + ` FROM log_sources WHERE organization_id = $1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.LogSource
	for rows.Next() {
		s, err := scanSource(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *s)
	}
	return list, rows.Err()
}

// GetByID returns a log source by ID, nil when absent.
func (r *SourceRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.LogSource, error) {
	const q = `SELECT ` + sourceColumns + ` FROM log_sources WHERE id = $1`
	return scanSource(r.pool.QueryRow(ctx, q, id))
}

// FindByOrgAndName returns the source with the given name in the
// organization, nil when absent.
func (r *SourceRepository) FindByOrgAndName(ctx context.Context, orgID uuid.UUID, name string) (*models.LogSource, error) {
	const q = `SELECT ` + sourceColumns + ` FROM log_sources WHERE organization_id = $1 AND name = $2`
	return scanSource(r.pool.QueryRow(ctx, q, orgID, name))
}

// Create inserts a new log source, filling in generated fields.
func (r *SourceRepository) Create(ctx context.Context, s *models.LogSource) error {
	const q = `INSERT INTO log_sources (organization_id, project_id, name, type, status, description, environment, ingest_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, status, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, s.OrganizationID, s.ProjectID, s.Name, s.Type, s.Status,
		s.Description, s.Environment, s.IngestKey).
		Scan(&s.ID, &s.Status, &s.CreatedAt, &s.UpdatedAt)
}
