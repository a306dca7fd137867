package sentinel

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/forgecloud/backend/internal/models"
)

// EntryRepository handles log entry persistence.
type EntryRepository struct {
	pool *pgxpool.Pool
}

// NewEntryRepository creates a log entry repository.
func NewEntryRepository(pool *pgxpool.Pool) *EntryRepository {
	return &EntryRepository{pool: pool}
}

// Create inserts a log entry, filling in generated fields.
func (r *EntryRepository) Create(ctx context.Context, e *models.LogEntry) error {
	const q = `INSERT INTO log_entries (organization_id, project_id, source_id, timestamp, level, message, context, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`
	return r.pool.QueryRow(ctx, q, e.OrganizationID, e.ProjectID, e.SourceID, e.Timestamp,
		e.Level, e.Message, e.Context, e.Metadata).
		Scan(&e.ID, &e.CreatedAt)
}

// EntryFilter narrows a log entry listing. Zero values mean "no filter".
type EntryFilter struct {
	SourceID *uuid.UUID
	Level    models.LogLevel
	Limit    int
	Offset   int
}

// ListByOrg returns entries in an organization, newest first, with the total
// count before pagination.
func (r *EntryRepository) ListByOrg(ctx context.Context, orgID uuid.UUID, f EntryFilter) ([]models.LogEntry, int, error) {
	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	const countQ = `SELECT COUNT(*) FROM log_entries
		WHERE organization_id = $1
		  AND ($2::uuid IS NULL OR source_id = $2)
		  AND ($3 = '' OR level = $3)`
	var total int
	if err := r.pool.QueryRow(ctx, countQ, orgID, f.SourceID, string(f.Level)).Scan(&total); err != nil {
		return nil, 0, err
	}

	const q = `SELECT id, organization_id, project_id, source_id, timestamp, level, message, context, metadata, created_at
		FROM log_entries
		WHERE organization_id = $1
		  AND ($2::uuid IS NULL OR source_id = $2)
		  AND ($3 = '' OR level = $3)
		ORDER BY timestamp DESC
		LIMIT $4 OFFSET $5`
	rows, err := r.pool.Query(ctx, q, orgID, f.SourceID, string(f.Level), limit, f.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var list []models.LogEntry
	for rows.Next() {
		var e models.LogEntry
		if err := rows.Scan(&e.ID, &e.OrganizationID, &e.ProjectID, &e.SourceID, &e.Timestamp,
			&e.Level, &e.Message, &e.Context, &e.Metadata, &e.CreatedAt); err != nil {
			return nil, 0, err
		}
		list = append(list, e)
	}
	return list, total, rows.Err()
}
