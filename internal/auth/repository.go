package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/forgecloud/backend/internal/models"
)

const userColumns = `id, email, password_hash, full_name, avatar_url, is_active,
	active_organization_id, last_login_at, created_at, updated_at`

// Repository handles user persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an auth repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.Password, &u.FullName, &u.AvatarURL, &u.IsActive,
		&u.ActiveOrganizationID, &u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByID returns a user by ID, nil when absent.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.pool.QueryRow(ctx, q, id))
}

// GetByEmail returns a user by email, nil when absent.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.pool.QueryRow(ctx, q, email))
}

// Create inserts a new user.
func (r *Repository) Create(ctx context.Context, email, passwordHash string, fullName *string) (*models.User, error) {
	const q = `INSERT INTO users (email, password_hash, full_name)
		VALUES ($1, $2, $3)
		RETURNING ` + userColumns
	return scanUser(r.pool.QueryRow(ctx, q, email, passwordHash, fullName))
}

// List returns all users ordered by name then email.
func (r *Repository) List(ctx context.Context) ([]models.UserPublic, error) {
	const q = `SELECT ` + userColumns + ` FROM users ORDER BY full_name NULLS LAST, email`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.UserPublic
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, u.ToPublic())
	}
	return list, rows.Err()
}

// UpdateProfile updates full_name and/or avatar_url. Nil params leave the
// column unchanged.
func (r *Repository) UpdateProfile(ctx context.Context, id uuid.UUID, fullName, avatarURL *string) (*models.User, error) {
	const q = `UPDATE users SET
			full_name = COALESCE($2, full_name),
			avatar_url = COALESCE($3, avatar_url),
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns
	return scanUser(r.pool.QueryRow(ctx, q, id, fullName, avatarURL))
}

// UpdateLastLogin stamps last_login_at.
func (r *Repository) UpdateLastLogin(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET last_login_at = NOW(), updated_at = NOW() WHERE id = $1`, id)
	return err
}

// SetActiveOrganization writes the active workspace pointer. A nil orgID
// clears it.
func (r *Repository) SetActiveOrganization(ctx context.Context, userID uuid.UUID, orgID *uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE users SET active_organization_id = $2, updated_at = NOW() WHERE id = $1`,
		userID, orgID)
	return err
}

// ClaimActiveOrganization sets the active workspace pointer only while it is
// still unset, and returns whatever value the row holds afterwards. Under
// concurrent auto-selection every caller converges on the first write.
func (r *Repository) ClaimActiveOrganization(ctx context.Context, userID, orgID uuid.UUID) (uuid.UUID, error) {
	const q = `UPDATE users SET active_organization_id = $2, updated_at = NOW()
		WHERE id = $1 AND active_organization_id IS NULL
		RETURNING active_organization_id`
	var claimed uuid.UUID
	err := r.pool.QueryRow(ctx, q, userID, orgID).Scan(&claimed)
	if errors.Is(err, pgx.ErrNoRows) {
		// Someone else claimed first; read the winning value.
		var current *uuid.UUID
		if err := r.pool.QueryRow(ctx,
			`SELECT active_organization_id FROM users WHERE id = $1`, userID).Scan(&current); err != nil {
			return uuid.Nil, err
		}
		if current == nil {
			// Cleared again before the read-back; callers retry on uuid.Nil.
			return uuid.Nil, nil
		}
		return *current, nil
	}
	if err != nil {
		return uuid.Nil, err
	}
	return claimed, nil
}
