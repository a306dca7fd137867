package organizations

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/forgecloud/backend/internal/models"
)

// MembershipRepository handles the tenancy relation: (user, organization,
// role, status) tuples. Only ACTIVE rows grant any privilege, so the lookup
// methods filter on status.
type MembershipRepository struct {
	pool *pgxpool.Pool
}

// NewMembershipRepository creates a membership repository.
func NewMembershipRepository(pool *pgxpool.Pool) *MembershipRepository {
	return &MembershipRepository{pool: pool}
}

const membershipColumns = `id, user_id, organization_id, role, status,
	invited_by_user_id, invited_at, joined_at, created_at, updated_at`

// ActiveForUser returns the user's ACTIVE memberships ordered by join time
// ascending, so the earliest-joined organization is a stable default.
func (r *MembershipRepository) ActiveForUser(ctx context.Context, userID uuid.UUID) ([]models.Membership, error) {
	const q = `SELECT ` + membershipColumns + `
		FROM organization_memberships
		WHERE user_id = $1 AND status = $2
		ORDER BY joined_at ASC NULLS LAST, created_at ASC`
	rows, err := r.pool.Query(ctx, q, userID, models.MembershipActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Membership
	for rows.Next() {
		var m models.Membership
		if err := rows.Scan(&m.ID, &m.UserID, &m.OrganizationID, &m.Role, &m.Status,
			&m.InvitedByUserID, &m.InvitedAt, &m.JoinedAt, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

// ActiveForUserInOrg returns the ACTIVE membership for (user, org), or nil.
func (r *MembershipRepository) ActiveForUserInOrg(ctx context.Context, userID, orgID uuid.UUID) (*models.Membership, error) {
	const q = `SELECT ` + membershipColumns + `
		FROM organization_memberships
		WHERE user_id = $1 AND organization_id = $2 AND status = $3`
	var m models.Membership
	err := r.pool.QueryRow(ctx, q, userID, orgID, models.MembershipActive).
		Scan(&m.ID, &m.UserID, &m.OrganizationID, &m.Role, &m.Status,
			&m.InvitedByUserID, &m.InvitedAt, &m.JoinedAt, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

// ActiveMembersForOrg returns the organization's ACTIVE members with their
// identities, ordered by join time ascending.
func (r *MembershipRepository) ActiveMembersForOrg(ctx context.Context, orgID uuid.UUID) ([]models.Member, error) {
	const q = `SELECT m.user_id, u.email, u.full_name, m.role, m.joined_at
		FROM organization_memberships m
		INNER JOIN users u ON u.id = m.user_id
		WHERE m.organization_id = $1 AND m.status = $2
		ORDER BY m.joined_at ASC NULLS LAST, m.created_at ASC`
	rows, err := r.pool.Query(ctx, q, orgID, models.MembershipActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Member
	for rows.Next() {
		var m models.Member
		if err := rows.Scan(&m.UserID, &m.Email, &m.FullName, &m.Role, &m.JoinedAt); err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

// SummariesForUser returns the organizations the user actively belongs to,
// each with the user's role, ordered by join time ascending.
func (r *MembershipRepository) SummariesForUser(ctx context.Context, userID uuid.UUID) ([]models.OrganizationSummary, error) {
	const q = `SELECT o.id, o.name, o.slug, o.plan, m.role
		FROM organization_memberships m
		INNER JOIN organizations o ON o.id = m.organization_id
		WHERE m.user_id = $1 AND m.status = $2
		ORDER BY m.joined_at ASC NULLS LAST, m.created_at ASC`
	rows, err := r.pool.Query(ctx, q, userID, models.MembershipActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.OrganizationSummary
	for rows.Next() {
		var s models.OrganizationSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.Slug, &s.Plan, &s.Role); err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}
