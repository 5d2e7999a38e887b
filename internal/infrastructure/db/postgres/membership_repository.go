package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/wafflestudio/seminar-system/internal/core/domain"
	"github.com/wafflestudio/seminar-system/internal/core/ports"
)

const membershipColumns = `m.id, m.user_id, m.seminar_id, m.role, m.is_active, m.joined_at, m.dropped_at, m.created_at, m.updated_at`

type MembershipRepository struct {
	conn
}

// Create inserts a membership. The unique (user_id, seminar_id) constraint
// turns a second row for the same pair into domain.ErrMembershipExists.
func (r *MembershipRepository) Create(ctx context.Context, m *domain.Membership) error {
	err := r.q(ctx).QueryRow(ctx, `
		INSERT INTO memberships (user_id, seminar_id, role, is_active, joined_at, dropped_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		m.UserID, m.SeminarID, string(m.Role), m.IsActive, m.JoinedAt.UTC(), timestamptz(m.DroppedAt),
		m.CreatedAt.UTC(), m.UpdatedAt.UTC(),
	).Scan(&m.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrMembershipExists
		}
		return fmt.Errorf("insert membership: %w", err)
	}
	return nil
}

func (r *MembershipRepository) Update(ctx context.Context, m *domain.Membership) error {
	tag, err := r.q(ctx).Exec(ctx, `
		UPDATE memberships SET is_active = $2, dropped_at = $3, updated_at = $4 WHERE id = $1`,
		m.ID, m.IsActive, timestamptz(m.DroppedAt), m.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("update membership: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrMembershipNotFound
	}
	return nil
}

func (r *MembershipRepository) Find(ctx context.Context, userID, seminarID int64) (*domain.Membership, error) {
	return r.findOne(ctx, `
		SELECT `+membershipColumns+` FROM memberships m
		WHERE m.user_id = $1 AND m.seminar_id = $2`, userID, seminarID)
}

func (r *MembershipRepository) FindLatestActive(ctx context.Context, userID int64, role domain.Role) (*domain.Membership, error) {
	return r.findOne(ctx, `
		SELECT `+membershipColumns+` FROM memberships m
		WHERE m.user_id = $1 AND m.role = $2 AND m.is_active
		ORDER BY m.joined_at DESC, m.id DESC
		LIMIT 1`, userID, string(role))
}

func (r *MembershipRepository) findOne(ctx context.Context, sql string, args ...any) (*domain.Membership, error) {
	var row membershipRow
	if err := r.q(ctx).QueryRow(ctx, sql, args...).Scan(row.dest()...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMembershipNotFound
		}
		return nil, fmt.Errorf("find membership: %w", err)
	}
	m := row.toDomain()
	return &m, nil
}

func (r *MembershipRepository) CountActive(ctx context.Context, seminarID int64, role domain.Role) (int, error) {
	var n int
	err := r.q(ctx).QueryRow(ctx, `
		SELECT count(*) FROM memberships WHERE seminar_id = $1 AND role = $2 AND is_active`,
		seminarID, string(role),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count memberships: %w", err)
	}
	return n, nil
}

// ListByUsers returns the memberships of all given users with their seminar
// names in a single query.
func (r *MembershipRepository) ListByUsers(ctx context.Context, userIDs []int64) ([]ports.UserMembership, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	rows, err := r.q(ctx).Query(ctx, `
		SELECT `+membershipColumns+`, s.name
		FROM memberships m
		JOIN seminars s ON s.id = m.seminar_id
		WHERE m.user_id = ANY($1)
		ORDER BY m.user_id, m.joined_at, m.id`, userIDs)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	defer rows.Close()

	out := make([]ports.UserMembership, 0)
	for rows.Next() {
		var (
			row  membershipRow
			name string
		)
		if err := rows.Scan(append(row.dest(), &name)...); err != nil {
			return nil, fmt.Errorf("scan membership: %w", err)
		}
		out = append(out, ports.UserMembership{Membership: row.toDomain(), SeminarName: name})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	return out, nil
}

type membershipRow struct {
	domain.Membership
	role      string
	droppedAt pgtype.Timestamptz
}

func (r *membershipRow) dest() []any {
	return []any{
		&r.ID, &r.UserID, &r.SeminarID, &r.role, &r.IsActive, &r.JoinedAt, &r.droppedAt, &r.CreatedAt, &r.UpdatedAt,
	}
}

func (r membershipRow) toDomain() domain.Membership {
	m := r.Membership
	m.Role = domain.Role(r.role)
	m.JoinedAt = m.JoinedAt.UTC()
	m.DroppedAt = timePtr(r.droppedAt)
	m.CreatedAt = m.CreatedAt.UTC()
	m.UpdatedAt = m.UpdatedAt.UTC()
	return m
}
