package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/wafflestudio/seminar-system/internal/core/domain"
)

const selectUser = `
SELECT u.id, u.email, u.username, u.password_hash, u.role, u.last_login_at, u.created_at, u.updated_at,
       p.user_id IS NOT NULL, COALESCE(p.university, ''), COALESCE(p.is_registered, FALSE),
       i.user_id IS NOT NULL, COALESCE(i.company, ''), i.year
FROM users u
LEFT JOIN participant_profiles p ON p.user_id = u.id
LEFT JOIN instructor_profiles i ON i.user_id = u.id`

type UserRepository struct {
	conn
}

func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	return r.withinTx(ctx, func(ctx context.Context) error {
		err := r.q(ctx).QueryRow(ctx, `
			INSERT INTO users (email, username, password_hash, role, last_login_at, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id`,
			u.Email, u.Username, u.PasswordHash, string(u.Role), timestamptz(u.LastLoginAt),
			u.CreatedAt.UTC(), u.UpdatedAt.UTC(),
		).Scan(&u.ID)
		if err != nil {
			if isUniqueViolation(err) {
				return domain.ErrEmailExists
			}
			return fmt.Errorf("insert user: %w", err)
		}
		return r.saveProfiles(ctx, u)
	})
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.findOne(ctx, selectUser+` WHERE u.id = $1`, id)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, selectUser+` WHERE u.email = $1`, email)
}

func (r *UserRepository) findOne(ctx context.Context, sql string, arg any) (*domain.User, error) {
	u, err := scanUser(r.q(ctx).QueryRow(ctx, sql, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}

func (r *UserRepository) List(ctx context.Context) ([]*domain.User, error) {
	rows, err := r.q(ctx).Query(ctx, selectUser+` ORDER BY u.id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	out := make([]*domain.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return out, nil
}

func (r *UserRepository) Update(ctx context.Context, u *domain.User) error {
	return r.withinTx(ctx, func(ctx context.Context) error {
		tag, err := r.q(ctx).Exec(ctx, `
			UPDATE users
			SET email = $2, username = $3, password_hash = $4, role = $5, last_login_at = $6, updated_at = $7
			WHERE id = $1`,
			u.ID, u.Email, u.Username, u.PasswordHash, string(u.Role), timestamptz(u.LastLoginAt), u.UpdatedAt.UTC(),
		)
		if err != nil {
			if isUniqueViolation(err) {
				return domain.ErrEmailExists
			}
			return fmt.Errorf("update user: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrUserNotFound
		}
		return r.saveProfiles(ctx, u)
	})
}

// Delete relies on ON DELETE CASCADE for profiles and memberships.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.q(ctx).Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) saveProfiles(ctx context.Context, u *domain.User) error {
	if p := u.Participant; p != nil {
		_, err := r.q(ctx).Exec(ctx, `
			INSERT INTO participant_profiles (user_id, university, is_registered)
			VALUES ($1, $2, $3)
			ON CONFLICT (user_id) DO UPDATE SET university = EXCLUDED.university, is_registered = EXCLUDED.is_registered`,
			u.ID, p.University, p.IsRegistered,
		)
		if err != nil {
			return fmt.Errorf("save participant profile: %w", err)
		}
	}
	if p := u.Instructor; p != nil {
		year := pgtype.Int4{}
		if p.Year != nil {
			year = pgtype.Int4{Int32: int32(*p.Year), Valid: true}
		}
		_, err := r.q(ctx).Exec(ctx, `
			INSERT INTO instructor_profiles (user_id, company, year)
			VALUES ($1, $2, $3)
			ON CONFLICT (user_id) DO UPDATE SET company = EXCLUDED.company, year = EXCLUDED.year`,
			u.ID, p.Company, year,
		)
		if err != nil {
			return fmt.Errorf("save instructor profile: %w", err)
		}
	}
	return nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		u              domain.User
		role           string
		lastLogin      pgtype.Timestamptz
		hasParticipant bool
		university     string
		isRegistered   bool
		hasInstructor  bool
		company        string
		year           pgtype.Int4
	)
	err := row.Scan(
		&u.ID, &u.Email, &u.Username, &u.PasswordHash, &role, &lastLogin, &u.CreatedAt, &u.UpdatedAt,
		&hasParticipant, &university, &isRegistered,
		&hasInstructor, &company, &year,
	)
	if err != nil {
		return nil, err
	}
	u.Role = domain.Role(role)
	u.LastLoginAt = timePtr(lastLogin)
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	if hasParticipant {
		u.Participant = &domain.ParticipantProfile{University: university, IsRegistered: isRegistered}
	}
	if hasInstructor {
		u.Instructor = &domain.InstructorProfile{Company: company}
		if year.Valid {
			y := int(year.Int32)
			u.Instructor.Year = &y
		}
	}
	return &u, nil
}
