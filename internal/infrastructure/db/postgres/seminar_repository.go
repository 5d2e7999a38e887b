package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/wafflestudio/seminar-system/internal/core/domain"
	"github.com/wafflestudio/seminar-system/internal/core/ports"
)

const seminarColumns = `s.id, s.name, s.capacity, s.count, s.online, s.time_of_day, s.created_at, s.updated_at`

// selectDetail joins every membership and its user onto the seminar row.
// A seminar without members yields one row with NULL member columns.
const selectDetail = `
SELECT ` + seminarColumns + `,
       m.id, m.user_id, m.role, m.is_active, m.joined_at, m.dropped_at, m.created_at, m.updated_at,
       u.email, u.username
FROM seminars s
LEFT JOIN memberships m ON m.seminar_id = s.id
LEFT JOIN users u ON u.id = m.user_id`

type SeminarRepository struct {
	conn
}

func (r *SeminarRepository) Create(ctx context.Context, s *domain.Seminar) error {
	err := r.q(ctx).QueryRow(ctx, `
		INSERT INTO seminars (name, capacity, count, online, time_of_day, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		s.Name, s.Capacity, s.Count, s.Online, s.Time.String(), s.CreatedAt.UTC(), s.UpdatedAt.UTC(),
	).Scan(&s.ID)
	if err != nil {
		return fmt.Errorf("insert seminar: %w", err)
	}
	return nil
}

func (r *SeminarRepository) Update(ctx context.Context, s *domain.Seminar) error {
	tag, err := r.q(ctx).Exec(ctx, `
		UPDATE seminars
		SET name = $2, capacity = $3, count = $4, online = $5, time_of_day = $6, updated_at = $7
		WHERE id = $1`,
		s.ID, s.Name, s.Capacity, s.Count, s.Online, s.Time.String(), s.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("update seminar: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSeminarNotFound
	}
	return nil
}

// Lock takes a row lock that is held until the surrounding transaction ends.
// Outside a transaction the lock is released immediately.
func (r *SeminarRepository) Lock(ctx context.Context, id int64) (*domain.Seminar, error) {
	return r.findOne(ctx, `SELECT `+seminarColumns+` FROM seminars s WHERE s.id = $1 FOR UPDATE`, id)
}

func (r *SeminarRepository) FindByID(ctx context.Context, id int64) (*domain.Seminar, error) {
	return r.findOne(ctx, `SELECT `+seminarColumns+` FROM seminars s WHERE s.id = $1`, id)
}

func (r *SeminarRepository) findOne(ctx context.Context, sql string, id int64) (*domain.Seminar, error) {
	var row seminarRow
	if err := r.q(ctx).QueryRow(ctx, sql, id).Scan(row.dest()...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSeminarNotFound
		}
		return nil, fmt.Errorf("find seminar: %w", err)
	}
	return row.toDomain()
}

func (r *SeminarRepository) FindDetail(ctx context.Context, id int64) (*domain.SeminarDetail, error) {
	details, err := r.queryDetails(ctx, selectDetail+` WHERE s.id = $1 ORDER BY m.joined_at, m.id`, id)
	if err != nil {
		return nil, err
	}
	if len(details) == 0 {
		return nil, domain.ErrSeminarNotFound
	}
	return details[0], nil
}

// List matches Name as a case-sensitive substring. Only the two literal sort
// directions are ever spliced into the statement.
func (r *SeminarRepository) List(ctx context.Context, filter ports.SeminarFilter) ([]*domain.SeminarDetail, error) {
	dir := "DESC"
	if filter.Earliest {
		dir = "ASC"
	}
	sql := selectDetail + `
WHERE $1 = '' OR strpos(s.name, $1) > 0
ORDER BY s.created_at ` + dir + `, s.id ` + dir + `, m.joined_at, m.id`
	return r.queryDetails(ctx, sql, filter.Name)
}

func (r *SeminarRepository) queryDetails(ctx context.Context, sql string, arg any) ([]*domain.SeminarDetail, error) {
	rows, err := r.q(ctx).Query(ctx, sql, arg)
	if err != nil {
		return nil, fmt.Errorf("query seminars: %w", err)
	}
	defer rows.Close()

	var flat []detailRow
	for rows.Next() {
		var d detailRow
		if err := rows.Scan(d.dest()...); err != nil {
			return nil, fmt.Errorf("scan seminar: %w", err)
		}
		flat = append(flat, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query seminars: %w", err)
	}
	return groupDetails(flat)
}

type seminarRow struct {
	ID        int64
	Name      string
	Capacity  int
	Count     int
	Online    bool
	Time      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (s *seminarRow) dest() []any {
	return []any{&s.ID, &s.Name, &s.Capacity, &s.Count, &s.Online, &s.Time, &s.CreatedAt, &s.UpdatedAt}
}

func (s seminarRow) toDomain() (*domain.Seminar, error) {
	tod, err := domain.ParseTimeOfDay(s.Time)
	if err != nil {
		return nil, fmt.Errorf("seminar %d: stored time %q: %w", s.ID, s.Time, err)
	}
	return &domain.Seminar{
		ID:        s.ID,
		Name:      s.Name,
		Capacity:  s.Capacity,
		Count:     s.Count,
		Online:    s.Online,
		Time:      tod,
		CreatedAt: s.CreatedAt.UTC(),
		UpdatedAt: s.UpdatedAt.UTC(),
	}, nil
}

// detailRow is one row of selectDetail. Member columns are NULL for a
// seminar without members.
type detailRow struct {
	Seminar   seminarRow
	MemberID  pgtype.Int8
	UserID    pgtype.Int8
	Role      pgtype.Text
	IsActive  pgtype.Bool
	JoinedAt  pgtype.Timestamptz
	DroppedAt pgtype.Timestamptz
	CreatedAt pgtype.Timestamptz
	UpdatedAt pgtype.Timestamptz
	Email     pgtype.Text
	Username  pgtype.Text
}

func (d *detailRow) dest() []any {
	return append(d.Seminar.dest(),
		&d.MemberID, &d.UserID, &d.Role, &d.IsActive, &d.JoinedAt, &d.DroppedAt, &d.CreatedAt, &d.UpdatedAt,
		&d.Email, &d.Username,
	)
}

func (d detailRow) member() domain.Member {
	return domain.Member{
		Membership: domain.Membership{
			ID:        d.MemberID.Int64,
			UserID:    d.UserID.Int64,
			SeminarID: d.Seminar.ID,
			Role:      domain.Role(d.Role.String),
			IsActive:  d.IsActive.Bool,
			JoinedAt:  d.JoinedAt.Time.UTC(),
			DroppedAt: timePtr(d.DroppedAt),
			CreatedAt: d.CreatedAt.Time.UTC(),
			UpdatedAt: d.UpdatedAt.Time.UTC(),
		},
		Email:    d.Email.String,
		Username: d.Username.String,
	}
}

// groupDetails folds consecutive rows of the same seminar into one detail,
// keeping both the seminar order and the member order of the query.
func groupDetails(rows []detailRow) ([]*domain.SeminarDetail, error) {
	out := make([]*domain.SeminarDetail, 0)
	var cur *domain.SeminarDetail
	for _, row := range rows {
		if cur == nil || cur.ID != row.Seminar.ID {
			s, err := row.Seminar.toDomain()
			if err != nil {
				return nil, err
			}
			cur = &domain.SeminarDetail{Seminar: *s, Members: []domain.Member{}}
			out = append(out, cur)
		}
		if row.MemberID.Valid {
			cur.Members = append(cur.Members, row.member())
		}
	}
	return out, nil
}
