package postgres

import (
	"fmt"
	"io/fs"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wafflestudio/seminar-system/internal/core/domain"
)

var t0 = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func seminarRowFixture(id int64, name string) seminarRow {
	return seminarRow{ID: id, Name: name, Capacity: 10, Count: 5, Online: true, Time: "13:30", CreatedAt: t0, UpdatedAt: t0}
}

func memberRow(s seminarRow, memberID, userID int64, role string, dropped bool) detailRow {
	d := detailRow{
		Seminar:   s,
		MemberID:  pgtype.Int8{Int64: memberID, Valid: true},
		UserID:    pgtype.Int8{Int64: userID, Valid: true},
		Role:      pgtype.Text{String: role, Valid: true},
		IsActive:  pgtype.Bool{Bool: !dropped, Valid: true},
		JoinedAt:  pgtype.Timestamptz{Time: t0.Add(time.Duration(memberID) * time.Minute), Valid: true},
		CreatedAt: pgtype.Timestamptz{Time: t0, Valid: true},
		UpdatedAt: pgtype.Timestamptz{Time: t0, Valid: true},
		Email:     pgtype.Text{String: fmt.Sprintf("u%d@snu.ac.kr", userID), Valid: true},
		Username:  pgtype.Text{String: fmt.Sprintf("u%d", userID), Valid: true},
	}
	if dropped {
		d.DroppedAt = pgtype.Timestamptz{Time: t0.Add(time.Hour), Valid: true}
	}
	return d
}

func TestGroupDetails_FoldsRowsPerSeminar(t *testing.T) {
	a := seminarRowFixture(2, "Spring2")
	b := seminarRowFixture(1, "Spring1")

	rows := []detailRow{
		memberRow(a, 3, 30, "INSTRUCTOR", false),
		memberRow(a, 4, 31, "PARTICIPANT", true),
		{Seminar: b},
	}

	details, err := groupDetails(rows)
	require.NoError(t, err)
	require.Len(t, details, 2)

	assert.Equal(t, int64(2), details[0].ID)
	require.Len(t, details[0].Members, 2)
	assert.Equal(t, domain.RoleInstructor, details[0].Members[0].Role)
	assert.Equal(t, "u30@snu.ac.kr", details[0].Members[0].Email)
	assert.Equal(t, domain.StateDropped, details[0].Members[1].State())
	assert.Equal(t, int64(2), details[0].Members[1].SeminarID)

	assert.Equal(t, int64(1), details[1].ID)
	assert.NotNil(t, details[1].Members)
	assert.Empty(t, details[1].Members)
}

func TestGroupDetails_Empty(t *testing.T) {
	details, err := groupDetails(nil)
	require.NoError(t, err)
	assert.NotNil(t, details)
	assert.Empty(t, details)
}

func TestGroupDetails_RejectsCorruptTime(t *testing.T) {
	s := seminarRowFixture(1, "broken")
	s.Time = "25:00"
	_, err := groupDetails([]detailRow{{Seminar: s}})
	assert.Error(t, err)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(fmt.Errorf("plain")))
}

func TestTimestamptzRoundTrip(t *testing.T) {
	assert.False(t, timestamptz(nil).Valid)
	assert.Nil(t, timePtr(pgtype.Timestamptz{}))

	local := t0.In(time.FixedZone("KST", 9*3600))
	got := timePtr(timestamptz(&local))
	require.NotNil(t, got)
	assert.True(t, got.Equal(t0))
	assert.Equal(t, time.UTC, got.Location())
}

func TestMembershipRow_ToDomain(t *testing.T) {
	row := membershipRow{role: "PARTICIPANT", droppedAt: pgtype.Timestamptz{Time: t0, Valid: true}}
	row.ID = 9
	row.JoinedAt = t0

	m := row.toDomain()
	assert.Equal(t, domain.RoleParticipant, m.Role)
	assert.True(t, m.HasDropped())
	assert.Len(t, row.dest(), 9)
}

func TestMigrations_AreEmbeddedInPairs(t *testing.T) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	require.NoError(t, err)

	ups, downs := 0, 0
	for _, e := range entries {
		switch {
		case strings.HasSuffix(e.Name(), ".up.sql"):
			ups++
		case strings.HasSuffix(e.Name(), ".down.sql"):
			downs++
		}
	}
	assert.Positive(t, ups)
	assert.Equal(t, ups, downs)

	up, err := fs.ReadFile(migrationsFS, "migrations/000001_init.up.sql")
	require.NoError(t, err)
	assert.Contains(t, string(up), "memberships_user_seminar_key UNIQUE (user_id, seminar_id)")
}

func TestMigrateDown_RejectsNonPositiveSteps(t *testing.T) {
	err := MigrateDown("postgres://unused", 0, zerolog.Nop())
	assert.ErrorContains(t, err, "steps must be positive")
}
