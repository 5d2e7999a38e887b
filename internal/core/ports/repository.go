package ports

import (
	"context"

	"github.com/wafflestudio/seminar-system/internal/core/domain"
)

// UserRepository defines persistence operations for user accounts.
type UserRepository interface {
	// Create assigns u.ID. Returns domain.ErrEmailExists on a duplicate email.
	Create(ctx context.Context, u *domain.User) error
	// FindByID returns domain.ErrUserNotFound when absent.
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	// FindByEmail returns domain.ErrUserNotFound when absent.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// List returns every user ordered by id.
	List(ctx context.Context) ([]*domain.User, error)
	Update(ctx context.Context, u *domain.User) error
	// Delete removes the user together with all of its memberships.
	Delete(ctx context.Context, id int64) error
}

// SeminarFilter carries the query parameters of a seminar listing.
type SeminarFilter struct {
	Name     string // optional: case-sensitive substring of the seminar name
	Earliest bool   // true = created_at ascending; false = newest first
}

// SeminarRepository defines persistence operations for seminars.
type SeminarRepository interface {
	// Create assigns s.ID.
	Create(ctx context.Context, s *domain.Seminar) error
	Update(ctx context.Context, s *domain.Seminar) error
	// Lock loads the seminar and holds it exclusively until the surrounding
	// transaction ends. Returns domain.ErrSeminarNotFound when absent.
	Lock(ctx context.Context, id int64) (*domain.Seminar, error)
	// FindByID returns domain.ErrSeminarNotFound when absent.
	FindByID(ctx context.Context, id int64) (*domain.Seminar, error)
	// FindDetail loads the seminar with all of its members in a single round
	// trip. Members are ordered by joined_at, then membership id.
	FindDetail(ctx context.Context, id int64) (*domain.SeminarDetail, error)
	// List loads every matching seminar with its members in a single round trip.
	List(ctx context.Context, filter SeminarFilter) ([]*domain.SeminarDetail, error)
}

// UserMembership is a membership seen from the user's side.
type UserMembership struct {
	domain.Membership
	SeminarName string
}

// MembershipRepository defines persistence operations for memberships.
type MembershipRepository interface {
	// Create assigns m.ID. Returns domain.ErrMembershipExists when the
	// (user, seminar) pair already has a row.
	Create(ctx context.Context, m *domain.Membership) error
	Update(ctx context.Context, m *domain.Membership) error
	// Find returns domain.ErrMembershipNotFound when absent.
	Find(ctx context.Context, userID, seminarID int64) (*domain.Membership, error)
	// FindLatestActive returns the user's most recently joined active
	// membership with the given role, or domain.ErrMembershipNotFound.
	FindLatestActive(ctx context.Context, userID int64, role domain.Role) (*domain.Membership, error)
	CountActive(ctx context.Context, seminarID int64, role domain.Role) (int, error)
	// ListByUsers returns the memberships of all given users in one round
	// trip, ordered by user id then joined_at.
	ListByUsers(ctx context.Context, userIDs []int64) ([]UserMembership, error)
}

// ActivityRepository stores the seminar activity history.
type ActivityRepository interface {
	Insert(ctx context.Context, ev *domain.ActivityEvent) error
	// ListBySeminar returns events oldest first.
	ListBySeminar(ctx context.Context, seminarID int64) ([]domain.ActivityEvent, error)
}

// Store is a storage backend. Repositories obtained from it join the
// transaction carried by ctx, if any.
type Store interface {
	Users() UserRepository
	Seminars() SeminarRepository
	Memberships() MembershipRepository
	Activity() ActivityRepository
	// WithinTx runs fn in a transaction, committing when fn returns nil.
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
