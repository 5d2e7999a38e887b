package ports

import (
	"context"
	"time"

	"github.com/wafflestudio/seminar-system/internal/core/domain"
)

// AttendedSeminar is one seminar in a participant's history.
type AttendedSeminar struct {
	ID        int64
	Name      string
	JoinedAt  time.Time
	IsActive  bool
	DroppedAt *time.Time
}

// ConductedSeminar is the seminar an instructor currently conducts.
type ConductedSeminar struct {
	ID       int64
	Name     string
	JoinedAt time.Time
}

// ParticipantInfo is the participant block of a user profile.
type ParticipantInfo struct {
	University   string
	IsRegistered bool
	Seminars     []AttendedSeminar
}

// InstructorInfo is the instructor block of a user profile.
type InstructorInfo struct {
	Company string
	Year    *int
	Charge  *ConductedSeminar
}

// UserProfile is the user view returned by the user endpoints.
type UserProfile struct {
	ID          int64
	Email       string
	Username    string
	Role        domain.Role
	LastLogin   *time.Time
	DateJoined  time.Time
	Participant *ParticipantInfo
	Instructor  *InstructorInfo
}

// UserService defines account management use cases.
type UserService interface {
	GetUser(ctx context.Context, id int64) (*UserProfile, error)
	ListUsers(ctx context.Context) ([]UserProfile, error)
	UpdateUser(ctx context.Context, id int64, changes domain.UserChanges) (*UserProfile, error)
	RegisterParticipant(ctx context.Context, id int64, profile domain.ParticipantProfile) (*UserProfile, error)
	DeleteUser(ctx context.Context, id int64) error
}

// SignUpInput carries a new account. Profile fields apply to the role chosen.
type SignUpInput struct {
	Email        string
	Username     string
	Password     string
	Role         string
	University   string
	IsRegistered *bool
	Company      string
	Year         *int
}

// AuthResult is returned by sign-up and sign-in.
type AuthResult struct {
	Token string
	User  *domain.User
}

// Claims is the identity carried by a verified token.
type Claims struct {
	UserID int64
	Email  string
	Role   domain.Role
}

// AuthService issues tokens for registered users.
type AuthService interface {
	SignUp(ctx context.Context, in SignUpInput) (*AuthResult, error)
	LogIn(ctx context.Context, email, password string) (*AuthResult, error)
}

// TokenVerifier resolves a bearer token to the identity it was issued for.
type TokenVerifier interface {
	VerifyToken(token string) (*Claims, error)
}
