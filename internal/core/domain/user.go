package domain

import (
	"strings"
	"time"
)

// Role is a user's global role, or the role held inside a single seminar.
type Role string

const (
	RoleInstructor  Role = "INSTRUCTOR"
	RoleParticipant Role = "PARTICIPANT"
)

// ParseRole accepts exactly "INSTRUCTOR" or "PARTICIPANT" (case-sensitive).
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleInstructor, RoleParticipant:
		return Role(s), nil
	default:
		return "", ErrInvalidRole
	}
}

// ParticipantProfile is attached to users who take part in seminars.
type ParticipantProfile struct {
	University   string `json:"university" bson:"university"`
	IsRegistered bool   `json:"is_registered" bson:"is_registered"`
}

// InstructorProfile is attached to users who conduct seminars.
type InstructorProfile struct {
	Company string `json:"company" bson:"company"`
	Year    *int   `json:"year,omitempty" bson:"year,omitempty"`
}

// User is an account holder. Role is fixed by the constructor that built it.
type User struct {
	ID           int64
	Email        string
	Username     string
	PasswordHash string
	Role         Role
	Participant  *ParticipantProfile
	Instructor   *InstructorProfile
	LastLoginAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewInstructor builds an instructor account with its profile.
func NewInstructor(email, username, passwordHash string, profile InstructorProfile, now time.Time) (*User, error) {
	if profile.Year != nil && *profile.Year <= 0 {
		return nil, NotPositive("year")
	}
	u, err := newUser(email, username, passwordHash, RoleInstructor, now)
	if err != nil {
		return nil, err
	}
	u.Instructor = &profile
	return u, nil
}

// NewParticipant builds a participant account with its profile.
func NewParticipant(email, username, passwordHash string, profile ParticipantProfile, now time.Time) (*User, error) {
	u, err := newUser(email, username, passwordHash, RoleParticipant, now)
	if err != nil {
		return nil, err
	}
	u.Participant = &profile
	return u, nil
}

func newUser(email, username, passwordHash string, role Role, now time.Time) (*User, error) {
	switch {
	case strings.TrimSpace(email) == "":
		return nil, MissingField("email")
	case strings.TrimSpace(username) == "":
		return nil, MissingField("username")
	case passwordHash == "":
		return nil, MissingField("password")
	}
	return &User{
		Email:        email,
		Username:     username,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// IsInstructor reports whether the user's global role is INSTRUCTOR.
func (u *User) IsInstructor() bool { return u.Role == RoleInstructor }

// RegisterAsParticipant attaches a participant profile to an instructor.
// The global role is left untouched.
func (u *User) RegisterAsParticipant(profile ParticipantProfile, now time.Time) error {
	if u.Participant != nil {
		return ErrAlreadyParticipant
	}
	u.Participant = &profile
	u.UpdatedAt = now
	return nil
}

// UserChanges holds the optional fields of a profile update.
type UserChanges struct {
	Username   *string
	University *string
	Company    *string
	Year       *int
}

// Apply overwrites the supplied fields. Profile fields only apply to the
// profiles the user actually holds.
func (u *User) Apply(c UserChanges, now time.Time) error {
	if c.Username != nil {
		if strings.TrimSpace(*c.Username) == "" {
			return MissingField("username")
		}
		u.Username = *c.Username
	}
	if c.University != nil && u.Participant != nil {
		u.Participant.University = *c.University
	}
	if u.Instructor != nil {
		if c.Company != nil {
			u.Instructor.Company = *c.Company
		}
		if c.Year != nil {
			if *c.Year <= 0 {
				return NotPositive("year")
			}
			year := *c.Year
			u.Instructor.Year = &year
		}
	}
	u.UpdatedAt = now
	return nil
}

// RecordLogin stamps a successful sign-in.
func (u *User) RecordLogin(now time.Time) {
	u.LastLoginAt = &now
	u.UpdatedAt = now
}
