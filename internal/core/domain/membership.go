package domain

import "time"

// MembershipState is the lifecycle position of a membership.
//
//	NONE -> ACTIVE (join) -> DROPPED (drop, participants only)
//
// DROPPED is terminal: the same user can never join that seminar again.
type MembershipState string

const (
	StateNone    MembershipState = "NONE"
	StateActive  MembershipState = "ACTIVE"
	StateDropped MembershipState = "DROPPED"
)

// Membership binds one user to one seminar. There is at most one membership
// per (user, seminar) pair for the lifetime of both.
type Membership struct {
	ID        int64
	UserID    int64
	SeminarID int64
	Role      Role
	IsActive  bool
	JoinedAt  time.Time
	DroppedAt *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewMembership returns an active membership joined at now.
func NewMembership(userID, seminarID int64, role Role, now time.Time) *Membership {
	return &Membership{
		UserID:    userID,
		SeminarID: seminarID,
		Role:      role,
		IsActive:  true,
		JoinedAt:  now,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// State derives the lifecycle state. A nil membership is NONE.
func (m *Membership) State() MembershipState {
	switch {
	case m == nil:
		return StateNone
	case m.DroppedAt != nil:
		return StateDropped
	default:
		return StateActive
	}
}

// HasDropped is the permanent re-join ban flag.
func (m *Membership) HasDropped() bool { return m.DroppedAt != nil }

// Drop moves an active participant membership to DROPPED. Dropping twice is a
// no-op; instructors have no drop transition.
func (m *Membership) Drop(now time.Time) error {
	if m.Role == RoleInstructor {
		return ErrInstructorCannotDrop
	}
	if m.HasDropped() {
		return nil
	}
	m.IsActive = false
	m.DroppedAt = &now
	m.UpdatedAt = now
	return nil
}

// CheckJoin validates a join of role against the caller's existing membership
// on the same seminar (nil when there is none).
func CheckJoin(existing *Membership, role Role) error {
	switch existing.State() {
	case StateNone:
		return nil
	case StateDropped:
		return ErrRejoinAfterDrop
	}
	if role == RoleParticipant && existing.Role == RoleInstructor {
		return ErrOnlyParticipantCanJoin
	}
	return ErrAlreadyParticipating
}

// Member is a membership joined with the account fields shown in profiles.
type Member struct {
	Membership
	Email    string
	Username string
}

// SeminarDetail is a seminar with all of its memberships, loaded in one batch.
type SeminarDetail struct {
	Seminar
	Members []Member
}

// Instructors returns the instructor members, in the stored order.
func (d *SeminarDetail) Instructors() []Member {
	return d.filter(RoleInstructor)
}

// Participants returns participant members, active and dropped alike.
func (d *SeminarDetail) Participants() []Member {
	return d.filter(RoleParticipant)
}

// ActiveParticipants counts participants that have not dropped.
func (d *SeminarDetail) ActiveParticipants() int {
	n := 0
	for _, m := range d.Members {
		if m.Role == RoleParticipant && m.IsActive {
			n++
		}
	}
	return n
}

func (d *SeminarDetail) filter(role Role) []Member {
	out := make([]Member, 0, len(d.Members))
	for _, m := range d.Members {
		if m.Role == role {
			out = append(out, m)
		}
	}
	return out
}
