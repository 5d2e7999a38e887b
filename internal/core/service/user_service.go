package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/wafflestudio/seminar-system/internal/core/domain"
	"github.com/wafflestudio/seminar-system/internal/core/ports"
)

type UserService struct {
	store  ports.Store
	logger zerolog.Logger
	now    func() time.Time
}

func NewUserService(store ports.Store, logger zerolog.Logger) *UserService {
	return &UserService{
		store:  store,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// GetUser returns the profile of one user with its seminar history.
func (s *UserService) GetUser(ctx context.Context, id int64) (*ports.UserProfile, error) {
	u, err := s.store.Users().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	ms, err := s.store.Memberships().ListByUsers(ctx, []int64{id})
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	return toUserProfile(u, ms), nil
}

// ListUsers returns every user profile. Memberships of all users are loaded
// in a single store call.
func (s *UserService) ListUsers(ctx context.Context) ([]ports.UserProfile, error) {
	users, err := s.store.Users().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	if len(users) == 0 {
		return []ports.UserProfile{}, nil
	}

	ids := make([]int64, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	ms, err := s.store.Memberships().ListByUsers(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	byUser := make(map[int64][]ports.UserMembership, len(users))
	for _, m := range ms {
		byUser[m.UserID] = append(byUser[m.UserID], m)
	}

	out := make([]ports.UserProfile, 0, len(users))
	for _, u := range users {
		out = append(out, *toUserProfile(u, byUser[u.ID]))
	}
	return out, nil
}

// UpdateUser applies the supplied profile changes.
func (s *UserService) UpdateUser(ctx context.Context, id int64, changes domain.UserChanges) (*ports.UserProfile, error) {
	err := s.store.WithinTx(ctx, func(ctx context.Context) error {
		u, err := s.store.Users().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := u.Apply(changes, s.now()); err != nil {
			return err
		}
		if err := s.store.Users().Update(ctx, u); err != nil {
			return fmt.Errorf("update user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetUser(ctx, id)
}

// RegisterParticipant stores a participant profile (university, registration)
// on an instructor account. The global role stays INSTRUCTOR; seminar joins
// do not depend on the profile.
func (s *UserService) RegisterParticipant(ctx context.Context, id int64, profile domain.ParticipantProfile) (*ports.UserProfile, error) {
	err := s.store.WithinTx(ctx, func(ctx context.Context) error {
		u, err := s.store.Users().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := u.RegisterAsParticipant(profile, s.now()); err != nil {
			return err
		}
		if err := s.store.Users().Update(ctx, u); err != nil {
			return fmt.Errorf("update user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("user_id", id).Msg("participant profile registered")
	return s.GetUser(ctx, id)
}

// DeleteUser removes the account and its memberships. A user that is the
// only active instructor of some seminar cannot leave.
func (s *UserService) DeleteUser(ctx context.Context, id int64) error {
	err := s.store.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.store.Users().FindByID(ctx, id); err != nil {
			return err
		}
		ms, err := s.store.Memberships().ListByUsers(ctx, []int64{id})
		if err != nil {
			return fmt.Errorf("list memberships: %w", err)
		}
		for _, m := range ms {
			if m.Role != domain.RoleInstructor || !m.IsActive {
				continue
			}
			if _, err := s.store.Seminars().Lock(ctx, m.SeminarID); err != nil {
				return err
			}
			n, err := s.store.Memberships().CountActive(ctx, m.SeminarID, domain.RoleInstructor)
			if err != nil {
				return fmt.Errorf("count instructors: %w", err)
			}
			if n <= 1 {
				return domain.ErrSoleInstructor
			}
		}
		return s.store.Users().Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	s.logger.Info().Int64("user_id", id).Msg("user deleted")
	return nil
}

func toUserProfile(u *domain.User, ms []ports.UserMembership) *ports.UserProfile {
	p := &ports.UserProfile{
		ID:         u.ID,
		Email:      u.Email,
		Username:   u.Username,
		Role:       u.Role,
		LastLogin:  u.LastLoginAt,
		DateJoined: u.CreatedAt,
	}

	if u.Participant != nil {
		info := &ports.ParticipantInfo{
			University:   u.Participant.University,
			IsRegistered: u.Participant.IsRegistered,
			Seminars:     []ports.AttendedSeminar{},
		}
		for _, m := range ms {
			if m.Role != domain.RoleParticipant {
				continue
			}
			info.Seminars = append(info.Seminars, ports.AttendedSeminar{
				ID:        m.SeminarID,
				Name:      m.SeminarName,
				JoinedAt:  m.JoinedAt,
				IsActive:  m.IsActive,
				DroppedAt: m.DroppedAt,
			})
		}
		p.Participant = info
	}

	if u.Instructor != nil {
		info := &ports.InstructorInfo{
			Company: u.Instructor.Company,
			Year:    u.Instructor.Year,
		}
		// The charge is the most recently joined active instructorship, the
		// same one UpdateSeminar targets.
		for _, m := range ms {
			if m.Role != domain.RoleInstructor || !m.IsActive {
				continue
			}
			if info.Charge == nil || !m.JoinedAt.Before(info.Charge.JoinedAt) {
				info.Charge = &ports.ConductedSeminar{ID: m.SeminarID, Name: m.SeminarName, JoinedAt: m.JoinedAt}
			}
		}
		p.Instructor = info
	}
	return p
}
