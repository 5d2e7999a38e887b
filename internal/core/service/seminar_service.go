package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/wafflestudio/seminar-system/internal/core/domain"
	"github.com/wafflestudio/seminar-system/internal/core/ports"
)

// SeminarCache abstracts the seminar profile cache (Redis). Writes are fenced
// by a per-seminar version that Invalidate bumps, so a reader that loaded a
// profile before a mutation cannot put it back after the mutation's
// invalidation.
type SeminarCache interface {
	Get(ctx context.Context, id int64) (*ports.SeminarProfile, bool, error)
	Version(ctx context.Context, id int64) (int64, error)
	SetIfVersion(ctx context.Context, p *ports.SeminarProfile, version int64) (bool, error)
	Invalidate(ctx context.Context, id int64) error
}

// IdempotencyStore tracks which seminar a (user, key) pair created. Claim
// reports the seminar id when the key was already completed, and zero while
// another request still holds it.
type IdempotencyStore interface {
	Claim(ctx context.Context, userID int64, key string) (seminarID int64, claimed bool, err error)
	Complete(ctx context.Context, userID int64, key string, seminarID int64) error
	Release(ctx context.Context, userID int64, key string) error
}

type SeminarService struct {
	store  ports.Store
	cache  SeminarCache
	idem   IdempotencyStore
	sink   ports.ActivitySink
	logger zerolog.Logger
	now    func() time.Time
}

// NewSeminarService wires the seminar use cases. cache, idem and sink may be
// nil, in which case the matching feature is disabled.
func NewSeminarService(
	store ports.Store,
	cache SeminarCache,
	idem IdempotencyStore,
	sink ports.ActivitySink,
	logger zerolog.Logger,
) *SeminarService {
	return &SeminarService{
		store:  store,
		cache:  cache,
		idem:   idem,
		sink:   sink,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// MakeSeminar opens a seminar and enrolls the caller as its founding
// instructor in the same transaction.
func (s *SeminarService) MakeSeminar(ctx context.Context, in ports.MakeSeminarInput) (*ports.SeminarProfile, error) {
	claimed := false
	if in.IdempotencyKey != "" && s.idem != nil {
		id, ok, err := s.idem.Claim(ctx, in.UserID, in.IdempotencyKey)
		switch {
		case err != nil:
			s.logger.Warn().Err(err).Int64("user_id", in.UserID).Msg("idempotency claim failed, creating anyway")
		case ok:
			claimed = true
		case id == 0:
			return nil, domain.ErrIdempotencyInFlight
		default:
			s.logger.Info().Str("idempotency_key", in.IdempotencyKey).Int64("seminar_id", id).Msg("idempotent replay")
			return s.GetSeminar(ctx, id)
		}
	}

	now := s.now()
	var seminar *domain.Seminar
	err := s.store.WithinTx(ctx, func(ctx context.Context) error {
		user, err := s.store.Users().FindByID(ctx, in.UserID)
		if err != nil {
			return err
		}
		if !user.IsInstructor() {
			return domain.ErrOnlyInstructorCanMake
		}

		seminar, err = domain.NewSeminar(in.Draft, now)
		if err != nil {
			return err
		}
		if err := s.store.Seminars().Create(ctx, seminar); err != nil {
			return fmt.Errorf("create seminar: %w", err)
		}

		founder := domain.NewMembership(user.ID, seminar.ID, domain.RoleInstructor, now)
		if err := s.store.Memberships().Create(ctx, founder); err != nil {
			return fmt.Errorf("create founding membership: %w", err)
		}
		return nil
	})
	if err != nil {
		if claimed {
			if rerr := s.idem.Release(ctx, in.UserID, in.IdempotencyKey); rerr != nil {
				s.logger.Warn().Err(rerr).Int64("user_id", in.UserID).Msg("failed to release idempotency key")
			}
		}
		return nil, err
	}

	if claimed {
		if err := s.idem.Complete(ctx, in.UserID, in.IdempotencyKey, seminar.ID); err != nil {
			s.logger.Warn().Err(err).Int64("seminar_id", seminar.ID).Msg("failed to store idempotency key")
		}
	}

	s.logger.Info().Int64("seminar_id", seminar.ID).Int64("user_id", in.UserID).Msg("seminar created")
	s.publish(seminar.ID, in.UserID, domain.RoleInstructor, domain.ActionCreated, now)

	return s.loadProfile(ctx, seminar.ID)
}

// UpdateSeminar applies a partial update to the seminar the caller most
// recently started conducting.
func (s *SeminarService) UpdateSeminar(ctx context.Context, in ports.UpdateSeminarInput) (*ports.SeminarProfile, error) {
	now := s.now()
	var seminarID int64
	err := s.store.WithinTx(ctx, func(ctx context.Context) error {
		m, err := s.store.Memberships().FindLatestActive(ctx, in.UserID, domain.RoleInstructor)
		if errors.Is(err, domain.ErrMembershipNotFound) {
			return domain.ErrNoConductedSeminar
		}
		if err != nil {
			return fmt.Errorf("find conducted seminar: %w", err)
		}

		seminar, err := s.store.Seminars().Lock(ctx, m.SeminarID)
		if err != nil {
			return err
		}
		if err := seminar.Apply(in.Draft, now); err != nil {
			return err
		}
		if err := s.store.Seminars().Update(ctx, seminar); err != nil {
			return fmt.Errorf("update seminar: %w", err)
		}
		seminarID = seminar.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, seminarID)
	s.logger.Info().Int64("seminar_id", seminarID).Int64("user_id", in.UserID).Msg("seminar updated")
	s.publish(seminarID, in.UserID, domain.RoleInstructor, domain.ActionUpdated, now)

	return s.loadProfile(ctx, seminarID)
}

// GetSeminar returns the seminar profile, served from cache when possible.
func (s *SeminarService) GetSeminar(ctx context.Context, id int64) (*ports.SeminarProfile, error) {
	if s.cache != nil {
		p, ok, err := s.cache.Get(ctx, id)
		if err != nil {
			s.logger.Warn().Err(err).Int64("seminar_id", id).Msg("seminar cache read failed")
		} else if ok {
			return p, nil
		}
	}
	return s.loadProfile(ctx, id)
}

// ListSeminars returns every seminar matching filter, newest first unless
// filter.Earliest is set. The store is queried exactly once.
func (s *SeminarService) ListSeminars(ctx context.Context, filter ports.SeminarFilter) ([]ports.SeminarProfile, error) {
	details, err := s.store.Seminars().List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list seminars: %w", err)
	}
	out := make([]ports.SeminarProfile, 0, len(details))
	for _, d := range details {
		out = append(out, *toSeminarProfile(d))
	}
	return out, nil
}

// Participate moves the caller's membership on seminarID from NONE to ACTIVE
// with the requested role.
func (s *SeminarService) Participate(ctx context.Context, seminarID, userID int64, roleName string) (*ports.SeminarProfile, error) {
	role, err := domain.ParseRole(roleName)
	if err != nil {
		return nil, err
	}

	now := s.now()
	err = s.store.WithinTx(ctx, func(ctx context.Context) error {
		seminar, err := s.store.Seminars().Lock(ctx, seminarID)
		if err != nil {
			return err
		}
		user, err := s.store.Users().FindByID(ctx, userID)
		if err != nil {
			return err
		}
		if role == domain.RoleInstructor && !user.IsInstructor() {
			return domain.ErrOnlyInstructorCanConduct
		}

		existing, err := s.store.Memberships().Find(ctx, userID, seminarID)
		if errors.Is(err, domain.ErrMembershipNotFound) {
			existing = nil
		} else if err != nil {
			return fmt.Errorf("find membership: %w", err)
		}
		if err := domain.CheckJoin(existing, role); err != nil {
			return err
		}

		if role == domain.RoleParticipant {
			n, err := s.store.Memberships().CountActive(ctx, seminarID, domain.RoleParticipant)
			if err != nil {
				return fmt.Errorf("count participants: %w", err)
			}
			if n >= seminar.Capacity {
				return domain.ErrSeminarFull
			}
		}

		m := domain.NewMembership(userID, seminarID, role, now)
		if err := s.store.Memberships().Create(ctx, m); err != nil {
			if errors.Is(err, domain.ErrMembershipExists) {
				return domain.ErrAlreadyParticipating
			}
			return fmt.Errorf("create membership: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, seminarID)
	s.logger.Info().Int64("seminar_id", seminarID).Int64("user_id", userID).Str("role", string(role)).Msg("joined seminar")
	s.publish(seminarID, userID, role, domain.ActionJoined, now)

	return s.loadProfile(ctx, seminarID)
}

// Drop moves the caller's participant membership to DROPPED. Dropping an
// already dropped membership changes nothing.
func (s *SeminarService) Drop(ctx context.Context, seminarID, userID int64) (*ports.SeminarProfile, error) {
	now := s.now()
	changed := false
	err := s.store.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.store.Seminars().Lock(ctx, seminarID); err != nil {
			return err
		}

		m, err := s.store.Memberships().Find(ctx, userID, seminarID)
		if errors.Is(err, domain.ErrMembershipNotFound) {
			return domain.ErrNotParticipating
		}
		if err != nil {
			return fmt.Errorf("find membership: %w", err)
		}

		if m.Role == domain.RoleParticipant && m.HasDropped() {
			return nil
		}
		if err := m.Drop(now); err != nil {
			return err
		}
		if err := s.store.Memberships().Update(ctx, m); err != nil {
			return fmt.Errorf("update membership: %w", err)
		}
		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.invalidate(ctx, seminarID)
		s.logger.Info().Int64("seminar_id", seminarID).Int64("user_id", userID).Msg("participant dropped")
		s.publish(seminarID, userID, domain.RoleParticipant, domain.ActionDropped, now)
	}

	return s.loadProfile(ctx, seminarID)
}

// loadProfile reads the seminar with its members in one store call and
// refreshes the cache entry. The cache version is read before the store so a
// concurrent invalidation makes the write-back a no-op.
func (s *SeminarService) loadProfile(ctx context.Context, id int64) (*ports.SeminarProfile, error) {
	version, cacheable := int64(0), s.cache != nil
	if cacheable {
		v, err := s.cache.Version(ctx, id)
		if err != nil {
			s.logger.Warn().Err(err).Int64("seminar_id", id).Msg("seminar cache version read failed")
			cacheable = false
		}
		version = v
	}

	detail, err := s.store.Seminars().FindDetail(ctx, id)
	if err != nil {
		return nil, err
	}
	p := toSeminarProfile(detail)
	if cacheable {
		stored, err := s.cache.SetIfVersion(ctx, p, version)
		if err != nil {
			s.logger.Warn().Err(err).Int64("seminar_id", id).Msg("seminar cache write failed")
		} else if !stored {
			s.logger.Debug().Int64("seminar_id", id).Msg("seminar changed while loading, cache write skipped")
		}
	}
	return p, nil
}

func (s *SeminarService) invalidate(ctx context.Context, id int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, id); err != nil {
		s.logger.Warn().Err(err).Int64("seminar_id", id).Msg("seminar cache invalidation failed")
	}
}

func (s *SeminarService) publish(seminarID, userID int64, role domain.Role, action domain.Action, at time.Time) {
	if s.sink == nil {
		return
	}
	s.sink.Publish(domain.ActivityEvent{
		SeminarID:  seminarID,
		UserID:     userID,
		Role:       role,
		Action:     action,
		OccurredAt: at,
	})
}

func toSeminarProfile(d *domain.SeminarDetail) *ports.SeminarProfile {
	p := &ports.SeminarProfile{
		ID:           d.ID,
		Name:         d.Name,
		Capacity:     d.Capacity,
		Count:        d.Count,
		Online:       d.Online,
		Time:         d.Time.String(),
		CreatedAt:    d.CreatedAt,
		Instructors:  []ports.InstructorSummary{},
		Participants: []ports.ParticipantSummary{},
	}

	members := make([]domain.Member, len(d.Members))
	copy(members, d.Members)
	sort.SliceStable(members, func(i, j int) bool {
		return members[i].JoinedAt.Before(members[j].JoinedAt)
	})

	for _, m := range members {
		switch m.Role {
		case domain.RoleInstructor:
			p.Instructors = append(p.Instructors, ports.InstructorSummary{
				ID:       m.UserID,
				Username: m.Username,
				Email:    m.Email,
				JoinedAt: m.JoinedAt,
			})
		case domain.RoleParticipant:
			p.Participants = append(p.Participants, ports.ParticipantSummary{
				ID:        m.UserID,
				Username:  m.Username,
				Email:     m.Email,
				JoinedAt:  m.JoinedAt,
				IsActive:  m.IsActive,
				DroppedAt: m.DroppedAt,
			})
		}
	}
	return p
}
