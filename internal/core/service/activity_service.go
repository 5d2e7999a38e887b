package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/wafflestudio/seminar-system/internal/core/domain"
	"github.com/wafflestudio/seminar-system/internal/core/ports"
)

type activityService struct {
	store ports.Store
	log   zerolog.Logger
}

// NewActivityService returns an ActivityService implementation.
func NewActivityService(store ports.Store, log zerolog.Logger) ports.ActivityService {
	return &activityService{store: store, log: log}
}

// Record persists a single activity event.
func (s *activityService) Record(ctx context.Context, ev domain.ActivityEvent) error {
	if err := s.store.Activity().Insert(ctx, &ev); err != nil {
		return fmt.Errorf("record activity: %w", err)
	}
	s.log.Debug().
		Int64("seminar_id", ev.SeminarID).
		Int64("user_id", ev.UserID).
		Str("action", string(ev.Action)).
		Msg("activity recorded")
	return nil
}

// ListBySeminar returns the seminar's history, oldest first.
func (s *activityService) ListBySeminar(ctx context.Context, seminarID int64) ([]domain.ActivityEvent, error) {
	if _, err := s.store.Seminars().FindByID(ctx, seminarID); err != nil {
		return nil, err
	}
	events, err := s.store.Activity().ListBySeminar(ctx, seminarID)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	if events == nil {
		events = []domain.ActivityEvent{}
	}
	return events, nil
}
