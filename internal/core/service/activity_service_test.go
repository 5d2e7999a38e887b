package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/wafflestudio/seminar-system/internal/core/domain"
)

func TestActivityService_RecordAndList(t *testing.T) {
	f := newSeminarFixture()
	a := f.instructor(t, "a@snu.ac.kr")
	seminar := f.make(t, a, spring1())
	svc := NewActivityService(f.store, zerolog.Nop())

	for _, ev := range f.sink.events {
		if err := svc.Record(context.Background(), ev); err != nil {
			t.Fatalf("Record returned error: %v", err)
		}
	}
	_ = svc.Record(context.Background(), domain.ActivityEvent{SeminarID: seminar.ID + 100, Action: domain.ActionCreated})

	events, err := svc.ListBySeminar(context.Background(), seminar.ID)
	if err != nil {
		t.Fatalf("ListBySeminar returned error: %v", err)
	}
	if len(events) != 1 || events[0].Action != domain.ActionCreated || events[0].UserID != a {
		t.Fatalf("unexpected history: %+v", events)
	}
}

func TestActivityService_ListBySeminar_Empty(t *testing.T) {
	f := newSeminarFixture()
	a := f.instructor(t, "a@snu.ac.kr")
	seminar := f.make(t, a, spring1())
	svc := NewActivityService(f.store, zerolog.Nop())

	events, err := svc.ListBySeminar(context.Background(), seminar.ID)
	if err != nil {
		t.Fatalf("ListBySeminar returned error: %v", err)
	}
	if events == nil || len(events) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", events)
	}
}

func TestActivityService_ListBySeminar_NotFound(t *testing.T) {
	svc := NewActivityService(newMemStore(), zerolog.Nop())

	if _, err := svc.ListBySeminar(context.Background(), 9); !errors.Is(err, domain.ErrSeminarNotFound) {
		t.Fatalf("expected ErrSeminarNotFound, got %v", err)
	}
}
