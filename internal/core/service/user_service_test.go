package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/wafflestudio/seminar-system/internal/core/domain"
	"github.com/wafflestudio/seminar-system/internal/core/ports"
)

var t0 = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func newUserFixture(t *testing.T) (*seminarFixture, *UserService) {
	t.Helper()
	f := newSeminarFixture()
	svc := NewUserService(f.store, zerolog.Nop())
	svc.now = f.svc.now
	return f, svc
}

func TestUserService_GetUser(t *testing.T) {
	f, svc := newUserFixture(t)
	a := f.instructor(t, "a@snu.ac.kr")
	b := f.participant(t, "b@snu.ac.kr")
	seminar := f.make(t, a, spring1())
	if _, err := f.svc.Participate(context.Background(), seminar.ID, b, "PARTICIPANT"); err != nil {
		t.Fatalf("participate: %v", err)
	}

	p, err := svc.GetUser(context.Background(), b)
	if err != nil {
		t.Fatalf("GetUser returned error: %v", err)
	}
	if p.Role != domain.RoleParticipant || p.Instructor != nil {
		t.Fatalf("unexpected role block: %+v", p)
	}
	if p.Participant == nil || len(p.Participant.Seminars) != 1 {
		t.Fatalf("expected one attended seminar, got %+v", p.Participant)
	}
	if got := p.Participant.Seminars[0]; got.Name != "Spring1" || !got.IsActive {
		t.Errorf("unexpected attended seminar: %+v", got)
	}

	ip, err := svc.GetUser(context.Background(), a)
	if err != nil {
		t.Fatalf("GetUser returned error: %v", err)
	}
	if ip.Instructor == nil || ip.Instructor.Charge == nil || ip.Instructor.Charge.ID != seminar.ID {
		t.Errorf("expected charge %d, got %+v", seminar.ID, ip.Instructor)
	}
}

func TestUserService_GetUser_NotFound(t *testing.T) {
	_, svc := newUserFixture(t)

	_, err := svc.GetUser(context.Background(), 42)
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserService_ListUsers_SingleMembershipQuery(t *testing.T) {
	f, svc := newUserFixture(t)
	a := f.instructor(t, "a@snu.ac.kr")
	seminar := f.make(t, a, spring1())
	for _, email := range []string{"b@x.com", "c@x.com", "d@x.com"} {
		id := f.participant(t, email)
		if _, err := f.svc.Participate(context.Background(), seminar.ID, id, "PARTICIPANT"); err != nil {
			t.Fatalf("participate: %v", err)
		}
	}

	f.store.calls = map[string]int{}
	users, err := svc.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("ListUsers returned error: %v", err)
	}
	if len(users) != 4 {
		t.Fatalf("expected 4 users, got %d", len(users))
	}
	if f.store.calls["memberships.by_users"] != 1 {
		t.Errorf("expected one membership query, got %d", f.store.calls["memberships.by_users"])
	}
}

func TestUserService_UpdateUser(t *testing.T) {
	f, svc := newUserFixture(t)
	b := f.participant(t, "b@snu.ac.kr")

	p, err := svc.UpdateUser(context.Background(), b, domain.UserChanges{Username: ptr("bobby"), University: ptr("KAIST")})
	if err != nil {
		t.Fatalf("UpdateUser returned error: %v", err)
	}
	if p.Username != "bobby" || p.Participant.University != "KAIST" {
		t.Errorf("changes not applied: %+v", p)
	}
}

func TestUserService_RegisterParticipant(t *testing.T) {
	f, svc := newUserFixture(t)
	a := f.instructor(t, "a@snu.ac.kr")

	p, err := svc.RegisterParticipant(context.Background(), a, domain.ParticipantProfile{University: "SNU", IsRegistered: true})
	if err != nil {
		t.Fatalf("RegisterParticipant returned error: %v", err)
	}
	if p.Role != domain.RoleInstructor {
		t.Errorf("global role must stay INSTRUCTOR, got %s", p.Role)
	}
	if p.Participant == nil || p.Instructor == nil {
		t.Errorf("expected both profile blocks, got %+v", p)
	}

	_, err = svc.RegisterParticipant(context.Background(), a, domain.ParticipantProfile{})
	if !errors.Is(err, domain.ErrAlreadyParticipant) {
		t.Fatalf("expected ErrAlreadyParticipant, got %v", err)
	}
	if domain.KindOf(err) != domain.KindConflict {
		t.Errorf("expected conflict, got %v", domain.KindOf(err))
	}
}

func TestUserService_DeleteUser(t *testing.T) {
	f, svc := newUserFixture(t)
	a := f.instructor(t, "a@snu.ac.kr")
	c := f.instructor(t, "c@snu.ac.kr")
	b := f.participant(t, "b@snu.ac.kr")
	seminar := f.make(t, a, spring1())
	if _, err := f.svc.Participate(context.Background(), seminar.ID, b, "PARTICIPANT"); err != nil {
		t.Fatalf("participate: %v", err)
	}

	if err := svc.DeleteUser(context.Background(), a); !errors.Is(err, domain.ErrSoleInstructor) {
		t.Fatalf("expected ErrSoleInstructor, got %v", err)
	}

	if _, err := f.svc.Participate(context.Background(), seminar.ID, c, "INSTRUCTOR"); err != nil {
		t.Fatalf("second instructor: %v", err)
	}
	if err := svc.DeleteUser(context.Background(), a); err != nil {
		t.Fatalf("DeleteUser returned error: %v", err)
	}
	if err := svc.DeleteUser(context.Background(), b); err != nil {
		t.Fatalf("DeleteUser returned error: %v", err)
	}

	detail, err := f.store.Seminars().FindDetail(context.Background(), seminar.ID)
	if err != nil {
		t.Fatalf("FindDetail: %v", err)
	}
	if len(detail.Members) != 1 || detail.Members[0].UserID != c {
		t.Errorf("memberships of deleted users must cascade: %+v", detail.Members)
	}
	if err := svc.DeleteUser(context.Background(), b); !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound on second delete, got %v", err)
	}
}

func TestToUserProfile_ChargePicksLatest(t *testing.T) {
	u, _ := domain.NewInstructor("a@x.com", "a", "hash", domain.InstructorProfile{}, t0)
	first := domain.NewMembership(u.ID, 1, domain.RoleInstructor, t0)
	second := domain.NewMembership(u.ID, 2, domain.RoleInstructor, t0.Add(1))

	p := toUserProfile(u, []ports.UserMembership{
		{Membership: *first, SeminarName: "first"},
		{Membership: *second, SeminarName: "second"},
	})
	if p.Instructor.Charge == nil || p.Instructor.Charge.Name != "second" {
		t.Errorf("expected latest charge, got %+v", p.Instructor.Charge)
	}
}
