package domain

import (
	"errors"
	"testing"
	"time"
)

func ptr[T any](v T) *T { return &v }

func validDraft() SeminarDraft {
	return SeminarDraft{
		Name:     ptr("Spring1"),
		Capacity: ptr(20),
		Count:    ptr(3),
		Online:   ptr(true),
		Time:     ptr("13:30"),
	}
}

func TestParseTimeOfDay(t *testing.T) {
	valid := map[string]TimeOfDay{
		"00:00": {0, 0},
		"13:30": {13, 30},
		"23:59": {23, 59},
		"04:10": {4, 10},
	}
	for in, want := range valid {
		got, err := ParseTimeOfDay(in)
		if err != nil {
			t.Errorf("ParseTimeOfDay(%q) unexpected error: %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseTimeOfDay(%q) = %+v, want %+v", in, got, want)
		}
		if got.String() != in {
			t.Errorf("round trip of %q gave %q", in, got.String())
		}
	}

	for _, in := range []string{"", "24:00", "12:60", "1:30", "13:3", "13-30", "잘못된 시간", " 13:30", "13:30 "} {
		if _, err := ParseTimeOfDay(in); !errors.Is(err, ErrInvalidTimeFormat) {
			t.Errorf("ParseTimeOfDay(%q) expected ErrInvalidTimeFormat, got %v", in, err)
		}
	}
}

func TestNewSeminar_Success(t *testing.T) {
	s, err := NewSeminar(validDraft(), t0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Name != "Spring1" || s.Capacity != 20 || s.Count != 3 || !s.Online {
		t.Errorf("unexpected seminar: %+v", s)
	}
	if s.Time.String() != "13:30" {
		t.Errorf("expected 13:30, got %s", s.Time)
	}
	if !s.CreatedAt.Equal(t0) {
		t.Errorf("createdAt not set")
	}
}

func TestNewSeminar_OnlineDefaultsToTrue(t *testing.T) {
	d := validDraft()
	d.Online = nil

	s, err := NewSeminar(d, t0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !s.Online {
		t.Error("online must default to true")
	}
}

func TestNewSeminar_MissingFields(t *testing.T) {
	cases := map[string]func(*SeminarDraft){
		"name":     func(d *SeminarDraft) { d.Name = nil },
		"capacity": func(d *SeminarDraft) { d.Capacity = nil },
		"count":    func(d *SeminarDraft) { d.Count = nil },
		"time":     func(d *SeminarDraft) { d.Time = nil },
	}
	for field, mutate := range cases {
		d := validDraft()
		mutate(&d)

		_, err := NewSeminar(d, t0)
		if !errors.Is(err, ErrMissingField) {
			t.Errorf("%s: expected ErrMissingField, got %v", field, err)
			continue
		}
		if KindOf(err) != KindBadRequest {
			t.Errorf("%s: expected bad request kind, got %v", field, KindOf(err))
		}
		if want := "'" + field + "' is required."; err.Error() != want {
			t.Errorf("%s: message %q, want %q", field, err.Error(), want)
		}
	}
}

func TestNewSeminar_AllFieldsMissing(t *testing.T) {
	_, err := NewSeminar(SeminarDraft{}, t0)
	if KindOf(err) != KindBadRequest {
		t.Fatalf("expected bad request, got %v", err)
	}
}

func TestNewSeminar_NonPositiveNumbers(t *testing.T) {
	d := validDraft()
	d.Capacity = ptr(0)
	if _, err := NewSeminar(d, t0); err == nil || err.Error() != "'capacity' should be a positive number." {
		t.Errorf("unexpected error for capacity 0: %v", err)
	}

	d = validDraft()
	d.Count = ptr(-1)
	if _, err := NewSeminar(d, t0); err == nil || err.Error() != "'count' should be a positive number." {
		t.Errorf("unexpected error for count -1: %v", err)
	}
}

func TestNewSeminar_BadTime(t *testing.T) {
	d := validDraft()
	d.Time = ptr("잘못된 시간")

	_, err := NewSeminar(d, t0)
	if !errors.Is(err, ErrInvalidTimeFormat) {
		t.Fatalf("expected ErrInvalidTimeFormat, got %v", err)
	}
	if err.Error() != "'time' should be written as a format 'HH:mm'." {
		t.Errorf("unexpected message: %s", err.Error())
	}
}

func TestSeminar_ApplyPartial(t *testing.T) {
	s, _ := NewSeminar(validDraft(), t0)
	later := t0.Add(time.Minute)

	if err := s.Apply(SeminarDraft{Capacity: ptr(10), Online: ptr(false)}, later); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Capacity != 10 || s.Online {
		t.Errorf("supplied fields not applied: %+v", s)
	}
	if s.Name != "Spring1" || s.Count != 3 || s.Time.String() != "13:30" {
		t.Errorf("unset fields must keep previous values: %+v", s)
	}
	if !s.UpdatedAt.Equal(later) {
		t.Errorf("updatedAt not bumped")
	}
}

func TestSeminar_ApplyInvalidLeavesSeminarUntouched(t *testing.T) {
	s, _ := NewSeminar(validDraft(), t0)

	err := s.Apply(SeminarDraft{Name: ptr("Changed"), Time: ptr("99:99")}, t0.Add(time.Minute))
	if !errors.Is(err, ErrInvalidTimeFormat) {
		t.Fatalf("expected ErrInvalidTimeFormat, got %v", err)
	}
	if s.Name != "Spring1" {
		t.Errorf("name must not change on a rejected update, got %q", s.Name)
	}
}
