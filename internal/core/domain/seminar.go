package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var timeOfDayPattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):([0-5][0-9])$`)

// TimeOfDay is a wall-clock time written as HH:mm.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay accepts exactly two-digit hours 00-23 and minutes 00-59.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	m := timeOfDayPattern.FindStringSubmatch(s)
	if m == nil {
		return TimeOfDay{}, ErrInvalidTimeFormat
	}
	h, _ := strconv.Atoi(m[1])
	min, _ := strconv.Atoi(m[2])
	return TimeOfDay{Hour: h, Minute: min}, nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Seminar is a recurring class with a participant capacity.
type Seminar struct {
	ID        int64
	Name      string
	Capacity  int
	Count     int
	Online    bool
	Time      TimeOfDay
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SeminarDraft carries the creation fields. Nil pointers are absent fields.
type SeminarDraft struct {
	Name     *string
	Capacity *int
	Count    *int
	Online   *bool
	Time     *string
}

// NewSeminar validates a draft and builds the seminar. Missing required fields
// are reported before the time format so the caller fixes the request once.
func NewSeminar(d SeminarDraft, now time.Time) (*Seminar, error) {
	switch {
	case d.Name == nil || strings.TrimSpace(*d.Name) == "":
		return nil, MissingField("name")
	case d.Capacity == nil:
		return nil, MissingField("capacity")
	case d.Count == nil:
		return nil, MissingField("count")
	case d.Time == nil:
		return nil, MissingField("time")
	}
	if *d.Capacity <= 0 {
		return nil, NotPositive("capacity")
	}
	if *d.Count <= 0 {
		return nil, NotPositive("count")
	}
	tod, err := ParseTimeOfDay(*d.Time)
	if err != nil {
		return nil, err
	}
	online := true
	if d.Online != nil {
		online = *d.Online
	}
	return &Seminar{
		Name:      *d.Name,
		Capacity:  *d.Capacity,
		Count:     *d.Count,
		Online:    online,
		Time:      tod,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Apply overwrites only the supplied fields of d. Nothing is changed when
// any supplied field is invalid.
func (s *Seminar) Apply(d SeminarDraft, now time.Time) error {
	next := *s
	if d.Name != nil {
		if strings.TrimSpace(*d.Name) == "" {
			return MissingField("name")
		}
		next.Name = *d.Name
	}
	if d.Capacity != nil {
		if *d.Capacity <= 0 {
			return NotPositive("capacity")
		}
		next.Capacity = *d.Capacity
	}
	if d.Count != nil {
		if *d.Count <= 0 {
			return NotPositive("count")
		}
		next.Count = *d.Count
	}
	if d.Online != nil {
		next.Online = *d.Online
	}
	if d.Time != nil {
		tod, err := ParseTimeOfDay(*d.Time)
		if err != nil {
			return err
		}
		next.Time = tod
	}
	next.UpdatedAt = now
	*s = next
	return nil
}
