package ports

import (
	"context"
	"time"

	"github.com/wafflestudio/seminar-system/internal/core/domain"
)

// MakeSeminarInput carries everything needed to open a seminar.
type MakeSeminarInput struct {
	UserID int64
	Draft  domain.SeminarDraft
	// IdempotencyKey is optional. A replay by the same user returns the
	// seminar created by the first request.
	IdempotencyKey string
}

// UpdateSeminarInput carries a partial seminar update. The target seminar is
// the one the caller currently conducts.
type UpdateSeminarInput struct {
	UserID int64
	Draft  domain.SeminarDraft
}

// InstructorSummary is an instructor as listed in a seminar profile.
type InstructorSummary struct {
	ID       int64
	Username string
	Email    string
	JoinedAt time.Time
}

// ParticipantSummary is a participant as listed in a seminar profile.
// Dropped participants stay listed with IsActive false.
type ParticipantSummary struct {
	ID        int64
	Username  string
	Email     string
	JoinedAt  time.Time
	IsActive  bool
	DroppedAt *time.Time
}

// SeminarProfile is the seminar view returned by every seminar operation.
type SeminarProfile struct {
	ID           int64
	Name         string
	Capacity     int
	Count        int
	Online       bool
	Time         string
	CreatedAt    time.Time
	Instructors  []InstructorSummary
	Participants []ParticipantSummary
}

// SeminarService defines the seminar and membership use cases.
type SeminarService interface {
	MakeSeminar(ctx context.Context, in MakeSeminarInput) (*SeminarProfile, error)
	UpdateSeminar(ctx context.Context, in UpdateSeminarInput) (*SeminarProfile, error)
	GetSeminar(ctx context.Context, id int64) (*SeminarProfile, error)
	ListSeminars(ctx context.Context, filter SeminarFilter) ([]SeminarProfile, error)
	Participate(ctx context.Context, seminarID, userID int64, role string) (*SeminarProfile, error)
	Drop(ctx context.Context, seminarID, userID int64) (*SeminarProfile, error)
}

// ActivitySink accepts activity events for asynchronous recording.
// Publish never blocks the caller on storage.
type ActivitySink interface {
	Publish(ev domain.ActivityEvent)
}

// ActivityService records and reads the seminar history.
type ActivityService interface {
	Record(ctx context.Context, ev domain.ActivityEvent) error
	ListBySeminar(ctx context.Context, seminarID int64) ([]domain.ActivityEvent, error)
}
