package handler

import (
	"time"

	"github.com/wafflestudio/seminar-system/internal/core/domain"
	"github.com/wafflestudio/seminar-system/internal/core/ports"
)

// seminarRequest is the body of POST and PUT /api/v1/seminar. Absent fields
// stay nil; required fields are enforced by the domain.
type seminarRequest struct {
	Name     *string `json:"name"`
	Capacity *int    `json:"capacity"`
	Count    *int    `json:"count"`
	Online   *bool   `json:"online"`
	Time     *string `json:"time"`
}

type participateRequest struct {
	Role string `json:"role"`
}

type instructorResponse struct {
	ID       int64     `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	JoinedAt time.Time `json:"joined_at"`
}

type participantResponse struct {
	ID        int64      `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	JoinedAt  time.Time  `json:"joined_at"`
	IsActive  bool       `json:"is_active"`
	DroppedAt *time.Time `json:"dropped_at"`
}

type seminarResponse struct {
	ID           int64                 `json:"id"`
	Name         string                `json:"name"`
	Capacity     int                   `json:"capacity"`
	Count        int                   `json:"count"`
	Online       bool                  `json:"online"`
	Time         string                `json:"time"`
	CreatedAt    time.Time             `json:"created_at"`
	Instructors  []instructorResponse  `json:"instructors"`
	Participants []participantResponse `json:"participants"`
}

type activityResponse struct {
	SeminarID  int64     `json:"seminar_id"`
	UserID     int64     `json:"user_id"`
	Role       string    `json:"role"`
	Action     string    `json:"action"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (r seminarRequest) toDraft() domain.SeminarDraft {
	return domain.SeminarDraft{
		Name:     r.Name,
		Capacity: r.Capacity,
		Count:    r.Count,
		Online:   r.Online,
		Time:     r.Time,
	}
}

func toSeminarResponse(p *ports.SeminarProfile) seminarResponse {
	resp := seminarResponse{
		ID:           p.ID,
		Name:         p.Name,
		Capacity:     p.Capacity,
		Count:        p.Count,
		Online:       p.Online,
		Time:         p.Time,
		CreatedAt:    p.CreatedAt,
		Instructors:  make([]instructorResponse, 0, len(p.Instructors)),
		Participants: make([]participantResponse, 0, len(p.Participants)),
	}
	for _, i := range p.Instructors {
		resp.Instructors = append(resp.Instructors, instructorResponse(i))
	}
	for _, pt := range p.Participants {
		resp.Participants = append(resp.Participants, participantResponse(pt))
	}
	return resp
}

func toActivityResponses(events []domain.ActivityEvent) []activityResponse {
	out := make([]activityResponse, 0, len(events))
	for _, ev := range events {
		out = append(out, activityResponse{
			SeminarID:  ev.SeminarID,
			UserID:     ev.UserID,
			Role:       string(ev.Role),
			Action:     string(ev.Action),
			OccurredAt: ev.OccurredAt,
		})
	}
	return out
}
