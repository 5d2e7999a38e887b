package domain

import "time"

// Action is what happened to a seminar or one of its memberships.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionJoined  Action = "joined"
	ActionDropped Action = "dropped"
)

// ActivityEvent is one entry of a seminar's history.
type ActivityEvent struct {
	SeminarID  int64     `json:"seminar_id" bson:"seminar_id"`
	UserID     int64     `json:"user_id" bson:"user_id"`
	Role       Role      `json:"role" bson:"role"`
	Action     Action    `json:"action" bson:"action"`
	OccurredAt time.Time `json:"occurred_at" bson:"occurred_at"`
}
