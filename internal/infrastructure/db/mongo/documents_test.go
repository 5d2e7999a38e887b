package mongo

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/wafflestudio/seminar-system/internal/core/domain"
)

func TestSeminarDetailDoc_DecodesLookupShape(t *testing.T) {
	joined := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	raw := bson.M{
		"_id":          int64(7),
		"name":         "Spring1",
		"capacity":     20,
		"count":        3,
		"online":       true,
		"time":         "13:30",
		"lock_version": int64(4),
		"created_at":   joined,
		"updated_at":   joined,
		"members": bson.A{
			bson.M{
				"_id":        int64(1),
				"user_id":    int64(10),
				"seminar_id": int64(7),
				"role":       "INSTRUCTOR",
				"is_active":  true,
				"joined_at":  joined,
				"dropped_at": nil,
				"user":       bson.M{"email": "a@snu.ac.kr", "username": "a"},
			},
			bson.M{
				"_id":        int64(2),
				"user_id":    int64(11),
				"seminar_id": int64(7),
				"role":       "PARTICIPANT",
				"is_active":  false,
				"joined_at":  joined,
				"dropped_at": joined.Add(time.Hour),
				"user":       bson.M{"email": "b@snu.ac.kr", "username": "b"},
			},
		},
	}
	data, err := bson.Marshal(raw)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var doc seminarDetailDoc
	if err := bson.Unmarshal(data, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	detail, err := doc.toDomain()
	if err != nil {
		t.Fatalf("toDomain: %v", err)
	}

	if detail.ID != 7 || detail.Name != "Spring1" || detail.Time.String() != "13:30" {
		t.Fatalf("unexpected seminar: %+v", detail.Seminar)
	}
	if len(detail.Members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(detail.Members))
	}
	if m := detail.Members[0]; m.Email != "a@snu.ac.kr" || m.Role != domain.RoleInstructor || m.HasDropped() {
		t.Errorf("unexpected instructor member: %+v", m)
	}
	if m := detail.Members[1]; m.State() != domain.StateDropped || m.Username != "b" {
		t.Errorf("unexpected dropped member: %+v", m)
	}
}

func TestSeminarDoc_RejectsCorruptTime(t *testing.T) {
	if _, err := (seminarDoc{ID: 1, Time: "9:00"}).toDomain(); err == nil {
		t.Fatal("expected an error for a stored time that is not HH:mm")
	}
}

func TestUserDoc_RoundTrip(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	year := 3
	u, err := domain.NewInstructor("a@x.com", "a", "hash", domain.InstructorProfile{Company: "Waffle", Year: &year}, now)
	if err != nil {
		t.Fatalf("NewInstructor: %v", err)
	}
	u.ID = 5

	data, err := bson.Marshal(toUserDoc(u))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var doc userDoc
	if err := bson.Unmarshal(data, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	got := doc.toDomain()

	if got.ID != 5 || got.Role != domain.RoleInstructor || got.Instructor == nil || *got.Instructor.Year != 3 {
		t.Errorf("unexpected user: %+v", got)
	}
	if got.Participant != nil {
		t.Errorf("participant block must stay absent")
	}
}
