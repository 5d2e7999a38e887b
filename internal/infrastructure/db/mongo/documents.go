package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wafflestudio/seminar-system/internal/core/domain"
	"github.com/wafflestudio/seminar-system/internal/core/ports"
)

// counters hands out sequential int64 ids, one sequence per collection.
type counters struct {
	col *mongo.Collection
}

func newCounters(db *mongo.Database) *counters {
	return &counters{col: db.Collection(collectionCounters)}
}

func (c *counters) next(ctx context.Context, name string) (int64, error) {
	var doc struct {
		Seq int64 `bson:"seq"`
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	err := c.col.FindOneAndUpdate(ctx, bson.M{"_id": name}, bson.M{"$inc": bson.M{"seq": int64(1)}}, opts).Decode(&doc)
	if err != nil {
		return 0, fmt.Errorf("next %s id: %w", name, err)
	}
	return doc.Seq, nil
}

type userDoc struct {
	ID           int64                      `bson:"_id"`
	Email        string                     `bson:"email"`
	Username     string                     `bson:"username"`
	PasswordHash string                     `bson:"password_hash"`
	Role         string                     `bson:"role"`
	Participant  *domain.ParticipantProfile `bson:"participant,omitempty"`
	Instructor   *domain.InstructorProfile  `bson:"instructor,omitempty"`
	LastLoginAt  *time.Time                 `bson:"last_login_at,omitempty"`
	CreatedAt    time.Time                  `bson:"created_at"`
	UpdatedAt    time.Time                  `bson:"updated_at"`
}

func toUserDoc(u *domain.User) userDoc {
	return userDoc{
		ID:           u.ID,
		Email:        u.Email,
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		Participant:  u.Participant,
		Instructor:   u.Instructor,
		LastLoginAt:  u.LastLoginAt,
		CreatedAt:    u.CreatedAt.UTC(),
		UpdatedAt:    u.UpdatedAt.UTC(),
	}
}

func (d userDoc) toDomain() *domain.User {
	return &domain.User{
		ID:           d.ID,
		Email:        d.Email,
		Username:     d.Username,
		PasswordHash: d.PasswordHash,
		Role:         domain.Role(d.Role),
		Participant:  d.Participant,
		Instructor:   d.Instructor,
		LastLoginAt:  utcPtr(d.LastLoginAt),
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}
}

type seminarDoc struct {
	ID          int64     `bson:"_id"`
	Name        string    `bson:"name"`
	Capacity    int       `bson:"capacity"`
	Count       int       `bson:"count"`
	Online      bool      `bson:"online"`
	Time        string    `bson:"time"`
	LockVersion int64     `bson:"lock_version"`
	CreatedAt   time.Time `bson:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at"`
}

func toSeminarDoc(s *domain.Seminar) seminarDoc {
	return seminarDoc{
		ID:        s.ID,
		Name:      s.Name,
		Capacity:  s.Capacity,
		Count:     s.Count,
		Online:    s.Online,
		Time:      s.Time.String(),
		CreatedAt: s.CreatedAt.UTC(),
		UpdatedAt: s.UpdatedAt.UTC(),
	}
}

func (d seminarDoc) toDomain() (*domain.Seminar, error) {
	tod, err := domain.ParseTimeOfDay(d.Time)
	if err != nil {
		return nil, fmt.Errorf("seminar %d: stored time %q: %w", d.ID, d.Time, err)
	}
	return &domain.Seminar{
		ID:        d.ID,
		Name:      d.Name,
		Capacity:  d.Capacity,
		Count:     d.Count,
		Online:    d.Online,
		Time:      tod,
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}, nil
}

type membershipDoc struct {
	ID        int64      `bson:"_id"`
	UserID    int64      `bson:"user_id"`
	SeminarID int64      `bson:"seminar_id"`
	Role      string     `bson:"role"`
	IsActive  bool       `bson:"is_active"`
	JoinedAt  time.Time  `bson:"joined_at"`
	DroppedAt *time.Time `bson:"dropped_at"`
	CreatedAt time.Time  `bson:"created_at"`
	UpdatedAt time.Time  `bson:"updated_at"`
}

func toMembershipDoc(m *domain.Membership) membershipDoc {
	return membershipDoc{
		ID:        m.ID,
		UserID:    m.UserID,
		SeminarID: m.SeminarID,
		Role:      string(m.Role),
		IsActive:  m.IsActive,
		JoinedAt:  m.JoinedAt.UTC(),
		DroppedAt: utcPtr(m.DroppedAt),
		CreatedAt: m.CreatedAt.UTC(),
		UpdatedAt: m.UpdatedAt.UTC(),
	}
}

func (d membershipDoc) toDomain() domain.Membership {
	return domain.Membership{
		ID:        d.ID,
		UserID:    d.UserID,
		SeminarID: d.SeminarID,
		Role:      domain.Role(d.Role),
		IsActive:  d.IsActive,
		JoinedAt:  d.JoinedAt.UTC(),
		DroppedAt: utcPtr(d.DroppedAt),
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
}

// memberDoc is a membership with its user joined in by $lookup.
type memberDoc struct {
	Membership membershipDoc `bson:",inline"`
	User       struct {
		Email    string `bson:"email"`
		Username string `bson:"username"`
	} `bson:"user"`
}

// seminarDetailDoc is a seminar with its memberships joined in by $lookup.
type seminarDetailDoc struct {
	Seminar seminarDoc  `bson:",inline"`
	Members []memberDoc `bson:"members"`
}

func (d seminarDetailDoc) toDomain() (*domain.SeminarDetail, error) {
	s, err := d.Seminar.toDomain()
	if err != nil {
		return nil, err
	}
	detail := &domain.SeminarDetail{Seminar: *s, Members: make([]domain.Member, 0, len(d.Members))}
	for _, m := range d.Members {
		detail.Members = append(detail.Members, domain.Member{
			Membership: m.Membership.toDomain(),
			Email:      m.User.Email,
			Username:   m.User.Username,
		})
	}
	return detail, nil
}

// userMembershipDoc is a membership with its seminar name joined in by $lookup.
type userMembershipDoc struct {
	Membership membershipDoc `bson:",inline"`
	Seminar    struct {
		Name string `bson:"name"`
	} `bson:"seminar"`
}

func (d userMembershipDoc) toPorts() ports.UserMembership {
	return ports.UserMembership{Membership: d.Membership.toDomain(), SeminarName: d.Seminar.Name}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
