package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wafflestudio/seminar-system/internal/core/domain"
	"github.com/wafflestudio/seminar-system/internal/core/ports"
)

type MembershipRepository struct {
	db       *mongo.Database
	counters *counters
}

func (r *MembershipRepository) col() *mongo.Collection { return r.db.Collection(collectionMemberships) }

// Create inserts a membership. The unique (user_id, seminar_id) index turns a
// second row for the same pair into domain.ErrMembershipExists.
func (r *MembershipRepository) Create(ctx context.Context, m *domain.Membership) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id, err := r.counters.next(ctx, collectionMemberships)
	if err != nil {
		return err
	}
	doc := toMembershipDoc(m)
	doc.ID = id
	if _, err := r.col().InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrMembershipExists
		}
		return fmt.Errorf("insert membership: %w", err)
	}
	m.ID = id
	return nil
}

func (r *MembershipRepository) Update(ctx context.Context, m *domain.Membership) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"is_active":  m.IsActive,
		"dropped_at": utcPtr(m.DroppedAt),
		"updated_at": m.UpdatedAt.UTC(),
	}}
	res, err := r.col().UpdateOne(ctx, bson.M{"_id": m.ID}, update)
	if err != nil {
		return fmt.Errorf("update membership: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrMembershipNotFound
	}
	return nil
}

func (r *MembershipRepository) Find(ctx context.Context, userID, seminarID int64) (*domain.Membership, error) {
	return r.findOne(ctx, bson.M{"user_id": userID, "seminar_id": seminarID}, nil)
}

func (r *MembershipRepository) FindLatestActive(ctx context.Context, userID int64, role domain.Role) (*domain.Membership, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "joined_at", Value: -1}, {Key: "_id", Value: -1}})
	return r.findOne(ctx, bson.M{"user_id": userID, "role": string(role), "is_active": true}, opts)
}

func (r *MembershipRepository) findOne(ctx context.Context, filter bson.M, opts *options.FindOneOptions) (*domain.Membership, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if opts == nil {
		opts = options.FindOne()
	}
	var doc membershipDoc
	if err := r.col().FindOne(ctx, filter, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrMembershipNotFound
		}
		return nil, fmt.Errorf("find membership: %w", err)
	}
	m := doc.toDomain()
	return &m, nil
}

func (r *MembershipRepository) CountActive(ctx context.Context, seminarID int64, role domain.Role) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.col().CountDocuments(ctx, bson.M{"seminar_id": seminarID, "role": string(role), "is_active": true})
	if err != nil {
		return 0, fmt.Errorf("count memberships: %w", err)
	}
	return int(n), nil
}

// ListByUsers returns the memberships of all given users with their seminar
// names, joined by a single aggregation.
func (r *MembershipRepository) ListByUsers(ctx context.Context, userIDs []int64) ([]ports.UserMembership, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"user_id": bson.M{"$in": userIDs}}}},
		{{Key: "$sort", Value: bson.D{{Key: "user_id", Value: 1}, {Key: "joined_at", Value: 1}, {Key: "_id", Value: 1}}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         collectionSeminars,
			"localField":   "seminar_id",
			"foreignField": "_id",
			"as":           "seminar",
		}}},
		{{Key: "$unwind", Value: bson.M{"path": "$seminar", "preserveNullAndEmptyArrays": true}}},
	}

	cur, err := r.col().Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate memberships: %w", err)
	}
	var docs []userMembershipDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode memberships: %w", err)
	}

	out := make([]ports.UserMembership, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toPorts())
	}
	return out, nil
}
