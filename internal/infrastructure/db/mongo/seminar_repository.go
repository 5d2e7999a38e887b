package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wafflestudio/seminar-system/internal/core/domain"
	"github.com/wafflestudio/seminar-system/internal/core/ports"
)

type SeminarRepository struct {
	db       *mongo.Database
	counters *counters
}

func (r *SeminarRepository) col() *mongo.Collection { return r.db.Collection(collectionSeminars) }

// Create inserts a new seminar document and assigns its id.
func (r *SeminarRepository) Create(ctx context.Context, s *domain.Seminar) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id, err := r.counters.next(ctx, collectionSeminars)
	if err != nil {
		return err
	}
	doc := toSeminarDoc(s)
	doc.ID = id
	if _, err := r.col().InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert seminar: %w", err)
	}
	s.ID = id
	return nil
}

func (r *SeminarRepository) Update(ctx context.Context, s *domain.Seminar) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := toSeminarDoc(s)
	update := bson.M{"$set": bson.M{
		"name":       doc.Name,
		"capacity":   doc.Capacity,
		"count":      doc.Count,
		"online":     doc.Online,
		"time":       doc.Time,
		"updated_at": doc.UpdatedAt,
	}}
	res, err := r.col().UpdateOne(ctx, bson.M{"_id": s.ID}, update)
	if err != nil {
		return fmt.Errorf("update seminar: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrSeminarNotFound
	}
	return nil
}

// Lock bumps the seminar's lock_version inside the caller's transaction. Any
// concurrent transaction touching the same seminar then hits a write conflict
// and is retried by the driver, which serializes them.
func (r *SeminarRepository) Lock(ctx context.Context, id int64) (*domain.Seminar, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc seminarDoc
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := r.col().FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"lock_version": int64(1)}}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrSeminarNotFound
		}
		return nil, fmt.Errorf("lock seminar: %w", err)
	}
	return doc.toDomain()
}

func (r *SeminarRepository) FindByID(ctx context.Context, id int64) (*domain.Seminar, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc seminarDoc
	if err := r.col().FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrSeminarNotFound
		}
		return nil, fmt.Errorf("find seminar: %w", err)
	}
	return doc.toDomain()
}

// FindDetail loads one seminar with its members in a single aggregation.
func (r *SeminarRepository) FindDetail(ctx context.Context, id int64) (*domain.SeminarDetail, error) {
	details, err := r.aggregate(ctx, bson.M{"_id": id}, bson.D{{Key: "_id", Value: 1}})
	if err != nil {
		return nil, err
	}
	if len(details) == 0 {
		return nil, domain.ErrSeminarNotFound
	}
	return details[0], nil
}

// List loads every matching seminar with its members in a single aggregation.
func (r *SeminarRepository) List(ctx context.Context, filter ports.SeminarFilter) ([]*domain.SeminarDetail, error) {
	match := bson.M{}
	if filter.Name != "" {
		match["name"] = bson.M{"$regex": regexp.QuoteMeta(filter.Name)}
	}
	dir := -1
	if filter.Earliest {
		dir = 1
	}
	return r.aggregate(ctx, match, bson.D{{Key: "created_at", Value: dir}, {Key: "_id", Value: dir}})
}

func (r *SeminarRepository) aggregate(ctx context.Context, match bson.M, sort bson.D) ([]*domain.SeminarDetail, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$sort", Value: sort}},
		{{Key: "$lookup", Value: bson.M{
			"from": collectionMemberships,
			"let":  bson.M{"sid": "$_id"},
			"pipeline": mongo.Pipeline{
				{{Key: "$match", Value: bson.M{"$expr": bson.M{"$eq": bson.A{"$seminar_id", "$$sid"}}}}},
				{{Key: "$sort", Value: bson.D{{Key: "joined_at", Value: 1}, {Key: "_id", Value: 1}}}},
				{{Key: "$lookup", Value: bson.M{
					"from":         collectionUsers,
					"localField":   "user_id",
					"foreignField": "_id",
					"as":           "user",
				}}},
				{{Key: "$unwind", Value: bson.M{"path": "$user", "preserveNullAndEmptyArrays": true}}},
			},
			"as": "members",
		}}},
	}

	cur, err := r.col().Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate seminars: %w", err)
	}
	var docs []seminarDetailDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode seminars: %w", err)
	}

	out := make([]*domain.SeminarDetail, 0, len(docs))
	for _, d := range docs {
		detail, err := d.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, detail)
	}
	return out, nil
}
