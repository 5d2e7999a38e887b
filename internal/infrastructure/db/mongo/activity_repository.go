package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wafflestudio/seminar-system/internal/core/domain"
)

// ActivityRepository persists seminar activity to the seminar_activity collection.
type ActivityRepository struct {
	col *mongo.Collection
}

// Insert appends one event. The document _id is generated by the driver.
func (r *ActivityRepository) Insert(ctx context.Context, ev *domain.ActivityEvent) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := bson.M{
		"seminar_id":  ev.SeminarID,
		"user_id":     ev.UserID,
		"role":        string(ev.Role),
		"action":      string(ev.Action),
		"occurred_at": ev.OccurredAt.UTC(),
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

func (r *ActivityRepository) ListBySeminar(ctx context.Context, seminarID int64) ([]domain.ActivityEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "occurred_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.col.Find(ctx, bson.M{"seminar_id": seminarID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	var events []domain.ActivityEvent
	if err := cur.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("decode activity: %w", err)
	}
	return events, nil
}
