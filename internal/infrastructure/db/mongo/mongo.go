package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/wafflestudio/seminar-system/internal/core/ports"
)

const defaultTimeout = 10 * time.Second

const (
	collectionUsers       = "users"
	collectionSeminars    = "seminars"
	collectionMemberships = "memberships"
	collectionActivity    = "seminar_activity"
	collectionCounters    = "counters"
)

// Config captures the minimal settings required to establish a MongoDB connection.
type Config struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// Connect establishes a MongoDB client, verifies connectivity with a ping, and
// returns both the client and the selected database. A default timeout is
// applied when none is provided.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, *mongo.Database, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(connectCtx)
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	db := client.Database(cfg.Database)
	return client, db, nil
}

// Store implements ports.Store on MongoDB. Transactions need a replica set.
type Store struct {
	client      *mongo.Client
	db          *mongo.Database
	users       *UserRepository
	seminars    *SeminarRepository
	memberships *MembershipRepository
	activity    *ActivityRepository
}

var _ ports.Store = (*Store)(nil)

func NewStore(client *mongo.Client, db *mongo.Database) *Store {
	c := newCounters(db)
	return &Store{
		client:      client,
		db:          db,
		users:       &UserRepository{db: db, counters: c},
		seminars:    &SeminarRepository{db: db, counters: c},
		memberships: &MembershipRepository{db: db, counters: c},
		activity:    &ActivityRepository{col: db.Collection(collectionActivity)},
	}
}

func (s *Store) Users() ports.UserRepository             { return s.users }
func (s *Store) Seminars() ports.SeminarRepository       { return s.seminars }
func (s *Store) Memberships() ports.MembershipRepository { return s.memberships }
func (s *Store) Activity() ports.ActivityRepository      { return s.activity }

// WithinTx runs fn inside a multi-document transaction. The session context
// handed to fn carries the transaction to every repository call. Transient
// errors such as write conflicts on a locked seminar are retried by the driver.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	sess, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("mongo start session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// EnsureIndexes creates the collections and indexes the repositories rely on.
// Collections must exist before they are written inside a transaction.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	specs := map[string][]mongo.IndexModel{
		collectionUsers: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		collectionSeminars: {
			{Keys: bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}},
		},
		collectionMemberships: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "seminar_id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "seminar_id", Value: 1}, {Key: "joined_at", Value: 1}}},
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "role", Value: 1}, {Key: "is_active", Value: 1}}},
		},
		collectionActivity: {
			{Keys: bson.D{{Key: "seminar_id", Value: 1}, {Key: "occurred_at", Value: 1}}},
		},
		collectionCounters: nil,
	}

	existing, err := s.db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return fmt.Errorf("list collections: %w", err)
	}
	have := make(map[string]bool, len(existing))
	for _, name := range existing {
		have[name] = true
	}

	for name, indexes := range specs {
		if !have[name] {
			if err := s.db.CreateCollection(ctx, name); err != nil {
				return fmt.Errorf("create collection %s: %w", name, err)
			}
		}
		if len(indexes) == 0 {
			continue
		}
		if _, err := s.db.Collection(name).Indexes().CreateMany(ctx, indexes); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}
	return nil
}
