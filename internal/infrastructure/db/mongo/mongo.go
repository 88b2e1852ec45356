package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const defaultTimeout = 10 * time.Second

// Collection names.
const (
	collUsers       = "users"
	collCategories  = "categories"
	collTags        = "tags"
	collProducts    = "products"
	collProductTags = "product_tags"
	collCounters    = "counters"
)

// Unique index names; duplicate-key errors are matched against them.
const (
	idxUserEmail     = "users_email_unique"
	idxCategoryName  = "categories_name_unique"
	idxTagName       = "tags_name_unique"
	idxProductSlug   = "products_slug_unique"
	idxProductSKU    = "products_sku_unique"
	idxProductTagKey = "product_tags_pair_unique"
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

// Store is the shared handle for the repositories in this package.
type Store struct {
	db  *mongo.Database
	log zerolog.Logger
}

func NewStore(db *mongo.Database, log zerolog.Logger) *Store {
	return &Store{db: db, log: log}
}

// Ping runs the ping command against the selected database.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err()
}

func (s *Store) coll(name string) *mongo.Collection {
	return s.db.Collection(name)
}

// EnsureIndexes creates the unique indexes that guard every uniqueness rule
// and the lookup indexes used by product search.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	specs := map[string][]mongo.IndexModel{
		collUsers: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetName(idxUserEmail).SetUnique(true)},
		},
		collCategories: {
			{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetName(idxCategoryName).SetUnique(true)},
		},
		collTags: {
			{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetName(idxTagName).SetUnique(true)},
		},
		collProducts: {
			{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetName(idxProductSlug).SetUnique(true)},
			{
				Keys: bson.D{{Key: "sku", Value: 1}},
				Options: options.Index().SetName(idxProductSKU).SetUnique(true).
					SetPartialFilterExpression(bson.M{"sku": bson.M{"$type": "string"}}),
			},
			{Keys: bson.D{{Key: "category_id", Value: 1}}},
			{Keys: bson.D{{Key: "price_cents", Value: 1}}},
		},
		collProductTags: {
			{
				Keys:    bson.D{{Key: "product_id", Value: 1}, {Key: "tag_id", Value: 1}},
				Options: options.Index().SetName(idxProductTagKey).SetUnique(true),
			},
			{Keys: bson.D{{Key: "tag_id", Value: 1}}},
		},
	}

	for name, models := range specs {
		if _, err := s.coll(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}
	s.log.Info().Msg("mongo indexes ensured")
	return nil
}

type counterDoc struct {
	ID  string `bson:"_id"`
	Seq int64  `bson:"seq"`
}

// nextID returns the next numeric id of the named sequence.
func (s *Store) nextID(ctx context.Context, sequence string) (int64, error) {
	var c counterDoc
	err := s.coll(collCounters).FindOneAndUpdate(ctx,
		bson.M{"_id": sequence},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&c)
	if err != nil {
		return 0, fmt.Errorf("next %s id: %w", sequence, err)
	}
	return c.Seq, nil
}

// mapDuplicate translates a duplicate-key error on one of the given unique
// indexes into its domain error. Other errors are returned unchanged.
func mapDuplicate(err error, byIndex map[string]error) error {
	if !mongo.IsDuplicateKeyError(err) {
		return err
	}
	msg := err.Error()
	for index, domainErr := range byIndex {
		if strings.Contains(msg, index) {
			return errors.Join(domainErr, err)
		}
	}
	return err
}

func toUnix(t time.Time) int64 {
	return t.UTC().UnixNano()
}

func fromUnix(n int64) time.Time {
	return time.Unix(0, n).UTC()
}
