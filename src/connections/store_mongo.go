package connections

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/theleywin/talentnest-connections/src/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const defaultCollection = "connections"

// MongoStore persists connection requests in a MongoDB collection.
type MongoStore struct {
	coll *mongo.Collection
}

// MongoOption configures MongoStore.
type MongoOption func(*mongoOptions)

type mongoOptions struct {
	collection string
}

// WithCollection overrides the collection name (default: "connections").
func WithCollection(name string) MongoOption {
	return func(o *mongoOptions) {
		if name != "" {
			o.collection = name
		}
	}
}

func NewMongoStore(db *mongo.Database, opts ...MongoOption) (*MongoStore, error) {
	if db == nil {
		return nil, errors.New("mongo store: nil database")
	}
	o := mongoOptions{collection: defaultCollection}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return &MongoStore{coll: db.Collection(o.collection)}, nil
}

// EnsureIndexes creates the unique pair index and the participant indexes.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "pair_key", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "requester", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "target", Value: 1}, {Key: "createdAt", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("create connection indexes: %w", err)
	}
	return nil
}

func (s *MongoStore) FindByID(ctx context.Context, id string) (models.ConnectionRequest, error) {
	var rec models.ConnectionRequest
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.ConnectionRequest{}, ErrNotFound
		}
		return models.ConnectionRequest{}, fmt.Errorf("find connection request %s: %w", id, err)
	}
	return rec, nil
}

func (s *MongoStore) FindByPair(ctx context.Context, a, b string) (models.ConnectionRequest, bool, error) {
	var rec models.ConnectionRequest
	err := s.coll.FindOne(ctx, bson.M{"pair_key": models.PairKey(a, b)}).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.ConnectionRequest{}, false, nil
		}
		return models.ConnectionRequest{}, false, fmt.Errorf("find connection pair: %w", err)
	}
	return rec, true, nil
}

func (s *MongoStore) FindByParticipant(ctx context.Context, member string) iter.Seq2[models.ConnectionRequest, error] {
	return func(yield func(models.ConnectionRequest, error) bool) {
		filter := bson.M{
			"$or": []bson.M{
				{"requester": member},
				{"target": member},
			},
		}
		opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})

		cursor, err := s.coll.Find(ctx, filter, opts)
		if err != nil {
			yield(models.ConnectionRequest{}, fmt.Errorf("list connection requests: %w", err))
			return
		}
		defer cursor.Close(ctx)

		for cursor.Next(ctx) {
			var rec models.ConnectionRequest
			if err := cursor.Decode(&rec); err != nil {
				yield(models.ConnectionRequest{}, fmt.Errorf("decode connection request: %w", err))
				return
			}
			if !yield(rec, nil) {
				return
			}
		}
		if err := cursor.Err(); err != nil {
			yield(models.ConnectionRequest{}, fmt.Errorf("list connection requests: %w", err))
		}
	}
}

func (s *MongoStore) Insert(ctx context.Context, rec models.ConnectionRequest) error {
	rec.PairKey = models.PairKey(rec.RequesterID, rec.TargetID)
	_, err := s.coll.InsertOne(ctx, rec)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert connection request: %w", err)
	}
	return nil
}

func (s *MongoStore) Update(ctx context.Context, rec models.ConnectionRequest, expected models.ConnectionStatus) error {
	filter := bson.M{"_id": rec.ID, "status": expected}
	update := bson.M{
		"$set": bson.M{
			"status":    rec.Status,
			"updatedAt": rec.UpdatedAt,
		},
	}
	result, err := s.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("update connection request %s: %w", rec.ID, err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
