package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	gomongo "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/babymaxMAX/lsj-love/internal/config"
)

var errNilCollection = errors.New("mongo collection is nil")

// Collections groups the handles every repo in this package works against.
type Collections struct {
	Users         *gomongo.Collection
	Likes         *gomongo.Collection
	PhotoLikes    *gomongo.Collection
	PhotoComments *gomongo.Collection
	CityCoords    *gomongo.Collection
}

func Connect(ctx context.Context, cfg config.MongoConfig) (*gomongo.Client, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("mongo uri is required")
	}

	connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	client, err := gomongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

func NewCollections(client *gomongo.Client, cfg config.MongoConfig) Collections {
	db := client.Database(cfg.Database)
	return Collections{
		Users:         db.Collection(cfg.UsersCollection),
		Likes:         db.Collection(cfg.LikesCollection),
		PhotoLikes:    db.Collection(cfg.PhotoLikesCollection),
		PhotoComments: db.Collection(cfg.PhotoCommentsCollection),
		CityCoords:    db.Collection(cfg.CityCoordinatesCollection),
	}
}

// EnsureIndexes creates the indexes the repos rely on for uniqueness and lookups.
func EnsureIndexes(ctx context.Context, c Collections) error {
	indexSets := []struct {
		coll   *gomongo.Collection
		models []gomongo.IndexModel
	}{
		{c.Users, []gomongo.IndexModel{
			{Keys: bson.D{{Key: "telegram_id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "gender", Value: 1}}},
			{Keys: bson.D{{Key: "city", Value: 1}}},
			{Keys: bson.D{{Key: "is_active", Value: 1}}},
			{Keys: bson.D{{Key: "premium_type", Value: 1}}},
		}},
		{c.Likes, []gomongo.IndexModel{
			{Keys: bson.D{{Key: "from_user", Value: 1}, {Key: "to_user", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "to_user", Value: 1}}},
			{Keys: bson.D{{Key: "from_user", Value: 1}, {Key: "created_at", Value: 1}}},
		}},
		{c.PhotoLikes, []gomongo.IndexModel{
			{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "photo_index", Value: 1}, {Key: "from_user", Value: 1}}, Options: options.Index().SetUnique(true)},
		}},
		{c.PhotoComments, []gomongo.IndexModel{
			{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "photo_index", Value: 1}, {Key: "created_at", Value: -1}}},
		}},
		{c.CityCoords, []gomongo.IndexModel{
			{Keys: bson.D{{Key: "city", Value: 1}}, Options: options.Index().SetUnique(true)},
		}},
	}

	for _, set := range indexSets {
		if set.coll == nil {
			return errNilCollection
		}
		if _, err := set.coll.Indexes().CreateMany(ctx, set.models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", set.coll.Name(), err)
		}
	}
	return nil
}
