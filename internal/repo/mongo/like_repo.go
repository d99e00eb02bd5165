package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	gomongo "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/babymaxMAX/lsj-love/internal/domain/model"
)

type LikeRepo struct {
	coll *gomongo.Collection
}

func NewLikeRepo(coll *gomongo.Collection) *LikeRepo {
	return &LikeRepo{coll: coll}
}

// Create upserts the directed edge. created is false when the pair already existed.
func (r *LikeRepo) Create(ctx context.Context, fromUser, toUser int64, at time.Time) (model.Like, bool, error) {
	if r.coll == nil {
		return model.Like{}, false, errNilCollection
	}

	filter := bson.M{"from_user": fromUser, "to_user": toUser}
	res, err := r.coll.UpdateOne(ctx, filter,
		bson.M{"$setOnInsert": bson.M{"created_at": at.UTC()}},
		options.Update().SetUpsert(true),
	)
	if err != nil && !gomongo.IsDuplicateKeyError(err) {
		return model.Like{}, false, fmt.Errorf("upsert like: %w", err)
	}
	if err == nil && res.UpsertedCount > 0 {
		return model.Like{FromUser: fromUser, ToUser: toUser, CreatedAt: at.UTC()}, true, nil
	}

	var doc likeDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		return model.Like{}, false, fmt.Errorf("load existing like: %w", err)
	}
	return model.Like{FromUser: doc.FromUser, ToUser: doc.ToUser, CreatedAt: doc.CreatedAt.UTC()}, false, nil
}

func (r *LikeRepo) Delete(ctx context.Context, fromUser, toUser int64) (bool, error) {
	if r.coll == nil {
		return false, errNilCollection
	}

	res, err := r.coll.DeleteOne(ctx, bson.M{"from_user": fromUser, "to_user": toUser})
	if err != nil {
		return false, fmt.Errorf("delete like: %w", err)
	}
	return res.DeletedCount > 0, nil
}

func (r *LikeRepo) Exists(ctx context.Context, fromUser, toUser int64) (bool, error) {
	if r.coll == nil {
		return false, errNilCollection
	}

	err := r.coll.FindOne(ctx, bson.M{"from_user": fromUser, "to_user": toUser}).Err()
	if err != nil {
		if errors.Is(err, gomongo.ErrNoDocuments) {
			return false, nil
		}
		return false, fmt.Errorf("lookup like: %w", err)
	}
	return true, nil
}

func (r *LikeRepo) LikedFrom(ctx context.Context, userID int64) ([]int64, error) {
	return r.listIDs(ctx, bson.M{"from_user": userID}, "to_user")
}

func (r *LikeRepo) LikedBy(ctx context.Context, userID int64) ([]int64, error) {
	return r.listIDs(ctx, bson.M{"to_user": userID}, "from_user")
}

func (r *LikeRepo) CountSince(ctx context.Context, fromUser int64, since time.Time) (int, error) {
	if r.coll == nil {
		return 0, errNilCollection
	}

	count, err := r.coll.CountDocuments(ctx, bson.M{
		"from_user":  fromUser,
		"created_at": bson.M{"$gte": since.UTC()},
	})
	if err != nil {
		return 0, fmt.Errorf("count likes: %w", err)
	}
	return int(count), nil
}

func (r *LikeRepo) listIDs(ctx context.Context, filter bson.M, field string) ([]int64, error) {
	if r.coll == nil {
		return nil, errNilCollection
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list like ids: %w", err)
	}
	defer cursor.Close(ctx)

	ids := make([]int64, 0)
	for cursor.Next(ctx) {
		var doc likeDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode like: %w", err)
		}
		if field == "to_user" {
			ids = append(ids, doc.ToUser)
		} else {
			ids = append(ids, doc.FromUser)
		}
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate likes: %w", err)
	}
	return ids, nil
}
