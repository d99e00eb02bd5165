package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	gomongo "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/babymaxMAX/lsj-love/internal/domain/model"
)

type PhotoRepo struct {
	likes    *gomongo.Collection
	comments *gomongo.Collection
}

func NewPhotoRepo(likes, comments *gomongo.Collection) *PhotoRepo {
	return &PhotoRepo{likes: likes, comments: comments}
}

func slotFilter(slot model.PhotoSlot) bson.M {
	return bson.M{"owner_id": slot.OwnerID, "photo_index": slot.PhotoIndex}
}

// ToggleLike removes an existing like or adds a new one. It returns the resulting state.
func (r *PhotoRepo) ToggleLike(ctx context.Context, slot model.PhotoSlot, fromUser int64, at time.Time) (bool, error) {
	if r.likes == nil {
		return false, errNilCollection
	}

	filter := slotFilter(slot)
	filter["from_user"] = fromUser
	res, err := r.likes.DeleteOne(ctx, filter)
	if err != nil {
		return false, fmt.Errorf("delete photo like: %w", err)
	}
	if res.DeletedCount > 0 {
		return false, nil
	}

	_, err = r.likes.InsertOne(ctx, photoLikeDocument{
		OwnerID:    slot.OwnerID,
		PhotoIndex: slot.PhotoIndex,
		FromUser:   fromUser,
		CreatedAt:  at.UTC(),
	})
	if err != nil && !gomongo.IsDuplicateKeyError(err) {
		return false, fmt.Errorf("insert photo like: %w", err)
	}
	return true, nil
}

func (r *PhotoRepo) LikesInfo(ctx context.Context, slot model.PhotoSlot, viewerID int64) (model.PhotoLikesInfo, error) {
	if r.likes == nil {
		return model.PhotoLikesInfo{}, errNilCollection
	}

	count, err := r.likes.CountDocuments(ctx, slotFilter(slot))
	if err != nil {
		return model.PhotoLikesInfo{}, fmt.Errorf("count photo likes: %w", err)
	}

	info := model.PhotoLikesInfo{Count: int(count)}
	if viewerID != 0 && count > 0 {
		filter := slotFilter(slot)
		filter["from_user"] = viewerID
		mine, err := r.likes.CountDocuments(ctx, filter, options.Count().SetLimit(1))
		if err != nil {
			return model.PhotoLikesInfo{}, fmt.Errorf("lookup viewer photo like: %w", err)
		}
		info.LikedByMe = mine > 0
	}
	return info, nil
}

func (r *PhotoRepo) AddComment(ctx context.Context, c model.PhotoComment) error {
	if r.comments == nil {
		return errNilCollection
	}

	if _, err := r.comments.InsertOne(ctx, photoCommentDocument{
		ID:         c.ID,
		OwnerID:    c.OwnerID,
		PhotoIndex: c.PhotoIndex,
		FromUser:   c.FromUser,
		FromName:   c.FromName,
		Text:       c.Text,
		CreatedAt:  c.CreatedAt.UTC(),
	}); err != nil {
		return fmt.Errorf("insert photo comment: %w", err)
	}
	return nil
}

// ListComments returns the latest limit comments in chronological order.
func (r *PhotoRepo) ListComments(ctx context.Context, slot model.PhotoSlot, limit int) ([]model.PhotoComment, error) {
	if r.comments == nil {
		return nil, errNilCollection
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(int64(limit))
	cursor, err := r.comments.Find(ctx, slotFilter(slot), opts)
	if err != nil {
		return nil, fmt.Errorf("list photo comments: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []photoCommentDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode photo comments: %w", err)
	}

	items := make([]model.PhotoComment, len(docs))
	for i, doc := range docs {
		items[len(docs)-1-i] = model.PhotoComment{
			ID:        doc.ID,
			PhotoSlot: model.PhotoSlot{OwnerID: doc.OwnerID, PhotoIndex: doc.PhotoIndex},
			FromUser:  doc.FromUser,
			FromName:  doc.FromName,
			Text:      doc.Text,
			CreatedAt: doc.CreatedAt.UTC(),
		}
	}
	return items, nil
}

func (r *PhotoRepo) PurgeSlot(ctx context.Context, slot model.PhotoSlot) error {
	if r.likes == nil || r.comments == nil {
		return errNilCollection
	}

	if _, err := r.likes.DeleteMany(ctx, slotFilter(slot)); err != nil {
		return fmt.Errorf("purge photo likes: %w", err)
	}
	if _, err := r.comments.DeleteMany(ctx, slotFilter(slot)); err != nil {
		return fmt.Errorf("purge photo comments: %w", err)
	}
	return nil
}
