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

type ProfileRepo struct {
	coll *gomongo.Collection
}

func NewProfileRepo(coll *gomongo.Collection) *ProfileRepo {
	return &ProfileRepo{coll: coll}
}

func (r *ProfileRepo) Get(ctx context.Context, telegramID int64) (model.Profile, error) {
	if r.coll == nil {
		return model.Profile{}, errNilCollection
	}

	var doc profileDocument
	err := r.coll.FindOne(ctx, bson.M{"telegram_id": telegramID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, gomongo.ErrNoDocuments) {
			return model.Profile{}, model.ErrProfileNotFound
		}
		return model.Profile{}, fmt.Errorf("get profile: %w", err)
	}
	return profileFromDocument(doc), nil
}

func (r *ProfileRepo) GetMany(ctx context.Context, ids []int64) ([]model.Profile, error) {
	if len(ids) == 0 {
		return []model.Profile{}, nil
	}
	return r.find(ctx, bson.M{"telegram_id": bson.M{"$in": ids}}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
}

func (r *ProfileRepo) List(ctx context.Context, page model.Page) ([]model.Profile, int64, error) {
	if r.coll == nil {
		return nil, 0, errNilCollection
	}

	total, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, fmt.Errorf("count profiles: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetSkip(int64(page.Offset)).
		SetLimit(int64(page.Limit))
	items, err := r.find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *ProfileRepo) Create(ctx context.Context, p model.Profile) error {
	if r.coll == nil {
		return errNilCollection
	}
	if p.TelegramID == 0 {
		return fmt.Errorf("telegram id is required")
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	if _, err := r.coll.InsertOne(ctx, documentFromProfile(p)); err != nil {
		if gomongo.IsDuplicateKeyError(err) {
			return model.ErrProfileExists
		}
		return fmt.Errorf("insert profile: %w", err)
	}
	return nil
}

// ListCandidates returns active, visible profiles matching f in insertion order.
func (r *ProfileRepo) ListCandidates(ctx context.Context, f model.CandidateFilter) ([]model.Profile, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit))
	}
	items, err := r.find(ctx, candidateQuery(f), opts)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	return items, nil
}

func (r *ProfileRepo) UpdatePhotos(ctx context.Context, telegramID int64, photo string, photos []string) error {
	if photos == nil {
		photos = []string{}
	}
	return r.updateOne(ctx, telegramID, bson.M{"$set": bson.M{"photo": photo, "photos": photos}}, "update profile photos")
}

func (r *ProfileRepo) TouchLastSeen(ctx context.Context, telegramID int64, at time.Time) error {
	return r.updateOne(ctx, telegramID, bson.M{"$set": bson.M{"last_seen": at.UTC()}}, "touch last seen")
}

// StartAIMatchmakingTrial stamps the first-use instant once. It reports whether this call set it.
func (r *ProfileRepo) StartAIMatchmakingTrial(ctx context.Context, telegramID int64, at time.Time) (bool, error) {
	if r.coll == nil {
		return false, errNilCollection
	}

	res, err := r.coll.UpdateOne(ctx, bson.M{
		"telegram_id": telegramID,
		"$or": bson.A{
			bson.M{"ai_matchmaking_first_used": bson.M{"$exists": false}},
			bson.M{"ai_matchmaking_first_used": nil},
		},
	}, bson.M{"$set": bson.M{"ai_matchmaking_first_used": at.UTC()}})
	if err != nil {
		return false, fmt.Errorf("start ai matchmaking trial: %w", err)
	}
	return res.ModifiedCount > 0, nil
}

// ConsumeSuperlike decrements superlike_credits when positive.
func (r *ProfileRepo) ConsumeSuperlike(ctx context.Context, telegramID int64) (bool, error) {
	if r.coll == nil {
		return false, errNilCollection
	}

	res, err := r.coll.UpdateOne(ctx,
		bson.M{"telegram_id": telegramID, "superlike_credits": bson.M{"$gt": 0}},
		bson.M{"$inc": bson.M{"superlike_credits": -1}},
	)
	if err != nil {
		return false, fmt.Errorf("consume superlike: %w", err)
	}
	return res.ModifiedCount > 0, nil
}

func (r *ProfileRepo) ClearExpiredPremium(ctx context.Context, now time.Time) (int64, error) {
	return r.updateMany(ctx,
		bson.M{"premium_until": bson.M{"$ne": nil, "$lte": now.UTC()}},
		bson.M{"$set": bson.M{"premium_type": "", "premium_until": nil}},
		"clear expired premium",
	)
}

func (r *ProfileRepo) ClearExpiredBoosts(ctx context.Context, now time.Time) (int64, error) {
	return r.updateMany(ctx,
		bson.M{"boost_until": bson.M{"$ne": nil, "$lte": now.UTC()}},
		bson.M{"$set": bson.M{"boost_until": nil}},
		"clear expired boosts",
	)
}

func (r *ProfileRepo) ResetBoostWeeks(ctx context.Context, cutoff time.Time) (int64, error) {
	return r.updateMany(ctx,
		bson.M{
			"boosts_this_week": bson.M{"$gt": 0},
			"$or": bson.A{
				bson.M{"boost_week_reset": nil},
				bson.M{"boost_week_reset": bson.M{"$lte": cutoff.UTC()}},
			},
		},
		bson.M{"$set": bson.M{"boosts_this_week": 0, "boost_week_reset": nil}},
		"reset boost weeks",
	)
}

func (r *ProfileRepo) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]model.Profile, error) {
	if r.coll == nil {
		return nil, errNilCollection
	}

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find profiles: %w", err)
	}
	defer cursor.Close(ctx)

	items := make([]model.Profile, 0)
	for cursor.Next(ctx) {
		var doc profileDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode profile: %w", err)
		}
		items = append(items, profileFromDocument(doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate profiles: %w", err)
	}
	return items, nil
}

func (r *ProfileRepo) updateOne(ctx context.Context, telegramID int64, update bson.M, op string) error {
	if r.coll == nil {
		return errNilCollection
	}

	res, err := r.coll.UpdateOne(ctx, bson.M{"telegram_id": telegramID}, update)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if res.MatchedCount == 0 {
		return model.ErrProfileNotFound
	}
	return nil
}

func (r *ProfileRepo) updateMany(ctx context.Context, filter, update bson.M, op string) (int64, error) {
	if r.coll == nil {
		return 0, errNilCollection
	}

	res, err := r.coll.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return res.ModifiedCount, nil
}
