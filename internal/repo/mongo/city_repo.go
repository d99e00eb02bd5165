package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	gomongo "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/babymaxMAX/lsj-love/internal/domain/model"
)

type CityRepo struct {
	coll *gomongo.Collection
}

func NewCityRepo(coll *gomongo.Collection) *CityRepo {
	return &CityRepo{coll: coll}
}

func (r *CityRepo) Get(ctx context.Context, city string) (model.CityCoordinate, error) {
	if r.coll == nil {
		return model.CityCoordinate{}, errNilCollection
	}

	var doc cityDocument
	if err := r.coll.FindOne(ctx, bson.M{"city": city}).Decode(&doc); err != nil {
		if errors.Is(err, gomongo.ErrNoDocuments) {
			return model.CityCoordinate{}, model.ErrCityNotCached
		}
		return model.CityCoordinate{}, fmt.Errorf("get city coordinates: %w", err)
	}
	return model.CityCoordinate{
		City:      doc.City,
		Point:     model.Point{Lat: doc.Lat, Lon: doc.Lon},
		CreatedAt: doc.CreatedAt.UTC(),
	}, nil
}

func (r *CityRepo) Put(ctx context.Context, c model.CityCoordinate) error {
	if r.coll == nil {
		return errNilCollection
	}

	_, err := r.coll.UpdateOne(ctx,
		bson.M{"city": c.City},
		bson.M{
			"$set":         bson.M{"lat": c.Lat, "lon": c.Lon},
			"$setOnInsert": bson.M{"created_at": c.CreatedAt.UTC()},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("put city coordinates: %w", err)
	}
	return nil
}
