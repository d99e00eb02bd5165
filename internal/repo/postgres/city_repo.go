package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/babymaxMAX/lsj-love/internal/domain/model"
)

type CityRepo struct {
	pool *pgxpool.Pool
}

func NewCityRepo(pool *pgxpool.Pool) *CityRepo {
	return &CityRepo{pool: pool}
}

func (r *CityRepo) Get(ctx context.Context, city string) (model.CityCoordinate, error) {
	if r.pool == nil {
		return model.CityCoordinate{}, errNilPool
	}

	c := model.CityCoordinate{City: city}
	err := r.pool.QueryRow(ctx, `
SELECT lat, lon, created_at FROM city_coords WHERE city = $1
`, city).Scan(&c.Lat, &c.Lon, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.CityCoordinate{}, model.ErrCityNotCached
		}
		return model.CityCoordinate{}, fmt.Errorf("get city coordinates: %w", err)
	}
	return c, nil
}

func (r *CityRepo) Put(ctx context.Context, c model.CityCoordinate) error {
	if r.pool == nil {
		return errNilPool
	}

	if _, err := r.pool.Exec(ctx, `
INSERT INTO city_coords (city, lat, lon, created_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (city) DO UPDATE SET lat = EXCLUDED.lat, lon = EXCLUDED.lon
`, c.City, c.Lat, c.Lon, c.CreatedAt.UTC()); err != nil {
		return fmt.Errorf("put city coordinates: %w", err)
	}
	return nil
}
