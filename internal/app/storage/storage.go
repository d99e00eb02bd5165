package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	gomongo "go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/babymaxMAX/lsj-love/internal/config"
	"github.com/babymaxMAX/lsj-love/internal/domain/model"
	mongorepo "github.com/babymaxMAX/lsj-love/internal/repo/mongo"
	pgrepo "github.com/babymaxMAX/lsj-love/internal/repo/postgres"
)

// ProfileRepo is the full profile store surface; both backends implement it.
type ProfileRepo interface {
	Get(ctx context.Context, telegramID int64) (model.Profile, error)
	GetMany(ctx context.Context, ids []int64) ([]model.Profile, error)
	List(ctx context.Context, page model.Page) ([]model.Profile, int64, error)
	Create(ctx context.Context, p model.Profile) error
	ListCandidates(ctx context.Context, f model.CandidateFilter) ([]model.Profile, error)
	UpdatePhotos(ctx context.Context, telegramID int64, photo string, photos []string) error
	TouchLastSeen(ctx context.Context, telegramID int64, at time.Time) error
	StartAIMatchmakingTrial(ctx context.Context, telegramID int64, at time.Time) (bool, error)
	ConsumeSuperlike(ctx context.Context, telegramID int64) (bool, error)
	ClearExpiredPremium(ctx context.Context, now time.Time) (int64, error)
	ClearExpiredBoosts(ctx context.Context, now time.Time) (int64, error)
	ResetBoostWeeks(ctx context.Context, cutoff time.Time) (int64, error)
}

type LikeRepo interface {
	Create(ctx context.Context, fromUser, toUser int64, at time.Time) (model.Like, bool, error)
	Delete(ctx context.Context, fromUser, toUser int64) (bool, error)
	Exists(ctx context.Context, fromUser, toUser int64) (bool, error)
	LikedFrom(ctx context.Context, userID int64) ([]int64, error)
	LikedBy(ctx context.Context, userID int64) ([]int64, error)
	CountSince(ctx context.Context, fromUser int64, since time.Time) (int, error)
}

type PhotoRepo interface {
	ToggleLike(ctx context.Context, slot model.PhotoSlot, fromUser int64, at time.Time) (bool, error)
	LikesInfo(ctx context.Context, slot model.PhotoSlot, viewerID int64) (model.PhotoLikesInfo, error)
	AddComment(ctx context.Context, c model.PhotoComment) error
	ListComments(ctx context.Context, slot model.PhotoSlot, limit int) ([]model.PhotoComment, error)
	PurgeSlot(ctx context.Context, slot model.PhotoSlot) error
}

type CityRepo interface {
	Get(ctx context.Context, city string) (model.CityCoordinate, error)
	Put(ctx context.Context, c model.CityCoordinate) error
}

type Stores struct {
	Driver   string
	Profiles ProfileRepo
	Likes    LikeRepo
	Photos   PhotoRepo
	Cities   CityRepo
	// Degraded is set when the backend could not be reached at startup.
	// Repos then fail every call instead of the process refusing to start.
	Degraded bool

	close func(context.Context) error
}

func (s *Stores) Close(ctx context.Context) error {
	if s == nil || s.close == nil {
		return nil
	}
	return s.close(ctx)
}

// Open connects the configured backend. Connection failures are logged and
// produce degraded stores.
func Open(ctx context.Context, cfg config.Config, log *zap.Logger) (*Stores, error) {
	if log == nil {
		log = zap.NewNop()
	}

	switch cfg.Storage.Driver {
	case config.StorageDriverMongo:
		return openMongo(ctx, cfg.Mongo, log), nil
	case config.StorageDriverPostgres:
		return openPostgres(ctx, cfg.Postgres, log), nil
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
	}
}

func openMongo(ctx context.Context, cfg config.MongoConfig, log *zap.Logger) *Stores {
	var (
		client *gomongo.Client
		colls  mongorepo.Collections
	)
	degraded := false

	if c, err := mongorepo.Connect(ctx, cfg); err != nil {
		log.Warn("mongo init failed, continuing in degraded mode", zap.Error(err))
		degraded = true
	} else {
		client = c
		colls = mongorepo.NewCollections(client, cfg)
		if err := mongorepo.EnsureIndexes(ctx, colls); err != nil {
			log.Warn("mongo index setup failed", zap.Error(err))
		}
	}

	return &Stores{
		Driver:   config.StorageDriverMongo,
		Profiles: mongorepo.NewProfileRepo(colls.Users),
		Likes:    mongorepo.NewLikeRepo(colls.Likes),
		Photos:   mongorepo.NewPhotoRepo(colls.PhotoLikes, colls.PhotoComments),
		Cities:   mongorepo.NewCityRepo(colls.CityCoords),
		Degraded: degraded,
		close: func(ctx context.Context) error {
			if client == nil {
				return nil
			}
			return client.Disconnect(ctx)
		},
	}
}

func openPostgres(ctx context.Context, cfg config.PostgresConfig, log *zap.Logger) *Stores {
	var pool *pgxpool.Pool
	degraded := false

	if p, err := pgrepo.NewPool(ctx, cfg.DSN); err != nil {
		log.Warn("postgres init failed, continuing in degraded mode", zap.Error(err))
		degraded = true
	} else {
		pool = p
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := pgrepo.Ping(pingCtx, pool); err != nil {
			// The pool reconnects lazily, so it is kept.
			log.Warn("postgres ping failed, continuing in degraded mode", zap.Error(err))
			degraded = true
		}
		cancel()
	}

	return &Stores{
		Driver:   config.StorageDriverPostgres,
		Profiles: pgrepo.NewProfileRepo(pool),
		Likes:    pgrepo.NewLikeRepo(pool),
		Photos:   pgrepo.NewPhotoRepo(pool),
		Cities:   pgrepo.NewCityRepo(pool),
		Degraded: degraded,
		close: func(context.Context) error {
			if pool != nil {
				pool.Close()
			}
			return nil
		},
	}
}
