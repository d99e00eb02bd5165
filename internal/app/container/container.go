package container

import (
	"context"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/babymaxMAX/lsj-love/internal/app/storage"
	"github.com/babymaxMAX/lsj-love/internal/config"
	"github.com/babymaxMAX/lsj-love/internal/infra/geocoder"
	"github.com/babymaxMAX/lsj-love/internal/infra/httpclient"
	"github.com/babymaxMAX/lsj-love/internal/infra/llm"
	s3infra "github.com/babymaxMAX/lsj-love/internal/infra/s3"
	"github.com/babymaxMAX/lsj-love/internal/infra/telegram"
	redrepo "github.com/babymaxMAX/lsj-love/internal/repo/redis"
	aisvc "github.com/babymaxMAX/lsj-love/internal/services/ai"
	"github.com/babymaxMAX/lsj-love/internal/services/candidates"
	geosvc "github.com/babymaxMAX/lsj-love/internal/services/geo"
	likessvc "github.com/babymaxMAX/lsj-love/internal/services/likes"
	"github.com/babymaxMAX/lsj-love/internal/services/matchmaking"
	mediasvc "github.com/babymaxMAX/lsj-love/internal/services/media"
	photosvc "github.com/babymaxMAX/lsj-love/internal/services/photos"
	profilesvc "github.com/babymaxMAX/lsj-love/internal/services/profiles"
	ratesvc "github.com/babymaxMAX/lsj-love/internal/services/rate"
)

const (
	likeNotifyTimeout = 10 * time.Second
	pingTimeout       = 5 * time.Second
)

// Container holds every backend handle and service both binaries share.
type Container struct {
	Stores   *storage.Stores
	Redis    *goredis.Client
	S3       *minio.Client
	Bot      *telegram.Bot
	Notifier *telegram.Notifier

	Storage     *mediasvc.S3Storage
	Limiter     *ratesvc.Limiter
	Geo         *geosvc.Resolver
	Selector    *candidates.Selector
	AI          *aisvc.Service
	Profiles    *profilesvc.Service
	Media       *mediasvc.Service
	Likes       *likessvc.Service
	Photos      *photosvc.Service
	Matchmaking *matchmaking.Service

	degraded []string
}

// Build connects the backends and assembles the services. Unreachable
// backends are recorded as degraded and never abort startup.
func Build(ctx context.Context, cfg config.Config, log *zap.Logger) (*Container, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	c := &Container{}

	stores, err := storage.Open(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	c.Stores = stores
	if stores.Degraded {
		c.degraded = append(c.degraded, stores.Driver)
	}

	c.Redis = redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	if err := redrepo.Ping(pingCtx, c.Redis); err != nil {
		log.Warn("redis init failed, continuing in degraded mode", zap.Error(err))
		c.degraded = append(c.degraded, "redis")
	}
	cancel()

	if client, err := s3infra.NewClient(s3infra.Config{
		Endpoint:  cfg.S3.Endpoint,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
		Region:    cfg.S3.Region,
		UseSSL:    cfg.S3.UseSSL,
	}); err != nil {
		log.Warn("s3 init failed, continuing in degraded mode", zap.Error(err))
		c.degraded = append(c.degraded, "s3")
	} else {
		c.S3 = client
	}
	c.Storage = mediasvc.NewS3Storage(c.S3, cfg.S3.Bucket)

	var sender telegram.Sender
	if bot, err := telegram.NewBot(cfg.Bot.Token); err != nil {
		log.Warn("telegram bot init failed, notifications disabled", zap.Error(err))
		c.degraded = append(c.degraded, "telegram")
	} else {
		c.Bot = bot
		sender = bot
	}
	c.Notifier = telegram.NewNotifier(sender, cfg.Bot.WebAppURL)

	c.Limiter = ratesvc.NewLimiter(redrepo.NewRateRepo(c.Redis)).
		WithRule(ratesvc.ActionMatchmaking, ratesvc.Rule{Limit: cfg.Matchmaking.RequestsPerMinute, Window: time.Minute}).
		WithRule(ratesvc.ActionLike, ratesvc.Rule{Limit: cfg.Likes.PerMinute, Window: time.Minute})

	neighbors, err := geosvc.DefaultNeighbors()
	if err != nil {
		return nil, fmt.Errorf("load city neighbors: %w", err)
	}
	nominatim := geocoder.NewNominatim(httpclient.New(cfg.Geocoder.Timeout), cfg.Geocoder.BaseURL, cfg.Geocoder.UserAgent)
	c.Geo = geosvc.NewResolver(stores.Cities, nominatim, neighbors, log)
	c.Selector = candidates.NewSelector(stores.Profiles, c.Geo, candidates.Config{})

	llmClient := llm.New(llm.Config{
		APIKey:      cfg.OpenAI.APIKey,
		BaseURL:     cfg.OpenAI.BaseURL,
		TextModel:   cfg.OpenAI.TextModel,
		VisionModel: cfg.OpenAI.VisionModel,
	}, httpclient.New(cfg.OpenAI.VisionTimeout))
	var completer aisvc.Completer
	if llmClient != nil {
		completer = llmClient
	} else {
		log.Info("openai api key is empty, ai matchmaking disabled")
	}
	var files profilesvc.FileResolver
	if c.Bot != nil {
		files = c.Bot
	}
	c.Photos = photosvc.NewService(stores.Photos, stores.Profiles, c.Notifier, log)
	c.Profiles = profilesvc.NewService(stores.Profiles, c.Photos, c.Storage, files, log)
	c.Media = mediasvc.NewService(c.Profiles, c.Storage, log)
	c.AI = aisvc.NewService(completer, c.Storage, c.Profiles, aisvc.Config{
		TextTimeout:       cfg.OpenAI.TextTimeout,
		VisionTimeout:     cfg.OpenAI.VisionTimeout,
		PhotoFetchTimeout: cfg.Matchmaking.PhotoFetchTimeout,
	}, log)
	c.Likes = likessvc.NewService(stores.Profiles, stores.Likes, c.Notifier, c.Limiter, likessvc.Config{
		FreeLikesPerDay: cfg.Likes.DailyFree,
		NotifyTimeout:   likeNotifyTimeout,
	}, log)
	c.Matchmaking = matchmaking.NewService(
		stores.Profiles,
		c.Selector,
		c.Geo,
		c.AI,
		c.Likes,
		c.Limiter,
		matchmaking.Config{
			PoolSize:      cfg.Matchmaking.PoolSize,
			VisionCap:     cfg.Matchmaking.VisionCap,
			FallbackN:     cfg.Matchmaking.FallbackN,
			TrialDuration: cfg.Matchmaking.TrialDuration,
		},
		log,
	)

	return c, nil
}

// Degraded lists the backends that were unreachable at startup.
func (c *Container) Degraded() []string {
	if c == nil || len(c.degraded) == 0 {
		return nil
	}
	out := make([]string, len(c.degraded))
	copy(out, c.degraded)
	return out
}

// Close waits for background notifications and releases connections.
func (c *Container) Close(ctx context.Context) error {
	if c == nil {
		return nil
	}
	if c.Likes != nil {
		c.Likes.Wait()
	}
	if c.Photos != nil {
		c.Photos.Wait()
	}

	var closeErr error
	if err := c.Stores.Close(ctx); err != nil {
		closeErr = err
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil && closeErr == nil {
			closeErr = err
		}
	}
	return closeErr
}
