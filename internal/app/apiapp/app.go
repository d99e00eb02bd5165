package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/babymaxMAX/lsj-love/internal/app/container"
	"github.com/babymaxMAX/lsj-love/internal/config"
)

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	deps       *container.Container
	httpRouter http.Handler
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	deps, err := container.Build(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("build services: %w", err)
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, log)
	RegisterRoutes(r, Dependencies{
		Profiles:         deps.Profiles,
		Selector:         deps.Selector,
		LikeLister:       deps.Likes,
		Uploader:         deps.Media,
		Likes:            deps.Likes,
		PhotoInteraction: deps.Photos,
		Matchmaker:       deps.Matchmaking,
		Degraded:         deps.Degraded,
		Logger:           log,
		Config:           cfg,
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	return &App{
		cfg:        cfg,
		logger:     log,
		server:     server,
		deps:       deps,
		httpRouter: r,
	}, nil
}

func (a *App) Run() error {
	a.logger.Info("api server started",
		zap.String("addr", a.cfg.HTTP.Addr),
		zap.String("storage", a.cfg.Storage.Driver),
		zap.Strings("degraded", a.deps.Degraded()),
	)
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting requests, then waits for pending notifications
// before closing backend connections.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	if err := a.deps.Close(ctx); err != nil && shutdownErr == nil {
		shutdownErr = err
	}

	return shutdownErr
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}
