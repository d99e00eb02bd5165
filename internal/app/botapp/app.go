package botapp

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/babymaxMAX/lsj-love/internal/app/container"
	"github.com/babymaxMAX/lsj-love/internal/config"
	"github.com/babymaxMAX/lsj-love/internal/domain/model"
	tginfra "github.com/babymaxMAX/lsj-love/internal/infra/telegram"
	"github.com/babymaxMAX/lsj-love/internal/jobs/sweeper"
	mediasvc "github.com/babymaxMAX/lsj-love/internal/services/media"
	profilesvc "github.com/babymaxMAX/lsj-love/internal/services/profiles"
)

const (
	referralPrefix = "ref_"

	needUsernameText = "Сначала установи <b>username</b> в настройках Telegram, затем напиши /start снова."
	photoSavedText   = "📸 Фото сохранено как главное в анкете."
	photoFailedText  = "Не получилось сохранить фото, попробуй ещё раз чуть позже."
	helpText         = "Открой приложение, чтобы смотреть анкеты, или пришли фото, чтобы обновить главное фото профиля."
)

type Messenger interface {
	Listen(ctx context.Context, handlers tginfra.Handlers) error
	Send(ctx context.Context, m tginfra.Message) error
	DownloadFile(ctx context.Context, fileID string) (io.ReadCloser, int64, string, string, error)
}

type ProfileEnsurer interface {
	EnsureFromTelegram(ctx context.Context, u profilesvc.TelegramUser) (model.Profile, bool, error)
}

type PhotoUploader interface {
	UploadPhoto(ctx context.Context, in mediasvc.UploadInput) (mediasvc.Photo, error)
}

type Sweeper interface {
	Loop(ctx context.Context)
}

type App struct {
	cfg      config.Config
	logger   *zap.Logger
	deps     *container.Container
	bot      Messenger
	profiles ProfileEnsurer
	media    PhotoUploader
	sweeper  Sweeper
}

func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	deps, err := container.Build(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("build services: %w", err)
	}

	var bot Messenger
	if deps.Bot != nil {
		bot = deps.Bot
	} else {
		logger.Warn("BOT_TOKEN is empty, update listener disabled")
	}

	return &App{
		cfg:      cfg,
		logger:   logger,
		deps:     deps,
		bot:      bot,
		profiles: deps.Profiles,
		media:    deps.Media,
		sweeper:  sweeper.New(deps.Stores.Profiles, cfg.Bot.SweepInterval, logger),
	}, nil
}

// Run listens for updates and sweeps expired entitlements until ctx is done.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("bot app started")

	errCh := make(chan error, 1)
	if a.sweeper != nil {
		go a.sweeper.Loop(ctx)
	}
	if a.bot != nil {
		go func() {
			errCh <- a.bot.Listen(ctx, tginfra.Handlers{
				OnCommand: a.handleCommand,
				OnText:    a.handleText,
				OnPhoto:   a.handlePhoto,
			})
		}()
	}

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("bot app stopped")
			return nil
		case err := <-errCh:
			if err == nil || errors.Is(err, context.Canceled) {
				continue
			}
			return err
		}
	}
}

func (a *App) handleCommand(ctx context.Context, update tginfra.CommandUpdate) error {
	switch strings.ToLower(strings.TrimSpace(update.Command)) {
	case "start":
		return a.handleStart(ctx, update)
	default:
		return a.reply(ctx, update.ChatID, helpText)
	}
}

func (a *App) handleStart(ctx context.Context, update tginfra.CommandUpdate) error {
	profile, created, err := a.profiles.EnsureFromTelegram(ctx, profilesvc.TelegramUser{
		ID:         update.From.ID,
		Username:   update.From.Username,
		Name:       update.From.FirstName,
		ReferredBy: parseReferral(update.Args, update.From.ID),
	})
	if err != nil {
		// Handler errors stop the listener, so storage failures are only logged.
		a.logger.Error("ensure profile failed", zap.Int64("user_id", update.From.ID), zap.Error(err))
		return nil
	}
	if created {
		a.logger.Info("profile created from bot",
			zap.Int64("user_id", profile.TelegramID),
			zap.Bool("referred", profile.ReferredBy != nil),
		)
	}

	name := html.EscapeString(strings.TrimSpace(update.From.FirstName))
	switch {
	case strings.TrimSpace(update.From.Username) == "":
		return a.reply(ctx, update.ChatID, fmt.Sprintf("Привет, <b>%s</b>! 👋\n\n%s", name, needUsernameText))
	case profile.IsActive:
		return a.replyWithApp(ctx, update.ChatID, fmt.Sprintf("С возвращением, <b>%s</b>! 💫", name))
	default:
		return a.replyWithApp(ctx, update.ChatID, fmt.Sprintf("Привет, <b>%s</b>! 👋\nТы ещё не заполнил анкету. Давай сделаем это прямо сейчас!", name))
	}
}

func (a *App) handleText(ctx context.Context, update tginfra.TextUpdate) error {
	return a.reply(ctx, update.ChatID, helpText)
}

// handlePhoto stores a photo sent to the bot as the primary slot.
func (a *App) handlePhoto(ctx context.Context, update tginfra.PhotoUpdate) error {
	body, size, name, contentType, err := a.bot.DownloadFile(ctx, update.FileID)
	if err != nil {
		a.logger.Warn("download telegram photo failed", zap.Int64("user_id", update.From.ID), zap.Error(err))
		return a.reply(ctx, update.ChatID, photoFailedText)
	}
	defer body.Close()

	reader, size, err := sizedBody(body, size)
	if err != nil {
		a.logger.Warn("read telegram photo failed", zap.Int64("user_id", update.From.ID), zap.Error(err))
		return a.reply(ctx, update.ChatID, photoFailedText)
	}

	photo, err := a.media.UploadPhoto(ctx, mediasvc.UploadInput{
		OwnerID:     update.From.ID,
		Index:       0,
		FileName:    name,
		ContentType: contentType,
		Body:        reader,
		Size:        size,
	})
	if err != nil {
		a.logger.Warn("store telegram photo failed", zap.Int64("user_id", update.From.ID), zap.Error(err))
		return a.reply(ctx, update.ChatID, photoFailedText)
	}

	a.logger.Info("photo uploaded from bot", zap.Int64("user_id", update.From.ID), zap.String("key", photo.Key))
	return a.reply(ctx, update.ChatID, photoSavedText)
}

func (a *App) reply(ctx context.Context, chatID int64, text string) error {
	return a.send(ctx, tginfra.Message{ChatID: chatID, Text: text})
}

func (a *App) replyWithApp(ctx context.Context, chatID int64, text string) error {
	m := tginfra.Message{ChatID: chatID, Text: text}
	if url := strings.TrimSpace(a.cfg.Bot.WebAppURL); url != "" {
		m.Buttons = []tginfra.Button{{Text: "💘 Открыть приложение", URL: url}}
	}
	return a.send(ctx, m)
}

// send logs delivery failures instead of returning them: a blocked chat must
// not stop the update loop.
func (a *App) send(ctx context.Context, m tginfra.Message) error {
	if a.bot == nil {
		return nil
	}
	if err := a.bot.Send(ctx, m); err != nil {
		a.logger.Warn("telegram reply failed", zap.Int64("chat_id", m.ChatID), zap.Error(err))
	}
	return nil
}

// parseReferral extracts the referrer from a `/start ref_<id>` payload.
func parseReferral(args string, self int64) int64 {
	args = strings.TrimSpace(args)
	if !strings.HasPrefix(args, referralPrefix) {
		return 0
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(args, referralPrefix), 10, 64)
	if err != nil || id <= 0 || id == self {
		return 0
	}
	return id
}

func (a *App) Close(ctx context.Context) error {
	return a.deps.Close(ctx)
}
