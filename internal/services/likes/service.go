package likes

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/babymaxMAX/lsj-love/internal/domain/model"
	"github.com/babymaxMAX/lsj-love/internal/domain/rules"
	ratesvc "github.com/babymaxMAX/lsj-love/internal/services/rate"
)

var (
	ErrValidation   = errors.New("validation error")
	ErrNotFound     = errors.New("profile not found")
	ErrNoSuperlikes = errors.New("no superlike credits")
	ErrDailyLimit   = errors.New("daily likes limit reached")
)

// DailyLimitError carries the limit that was hit so the caller can render it.
type DailyLimitError struct {
	Limit int
}

func (e DailyLimitError) Error() string {
	return fmt.Sprintf("daily likes limit reached (%d)", e.Limit)
}

func (e DailyLimitError) Is(target error) bool {
	return target == ErrDailyLimit
}

type TooFastError struct {
	RetryAfterSec int64
}

func (e TooFastError) Error() string {
	return "too fast"
}

func (e TooFastError) RetryAfter() int64 {
	if e.RetryAfterSec <= 0 {
		return 1
	}
	return e.RetryAfterSec
}

func IsTooFast(err error) (*TooFastError, bool) {
	var tf TooFastError
	if errors.As(err, &tf) {
		return &tf, true
	}
	return nil, false
}

type ProfileStore interface {
	Get(ctx context.Context, telegramID int64) (model.Profile, error)
	ConsumeSuperlike(ctx context.Context, telegramID int64) (bool, error)
}

type LikeStore interface {
	Create(ctx context.Context, fromUser, toUser int64, at time.Time) (model.Like, bool, error)
	Delete(ctx context.Context, fromUser, toUser int64) (bool, error)
	Exists(ctx context.Context, fromUser, toUser int64) (bool, error)
	LikedFrom(ctx context.Context, userID int64) ([]int64, error)
	LikedBy(ctx context.Context, userID int64) ([]int64, error)
	CountSince(ctx context.Context, fromUser int64, since time.Time) (int, error)
}

type Notifier interface {
	Liked(ctx context.Context, to int64) error
	Superliked(ctx context.Context, to int64, from model.Profile) error
	Matched(ctx context.Context, to int64, with model.Profile) error
}

type RateLimiter interface {
	Allow(ctx context.Context, action string, userID int64) (int64, bool, error)
}

type Config struct {
	FreeLikesPerDay int
	NotifyTimeout   time.Duration
}

type Service struct {
	profiles ProfileStore
	likes    LikeStore
	notifier Notifier
	limiter  RateLimiter
	cfg      Config
	logger   *zap.Logger
	now      func() time.Time

	tasks sync.WaitGroup
}

type CreateInput struct {
	FromUser  int64
	ToUser    int64
	Superlike bool
}

type Result struct {
	Like    model.Like
	Created bool
	IsMatch bool
	// LikesLeft is -1 for users without a daily cap.
	LikesLeft int
	ResetAt   time.Time
}

func NewService(profiles ProfileStore, likes LikeStore, notifier Notifier, limiter RateLimiter, cfg Config, logger *zap.Logger) *Service {
	if cfg.FreeLikesPerDay <= 0 {
		cfg.FreeLikesPerDay = rules.DefaultFreeLikesPerDay
	}
	if cfg.NotifyTimeout <= 0 {
		cfg.NotifyTimeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		profiles: profiles,
		likes:    likes,
		notifier: notifier,
		limiter:  limiter,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *Service) DailyLimit() int {
	return s.cfg.FreeLikesPerDay
}

// Create records a like. Repeating an existing like is a no-op that sends nothing.
func (s *Service) Create(ctx context.Context, in CreateInput) (Result, error) {
	if in.FromUser <= 0 || in.ToUser <= 0 || in.FromUser == in.ToUser {
		return Result{}, ErrValidation
	}

	from, err := s.profile(ctx, in.FromUser)
	if err != nil {
		return Result{}, err
	}
	if _, err := s.profile(ctx, in.ToUser); err != nil {
		return Result{}, err
	}

	if s.limiter != nil {
		retryAfter, allowed, err := s.limiter.Allow(ctx, ratesvc.ActionLike, in.FromUser)
		if err != nil {
			s.logger.Warn("like rate limiter failed", zap.Int64("user_id", in.FromUser), zap.Error(err))
		} else if !allowed {
			return Result{}, TooFastError{RetryAfterSec: retryAfter}
		}
	}

	now := s.now().UTC()
	resetAt := rules.NextResetAt(now, time.UTC)
	capped := !rules.IsPremiumActive(from, now) && !in.Superlike

	likesLeft := -1
	if capped {
		used, err := s.likes.CountSince(ctx, in.FromUser, rules.StartOfDay(now, time.UTC))
		if err != nil {
			return Result{}, fmt.Errorf("count today likes: %w", err)
		}
		if used >= s.cfg.FreeLikesPerDay {
			return Result{}, DailyLimitError{Limit: s.cfg.FreeLikesPerDay}
		}
		likesLeft = s.cfg.FreeLikesPerDay - used
	}

	if in.Superlike {
		if from.SuperlikeCredits <= 0 {
			return Result{}, ErrNoSuperlikes
		}
		exists, err := s.likes.Exists(ctx, in.FromUser, in.ToUser)
		if err != nil {
			return Result{}, fmt.Errorf("check like: %w", err)
		}
		if !exists {
			consumed, err := s.profiles.ConsumeSuperlike(ctx, in.FromUser)
			if err != nil {
				return Result{}, fmt.Errorf("consume superlike: %w", err)
			}
			if !consumed {
				return Result{}, ErrNoSuperlikes
			}
		}
	}

	like, created, err := s.likes.Create(ctx, in.FromUser, in.ToUser, now)
	if err != nil {
		return Result{}, fmt.Errorf("create like: %w", err)
	}
	if created && capped {
		likesLeft--
	}

	isMatch, err := s.likes.Exists(ctx, in.ToUser, in.FromUser)
	if err != nil {
		return Result{}, fmt.Errorf("check reverse like: %w", err)
	}

	if created {
		s.notifyAfterLike(in.FromUser, in.ToUser, in.Superlike, isMatch)
	}

	return Result{
		Like:      like,
		Created:   created,
		IsMatch:   isMatch,
		LikesLeft: likesLeft,
		ResetAt:   resetAt,
	}, nil
}

func (s *Service) Delete(ctx context.Context, fromUser, toUser int64) error {
	if fromUser <= 0 || toUser <= 0 {
		return ErrValidation
	}
	deleted, err := s.likes.Delete(ctx, fromUser, toUser)
	if err != nil {
		return fmt.Errorf("delete like: %w", err)
	}
	if !deleted {
		return model.ErrLikeNotFound
	}
	return nil
}

func (s *Service) Exists(ctx context.Context, fromUser, toUser int64) (bool, error) {
	if fromUser <= 0 || toUser <= 0 {
		return false, ErrValidation
	}
	exists, err := s.likes.Exists(ctx, fromUser, toUser)
	if err != nil {
		return false, fmt.Errorf("check like: %w", err)
	}
	return exists, nil
}

func (s *Service) IsMatch(ctx context.Context, a, b int64) (bool, error) {
	forward, err := s.Exists(ctx, a, b)
	if err != nil || !forward {
		return false, err
	}
	return s.Exists(ctx, b, a)
}

// LikedFrom lists users that userID liked, newest first.
func (s *Service) LikedFrom(ctx context.Context, userID int64) ([]int64, error) {
	if userID <= 0 {
		return nil, ErrValidation
	}
	ids, err := s.likes.LikedFrom(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list liked from: %w", err)
	}
	return ids, nil
}

// LikedBy lists users that liked userID, newest first.
func (s *Service) LikedBy(ctx context.Context, userID int64) ([]int64, error) {
	if userID <= 0 {
		return nil, ErrValidation
	}
	ids, err := s.likes.LikedBy(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list liked by: %w", err)
	}
	return ids, nil
}

// Wait blocks until background notifications started so far have finished.
func (s *Service) Wait() {
	s.tasks.Wait()
}

func (s *Service) profile(ctx context.Context, id int64) (model.Profile, error) {
	p, err := s.profiles.Get(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrProfileNotFound) {
			return model.Profile{}, ErrNotFound
		}
		return model.Profile{}, fmt.Errorf("get profile %d: %w", id, err)
	}
	return p, nil
}

// notifyAfterLike runs detached from the request so a slow Bot API never delays the response.
func (s *Service) notifyAfterLike(fromUser, toUser int64, superlike, isMatch bool) {
	if s.notifier == nil {
		return
	}

	taskID := uuid.NewString()
	logger := s.logger.With(
		zap.String("task_id", taskID),
		zap.Int64("from_user", fromUser),
		zap.Int64("to_user", toUser),
	)

	s.tasks.Add(1)
	go func() {
		defer s.tasks.Done()

		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.NotifyTimeout)
		defer cancel()

		if err := s.sendLikeNotifications(ctx, fromUser, toUser, superlike, isMatch); err != nil {
			logger.Warn("like notification failed", zap.Error(err))
			return
		}
		logger.Debug("like notification sent")
	}()
}

func (s *Service) sendLikeNotifications(ctx context.Context, fromUser, toUser int64, superlike, isMatch bool) error {
	from, err := s.profiles.Get(ctx, fromUser)
	if err != nil {
		return fmt.Errorf("load sender: %w", err)
	}

	switch {
	case isMatch:
		to, err := s.profiles.Get(ctx, toUser)
		if err != nil {
			return fmt.Errorf("load recipient: %w", err)
		}
		return errors.Join(
			s.notifier.Matched(ctx, toUser, from),
			s.notifier.Matched(ctx, fromUser, to),
		)
	case superlike:
		return s.notifier.Superliked(ctx, toUser, from)
	default:
		return s.notifier.Liked(ctx, toUser)
	}
}
