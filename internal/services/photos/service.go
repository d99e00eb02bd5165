package photos

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/babymaxMAX/lsj-love/internal/domain/model"
	"github.com/babymaxMAX/lsj-love/internal/domain/rules"
)

var ErrValidation = errors.New("validation error")

const (
	MaxCommentRunes = 300
	CommentsLimit   = 20
	defaultAuthor   = "Пользователь"
	hiddenActor     = "Кто-то"
)

type Store interface {
	ToggleLike(ctx context.Context, slot model.PhotoSlot, fromUser int64, at time.Time) (bool, error)
	LikesInfo(ctx context.Context, slot model.PhotoSlot, viewerID int64) (model.PhotoLikesInfo, error)
	AddComment(ctx context.Context, c model.PhotoComment) error
	ListComments(ctx context.Context, slot model.PhotoSlot, limit int) ([]model.PhotoComment, error)
	PurgeSlot(ctx context.Context, slot model.PhotoSlot) error
}

type ProfileReader interface {
	Get(ctx context.Context, telegramID int64) (model.Profile, error)
}

type Notifier interface {
	PhotoLiked(ctx context.Context, owner int64, likerName string, index int) error
	PhotoCommented(ctx context.Context, owner int64, authorName string, index int, comment string) error
}

type Service struct {
	store         Store
	profiles      ProfileReader
	notifier      Notifier
	logger        *zap.Logger
	now           func() time.Time
	notifyTimeout time.Duration

	tasks sync.WaitGroup
}

type ToggleResult struct {
	Liked     bool
	Count     int
	LikedByMe bool
}

func NewService(store Store, profiles ProfileReader, notifier Notifier, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:         store,
		profiles:      profiles,
		notifier:      notifier,
		logger:        logger,
		now:           time.Now,
		notifyTimeout: 10 * time.Second,
	}
}

func validSlot(slot model.PhotoSlot) bool {
	return slot.OwnerID > 0 && slot.PhotoIndex >= 0 && slot.PhotoIndex < model.MaxPhotos
}

func (s *Service) ToggleLike(ctx context.Context, slot model.PhotoSlot, fromUser int64) (ToggleResult, error) {
	if !validSlot(slot) || fromUser <= 0 {
		return ToggleResult{}, ErrValidation
	}

	liked, err := s.store.ToggleLike(ctx, slot, fromUser, s.now().UTC())
	if err != nil {
		return ToggleResult{}, fmt.Errorf("toggle photo like: %w", err)
	}
	info, err := s.store.LikesInfo(ctx, slot, fromUser)
	if err != nil {
		return ToggleResult{}, fmt.Errorf("photo likes info: %w", err)
	}

	if liked && fromUser != slot.OwnerID {
		s.notify("photo_like", func(ctx context.Context) error {
			name, err := s.actorName(ctx, slot.OwnerID, fromUser)
			if err != nil {
				return err
			}
			return s.notifier.PhotoLiked(ctx, slot.OwnerID, name, slot.PhotoIndex)
		})
	}

	return ToggleResult{Liked: liked, Count: info.Count, LikedByMe: info.LikedByMe}, nil
}

func (s *Service) Info(ctx context.Context, slot model.PhotoSlot, viewerID int64) (model.PhotoLikesInfo, error) {
	if !validSlot(slot) {
		return model.PhotoLikesInfo{}, ErrValidation
	}
	info, err := s.store.LikesInfo(ctx, slot, viewerID)
	if err != nil {
		return model.PhotoLikesInfo{}, fmt.Errorf("photo likes info: %w", err)
	}
	return info, nil
}

// AddComment stores a trimmed comment of at most MaxCommentRunes runes.
func (s *Service) AddComment(ctx context.Context, slot model.PhotoSlot, fromUser int64, text string) (model.PhotoComment, error) {
	text = strings.TrimSpace(text)
	if !validSlot(slot) || fromUser <= 0 || text == "" {
		return model.PhotoComment{}, ErrValidation
	}
	if utf8.RuneCountInString(text) > MaxCommentRunes {
		text = strings.TrimSpace(string([]rune(text)[:MaxCommentRunes]))
	}

	comment := model.PhotoComment{
		ID:        uuid.NewString(),
		PhotoSlot: slot,
		FromUser:  fromUser,
		FromName:  s.authorName(ctx, fromUser),
		Text:      text,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.AddComment(ctx, comment); err != nil {
		return model.PhotoComment{}, fmt.Errorf("add photo comment: %w", err)
	}

	if fromUser != slot.OwnerID {
		s.notify("photo_comment", func(ctx context.Context) error {
			name, err := s.actorName(ctx, slot.OwnerID, fromUser)
			if err != nil {
				return err
			}
			return s.notifier.PhotoCommented(ctx, slot.OwnerID, name, slot.PhotoIndex, comment.Text)
		})
	}

	return comment, nil
}

// Comments returns the latest CommentsLimit comments oldest first.
func (s *Service) Comments(ctx context.Context, slot model.PhotoSlot) ([]model.PhotoComment, error) {
	if !validSlot(slot) {
		return nil, ErrValidation
	}
	items, err := s.store.ListComments(ctx, slot, CommentsLimit)
	if err != nil {
		return nil, fmt.Errorf("list photo comments: %w", err)
	}
	return items, nil
}

func (s *Service) PurgeSlot(ctx context.Context, slot model.PhotoSlot) error {
	if err := s.store.PurgeSlot(ctx, slot); err != nil {
		return fmt.Errorf("purge photo slot: %w", err)
	}
	return nil
}

func (s *Service) Wait() {
	s.tasks.Wait()
}

func (s *Service) authorName(ctx context.Context, userID int64) string {
	if s.profiles == nil {
		return defaultAuthor
	}
	p, err := s.profiles.Get(ctx, userID)
	if err != nil || strings.TrimSpace(p.Name) == "" {
		return defaultAuthor
	}
	return strings.TrimSpace(p.Name)
}

// actorName reveals who acted only to owners with an active premium.
func (s *Service) actorName(ctx context.Context, ownerID, actorID int64) (string, error) {
	owner, err := s.profiles.Get(ctx, ownerID)
	if err != nil {
		return "", fmt.Errorf("load photo owner: %w", err)
	}
	if !rules.IsPremiumActive(owner, s.now()) {
		return hiddenActor, nil
	}
	return s.authorName(ctx, actorID), nil
}

func (s *Service) notify(kind string, send func(context.Context) error) {
	if s.notifier == nil || s.profiles == nil {
		return
	}

	logger := s.logger.With(zap.String("task_id", uuid.NewString()), zap.String("kind", kind))
	s.tasks.Add(1)
	go func() {
		defer s.tasks.Done()

		ctx, cancel := context.WithTimeout(context.Background(), s.notifyTimeout)
		defer cancel()

		if err := send(ctx); err != nil {
			logger.Warn("photo notification failed", zap.Error(err))
		}
	}()
}
