package profiles

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/babymaxMAX/lsj-love/internal/domain/model"
)

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("profile not found")
	ErrNoPhoto    = errors.New("photo not found")
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
	photoURLTTL      = time.Hour
)

type Store interface {
	Get(ctx context.Context, telegramID int64) (model.Profile, error)
	GetMany(ctx context.Context, ids []int64) ([]model.Profile, error)
	List(ctx context.Context, page model.Page) ([]model.Profile, int64, error)
	Create(ctx context.Context, p model.Profile) error
	UpdatePhotos(ctx context.Context, telegramID int64, photo string, photos []string) error
	TouchLastSeen(ctx context.Context, telegramID int64, at time.Time) error
}

type SlotPurger interface {
	PurgeSlot(ctx context.Context, slot model.PhotoSlot) error
}

type ObjectStorage interface {
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

type FileResolver interface {
	FileURL(ctx context.Context, fileID string) (string, error)
}

type Service struct {
	store   Store
	purger  SlotPurger
	storage ObjectStorage
	files   FileResolver
	logger  *zap.Logger
	now     func() time.Time
}

type TelegramUser struct {
	ID         int64
	Username   string
	Name       string
	ReferredBy int64
}

func NewService(store Store, purger SlotPurger, storage ObjectStorage, files FileResolver, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:   store,
		purger:  purger,
		storage: storage,
		files:   files,
		logger:  logger,
		now:     time.Now,
	}
}

func (s *Service) Get(ctx context.Context, userID int64) (model.Profile, error) {
	if userID <= 0 {
		return model.Profile{}, fmt.Errorf("invalid user id: %w", ErrValidation)
	}
	if s.store == nil {
		return model.Profile{}, fmt.Errorf("profile store is nil")
	}

	p, err := s.store.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, model.ErrProfileNotFound) {
			return model.Profile{}, ErrNotFound
		}
		return model.Profile{}, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

// List clamps the page to [1, 100] items and a non-negative offset.
func (s *Service) List(ctx context.Context, page model.Page) ([]model.Profile, int64, model.Page, error) {
	if page.Limit <= 0 {
		page.Limit = defaultPageLimit
	}
	if page.Limit > maxPageLimit {
		page.Limit = maxPageLimit
	}
	if page.Offset < 0 {
		page.Offset = 0
	}

	items, total, err := s.store.List(ctx, page)
	if err != nil {
		return nil, 0, page, fmt.Errorf("list profiles: %w", err)
	}
	return items, total, page, nil
}

// GetMany returns the profiles for ids in the order of ids. Unknown ids are skipped.
func (s *Service) GetMany(ctx context.Context, ids []int64) ([]model.Profile, error) {
	if len(ids) == 0 {
		return []model.Profile{}, nil
	}

	found, err := s.store.GetMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("get profiles: %w", err)
	}

	byID := make(map[int64]model.Profile, len(found))
	for _, p := range found {
		byID[p.TelegramID] = p
	}

	out := make([]model.Profile, 0, len(found))
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		p, ok := byID[id]
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, p)
	}
	return out, nil
}

// EnsureFromTelegram creates an inactive profile on first contact with the bot.
// A referrer is recorded only when it exists and differs from the user.
func (s *Service) EnsureFromTelegram(ctx context.Context, u TelegramUser) (model.Profile, bool, error) {
	if u.ID <= 0 {
		return model.Profile{}, false, fmt.Errorf("invalid telegram id: %w", ErrValidation)
	}

	existing, err := s.store.Get(ctx, u.ID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, model.ErrProfileNotFound) {
		return model.Profile{}, false, fmt.Errorf("get profile: %w", err)
	}

	p := model.Profile{
		TelegramID:     u.ID,
		Username:       strings.TrimSpace(u.Username),
		Name:           strings.TrimSpace(u.Name),
		Photos:         []string{},
		ProfileAnswers: map[string]string{},
		CreatedAt:      s.now().UTC(),
	}
	if u.ReferredBy > 0 && u.ReferredBy != u.ID {
		if _, err := s.store.Get(ctx, u.ReferredBy); err == nil {
			referrer := u.ReferredBy
			p.ReferredBy = &referrer
		}
	}

	if err := s.store.Create(ctx, p); err != nil {
		if errors.Is(err, model.ErrProfileExists) {
			existing, getErr := s.store.Get(ctx, u.ID)
			if getErr != nil {
				return model.Profile{}, false, fmt.Errorf("reload profile: %w", getErr)
			}
			return existing, false, nil
		}
		return model.Profile{}, false, fmt.Errorf("create profile: %w", err)
	}
	return p, true, nil
}

func (s *Service) Touch(ctx context.Context, userID int64) error {
	if userID <= 0 {
		return fmt.Errorf("invalid user id: %w", ErrValidation)
	}
	if err := s.store.TouchLastSeen(ctx, userID, s.now().UTC()); err != nil {
		if errors.Is(err, model.ErrProfileNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("touch profile: %w", err)
	}
	return nil
}

// SetPhoto writes key into slot index, replacing the slot or appending right after the last one.
func (s *Service) SetPhoto(ctx context.Context, ownerID int64, index int, key string) error {
	key = strings.TrimSpace(key)
	if key == "" || index < 0 || index >= model.MaxPhotos {
		return ErrValidation
	}

	p, err := s.Get(ctx, ownerID)
	if err != nil {
		return err
	}

	photos := append([]string(nil), p.Photos...)
	var replaced string
	switch {
	case index < len(photos):
		replaced = photos[index]
		photos[index] = key
	case index == len(photos):
		photos = append(photos, key)
	default:
		return fmt.Errorf("slot %d is past the end: %w", index, ErrValidation)
	}

	if err := s.savePhotos(ctx, p, photos); err != nil {
		return err
	}

	if replaced != "" {
		s.purge(ctx, ownerID, index)
		if replaced != key {
			s.deleteObject(ctx, replaced)
		}
	}
	return nil
}

// RemovePhoto drops slot index. Later slots shift left, so their interactions are purged too.
func (s *Service) RemovePhoto(ctx context.Context, ownerID int64, index int) error {
	p, err := s.Get(ctx, ownerID)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(p.Photos) {
		return ErrNoPhoto
	}

	removed := p.Photos[index]
	photos := make([]string, 0, len(p.Photos)-1)
	photos = append(photos, p.Photos[:index]...)
	photos = append(photos, p.Photos[index+1:]...)

	if err := s.savePhotos(ctx, p, photos); err != nil {
		return err
	}

	for i := index; i < len(p.Photos); i++ {
		s.purge(ctx, ownerID, i)
	}
	s.deleteObject(ctx, removed)
	return nil
}

func (s *Service) savePhotos(ctx context.Context, p model.Profile, photos []string) error {
	p.Photos = photos
	p.SyncPrimaryPhoto()
	if err := s.store.UpdatePhotos(ctx, p.TelegramID, p.Photo, p.Photos); err != nil {
		if errors.Is(err, model.ErrProfileNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("update photos: %w", err)
	}
	return nil
}

func (s *Service) purge(ctx context.Context, ownerID int64, index int) {
	if s.purger == nil {
		return
	}
	if err := s.purger.PurgeSlot(ctx, model.PhotoSlot{OwnerID: ownerID, PhotoIndex: index}); err != nil {
		s.logger.Warn("purge photo interactions failed",
			zap.Int64("owner_id", ownerID),
			zap.Int("photo_index", index),
			zap.Error(err),
		)
	}
}

func (s *Service) deleteObject(ctx context.Context, ref string) {
	if s.storage == nil || refKind(ref) != refStorageKey {
		return
	}
	if err := s.storage.Delete(ctx, ref); err != nil {
		s.logger.Warn("delete replaced photo object failed", zap.String("key", ref), zap.Error(err))
	}
}

// PhotoURL resolves a redirect target for the primary photo (index < 0) or a slot.
func (s *Service) PhotoURL(ctx context.Context, ownerID int64, index int) (string, error) {
	p, err := s.Get(ctx, ownerID)
	if err != nil {
		return "", err
	}

	var ref string
	switch {
	case index < 0:
		ref = p.PrimaryPhoto()
	case index < len(p.Photos):
		ref = p.Photos[index]
	}
	if ref == "" {
		return "", ErrNoPhoto
	}
	return s.ResolveRef(ctx, ref)
}

// ResolveRef turns a stored photo reference into a URL: presigned for storage keys,
// a Telegram file link for file ids, unchanged for absolute URLs.
func (s *Service) ResolveRef(ctx context.Context, ref string) (string, error) {
	switch refKind(ref) {
	case refURL:
		return ref, nil
	case refStorageKey:
		if s.storage == nil {
			return "", fmt.Errorf("object storage is not configured")
		}
		url, err := s.storage.PresignGet(ctx, ref, photoURLTTL)
		if err != nil {
			return "", fmt.Errorf("presign photo: %w", err)
		}
		return url, nil
	default:
		if s.files == nil {
			return "", fmt.Errorf("telegram file resolver is not configured")
		}
		url, err := s.files.FileURL(ctx, ref)
		if err != nil {
			return "", fmt.Errorf("resolve telegram file: %w", err)
		}
		return url, nil
	}
}

type photoRef int

const (
	refFileID photoRef = iota
	refURL
	refStorageKey
)

// refKind classifies a stored photo reference. Storage keys always carry an extension,
// Telegram file ids never contain a dot.
func refKind(ref string) photoRef {
	switch {
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return refURL
	case strings.Contains(ref, "."):
		return refStorageKey
	default:
		return refFileID
	}
}
