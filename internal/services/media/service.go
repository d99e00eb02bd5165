package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/babymaxMAX/lsj-love/internal/domain/enums"
	"github.com/babymaxMAX/lsj-love/internal/domain/model"
)

var (
	ErrValidation     = errors.New("validation error")
	ErrUnsupported    = errors.New("unsupported media type")
	ErrObjectNotFound = errors.New("object not found")
	ErrObjectTooLarge = errors.New("object too large")
)

const (
	signedURLTTL   = 7 * 24 * time.Hour
	maxFetchBytes  = 10 << 20
	MaxUploadBytes = 20 << 20
)

type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	PutPhoto(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

// SlotWriter records a stored object in a profile photo slot.
type SlotWriter interface {
	SetPhoto(ctx context.Context, ownerID int64, index int, key string) error
}

type Service struct {
	slots   SlotWriter
	storage ObjectStorage
	logger  *zap.Logger
}

type Photo struct {
	Index int
	Key   string
	URL   string
	Kind  string
}

type UploadInput struct {
	OwnerID     int64
	Index       int
	FileName    string
	ContentType string
	Body        io.Reader
	Size        int64
}

func NewService(slots SlotWriter, storage ObjectStorage, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		slots:   slots,
		storage: storage,
		logger:  logger,
	}
}

// UploadPhoto stores the object under `{owner}_{index}{ext}` and points the slot at it.
func (s *Service) UploadPhoto(ctx context.Context, in UploadInput) (Photo, error) {
	if in.OwnerID <= 0 || in.Body == nil || in.Size <= 0 || in.Size > MaxUploadBytes {
		return Photo{}, ErrValidation
	}
	if in.Index < 0 || in.Index >= model.MaxPhotos {
		return Photo{}, ErrValidation
	}
	if s.slots == nil || s.storage == nil {
		return Photo{}, fmt.Errorf("media dependencies are not configured")
	}

	contentType, ext, err := resolveType(in.ContentType, in.FileName)
	if err != nil {
		return Photo{}, err
	}

	if err := s.storage.EnsureBucket(ctx); err != nil {
		return Photo{}, fmt.Errorf("ensure bucket: %w", err)
	}

	objectKey := ObjectKey(in.OwnerID, in.Index, ext)
	if err := s.storage.PutPhoto(ctx, objectKey, in.Body, in.Size, contentType); err != nil {
		return Photo{}, fmt.Errorf("put object: %w", err)
	}

	if err := s.slots.SetPhoto(ctx, in.OwnerID, in.Index, objectKey); err != nil {
		if delErr := s.storage.Delete(ctx, objectKey); delErr != nil {
			s.logger.Warn("rollback uploaded object failed", zap.String("key", objectKey), zap.Error(delErr))
		}
		return Photo{}, fmt.Errorf("set photo slot: %w", err)
	}

	url, err := s.storage.PresignGet(ctx, objectKey, signedURLTTL)
	if err != nil {
		return Photo{}, fmt.Errorf("presign photo url: %w", err)
	}

	return Photo{
		Index: in.Index,
		Key:   objectKey,
		URL:   url,
		Kind:  string(enums.MediaKindForKey(objectKey)),
	}, nil
}

func ObjectKey(ownerID int64, index int, ext string) string {
	return fmt.Sprintf("%d_%d%s", ownerID, index, ext)
}

func SignedURLTTL() time.Duration {
	return signedURLTTL
}

var allowedTypes = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/webp":      ".webp",
	"video/mp4":       ".mp4",
	"video/quicktime": ".mov",
	"video/webm":      ".webm",
}

var typesByExt = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
	".webm": "video/webm",
}

// resolveType trusts the declared content type and falls back to the file extension.
func resolveType(contentType, fileName string) (string, string, error) {
	mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(contentType))
	if err != nil || mediaType == "application/octet-stream" {
		mediaType = typesByExt[strings.ToLower(path.Ext(strings.TrimSpace(fileName)))]
	}
	ext, ok := allowedTypes[strings.ToLower(mediaType)]
	if !ok {
		return "", "", ErrUnsupported
	}
	return strings.ToLower(mediaType), ext, nil
}
