package handlers

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/babymaxMAX/lsj-love/internal/domain/model"
	candidatesvc "github.com/babymaxMAX/lsj-love/internal/services/candidates"
	mediasvc "github.com/babymaxMAX/lsj-love/internal/services/media"
	profilesvc "github.com/babymaxMAX/lsj-love/internal/services/profiles"
	"github.com/babymaxMAX/lsj-love/internal/transport/http/dto"
	httperrors "github.com/babymaxMAX/lsj-love/internal/transport/http/errors"
)

const defaultUsersPageLimit = 20

type ProfileService interface {
	Get(ctx context.Context, userID int64) (model.Profile, error)
	List(ctx context.Context, page model.Page) ([]model.Profile, int64, model.Page, error)
	GetMany(ctx context.Context, ids []int64) ([]model.Profile, error)
	Touch(ctx context.Context, userID int64) error
	PhotoURL(ctx context.Context, ownerID int64, index int) (string, error)
	RemovePhoto(ctx context.Context, ownerID int64, index int) error
}

type CandidateSelector interface {
	Select(ctx context.Context, requesterID int64, excludeIDs []int64) ([]model.Profile, error)
}

type LikeLister interface {
	LikedFrom(ctx context.Context, userID int64) ([]int64, error)
	LikedBy(ctx context.Context, userID int64) ([]int64, error)
}

type PhotoUploader interface {
	UploadPhoto(ctx context.Context, in mediasvc.UploadInput) (mediasvc.Photo, error)
}

type UsersHandler struct {
	profiles  ProfileService
	selector  CandidateSelector
	likes     LikeLister
	media     PhotoUploader
	projector *Projector
	logger    *zap.Logger
}

func NewUsersHandler(profiles ProfileService, selector CandidateSelector, likes LikeLister, media PhotoUploader, projector *Projector, logger *zap.Logger) *UsersHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UsersHandler{
		profiles:  profiles,
		selector:  selector,
		likes:     likes,
		media:     media,
		projector: projector,
		logger:    logger,
	}
}

func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	items, total, page, err := h.profiles.List(r.Context(), model.Page{
		Limit:  parseIntOrDefault(query.Get("limit"), defaultUsersPageLimit),
		Offset: parseIntOrDefault(query.Get("offset"), 0),
	})
	if err != nil {
		h.logger.Error("list profiles failed", zap.Error(err))
		writeBadRequest(w, "LIST_FAILED", "failed to list users")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.ProfilesPageResponse{
		Count:  total,
		Limit:  page.Limit,
		Offset: page.Offset,
		Items:  h.projector.Profiles(items),
	})
}

func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := idParam(r, "user_id")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid user id")
		return
	}

	profile, err := h.profiles.Get(r.Context(), userID)
	if err != nil {
		h.writeProfileError(w, err)
		return
	}
	httperrors.Write(w, http.StatusOK, h.projector.Profile(profile))
}

// BestResult returns discovery candidates, skipping profiles the user already liked.
func (h *UsersHandler) BestResult(w http.ResponseWriter, r *http.Request) {
	userID, ok := idParam(r, "user_id")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid user id")
		return
	}

	liked, err := h.likes.LikedFrom(r.Context(), userID)
	if err != nil {
		h.logger.Error("load liked ids failed", zap.Int64("user_id", userID), zap.Error(err))
		writeBadRequest(w, "LIKES_UNAVAILABLE", "failed to load likes")
		return
	}

	items, err := h.selector.Select(r.Context(), userID, liked)
	if err != nil {
		if errors.Is(err, candidatesvc.ErrNotFound) {
			writeBadRequest(w, "USER_NOT_FOUND", "user not found")
			return
		}
		h.logger.Error("select candidates failed", zap.Int64("user_id", userID), zap.Error(err))
		writeBadRequest(w, "SELECTION_FAILED", "failed to select candidates")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.ProfilesResponse{Items: h.projector.Profiles(items)})
}

func (h *UsersHandler) LikedFrom(w http.ResponseWriter, r *http.Request) {
	h.likedList(w, r, h.likes.LikedFrom)
}

func (h *UsersHandler) LikedBy(w http.ResponseWriter, r *http.Request) {
	h.likedList(w, r, h.likes.LikedBy)
}

func (h *UsersHandler) likedList(w http.ResponseWriter, r *http.Request, load func(context.Context, int64) ([]int64, error)) {
	userID, ok := idParam(r, "user_id")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid user id")
		return
	}

	ids, err := load(r.Context(), userID)
	if err != nil {
		h.logger.Error("load like ids failed", zap.Int64("user_id", userID), zap.Error(err))
		writeBadRequest(w, "LIKES_UNAVAILABLE", "failed to load likes")
		return
	}
	items, err := h.profiles.GetMany(r.Context(), ids)
	if err != nil {
		h.logger.Error("load liked profiles failed", zap.Int64("user_id", userID), zap.Error(err))
		writeBadRequest(w, "PROFILES_UNAVAILABLE", "failed to load profiles")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.ProfilesResponse{Items: h.projector.Profiles(items)})
}

func (h *UsersHandler) PrimaryPhoto(w http.ResponseWriter, r *http.Request) {
	userID, ok := idParam(r, "user_id")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid user id")
		return
	}
	h.redirectPhoto(w, r, userID, -1)
}

func (h *UsersHandler) SlotPhoto(w http.ResponseWriter, r *http.Request) {
	userID, ok := idParam(r, "user_id")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid user id")
		return
	}
	index, ok := indexParam(r, "index")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid photo index")
		return
	}
	h.redirectPhoto(w, r, userID, index)
}

func (h *UsersHandler) redirectPhoto(w http.ResponseWriter, r *http.Request, userID int64, index int) {
	url, err := h.profiles.PhotoURL(r.Context(), userID, index)
	if err != nil {
		switch {
		case errors.Is(err, profilesvc.ErrNotFound):
			writeNotFound(w, "USER_NOT_FOUND", "user not found")
		case errors.Is(err, profilesvc.ErrNoPhoto):
			writeNotFound(w, "PHOTO_NOT_FOUND", "no photo")
		default:
			h.logger.Warn("resolve photo url failed",
				zap.Int64("user_id", userID),
				zap.Int("index", index),
				zap.Error(err),
			)
			writeError(w, http.StatusServiceUnavailable, "PHOTO_UNAVAILABLE", "photo provider error")
		}
		return
	}
	http.Redirect(w, r, url, http.StatusFound)
}

// UploadPhoto stores a multipart "file" into the slot at {index}.
func (h *UsersHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	userID, ok := idParam(r, "user_id")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid user id")
		return
	}
	index, ok := indexParam(r, "index")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid photo index")
		return
	}
	if h.media == nil {
		writeError(w, http.StatusServiceUnavailable, "MEDIA_SERVICE_UNAVAILABLE", "media storage is unavailable")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, mediasvc.MaxUploadBytes)
	if err := r.ParseMultipartForm(mediasvc.MaxUploadBytes); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "file is required")
		return
	}
	defer file.Close()

	if header == nil || header.Size <= 0 {
		writeBadRequest(w, "VALIDATION_ERROR", "file is empty")
		return
	}

	photo, err := h.media.UploadPhoto(r.Context(), mediasvc.UploadInput{
		OwnerID:     userID,
		Index:       index,
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        file,
		Size:        header.Size,
	})
	if err != nil {
		switch {
		case errors.Is(err, mediasvc.ErrUnsupported):
			writeError(w, http.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA", "unsupported media type")
		case errors.Is(err, mediasvc.ErrValidation), errors.Is(err, profilesvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid photo slot")
		case errors.Is(err, profilesvc.ErrNotFound):
			writeNotFound(w, "USER_NOT_FOUND", "user not found")
		default:
			h.logger.Error("upload photo failed", zap.Int64("user_id", userID), zap.Int("index", index), zap.Error(err))
			writeInternal(w, "INTERNAL_ERROR", "media operation failed")
		}
		return
	}

	httperrors.Write(w, http.StatusOK, dto.PhotoUploadResponse{
		Index: photo.Index,
		URL:   h.projector.photoPath(userID, photo.Index),
		Kind:  photo.Kind,
	})
}

func (h *UsersHandler) DeletePhoto(w http.ResponseWriter, r *http.Request) {
	userID, ok := idParam(r, "user_id")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid user id")
		return
	}
	index, ok := indexParam(r, "index")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid photo index")
		return
	}

	if err := h.profiles.RemovePhoto(r.Context(), userID, index); err != nil {
		switch {
		case errors.Is(err, profilesvc.ErrNotFound):
			writeNotFound(w, "USER_NOT_FOUND", "user not found")
		case errors.Is(err, profilesvc.ErrNoPhoto), errors.Is(err, profilesvc.ErrValidation):
			writeNotFound(w, "PHOTO_NOT_FOUND", "no photo")
		default:
			h.logger.Error("remove photo failed", zap.Int64("user_id", userID), zap.Int("index", index), zap.Error(err))
			writeInternal(w, "INTERNAL_ERROR", "media operation failed")
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *UsersHandler) Ping(w http.ResponseWriter, r *http.Request) {
	userID, ok := idParam(r, "user_id")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid user id")
		return
	}
	if err := h.profiles.Touch(r.Context(), userID); err != nil {
		h.writeProfileError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *UsersHandler) writeProfileError(w http.ResponseWriter, err error) {
	if errors.Is(err, profilesvc.ErrNotFound) {
		writeBadRequest(w, "USER_NOT_FOUND", "user not found")
		return
	}
	h.logger.Error("profile request failed", zap.Error(err))
	writeInternal(w, "INTERNAL_ERROR", "failed to load user")
}
