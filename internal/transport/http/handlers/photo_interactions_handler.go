package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/babymaxMAX/lsj-love/internal/domain/model"
	photosvc "github.com/babymaxMAX/lsj-love/internal/services/photos"
	"github.com/babymaxMAX/lsj-love/internal/transport/http/dto"
	httperrors "github.com/babymaxMAX/lsj-love/internal/transport/http/errors"
)

type PhotoInteractions interface {
	ToggleLike(ctx context.Context, slot model.PhotoSlot, fromUser int64) (photosvc.ToggleResult, error)
	Info(ctx context.Context, slot model.PhotoSlot, viewerID int64) (model.PhotoLikesInfo, error)
	AddComment(ctx context.Context, slot model.PhotoSlot, fromUser int64, text string) (model.PhotoComment, error)
	Comments(ctx context.Context, slot model.PhotoSlot) ([]model.PhotoComment, error)
}

type PhotoInteractionsHandler struct {
	service PhotoInteractions
	logger  *zap.Logger
}

func NewPhotoInteractionsHandler(service PhotoInteractions, logger *zap.Logger) *PhotoInteractionsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PhotoInteractionsHandler{service: service, logger: logger}
}

func (h *PhotoInteractionsHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	var req dto.PhotoLikeRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	slot := model.PhotoSlot{OwnerID: req.OwnerID, PhotoIndex: req.PhotoIndex}
	result, err := h.service.ToggleLike(r.Context(), slot, req.FromUser)
	if err != nil {
		h.writeError(w, "toggle photo like", err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.PhotoLikeResponse{
		Liked:     result.Liked,
		Count:     result.Count,
		LikedByMe: result.LikedByMe,
	})
}

func (h *PhotoInteractionsHandler) Likes(w http.ResponseWriter, r *http.Request) {
	slot, ok := slotFromRequest(r)
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid photo slot")
		return
	}
	viewerID, _ := strconv.ParseInt(r.URL.Query().Get("viewer_id"), 10, 64)

	info, err := h.service.Info(r.Context(), slot, viewerID)
	if err != nil {
		h.writeError(w, "load photo likes", err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.PhotoLikeResponse{
		Liked:     info.LikedByMe,
		Count:     info.Count,
		LikedByMe: info.LikedByMe,
	})
}

func (h *PhotoInteractionsHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	var req dto.PhotoCommentRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "Комментарий не может быть пустым")
		return
	}

	slot := model.PhotoSlot{OwnerID: req.OwnerID, PhotoIndex: req.PhotoIndex}
	comment, err := h.service.AddComment(r.Context(), slot, req.FromUser, req.Text)
	if err != nil {
		h.writeError(w, "add photo comment", err)
		return
	}
	httperrors.Write(w, http.StatusOK, commentItem(comment))
}

func (h *PhotoInteractionsHandler) Comments(w http.ResponseWriter, r *http.Request) {
	slot, ok := slotFromRequest(r)
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid photo slot")
		return
	}

	comments, err := h.service.Comments(r.Context(), slot)
	if err != nil {
		h.writeError(w, "list photo comments", err)
		return
	}

	items := make([]dto.PhotoCommentItem, 0, len(comments))
	for _, c := range comments {
		items = append(items, commentItem(c))
	}
	httperrors.Write(w, http.StatusOK, dto.PhotoCommentsResponse{Comments: items})
}

func (h *PhotoInteractionsHandler) writeError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, photosvc.ErrValidation) {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid photo interaction")
		return
	}
	h.logger.Error(op+" failed", zap.Error(err))
	writeInternal(w, "INTERNAL_ERROR", "photo interaction failed")
}

func slotFromRequest(r *http.Request) (model.PhotoSlot, bool) {
	ownerID, ok := idParam(r, "owner_id")
	if !ok {
		return model.PhotoSlot{}, false
	}
	index, ok := indexParam(r, "photo_index")
	if !ok {
		return model.PhotoSlot{}, false
	}
	return model.PhotoSlot{OwnerID: ownerID, PhotoIndex: index}, true
}

func commentItem(c model.PhotoComment) dto.PhotoCommentItem {
	return dto.PhotoCommentItem{
		ID:        c.ID,
		FromUser:  c.FromUser,
		FromName:  c.FromName,
		Text:      c.Text,
		CreatedAt: c.CreatedAt.UTC().Format(time.RFC3339),
	}
}
