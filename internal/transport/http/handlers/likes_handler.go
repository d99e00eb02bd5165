package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/babymaxMAX/lsj-love/internal/domain/model"
	likessvc "github.com/babymaxMAX/lsj-love/internal/services/likes"
	"github.com/babymaxMAX/lsj-love/internal/transport/http/dto"
	httperrors "github.com/babymaxMAX/lsj-love/internal/transport/http/errors"
)

type LikesService interface {
	Create(ctx context.Context, in likessvc.CreateInput) (likessvc.Result, error)
	Delete(ctx context.Context, fromUser, toUser int64) error
	Exists(ctx context.Context, fromUser, toUser int64) (bool, error)
}

type LikesHandler struct {
	service LikesService
	logger  *zap.Logger
}

func NewLikesHandler(service LikesService, logger *zap.Logger) *LikesHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LikesHandler{service: service, logger: logger}
}

func (h *LikesHandler) Status(w http.ResponseWriter, r *http.Request) {
	fromUser, ok := idParam(r, "from_user")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid from_user")
		return
	}
	toUser, ok := idParam(r, "to_user")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid to_user")
		return
	}

	exists, err := h.service.Exists(r.Context(), fromUser, toUser)
	if err != nil {
		h.logger.Error("check like failed", zap.Error(err))
		writeBadRequest(w, "LIKES_UNAVAILABLE", "failed to check like")
		return
	}
	httperrors.Write(w, http.StatusOK, dto.LikeStatusResponse{Status: exists})
}

func (h *LikesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateLikeRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	result, err := h.service.Create(r.Context(), likessvc.CreateInput{
		FromUser:  req.FromUser,
		ToUser:    req.ToUser,
		Superlike: req.IsSuperlike,
	})
	if err != nil {
		var limitErr likessvc.DailyLimitError
		if tooFast, ok := likessvc.IsTooFast(err); ok {
			writeTooManyRequests(w, "TOO_FAST", "too many likes, slow down", tooFast.RetryAfter())
			return
		}
		switch {
		case errors.As(err, &limitErr):
			writeForbidden(w, "DAILY_LIMIT_REACHED",
				fmt.Sprintf("Лимит лайков на сегодня (%d) исчерпан. Оформи Premium для безлимитных лайков.", limitErr.Limit))
		case errors.Is(err, likessvc.ErrNoSuperlikes):
			writeForbidden(w, "NO_SUPERLIKES", "Нет суперлайков. Купи суперлайк в разделе Premium.")
		case errors.Is(err, likessvc.ErrNotFound):
			writeNotFound(w, "USER_NOT_FOUND", "User not found")
		case errors.Is(err, likessvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid like request")
		default:
			h.logger.Error("create like failed",
				zap.Int64("from_user", req.FromUser),
				zap.Int64("to_user", req.ToUser),
				zap.Error(err),
			)
			writeBadRequest(w, "LIKE_FAILED", "failed to create like")
		}
		return
	}

	resp := dto.LikeResponse{
		FromUser:  result.Like.FromUser,
		ToUser:    result.Like.ToUser,
		CreatedAt: result.Like.CreatedAt.UTC().Format(time.RFC3339),
		IsMatch:   result.IsMatch,
	}
	if result.LikesLeft >= 0 {
		left := result.LikesLeft
		resp.LikesLeft = &left
	}
	httperrors.Write(w, http.StatusOK, resp)
}

func (h *LikesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req dto.DeleteLikeRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	if err := h.service.Delete(r.Context(), req.FromUser, req.ToUser); err != nil {
		switch {
		case errors.Is(err, model.ErrLikeNotFound):
			writeBadRequest(w, "LIKE_NOT_FOUND", "like not found")
		case errors.Is(err, likessvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid like request")
		default:
			h.logger.Error("delete like failed", zap.Error(err))
			writeBadRequest(w, "LIKE_FAILED", "failed to delete like")
		}
		return
	}
	httperrors.Write(w, http.StatusOK, dto.DeleteLikeResponse{Status: "deleted"})
}
