package handlers

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	aisvc "github.com/babymaxMAX/lsj-love/internal/services/ai"
	matchsvc "github.com/babymaxMAX/lsj-love/internal/services/matchmaking"
	"github.com/babymaxMAX/lsj-love/internal/transport/http/dto"
	httperrors "github.com/babymaxMAX/lsj-love/internal/transport/http/errors"
)

type Matchmaker interface {
	Find(ctx context.Context, req matchsvc.Request) (matchsvc.Result, error)
	Status(ctx context.Context, userID int64) (matchsvc.Status, error)
}

type MatchmakingHandler struct {
	service   Matchmaker
	projector *Projector
	logger    *zap.Logger
}

func NewMatchmakingHandler(service Matchmaker, projector *Projector, logger *zap.Logger) *MatchmakingHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MatchmakingHandler{service: service, projector: projector, logger: logger}
}

func (h *MatchmakingHandler) Find(w http.ResponseWriter, r *http.Request) {
	var req dto.MatchmakingRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	turns := make([]aisvc.Turn, 0, len(req.Conversation))
	for _, t := range req.Conversation {
		turns = append(turns, aisvc.Turn{Role: t.Role, Content: t.Content})
	}

	result, err := h.service.Find(r.Context(), matchsvc.Request{
		UserID:       req.UserID,
		Message:      req.Message,
		Conversation: turns,
		ShownIDs:     req.ShownIDs,
	})
	if err != nil {
		h.writeError(w, req.UserID, err)
		return
	}

	matches := make([]dto.ProfileResponse, 0, len(result.Matches))
	for _, m := range result.Matches {
		item := h.projector.Profile(m.Profile)
		item.DistanceKM = m.DistanceKM
		matches = append(matches, item)
	}

	h.logger.Info("matchmaking served",
		zap.Int64("user_id", req.UserID),
		zap.String("source", result.Source),
		zap.Int("matches", len(matches)),
	)
	httperrors.Write(w, http.StatusOK, dto.MatchmakingResponse{
		Reply:   result.Reply,
		Matches: matches,
	})
}

func (h *MatchmakingHandler) Status(w http.ResponseWriter, r *http.Request) {
	userID, ok := idParam(r, "user_id")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid user id")
		return
	}

	status, err := h.service.Status(r.Context(), userID)
	if err != nil {
		h.writeError(w, userID, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.MatchmakingStatusResponse{
		Access:         status.Access,
		IsVIP:          status.IsVIP,
		TrialActive:    status.TrialActive,
		TrialHoursLeft: status.TrialHoursLeft,
		TrialExpired:   status.TrialExpired,
	})
}

func (h *MatchmakingHandler) writeError(w http.ResponseWriter, userID int64, err error) {
	var limited matchsvc.RateLimitedError
	switch {
	case errors.As(err, &limited):
		writeTooManyRequests(w, "RATE_LIMITED", "Слишком много запросов. Попробуй через минуту.", limited.RetryAfterSec)
	case errors.Is(err, matchsvc.ErrAIUnavailable):
		writeBadRequest(w, "AI_UNAVAILABLE", "AI не настроен")
	case errors.Is(err, matchsvc.ErrNotFound):
		writeBadRequest(w, "USER_NOT_FOUND", "Пользователь не найден")
	case errors.Is(err, matchsvc.ErrAccessDenied):
		writeForbidden(w, "TRIAL_EXPIRED", "Пробный период AI-подбора закончился. Оформи VIP, чтобы продолжить.")
	case errors.Is(err, matchsvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", "invalid matchmaking request")
	default:
		h.logger.Error("matchmaking failed", zap.Int64("user_id", userID), zap.Error(err))
		writeInternal(w, "INTERNAL_ERROR", "matchmaking failed")
	}
}
