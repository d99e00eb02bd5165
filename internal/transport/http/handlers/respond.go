package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/babymaxMAX/lsj-love/internal/pkg/validate"
	httperrors "github.com/babymaxMAX/lsj-love/internal/transport/http/errors"
)

// decodeAndValidate reads a JSON body into target and checks its validate tags.
func decodeAndValidate(r *http.Request, target any) error {
	if err := decodeJSON(r, target); err != nil {
		return err
	}
	return validate.Struct(target)
}

func decodeJSON(r *http.Request, target any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	httperrors.Write(w, status, httperrors.APIError{Error: message, Code: code})
}

func writeBadRequest(w http.ResponseWriter, code, message string) {
	writeError(w, http.StatusBadRequest, code, message)
}

func writeNotFound(w http.ResponseWriter, code, message string) {
	writeError(w, http.StatusNotFound, code, message)
}

func writeForbidden(w http.ResponseWriter, code, message string) {
	writeError(w, http.StatusForbidden, code, message)
}

func writeInternal(w http.ResponseWriter, code, message string) {
	writeError(w, http.StatusInternalServerError, code, message)
}

func writeTooManyRequests(w http.ResponseWriter, code, message string, retryAfterSec int64) {
	w.Header().Set("Retry-After", strconv.FormatInt(retryAfterSec, 10))
	httperrors.Write(w, http.StatusTooManyRequests, httperrors.RateLimitError{
		Error:         message,
		Code:          code,
		RetryAfterSec: retryAfterSec,
	})
}

func parseIntOrDefault(raw string, fallback int) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

// idParam reads a positive int64 chi URL parameter.
func idParam(r *http.Request, name string) (int64, bool) {
	if r == nil {
		return 0, false
	}
	raw := strings.TrimSpace(chi.URLParam(r, name))
	if raw == "" {
		return 0, false
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value <= 0 {
		return 0, false
	}
	return value, true
}

// indexParam reads a non-negative int chi URL parameter.
func indexParam(r *http.Request, name string) (int, bool) {
	if r == nil {
		return 0, false
	}
	value, err := strconv.Atoi(strings.TrimSpace(chi.URLParam(r, name)))
	if err != nil || value < 0 {
		return 0, false
	}
	return value, true
}
