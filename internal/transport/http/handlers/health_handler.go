package handlers

import (
	"net/http"

	"github.com/babymaxMAX/lsj-love/internal/transport/http/dto"
	httperrors "github.com/babymaxMAX/lsj-love/internal/transport/http/errors"
)

type HealthHandler struct {
	degraded func() []string
}

// NewHealthHandler reports liveness. degraded may be nil.
func NewHealthHandler(degraded func() []string) *HealthHandler {
	return &HealthHandler{degraded: degraded}
}

func (h *HealthHandler) Handle(w http.ResponseWriter, _ *http.Request) {
	resp := dto.HealthResponse{OK: true}
	if h.degraded != nil {
		resp.Degraded = h.degraded()
	}
	httperrors.Write(w, http.StatusOK, resp)
}
