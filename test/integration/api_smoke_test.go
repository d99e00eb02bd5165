package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/babymaxMAX/lsj-love/internal/app/apiapp"
	"github.com/babymaxMAX/lsj-love/internal/config"
)

// offlineConfig points every backend at nothing so the app starts degraded.
func offlineConfig() config.Config {
	cfg := config.Default()
	cfg.HTTP.Addr = ":0"
	cfg.Storage.Driver = config.StorageDriverPostgres
	cfg.Postgres.DSN = ""
	cfg.Redis.Addr = "127.0.0.1:1"
	cfg.S3.Endpoint = ""
	cfg.Bot.Token = ""
	cfg.OpenAI.APIKey = ""
	return cfg
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()

	app, err := apiapp.New(context.Background(), offlineConfig(), zap.NewNop())
	if err != nil {
		t.Fatalf("create app: %v", err)
	}
	ts := httptest.NewServer(app.Handler())
	t.Cleanup(func() {
		ts.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = app.Shutdown(ctx)
	})
	return ts
}

func TestHealthzReportsDegradedBackends(t *testing.T) {
	ts := newServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("get healthz: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d", resp.StatusCode, http.StatusOK)
	}

	var payload struct {
		OK       bool     `json:"ok"`
		Degraded []string `json:"degraded"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !payload.OK || len(payload.Degraded) == 0 {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestMatchmakingWithoutAIKeyIsUnavailable(t *testing.T) {
	ts := newServer(t)

	body, _ := json.Marshal(map[string]any{"user_id": 1, "message": "спортивная девушка"})
	resp, err := http.Post(ts.URL+"/api/v1/ai/matchmaking", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post matchmaking: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("unexpected status: got %d want %d", resp.StatusCode, http.StatusBadRequest)
	}

	var payload struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Code != "AI_UNAVAILABLE" {
		t.Fatalf("unexpected error code: %s", payload.Code)
	}
}

func TestProfileReadFailsCleanlyWithoutStorage(t *testing.T) {
	ts := newServer(t)

	resp, err := http.Get(ts.URL + "/api/v1/users/5")
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("unexpected status: got %d want %d", resp.StatusCode, http.StatusInternalServerError)
	}
}
