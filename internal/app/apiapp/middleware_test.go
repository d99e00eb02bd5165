package apiapp

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/babymaxMAX/lsj-love/internal/config"
)

func TestRequestLoggerRecordsStatusAndPath(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	r := chi.NewRouter()
	ApplyMiddlewares(r, zap.New(core))
	r.Get("/teapot", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/teapot", nil))

	if rr.Code != http.StatusTeapot {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusTeapot)
	}
	entries := logs.FilterMessage("http_request").All()
	if len(entries) != 1 {
		t.Fatalf("expected one access log entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["path"] != "/teapot" {
		t.Fatalf("unexpected logged path: %v", fields["path"])
	}
	if fields["status"] != int64(http.StatusTeapot) {
		t.Fatalf("unexpected logged status: %v", fields["status"])
	}
	if fields["request_id"] == "" {
		t.Fatalf("request id must be logged")
	}
}

func TestRecovererTurnsPanicInto500(t *testing.T) {
	r := chi.NewRouter()
	ApplyMiddlewares(r, zap.NewNop())
	r.Get("/boom", func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/boom", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusInternalServerError)
	}
}

func TestRegisterRoutesServesHealthAndPrefix(t *testing.T) {
	cfg := config.Default()
	r := chi.NewRouter()
	RegisterRoutes(r, Dependencies{
		Degraded: func() []string { return []string{"redis"} },
		Logger:   zap.NewNop(),
		Config:   cfg,
	})

	for _, path := range []string{"/healthz", "/api/health"} {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("%s: unexpected status: got %d want %d", path, rr.Code, http.StatusOK)
		}
	}

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPut, cfg.Public.APIPrefix+"/likes/", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusMethodNotAllowed)
	}

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/users/1", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("routes outside the api prefix must 404, got %d", rr.Code)
	}
}
