package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

func withURLParams(r *http.Request, params map[string]string) *http.Request {
	routeCtx := chi.NewRouteContext()
	for key, value := range params {
		routeCtx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, routeCtx))
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request body: %v", err)
	}
	return httptest.NewRequest(method, target, bytes.NewReader(raw))
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), target); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
}

type errorBody struct {
	Error         string `json:"error"`
	Code          string `json:"code"`
	RetryAfterSec int64  `json:"retry_after_sec"`
}

func expectError(t *testing.T, rr *httptest.ResponseRecorder, status int, code string) errorBody {
	t.Helper()
	if rr.Code != status {
		t.Fatalf("unexpected status: got %d want %d (body %s)", rr.Code, status, rr.Body.String())
	}
	var body errorBody
	decodeBody(t, rr, &body)
	if body.Code != code {
		t.Fatalf("unexpected error code: got %q want %q", body.Code, code)
	}
	if body.Error == "" {
		t.Fatalf("error message must not be empty")
	}
	return body
}
