package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gamemaster/gamemaster-server-go/internal/config"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestRouter(t *testing.T, webhook *TelegramWebhook) (*gin.Engine, *Hub) {
	t.Helper()
	logger := zaptest.NewLogger(t)
	dispatcher := newTestDispatcher(t)
	hub := NewHub(dispatcher, []string{"*"}, logger)
	cfg := config.HTTPConfig{AllowedOrigins: []string{"*"}}
	return NewRouter(cfg, dispatcher, hub, webhook, logger), hub
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func TestHTTP_Healthz(t *testing.T) {
	r, _ := newTestRouter(t, nil)
	rec, body := doJSON(t, r, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestHTTP_Score(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	rec, body := doJSON(t, r, http.MethodPost, "/api/score", `{"text":"4 lighthouse, 2 boats"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "SCORED", body["outcome"])
	assert.EqualValues(t, 9, body["total"])
	assert.Equal(t, map[string]any{"lighthouse": 4.0, "boat": 2.0}, body["tally"])

	_, err := time.Parse(time.RFC3339Nano, body["computed_at"].(string))
	assert.NoError(t, err)
}

func TestHTTP_ColorBonus(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	rec, body := doJSON(t, r, http.MethodPost, "/api/color-bonus", `{"text":"1 mermaid, 5 blue, 2 pink"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "SCORED", body["outcome"])
	assert.EqualValues(t, 5, body["total"])
	assert.Equal(t, []any{5.0}, body["selected_groups"])
}

func TestHTTP_BadRequests(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	for _, path := range []string{"/api/score", "/api/color-bonus", "/api/messages"} {
		for _, body := range []string{`{}`, `{"text":"   "}`, `not json`} {
			rec, out := doJSON(t, r, http.MethodPost, path, body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, "%s %s", path, body)
			assert.Equal(t, "text is required", out["error"])
		}
	}
}

func TestHTTP_Messages(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	rec, body := doJSON(t, r, http.MethodPost, "/api/messages", `{"chat_id":"web-1","text":"/start"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "web-1", body["chat_id"])
	assert.Equal(t, "command", body["kind"])

	rec, body = doJSON(t, r, http.MethodPost, "/api/messages", `{"text":"how many rounds?"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(body["chat_id"].(string), "http:"))
	assert.Equal(t, "answer", body["kind"])
	assert.Equal(t, "you asked: how many rounds?", body["text"])
}

func TestHTTP_CORS(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "https://example.com")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestHTTP_TelegramWebhook(t *testing.T) {
	called := 0
	webhook := &TelegramWebhook{
		Token: "secret",
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called++
			w.WriteHeader(http.StatusOK)
		}),
	}
	r, _ := newTestRouter(t, webhook)

	rec, _ := doJSON(t, r, http.MethodPost, "/telegram/wrong", `{}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 0, called)

	rec, _ = doJSON(t, r, http.MethodPost, "/telegram/secret", `{}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, called)
}

func TestHTTP_NoWebhookRoute(t *testing.T) {
	r, _ := newTestRouter(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/telegram/secret", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCorsConfig(t *testing.T) {
	assert.True(t, corsConfig(nil).AllowAllOrigins)
	assert.True(t, corsConfig([]string{"https://a.example", "*"}).AllowAllOrigins)

	cfg := corsConfig([]string{"https://a.example"})
	assert.False(t, cfg.AllowAllOrigins)
	assert.Equal(t, []string{"https://a.example"}, cfg.AllowOrigins)
}
