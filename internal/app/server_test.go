package app

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/markdave123-py/alemana-chat/internal/api/handlers"
	appMiddleware "github.com/markdave123-py/alemana-chat/internal/api/middlewares"
	"github.com/markdave123-py/alemana-chat/internal/config"
	"github.com/markdave123-py/alemana-chat/internal/core/chat"
	"github.com/markdave123-py/alemana-chat/internal/core/identitystore"
	"github.com/markdave123-py/alemana-chat/internal/services"
)

func testRouter(t *testing.T) http.Handler {
	t.Helper()
	web := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(web, "index.html"), []byte("<html>widget</html>"), 0o644))

	cfg := &config.Config{Port: "0", AllowedOrigins: []string{"http://localhost:5173"}, WebDir: web}
	chats := services.NewChatService(nil, identitystore.NewMemory(), services.NewMultiRegistrar(), services.ChatConfig{
		AdvisorPhone: "593968676893",
		Session:      chat.Options{FormDelay: time.Hour},
		TTL:          time.Hour,
	}, zap.NewNop())
	t.Cleanup(chats.Close)

	tokens := appMiddleware.NewVisitorTokens("secret")
	return newRouter(cfg,
		handlers.NewChatHandler(chats, tokens, zap.NewNop()),
		handlers.NewRegistrationHandler(nil, nil, zap.NewNop()),
		tokens,
		zap.NewNop(),
	)
}

func TestRoutes(t *testing.T) {
	r := testRouter(t)

	cases := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodGet, "/healthz", http.StatusOK},
		{http.MethodGet, "/", http.StatusOK},
		{http.MethodPost, "/api/chat/sessions", http.StatusCreated},
		{http.MethodGet, "/api/chat/sessions/abc", http.StatusUnauthorized},
		{http.MethodPost, "/api/register", http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))
		assert.Equal(t, tc.status, rec.Code, "%s %s", tc.method, tc.path)
	}
}

func TestCORSPreflight(t *testing.T) {
	r := testRouter(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/chat/sessions", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}
