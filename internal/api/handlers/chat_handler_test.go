package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	middleware "github.com/markdave123-py/alemana-chat/internal/api/middlewares"
	"github.com/markdave123-py/alemana-chat/internal/core"
	"github.com/markdave123-py/alemana-chat/internal/core/chat"
	"github.com/markdave123-py/alemana-chat/internal/core/escalation"
	"github.com/markdave123-py/alemana-chat/internal/core/identitystore"
	"github.com/markdave123-py/alemana-chat/internal/models"
	"github.com/markdave123-py/alemana-chat/internal/services"
)

const desktopUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

type scriptedBackend struct {
	mu    sync.Mutex
	reply core.Reply
}

func (b *scriptedBackend) set(r core.Reply) {
	b.mu.Lock()
	b.reply = r
	b.mu.Unlock()
}

func (b *scriptedBackend) NewThread(context.Context, *models.UserInfo) (core.ChatThread, error) {
	return b, nil
}

func (b *scriptedBackend) Send(context.Context, string) (core.Reply, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.reply, nil
}

type okRegistrar struct{}

func (okRegistrar) Register(context.Context, models.UserInfo) (models.RegistrationResult, error) {
	return models.RegistrationResult{Success: true, Message: "ok"}, nil
}

type chatFixture struct {
	router  http.Handler
	backend *scriptedBackend
	tokens  *middleware.VisitorTokens
}

func newChatFixture(t *testing.T) *chatFixture {
	t.Helper()
	backend := &scriptedBackend{reply: core.TextReply("Hola")}
	chats := services.NewChatService(backend, identitystore.NewMemory(), okRegistrar{}, services.ChatConfig{
		AdvisorPhone: "593968676893",
		Session:      chat.Options{Ceiling: 3, FormDelay: time.Hour},
		TTL:          time.Hour,
	}, zap.NewNop())
	t.Cleanup(chats.Close)

	tokens := middleware.NewVisitorTokens("test-secret")
	h := NewChatHandler(chats, tokens, zap.NewNop())

	r := chi.NewRouter()
	r.Post("/api/chat/sessions", h.CreateSession)
	r.Group(func(v chi.Router) {
		v.Use(tokens.Middleware)
		v.Get("/api/chat/sessions/{sessionID}", h.GetSession)
		v.Post("/api/chat/sessions/{sessionID}/toggle", h.Toggle)
		v.Post("/api/chat/sessions/{sessionID}/identity", h.SubmitIdentity)
		v.Post("/api/chat/sessions/{sessionID}/messages", h.SendMessage)
		v.Post("/api/chat/sessions/{sessionID}/reset", h.Reset)
	})
	return &chatFixture{router: r, backend: backend, tokens: tokens}
}

func (f *chatFixture) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, sessionResponse) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", desktopUA)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	var resp sessionResponse
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	}
	return rec, resp
}

func (f *chatFixture) create(t *testing.T) (string, string) {
	t.Helper()
	rec, resp := f.do(t, http.MethodPost, "/api/chat/sessions", "", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotEmpty(t, resp.SessionID)
	require.NotEmpty(t, resp.Token)
	return resp.SessionID, resp.Token
}

func validIdentity() models.UserInfo {
	return models.UserInfo{Name: "Ana Pérez", NationalID: "1710034065", Email: "ana@example.com", Phone: "0987654321"}
}

func TestCreateSessionReturnsWelcome(t *testing.T) {
	f := newChatFixture(t)
	rec, resp := f.do(t, http.MethodPost, "/api/chat/sessions", "", nil)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, resp.State.Messages, 1)
	assert.Equal(t, chat.WelcomeMessage, resp.State.Messages[0].Content)

	visitor, err := f.tokens.Parse(resp.Token)
	require.NoError(t, err)
	assert.NotEmpty(t, visitor)
}

func TestCreateSessionKeepsVisitorFromToken(t *testing.T) {
	f := newChatFixture(t)
	token, err := f.tokens.Issue("visitor-1")
	require.NoError(t, err)

	_, resp := f.do(t, http.MethodPost, "/api/chat/sessions", token, nil)
	visitor, err := f.tokens.Parse(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "visitor-1", visitor)
}

func TestSessionRoutesRequireToken(t *testing.T) {
	f := newChatFixture(t)
	id, _ := f.create(t)

	rec, _ := f.do(t, http.MethodGet, "/api/chat/sessions/"+id, "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSessionOfAnotherVisitorIsForbidden(t *testing.T) {
	f := newChatFixture(t)
	id, _ := f.create(t)
	other, err := f.tokens.Issue("someone-else")
	require.NoError(t, err)

	rec, _ := f.do(t, http.MethodGet, "/api/chat/sessions/"+id, other, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = f.do(t, http.MethodGet, "/api/chat/sessions/missing", other, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestToggleFlipsOpen(t *testing.T) {
	f := newChatFixture(t)
	id, token := f.create(t)

	rec, resp := f.do(t, http.MethodPost, "/api/chat/sessions/"+id+"/toggle", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.State.IsOpen)
}

func TestSendBeforeIdentityConflicts(t *testing.T) {
	f := newChatFixture(t)
	id, token := f.create(t)

	rec, resp := f.do(t, http.MethodPost, "/api/chat/sessions/"+id+"/messages", token, messageRequest{Content: "hola"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.NotEmpty(t, resp.Error)
}

func TestSubmitIdentityReportsFieldErrors(t *testing.T) {
	f := newChatFixture(t)
	id, token := f.create(t)

	bad := validIdentity()
	bad.NationalID = "1710034064"
	rec, resp := f.do(t, http.MethodPost, "/api/chat/sessions/"+id+"/identity", token, bad)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, resp.Fields, "nationalId")
	assert.False(t, resp.State.IsFormCompleted)
}

func TestConversationFlow(t *testing.T) {
	f := newChatFixture(t)
	id, token := f.create(t)

	rec, resp := f.do(t, http.MethodPost, "/api/chat/sessions/"+id+"/identity", token, validIdentity())
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, resp.State.IsFormCompleted)

	rec, resp = f.do(t, http.MethodPost, "/api/chat/sessions/"+id+"/messages", token, messageRequest{Content: "   "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, resp = f.do(t, http.MethodPost, "/api/chat/sessions/"+id+"/messages", token, messageRequest{Content: "Necesito tintas"})
	require.Equal(t, http.StatusOK, rec.Code)
	last := resp.State.Messages[len(resp.State.Messages)-1]
	assert.Equal(t, models.RoleAssistant, last.Role)
	assert.Equal(t, "Hola", last.Content)
	assert.Empty(t, resp.RedirectURL)
}

func TestEscalationReturnsRedirectOnce(t *testing.T) {
	f := newChatFixture(t)
	id, token := f.create(t)
	rec, _ := f.do(t, http.MethodPost, "/api/chat/sessions/"+id+"/identity", token, validIdentity())
	require.Equal(t, http.StatusOK, rec.Code)

	f.backend.set(core.ToolCallReply(escalation.ToolSupportAdvisor, map[string]string{
		escalation.ArgReason:     "mi pantalla se rompió",
		escalation.ArgClientName: "Ana",
	}))
	rec, resp := f.do(t, http.MethodPost, "/api/chat/sessions/"+id+"/messages", token, messageRequest{Content: "ayuda"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.State.RequestSolved)
	assert.True(t, strings.HasPrefix(resp.RedirectURL, "https://web.whatsapp.com/send?phone=593968676893"))

	rec, resp = f.do(t, http.MethodPost, "/api/chat/sessions/"+id+"/messages", token, messageRequest{Content: "otra"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Empty(t, resp.RedirectURL)

	rec, resp = f.do(t, http.MethodPost, "/api/chat/sessions/"+id+"/reset", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, resp.State.RequestSolved)
	assert.Zero(t, resp.State.MessageCount)
}

func TestRejectsMalformedBody(t *testing.T) {
	f := newChatFixture(t)
	id, token := f.create(t)

	req := httptest.NewRequest(http.MethodPost, "/api/chat/sessions/"+id+"/identity", strings.NewReader("{"))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
