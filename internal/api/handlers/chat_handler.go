package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	middleware "github.com/markdave123-py/alemana-chat/internal/api/middlewares"
	"github.com/markdave123-py/alemana-chat/internal/core/chat"
	"github.com/markdave123-py/alemana-chat/internal/core/escalation"
	"github.com/markdave123-py/alemana-chat/internal/core/identity"
	"github.com/markdave123-py/alemana-chat/internal/models"
	"github.com/markdave123-py/alemana-chat/internal/services"
)

type ChatHandler struct {
	chats  *services.ChatService
	tokens *middleware.VisitorTokens
	log    *zap.Logger
}

func NewChatHandler(chats *services.ChatService, tokens *middleware.VisitorTokens, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{chats: chats, tokens: tokens, log: logger}
}

type sessionResponse struct {
	SessionID   string            `json:"session_id"`
	Token       string            `json:"token,omitempty"`
	State       chat.State        `json:"state"`
	RedirectURL string            `json:"redirect_url,omitempty"`
	Error       string            `json:"error,omitempty"`
	Fields      map[string]string `json:"fields,omitempty"`
}

type messageRequest struct {
	Content string `json:"content"`
}

// CreateSession starts a widget session. A valid visitor token is reused so
// the saved identity follows the browser; otherwise a new visitor is minted.
// The token is reissued either way.
func (h *ChatHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	visitorID, err := h.tokens.FromRequest(r)
	if err != nil {
		visitorID = uuid.NewString()
	}

	token, err := h.tokens.Issue(visitorID)
	if err != nil {
		h.log.Error("issue visitor token", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "could not issue visitor token"})
		return
	}

	session, err := h.chats.Create(r.Context(), visitorID, escalation.IsMobileUserAgent(r.UserAgent()))
	if err != nil {
		h.log.Error("create chat session", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "could not create session"})
		return
	}

	writeJSON(w, http.StatusCreated, sessionResponse{
		SessionID: session.ID(),
		Token:     token,
		State:     session.Snapshot(),
	})
}

func (h *ChatHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{SessionID: session.ID(), State: session.Snapshot()})
}

func (h *ChatHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{SessionID: session.ID(), State: session.Toggle()})
}

func (h *ChatHandler) SubmitIdentity(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	var info models.UserInfo
	if err := decodeJSON(w, r, &info); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request"})
		return
	}

	state, err := session.SubmitIdentity(r.Context(), info)
	h.respond(w, session, state, err)
}

func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	var req messageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request"})
		return
	}

	state, err := session.SendMessage(r.Context(), req.Content)
	h.respond(w, session, state, err)
}

func (h *ChatHandler) Reset(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	state := session.Reset()
	// links escalated before the reset are stale
	session.TakeRedirect()
	writeJSON(w, http.StatusOK, sessionResponse{SessionID: session.ID(), State: state})
}

// respond maps a session operation result to a status code. The state is
// always returned so the widget can render whatever the failure appended.
func (h *ChatHandler) respond(w http.ResponseWriter, session *services.SessionHandle, state chat.State, err error) {
	resp := sessionResponse{SessionID: session.ID(), State: state}
	status := http.StatusOK

	var fieldErrs identity.FieldErrors
	switch {
	case err == nil:
		resp.RedirectURL = session.TakeRedirect()
	case errors.As(err, &fieldErrs):
		status = http.StatusUnprocessableEntity
		resp.Fields = fieldErrs
	case errors.Is(err, chat.ErrEmptyMessage):
		status = http.StatusBadRequest
	case errors.Is(err, chat.ErrBusy), errors.Is(err, chat.ErrRequestSolved), errors.Is(err, chat.ErrFormIncomplete):
		status = http.StatusConflict
	case errors.Is(err, chat.ErrRegistrationFailed), errors.Is(err, chat.ErrPersistenceFailed):
		status = http.StatusBadGateway
	default:
		h.log.Error("chat operation failed", zap.String("session_id", session.ID()), zap.Error(err))
		status = http.StatusInternalServerError
	}
	if err != nil {
		resp.Error = err.Error()
	}
	writeJSON(w, status, resp)
}

func (h *ChatHandler) session(w http.ResponseWriter, r *http.Request) (*services.SessionHandle, bool) {
	visitorID, ok := middleware.VisitorID(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
		return nil, false
	}

	session, err := h.chats.Lookup(visitorID, chi.URLParam(r, "sessionID"))
	switch {
	case errors.Is(err, services.ErrSessionNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "session not found"})
		return nil, false
	case errors.Is(err, services.ErrSessionForbidden):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "session belongs to another visitor"})
		return nil, false
	case err != nil:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "session lookup failed"})
		return nil, false
	}
	return session, true
}
