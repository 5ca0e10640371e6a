package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/markdave123-py/alemana-chat/internal/core"
	"github.com/markdave123-py/alemana-chat/internal/core/chat"
	"github.com/markdave123-py/alemana-chat/internal/core/escalation"
)

var (
	ErrSessionNotFound  = errors.New("chat session not found")
	ErrSessionForbidden = errors.New("chat session belongs to another visitor")
)

// ChatConfig holds what every session of the service shares.
type ChatConfig struct {
	AdvisorPhone string
	Session      chat.Options
	TTL          time.Duration
}

// SessionHandle is a live session plus the outbox its escalations land in.
type SessionHandle struct {
	*chat.Session
	outbox *escalation.Outbox
}

// TakeRedirect returns the latest escalation link once, or "".
func (h *SessionHandle) TakeRedirect() string {
	links := h.outbox.Drain()
	if len(links) == 0 {
		return ""
	}
	return links[len(links)-1]
}

// ChatService is the registry of live widget sessions.
type ChatService struct {
	backend   core.ChatBackend
	store     core.IdentityStore
	registrar core.Registrar
	cfg       ChatConfig
	log       *zap.Logger
	now       func() time.Time

	mu       sync.Mutex
	sessions map[string]*SessionHandle
}

func NewChatService(backend core.ChatBackend, store core.IdentityStore, registrar core.Registrar, cfg ChatConfig, logger *zap.Logger) *ChatService {
	return &ChatService{
		backend:   backend,
		store:     store,
		registrar: registrar,
		cfg:       cfg,
		log:       logger,
		now:       time.Now,
		sessions:  make(map[string]*SessionHandle),
	}
}

// Create starts a session for visitorID and restores the visitor's saved
// identity. mobile selects the WhatsApp link flavour for its escalations.
func (s *ChatService) Create(ctx context.Context, visitorID string, mobile bool) (*SessionHandle, error) {
	outbox := &escalation.Outbox{}
	id := uuid.NewString()

	session := chat.NewSession(id, visitorID, chat.Deps{
		Backend:    s.backend,
		Dispatcher: escalation.NewWhatsAppDispatcher(s.cfg.AdvisorPhone, mobile, outbox),
		Store:      s.store,
		Registrar:  s.registrar,
		Logger:     s.log,
		Now:        s.now,
	}, s.cfg.Session)

	if err := session.Mount(ctx); err != nil {
		session.Close()
		return nil, err
	}

	h := &SessionHandle{Session: session, outbox: outbox}
	s.mu.Lock()
	s.sessions[id] = h
	s.mu.Unlock()

	s.log.Debug("chat session created", zap.String("session_id", id), zap.Bool("mobile", mobile))
	return h, nil
}

// Lookup returns the session only to the visitor that created it.
func (s *ChatService) Lookup(visitorID, sessionID string) (*SessionHandle, error) {
	s.mu.Lock()
	h, ok := s.sessions[sessionID]
	s.mu.Unlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	if h.VisitorID() != visitorID {
		return nil, ErrSessionForbidden
	}
	return h, nil
}

// Len is the number of live sessions.
func (s *ChatService) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep closes and forgets sessions idle for longer than the TTL.
func (s *ChatService) Sweep() int {
	if s.cfg.TTL <= 0 {
		return 0
	}
	cutoff := s.now().Add(-s.cfg.TTL)

	var idle []*SessionHandle
	s.mu.Lock()
	for id, h := range s.sessions {
		if h.LastActive().Before(cutoff) {
			idle = append(idle, h)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, h := range idle {
		h.Close()
	}
	if len(idle) > 0 {
		s.log.Info("evicted idle chat sessions", zap.Int("count", len(idle)))
	}
	return len(idle)
}

// Run sweeps every interval until ctx is done.
func (s *ChatService) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Close stops every live session.
func (s *ChatService) Close() {
	s.mu.Lock()
	all := s.sessions
	s.sessions = make(map[string]*SessionHandle)
	s.mu.Unlock()

	for _, h := range all {
		h.Close()
	}
}
