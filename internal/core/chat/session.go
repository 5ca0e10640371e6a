// Package chat owns the conversation of one chat widget: a pure reducer over
// State plus the Session that runs its side effects.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/markdave123-py/alemana-chat/internal/core"
	"github.com/markdave123-py/alemana-chat/internal/core/escalation"
	"github.com/markdave123-py/alemana-chat/internal/core/identity"
	"github.com/markdave123-py/alemana-chat/internal/models"
)

var (
	ErrRequestSolved      = errors.New("conversation already handed over to an advisor")
	ErrFormIncomplete     = errors.New("identity form not completed")
	ErrBusy               = errors.New("a reply is still pending")
	ErrEmptyMessage       = errors.New("message is empty")
	ErrRegistrationFailed = errors.New("identity registration failed")
	ErrPersistenceFailed  = errors.New("identity could not be persisted")
)

// Options tunes a Session. Zero values fall back to the defaults.
type Options struct {
	Ceiling   int
	FormDelay time.Duration
	// BackendTimeout bounds one backend exchange or identity submission.
	// It is owned by the session; the caller's cancellation does not apply.
	BackendTimeout time.Duration
}

const (
	DefaultCeiling        = 20
	DefaultFormDelay      = 1500 * time.Millisecond
	DefaultBackendTimeout = 2 * time.Minute
)

// Deps are the collaborators a Session talks to. Registrar may be nil.
// Dispatcher is called with the session locked and must not block.
type Deps struct {
	Backend    core.ChatBackend
	Dispatcher escalation.Dispatcher
	Store      core.IdentityStore
	Registrar  core.Registrar
	Logger     *zap.Logger
	Now        func() time.Time
}

// Session runs one widget conversation. Operations are serialized by mu;
// collaborators other than the dispatcher are called with mu released.
type Session struct {
	id        string
	visitorID string
	opts      Options
	deps      Deps
	log       *zap.Logger

	mu         sync.Mutex
	state      State
	thread     core.ChatThread
	epoch      int // bumped whenever the transcript restarts
	pending    int // sends waiting for the backend
	submitting bool
	formTimer  *time.Timer
	formGen    int
	lastActive time.Time
	closed     bool
}

func NewSession(id, visitorID string, deps Deps, opts Options) *Session {
	if opts.Ceiling <= 0 {
		opts.Ceiling = DefaultCeiling
	}
	if opts.FormDelay <= 0 {
		opts.FormDelay = DefaultFormDelay
	}
	if opts.BackendTimeout <= 0 {
		opts.BackendTimeout = DefaultBackendTimeout
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	s := &Session{
		id:        id,
		visitorID: visitorID,
		opts:      opts,
		deps:      deps,
		log:       deps.Logger.With(zap.String("session_id", id), zap.String("visitor_id", visitorID)),
	}
	s.lastActive = deps.Now()
	return s
}

func (s *Session) ID() string        { return s.id }
func (s *Session) VisitorID() string { return s.visitorID }

// Mount reads the persisted identity once, before the widget is first opened.
func (s *Session) Mount(ctx context.Context) error {
	if s.deps.Store == nil {
		return nil
	}
	info, err := s.deps.Store.Load(ctx, s.visitorID)
	if err != nil {
		return fmt.Errorf("load identity: %w", err)
	}
	if info == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.apply(Restore{Info: *info})
	s.log.Debug("restored persisted identity")
	return nil
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// LastActive is the time of the latest operation on the session.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Toggle opens or closes the widget.
func (s *Session) Toggle() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.touch()
	s.apply(Toggle{Stamp: s.stamp()})
	if s.state.IsOpen {
		s.scheduleFormLocked()
	} else {
		s.stopFormTimerLocked()
	}
	return s.state.Clone()
}

// SubmitIdentity validates and records the intake form. An identity.FieldErrors
// error leaves the state untouched apart from the form errors; registration
// and persistence failures are surfaced in the transcript.
func (s *Session) SubmitIdentity(ctx context.Context, info models.UserInfo) (State, error) {
	info = models.UserInfo{
		Name:       strings.TrimSpace(info.Name),
		NationalID: strings.TrimSpace(info.NationalID),
		Email:      strings.TrimSpace(info.Email),
		Phone:      strings.TrimSpace(info.Phone),
	}

	s.mu.Lock()
	s.touch()
	if errs := identity.ValidateUserInfo(info); errs != nil {
		s.apply(SetFormErrors{Errors: errs})
		snap := s.state.Clone()
		s.mu.Unlock()
		return snap, errs
	}
	if s.submitting {
		snap := s.state.Clone()
		s.mu.Unlock()
		return snap, ErrBusy
	}
	s.apply(SetFormErrors{Errors: nil})
	s.submitting = true
	s.mu.Unlock()

	ctx, cancel := s.detach(ctx)
	defer cancel()
	err := s.registerAndSave(ctx, info)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitting = false

	if err != nil {
		s.log.Warn("identity capture failed", zap.Error(err))
		s.apply(AddMessage{Message: s.stamp().message(models.RoleAssistant, failureText(err))})
		s.scheduleFormLocked()
		return s.state.Clone(), err
	}

	s.epoch++
	s.thread = nil
	s.stopFormTimerLocked()
	s.apply(SetUserInfo{Info: info, Stamp: s.stamp()})
	s.log.Info("identity captured")
	return s.state.Clone(), nil
}

// registrationError keeps the registrar's own message for the transcript.
type registrationError struct {
	message string
}

func (e *registrationError) Error() string { return ErrRegistrationFailed.Error() + ": " + e.message }
func (e *registrationError) Unwrap() error { return ErrRegistrationFailed }

func (s *Session) registerAndSave(ctx context.Context, info models.UserInfo) error {
	if s.deps.Registrar != nil {
		res, err := s.deps.Registrar.Register(ctx, info)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrRegistrationFailed, err)
		}
		if !res.Success {
			return &registrationError{message: res.Message}
		}
	}
	if s.deps.Store != nil {
		if err := s.deps.Store.Save(ctx, s.visitorID, info); err != nil {
			return fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
		}
	}
	return nil
}

func failureText(err error) string {
	var regErr *registrationError
	if errors.As(err, &regErr) && regErr.message != "" {
		return regErr.message
	}
	return RegistrationFailedMessage
}

// SendMessage appends a user turn and the backend's answer.
//
// At the ceiling the limit notice is appended instead and nothing is
// counted. A failed backend call still counts against the ceiling.
func (s *Session) SendMessage(ctx context.Context, text string) (State, error) {
	text = strings.TrimSpace(text)

	s.mu.Lock()
	s.touch()
	switch {
	case text == "":
		return s.rejectLocked(ErrEmptyMessage)
	case s.state.RequestSolved:
		return s.rejectLocked(ErrRequestSolved)
	case !s.state.IsFormCompleted:
		return s.rejectLocked(ErrFormIncomplete)
	case s.pending > 0:
		return s.rejectLocked(ErrBusy)
	}

	if s.state.MessageCount >= s.opts.Ceiling {
		s.apply(AddMessage{Message: s.stamp().message(models.RoleAssistant, LimitReachedMessage)})
		snap := s.state.Clone()
		s.mu.Unlock()
		return snap, nil
	}

	s.apply(AddMessage{Message: s.stamp().message(models.RoleUser, text)})
	s.apply(SetTyping{Typing: true})
	s.apply(IncrementCount{})
	s.pending++

	epoch := s.epoch
	thread := s.thread
	var user *models.UserInfo
	if s.state.UserInfo != nil {
		u := *s.state.UserInfo
		user = &u
	}
	s.mu.Unlock()

	ctx, cancel := s.detach(ctx)
	defer cancel()

	if thread == nil {
		var err error
		thread, err = s.deps.Backend.NewThread(ctx, user)
		if err != nil {
			return s.finishSend(ctx, epoch, nil, outcome{err: fmt.Errorf("open thread: %w", err)})
		}
	}

	return s.finishSend(ctx, epoch, thread, s.exchange(ctx, thread, text))
}

// detach keeps an operation running after the caller goes away. Once
// dispatched a send or submission completes or hits BackendTimeout.
func (s *Session) detach(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), s.opts.BackendTimeout)
}

type outcome struct {
	text string
	plan *escalation.Plan
	err  error
}

// exchange calls the backend and resolves escalation tool calls to a plan.
// The plan is dispatched by finishSend once the reply is known to be current.
func (s *Session) exchange(ctx context.Context, thread core.ChatThread, text string) outcome {
	reply, err := thread.Send(ctx, text)
	if err != nil {
		return outcome{err: err}
	}

	switch reply.Kind {
	case core.ReplyText:
		return outcome{text: reply.Text}

	case core.ReplyToolCall:
		if reply.ToolCall == nil {
			return outcome{err: core.ErrMalformedReply}
		}
		plan, ok := escalation.PlanFor(reply.ToolCall.Name, reply.ToolCall.Args)
		if !ok {
			return outcome{err: fmt.Errorf("%w: unknown tool %q", core.ErrMalformedReply, reply.ToolCall.Name)}
		}
		return outcome{plan: &plan}
	}

	return outcome{err: fmt.Errorf("%w: kind %q", core.ErrMalformedReply, reply.Kind)}
}

// finishSend applies a backend outcome. Replies that arrive after the
// transcript restarted are dropped; replies that arrive while the widget is
// closed are applied.
func (s *Session) finishSend(ctx context.Context, epoch int, thread core.ChatThread, out outcome) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending--

	if epoch != s.epoch {
		s.log.Debug("dropping reply for a restarted conversation")
		s.apply(SetTyping{Typing: s.pending > 0})
		return s.state.Clone(), nil
	}
	if s.thread == nil && thread != nil {
		s.thread = thread
	}

	if out.err == nil && out.plan != nil {
		out = s.escalateLocked(ctx, *out.plan)
	}

	if out.err != nil {
		s.log.Warn("backend exchange failed", zap.Error(out.err))
		s.apply(AddMessage{Message: s.stamp().message(models.RoleAssistant, BackendErrorMessage)})
	} else {
		s.apply(AddMessage{Message: s.stamp().message(models.RoleAssistant, out.text)})
		if out.plan != nil {
			s.apply(SetRequestSolved{Solved: true})
		}
	}
	s.apply(SetTyping{Typing: s.pending > 0})
	return s.state.Clone(), nil
}

// escalateLocked hands the conversation to an advisor. It runs under mu so a
// Reset cannot slip between the epoch check and the hand-off.
func (s *Session) escalateLocked(ctx context.Context, plan escalation.Plan) outcome {
	if s.deps.Dispatcher == nil {
		return outcome{err: errors.New("no escalation dispatcher configured")}
	}
	if err := s.deps.Dispatcher.Escalate(ctx, plan.Channel, plan.Summary); err != nil {
		return outcome{err: fmt.Errorf("escalate: %w", err)}
	}
	s.log.Info("conversation escalated", zap.String("channel", string(plan.Channel)))
	return outcome{text: plan.Acknowledgement, plan: &plan}
}

// Reset starts a new conversation. A captured identity is kept and the
// advisor greets again; otherwise the welcome and form reveal start over.
func (s *Session) Reset() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.touch()
	s.epoch++
	s.thread = nil
	s.stopFormTimerLocked()
	s.apply(Reset{Stamp: s.stamp()})
	s.apply(SetTyping{Typing: s.pending > 0})
	s.scheduleFormLocked()
	return s.state.Clone()
}

// Close stops the pending form reveal. The session must not be used afterwards.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.stopFormTimerLocked()
}

func (s *Session) rejectLocked(err error) (State, error) {
	snap := s.state.Clone()
	s.mu.Unlock()
	return snap, err
}

func (s *Session) apply(ev Event) {
	s.state = Reduce(s.state, ev)
}

func (s *Session) stamp() Stamp {
	return Stamp{ID: uuid.NewString(), At: s.deps.Now()}
}

func (s *Session) touch() {
	s.lastActive = s.deps.Now()
}

func (s *Session) formPendingLocked() bool {
	st := s.state
	return !s.closed && st.IsOpen && !st.IsFormCompleted && !st.ShowForm && len(st.Messages) > 0
}

func (s *Session) scheduleFormLocked() {
	if s.formTimer != nil || !s.formPendingLocked() {
		return
	}
	s.formGen++
	gen := s.formGen
	lastID := s.state.lastMessageID()
	s.formTimer = time.AfterFunc(s.opts.FormDelay, func() {
		s.revealForm(gen, lastID)
	})
}

func (s *Session) stopFormTimerLocked() {
	if s.formTimer != nil {
		s.formTimer.Stop()
		s.formTimer = nil
	}
	s.formGen++
}

// revealForm fires once per schedule. If the transcript moved on in the
// meantime the reveal is scheduled again from now.
func (s *Session) revealForm(gen int, lastID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.formGen {
		return
	}
	s.formTimer = nil
	if !s.formPendingLocked() {
		return
	}
	if s.state.lastMessageID() != lastID {
		s.scheduleFormLocked()
		return
	}
	s.apply(ShowForm{})
}
