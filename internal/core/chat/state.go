package chat

import (
	"slices"
	"time"

	"github.com/markdave123-py/alemana-chat/internal/core/identity"
	"github.com/markdave123-py/alemana-chat/internal/models"
)

// State is the whole conversation as the widget renders it. The flags are
// independent; a closed widget can still hold a transcript.
type State struct {
	IsOpen          bool                 `json:"isOpen"`
	Messages        []models.ChatMessage `json:"messages"`
	UserInfo        *models.UserInfo     `json:"userInfo,omitempty"`
	IsTyping        bool                 `json:"isTyping"`
	IsFormCompleted bool                 `json:"isFormCompleted"`
	ShowForm        bool                 `json:"showForm"`
	RequestSolved   bool                 `json:"requestSolved"`
	MessageCount    int                  `json:"messageCount"`
	FormErrors      identity.FieldErrors `json:"formErrors,omitempty"`
}

// Clone returns a deep copy that shares nothing with s.
func (s State) Clone() State {
	out := s
	out.Messages = slices.Clone(s.Messages)
	if s.UserInfo != nil {
		info := *s.UserInfo
		out.UserInfo = &info
	}
	if s.FormErrors != nil {
		out.FormErrors = make(identity.FieldErrors, len(s.FormErrors))
		for k, v := range s.FormErrors {
			out.FormErrors[k] = v
		}
	}
	return out
}

// lastMessageID is "" for an empty transcript.
func (s State) lastMessageID() string {
	if len(s.Messages) == 0 {
		return ""
	}
	return s.Messages[len(s.Messages)-1].ID
}

// Stamp carries the identity and time of a message the reducer creates.
type Stamp struct {
	ID string
	At time.Time
}

func (st Stamp) message(role models.Role, content string) models.ChatMessage {
	return models.ChatMessage{ID: st.ID, Role: role, Content: content, Timestamp: st.At}
}

// Event is an input to Reduce.
type Event interface {
	isEvent()
}

// Toggle flips visibility and seeds the transcript on first open.
type Toggle struct{ Stamp Stamp }

// ShowForm reveals the intake form.
type ShowForm struct{}

// Restore loads a persisted identity at mount time.
type Restore struct{ Info models.UserInfo }

// SetUserInfo records a freshly captured identity and restarts the transcript.
type SetUserInfo struct {
	Info  models.UserInfo
	Stamp Stamp
}

// AddMessage appends one message.
type AddMessage struct{ Message models.ChatMessage }

// SetTyping marks whether a backend reply is pending.
type SetTyping struct{ Typing bool }

// SetRequestSolved closes the conversation to new user turns.
type SetRequestSolved struct{ Solved bool }

// IncrementCount counts one user message against the ceiling.
type IncrementCount struct{}

// SetFormErrors replaces the per-field errors of the intake form.
type SetFormErrors struct{ Errors identity.FieldErrors }

// Reset starts a new conversation, keeping the identity.
type Reset struct{ Stamp Stamp }

func (Toggle) isEvent()           {}
func (ShowForm) isEvent()         {}
func (Restore) isEvent()          {}
func (SetUserInfo) isEvent()      {}
func (AddMessage) isEvent()       {}
func (SetTyping) isEvent()        {}
func (SetRequestSolved) isEvent() {}
func (IncrementCount) isEvent()   {}
func (SetFormErrors) isEvent()    {}
func (Reset) isEvent()            {}

// Reduce is the pure transition function. It never mutates the slices or
// pointers of its input.
func Reduce(s State, ev Event) State {
	switch ev := ev.(type) {
	case Toggle:
		opening := !s.IsOpen
		switch {
		case opening && len(s.Messages) == 0 && s.UserInfo == nil:
			s.IsOpen = true
			s.Messages = []models.ChatMessage{ev.Stamp.message(models.RoleAssistant, WelcomeMessage)}
			s.ShowForm = false
		case opening && len(s.Messages) == 0 && s.UserInfo != nil:
			s.IsOpen = true
			s.Messages = []models.ChatMessage{ev.Stamp.message(models.RoleAssistant, AdvisorIntroMessage)}
			s.IsFormCompleted = true
		default:
			s.IsOpen = opening
		}

	case ShowForm:
		if !s.IsFormCompleted {
			s.ShowForm = true
		}

	case Restore:
		info := ev.Info
		s.UserInfo = &info
		s.IsFormCompleted = true
		s.ShowForm = false

	case SetUserInfo:
		info := ev.Info
		s.UserInfo = &info
		s.IsFormCompleted = true
		s.ShowForm = false
		s.FormErrors = nil
		s.Messages = []models.ChatMessage{ev.Stamp.message(models.RoleAssistant, AdvisorIntroMessage)}

	case AddMessage:
		s.Messages = append(slices.Clip(s.Messages), ev.Message)

	case SetTyping:
		s.IsTyping = ev.Typing

	case SetRequestSolved:
		s.RequestSolved = ev.Solved

	case IncrementCount:
		s.MessageCount++

	case SetFormErrors:
		s.FormErrors = ev.Errors

	case Reset:
		next := State{
			IsOpen:          true,
			UserInfo:        s.UserInfo,
			IsFormCompleted: s.UserInfo != nil,
		}
		if s.UserInfo != nil {
			next.Messages = []models.ChatMessage{ev.Stamp.message(models.RoleAssistant, AdvisorIntroMessage)}
		} else {
			next.Messages = []models.ChatMessage{ev.Stamp.message(models.RoleAssistant, WelcomeMessage)}
		}
		return next
	}
	return s
}
