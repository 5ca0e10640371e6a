package core

import (
	"context"
	"errors"

	"github.com/markdave123-py/alemana-chat/internal/models"
)

// ErrMalformedReply is returned by a backend when its answer is neither text nor a usable tool call.
var ErrMalformedReply = errors.New("malformed backend reply")

type ReplyKind string

const (
	ReplyText     ReplyKind = "text"
	ReplyToolCall ReplyKind = "tool_call"
)

// ToolCall is a structured instruction from the model instead of free text.
type ToolCall struct {
	Name string
	Args map[string]string
}

// Reply is the tagged union produced by a ChatThread.
type Reply struct {
	Kind     ReplyKind
	Text     string
	ToolCall *ToolCall
}

// TextReply builds a plain text Reply.
func TextReply(text string) Reply {
	return Reply{Kind: ReplyText, Text: text}
}

// ToolCallReply builds a tool call Reply.
func ToolCallReply(name string, args map[string]string) Reply {
	return Reply{Kind: ReplyToolCall, ToolCall: &ToolCall{Name: name, Args: args}}
}

// ChatBackend opens conversation threads against a generative model.
// The user may be nil when the thread is opened before identity capture.
type ChatBackend interface {
	NewThread(ctx context.Context, user *models.UserInfo) (ChatThread, error)
}

// ChatThread holds the server-side conversation, so only the newest message is sent.
type ChatThread interface {
	Send(ctx context.Context, text string) (Reply, error)
}
