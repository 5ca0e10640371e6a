package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/markdave123-py/alemana-chat/internal/core"
	"github.com/markdave123-py/alemana-chat/internal/models"
)

const DefaultModel = "gemini-1.5-flash"

// GeminiChat opens one Gemini chat session per conversation. The chat
// session keeps the history server side, so each Send carries only the
// newest user message.
type GeminiChat struct {
	client    *genai.Client
	modelName string
	catalog   string
	log       *zap.Logger
}

func NewGeminiChat(ctx context.Context, apiKey, modelName, catalog string, logger *zap.Logger) (*GeminiChat, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key not set")
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	if modelName == "" {
		modelName = DefaultModel
	}
	return &GeminiChat{client: cl, modelName: modelName, catalog: catalog, log: logger}, nil
}

func (g *GeminiChat) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

// NewThread builds a model whose instruction carries the client's data and
// starts a chat on it.
func (g *GeminiChat) NewThread(_ context.Context, user *models.UserInfo) (core.ChatThread, error) {
	m := g.client.GenerativeModel(g.modelName)
	m.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(SystemPrompt(user, g.catalog))},
	}
	m.Tools = escalationTools()

	return &geminiThread{chat: m.StartChat(), log: g.log}, nil
}

// chatSender is the part of *genai.ChatSession a thread uses.
type chatSender interface {
	SendMessage(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

type geminiThread struct {
	chat chatSender
	log  *zap.Logger
}

func (t *geminiThread) Send(ctx context.Context, text string) (core.Reply, error) {
	resp, err := t.chat.SendMessage(ctx, genai.Text(text))
	if err != nil {
		return core.Reply{}, fmt.Errorf("gemini send: %w", err)
	}
	reply, err := parseResponse(resp)
	if err != nil {
		t.log.Warn("unusable gemini response", zap.Error(err))
		return core.Reply{}, err
	}
	return reply, nil
}

// parseResponse reads the first candidate. A function call wins over any
// text in the same candidate.
func parseResponse(resp *genai.GenerateContentResponse) (core.Reply, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return core.Reply{}, fmt.Errorf("%w: no candidates", core.ErrMalformedReply)
	}

	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		switch part := p.(type) {
		case genai.FunctionCall:
			return toolCallReply(part), nil
		case *genai.FunctionCall:
			if part != nil {
				return toolCallReply(*part), nil
			}
		case genai.Text:
			b.WriteString(string(part))
		}
	}

	text := strings.TrimSpace(b.String())
	if text == "" {
		return core.Reply{}, fmt.Errorf("%w: empty text", core.ErrMalformedReply)
	}
	return core.TextReply(text), nil
}

func toolCallReply(call genai.FunctionCall) core.Reply {
	args := make(map[string]string, len(call.Args))
	for k, v := range call.Args {
		if s, ok := v.(string); ok {
			args[k] = s
			continue
		}
		args[k] = fmt.Sprint(v)
	}
	return core.ToolCallReply(call.Name, args)
}

var _ core.ChatBackend = (*GeminiChat)(nil)
