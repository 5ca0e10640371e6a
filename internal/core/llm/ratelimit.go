package llm

import (
	"context"
	"errors"
	"time"

	"golang.org/x/time/rate"

	"github.com/markdave123-py/alemana-chat/internal/core"
	"github.com/markdave123-py/alemana-chat/internal/models"
)

// ErrRateLimited is returned when the per-process request budget is spent.
var ErrRateLimited = errors.New("backend rate limit exceeded")

// RateLimited caps the requests every thread of a backend may send. A send
// over budget fails immediately instead of waiting.
type RateLimited struct {
	next    core.ChatBackend
	limiter *rate.Limiter
}

// NewRateLimited allows perMinute sends per minute with a burst of the same size.
func NewRateLimited(next core.ChatBackend, perMinute int) *RateLimited {
	if perMinute <= 0 {
		perMinute = 1
	}
	return &RateLimited{
		next:    next,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute),
	}
}

func (r *RateLimited) NewThread(ctx context.Context, user *models.UserInfo) (core.ChatThread, error) {
	thread, err := r.next.NewThread(ctx, user)
	if err != nil {
		return nil, err
	}
	return &limitedThread{next: thread, limiter: r.limiter}, nil
}

type limitedThread struct {
	next    core.ChatThread
	limiter *rate.Limiter
}

func (t *limitedThread) Send(ctx context.Context, text string) (core.Reply, error) {
	if !t.limiter.Allow() {
		return core.Reply{}, ErrRateLimited
	}
	return t.next.Send(ctx, text)
}

var _ core.ChatBackend = (*RateLimited)(nil)
