package identitystore

import (
	"context"
	"sync"

	"github.com/markdave123-py/alemana-chat/internal/core"
	"github.com/markdave123-py/alemana-chat/internal/models"
)

// Memory keeps blobs in process. Used for tests and single-node demos.
type Memory struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{blobs: make(map[string][]byte)}
}

func (m *Memory) Load(_ context.Context, visitorID string) (*models.UserInfo, error) {
	m.mu.RLock()
	data, ok := m.blobs[Key(visitorID)]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return decode(data)
}

func (m *Memory) Save(_ context.Context, visitorID string, info models.UserInfo) error {
	data, err := encode(info)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.blobs[Key(visitorID)] = data
	m.mu.Unlock()
	return nil
}

var _ core.IdentityStore = (*Memory)(nil)
