package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/markdave123-py/alemana-chat/internal/core"
	"github.com/markdave123-py/alemana-chat/internal/models"
)

// memoryDB is an in-process DbClient.
type memoryDB struct {
	mu       sync.Mutex
	nextID   int64
	contacts map[string]*models.Contact
	profiles map[int64]*models.ClientProfile
	touched  []int64
	failWith error
}

func newMemoryDB() *memoryDB {
	return &memoryDB{contacts: map[string]*models.Contact{}, profiles: map[int64]*models.ClientProfile{}}
}

func (m *memoryDB) FindContactByPhone(_ context.Context, phone string) (*models.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	c, ok := m.contacts[phone]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (m *memoryDB) CreateContact(_ context.Context, phone string) (*models.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.contacts[phone]; ok {
		return nil, errors.New("duplicate phone")
	}
	m.nextID++
	now := time.Now()
	c := &models.Contact{ID: m.nextID, Phone: phone, CreatedAt: now, UpdatedAt: now}
	m.contacts[phone] = c
	cp := *c
	return &cp, nil
}

func (m *memoryDB) TouchContact(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.touched = append(m.touched, id)
	return nil
}

func (m *memoryDB) FindClientProfileByContactID(_ context.Context, id int64) (*models.ClientProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *memoryDB) CreateClientProfile(_ context.Context, p *models.ClientProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.profiles[p.ContactID]; ok {
		return errors.New("duplicate profile")
	}
	cp := *p
	m.profiles[p.ContactID] = &cp
	return nil
}

func (m *memoryDB) Close() error { return nil }

type stubRegistrar struct {
	result models.RegistrationResult
	err    error
	delay  time.Duration
	calls  int
	mu     sync.Mutex
}

func (s *stubRegistrar) Register(ctx context.Context, _ models.UserInfo) (models.RegistrationResult, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return models.RegistrationResult{}, ctx.Err()
		}
	}
	return s.result, s.err
}

type textBackend struct{}

func (textBackend) NewThread(context.Context, *models.UserInfo) (core.ChatThread, error) {
	return textBackend{}, nil
}

func (textBackend) Send(context.Context, string) (core.Reply, error) {
	return core.TextReply("ok"), nil
}
