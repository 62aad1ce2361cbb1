package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/smarttalks/booker-agent/internal/model/chat"
)

// ErrSessionNotFound signals an unknown session identifier.
var ErrSessionNotFound = errors.New("session not found")

// Service fans conversations out per session: each session owns one Engine
// and therefore its own transcript views and report log.
type Service struct {
	mu      sync.RWMutex
	engines map[string]*Engine
	factory func() *Engine
}

// NewService bootstraps the in-memory session registry. factory builds a
// fresh engine per session.
func NewService(factory func() *Engine) *Service {
	return &Service{
		engines: make(map[string]*Engine),
		factory: factory,
	}
}

// CreateSession provisions an anonymous conversation.
func (s *Service) CreateSession(_ context.Context) (chat.Session, error) {
	eng := s.factory()

	session := chat.Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Greeting:  eng.DisplayMessages()[0],
	}

	s.mu.Lock()
	s.engines[session.ID] = eng
	s.mu.Unlock()

	return session, nil
}

// Engine retrieves the engine bound to a session.
func (s *Service) Engine(sessionID string) (*Engine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	eng, ok := s.engines[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return eng, nil
}
