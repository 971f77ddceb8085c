package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rocketscienceinc/punto-backend/internal/apperror"
	"github.com/rocketscienceinc/punto-backend/internal/entity"
)

// memorySession keeps sessions in process. Values are stored as JSON so callers
// never share memory with the repository.
type memorySession struct {
	mu       sync.RWMutex
	sessions map[string][]byte
}

func NewMemorySessionRepository() SessionRepository {
	return &memorySession{
		sessions: make(map[string][]byte),
	}
}

func (that *memorySession) Create(_ context.Context, session *entity.Session) error {
	sessionJSON, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("could not marshal session: %w", err)
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.sessions[session.Code]; ok {
		return apperror.ErrSessionExists
	}

	that.sessions[session.Code] = sessionJSON

	return nil
}

func (that *memorySession) GetByCode(_ context.Context, code string) (*entity.Session, error) {
	that.mu.RLock()
	sessionJSON, ok := that.sessions[code]
	that.mu.RUnlock()

	if !ok {
		return nil, apperror.ErrSessionNotFound
	}

	var session entity.Session
	if err := json.Unmarshal(sessionJSON, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	return &session, nil
}

func (that *memorySession) Update(_ context.Context, session *entity.Session) error {
	sessionJSON, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("could not marshal session: %w", err)
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.sessions[session.Code]; !ok {
		return apperror.ErrSessionNotFound
	}

	that.sessions[session.Code] = sessionJSON

	return nil
}

func (that *memorySession) DeleteByCode(_ context.Context, code string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.sessions[code]; !ok {
		return apperror.ErrSessionNotFound
	}

	delete(that.sessions, code)

	return nil
}
