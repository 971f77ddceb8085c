package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/punto-backend/internal/apperror"
	"github.com/rocketscienceinc/punto-backend/internal/entity"
)

const sessionKeyPrefix = "session:"

type SessionRepository interface {
	Create(ctx context.Context, session *entity.Session) error
	GetByCode(ctx context.Context, code string) (*entity.Session, error)
	Update(ctx context.Context, session *entity.Session) error
	DeleteByCode(ctx context.Context, code string) error
}

type dbSession struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionRepository - keeps sessions in redis. Every write renews the expiry, so a session
// left behind by a crashed relay disappears after ttl without activity. Zero keeps it forever.
func NewSessionRepository(client *redis.Client, ttl time.Duration) SessionRepository {
	return &dbSession{
		client: client,
		ttl:    ttl,
	}
}

// Create - stores a new session. Fails with apperror.ErrSessionExists if the code is taken.
func (that *dbSession) Create(ctx context.Context, session *entity.Session) error {
	sessionJSON, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("could not marshal session: %w", err)
	}

	created, err := that.client.SetNX(ctx, sessionKeyPrefix+session.Code, sessionJSON, that.ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	if !created {
		return apperror.ErrSessionExists
	}

	return nil
}

func (that *dbSession) GetByCode(ctx context.Context, code string) (*entity.Session, error) {
	response, err := that.client.Get(ctx, sessionKeyPrefix+code).Result()
	if errors.Is(err, redis.Nil) {
		return nil, apperror.ErrSessionNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get session by code: %w", err)
	}

	var session entity.Session
	if err = json.Unmarshal([]byte(response), &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	return &session, nil
}

// Update - overwrites an existing session. Fails with apperror.ErrSessionNotFound if it is gone.
func (that *dbSession) Update(ctx context.Context, session *entity.Session) error {
	sessionJSON, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("could not marshal session: %w", err)
	}

	updated, err := that.client.SetXX(ctx, sessionKeyPrefix+session.Code, sessionJSON, that.ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	if !updated {
		return apperror.ErrSessionNotFound
	}

	return nil
}

func (that *dbSession) DeleteByCode(ctx context.Context, code string) error {
	deleted, err := that.client.Del(ctx, sessionKeyPrefix+code).Result()
	if err != nil {
		return fmt.Errorf("failed to delete session by code: %w", err)
	}

	if deleted == 0 {
		return apperror.ErrSessionNotFound
	}

	return nil
}
