package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"career-guide/internal/quiz"
)

var ErrSessionNotFound = errors.New("quiz session not found")

// SessionStore guarda sesiones interactivas entre requests con un TTL.
type SessionStore interface {
	Save(ctx context.Context, session *quiz.Session) error
	Get(ctx context.Context, id string) (*quiz.Session, error)
	Delete(ctx context.Context, id string) error
}

type storedSession struct {
	data      []byte
	expiresAt time.Time
}

// memorySessionStore guarda la sesion serializada para que cada Get devuelva una copia.
type memorySessionStore struct {
	mu    sync.Mutex
	ttl   time.Duration
	items map[string]storedSession
	now   func() time.Time
}

func NewMemorySessionStore(ttl time.Duration) SessionStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &memorySessionStore{
		ttl:   ttl,
		items: make(map[string]storedSession),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *memorySessionStore) Save(_ context.Context, session *quiz.Session) error {
	if session == nil || strings.TrimSpace(session.ID) == "" {
		return errors.New("session id required")
	}
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[session.ID] = storedSession{data: data, expiresAt: s.now().Add(s.ttl)}
	s.purgeLocked()
	return nil
}

func (s *memorySessionStore) Get(_ context.Context, id string) (*quiz.Session, error) {
	s.mu.Lock()
	item, ok := s.items[id]
	if ok && s.now().After(item.expiresAt) {
		delete(s.items, id)
		ok = false
	}
	s.mu.Unlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return decodeSession(item.data)
}

func (s *memorySessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
	return nil
}

func (s *memorySessionStore) purgeLocked() {
	now := s.now()
	for id, item := range s.items {
		if now.After(item.expiresAt) {
			delete(s.items, id)
		}
	}
}

type redisKV interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type redisSessionStore struct {
	client redisKV
	ttl    time.Duration
	prefix string
}

func NewRedisSessionStore(client *redis.Client, ttl time.Duration) SessionStore {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &redisSessionStore{
		client: client,
		ttl:    ttl,
		prefix: "quiz:session:",
	}
}

func (s *redisSessionStore) Save(ctx context.Context, session *quiz.Session) error {
	if session == nil || strings.TrimSpace(session.ID) == "" {
		return errors.New("session id required")
	}
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	return s.client.Set(ctx, s.prefix+session.ID, data, s.ttl).Err()
}

func (s *redisSessionStore) Get(ctx context.Context, id string) (*quiz.Session, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrSessionNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	data, err := s.client.Get(ctx, s.prefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get session: %w", err)
	}
	return decodeSession(data)
}

func (s *redisSessionStore) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	return s.client.Del(ctx, s.prefix+id).Err()
}

func decodeSession(data []byte) (*quiz.Session, error) {
	var session quiz.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if session.Asked == nil {
		session.Asked = quiz.NewAskedSet()
	}
	if session.Scores == nil {
		session.Scores = quiz.NewScorecard()
	}
	return &session, nil
}
