// Package scratch implements the client-local draft store: a Redis-backed
// store for deployments and an in-memory store for tests. Keys follow the
// "draft:" + teaching-context convention the draft engine builds.
package scratch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/classkit/planner/internal/curriculum"
)

// Memory is an in-memory curriculum.DraftStore.
type Memory struct {
	mu     sync.RWMutex
	drafts map[string]curriculum.Draft
}

// NewMemory creates an empty in-memory draft store.
func NewMemory() *Memory {
	return &Memory{drafts: make(map[string]curriculum.Draft)}
}

func (m *Memory) Get(_ context.Context, key string) (*curriculum.Draft, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.drafts[key]
	if !ok {
		return nil, nil
	}
	c := d
	c.Activities = make([]curriculum.Activity, len(d.Activities))
	for i, a := range d.Activities {
		c.Activities[i] = a.Clone()
	}
	return &c, nil
}

func (m *Memory) Set(_ context.Context, key string, d curriculum.Draft) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := d
	c.Activities = make([]curriculum.Activity, len(d.Activities))
	for i, a := range d.Activities {
		c.Activities[i] = a.Clone()
	}
	m.drafts[key] = c
	return nil
}

func (m *Memory) Clear(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.drafts, key)
	return nil
}

// Redis is a Redis-backed curriculum.DraftStore. Drafts are stored as JSON
// with no TTL: a draft survives until the user explicitly discards it.
type Redis struct {
	client *redis.Client
}

// NewRedis creates a draft store over an existing Redis client.
func NewRedis(client *redis.Client) (*Redis, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	return &Redis{client: client}, nil
}

func (r *Redis) Get(ctx context.Context, key string) (*curriculum.Draft, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get draft %s: %w", key, err)
	}
	var d curriculum.Draft
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("decode draft %s: %w", key, err)
	}
	return &d, nil
}

func (r *Redis) Set(ctx context.Context, key string, d curriculum.Draft) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode draft %s: %w", key, err)
	}
	if err := r.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("set draft %s: %w", key, err)
	}
	return nil
}

func (r *Redis) Clear(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("clear draft %s: %w", key, err)
	}
	return nil
}
