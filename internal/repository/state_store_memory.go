package repository

import (
	"context"
	"sync"
	"time"
)

type memEntry struct {
	value     []byte
	expiresAt time.Time
}

func (e memEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

type memoryStateStore struct {
	mu      sync.Mutex
	entries map[string]memEntry
	now     func() time.Time
}

func NewMemoryStateStore() StateStore {
	return &memoryStateStore{
		entries: make(map[string]memEntry),
		now:     time.Now,
	}
}

func (s *memoryStateStore) entry(value []byte, ttl time.Duration) memEntry {
	e := memEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}
	return e
}

func (s *memoryStateStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = s.entry(value, ttl)
	return nil
}

func (s *memoryStateStore) SetNX(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[key]; ok && !e.expired(s.now()) {
		return false, nil
	}
	s.entries[key] = s.entry(value, ttl)
	return true, nil
}

func (s *memoryStateStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return nil, nil
	}
	if e.expired(s.now()) {
		delete(s.entries, key)
		return nil, nil
	}
	return append([]byte(nil), e.value...), nil
}

func (s *memoryStateStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}
