package session

import (
	"context"
	"sync"
	"time"
)

// MemoryBackend keeps records in a map. It is the backend for tests and single-process
// deployments; every operation holds one mutex.
type MemoryBackend struct {
	mu      sync.Mutex
	records map[string]Record
}

// NewMemoryBackend returns an empty MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{records: make(map[string]Record)}
}

func (m *MemoryBackend) Insert(ctx context.Context, rec *Record) error {
	if err := ctx.Err(); err != nil {
		return unavailable(err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[rec.SessionID]; ok {
		return ErrSessionExists
	}
	m.records[rec.SessionID] = *rec
	return nil
}

func (m *MemoryBackend) Get(ctx context.Context, sessionID string) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable(err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return &rec, nil
}

func (m *MemoryBackend) Revoke(ctx context.Context, sessionID string, at time.Time) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, unavailable(err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[sessionID]
	if !ok {
		return false, ErrSessionNotFound
	}
	if rec.Revoked {
		return false, nil
	}
	rec.Revoked = true
	rec.RevokedAt = at
	m.records[sessionID] = rec
	return true, nil
}

func (m *MemoryBackend) DeleteExpired(ctx context.Context, cutoff time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, unavailable(err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, rec := range m.records {
		if rec.ExpiresAt.Before(cutoff) {
			delete(m.records, id)
			n++
		}
	}
	return n, nil
}

func (m *MemoryBackend) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return unavailable(err)
	}
	return nil
}

// Len returns the number of stored records.
func (m *MemoryBackend) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}
