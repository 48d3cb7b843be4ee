package blacklist

import (
	"context"
	"sync"
	"time"
)

// sweepThreshold bounds how many entries accumulate before Add drops expired ones.
const sweepThreshold = 1024

type Memory struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (m *Memory) Add(_ context.Context, jti, _ string, expiresAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if exp, ok := m.entries[jti]; ok && now.Before(exp) {
		return false, nil
	}
	if len(m.entries) >= sweepThreshold {
		m.sweepLocked(now)
	}
	m.entries[jti] = expiresAt
	return true, nil
}

func (m *Memory) Contains(_ context.Context, jti string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	exp, ok := m.entries[jti]
	if !ok {
		return false, nil
	}
	if !m.now().Before(exp) {
		delete(m.entries, jti)
		return false, nil
	}
	return true, nil
}

func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *Memory) sweepLocked(now time.Time) {
	for jti, exp := range m.entries {
		if !now.Before(exp) {
			delete(m.entries, jti)
		}
	}
}
