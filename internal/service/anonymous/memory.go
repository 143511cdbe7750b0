package anonymous

import (
	"context"
	"sync"
	"time"
)

// MemorySessions keeps sessions in process. Sessions are lost on restart.
type MemorySessions struct {
	mu     sync.RWMutex
	tokens map[string]time.Time
	now    func() time.Time
}

func NewMemorySessions() *MemorySessions {
	return &MemorySessions{
		tokens: make(map[string]time.Time),
		now:    time.Now,
	}
}

func (m *MemorySessions) Save(_ context.Context, token string, ttl time.Duration) error {
	m.mu.Lock()
	m.tokens[token] = m.now().Add(ttl)
	m.mu.Unlock()
	return nil
}

func (m *MemorySessions) Exists(_ context.Context, token string) (bool, error) {
	m.mu.RLock()
	expiresAt, ok := m.tokens[token]
	m.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if m.now().After(expiresAt) {
		m.mu.Lock()
		delete(m.tokens, token)
		m.mu.Unlock()
		return false, nil
	}
	return true, nil
}

func (m *MemorySessions) Ping(context.Context) error {
	return nil
}
