package thread

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is the degraded-mode backend: correct but not durable.
type MemoryStore struct {
	mu      sync.RWMutex
	threads map[string][]Message
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{threads: make(map[string][]Message)}
}

func (s *MemoryStore) Append(_ context.Context, threadID string, msg Message) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	s.mu.Lock()
	s.threads[threadID] = append(s.threads[threadID], msg)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Load(_ context.Context, threadID string) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs := s.threads[threadID]
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

func (s *MemoryStore) Clear(_ context.Context, threadID string) error {
	s.mu.Lock()
	delete(s.threads, threadID)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Kind() string { return "memory" }
