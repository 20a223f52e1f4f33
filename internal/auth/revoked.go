package auth

import "sync"

// RevokedSet tracks refresh token ids that must not be accepted again.
// It is process-scoped, injected where needed, and safe for concurrent use.
type RevokedSet struct {
	mu  sync.RWMutex
	ids map[string]struct{}
}

func NewRevokedSet() *RevokedSet {
	return &RevokedSet{ids: make(map[string]struct{})}
}

func (s *RevokedSet) Add(tokenID string) {
	if tokenID == "" {
		return
	}
	s.mu.Lock()
	s.ids[tokenID] = struct{}{}
	s.mu.Unlock()
}

func (s *RevokedSet) Contains(tokenID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.ids[tokenID]
	return ok
}
