package goSession

import (
	"context"
	"sync"
)

// MemoryTwoFactorStore is the bundled [TwoFactorStore]. Configurations live
// in a map behind a mutex and do not survive the process; portals with real
// user records back this interface with their own database.
type MemoryTwoFactorStore struct {
	mu      sync.RWMutex
	configs map[string]TwoFactorConfig
}

// NewMemoryTwoFactorStore describes the newmemorytwofactorstore operation and its observable behavior.
//
// NewMemoryTwoFactorStore may return an error when input validation, dependency calls, or security checks fail.
// NewMemoryTwoFactorStore does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewMemoryTwoFactorStore() *MemoryTwoFactorStore {
	return &MemoryTwoFactorStore{configs: make(map[string]TwoFactorConfig)}
}

// GetTwoFactorConfig describes the gettwofactorconfig operation and its observable behavior.
//
// GetTwoFactorConfig may return an error when input validation, dependency calls, or security checks fail.
// GetTwoFactorConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *MemoryTwoFactorStore) GetTwoFactorConfig(_ context.Context, userID string) (*TwoFactorConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cfg, ok := s.configs[userID]
	if !ok {
		return nil, nil
	}
	out := cfg
	return &out, nil
}

// SaveTwoFactorConfig describes the savetwofactorconfig operation and its observable behavior.
//
// SaveTwoFactorConfig may return an error when input validation, dependency calls, or security checks fail.
// SaveTwoFactorConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *MemoryTwoFactorStore) SaveTwoFactorConfig(_ context.Context, userID string, cfg *TwoFactorConfig) error {
	if cfg == nil {
		return ErrTwoFactorStoreUnavailable
	}

	s.mu.Lock()
	s.configs[userID] = *cfg
	s.mu.Unlock()
	return nil
}

// ClearTwoFactorConfig describes the cleartwofactorconfig operation and its observable behavior.
//
// ClearTwoFactorConfig may return an error when input validation, dependency calls, or security checks fail.
// ClearTwoFactorConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *MemoryTwoFactorStore) ClearTwoFactorConfig(_ context.Context, userID string) error {
	s.mu.Lock()
	delete(s.configs, userID)
	s.mu.Unlock()
	return nil
}
