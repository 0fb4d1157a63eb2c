package storage

import "sync"

// MemoryKV implements KV with an in-memory map. It backs tests and the
// "memory" storage backend, where history lives only for the process
// lifetime.
type MemoryKV struct {
	mu         sync.RWMutex
	values     map[string][]byte
	quotaBytes int64
}

// NewMemoryKV returns an empty in-memory KV. quotaBytes <= 0 disables
// the capacity check.
func NewMemoryKV(quotaBytes int64) *MemoryKV {
	return &MemoryKV{values: make(map[string][]byte), quotaBytes: quotaBytes}
}

// Get reads the value stored under key.
func (s *MemoryKV) Get(key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	copied := make([]byte, len(value))
	copy(copied, value)
	return copied, nil
}

// Set stores the value under key, enforcing the byte quota.
func (s *MemoryKV) Set(key string, value []byte) error {
	if s.quotaBytes > 0 && int64(len(value)) > s.quotaBytes {
		return ErrQuotaExceeded
	}
	copied := make([]byte, len(value))
	copy(copied, value)

	s.mu.Lock()
	s.values[key] = copied
	s.mu.Unlock()
	return nil
}

// Remove deletes the value under key. Absent keys are a no-op.
func (s *MemoryKV) Remove(key string) error {
	s.mu.Lock()
	delete(s.values, key)
	s.mu.Unlock()
	return nil
}

// Close is a no-op for the memory backend.
func (s *MemoryKV) Close() error { return nil }
