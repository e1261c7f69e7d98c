package progress

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrNotFound is returned by a Store when the student has no record yet.
var ErrNotFound = errors.New("progress not found")

// IsNotFound reports whether err means "no record yet".
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// Store persists one StudentProgress per student id.
type Store interface {
	Load(ctx context.Context, studentID string) (*StudentProgress, error)
	Save(ctx context.Context, studentID string, p *StudentProgress) error
}

// MemoryStore keeps encoded records in memory. Records go through the same
// JSON encoding as the durable stores.
type MemoryStore struct {
	records map[string][]byte
	mu      sync.RWMutex
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string][]byte)}
}

func (s *MemoryStore) Load(_ context.Context, studentID string) (*StudentProgress, error) {
	s.mu.RLock()
	data, ok := s.records[studentID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	p, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode progress %s: %w", studentID, err)
	}
	return p, nil
}

func (s *MemoryStore) Save(_ context.Context, studentID string, p *StudentProgress) error {
	data, err := encode(p)
	if err != nil {
		return fmt.Errorf("encode progress %s: %w", studentID, err)
	}
	s.mu.Lock()
	s.records[studentID] = data
	s.mu.Unlock()
	return nil
}

// Put stores raw bytes for a student. Tests use it to plant corrupt records.
func (s *MemoryStore) Put(studentID string, data []byte) {
	s.mu.Lock()
	s.records[studentID] = data
	s.mu.Unlock()
}
