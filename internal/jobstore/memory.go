package jobstore

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is the in-process Store variant used by tests and by
// development runs without Redis. Semantics mirror RedisStore, including
// record expiry.
type MemoryStore struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	records map[string]memoryRecord
}

type memoryRecord struct {
	fields    map[string]string
	expiresAt time.Time
}

// NewMemoryStore creates an empty store with the given retention window.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		ttl:     ttl,
		now:     time.Now,
		records: make(map[string]memoryRecord),
	}
}

func (s *MemoryStore) Create(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fields := make(map[string]string)
	for k, v := range createFields(rec) {
		fields[k] = v
	}
	s.records[rec.JobID] = memoryRecord{
		fields:    fields,
		expiresAt: s.now().Add(s.ttl),
	}
	return nil
}

func (s *MemoryStore) Update(_ context.Context, jobID string, fields Fields) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[jobID]
	if !ok || s.now().After(rec.expiresAt) {
		// Field upsert on a missing key creates it, like Redis HSET. The
		// recreated record gets a fresh retention window.
		rec = memoryRecord{
			fields:    make(map[string]string),
			expiresAt: s.now().Add(s.ttl),
		}
	}
	for k, v := range fields {
		rec.fields[k] = v
	}
	s.records[jobID] = rec
	return nil
}

func (s *MemoryStore) Get(_ context.Context, jobID string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[jobID]
	if !ok || s.now().After(rec.expiresAt) {
		return Record{}, ErrNotFound
	}

	fields := make(map[string]string, len(rec.fields))
	for k, v := range rec.fields {
		fields[k] = v
	}
	return recordFromFields(jobID, fields), nil
}

func (s *MemoryStore) Delete(_ context.Context, jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, jobID)
	return nil
}
