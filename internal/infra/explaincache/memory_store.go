package explaincache

import (
	"context"
	"sync"
	"time"

	"github.com/yanqian/price-predictor/internal/domain/pricing"
)

const defaultMaxEntries = 1024

type entry struct {
	text      string
	expiresAt time.Time
}

// MemoryStore keeps explanations in process memory. Once full, the oldest key is evicted.
type MemoryStore struct {
	mu         sync.RWMutex
	entries    map[string]entry
	order      []string
	maxEntries int
	now        func() time.Time
}

// NewMemoryStore constructs a store holding at most maxEntries explanations.
func NewMemoryStore(maxEntries int) *MemoryStore {
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	return &MemoryStore{
		entries:    make(map[string]entry),
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// Get implements pricing.ExplanationCache.
func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	record, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return "", false, nil
	}
	if s.hasExpired(record.expiresAt) {
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		return "", false, nil
	}
	return record.text, true, nil
}

// Set caches text with an optional TTL.
func (s *MemoryStore) Set(_ context.Context, key, text string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp := time.Time{}
	if ttl > 0 {
		exp = s.now().Add(ttl)
	}
	if _, exists := s.entries[key]; !exists {
		s.order = append(s.order, key)
	}
	s.entries[key] = entry{text: text, expiresAt: exp}
	s.evict()
	return nil
}

// Len reports the number of stored keys, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// evict must be called with the write lock held.
func (s *MemoryStore) evict() {
	for len(s.entries) > s.maxEntries && len(s.order) > 0 {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.entries, oldest)
	}
	if len(s.order) > 2*s.maxEntries {
		live := make([]string, 0, len(s.entries))
		for _, key := range s.order {
			if _, ok := s.entries[key]; ok {
				live = append(live, key)
			}
		}
		s.order = live
	}
}

func (s *MemoryStore) hasExpired(ts time.Time) bool {
	if ts.IsZero() {
		return false
	}
	return ts.Before(s.now())
}

var _ pricing.ExplanationCache = (*MemoryStore)(nil)
