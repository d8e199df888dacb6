package export

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no export exists for a given id.
var ErrNotFound = errors.New("no export with requested id")

// Record is one generated workbook held for download.
type Record struct {
	ID        string
	Filename  string
	Data      []byte
	CreatedAt time.Time
}

// Store is a concurrency-safe in-memory holder of generated exports.
// Exports are ephemeral: retention is enforced by count on insert and by
// age through Sweep.
type Store struct {
	mu sync.RWMutex

	records map[string]*Record
	order   []string // ids in insertion order

	maxHistory int           // max number of retained exports (0 = unlimited)
	maxAge     time.Duration // max age of an export (0 = unlimited)
}

// NewStore creates a Store with optional limits. maxHistory <= 0 means
// unlimited.
func NewStore(maxHistory int, maxAge time.Duration) *Store {
	return &Store{
		records:    make(map[string]*Record),
		maxHistory: maxHistory,
		maxAge:     maxAge,
	}
}

// Put stores a workbook under a fresh id and enforces count retention.
func (s *Store) Put(filename string, data []byte) *Record {
	rec := &Record{
		ID:        uuid.NewString(),
		Filename:  filename,
		Data:      data,
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[rec.ID] = rec
	s.order = append(s.order, rec.ID)

	if s.maxHistory > 0 && len(s.order) > s.maxHistory {
		over := len(s.order) - s.maxHistory
		for _, id := range s.order[:over] {
			delete(s.records, id)
		}
		s.order = s.order[over:]
	}

	return rec
}

// Get returns the export stored under id.
func (s *Store) Get(id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return rec, nil
}

// Len returns the number of retained exports.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Sweep drops exports older than the configured max age and returns how
// many were removed. A zero max age disables age-based retention.
func (s *Store) Sweep() int {
	if s.maxAge <= 0 {
		return 0
	}
	cutoff := time.Now().UTC().Add(-s.maxAge)

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.order[:0]
	removed := 0
	for _, id := range s.order {
		rec := s.records[id]
		if rec.CreatedAt.Before(cutoff) {
			delete(s.records, id)
			removed++
			continue
		}
		kept = append(kept, id)
	}
	s.order = kept
	return removed
}
