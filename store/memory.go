package store

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is an in-memory Store. Pages are returned in id order and the
// page token is the last id of the previous page.
type MemoryStore struct {
	mu       sync.RWMutex
	records  map[string]Record
	status   Status
	pageSize int
	closed   bool
}

// NewMemoryStore creates an empty, ACTIVE in-memory store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	return &MemoryStore{
		records:  make(map[string]Record),
		status:   StatusActive,
		pageSize: applyOptions(opts).pageSize,
	}
}

// Get returns the record with the given id.
func (s *MemoryStore) Get(ctx context.Context, id string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return Record{}, ErrClosed
	}
	rec, ok := s.records[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

// Put writes rec, replacing any record with the same id.
func (s *MemoryStore) Put(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := rec.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	s.records[rec.ID] = rec
	return nil
}

// Scan returns up to the page size of records with ids after pageToken.
func (s *MemoryStore) Scan(ctx context.Context, pageToken string) (Page, error) {
	if err := ctx.Err(); err != nil {
		return Page{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return Page{}, ErrClosed
	}

	ids := make([]string, 0, len(s.records))
	for id := range s.records {
		if id > pageToken {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	var page Page
	if len(ids) > s.pageSize {
		ids = ids[:s.pageSize]
		page.NextToken = ids[len(ids)-1]
	}

	page.Records = make([]Record, 0, len(ids))
	for _, id := range ids {
		page.Records = append(page.Records, s.records[id])
	}
	return page, nil
}

// DescribeStatus returns the table state set with SetStatus (ACTIVE by default).
func (s *MemoryStore) DescribeStatus(ctx context.Context) (Status, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return "", ErrClosed
	}
	return s.status, nil
}

// SetStatus changes the state DescribeStatus reports.
func (s *MemoryStore) SetStatus(status Status) {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()
}

// Len returns the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Snapshot returns a copy of every stored record keyed by id.
func (s *MemoryStore) Snapshot() map[string]Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]Record, len(s.records))
	for id, rec := range s.records {
		out[id] = rec
	}
	return out
}

// Close marks the store closed. Subsequent calls fail with ErrClosed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

var _ Store = (*MemoryStore)(nil)
