package ledger

import (
	"context"
	"sync"

	"vigil/pkg/domain"
)

// InMemoryStore keeps the initial implementation lightweight and testable.
// It intentionally favors clarity over performance.
type InMemoryStore struct {
	mu      sync.RWMutex
	byBatch map[domain.BatchID][]Entry
	commits map[domain.BatchID]Commit
	sealed  []Commit
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byBatch: make(map[domain.BatchID][]Entry),
		commits: make(map[domain.BatchID]Commit),
	}
}

func (s *InMemoryStore) AppendEntry(_ context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byBatch[entry.BatchID] = append(s.byBatch[entry.BatchID], entry)
	return nil
}

func (s *InMemoryStore) SaveCommit(_ context.Context, commit Commit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commits[commit.BatchID] = commit
	s.sealed = append(s.sealed, commit)
	return nil
}

func (s *InMemoryStore) EntriesByBatch(_ context.Context, batchID domain.BatchID) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries, ok := s.byBatch[batchID]
	if !ok {
		return nil, ErrBatchNotFound
	}
	return append([]Entry{}, entries...), nil
}

func (s *InMemoryStore) CommitByBatch(_ context.Context, batchID domain.BatchID) (Commit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	commit, ok := s.commits[batchID]
	if !ok {
		return Commit{}, ErrBatchNotFound
	}
	return commit, nil
}

func (s *InMemoryStore) Commits(_ context.Context) ([]Commit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Commit{}, s.sealed...), nil
}

// Tamper overwrites a stored entry's payload. Test helper for integrity
// checks; nothing in the pipeline calls it.
func (s *InMemoryStore) Tamper(batchID domain.BatchID, index int, payload []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := s.byBatch[batchID]
	if index < 0 || index >= len(entries) {
		return false
	}
	entries[index].Payload = payload
	return true
}
