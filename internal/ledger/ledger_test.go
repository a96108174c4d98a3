package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vigil/pkg/domain"
	dErrors "vigil/pkg/domain-errors"
)

func newTestLedger(t *testing.T, opts ...Option) (*Ledger, *InMemoryStore) {
	t.Helper()
	store := NewInMemoryStore()
	opts = append([]Option{WithBatchSize(4)}, opts...)
	l, err := New(context.Background(), store, NewKeyring(), opts...)
	require.NoError(t, err)
	return l, store
}

func drainSeals(ctx context.Context, t *testing.T, l *Ledger, n int) []Commit {
	t.Helper()
	commits := make([]Commit, 0, n)
	for len(commits) < n {
		select {
		case c := <-l.Sealed():
			commits = append(commits, c)
		case <-ctx.Done():
			t.Fatalf("timed out waiting for %d sealed batches, got %d", n, len(commits))
		}
	}
	return commits
}

func TestLedgerGenesis(t *testing.T) {
	l, _ := newTestLedger(t)

	// The genesis entry occupies sequence zero of the first batch.
	l.mu.Lock()
	defer l.mu.Unlock()
	require.Len(t, l.open, 1)
	assert.Equal(t, KindGenesis, l.open[0].Kind)
	assert.Equal(t, uint64(0), l.open[0].Sequence)
	assert.False(t, l.open[0].Encrypted)
}

func TestLedgerAppendAssignsGaplessSequence(t *testing.T) {
	l, _ := newTestLedger(t, WithBatchSize(100))
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		entry, err := l.Append(ctx, Record{
			Kind:    KindVerdict,
			Payload: []byte(fmt.Sprintf(`{"n":%d}`, i)),
		})
		require.NoError(t, err)
		assert.Equal(t, uint64(i+1), entry.Sequence, "genesis holds seq 0")
	}
}

func TestLedgerSealsAtBatchSize(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	l, store := newTestLedger(t) // batch size 4, genesis takes one slot
	go func() { _ = l.Run(ctx) }()

	var firstBatch domain.BatchID
	for i := 0; i < 3; i++ {
		entry, err := l.Append(ctx, Record{Kind: KindVerdict, Payload: []byte(`{}`)})
		require.NoError(t, err)
		firstBatch = entry.BatchID
	}

	commits := drainSeals(ctx, t, l, 1)
	commit := commits[0]
	assert.Equal(t, firstBatch, commit.BatchID)
	assert.Equal(t, 4, commit.EntryCount)
	assert.Equal(t, uint64(0), commit.FirstSeq)
	assert.NotEmpty(t, commit.RootHash)

	stored, err := store.CommitByBatch(ctx, commit.BatchID)
	require.NoError(t, err)
	assert.Equal(t, commit.RootHash, stored.RootHash)

	// The next append opens a fresh batch.
	entry, err := l.Append(ctx, Record{Kind: KindVerdict, Payload: []byte(`{}`)})
	require.NoError(t, err)
	assert.NotEqual(t, firstBatch, entry.BatchID)
	assert.Equal(t, 0, entry.BatchIndex)
}

func TestLedgerEncryptsPersonalPayloads(t *testing.T) {
	l, store := newTestLedger(t, WithBatchSize(100))
	ctx := context.Background()
	id := domain.NewPersonID()

	payload, err := json.Marshal(map[string]string{"status": "violation"})
	require.NoError(t, err)

	entry, err := l.Append(ctx, Record{Kind: KindVerdict, Identity: id, Payload: payload})
	require.NoError(t, err)
	assert.True(t, entry.Encrypted)
	assert.NotEqual(t, payload, entry.Payload)

	entries, err := store.EntriesByBatch(ctx, entry.BatchID)
	require.NoError(t, err)
	stored := entries[len(entries)-1]
	assert.NotContains(t, string(stored.Payload), "violation")

	plain, err := l.Open(stored)
	require.NoError(t, err)
	assert.Equal(t, payload, plain)
}

func TestLedgerVerifyIntegrity(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	l, store := newTestLedger(t)
	go func() { _ = l.Run(ctx) }()

	id := domain.NewPersonID()
	for i := 0; i < 3; i++ {
		_, err := l.Append(ctx, Record{Kind: KindVerdict, Identity: id, Payload: []byte(`{"i":1}`)})
		require.NoError(t, err)
	}
	commit := drainSeals(ctx, t, l, 1)[0]

	require.NoError(t, l.VerifyIntegrity(ctx, commit.BatchID))

	t.Run("tampered payload fails verification", func(t *testing.T) {
		require.True(t, store.Tamper(commit.BatchID, 1, []byte("altered")))
		err := l.VerifyIntegrity(ctx, commit.BatchID)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeIntegrity))
	})

	t.Run("unknown batch", func(t *testing.T) {
		err := l.VerifyIntegrity(ctx, domain.NewBatchID())
		assert.ErrorIs(t, err, ErrBatchNotFound)
	})
}

func TestLedgerRedactionPreservesIntegrity(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	l, store := newTestLedger(t)
	go func() { _ = l.Run(ctx) }()

	id := domain.NewPersonID()
	var batchID domain.BatchID
	for i := 0; i < 3; i++ {
		entry, err := l.Append(ctx, Record{Kind: KindVerdict, Identity: id, Payload: []byte(`{"loc":"lab-1"}`)})
		require.NoError(t, err)
		batchID = entry.BatchID
	}
	commit := drainSeals(ctx, t, l, 1)[0]
	require.Equal(t, batchID, commit.BatchID)

	require.NoError(t, l.Redact(ctx, id))

	// Payloads are unreadable, the commitment still verifies.
	entries, err := store.EntriesByBatch(ctx, batchID)
	require.NoError(t, err)
	for _, e := range entries {
		if !e.Encrypted {
			continue
		}
		_, err := l.Open(e)
		assert.ErrorIs(t, err, ErrRedacted)
	}
	assert.NoError(t, l.VerifyIntegrity(ctx, batchID))

	// Redaction is recorded as its own event.
	l.mu.Lock()
	var sawRedaction bool
	for _, e := range l.open {
		if e.Kind == KindRedaction {
			sawRedaction = true
		}
	}
	l.mu.Unlock()
	assert.True(t, sawRedaction)

	// Idempotent.
	require.NoError(t, l.Redact(ctx, id))
}

func TestLedgerSealFlushesPartialBatch(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	l, _ := newTestLedger(t, WithBatchSize(100))
	go func() { _ = l.Run(ctx) }()

	_, err := l.Append(ctx, Record{Kind: KindAlert, Payload: []byte(`{}`)})
	require.NoError(t, err)

	l.Seal()
	commit := drainSeals(ctx, t, l, 1)[0]
	assert.Equal(t, 2, commit.EntryCount) // genesis plus the alert

	// Sealing an empty batch is a no-op.
	l.Seal()
	l.mu.Lock()
	assert.Empty(t, l.open)
	l.mu.Unlock()
}

type failingStore struct {
	*InMemoryStore
	failAppend bool
}

func (s *failingStore) AppendEntry(ctx context.Context, entry Entry) error {
	if s.failAppend {
		return dErrors.New(dErrors.CodeInternal, "disk unavailable")
	}
	return s.InMemoryStore.AppendEntry(ctx, entry)
}

func TestLedgerAppendFailureDoesNotAdvanceSequence(t *testing.T) {
	store := &failingStore{InMemoryStore: NewInMemoryStore()}
	l, err := New(context.Background(), store, NewKeyring(), WithBatchSize(100))
	require.NoError(t, err)

	store.failAppend = true
	_, err = l.Append(context.Background(), Record{Kind: KindVerdict, Payload: []byte(`{}`)})
	require.Error(t, err)

	store.failAppend = false
	entry, err := l.Append(context.Background(), Record{Kind: KindVerdict, Payload: []byte(`{}`)})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), entry.Sequence)
}
