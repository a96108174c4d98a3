// Package ledger implements the append-only, hash-chained audit trail.
// Entries accumulate into fixed-size batches; sealing a batch computes a
// Merkle root over the entry hashes and persists it as a commitment.
// Per-identity payload encryption makes GDPR erasure a key destruction.
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"vigil/internal/ledger/metrics"
	"vigil/pkg/domain"
	dErrors "vigil/pkg/domain-errors"
)

// DefaultBatchSize is the number of entries a batch holds before sealing.
const DefaultBatchSize = 100

// Ledger owns the global sequence and the currently open batch. Appends are
// synchronous: an entry either lands in durable storage or the caller gets
// an error it must treat as fatal. Commit persistence after a seal runs on
// a background worker so ingest is not blocked on the commitment write.
type Ledger struct {
	store     Store
	keyring   *Keyring
	logger    *slog.Logger
	metrics   *metrics.Metrics
	batchSize int
	now       func() time.Time

	mu      sync.Mutex
	seq     uint64
	batchID domain.BatchID
	open    []Entry

	commitCh chan Commit
	sealedCh chan Commit
	fatalCh  chan error
}

type Option func(*Ledger)

func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		if logger != nil {
			l.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Ledger) { l.metrics = m }
}

func WithBatchSize(n int) Option {
	return func(l *Ledger) {
		if n > 0 {
			l.batchSize = n
		}
	}
}

// WithClock overrides the time source. Test use only.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		if now != nil {
			l.now = now
		}
	}
}

// New creates a ledger and writes its genesis entry. The genesis record
// anchors the chain so an empty store is distinguishable from a truncated
// one.
func New(ctx context.Context, store Store, keyring *Keyring, opts ...Option) (*Ledger, error) {
	l := &Ledger{
		store:     store,
		keyring:   keyring,
		logger:    slog.Default(),
		batchSize: DefaultBatchSize,
		now:       time.Now,
		batchID:   domain.NewBatchID(),
		commitCh:  make(chan Commit, 16),
		sealedCh:  make(chan Commit, 16),
		fatalCh:   make(chan error, 1),
	}
	for _, opt := range opts {
		opt(l)
	}

	genesis, err := json.Marshal(map[string]string{"event": "ledger_initialized"})
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "marshal genesis payload", err)
	}
	if _, err := l.Append(ctx, Record{
		Kind:      KindGenesis,
		Timestamp: l.now().UTC(),
		Payload:   genesis,
	}); err != nil {
		return nil, err
	}
	return l, nil
}

// Append commits one record. Personal payloads (non-nil identity) are
// encrypted under the identity's key before storage; the content hash and
// the Merkle leaf both cover the stored bytes, so later redaction leaves
// every commitment verifiable.
func (l *Ledger) Append(ctx context.Context, rec Record) (Entry, error) {
	if rec.Kind == "" {
		return Entry{}, dErrors.New(dErrors.CodeInvalidInput, "ledger record requires a kind")
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = l.now().UTC()
	}

	stored := rec.Payload
	encrypted := false
	if !rec.Identity.IsNil() {
		sealed, err := l.keyring.Seal(rec.Identity, rec.Payload)
		if err != nil {
			return Entry{}, dErrors.Wrap(dErrors.CodeInternal, "seal ledger payload", err)
		}
		stored = sealed
		encrypted = true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	entry := Entry{
		Sequence:    l.seq,
		BatchID:     l.batchID,
		BatchIndex:  len(l.open),
		Kind:        rec.Kind,
		Identity:    rec.Identity,
		Timestamp:   rec.Timestamp,
		Payload:     stored,
		Encrypted:   encrypted,
		ContentHash: LeafHash(stored),
	}
	entry.PayloadRef = fmt.Sprintf("vigil://ledger/%s/%d", entry.BatchID, entry.BatchIndex)

	if err := l.store.AppendEntry(ctx, entry); err != nil {
		// An entry the store refused must not advance the sequence; the
		// caller halts ingest rather than drop audit coverage.
		return Entry{}, err
	}

	l.seq++
	l.open = append(l.open, entry)
	l.metrics.IncAppended(string(entry.Kind))
	l.metrics.SetOpenEntries(len(l.open))

	if len(l.open) >= l.batchSize {
		l.sealLocked()
	}
	return entry, nil
}

// sealLocked computes the open batch's commitment and hands it to the
// persistence worker. Caller holds l.mu.
func (l *Ledger) sealLocked() {
	leaves := make([][]byte, len(l.open))
	for i, e := range l.open {
		leaves[i] = e.ContentHash
	}
	commit := Commit{
		BatchID:    l.batchID,
		RootHash:   MerkleRoot(leaves),
		EntryCount: len(l.open),
		FirstSeq:   l.open[0].Sequence,
		SealedAt:   l.now().UTC(),
	}

	l.logger.Info("ledger batch sealed",
		slog.String("batch_id", commit.BatchID.String()),
		slog.Int("entries", commit.EntryCount),
		slog.Uint64("first_seq", commit.FirstSeq),
	)
	l.metrics.IncSealed()

	l.batchID = domain.NewBatchID()
	l.open = l.open[:0]
	l.metrics.SetOpenEntries(0)

	select {
	case l.commitCh <- commit:
	default:
		// Worker backlog full. Block outside fast path would stall ingest;
		// persist inline instead so no commitment is ever lost.
		if err := l.store.SaveCommit(context.Background(), commit); err != nil {
			l.reportFatal(err)
			return
		}
		l.notifySealed(commit)
	}
}

// Run drives commit persistence until ctx is cancelled. A failed commit
// write surfaces on Fatal(); the orchestrator treats it as a pipeline halt.
func (l *Ledger) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case commit := <-l.commitCh:
			if err := l.store.SaveCommit(ctx, commit); err != nil {
				l.metrics.IncCommitError()
				l.logger.Error("persist ledger commit",
					slog.String("batch_id", commit.BatchID.String()),
					slog.String("error", err.Error()),
				)
				l.reportFatal(err)
				return err
			}
			l.notifySealed(commit)
		}
	}
}

func (l *Ledger) reportFatal(err error) {
	select {
	case l.fatalCh <- err:
	default:
	}
}

func (l *Ledger) notifySealed(commit Commit) {
	select {
	case l.sealedCh <- commit:
	default:
		l.logger.Warn("sealed-batch subscriber lagging, dropping notification",
			slog.String("batch_id", commit.BatchID.String()))
	}
}

// Sealed exposes persisted commitments for export.
func (l *Ledger) Sealed() <-chan Commit { return l.sealedCh }

// Fatal reports an unrecoverable storage failure, if one occurred.
func (l *Ledger) Fatal() <-chan error { return l.fatalCh }

// Seal force-seals the open batch regardless of fill level. Used on
// shutdown so the tail of the stream still gets a commitment.
func (l *Ledger) Seal() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.open) == 0 {
		return
	}
	l.sealLocked()
}

// Close seals the open batch and persists any commitment the background
// worker has not picked up. Call after the worker has stopped.
func (l *Ledger) Close(ctx context.Context) error {
	l.Seal()
	for {
		select {
		case commit := <-l.commitCh:
			if err := l.store.SaveCommit(ctx, commit); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

// VerifyIntegrity recomputes the Merkle root of a sealed batch from its
// stored entries and compares it with the persisted commitment. Redacted
// entries verify like any other: hashes cover ciphertext.
func (l *Ledger) VerifyIntegrity(ctx context.Context, batchID domain.BatchID) error {
	commit, err := l.store.CommitByBatch(ctx, batchID)
	if err != nil {
		return err
	}
	entries, err := l.store.EntriesByBatch(ctx, batchID)
	if err != nil {
		return err
	}
	if len(entries) != commit.EntryCount {
		return dErrors.Newf(dErrors.CodeIntegrity,
			"batch %s holds %d entries, commitment covers %d", batchID, len(entries), commit.EntryCount)
	}
	leaves := make([][]byte, len(entries))
	for i, e := range entries {
		if !bytes.Equal(e.ContentHash, LeafHash(e.Payload)) {
			return dErrors.Newf(dErrors.CodeIntegrity,
				"entry %d of batch %s does not match its content hash", e.Sequence, batchID)
		}
		leaves[i] = e.ContentHash
	}
	if !bytes.Equal(MerkleRoot(leaves), commit.RootHash) {
		return dErrors.Newf(dErrors.CodeIntegrity, "batch %s root hash mismatch", batchID)
	}
	return nil
}

// Redact destroys the identity's encryption key and records the erasure as
// a ledger event of its own. Idempotent: redacting an unknown or already
// redacted identity still succeeds and still leaves an audit record.
func (l *Ledger) Redact(ctx context.Context, id domain.PersonID) error {
	if id.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "redaction requires an identity")
	}
	l.keyring.Destroy(id)
	l.metrics.IncRedaction()

	payload, err := json.Marshal(map[string]string{
		"event":    "identity_redacted",
		"identity": id.String(),
	})
	if err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "marshal redaction payload", err)
	}
	// The redaction record itself carries no protected payload, so it is
	// stored in the clear under the nil identity.
	if _, err := l.Append(ctx, Record{Kind: KindRedaction, Payload: payload}); err != nil {
		return err
	}
	l.logger.Info("identity redacted", slog.String("identity", id.String()))
	return nil
}

// Open decrypts a stored entry's payload. Plain entries return their bytes
// unchanged; entries whose key was destroyed return ErrRedacted.
func (l *Ledger) Open(entry Entry) ([]byte, error) {
	if !entry.Encrypted {
		return entry.Payload, nil
	}
	return l.keyring.Open(entry.Identity, entry.Payload)
}
