package ledger

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"vigil/pkg/domain"
	dErrors "vigil/pkg/domain-errors"
)

// PostgresStore persists entries and commits to Postgres. Commits are
// written inside a transaction so a crash mid-seal never leaves a batch
// half-committed; entries of the open batch are appended row by row.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps an open database handle. Schema is managed by
// EnsureSchema so tests against throwaway containers can self-provision.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the ledger tables when absent.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS ledger_entries (
	seq          BIGINT PRIMARY KEY,
	batch_id     UUID NOT NULL,
	batch_index  INT NOT NULL,
	kind         TEXT NOT NULL,
	identity     UUID,
	ts           TIMESTAMPTZ NOT NULL,
	payload      BYTEA NOT NULL,
	encrypted    BOOLEAN NOT NULL,
	content_hash BYTEA NOT NULL,
	payload_ref  TEXT NOT NULL,
	UNIQUE (batch_id, batch_index)
);
CREATE TABLE IF NOT EXISTS ledger_commits (
	batch_id    UUID PRIMARY KEY,
	root_hash   BYTEA NOT NULL,
	entry_count INT NOT NULL,
	first_seq   BIGINT NOT NULL,
	sealed_at   TIMESTAMPTZ NOT NULL
);`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "ensure ledger schema", err)
	}
	return nil
}

func (s *PostgresStore) AppendEntry(ctx context.Context, entry Entry) error {
	var identity any
	if !entry.Identity.IsNil() {
		identity = uuid.UUID(entry.Identity).String()
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO ledger_entries (seq, batch_id, batch_index, kind, identity, ts, payload, encrypted, content_hash, payload_ref)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		int64(entry.Sequence),
		uuid.UUID(entry.BatchID).String(),
		entry.BatchIndex,
		string(entry.Kind),
		identity,
		entry.Timestamp,
		entry.Payload,
		entry.Encrypted,
		entry.ContentHash,
		entry.PayloadRef,
	)
	if err != nil {
		// Audit completeness beats availability: the caller halts on this.
		return dErrors.Wrap(dErrors.CodeInternal, "append ledger entry", err)
	}
	return nil
}

func (s *PostgresStore) SaveCommit(ctx context.Context, commit Commit) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO ledger_commits (batch_id, root_hash, entry_count, first_seq, sealed_at)
VALUES ($1, $2, $3, $4, $5)`,
		uuid.UUID(commit.BatchID).String(),
		commit.RootHash,
		commit.EntryCount,
		int64(commit.FirstSeq),
		commit.SealedAt,
	)
	if err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "save ledger commit", err)
	}
	return nil
}

func (s *PostgresStore) EntriesByBatch(ctx context.Context, batchID domain.BatchID) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT seq, batch_index, kind, identity, ts, payload, encrypted, content_hash, payload_ref
FROM ledger_entries WHERE batch_id = $1 ORDER BY batch_index`,
		uuid.UUID(batchID).String(),
	)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "query ledger entries", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e        Entry
			seq      int64
			identity sql.NullString
		)
		e.BatchID = batchID
		if err := rows.Scan(&seq, &e.BatchIndex, &e.Kind, &identity, &e.Timestamp, &e.Payload, &e.Encrypted, &e.ContentHash, &e.PayloadRef); err != nil {
			return nil, dErrors.Wrap(dErrors.CodeInternal, "scan ledger entry", err)
		}
		e.Sequence = uint64(seq)
		if identity.Valid {
			id, err := uuid.Parse(identity.String)
			if err != nil {
				return nil, dErrors.Wrap(dErrors.CodeInternal, "parse entry identity", err)
			}
			e.Identity = domain.PersonID(id)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "iterate ledger entries", err)
	}
	if len(entries) == 0 {
		return nil, ErrBatchNotFound
	}
	return entries, nil
}

func (s *PostgresStore) CommitByBatch(ctx context.Context, batchID domain.BatchID) (Commit, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT root_hash, entry_count, first_seq, sealed_at
FROM ledger_commits WHERE batch_id = $1`,
		uuid.UUID(batchID).String(),
	)
	commit := Commit{BatchID: batchID}
	var firstSeq int64
	if err := row.Scan(&commit.RootHash, &commit.EntryCount, &firstSeq, &commit.SealedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Commit{}, ErrBatchNotFound
		}
		return Commit{}, dErrors.Wrap(dErrors.CodeInternal, "query ledger commit", err)
	}
	commit.FirstSeq = uint64(firstSeq)
	return commit, nil
}

func (s *PostgresStore) Commits(ctx context.Context) ([]Commit, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT batch_id, root_hash, entry_count, first_seq, sealed_at
FROM ledger_commits ORDER BY first_seq`)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "query ledger commits", err)
	}
	defer rows.Close()

	var commits []Commit
	for rows.Next() {
		var (
			c        Commit
			batchID  string
			firstSeq int64
		)
		if err := rows.Scan(&batchID, &c.RootHash, &c.EntryCount, &firstSeq, &c.SealedAt); err != nil {
			return nil, dErrors.Wrap(dErrors.CodeInternal, "scan ledger commit", err)
		}
		id, err := uuid.Parse(batchID)
		if err != nil {
			return nil, dErrors.Wrap(dErrors.CodeInternal, "parse commit batch id", err)
		}
		c.BatchID = domain.BatchID(id)
		c.FirstSeq = uint64(firstSeq)
		commits = append(commits, c)
	}
	return commits, rows.Err()
}
