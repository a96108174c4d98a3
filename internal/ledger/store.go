package ledger

import (
	"context"

	"vigil/pkg/domain"
	dErrors "vigil/pkg/domain-errors"
)

// ErrBatchNotFound keeps store-specific misses consistent across
// implementations.
var ErrBatchNotFound = dErrors.New(dErrors.CodeNotFound, "batch not found")

// Store persists entries and sealed commits. Implementations must be
// append-only: sealed batches are never rewritten, and a crash mid-commit
// must never corrupt a previously sealed batch.
type Store interface {
	AppendEntry(ctx context.Context, entry Entry) error
	SaveCommit(ctx context.Context, commit Commit) error
	EntriesByBatch(ctx context.Context, batchID domain.BatchID) ([]Entry, error)
	CommitByBatch(ctx context.Context, batchID domain.BatchID) (Commit, error)
	Commits(ctx context.Context) ([]Commit, error)
}
