package httptransport

import (
	"context"
	"encoding/hex"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"vigil/internal/ledger"
	"vigil/pkg/domain"
	"vigil/pkg/platform/httputil"
	"vigil/pkg/requestcontext"
)

// LedgerAdmin is the administrative surface of the ledger.
type LedgerAdmin interface {
	VerifyIntegrity(ctx context.Context, batchID domain.BatchID) error
	Redact(ctx context.Context, id domain.PersonID) error
}

// CommitLister lists persisted batch commitments.
type CommitLister interface {
	Commits(ctx context.Context) ([]ledger.Commit, error)
}

// LedgerHandler serves ledger administration. Every route here sits behind
// the admin JWT guard.
type LedgerHandler struct {
	admin   LedgerAdmin
	commits CommitLister
	logger  *slog.Logger
}

func NewLedgerHandler(admin LedgerAdmin, commits CommitLister, logger *slog.Logger) *LedgerHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &LedgerHandler{admin: admin, commits: commits, logger: logger}
}

// Register mounts ledger endpoints on the router.
func (h *LedgerHandler) Register(r chi.Router) {
	r.Get("/ledger/commits", h.HandleListCommits)
	r.Post("/ledger/batches/{batchID}/verify", h.HandleVerify)
	r.Post("/ledger/redactions", h.HandleRedact)
}

type commitResponse struct {
	BatchID    string `json:"batch_id"`
	RootHash   string `json:"root_hash"`
	EntryCount int    `json:"entry_count"`
	FirstSeq   uint64 `json:"first_seq"`
	SealedAt   string `json:"sealed_at"`
}

// HandleListCommits handles GET /v1/ledger/commits.
func (h *LedgerHandler) HandleListCommits(w http.ResponseWriter, r *http.Request) {
	commits, err := h.commits.Commits(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]commitResponse, 0, len(commits))
	for _, c := range commits {
		out = append(out, commitResponse{
			BatchID:    c.BatchID.String(),
			RootHash:   hex.EncodeToString(c.RootHash),
			EntryCount: c.EntryCount,
			FirstSeq:   c.FirstSeq,
			SealedAt:   c.SealedAt.UTC().Format(time.RFC3339),
		})
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"commits": out})
}

// HandleVerify handles POST /v1/ledger/batches/{batchID}/verify.
func (h *LedgerHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	batchID, err := domain.ParseBatchID(chi.URLParam(r, "batchID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.admin.VerifyIntegrity(ctx, batchID); err != nil {
		h.logger.ErrorContext(ctx, "batch verification failed",
			"request_id", requestcontext.RequestID(ctx),
			"actor", requestcontext.Actor(ctx),
			"batch_id", batchID.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"batch_id": batchID.String(),
		"intact":   true,
	})
}

type redactRequest struct {
	Identity string `json:"identity"`
}

// HandleRedact handles POST /v1/ledger/redactions.
func (h *LedgerHandler) HandleRedact(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, err := httputil.Decode[redactRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	id, err := domain.ParsePersonID(req.Identity)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.admin.Redact(ctx, id); err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "identity redacted via admin api",
		"request_id", requestcontext.RequestID(ctx),
		"actor", requestcontext.Actor(ctx),
		"identity", id.String(),
	)
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"identity": id.String(),
		"status":   "redacted",
	})
}
