package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"vigil/internal/schedule"
	"vigil/pkg/platform/httputil"
	"vigil/pkg/requestcontext"
)

// ScheduleHandler serves timetable reloads. A reload parses the whole CSV
// and swaps the snapshot in one step; a bad file leaves the current
// timetable untouched.
type ScheduleHandler struct {
	table  *schedule.Table
	path   string
	logger *slog.Logger
}

func NewScheduleHandler(table *schedule.Table, path string, logger *slog.Logger) *ScheduleHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ScheduleHandler{table: table, path: path, logger: logger}
}

// Register mounts schedule endpoints on the router.
func (h *ScheduleHandler) Register(r chi.Router) {
	r.Post("/schedule/reload", h.HandleReload)
}

// HandleReload handles POST /v1/schedule/reload.
func (h *ScheduleHandler) HandleReload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	snap, err := schedule.LoadCSV(h.path)
	if err != nil {
		h.logger.ErrorContext(ctx, "timetable reload rejected",
			"request_id", requestcontext.RequestID(ctx),
			"path", h.path,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	h.table.Swap(snap)

	h.logger.InfoContext(ctx, "timetable reloaded",
		"request_id", requestcontext.RequestID(ctx),
		"entries", snap.Len(),
	)
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"entries": snap.Len()})
}
