package notify

import (
	"context"
	"log/slog"

	"vigil/internal/alert"
	"vigil/internal/ledger"
)

// Dispatcher drains the pipeline's alert stream into the sink. Delivery
// failures are logged and the alert dropped; alerting is advisory while the
// ledger remains the system of record.
type Dispatcher struct {
	sink   Sink
	inbox  <-chan alert.Alert
	logger *slog.Logger
}

func NewDispatcher(sink Sink, inbox <-chan alert.Alert, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{sink: sink, inbox: inbox, logger: logger}
}

func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case a := <-d.inbox:
			if err := d.sink.Deliver(ctx, a); err != nil {
				d.logger.Error("alert delivery failed",
					slog.String("alert_id", a.ID.String()),
					slog.String("rule", string(a.Rule)),
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// CommitExporter forwards sealed-batch notifications to an external anchor.
type CommitExporter struct {
	sink   CommitSink
	inbox  <-chan ledger.Commit
	logger *slog.Logger
}

func NewCommitExporter(sink CommitSink, inbox <-chan ledger.Commit, logger *slog.Logger) *CommitExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CommitExporter{sink: sink, inbox: inbox, logger: logger}
}

func (e *CommitExporter) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case c := <-e.inbox:
			if err := e.sink.Export(ctx, c); err != nil {
				// The commit is already durable locally; export is best effort.
				e.logger.Error("commit export failed",
					slog.String("batch_id", c.BatchID.String()),
					slog.String("error", err.Error()),
				)
			}
		}
	}
}
