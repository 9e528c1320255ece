package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"duit/internal/amqp"
	"duit/internal/core"
	"duit/internal/storage"
)

// TransactionExporter writes transaction rows to an external destination.
type TransactionExporter interface {
	AppendTransaction(ctx context.Context, action string, v core.TransactionView) error
	AppendDeletion(ctx context.Context, id int64, at time.Time) error
}

// ExportWorker consumes transaction events from AMQP and mirrors them to the
// configured exporter.
type ExportWorker struct {
	store    *storage.Store
	exporter TransactionExporter
	client   *amqp.Client
}

func NewExportWorker(store *storage.Store, exporter TransactionExporter, client *amqp.Client) *ExportWorker {
	return &ExportWorker{
		store:    store,
		exporter: exporter,
		client:   client,
	}
}

// Run consumes events until ctx is cancelled.
func (w *ExportWorker) Run(ctx context.Context) error {
	return w.client.ConsumeTransactionEvents(ctx, w.handle)
}

// handle processes a single transaction event. Returning an error requeues the
// message, so transient exporter failures are retried.
func (w *ExportWorker) handle(ctx context.Context, ev *amqp.TransactionEvent) error {
	slog.InfoContext(ctx, "Processing transaction event",
		"action", ev.Action,
		"id", ev.ID,
		"user_id", ev.UserID)

	if ev.Action == amqp.EventDeleted {
		if err := w.exporter.AppendDeletion(ctx, ev.ID, ev.Timestamp); err != nil {
			return fmt.Errorf("export deletion: %w", err)
		}
		return nil
	}

	v, err := w.store.GetTransactionView(ctx, ev.UserID, ev.ID)
	if err != nil {
		// The row can be gone by the time the event is consumed. Nothing to
		// export in that case.
		if errors.Is(err, core.ErrNotFound) {
			slog.WarnContext(ctx, "Transaction gone before export, skipping",
				"id", ev.ID,
				"user_id", ev.UserID)
			return nil
		}
		return fmt.Errorf("load transaction: %w", err)
	}

	if err := w.exporter.AppendTransaction(ctx, ev.Action, v); err != nil {
		return fmt.Errorf("export transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction exported",
		"action", ev.Action,
		"id", ev.ID)
	return nil
}
