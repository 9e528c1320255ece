package worker

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"duit/internal/amqp"
	"duit/internal/core"
	"duit/internal/storage"
)

type recordingExporter struct {
	appended  []core.TransactionView
	tombstone []int64
	fail      bool
}

func (r *recordingExporter) AppendTransaction(_ context.Context, _ string, v core.TransactionView) error {
	if r.fail {
		return errors.New("sheets unavailable")
	}
	r.appended = append(r.appended, v)
	return nil
}

func (r *recordingExporter) AppendDeletion(_ context.Context, id int64, _ time.Time) error {
	r.tombstone = append(r.tombstone, id)
	return nil
}

func setup(t *testing.T) (*storage.Store, int64, int64) {
	t.Helper()
	ctx := context.Background()

	store, err := storage.Open(filepath.Join(t.TempDir(), "duit.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	u, err := store.CreateUser(ctx, "Tester", "tester@example.com", "hash")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	a, err := store.CreateAccount(ctx, u.ID, "Wallet", "cash", core.Money{})
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}

	var trID int64
	err = store.WithTx(ctx, func(q *storage.Queries) error {
		id, err := q.InsertTransaction(ctx, core.Transaction{
			UserID:    u.ID,
			AccountID: a.ID,
			Type:      core.Expense,
			Amount:    core.Money{Cents: 1500},
			Category:  "Makanan",
			CreatedAt: time.Now().UTC(),
		})
		trID = id
		return err
	})
	if err != nil {
		t.Fatalf("InsertTransaction: %v", err)
	}
	return store, u.ID, trID
}

func TestHandleCreatedEvent(t *testing.T) {
	store, userID, trID := setup(t)
	exp := &recordingExporter{}
	w := NewExportWorker(store, exp, nil)

	ev := amqp.NewTransactionEvent(amqp.EventCreated, trID, userID)
	if err := w.handle(context.Background(), ev); err != nil {
		t.Fatalf("handle: %v", err)
	}

	if len(exp.appended) != 1 {
		t.Fatalf("appended = %d rows, want 1", len(exp.appended))
	}
	if exp.appended[0].Category != "Makanan" || exp.appended[0].AccountName != "Wallet" {
		t.Fatalf("exported view = %+v", exp.appended[0])
	}
}

func TestHandleDeletedEvent(t *testing.T) {
	store, userID, trID := setup(t)
	exp := &recordingExporter{}
	w := NewExportWorker(store, exp, nil)

	ev := amqp.NewTransactionEvent(amqp.EventDeleted, trID, userID)
	if err := w.handle(context.Background(), ev); err != nil {
		t.Fatalf("handle: %v", err)
	}

	if len(exp.tombstone) != 1 || exp.tombstone[0] != trID {
		t.Fatalf("tombstones = %v", exp.tombstone)
	}
	if len(exp.appended) != 0 {
		t.Fatalf("unexpected appends: %v", exp.appended)
	}
}

func TestHandleGoneTransaction(t *testing.T) {
	store, userID, _ := setup(t)
	exp := &recordingExporter{}
	w := NewExportWorker(store, exp, nil)

	// Event for a row that no longer exists is acked, not requeued.
	ev := amqp.NewTransactionEvent(amqp.EventUpdated, 9999, userID)
	if err := w.handle(context.Background(), ev); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(exp.appended) != 0 {
		t.Fatalf("unexpected appends: %v", exp.appended)
	}
}

func TestHandleExporterFailureRequeues(t *testing.T) {
	store, userID, trID := setup(t)
	exp := &recordingExporter{fail: true}
	w := NewExportWorker(store, exp, nil)

	ev := amqp.NewTransactionEvent(amqp.EventCreated, trID, userID)
	if err := w.handle(context.Background(), ev); err == nil {
		t.Fatal("expected error so the message is requeued")
	}
}
