// Package ledger implements the balance reconciliation protocol: every
// transaction create, update and delete pairs the ledger write with the
// owning account's balance delta inside a single database transaction, so the
// stored balance always equals the cumulative effect of the transactions that
// reference the account.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"duit/internal/amqp"
	"duit/internal/core"
	"duit/internal/storage"
)

// Service orchestrates ledger mutations over the store and, after a
// successful commit, publishes a mutation event. Publishing is best-effort:
// a broker failure is logged and never fails the caller's request.
type Service struct {
	store      *storage.Store
	amqpClient *amqp.Client
}

func NewService(store *storage.Store, amqpClient *amqp.Client) *Service {
	return &Service{
		store:      store,
		amqpClient: amqpClient,
	}
}

// CreateParams are the inputs for a new transaction. A zero Date means now.
type CreateParams struct {
	Type      core.TransactionType
	Amount    core.Money
	AccountID int64
	Category  string
	Note      string
	Date      time.Time
}

// Create validates the transaction, then inserts the ledger row and applies
// its effect to the account balance in one atomic unit. The returned view
// denormalizes the account's display fields as read inside that same unit.
func (s *Service) Create(ctx context.Context, userID int64, p CreateParams) (core.TransactionView, error) {
	tr := core.Transaction{
		UserID:    userID,
		AccountID: p.AccountID,
		Type:      p.Type,
		Amount:    p.Amount,
		Category:  strings.TrimSpace(p.Category),
		Note:      p.Note,
		CreatedAt: p.Date,
	}
	if tr.CreatedAt.IsZero() {
		tr.CreatedAt = time.Now().UTC()
	}
	if err := tr.Validate(); err != nil {
		return core.TransactionView{}, err
	}

	var view core.TransactionView
	err := s.store.WithTx(ctx, func(q *storage.Queries) error {
		owned, err := q.AccountOwned(ctx, userID, p.AccountID)
		if err != nil {
			return err
		}
		if !owned {
			return core.ErrNotFound
		}

		id, err := q.InsertTransaction(ctx, tr)
		if err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}
		tr.ID = id

		if err := q.ApplyBalanceDelta(ctx, userID, p.AccountID, tr.Effect()); err != nil {
			return err
		}

		view, err = q.GetTransactionView(ctx, userID, id)
		return err
	})
	if err != nil {
		return core.TransactionView{}, err
	}

	slog.InfoContext(ctx, "Transaction created",
		"id", view.ID,
		"type", view.Type,
		"amount_cents", view.Amount.Cents,
		"account_id", view.AccountID)

	s.publishEvent(ctx, amqp.EventCreated, view.ID, userID)
	return view, nil
}

// Update loads the existing transaction, reverses its old effect, applies the
// patch and applies the new effect, all in one atomic unit. The reversal and
// reapply always both run, even when the patch changes nothing that affects
// the balance; a patch that nets to zero is a correctness property of the
// arithmetic, not a skipped branch. When the patch moves the transaction to
// another account, both accounts change inside the same unit.
func (s *Service) Update(ctx context.Context, userID, id int64, patch core.TransactionPatch) (core.TransactionView, error) {
	var view core.TransactionView
	err := s.store.WithTx(ctx, func(q *storage.Queries) error {
		old, err := q.GetTransaction(ctx, userID, id)
		if err != nil {
			return err
		}

		if err := q.ApplyBalanceDelta(ctx, userID, old.AccountID, old.Effect().Neg()); err != nil {
			return err
		}

		next := old
		if patch.Type != nil {
			next.Type = *patch.Type
		}
		if patch.Amount != nil {
			next.Amount = *patch.Amount
		}
		if patch.AccountID != nil {
			next.AccountID = *patch.AccountID
		}
		if patch.Category != nil {
			next.Category = strings.TrimSpace(*patch.Category)
		}
		if patch.Note != nil {
			next.Note = *patch.Note
		}
		if patch.Date != nil {
			next.CreatedAt = *patch.Date
		}
		if err := next.Validate(); err != nil {
			return err
		}

		// A missing target account and one owned by another user answer
		// identically. Checked before the row write so the foreign key
		// constraint never surfaces as a storage error.
		if patch.AccountID != nil {
			owned, err := q.AccountOwned(ctx, userID, next.AccountID)
			if err != nil {
				return err
			}
			if !owned {
				return core.ErrNotFound
			}
		}

		if err := q.UpdateTransactionRow(ctx, next); err != nil {
			return fmt.Errorf("update transaction: %w", err)
		}

		if err := q.ApplyBalanceDelta(ctx, userID, next.AccountID, next.Effect()); err != nil {
			return err
		}

		view, err = q.GetTransactionView(ctx, userID, id)
		return err
	})
	if err != nil {
		return core.TransactionView{}, err
	}

	slog.InfoContext(ctx, "Transaction updated",
		"id", view.ID,
		"type", view.Type,
		"amount_cents", view.Amount.Cents,
		"account_id", view.AccountID)

	s.publishEvent(ctx, amqp.EventUpdated, view.ID, userID)
	return view, nil
}

// Delete reverses the transaction's effect on its account and removes the
// ledger row in one atomic unit.
func (s *Service) Delete(ctx context.Context, userID, id int64) error {
	err := s.store.WithTx(ctx, func(q *storage.Queries) error {
		old, err := q.GetTransaction(ctx, userID, id)
		if err != nil {
			return err
		}
		if err := q.ApplyBalanceDelta(ctx, userID, old.AccountID, old.Effect().Neg()); err != nil {
			return err
		}
		return q.DeleteTransactionRow(ctx, userID, id)
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Transaction deleted", "id", id)

	s.publishEvent(ctx, amqp.EventDeleted, id, userID)
	return nil
}

func (s *Service) List(ctx context.Context, userID int64, filter core.TransactionFilter) ([]core.TransactionView, error) {
	return s.store.ListTransactions(ctx, userID, filter)
}

func (s *Service) Get(ctx context.Context, userID, id int64) (core.TransactionView, error) {
	return s.store.GetTransactionView(ctx, userID, id)
}

// Stats summarizes a user's transactions, optionally narrowed to a date
// range.
type Stats struct {
	TotalIncome  core.Money
	TotalExpense core.Money
	TotalBalance core.Money
	Categories   []CategoryStat
}

// CategoryStat is one expense category's share of the total expenses.
type CategoryStat struct {
	Name       string
	Icon       string
	Amount     core.Money
	Count      int
	Percentage int
}

// Stats aggregates income/expense totals and the per-category expense
// breakdown. Percentages are integer shares of total expenses, rounded half
// up; all accumulation happens in cents.
func (s *Service) Stats(ctx context.Context, userID int64, start, end *time.Time) (Stats, error) {
	items, err := s.store.ListTransactions(ctx, userID, core.TransactionFilter{Start: start, End: end})
	if err != nil {
		return Stats{}, err
	}

	var st Stats
	byCategory := make(map[string]*CategoryStat)
	for _, t := range items {
		switch t.Type {
		case core.Income:
			st.TotalIncome = st.TotalIncome.Add(t.Amount)
		case core.Expense:
			st.TotalExpense = st.TotalExpense.Add(t.Amount)
			cs, ok := byCategory[t.Category]
			if !ok {
				cs = &CategoryStat{Name: t.Category, Icon: core.CategoryIcon(t.Category)}
				byCategory[t.Category] = cs
			}
			cs.Amount = cs.Amount.Add(t.Amount)
			cs.Count++
		}
	}
	st.TotalBalance = st.TotalIncome.Add(st.TotalExpense.Neg())

	st.Categories = make([]CategoryStat, 0, len(byCategory))
	for _, cs := range byCategory {
		if st.TotalExpense.Cents > 0 {
			cs.Percentage = int((cs.Amount.Cents*100 + st.TotalExpense.Cents/2) / st.TotalExpense.Cents)
		}
		st.Categories = append(st.Categories, *cs)
	}
	sort.Slice(st.Categories, func(i, j int) bool {
		if st.Categories[i].Amount.Cents != st.Categories[j].Amount.Cents {
			return st.Categories[i].Amount.Cents > st.Categories[j].Amount.Cents
		}
		return st.Categories[i].Name < st.Categories[j].Name
	})

	return st, nil
}

func (s *Service) publishEvent(ctx context.Context, action string, id, userID int64) {
	if s.amqpClient == nil {
		return
	}
	if err := s.amqpClient.PublishTransactionEvent(ctx, amqp.NewTransactionEvent(action, id, userID)); err != nil {
		// The mutation is committed; losing an export event must not fail
		// the request.
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			"action", action,
			"id", id,
			"error", err)
	}
}
