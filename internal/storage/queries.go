package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"duit/internal/core"
)

// DBTX is the subset of database handles shared by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Queries runs individual statements against a database or transaction
// handle. Statements that must be atomic together are composed inside
// Store.WithTx.
type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// Timestamps are stored as fixed-width RFC3339 UTC strings so that range
// filters can compare them lexically.
func fmtTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

func (q *Queries) InsertUser(ctx context.Context, name, email, passwordHash string, createdAt time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO users (name, email, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		name, email, passwordHash, fmtTime(createdAt))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (q *Queries) EmailExists(ctx context.Context, email string) (bool, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE email = ?`, email).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return q.scanUser(q.db.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, created_at FROM users WHERE email = ?`, email))
}

func (q *Queries) GetUserByID(ctx context.Context, id int64) (User, error) {
	return q.scanUser(q.db.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, created_at FROM users WHERE id = ?`, id))
}

func (q *Queries) scanUser(row *sql.Row) (User, error) {
	var u User
	var createdAt string
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, core.ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("scan user: %w", err)
	}
	if u.CreatedAt, err = parseTime(createdAt); err != nil {
		return User{}, fmt.Errorf("parse user created_at: %w", err)
	}
	return u, nil
}

func (q *Queries) InsertAccount(ctx context.Context, a core.Account) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO accounts (user_id, name, type, balance_cents, created_at) VALUES (?, ?, ?, ?, ?)`,
		a.UserID, a.Name, a.Type, a.Balance.Cents, fmtTime(a.CreatedAt))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (q *Queries) ListAccounts(ctx context.Context, userID int64) ([]core.Account, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, user_id, name, type, balance_cents, created_at
		 FROM accounts
		 WHERE user_id = ?
		 ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query accounts: %w", err)
	}
	defer rows.Close()

	var out []core.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (q *Queries) GetAccount(ctx context.Context, userID, id int64) (core.Account, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, user_id, name, type, balance_cents, created_at
		 FROM accounts
		 WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return core.Account{}, fmt.Errorf("query account: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return core.Account{}, err
		}
		return core.Account{}, core.ErrNotFound
	}
	return scanAccount(rows)
}

func scanAccount(rows *sql.Rows) (core.Account, error) {
	var a core.Account
	var createdAt string
	if err := rows.Scan(&a.ID, &a.UserID, &a.Name, &a.Type, &a.Balance.Cents, &createdAt); err != nil {
		return core.Account{}, fmt.Errorf("scan account: %w", err)
	}
	var err error
	if a.CreatedAt, err = parseTime(createdAt); err != nil {
		return core.Account{}, fmt.Errorf("parse account created_at: %w", err)
	}
	return a, nil
}

// AccountOwned reports whether the account exists and belongs to the user.
func (q *Queries) AccountOwned(ctx context.Context, userID, id int64) (bool, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM accounts WHERE id = ? AND user_id = ?`, id, userID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check account ownership: %w", err)
	}
	return n > 0, nil
}

// ApplyBalanceDelta adds delta to the account balance as a single
// read-modify-write inside the engine, so concurrent deltas never lose
// updates. Returns core.ErrNotFound when the account is absent or owned by
// another user.
func (q *Queries) ApplyBalanceDelta(ctx context.Context, userID, accountID int64, delta core.Money) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE accounts SET balance_cents = balance_cents + ? WHERE id = ? AND user_id = ?`,
		delta.Cents, accountID, userID)
	if err != nil {
		return fmt.Errorf("apply balance delta: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("balance delta rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (q *Queries) UpdateAccountRow(ctx context.Context, a core.Account) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE accounts SET name = ?, type = ?, balance_cents = ? WHERE id = ? AND user_id = ?`,
		a.Name, a.Type, a.Balance.Cents, a.ID, a.UserID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (q *Queries) DeleteAccountRow(ctx context.Context, userID, id int64) error {
	res, err := q.db.ExecContext(ctx,
		`DELETE FROM accounts WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete account rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (q *Queries) DeleteAccountTransactions(ctx context.Context, userID, accountID int64) error {
	_, err := q.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE account_id = ? AND user_id = ?`, accountID, userID)
	return err
}

func (q *Queries) InsertTransaction(ctx context.Context, t core.Transaction) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO transactions (user_id, account_id, type, amount_cents, category, note, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.UserID, t.AccountID, string(t.Type), t.Amount.Cents, t.Category, t.Note, fmtTime(t.CreatedAt))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (q *Queries) UpdateTransactionRow(ctx context.Context, t core.Transaction) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE transactions
		 SET account_id = ?, type = ?, amount_cents = ?, category = ?, note = ?, created_at = ?
		 WHERE id = ? AND user_id = ?`,
		t.AccountID, string(t.Type), t.Amount.Cents, t.Category, t.Note, fmtTime(t.CreatedAt), t.ID, t.UserID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (q *Queries) DeleteTransactionRow(ctx context.Context, userID, id int64) error {
	res, err := q.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete transaction rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (q *Queries) GetTransaction(ctx context.Context, userID, id int64) (core.Transaction, error) {
	var t core.Transaction
	var typ, createdAt string
	err := q.db.QueryRowContext(ctx,
		`SELECT id, user_id, account_id, type, amount_cents, category, note, created_at
		 FROM transactions
		 WHERE id = ? AND user_id = ?`, id, userID).
		Scan(&t.ID, &t.UserID, &t.AccountID, &typ, &t.Amount.Cents, &t.Category, &t.Note, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}
	t.Type = core.TransactionType(typ)
	if t.CreatedAt, err = parseTime(createdAt); err != nil {
		return core.Transaction{}, fmt.Errorf("parse transaction created_at: %w", err)
	}
	return t, nil
}

const transactionViewSelect = `
	SELECT t.id, t.user_id, t.account_id, t.type, t.amount_cents, t.category, t.note, t.created_at,
	       a.name, a.type
	FROM transactions t
	LEFT JOIN accounts a ON a.id = t.account_id
	WHERE t.user_id = ?`

// GetTransactionView loads a transaction together with its account's display
// fields in one query, so a freshly committed write is read back consistently.
func (q *Queries) GetTransactionView(ctx context.Context, userID, id int64) (core.TransactionView, error) {
	rows, err := q.db.QueryContext(ctx, transactionViewSelect+` AND t.id = ?`, userID, id)
	if err != nil {
		return core.TransactionView{}, fmt.Errorf("query transaction view: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return core.TransactionView{}, err
		}
		return core.TransactionView{}, core.ErrNotFound
	}
	return scanTransactionView(rows)
}

// ListTransactions returns the user's transactions, newest first, narrowed by
// the filter. Each present filter field adds one parameterized condition.
func (q *Queries) ListTransactions(ctx context.Context, userID int64, f core.TransactionFilter) ([]core.TransactionView, error) {
	query := transactionViewSelect
	args := []any{userID}

	if f.Start != nil && f.End != nil {
		query += ` AND t.created_at BETWEEN ? AND ?`
		args = append(args, fmtTime(*f.Start), fmtTime(*f.End))
	}
	if f.Type != nil {
		query += ` AND t.type = ?`
		args = append(args, string(*f.Type))
	}
	if f.Category != nil {
		query += ` AND t.category = ?`
		args = append(args, *f.Category)
	}
	if f.AccountID != nil {
		query += ` AND t.account_id = ?`
		args = append(args, *f.AccountID)
	}

	query += ` ORDER BY t.created_at DESC, t.id DESC`

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []core.TransactionView
	for rows.Next() {
		v, err := scanTransactionView(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func scanTransactionView(rows *sql.Rows) (core.TransactionView, error) {
	var v core.TransactionView
	var typ, createdAt string
	var accName, accType sql.NullString
	err := rows.Scan(&v.ID, &v.UserID, &v.AccountID, &typ, &v.Amount.Cents, &v.Category, &v.Note, &createdAt,
		&accName, &accType)
	if err != nil {
		return core.TransactionView{}, fmt.Errorf("scan transaction view: %w", err)
	}
	v.Type = core.TransactionType(typ)
	if v.CreatedAt, err = parseTime(createdAt); err != nil {
		return core.TransactionView{}, fmt.Errorf("parse transaction created_at: %w", err)
	}
	v.AccountName = accName.String
	v.AccountType = accType.String
	return v, nil
}
