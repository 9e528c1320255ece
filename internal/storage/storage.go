// Package storage persists users, accounts and transactions in SQLite.
//
// The Store owns the database handle and exposes user-scoped CRUD. Multi-write
// units (the balance reconciliation protocol, account cascade deletion) run
// through WithTx so they commit or roll back as one.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"duit/internal/core"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
	q  *Queries
}

func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// A single connection serializes writers, which is how modernc.org/sqlite
	// avoids SQLITE_BUSY under concurrent request handling.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db, q: New(db)}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// WithTx runs fn inside a database transaction, handing it a Queries bound to
// that transaction. The transaction is rolled back when fn returns an error
// and committed otherwise; either way no partial write survives.
func (s *Store) WithTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(New(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback after %w: %v", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// User is a registered owner of accounts and transactions.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// CreateUser registers a new user. Returns core.ErrEmailTaken when the email
// is already registered.
func (s *Store) CreateUser(ctx context.Context, name, email, passwordHash string) (User, error) {
	taken, err := s.q.EmailExists(ctx, email)
	if err != nil {
		return User{}, fmt.Errorf("check email: %w", err)
	}
	if taken {
		return User{}, core.ErrEmailTaken
	}

	now := time.Now().UTC()
	id, err := s.q.InsertUser(ctx, name, email, passwordHash, now)
	if err != nil {
		// The UNIQUE constraint still backstops the racy pre-check.
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return User{}, core.ErrEmailTaken
		}
		return User{}, fmt.Errorf("insert user: %w", err)
	}

	return User{ID: id, Name: name, Email: email, PasswordHash: passwordHash, CreatedAt: now}, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return s.q.GetUserByEmail(ctx, email)
}

func (s *Store) GetUserByID(ctx context.Context, id int64) (User, error) {
	return s.q.GetUserByID(ctx, id)
}

// ListAccounts returns the user's accounts, newest first.
func (s *Store) ListAccounts(ctx context.Context, userID int64) ([]core.Account, error) {
	return s.q.ListAccounts(ctx, userID)
}

// GetAccount returns core.ErrNotFound both when the account does not exist
// and when it belongs to another user; callers cannot tell these apart.
func (s *Store) GetAccount(ctx context.Context, userID, id int64) (core.Account, error) {
	return s.q.GetAccount(ctx, userID, id)
}

func (s *Store) CreateAccount(ctx context.Context, userID int64, name, accountType string, balance core.Money) (core.Account, error) {
	if strings.TrimSpace(name) == "" {
		return core.Account{}, core.ErrEmptyName
	}
	if strings.TrimSpace(accountType) == "" {
		return core.Account{}, core.ErrEmptyAccountType
	}

	a := core.Account{
		UserID:    userID,
		Name:      strings.TrimSpace(name),
		Type:      strings.TrimSpace(accountType),
		Balance:   balance,
		CreatedAt: time.Now().UTC(),
	}
	id, err := s.q.InsertAccount(ctx, a)
	if err != nil {
		return core.Account{}, fmt.Errorf("insert account: %w", err)
	}
	a.ID = id
	return a, nil
}

// UpdateAccount applies the supplied patch fields. A patched balance is a raw
// overwrite that deliberately bypasses balance reconciliation; it exists as an
// administrative correction and triggers no transaction-side effects.
func (s *Store) UpdateAccount(ctx context.Context, userID, id int64, patch core.AccountPatch) (core.Account, error) {
	if err := patch.Validate(); err != nil {
		return core.Account{}, err
	}

	var updated core.Account
	err := s.WithTx(ctx, func(q *Queries) error {
		a, err := q.GetAccount(ctx, userID, id)
		if err != nil {
			return err
		}
		if patch.Name != nil {
			a.Name = strings.TrimSpace(*patch.Name)
		}
		if patch.Type != nil {
			a.Type = strings.TrimSpace(*patch.Type)
		}
		if patch.Balance != nil {
			a.Balance = *patch.Balance
		}
		if err := q.UpdateAccountRow(ctx, a); err != nil {
			return fmt.Errorf("update account: %w", err)
		}
		updated = a
		return nil
	})
	if err != nil {
		return core.Account{}, err
	}
	return updated, nil
}

// DeleteAccount removes the account and every transaction referencing it in
// one unit, so no transaction is ever left pointing at a missing account.
func (s *Store) DeleteAccount(ctx context.Context, userID, id int64) error {
	return s.WithTx(ctx, func(q *Queries) error {
		if err := q.DeleteAccountTransactions(ctx, userID, id); err != nil {
			return fmt.Errorf("delete account transactions: %w", err)
		}
		return q.DeleteAccountRow(ctx, userID, id)
	})
}

func (s *Store) ListTransactions(ctx context.Context, userID int64, filter core.TransactionFilter) ([]core.TransactionView, error) {
	return s.q.ListTransactions(ctx, userID, filter)
}

func (s *Store) GetTransaction(ctx context.Context, userID, id int64) (core.Transaction, error) {
	return s.q.GetTransaction(ctx, userID, id)
}

func (s *Store) GetTransactionView(ctx context.Context, userID, id int64) (core.TransactionView, error) {
	return s.q.GetTransactionView(ctx, userID, id)
}
