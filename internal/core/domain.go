package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

type (
	TransactionType string

	Money struct {
		Cents int64
	}

	Account struct {
		ID        int64
		UserID    int64
		Name      string
		Type      string
		Balance   Money
		CreatedAt time.Time
	}

	Transaction struct {
		ID        int64
		UserID    int64
		AccountID int64
		Type      TransactionType
		Amount    Money
		Category  string
		Note      string
		CreatedAt time.Time
	}

	// TransactionView is a transaction denormalized with its account's display
	// fields, captured at read time inside the same database transaction.
	TransactionView struct {
		Transaction
		AccountName string
		AccountType string
	}

	// AccountPatch carries optional field updates for an account. Nil fields
	// keep their stored values. Balance is a raw overwrite used for
	// administrative corrections; it bypasses balance reconciliation entirely.
	AccountPatch struct {
		Name    *string
		Type    *string
		Balance *Money
	}

	// TransactionPatch carries optional field updates for a transaction.
	// Unsupplied fields retain their prior values when the new balance effect
	// is computed.
	TransactionPatch struct {
		Type      *TransactionType
		Amount    *Money
		AccountID *int64
		Category  *string
		Note      *string
		Date      *time.Time
	}

	// TransactionFilter narrows transaction listings. Nil fields match
	// everything.
	TransactionFilter struct {
		Start     *time.Time
		End       *time.Time
		Type      *TransactionType
		Category  *string
		AccountID *int64
	}
)

var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidType      = errors.New("invalid transaction type")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyName        = errors.New("account name is required")
	ErrEmptyAccountType = errors.New("account type is required")
	ErrEmptyCategory    = errors.New("category is required")
	ErrNoFields         = errors.New("no fields to update")
	ErrEmailTaken       = errors.New("email already registered")
)

// ParseTransactionType normalizes a user-supplied type string. Both "income"
// and "INCOME" are accepted; anything else is ErrInvalidType.
func ParseTransactionType(s string) (TransactionType, error) {
	switch TransactionType(strings.ToLower(strings.TrimSpace(s))) {
	case Income:
		return Income, nil
	case Expense:
		return Expense, nil
	}
	return "", ErrInvalidType
}

// Effect is the signed balance delta a transaction of the given type and
// amount contributes to its account: +amount for income, -amount for expense.
func Effect(typ TransactionType, amount Money) Money {
	if typ == Income {
		return amount
	}
	return amount.Neg()
}

// Effect returns the signed balance delta this transaction contributes to its
// account.
func (t Transaction) Effect() Money {
	return Effect(t.Type, t.Amount)
}

func (t Transaction) Validate() error {
	if t.Type != Income && t.Type != Expense {
		return ErrInvalidType
	}
	if t.Amount.Cents <= 0 {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	return nil
}

// IsEmpty reports whether the patch carries no fields at all.
func (p AccountPatch) IsEmpty() bool {
	return p.Name == nil && p.Type == nil && p.Balance == nil
}

func (p AccountPatch) Validate() error {
	if p.IsEmpty() {
		return ErrNoFields
	}
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return ErrEmptyName
	}
	if p.Type != nil && strings.TrimSpace(*p.Type) == "" {
		return ErrEmptyAccountType
	}
	return nil
}
