package core

import "testing"

func TestParseTransactionType(t *testing.T) {
	tests := []struct {
		input   string
		want    TransactionType
		wantErr bool
	}{
		{input: "income", want: Income},
		{input: "expense", want: Expense},
		{input: "INCOME", want: Income},
		{input: " Expense ", want: Expense},
		{input: "transfer", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseTransactionType(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseTransactionType(%q) expected error, got %q", tt.input, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseTransactionType(%q) unexpected error: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseTransactionType(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestEffect(t *testing.T) {
	amount := Money{Cents: 10000}

	if got := Effect(Income, amount); got.Cents != 10000 {
		t.Errorf("Effect(income, 10000) = %d, want 10000", got.Cents)
	}
	if got := Effect(Expense, amount); got.Cents != -10000 {
		t.Errorf("Effect(expense, 10000) = %d, want -10000", got.Cents)
	}

	tr := Transaction{Type: Expense, Amount: Money{Cents: 250}}
	if got := tr.Effect(); got.Cents != -250 {
		t.Errorf("Transaction.Effect() = %d, want -250", got.Cents)
	}
}

func TestTransactionValidate(t *testing.T) {
	valid := Transaction{Type: Income, Amount: Money{Cents: 100}, Category: "Gaji"}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid transaction rejected: %v", err)
	}

	tests := []struct {
		name string
		tr   Transaction
		want error
	}{
		{name: "bad type", tr: Transaction{Type: "transfer", Amount: Money{Cents: 100}, Category: "x"}, want: ErrInvalidType},
		{name: "zero amount", tr: Transaction{Type: Income, Amount: Money{}, Category: "x"}, want: ErrInvalidAmount},
		{name: "negative amount", tr: Transaction{Type: Income, Amount: Money{Cents: -1}, Category: "x"}, want: ErrInvalidAmount},
		{name: "blank category", tr: Transaction{Type: Income, Amount: Money{Cents: 100}, Category: "  "}, want: ErrEmptyCategory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.tr.Validate(); err != tt.want {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestAccountPatchValidate(t *testing.T) {
	if err := (AccountPatch{}).Validate(); err != ErrNoFields {
		t.Errorf("empty patch: got %v, want ErrNoFields", err)
	}

	blank := "  "
	if err := (AccountPatch{Name: &blank}).Validate(); err != ErrEmptyName {
		t.Errorf("blank name: got %v, want ErrEmptyName", err)
	}

	name := "Dompet"
	balance := Money{Cents: 5000}
	if err := (AccountPatch{Name: &name, Balance: &balance}).Validate(); err != nil {
		t.Errorf("valid patch rejected: %v", err)
	}
}

func TestIcons(t *testing.T) {
	if CategoryIcon("Makanan") == CategoryIcon("NoSuchCategory") {
		t.Error("known category should not use the fallback icon")
	}
	if CategoryIcon("NoSuchCategory") != "💰" {
		t.Error("unknown category should fall back to the generic icon")
	}
	if AccountIcon("BANK") != AccountIcon("bank") {
		t.Error("account icon lookup should be case-insensitive")
	}
	if AccountIcon("mystery") != "💳" {
		t.Error("unknown account type should fall back to the card icon")
	}
}
