package core

import "testing"

func TestParseAmountToCents(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{name: "integer", input: "50000", want: 5000000},
		{name: "two decimals", input: "12.34", want: 1234},
		{name: "one decimal", input: "12.5", want: 1250},
		{name: "rounds third decimal down", input: "12.344", want: 1234},
		{name: "rounds third decimal up", input: "12.345", want: 1235},
		{name: "leading whitespace", input: " 7.25 ", want: 725},
		{name: "empty", input: "", wantErr: true},
		{name: "zero", input: "0", wantErr: true},
		{name: "negative", input: "-5", wantErr: true},
		{name: "not a number", input: "abc", wantErr: true},
		{name: "absurdly large", input: "99999999999999999999999", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmountToCents(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseAmountToCents(%q) expected error, got %d", tt.input, got.Cents)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAmountToCents(%q) unexpected error: %v", tt.input, err)
			}
			if got.Cents != tt.want {
				t.Errorf("ParseAmountToCents(%q) = %d, want %d", tt.input, got.Cents, tt.want)
			}
		})
	}
}

func TestParseBalanceToCents(t *testing.T) {
	tests := []struct {
		input   string
		want    int64
		wantErr bool
	}{
		{input: "0", want: 0},
		{input: "-120.50", want: -12050},
		{input: "1000000", want: 100000000},
		{input: "nope", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseBalanceToCents(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseBalanceToCents(%q) expected error", tt.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseBalanceToCents(%q) unexpected error: %v", tt.input, err)
			continue
		}
		if got.Cents != tt.want {
			t.Errorf("ParseBalanceToCents(%q) = %d, want %d", tt.input, got.Cents, tt.want)
		}
	}
}

func TestMoneyFloat64(t *testing.T) {
	if got := (Money{Cents: 123456}).Float64(); got != 1234.56 {
		t.Errorf("Float64() = %v, want 1234.56", got)
	}
	if got := (Money{Cents: -50}).Float64(); got != -0.5 {
		t.Errorf("Float64() = %v, want -0.5", got)
	}
}
