package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseMoney(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{input: "100", want: "100.00"},
		{input: "100.5", want: "100.50"},
		{input: "0.01", want: "0.01"},
		{input: " 40.00 ", want: "40.00"},
		{input: "1.500", want: "1.50"},
		{input: "-3.25", want: "-3.25"},
		{input: "1.005", wantErr: true},
		{input: "0.001", wantErr: true},
		{input: "abc", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseMoney(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidAmount) {
					t.Fatalf("expected ErrInvalidAmount, got %v", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if got.String() != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, got.String())
			}
		})
	}
}

func TestMoneyArithmeticIsExact(t *testing.T) {
	// 0.1 + 0.2 is the classic binary floating point trap.
	sum := MustMoney("0.10").Add(MustMoney("0.20"))
	if !sum.Equal(MustMoney("0.30")) {
		t.Fatalf("expected 0.30, got %s", sum)
	}

	total := ZeroMoney
	for i := 0; i < 1000; i++ {
		total = total.Add(MustMoney("0.01"))
	}
	if total.String() != "10.00" {
		t.Fatalf("expected 10.00, got %s", total)
	}

	diff := MustMoney("100.00").Sub(MustMoney("40.00"))
	if diff.String() != "60.00" {
		t.Fatalf("expected 60.00, got %s", diff)
	}
}

func TestMoneyPredicates(t *testing.T) {
	if ZeroMoney.IsPositive() {
		t.Fatalf("zero must not be positive")
	}
	if !ZeroMoney.IsNonNegative() {
		t.Fatalf("zero must be non-negative")
	}
	if !MustMoney("0.01").IsPositive() {
		t.Fatalf("0.01 must be positive")
	}
	if MustMoney("-0.01").IsNonNegative() {
		t.Fatalf("-0.01 must be negative")
	}
	if MustMoney("5").Cmp(MustMoney("5.00")) != 0 {
		t.Fatalf("5 and 5.00 must compare equal")
	}
	if !MustMoney("10").GreaterThanOrEqual(MustMoney("10.00")) {
		t.Fatalf("expected 10 >= 10.00")
	}
}

func TestMoneyFromDecimalRejectsSubCent(t *testing.T) {
	_, err := NewMoneyFromDecimal(decimal.RequireFromString("2.345"))
	if !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestMoneyMinorUnits(t *testing.T) {
	m := MoneyFromMinorUnits(12345)
	if m.String() != "123.45" {
		t.Fatalf("expected 123.45, got %s", m)
	}
	if m.MinorUnits() != 12345 {
		t.Fatalf("expected 12345, got %d", m.MinorUnits())
	}
}

func TestMoneyJSON(t *testing.T) {
	payload := struct {
		Balance Money `json:"balance"`
	}{Balance: MustMoney("60")}

	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(data) != `{"balance":"60.00"}` {
		t.Fatalf("unexpected json: %s", data)
	}

	var decoded struct {
		Balance Money `json:"balance"`
	}
	if err := json.Unmarshal([]byte(`{"balance":"12.30"}`), &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if !decoded.Balance.Equal(MustMoney("12.3")) {
		t.Fatalf("expected 12.30, got %s", decoded.Balance)
	}

	if err := json.Unmarshal([]byte(`{"balance":"1.234"}`), &decoded); err == nil {
		t.Fatalf("expected error for sub-cent amount")
	}
}
