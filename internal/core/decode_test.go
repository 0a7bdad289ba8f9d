package core

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestDecodeRows(t *testing.T) {
	w := NewWindow(NewDate(2024, 1, 1), NewDate(2024, 1, 31))
	rows := []Row{
		{ID: 1, Date: "2024-01-15", Category: "Food", Amount: "40", Username: "u"},
		{ID: 2, Date: "not a date", Category: "Food", Amount: "10", Username: "u"},
		{ID: 3, Date: "2024-02-03", Category: "Food", Amount: "5", Username: "u"},
		{ID: 4, Date: "2024-01-20 09:00:00", Category: "", Amount: "2.5", Username: "u"},
	}

	txns, skipped, err := DecodeRows(Expense, rows, w)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(txns) != 2 {
		t.Fatalf("expected 2 transactions in window, got %d", len(txns))
	}
	if txns[1].Category != Uncategorized || !txns[1].Amount.Equal(decimal.RequireFromString("2.5")) {
		t.Fatalf("unexpected second transaction: %+v", txns[1])
	}
	if len(skipped) != 1 || skipped[0].RecordID != 2 || skipped[0].Field != "date" {
		t.Fatalf("unexpected skipped: %+v", skipped)
	}
}

func TestDecodeRowsBadAmountAbortsCollection(t *testing.T) {
	w := NewWindow(NewDate(2024, 1, 1), NewDate(2024, 12, 31))
	rows := []Row{
		{ID: 1, Date: "2024-01-15", Category: "Food", Amount: "40"},
		{ID: 7, Date: "2024-01-16", Category: "Food", Amount: "forty"},
	}

	txns, _, err := DecodeRows(Income, rows, w)
	if txns != nil {
		t.Fatalf("no partial result expected, got %v", txns)
	}
	var integrity *IntegrityError
	if !errors.As(err, &integrity) {
		t.Fatalf("expected IntegrityError, got %v", err)
	}
	if integrity.RecordID != 7 || integrity.Field != "amount" || integrity.Kind != Income {
		t.Fatalf("unexpected error context: %+v", integrity)
	}
	if !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected to unwrap to ErrInvalidAmount")
	}
}

func TestDecodeRowsKeepsCategoryCase(t *testing.T) {
	w := NewWindow(NewDate(2024, 1, 1), NewDate(2024, 1, 31))
	txns, _, err := DecodeRows(Expense, []Row{{ID: 1, Date: "2024-01-02", Category: "food", Amount: "1"}}, w)
	if err != nil || txns[0].Category != "food" {
		t.Fatalf("category must be kept verbatim, got %+v err=%v", txns, err)
	}
}
