package core

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseDate(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"2024-01-15", true},
		{" 2024-12-31 ", true},
		{"01/02/2024", false}, // ambiguous, never guessed
		{"2024-1-5", false},
		{"2024-02-30", false},
		{"", false},
		{"today", false},
	}
	for _, tc := range cases {
		d, err := ParseDate(tc.in)
		if tc.ok && err != nil {
			t.Fatalf("%q expected ok, got %v", tc.in, err)
		}
		if !tc.ok {
			if err == nil {
				t.Fatalf("%q expected error, got %v", tc.in, d)
			}
			if !errors.Is(err, ErrInvalidDate) {
				t.Fatalf("%q expected ErrInvalidDate, got %v", tc.in, err)
			}
		}
	}
}

func TestParseStoredDateAcceptsTimestamps(t *testing.T) {
	for _, in := range []string{"2024-03-05", "2024-03-05 18:30:00", "2024-03-05T18:30:00", "2024-03-05T18:30:00Z"} {
		d, err := parseStoredDate(in)
		if err != nil {
			t.Fatalf("%q: %v", in, err)
		}
		if d != NewDate(2024, 3, 5) {
			t.Fatalf("%q: got %v", in, d)
		}
	}
}

func TestParseKind(t *testing.T) {
	for in, want := range map[string]Kind{"expense": Expense, "Expenses": Expense, "income": Income, " INCOME ": Income} {
		got, err := ParseKind(in)
		if err != nil || got != want {
			t.Fatalf("%q: got %q err=%v", in, got, err)
		}
	}
	if _, err := ParseKind("transfer"); !errors.Is(err, ErrInvalidKind) {
		t.Fatalf("expected ErrInvalidKind, got %v", err)
	}
}

func TestDateHelpers(t *testing.T) {
	d := NewDate(2024, 2, 29)
	if d.MonthStart() != NewDate(2024, 2, 1) {
		t.Fatalf("month start: %v", d.MonthStart())
	}
	if d.AddDays(1) != NewDate(2024, 3, 1) {
		t.Fatalf("add days: %v", d.AddDays(1))
	}
	if d.Compare(NewDate(2024, 3, 1)) != -1 || d.Compare(d) != 0 || d.Compare(NewDate(2024, 1, 1)) != 1 {
		t.Fatalf("compare is inconsistent")
	}
	if DateOf(time.Date(2024, 2, 29, 23, 59, 0, 0, time.UTC)) != d {
		t.Fatalf("DateOf should drop the time part")
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		Kind:     Expense,
		Date:     NewDate(2025, 1, 1),
		Category: "Food",
		Amount:   decimal.NewFromInt(10),
		Username: "alice",
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Transaction{
		{Kind: "transfer", Date: NewDate(2025, 1, 1), Category: "c", Amount: decimal.NewFromInt(1), Username: "u"},
		{Kind: Expense, Category: "c", Amount: decimal.NewFromInt(1), Username: "u"}, // zero date
		{Kind: Expense, Date: NewDate(2025, 1, 1), Category: " ", Amount: decimal.NewFromInt(1), Username: "u"},
		{Kind: Expense, Date: NewDate(2025, 1, 1), Category: "c", Amount: decimal.NewFromInt(-1), Username: "u"},
		{Kind: Income, Date: NewDate(2025, 1, 1), Category: "c", Amount: decimal.NewFromInt(1)},
	}
	for i, tx := range bads {
		if err := tx.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestWindow(t *testing.T) {
	w, err := ParseWindow("2024-01-01", "2024-01-31")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !w.Contains(NewDate(2024, 1, 1)) || !w.Contains(NewDate(2024, 1, 31)) {
		t.Fatalf("window bounds must be inclusive")
	}
	if w.Contains(NewDate(2024, 2, 1)) {
		t.Fatalf("2024-02-01 is outside")
	}

	reversed := NewWindow(NewDate(2024, 2, 1), NewDate(2024, 1, 1))
	if !reversed.Empty() {
		t.Fatalf("reversed window should be empty")
	}

	_, err = ParseWindow("01/02/2024", "2024-01-31")
	var rangeErr *InvalidRangeError
	if !errors.As(err, &rangeErr) || rangeErr.Field != "start" {
		t.Fatalf("expected InvalidRangeError on start, got %v", err)
	}

	if m := MonthWindow(NewDate(2024, 2, 10)); m.Start != NewDate(2024, 2, 1) || m.End != NewDate(2024, 2, 29) {
		t.Fatalf("month window: %v", m)
	}
}

func TestDateJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		Period Date `json:"period"`
	}{NewDate(2024, 1, 1)})
	if err != nil || string(b) != `{"period":"2024-01-01"}` {
		t.Fatalf("got %s err=%v", b, err)
	}

	var d Date
	if err := json.Unmarshal([]byte(`"2024-02-29"`), &d); err != nil || d != NewDate(2024, 2, 29) {
		t.Fatalf("got %v err=%v", d, err)
	}
	if err := json.Unmarshal([]byte(`"29/02/2024"`), &d); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}
