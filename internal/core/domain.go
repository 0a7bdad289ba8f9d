package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Expense Kind = "expense"
	Income  Kind = "income"
)

// DateLayout is the only date form accepted at the boundaries.
const DateLayout = "2006-01-02"

// Uncategorized is used when a record has no category, e.g. after its
// category was deleted or when an imported row leaves it blank.
const Uncategorized = "Uncategorized"

type (
	// Kind tells which collection a transaction belongs to.
	Kind string

	// Date is a calendar date. The time part is always UTC midnight.
	Date struct {
		time.Time
	}

	Transaction struct {
		ID          int64
		Kind        Kind
		Date        Date
		Category    string
		Amount      decimal.Decimal
		Description string
		Username    string
	}

	// Row is a transaction as persisted, before its date and amount have
	// been interpreted.
	Row struct {
		ID          int64
		Date        string
		Category    string
		Amount      string
		Description string
		Username    string
	}

	// RowSet holds the raw rows of both collections read in one snapshot.
	RowSet struct {
		Expenses []Row
		Income   []Row
	}

	// CategoryUsage is a known category and how many of a user's records use it.
	CategoryUsage struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}
)

var (
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidKind      = errors.New("invalid kind")
	ErrEmptyCategory    = errors.New("empty category")
	ErrEmptyUsername    = errors.New("empty username")
	ErrNotFound         = errors.New("not found")
	ErrCategoryExists   = errors.New("category already exists")
	ErrDescriptionLimit = errors.New("description too long (max 200 characters)")
)

// Kinds lists both collections in a stable order.
func Kinds() []Kind {
	return []Kind{Expense, Income}
}

func (k Kind) String() string {
	return string(k)
}

func (k Kind) IsValid() bool {
	return k == Expense || k == Income
}

// ParseKind accepts "expense"/"expenses" and "income"/"incomes" in any case.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "expense", "expenses":
		return Expense, nil
	case "income", "incomes":
		return Income, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a YYYY-MM-DD date. Locale-dependent forms such as
// 01/02/2024 are rejected rather than guessed.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

// parseStoredDate accepts the stored forms a record date can take: a plain
// date or an ISO timestamp whose date part is kept.
func parseStoredDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if d, err := ParseDate(s); err == nil {
		return d, nil
	}
	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02T15:04:05", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOf(t), nil
		}
	}
	return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// MonthStart returns the first day of d's month.
func (d Date) MonthStart() Date {
	return NewDate(d.Year(), int(d.Month()), 1)
}

// AddDays returns d shifted by n days.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// Compare returns -1, 0 or +1.
func (d Date) Compare(o Date) int {
	switch {
	case d.Before(o.Time):
		return -1
	case d.After(o.Time):
		return 1
	}
	return 0
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalJSON shadows the promoted time.Time method so dates travel as
// "YYYY-MM-DD".
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDate, b)
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	return d.UnmarshalText([]byte(s))
}

func (t Transaction) Validate() error {
	if !t.Kind.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidKind, t.Kind)
	}
	if t.Date.IsZero() {
		return fmt.Errorf("%w: date cannot be zero", ErrInvalidDate)
	}
	if strings.TrimSpace(t.Username) == "" {
		return ErrEmptyUsername
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if t.Amount.IsNegative() {
		return fmt.Errorf("%w: amount must not be negative", ErrInvalidAmount)
	}
	if len(t.Description) > 200 {
		return ErrDescriptionLimit
	}
	return nil
}

// Row returns the persisted form of t.
func (t Transaction) Row() Row {
	return Row{
		ID:          t.ID,
		Date:        t.Date.String(),
		Category:    t.Category,
		Amount:      t.Amount.StringFixed(2),
		Description: t.Description,
		Username:    t.Username,
	}
}
