package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"fintrack/internal/core"

	"github.com/shopspring/decimal"
)

func TestInsertAndReadWindow(t *testing.T) {
	s := New([]string{"Food"}, []string{"Salary"})
	ctx := context.Background()

	id, err := s.Insert(ctx, core.Transaction{
		Kind:     core.Expense,
		Date:     core.NewDate(2024, 1, 2),
		Category: "Food",
		Amount:   decimal.NewFromInt(12),
		Username: "alice",
	})
	if err != nil || id != 1 {
		t.Fatalf("unexpected insert: id=%d err=%v", id, err)
	}
	s.AppendRow(core.Expense, core.Row{Date: "2024-01-03", Category: "Food", Amount: "1", Username: "bob"})

	rows, err := s.ReadWindow(ctx, "alice", core.MonthWindow(core.NewDate(2024, 1, 1)))
	if err != nil || len(rows.Expenses) != 1 || rows.Expenses[0].Amount != "12.00" {
		t.Fatalf("unexpected rows: %+v err=%v", rows, err)
	}
}

func TestInsertRejectsInvalid(t *testing.T) {
	s := New(nil, nil)
	_, err := s.Insert(context.Background(), core.Transaction{Kind: core.Income, Date: core.NewDate(2024, 1, 1), Username: "u", Amount: decimal.NewFromInt(1)})
	if !errors.Is(err, core.ErrEmptyCategory) {
		t.Fatalf("expected ErrEmptyCategory, got %v", err)
	}
}

func TestInsertBatchIsAllOrNothing(t *testing.T) {
	s := New(nil, nil)
	good := core.Transaction{Kind: core.Expense, Date: core.NewDate(2024, 1, 1), Category: "A", Amount: decimal.NewFromInt(1), Username: "u"}
	bad := good
	bad.Amount = decimal.NewFromInt(-1)

	if err := s.InsertBatch(context.Background(), []core.Transaction{good, bad}); err == nil {
		t.Fatalf("expected error")
	}
	rows, _ := s.ReadWindow(context.Background(), "u", core.MonthWindow(core.NewDate(2024, 1, 1)))
	if len(rows.Expenses) != 0 {
		t.Fatalf("nothing should be stored, got %d", len(rows.Expenses))
	}
}

func TestDeleteCategoryReassigns(t *testing.T) {
	s := New([]string{"Food", "Fun"}, nil)
	ctx := context.Background()
	s.AppendRow(core.Expense, core.Row{Date: "2024-01-03", Category: "Fun", Amount: "1", Username: "u"})

	moved, err := s.DeleteCategory(ctx, core.Expense, "Fun", "")
	if err != nil || moved != 1 {
		t.Fatalf("unexpected delete: moved=%d err=%v", moved, err)
	}
	usage, _ := s.ListCategories(ctx, core.Expense, "u")
	want := []core.CategoryUsage{{Name: "Food", Count: 0}, {Name: core.Uncategorized, Count: 1}}
	if len(usage) != len(want) || usage[0] != want[0] || usage[1] != want[1] {
		t.Fatalf("unexpected usage: %v", usage)
	}

	if _, err := s.RenameCategory(ctx, core.Expense, "Missing", "X"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.AddCategory(ctx, core.Expense, "Food"); !errors.Is(err, core.ErrCategoryExists) {
		t.Fatalf("expected ErrCategoryExists, got %v", err)
	}
}

func TestDeleteRecord(t *testing.T) {
	s := New(nil, nil)
	id := s.AppendRow(core.Income, core.Row{Date: "2024-01-03", Category: "Gift", Amount: "1", Username: "u"})
	if err := s.Delete(context.Background(), core.Income, "other", id); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("other user must not delete, got %v", err)
	}
	if err := s.Delete(context.Background(), core.Income, "u", id); err != nil {
		t.Fatalf("delete: %v", err)
	}
}

func TestNewFromFilesSeedsAndDedupe(t *testing.T) {
	dir := t.TempDir()
	s := NewFromFiles(dir)
	usage, _ := s.ListCategories(context.Background(), core.Income, "u")
	if len(usage) != len(DefaultIncomeCategories) {
		t.Fatalf("expected defaults when files missing, got %v", usage)
	}

	if err := os.WriteFile(filepath.Join(dir, "seed_expense_categories.txt"), []byte("# header\nA\nB\nA\n\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	s = NewFromFiles(dir)
	usage, _ = s.ListCategories(context.Background(), core.Expense, "u")
	if len(usage) != 2 || usage[0].Name != "A" || usage[1].Name != "B" {
		t.Fatalf("unexpected cats: %v", usage)
	}
}
