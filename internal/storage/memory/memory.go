// Package memory is an in-process ledger backend, used for local runs and
// tests. Nothing is persisted.
package memory

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"fintrack/internal/core"
)

var (
	DefaultExpenseCategories = []string{"Food", "Transportation", "Utilities", "Entertainment", "Healthcare", "Savings", "Other"}
	DefaultIncomeCategories  = []string{"Salary/Wages", "Investment Income", "Reimbursement", "Gifts"}
)

type Store struct {
	mu     sync.Mutex
	cats   map[core.Kind][]string
	rows   map[core.Kind][]core.Row
	nextID int64
}

func New(expenseCats, incomeCats []string) *Store {
	return &Store{
		cats: map[core.Kind][]string{
			core.Expense: dedupe(expenseCats),
			core.Income:  dedupe(incomeCats),
		},
		rows: map[core.Kind][]core.Row{},
	}
}

// NewFromFiles seeds the category lists from seed_expense_categories.txt and
// seed_income_categories.txt in base, falling back to the defaults.
func NewFromFiles(base string) *Store {
	exp := readLines(filepath.Join(base, "seed_expense_categories.txt"))
	inc := readLines(filepath.Join(base, "seed_income_categories.txt"))
	if len(exp) == 0 {
		exp = DefaultExpenseCategories
	}
	if len(inc) == 0 {
		inc = DefaultIncomeCategories
	}
	return New(exp, inc)
}

func (s *Store) Close() error                 { return nil }
func (s *Store) Ping(_ context.Context) error { return nil }

// AppendRow stores a raw row as is and returns its id. It bypasses validation
// so callers can load data exactly as another system wrote it.
func (s *Store) AppendRow(kind core.Kind, r core.Row) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendLocked(kind, r)
}

func (s *Store) appendLocked(kind core.Kind, r core.Row) int64 {
	s.nextID++
	r.ID = s.nextID
	s.rows[kind] = append(s.rows[kind], r)
	return r.ID
}

// ReadWindow returns every row of username; window filtering happens when
// the rows are decoded.
func (s *Store) ReadWindow(_ context.Context, username string, _ core.Window) (core.RowSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.RowSet{
		Expenses: s.userRows(core.Expense, username),
		Income:   s.userRows(core.Income, username),
	}, nil
}

func (s *Store) userRows(kind core.Kind, username string) []core.Row {
	var out []core.Row
	for _, r := range s.rows[kind] {
		if r.Username == username {
			out = append(out, r)
		}
	}
	return out
}

func (s *Store) Insert(_ context.Context, t core.Transaction) (int64, error) {
	if err := t.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addCategoryLocked(t.Kind, t.Category)
	return s.appendLocked(t.Kind, t.Row()), nil
}

func (s *Store) InsertBatch(_ context.Context, txns []core.Transaction) error {
	for i, t := range txns {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("record %d: %w", i+1, err)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range txns {
		s.addCategoryLocked(t.Kind, t.Category)
		s.appendLocked(t.Kind, t.Row())
	}
	return nil
}

func (s *Store) Delete(_ context.Context, kind core.Kind, username string, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := s.rows[kind]
	for i, r := range rows {
		if r.ID == id && r.Username == username {
			s.rows[kind] = append(rows[:i], rows[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%s %d: %w", kind, id, core.ErrNotFound)
}

func (s *Store) ListCategories(_ context.Context, kind core.Kind, username string) ([]core.CategoryUsage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := map[string]int{}
	for _, c := range s.cats[kind] {
		counts[c] = 0
	}
	for _, r := range s.rows[kind] {
		if r.Username == username {
			counts[r.Category]++
		}
	}

	out := make([]core.CategoryUsage, 0, len(counts))
	for name, n := range counts {
		out = append(out, core.CategoryUsage{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) AddCategory(_ context.Context, kind core.Kind, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hasCategoryLocked(kind, name) {
		return fmt.Errorf("%q: %w", name, core.ErrCategoryExists)
	}
	s.cats[kind] = append(s.cats[kind], name)
	return nil
}

func (s *Store) RenameCategory(_ context.Context, kind core.Kind, from, to string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.moveLocked(kind, from, to)
}

func (s *Store) DeleteCategory(_ context.Context, kind core.Kind, name, reassignTo string) (int64, error) {
	if strings.TrimSpace(reassignTo) == "" {
		reassignTo = core.Uncategorized
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.moveLocked(kind, name, reassignTo)
}

func (s *Store) moveLocked(kind core.Kind, from, to string) (int64, error) {
	known := s.hasCategoryLocked(kind, from)
	var moved int64
	for i := range s.rows[kind] {
		if s.rows[kind][i].Category == from {
			s.rows[kind][i].Category = to
			moved++
		}
	}
	if !known && moved == 0 {
		return 0, fmt.Errorf("category %q: %w", from, core.ErrNotFound)
	}

	kept := s.cats[kind][:0]
	for _, c := range s.cats[kind] {
		if c != from {
			kept = append(kept, c)
		}
	}
	s.cats[kind] = kept
	s.addCategoryLocked(kind, to)
	return moved, nil
}

func (s *Store) hasCategoryLocked(kind core.Kind, name string) bool {
	for _, c := range s.cats[kind] {
		if c == name {
			return true
		}
	}
	return false
}

func (s *Store) addCategoryLocked(kind core.Kind, name string) {
	if !s.hasCategoryLocked(kind, name) {
		s.cats[kind] = append(s.cats[kind], name)
	}
}

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return dedupe(out)
}

// dedupe drops blanks and repeats, keeping the first occurrence order.
func dedupe(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
