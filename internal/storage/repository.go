package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"fintrack/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// ReadWindow implements ledger.RowReader. Both collections are read inside one
// transaction so a concurrent write cannot land between them.
func (r *SQLiteRepository) ReadWindow(ctx context.Context, username string, w core.Window) (core.RowSet, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.RowSet{}, fmt.Errorf("begin read: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	start, end := w.Start.String(), w.End.String()

	expenses, err := q.ListWindow(ctx, core.Expense, username, start, end)
	if err != nil {
		return core.RowSet{}, fmt.Errorf("list expenses: %w", err)
	}
	income, err := q.ListWindow(ctx, core.Income, username, start, end)
	if err != nil {
		return core.RowSet{}, fmt.Errorf("list income: %w", err)
	}

	return core.RowSet{Expenses: expenses, Income: income}, nil
}

// Insert implements ledger.RecordWriter
func (r *SQLiteRepository) Insert(ctx context.Context, t core.Transaction) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin insert: %w", err)
	}
	defer tx.Rollback()

	id, err := insert(ctx, r.queries.WithTx(tx), t)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit insert: %w", err)
	}

	slog.InfoContext(ctx, "Record saved to SQLite",
		"kind", t.Kind,
		"id", id,
		"username", t.Username,
		"category", t.Category,
		"amount", t.Amount.StringFixed(2),
		"date", t.Date.String())

	return id, nil
}

// InsertBatch implements ledger.RecordWriter
func (r *SQLiteRepository) InsertBatch(ctx context.Context, txns []core.Transaction) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	for i, t := range txns {
		if _, err := insert(ctx, q, t); err != nil {
			return fmt.Errorf("record %d: %w", i+1, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}

	slog.InfoContext(ctx, "Batch saved to SQLite", "records", len(txns))
	return nil
}

// insert stores t and makes sure its category is known.
func insert(ctx context.Context, q *Queries, t core.Transaction) (int64, error) {
	row := t.Row()
	id, err := q.CreateRecord(ctx, t.Kind, CreateRecordParams{
		Username:    row.Username,
		Date:        row.Date,
		Category:    row.Category,
		Amount:      row.Amount,
		Description: row.Description,
	})
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", t.Kind, err)
	}
	if err := q.InsertCategory(ctx, t.Kind, t.Category); err != nil {
		return 0, fmt.Errorf("register category: %w", err)
	}
	return id, nil
}

// Delete implements ledger.RecordWriter
func (r *SQLiteRepository) Delete(ctx context.Context, kind core.Kind, username string, id int64) error {
	n, err := r.queries.DeleteRecord(ctx, kind, id, username)
	if err != nil {
		return fmt.Errorf("delete %s: %w", kind, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", kind, id, core.ErrNotFound)
	}

	slog.InfoContext(ctx, "Record deleted from SQLite", "kind", kind, "id", id, "username", username)
	return nil
}

// ListCategories implements ledger.CategoryStore
func (r *SQLiteRepository) ListCategories(ctx context.Context, kind core.Kind, username string) ([]core.CategoryUsage, error) {
	usage, err := r.queries.CategoryUsage(ctx, kind, username)
	if err != nil {
		return nil, fmt.Errorf("list %s categories: %w", kind, err)
	}
	return usage, nil
}

// AddCategory implements ledger.CategoryStore
func (r *SQLiteRepository) AddCategory(ctx context.Context, kind core.Kind, name string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin add category: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	exists, err := q.CategoryExists(ctx, kind, name)
	if err != nil {
		return fmt.Errorf("check category: %w", err)
	}
	if exists {
		return fmt.Errorf("%q: %w", name, core.ErrCategoryExists)
	}
	if err := q.InsertCategory(ctx, kind, name); err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	return tx.Commit()
}

// RenameCategory implements ledger.CategoryStore. Renaming onto an existing
// category merges the two.
func (r *SQLiteRepository) RenameCategory(ctx context.Context, kind core.Kind, from, to string) (int64, error) {
	return r.moveCategory(ctx, kind, from, to)
}

// DeleteCategory implements ledger.CategoryStore. Records of the deleted
// category move to reassignTo, or to core.Uncategorized when it is blank.
func (r *SQLiteRepository) DeleteCategory(ctx context.Context, kind core.Kind, name, reassignTo string) (int64, error) {
	if strings.TrimSpace(reassignTo) == "" {
		reassignTo = core.Uncategorized
	}
	return r.moveCategory(ctx, kind, name, reassignTo)
}

func (r *SQLiteRepository) moveCategory(ctx context.Context, kind core.Kind, from, to string) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin move category: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	removed, err := q.DeleteCategory(ctx, kind, from)
	if err != nil {
		return 0, fmt.Errorf("delete category: %w", err)
	}
	moved, err := q.Recategorize(ctx, kind, from, to)
	if err != nil {
		return 0, fmt.Errorf("move records: %w", err)
	}
	if removed == 0 && moved == 0 {
		return 0, fmt.Errorf("category %q: %w", from, core.ErrNotFound)
	}
	if err := q.InsertCategory(ctx, kind, to); err != nil {
		return 0, fmt.Errorf("insert category: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit move category: %w", err)
	}

	slog.InfoContext(ctx, "Category moved", "kind", kind, "from", from, "to", to, "records", moved)
	return moved, nil
}
